package service

import (
	"context"
	"fmt"

	"bank-ledger/internal/core/domain"
	"bank-ledger/internal/core/ports"
	"bank-ledger/pkg/apperror"

	"github.com/rs/zerolog"
)

type accountService struct {
	accountRepo ports.AccountRepository
	userRepo    ports.UserRepository
	transactor  ports.DBTransactor
	clock       ports.Clock
	log         zerolog.Logger
}

// NewAccountService creates a new account lifecycle service.
func NewAccountService(
	accountRepo ports.AccountRepository,
	userRepo ports.UserRepository,
	transactor ports.DBTransactor,
	clock ports.Clock,
	log zerolog.Logger,
) ports.AccountService {
	return &accountService{
		accountRepo: accountRepo,
		userRepo:    userRepo,
		transactor:  transactor,
		clock:       clock,
		log:         log,
	}
}

// Open allocates the next account number and creates an empty account.
func (s *accountService) Open(ctx context.Context, req ports.OpenAccountRequest) (*domain.Account, error) {
	if req.Password == "" {
		return nil, apperror.Validation("account password is required")
	}

	owner, err := s.userRepo.GetByID(ctx, req.OwnerID)
	if err != nil {
		return nil, apperror.InternalError(fmt.Errorf("find owner: %w", err))
	}
	if owner == nil {
		return nil, apperror.ErrNotFound("user")
	}

	number, err := s.accountRepo.NextAccountNumber(ctx)
	if err != nil {
		return nil, apperror.InternalError(fmt.Errorf("allocate account number: %w", err))
	}

	now := s.clock.Now()
	registeredAt := req.RegisteredAt
	if registeredAt.IsZero() {
		registeredAt = now
	}

	account := &domain.Account{
		AccountNumber: number,
		Password:      req.Password,
		OwnerID:       owner.ID,
		OwnerName:     owner.Username,
		RegisteredAt:  registeredAt,
		CreatedAt:     now,
		UpdatedAt:     now,
	}
	if err := s.accountRepo.Create(ctx, account); err != nil {
		return nil, apperror.InternalError(fmt.Errorf("create account: %w", err))
	}

	s.log.Info().
		Int64("account_id", account.ID).
		Int64("account_number", account.AccountNumber).
		Int64("owner_id", owner.ID).
		Msg("account opened")

	return account, nil
}

func (s *accountService) Get(ctx context.Context, accountID, userID int64) (*domain.Account, error) {
	account, err := s.accountRepo.GetByID(ctx, accountID)
	if err != nil {
		return nil, apperror.InternalError(err)
	}
	if account == nil {
		return nil, apperror.ErrNotFound("account")
	}
	if err := account.CheckOwner(userID); err != nil {
		return nil, err
	}
	return account, nil
}

func (s *accountService) ListMine(ctx context.Context, userID int64) ([]domain.Account, error) {
	accounts, err := s.accountRepo.ListByOwner(ctx, userID)
	if err != nil {
		return nil, apperror.InternalError(err)
	}
	return accounts, nil
}

// Close hard-deletes an account and, through the foreign keys, its history.
// The row lock keeps it from vanishing under an in-flight transfer.
func (s *accountService) Close(ctx context.Context, accountID, userID int64) error {
	dbTx, err := s.transactor.Begin(ctx)
	if err != nil {
		return apperror.InternalError(fmt.Errorf("begin tx: %w", err))
	}
	defer dbTx.Rollback(ctx) //nolint:errcheck

	account, err := s.accountRepo.GetByIDForUpdate(ctx, dbTx, accountID)
	if err != nil {
		return asAppError(err, "lock account")
	}
	if account == nil {
		return apperror.ErrNotFound("account")
	}
	if err := account.CheckOwner(userID); err != nil {
		return err
	}

	if err := s.accountRepo.Delete(ctx, dbTx, accountID); err != nil {
		return apperror.InternalError(fmt.Errorf("delete account: %w", err))
	}

	if err := dbTx.Commit(ctx); err != nil {
		return apperror.InternalError(fmt.Errorf("commit tx: %w", err))
	}

	s.log.Info().Int64("account_id", accountID).Int64("owner_id", userID).Msg("account closed")
	return nil
}
