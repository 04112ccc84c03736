package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"bank-ledger/internal/core/domain"
	"bank-ledger/internal/core/ports"
	"bank-ledger/pkg/apperror"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/rs/zerolog"
)

const (
	idempotencyTTL = 24 * time.Hour
	inFlightTTL    = 30 * time.Second
)

// LedgerServiceImpl implements ports.LedgerService with pessimistic row locks.
type LedgerServiceImpl struct {
	accountRepo ports.AccountRepository
	txRepo      ports.TransactionRepository
	idempRepo   ports.IdempotencyRepository
	idempCache  ports.IdempotencyCache // optional
	reqLock     ports.RequestLock      // optional
	limits      ports.TransferLimitChecker
	events      *EventDispatcher
	transactor  ports.DBTransactor
	clock       ports.Clock
	log         zerolog.Logger
}

// NewLedgerService creates a new LedgerServiceImpl. idempCache and reqLock
// may be nil when Redis is disabled; events may be nil to skip publishing.
func NewLedgerService(
	accountRepo ports.AccountRepository,
	txRepo ports.TransactionRepository,
	idempRepo ports.IdempotencyRepository,
	idempCache ports.IdempotencyCache,
	reqLock ports.RequestLock,
	limits ports.TransferLimitChecker,
	events *EventDispatcher,
	transactor ports.DBTransactor,
	clock ports.Clock,
	log zerolog.Logger,
) *LedgerServiceImpl {
	return &LedgerServiceImpl{
		accountRepo: accountRepo,
		txRepo:      txRepo,
		idempRepo:   idempRepo,
		idempCache:  idempCache,
		reqLock:     reqLock,
		limits:      limits,
		events:      events,
		transactor:  transactor,
		clock:       clock,
		log:         log,
	}
}

// Deposit credits an account. Anyone may deposit into any account.
func (s *LedgerServiceImpl) Deposit(ctx context.Context, req ports.DepositRequest) (txn *domain.Transaction, err error) {
	defer observeOperation(opDeposit, time.Now(), &err)

	if req.Amount <= 0 {
		return nil, apperror.ErrInvalidAmount()
	}

	dbTx, err := s.transactor.Begin(ctx)
	if err != nil {
		return nil, apperror.InternalError(fmt.Errorf("begin tx: %w", err))
	}
	defer dbTx.Rollback(ctx) //nolint:errcheck

	account, err := s.lockAccount(ctx, dbTx, req.AccountNumber)
	if err != nil {
		return nil, err
	}

	account.Deposit(req.Amount)
	if err := s.accountRepo.UpdateBalance(ctx, dbTx, account.ID, account.Balance); err != nil {
		return nil, apperror.InternalError(fmt.Errorf("update balance: %w", err))
	}

	txn = s.newTransaction(domain.TransactionTypeDeposit, req.Amount, 0)
	txn.SetDepositSide(account)
	txn.Sender = req.Sender
	txn.Receiver = account.OwnerName

	if err := s.txRepo.Create(ctx, dbTx, txn); err != nil {
		return nil, apperror.InternalError(fmt.Errorf("create transaction: %w", err))
	}

	if err := dbTx.Commit(ctx); err != nil {
		return nil, asAppError(err, "commit tx")
	}

	s.afterCommit(ctx, opDeposit, "", nil, txn)
	return txn, nil
}

// Withdraw debits an account owned by the caller. Plain withdrawals carry no fee.
func (s *LedgerServiceImpl) Withdraw(ctx context.Context, req ports.WithdrawRequest) (txn *domain.Transaction, err error) {
	defer observeOperation(opWithdraw, time.Now(), &err)

	if req.Amount <= 0 {
		return nil, apperror.ErrInvalidAmount()
	}

	idempKey := ""
	if req.IdempotencyKey != "" {
		idempKey = domain.BuildIdempotencyKey(req.UserID, domain.TransactionTypeWithdraw, req.IdempotencyKey)
		replay, release, err := s.claimIdempotencyKey(ctx, idempKey)
		if err != nil {
			return nil, err
		}
		if replay != nil {
			return replay, nil
		}
		defer release()
	}

	dbTx, err := s.transactor.Begin(ctx)
	if err != nil {
		return nil, apperror.InternalError(fmt.Errorf("begin tx: %w", err))
	}
	defer dbTx.Rollback(ctx) //nolint:errcheck

	account, err := s.lockAccount(ctx, dbTx, req.AccountNumber)
	if err != nil {
		return nil, err
	}

	if err := account.CheckOwner(req.UserID); err != nil {
		return nil, err
	}
	if err := account.CheckPassword(req.Password); err != nil {
		return nil, err
	}
	if err := account.Withdraw(req.Amount, 0); err != nil {
		return nil, err
	}

	if err := s.accountRepo.UpdateBalance(ctx, dbTx, account.ID, account.Balance); err != nil {
		return nil, apperror.InternalError(fmt.Errorf("update balance: %w", err))
	}

	txn = s.newTransaction(domain.TransactionTypeWithdraw, req.Amount, 0)
	txn.SetWithdrawSide(account)
	txn.Sender = account.OwnerName
	txn.Receiver = req.Receiver

	if err := s.txRepo.Create(ctx, dbTx, txn); err != nil {
		return nil, apperror.InternalError(fmt.Errorf("create transaction: %w", err))
	}

	respJSON, err := s.saveIdempotencyLog(ctx, dbTx, idempKey, txn)
	if err != nil {
		return nil, err
	}

	if err := dbTx.Commit(ctx); err != nil {
		return nil, asAppError(err, "commit tx")
	}

	s.afterCommit(ctx, opWithdraw, idempKey, respJSON, txn)
	return txn, nil
}

// Transfer moves amount from one account to another and charges the
// transfer fee to the sender. Both rows are locked in ascending account
// number order so opposing transfers cannot deadlock.
func (s *LedgerServiceImpl) Transfer(ctx context.Context, req ports.TransferRequest) (txn *domain.Transaction, err error) {
	defer observeOperation(opTransfer, time.Now(), &err)

	if req.WithdrawAccountNumber == req.DepositAccountNumber {
		return nil, apperror.ErrSameAccount()
	}
	if req.Amount <= 0 {
		return nil, apperror.ErrInvalidAmount()
	}

	idempKey := ""
	if req.IdempotencyKey != "" {
		idempKey = domain.BuildIdempotencyKey(req.UserID, domain.TransactionTypeTransfer, req.IdempotencyKey)
		replay, release, err := s.claimIdempotencyKey(ctx, idempKey)
		if err != nil {
			return nil, err
		}
		if replay != nil {
			return replay, nil
		}
		defer release()
	}

	transferDate := req.TransferDate
	if transferDate.IsZero() {
		transferDate = s.clock.Now()
	}

	dbTx, err := s.transactor.Begin(ctx)
	if err != nil {
		return nil, apperror.InternalError(fmt.Errorf("begin tx: %w", err))
	}
	defer dbTx.Rollback(ctx) //nolint:errcheck

	from, to, err := s.lockPair(ctx, dbTx, req.WithdrawAccountNumber, req.DepositAccountNumber)
	if err != nil {
		return nil, err
	}

	fee := domain.TransferFee(req.Amount)

	if err := from.CheckOwner(req.UserID); err != nil {
		return nil, err
	}
	if err := from.CheckPassword(req.Password); err != nil {
		return nil, err
	}
	if err := from.CheckSufficientFunds(req.Amount, fee); err != nil {
		return nil, err
	}
	if err := s.limits.CheckLimit(ctx, dbTx, from.AccountNumber, req.Amount, transferDate); err != nil {
		return nil, err
	}

	if err := from.Withdraw(req.Amount, fee); err != nil {
		return nil, err
	}
	to.Deposit(req.Amount)

	if err := s.accountRepo.UpdateBalance(ctx, dbTx, from.ID, from.Balance); err != nil {
		return nil, apperror.InternalError(fmt.Errorf("update withdraw balance: %w", err))
	}
	if err := s.accountRepo.UpdateBalance(ctx, dbTx, to.ID, to.Balance); err != nil {
		return nil, apperror.InternalError(fmt.Errorf("update deposit balance: %w", err))
	}

	txn = s.newTransaction(domain.TransactionTypeTransfer, req.Amount, fee)
	txn.SetWithdrawSide(from)
	txn.SetDepositSide(to)
	txn.Sender = from.OwnerName
	txn.Receiver = to.OwnerName

	if err := s.txRepo.Create(ctx, dbTx, txn); err != nil {
		return nil, apperror.InternalError(fmt.Errorf("create transaction: %w", err))
	}

	respJSON, err := s.saveIdempotencyLog(ctx, dbTx, idempKey, txn)
	if err != nil {
		return nil, err
	}

	if err := dbTx.Commit(ctx); err != nil {
		return nil, asAppError(err, "commit tx")
	}

	s.afterCommit(ctx, opTransfer, idempKey, respJSON, txn)
	return txn, nil
}

func (s *LedgerServiceImpl) newTransaction(typ domain.TransactionType, amount, fee int64) *domain.Transaction {
	return &domain.Transaction{
		ID:        uuid.New(),
		Amount:    amount,
		Fee:       fee,
		Type:      typ,
		CreatedAt: s.clock.Now(),
	}
}

func (s *LedgerServiceImpl) lockAccount(ctx context.Context, tx pgx.Tx, number int64) (*domain.Account, error) {
	account, err := s.accountRepo.GetByNumberForUpdate(ctx, tx, number)
	if err != nil {
		return nil, asAppError(err, fmt.Sprintf("lock account %d", number))
	}
	if account == nil {
		return nil, apperror.ErrNotFound("account")
	}
	return account, nil
}

// lockPair locks both accounts, lower number first, and returns them in
// (withdraw, deposit) order.
func (s *LedgerServiceImpl) lockPair(ctx context.Context, tx pgx.Tx, withdrawNumber, depositNumber int64) (*domain.Account, *domain.Account, error) {
	first, second := withdrawNumber, depositNumber
	if second < first {
		first, second = second, first
	}

	a, err := s.lockAccount(ctx, tx, first)
	if err != nil {
		return nil, nil, err
	}
	b, err := s.lockAccount(ctx, tx, second)
	if err != nil {
		return nil, nil, err
	}

	if a.AccountNumber == withdrawNumber {
		return a, b, nil
	}
	return b, a, nil
}

// claimIdempotencyKey returns the stored result for key if the request was
// already served. Otherwise it marks key as in flight and returns a release
// func the caller must defer.
func (s *LedgerServiceImpl) claimIdempotencyKey(ctx context.Context, key string) (*domain.Transaction, func(), error) {
	release := func() {}

	if s.reqLock != nil {
		acquired, err := s.reqLock.Acquire(ctx, key, inFlightTTL)
		switch {
		case err != nil:
			s.log.Warn().Err(err).Str("key", key).Msg("redis request lock failed, continuing without it")
		case !acquired:
			return nil, nil, apperror.ErrRequestInProgress()
		default:
			release = func() {
				if err := s.reqLock.Release(context.WithoutCancel(ctx), key); err != nil {
					s.log.Warn().Err(err).Str("key", key).Msg("failed to release request lock")
				}
			}
		}
	}

	// Layer 1: Redis idempotency check
	if s.idempCache != nil {
		cached, err := s.idempCache.Get(ctx, key)
		if err != nil {
			s.log.Warn().Err(err).Str("key", key).Msg("redis idempotency check failed, falling through to DB")
		}
		if cached != nil {
			release()
			txn, err := unmarshalTransaction(cached)
			return txn, nil, err
		}
	}

	// Layer 2: DB idempotency check
	idempLog, err := s.idempRepo.Get(ctx, key)
	if err != nil {
		release()
		return nil, nil, apperror.InternalError(fmt.Errorf("db idempotency check: %w", err))
	}
	if idempLog != nil {
		release()
		txn, err := unmarshalTransaction(idempLog.ResponseJSON)
		return txn, nil, err
	}

	return nil, release, nil
}

// saveIdempotencyLog stores txn under key inside tx. It is a no-op without a key.
func (s *LedgerServiceImpl) saveIdempotencyLog(ctx context.Context, tx pgx.Tx, key string, txn *domain.Transaction) ([]byte, error) {
	if key == "" {
		return nil, nil
	}

	respJSON, err := json.Marshal(txn)
	if err != nil {
		return nil, apperror.InternalError(fmt.Errorf("marshal response: %w", err))
	}

	entry := &domain.IdempotencyLog{
		Key:           key,
		TransactionID: txn.ID,
		ResponseJSON:  respJSON,
		CreatedAt:     txn.CreatedAt,
	}
	if err := s.idempRepo.Create(ctx, tx, entry); err != nil {
		return nil, asAppError(err, "save idempotency log")
	}
	return respJSON, nil
}

// asAppError keeps an *apperror.AppError raised by a repository and wraps
// anything else as SYS_001.
func asAppError(err error, op string) *apperror.AppError {
	var appErr *apperror.AppError
	if errors.As(err, &appErr) {
		return appErr
	}
	return apperror.InternalError(fmt.Errorf("%s: %w", op, err))
}

// afterCommit runs best-effort follow-ups. Nothing here can fail the operation.
func (s *LedgerServiceImpl) afterCommit(ctx context.Context, operation, idempKey string, respJSON []byte, txn *domain.Transaction) {
	if idempKey != "" && s.idempCache != nil {
		if err := s.idempCache.Set(ctx, idempKey, respJSON, idempotencyTTL); err != nil {
			s.log.Warn().Err(err).Str("key", idempKey).Msg("failed to cache idempotency in redis")
		}
	}

	s.events.Dispatch(txn)
	ledgerMoved.WithLabelValues(operation).Add(float64(txn.Amount))

	s.log.Info().
		Str("tx_id", txn.ID.String()).
		Str("type", string(txn.Type)).
		Int64("amount", txn.Amount).
		Int64("fee", txn.Fee).
		Msg("ledger transaction committed")
}

func unmarshalTransaction(data []byte) (*domain.Transaction, error) {
	var txn domain.Transaction
	if err := json.Unmarshal(data, &txn); err != nil {
		return nil, apperror.InternalError(fmt.Errorf("unmarshal cached transaction: %w", err))
	}
	return &txn, nil
}
