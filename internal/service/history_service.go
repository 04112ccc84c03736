package service

import (
	"context"
	"time"

	"bank-ledger/internal/core/domain"
	"bank-ledger/internal/core/ports"
	"bank-ledger/pkg/apperror"
)

// History page sizes.
const (
	DefaultPageCount = 10
	MaxPageCount     = 100
)

// historyService implements ports.HistoryService.
type historyService struct {
	txRepo      ports.TransactionRepository
	accountRepo ports.AccountRepository
	clock       ports.Clock
}

// NewHistoryService creates a new history service.
func NewHistoryService(
	txRepo ports.TransactionRepository,
	accountRepo ports.AccountRepository,
	clock ports.Clock,
) ports.HistoryService {
	return &historyService{
		txRepo:      txRepo,
		accountRepo: accountRepo,
		clock:       clock,
	}
}

// ListTransactions returns one page of an account's history, newest first.
func (s *historyService) ListTransactions(ctx context.Context, req ports.ListTransactionsRequest) ([]domain.Transaction, int64, error) {
	if err := s.checkAccess(ctx, req.AccountID, req.UserID); err != nil {
		return nil, 0, err
	}

	params := ports.TransactionListParams{
		AccountID: req.AccountID,
		Type:      req.Type,
		Offset:    req.Offset,
		Count:     req.Count,
	}
	if params.Type == "" {
		params.Type = domain.TransactionTypeAll
	}
	if params.Offset < 0 {
		params.Offset = 0
	}
	if params.Count <= 0 {
		params.Count = DefaultPageCount
	}
	if params.Count > MaxPageCount {
		params.Count = MaxPageCount
	}

	txns, total, err := s.txRepo.List(ctx, params)
	if err != nil {
		return nil, 0, apperror.InternalError(err)
	}
	return txns, total, nil
}

// GetStats aggregates an account's history over the trailing period.
func (s *historyService) GetStats(ctx context.Context, accountID, userID int64, period string) (*ports.TransactionStats, error) {
	var since *time.Time

	now := s.clock.Now()
	switch period {
	case "day":
		t := now.AddDate(0, 0, -1)
		since = &t
	case "week":
		t := now.AddDate(0, 0, -7)
		since = &t
	case "month":
		t := now.AddDate(0, -1, 0)
		since = &t
	case "all", "":
	default:
		return nil, apperror.Validation("invalid period: must be day, week, month, or all")
	}

	if err := s.checkAccess(ctx, accountID, userID); err != nil {
		return nil, err
	}

	stats, err := s.txRepo.GetStats(ctx, accountID, since)
	if err != nil {
		return nil, apperror.InternalError(err)
	}
	return stats, nil
}

func (s *historyService) checkAccess(ctx context.Context, accountID, userID int64) error {
	account, err := s.accountRepo.GetByID(ctx, accountID)
	if err != nil {
		return apperror.InternalError(err)
	}
	if account == nil {
		return apperror.ErrNotFound("account")
	}
	return account.CheckOwner(userID)
}
