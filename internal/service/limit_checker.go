package service

import (
	"context"
	"fmt"
	"time"

	"bank-ledger/internal/core/domain"
	"bank-ledger/internal/core/ports"
	"bank-ledger/pkg/apperror"

	"github.com/jackc/pgx/v5"
)

// LimitChecker implements ports.TransferLimitChecker over the stored
// outgoing history of an account.
type LimitChecker struct {
	txRepo ports.TransactionRepository
}

// NewLimitChecker creates a new LimitChecker.
func NewLimitChecker(txRepo ports.TransactionRepository) *LimitChecker {
	return &LimitChecker{txRepo: txRepo}
}

// CheckLimit sums WITHDRAW and TRANSFER debits in each window ending at
// asOf (both ends inclusive) and fails on the first window whose total
// plus amount exceeds its cap.
func (c *LimitChecker) CheckLimit(ctx context.Context, tx pgx.Tx, accountNumber int64, amount int64, asOf time.Time) error {
	for _, w := range domain.LimitWindows(asOf) {
		spent, err := c.txRepo.SumOutgoing(ctx, tx, accountNumber, w.Start, w.End)
		if err != nil {
			return apperror.InternalError(fmt.Errorf("sum %s outgoing: %w", w.Period, err))
		}
		if w.Exceeded(spent, amount) {
			return w.Err()
		}
	}
	return nil
}
