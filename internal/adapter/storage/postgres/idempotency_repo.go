package postgres

import (
	"context"
	"errors"
	"fmt"

	"bank-ledger/internal/core/domain"
	"bank-ledger/pkg/apperror"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

const (
	insertReplayLog = `INSERT INTO idempotency_logs (key, transaction_id, response_json, created_at)
		VALUES ($1, $2, $3, $4)`
	selectReplayLog = `SELECT key, transaction_id, response_json, created_at
		FROM idempotency_logs WHERE key = $1`
)

// IdempotencyRepo is the durable replay log for withdrawals and transfers.
type IdempotencyRepo struct {
	pool Pool
}

func NewIdempotencyRepo(pool Pool) *IdempotencyRepo {
	return &IdempotencyRepo{pool: pool}
}

// Create writes inside the money-movement transaction, so the entry exists
// iff the movement committed. A key that is already logged yields REQ_002.
func (r *IdempotencyRepo) Create(ctx context.Context, tx pgx.Tx, entry *domain.IdempotencyLog) error {
	_, err := tx.Exec(ctx, insertReplayLog, entry.Key, entry.TransactionID, entry.ResponseJSON, entry.CreatedAt)
	var pgErr *pgconn.PgError
	switch {
	case errors.As(err, &pgErr) && pgErr.Code == uniqueViolation:
		return apperror.ErrRequestInProgress()
	case err != nil:
		return fmt.Errorf("insert replay log %s: %w", entry.Key, err)
	}
	return nil
}

// Get returns nil, nil when the key was never logged.
func (r *IdempotencyRepo) Get(ctx context.Context, key string) (*domain.IdempotencyLog, error) {
	var entry domain.IdempotencyLog
	err := r.pool.QueryRow(ctx, selectReplayLog, key).
		Scan(&entry.Key, &entry.TransactionID, &entry.ResponseJSON, &entry.CreatedAt)
	switch {
	case errors.Is(err, pgx.ErrNoRows):
		return nil, nil
	case err != nil:
		return nil, fmt.Errorf("select replay log %s: %w", key, err)
	}
	return &entry, nil
}
