package postgres

import (
	"context"
	"fmt"
	"time"

	"bank-ledger/internal/core/domain"
	"bank-ledger/internal/core/ports"

	"github.com/jackc/pgx/v5"
)

const transactionColumns = `id, withdraw_account_id, withdraw_account_number, withdraw_account_balance,
		deposit_account_id, deposit_account_number, deposit_account_balance,
		amount, fee, type, sender, receiver, created_at`

// TransactionRepo implements ports.TransactionRepository.
type TransactionRepo struct {
	pool Pool
}

// NewTransactionRepo creates a new TransactionRepo.
func NewTransactionRepo(pool Pool) *TransactionRepo {
	return &TransactionRepo{pool: pool}
}

// Create inserts a new transaction within a database transaction.
func (r *TransactionRepo) Create(ctx context.Context, tx pgx.Tx, t *domain.Transaction) error {
	query := `INSERT INTO transactions (` + transactionColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)`

	_, err := tx.Exec(ctx, query,
		t.ID, t.WithdrawAccountID, t.WithdrawAccountNumber, t.WithdrawAccountBalance,
		t.DepositAccountID, t.DepositAccountNumber, t.DepositAccountBalance,
		t.Amount, t.Fee, t.Type, t.Sender, t.Receiver, t.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert transaction: %w", err)
	}
	return nil
}

// SumOutgoing totals WITHDRAW and TRANSFER amounts debited from accountNumber
// with created_at in [start, end]. It runs inside tx so it sees the
// caller's locked view.
func (r *TransactionRepo) SumOutgoing(ctx context.Context, tx pgx.Tx, accountNumber int64, start, end time.Time) (int64, error) {
	query := `SELECT COALESCE(SUM(amount), 0) FROM transactions
		WHERE withdraw_account_number = $1 AND type = ANY($2) AND created_at BETWEEN $3 AND $4`

	types := make([]string, 0, len(domain.OutgoingTypes))
	for _, t := range domain.OutgoingTypes {
		types = append(types, string(t))
	}

	var sum int64
	if err := tx.QueryRow(ctx, query, accountNumber, types, start, end).Scan(&sum); err != nil {
		return 0, fmt.Errorf("sum outgoing transactions: %w", err)
	}
	return sum, nil
}

// List fetches one account's transactions, newest first.
func (r *TransactionRepo) List(ctx context.Context, params ports.TransactionListParams) ([]domain.Transaction, int64, error) {
	var where string
	args := []any{params.AccountID}

	switch params.Type {
	case domain.TransactionTypeWithdraw:
		where = "WHERE withdraw_account_id = $1 AND type = $2"
		args = append(args, params.Type)
	case domain.TransactionTypeDeposit:
		where = "WHERE deposit_account_id = $1 AND type = $2"
		args = append(args, params.Type)
	case domain.TransactionTypeTransfer:
		where = "WHERE (withdraw_account_id = $1 OR deposit_account_id = $1) AND type = $2"
		args = append(args, params.Type)
	default:
		where = "WHERE (withdraw_account_id = $1 OR deposit_account_id = $1)"
	}
	argIdx := len(args) + 1

	var total int64
	if err := r.pool.QueryRow(ctx, "SELECT COUNT(*) FROM transactions "+where, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count transactions: %w", err)
	}

	dataQuery := fmt.Sprintf(`SELECT %s FROM transactions %s ORDER BY created_at DESC, id LIMIT $%d OFFSET $%d`,
		transactionColumns, where, argIdx, argIdx+1)
	args = append(args, params.Count, params.Offset)

	rows, err := r.pool.Query(ctx, dataQuery, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("list transactions: %w", err)
	}
	defer rows.Close()

	txns := []domain.Transaction{}
	for rows.Next() {
		t, err := scanTransaction(rows)
		if err != nil {
			return nil, 0, err
		}
		txns = append(txns, *t)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("iterate transaction rows: %w", err)
	}
	return txns, total, nil
}

// GetStats aggregates one account's history, optionally from since onwards.
func (r *TransactionRepo) GetStats(ctx context.Context, accountID int64, since *time.Time) (*ports.TransactionStats, error) {
	condition := "(withdraw_account_id = $1 OR deposit_account_id = $1)"
	args := []any{accountID}
	if since != nil {
		condition += " AND created_at >= $2"
		args = append(args, *since)
	}

	query := fmt.Sprintf(`SELECT
		COUNT(*) AS total,
		COALESCE(SUM(amount) FILTER (WHERE type = 'DEPOSIT'), 0) AS deposited,
		COALESCE(SUM(amount) FILTER (WHERE type = 'WITHDRAW'), 0) AS withdrawn,
		COALESCE(SUM(amount) FILTER (WHERE type = 'TRANSFER' AND withdraw_account_id = $1), 0) AS sent,
		COALESCE(SUM(amount) FILTER (WHERE type = 'TRANSFER' AND deposit_account_id = $1), 0) AS received,
		COALESCE(SUM(fee) FILTER (WHERE withdraw_account_id = $1), 0) AS fees
		FROM transactions WHERE %s`, condition)

	stats := &ports.TransactionStats{}
	err := r.pool.QueryRow(ctx, query, args...).Scan(
		&stats.TotalTransactions, &stats.TotalDeposited, &stats.TotalWithdrawn,
		&stats.TotalSent, &stats.TotalReceived, &stats.TotalFees,
	)
	if err != nil {
		return nil, fmt.Errorf("get transaction stats: %w", err)
	}
	return stats, nil
}

func scanTransaction(row pgx.Row) (*domain.Transaction, error) {
	t := &domain.Transaction{}
	err := row.Scan(
		&t.ID, &t.WithdrawAccountID, &t.WithdrawAccountNumber, &t.WithdrawAccountBalance,
		&t.DepositAccountID, &t.DepositAccountNumber, &t.DepositAccountBalance,
		&t.Amount, &t.Fee, &t.Type, &t.Sender, &t.Receiver, &t.CreatedAt,
	)
	if err != nil {
		return nil, fmt.Errorf("scan transaction: %w", err)
	}
	return t, nil
}
