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

// lockNotAvailable is raised when lock_timeout expires.
const lockNotAvailable = "55P03"

const accountSelect = `SELECT a.id, a.account_number, a.password, a.balance, a.owner_id, u.username,
		a.registered_at, a.unregistered_at, a.created_at, a.updated_at
		FROM accounts a JOIN users u ON u.id = a.owner_id`

// AccountRepo implements ports.AccountRepository.
type AccountRepo struct {
	pool Pool
}

// NewAccountRepo creates a new AccountRepo.
func NewAccountRepo(pool Pool) *AccountRepo {
	return &AccountRepo{pool: pool}
}

// NextAccountNumber draws from account_number_seq, which starts at 1111.
func (r *AccountRepo) NextAccountNumber(ctx context.Context) (int64, error) {
	var n int64
	if err := r.pool.QueryRow(ctx, `SELECT nextval('account_number_seq')`).Scan(&n); err != nil {
		return 0, fmt.Errorf("next account number: %w", err)
	}
	return n, nil
}

// Create inserts an account and fills in its generated ID.
func (r *AccountRepo) Create(ctx context.Context, a *domain.Account) error {
	query := `INSERT INTO accounts (account_number, password, balance, owner_id, registered_at, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7) RETURNING id`

	err := r.pool.QueryRow(ctx, query,
		a.AccountNumber, a.Password, a.Balance, a.OwnerID,
		a.RegisteredAt, a.CreatedAt, a.UpdatedAt,
	).Scan(&a.ID)
	if err != nil {
		return fmt.Errorf("insert account: %w", err)
	}
	return nil
}

// GetByID fetches an account without locking.
func (r *AccountRepo) GetByID(ctx context.Context, id int64) (*domain.Account, error) {
	return scanAccount(r.pool.QueryRow(ctx, accountSelect+` WHERE a.id = $1`, id))
}

// ListByOwner returns the owner's accounts ordered by account number.
func (r *AccountRepo) ListByOwner(ctx context.Context, ownerID int64) ([]domain.Account, error) {
	rows, err := r.pool.Query(ctx, accountSelect+` WHERE a.owner_id = $1 ORDER BY a.account_number`, ownerID)
	if err != nil {
		return nil, fmt.Errorf("list accounts: %w", err)
	}
	defer rows.Close()

	accounts := []domain.Account{}
	for rows.Next() {
		a, err := scanAccount(rows)
		if err != nil {
			return nil, err
		}
		accounts = append(accounts, *a)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate account rows: %w", err)
	}
	return accounts, nil
}

// GetByIDForUpdate fetches an account by ID and locks its row.
// This MUST be called within a transaction.
func (r *AccountRepo) GetByIDForUpdate(ctx context.Context, tx pgx.Tx, id int64) (*domain.Account, error) {
	return scanAccount(tx.QueryRow(ctx, accountSelect+` WHERE a.id = $1 FOR UPDATE OF a`, id))
}

// GetByNumberForUpdate fetches an account by number and locks its row.
// This MUST be called within a transaction.
func (r *AccountRepo) GetByNumberForUpdate(ctx context.Context, tx pgx.Tx, number int64) (*domain.Account, error) {
	return scanAccount(tx.QueryRow(ctx, accountSelect+` WHERE a.account_number = $1 FOR UPDATE OF a`, number))
}

// UpdateBalance writes a new balance within a transaction.
func (r *AccountRepo) UpdateBalance(ctx context.Context, tx pgx.Tx, id int64, balance int64) error {
	tag, err := tx.Exec(ctx, `UPDATE accounts SET balance = $1, updated_at = NOW() WHERE id = $2`, balance, id)
	if err != nil {
		return fmt.Errorf("update account balance: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("account not found: %d", id)
	}
	return nil
}

// Delete removes an account. Its transactions go with it via ON DELETE CASCADE.
func (r *AccountRepo) Delete(ctx context.Context, tx pgx.Tx, id int64) error {
	tag, err := tx.Exec(ctx, `DELETE FROM accounts WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete account: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("account not found: %d", id)
	}
	return nil
}

func scanAccount(row pgx.Row) (*domain.Account, error) {
	a := &domain.Account{}
	err := row.Scan(
		&a.ID, &a.AccountNumber, &a.Password, &a.Balance, &a.OwnerID, &a.OwnerName,
		&a.RegisteredAt, &a.UnregisteredAt, &a.CreatedAt, &a.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == lockNotAvailable {
			return nil, apperror.ErrLockTimeout(err)
		}
		return nil, fmt.Errorf("scan account: %w", err)
	}
	return a, nil
}
