package ports

import (
	"context"
	"time"

	"bank-ledger/internal/core/domain"

	"github.com/jackc/pgx/v5"
)

// UserRepository defines persistence operations for users.
type UserRepository interface {
	Create(ctx context.Context, user *domain.User) error
	GetByID(ctx context.Context, id int64) (*domain.User, error)
	GetByUsername(ctx context.Context, username string) (*domain.User, error)
	List(ctx context.Context) ([]domain.User, error)
}

// AccountRepository defines persistence operations for accounts.
// Methods accepting pgx.Tx take an exclusive row lock held until the
// transaction ends. Lookups return (nil, nil) when nothing matches.
type AccountRepository interface {
	// NextAccountNumber allocates a fresh number. The first one is 1111.
	NextAccountNumber(ctx context.Context) (int64, error)
	Create(ctx context.Context, account *domain.Account) error
	GetByID(ctx context.Context, id int64) (*domain.Account, error)
	ListByOwner(ctx context.Context, ownerID int64) ([]domain.Account, error)
	GetByIDForUpdate(ctx context.Context, tx pgx.Tx, id int64) (*domain.Account, error)
	GetByNumberForUpdate(ctx context.Context, tx pgx.Tx, number int64) (*domain.Account, error)
	UpdateBalance(ctx context.Context, tx pgx.Tx, id int64, balance int64) error
	Delete(ctx context.Context, tx pgx.Tx, id int64) error
}

// TransactionRepository defines persistence operations for ledger transactions.
type TransactionRepository interface {
	Create(ctx context.Context, tx pgx.Tx, transaction *domain.Transaction) error
	// SumOutgoing totals WITHDRAW and TRANSFER amounts debited from the
	// account with createdAt in [start, end]. Zero when nothing matches.
	SumOutgoing(ctx context.Context, tx pgx.Tx, accountNumber int64, start, end time.Time) (int64, error)
	List(ctx context.Context, params TransactionListParams) ([]domain.Transaction, int64, error)
	GetStats(ctx context.Context, accountID int64, since *time.Time) (*TransactionStats, error)
}

// TransactionListParams filters one account's history, newest first.
// WITHDRAW matches the withdraw side only, DEPOSIT the deposit side only,
// TRANSFER either side with that type, ALL either side with any type.
type TransactionListParams struct {
	AccountID int64
	Type      domain.TransactionType
	Offset    int
	Count     int
}

// TransactionStats aggregates one account's history.
type TransactionStats struct {
	TotalTransactions int64 `json:"total_transactions"`
	TotalDeposited    int64 `json:"total_deposited"`
	TotalWithdrawn    int64 `json:"total_withdrawn"`
	TotalSent         int64 `json:"total_sent"`
	TotalReceived     int64 `json:"total_received"`
	TotalFees         int64 `json:"total_fees"`
}

// IdempotencyRepository is the durable layer of idempotency checks.
type IdempotencyRepository interface {
	Create(ctx context.Context, tx pgx.Tx, log *domain.IdempotencyLog) error
	Get(ctx context.Context, key string) (*domain.IdempotencyLog, error)
}

// AuditRepository persists audit entries.
type AuditRepository interface {
	Create(ctx context.Context, entry *domain.AuditLog) error
}

// DBTransactor provides database transaction management.
type DBTransactor interface {
	Begin(ctx context.Context) (pgx.Tx, error)
}
