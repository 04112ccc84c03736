package ports

import (
	"context"
	"time"

	"bank-ledger/internal/core/domain"

	"github.com/jackc/pgx/v5"
)

// HashService handles password hashing (Argon2id).
type HashService interface {
	Hash(password string) (string, error)
	Verify(password string, hash string) (bool, error)
}

// TokenService handles JWT token operations.
type TokenService interface {
	Generate(userID int64, username string) (string, time.Time, error)
	Validate(tokenString string) (*TokenClaims, error)
}

// TokenClaims holds the parsed JWT claims.
type TokenClaims struct {
	UserID   int64
	Username string
}

// IdempotencyCache is the Redis-layer idempotency check (fast path).
type IdempotencyCache interface {
	Get(ctx context.Context, key string) ([]byte, error) // nil when absent
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error
}

// RequestLock marks an idempotency key as in flight.
type RequestLock interface {
	Acquire(ctx context.Context, key string, ttl time.Duration) (bool, error)
	Release(ctx context.Context, key string) error
}

// RateLimiter counts requests per key in fixed windows.
type RateLimiter interface {
	Allow(ctx context.Context, key string, limit int, window time.Duration) (*RateLimitResult, error)
}

// RateLimitResult describes the state of one rate-limit window.
type RateLimitResult struct {
	Allowed   bool
	Limit     int
	Remaining int
	ResetAt   time.Time
}

// EventPublisher ships committed transactions to downstream consumers.
type EventPublisher interface {
	Publish(ctx context.Context, event domain.TransactionEvent) error
	Close() error
}

// Clock supplies the current instant.
type Clock interface {
	Now() time.Time
}

// --- Service Ports (Business Logic) ---

// TransferLimitChecker enforces the daily, weekly and monthly outgoing caps.
type TransferLimitChecker interface {
	// CheckLimit fails with the first breached window's error, checking
	// daily, weekly, then monthly.
	CheckLimit(ctx context.Context, tx pgx.Tx, accountNumber int64, amount int64, asOf time.Time) error
}

// LedgerService moves money. Every call is one atomic unit that records
// exactly one transaction on success and nothing on failure.
type LedgerService interface {
	Deposit(ctx context.Context, req DepositRequest) (*domain.Transaction, error)
	Withdraw(ctx context.Context, req WithdrawRequest) (*domain.Transaction, error)
	Transfer(ctx context.Context, req TransferRequest) (*domain.Transaction, error)
}

// DepositRequest credits an account. No ownership check applies.
type DepositRequest struct {
	AccountNumber int64
	Amount        int64
	Sender        string
}

// WithdrawRequest debits an account owned by UserID.
type WithdrawRequest struct {
	AccountNumber  int64
	Amount         int64
	UserID         int64
	Password       string
	Receiver       string
	IdempotencyKey string
}

// TransferRequest moves Amount plus fee out of WithdrawAccountNumber and
// Amount into DepositAccountNumber.
type TransferRequest struct {
	WithdrawAccountNumber int64
	DepositAccountNumber  int64
	UserID                int64
	Amount                int64
	Password              string
	// TransferDate is the instant limits are evaluated at. Zero means now.
	TransferDate   time.Time
	IdempotencyKey string
}

// AccountService manages the account lifecycle.
type AccountService interface {
	Open(ctx context.Context, req OpenAccountRequest) (*domain.Account, error)
	Get(ctx context.Context, accountID, userID int64) (*domain.Account, error)
	ListMine(ctx context.Context, userID int64) ([]domain.Account, error)
	Close(ctx context.Context, accountID, userID int64) error
}

// OpenAccountRequest holds input for opening an account.
type OpenAccountRequest struct {
	OwnerID      int64
	Password     string
	RegisteredAt time.Time // zero means now
}

// HistoryService reads transaction history.
type HistoryService interface {
	ListTransactions(ctx context.Context, req ListTransactionsRequest) ([]domain.Transaction, int64, error)
	GetStats(ctx context.Context, accountID, userID int64, period string) (*TransactionStats, error)
}

// ListTransactionsRequest holds validated input for history listing.
type ListTransactionsRequest struct {
	UserID    int64
	AccountID int64
	Type      domain.TransactionType
	Offset    int
	Count     int
}

// UserService handles registration, login and user listing.
type UserService interface {
	Register(ctx context.Context, req RegisterRequest) (*domain.User, error)
	Login(ctx context.Context, username, password string) (string, time.Time, error) // token, expiry, error
	ListUsers(ctx context.Context) ([]domain.User, error)
}

// RegisterRequest holds input for user registration.
type RegisterRequest struct {
	Username string
	Email    string
	Password string
}

// AuditService records audit entries without blocking the caller.
type AuditService interface {
	Log(ctx context.Context, entry *domain.AuditLog)
}
