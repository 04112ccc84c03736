// Package memory is a process-local implementation of the repository ports.
// Row locks are real: GetBy*ForUpdate blocks until the holding transaction
// commits or rolls back, and writes become visible only on commit.
package memory

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"

	"bank-ledger/internal/core/domain"

	"github.com/jackc/pgx/v5"
)

// ErrForeignTx is returned when a repository receives a pgx.Tx that was not
// started by this store.
var ErrForeignTx = errors.New("memory: transaction not started by this store")

// Store holds all tables. The zero value is not usable; call NewStore.
type Store struct {
	mu sync.RWMutex

	users      map[int64]*domain.User
	nextUserID int64

	accounts      map[int64]*domain.Account
	accountByNum  map[int64]int64
	nextAccountID int64
	accountSeq    atomic.Int64

	transactions []domain.Transaction
	idempotency  map[string]*domain.IdempotencyLog
	audits       []domain.AuditLog

	locksMu  sync.Mutex
	rowLocks map[int64]chan struct{}
}

// NewStore creates an empty store.
func NewStore() *Store {
	s := &Store{
		users:        make(map[int64]*domain.User),
		accounts:     make(map[int64]*domain.Account),
		accountByNum: make(map[int64]int64),
		idempotency:  make(map[string]*domain.IdempotencyLog),
		rowLocks:     make(map[int64]chan struct{}),
	}
	s.accountSeq.Store(domain.FirstAccountNumber - 1)
	return s
}

// Begin implements ports.DBTransactor.
func (s *Store) Begin(ctx context.Context) (pgx.Tx, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return &Tx{
		store:    s,
		held:     make(map[int64]struct{}),
		balances: make(map[int64]int64),
	}, nil
}

// Ping implements ports.HealthChecker.
func (s *Store) Ping(ctx context.Context) error {
	return ctx.Err()
}

// Name implements ports.HealthChecker.
func (s *Store) Name() string {
	return "memory"
}

func (s *Store) rowLock(accountID int64) chan struct{} {
	s.locksMu.Lock()
	defer s.locksMu.Unlock()
	l, ok := s.rowLocks[accountID]
	if !ok {
		l = make(chan struct{}, 1)
		s.rowLocks[accountID] = l
	}
	return l
}

func (s *Store) txFrom(tx pgx.Tx) (*Tx, error) {
	t, ok := tx.(*Tx)
	if !ok || t.store != s {
		return nil, ErrForeignTx
	}
	return t, nil
}

// accountCopy returns a detached copy with the owner name resolved.
// Caller holds s.mu.
func (s *Store) accountCopy(a *domain.Account) *domain.Account {
	c := *a
	if u, ok := s.users[a.OwnerID]; ok {
		c.OwnerName = u.Username
	}
	return &c
}
