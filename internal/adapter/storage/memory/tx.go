package memory

import (
	"context"
	"sync"
	"time"

	"bank-ledger/internal/core/domain"
	"bank-ledger/pkg/apperror"

	"github.com/jackc/pgx/v5"
)

// Tx is a pgx.Tx whose only working methods are Commit and Rollback.
// The embedded interface is nil; repositories never call the SQL methods.
type Tx struct {
	pgx.Tx

	store *Store

	mu       sync.Mutex
	done     bool
	held     map[int64]struct{}
	balances map[int64]int64
	deletes  []int64
	txns     []domain.Transaction
	idem     []domain.IdempotencyLog
}

// lock acquires the row lock for accountID unless this tx already holds it.
func (t *Tx) lock(ctx context.Context, accountID int64) error {
	t.mu.Lock()
	if t.done {
		t.mu.Unlock()
		return pgx.ErrTxClosed
	}
	if _, ok := t.held[accountID]; ok {
		t.mu.Unlock()
		return nil
	}
	t.mu.Unlock()

	l := t.store.rowLock(accountID)
	select {
	case l <- struct{}{}:
	case <-ctx.Done():
		return ctx.Err()
	}

	t.mu.Lock()
	t.held[accountID] = struct{}{}
	t.mu.Unlock()
	return nil
}

func (t *Tx) holds(accountID int64) bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	_, ok := t.held[accountID]
	return ok
}

func (t *Tx) stagedBalance(accountID int64) (int64, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	b, ok := t.balances[accountID]
	return b, ok
}

func (t *Tx) stage(fn func()) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.done {
		return pgx.ErrTxClosed
	}
	fn()
	return nil
}

// Commit applies staged writes atomically and releases row locks. If another
// transaction committed one of the staged idempotency keys first, nothing is
// applied and REQ_002 is returned, like a unique violation in Postgres.
func (t *Tx) Commit(ctx context.Context) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.done {
		return pgx.ErrTxClosed
	}
	t.done = true

	s := t.store
	s.mu.Lock()
	for i := range t.idem {
		if _, exists := s.idempotency[t.idem[i].Key]; exists {
			s.mu.Unlock()
			t.releaseLocked()
			return apperror.ErrRequestInProgress()
		}
	}
	now := time.Now()
	for id, balance := range t.balances {
		if a, ok := s.accounts[id]; ok {
			a.Balance = balance
			a.UpdatedAt = now
		}
	}
	s.transactions = append(s.transactions, t.txns...)
	for i := range t.idem {
		log := t.idem[i]
		s.idempotency[log.Key] = &log
	}
	for _, id := range t.deletes {
		s.deleteAccountLocked(id)
	}
	s.mu.Unlock()

	t.releaseLocked()
	return nil
}

// Rollback discards staged writes and releases row locks. Rolling back a
// finished transaction returns pgx.ErrTxClosed, as pgx does.
func (t *Tx) Rollback(ctx context.Context) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.done {
		return pgx.ErrTxClosed
	}
	t.done = true
	t.releaseLocked()
	return nil
}

func (t *Tx) releaseLocked() {
	for id := range t.held {
		<-t.store.rowLock(id)
	}
	t.held = nil
}

// deleteAccountLocked removes an account and cascades to its transactions.
// Caller holds s.mu.
func (s *Store) deleteAccountLocked(id int64) {
	a, ok := s.accounts[id]
	if !ok {
		return
	}
	delete(s.accountByNum, a.AccountNumber)
	delete(s.accounts, id)

	kept := s.transactions[:0]
	for _, txn := range s.transactions {
		if !txn.Touches(id) {
			kept = append(kept, txn)
		}
	}
	s.transactions = kept
}
