package memory

import (
	"context"
	"fmt"
	"sort"
	"time"

	"bank-ledger/internal/core/domain"
	"bank-ledger/internal/core/ports"
	"bank-ledger/pkg/apperror"

	"github.com/jackc/pgx/v5"
)

// --- Users ---

// UserRepo implements ports.UserRepository.
type UserRepo struct{ s *Store }

// NewUserRepo creates a user repository backed by s.
func NewUserRepo(s *Store) *UserRepo { return &UserRepo{s: s} }

func (r *UserRepo) Create(ctx context.Context, u *domain.User) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for _, existing := range r.s.users {
		if existing.Username == u.Username {
			return apperror.ErrUsernameExists()
		}
	}
	r.s.nextUserID++
	u.ID = r.s.nextUserID
	c := *u
	r.s.users[u.ID] = &c
	return nil
}

func (r *UserRepo) GetByID(ctx context.Context, id int64) (*domain.User, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	u, ok := r.s.users[id]
	if !ok {
		return nil, nil
	}
	c := *u
	return &c, nil
}

func (r *UserRepo) GetByUsername(ctx context.Context, username string) (*domain.User, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	for _, u := range r.s.users {
		if u.Username == username {
			c := *u
			return &c, nil
		}
	}
	return nil, nil
}

func (r *UserRepo) List(ctx context.Context) ([]domain.User, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	users := make([]domain.User, 0, len(r.s.users))
	for _, u := range r.s.users {
		users = append(users, *u)
	}
	sort.Slice(users, func(i, j int) bool { return users[i].ID < users[j].ID })
	return users, nil
}

// --- Accounts ---

// AccountRepo implements ports.AccountRepository.
type AccountRepo struct{ s *Store }

// NewAccountRepo creates an account repository backed by s.
func NewAccountRepo(s *Store) *AccountRepo { return &AccountRepo{s: s} }

// NextAccountNumber hands out 1111, 1112, ... and is safe for concurrent use.
func (r *AccountRepo) NextAccountNumber(ctx context.Context) (int64, error) {
	return r.s.accountSeq.Add(1), nil
}

func (r *AccountRepo) Create(ctx context.Context, a *domain.Account) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if _, ok := r.s.users[a.OwnerID]; !ok {
		return fmt.Errorf("insert account: owner %d does not exist", a.OwnerID)
	}
	if _, taken := r.s.accountByNum[a.AccountNumber]; taken {
		return fmt.Errorf("insert account: number %d already in use", a.AccountNumber)
	}
	r.s.nextAccountID++
	a.ID = r.s.nextAccountID
	c := *a
	r.s.accounts[a.ID] = &c
	r.s.accountByNum[a.AccountNumber] = a.ID
	return nil
}

func (r *AccountRepo) GetByID(ctx context.Context, id int64) (*domain.Account, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	a, ok := r.s.accounts[id]
	if !ok {
		return nil, nil
	}
	return r.s.accountCopy(a), nil
}

func (r *AccountRepo) ListByOwner(ctx context.Context, ownerID int64) ([]domain.Account, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	accounts := []domain.Account{}
	for _, a := range r.s.accounts {
		if a.OwnerID == ownerID {
			accounts = append(accounts, *r.s.accountCopy(a))
		}
	}
	sort.Slice(accounts, func(i, j int) bool { return accounts[i].AccountNumber < accounts[j].AccountNumber })
	return accounts, nil
}

func (r *AccountRepo) GetByIDForUpdate(ctx context.Context, tx pgx.Tx, id int64) (*domain.Account, error) {
	return r.lockAndLoad(ctx, tx, func() (int64, bool) {
		_, ok := r.s.accounts[id]
		return id, ok
	})
}

func (r *AccountRepo) GetByNumberForUpdate(ctx context.Context, tx pgx.Tx, number int64) (*domain.Account, error) {
	return r.lockAndLoad(ctx, tx, func() (int64, bool) {
		id, ok := r.s.accountByNum[number]
		return id, ok
	})
}

// lockAndLoad resolves the row, blocks on its lock, then re-reads it since
// it may have been deleted while waiting.
func (r *AccountRepo) lockAndLoad(ctx context.Context, tx pgx.Tx, resolve func() (int64, bool)) (*domain.Account, error) {
	t, err := r.s.txFrom(tx)
	if err != nil {
		return nil, err
	}

	r.s.mu.RLock()
	id, ok := resolve()
	r.s.mu.RUnlock()
	if !ok {
		return nil, nil
	}

	if err := t.lock(ctx, id); err != nil {
		return nil, fmt.Errorf("lock account %d: %w", id, err)
	}

	r.s.mu.RLock()
	a, ok := r.s.accounts[id]
	var c *domain.Account
	if ok {
		c = r.s.accountCopy(a)
	}
	r.s.mu.RUnlock()
	if !ok {
		return nil, nil
	}
	if b, staged := t.stagedBalance(id); staged {
		c.Balance = b
	}
	return c, nil
}

func (r *AccountRepo) UpdateBalance(ctx context.Context, tx pgx.Tx, id int64, balance int64) error {
	t, err := r.s.txFrom(tx)
	if err != nil {
		return err
	}
	if !t.holds(id) {
		return fmt.Errorf("update account balance: row %d not locked by this transaction", id)
	}
	if balance < 0 {
		return fmt.Errorf("update account balance: negative balance %d", balance)
	}
	return t.stage(func() { t.balances[id] = balance })
}

func (r *AccountRepo) Delete(ctx context.Context, tx pgx.Tx, id int64) error {
	t, err := r.s.txFrom(tx)
	if err != nil {
		return err
	}
	if !t.holds(id) {
		return fmt.Errorf("delete account: row %d not locked by this transaction", id)
	}
	return t.stage(func() { t.deletes = append(t.deletes, id) })
}

// --- Transactions ---

// TransactionRepo implements ports.TransactionRepository.
type TransactionRepo struct{ s *Store }

// NewTransactionRepo creates a transaction repository backed by s.
func NewTransactionRepo(s *Store) *TransactionRepo { return &TransactionRepo{s: s} }

func (r *TransactionRepo) Create(ctx context.Context, tx pgx.Tx, txn *domain.Transaction) error {
	t, err := r.s.txFrom(tx)
	if err != nil {
		return err
	}
	return t.stage(func() { t.txns = append(t.txns, *txn) })
}

// SumOutgoing sees committed rows plus the caller's own staged rows.
func (r *TransactionRepo) SumOutgoing(ctx context.Context, tx pgx.Tx, accountNumber int64, start, end time.Time) (int64, error) {
	t, err := r.s.txFrom(tx)
	if err != nil {
		return 0, err
	}

	counts := func(txn *domain.Transaction) bool {
		return txn.Type.IsOutgoing() &&
			txn.WithdrawAccountNumber != nil && *txn.WithdrawAccountNumber == accountNumber &&
			!txn.CreatedAt.Before(start) && !txn.CreatedAt.After(end)
	}

	var sum int64
	r.s.mu.RLock()
	for i := range r.s.transactions {
		if counts(&r.s.transactions[i]) {
			sum += r.s.transactions[i].Amount
		}
	}
	r.s.mu.RUnlock()

	t.mu.Lock()
	for i := range t.txns {
		if counts(&t.txns[i]) {
			sum += t.txns[i].Amount
		}
	}
	t.mu.Unlock()
	return sum, nil
}

func (r *TransactionRepo) List(ctx context.Context, params ports.TransactionListParams) ([]domain.Transaction, int64, error) {
	r.s.mu.RLock()
	var matched []domain.Transaction
	for _, txn := range r.s.transactions {
		if matchesListFilter(&txn, params) {
			matched = append(matched, txn)
		}
	}
	r.s.mu.RUnlock()

	// Newest first; ties keep reverse insertion order.
	for i, j := 0, len(matched)-1; i < j; i, j = i+1, j-1 {
		matched[i], matched[j] = matched[j], matched[i]
	}
	sort.SliceStable(matched, func(i, j int) bool { return matched[i].CreatedAt.After(matched[j].CreatedAt) })

	total := int64(len(matched))
	if params.Offset >= len(matched) {
		return []domain.Transaction{}, total, nil
	}
	end := len(matched)
	if params.Count > 0 && params.Offset+params.Count < end {
		end = params.Offset + params.Count
	}
	return matched[params.Offset:end], total, nil
}

func matchesListFilter(txn *domain.Transaction, p ports.TransactionListParams) bool {
	withdrawSide := txn.WithdrawAccountID != nil && *txn.WithdrawAccountID == p.AccountID
	depositSide := txn.DepositAccountID != nil && *txn.DepositAccountID == p.AccountID

	switch p.Type {
	case domain.TransactionTypeWithdraw:
		return withdrawSide && txn.Type == domain.TransactionTypeWithdraw
	case domain.TransactionTypeDeposit:
		return depositSide && txn.Type == domain.TransactionTypeDeposit
	case domain.TransactionTypeTransfer:
		return (withdrawSide || depositSide) && txn.Type == domain.TransactionTypeTransfer
	default:
		return withdrawSide || depositSide
	}
}

func (r *TransactionRepo) GetStats(ctx context.Context, accountID int64, since *time.Time) (*ports.TransactionStats, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	stats := &ports.TransactionStats{}
	for _, txn := range r.s.transactions {
		if !txn.Touches(accountID) {
			continue
		}
		if since != nil && txn.CreatedAt.Before(*since) {
			continue
		}
		withdrawSide := txn.WithdrawAccountID != nil && *txn.WithdrawAccountID == accountID
		stats.TotalTransactions++
		switch txn.Type {
		case domain.TransactionTypeDeposit:
			stats.TotalDeposited += txn.Amount
		case domain.TransactionTypeWithdraw:
			stats.TotalWithdrawn += txn.Amount
		case domain.TransactionTypeTransfer:
			if withdrawSide {
				stats.TotalSent += txn.Amount
			} else {
				stats.TotalReceived += txn.Amount
			}
		}
		if withdrawSide {
			stats.TotalFees += txn.Fee
		}
	}
	return stats, nil
}

// --- Idempotency ---

// IdempotencyRepo implements ports.IdempotencyRepository.
type IdempotencyRepo struct{ s *Store }

// NewIdempotencyRepo creates an idempotency repository backed by s.
func NewIdempotencyRepo(s *Store) *IdempotencyRepo { return &IdempotencyRepo{s: s} }

func (r *IdempotencyRepo) Create(ctx context.Context, tx pgx.Tx, log *domain.IdempotencyLog) error {
	t, err := r.s.txFrom(tx)
	if err != nil {
		return err
	}
	r.s.mu.RLock()
	_, exists := r.s.idempotency[log.Key]
	r.s.mu.RUnlock()
	if exists {
		return apperror.ErrRequestInProgress()
	}
	return t.stage(func() { t.idem = append(t.idem, *log) })
}

func (r *IdempotencyRepo) Get(ctx context.Context, key string) (*domain.IdempotencyLog, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	l, ok := r.s.idempotency[key]
	if !ok {
		return nil, nil
	}
	c := *l
	return &c, nil
}

// --- Audit ---

// AuditRepo implements ports.AuditRepository.
type AuditRepo struct{ s *Store }

// NewAuditRepo creates an audit repository backed by s.
func NewAuditRepo(s *Store) *AuditRepo { return &AuditRepo{s: s} }

func (r *AuditRepo) Create(ctx context.Context, entry *domain.AuditLog) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	r.s.audits = append(r.s.audits, *entry)
	return nil
}

// Entries returns a snapshot of recorded audit entries.
func (r *AuditRepo) Entries() []domain.AuditLog {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	return append([]domain.AuditLog(nil), r.s.audits...)
}
