package domain

import (
	"strings"
	"time"

	"github.com/google/uuid"
)

// TransactionType represents the kind of money movement.
type TransactionType string

const (
	TransactionTypeWithdraw TransactionType = "WITHDRAW"
	TransactionTypeDeposit  TransactionType = "DEPOSIT"
	TransactionTypeTransfer TransactionType = "TRANSFER"
	// TransactionTypeAll is a query wildcard and is never stored.
	TransactionTypeAll TransactionType = "ALL"
)

// OutgoingTypes are the types that count against transfer limits.
var OutgoingTypes = []TransactionType{TransactionTypeWithdraw, TransactionTypeTransfer}

// ParseTransactionType accepts a type name case-insensitively. Empty means ALL.
func ParseTransactionType(s string) (TransactionType, bool) {
	switch t := TransactionType(strings.ToUpper(strings.TrimSpace(s))); t {
	case "":
		return TransactionTypeAll, true
	case TransactionTypeWithdraw, TransactionTypeDeposit, TransactionTypeTransfer, TransactionTypeAll:
		return t, true
	default:
		return "", false
	}
}

// IsOutgoing reports whether t counts against transfer limits.
func (t TransactionType) IsOutgoing() bool {
	return t == TransactionTypeWithdraw || t == TransactionTypeTransfer
}

// Transaction is an immutable ledger entry. Deposits carry only the deposit
// side, withdrawals only the withdraw side, transfers both.
type Transaction struct {
	ID                     uuid.UUID       `json:"id"`
	WithdrawAccountID      *int64          `json:"withdraw_account_id,omitempty"`
	WithdrawAccountNumber  *int64          `json:"withdraw_account_number,omitempty"`
	WithdrawAccountBalance *int64          `json:"withdraw_account_balance,omitempty"`
	DepositAccountID       *int64          `json:"deposit_account_id,omitempty"`
	DepositAccountNumber   *int64          `json:"deposit_account_number,omitempty"`
	DepositAccountBalance  *int64          `json:"deposit_account_balance,omitempty"`
	Amount                 int64           `json:"amount"`
	Fee                    int64           `json:"fee"`
	Type                   TransactionType `json:"type"`
	Sender                 string          `json:"sender"`
	Receiver               string          `json:"receiver"`
	CreatedAt              time.Time       `json:"created_at"`
}

// SetWithdrawSide records the debited account and its balance after mutation.
func (t *Transaction) SetWithdrawSide(a *Account) {
	id, number, balance := a.ID, a.AccountNumber, a.Balance
	t.WithdrawAccountID = &id
	t.WithdrawAccountNumber = &number
	t.WithdrawAccountBalance = &balance
}

// SetDepositSide records the credited account and its balance after mutation.
func (t *Transaction) SetDepositSide(a *Account) {
	id, number, balance := a.ID, a.AccountNumber, a.Balance
	t.DepositAccountID = &id
	t.DepositAccountNumber = &number
	t.DepositAccountBalance = &balance
}

// Touches reports whether accountID is on either side of t.
func (t *Transaction) Touches(accountID int64) bool {
	return (t.WithdrawAccountID != nil && *t.WithdrawAccountID == accountID) ||
		(t.DepositAccountID != nil && *t.DepositAccountID == accountID)
}
