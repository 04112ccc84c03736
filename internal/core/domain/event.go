package domain

import (
	"strconv"
	"time"

	"github.com/google/uuid"
)

// TransactionEvent is published after a ledger transaction commits.
type TransactionEvent struct {
	TransactionID         uuid.UUID       `json:"transaction_id"`
	Type                  TransactionType `json:"type"`
	Amount                int64           `json:"amount"`
	Fee                   int64           `json:"fee"`
	WithdrawAccountNumber *int64          `json:"withdraw_account_number,omitempty"`
	DepositAccountNumber  *int64          `json:"deposit_account_number,omitempty"`
	Sender                string          `json:"sender"`
	Receiver              string          `json:"receiver"`
	OccurredAt            time.Time       `json:"occurred_at"`
}

// NewTransactionEvent builds the event for a committed transaction.
func NewTransactionEvent(t *Transaction) TransactionEvent {
	return TransactionEvent{
		TransactionID:         t.ID,
		Type:                  t.Type,
		Amount:                t.Amount,
		Fee:                   t.Fee,
		WithdrawAccountNumber: t.WithdrawAccountNumber,
		DepositAccountNumber:  t.DepositAccountNumber,
		Sender:                t.Sender,
		Receiver:              t.Receiver,
		OccurredAt:            t.CreatedAt,
	}
}

// Key partitions events by the account whose balance moved first.
func (e TransactionEvent) Key() string {
	if e.WithdrawAccountNumber != nil {
		return strconv.FormatInt(*e.WithdrawAccountNumber, 10)
	}
	if e.DepositAccountNumber != nil {
		return strconv.FormatInt(*e.DepositAccountNumber, 10)
	}
	return e.TransactionID.String()
}
