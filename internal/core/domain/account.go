package domain

import (
	"crypto/subtle"
	"time"

	"bank-ledger/pkg/apperror"
)

// FirstAccountNumber is the number allocated to the first account ever opened.
const FirstAccountNumber int64 = 1111

// Account is a user-owned balance holder. Balance never goes negative.
// Mutating methods assume the caller holds the account's row lock.
type Account struct {
	ID             int64      `json:"id"`
	AccountNumber  int64      `json:"account_number"`
	Password       string     `json:"-"`
	Balance        int64      `json:"balance"`
	OwnerID        int64      `json:"owner_id"`
	OwnerName      string     `json:"owner_name"`
	RegisteredAt   time.Time  `json:"registered_at"`
	UnregisteredAt *time.Time `json:"unregistered_at,omitempty"`
	CreatedAt      time.Time  `json:"created_at"`
	UpdatedAt      time.Time  `json:"updated_at"`
}

// CheckOwner fails with NotOwner unless userID owns the account.
func (a *Account) CheckOwner(userID int64) error {
	if a.OwnerID != userID {
		return apperror.ErrNotOwner()
	}
	return nil
}

// CheckPassword fails with WrongPassword on mismatch.
func (a *Account) CheckPassword(supplied string) error {
	if subtle.ConstantTimeCompare([]byte(a.Password), []byte(supplied)) != 1 {
		return apperror.ErrWrongPassword()
	}
	return nil
}

// CheckSufficientFunds fails with InsufficientBalance when balance < amount + fee.
func (a *Account) CheckSufficientFunds(amount, fee int64) error {
	if a.Balance < amount+fee {
		return apperror.ErrInsufficientBalance()
	}
	return nil
}

// Withdraw debits amount + fee after re-checking funds.
func (a *Account) Withdraw(amount, fee int64) error {
	if err := a.CheckSufficientFunds(amount, fee); err != nil {
		return err
	}
	a.Balance -= amount + fee
	return nil
}

// Deposit credits amount. Positivity is validated by callers.
func (a *Account) Deposit(amount int64) {
	a.Balance += amount
}
