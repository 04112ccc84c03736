package dto

import (
	"time"

	"bank-ledger/internal/core/domain"
	"bank-ledger/internal/core/ports"
)

// --- Users ---

type RegisterRequest struct {
	Username string `json:"username" binding:"required,min=3,max=50,safe_id"`
	Email    string `json:"email" binding:"required,email,max=255"`
	Password string `json:"password" binding:"required,min=8,max=128" sanitize:"-"`
}

type LoginRequest struct {
	Username string `json:"username" binding:"required"`
	Password string `json:"password" binding:"required" sanitize:"-"`
}

type LoginResponse struct {
	Token  string `json:"token"`
	Expiry int64  `json:"expiry"`
}

type UserResponse struct {
	ID        int64  `json:"id"`
	Username  string `json:"username"`
	Email     string `json:"email"`
	CreatedAt string `json:"created_at"`
}

// --- Accounts ---

type OpenAccountRequest struct {
	Password     string     `json:"password" binding:"required,min=4,max=64" sanitize:"-"`
	RegisteredAt *time.Time `json:"registered_at"`
}

type AccountResponse struct {
	ID            int64  `json:"id"`
	AccountNumber int64  `json:"account_number"`
	Balance       int64  `json:"balance"`
	OwnerID       int64  `json:"owner_id"`
	OwnerName     string `json:"owner_name"`
	RegisteredAt  string `json:"registered_at"`
	CreatedAt     string `json:"created_at"`
}

// --- Money movement ---

type DepositRequest struct {
	AccountNumber int64  `json:"account_number" binding:"required,gt=0"`
	Amount        int64  `json:"amount" binding:"required,gt=0"`
	Sender        string `json:"sender" binding:"max=100"`
}

type WithdrawRequest struct {
	AccountNumber int64  `json:"account_number" binding:"required,gt=0"`
	Amount        int64  `json:"amount" binding:"required,gt=0"`
	Password      string `json:"password" binding:"required" sanitize:"-"`
	Receiver      string `json:"receiver" binding:"max=100"`
}

// TransferRequest leaves the amount check to the service so that a
// same-account transfer is reported before an invalid amount.
type TransferRequest struct {
	WithdrawAccountNumber int64      `json:"withdraw_account_number" binding:"required,gt=0"`
	DepositAccountNumber  int64      `json:"deposit_account_number" binding:"required,gt=0"`
	Amount                int64      `json:"amount"`
	Password              string     `json:"password" binding:"required" sanitize:"-"`
	TransferDate          *time.Time `json:"transfer_date"`
}

type TransactionResponse struct {
	ID                     string `json:"id"`
	Type                   string `json:"type"`
	Amount                 int64  `json:"amount"`
	Fee                    int64  `json:"fee"`
	WithdrawAccountNumber  *int64 `json:"withdraw_account_number,omitempty"`
	WithdrawAccountBalance *int64 `json:"withdraw_account_balance,omitempty"`
	DepositAccountNumber   *int64 `json:"deposit_account_number,omitempty"`
	DepositAccountBalance  *int64 `json:"deposit_account_balance,omitempty"`
	Sender                 string `json:"sender"`
	Receiver               string `json:"receiver"`
	CreatedAt              string `json:"created_at"`
}

// --- History ---

type ListTransactionsQuery struct {
	AccountID int64  `form:"account_id" binding:"required,gt=0"`
	Type      string `form:"type" binding:"omitempty,oneof=ALL WITHDRAW DEPOSIT TRANSFER all withdraw deposit transfer"`
	Offset    int    `form:"offset" binding:"omitempty,min=0"`
	Count     int    `form:"count" binding:"omitempty,min=1,max=100"`
}

type StatsQuery struct {
	Period string `form:"period" binding:"omitempty,oneof=day week month all"`
}

type StatsResponse struct {
	AccountID         int64  `json:"account_id"`
	Period            string `json:"period"`
	TotalTransactions int64  `json:"total_transactions"`
	TotalDeposited    int64  `json:"total_deposited"`
	TotalWithdrawn    int64  `json:"total_withdrawn"`
	TotalSent         int64  `json:"total_sent"`
	TotalReceived     int64  `json:"total_received"`
	TotalFees         int64  `json:"total_fees"`
}

type PaginatedResponse struct {
	Items  interface{} `json:"items"`
	Total  int64       `json:"total"`
	Offset int         `json:"offset"`
	Count  int         `json:"count"`
}

// --- Mapping ---

func ToUserResponse(u *domain.User) UserResponse {
	return UserResponse{
		ID:        u.ID,
		Username:  u.Username,
		Email:     u.Email,
		CreatedAt: u.CreatedAt.UTC().Format(time.RFC3339),
	}
}

func ToAccountResponse(a *domain.Account) AccountResponse {
	return AccountResponse{
		ID:            a.ID,
		AccountNumber: a.AccountNumber,
		Balance:       a.Balance,
		OwnerID:       a.OwnerID,
		OwnerName:     a.OwnerName,
		RegisteredAt:  a.RegisteredAt.UTC().Format(time.RFC3339),
		CreatedAt:     a.CreatedAt.UTC().Format(time.RFC3339),
	}
}

func ToTransactionResponse(t *domain.Transaction) TransactionResponse {
	return TransactionResponse{
		ID:                     t.ID.String(),
		Type:                   string(t.Type),
		Amount:                 t.Amount,
		Fee:                    t.Fee,
		WithdrawAccountNumber:  t.WithdrawAccountNumber,
		WithdrawAccountBalance: t.WithdrawAccountBalance,
		DepositAccountNumber:   t.DepositAccountNumber,
		DepositAccountBalance:  t.DepositAccountBalance,
		Sender:                 t.Sender,
		Receiver:               t.Receiver,
		CreatedAt:              t.CreatedAt.UTC().Format(time.RFC3339),
	}
}

func ToStatsResponse(accountID int64, period string, s *ports.TransactionStats) StatsResponse {
	if period == "" {
		period = "all"
	}
	return StatsResponse{
		AccountID:         accountID,
		Period:            period,
		TotalTransactions: s.TotalTransactions,
		TotalDeposited:    s.TotalDeposited,
		TotalWithdrawn:    s.TotalWithdrawn,
		TotalSent:         s.TotalSent,
		TotalReceived:     s.TotalReceived,
		TotalFees:         s.TotalFees,
	}
}
