package handler

import (
	"bank-ledger/internal/adapter/http/dto"
	"bank-ledger/internal/adapter/http/middleware"
	"bank-ledger/internal/core/ports"
	"bank-ledger/pkg/apperror"
	"bank-ledger/pkg/response"

	"github.com/gin-gonic/gin"
)

// LedgerHandler handles deposit, withdraw and transfer.
type LedgerHandler struct {
	ledgerSvc ports.LedgerService
}

// NewLedgerHandler creates a new LedgerHandler.
func NewLedgerHandler(ledgerSvc ports.LedgerService) *LedgerHandler {
	return &LedgerHandler{ledgerSvc: ledgerSvc}
}

// Deposit handles POST /api/v1/accounts/deposit. The sender defaults to the
// caller's username.
func (h *LedgerHandler) Deposit(c *gin.Context) {
	if _, ok := currentUser(c); !ok {
		return
	}

	var req dto.DepositRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, apperror.Validation(err.Error()))
		return
	}
	dto.SanitizeStruct(&req)
	if req.Sender == "" {
		req.Sender = c.GetString(middleware.CtxUsername)
	}

	txn, err := h.ledgerSvc.Deposit(c.Request.Context(), ports.DepositRequest{
		AccountNumber: req.AccountNumber,
		Amount:        req.Amount,
		Sender:        req.Sender,
	})
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Created(c, dto.ToTransactionResponse(txn))
}

// Withdraw handles POST /api/v1/accounts/withdraw.
func (h *LedgerHandler) Withdraw(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}
	key, ok := idempotencyKey(c)
	if !ok {
		return
	}

	var req dto.WithdrawRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, apperror.Validation(err.Error()))
		return
	}
	dto.SanitizeStruct(&req)

	txn, err := h.ledgerSvc.Withdraw(c.Request.Context(), ports.WithdrawRequest{
		AccountNumber:  req.AccountNumber,
		Amount:         req.Amount,
		UserID:         userID,
		Password:       req.Password,
		Receiver:       req.Receiver,
		IdempotencyKey: key,
	})
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Created(c, dto.ToTransactionResponse(txn))
}

// Transfer handles POST /api/v1/accounts/transfer.
func (h *LedgerHandler) Transfer(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}
	key, ok := idempotencyKey(c)
	if !ok {
		return
	}

	var req dto.TransferRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, apperror.Validation(err.Error()))
		return
	}

	in := ports.TransferRequest{
		WithdrawAccountNumber: req.WithdrawAccountNumber,
		DepositAccountNumber:  req.DepositAccountNumber,
		UserID:                userID,
		Amount:                req.Amount,
		Password:              req.Password,
		IdempotencyKey:        key,
	}
	if req.TransferDate != nil {
		in.TransferDate = *req.TransferDate
	}

	txn, err := h.ledgerSvc.Transfer(c.Request.Context(), in)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Created(c, dto.ToTransactionResponse(txn))
}

func idempotencyKey(c *gin.Context) (string, bool) {
	key := c.GetHeader(middleware.HeaderIdempotencyKey)
	if !dto.ValidIdempotencyKey(key) {
		response.Error(c, apperror.Validation("invalid Idempotency-Key header"))
		return "", false
	}
	return key, true
}
