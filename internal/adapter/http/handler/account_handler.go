package handler

import (
	"bank-ledger/internal/adapter/http/dto"
	"bank-ledger/internal/core/ports"
	"bank-ledger/pkg/apperror"
	"bank-ledger/pkg/response"

	"github.com/gin-gonic/gin"
)

// AccountHandler handles the account lifecycle endpoints.
type AccountHandler struct {
	accountSvc ports.AccountService
	historySvc ports.HistoryService
}

// NewAccountHandler creates a new AccountHandler.
func NewAccountHandler(accountSvc ports.AccountService, historySvc ports.HistoryService) *AccountHandler {
	return &AccountHandler{accountSvc: accountSvc, historySvc: historySvc}
}

// Open handles POST /api/v1/accounts.
func (h *AccountHandler) Open(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}

	var req dto.OpenAccountRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, apperror.Validation(err.Error()))
		return
	}

	in := ports.OpenAccountRequest{OwnerID: userID, Password: req.Password}
	if req.RegisteredAt != nil {
		in.RegisteredAt = *req.RegisteredAt
	}

	account, err := h.accountSvc.Open(c.Request.Context(), in)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Created(c, dto.ToAccountResponse(account))
}

// ListMine handles GET /api/v1/accounts.
func (h *AccountHandler) ListMine(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}

	accounts, err := h.accountSvc.ListMine(c.Request.Context(), userID)
	if err != nil {
		response.Error(c, err)
		return
	}

	items := make([]dto.AccountResponse, 0, len(accounts))
	for i := range accounts {
		items = append(items, dto.ToAccountResponse(&accounts[i]))
	}
	response.OK(c, items)
}

// Get handles GET /api/v1/accounts/:id.
func (h *AccountHandler) Get(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}
	id, ok := pathID(c)
	if !ok {
		return
	}

	account, err := h.accountSvc.Get(c.Request.Context(), id, userID)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.OK(c, dto.ToAccountResponse(account))
}

// Stats handles GET /api/v1/accounts/:id/stats?period=day|week|month|all.
func (h *AccountHandler) Stats(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}
	id, ok := pathID(c)
	if !ok {
		return
	}

	var q dto.StatsQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		response.Error(c, apperror.Validation(err.Error()))
		return
	}

	stats, err := h.historySvc.GetStats(c.Request.Context(), id, userID, q.Period)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.OK(c, dto.ToStatsResponse(id, q.Period, stats))
}

// Close handles DELETE /api/v1/accounts/:id.
func (h *AccountHandler) Close(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}
	id, ok := pathID(c)
	if !ok {
		return
	}

	if err := h.accountSvc.Close(c.Request.Context(), id, userID); err != nil {
		response.Error(c, err)
		return
	}

	response.NoContent(c)
}
