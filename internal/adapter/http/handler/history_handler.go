package handler

import (
	"bank-ledger/internal/adapter/http/dto"
	"bank-ledger/internal/core/domain"
	"bank-ledger/internal/core/ports"
	"bank-ledger/pkg/apperror"
	"bank-ledger/pkg/response"

	"github.com/gin-gonic/gin"
)

// HistoryHandler serves transaction history.
type HistoryHandler struct {
	historySvc ports.HistoryService
}

// NewHistoryHandler creates a new HistoryHandler.
func NewHistoryHandler(historySvc ports.HistoryService) *HistoryHandler {
	return &HistoryHandler{historySvc: historySvc}
}

// ListTransactions handles GET /api/v1/transactions?account_id=&type=&offset=&count=.
func (h *HistoryHandler) ListTransactions(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}

	var q dto.ListTransactionsQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		response.Error(c, apperror.Validation(err.Error()))
		return
	}
	txType, ok := domain.ParseTransactionType(q.Type)
	if !ok {
		response.Error(c, apperror.Validation("invalid transaction type"))
		return
	}

	txns, total, err := h.historySvc.ListTransactions(c.Request.Context(), ports.ListTransactionsRequest{
		UserID:    userID,
		AccountID: q.AccountID,
		Type:      txType,
		Offset:    q.Offset,
		Count:     q.Count,
	})
	if err != nil {
		response.Error(c, err)
		return
	}

	items := make([]dto.TransactionResponse, 0, len(txns))
	for i := range txns {
		items = append(items, dto.ToTransactionResponse(&txns[i]))
	}

	response.OK(c, dto.PaginatedResponse{
		Items:  items,
		Total:  total,
		Offset: q.Offset,
		Count:  len(items),
	})
}
