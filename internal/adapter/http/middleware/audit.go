package middleware

import (
	"encoding/json"
	"net/http"
	"time"

	"bank-ledger/internal/core/domain"
	"bank-ledger/internal/core/ports"
	"bank-ledger/pkg/response"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// AuditLog creates an audit middleware that logs successful write operations.
// It maps HTTP methods and routes to audit actions.
func AuditLog(auditSvc ports.AuditService) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()

		if c.Writer.Status() < 200 || c.Writer.Status() >= 300 {
			return
		}
		switch c.Request.Method {
		case http.MethodGet, http.MethodHead, http.MethodOptions:
			return
		}

		action, resourceType := mapPathToAction(c.FullPath(), c.Request.Method)
		if action == "" {
			return
		}

		var userID *int64
		if uid, ok := UserID(c); ok {
			userID = &uid
		}

		details, _ := json.Marshal(map[string]interface{}{
			"method":     c.Request.Method,
			"path":       c.Request.URL.Path,
			"status":     c.Writer.Status(),
			"request_id": c.GetString(response.RequestIDKey),
		})

		auditSvc.Log(c.Request.Context(), &domain.AuditLog{
			ID:           uuid.New(),
			UserID:       userID,
			Action:       action,
			ResourceType: resourceType,
			ResourceID:   c.Param("id"),
			IPAddress:    c.ClientIP(),
			Details:      string(details),
			CreatedAt:    time.Now().UTC(),
		})
	}
}

func mapPathToAction(route, method string) (domain.AuditAction, string) {
	switch {
	case route == "/api/v1/users" && method == http.MethodPost:
		return domain.AuditActionRegister, "user"
	case route == "/api/v1/auth/login" && method == http.MethodPost:
		return domain.AuditActionLogin, "session"
	case route == "/api/v1/accounts" && method == http.MethodPost:
		return domain.AuditActionAccountOpen, "account"
	case route == "/api/v1/accounts/:id" && method == http.MethodDelete:
		return domain.AuditActionAccountClose, "account"
	case route == "/api/v1/accounts/deposit" && method == http.MethodPost:
		return domain.AuditActionDeposit, "transaction"
	case route == "/api/v1/accounts/withdraw" && method == http.MethodPost:
		return domain.AuditActionWithdraw, "transaction"
	case route == "/api/v1/accounts/transfer" && method == http.MethodPost:
		return domain.AuditActionTransfer, "transaction"
	}
	return "", ""
}
