package response

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"bank-ledger/pkg/apperror"
	"bank-ledger/pkg/idgen"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func newContext(requestID string) (*gin.Context, *httptest.ResponseRecorder) {
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	if requestID != "" {
		c.Set(RequestIDKey, requestID)
	}
	return c, w
}

func TestSuccessEnvelope(t *testing.T) {
	tests := []struct {
		name       string
		write      func(*gin.Context, interface{})
		wantStatus int
	}{
		{"ok", OK, http.StatusOK},
		{"created", Created, http.StatusCreated},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c, w := newContext("req-1")

			tt.write(c, map[string]int64{"account_number": 1111})

			assert.Equal(t, tt.wantStatus, w.Code)
			var resp SuccessResponse
			require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
			assert.Equal(t, "req-1", resp.RequestID)
			assert.NotEmpty(t, resp.Timestamp)
			assert.Equal(t, map[string]interface{}{"account_number": float64(1111)}, resp.Data)
		})
	}
}

func TestErrorEnvelope(t *testing.T) {
	tests := []struct {
		name       string
		err        error
		wantStatus int
		wantCode   string
	}{
		{"app error", apperror.ErrInsufficientBalance(), http.StatusPaymentRequired, apperror.CodeInsufficientBalance},
		{"wrapped app error", fmt.Errorf("transfer: %w", apperror.ErrWeeklyLimitExceeded()), http.StatusUnprocessableEntity, apperror.CodeWeeklyLimitExceeded},
		{"same account", apperror.ErrSameAccount(), http.StatusBadRequest, apperror.CodeSameAccount},
		{"plain error", errors.New("pq: connection reset"), http.StatusInternalServerError, "SYS_000"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c, w := newContext("req-2")

			Error(c, tt.err)

			assert.Equal(t, tt.wantStatus, w.Code)
			var resp ErrorResponse
			require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
			assert.Equal(t, tt.wantCode, resp.ErrorCode)
			assert.Equal(t, "req-2", resp.RequestID)
			assert.NotContains(t, resp.Message, "connection reset")
		})
	}
}

func TestRequestID_GeneratedWhenMissing(t *testing.T) {
	c, w := newContext("")

	OK(c, nil)

	var resp SuccessResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.True(t, idgen.Valid(resp.RequestID))
}

func TestNoContent(t *testing.T) {
	c, w := newContext("")

	NoContent(c)
	c.Writer.WriteHeaderNow()

	assert.Equal(t, http.StatusNoContent, w.Code)
	assert.Empty(t, w.Body.String())
}
