package middleware

import (
	"net/http"

	"bank-ledger/pkg/apperror"
	"bank-ledger/pkg/response"

	"github.com/gin-gonic/gin"
)

// DefaultMaxBodyBytes caps request bodies for the ledger API.
const DefaultMaxBodyBytes int64 = 1 << 20

// MaxBodySize rejects requests whose declared Content-Length exceeds
// maxBytes with REQ_003. Bodies without a length (chunked) are wrapped in
// a MaxBytesReader so binding fails once the limit is crossed.
func MaxBodySize(maxBytes int64) gin.HandlerFunc {
	return func(c *gin.Context) {
		if c.Request.ContentLength > maxBytes {
			response.Error(c, apperror.ErrPayloadTooLarge())
			c.Abort()
			return
		}
		if c.Request.Body != nil {
			c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, maxBytes)
		}
		c.Next()
	}
}
