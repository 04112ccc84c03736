package domain

import (
	"strconv"
	"time"

	"github.com/google/uuid"
)

// IdempotencyLog stores the result of a money-out request so replays return it.
type IdempotencyLog struct {
	Key           string    `json:"key"` // "<user_id>:<operation>:<client key>"
	TransactionID uuid.UUID `json:"transaction_id"`
	ResponseJSON  []byte    `json:"response_json"`
	CreatedAt     time.Time `json:"created_at"`
}

// BuildIdempotencyKey scopes a client-supplied key to a user and operation.
func BuildIdempotencyKey(userID int64, op TransactionType, clientKey string) string {
	return strconv.FormatInt(userID, 10) + ":" + string(op) + ":" + clientKey
}
