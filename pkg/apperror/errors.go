package apperror

import (
	"errors"
	"fmt"
	"net/http"
)

// AppError is a structured error that maps to HTTP responses.
type AppError struct {
	Code       string `json:"error_code"`
	Message    string `json:"message"`
	HTTPStatus int    `json:"-"`
	Err        error  `json:"-"` // internal cause, never sent to clients
}

func (e *AppError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("[%s] %s: %v", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

func (e *AppError) Unwrap() error {
	return e.Err
}

// New creates a new AppError.
func New(code string, message string, httpStatus int) *AppError {
	return &AppError{
		Code:       code,
		Message:    message,
		HTTPStatus: httpStatus,
	}
}

// Wrap wraps an internal error with an AppError.
func Wrap(code string, message string, httpStatus int, err error) *AppError {
	return &AppError{
		Code:       code,
		Message:    message,
		HTTPStatus: httpStatus,
		Err:        err,
	}
}

// HasCode reports whether any AppError in err's chain carries code.
func HasCode(err error, code string) bool {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.Code == code
	}
	return false
}

// Ledger error codes.
const (
	CodeInvalidAmount        = "LDG_001"
	CodeSameAccount          = "LDG_002"
	CodeNotFound             = "LDG_003"
	CodeNotOwner             = "LDG_004"
	CodeWrongPassword        = "LDG_005"
	CodeInsufficientBalance  = "LDG_006"
	CodeDailyLimitExceeded   = "LIM_001"
	CodeWeeklyLimitExceeded  = "LIM_002"
	CodeMonthlyLimitExceeded = "LIM_003"
)

// ---- Ledger (LDG) ----

func ErrInvalidAmount() *AppError {
	return New(CodeInvalidAmount, "Amount must be greater than zero", http.StatusBadRequest)
}

func ErrSameAccount() *AppError {
	return New(CodeSameAccount, "Cannot transfer to the same account", http.StatusBadRequest)
}

func ErrNotFound(entity string) *AppError {
	return New(CodeNotFound, fmt.Sprintf("%s not found", entity), http.StatusNotFound)
}

func ErrNotOwner() *AppError {
	return New(CodeNotOwner, "Account does not belong to the user", http.StatusForbidden)
}

func ErrWrongPassword() *AppError {
	return New(CodeWrongPassword, "Account password does not match", http.StatusUnauthorized)
}

func ErrInsufficientBalance() *AppError {
	return New(CodeInsufficientBalance, "Insufficient account balance", http.StatusPaymentRequired)
}

// ---- Transfer limits (LIM) ----

func ErrDailyLimitExceeded() *AppError {
	return New(CodeDailyLimitExceeded, "Daily transfer limit exceeded", http.StatusUnprocessableEntity)
}

func ErrWeeklyLimitExceeded() *AppError {
	return New(CodeWeeklyLimitExceeded, "Weekly transfer limit exceeded", http.StatusUnprocessableEntity)
}

func ErrMonthlyLimitExceeded() *AppError {
	return New(CodeMonthlyLimitExceeded, "Monthly transfer limit exceeded", http.StatusUnprocessableEntity)
}

// ---- Authentication (AUTH) ----

func ErrInvalidCredentials() *AppError {
	return New("AUTH_001", "Invalid credentials", http.StatusUnauthorized)
}

func ErrUsernameExists() *AppError {
	return New("AUTH_002", "Username already exists", http.StatusConflict)
}

func ErrInvalidToken() *AppError {
	return New("AUTH_003", "Invalid or expired token", http.StatusUnauthorized)
}

// ---- Requests (REQ) ----

func ErrRequestInProgress() *AppError {
	return New("REQ_002", "A request with this idempotency key is already in progress", http.StatusConflict)
}

func ErrPayloadTooLarge() *AppError {
	return New("REQ_003", "Request body too large", http.StatusRequestEntityTooLarge)
}

// ---- Rate Limiting (RATE) ----

func ErrRateLimitExceeded() *AppError {
	return New("RATE_001", "Rate limit exceeded", http.StatusTooManyRequests)
}

// ---- System & Infrastructure (SYS) ----

func ErrDatabaseError(err error) *AppError {
	return Wrap("SYS_001", "Internal database error", http.StatusInternalServerError, err)
}

// ErrLockTimeout reports that an account row lock was not granted within
// the configured lock_timeout. Clients may retry.
func ErrLockTimeout(err error) *AppError {
	return Wrap("SYS_002", "Account is busy, retry later", http.StatusServiceUnavailable, err)
}

// InternalError wraps an internal error as a SYS_001 error.
func InternalError(err error) *AppError {
	return Wrap("SYS_001", "Internal server error", http.StatusInternalServerError, err)
}

// Validation returns a request validation error.
func Validation(message string) *AppError {
	return New("REQ_001", message, http.StatusBadRequest)
}
