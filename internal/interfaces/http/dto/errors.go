package dto

import "net/http"

// Envelope-level codes. Ledger rule codes pass through unchanged from the domain error.
const (
	ErrCodeInternal            = "INTERNAL_ERROR"
	ErrCodeBadRequest          = "BAD_REQUEST"
	ErrCodeValidation          = "VALIDATION_ERROR"
	ErrCodeInvalidInput        = "INVALID_INPUT"
	ErrCodeUnauthorized        = "UNAUTHORIZED"
	ErrCodeTokenExpired        = "TOKEN_EXPIRED"
	ErrCodeForbidden           = "FORBIDDEN"
	ErrCodeNotFound            = "NOT_FOUND"
	ErrCodeAlreadyExists       = "ALREADY_EXISTS"
	ErrCodeConcurrencyConflict = "CONCURRENCY_CONFLICT"
	ErrCodeRequestTooLarge     = "REQUEST_TOO_LARGE"
)

// ErrorCodeHTTPStatus maps error codes to HTTP status codes
var ErrorCodeHTTPStatus = map[string]int{
	ErrCodeInternal: http.StatusInternalServerError,

	// Validation
	ErrCodeBadRequest:          http.StatusBadRequest,
	ErrCodeValidation:          http.StatusBadRequest,
	ErrCodeInvalidInput:        http.StatusBadRequest,
	"INVALID_AMOUNT":           http.StatusBadRequest,
	"INVALID_QUANTITY":         http.StatusBadRequest,
	"INVALID_DATE_RANGE":       http.StatusBadRequest,
	"INVALID_TRANSACTION_TYPE": http.StatusBadRequest,
	"INVALID_PAYMENT_METHOD":   http.StatusBadRequest,
	"INVALID_ROLE":             http.StatusBadRequest,
	"INVALID_USERNAME":         http.StatusBadRequest,
	"INVALID_PASSWORD":         http.StatusBadRequest,
	ErrCodeRequestTooLarge:     http.StatusRequestEntityTooLarge,

	// State conflicts
	"ALREADY_REVERSED":       http.StatusBadRequest,
	"ALREADY_BILLED":         http.StatusBadRequest,
	"ALREADY_CLOSED":         http.StatusBadRequest,
	"PERIOD_CLOSED":          http.StatusBadRequest,
	"INVALID_STATE":          http.StatusBadRequest,
	"AMOUNT_EXCEEDS_BALANCE": http.StatusBadRequest,
	"PENDING_INVOICES":       http.StatusBadRequest,
	"TENANT_MISMATCH":        http.StatusBadRequest,
	"RENT_UNAVAILABLE":       http.StatusBadRequest,
	ErrCodeAlreadyExists:     http.StatusConflict,

	// Lookup and permission
	ErrCodeNotFound:     http.StatusNotFound,
	ErrCodeUnauthorized: http.StatusUnauthorized,
	ErrCodeTokenExpired: http.StatusUnauthorized,
	ErrCodeForbidden:    http.StatusForbidden,

	// Integrity
	ErrCodeConcurrencyConflict: http.StatusConflict,
}

// GetHTTPStatus returns the HTTP status for a domain error code.
// Unlisted codes are business rule rejections and answer 400.
func GetHTTPStatus(code string) int {
	if status, ok := ErrorCodeHTTPStatus[code]; ok {
		return status
	}
	return http.StatusBadRequest
}
