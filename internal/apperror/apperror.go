// Package apperror holds the error taxonomy shared by the store, the check-in
// engine and the HTTP layer, plus the JSON envelope errors are rendered with.
// Business outcomes (expired, waiver pending, not found on lookup) are not
// errors and never appear here.
package apperror

import (
	"errors"
	"net/http"
)

var (
	// ErrNotAuthenticated means the session or tenant could not be resolved.
	ErrNotAuthenticated = errors.New("not authenticated")
	// ErrStoreUnavailable wraps any failure of the backing store.
	ErrStoreUnavailable = errors.New("store unavailable")
	// ErrDuplicateShortCode is returned when an active record already uses the code.
	ErrDuplicateShortCode = errors.New("short code already in use")
	// ErrMemberNotFound is returned by id-addressed operations.
	ErrMemberNotFound = errors.New("member not found")
	// ErrTimeLogNotFound is returned when a time log id does not exist for the tenant.
	ErrTimeLogNotFound = errors.New("time log not found")
	// ErrIllegalClockAction is returned when the action is not legal for the current clock state.
	ErrIllegalClockAction = errors.New("clock action not allowed in current state")
	// ErrStaleClockState is returned when the clock state changed between read and commit.
	ErrStaleClockState = errors.New("clock state changed, reload and retry")
	// ErrWrongMode is returned when an operation does not apply to the tenant's mode.
	ErrWrongMode = errors.New("operation not available in this mode")
	// ErrWaiverNotConfigured blocks member creation until a waiver document exists.
	ErrWaiverNotConfigured = errors.New("liability waiver must be configured before adding members")
	// ErrEmailTaken is returned on registration with an existing email.
	ErrEmailTaken = errors.New("email already registered")
	// ErrInvalidCredentials is returned on a failed password login.
	ErrInvalidCredentials = errors.New("invalid email or password")
	// ErrInvalidPIN is returned when the admin PIN does not match.
	ErrInvalidPIN = errors.New("invalid PIN")
	// ErrInvalidInput is the parent of all request validation failures.
	ErrInvalidInput = errors.New("invalid input")
)

// Response is the error envelope returned for every 4xx/5xx response.
type Response struct {
	Error   string `json:"error"`
	Message string `json:"message"`
	Code    string `json:"code"`
}

type mapping struct {
	target error
	status int
	kind   string
	code   string
}

// Ordered: the first match wins.
var mappings = []mapping{
	{ErrNotAuthenticated, http.StatusUnauthorized, "unauthorized", "NOT_AUTHENTICATED"},
	{ErrInvalidCredentials, http.StatusUnauthorized, "unauthorized", "INVALID_CREDENTIALS"},
	{ErrInvalidPIN, http.StatusUnauthorized, "unauthorized", "INVALID_PIN"},
	{ErrDuplicateShortCode, http.StatusConflict, "conflict", "DUPLICATE_SHORT_CODE"},
	{ErrEmailTaken, http.StatusConflict, "conflict", "EMAIL_TAKEN"},
	{ErrStaleClockState, http.StatusConflict, "conflict", "STALE_CLOCK_STATE"},
	{ErrMemberNotFound, http.StatusNotFound, "not_found", "MEMBER_NOT_FOUND"},
	{ErrTimeLogNotFound, http.StatusNotFound, "not_found", "TIME_LOG_NOT_FOUND"},
	{ErrIllegalClockAction, http.StatusUnprocessableEntity, "unprocessable", "ILLEGAL_CLOCK_ACTION"},
	{ErrWrongMode, http.StatusUnprocessableEntity, "unprocessable", "WRONG_MODE"},
	{ErrWaiverNotConfigured, http.StatusUnprocessableEntity, "unprocessable", "WAIVER_NOT_CONFIGURED"},
	{ErrInvalidInput, http.StatusBadRequest, "bad_request", "INVALID_INPUT"},
	{ErrStoreUnavailable, http.StatusServiceUnavailable, "store_unavailable", "STORE_UNAVAILABLE"},
}

// HTTPStatus maps err onto a status code and envelope. Unknown errors become a
// 500 with a generic message so internals do not leak to the kiosk.
func HTTPStatus(err error) (int, Response) {
	for _, m := range mappings {
		if errors.Is(err, m.target) {
			return m.status, Response{Error: m.kind, Message: err.Error(), Code: m.code}
		}
	}
	return http.StatusInternalServerError, Response{
		Error:   "internal_error",
		Message: "An unexpected error occurred",
		Code:    "INTERNAL_ERROR",
	}
}

// Invalid returns an ErrInvalidInput carrying a field-level message.
func Invalid(msg string) error {
	return &invalidError{msg: msg}
}

type invalidError struct {
	msg string
}

func (e *invalidError) Error() string { return e.msg }

func (e *invalidError) Unwrap() error { return ErrInvalidInput }
