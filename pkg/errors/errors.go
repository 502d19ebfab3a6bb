package errors

import (
	"errors"
	"fmt"
	"net/http"
)

const (
	CodeNotFound     = "NOT_FOUND"
	CodeValidation   = "VALIDATION_ERROR"
	CodeUnauthorized = "UNAUTHORIZED"
	CodeForbidden    = "FORBIDDEN"
	CodeConflict     = "CONFLICT"
	CodeInternal     = "INTERNAL_ERROR"
	CodeUnknown      = "UNKNOWN_ERROR"
	CodeTimeout      = "TIMEOUT"
	CodeUnavailable  = "SERVICE_UNAVAILABLE"
	CodeInvalidInput = "INVALID_INPUT"
	CodeRateLimited  = "RATE_LIMITED"

	CodeInvalidToken            = "INVALID_TOKEN"
	CodeTokenNotFound           = "TOKEN_NOT_FOUND"
	CodeTokenExpired            = "TOKEN_EXPIRED"
	CodeTokenAlreadyUsed        = "TOKEN_ALREADY_USED"
	CodeLeadNotFound            = "LEAD_NOT_FOUND"
	CodeSlotNotAvailable        = "SLOT_NOT_AVAILABLE"
	CodeSlotHasBookings         = "SLOT_HAS_BOOKINGS"
	CodeNoSlotsAvailable        = "NO_SLOTS_AVAILABLE"
	CodeInvalidStatusTransition = "INVALID_STATUS_TRANSITION"
)

type AppError struct {
	Code       string         `json:"code"`
	Message    string         `json:"message"`
	HTTPStatus int            `json:"-"`
	Details    map[string]any `json:"details,omitempty"`
	Err        error          `json:"-"`
}

func (e *AppError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s (caused by: %v)", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *AppError) Unwrap() error {
	return e.Err
}

func (e *AppError) StatusCode() int {
	return e.HTTPStatus
}

// ErrorBody is the error object nested in the response envelope.
type ErrorBody struct {
	Code    string         `json:"code"`
	Message string         `json:"message"`
	Details map[string]any `json:"details,omitempty"`
}

func New(code, message string, httpStatus int) *AppError {
	return &AppError{
		Code:       code,
		Message:    message,
		HTTPStatus: httpStatus,
	}
}

func Wrap(err error, code, message string, httpStatus int) *AppError {
	return &AppError{
		Code:       code,
		Message:    message,
		HTTPStatus: httpStatus,
		Err:        err,
	}
}

func (e *AppError) WithDetails(details map[string]any) *AppError {
	e.Details = details
	return e
}

func NotFoundWithID(resource, id string) *AppError {
	return &AppError{
		Code:       CodeNotFound,
		Message:    fmt.Sprintf("%s not found", resource),
		HTTPStatus: http.StatusNotFound,
		Details: map[string]any{
			"resource": resource,
			"id":       id,
		},
	}
}

func Validation(message string, details map[string]any) *AppError {
	return &AppError{
		Code:       CodeValidation,
		Message:    message,
		HTTPStatus: http.StatusBadRequest,
		Details:    details,
	}
}

func InvalidInput(message string) *AppError {
	return &AppError{
		Code:       CodeInvalidInput,
		Message:    message,
		HTTPStatus: http.StatusBadRequest,
	}
}

func Unauthorized(message string) *AppError {
	return &AppError{
		Code:       CodeUnauthorized,
		Message:    message,
		HTTPStatus: http.StatusUnauthorized,
	}
}

func Forbidden(message string) *AppError {
	return &AppError{
		Code:       CodeForbidden,
		Message:    message,
		HTTPStatus: http.StatusForbidden,
	}
}

func Conflict(message string) *AppError {
	return &AppError{
		Code:       CodeConflict,
		Message:    message,
		HTTPStatus: http.StatusConflict,
	}
}

func Internal(message string, err error) *AppError {
	return Wrap(err, CodeInternal, message, http.StatusInternalServerError)
}

func Timeout(message string) *AppError {
	return &AppError{
		Code:       CodeTimeout,
		Message:    message,
		HTTPStatus: http.StatusGatewayTimeout,
	}
}

func Unavailable(service string, err error) *AppError {
	return Wrap(err, CodeUnavailable, fmt.Sprintf("%s is temporarily unavailable", service), http.StatusServiceUnavailable)
}

func RateLimited() *AppError {
	return &AppError{
		Code:       CodeRateLimited,
		Message:    "Too many requests, please try again later",
		HTTPStatus: http.StatusTooManyRequests,
	}
}

// --- Booking flow ---

func InvalidToken() *AppError {
	return &AppError{
		Code:       CodeInvalidToken,
		Message:    "Invalid booking token",
		HTTPStatus: http.StatusBadRequest,
	}
}

func TokenNotFound() *AppError {
	return &AppError{
		Code:       CodeTokenNotFound,
		Message:    "Booking token not found",
		HTTPStatus: http.StatusNotFound,
	}
}

// Expired and used links answer 410 Gone: the resource existed but can no longer be used.
func TokenExpired() *AppError {
	return &AppError{
		Code:       CodeTokenExpired,
		Message:    "Booking token has expired",
		HTTPStatus: http.StatusGone,
	}
}

func TokenAlreadyUsed() *AppError {
	return &AppError{
		Code:       CodeTokenAlreadyUsed,
		Message:    "Booking token has already been used",
		HTTPStatus: http.StatusGone,
	}
}

func LeadNotFound() *AppError {
	return &AppError{
		Code:       CodeLeadNotFound,
		Message:    "Lead not found",
		HTTPStatus: http.StatusNotFound,
	}
}

func SlotNotAvailable() *AppError {
	return &AppError{
		Code:       CodeSlotNotAvailable,
		Message:    "The selected meeting slot is no longer available",
		HTTPStatus: http.StatusConflict,
	}
}

func SlotHasBookings() *AppError {
	return &AppError{
		Code:       CodeSlotHasBookings,
		Message:    "Meeting slot has active bookings",
		HTTPStatus: http.StatusConflict,
	}
}

func NoSlotsAvailable() *AppError {
	return &AppError{
		Code:       CodeNoSlotsAvailable,
		Message:    "No meeting slots are available",
		HTTPStatus: http.StatusBadRequest,
	}
}

func InvalidStatusTransition(from, to string) *AppError {
	return &AppError{
		Code:       CodeInvalidStatusTransition,
		Message:    fmt.Sprintf("Cannot change booking status from %s to %s", from, to),
		HTTPStatus: http.StatusConflict,
		Details: map[string]any{
			"from": from,
			"to":   to,
		},
	}
}

func IsAppError(err error) bool {
	var appErr *AppError
	return errors.As(err, &appErr)
}

// AsAppError returns the first AppError in err's chain, or an internal error wrapping err.
func AsAppError(err error) *AppError {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr
	}
	return Internal("An unexpected error occurred", err)
}

// HasCode reports whether err carries an AppError with the given code.
func HasCode(err error, code string) bool {
	var appErr *AppError
	return errors.As(err, &appErr) && appErr.Code == code
}
