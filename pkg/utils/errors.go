package utils

import (
	"errors"
	"net/http"
)

// Error codes carried in the response envelope.
const (
	CodeInvalidRequest     = "INVALID_REQUEST"
	CodeValidation         = "VALIDATION_FAILED"
	CodeUnauthorized       = "UNAUTHORIZED"
	CodeForbidden          = "FORBIDDEN"
	CodeNotFound           = "NOT_FOUND"
	CodeConflict           = "CONFLICT"
	CodeSlotTaken          = "SLOT_TAKEN"
	CodeOrderUsed          = "ORDER_USED"
	CodeInProgress         = "SUBMISSION_IN_PROGRESS"
	CodeInvalidState       = "INVALID_STATE"
	CodeVerificationFailed = "VERIFICATION_FAILED"
	CodeRateLimited        = "RATE_LIMIT_EXCEEDED"
	CodeUpstream           = "PROVIDER_UNAVAILABLE"
	CodeInternal           = "INTERNAL"
)

var codeStatus = map[string]int{
	CodeInvalidRequest:     http.StatusBadRequest,
	CodeValidation:         http.StatusUnprocessableEntity,
	CodeUnauthorized:       http.StatusUnauthorized,
	CodeForbidden:          http.StatusForbidden,
	CodeNotFound:           http.StatusNotFound,
	CodeConflict:           http.StatusConflict,
	CodeSlotTaken:          http.StatusConflict,
	CodeOrderUsed:          http.StatusConflict,
	CodeInProgress:         http.StatusConflict,
	CodeInvalidState:       http.StatusBadRequest,
	CodeVerificationFailed: http.StatusBadRequest,
	CodeRateLimited:        http.StatusTooManyRequests,
	CodeUpstream:           http.StatusBadGateway,
	CodeInternal:           http.StatusInternalServerError,
}

// AppError is a service error that knows how it should be rendered.
type AppError struct {
	Code    string
	Message string
	Fields  map[string]string
	Err     error
}

func (e *AppError) Error() string {
	if e.Err != nil {
		return e.Message + ": " + e.Err.Error()
	}
	return e.Message
}

func (e *AppError) Unwrap() error { return e.Err }

// Status returns the HTTP status for the error code.
func (e *AppError) Status() int {
	if s, ok := codeStatus[e.Code]; ok {
		return s
	}
	return http.StatusInternalServerError
}

func NewError(code, message string) *AppError {
	return &AppError{Code: code, Message: message}
}

func WrapError(code, message string, err error) *AppError {
	return &AppError{Code: code, Message: message, Err: err}
}

func ValidationError(message string, fields map[string]string) *AppError {
	return &AppError{Code: CodeValidation, Message: message, Fields: fields}
}

// AsAppError unwraps err into an AppError. Unknown errors become CodeInternal.
func AsAppError(err error) *AppError {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr
	}
	return &AppError{Code: CodeInternal, Message: "Internal server error", Err: err}
}

// HasCode reports whether err carries the given code.
func HasCode(err error, code string) bool {
	var appErr *AppError
	return errors.As(err, &appErr) && appErr.Code == code
}
