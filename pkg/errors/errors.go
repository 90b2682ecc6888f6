// Package errors defines the API error type and its JSON envelope.
package errors

import (
	stderrors "errors"
	"fmt"
	"net/http"
	"strings"
)

// ErrorCode is the machine readable "code" member of an error response.
type ErrorCode string

const (
	CodeValidation          ErrorCode = "VALIDATION_ERROR"
	CodeBadRequest          ErrorCode = "BAD_REQUEST"
	CodeUnauthenticated     ErrorCode = "UNAUTHENTICATED"
	CodeForbidden           ErrorCode = "FORBIDDEN"
	CodeNotFound            ErrorCode = "NOT_FOUND"
	CodeConflict            ErrorCode = "CONFLICT"
	CodeRateLimited         ErrorCode = "RATE_LIMITED"
	CodeUpstreamTimeout     ErrorCode = "UPSTREAM_TIMEOUT"
	CodeUpstreamUnavailable ErrorCode = "UPSTREAM_UNAVAILABLE"
	CodeInternalError       ErrorCode = "INTERNAL_ERROR"
)

var statusByCode = map[ErrorCode]int{
	CodeValidation:          http.StatusBadRequest,
	CodeBadRequest:          http.StatusBadRequest,
	CodeUnauthenticated:     http.StatusUnauthorized,
	CodeForbidden:           http.StatusForbidden,
	CodeNotFound:            http.StatusNotFound,
	CodeConflict:            http.StatusConflict,
	CodeRateLimited:         http.StatusTooManyRequests,
	CodeUpstreamTimeout:     http.StatusGatewayTimeout,
	CodeUpstreamUnavailable: http.StatusServiceUnavailable,
	CodeInternalError:       http.StatusInternalServerError,
}

// ErrorResponse is the JSON envelope written for every failed request.
// Error holds a string, or a list of strings for validation failures.
type ErrorResponse struct {
	Success bool        `json:"success"`
	Error   interface{} `json:"error"`
	Code    ErrorCode   `json:"code"`
	TraceID string      `json:"trace_id,omitempty"`
}

// AppError is an error that knows its client-facing message and status.
// Cause is logged but never sent.
type AppError struct {
	Code    ErrorCode
	Message string
	// Details lists individual field failures for validation errors.
	Details []string
	Cause   error
}

func (e *AppError) Error() string {
	if e.Cause == nil {
		return fmt.Sprintf("%s: %s", e.Code, e.Message)
	}
	return fmt.Sprintf("%s: %s (caused by: %v)", e.Code, e.Message, e.Cause)
}

func (e *AppError) Unwrap() error {
	return e.Cause
}

func NewAppError(code ErrorCode, message string, cause error) *AppError {
	return &AppError{Code: code, Message: message, Cause: cause}
}

// Validation creates a VALIDATION_ERROR carrying every violated constraint.
func Validation(details ...string) *AppError {
	return &AppError{
		Code:    CodeValidation,
		Message: strings.Join(details, "; "),
		Details: details,
	}
}

func BadRequest(message string) *AppError {
	return NewAppError(CodeBadRequest, message, nil)
}

func Unauthenticated(message string) *AppError {
	return NewAppError(CodeUnauthenticated, message, nil)
}

func Forbidden(message string) *AppError {
	return NewAppError(CodeForbidden, message, nil)
}

func NotFound(message string) *AppError {
	return NewAppError(CodeNotFound, message, nil)
}

func Conflict(message string) *AppError {
	return NewAppError(CodeConflict, message, nil)
}

func Upstream(message string, cause error) *AppError {
	return NewAppError(CodeUpstreamUnavailable, message, cause)
}

// Internal hides cause behind the generic "Server Error" message.
func Internal(cause error) *AppError {
	return NewAppError(CodeInternalError, "Server Error", cause)
}

// ToErrorResponse builds the envelope; traceID may be empty.
func (e *AppError) ToErrorResponse(traceID string) ErrorResponse {
	var body interface{} = e.Message
	if e.Code == CodeValidation && len(e.Details) > 0 {
		body = e.Details
	}
	return ErrorResponse{
		Success: false,
		Error:   body,
		Code:    e.Code,
		TraceID: traceID,
	}
}

// HTTPStatus maps the code to a status; unknown codes are 500.
func (e *AppError) HTTPStatus() int {
	if status, ok := statusByCode[e.Code]; ok {
		return status
	}
	return http.StatusInternalServerError
}

// As returns the first AppError in err's chain.
func As(err error) (*AppError, bool) {
	var appErr *AppError
	if stderrors.As(err, &appErr) {
		return appErr, true
	}
	return nil, false
}

// CodeOf returns the code of the first AppError in err's chain, or
// CodeInternalError when there is none.
func CodeOf(err error) ErrorCode {
	if appErr, ok := As(err); ok {
		return appErr.Code
	}
	return CodeInternalError
}
