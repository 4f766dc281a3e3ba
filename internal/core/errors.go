// internal/core/errors.go
package core

import (
	"errors"
	"fmt"
)

// Error represents a structured error with code and optional cause.
// Status carries the HTTP response code for backend failures.
type Error struct {
	Code    string
	Message string
	Status  int
	Cause   error
}

// Error implements the error interface.
func (e *Error) Error() string {
	msg := e.Message
	if e.Status != 0 {
		msg = fmt.Sprintf("%s (status %d)", e.Message, e.Status)
	}
	if e.Cause != nil {
		return fmt.Sprintf("[%s] %s: %v", e.Code, msg, e.Cause)
	}
	return fmt.Sprintf("[%s] %s", e.Code, msg)
}

// Unwrap returns the underlying cause for errors.Is/As support.
func (e *Error) Unwrap() error {
	return e.Cause
}

// Is implements errors.Is matching by code.
func (e *Error) Is(target error) bool {
	if t, ok := target.(*Error); ok {
		return e.Code == t.Code
	}
	return false
}

// WrapError creates a new error with the same code but with a cause.
func WrapError(base *Error, cause error) *Error {
	return &Error{
		Code:    base.Code,
		Message: base.Message,
		Status:  base.Status,
		Cause:   cause,
	}
}

// HTTPError creates a backend-status error carrying the response code.
func HTTPError(status int) *Error {
	return &Error{
		Code:    ErrHTTP.Code,
		Message: ErrHTTP.Message,
		Status:  status,
	}
}

// ErrorCode extracts the structured code from any error in the chain,
// or returns empty for plain errors.
func ErrorCode(err error) string {
	var e *Error
	if errors.As(err, &e) {
		return e.Code
	}
	return ""
}

// HTTPStatus extracts the backend response code from an error chain,
// or returns zero when none was recorded.
func HTTPStatus(err error) int {
	var e *Error
	if errors.As(err, &e) {
		return e.Status
	}
	return 0
}

// Predefined errors
var (
	// Fetch errors, one per failure mode of a backend call
	ErrNetwork = &Error{Code: "NETWORK_ERROR", Message: "no response from backend"}
	ErrHTTP    = &Error{Code: "HTTP_ERROR", Message: "backend returned failure status"}
	ErrDecode  = &Error{Code: "DECODE_ERROR", Message: "malformed payload"}

	// Data errors
	ErrSymbolInvalid    = &Error{Code: "SYMBOL_INVALID", Message: "symbol fails validation"}
	ErrTimeframeInvalid = &Error{Code: "TIMEFRAME_INVALID", Message: "timeframe not supported"}
	ErrNoData           = &Error{Code: "NO_DATA", Message: "no data available"}

	// Storage errors
	ErrStorage          = &Error{Code: "STORAGE_FAILED", Message: "storage operation failed"}
	ErrDocumentNotFound = &Error{Code: "DOCUMENT_NOT_FOUND", Message: "document not found"}

	// Stream errors
	ErrStreamClosed = &Error{Code: "STREAM_CLOSED", Message: "stream connection closed"}

	// Config errors
	ErrConfigInvalid = &Error{Code: "CONFIG_INVALID", Message: "configuration invalid"}
	ErrConfigMissing = &Error{Code: "CONFIG_MISSING", Message: "required configuration missing"}

	// LLM errors
	ErrLLMFailed  = &Error{Code: "LLM_FAILED", Message: "LLM request failed"}
	ErrLLMTimeout = &Error{Code: "LLM_TIMEOUT", Message: "LLM request timeout"}
)
