package errors

import (
	stderrors "errors"
	"fmt"
)

// ErrorType represents different types of errors that can occur during a run
type ErrorType string

const (
	ErrorTypeTokenNotFound ErrorType = "token_not_found"
	ErrorTypePageFetch     ErrorType = "page_fetch"
	ErrorTypeImageFetch    ErrorType = "image_fetch"
	ErrorTypeImageDecode   ErrorType = "image_decode"
	ErrorTypeImageWrite    ErrorType = "image_write"
	ErrorTypeNetwork       ErrorType = "network"
	ErrorTypeNotFound      ErrorType = "not_found"
	ErrorTypeConfig        ErrorType = "config"
	ErrorTypePublish       ErrorType = "publish"
	ErrorTypeUnknown       ErrorType = "unknown"
)

// Error represents a scraper error with type information
type Error struct {
	Type    ErrorType
	Message string
	Code    int
	Err     error
}

// New creates an Error of the given type
func New(errType ErrorType, format string, args ...interface{}) *Error {
	return &Error{Type: errType, Message: fmt.Sprintf(format, args...)}
}

// Wrap creates an Error of the given type around an underlying error
func Wrap(errType ErrorType, err error, format string, args ...interface{}) *Error {
	return &Error{Type: errType, Message: fmt.Sprintf(format, args...), Err: err}
}

func (e *Error) Error() string {
	msg := fmt.Sprintf("%s error", e.Type)
	if e.Code != 0 {
		msg = fmt.Sprintf("%s (code %d)", msg, e.Code)
	}
	msg += ": " + e.Message
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Is matches another *Error by type, so errors.Is(err, &Error{Type: X}) works
// as a kind check.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return t.Type == e.Type
}

// TypeOf returns the ErrorType of the first *Error in err's chain
func TypeOf(err error) ErrorType {
	var e *Error
	if stderrors.As(err, &e) {
		return e.Type
	}
	return ErrorTypeUnknown
}

// IsType reports whether err carries the given ErrorType
func IsType(err error, errType ErrorType) bool {
	return stderrors.Is(err, &Error{Type: errType})
}

// IsTerminal reports whether an error type ends the phase it occurred in.
// Image-level errors are isolated to a single item and never terminal.
func IsTerminal(errorType ErrorType) bool {
	switch errorType {
	case ErrorTypeTokenNotFound, ErrorTypePageFetch, ErrorTypeConfig:
		return true
	case ErrorTypeImageFetch, ErrorTypeImageDecode, ErrorTypeImageWrite:
		return false
	default:
		return true
	}
}

// IsSuccessStatusCode checks if an HTTP status code counts as a successful fetch
func IsSuccessStatusCode(statusCode int) bool {
	return statusCode >= 200 && statusCode < 300
}
