package ledgerapi

import (
	"errors"
	"fmt"
	"time"
)

// ErrNotConnected is wrapped in a ConnectionError when a request is made before Connect.
var ErrNotConnected = errors.New("not connected") //nolint:gochecknoglobals

// Error is implemented by every error the client returns.
type Error interface {
	error
	// Kind is the name of the error category, such as "NotFoundError".
	Kind() string
}

// RippledError is an error reported by the server for a request.
type RippledError struct {
	Command   string
	Code      string // the server's error token, e.g. "tooBusy"
	ErrorCode int
	Message   string
}

func (e *RippledError) Error() string {
	return fmt.Sprintf("%s: %s (%s)", e.Code, e.Message, e.Command)
}

func (e *RippledError) Kind() string { return "RippledError" }

// NotFoundError is a server error meaning the requested account, transaction or ledger does
// not exist.
type NotFoundError struct {
	Command string
	Code    string
	Message string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s: %s (%s)", e.Code, e.Message, e.Command)
}

func (e *NotFoundError) Kind() string { return "NotFoundError" }

// ValidationError means a parameter was rejected before anything was sent to the server.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Message)
}

func (e *ValidationError) Kind() string { return "ValidationError" }

// ConnectionError means the transport failed.
type ConnectionError struct {
	URL string
	Err error
}

func (e *ConnectionError) Error() string {
	return fmt.Sprintf("connection to %s failed: %s", e.URL, e.Err)
}

func (e *ConnectionError) Unwrap() error { return e.Err }

func (e *ConnectionError) Kind() string { return "ConnectionError" }

// TimeoutError means the server did not answer a request in time.
type TimeoutError struct {
	Command string
	Timeout time.Duration
}

func (e *TimeoutError) Error() string {
	if e.Timeout == 0 {
		return fmt.Sprintf("request %q was cancelled before a response arrived", e.Command)
	}
	return fmt.Sprintf("request %q timed out after %s", e.Command, e.Timeout)
}

func (e *TimeoutError) Kind() string { return "TimeoutError" }

// ResponseFormatError means the server's response could not be understood.
type ResponseFormatError struct {
	Command string
	Message string
	Data    string
}

func (e *ResponseFormatError) Error() string {
	return fmt.Sprintf("malformed response to %q: %s", e.Command, e.Message)
}

func (e *ResponseFormatError) Kind() string { return "ResponseFormatError" }

// newServerError classifies an error token from the server.
func newServerError(command, token string, code int, message string) Error {
	switch token {
	case "actNotFound", "txnNotFound", "lgrNotFound", "entryNotFound":
		return &NotFoundError{Command: command, Code: token, Message: message}
	default:
		return &RippledError{Command: command, Code: token, ErrorCode: code, Message: message}
	}
}
