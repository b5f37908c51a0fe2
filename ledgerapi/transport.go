package ledgerapi

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
)

// transport carries requests to the server and returns the "result" object of a successful
// response. Server-reported failures come back as an Error from newServerError; if the context
// ends first, the context's own error is returned and the client converts it.
type transport interface {
	name() string
	connect(ctx context.Context) error
	close() error
	isConnected() bool
	call(ctx context.Context, command string, params map[string]interface{}) (json.RawMessage, error)
}

// response holds the outcome of one request, delivered on a channel with a buffer of one so
// that the sender never blocks.
type response struct {
	result json.RawMessage
	err    error
}

// serverStatus is the part of every response that says whether the request succeeded.
type serverStatus struct {
	Status       string `json:"status"`
	Error        string `json:"error"`
	ErrorCode    int    `json:"error_code"`
	ErrorMessage string `json:"error_message"`
}

func (s serverStatus) toError(command string) error {
	if s.Status == "success" && s.Error == "" {
		return nil
	}
	if s.Error == "" {
		return &ResponseFormatError{Command: command, Message: fmt.Sprintf("unexpected status %q", s.Status)}
	}
	message := s.ErrorMessage
	if message == "" {
		message = s.Error
	}
	return newServerError(command, s.Error, s.ErrorCode, message)
}

func newTransport(serverURL string) (transport, error) {
	u, err := url.Parse(serverURL)
	if err != nil {
		return nil, &ValidationError{Field: "serverURL", Message: err.Error()}
	}
	switch u.Scheme {
	case "http", "https":
		return newHTTPTransport(serverURL), nil
	case "ws", "wss":
		return newWebSocketTransport(serverURL), nil
	default:
		return nil, &ValidationError{Field: "serverURL", Message: fmt.Sprintf("unsupported scheme %q", u.Scheme)}
	}
}
