package ledgerapi

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"sync/atomic"
)

// httpTransport speaks JSON-RPC: {"method": command, "params": [params]}, answered by
// {"result": {..., "status": "success"}}.
type httpTransport struct {
	url       string
	client    *http.Client
	connected atomic.Bool
}

func newHTTPTransport(serverURL string) *httpTransport {
	return &httpTransport{url: serverURL, client: &http.Client{}}
}

func (t *httpTransport) name() string { return "http" }

// connect checks that the server answers, since HTTP has no connection to keep open.
func (t *httpTransport) connect(ctx context.Context) error {
	t.connected.Store(true)
	if _, err := t.call(ctx, "ping", nil); err != nil {
		t.connected.Store(false)
		return err
	}
	return nil
}

func (t *httpTransport) close() error {
	t.connected.Store(false)
	return nil
}

func (t *httpTransport) isConnected() bool { return t.connected.Load() }

func (t *httpTransport) call(
	ctx context.Context,
	command string,
	params map[string]interface{},
) (json.RawMessage, error) {
	if !t.connected.Load() {
		return nil, &ConnectionError{URL: t.url, Err: ErrNotConnected}
	}
	if params == nil {
		params = map[string]interface{}{}
	}
	body, err := json.Marshal(map[string]interface{}{
		"method": command,
		"params": []interface{}{params},
	})
	if err != nil {
		return nil, &ValidationError{Field: "params", Message: err.Error()}
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, t.url, bytes.NewReader(body))
	if err != nil {
		return nil, &ConnectionError{URL: t.url, Err: err}
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := t.client.Do(req)
	if err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		return nil, &ConnectionError{URL: t.url, Err: err}
	}
	respBody, err := io.ReadAll(resp.Body)
	_ = resp.Body.Close()
	if err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		return nil, &ConnectionError{URL: t.url, Err: err}
	}
	if resp.StatusCode != http.StatusOK {
		return nil, &ConnectionError{URL: t.url, Err: fmt.Errorf("server returned HTTP %d", resp.StatusCode)}
	}

	var envelope struct {
		Result json.RawMessage `json:"result"`
	}
	if err := json.Unmarshal(respBody, &envelope); err != nil || len(envelope.Result) == 0 {
		return nil, &ResponseFormatError{Command: command, Message: "missing result", Data: string(respBody)}
	}
	var status serverStatus
	if err := json.Unmarshal(envelope.Result, &status); err != nil {
		return nil, &ResponseFormatError{Command: command, Message: err.Error(), Data: string(respBody)}
	}
	if err := status.toError(command); err != nil {
		return nil, err
	}
	return withoutStatus(command, envelope.Result)
}

// withoutStatus drops the "status" property, which over HTTP sits inside the result, so that
// results look the same whichever transport delivered them.
func withoutStatus(command string, result json.RawMessage) (json.RawMessage, error) {
	var props map[string]json.RawMessage
	if err := json.Unmarshal(result, &props); err != nil {
		return nil, &ResponseFormatError{Command: command, Message: err.Error(), Data: string(result)}
	}
	delete(props, "status")
	return json.Marshal(props)
}
