package ledgerapi

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"github.com/gorilla/websocket"
)

const wsHandshakeTimeout = 10 * time.Second

// webSocketTransport sends {"id": N, "command": command, ...params} and matches each reply to
// its request by id, so any number of requests can be outstanding at once.
type webSocketTransport struct {
	url       string
	dialer    *websocket.Dialer
	conn      *websocket.Conn
	lastID    uint64
	pending   map[uint64]pendingRequest
	lock      sync.Mutex
	writeLock sync.Mutex
}

type pendingRequest struct {
	conn     *websocket.Conn
	command  string
	response chan *response
}

type wsMessage struct {
	serverStatus
	ID     *uint64         `json:"id"`
	Type   string          `json:"type"`
	Result json.RawMessage `json:"result"`
}

func newWebSocketTransport(serverURL string) *webSocketTransport {
	return &webSocketTransport{
		url:     serverURL,
		dialer:  &websocket.Dialer{HandshakeTimeout: wsHandshakeTimeout},
		pending: make(map[uint64]pendingRequest),
	}
}

func (t *webSocketTransport) name() string { return "ws" }

func (t *webSocketTransport) connect(ctx context.Context) error {
	t.lock.Lock()
	defer t.lock.Unlock()
	if t.conn != nil {
		return nil
	}
	conn, resp, err := t.dialer.DialContext(ctx, t.url, nil)
	if resp != nil && resp.Body != nil {
		_ = resp.Body.Close()
	}
	if err != nil {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		return &ConnectionError{URL: t.url, Err: err}
	}
	t.conn = conn
	go t.readLoop(conn)
	return nil
}

func (t *webSocketTransport) close() error {
	t.lock.Lock()
	conn := t.conn
	t.conn = nil
	t.lock.Unlock()
	if conn == nil {
		return nil
	}
	t.writeLock.Lock()
	_ = conn.WriteControl(websocket.CloseMessage,
		websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""), time.Now().Add(time.Second))
	t.writeLock.Unlock()
	return conn.Close()
}

func (t *webSocketTransport) isConnected() bool {
	t.lock.Lock()
	defer t.lock.Unlock()
	return t.conn != nil
}

func (t *webSocketTransport) call(
	ctx context.Context,
	command string,
	params map[string]interface{},
) (json.RawMessage, error) {
	t.lock.Lock()
	conn := t.conn
	if conn == nil {
		t.lock.Unlock()
		return nil, &ConnectionError{URL: t.url, Err: ErrNotConnected}
	}
	t.lastID++
	id := t.lastID
	ch := make(chan *response, 1)
	t.pending[id] = pendingRequest{conn: conn, command: command, response: ch}
	t.lock.Unlock()

	message := make(map[string]interface{}, len(params)+2)
	for k, v := range params {
		message[k] = v
	}
	message["id"] = id
	message["command"] = command
	data, err := json.Marshal(message)
	if err != nil {
		t.removePending(id)
		return nil, &ValidationError{Field: "params", Message: err.Error()}
	}

	t.writeLock.Lock()
	if deadline, ok := ctx.Deadline(); ok {
		_ = conn.SetWriteDeadline(deadline)
	}
	err = conn.WriteMessage(websocket.TextMessage, data)
	t.writeLock.Unlock()
	if err != nil {
		t.removePending(id)
		return nil, &ConnectionError{URL: t.url, Err: err}
	}

	select {
	case r := <-ch:
		return r.result, r.err
	case <-ctx.Done():
		t.removePending(id)
		return nil, ctx.Err()
	}
}

func (t *webSocketTransport) removePending(id uint64) {
	t.lock.Lock()
	delete(t.pending, id)
	t.lock.Unlock()
}

func (t *webSocketTransport) readLoop(conn *websocket.Conn) {
	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			t.failAll(conn, err)
			return
		}
		var msg wsMessage
		if err := json.Unmarshal(data, &msg); err != nil || msg.ID == nil {
			continue // not a reply to one of our requests
		}
		if msg.Type != "" && msg.Type != "response" {
			continue
		}
		t.lock.Lock()
		req, ok := t.pending[*msg.ID]
		delete(t.pending, *msg.ID)
		t.lock.Unlock()
		if !ok {
			continue
		}
		if err := msg.serverStatus.toError(req.command); err != nil {
			req.response <- &response{err: err}
			continue
		}
		if len(msg.Result) == 0 {
			req.response <- &response{err: &ResponseFormatError{
				Command: req.command, Message: "missing result", Data: string(data)}}
			continue
		}
		req.response <- &response{result: msg.Result}
	}
}

// failAll ends every request still waiting on a connection that is gone.
func (t *webSocketTransport) failAll(conn *websocket.Conn, cause error) {
	var failed []pendingRequest
	t.lock.Lock()
	if t.conn == conn {
		t.conn = nil
	}
	for id, req := range t.pending {
		if req.conn == conn {
			failed = append(failed, req)
			delete(t.pending, id)
		}
	}
	t.lock.Unlock()
	_ = conn.Close()
	for _, req := range failed {
		req.response <- &response{err: &ConnectionError{URL: t.url, Err: cause}}
	}
}
