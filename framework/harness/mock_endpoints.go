package harness

import (
	"bufio"
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/ledgerkit/api-test-harness/framework"
	"github.com/ledgerkit/api-test-harness/framework/helpers"

	"golang.org/x/exp/maps"
)

const endpointPathPrefix = "/endpoints/"

// Buffer size for the queue of incoming request information. The request handler never blocks
// on this queue; if it is full the information is discarded.
const incomingRequestChannelBufferSize = 20

type mockEndpointsManager struct {
	endpoints       map[string]*MockEndpoint
	lastEndpointID  int
	externalBaseURL string
	logger          framework.Logger
	lock            sync.Mutex
}

// MockEndpoint is one handler mounted under the harness listener, typically a mock ledger.
type MockEndpoint struct {
	owner       *mockEndpointsManager
	id          string
	description string
	basePath    string
	handler     http.Handler
	contextFn   func(context.Context) context.Context
	requests    chan IncomingRequestInfo
	cancels     map[int]context.CancelFunc
	lastCancel  int
	logger      framework.Logger
	lock        sync.Mutex
	closing     sync.Once
}

// MockEndpointOption configures a MockEndpoint at creation time.
type MockEndpointOption = helpers.ConfigOption[MockEndpoint]

// MockEndpointContextFn sets a function for decorating the Context of every request.
func MockEndpointContextFn(fn func(context.Context) context.Context) MockEndpointOption {
	return helpers.ConfigOptionFunc[MockEndpoint](func(m *MockEndpoint) error {
		m.contextFn = fn
		return nil
	})
}

// MockEndpointDescription sets the name used for the endpoint in log and failure messages.
func MockEndpointDescription(description string) MockEndpointOption {
	return helpers.ConfigOptionFunc[MockEndpoint](func(m *MockEndpoint) error {
		m.description = description
		return nil
	})
}

// IncomingRequestInfo describes an HTTP request received by a mock endpoint.
type IncomingRequestInfo struct {
	Headers http.Header
	Method  string
	URL     url.URL
	Body    []byte
	Context context.Context
}

func newMockEndpointsManager(externalBaseURL string, logger framework.Logger) *mockEndpointsManager {
	return &mockEndpointsManager{
		endpoints:       make(map[string]*MockEndpoint),
		externalBaseURL: externalBaseURL,
		logger:          logger,
	}
}

func (m *mockEndpointsManager) newMockEndpoint(
	handler http.Handler,
	logger framework.Logger,
	options ...MockEndpointOption,
) *MockEndpoint {
	if logger == nil {
		logger = m.logger
	}
	e := &MockEndpoint{
		owner:    m,
		handler:  handler,
		requests: make(chan IncomingRequestInfo, incomingRequestChannelBufferSize),
		cancels:  make(map[int]context.CancelFunc),
		logger:   logger,
	}
	_ = helpers.ApplyOptions(e, options...)
	m.lock.Lock()
	m.lastEndpointID++
	e.id = strconv.Itoa(m.lastEndpointID)
	e.basePath = endpointPathPrefix + e.id
	m.endpoints[e.id] = e
	m.lock.Unlock()
	if e.description == "" {
		e.description = "endpoint " + e.id
	}
	return e
}

func (m *mockEndpointsManager) closeAll() {
	m.lock.Lock()
	all := maps.Values(m.endpoints)
	m.lock.Unlock()
	for _, e := range all {
		e.Close()
	}
}

func (m *mockEndpointsManager) serveHTTP(w http.ResponseWriter, r *http.Request) {
	if !strings.HasPrefix(r.URL.Path, endpointPathPrefix) {
		m.logger.Printf("Received request for unrecognized URL path %s", r.URL.Path)
		w.WriteHeader(http.StatusNotFound)
		return
	}
	endpointID, path, _ := strings.Cut(strings.TrimPrefix(r.URL.Path, endpointPathPrefix), "/")
	path = "/" + path

	m.lock.Lock()
	e := m.endpoints[endpointID]
	m.lock.Unlock()
	if e == nil {
		m.logger.Printf("Received request for unrecognized endpoint %s", r.URL.Path)
		w.WriteHeader(http.StatusNotFound)
		return
	}

	var body []byte
	if r.Body != nil {
		data, err := io.ReadAll(r.Body)
		_ = r.Body.Close()
		if err != nil {
			m.logger.Printf("Unexpected error trying to read request body: %s", err)
			w.WriteHeader(http.StatusInternalServerError)
			return
		}
		if len(data) != 0 {
			body = data
		}
	}

	ctx, cancel := context.WithCancel(r.Context())
	defer cancel()
	if e.contextFn != nil {
		ctx = e.contextFn(ctx)
	}
	transformedReq := r.WithContext(ctx)
	u := *r.URL
	u.Path = path
	transformedReq.URL = &u
	transformedReq.Body = io.NopCloser(bytes.NewReader(body))

	e.lock.Lock()
	requests := e.requests
	if requests == nil {
		e.lock.Unlock()
		m.logger.Printf("Received request to already-closed endpoint %s", r.URL)
		w.WriteHeader(http.StatusInternalServerError)
		return
	}
	e.lastCancel++
	cancelID := e.lastCancel
	e.cancels[cancelID] = cancel
	if !helpers.NonBlockingSend(requests, IncomingRequestInfo{
		Headers: r.Header,
		Method:  r.Method,
		URL:     u,
		Body:    body,
		Context: ctx,
	}) {
		m.logger.Printf("Incoming request channel was full for %s", r.URL)
	}
	e.lock.Unlock()

	wrappedWriter := wrappedResponseWriter{w: w}
	e.handler.ServeHTTP(&wrappedWriter, transformedReq)

	switch wrappedWriter.status {
	case http.StatusNotFound:
		e.logger.Printf("Endpoint %q (%s) received %s request for unrecognized path %s", e.description, e.basePath,
			r.Method, path)
	case http.StatusMethodNotAllowed:
		e.logger.Printf("Endpoint %q (%s) received request with unsupported %s method for path %s", e.description,
			e.basePath, r.Method, path)
	}

	e.lock.Lock()
	delete(e.cancels, cancelID)
	e.lock.Unlock()
}

// BaseURL returns the http URL of the mock endpoint.
func (e *MockEndpoint) BaseURL() string {
	return e.owner.externalBaseURL + e.basePath
}

// WebSocketURL returns the ws URL of the given subpath of the mock endpoint.
func (e *MockEndpoint) WebSocketURL(subpath string) string {
	return "ws" + strings.TrimPrefix(e.BaseURL(), "http") + subpath
}

// Description returns the name given with MockEndpointDescription, or a default.
func (e *MockEndpoint) Description() string {
	return e.description
}

// AwaitRequest waits for an incoming request to the endpoint.
func (e *MockEndpoint) AwaitRequest(timeout time.Duration) (IncomingRequestInfo, error) {
	if received := helpers.TryReceive(e.requestsChannel(), timeout); received.IsDefined() {
		return received.Value(), nil
	}
	return IncomingRequestInfo{}, fmt.Errorf("timed out waiting for an incoming request to %q (%s)", e.description,
		e.basePath)
}

// RequireRequest waits for an incoming request to the endpoint, and causes the test to fail
// and terminate if it timed out.
func (e *MockEndpoint) RequireRequest(t helpers.TestContext, timeout time.Duration) IncomingRequestInfo {
	t.Helper()
	return helpers.RequireValueWithMessage(t, e.requestsChannel(), timeout, "timed out waiting for request to %q (%s)",
		e.description, e.basePath)
}

// RequireNoMoreRequests causes the test to fail and terminate if there is another incoming
// request within the timeout.
func (e *MockEndpoint) RequireNoMoreRequests(t helpers.TestContext, timeout time.Duration) {
	t.Helper()
	helpers.RequireNoMoreValuesWithMessage(t, e.requestsChannel(), timeout,
		"did not expect another request to %q (%s), but got one", e.description, e.basePath)
}

func (e *MockEndpoint) requestsChannel() <-chan IncomingRequestInfo {
	e.lock.Lock()
	defer e.lock.Unlock()
	if e.requests == nil {
		closed := make(chan IncomingRequestInfo)
		close(closed)
		return closed
	}
	return e.requests
}

// Close unregisters the endpoint. Any subsequent requests to it will receive 404 errors.
// It also cancels the Context for every active request to that endpoint.
func (e *MockEndpoint) Close() {
	e.closing.Do(func() {
		e.logger.Printf("Closing endpoint %q (%s)", e.description, e.basePath)
		e.owner.lock.Lock()
		delete(e.owner.endpoints, e.id)
		e.owner.lock.Unlock()

		e.lock.Lock()
		cancellers := maps.Values(e.cancels)
		e.cancels = make(map[int]context.CancelFunc)
		close(e.requests)
		e.requests = nil
		e.lock.Unlock()

		for _, cancel := range cancellers {
			cancel()
		}
	})
}

// wrappedResponseWriter lets us see the status written by the handler, so we can add some
// debug logging for 404 and 405 statuses. It passes Flush and Hijack through, the latter
// being needed for websocket upgrades.
type wrappedResponseWriter struct {
	w      http.ResponseWriter
	status int
}

func (ww *wrappedResponseWriter) Header() http.Header { return ww.w.Header() }

func (ww *wrappedResponseWriter) WriteHeader(status int) {
	ww.status = status
	ww.w.WriteHeader(status)
}

func (ww *wrappedResponseWriter) Write(data []byte) (int, error) { return ww.w.Write(data) }

func (ww *wrappedResponseWriter) Flush() {
	if f, ok := ww.w.(http.Flusher); ok {
		f.Flush()
	}
}

func (ww *wrappedResponseWriter) Hijack() (net.Conn, *bufio.ReadWriter, error) {
	if h, ok := ww.w.(http.Hijacker); ok {
		ww.status = http.StatusSwitchingProtocols
		return h.Hijack()
	}
	return nil, nil, errors.New("underlying ResponseWriter does not support hijacking")
}
