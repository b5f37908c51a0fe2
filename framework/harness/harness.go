package harness

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"time"

	"github.com/ledgerkit/api-test-harness/framework"
)

const httpListenerTimeout = time.Second * 10

// TestHarness owns the HTTP listener that mock ledger endpoints are served from.
//
// Each test creates its own endpoint (NewMockEndpoint) with its own handler, so tests never
// share server state. The harness contains no ledger-specific logic.
type TestHarness struct {
	mockEndpoints *mockEndpointsManager
	server        *http.Server
	port          int
	logger        framework.Logger
}

// NewTestHarness starts an HTTP listener on the given port and waits until it is accepting
// requests. If port is 0, an available port is chosen; Port reports which one. Endpoint URLs
// are built from externalHostname and the actual port.
func NewTestHarness(
	externalHostname string,
	port int,
	debugLogger framework.Logger,
	startupOutput io.Writer,
) (*TestHarness, error) {
	if debugLogger == nil {
		debugLogger = framework.NullLogger()
	}
	if startupOutput == nil {
		startupOutput = io.Discard
	}

	listener, err := net.Listen("tcp", fmt.Sprintf(":%d", port))
	if err != nil {
		return nil, fmt.Errorf("could not start listener on port %d: %w", port, err)
	}
	actualPort := listener.Addr().(*net.TCPAddr).Port

	h := &TestHarness{
		mockEndpoints: newMockEndpointsManager(fmt.Sprintf("http://%s:%d", externalHostname, actualPort), debugLogger),
		port:          actualPort,
		logger:        debugLogger,
	}
	h.server = &http.Server{
		Handler:           http.HandlerFunc(h.serveHTTP),
		ReadHeaderTimeout: 10 * time.Second, // arbitrary but non-infinite timeout to avoid Slowloris Attack
	}
	go func() {
		if err := h.server.Serve(listener); err != nil && !errors.Is(err, http.ErrServerClosed) {
			debugLogger.Printf("Listener on port %d stopped: %s", actualPort, err)
		}
	}()

	_, _ = fmt.Fprintf(startupOutput, "Mock ledger endpoints listening on port %d\n", actualPort)
	if err := awaitListener(actualPort); err != nil {
		_ = h.Close()
		return nil, err
	}
	return h, nil
}

// Port returns the port the harness is listening on.
func (h *TestHarness) Port() int {
	return h.port
}

// NewMockEndpoint adds a new endpoint that can receive requests.
//
// The specified handler will be called for all incoming requests to the endpoint's
// base URL or any subpath of it. For instance, if the generated base URL (as reported
// by MockEndpoint.BaseURL()) is http://localhost:8111/endpoints/3, then it can also
// receive requests to http://localhost:8111/endpoints/3/ws.
//
// When the handler is called, the harness rewrites the request URL first so that
// the handler sees only the subpath. It also attaches a Context to the request whose
// Done channel will be closed if Close is called on the endpoint.
func (h *TestHarness) NewMockEndpoint(
	handler http.Handler,
	logger framework.Logger,
	options ...MockEndpointOption,
) *MockEndpoint {
	if logger == nil {
		logger = h.logger
	}
	return h.mockEndpoints.newMockEndpoint(handler, logger, options...)
}

// Close stops the listener. Endpoints still open are closed first so that any long-lived
// connections, such as websockets, see their contexts cancelled.
func (h *TestHarness) Close() error {
	h.mockEndpoints.closeAll()
	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	return h.server.Shutdown(ctx)
}

func (h *TestHarness) serveHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method == http.MethodHead {
		w.WriteHeader(http.StatusOK) // we use this to test whether our own listener is active yet
		return
	}
	h.mockEndpoints.serveHTTP(w, r)
}

func awaitListener(port int) error {
	deadline := time.NewTimer(httpListenerTimeout)
	defer deadline.Stop()
	ticker := time.NewTicker(time.Millisecond * 10)
	defer ticker.Stop()
	url := fmt.Sprintf("http://localhost:%d", port)
	for {
		select {
		case <-deadline.C:
			return fmt.Errorf("could not detect own listener at %s", url)
		case <-ticker.C:
			req, _ := http.NewRequest(http.MethodHead, url, nil)
			resp, err := http.DefaultClient.Do(req)
			if err == nil {
				_ = resp.Body.Close()
				return nil
			}
		}
	}
}
