package harness

import (
	"bytes"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/ledgerkit/api-test-harness/framework"
	"github.com/ledgerkit/api-test-harness/framework/helpers"

	"github.com/launchdarkly/go-test-helpers/v2/httphelpers"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMockEndpointServesRequest(t *testing.T) {
	m := newMockEndpointsManager("http://testharness:9999", framework.NullLogger())

	e1 := m.newMockEndpoint(httphelpers.HandlerWithStatus(200), nil)
	assert.Equal(t, "http://testharness:9999/endpoints/1", e1.BaseURL())

	e2 := m.newMockEndpoint(httphelpers.HandlerWithStatus(204), nil)
	assert.Equal(t, "http://testharness:9999/endpoints/2", e2.BaseURL())

	rr1 := httptest.NewRecorder()
	r1, _ := http.NewRequest("GET", e1.BaseURL(), nil)
	m.serveHTTP(rr1, r1)
	assert.Equal(t, 200, rr1.Code)

	rr2 := httptest.NewRecorder()
	r2, _ := http.NewRequest("GET", e2.BaseURL(), nil)
	m.serveHTTP(rr2, r2)
	assert.Equal(t, 204, rr2.Code)
}

func TestMockEndpointReceivesSubpath(t *testing.T) {
	m := newMockEndpointsManager("http://testharness:9999", framework.NullLogger())

	handler, requests := httphelpers.RecordingHandler(httphelpers.HandlerWithStatus(200))
	e := m.newMockEndpoint(handler, nil)

	for _, subpath := range []string{"", "/", "/ws"} {
		rr := httptest.NewRecorder()
		r, _ := http.NewRequest("GET", e.BaseURL()+subpath, nil)
		m.serveHTTP(rr, r)
		received := <-requests
		if subpath == "" {
			assert.Equal(t, "/", received.Request.URL.Path)
		} else {
			assert.Equal(t, subpath, received.Request.URL.Path)
		}
	}
}

func TestMockEndpointRequestInfo(t *testing.T) {
	m := newMockEndpointsManager("http://testharness:9999", framework.NullLogger())
	e := m.newMockEndpoint(httphelpers.HandlerWithStatus(200), nil, MockEndpointDescription("ledger"))

	_, err := e.AwaitRequest(time.Millisecond * 50)
	assert.Error(t, err)

	rr1 := httptest.NewRecorder()
	r1, _ := http.NewRequest("GET", e.BaseURL(), nil)
	r1.Header.Add("header1", "value1")
	m.serveHTTP(rr1, r1)
	req1, err := e.AwaitRequest(time.Second)
	require.NoError(t, err)
	assert.Equal(t, "GET", req1.Method)
	assert.Nil(t, req1.Body)
	assert.Equal(t, "value1", req1.Headers.Get("header1"))

	rr2 := httptest.NewRecorder()
	r2, _ := http.NewRequest("POST", e.BaseURL(), bytes.NewBufferString(`{"method":"fee"}`))
	m.serveHTTP(rr2, r2)
	req2 := e.RequireRequest(t, time.Second)
	assert.Equal(t, "POST", req2.Method)
	assert.Equal(t, []byte(`{"method":"fee"}`), req2.Body)

	e.RequireNoMoreRequests(t, time.Millisecond*20)
}

func TestMockEndpointHandlerStillSeesBody(t *testing.T) {
	m := newMockEndpointsManager("http://testharness:9999", framework.NullLogger())
	handler, requests := httphelpers.RecordingHandler(httphelpers.HandlerWithStatus(200))
	e := m.newMockEndpoint(handler, nil)

	r, _ := http.NewRequest("POST", e.BaseURL(), bytes.NewBufferString("content"))
	m.serveHTTP(httptest.NewRecorder(), r)
	received := <-requests
	assert.Equal(t, []byte("content"), received.Body)
}

func TestMockEndpointClosed(t *testing.T) {
	m := newMockEndpointsManager("http://testharness:9999", framework.NullLogger())
	e := m.newMockEndpoint(httphelpers.HandlerWithStatus(200), nil)
	e.Close()
	e.Close()

	rr := httptest.NewRecorder()
	r, _ := http.NewRequest("GET", e.BaseURL(), nil)
	m.serveHTTP(rr, r)
	assert.Equal(t, 404, rr.Code)

	recorder := &helpers.TestRecorder{}
	e.RequireRequest(recorder, time.Millisecond*10)
	assert.True(t, recorder.Failed())
}

func TestMockEndpointWebSocketURL(t *testing.T) {
	m := newMockEndpointsManager("http://localhost:8111", framework.NullLogger())
	e := m.newMockEndpoint(httphelpers.HandlerWithStatus(200), nil)
	assert.Equal(t, "ws://localhost:8111/endpoints/1/ws", e.WebSocketURL("/ws"))
}

func TestTestHarnessServesEndpoints(t *testing.T) {
	h, err := NewTestHarness("localhost", 0, framework.NullLogger(), nil)
	require.NoError(t, err)
	defer h.Close() //nolint:errcheck

	assert.NotZero(t, h.Port())
	e := h.NewMockEndpoint(httphelpers.HandlerWithStatus(202), nil)

	resp, err := http.Get(e.BaseURL())
	require.NoError(t, err)
	_ = resp.Body.Close()
	assert.Equal(t, 202, resp.StatusCode)
}
