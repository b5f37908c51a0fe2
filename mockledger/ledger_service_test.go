package mockledger

import (
	"bytes"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/ledgerkit/api-test-harness/data"

	"github.com/gorilla/websocket"
	"github.com/launchdarkly/go-sdk-common/v3/ldvalue"
	m "github.com/launchdarkly/go-test-helpers/v2/matchers"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func postCommand(t *testing.T, url, body string) ldvalue.Value {
	resp, err := http.Post(url, "application/json", bytes.NewBufferString(body))
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)
	data, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	return ldvalue.Parse(data)
}

func TestJSONRPCReturnsFixtureWithStatus(t *testing.T) {
	s := NewLedgerService(nil)
	server := httptest.NewServer(s)
	defer server.Close()

	resp := postCommand(t, server.URL, `{"method":"ledger_closed","params":[{}]}`)

	expected := WithProperty(data.MustLoadValue("rippled/ledger_closed.yaml"), "status", ldvalue.String("success"))
	m.In(t).Assert(resp, m.JSONEqual(ldvalue.ObjectBuild().Set("result", expected).Build()))

	r := s.RequireRequest(t, time.Second)
	assert.Equal(t, "ledger_closed", r.Command)
	assert.Equal(t, "http", r.Transport)
}

func TestJSONRPCReportsErrorsInsideResult(t *testing.T) {
	s := NewLedgerService(nil)
	server := httptest.NewServer(s)
	defer server.Close()

	body := `{"method":"account_info","params":[{"account":"` + data.Constant("NOT_FOUND_ADDRESS") + `"}]}`
	result := postCommand(t, server.URL, body).GetByKey("result")

	assert.Equal(t, "error", result.GetByKey("status").StringValue())
	assert.Equal(t, ErrAccountNotFound, result.GetByKey("error").StringValue())
	assert.Equal(t, 19, result.GetByKey("error_code").IntValue())
	assert.Equal(t, "Account not found.", result.GetByKey("error_message").StringValue())
}

func TestUnknownCommand(t *testing.T) {
	s := NewLedgerService(nil)
	server := httptest.NewServer(s)
	defer server.Close()

	result := postCommand(t, server.URL, `{"method":"no_such_thing","params":[{}]}`).GetByKey("result")
	assert.Equal(t, ErrUnknownCommand, result.GetByKey("error").StringValue())
}

func TestLedgerOmitsTransactionsUnlessRequested(t *testing.T) {
	s := NewLedgerService(nil)
	server := httptest.NewServer(s)
	defer server.Close()

	without := postCommand(t, server.URL, `{"method":"ledger","params":[{"ledger_index":"validated"}]}`)
	_, found := without.GetByKey("result").GetByKey("ledger").TryGetByKey("transactions")
	assert.False(t, found)

	with := postCommand(t, server.URL, `{"method":"ledger","params":[{"ledger_index":"validated","transactions":true}]}`)
	assert.Equal(t, 1, with.GetByKey("result").GetByKey("ledger").GetByKey("transactions").Count())

	future := postCommand(t, server.URL, `{"method":"ledger","params":[{"ledger_index":99999999}]}`)
	assert.Equal(t, ErrLedgerNotFound, future.GetByKey("result").GetByKey("error").StringValue())
}

func TestSetResultAndSetError(t *testing.T) {
	s := NewLedgerService(nil)
	server := httptest.NewServer(s)
	defer server.Close()

	s.UpdateResult("ledger_closed", func(v ldvalue.Value) ldvalue.Value {
		return WithProperty(v, "ledger_index", ldvalue.Int(100))
	})
	resp := postCommand(t, server.URL, `{"method":"ledger_closed","params":[{}]}`)
	assert.Equal(t, 100, resp.GetByKey("result").GetByKey("ledger_index").IntValue())

	s.SetError("ledger_closed", ErrTooBusy)
	resp = postCommand(t, server.URL, `{"method":"ledger_closed","params":[{}]}`)
	assert.Equal(t, ErrTooBusy, resp.GetByKey("result").GetByKey("error").StringValue())

	s.ClearError("ledger_closed")
	resp = postCommand(t, server.URL, `{"method":"ledger_closed","params":[{}]}`)
	assert.Equal(t, "success", resp.GetByKey("result").GetByKey("status").StringValue())
}

func TestMalformedJSONRPCRequest(t *testing.T) {
	server := httptest.NewServer(NewLedgerService(nil))
	defer server.Close()

	resp, err := http.Post(server.URL, "application/json", bytes.NewBufferString(`{`))
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestWebSocketSession(t *testing.T) {
	s := NewLedgerService(nil)
	server := httptest.NewServer(s)
	defer server.Close()

	conn, _, err := websocket.DefaultDialer.Dial("ws"+strings.TrimPrefix(server.URL, "http"), nil)
	require.NoError(t, err)
	defer conn.Close()

	require.NoError(t, conn.WriteMessage(websocket.TextMessage, []byte(`{"id":1,"command":"ledger_closed"}`)))
	_, message, err := conn.ReadMessage()
	require.NoError(t, err)
	m.In(t).Assert(ldvalue.Parse(message), m.JSONEqual(ldvalue.ObjectBuild().
		Set("id", ldvalue.Int(1)).
		Set("result", data.MustLoadValue("rippled/ledger_closed.yaml")).
		Set("status", ldvalue.String("success")).
		Set("type", ldvalue.String("response")).
		Build()))

	require.NoError(t, conn.WriteMessage(websocket.TextMessage,
		[]byte(`{"id":2,"command":"tx","transaction":"`+data.Constant("NOT_FOUND_TX_HASH")+`"}`)))
	_, message, err = conn.ReadMessage()
	require.NoError(t, err)
	reply := ldvalue.Parse(message)
	assert.Equal(t, 2, reply.GetByKey("id").IntValue())
	assert.Equal(t, "error", reply.GetByKey("status").StringValue())
	assert.Equal(t, ErrTransactionNotFound, reply.GetByKey("error").StringValue())

	first := s.RequireRequest(t, time.Second)
	assert.Equal(t, "ws", first.Transport)
	second := s.RequireRequest(t, time.Second)
	assert.Equal(t, "tx", second.Command)
	assert.Equal(t, data.Constant("NOT_FOUND_TX_HASH"), second.Params.GetByKey("transaction").StringValue())
}

func TestWithPropertyAndWithoutPropertyCopy(t *testing.T) {
	original := ldvalue.ObjectBuild().Set("a", ldvalue.Int(1)).Set("b", ldvalue.Int(2)).Build()

	replaced := WithProperty(original, "a", ldvalue.String("x"))
	assert.Equal(t, `{"a":"x","b":2}`, replaced.JSONString())
	added := WithProperty(original, "c", ldvalue.Bool(true))
	assert.Equal(t, `{"a":1,"b":2,"c":true}`, added.JSONString())
	removed := WithoutProperty(original, "a")
	assert.Equal(t, `{"b":2}`, removed.JSONString())

	assert.Equal(t, `{"a":1,"b":2}`, original.JSONString())
}
