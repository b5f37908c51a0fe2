package mockledger

import (
	"encoding/json"
	"io"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/ledgerkit/api-test-harness/data"
	"github.com/ledgerkit/api-test-harness/framework"
	"github.com/ledgerkit/api-test-harness/framework/helpers"

	"github.com/gorilla/mux"
	"github.com/gorilla/websocket"
	"github.com/launchdarkly/go-sdk-common/v3/ldvalue"
)

// Buffer size for the queue of received commands. The handlers never block on it; if the test
// is not consuming requests and the queue fills up, further requests are not recorded.
const requestsChannelBufferSize = 100

// Error tokens the mock ledger produces on its own.
const (
	ErrAccountNotFound     = "actNotFound"
	ErrInvalidParams       = "invalidParams"
	ErrLedgerNotFound      = "lgrNotFound"
	ErrTooBusy             = "tooBusy"
	ErrTransactionNotFound = "txnNotFound"
	ErrUnknownCommand      = "unknownCmd"
)

// Commands with a fixture in data/data-files/rippled.
var defaultCommands = []string{ //nolint:gochecknoglobals
	"account_info", "account_lines", "ledger", "ledger_closed", "ping", "server_info", "submit", "tx",
}

// ReceivedRequest is one command received by the LedgerService, from either transport.
type ReceivedRequest struct {
	Command   string
	Params    ldvalue.Value
	Transport string
}

// LedgerService is an http.Handler that behaves like a ledger server. POST / is JSON-RPC; a
// GET / with a websocket upgrade opens a websocket session that accepts the same commands.
type LedgerService struct {
	results        map[string]ldvalue.Value
	errorDetails   ldvalue.Value
	forcedErrors   map[string]string
	delay          time.Duration
	requests       chan ReceivedRequest
	handler        http.Handler
	upgrader       websocket.Upgrader
	debugLogger    framework.Logger
	notFoundTx     string
	notFoundAcct   string
	currentVersion int
	lock           sync.RWMutex
}

// NewLedgerService creates a LedgerService that answers every known command with its fixture.
func NewLedgerService(debugLogger framework.Logger) *LedgerService {
	if debugLogger == nil {
		debugLogger = framework.NullLogger()
	}
	s := &LedgerService{
		results:        make(map[string]ldvalue.Value),
		errorDetails:   data.MustLoadValue("rippled/errors.yaml"),
		forcedErrors:   make(map[string]string),
		requests:       make(chan ReceivedRequest, requestsChannelBufferSize),
		debugLogger:    debugLogger,
		notFoundTx:     data.Constant("NOT_FOUND_TX_HASH"),
		notFoundAcct:   data.Constant("NOT_FOUND_ADDRESS"),
		currentVersion: mustAtoi(data.Constant("LEDGER_VERSION")),
	}
	for _, command := range defaultCommands {
		s.results[command] = data.MustLoadValue("rippled/" + command + ".yaml")
	}

	router := mux.NewRouter()
	router.HandleFunc("/", s.serveWebSocket).Methods("GET").Headers("Upgrade", "websocket")
	router.HandleFunc("/", s.serveJSONRPC).Methods("POST")
	s.handler = router
	return s
}

func mustAtoi(s string) int {
	n, err := strconv.Atoi(s)
	if err != nil {
		panic(err)
	}
	return n
}

func (s *LedgerService) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.handler.ServeHTTP(w, r)
}

// SetResult replaces the result returned for a command. A command that had no fixture becomes
// known to the service.
func (s *LedgerService) SetResult(command string, result ldvalue.Value) {
	s.lock.Lock()
	s.results[command] = result
	s.lock.Unlock()
}

// UpdateResult modifies the current result for a command.
func (s *LedgerService) UpdateResult(command string, fn func(ldvalue.Value) ldvalue.Value) {
	s.lock.Lock()
	s.results[command] = fn(s.results[command])
	s.lock.Unlock()
}

// Result returns the current result for a command.
func (s *LedgerService) Result(command string) ldvalue.Value {
	s.lock.RLock()
	defer s.lock.RUnlock()
	return s.results[command]
}

// SetError makes a command fail with the given error token until ClearError is called.
func (s *LedgerService) SetError(command, token string) {
	s.lock.Lock()
	s.forcedErrors[command] = token
	s.lock.Unlock()
}

// ClearError undoes SetError.
func (s *LedgerService) ClearError(command string) {
	s.lock.Lock()
	delete(s.forcedErrors, command)
	s.lock.Unlock()
}

// SetDelay makes every response wait for the given duration, for testing client timeouts.
func (s *LedgerService) SetDelay(delay time.Duration) {
	s.lock.Lock()
	s.delay = delay
	s.lock.Unlock()
}

// Requests returns the queue of received commands.
func (s *LedgerService) Requests() <-chan ReceivedRequest {
	return s.requests
}

// RequireRequest waits for the next command received by the service, failing the test if none
// arrives within the timeout.
func (s *LedgerService) RequireRequest(t helpers.TestContext, timeout time.Duration) ReceivedRequest {
	t.Helper()
	return helpers.RequireValueWithMessage(t, s.requests, timeout, "timed out waiting for ledger request")
}

// WithProperty returns a copy of an object with one property replaced.
func WithProperty(object ldvalue.Value, name string, value ldvalue.Value) ldvalue.Value {
	return ldvalue.ValueMapBuildFromMap(object.AsValueMap()).Set(name, value).Build().AsValue()
}

// WithoutProperty returns a copy of an object with one property removed.
func WithoutProperty(object ldvalue.Value, name string) ldvalue.Value {
	b := ldvalue.ObjectBuild()
	for k, v := range object.AsValueMap().AsMap() {
		if k != name {
			b.Set(k, v)
		}
	}
	return b.Build()
}

func (s *LedgerService) serveJSONRPC(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(r.Body)
	if err != nil {
		w.WriteHeader(http.StatusInternalServerError)
		return
	}
	var rpc struct {
		Method string            `json:"method"`
		Params []json.RawMessage `json:"params"`
	}
	if err := json.Unmarshal(body, &rpc); err != nil || rpc.Method == "" {
		s.debugLogger.Printf("Mock ledger received malformed JSON-RPC request: %s", string(body))
		w.WriteHeader(http.StatusBadRequest)
		return
	}
	params := ldvalue.ObjectBuild().Build()
	if len(rpc.Params) != 0 {
		params = ldvalue.Parse(rpc.Params[0])
	}
	s.debugLogger.Printf("Mock ledger received %s over HTTP: %s", rpc.Method, params.JSONString())

	result, errToken := s.handle(rpc.Method, params, "http")
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(s.renderJSONRPC(result, errToken, params))
}

func (s *LedgerService) serveWebSocket(w http.ResponseWriter, r *http.Request) {
	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.debugLogger.Printf("Mock ledger could not upgrade to websocket: %s", err)
		return
	}
	s.debugLogger.Printf("Mock ledger accepted websocket connection")
	done := make(chan struct{})
	defer close(done)
	go func() {
		select {
		case <-r.Context().Done():
			_ = conn.Close()
		case <-done:
		}
	}()
	for {
		_, message, err := conn.ReadMessage()
		if err != nil {
			s.debugLogger.Printf("Mock ledger websocket connection ended: %s", err)
			_ = conn.Close()
			return
		}
		params := ldvalue.Parse(message)
		id := params.GetByKey("id")
		command := params.GetByKey("command").StringValue()
		params = WithoutProperty(WithoutProperty(params, "id"), "command")
		s.debugLogger.Printf("Mock ledger received %s over websocket: %s", command, params.JSONString())

		result, errToken := s.handle(command, params, "ws")
		if err := conn.WriteMessage(websocket.TextMessage, s.renderWebSocket(id, result, errToken, params)); err != nil {
			s.debugLogger.Printf("Mock ledger could not write websocket response: %s", err)
			_ = conn.Close()
			return
		}
	}
}

// handle produces either a result or an error token for a command.
func (s *LedgerService) handle(command string, params ldvalue.Value, transport string) (ldvalue.Value, string) {
	helpers.NonBlockingSend(s.requests, ReceivedRequest{Command: command, Params: params, Transport: transport})

	s.lock.RLock()
	delay := s.delay
	forced, isForced := s.forcedErrors[command]
	result, known := s.results[command]
	s.lock.RUnlock()

	if delay > 0 {
		time.Sleep(delay)
	}
	if isForced {
		return ldvalue.Null(), forced
	}
	if !known {
		return ldvalue.Null(), ErrUnknownCommand
	}

	switch command {
	case "account_info", "account_lines":
		account := params.GetByKey("account")
		if !account.IsString() {
			return ldvalue.Null(), ErrInvalidParams
		}
		if account.StringValue() == s.notFoundAcct {
			return ldvalue.Null(), ErrAccountNotFound
		}
	case "tx":
		if !params.GetByKey("transaction").IsString() {
			return ldvalue.Null(), ErrInvalidParams
		}
		if params.GetByKey("transaction").StringValue() == s.notFoundTx {
			return ldvalue.Null(), ErrTransactionNotFound
		}
	case "submit":
		if !params.GetByKey("tx_blob").IsString() {
			return ldvalue.Null(), ErrInvalidParams
		}
	case "ledger":
		if index := params.GetByKey("ledger_index"); index.IsNumber() && index.IntValue() > s.currentVersion {
			return ldvalue.Null(), ErrLedgerNotFound
		}
		if !params.GetByKey("transactions").BoolValue() {
			if ledger, ok := result.TryGetByKey("ledger"); ok && ledger.Type() == ldvalue.ObjectType {
				result = WithProperty(result, "ledger", WithoutProperty(ledger, "transactions"))
			}
		}
	}
	return result, ""
}
