package apitests

import (
	"context"
	"fmt"
	"os"
	"sync"
	"time"

	"github.com/ledgerkit/api-test-harness/data"
	"github.com/ledgerkit/api-test-harness/framework"
	"github.com/ledgerkit/api-test-harness/framework/apitest"
	"github.com/ledgerkit/api-test-harness/framework/harness"
	"github.com/ledgerkit/api-test-harness/ledgerapi"
	"github.com/ledgerkit/api-test-harness/mockledger"

	"github.com/stretchr/testify/require"
)

// Transports the client can be tested over.
const (
	TransportHTTP      = "http"
	TransportWebSocket = "ws"
)

// newMethodListingClient builds the client whose method set decides which suites run.
var newMethodListingClient = func() (*ledgerapi.Client, error) { //nolint:gochecknoglobals
	return ledgerapi.NewClient("http://localhost")
}

const (
	defaultClientTimeout = 5 * time.Second
	missingSuiteReason   = "no test suite for this method"
)

// RunConfig holds the options for RunAPITestSuite that do not belong to the framework.
type RunConfig struct {
	// Transport is TransportHTTP or TransportWebSocket. The default is HTTP.
	Transport string

	// Address is the account address passed to every test. The default is the address the
	// mock ledger's fixtures are built around.
	Address string

	// Suites replaces the built-in suite registry.
	Suites SuiteRegistry

	// ClientTimeout is the request timeout of each client. The default is 5 seconds.
	ClientTimeout time.Duration
}

// APITestContext is the apitest.T context value for a run. It gives tests access to the mock
// ledger behind their client.
type APITestContext struct {
	harness *harness.TestHarness
	config  RunConfig
	ledgers map[string]*mockledger.LedgerService
	lock    sync.Mutex
}

// RunAPITestSuite runs the suite of every public method of the client, each test against its
// own mock ledger endpoint served by h. Methods without a suite are reported as skipped.
func RunAPITestSuite(
	h *harness.TestHarness,
	filter apitest.Filter,
	testLogger apitest.TestLogger,
	config RunConfig,
) apitest.Results {
	if config.Transport == "" {
		config.Transport = TransportHTTP
	}
	if config.Address == "" {
		config.Address = data.Constant("ADDRESS")
	}
	if config.Suites == nil {
		config.Suites = DefaultSuites()
	}
	if config.ClientTimeout == 0 {
		config.ClientTimeout = defaultClientTimeout
	}

	var methods framework.Capabilities
	listingClient, listingErr := newMethodListingClient()
	if listingErr == nil {
		methods = AllPublicMethods(listingClient)
	}

	fmt.Printf("Running ledger API test suite over %s\n", config.Transport)
	fmt.Println()
	if sdf, ok := filter.(apitest.SelfDescribingFilter); ok {
		sdf.Describe(os.Stdout, methods, config.Suites.Names())
	}

	testConfig := apitest.TestConfiguration{
		Filter:       filter,
		Capabilities: methods,
		TestLogger:   testLogger,
		Context: &APITestContext{
			harness: h,
			config:  config,
			ledgers: make(map[string]*mockledger.LedgerService),
		},
	}

	return apitest.Run(testConfig, func(t *apitest.T) {
		if listingErr != nil {
			t.Errorf("could not create a client to list its methods: %s", listingErr)
			return
		}
		if len(methods) == 0 {
			t.Errorf("the client under test has no public methods")
			return
		}
		for _, method := range methods {
			runMethodSuite(t, config.Suites.Load(method))
		}
	})
}

func runMethodSuite(t *apitest.T, suite TestSuiteData) {
	if suite.IsMissing {
		t.Run(suite.Name, func(t *apitest.T) {
			t.SkipWithReason(missingSuiteReason)
		})
		return
	}
	t.Run(suite.Name, func(t *apitest.T) {
		for _, test := range suite.Tests {
			fn := test.Fn
			t.Run(test.Name, func(t *apitest.T) {
				api, address := setupAPI(t)
				fn(t, api, address)
			})
		}
	})
}

func testContext(t *apitest.T) *APITestContext {
	return t.Context().(*APITestContext)
}

// setupAPI starts a mock ledger endpoint for the current test, and returns a connected client
// for it. Both are closed when the test ends.
func setupAPI(t *apitest.T) (*ledgerapi.Client, string) {
	c := testContext(t)
	service := mockledger.NewLedgerService(framework.LoggerWithPrefix(t.DebugLogger(), "[ledger] "))
	endpoint := c.harness.NewMockEndpoint(service, t.DebugLogger(), harness.MockEndpointDescription("mock ledger"))
	t.Defer(endpoint.Close)

	key := t.ID().String()
	c.lock.Lock()
	c.ledgers[key] = service
	c.lock.Unlock()
	t.Defer(func() {
		c.lock.Lock()
		delete(c.ledgers, key)
		c.lock.Unlock()
	})

	url := endpoint.BaseURL()
	if c.config.Transport == TransportWebSocket {
		url = endpoint.WebSocketURL("")
	}
	api, err := ledgerapi.NewClient(url,
		ledgerapi.WithTimeout(c.config.ClientTimeout),
		ledgerapi.WithLogger(framework.LoggerWithPrefix(t.DebugLogger(), "[client] ")),
	)
	require.NoError(t, err)
	require.NoError(t, api.Connect(context.Background()))
	t.Defer(func() { _ = api.Disconnect() })
	return api, c.config.Address
}

// MockLedger returns the mock ledger behind the current test's client, for tests that need to
// change its responses. Subtests of a test share its mock ledger.
func MockLedger(t *apitest.T) *mockledger.LedgerService {
	c := testContext(t)
	c.lock.Lock()
	defer c.lock.Unlock()
	for id := t.ID(); len(id) > 0; id = id.Parent() {
		if service := c.ledgers[id.String()]; service != nil {
			return service
		}
	}
	t.Errorf("test %s has no mock ledger", t.ID())
	t.FailNow()
	return nil
}
