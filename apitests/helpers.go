package apitests

import (
	"context"
	"time"

	"github.com/ledgerkit/api-test-harness/data"
	"github.com/ledgerkit/api-test-harness/framework/apitest"
	"github.com/ledgerkit/api-test-harness/ledgerapi"
	"github.com/ledgerkit/api-test-harness/mockledger"

	"github.com/launchdarkly/go-sdk-common/v3/ldvalue"
	"github.com/stretchr/testify/require"
)

const requestTimeout = time.Second

// DefaultSuites returns the registry of built-in suites. Connect, Disconnect and IsConnected are
// exercised by every test's setup and have no suite of their own.
func DefaultSuites() SuiteRegistry {
	return SuiteRegistry{
		"GetAccountInfo":   getAccountInfoSuite,
		"GetBalances":      getBalancesSuite,
		"GetFee":           getFeeSuite,
		"GetLedger":        getLedgerSuite,
		"GetLedgerVersion": getLedgerVersionSuite,
		"GetServerInfo":    getServerInfoSuite,
		"GetTransaction":   getTransactionSuite,
		"PreparePayment":   preparePaymentSuite,
		"Request":          requestSuite,
		"Submit":           submitSuite,
	}
}

// expectedResult loads the "value" of a fixture file.
func expectedResult(t *apitest.T, path string) ldvalue.Value {
	v, err := data.LoadValue(path)
	require.NoError(t, err)
	return v
}

// requireCommand waits for the mock ledger to receive the given command, skipping any others
// received before it.
func requireCommand(t *apitest.T, service *mockledger.LedgerService, command string) mockledger.ReceivedRequest {
	t.Helper()
	for {
		r := service.RequireRequest(t, requestTimeout)
		if r.Command == command {
			return r
		}
	}
}

// requireNoCommand checks that the mock ledger has not received the given command.
func requireNoCommand(t *apitest.T, service *mockledger.LedgerService, command string) {
	t.Helper()
	for {
		select {
		case r := <-service.Requests():
			if r.Command == command {
				t.Errorf("did not expect a %q request, but got one with params %s", command, r.Params.JSONString())
			}
		default:
			return
		}
	}
}

// newClientFor creates another connected client for the current test's mock ledger, with
// different options.
func newClientFor(t *apitest.T, api *ledgerapi.Client, options ...ledgerapi.Option) *ledgerapi.Client {
	client, err := ledgerapi.NewClient(api.URL(), append(
		[]ledgerapi.Option{ledgerapi.WithLogger(t.DebugLogger())}, options...)...)
	require.NoError(t, err)
	require.NoError(t, client.Connect(context.Background()))
	t.Defer(func() { _ = client.Disconnect() })
	return client
}

func xrp(value string) ledgerapi.Amount {
	return ledgerapi.Amount{Currency: "XRP", Value: value}
}
