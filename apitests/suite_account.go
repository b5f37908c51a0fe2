package apitests

import (
	"context"

	"github.com/ledgerkit/api-test-harness/data"
	"github.com/ledgerkit/api-test-harness/framework/apitest"
	"github.com/ledgerkit/api-test-harness/ledgerapi"
	"github.com/ledgerkit/api-test-harness/mockledger"

	"github.com/launchdarkly/go-sdk-common/v3/ldvalue"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func getAccountInfoSuite() TestSuite {
	return TestSuite{
		"default": func(t *apitest.T, api *ledgerapi.Client, address string) {
			info, err := api.GetAccountInfo(context.Background(), address)
			require.NoError(t, err)
			AssertResult(t, info, expectedResult(t, "responses/getAccountInfo.yaml"), "getAccountInfo")

			r := requireCommand(t, MockLedger(t), "account_info")
			assert.Equal(t, address, r.Params.GetByKey("account").StringValue())
			assert.Equal(t, "validated", r.Params.GetByKey("ledger_index").StringValue())
		},
		"account not found": func(t *apitest.T, api *ledgerapi.Client, address string) {
			e, ok := AssertRejects[*ledgerapi.NotFoundError](t, func() error {
				_, err := api.GetAccountInfo(context.Background(), data.Constant("NOT_FOUND_ADDRESS"))
				return err
			})
			if ok {
				assert.Equal(t, mockledger.ErrAccountNotFound, e.Code)
			}
		},
		"invalid address": func(t *apitest.T, api *ledgerapi.Client, address string) {
			AssertRejects[*ledgerapi.ValidationError](t, func() error {
				_, err := api.GetAccountInfo(context.Background(), "not-an-address")
				return err
			})
			requireNoCommand(t, MockLedger(t), "account_info")
		},
	}
}

func getBalancesSuite() TestSuite {
	return TestSuite{
		"default": func(t *apitest.T, api *ledgerapi.Client, address string) {
			balances, err := api.GetBalances(context.Background(), address)
			require.NoError(t, err)
			AssertResult(t, balances, expectedResult(t, "responses/getBalances.yaml"), "getBalances")
		},
		"no trust lines": func(t *apitest.T, api *ledgerapi.Client, address string) {
			service := MockLedger(t)
			service.SetResult("account_lines",
				mockledger.WithProperty(service.Result("account_lines"), "lines", ldvalue.ArrayOf()))
			balances, err := api.GetBalances(context.Background(), address)
			require.NoError(t, err)
			require.Len(t, balances, 1)
			assert.Equal(t, "XRP", balances[0].Currency)
		},
		"account not found": func(t *apitest.T, api *ledgerapi.Client, address string) {
			AssertRejects[*ledgerapi.NotFoundError](t, func() error {
				_, err := api.GetBalances(context.Background(), data.Constant("NOT_FOUND_ADDRESS"))
				return err
			})
			requireNoCommand(t, MockLedger(t), "account_lines")
		},
		"invalid address": func(t *apitest.T, api *ledgerapi.Client, address string) {
			AssertRejects[ledgerapi.Error](t, func() error {
				_, err := api.GetBalances(context.Background(), "")
				return err
			})
		},
	}
}
