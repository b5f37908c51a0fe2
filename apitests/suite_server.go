package apitests

import (
	"context"
	"strconv"

	"github.com/ledgerkit/api-test-harness/data"
	"github.com/ledgerkit/api-test-harness/framework/apitest"
	"github.com/ledgerkit/api-test-harness/ledgerapi"
	"github.com/ledgerkit/api-test-harness/mockledger"

	"github.com/launchdarkly/go-sdk-common/v3/ldvalue"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func getServerInfoSuite() TestSuite {
	return TestSuite{
		"default": func(t *apitest.T, api *ledgerapi.Client, address string) {
			info, err := api.GetServerInfo(context.Background())
			require.NoError(t, err)
			AssertResult(t, info, expectedResult(t, "responses/getServerInfo.yaml"), "getServerInfo")
		},
		"error": func(t *apitest.T, api *ledgerapi.Client, address string) {
			MockLedger(t).SetError("server_info", mockledger.ErrTooBusy)
			e, ok := AssertRejects[*ledgerapi.RippledError](t, func() error {
				_, err := api.GetServerInfo(context.Background())
				return err
			})
			if ok {
				assert.Equal(t, mockledger.ErrTooBusy, e.Code)
				assert.Equal(t, "server_info", e.Command)
			}
		},
		"no validated ledger": func(t *apitest.T, api *ledgerapi.Client, address string) {
			MockLedger(t).UpdateResult("server_info", func(v ldvalue.Value) ldvalue.Value {
				return mockledger.WithProperty(v, "info",
					mockledger.WithoutProperty(v.GetByKey("info"), "validated_ledger"))
			})
			AssertRejects[*ledgerapi.ResponseFormatError](t, func() error {
				_, err := api.GetServerInfo(context.Background())
				return err
			})
		},
	}
}

func setLoadFactor(service *mockledger.LedgerService, loadFactor ldvalue.Value) {
	service.UpdateResult("server_info", func(v ldvalue.Value) ldvalue.Value {
		return mockledger.WithProperty(v, "info",
			mockledger.WithProperty(v.GetByKey("info"), "load_factor", loadFactor))
	})
}

func getFeeSuite() TestSuite {
	return TestSuite{
		"default": func(t *apitest.T, api *ledgerapi.Client, address string) {
			fee, err := api.GetFee(context.Background())
			require.NoError(t, err)
			AssertResult(t, fee, "0.000012", "getFee")
		},
		"load factor and cushion": func(t *apitest.T, api *ledgerapi.Client, address string) {
			sources, err := data.LoadDataFile("responses/getFee.yaml")
			require.NoError(t, err)
			for _, source := range sources {
				expected, err := source.Value()
				require.NoError(t, err)
				t.Run(source.ParamsString(), func(t *apitest.T) {
					setLoadFactor(MockLedger(t), expected.GetByKey("loadFactor"))
					client := newClientFor(t, api, ledgerapi.WithFeeCushion(expected.GetByKey("cushion").StringValue()))
					fee, err := client.GetFee(context.Background())
					require.NoError(t, err)
					AssertResult(t, fee, expected.GetByKey("fee"), "getFee")
				})
			}
		},
		"capped at max fee": func(t *apitest.T, api *ledgerapi.Client, address string) {
			setLoadFactor(MockLedger(t), ldvalue.Int(1000))
			client := newClientFor(t, api, ledgerapi.WithMaxFeeXRP("0.00001"))
			fee, err := client.GetFee(context.Background())
			require.NoError(t, err)
			AssertResult(t, fee, "0.00001", "getFee")
		},
		"error": func(t *apitest.T, api *ledgerapi.Client, address string) {
			MockLedger(t).SetError("server_info", mockledger.ErrTooBusy)
			AssertRejects[*ledgerapi.RippledError](t, func() error {
				_, err := api.GetFee(context.Background())
				return err
			})
		},
	}
}

func getLedgerVersionSuite() TestSuite {
	return TestSuite{
		"default": func(t *apitest.T, api *ledgerapi.Client, address string) {
			version, err := api.GetLedgerVersion(context.Background())
			require.NoError(t, err)
			expected, err := strconv.Atoi(data.Constant("LEDGER_VERSION"))
			require.NoError(t, err)
			AssertResult(t, version, expected, "getLedgerVersion")
		},
		"error": func(t *apitest.T, api *ledgerapi.Client, address string) {
			MockLedger(t).SetError("ledger_closed", mockledger.ErrTooBusy)
			AssertRejects[ledgerapi.Error](t, func() error {
				_, err := api.GetLedgerVersion(context.Background())
				return err
			})
		},
	}
}

func getLedgerSuite() TestSuite {
	return TestSuite{
		"default": func(t *apitest.T, api *ledgerapi.Client, address string) {
			ledger, err := api.GetLedger(context.Background(), ledgerapi.LedgerOptions{})
			require.NoError(t, err)
			AssertResult(t, ledger, expectedResult(t, "responses/getLedger.yaml"), "getLedger")

			r := requireCommand(t, MockLedger(t), "ledger")
			assert.Equal(t, "validated", r.Params.GetByKey("ledger_index").StringValue())
		},
		"with transactions": func(t *apitest.T, api *ledgerapi.Client, address string) {
			ledger, err := api.GetLedger(context.Background(), ledgerapi.LedgerOptions{IncludeTransactions: true})
			require.NoError(t, err)
			AssertResult(t, ledger, expectedResult(t, "responses/getLedgerWithTransactions.yaml"), "getLedger")
		},
		"by version": func(t *apitest.T, api *ledgerapi.Client, address string) {
			version, err := strconv.Atoi(data.Constant("LEDGER_VERSION"))
			require.NoError(t, err)
			ledger, err := api.GetLedger(context.Background(), ledgerapi.LedgerOptions{LedgerVersion: uint32(version)})
			require.NoError(t, err)
			AssertResult(t, ledger, expectedResult(t, "responses/getLedger.yaml"), "getLedger")

			r := requireCommand(t, MockLedger(t), "ledger")
			assert.Equal(t, version, r.Params.GetByKey("ledger_index").IntValue())
		},
		"ledger not found": func(t *apitest.T, api *ledgerapi.Client, address string) {
			version, err := strconv.Atoi(data.Constant("LEDGER_VERSION"))
			require.NoError(t, err)
			e, ok := AssertRejects[*ledgerapi.NotFoundError](t, func() error {
				_, err := api.GetLedger(context.Background(), ledgerapi.LedgerOptions{LedgerVersion: uint32(version + 1000)})
				return err
			})
			if ok {
				assert.Equal(t, mockledger.ErrLedgerNotFound, e.Code)
			}
		},
	}
}
