package apitests

import (
	"context"
	"encoding/json"

	"github.com/ledgerkit/api-test-harness/data"
	"github.com/ledgerkit/api-test-harness/framework/apitest"
	"github.com/ledgerkit/api-test-harness/ledgerapi"
	"github.com/ledgerkit/api-test-harness/mockledger"

	"github.com/launchdarkly/go-sdk-common/v3/ldvalue"
	m "github.com/launchdarkly/go-test-helpers/v2/matchers"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func getTransactionSuite() TestSuite {
	return TestSuite{
		"payment": func(t *apitest.T, api *ledgerapi.Client, address string) {
			tx, err := api.GetTransaction(context.Background(), data.Constant("TX_HASH"))
			require.NoError(t, err)
			AssertResult(t, tx, expectedResult(t, "responses/getTransaction.yaml"), "getTransaction")

			r := requireCommand(t, MockLedger(t), "tx")
			assert.Equal(t, data.Constant("TX_HASH"), r.Params.GetByKey("transaction").StringValue())
			assert.Equal(t, ldvalue.Bool(false), r.Params.GetByKey("binary"))
		},
		"not a payment": func(t *apitest.T, api *ledgerapi.Client, address string) {
			MockLedger(t).UpdateResult("tx", func(v ldvalue.Value) ldvalue.Value {
				return mockledger.WithProperty(v, "TransactionType", ldvalue.String("AccountSet"))
			})
			tx, err := api.GetTransaction(context.Background(), data.Constant("TX_HASH"))
			require.NoError(t, err)
			assert.Equal(t, "accountSet", tx.Type)
			assert.Nil(t, tx.Specification)
			assert.Equal(t, "tesSUCCESS", tx.Outcome.Result)
		},
		"not found": func(t *apitest.T, api *ledgerapi.Client, address string) {
			e, ok := AssertRejects[*ledgerapi.NotFoundError](t, func() error {
				_, err := api.GetTransaction(context.Background(), data.Constant("NOT_FOUND_TX_HASH"))
				return err
			})
			if ok {
				assert.Equal(t, mockledger.ErrTransactionNotFound, e.Code)
			}
		},
		"invalid id": func(t *apitest.T, api *ledgerapi.Client, address string) {
			AssertRejects[*ledgerapi.ValidationError](t, func() error {
				_, err := api.GetTransaction(context.Background(), "abc")
				return err
			})
			requireNoCommand(t, MockLedger(t), "tx")
		},
	}
}

func xrpPayment(address string) ledgerapi.Payment {
	return ledgerapi.Payment{
		Source:      ledgerapi.PaymentSource{Address: address, MaxAmount: xrp("1")},
		Destination: ledgerapi.PaymentDestination{Address: data.Constant("DESTINATION"), Amount: xrp("1")},
	}
}

func preparePaymentSuite() TestSuite {
	return TestSuite{
		"default": func(t *apitest.T, api *ledgerapi.Client, address string) {
			prepared, err := api.PreparePayment(context.Background(), address, xrpPayment(address), nil)
			require.NoError(t, err)
			AssertResult(t, prepared, expectedResult(t, "responses/preparePayment.yaml"), "prepare")
		},
		"with instructions": func(t *apitest.T, api *ledgerapi.Client, address string) {
			sequence, maxLedgerVersion := uint32(100), uint32(7000000)
			prepared, err := api.PreparePayment(context.Background(), address, xrpPayment(address),
				&ledgerapi.Instructions{Fee: "0.0001", Sequence: &sequence, MaxLedgerVersion: &maxLedgerVersion})
			require.NoError(t, err)

			expected := expectedResult(t, "responses/preparePayment.yaml")
			var txJSON map[string]interface{}
			require.NoError(t, json.Unmarshal([]byte(expected.GetByKey("txJSON").StringValue()), &txJSON))
			txJSON["Fee"] = "100"
			txJSON["Sequence"] = sequence
			txJSON["LastLedgerSequence"] = maxLedgerVersion
			txJSONString, err := json.Marshal(txJSON)
			require.NoError(t, err)

			AssertResult(t, prepared, ldvalue.ObjectBuild().
				Set("txJSON", ldvalue.String(string(txJSONString))).
				Set("instructions", ldvalue.ObjectBuild().
					Set("fee", ldvalue.String("0.0001")).
					Set("sequence", ldvalue.Int(int(sequence))).
					Set("maxLedgerVersion", ldvalue.Int(int(maxLedgerVersion))).
					Build()).
				Build(), "prepare")
			requireNoCommand(t, MockLedger(t), "account_info")
		},
		"ledger offset": func(t *apitest.T, api *ledgerapi.Client, address string) {
			offset := uint32(10)
			prepared, err := api.PreparePayment(context.Background(), address, xrpPayment(address),
				&ledgerapi.Instructions{MaxLedgerVersionOffset: &offset})
			require.NoError(t, err)
			version, err := api.GetLedgerVersion(context.Background())
			require.NoError(t, err)
			assert.Equal(t, version+offset, prepared.Instructions.MaxLedgerVersion)
		},
		"issued currency": func(t *apitest.T, api *ledgerapi.Client, address string) {
			payment := ledgerapi.Payment{
				Source: ledgerapi.PaymentSource{Address: address, MaxAmount: xrp("2")},
				Destination: ledgerapi.PaymentDestination{
					Address: data.Constant("DESTINATION"),
					Amount:  ledgerapi.Amount{Currency: "USD", Value: "10", Counterparty: data.Constant("ISSUER")},
				},
			}
			prepared, err := api.PreparePayment(context.Background(), address, payment, nil)
			require.NoError(t, err)
			expected := expectedResult(t, "responses/preparePayment.yaml")
			AssertResult(t, prepared.Instructions, expected.GetByKey("instructions"), "")

			txJSON := ldvalue.Parse([]byte(prepared.TxJSON))
			m.In(t).Assert(txJSON.GetByKey("Amount"), m.JSONStrEqual(
				`{"currency":"USD","issuer":"`+data.Constant("ISSUER")+`","value":"10"}`))
			assert.Equal(t, "2000000", txJSON.GetByKey("SendMax").StringValue())
		},
		"source must match address": func(t *apitest.T, api *ledgerapi.Client, address string) {
			payment := xrpPayment(data.Constant("DESTINATION"))
			e, ok := AssertRejects[*ledgerapi.ValidationError](t, func() error {
				_, err := api.PreparePayment(context.Background(), address, payment, nil)
				return err
			})
			if ok {
				assert.Equal(t, "source.address", e.Field)
			}
		},
		"too precise XRP amount": func(t *apitest.T, api *ledgerapi.Client, address string) {
			payment := xrpPayment(address)
			payment.Destination.Amount = xrp("0.0000001")
			AssertRejects[*ledgerapi.ValidationError](t, func() error {
				_, err := api.PreparePayment(context.Background(), address, payment, nil)
				return err
			})
		},
		"account not found": func(t *apitest.T, api *ledgerapi.Client, address string) {
			notFound := data.Constant("NOT_FOUND_ADDRESS")
			AssertRejects[*ledgerapi.NotFoundError](t, func() error {
				_, err := api.PreparePayment(context.Background(), notFound, xrpPayment(notFound), nil)
				return err
			})
		},
	}
}

func submitSuite() TestSuite {
	return TestSuite{
		"default": func(t *apitest.T, api *ledgerapi.Client, address string) {
			result, err := api.Submit(context.Background(), data.Constant("TX_BLOB"))
			require.NoError(t, err)
			AssertResult(t, result, expectedResult(t, "responses/submit.yaml"), "submit")

			r := requireCommand(t, MockLedger(t), "submit")
			assert.Equal(t, data.Constant("TX_BLOB"), r.Params.GetByKey("tx_blob").StringValue())
		},
		"rejected by the ledger": func(t *apitest.T, api *ledgerapi.Client, address string) {
			MockLedger(t).UpdateResult("submit", func(v ldvalue.Value) ldvalue.Value {
				v = mockledger.WithProperty(v, "engine_result", ldvalue.String("tefPAST_SEQ"))
				return mockledger.WithProperty(v, "engine_result_message",
					ldvalue.String("This sequence number has already passed."))
			})
			result, err := api.Submit(context.Background(), data.Constant("TX_BLOB"))
			require.NoError(t, err)
			expected := mockledger.WithProperty(expectedResult(t, "responses/submit.yaml"), "resultCode",
				ldvalue.String("tefPAST_SEQ"))
			expected = mockledger.WithProperty(expected, "resultMessage",
				ldvalue.String("This sequence number has already passed."))
			AssertResult(t, result, expected, "submit")
		},
		"invalid blob": func(t *apitest.T, api *ledgerapi.Client, address string) {
			AssertRejects[*ledgerapi.ValidationError](t, func() error {
				_, err := api.Submit(context.Background(), "not hex")
				return err
			})
			requireNoCommand(t, MockLedger(t), "submit")
		},
		"server error": func(t *apitest.T, api *ledgerapi.Client, address string) {
			MockLedger(t).SetError("submit", mockledger.ErrInvalidParams)
			e, ok := AssertRejects[*ledgerapi.RippledError](t, func() error {
				_, err := api.Submit(context.Background(), data.Constant("TX_BLOB"))
				return err
			})
			if ok {
				assert.Equal(t, mockledger.ErrInvalidParams, e.Code)
			}
		},
	}
}

func requestSuite() TestSuite {
	return TestSuite{
		"raw result": func(t *apitest.T, api *ledgerapi.Client, address string) {
			result, err := api.Request(context.Background(), "account_info", map[string]interface{}{
				"account":      address,
				"ledger_index": "validated",
			})
			require.NoError(t, err)
			AssertResult(t, result, expectedResult(t, "rippled/account_info.yaml"), "")
		},
		"unknown command": func(t *apitest.T, api *ledgerapi.Client, address string) {
			e, ok := AssertRejects[*ledgerapi.RippledError](t, func() error {
				_, err := api.Request(context.Background(), "no_such_command", nil)
				return err
			})
			if ok {
				assert.Equal(t, mockledger.ErrUnknownCommand, e.Code)
			}
		},
		"empty command": func(t *apitest.T, api *ledgerapi.Client, address string) {
			AssertRejects[*ledgerapi.ValidationError](t, func() error {
				_, err := api.Request(context.Background(), "", nil)
				return err
			})
		},
	}
}
