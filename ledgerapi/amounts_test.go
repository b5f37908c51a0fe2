package ledgerapi

import (
	"math/big"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDropsToXRP(t *testing.T) {
	for drops, xrp := range map[string]string{
		"0":                 "0",
		"1":                 "0.000001",
		"12":                "0.000012",
		"1000000":           "1",
		"922913243":         "922.913243",
		"99991024049618156": "99991024049.618156",
	} {
		t.Run(drops, func(t *testing.T) {
			result, err := DropsToXRP(drops)
			require.NoError(t, err)
			assert.Equal(t, xrp, result)
		})
	}

	_, err := DropsToXRP("1.5")
	assert.Error(t, err)
}

func TestXRPToDrops(t *testing.T) {
	for xrp, drops := range map[string]string{
		"0.000012":  "12",
		"1":         "1000000",
		"1.5":       "1500000",
		"0.0000010": "1",
		"2e-6":      "2",
	} {
		t.Run(xrp, func(t *testing.T) {
			result, err := XRPToDrops(xrp)
			require.NoError(t, err)
			assert.Equal(t, drops, result)
		})
	}

	for _, bad := range []string{"", "abc", "0.0000001", "1..2"} {
		t.Run("rejects "+bad, func(t *testing.T) {
			_, err := XRPToDrops(bad)
			var verr *ValidationError
			assert.ErrorAs(t, err, &verr)
		})
	}
}

func TestCeilToDrops(t *testing.T) {
	assert.Equal(t, "0.000012", formatDecimal(ceilToDrops(big.NewRat(12, 1000000))))
	assert.Equal(t, "0.000013", formatDecimal(ceilToDrops(big.NewRat(121, 10000000))))
	assert.Equal(t, "0.000023", formatDecimal(ceilToDrops(big.NewRat(225, 10000000))))
}

func TestValidateAmount(t *testing.T) {
	assert.NoError(t, validateAmount("amount", Amount{Currency: "XRP", Value: "1.5"}))
	assert.NoError(t, validateAmount("amount",
		Amount{Currency: "USD", Value: "0.0000001", Counterparty: "rMwjYedjc7qqtKYVLiAccJSmCwih4LnE2q"}))

	for name, a := range map[string]Amount{
		"lowercase currency":      {Currency: "usd", Value: "1", Counterparty: "rMwjYedjc7qqtKYVLiAccJSmCwih4LnE2q"},
		"zero":                    {Currency: "XRP", Value: "0"},
		"negative":                {Currency: "XRP", Value: "-1"},
		"too precise XRP":         {Currency: "XRP", Value: "0.0000001"},
		"XRP with counterparty":   {Currency: "XRP", Value: "1", Counterparty: "rMwjYedjc7qqtKYVLiAccJSmCwih4LnE2q"},
		"issued, no counterparty": {Currency: "USD", Value: "1"},
	} {
		t.Run(name, func(t *testing.T) {
			var verr *ValidationError
			assert.ErrorAs(t, validateAmount("amount", a), &verr)
		})
	}
}

func TestParseRippledAmount(t *testing.T) {
	a, err := parseRippledAmount("tx", []byte(`"1000000"`))
	require.NoError(t, err)
	assert.Equal(t, Amount{Currency: "XRP", Value: "1"}, a)

	a, err = parseRippledAmount("tx", []byte(`{"currency":"USD","issuer":"rIssuer","value":"2.5"}`))
	require.NoError(t, err)
	assert.Equal(t, Amount{Currency: "USD", Value: "2.5", Counterparty: "rIssuer"}, a)

	_, err = parseRippledAmount("tx", []byte(`[]`))
	var ferr *ResponseFormatError
	assert.ErrorAs(t, err, &ferr)
}
