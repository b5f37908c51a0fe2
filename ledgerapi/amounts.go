package ledgerapi

import (
	"encoding/json"
	"fmt"
	"math/big"
	"regexp"
	"strings"
)

const (
	dropsPerXRP     = 1000000
	xrpCurrencyCode = "XRP"
)

var (
	decimalPattern  = regexp.MustCompile(`^-?([0-9]+|[0-9]*\.[0-9]+)([eE][+-]?[0-9]+)?$`) //nolint:gochecknoglobals
	currencyPattern = regexp.MustCompile(`^([A-Z0-9]{3}|[0-9A-F]{40})$`)                  //nolint:gochecknoglobals
	dropsPerXRPRat  = big.NewRat(dropsPerXRP, 1)                                          //nolint:gochecknoglobals
)

// Amount is a quantity of XRP or of an issued currency. Counterparty is empty for XRP.
type Amount struct {
	Currency     string `json:"currency"`
	Value        string `json:"value"`
	Counterparty string `json:"counterparty,omitempty"`
}

// IsXRP is true for the native currency.
func (a Amount) IsXRP() bool {
	return a.Currency == xrpCurrencyCode
}

func parseDecimal(s string) (*big.Rat, bool) {
	if !decimalPattern.MatchString(s) {
		return nil, false
	}
	return new(big.Rat).SetString(s)
}

// formatDecimal renders an exact value with no trailing zeros and no exponent.
func formatDecimal(r *big.Rat) string {
	if r.IsInt() {
		return r.Num().String()
	}
	s := r.FloatString(20)
	s = strings.TrimRight(s, "0")
	return strings.TrimSuffix(s, ".")
}

// ceilToDrops rounds a positive XRP value up to a whole number of drops.
func ceilToDrops(xrp *big.Rat) *big.Rat {
	drops := new(big.Rat).Mul(xrp, dropsPerXRPRat)
	q, m := new(big.Int).QuoRem(drops.Num(), drops.Denom(), new(big.Int))
	if m.Sign() > 0 {
		q.Add(q, big.NewInt(1))
	}
	return new(big.Rat).Quo(new(big.Rat).SetInt(q), dropsPerXRPRat)
}

// DropsToXRP converts an integer number of drops to an XRP decimal string.
func DropsToXRP(drops string) (string, error) {
	n, ok := new(big.Int).SetString(drops, 10)
	if !ok {
		return "", &ValidationError{Field: "drops", Message: fmt.Sprintf("%q is not an integer", drops)}
	}
	return formatDecimal(new(big.Rat).SetFrac(n, big.NewInt(dropsPerXRP))), nil
}

// XRPToDrops converts an XRP decimal string to an integer number of drops. Values with more
// precision than one drop are rejected rather than rounded.
func XRPToDrops(xrp string) (string, error) {
	return xrpToDrops("value", xrp)
}

func xrpToDrops(field, xrp string) (string, error) {
	r, ok := parseDecimal(xrp)
	if !ok {
		return "", &ValidationError{Field: field, Message: fmt.Sprintf("%q is not a decimal number", xrp)}
	}
	drops := new(big.Rat).Mul(r, dropsPerXRPRat)
	if !drops.IsInt() {
		return "", &ValidationError{Field: field, Message: fmt.Sprintf("%q has more than 6 decimal places", xrp)}
	}
	return drops.Num().String(), nil
}

func validateAmount(field string, a Amount) error {
	if !currencyPattern.MatchString(a.Currency) {
		return &ValidationError{Field: field + ".currency", Message: fmt.Sprintf("%q is not a currency code", a.Currency)}
	}
	r, ok := parseDecimal(a.Value)
	if !ok || r.Sign() <= 0 {
		return &ValidationError{Field: field + ".value", Message: fmt.Sprintf("%q is not a positive number", a.Value)}
	}
	if a.IsXRP() {
		if a.Counterparty != "" {
			return &ValidationError{Field: field + ".counterparty", Message: "XRP has no counterparty"}
		}
		_, err := xrpToDrops(field+".value", a.Value)
		return err
	}
	if err := validateAddress(field+".counterparty", a.Counterparty); err != nil {
		return err
	}
	return nil
}

// toRippledAmount is the wire form: a drops string for XRP, an object otherwise.
func toRippledAmount(a Amount) (interface{}, error) {
	if a.IsXRP() {
		drops, err := XRPToDrops(a.Value)
		if err != nil {
			return nil, err
		}
		return drops, nil
	}
	return map[string]string{"currency": a.Currency, "issuer": a.Counterparty, "value": a.Value}, nil
}

func parseRippledAmount(command string, raw json.RawMessage) (Amount, error) {
	var drops string
	if err := json.Unmarshal(raw, &drops); err == nil {
		xrp, err := DropsToXRP(drops)
		if err != nil {
			return Amount{}, &ResponseFormatError{Command: command, Message: err.Error(), Data: string(raw)}
		}
		return Amount{Currency: xrpCurrencyCode, Value: xrp}, nil
	}
	var issued struct {
		Currency string `json:"currency"`
		Issuer   string `json:"issuer"`
		Value    string `json:"value"`
	}
	if err := json.Unmarshal(raw, &issued); err != nil || issued.Currency == "" {
		return Amount{}, &ResponseFormatError{Command: command, Message: "unrecognized amount", Data: string(raw)}
	}
	return Amount{Currency: issued.Currency, Value: issued.Value, Counterparty: issued.Issuer}, nil
}
