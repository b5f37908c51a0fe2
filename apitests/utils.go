package apitests

import (
	"encoding/json"
	"errors"
	"fmt"
	"reflect"

	"github.com/ledgerkit/api-test-harness/framework/apitest"
	"github.com/ledgerkit/api-test-harness/framework/helpers"
	"github.com/ledgerkit/api-test-harness/ledgerapi"
	"github.com/ledgerkit/api-test-harness/schemas"

	"github.com/launchdarkly/go-sdk-common/v3/ldvalue"
	"github.com/stretchr/testify/assert"
	"golang.org/x/exp/slices"
)

const (
	txJSONProperty = "txJSON"
	txJSONObject   = "tx_json"
)

// TestFn is one contract test. It receives a client that is already connected to a mock ledger
// of its own, and the address of an account the mock ledger knows about.
type TestFn func(t *apitest.T, api *ledgerapi.Client, address string)

// TestSuite maps test names to tests.
type TestSuite map[string]TestFn

// SuiteFactory builds a suite when it is looked up.
type SuiteFactory func() TestSuite

// SuiteRegistry maps client method names to their suites.
type SuiteRegistry map[string]SuiteFactory

// TestEntry is one named test in a TestSuiteData.
type TestEntry struct {
	Name string
	Fn   TestFn
}

// TestSuiteData describes the result of looking up the suite for a method. If no suite could
// be loaded, IsMissing is true and Tests is empty.
type TestSuiteData struct {
	Name      string
	Tests     []TestEntry
	IsMissing bool
}

// AssertResult checks a value returned by the client against the expected value, reporting
// any differences as failures of t.
//
// The comparison is of JSON representations. If expected has a non-empty "txJSON" property,
// which holds a transaction serialized as a JSON string, the response must have one too and
// both are parsed and compared as JSON. If expected has a "tx_json" property, the response's
// must be equal to it. All other properties are then compared with those two left out. If
// schemaName is not empty, the response must also validate against that schema.
//
// It returns true if there were no failures.
func AssertResult(t helpers.TestContext, response, expected interface{}, schemaName string) bool {
	t.Helper()
	actualValue, err := toJSONValue(response)
	if err != nil {
		t.Errorf("response cannot be represented as JSON: %s", err)
		return false
	}
	expectedValue, err := toJSONValue(expected)
	if err != nil {
		t.Errorf("expected value cannot be represented as JSON: %s", err)
		return false
	}

	ok := true
	if expectedTx := expectedValue.GetByKey(txJSONProperty); isTruthy(expectedTx) {
		ok = assertTxJSON(t, actualValue.GetByKey(txJSONProperty), expectedTx) && ok
	}
	if expectedTx := expectedValue.GetByKey(txJSONObject); isTruthy(expectedTx) {
		actualTx := actualValue.GetByKey(txJSONObject)
		if !isTruthy(actualTx) {
			t.Errorf("response has no %s", txJSONObject)
			ok = false
		} else {
			ok = assert.JSONEq(t, expectedTx.JSONString(), actualTx.JSONString(), "tx_json must match") && ok
		}
	}
	ok = assert.JSONEq(t, omitTxProperties(expectedValue).JSONString(), omitTxProperties(actualValue).JSONString(),
		"result must match") && ok

	if schemaName != "" {
		if err := schemas.Validate(schemaName, response); err != nil {
			t.Errorf("response does not satisfy schema: %s", err)
			ok = false
		}
	}
	return ok
}

func assertTxJSON(t helpers.TestContext, actual, expected ldvalue.Value) bool {
	t.Helper()
	if !isTruthy(actual) {
		t.Errorf("response has no %s", txJSONProperty)
		return false
	}
	if !expected.IsString() || !actual.IsString() {
		t.Errorf("%s must be a string of serialized JSON", txJSONProperty)
		return false
	}
	if !json.Valid([]byte(expected.StringValue())) || !json.Valid([]byte(actual.StringValue())) {
		t.Errorf("%s is not valid JSON: expected %s, got %s", txJSONProperty, expected.StringValue(),
			actual.StringValue())
		return false
	}
	return assert.JSONEq(t, expected.StringValue(), actual.StringValue(), "txJSON must match")
}

func toJSONValue(v interface{}) (ldvalue.Value, error) {
	if value, ok := v.(ldvalue.Value); ok {
		return value, nil
	}
	data, err := json.Marshal(v)
	if err != nil {
		return ldvalue.Null(), err
	}
	return ldvalue.Parse(data), nil
}

// isTruthy follows the usual loose notion of a value being present: null, false, zero and the
// empty string are not.
func isTruthy(v ldvalue.Value) bool {
	switch v.Type() {
	case ldvalue.NullType:
		return false
	case ldvalue.BoolType:
		return v.BoolValue()
	case ldvalue.NumberType:
		return v.Float64Value() != 0
	case ldvalue.StringType:
		return v.StringValue() != ""
	default:
		return true
	}
}

func omitTxProperties(v ldvalue.Value) ldvalue.Value {
	if v.Type() != ldvalue.ObjectType {
		return v
	}
	b := ldvalue.ObjectBuild()
	for k, prop := range v.AsValueMap().AsMap() {
		if k != txJSONProperty && k != txJSONObject {
			b.Set(k, prop)
		}
	}
	return b.Build()
}

// AssertRejects calls a client operation that is expected to fail, and checks that the error
// it returns is, or wraps, an error of type E. E can be a concrete error type such as
// *ledgerapi.NotFoundError, or an interface such as ledgerapi.Error that several types satisfy.
//
// It returns the matching error, and false if there was a failure.
func AssertRejects[E error](t helpers.TestContext, call func() error) (E, bool) {
	t.Helper()
	var target E
	err := call()
	if err == nil {
		t.Errorf("expected an error to be returned")
		return target, false
	}
	if !errors.As(err, &target) {
		t.Errorf("expected an error of type %s, but got %T: %s", reflect.TypeOf((*E)(nil)).Elem(), err, err)
		return target, false
	}
	return target, true
}

// internalMethodLister is implemented by clients that have exported methods which are not part
// of the API being tested.
type internalMethodLister interface {
	InternalMethods() []string
}

// AllPublicMethods returns the sorted names of the client's public methods. Only exported
// methods are considered; of those, any the client lists in InternalMethods are left out, along
// with InternalMethods itself.
func AllPublicMethods(client interface{}) []string {
	ret := []string{}
	if client == nil {
		return ret
	}
	var internal []string
	if lister, ok := client.(internalMethodLister); ok {
		internal = append(lister.InternalMethods(), "InternalMethods")
	}
	clientType := reflect.TypeOf(client)
	for i := 0; i < clientType.NumMethod(); i++ {
		method := clientType.Method(i)
		if method.IsExported() && !slices.Contains(internal, method.Name) {
			ret = append(ret, method.Name)
		}
	}
	slices.Sort(ret)
	return ret
}

// LoadTestSuite looks up a method's suite in the built-in registry.
func LoadTestSuite(methodName string) TestSuiteData {
	return DefaultSuites().Load(methodName)
}

// Load looks up the suite for a method. If there is none, or it cannot be built, the result
// is marked as missing; the failure is not reported any other way. A suite that exists but has
// no tests is not missing. Tests are sorted by name.
func (r SuiteRegistry) Load(methodName string) (data TestSuiteData) {
	missing := TestSuiteData{Name: methodName, Tests: []TestEntry{}, IsMissing: true}
	factory := r[methodName]
	if factory == nil {
		return missing
	}
	defer func() {
		if recover() != nil {
			data = missing
		}
	}()
	suite := factory()
	tests := make([]TestEntry, 0, len(suite))
	for _, name := range helpers.SortedKeys(suite) {
		tests = append(tests, TestEntry{Name: name, Fn: suite[name]})
	}
	return TestSuiteData{Name: methodName, Tests: tests}
}

// Names returns the method names that have a registered suite.
func (r SuiteRegistry) Names() []string {
	return helpers.SortedKeys(r)
}

func (d TestSuiteData) String() string {
	if d.IsMissing {
		return fmt.Sprintf("%s (missing)", d.Name)
	}
	return fmt.Sprintf("%s (%d tests)", d.Name, len(d.Tests))
}
