package apitest

import (
	"encoding/xml"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testCaseNames(suite jUnitXMLTestSuite) []string {
	ret := make([]string, 0, len(suite.TestCases))
	for _, tc := range suite.TestCases {
		ret = append(ret, tc.Name)
	}
	return ret
}

func testCaseNamed(t *testing.T, suite jUnitXMLTestSuite, name string) jUnitXMLTestCase {
	for _, tc := range suite.TestCases {
		if tc.Name == name {
			return tc
		}
	}
	require.Fail(t, "no test case named "+name)
	return jUnitXMLTestCase{}
}

func TestJUnitTestLoggerWritesSuitesPerTopLevelTest(t *testing.T) {
	path := filepath.Join(t.TempDir(), "junit.xml")
	var filters RegexFilters
	require.NoError(t, filters.MustNotMatch.Set("Submit"))

	logger := NewJUnitTestLogger(path, map[string]string{"ledger.transport": "http"}, filters)
	results := Run(TestConfiguration{TestLogger: logger, Filter: filters}, func(at *T) {
		at.Run("GetFee", func(at0 *T) {
			at0.Run("ok", func(*T) {})
			at0.Run("bad", func(at1 *T) { at1.Errorf("fee mismatch") })
		})
		at.Run("Connect", func(at0 *T) { at0.SkipWithReason("no test suite for this method") })
		at.Run("Submit", func(*T) {})
	})
	require.NoError(t, logger.EndLog(results))

	data, err := os.ReadFile(path)
	require.NoError(t, err)

	var doc jUnitXMLDocument
	require.NoError(t, xml.Unmarshal(data, &doc))
	require.Len(t, doc.Suites, 3)

	fee := doc.Suites[0]
	assert.Equal(t, "Ledger API contract tests: GetFee", fee.Name)
	assert.Equal(t, 3, fee.Tests)
	assert.Equal(t, 1, fee.Failures)
	require.Len(t, fee.TestCases, 3)
	assert.Equal(t, []string{"GetFee", "GetFee/ok", "GetFee/bad"}, testCaseNames(fee))
	bad := testCaseNamed(t, fee, "GetFee/bad")
	require.NotNil(t, bad.Failure)
	assert.Contains(t, bad.Failure.Message, "fee mismatch")
	assert.Nil(t, testCaseNamed(t, fee, "GetFee/ok").Failure)

	assert.Equal(t, []jUnitXMLProperty{
		{Name: "ledger.transport", Value: "http"},
		{Name: "tests.filter.mustMatch", Value: ""},
		{Name: "tests.filter.mustNotMatch", Value: `"Submit"`},
	}, fee.Properties)

	connect := doc.Suites[1]
	assert.Equal(t, 1, connect.Skipped)
	require.NotNil(t, connect.TestCases[0].SkipMessage)
	assert.Equal(t, "no test suite for this method", connect.TestCases[0].SkipMessage.Message)

	submit := doc.Suites[2]
	require.NotNil(t, submit.TestCases[0].SkipMessage)
	assert.Equal(t, "excluded by filter parameters", submit.TestCases[0].SkipMessage.Message)
}

func TestFailureMessagesIncludeStacktrace(t *testing.T) {
	msg := failureMessages([]error{
		errors.New("plain"),
		ErrorWithStacktrace{
			Message:    "with trace",
			Stacktrace: []StacktraceInfo{{FileName: "f.go", Package: "x/y", Function: "Fn", Line: 3}},
		},
	})
	assert.Contains(t, msg, "plain\nwith trace\n  Stacktrace:\n    ")
	assert.Contains(t, msg, "Fn (f.go:3)")
}
