package apitest

import (
	"bytes"
	"fmt"
	"testing"

	"github.com/ledgerkit/api-test-harness/framework"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRegexFilters(t *testing.T) {
	for _, p := range []struct {
		run         []string
		skip        []string
		testID      TestID
		shouldMatch bool
	}{
		// matches everything by default
		{nil, nil, TestID(nil), true},
		{nil, nil, TestID{"a", "b"}, true},

		// -run with one component
		{[]string{"a"}, nil, TestID(nil), true},
		{[]string{"a"}, nil, TestID{"a"}, true},
		{[]string{"a"}, nil, TestID{"b"}, false},
		{[]string{"a"}, nil, TestID{"xax"}, true},
		{[]string{"a"}, nil, TestID{"a", "b"}, true},

		// -run with several components
		{[]string{"a/b"}, nil, TestID{"a"}, true},
		{[]string{"a/b"}, nil, TestID{"b"}, false},
		{[]string{"a/b"}, nil, TestID{"a", "b"}, true},
		{[]string{"a/b"}, nil, TestID{"a", "c"}, false},

		// several -run patterns
		{[]string{"a", "b"}, nil, TestID{"b"}, true},
		{[]string{"a", "b"}, nil, TestID{"c"}, false},

		// -skip with one component
		{nil, []string{"a"}, TestID(nil), true},
		{nil, []string{"a"}, TestID{"a"}, false},
		{nil, []string{"a"}, TestID{"b"}, true},
		{nil, []string{"a"}, TestID{"a", "b"}, false},

		// -skip with several components does not exclude the parent
		{nil, []string{"a/b"}, TestID{"a"}, true},
		{nil, []string{"a/b"}, TestID{"a", "b"}, false},
		{nil, []string{"a/b"}, TestID{"a", "b", "c"}, false},
		{nil, []string{"a/b"}, TestID{"a", "c"}, true},

		// -skip overrides -run
		{[]string{"y"}, []string{"n"}, TestID{"y"}, true},
		{[]string{"y"}, []string{"n"}, TestID{"yn"}, false},
	} {
		var r RegexFilters
		for _, s := range p.run {
			require.NoError(t, r.MustMatch.Set(s))
		}
		for _, s := range p.skip {
			require.NoError(t, r.MustNotMatch.Set(s))
		}
		t.Run(fmt.Sprintf("run=%s, skip=%s, id=%s", r.MustMatch, r.MustNotMatch, p.testID), func(t *testing.T) {
			assert.Equal(t, p.shouldMatch, r.Match(p.testID))
		})
	}
}

func TestInvalidPattern(t *testing.T) {
	var l TestIDPatternList
	assert.Error(t, l.Set("a/(b"))
	assert.False(t, l.IsDefined())
}

func TestAddExactID(t *testing.T) {
	var r RegexFilters
	require.NoError(t, r.MustNotMatch.AddExactID("GetFee/cushion (1.2)"))

	assert.False(t, r.Match(TestID{"GetFee", "cushion (1.2)"}))
	assert.False(t, r.Match(TestID{"GetFee", "cushion (1.2)", "sub"}))
	assert.True(t, r.Match(TestID{"GetFee", "cushion (1.2) extra"}))
	assert.True(t, r.Match(TestID{"GetFee"}))
}

func TestFilterFunc(t *testing.T) {
	f := FilterFunc(func(id TestID) bool { return len(id) < 2 })
	assert.True(t, f.Match(TestID{"a"}))
	assert.False(t, f.Match(TestID{"a", "b"}))
}

func TestRegexFiltersDescribe(t *testing.T) {
	var r RegexFilters
	require.NoError(t, r.MustMatch.Set("GetFee"))
	require.NoError(t, r.MustNotMatch.Set("Submit"))

	var buf bytes.Buffer
	r.Describe(&buf, framework.Capabilities{"GetFee"}, framework.Capabilities{"GetFee", "Submit"})

	out := buf.String()
	assert.Contains(t, out, `skip any not matching "GetFee"`)
	assert.Contains(t, out, `skip any matching "Submit"`)
	assert.Contains(t, out, "does not have these methods:\n  Submit\n")
}

func TestRegexFiltersDescribeNothing(t *testing.T) {
	var buf bytes.Buffer
	RegexFilters{}.Describe(&buf, framework.Capabilities{"GetFee"}, framework.Capabilities{"GetFee"})
	assert.Equal(t, "", buf.String())
}
