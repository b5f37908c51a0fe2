package apitest

import (
	"fmt"
	"io"
	"regexp"
	"strings"

	"github.com/ledgerkit/api-test-harness/framework"
)

// Filter determines whether to run a specific test.
type Filter interface {
	Match(id TestID) bool
}

// FilterFunc adapts a plain function to Filter.
type FilterFunc func(TestID) bool

func (f FilterFunc) Match(id TestID) bool { return f(id) }

// SelfDescribingFilter is a Filter that can explain itself at the start of a run.
type SelfDescribingFilter interface {
	Filter
	Describe(out io.Writer, supportedCapabilities, importantCapabilities framework.Capabilities)
}

// RegexFilters is the filter built from the -run and -skip command-line options.
type RegexFilters struct {
	MustMatch    TestIDPatternList
	MustNotMatch TestIDPatternList
}

// Match returns true if the test should run. A -run pattern shorter than the ID matches its
// prefix, and a pattern longer than the ID also matches so that parent scopes are entered.
func (r RegexFilters) Match(id TestID) bool {
	return (!r.MustMatch.IsDefined() || r.MustMatch.AnyMatch(id, true)) &&
		!r.MustNotMatch.AnyMatch(id, false)
}

// Describe prints the filter criteria and any important capabilities that the client under
// test does not have.
func (r RegexFilters) Describe(
	out io.Writer,
	supportedCapabilities framework.Capabilities,
	importantCapabilities framework.Capabilities,
) {
	if r.MustMatch.IsDefined() || r.MustNotMatch.IsDefined() {
		fmt.Fprintln(out, "Some tests will be skipped based on the filter criteria for this test run:")
		if r.MustMatch.IsDefined() {
			fmt.Fprintf(out, "  skip any not matching %s\n", r.MustMatch)
		}
		if r.MustNotMatch.IsDefined() {
			fmt.Fprintf(out, "  skip any matching %s\n", r.MustNotMatch)
		}
		fmt.Fprintln(out)
	}
	if missing := supportedCapabilities.Missing(importantCapabilities); len(missing) > 0 {
		fmt.Fprintln(out, "Some tests may be skipped because the client under test does not have these methods:")
		fmt.Fprintf(out, "  %s\n", strings.Join(missing, ", "))
		fmt.Fprintln(out)
	}
}

// TestIDPattern is a slash-separated list of regexes, one per TestID component.
type TestIDPattern []*regexp.Regexp

func (p TestIDPattern) Match(id TestID, includeParents bool) bool {
	n := len(p)
	if n > len(id) {
		if !includeParents {
			return false
		}
		n = len(id)
	}
	for i := 0; i < n; i++ {
		if !p[i].MatchString(id[i]) {
			return false
		}
	}
	return true
}

func (p TestIDPattern) String() string {
	ss := make([]string, 0, len(p))
	for _, c := range p {
		ss = append(ss, c.String())
	}
	return strings.Join(ss, "/")
}

// ParseTestIDPattern parses a slash-separated pattern such as "GetFee/.*cushion".
func ParseTestIDPattern(s string) (TestIDPattern, error) {
	parts := strings.Split(s, "/")
	ret := make(TestIDPattern, 0, len(parts))
	for _, part := range parts {
		rx, err := regexp.Compile(part)
		if err != nil {
			return nil, fmt.Errorf("invalid regex: %w", err)
		}
		ret = append(ret, rx)
	}
	return ret, nil
}

// TestIDPatternList is a set of alternative patterns; it implements flag.Value.
type TestIDPatternList []TestIDPattern

func (l TestIDPatternList) String() string {
	ss := make([]string, 0, len(l))
	for _, p := range l {
		ss = append(ss, `"`+p.String()+`"`)
	}
	return strings.Join(ss, " or ")
}

// Set is called by the command line parser.
func (l *TestIDPatternList) Set(value string) error {
	p, err := ParseTestIDPattern(value)
	if err != nil {
		return err
	}
	*l = append(*l, p)
	return nil
}

// AddExactID adds a pattern that matches exactly the given TestID and its subtests. This is how
// entries of a suppression list are turned into -skip patterns.
func (l *TestIDPatternList) AddExactID(id string) error {
	parts := strings.Split(id, "/")
	for i, part := range parts {
		parts[i] = "^" + regexp.QuoteMeta(part) + "$"
	}
	return l.Set(strings.Join(parts, "/"))
}

func (l TestIDPatternList) IsDefined() bool {
	return len(l) != 0
}

func (l TestIDPatternList) AnyMatch(id TestID, includeParents bool) bool {
	for _, p := range l {
		if p.Match(id, includeParents) {
			return true
		}
	}
	return false
}
