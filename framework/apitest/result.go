package apitest

import (
	"fmt"
	"strings"
)

// Results is the outcome of a whole test run.
type Results struct {
	Tests               []TestResult
	Failures            []TestResult
	NonCriticalFailures []TestResult
	Skipped             []TestID
}

// TestResult is the outcome of one test scope.
type TestResult struct {
	TestID      TestID
	Errors      []error
	NonCritical bool
	Explanation string
}

// OK returns true if there were no failures other than non-critical ones.
func (r Results) OK() bool {
	return len(r.Failures) == 0
}

// TestID is the path of names from the root scope to a test.
type TestID []string

func (t TestID) String() string {
	return strings.Join(t, "/")
}

// Plus returns a new TestID with name appended; the original is not modified.
func (t TestID) Plus(name string) TestID {
	return append(append(TestID(nil), t...), name)
}

// Parent returns the TestID of the enclosing scope. The parent of a top-level test is the
// empty TestID; the root (nil) has no parent and returns nil.
func (t TestID) Parent() TestID {
	if len(t) == 0 {
		return nil
	}
	return append(TestID{}, t[:len(t)-1]...)
}

// TestFailure associates an error with the test that produced it.
type TestFailure struct {
	ID  TestID
	Err error
}

func (f TestFailure) Error() string {
	return fmt.Sprintf("[%s]: %s", f.ID, f.Err)
}

func (f TestFailure) Unwrap() error { return f.Err }
