package helpers

import (
	"errors"
	"fmt"
	"strings"
)

// TestContext is a minimal interface for types like *testing.T and *apitest.T representing a
// test that can fail. Functions can use this to avoid specific dependencies on those packages.
// It is also compatible with the TestingT interfaces of testify and go-test-helpers/matchers.
type TestContext interface {
	Errorf(msgFormat string, msgArgs ...interface{})
	FailNow()
	Helper()
}

// TestRecorder is a stub implementation of TestContext that records failures instead of
// reporting them, so that assertion helpers can be tested for the failures they produce.
type TestRecorder struct {
	Errors     []string
	Terminated bool

	// PanicOnTerminate makes FailNow panic with the recorder itself, the way apitest.T does,
	// so that code after a failed "require" is never reached.
	PanicOnTerminate bool
}

func (r *TestRecorder) Errorf(msgFormat string, msgArgs ...interface{}) {
	r.Errors = append(r.Errors, fmt.Sprintf(msgFormat, msgArgs...))
}

func (r *TestRecorder) FailNow() {
	r.Terminated = true
	if r.PanicOnTerminate {
		panic(r)
	}
}

func (r *TestRecorder) Helper() {}

// Failed returns true if anything was recorded.
func (r *TestRecorder) Failed() bool {
	return len(r.Errors) != 0 || r.Terminated
}

// Err returns all recorded failure messages joined into one error, or nil if there were none.
func (r *TestRecorder) Err() error {
	if len(r.Errors) == 0 {
		return nil
	}
	return errors.New(strings.Join(r.Errors, ", "))
}

// Run calls action with the recorder, absorbing the panic from FailNow if PanicOnTerminate is set.
func (r *TestRecorder) Run(action func(TestContext)) {
	defer func() {
		if p := recover(); p != nil && p != r { //nolint:errorlint
			panic(p)
		}
	}()
	action(r)
}
