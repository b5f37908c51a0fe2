// Package internal contains test helpers for apitest. They live in their own package so that
// stacktrace filtering can be observed from outside apitest.
package internal

// RunAction calls action. It exists to put a non-apitest frame on the stack in unit tests.
func RunAction(action func()) {
	action()
}
