// Package framework contains the low-level infrastructure of the ledger API test harness that does
// not know anything about ledgers. The base package holds shared types such as Logger and
// Capabilities; the runner is in apitest and the HTTP listener with its mock endpoints is in
// harness.
//
// The general model is:
//
// 1. The harness listens on a local port and can expose any number of mock endpoints. A mock
// ledger server is one such endpoint, and the API client under test is pointed at it.
//
// 2. A test scope (apitest.T) plays the role of Go's testing.T, associating pieces of test logic
// with a test identifier and accumulating success/failure results.
//
// 3. The set of public methods of the client under test is the run's list of capabilities. A
// test that exercises a method the client does not have can be skipped instead of failed.
package framework
