// Package apitests contains the contract tests for the ledger API client, one suite per client
// method, and the helpers those suites are written with.
//
// RunAPITestSuite is the entry point: it lists the client's public methods, looks each one up
// in the suite registry, and runs whatever it finds against a fresh mock ledger per test.
package apitests
