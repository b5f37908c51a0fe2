// Package apitest contains a test runner that is similar to Go's testing package, but runs as
// regular application code rather than under "go test". It adds configurable filtering, captured
// per-test debug output, non-critical failures, and console/JUnit result reporting.
package apitest
