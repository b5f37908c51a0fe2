// Package suppressions reads and writes lists of test IDs: the tests to skip in a run, and the
// tests that failed in one. A list can live in a local file, a Redis list, a Consul key or a
// DynamoDB item, chosen by the URL given on the command line.
package suppressions
