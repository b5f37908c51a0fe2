// Package mockledger simulates a ledger server closely enough for the API client to be tested
// against it. It answers JSON-RPC requests over HTTP and the same commands over a websocket,
// using the fixture data in data/data-files/rippled.
package mockledger
