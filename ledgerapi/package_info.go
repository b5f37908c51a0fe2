// Package ledgerapi is a client for rippled-style ledger servers, speaking JSON-RPC over HTTP or
// the websocket command protocol. It is the client whose public methods the harness tests.
//
// Every error returned by the client implements Error, so callers can check for a category with
// errors.As against a concrete type such as *NotFoundError, or against Error to match any of them.
package ledgerapi
