package main

import (
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/ledgerkit/api-test-harness/apitests"
	"github.com/ledgerkit/api-test-harness/framework/apitest"
)

type commandParams struct {
	port           int
	host           string
	filters        apitest.RegexFilters
	transport      string
	address        string
	clientTimeout  time.Duration
	skipFrom       string
	recordFailures string
	debug          bool
	debugAll       bool
	jUnitFile      string
}

func (c *commandParams) Read(args []string) bool {
	fs := flag.NewFlagSet("", flag.ExitOnError)
	fs.StringVar(&c.host, "host", "localhost", "external hostname of the test harness")
	fs.IntVar(&c.port, "port", defaultPort, "port that the mock ledger endpoints will listen on")
	fs.Var(&c.filters.MustMatch, "run", "regex pattern(s) to select tests to run")
	fs.Var(&c.filters.MustNotMatch, "skip", "regex pattern(s) to select tests not to run")
	fs.StringVar(&c.transport, "transport", apitests.TransportHTTP, "client transport: http or ws")
	fs.StringVar(&c.address, "address", "", "account address passed to the tests (default: fixture address)")
	fs.DurationVar(&c.clientTimeout, "client-timeout", 0, "request timeout of the client under test")
	fs.StringVar(&c.skipFrom, "skip-from", "", "file or store URL listing test IDs not to run")
	fs.StringVar(&c.recordFailures, "record-failures", "", "file or store URL to write failed test IDs to")
	fs.BoolVar(&c.debug, "debug", false, "enable debug logging for failed tests")
	fs.BoolVar(&c.debugAll, "debug-all", false, "enable debug logging for all tests")
	fs.StringVar(&c.jUnitFile, "junit", "", "write JUnit XML output to the specified path")

	if err := fs.Parse(args[1:]); err != nil {
		fmt.Fprintln(os.Stderr, err)
		fs.Usage()
		return false
	}
	if c.transport != apitests.TransportHTTP && c.transport != apitests.TransportWebSocket {
		fmt.Fprintf(os.Stderr, "-transport must be %q or %q\n", apitests.TransportHTTP, apitests.TransportWebSocket)
		fs.Usage()
		return false
	}
	return true
}
