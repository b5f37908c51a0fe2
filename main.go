package main

import (
	"context"
	_ "embed" // this is required in order for go:embed to work
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/ledgerkit/api-test-harness/apitests"
	"github.com/ledgerkit/api-test-harness/framework"
	"github.com/ledgerkit/api-test-harness/framework/apitest"
	"github.com/ledgerkit/api-test-harness/framework/harness"
	"github.com/ledgerkit/api-test-harness/suppressions"
)

const defaultPort = 8111
const storeTimeout = time.Second * 10

//go:embed VERSION
var versionString string // comes from the VERSION file which we update for each release

func main() {
	fmt.Printf("api-test-harness v%s\n", strings.TrimSpace(versionString))

	var params commandParams
	if !params.Read(os.Args) {
		os.Exit(1)
	}

	results, err := run(params)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	if !results.OK() {
		os.Exit(1)
	}
}

func run(params commandParams) (*apitest.Results, error) {
	if params.skipFrom != "" {
		if err := loadSuppressions(&params); err != nil {
			return nil, err
		}
	}

	mainDebugLogger := framework.NullLogger()
	if params.debugAll {
		mainDebugLogger = framework.NewStdLogger(os.Stdout)
	}

	h, err := harness.NewTestHarness(params.host, params.port, mainDebugLogger, os.Stdout)
	if err != nil {
		return nil, err
	}
	defer func() { _ = h.Close() }()

	var testLogger apitest.TestLogger
	consoleLogger := apitest.ConsoleTestLogger{
		DebugOutputOnFailure: params.debug || params.debugAll,
		DebugOutputOnSuccess: params.debugAll,
	}
	if params.jUnitFile == "" {
		testLogger = consoleLogger
	} else {
		properties := map[string]string{
			"harnessVersion": strings.TrimSpace(versionString),
			"transport":      params.transport,
		}
		testLogger = apitest.MultiTestLogger{Loggers: []apitest.TestLogger{
			consoleLogger,
			apitest.NewJUnitTestLogger(params.jUnitFile, properties, params.filters),
		}}
	}

	results := apitests.RunAPITestSuite(h, params.filters, testLogger, apitests.RunConfig{
		Transport:     params.transport,
		Address:       params.address,
		ClientTimeout: params.clientTimeout,
	})

	fmt.Println()
	if err := testLogger.EndLog(results); err != nil {
		return nil, fmt.Errorf("error writing log: %w", err)
	}

	if params.recordFailures != "" {
		if err := recordFailures(params.recordFailures, results); err != nil {
			return nil, err
		}
	}

	return &results, nil
}

func loadSuppressions(params *commandParams) error {
	store, err := suppressions.Open(params.skipFrom)
	if err != nil {
		return err
	}
	ctx, cancel := context.WithTimeout(context.Background(), storeTimeout)
	defer cancel()
	ids, err := store.Load(ctx)
	if err != nil {
		return fmt.Errorf("cannot read suppressions from %s: %w", store.Description(), err)
	}
	for _, id := range ids {
		if err := params.filters.MustNotMatch.AddExactID(id); err != nil {
			return fmt.Errorf("cannot parse suppression %q: %w", id, err)
		}
	}
	return nil
}

func recordFailures(location string, results apitest.Results) error {
	store, err := suppressions.Open(location)
	if err != nil {
		return err
	}
	ids := make([]string, 0, len(results.Failures))
	for _, test := range results.Failures {
		ids = append(ids, test.TestID.String())
	}
	ctx, cancel := context.WithTimeout(context.Background(), storeTimeout)
	defer cancel()
	if err := store.Save(ctx, ids); err != nil {
		return fmt.Errorf("cannot record failures to %s: %w", store.Description(), err)
	}
	return nil
}
