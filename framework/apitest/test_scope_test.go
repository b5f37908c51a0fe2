package apitest

import (
	"testing"

	"github.com/ledgerkit/api-test-harness/framework"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recordingTestLogger struct {
	started  []string
	errors   []string
	finished []string
	skipped  map[string]string
}

func (r *recordingTestLogger) TestStarted(id TestID) { r.started = append(r.started, id.String()) }
func (r *recordingTestLogger) TestError(id TestID, err error) {
	r.errors = append(r.errors, id.String()+": "+err.Error())
}
func (r *recordingTestLogger) TestFinished(id TestID, _ TestResult, _ framework.CapturedOutput) {
	r.finished = append(r.finished, id.String())
}
func (r *recordingTestLogger) TestSkipped(id TestID, reason string) {
	if r.skipped == nil {
		r.skipped = make(map[string]string)
	}
	r.skipped[id.String()] = reason
}
func (r *recordingTestLogger) EndLog(Results) error { return nil }

func TestTestScopeInheritsConfiguration(t *testing.T) {
	myContextValue := "hi"
	myCapabilities := framework.Capabilities{"GetFee", "Submit"}
	config := TestConfiguration{
		Context:      myContextValue,
		Capabilities: myCapabilities,
	}
	_ = Run(config, func(at *T) {
		assert.Equal(t, myContextValue, at.Context())
		assert.Equal(t, myCapabilities, at.Capabilities())

		at.Run("subtest", func(at1 *T) {
			assert.Equal(t, myContextValue, at1.Context())
			assert.Equal(t, myCapabilities, at1.Capabilities())
		})
	})
}

func TestTestScopeExitsImmediatelyOnFailNow(t *testing.T) {
	executed1, executed2, executed3 := false, false, false
	_ = Run(TestConfiguration{}, func(at *T) {
		at.Run("", func(at *T) {
			executed1 = true
			at.FailNow()
			executed2 = true
		})
		executed3 = true
	})
	assert.True(t, executed1)
	assert.False(t, executed2)
	assert.True(t, executed3)
}

func TestTestScopeExitsImmediatelyOnSkip(t *testing.T) {
	executed1, executed2, executed3 := false, false, false
	_ = Run(TestConfiguration{}, func(at *T) {
		at.Run("", func(at *T) {
			executed1 = true
			at.Skip()
			executed2 = true
		})
		executed3 = true
	})
	assert.True(t, executed1)
	assert.False(t, executed2)
	assert.True(t, executed3)
}

func TestTestScopePassedResult(t *testing.T) {
	result := Run(TestConfiguration{}, func(at *T) {
		at.Run("parent", func(at0 *T) {
			at0.Run("subtest1", func(*T) {})
			at0.Run("subtest2", func(*T) {})
		})
	})

	assert.True(t, result.OK())
	require.Len(t, result.Tests, 4)
	assert.Len(t, result.Failures, 0)

	assert.Equal(t, TestID{"parent", "subtest1"}, result.Tests[0].TestID)
	assert.Equal(t, TestID{"parent", "subtest2"}, result.Tests[1].TestID)
	assert.Equal(t, TestID{"parent"}, result.Tests[2].TestID)
	assert.Nil(t, result.Tests[3].TestID)
	for _, r := range result.Tests {
		assert.Len(t, r.Errors, 0)
	}
}

func TestTestScopeFailedResult(t *testing.T) {
	result := Run(TestConfiguration{}, func(at *T) {
		at.Run("parent", func(at0 *T) {
			at0.Run("subtest1", func(*T) {})
			at0.Run("subtest2", func(at2 *T) {
				at2.Errorf("failed because %s", "reasons")
				at2.Errorf("and failed some more")
			})
			at0.Errorf("and parent failed")
		})
	})

	assert.False(t, result.OK())
	require.Len(t, result.Tests, 4)
	assert.Len(t, result.Failures, 2)

	assert.Len(t, result.Tests[0].Errors, 0)

	assert.Equal(t, TestID{"parent", "subtest2"}, result.Tests[1].TestID)
	require.Len(t, result.Tests[1].Errors, 2)
	assert.Equal(t, "failed because reasons", result.Tests[1].Errors[0].Error())
	assert.Equal(t, "and failed some more", result.Tests[1].Errors[1].Error())

	assert.Equal(t, TestID{"parent"}, result.Tests[2].TestID)
	require.Len(t, result.Tests[2].Errors, 1)
	assert.Equal(t, "and parent failed", result.Tests[2].Errors[0].Error())
}

func TestTestScopeFailNowWithoutMessage(t *testing.T) {
	result := Run(TestConfiguration{}, func(at *T) {
		at.Run("quiet", func(at1 *T) { at1.FailNow() })
	})

	require.Len(t, result.Failures, 1)
	require.Len(t, result.Failures[0].Errors, 1)
	assert.Equal(t, "test failed with no failure message", result.Failures[0].Errors[0].Error())
}

func TestTestScopeRecoversFromPanic(t *testing.T) {
	result := Run(TestConfiguration{}, func(at *T) {
		at.Run("boom", func(*T) { panic("oops") })
	})

	require.Len(t, result.Failures, 1)
	assert.Contains(t, result.Failures[0].Errors[0].Error(), "unexpected panic in test: oops")
}

func TestTestScopeNonCriticalFailure(t *testing.T) {
	result := Run(TestConfiguration{}, func(at *T) {
		at.Run("flaky", func(at1 *T) {
			at1.NonCritical("known rounding difference")
			at1.Errorf("bad")
		})
	})

	assert.True(t, result.OK())
	require.Len(t, result.NonCriticalFailures, 1)
	assert.True(t, result.NonCriticalFailures[0].NonCritical)
	assert.Equal(t, "known rounding difference", result.NonCriticalFailures[0].Explanation)
}

func TestTestScopeSkippedResult(t *testing.T) {
	logger := &recordingTestLogger{}
	result := Run(TestConfiguration{TestLogger: logger}, func(at *T) {
		at.Run("parent", func(at0 *T) {
			at0.Run("subtest1", func(at1 *T) { at1.Skip() })
			at0.Run("subtest2", func(at2 *T) { at2.SkipWithReason("why not") })
		})
	})

	assert.True(t, result.OK())
	require.Len(t, result.Tests, 2)
	assert.Equal(t, TestID{"parent"}, result.Tests[0].TestID)
	assert.Nil(t, result.Tests[1].TestID)
	assert.Equal(t, []TestID{{"parent", "subtest1"}, {"parent", "subtest2"}}, result.Skipped)

	assert.Equal(t, map[string]string{"parent/subtest1": "", "parent/subtest2": "why not"}, logger.skipped)
	assert.Equal(t, []string{"parent"}, logger.finished)
}

func TestTestScopeRequireCapability(t *testing.T) {
	logger := &recordingTestLogger{}
	result := Run(TestConfiguration{TestLogger: logger, Capabilities: framework.Capabilities{"GetFee"}},
		func(at *T) {
			at.Run("has", func(at1 *T) { at1.RequireCapability("GetFee") })
			at.Run("lacks", func(at1 *T) { at1.RequireCapability("Submit") })
		})

	assert.Equal(t, []TestID{{"lacks"}}, result.Skipped)
	assert.Equal(t, `client under test does not have capability "Submit"`, logger.skipped["lacks"])
}

func TestTestScopeDeferRunsInReverseOrder(t *testing.T) {
	var order []int
	_ = Run(TestConfiguration{}, func(at *T) {
		at.Run("cleanup", func(at1 *T) {
			at1.Defer(func() { order = append(order, 1) })
			at1.Defer(func() { order = append(order, 2) })
			at1.FailNow()
		})
	})
	assert.Equal(t, []int{2, 1}, order)
}

func TestTestScopeDebugOutputGoesToSubtest(t *testing.T) {
	var parentOutput, childOutput framework.CapturedOutput
	logger := &outputTestLogger{outputs: make(map[string]framework.CapturedOutput)}
	_ = Run(TestConfiguration{TestLogger: logger}, func(at *T) {
		at.Run("parent", func(at0 *T) {
			at0.Debug("setup")
			parentLogger := at0.DebugLogger()
			at0.Run("child", func(at1 *T) {
				parentLogger.Printf("from parent while child runs")
				at1.Debug("from child")
			})
		})
	})
	parentOutput = logger.outputs["parent"]
	childOutput = logger.outputs["parent/child"]

	assert.Equal(t, []string{"setup"}, capturedMessages(parentOutput))
	assert.Equal(t, []string{"setup", "from parent while child runs", "from child"}, capturedMessages(childOutput))
}

func TestTestScopeFilter(t *testing.T) {
	filter := FilterFunc(func(id TestID) bool {
		return len(id) == 0 || id[0] == "b"
	})

	result := Run(TestConfiguration{Filter: filter}, func(at *T) {
		at.Run("a", func(at0 *T) {
			at0.Run("sub1a", func(*T) {})
			at0.Run("sub2a", func(*T) {})
		})
		at.Run("b", func(at0 *T) {
			at0.Run("sub1b", func(*T) {})
			at0.Run("sub2b", func(*T) {})
		})
	})

	assert.True(t, result.OK())
	require.Len(t, result.Tests, 4)
	assert.Equal(t, TestID{"b", "sub1b"}, result.Tests[0].TestID)
	assert.Equal(t, TestID{"b", "sub2b"}, result.Tests[1].TestID)
	assert.Equal(t, TestID{"b"}, result.Tests[2].TestID)
	assert.Equal(t, TestID(nil), result.Tests[3].TestID)
	assert.Equal(t, []TestID{{"a"}}, result.Skipped)
}

type outputTestLogger struct {
	recordingTestLogger
	outputs map[string]framework.CapturedOutput
}

func (o *outputTestLogger) TestFinished(id TestID, _ TestResult, output framework.CapturedOutput) {
	o.outputs[id.String()] = output
}

func capturedMessages(output framework.CapturedOutput) []string {
	var ret []string
	for _, m := range output {
		ret = append(ret, m.Message)
	}
	return ret
}
