// internal/core/domain/run_test.go
package domain

import (
	"errors"
	"sync"
	"testing"

	"paperflow/internal/testutil"
)

func TestRunContext_PutIsWriteOnce(t *testing.T) {
	c := NewRunContext()

	testutil.AssertNoError(t, c.Put(Succeeded("analyze_paper", "v1")), "first put")
	err := c.Put(Succeeded("analyze_paper", "v2"))
	testutil.AssertTrue(t, errors.Is(err, ErrStageAlreadyStored), "second put rejected")

	got, ok := c.Get("analyze_paper")
	testutil.AssertTrue(t, ok, "stored")
	testutil.AssertEqual(t, got.Content, "v1", "original result kept")
}

func TestRunContext_Snapshot(t *testing.T) {
	c := NewRunContext()
	_ = c.Put(Succeeded("a", 1))
	_ = c.Put(Failed("b", errors.New("boom")))

	prior, missing := c.Snapshot([]string{"a", "b", "c"})
	testutil.AssertEqual(t, len(prior), 2, "two present")
	testutil.AssertDeepEqual(t, missing, []string{"c"}, "missing names")

	// mutating the snapshot does not touch the context
	delete(prior, "a")
	_, ok := c.Get("a")
	testutil.AssertTrue(t, ok, "context unaffected by snapshot mutation")
}

func TestRunContext_OrderAndResults(t *testing.T) {
	c := NewRunContext()
	for _, name := range []string{"x", "y", "z"} {
		_ = c.Put(Succeeded(name, name))
	}

	testutil.AssertDeepEqual(t, c.Order(), []string{"x", "y", "z"}, "write order")
	testutil.AssertEqual(t, len(c.Results()), 3, "results copy")
	testutil.AssertEqual(t, c.Len(), 3, "len")
}

func TestRunContext_ConcurrentPut(t *testing.T) {
	c := NewRunContext()
	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_ = c.Put(Succeeded(string(rune('a'+i%26))+"_stage", i))
		}(i)
	}
	wg.Wait()
	testutil.AssertEqual(t, c.Len(), 26, "one result per unique name")
}

func TestPipelineRun_TransitionIsMonotonic(t *testing.T) {
	run := NewPipelineRun("run-1", NewRunInput("1706.03762"))
	testutil.AssertEqual(t, run.Status, StatusRunning, "starts running")

	testutil.AssertNoError(t, run.Transition(StatusTerminatedEarly), "running to terminated")
	err := run.Transition(StatusCompleted)
	testutil.AssertTrue(t, errors.Is(err, ErrInvalidTransition), "terminal state is final")
	testutil.AssertEqual(t, run.Status, StatusTerminatedEarly, "status unchanged")
}

func TestRunResult_SucceededAndFailed(t *testing.T) {
	r := RunResult{StageResults: map[string]StageResult{
		"b": Succeeded("b", nil),
		"a": Succeeded("a", nil),
		"c": Failed("c", errors.New("x")),
	}}

	testutil.AssertDeepEqual(t, r.Succeeded(), []string{"a", "b"}, "succeeded sorted")
	testutil.AssertDeepEqual(t, r.Failed(), []string{"c"}, "failed")
}
