package runner

import (
	"context"
	"errors"
	"testing"
)

// countingTask completes after n RunStep calls.
type countingTask struct {
	name      string
	remaining int
	total     int
	finished  bool
	finishErr error
}

func (c *countingTask) Name() string { return c.name }

func (c *countingTask) RunStep() bool {
	c.remaining--
	return c.remaining <= 0
}

func (c *countingTask) Finish() error {
	c.finished = true
	return c.finishErr
}

func (c *countingTask) Progress() float64 {
	if c.total == 0 {
		return 1
	}
	return float64(c.total-c.remaining) / float64(c.total)
}

func TestRunnerTicksLIFOAndFinishesEachTask(t *testing.T) {
	r := New()
	mapping := &countingTask{name: "mapping", remaining: 2, total: 2}
	solver := &countingTask{name: "solver", remaining: 1, total: 1}
	r.Push(mapping)
	r.Push(solver)

	r.Run(context.Background())

	if !solver.finished || !mapping.finished {
		t.Fatalf("expected both tasks finished: solver=%v mapping=%v", solver.finished, mapping.finished)
	}
	if r.Len() != 0 {
		t.Fatalf("expected empty stack, got %d", r.Len())
	}
}

func TestRunnerCollectsErrorsWithoutAbortingSiblings(t *testing.T) {
	r := New()
	bad := &countingTask{name: "bad", remaining: 1, total: 1, finishErr: errors.New("write failed")}
	good := &countingTask{name: "good", remaining: 1, total: 1}
	r.Push(bad)
	r.Push(good)

	r.Run(context.Background())

	if !good.finished || !bad.finished {
		t.Fatalf("expected both tasks to finish even though one errored")
	}
	if err := r.Err(); err == nil {
		t.Fatalf("expected aggregate error to be non-nil")
	}
}

func TestRunnerStopsOnCancellation(t *testing.T) {
	r := New()
	r.Push(&countingTask{name: "slow", remaining: 1000000, total: 1000000})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if r.Tick(ctx) {
		t.Fatalf("expected Tick to report false once context is cancelled")
	}
	if r.Len() != 1 {
		t.Fatalf("expected cancelled runner to leave the task queued, not finish it")
	}
}
