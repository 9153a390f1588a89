// Package runner owns the bake task queue: a LIFO stack of cooperatively
// preemptible tasks, advanced one bounded work slice per tick. Grounded on
// original_source/Src/meshmapping.cpp's MeshMappingTask{runStep, finish,
// progress} three-method shape, generalized across every task kind.
package runner

import "context"

// Task is one stage of the bake pipeline. RunStep advances the task's
// internal work offset by one slice and reports whether it has completed
// all its work; Finish performs the (potentially blocking) result readback
// and any downstream side effect (e.g. writing an image file); Progress
// reports fractional completion in [0,1]; Name identifies the task for
// error reporting.
type Task interface {
	Name() string
	RunStep() bool
	Finish() error
	Progress() float64
}

// Runner holds an ordered LIFO stack of tasks. On each Tick it advances the
// top task by one slice; when that task reports done, Finish is called and
// it is popped. Per spec.md §4.7, a "mapping" task is always pushed first
// (stack bottom) so every solver pushed above it completes — and reads the
// mapping results it depends on — before mapping itself would be popped
// and released.
type Runner struct {
	stack []Task
	errs  []error
}

// New creates an empty runner.
func New() *Runner {
	return &Runner{}
}

// Push adds a task to the top of the stack.
func (r *Runner) Push(t Task) {
	r.stack = append(r.stack, t)
}

// Len returns the number of tasks still queued.
func (r *Runner) Len() int {
	return len(r.stack)
}

// Tick advances the top task by one slice. If that task finishes, its
// Finish() is invoked and it is popped; any error is recorded but does not
// stop the runner — per spec.md §7, one task's ImageIOFailure should not
// block the others from completing. Returns false once the stack is empty.
// ctx is threaded through so the caller can interrupt a long bake cleanly
// (spec.md §7's BakeCancelled: the orchestrator simply stops ticking).
func (r *Runner) Tick(ctx context.Context) bool {
	if len(r.stack) == 0 {
		return false
	}
	select {
	case <-ctx.Done():
		return false
	default:
	}

	top := r.stack[len(r.stack)-1]
	if top.RunStep() {
		if err := top.Finish(); err != nil {
			r.errs = append(r.errs, err)
		}
		r.stack = r.stack[:len(r.stack)-1]
	}
	return len(r.stack) > 0
}

// Run ticks until the stack is empty or ctx is cancelled.
func (r *Runner) Run(ctx context.Context) error {
	for r.Tick(ctx) {
	}
	return r.Err()
}

// Progress returns the mean completion of the tasks still queued, weighted
// equally; completed (popped) tasks are no longer counted. An empty stack
// reports 1.
func (r *Runner) Progress() float64 {
	if len(r.stack) == 0 {
		return 1
	}
	sum := 0.0
	for _, t := range r.stack {
		sum += t.Progress()
	}
	return sum / float64(len(r.stack))
}

// Err returns the aggregate error string across every task that failed in
// Finish, or nil if none did. Matches spec.md §7's "runner's aggregate
// error string" — individual task failures don't abort sibling tasks.
func (r *Runner) Err() error {
	if len(r.errs) == 0 {
		return nil
	}
	return &aggregateError{errs: r.errs}
}

type aggregateError struct {
	errs []error
}

func (a *aggregateError) Error() string {
	msg := a.errs[0].Error()
	for _, e := range a.errs[1:] {
		msg += "; " + e.Error()
	}
	return msg
}

// Unwrap exposes the individual errors for errors.Is/As.
func (a *aggregateError) Unwrap() []error {
	return a.errs
}
