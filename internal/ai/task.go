package ai

import (
	"context"
	"sync"
	"sync/atomic"
)

// Kind identifies the operation a Task performs.
type Kind int

const (
	KindRemoveBackground Kind = iota
	KindGenerativeFill
)

func (k Kind) String() string {
	switch k {
	case KindRemoveBackground:
		return "remove-background"
	case KindGenerativeFill:
		return "generative-fill"
	default:
		return "unknown"
	}
}

// Task is one in-flight service request.
type Task struct {
	id       string
	kind     Kind
	target   string
	ctx      context.Context
	cancel   context.CancelFunc
	canceled atomic.Bool
	done     chan struct{}

	mu     sync.Mutex
	err    error
	result string
}

func newTask(ctx context.Context, cancel context.CancelFunc, id string, kind Kind, target string) *Task {
	return &Task{id: id, kind: kind, target: target, ctx: ctx, cancel: cancel, done: make(chan struct{})}
}

// ID returns the task id.
func (t *Task) ID() string { return t.id }

// Kind returns the operation.
func (t *Task) Kind() Kind { return t.kind }

// Target returns the layer a removal was issued for; empty for fills.
func (t *Task) Target() string { return t.target }

// Done is closed when the task has finished and its result, if any, has
// been applied.
func (t *Task) Done() <-chan struct{} { return t.done }

// Wait blocks until the task finishes and returns its error.
func (t *Task) Wait() error {
	<-t.done
	return t.Err()
}

// Err returns the task error once finished.
func (t *Task) Err() error {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.err
}

// Result returns the id of the layer the task created or replaced pixels
// on, or "" if nothing was applied.
func (t *Task) Result() string {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.result
}

// Cancel abandons the task. A cancelled task never touches the layer stack.
func (t *Task) Cancel() {
	t.canceled.Store(true)
	t.cancel()
}

// Canceled reports whether Cancel was called.
func (t *Task) Canceled() bool {
	return t.canceled.Load()
}

func (t *Task) finish(result string, err error) {
	t.mu.Lock()
	t.result, t.err = result, err
	t.mu.Unlock()
	t.cancel()
	close(t.done)
}
