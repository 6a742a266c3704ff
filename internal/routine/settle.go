package routine

import (
	"context"
	"errors"
	"fmt"
	"time"

	"golang.org/x/sync/errgroup"
)

// Handler produces a task's value. It should honor ctx; a handler that
// outlives its deadline is abandoned and reported as timed out.
type Handler[T any] func(ctx context.Context) (T, error)

var (
	ErrEmptyID          = errors.New("routine: empty id")
	ErrNilTask          = errors.New("routine: nil task")
	ErrTaskHandlerUnset = errors.New("routine: task handler not set")
	ErrTaskPanicked     = errors.New("routine: task panicked")
)

// Task wraps a handler and its lifecycle callbacks.
type Task[T any] struct {
	ID      string
	Handler Handler[T]

	OnStart func(string)
	OnDone  func(string)
	OnError func(string, error)
}

// Outcome is the terminal state of a task: a value or an error, never both.
type Outcome[T any] struct {
	ID    string
	Value T
	Err   error
}

// SettleAll runs every task concurrently and waits until each one has
// settled. Each task gets its own deadline derived from ctx; a failure,
// timeout or panic in one task never cancels the others. Outcomes are
// returned in task order.
//
// The only error returned is a validation error, in which case no task
// has been started.
func SettleAll[T any](ctx context.Context, timeout time.Duration, tasks []*Task[T]) ([]Outcome[T], error) {
	for _, task := range tasks {
		if err := validate(task); err != nil {
			return nil, err
		}
	}
	if ctx == nil {
		ctx = context.Background()
	}

	outcomes := make([]Outcome[T], len(tasks))
	var g errgroup.Group
	for i, task := range tasks {
		g.Go(func() error {
			outcomes[i] = run(ctx, timeout, task)
			return nil
		})
	}
	_ = g.Wait()
	return outcomes, nil
}

func validate[T any](task *Task[T]) error {
	if task == nil {
		return ErrNilTask
	}
	if task.ID == "" {
		return ErrEmptyID
	}
	if task.Handler == nil {
		return ErrTaskHandlerUnset
	}
	return nil
}

func run[T any](ctx context.Context, timeout time.Duration, task *Task[T]) (out Outcome[T]) {
	var (
		callCtx context.Context
		cancel  context.CancelFunc
	)
	if timeout > 0 {
		callCtx, cancel = context.WithTimeout(ctx, timeout)
	} else {
		callCtx, cancel = context.WithCancel(ctx)
	}
	defer cancel()

	defer func() {
		if out.Err != nil && task.OnError != nil {
			task.OnError(task.ID, out.Err)
		}
		if task.OnDone != nil {
			task.OnDone(task.ID)
		}
	}()
	if task.OnStart != nil {
		task.OnStart(task.ID)
	}

	done := make(chan Outcome[T], 1)
	go func() {
		defer func() {
			if r := recover(); r != nil {
				done <- Outcome[T]{ID: task.ID, Err: fmt.Errorf("%w: %v", ErrTaskPanicked, r)}
			}
		}()
		val, err := task.Handler(callCtx)
		if err != nil {
			done <- Outcome[T]{ID: task.ID, Err: err}
			return
		}
		done <- Outcome[T]{ID: task.ID, Value: val}
	}()

	select {
	case out = <-done:
		return out
	case <-callCtx.Done():
		// Prefer a result that landed together with the deadline.
		select {
		case out = <-done:
			return out
		default:
		}
		return Outcome[T]{ID: task.ID, Err: fmt.Errorf("task %s: %w", task.ID, callCtx.Err())}
	}
}
