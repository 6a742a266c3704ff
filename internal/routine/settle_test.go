package routine

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func constant[T any](v T) Handler[T] {
	return func(context.Context) (T, error) { return v, nil }
}

func TestSettleAllKeepsTaskOrder(t *testing.T) {
	tasks := []*Task[int]{
		{ID: "a", Handler: func(ctx context.Context) (int, error) {
			time.Sleep(20 * time.Millisecond)
			return 1, nil
		}},
		{ID: "b", Handler: constant(2)},
		{ID: "c", Handler: constant(3)},
	}

	out, err := SettleAll(context.Background(), time.Second, tasks)
	require.NoError(t, err)
	require.Len(t, out, 3)
	for i, want := range []int{1, 2, 3} {
		assert.Equal(t, tasks[i].ID, out[i].ID)
		assert.Equal(t, want, out[i].Value)
		assert.NoError(t, out[i].Err)
	}
}

func TestSettleAllIsolatesFailures(t *testing.T) {
	boom := errors.New("rpc down")
	tasks := []*Task[string]{
		{ID: "ok", Handler: constant("code")},
		{ID: "err", Handler: func(context.Context) (string, error) { return "ignored", boom }},
		{ID: "panic", Handler: func(context.Context) (string, error) { panic("bad decode") }},
	}

	out, err := SettleAll(context.Background(), time.Second, tasks)
	require.NoError(t, err)

	assert.Equal(t, "code", out[0].Value)
	assert.NoError(t, out[0].Err)

	assert.ErrorIs(t, out[1].Err, boom)
	assert.Empty(t, out[1].Value, "failed outcomes carry no value")

	assert.ErrorIs(t, out[2].Err, ErrTaskPanicked)
	assert.Empty(t, out[2].Value)
}

func TestSettleAllBoundsSlowTasks(t *testing.T) {
	release := make(chan struct{})
	defer close(release)

	tasks := []*Task[bool]{
		{ID: "stuck", Handler: func(ctx context.Context) (bool, error) {
			// Ignores ctx on purpose.
			<-release
			return true, nil
		}},
		{ID: "fast", Handler: constant(true)},
	}

	start := time.Now()
	out, err := SettleAll(context.Background(), 50*time.Millisecond, tasks)
	require.NoError(t, err)
	assert.Less(t, time.Since(start), time.Second)

	assert.ErrorIs(t, out[0].Err, context.DeadlineExceeded)
	assert.False(t, out[0].Value)
	assert.True(t, out[1].Value)
	assert.NoError(t, out[1].Err)
}

func TestSettleAllRunsConcurrently(t *testing.T) {
	var inflight, peak atomic.Int32
	handler := func(ctx context.Context) (int, error) {
		n := inflight.Add(1)
		for {
			p := peak.Load()
			if n <= p || peak.CompareAndSwap(p, n) {
				break
			}
		}
		time.Sleep(30 * time.Millisecond)
		inflight.Add(-1)
		return 0, nil
	}
	tasks := make([]*Task[int], 5)
	for i := range tasks {
		tasks[i] = &Task[int]{ID: string(rune('a' + i)), Handler: handler}
	}

	_, err := SettleAll(context.Background(), time.Second, tasks)
	require.NoError(t, err)
	assert.EqualValues(t, 5, peak.Load())
}

func TestSettleAllLifecycleHooks(t *testing.T) {
	var mu sync.Mutex
	events := map[string][]string{}
	record := func(kind string) func(string) {
		return func(id string) {
			mu.Lock()
			defer mu.Unlock()
			events[id] = append(events[id], kind)
		}
	}
	onError := func(id string, err error) { record("error")(id) }

	tasks := []*Task[int]{
		{ID: "ok", Handler: constant(1), OnStart: record("start"), OnDone: record("done"), OnError: onError},
		{ID: "bad", Handler: func(context.Context) (int, error) { return 0, errors.New("x") },
			OnStart: record("start"), OnDone: record("done"), OnError: onError},
	}

	_, err := SettleAll(context.Background(), time.Second, tasks)
	require.NoError(t, err)
	assert.Equal(t, []string{"start", "done"}, events["ok"])
	assert.Equal(t, []string{"start", "error", "done"}, events["bad"])
}

func TestSettleAllValidation(t *testing.T) {
	var started atomic.Int32
	handler := func(context.Context) (int, error) {
		started.Add(1)
		return 0, nil
	}

	_, err := SettleAll(context.Background(), time.Second, []*Task[int]{{ID: "a", Handler: handler}, nil})
	assert.ErrorIs(t, err, ErrNilTask)

	_, err = SettleAll(context.Background(), time.Second, []*Task[int]{{Handler: handler}})
	assert.ErrorIs(t, err, ErrEmptyID)

	_, err = SettleAll(context.Background(), time.Second, []*Task[int]{{ID: "a"}})
	assert.ErrorIs(t, err, ErrTaskHandlerUnset)

	assert.Zero(t, started.Load(), "no task starts when validation fails")
}
