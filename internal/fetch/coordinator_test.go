package fetch

import (
	"context"
	"errors"
	"math/rand"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// newTestCoordinator returns a coordinator whose wake hook signals woke.
func newTestCoordinator(t *testing.T, opts Options) (*Coordinator, chan struct{}) {
	t.Helper()
	woke := make(chan struct{}, 128)
	opts.Wake = func() { woke <- struct{}{} }
	c := New(opts)
	t.Cleanup(c.Close)
	return c, woke
}

func waitWake(t *testing.T, woke <-chan struct{}) {
	t.Helper()
	select {
	case <-woke:
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for a result")
	}
}

// gatedJob returns a job that answers payload once gate is closed.
func gatedJob(gate <-chan struct{}, payload any) Job {
	return func(ctx context.Context) (any, error) {
		select {
		case <-gate:
			return payload, nil
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
}

func TestRequest_SupersededResultIsDropped(t *testing.T) {
	c, woke := newTestCoordinator(t, Options{})

	var applied []any
	handle := func(p any, err error) {
		require.NoError(t, err)
		applied = append(applied, p)
	}

	first, second := make(chan struct{}), make(chan struct{})
	g1 := c.Request("issue-42", gatedJob(first, "old"), handle)
	g2 := c.Request("issue-42", gatedJob(second, "new"), handle)
	assert.Equal(t, uint64(1), g1)
	assert.Equal(t, uint64(2), g2)

	close(first)
	waitWake(t, woke)
	for _, r := range c.PollResults() {
		r.Apply()
	}
	assert.Empty(t, applied, "stale result must be discarded")
	assert.True(t, c.Pending("issue-42"))

	close(second)
	waitWake(t, woke)
	results := c.PollResults()
	require.Len(t, results, 1)
	assert.Equal(t, uint64(2), results[0].Generation)
	results[0].Apply()

	assert.Equal(t, []any{"new"}, applied)
	assert.Equal(t, StatusDone, c.Status("issue-42"))
}

func TestRequest_LatestWinsRegardlessOfCompletionOrder(t *testing.T) {
	const n = 12
	for trial := 0; trial < 20; trial++ {
		c, woke := newTestCoordinator(t, Options{})

		gates := make([]chan struct{}, n)
		var applied []any
		for i := range gates {
			gates[i] = make(chan struct{})
			c.Request("issues", gatedJob(gates[i], i), func(p any, _ error) {
				applied = append(applied, p)
			})
		}

		for _, i := range rand.Perm(n) {
			close(gates[i])
			waitWake(t, woke)
			for _, r := range c.PollResults() {
				r.Apply()
			}
		}
		assert.Equal(t, []any{n - 1}, applied, "trial %d", trial)
	}
}

func TestRequest_ReturnsImmediately(t *testing.T) {
	c, _ := newTestCoordinator(t, Options{})
	block := make(chan struct{})
	t.Cleanup(func() { close(block) })

	start := time.Now()
	c.Request("slow", gatedJob(block, nil), nil)
	assert.Less(t, time.Since(start), 100*time.Millisecond)
	assert.True(t, c.Pending("slow"))
	assert.True(t, c.AnyPending())
	assert.Empty(t, c.PollResults())
}

func TestRequest_FailureIsTyped(t *testing.T) {
	c, woke := newTestCoordinator(t, Options{})
	cause := errors.New("boom")

	var got error
	c.Request("comment:7", func(context.Context) (any, error) { return nil, cause }, func(_ any, err error) {
		got = err
	})
	waitWake(t, woke)
	for _, r := range c.PollResults() {
		r.Apply()
	}

	require.Error(t, got)
	assert.ErrorIs(t, got, cause)
	var ff *FetchFailedError
	require.ErrorAs(t, got, &ff)
	assert.Equal(t, Target("comment:7"), ff.Target)
	assert.Equal(t, StatusError, c.Status("comment:7"))
	assert.Equal(t, got, c.Err("comment:7"))
}

func TestRequest_TimeoutCancelsJobContext(t *testing.T) {
	c, woke := newTestCoordinator(t, Options{Timeout: 20 * time.Millisecond})
	never := make(chan struct{})
	t.Cleanup(func() { close(never) })

	c.Request("issue:1", gatedJob(never, nil), nil)
	waitWake(t, woke)
	results := c.PollResults()
	require.Len(t, results, 1)
	assert.ErrorIs(t, results[0].Err, context.DeadlineExceeded)
}

func TestRequest_PanicBecomesError(t *testing.T) {
	c, woke := newTestCoordinator(t, Options{})
	c.Request("x", func(context.Context) (any, error) { panic("kaboom") }, nil)
	waitWake(t, woke)
	results := c.PollResults()
	require.Len(t, results, 1)
	assert.ErrorContains(t, results[0].Err, "kaboom")
}

func TestStatus_Unknown(t *testing.T) {
	c := New(Options{})
	defer c.Close()
	assert.Equal(t, StatusIdle, c.Status("nope"))
	assert.Equal(t, uint64(0), c.Generation("nope"))
	assert.False(t, c.AnyPending())
}

func TestGroup(t *testing.T) {
	var calls atomic.Int32
	ok := func(context.Context) error { calls.Add(1); return nil }
	assert.NoError(t, Group(context.Background(), ok, ok))
	assert.Equal(t, int32(2), calls.Load())

	bad := errors.New("bad")
	err := Group(context.Background(), ok, func(context.Context) error { return bad })
	assert.ErrorIs(t, err, bad)
}

func TestTargetf(t *testing.T) {
	assert.Equal(t, Target("issue:42"), Targetf("issue:%d", 42))
}
