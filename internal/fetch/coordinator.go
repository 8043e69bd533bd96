// Package fetch runs tracker calls off the UI goroutine and hands their
// results back in arrival order.
//
// Every request for a target bumps that target's generation. When results
// are drained, only the one carrying the latest generation is kept; older
// ones are dropped, so the last request always wins no matter how the
// network reorders responses. Superseded tasks are not killed. They finish
// and their result is discarded.
package fetch

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/roeyazroel/issuedash/internal/logger"
)

// Target names a fetchable or mutable resource, e.g. "issue:42".
type Target string

// Targetf formats a Target.
func Targetf(format string, args ...any) Target {
	return Target(fmt.Sprintf(format, args...))
}

// Status is the state of the latest request for a target.
type Status int

const (
	// StatusIdle means nothing was ever requested.
	StatusIdle Status = iota
	// StatusPending means the latest request has not completed.
	StatusPending
	// StatusDone means the latest request succeeded.
	StatusDone
	// StatusError means the latest request failed.
	StatusError
)

// String returns the status name.
func (s Status) String() string {
	switch s {
	case StatusIdle:
		return "idle"
	case StatusPending:
		return "pending"
	case StatusDone:
		return "done"
	case StatusError:
		return "error"
	default:
		return fmt.Sprintf("status(%d)", int(s))
	}
}

// Job is the background work for a request. It must not touch UI state.
type Job func(ctx context.Context) (any, error)

// Handler consumes a fresh result on the UI goroutine.
type Handler func(payload any, err error)

// FetchFailedError wraps a failed job with the target it was for.
type FetchFailedError struct {
	Target Target
	Cause  error
}

func (e *FetchFailedError) Error() string {
	return fmt.Sprintf("fetch %s: %v", e.Target, e.Cause)
}

func (e *FetchFailedError) Unwrap() error { return e.Cause }

// Result is one completed task.
type Result struct {
	Target     Target
	Generation uint64
	TaskID     string
	Payload    any
	Err        error

	handler Handler
}

// Apply hands the result to the handler given to Request.
func (r Result) Apply() {
	if r.handler != nil {
		r.handler(r.Payload, r.Err)
	}
}

type request struct {
	generation uint64
	status     Status
	err        error
	started    time.Time
}

// Options configures a Coordinator.
type Options struct {
	// Timeout bounds each job. Zero means no timeout.
	Timeout time.Duration
	// Wake is called from the worker goroutine after a result is queued.
	// The App uses it to post an interrupt into the terminal event queue.
	Wake func()
	// Buffer is the completed-result channel capacity.
	Buffer int
}

// Coordinator owns the request table. All methods except the job bodies
// must be called from a single goroutine.
type Coordinator struct {
	ctx      context.Context
	cancel   context.CancelFunc
	timeout  time.Duration
	wake     func()
	done     chan Result
	requests map[Target]*request
}

// New returns a Coordinator whose jobs run under a context that Close
// cancels.
func New(opts Options) *Coordinator {
	if opts.Buffer <= 0 {
		opts.Buffer = 64
	}
	ctx, cancel := context.WithCancel(context.Background())
	return &Coordinator{
		ctx:      ctx,
		cancel:   cancel,
		timeout:  opts.Timeout,
		wake:     opts.Wake,
		done:     make(chan Result, opts.Buffer),
		requests: make(map[Target]*request),
	}
}

// SetWake replaces the wake hook. Call it before the first Request.
func (c *Coordinator) SetWake(wake func()) {
	c.wake = wake
}

// Request starts job for target and returns the new generation. It never
// blocks.
func (c *Coordinator) Request(target Target, job Job, handle Handler) uint64 {
	req, ok := c.requests[target]
	if !ok {
		req = &request{}
		c.requests[target] = req
	}
	req.generation++
	req.status = StatusPending
	req.err = nil
	req.started = time.Now()

	gen := req.generation
	taskID := uuid.NewString()
	logger.Debug("fetch: request target=%s gen=%d task=%s", target, gen, taskID)

	go c.run(target, gen, taskID, job, handle)
	return gen
}

func (c *Coordinator) run(target Target, gen uint64, taskID string, job Job, handle Handler) {
	ctx := c.ctx
	if c.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.timeout)
		defer cancel()
	}

	res := Result{Target: target, Generation: gen, TaskID: taskID, handler: handle}
	func() {
		defer func() {
			if r := recover(); r != nil {
				res.Err = fmt.Errorf("panic: %v", r)
			}
		}()
		res.Payload, res.Err = job(ctx)
	}()
	if res.Err != nil {
		res.Err = &FetchFailedError{Target: target, Cause: res.Err}
	}

	select {
	case c.done <- res:
	case <-c.ctx.Done():
		return
	}
	if c.wake != nil {
		c.wake()
	}
}

// PollResults drains completed tasks without blocking and returns the ones
// that are still current. Stale results are dropped.
func (c *Coordinator) PollResults() []Result {
	var fresh []Result
	for {
		select {
		case res := <-c.done:
			if r, ok := c.accept(res); ok {
				fresh = append(fresh, r)
			}
		default:
			return fresh
		}
	}
}

func (c *Coordinator) accept(res Result) (Result, bool) {
	req, ok := c.requests[res.Target]
	if !ok || res.Generation != req.generation {
		logger.Debug("fetch: drop stale target=%s gen=%d", res.Target, res.Generation)
		return Result{}, false
	}
	if res.Err != nil {
		req.status = StatusError
		req.err = res.Err
		logger.Warning("fetch: target=%s failed after %s: %v", res.Target, time.Since(req.started), res.Err)
	} else {
		req.status = StatusDone
		req.err = nil
		logger.Debug("fetch: done target=%s gen=%d in %s", res.Target, res.Generation, time.Since(req.started))
	}
	return res, true
}

// Pending reports whether the latest request for target is in flight.
func (c *Coordinator) Pending(target Target) bool {
	return c.Status(target) == StatusPending
}

// AnyPending reports whether any target has a request in flight.
func (c *Coordinator) AnyPending() bool {
	for _, req := range c.requests {
		if req.status == StatusPending {
			return true
		}
	}
	return false
}

// Status returns the status of the latest request for target.
func (c *Coordinator) Status(target Target) Status {
	if req, ok := c.requests[target]; ok {
		return req.status
	}
	return StatusIdle
}

// Err returns the error of the latest request for target, if it failed.
func (c *Coordinator) Err(target Target) error {
	if req, ok := c.requests[target]; ok {
		return req.err
	}
	return nil
}

// Generation returns the latest generation issued for target.
func (c *Coordinator) Generation(target Target) uint64 {
	if req, ok := c.requests[target]; ok {
		return req.generation
	}
	return 0
}

// Close cancels every running job's context. Results still in flight are
// discarded.
func (c *Coordinator) Close() {
	c.cancel()
}

// Group runs fns concurrently and returns the first error. It is for one
// logical fetch made of several independent API calls.
func Group(ctx context.Context, fns ...func(ctx context.Context) error) error {
	g, gctx := errgroup.WithContext(ctx)
	for _, fn := range fns {
		fn := fn
		g.Go(func() error { return fn(gctx) })
	}
	return g.Wait()
}
