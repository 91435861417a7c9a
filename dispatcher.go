package gpib

import (
	"context"
	"sync"
)

// defaultQueueSize bounds the number of bus operations that may be queued
// ahead of the worker before submitters start blocking.
const defaultQueueSize = 16

// result is the single-shot outcome of a job: the driver call's return
// value or its failure, plus the handle status snapshot taken right after
// a failed call.
type result struct {
	value  any
	err    error
	status Status
}

// newResult captures a driver call outcome together with the handle
// status snapshot needed for timeout classification on failure. The
// snapshot is taken on the worker, so nothing outside the dispatcher ever
// touches the handle.
func newResult(h Handle, value any, err error) result {
	r := result{value: value, err: err}
	if err != nil {
		r.status = h.LastStatus()
	}
	return r
}

// job is one pending bus operation: the bound driver call and a buffered
// channel acting as the result slot, written exactly once by the worker
// and read by exactly one waiter.
type job struct {
	run  func() result
	done chan result
}

// dispatcher funnels every driver call through a single worker goroutine.
// The underlying handle is not safe for concurrent invocation, so exactly
// one worker exists per dispatcher and jobs execute strictly in the order
// they were enqueued. Increasing the worker count would break the mutual
// exclusion the dispatcher exists to provide.
type dispatcher struct {
	jobs   chan *job
	exited chan struct{}

	mu       sync.Mutex
	stopping bool
	pending  sync.WaitGroup
}

// newDispatcher starts the worker goroutine and returns the dispatcher.
func newDispatcher(queueSize int) *dispatcher {
	d := &dispatcher{
		jobs:   make(chan *job, queueSize),
		exited: make(chan struct{}),
	}
	go d.work()
	return d
}

// work is the worker loop. It blocks (not suspends) while each driver
// call is in flight; that is the point of running it outside the callers'
// goroutines. The loop exits once the job channel is closed and drained.
func (d *dispatcher) work() {
	defer close(d.exited)
	for j := range d.jobs {
		j.done <- j.run()
	}
}

// submit enqueues a job in FIFO order. It fails with ErrShuttingDown once
// stop has begun, and with the context error if the caller gives up while
// the queue is full. The returned job's done channel delivers the result.
func (d *dispatcher) submit(ctx context.Context, run func() result) (*job, error) {
	d.mu.Lock()
	if d.stopping {
		d.mu.Unlock()
		return nil, ErrShuttingDown
	}
	d.pending.Add(1)
	d.mu.Unlock()
	defer d.pending.Done()

	j := &job{run: run, done: make(chan result, 1)}
	select {
	case d.jobs <- j:
		return j, nil
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

// stop rejects further submissions, waits for in-progress submissions to
// land, then closes the queue and waits for the worker to drain every
// accepted job and exit. No accepted job is abandoned. Safe to call more
// than once.
func (d *dispatcher) stop() {
	d.mu.Lock()
	if d.stopping {
		d.mu.Unlock()
		<-d.exited
		return
	}
	d.stopping = true
	d.mu.Unlock()

	// The worker keeps consuming until the channel is closed, so pending
	// senders cannot stall this wait.
	d.pending.Wait()
	close(d.jobs)
	<-d.exited
}
