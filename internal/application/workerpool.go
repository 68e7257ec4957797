package application

import (
	"context"
	"errors"
	"fmt"
	"runtime"
	"sync"

	"file-utility-bot/internal/domain"

	"github.com/sirupsen/logrus"
	"github.com/sourcegraph/conc/panics"
	"github.com/sourcegraph/conc/pool"
)

// Worker pool defaults, applied when the configured value is zero
const (
	defaultQueueSize = 64
)

// ErrPoolClosed is returned by Submit after Close
var ErrPoolClosed = errors.New("worker pool is closed")

// Task is one unit of slow work run on a pool worker
type Task func(ctx context.Context) (domain.OperationResult, error)

// Future is the pending outcome of a submitted Task
type Future struct {
	done   chan struct{}
	cancel context.CancelFunc
	result domain.OperationResult
	err    error
}

func newFuture(cancel context.CancelFunc) *Future {
	return &Future{done: make(chan struct{}), cancel: cancel}
}

func (f *Future) resolve(result domain.OperationResult, err error) {
	f.result = result
	f.err = err
	f.cancel()
	close(f.done)
}

// Done is closed once the task finished
func (f *Future) Done() <-chan struct{} {
	return f.done
}

// Cancel cancels the task context. A task that ignores its context still runs to completion.
func (f *Future) Cancel() {
	f.cancel()
}

// Await blocks until the task finished or ctx is done
func (f *Future) Await(ctx context.Context) (domain.OperationResult, error) {
	select {
	case <-f.done:
		return f.result, f.err
	case <-ctx.Done():
		return domain.OperationResult{}, ctx.Err()
	}
}

type job struct {
	ctx    context.Context
	task   Task
	future *Future
}

// WorkerPool runs tasks on a fixed number of workers fed by a bounded queue
type WorkerPool struct {
	jobs    chan job
	ctx     context.Context
	cancel  context.CancelFunc
	workers *pool.Pool

	mu     sync.RWMutex
	closed bool
}

// NewWorkerPool starts size workers. size <= 0 means one worker per CPU,
// queueSize <= 0 means the default queue length.
func NewWorkerPool(size, queueSize int) *WorkerPool {
	if size <= 0 {
		size = runtime.NumCPU()
	}
	if queueSize <= 0 {
		queueSize = defaultQueueSize
	}

	ctx, cancel := context.WithCancel(context.Background())
	wp := &WorkerPool{
		jobs:    make(chan job, queueSize),
		ctx:     ctx,
		cancel:  cancel,
		workers: pool.New().WithMaxGoroutines(size),
	}
	for i := 0; i < size; i++ {
		wp.workers.Go(wp.work)
	}

	logrus.Infof("Worker pool started with %d workers, queue size %d", size, queueSize)
	return wp
}

// Submit enqueues task without blocking. Returns domain.ErrQueueFull when the queue is full.
func (wp *WorkerPool) Submit(task Task) (*Future, error) {
	wp.mu.RLock()
	defer wp.mu.RUnlock()

	if wp.closed {
		return nil, ErrPoolClosed
	}

	ctx, cancel := context.WithCancel(wp.ctx)
	f := newFuture(cancel)
	select {
	case wp.jobs <- job{ctx: ctx, task: task, future: f}:
		return f, nil
	default:
		cancel()
		return nil, domain.ErrQueueFull
	}
}

func (wp *WorkerPool) work() {
	for j := range wp.jobs {
		if err := j.ctx.Err(); err != nil {
			j.future.resolve(domain.OperationResult{}, err)
			continue
		}
		j.future.resolve(runTask(j.ctx, j.task))
	}
}

// runTask converts a panic inside task into an error
func runTask(ctx context.Context, task Task) (result domain.OperationResult, err error) {
	var catcher panics.Catcher
	catcher.Try(func() {
		result, err = task(ctx)
	})
	if recovered := catcher.Recovered(); recovered != nil {
		logrus.Errorf("Recovered panic in worker: %v\n%s", recovered.Value, recovered.Stack)
		return domain.OperationResult{}, fmt.Errorf("operation crashed: %w", recovered.AsError())
	}
	return result, err
}

// Close stops accepting tasks, cancels running ones and waits for every worker.
// Queued tasks resolve with context.Canceled.
func (wp *WorkerPool) Close() {
	wp.mu.Lock()
	if wp.closed {
		wp.mu.Unlock()
		return
	}
	wp.closed = true
	close(wp.jobs)
	wp.mu.Unlock()

	wp.cancel()
	wp.workers.Wait()
	logrus.Info("Worker pool stopped")
}
