// Package queue provides a small in-process work queue: producers enqueue
// task descriptors, a pool of workers executes them. Producers never wait for
// execution and tasks never see each other.
package queue

import (
	"context"
	"errors"
	"sync"

	"github.com/charmbracelet/log"
	"golang.org/x/sync/errgroup"
)

// ErrClosed is returned when a task is enqueued after shutdown started.
var ErrClosed = errors.New("queue is closed")

// Task is one unit of asynchronous delivery work.
type Task struct {
	ID         string
	Subject    string
	Body       string
	Recipients []string
}

// Handler executes one task. A handler owns its error handling: the worker
// pool only observes panics, everything else is the handler's to log.
type Handler func(ctx context.Context, task Task)

// Queue executes tasks on a fixed pool of workers.
type Queue struct {
	handler Handler
	tasks   chan Task
	group   *errgroup.Group
	workers int

	// mu guards closed and orders sends against close: producers send under
	// the read lock, Close flips closed and closes the channel under the
	// write lock, so a send can never race the close.
	mu     sync.RWMutex
	closed bool
}

// New creates a queue with the given worker count and buffer size.
func New(workers, buffer int, handler Handler) *Queue {
	if workers < 1 {
		workers = 1
	}
	return &Queue{
		handler: handler,
		tasks:   make(chan Task, buffer),
		group:   &errgroup.Group{},
		workers: workers,
	}
}

// Start launches the worker pool. Workers run until the queue is closed and
// drained, or until ctx is canceled.
func (q *Queue) Start(ctx context.Context) {
	log.Info("Starting delivery workers", "workers", q.workers)
	for i := 0; i < q.workers; i++ {
		q.group.Go(func() error {
			q.work(ctx)
			return nil
		})
	}
}

// Enqueue submits a task for asynchronous execution. It blocks only while the
// buffer is full and returns without waiting for the task to run.
func (q *Queue) Enqueue(ctx context.Context, task Task) error {
	q.mu.RLock()
	defer q.mu.RUnlock()
	if q.closed {
		return ErrClosed
	}

	select {
	case q.tasks <- task:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Close stops accepting tasks, waits for the workers to drain the buffer and
// returns once all in-flight tasks finished. It waits for in-flight Enqueue
// calls before closing the channel; the workers keep consuming until then, so
// blocked producers always finish their send.
func (q *Queue) Close() error {
	q.mu.Lock()
	if q.closed {
		q.mu.Unlock()
		return nil
	}
	q.closed = true
	close(q.tasks)
	q.mu.Unlock()

	return q.group.Wait()
}

func (q *Queue) work(ctx context.Context) {
	for {
		select {
		case task, ok := <-q.tasks:
			if !ok {
				return
			}
			q.run(ctx, task)
		case <-ctx.Done():
			return
		}
	}
}

// run executes a single task. A panicking handler must not take the worker
// down with it, the remaining tasks still need to execute.
func (q *Queue) run(ctx context.Context, task Task) {
	defer func() {
		if r := recover(); r != nil {
			log.Error("Delivery task panicked", "task", task.ID, "panic", r)
		}
	}()
	q.handler(ctx, task)
}
