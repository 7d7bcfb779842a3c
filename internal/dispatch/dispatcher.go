// Package dispatch runs best-effort side effects on background workers.
// Tasks are never retried and their failures never reach the submitter.
package dispatch

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"timesheet-admin/internal/logging"
)

// TaskFunc is the body of a dispatched task.
type TaskFunc func(ctx context.Context) error

// Failure records a task that returned an error, panicked or was dropped.
type Failure struct {
	TaskID string
	Name   string
	Err    string
	At     time.Time
}

type task struct {
	id   string
	name string
	fn   TaskFunc
}

// Dispatcher is a fixed pool of workers fed by a buffered queue.
type Dispatcher struct {
	logger      logrus.FieldLogger
	queue       chan task
	taskTimeout time.Duration
	wg          sync.WaitGroup

	mu       sync.Mutex
	closed   bool
	failures []Failure
}

// New starts a dispatcher with the given number of workers and queue size.
func New(logger logrus.FieldLogger, workers, queueSize int, taskTimeout time.Duration) *Dispatcher {
	if workers < 1 {
		workers = 1
	}
	if queueSize < 0 {
		queueSize = 0
	}
	d := &Dispatcher{
		logger:      logger,
		queue:       make(chan task, queueSize),
		taskTimeout: taskTimeout,
	}
	for i := 0; i < workers; i++ {
		d.wg.Add(1)
		go d.work()
	}
	return d
}

// Dispatch enqueues fn and returns its task id. It never blocks: when the
// queue is full or the dispatcher is closed the task is dropped and recorded
// as a failure.
func (d *Dispatcher) Dispatch(name string, fn TaskFunc) string {
	t := task{id: uuid.NewString(), name: name, fn: fn}

	d.mu.Lock()
	defer d.mu.Unlock()

	if d.closed {
		d.recordLocked(t, fmt.Errorf("dispatcher closed"))
		return t.id
	}
	select {
	case d.queue <- t:
	default:
		d.recordLocked(t, fmt.Errorf("dispatch queue full"))
	}
	return t.id
}

// Failures returns a copy of the failure log.
func (d *Dispatcher) Failures() []Failure {
	d.mu.Lock()
	defer d.mu.Unlock()
	out := make([]Failure, len(d.failures))
	copy(out, d.failures)
	return out
}

// Close stops accepting tasks and waits for queued ones to finish.
func (d *Dispatcher) Close() {
	d.mu.Lock()
	if d.closed {
		d.mu.Unlock()
		return
	}
	d.closed = true
	close(d.queue)
	d.mu.Unlock()

	d.wg.Wait()
}

func (d *Dispatcher) work() {
	defer d.wg.Done()
	for t := range d.queue {
		if err := d.run(t); err != nil {
			d.mu.Lock()
			d.recordLocked(t, err)
			d.mu.Unlock()
		}
	}
}

func (d *Dispatcher) run(t task) (err error) {
	ctx := context.Background()
	if d.taskTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, d.taskTimeout)
		defer cancel()
	}
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("task panicked: %v", r)
		}
	}()
	return t.fn(ctx)
}

func (d *Dispatcher) recordLocked(t task, err error) {
	d.failures = append(d.failures, Failure{TaskID: t.id, Name: t.name, Err: err.Error(), At: time.Now().UTC()})
	logging.LogError(d.logger, "dispatch", t.name, "background task failed", logrus.Fields{"taskId": t.id}, err)
}
