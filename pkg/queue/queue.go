package queue

import (
	"context"
	"errors"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/google/uuid"
)

// BackoffOptions shapes the wait between delivery attempts. Only the
// "exponential" type is recognized; the delay is the base for attempt n
// waits of delay * 2^(n-1).
type BackoffOptions struct {
	Type  string
	Delay time.Duration
}

// Options controls scheduling and retention for one job.
type Options struct {
	Delay            time.Duration
	Attempts         int
	Backoff          BackoffOptions
	RemoveOnComplete bool
	RemoveOnFail     bool
}

// Handler consumes a job payload. A nil return acknowledges the job.
type Handler func(ctx context.Context, payload any) error

type JobState string

const (
	StateDelayed   JobState = "delayed"
	StateWaiting   JobState = "waiting"
	StateActive    JobState = "active"
	StateCompleted JobState = "completed"
	StateFailed    JobState = "failed"
	StateRemoved   JobState = "removed"
)

// Job is one unit of work tracked by the queue.
type Job struct {
	ID        string
	Name      string
	Payload   any
	Opts      Options
	State     JobState
	Attempts  int
	LastError string
	AddedAt   time.Time

	timer *time.Timer
}

// ErrJobActive is returned when removing a job a worker already picked up.
var ErrJobActive = errors.New("job already picked up by a worker")

// Queue is an in-process job queue with delayed dispatch, bounded retries
// and failed-job retention.
type Queue struct {
	mu       sync.Mutex
	handlers map[string]Handler
	jobs     map[string]*Job
	ready    chan *Job
	stopChan chan struct{}
	stopped  bool
	wg       sync.WaitGroup
}

func New() *Queue {
	return &Queue{
		handlers: make(map[string]Handler),
		jobs:     make(map[string]*Job),
		ready:    make(chan *Job, 1024),
		stopChan: make(chan struct{}),
	}
}

// Process registers the handler consuming jobs added under name. Handlers
// must be registered before Add is called for that name.
func (q *Queue) Process(name string, handler Handler) {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.handlers[name] = handler
}

// Add enqueues a job. With a positive Delay the job stays parked until due.
// Adding a job with no registered handler is an error.
func (q *Queue) Add(name string, payload any, opts Options) (*Job, error) {
	q.mu.Lock()
	if q.stopped {
		q.mu.Unlock()
		return nil, errors.New("queue is stopped")
	}
	if _, ok := q.handlers[name]; !ok {
		q.mu.Unlock()
		return nil, fmt.Errorf("no handler registered for job %s", name)
	}
	if opts.Attempts < 1 {
		opts.Attempts = 1
	}

	job := &Job{
		ID:      uuid.New().String(),
		Name:    name,
		Payload: payload,
		Opts:    opts,
		AddedAt: time.Now(),
	}
	q.jobs[job.ID] = job

	if opts.Delay > 0 {
		job.State = StateDelayed
		job.timer = time.AfterFunc(opts.Delay, func() { q.promote(job) })
		q.mu.Unlock()
		return job, nil
	}

	job.State = StateWaiting
	q.mu.Unlock()

	select {
	case q.ready <- job:
	case <-q.stopChan:
	}
	return job, nil
}

// promote moves a delayed job into the ready channel once its delay expires.
func (q *Queue) promote(job *Job) {
	q.mu.Lock()
	if q.stopped || job.State != StateDelayed {
		q.mu.Unlock()
		return
	}
	job.State = StateWaiting
	q.mu.Unlock()

	select {
	case q.ready <- job:
	case <-q.stopChan:
	}
}

// Start launches workers draining ready jobs until Stop is called.
func (q *Queue) Start(ctx context.Context, workers int) {
	if workers < 1 {
		workers = 1
	}
	for i := 0; i < workers; i++ {
		q.wg.Add(1)
		go func() {
			defer q.wg.Done()
			for {
				select {
				case job := <-q.ready:
					q.run(ctx, job)
				case <-q.stopChan:
					return
				}
			}
		}()
	}
}

// Stop shuts the queue down and waits for workers to drain.
func (q *Queue) Stop() {
	q.mu.Lock()
	if q.stopped {
		q.mu.Unlock()
		return
	}
	q.stopped = true
	q.mu.Unlock()

	close(q.stopChan)
	q.wg.Wait()
}

func (q *Queue) run(ctx context.Context, job *Job) {
	q.mu.Lock()
	if job.State != StateWaiting {
		// Removed while sitting in the ready channel.
		q.mu.Unlock()
		return
	}
	job.State = StateActive
	handler := q.handlers[job.Name]
	q.mu.Unlock()

	for {
		q.mu.Lock()
		job.Attempts++
		attempt := job.Attempts
		q.mu.Unlock()

		err := handler(ctx, job.Payload)
		if err == nil {
			q.settle(job, StateCompleted, "", job.Opts.RemoveOnComplete)
			return
		}

		log.Printf("[Queue] Job %s (%s) failed (attempt %d/%d): %v", job.ID, job.Name, attempt, job.Opts.Attempts, err)

		if attempt >= job.Opts.Attempts {
			q.settle(job, StateFailed, err.Error(), job.Opts.RemoveOnFail)
			return
		}

		q.mu.Lock()
		job.LastError = err.Error()
		q.mu.Unlock()

		backoff := job.Opts.Backoff.Delay
		if backoff <= 0 {
			backoff = time.Second
		}
		backoff <<= attempt - 1

		select {
		case <-time.After(backoff):
		case <-q.stopChan:
			return
		}
	}
}

func (q *Queue) settle(job *Job, state JobState, lastError string, remove bool) {
	q.mu.Lock()
	defer q.mu.Unlock()
	job.State = state
	job.LastError = lastError
	if remove {
		delete(q.jobs, job.ID)
	}
}

// Remove cancels a job that has not been picked up yet. It is idempotent:
// removing an unknown, finished or already-removed job succeeds. An active
// job cannot be reclaimed.
func (q *Queue) Remove(jobID string) error {
	q.mu.Lock()
	defer q.mu.Unlock()

	job, ok := q.jobs[jobID]
	if !ok {
		return nil
	}

	switch job.State {
	case StateActive:
		return ErrJobActive
	case StateDelayed:
		if job.timer != nil {
			job.timer.Stop()
		}
	case StateCompleted, StateFailed:
		return nil
	}

	job.State = StateRemoved
	delete(q.jobs, jobID)
	return nil
}

// Job returns the tracked job with the given id, if retained.
func (q *Queue) Job(jobID string) (*Job, bool) {
	q.mu.Lock()
	defer q.mu.Unlock()
	job, ok := q.jobs[jobID]
	return job, ok
}

// FailedJobs lists retained failed jobs for inspection and manual retry.
func (q *Queue) FailedJobs() []*Job {
	q.mu.Lock()
	defer q.mu.Unlock()

	failed := make([]*Job, 0)
	for _, job := range q.jobs {
		if job.State == StateFailed {
			failed = append(failed, job)
		}
	}
	return failed
}

// Retry requeues a retained failed job with a fresh attempt budget.
func (q *Queue) Retry(jobID string) error {
	q.mu.Lock()
	job, ok := q.jobs[jobID]
	if !ok || job.State != StateFailed {
		q.mu.Unlock()
		return fmt.Errorf("no failed job with id %s", jobID)
	}
	job.State = StateWaiting
	job.Attempts = 0
	q.mu.Unlock()

	select {
	case q.ready <- job:
	case <-q.stopChan:
	}
	return nil
}
