package dispatch

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/cenkalti/backoff/v5"

	"puja-booking/logger"
)

var (
	// ErrExternalCollaborator wraps the last error once retries are exhausted.
	ErrExternalCollaborator = errors.New("external collaborator failed")
	ErrQueueFull            = errors.New("dispatch queue is full")
	ErrClosed               = errors.New("dispatcher closed")
)

// Job is one call to a notification or payment collaborator. Jobs run after
// the booking transition committed, so their failure never rolls it back.
type Job struct {
	Kind          string
	BookingNumber string
	Run           func(ctx context.Context) error
}

func (j Job) String() string {
	return fmt.Sprintf("%s[%s]", j.Kind, j.BookingNumber)
}

// Permanent marks an error as not worth retrying.
func Permanent(err error) error {
	return backoff.Permanent(err)
}

type Options struct {
	Workers   int
	QueueSize int
	MaxTries  uint
	// BackOff builds the retry schedule for each job.
	BackOff func() backoff.BackOff
	// OnFailure is told about every job that gave up.
	OnFailure func(job Job, err error)
	// OnSuccess is told about every job that completed.
	OnSuccess func(job Job)
}

func defaultBackOff() backoff.BackOff {
	b := backoff.NewExponentialBackOff()
	b.InitialInterval = 500 * time.Millisecond
	b.MaxInterval = 30 * time.Second
	return b
}

// Dispatcher drains a buffered job queue with a fixed worker pool.
type Dispatcher struct {
	opts    Options
	channel chan Job

	mu     sync.RWMutex
	closed bool
	wg     sync.WaitGroup
	cancel context.CancelFunc
}

func NewDispatcher(opts Options) *Dispatcher {
	if opts.Workers <= 0 {
		opts.Workers = 4
	}
	if opts.QueueSize <= 0 {
		opts.QueueSize = 100
	}
	if opts.MaxTries == 0 {
		opts.MaxTries = 5
	}
	if opts.BackOff == nil {
		opts.BackOff = defaultBackOff
	}
	return &Dispatcher{
		opts:    opts,
		channel: make(chan Job, opts.QueueSize),
	}
}

// Start launches the workers. They stop once Close drained the queue or ctx ends.
func (d *Dispatcher) Start(ctx context.Context) {
	ctx, d.cancel = context.WithCancel(ctx)
	logger.Info(fmt.Sprintf("Starting dispatcher with %d workers", d.opts.Workers))
	for i := 0; i < d.opts.Workers; i++ {
		d.wg.Add(1)
		go func() {
			defer d.wg.Done()
			d.process(ctx)
		}()
	}
}

func (d *Dispatcher) process(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case job, ok := <-d.channel:
			if !ok {
				return
			}
			d.run(ctx, job)
		}
	}
}

func (d *Dispatcher) run(ctx context.Context, job Job) {
	_, err := backoff.Retry(ctx, func() (struct{}, error) {
		return struct{}{}, job.Run(ctx)
	},
		backoff.WithBackOff(d.opts.BackOff()),
		backoff.WithMaxTries(d.opts.MaxTries),
		backoff.WithNotify(func(err error, next time.Duration) {
			logger.Warning(fmt.Sprintf("Dispatch %s failed, retrying in %s: %v", job, next, err))
		}),
	)
	if err != nil {
		err = fmt.Errorf("%w: %s: %w", ErrExternalCollaborator, job, err)
		logger.Error("Dispatch gave up", err)
		if d.opts.OnFailure != nil {
			d.opts.OnFailure(job, err)
		}
		return
	}
	if d.opts.OnSuccess != nil {
		d.opts.OnSuccess(job)
	}
}

// Enqueue hands a job to the workers without blocking the caller.
func (d *Dispatcher) Enqueue(job Job) error {
	d.mu.RLock()
	defer d.mu.RUnlock()
	if d.closed {
		return ErrClosed
	}
	select {
	case d.channel <- job:
		return nil
	default:
		logger.Error(fmt.Sprintf("Dropping %s", job), ErrQueueFull)
		return ErrQueueFull
	}
}

// Close stops accepting jobs and waits for queued ones to finish.
func (d *Dispatcher) Close() {
	d.mu.Lock()
	if d.closed {
		d.mu.Unlock()
		return
	}
	d.closed = true
	close(d.channel)
	d.mu.Unlock()

	d.wg.Wait()
	if d.cancel != nil {
		d.cancel()
	}
}
