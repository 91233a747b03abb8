// Package workerpool runs independent tasks on a fixed set of goroutines.
package workerpool

import (
	"context"
	"errors"
	"runtime"
	"sync"

	"go.uber.org/multierr"
	"go.uber.org/zap"
)

const (
	numWorkersMax   = 32
	queueLenMax     = 1 << 16
	queueLenDefault = 1024
)

var (
	ErrClosed  = errors.New("workerpool: closed")
	ErrStopped = errors.New("workerpool: workers stopped")
)

type TaskFunc func(ctx context.Context, id int, data any) error

type Task struct {
	ctx  context.Context
	id   int
	data any
	f    TaskFunc
	done chan struct{}
	err  error
}

func NewTask(ctx context.Context, id int, data any, f TaskFunc) *Task {
	return &Task{
		ctx:  ctx,
		id:   id,
		data: data,
		f:    f,
		done: make(chan struct{}),
	}
}

func (t *Task) ID() int {
	return t.id
}

// Done is closed once the task has run. It stays open for tasks that were
// still queued when the pool context ended.
func (t *Task) Done() <-chan struct{} {
	return t.done
}

func (t *Task) Err() error {
	return t.err
}

// DefaultNumWorkers is min(32, NumCPU+4).
func DefaultNumWorkers() int {
	return min(numWorkersMax, runtime.NumCPU()+4)
}

type Option func(*Pool)

func WithLogger(logger *zap.Logger) Option {
	return func(p *Pool) {
		if logger != nil {
			p.logger = logger
		}
	}
}

// WithQueueLen overrides the queue length passed to New.
func WithQueueLen(n int) Option {
	return func(p *Pool) {
		p.queueLen = n
	}
}

type Pool struct {
	numWorkers int
	queueLen   int
	tasks      chan *Task
	done       chan struct{}
	once       sync.Once
	closed     bool
	mu         sync.Mutex
	errMu      sync.Mutex
	err        error
	logger     *zap.Logger
}

func New(numWorkers, queueLen int, opts ...Option) *Pool {
	p := &Pool{
		numWorkers: numWorkers,
		queueLen:   queueLen,
		logger:     zap.NewNop(),
	}

	for _, opt := range opts {
		opt(p)
	}

	if p.numWorkers <= 0 || p.numWorkers > numWorkersMax {
		p.numWorkers = DefaultNumWorkers()
	}

	if p.queueLen <= 0 || p.queueLen > queueLenMax {
		p.queueLen = queueLenDefault
	}

	p.tasks = make(chan *Task, p.queueLen)
	p.done = make(chan struct{})

	return p
}

func (p *Pool) NumWorkers() int {
	return p.numWorkers
}

func (p *Pool) Run(ctx context.Context) {
	p.once.Do(func() {
		p.logger.Debug("starting workers",
			zap.Int("workers", p.numWorkers),
			zap.Int("queue_len", p.queueLen))

		go func() {
			defer close(p.done)

			var wg sync.WaitGroup

			for i := 0; i < p.numWorkers; i++ {
				wg.Add(1)
				go func() {
					defer wg.Done()

					for {
						select {
						case <-ctx.Done():
							return
						case task, ok := <-p.tasks:
							if !ok {
								return
							}
							p.exec(task)
						}
					}
				}()
			}

			wg.Wait()

			p.logger.Debug("workers stopped")
		}()
	})
}

func (p *Pool) exec(task *Task) {
	task.err = task.f(task.ctx, task.id, task.data)
	if task.err != nil {
		p.errMu.Lock()
		p.err = multierr.Append(p.err, task.err)
		p.errMu.Unlock()
	}
	close(task.done)
}

func (p *Pool) IsClosed() bool {
	p.mu.Lock()
	defer p.mu.Unlock()

	return p.closed
}

func (p *Pool) Stop() {
	p.mu.Lock()
	defer p.mu.Unlock()

	if !p.closed {
		close(p.tasks)
		p.closed = true
	}
}

// Wait blocks until every worker has exited and returns the combined errors
// of the tasks that ran.
func (p *Pool) Wait() error {
	<-p.done

	p.errMu.Lock()
	defer p.errMu.Unlock()

	return p.err
}

func (p *Pool) AddTask(t *Task) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.closed {
		return ErrClosed
	}

	select {
	case p.tasks <- t:
		return nil
	case <-t.ctx.Done():
		return t.ctx.Err()
	case <-p.done:
		return ErrStopped
	}
}
