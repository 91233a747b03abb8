// Package bench times each squaring mode over a shared input and reports
// elapsed wall-clock seconds.
package bench

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"go.uber.org/multierr"
	"go.uber.org/zap"

	"github.com/initlevel5/squarebench/internal/config"
	"github.com/initlevel5/squarebench/internal/square"
	"github.com/initlevel5/squarebench/internal/workerpool"
)

type Mode string

const (
	ModeSequential Mode = "sequential"
	ModeThreaded   Mode = "threaded"
	ModeChunked    Mode = "chunked"
)

var (
	ErrMismatch    = errors.New("result mismatch")
	ErrUnknownMode = errors.New("unknown mode")
)

func ParseMode(s string) (Mode, error) {
	switch m := Mode(strings.ToLower(strings.TrimSpace(s))); m {
	case ModeSequential, ModeThreaded, ModeChunked:
		return m, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnknownMode, s)
	}
}

// Label is the report prefix, e.g. "Threaded Execution Time".
func (m Mode) Label() string {
	s := string(m)
	if s == "" {
		return "Execution Time"
	}
	return strings.ToUpper(s[:1]) + s[1:] + " Execution Time"
}

type Result struct {
	Mode    Mode
	Elapsed time.Duration
	Squares []int64
}

func (r Result) Len() int {
	return len(r.Squares)
}

type Runner struct {
	cfg    *config.Config
	logger *zap.Logger
	now    func() time.Time
}

type Option func(*Runner)

func WithLogger(logger *zap.Logger) Option {
	return func(r *Runner) {
		if logger != nil {
			r.logger = logger
		}
	}
}

// WithClock replaces time.Now.
func WithClock(now func() time.Time) Option {
	return func(r *Runner) {
		r.now = now
	}
}

func NewRunner(cfg *config.Config, opts ...Option) *Runner {
	r := &Runner{
		cfg:    cfg,
		logger: zap.NewNop(),
		now:    time.Now,
	}

	for _, opt := range opts {
		opt(r)
	}

	return r
}

// Run builds the input once and times every configured mode in order.
func (r *Runner) Run(ctx context.Context) ([]Result, error) {
	modes := make([]Mode, 0, len(r.cfg.Modes))
	for _, s := range r.cfg.Modes {
		m, err := ParseMode(s)
		if err != nil {
			return nil, err
		}
		modes = append(modes, m)
	}

	in := square.Numbers(r.cfg.Count)

	r.logger.Debug("input ready",
		zap.Int("len", len(in)),
		zap.Int("workers", r.workers()),
		zap.Strings("modes", r.cfg.Modes))

	results := make([]Result, 0, len(modes))
	for _, m := range modes {
		res, err := r.runMode(ctx, m, in)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", m, err)
		}

		r.logger.Info("mode finished",
			zap.String("mode", string(m)),
			zap.Duration("elapsed", res.Elapsed),
			zap.Int("len", res.Len()))

		results = append(results, res)
	}

	if r.cfg.Verify {
		if err := Verify(in, results); err != nil {
			return results, err
		}
		r.logger.Debug("results verified", zap.Int("modes", len(results)))
	}

	return results, nil
}

func (r *Runner) workers() int {
	if r.cfg.Workers > 0 {
		return r.cfg.Workers
	}
	return workerpool.DefaultNumWorkers()
}

func (r *Runner) runMode(ctx context.Context, m Mode, in []int64) (Result, error) {
	var (
		out []int64
		err error
	)

	start := r.now()

	switch m {
	case ModeSequential:
		out = square.Sequential(in)
	case ModeThreaded:
		out, err = square.Threaded(ctx, in, r.workers(),
			workerpool.WithLogger(r.logger),
			workerpool.WithQueueLen(r.cfg.QueueLen))
	case ModeChunked:
		out, err = square.Chunked(ctx, in, r.workers())
	default:
		err = fmt.Errorf("%w: %q", ErrUnknownMode, m)
	}

	elapsed := r.now().Sub(start)
	if elapsed < 0 {
		elapsed = 0
	}

	if err != nil {
		return Result{}, err
	}

	return Result{Mode: m, Elapsed: elapsed, Squares: out}, nil
}

// Verify checks that every result holds x*x for each x of in, in order.
func Verify(in []int64, results []Result) error {
	var err error

	for _, res := range results {
		if res.Len() != len(in) {
			err = multierr.Append(err, fmt.Errorf("%w: %s: length %d, want %d",
				ErrMismatch, res.Mode, res.Len(), len(in)))
			continue
		}
		for i, x := range in {
			if got := res.Squares[i]; got != square.Square(x) {
				err = multierr.Append(err, fmt.Errorf("%w: %s: index %d: got %d, want %d",
					ErrMismatch, res.Mode, i, got, square.Square(x)))
				break
			}
		}
	}

	return err
}

// Report writes one "<Label>: <seconds> seconds" line per result.
func Report(w io.Writer, results []Result) error {
	for _, res := range results {
		if _, err := fmt.Fprintf(w, "%s: %.4f seconds\n", res.Mode.Label(), res.Elapsed.Seconds()); err != nil {
			return err
		}
	}
	return nil
}
