package calib

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/san-kum/flightcore/internal/imu"
)

// RateSource is the gyroscope as seen by the calibrator. *imu.Source
// satisfies it.
type RateSource interface {
	ReadRaw(ctx context.Context) (imu.Rates, error)
	ReadCalibrated(ctx context.Context) (imu.Rates, error)
	Bias() imu.Rates
	SetBias(imu.Rates)
}

type Result struct {
	Bias     imu.Rates     `json:"bias"`
	Residual imu.Rates     `json:"residual"`
	Attempts int           `json:"attempts"`
	Samples  int           `json:"samples"`
	Elapsed  time.Duration `json:"elapsed"`
}

type Option func(*Calibrator)

func WithLogger(l *slog.Logger) Option {
	return func(c *Calibrator) { c.log = l }
}

// WithObserver registers a callback invoked synchronously on every state transition.
func WithObserver(fn func(Event)) Option {
	return func(c *Calibrator) { c.observers = append(c.observers, fn) }
}

// WithSleep replaces the pacing function used between sensor reads.
func WithSleep(fn func(context.Context, time.Duration) error) Option {
	return func(c *Calibrator) { c.sleep = fn }
}

// Calibrator estimates the standing bias of a stationary gyroscope.
// It blocks the calling goroutine and must finish before any control loop
// starts consuming calibrated rates from the same source.
type Calibrator struct {
	src       RateSource
	cfg       Config
	log       *slog.Logger
	observers []func(Event)
	sleep     func(context.Context, time.Duration) error
	state     State
}

func New(src RateSource, cfg Config, opts ...Option) *Calibrator {
	c := &Calibrator{
		src:   src,
		cfg:   cfg,
		log:   slog.New(slog.DiscardHandler),
		sleep: sleepContext,
		state: Uncalibrated,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

func (c *Calibrator) State() State { return c.state }

func (c *Calibrator) Config() Config { return c.cfg }

// Calibrate runs validation and raw re-estimation rounds until the bias
// corrected average of every axis is below the tolerance.
//
// The standing bias starts from zero. Each failed validation replaces it
// with a fresh average of raw samples, taken over a sample count that grows
// by IterationStep up to MaxIterations. On success the accepted bias stays
// in the source. On failure (attempt budget, ctx, Timeout or a read error)
// the source gets its previous bias back and the error is an *Error.
func (c *Calibrator) Calibrate(ctx context.Context) (Result, error) {
	if err := c.cfg.Validate(); err != nil {
		return Result{}, err
	}
	if c.cfg.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.cfg.Timeout)
		defer cancel()
	}

	start := time.Now()
	previous := c.src.Bias()
	c.src.SetBias(imu.Rates{})

	iterations := c.cfg.InitialIterations
	var (
		attempts int
		samples  int
		residual imu.Rates
	)

	c.log.Info("calibrating gyro rates, hold still",
		"samples", c.cfg.Samples, "tolerance", c.cfg.Tolerance)

	for {
		c.transition(Event{State: Validating, Attempt: attempts, Iterations: iterations, Average: c.src.Bias()})

		avg, err := c.average(ctx, c.cfg.Samples, c.src.ReadCalibrated)
		if err != nil {
			return Result{}, c.fail(previous, attempts, residual, err)
		}
		samples += c.cfg.Samples
		residual = avg

		c.log.Debug("validation average",
			"attempt", attempts, "roll", avg.Roll, "pitch", avg.Pitch, "yaw", avg.Yaw)

		if avg.Within(c.cfg.Tolerance) {
			res := Result{
				Bias:     c.src.Bias(),
				Residual: avg,
				Attempts: attempts,
				Samples:  samples,
				Elapsed:  time.Since(start),
			}
			c.transition(Event{State: Calibrated, Attempt: attempts, Iterations: iterations, Average: avg})
			c.log.Info("gyro calibrated",
				"attempts", attempts, "bias", res.Bias, "residual", avg, "elapsed", res.Elapsed)
			return res, nil
		}

		attempts++
		if c.cfg.MaxAttempts > 0 && attempts > c.cfg.MaxAttempts {
			return Result{}, c.fail(previous, attempts, residual, ErrNotConverged)
		}

		c.transition(Event{State: Reestimating, Attempt: attempts, Iterations: iterations, Average: avg})

		bias, err := c.average(ctx, iterations, c.src.ReadRaw)
		if err != nil {
			return Result{}, c.fail(previous, attempts, residual, err)
		}
		samples += iterations
		c.src.SetBias(bias)

		c.log.Debug("re-estimated bias",
			"attempt", attempts, "iterations", iterations, "bias", bias)

		iterations = c.cfg.nextIterations(iterations)
	}
}

func (c *Calibrator) average(ctx context.Context, n int, read func(context.Context) (imu.Rates, error)) (imu.Rates, error) {
	var sum imu.Rates
	for i := 0; i < n; i++ {
		r, err := read(ctx)
		if err != nil {
			return imu.Rates{}, err
		}
		sum = sum.Add(r)

		if err := c.sleep(ctx, c.cfg.Interval); err != nil {
			return imu.Rates{}, err
		}
	}
	return sum.Scale(1 / float64(n)), nil
}

func (c *Calibrator) fail(previous imu.Rates, attempts int, residual imu.Rates, err error) error {
	c.src.SetBias(previous)
	c.transition(Event{State: Failed, Attempt: attempts, Average: residual})

	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		err = fmt.Errorf("%w: %w", ErrCanceled, err)
	}
	c.log.Warn("gyro calibration failed", "attempts", attempts, "residual", residual, "err", err)

	return &Error{Attempts: attempts, Residual: residual, Wrapped: err}
}

func (c *Calibrator) transition(ev Event) {
	c.state = ev.State
	for _, fn := range c.observers {
		fn(ev)
	}
}

func sleepContext(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
