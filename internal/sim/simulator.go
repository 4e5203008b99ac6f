package sim

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/san-kum/flightcore/internal/control"
	"github.com/san-kum/flightcore/internal/imu"
)

// Simulator closes the loop between a simulated airframe, a rate source and
// the per-axis regulators. The source must already be calibrated.
type Simulator struct {
	dyn        Dynamics
	integrator Integrator
	axes       *control.Axes
	source     *imu.Source
	metrics    []Metric
	observers  []Observer
	log        *slog.Logger
}

func New(dyn Dynamics, integrator Integrator, axes *control.Axes, source *imu.Source) *Simulator {
	return &Simulator{
		dyn:        dyn,
		integrator: integrator,
		axes:       axes,
		source:     source,
		metrics:    make([]Metric, 0),
		observers:  make([]Observer, 0),
		log:        slog.New(slog.DiscardHandler),
	}
}

func (s *Simulator) AddMetric(m Metric)       { s.metrics = append(s.metrics, m) }
func (s *Simulator) AddObserver(o Observer)   { s.observers = append(s.observers, o) }
func (s *Simulator) SetLogger(l *slog.Logger) { s.log = l }
func (s *Simulator) Axes() *control.Axes      { return s.axes }
func (s *Simulator) Source() *imu.Source      { return s.source }

// Run flies the setpoint profile for cfg.Duration seconds at a fixed tick of cfg.Dt.
func (s *Simulator) Run(ctx context.Context, plant *Plant, profile Profile, cfg Config) (*Result, error) {
	if err := validateConfig(cfg); err != nil {
		return nil, err
	}

	steps := int(cfg.Duration/cfg.Dt + 0.5)
	result := &Result{
		Times:     make([]float64, 0, steps),
		Truth:     make([]imu.Rates, 0, steps),
		Measured:  make([]imu.Rates, 0, steps),
		Setpoints: make([]imu.Rates, 0, steps),
		Outputs:   make([]imu.Rates, 0, steps),
		Metrics:   make(map[string]float64),
	}

	for _, m := range s.metrics {
		m.Reset()
	}

	s.log.Info("control loop started", "dt", cfg.Dt, "duration", cfg.Duration, "steps", steps)

	for i := 0; i < steps; i++ {
		select {
		case <-ctx.Done():
			return result, ctx.Err()
		default:
		}

		t := float64(i) * cfg.Dt
		sample, err := s.Tick(ctx, plant, profile, t, cfg.Dt)
		if err != nil {
			s.log.Error("control loop stopped", "step", i, "t", t, "err", err)
			return result, &StepError{Step: i, Time: t, Wrapped: err}
		}

		result.Times = append(result.Times, sample.Time)
		result.Truth = append(result.Truth, sample.Truth)
		result.Measured = append(result.Measured, sample.Measured)
		result.Setpoints = append(result.Setpoints, sample.Setpoint)
		result.Outputs = append(result.Outputs, sample.Output)
		result.StepsTaken++
	}

	for _, m := range s.metrics {
		result.Metrics[m.Name()] = m.Value()
	}

	s.log.Info("control loop finished", "steps", result.StepsTaken)
	return result, nil
}

// Tick runs one control cycle at time t: read the calibrated rates, compute
// the regulator outputs and advance the plant by dt.
func (s *Simulator) Tick(ctx context.Context, plant *Plant, profile Profile, t, dt float64) (Sample, error) {
	measured, err := s.source.ReadCalibrated(ctx)
	if err != nil {
		return Sample{}, fmt.Errorf("read rates: %w", err)
	}
	if !measured.IsValid() {
		return Sample{}, fmt.Errorf("read rates: %w", ErrInvalidState)
	}

	now := Micros(t)
	setpoint := profile.At(t)
	out := s.axes.Update(now, measured, setpoint)

	sample := Sample{
		Time:     t,
		Micros:   now,
		Truth:    plant.Rates(),
		Measured: measured,
		Setpoint: setpoint,
		Output:   out,
		Limit:    s.axes.OutputLimits(),
	}

	for _, m := range s.metrics {
		m.Observe(sample)
	}
	for _, obs := range s.observers {
		obs.OnStep(sample)
	}

	u := Control{out.Roll, out.Pitch, out.Yaw}
	next := s.integrator.Step(s.dyn, plant.x, u, t, dt)
	if !next.IsValid() {
		return sample, ErrInvalidState
	}
	plant.set(next)

	return sample, nil
}

func validateConfig(cfg Config) error {
	if cfg.Dt <= 0 {
		return fmt.Errorf("%w: dt must be positive, got %f", ErrInvalidConfig, cfg.Dt)
	}
	if cfg.Duration <= 0 {
		return fmt.Errorf("%w: duration must be positive, got %f", ErrInvalidConfig, cfg.Duration)
	}
	return nil
}
