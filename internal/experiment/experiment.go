// Package experiment assembles a simulated flight from a configuration:
// airframe, gyro, calibration and the closed control loop.
package experiment

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/san-kum/flightcore/internal/calib"
	"github.com/san-kum/flightcore/internal/config"
	"github.com/san-kum/flightcore/internal/control"
	"github.com/san-kum/flightcore/internal/imu"
	"github.com/san-kum/flightcore/internal/integrators"
	"github.com/san-kum/flightcore/internal/metrics"
	"github.com/san-kum/flightcore/internal/models"
	"github.com/san-kum/flightcore/internal/sim"
)

type Option func(*Experiment)

func WithLogger(l *slog.Logger) Option {
	return func(e *Experiment) { e.log = l }
}

// WithCalibrationOptions passes extra options to the gyro calibrator.
func WithCalibrationOptions(opts ...calib.Option) Option {
	return func(e *Experiment) { e.calOpts = append(e.calOpts, opts...) }
}

type Experiment struct {
	cfg     *config.Config
	log     *slog.Logger
	calOpts []calib.Option

	airframe  *models.Airframe
	plant     *sim.Plant
	axes      *control.Axes
	source    *imu.Source
	calSource *imu.Source
	simulator *sim.Simulator
}

func New(cfg *config.Config, opts ...Option) *Experiment {
	e := &Experiment{
		cfg: cfg,
		log: slog.New(slog.DiscardHandler),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Setup builds the airframe, the simulated gyro and the regulators.
//
// The flight gyro measures the plant. While the configured sensor motion is
// zero the plant is at rest before takeoff, so the same gyro is calibrated.
// Otherwise calibration reads a separate gyro that keeps spinning up.
func (e *Experiment) Setup() error {
	if err := e.cfg.Validate(); err != nil {
		return err
	}

	integ, err := integrators.New(e.cfg.Integrator)
	if err != nil {
		return err
	}

	e.airframe = e.cfg.NewAirframe()
	e.plant = sim.NewPlant(e.airframe.RestState())
	e.axes = control.NewAxes(e.cfg.ControlConfig())

	sensor := e.cfg.Sensor
	e.source = imu.NewSource(e.poll(models.NewPlantGyro(e.plant, sensor.Bias, sensor.Noise, e.cfg.Seed)))
	e.calSource = e.source
	if !e.cfg.Stationary() {
		moving := models.NewMovingGyro(sensor.Bias, sensor.Noise, sensor.Motion, e.cfg.Seed+1)
		e.calSource = imu.NewSource(e.poll(moving))
	}

	e.simulator = sim.New(e.airframe, integ, e.axes, e.source)
	e.simulator.SetLogger(e.log)
	for _, m := range metrics.Defaults() {
		e.simulator.AddMetric(m)
	}
	return nil
}

func (e *Experiment) poll(r imu.RawReader) imu.RawReader {
	if e.cfg.Sensor.PollEvery <= 1 {
		return r
	}
	return imu.Blocking(models.NewDataReadyGyro(r, e.cfg.Sensor.PollEvery), 0)
}

// Calibrate estimates the gyro bias and installs it in the flight source.
// On failure the flight source keeps its previous, uncalibrated bias.
func (e *Experiment) Calibrate(ctx context.Context) (calib.Result, error) {
	if e.simulator == nil {
		return calib.Result{}, fmt.Errorf("experiment not setup")
	}

	opts := append([]calib.Option{calib.WithLogger(e.log)}, e.calOpts...)
	res, err := calib.New(e.calSource, e.cfg.Calibration, opts...).Calibrate(ctx)
	if err != nil {
		return res, err
	}
	if e.calSource != e.source {
		e.source.SetBias(res.Bias)
	}
	return res, nil
}

// Run flies the configured setpoint profile. Calibrate must have been called
// for the measured rates to be bias free.
func (e *Experiment) Run(ctx context.Context) (*sim.Result, error) {
	if e.simulator == nil {
		return nil, fmt.Errorf("experiment not setup")
	}

	e.axes.Start(0)
	return e.simulator.Run(ctx, e.plant, e.cfg.Profile(), e.cfg.SimConfig())
}

func (e *Experiment) Simulator() *sim.Simulator { return e.simulator }
func (e *Experiment) Plant() *sim.Plant         { return e.plant }
func (e *Experiment) Axes() *control.Axes       { return e.axes }
func (e *Experiment) Source() *imu.Source       { return e.source }

// Attitude reads the fused attitude of the simulated airframe.
func (e *Experiment) Attitude() imu.AttitudeReader {
	return models.NewPlantAttitude(e.plant)
}

// Factory returns a sim.Factory that sets up and calibrates an independent
// copy of cfg for each seed.
func Factory(cfg *config.Config, opts ...Option) sim.Factory {
	return func(ctx context.Context, seed int64) (*sim.Simulator, *sim.Plant, error) {
		c := *cfg
		c.Seed = seed

		e := New(&c, opts...)
		if err := e.Setup(); err != nil {
			return nil, nil, err
		}
		if _, err := e.Calibrate(ctx); err != nil {
			return nil, nil, fmt.Errorf("seed %d: %w", seed, err)
		}
		e.axes.Start(0)
		return e.simulator, e.plant, nil
	}
}
