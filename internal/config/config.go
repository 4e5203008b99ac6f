package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/san-kum/flightcore/internal/calib"
	"github.com/san-kum/flightcore/internal/control"
	"github.com/san-kum/flightcore/internal/imu"
	"github.com/san-kum/flightcore/internal/models"
	"github.com/san-kum/flightcore/internal/sim"
)

const (
	DefaultDt            = 0.002
	DefaultDuration      = 5.0
	DefaultIntegrator    = "rk4"
	DefaultKp            = 0.5
	DefaultKi            = 2e-6
	DefaultKd            = 200.0
	DefaultIntegralLimit = 200.0
	DefaultOutputLimit   = 500.0
	DefaultNoise         = 20.0
)

// DefaultBias is the gyro offset of the reference MPU6050 board, in raw counts.
var DefaultBias = imu.Rates{Roll: 105, Pitch: 95, Yaw: -21}

type Config struct {
	Dt          float64        `yaml:"dt"`
	Duration    float64        `yaml:"duration"`
	Seed        int64          `yaml:"seed"`
	Integrator  string         `yaml:"integrator"`
	Axes        AxesConfig     `yaml:"axes"`
	Calibration calib.Config   `yaml:"calibration"`
	Sensor      SensorConfig   `yaml:"sensor"`
	Airframe    AirframeConfig `yaml:"airframe"`
	Setpoints   []sim.Step     `yaml:"setpoints"`
}

// AxisConfig holds the regulator parameters of one axis. Ki and Kd are per
// microsecond of elapsed controller time.
type AxisConfig struct {
	Kp            float64 `yaml:"kp"`
	Ki            float64 `yaml:"ki"`
	Kd            float64 `yaml:"kd"`
	IntegralLimit float64 `yaml:"integral_limit"`
	OutputLimit   float64 `yaml:"output_limit"`
}

type AxesConfig struct {
	Roll  AxisConfig `yaml:"roll"`
	Pitch AxisConfig `yaml:"pitch"`
	Yaw   AxisConfig `yaml:"yaw"`
}

// SensorConfig describes the simulated gyro.
type SensorConfig struct {
	Bias  imu.Rates `yaml:"bias"`
	Noise float64   `yaml:"noise"`
	// Motion is a rate increase per read; non-zero simulates an airframe
	// that is not held still during calibration.
	Motion imu.Rates `yaml:"motion"`
	// PollEvery makes the gyro report data-ready only on every n-th poll.
	PollEvery int `yaml:"poll_every"`
}

type AirframeConfig struct {
	Roll  models.AxisParams `yaml:"roll"`
	Pitch models.AxisParams `yaml:"pitch"`
	Yaw   models.AxisParams `yaml:"yaw"`
}

func defaultAxis() AxisConfig {
	return AxisConfig{
		Kp:            DefaultKp,
		Ki:            DefaultKi,
		Kd:            DefaultKd,
		IntegralLimit: DefaultIntegralLimit,
		OutputLimit:   DefaultOutputLimit,
	}
}

func DefaultConfig() *Config {
	af := models.NewAirframe()
	yaw := defaultAxis()
	yaw.Kd = 0

	return &Config{
		Dt:          DefaultDt,
		Duration:    DefaultDuration,
		Integrator:  DefaultIntegrator,
		Axes:        AxesConfig{Roll: defaultAxis(), Pitch: defaultAxis(), Yaw: yaw},
		Calibration: calib.DefaultConfig(),
		Sensor: SensorConfig{
			Bias:  DefaultBias,
			Noise: DefaultNoise,
		},
		Airframe: AirframeConfig{Roll: af.Roll, Pitch: af.Pitch, Yaw: af.Yaw},
		Setpoints: []sim.Step{
			{At: 0.5, Value: imu.Rates{Roll: 400}},
			{At: 1.5, Value: imu.Rates{Roll: 400, Pitch: -200}},
			{At: 2.5, Value: imu.Rates{Pitch: -200, Yaw: 150}},
			{At: 3.5, Value: imu.Rates{}},
		},
	}
}

func Load(path string) (*Config, error) {
	return LoadOver(path, DefaultConfig())
}

// LoadOver reads path on top of base, so keys missing from the file keep
// their base values. base is modified and returned.
func LoadOver(path string, base *Config) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	cfg := base
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return cfg, nil
}

func Save(path string, cfg *Config) error {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}

func (c *Config) Validate() error {
	if c.Dt <= 0 {
		return fmt.Errorf("dt must be positive, got %f", c.Dt)
	}
	if c.Duration <= 0 {
		return fmt.Errorf("duration must be positive, got %f", c.Duration)
	}
	if c.Sensor.Noise < 0 {
		return fmt.Errorf("sensor noise must not be negative, got %f", c.Sensor.Noise)
	}
	return c.Calibration.Validate()
}

func (a AxisConfig) control() control.AxisConfig {
	return control.AxisConfig{
		Gains:         control.Gains{P: a.Kp, I: a.Ki, D: a.Kd},
		IntegralLimit: a.IntegralLimit,
		OutputLimit:   a.OutputLimit,
	}
}

// ControlConfig converts the axes section into regulator construction parameters.
func (c *Config) ControlConfig() control.AxesConfig {
	return control.AxesConfig{
		Roll:  c.Axes.Roll.control(),
		Pitch: c.Axes.Pitch.control(),
		Yaw:   c.Axes.Yaw.control(),
	}
}

func (c *Config) Profile() sim.Profile {
	return sim.NewProfile(c.Setpoints...)
}

func (c *Config) NewAirframe() *models.Airframe {
	return &models.Airframe{Roll: c.Airframe.Roll, Pitch: c.Airframe.Pitch, Yaw: c.Airframe.Yaw}
}

func (c *Config) SimConfig() sim.Config {
	return sim.Config{Dt: c.Dt, Duration: c.Duration, Seed: c.Seed}
}

// Stationary reports whether the simulated gyro is held still.
func (c *Config) Stationary() bool {
	return c.Sensor.Motion == imu.Rates{}
}
