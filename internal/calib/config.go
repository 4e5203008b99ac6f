package calib

import (
	"fmt"
	"math"
	"time"
)

const (
	DefaultSamples           = 50
	DefaultTolerance         = 10.0
	DefaultInitialIterations = 300
	DefaultIterationStep     = 200
	DefaultMaxIterations     = 2000
	DefaultInterval          = 5 * time.Millisecond
	DefaultMaxAttempts       = 20
)

// Config tunes the calibration procedure. Rates are in sensor units.
type Config struct {
	// Samples is the number of calibrated readings averaged per validation.
	Samples int `yaml:"samples" json:"samples"`
	// Tolerance is the per-axis bound the averaged corrected rate must stay under.
	Tolerance float64 `yaml:"tolerance" json:"tolerance"`
	// InitialIterations is the raw sample count of the first bias re-estimation.
	InitialIterations int `yaml:"initial_iterations" json:"initial_iterations"`
	// IterationStep is added to the raw sample count after every failed validation.
	IterationStep int `yaml:"iteration_step" json:"iteration_step"`
	// MaxIterations caps the raw sample count.
	MaxIterations int `yaml:"max_iterations" json:"max_iterations"`
	// Interval paces consecutive sensor reads.
	Interval time.Duration `yaml:"interval" json:"interval"`
	// MaxAttempts bounds the number of failed validations; zero means unbounded,
	// in which case only ctx or Timeout can stop the procedure.
	MaxAttempts int `yaml:"max_attempts" json:"max_attempts"`
	// Timeout bounds the whole procedure; zero means no limit.
	Timeout time.Duration `yaml:"timeout" json:"timeout"`
}

func DefaultConfig() Config {
	return Config{
		Samples:           DefaultSamples,
		Tolerance:         DefaultTolerance,
		InitialIterations: DefaultInitialIterations,
		IterationStep:     DefaultIterationStep,
		MaxIterations:     DefaultMaxIterations,
		Interval:          DefaultInterval,
		MaxAttempts:       DefaultMaxAttempts,
	}
}

func (c Config) Validate() error {
	if c.Samples <= 0 {
		return fmt.Errorf("calib: samples must be positive, got %d", c.Samples)
	}
	if c.InitialIterations <= 0 {
		return fmt.Errorf("calib: initial iterations must be positive, got %d", c.InitialIterations)
	}
	if c.IterationStep < 0 {
		return fmt.Errorf("calib: iteration step must not be negative, got %d", c.IterationStep)
	}
	if c.MaxIterations < c.InitialIterations {
		return fmt.Errorf("calib: max iterations %d below initial iterations %d", c.MaxIterations, c.InitialIterations)
	}
	if c.Tolerance <= 0 || math.IsNaN(c.Tolerance) {
		return fmt.Errorf("calib: tolerance must be positive, got %f", c.Tolerance)
	}
	if c.Interval < 0 || c.MaxAttempts < 0 || c.Timeout < 0 {
		return fmt.Errorf("calib: interval, max attempts and timeout must not be negative")
	}
	return nil
}

// nextIterations grows the raw sample count by one step, never past MaxIterations.
func (c Config) nextIterations(n int) int {
	n += c.IterationStep
	if n > c.MaxIterations {
		return c.MaxIterations
	}
	return n
}
