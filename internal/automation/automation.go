// Package automation runs batches of flights that differ in one regulator
// parameter. It reports the resulting metrics and leaves the choice of gains
// to the operator.
package automation

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/san-kum/flightcore/internal/analysis"
	"github.com/san-kum/flightcore/internal/config"
	"github.com/san-kum/flightcore/internal/experiment"
)

// Sweep varies Param on Axis over NumSteps evenly spaced values in [Min, Max].
type Sweep struct {
	Axis     string  `yaml:"axis"`
	Param    string  `yaml:"param"`
	Min      float64 `yaml:"min"`
	Max      float64 `yaml:"max"`
	NumSteps int     `yaml:"steps"`
}

type SweepResult struct {
	Value   float64
	Metrics map[string]float64
	// Oscillation is the dominant frequency of the tracking error on Axis.
	Oscillation float64
}

func (s Sweep) values() []float64 {
	if s.NumSteps <= 1 {
		return []float64{s.Min}
	}
	step := (s.Max - s.Min) / float64(s.NumSteps-1)
	vals := make([]float64, s.NumSteps)
	for i := range vals {
		vals[i] = s.Min + float64(i)*step
	}
	return vals
}

// RunSweep flies base once per sweep value. Every flight uses the same seed,
// so the runs differ only in the swept parameter.
func RunSweep(ctx context.Context, base *config.Config, sweep Sweep, log *slog.Logger, opts ...experiment.Option) ([]SweepResult, error) {
	if log == nil {
		log = slog.New(slog.DiscardHandler)
	}

	vals := sweep.values()
	results := make([]SweepResult, 0, len(vals))

	for i, v := range vals {
		cfg := *base
		exp := experiment.New(&cfg, opts...)
		if err := exp.Setup(); err != nil {
			return results, err
		}

		pid, err := exp.Axes().Axis(sweep.Axis)
		if err != nil {
			return results, err
		}
		if err := pid.SetParam(sweep.Param, v); err != nil {
			return results, err
		}

		if _, err := exp.Calibrate(ctx); err != nil {
			return results, fmt.Errorf("sweep %s=%g: calibration: %w", sweep.Param, v, err)
		}
		result, err := exp.Run(ctx)
		if err != nil {
			return results, fmt.Errorf("sweep %s=%g: %w", sweep.Param, v, err)
		}

		residual := make([]float64, len(result.Truth))
		for j := range result.Truth {
			residual[j] = result.Truth[j].Sub(result.Setpoints[j]).Slice()[axisIndex(sweep.Axis)]
		}
		freq, _ := analysis.DominantFrequency(residual, cfg.Dt)

		results = append(results, SweepResult{
			Value:       v,
			Metrics:     result.Metrics,
			Oscillation: freq,
		})

		log.Info("sweep step done", "step", i+1, "of", len(vals), "param", sweep.Param, "value", v)
	}

	return results, nil
}

func axisIndex(name string) int {
	switch name {
	case "pitch":
		return 1
	case "yaw":
		return 2
	}
	return 0
}
