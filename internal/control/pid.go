package control

import (
	"fmt"
	"math"
)

// Gains holds the proportional, integral and derivative gains of a PID.
// Any value is accepted, including negative ones.
type Gains struct {
	P float64
	I float64
	D float64
}

// PID is a single-axis rate regulator working on integer timestamps
// (microseconds in this repository, but any fixed unit works).
//
// The error is measured minus setpoint, so gains are tuned against that
// sign. The integral is hard clamped to ±integralLimit after every update
// and the output to ±outputLimit.
type PID struct {
	gains         Gains
	integralLimit float64
	outputLimit   float64

	integral  float64
	lastError float64
	lastTime  uint64
	hasTime   bool
	hasError  bool

	enabled bool
}

func NewPID(gains Gains, integralLimit, outputLimit float64) *PID {
	return &PID{
		gains:         gains,
		integralLimit: integralLimit,
		outputLimit:   outputLimit,
		enabled:       true,
	}
}

// Start primes the time base so the next Compute integrates over now..next
// instead of returning a proportional-only output.
func (p *PID) Start(now uint64) {
	p.lastTime = now
	p.hasTime = true
	p.hasError = false
}

// Compute returns the clamped control output for one tick.
//
// Without a time base (fresh controller, or just re-enabled) only the
// proportional term is applied. A tick whose timestamp does not advance
// past the previous one skips both the integral update and the derivative.
// A disabled controller passes the clamped setpoint through and leaves its
// state untouched. A tick whose error is NaN or infinite yields the clamped
// proportional output on top of the held integral and is not recorded.
func (p *PID) Compute(now uint64, measured, setpoint float64) float64 {
	if !p.enabled {
		return clamp(setpoint, p.outputLimit)
	}

	err := measured - setpoint
	out := p.gains.P * err
	if math.IsNaN(err) || math.IsInf(err, 0) {
		return clamp(out+p.integral, p.outputLimit)
	}

	if p.hasTime && now > p.lastTime {
		elapsed := float64(now - p.lastTime)

		p.integral = clamp(p.integral+elapsed*err*p.gains.I, p.integralLimit)

		if p.hasError {
			out += ((err - p.lastError) / elapsed) * p.gains.D
		}
	}
	out += p.integral

	p.lastError = err
	if !p.hasTime || now > p.lastTime {
		p.lastTime = now
	}
	p.hasTime = true
	p.hasError = true

	return clamp(out, p.outputLimit)
}

func (p *PID) SetP(v float64) { p.gains.P = v }
func (p *PID) SetI(v float64) { p.gains.I = v }
func (p *PID) SetD(v float64) { p.gains.D = v }

func (p *PID) SetGains(g Gains) { p.gains = g }
func (p *PID) Gains() Gains     { return p.gains }

// IntegralReset drops any accumulated windup, e.g. before an abrupt setpoint change.
func (p *PID) IntegralReset() {
	p.integral = 0
}

// SetEnabled switches between regulation and setpoint passthrough. Coming
// back from passthrough forgets the time base and error history, so the
// first regulated tick is proportional only.
func (p *PID) SetEnabled(enable bool) {
	if enable && !p.enabled {
		p.hasTime = false
		p.hasError = false
	}
	p.enabled = enable
}

func (p *PID) Enabled() bool      { return p.enabled }
func (p *PID) Integral() float64  { return p.integral }
func (p *PID) LastError() float64 { return p.lastError }

func (p *PID) Limits() (integral, output float64) {
	return p.integralLimit, p.outputLimit
}

// SetLimits replaces both clamps. The integral is re-clamped immediately.
func (p *PID) SetLimits(integral, output float64) {
	p.integralLimit = integral
	p.outputLimit = output
	p.integral = clamp(p.integral, integral)
}

// GetParams returns tunable parameters for live adjustment
func (p *PID) GetParams() map[string]float64 {
	return map[string]float64{
		"kp":             p.gains.P,
		"ki":             p.gains.I,
		"kd":             p.gains.D,
		"integral_limit": p.integralLimit,
		"output_limit":   p.outputLimit,
	}
}

// SetParam adjusts a PID parameter
func (p *PID) SetParam(name string, value float64) error {
	switch name {
	case "kp":
		p.SetP(value)
	case "ki":
		p.SetI(value)
	case "kd":
		p.SetD(value)
	case "integral_limit":
		p.SetLimits(value, p.outputLimit)
	case "output_limit":
		p.SetLimits(p.integralLimit, value)
	default:
		return fmt.Errorf("%w: %q", ErrUnknownParam, name)
	}
	return nil
}

// clamp bounds v to ±limit. NaN maps to zero.
func clamp(v, limit float64) float64 {
	if math.IsNaN(v) {
		return 0
	}
	if v > limit {
		return limit
	}
	if v < -limit {
		return -limit
	}
	return v
}
