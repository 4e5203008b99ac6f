package control

import (
	"fmt"

	"github.com/san-kum/flightcore/internal/imu"
)

// AxisConfig is the startup configuration of one axis regulator.
type AxisConfig struct {
	Gains         Gains
	IntegralLimit float64
	OutputLimit   float64
}

type AxesConfig struct {
	Roll  AxisConfig
	Pitch AxisConfig
	Yaw   AxisConfig
}

// Axes runs one PID per body axis.
type Axes struct {
	Roll  *PID
	Pitch *PID
	Yaw   *PID
}

func NewAxes(cfg AxesConfig) *Axes {
	mk := func(c AxisConfig) *PID {
		return NewPID(c.Gains, c.IntegralLimit, c.OutputLimit)
	}
	return &Axes{
		Roll:  mk(cfg.Roll),
		Pitch: mk(cfg.Pitch),
		Yaw:   mk(cfg.Yaw),
	}
}

// Update computes all three outputs for one control tick.
func (a *Axes) Update(now uint64, measured, setpoint imu.Rates) imu.Rates {
	return imu.Rates{
		Roll:  a.Roll.Compute(now, measured.Roll, setpoint.Roll),
		Pitch: a.Pitch.Compute(now, measured.Pitch, setpoint.Pitch),
		Yaw:   a.Yaw.Compute(now, measured.Yaw, setpoint.Yaw),
	}
}

func (a *Axes) Start(now uint64) {
	for _, p := range a.all() {
		p.Start(now)
	}
}

func (a *Axes) SetEnabled(enable bool) {
	for _, p := range a.all() {
		p.SetEnabled(enable)
	}
}

func (a *Axes) IntegralReset() {
	for _, p := range a.all() {
		p.IntegralReset()
	}
}

// Axis looks up a regulator by name: "roll", "pitch" or "yaw".
func (a *Axes) Axis(name string) (*PID, error) {
	switch name {
	case "roll":
		return a.Roll, nil
	case "pitch":
		return a.Pitch, nil
	case "yaw":
		return a.Yaw, nil
	}
	return nil, fmt.Errorf("%w: %q", ErrUnknownAxis, name)
}

// OutputLimits returns the output clamp of each axis.
func (a *Axes) OutputLimits() imu.Rates {
	_, r := a.Roll.Limits()
	_, p := a.Pitch.Limits()
	_, y := a.Yaw.Limits()
	return imu.Rates{Roll: r, Pitch: p, Yaw: y}
}

func (a *Axes) all() [3]*PID {
	return [3]*PID{a.Roll, a.Pitch, a.Yaw}
}
