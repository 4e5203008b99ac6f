package models

import (
	"context"
	"math"

	"github.com/san-kum/flightcore/internal/imu"
	"github.com/san-kum/flightcore/internal/sim"
)

const (
	// GyroLSBPerDPS is the raw gyro resolution at the ±250 °/s range.
	GyroLSBPerDPS = 131.0

	// RadPerLSB converts a raw rate count into radians per second.
	RadPerLSB = math.Pi / 180 / GyroLSBPerDPS
)

// AxisParams describes the rate response of one body axis.
type AxisParams struct {
	Inertia   float64 `yaml:"inertia" json:"inertia"`
	Authority float64 `yaml:"authority" json:"authority"`
	Drag      float64 `yaml:"drag" json:"drag"`
}

// Airframe is a decoupled rigid-body rate model. State is
// [roll rate, pitch rate, yaw rate, roll, pitch, yaw]: rates in raw gyro
// counts, angles in radians. Control is one regulator output per axis.
//
// A positive regulator output decelerates a positive rate, which matches the
// measured-minus-setpoint error of the control package.
type Airframe struct {
	Roll, Pitch, Yaw AxisParams
}

func NewAirframe() *Airframe {
	return &Airframe{
		Roll:  AxisParams{Inertia: 1.0, Authority: 20.0, Drag: 2.0},
		Pitch: AxisParams{Inertia: 1.4, Authority: 20.0, Drag: 2.0},
		Yaw:   AxisParams{Inertia: 2.5, Authority: 12.0, Drag: 3.0},
	}
}

func (a *Airframe) StateDim() int   { return 6 }
func (a *Airframe) ControlDim() int { return 3 }

func (a *Airframe) Derivative(x sim.State, u sim.Control, t float64) sim.State {
	dx := make(sim.State, 6)
	if len(x) < 3 {
		return dx
	}

	axes := [3]AxisParams{a.Roll, a.Pitch, a.Yaw}
	for i, p := range axes {
		var ui float64
		if i < len(u) {
			ui = u[i]
		}
		inertia := p.Inertia
		if inertia <= 0 {
			inertia = 1
		}
		dx[i] = (-p.Authority*ui - p.Drag*x[i]) / inertia
		dx[i+3] = x[i] * RadPerLSB
	}
	return dx
}

// RestState is the airframe sitting still and level.
func (a *Airframe) RestState() sim.State {
	return make(sim.State, a.StateDim())
}

// PlantAttitude reads the integrated attitude of a simulated plant, the way a
// motion processor would report fused Euler angles.
type PlantAttitude struct {
	plant *sim.Plant
}

func NewPlantAttitude(plant *sim.Plant) *PlantAttitude {
	return &PlantAttitude{plant: plant}
}

func (p *PlantAttitude) ReadAttitude(ctx context.Context) (imu.Attitude, error) {
	if err := ctx.Err(); err != nil {
		return imu.Attitude{}, err
	}
	x := p.plant.State()
	if len(x) < 6 {
		return imu.AttitudeFromEuler(0, 0, 0), nil
	}
	return imu.AttitudeFromEuler(wrapAngle(x[5]), wrapAngle(x[4]), wrapAngle(x[3])), nil
}

// wrapAngle maps an angle onto (-π, π].
func wrapAngle(a float64) float64 {
	a = math.Mod(a+math.Pi, 2*math.Pi)
	if a <= 0 {
		a += 2 * math.Pi
	}
	return a - math.Pi
}
