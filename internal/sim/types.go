package sim

import (
	"math"

	"github.com/san-kum/flightcore/internal/imu"
)

// State is the plant state vector. For the airframe it holds the true
// roll, pitch and yaw rates.
type State []float64

func (s State) Clone() State {
	c := make(State, len(s))
	copy(c, s)
	return c
}

func (s State) IsValid() bool {
	for _, v := range s {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return false
		}
	}
	return true
}

type Control []float64

type Dynamics interface {
	Derivative(x State, u Control, t float64) State
	StateDim() int
	ControlDim() int
}

type Integrator interface {
	Step(dyn Dynamics, x State, u Control, t float64, dt float64) State
}

// Sample is what metrics and observers see on every control tick.
type Sample struct {
	Time     float64
	Micros   uint64
	Truth    imu.Rates
	Measured imu.Rates
	Setpoint imu.Rates
	Output   imu.Rates
	Limit    imu.Rates
}

type Metric interface {
	Name() string
	Observe(s Sample)
	Value() float64
	Reset()
}

type Observer interface {
	OnStep(s Sample)
}

type Config struct {
	Dt       float64
	Duration float64
	Seed     int64
}

type Result struct {
	Times      []float64
	Truth      []imu.Rates
	Measured   []imu.Rates
	Setpoints  []imu.Rates
	Outputs    []imu.Rates
	Metrics    map[string]float64
	StepsTaken int
}

// Micros converts simulation seconds to the controller's microsecond clock.
func Micros(t float64) uint64 {
	if t <= 0 {
		return 0
	}
	return uint64(math.Round(t * 1e6))
}
