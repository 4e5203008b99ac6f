package sim

import (
	"sort"

	"github.com/san-kum/flightcore/internal/imu"
)

// Step is a setpoint that takes effect at time At (seconds) and holds until
// the next one.
type Step struct {
	At    float64   `yaml:"at" json:"at"`
	Value imu.Rates `yaml:"value" json:"value"`
}

// Profile is a piecewise constant setpoint schedule.
type Profile []Step

func NewProfile(steps ...Step) Profile {
	p := make(Profile, len(steps))
	copy(p, steps)
	sort.SliceStable(p, func(i, j int) bool { return p[i].At < p[j].At })
	return p
}

// At returns the setpoint active at time t; zero before the first step.
func (p Profile) At(t float64) imu.Rates {
	var v imu.Rates
	for _, s := range p {
		if s.At > t {
			break
		}
		v = s.Value
	}
	return v
}
