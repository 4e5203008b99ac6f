package sim

import "github.com/san-kum/flightcore/internal/imu"

// Plant holds the true state of the simulated airframe. Simulated sensors
// read it; only the Simulator writes it.
type Plant struct {
	x State
}

func NewPlant(x0 State) *Plant {
	return &Plant{x: x0.Clone()}
}

func (p *Plant) State() State { return p.x.Clone() }

// Rates returns the true body rates held in the first three state entries.
func (p *Plant) Rates() imu.Rates {
	var r imu.Rates
	if len(p.x) > 0 {
		r.Roll = p.x[0]
	}
	if len(p.x) > 1 {
		r.Pitch = p.x[1]
	}
	if len(p.x) > 2 {
		r.Yaw = p.x[2]
	}
	return r
}

func (p *Plant) set(x State) { p.x = x }
