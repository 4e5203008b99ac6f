package metrics

import (
	"math"

	"github.com/san-kum/flightcore/internal/imu"
	"github.com/san-kum/flightcore/internal/sim"
)

// Tracking is the RMS error between the true rate and the setpoint over all
// axes, ignoring the first Settle seconds after each setpoint change.
type Tracking struct {
	name    string
	Settle  float64
	sumSq   float64
	samples int

	lastSetpoint imu.Rates
	changedAt    float64
	seen         bool
}

func NewTracking(settle float64) *Tracking {
	return &Tracking{
		name:   "tracking_rms",
		Settle: settle,
	}
}

func (m *Tracking) Name() string {
	return m.name
}

func (m *Tracking) Observe(s sim.Sample) {
	if !m.seen || s.Setpoint != m.lastSetpoint {
		m.changedAt = s.Time
		m.lastSetpoint = s.Setpoint
		m.seen = true
	}
	if s.Time-m.changedAt < m.Settle {
		return
	}
	e := s.Truth.Sub(s.Setpoint)
	m.sumSq += e.Roll*e.Roll + e.Pitch*e.Pitch + e.Yaw*e.Yaw
	m.samples++
}

func (m *Tracking) Value() float64 {
	if m.samples == 0 {
		return 0
	}
	return math.Sqrt(m.sumSq / float64(3*m.samples))
}

func (m *Tracking) Reset() {
	m.sumSq = 0
	m.samples = 0
	m.seen = false
	m.changedAt = 0
}
