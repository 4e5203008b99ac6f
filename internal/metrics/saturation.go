package metrics

import "github.com/san-kum/flightcore/internal/sim"

// Saturation is the fraction of ticks where at least one axis output sat on
// its clamp.
type Saturation struct {
	name      string
	saturated int
	samples   int
}

func NewSaturation() *Saturation {
	return &Saturation{
		name: "saturation",
	}
}

func (m *Saturation) Name() string {
	return m.name
}

func (m *Saturation) Observe(s sim.Sample) {
	m.samples++
	out, lim := s.Output.Abs(), s.Limit.Abs()
	if out.Roll >= lim.Roll || out.Pitch >= lim.Pitch || out.Yaw >= lim.Yaw {
		m.saturated++
	}
}

func (m *Saturation) Value() float64 {
	if m.samples == 0 {
		return 0
	}
	return float64(m.saturated) / float64(m.samples)
}

func (m *Saturation) Reset() {
	m.saturated = 0
	m.samples = 0
}
