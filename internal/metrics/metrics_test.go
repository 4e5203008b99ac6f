package metrics

import (
	"math"
	"testing"

	"github.com/san-kum/flightcore/internal/imu"
	"github.com/san-kum/flightcore/internal/sim"
)

func TestControlEffort(t *testing.T) {
	m := NewControlEffort()
	m.Observe(sim.Sample{Output: imu.Rates{Roll: -1, Pitch: 2, Yaw: 3}})
	m.Observe(sim.Sample{Output: imu.Rates{Roll: 4}})

	if v := m.Value(); v != 5 {
		t.Errorf("expected mean effort 5, got %f", v)
	}

	m.Reset()
	if m.Value() != 0 {
		t.Error("expected zero effort after reset")
	}
}

func TestTrackingSkipsSettleWindow(t *testing.T) {
	m := NewTracking(0.1)
	sp := imu.Rates{Roll: 100}

	// Large error inside the settle window is ignored.
	m.Observe(sim.Sample{Time: 0, Setpoint: sp, Truth: imu.Rates{}})
	m.Observe(sim.Sample{Time: 0.05, Setpoint: sp, Truth: imu.Rates{Roll: 50}})
	if m.Value() != 0 {
		t.Errorf("expected no samples inside settle window, got %f", m.Value())
	}

	m.Observe(sim.Sample{Time: 0.2, Setpoint: sp, Truth: imu.Rates{Roll: 103}})
	if v, want := m.Value(), math.Sqrt(9.0/3); math.Abs(v-want) > 1e-12 {
		t.Errorf("expected rms %f, got %f", want, v)
	}

	// A new setpoint opens another settle window.
	m.Observe(sim.Sample{Time: 0.25, Setpoint: imu.Rates{}, Truth: imu.Rates{Roll: 90}})
	if v, want := m.Value(), math.Sqrt(9.0/3); math.Abs(v-want) > 1e-12 {
		t.Errorf("expected rms unchanged at %f, got %f", want, v)
	}
}

func TestSaturation(t *testing.T) {
	m := NewSaturation()
	lim := imu.Rates{Roll: 10, Pitch: 10, Yaw: 10}

	m.Observe(sim.Sample{Output: imu.Rates{Roll: 10}, Limit: lim})
	m.Observe(sim.Sample{Output: imu.Rates{Yaw: -10}, Limit: lim})
	m.Observe(sim.Sample{Output: imu.Rates{Pitch: 5}, Limit: lim})
	m.Observe(sim.Sample{Output: imu.Rates{}, Limit: lim})

	if v := m.Value(); v != 0.5 {
		t.Errorf("expected saturation 0.5, got %f", v)
	}
}

func TestDefaults(t *testing.T) {
	names := map[string]bool{}
	for _, m := range Defaults() {
		names[m.Name()] = true
	}
	for _, want := range []string{"tracking_rms", "control_effort", "saturation"} {
		if !names[want] {
			t.Errorf("missing default metric %s", want)
		}
	}
}
