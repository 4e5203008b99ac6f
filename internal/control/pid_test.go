package control

import (
	"errors"
	"math"
	"math/rand"
	"testing"
)

func TestPIDScenario(t *testing.T) {
	pid := NewPID(Gains{P: 2}, 100, 50)

	if u := pid.Compute(0, 10, 0); u != 20 {
		t.Errorf("first tick: expected 20, got %f", u)
	}
	if u := pid.Compute(1000, 100, 0); u != 50 {
		t.Errorf("second tick: expected clamp to 50, got %f", u)
	}
}

func TestPIDErrorSign(t *testing.T) {
	pid := NewPID(Gains{P: 1}, 0, 100)
	if u := pid.Compute(0, 3, 5); u != -2 {
		t.Errorf("expected measured-setpoint = -2, got %f", u)
	}
}

func TestPIDProportionalOnly(t *testing.T) {
	tests := []struct {
		name              string
		measured, target  float64
		limit, want       float64
	}{
		{"inside", 4, 1, 10, 3},
		{"negative", -4, 1, 10, -5},
		{"clamp high", 40, 0, 10, 10},
		{"clamp low", -40, 0, 10, -10},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			pid := NewPID(Gains{P: 1}, 100, tt.limit)
			now := uint64(0)
			for i := 0; i < 5; i++ {
				if u := pid.Compute(now, tt.measured, tt.target); u != tt.want {
					t.Errorf("tick %d: expected %f, got %f", i, tt.want, u)
				}
				now += 250
			}
		})
	}
}

func TestPIDFirstCallSkipsIntegralAndDerivative(t *testing.T) {
	pid := NewPID(Gains{P: 1, I: 1, D: 1000}, 1e9, 1e9)

	u := pid.Compute(5_000_000, 2, 0)
	if u != 2 {
		t.Errorf("expected proportional-only output 2, got %f", u)
	}
	if pid.Integral() != 0 {
		t.Errorf("expected no integral on first call, got %f", pid.Integral())
	}
}

func TestPIDStartPrimesTimeBase(t *testing.T) {
	pid := NewPID(Gains{I: 0.5}, 1e9, 1e9)
	pid.Start(100)

	u := pid.Compute(110, 2, 0)
	// 10 ticks * error 2 * ki 0.5
	if math.Abs(u-10) > 1e-12 {
		t.Errorf("expected integral output 10, got %f", u)
	}
}

func TestPIDZeroElapsed(t *testing.T) {
	pid := NewPID(Gains{P: 1, I: 1, D: 1}, 1e9, 1e9)
	pid.Compute(100, 1, 0)
	pid.Compute(200, 2, 0)
	before := pid.Integral()

	u := pid.Compute(200, 5, 0)
	if math.IsNaN(u) || math.IsInf(u, 0) {
		t.Fatalf("expected finite output on repeated timestamp, got %f", u)
	}
	if pid.Integral() != before {
		t.Errorf("integral changed on zero elapsed: %f -> %f", before, pid.Integral())
	}
	if want := 5 + before; u != want {
		t.Errorf("expected p + integral = %f, got %f", want, u)
	}
}

func TestPIDBackwardsTimeKeepsTimeBase(t *testing.T) {
	pid := NewPID(Gains{I: 1}, 1e9, 1e9)
	pid.Compute(1000, 1, 0)
	pid.Compute(500, 1, 0)

	pid.Compute(1010, 1, 0)
	if got := pid.Integral(); got != 10 {
		t.Errorf("expected integral over 1000..1010 only, got %f", got)
	}
}

func TestPIDDerivativeOnError(t *testing.T) {
	pid := NewPID(Gains{D: 2}, 0, 1e9)
	pid.Compute(0, 1, 0)

	u := pid.Compute(4, 9, 0)
	// (9-1)/4 * 2
	if u != 4 {
		t.Errorf("expected derivative output 4, got %f", u)
	}
}

func TestPIDIntegralBounded(t *testing.T) {
	rng := rand.New(rand.NewSource(7))
	pid := NewPID(Gains{P: 0.3, I: 0.05, D: 0.01}, 25, 40)

	now := uint64(0)
	for i := 0; i < 5000; i++ {
		now += uint64(rng.Intn(5000))
		measured := rng.NormFloat64() * 500
		setpoint := rng.NormFloat64() * 100

		u := pid.Compute(now, measured, setpoint)

		if math.Abs(pid.Integral()) > 25 {
			t.Fatalf("step %d: integral %f exceeds limit", i, pid.Integral())
		}
		if math.Abs(u) > 40 {
			t.Fatalf("step %d: output %f exceeds limit", i, u)
		}
	}
}

func TestPIDIntegralReset(t *testing.T) {
	a := NewPID(Gains{P: 1, I: 0.01}, 1000, 1000)
	a.Compute(0, 50, 0)
	a.Compute(1000, 50, 0)
	a.Compute(2000, 50, 0)
	if a.Integral() == 0 {
		t.Fatal("expected windup before reset")
	}

	a.IntegralReset()
	got := a.Compute(3000, 2, 0)

	b := NewPID(Gains{P: 1, I: 0.01}, 1000, 1000)
	b.Start(2000)
	want := b.Compute(3000, 2, 0)

	if got != want {
		t.Errorf("expected output independent of prior windup: %f vs %f", got, want)
	}
}

func TestPIDGainMutators(t *testing.T) {
	pid := NewPID(Gains{P: 1, I: 0.1, D: 0.5}, 100, 1000)
	pid.Compute(0, 1, 0)
	pid.Compute(10, 2, 0)

	integral, lastErr := pid.Integral(), pid.LastError()

	pid.SetP(3)
	pid.SetI(0.2)
	pid.SetD(0)

	if pid.Integral() != integral || pid.LastError() != lastErr {
		t.Error("gain mutation touched controller state")
	}
	want := Gains{P: 3, I: 0.2, D: 0}
	if pid.Gains() != want {
		t.Errorf("expected gains %+v, got %+v", want, pid.Gains())
	}

	// Next tick: p=3*2, integral += 10*2*0.2, derivative 0.
	u := pid.Compute(20, 2, 0)
	if expected := 6 + integral + 4; math.Abs(u-expected) > 1e-12 {
		t.Errorf("expected %f, got %f", expected, u)
	}
}

func TestPIDDisabledPassthrough(t *testing.T) {
	pid := NewPID(Gains{P: 1, I: 1}, 100, 10)
	pid.Compute(0, 1, 0)
	pid.Compute(5, 1, 0)
	integral := pid.Integral()

	pid.SetEnabled(false)
	if pid.Enabled() {
		t.Fatal("expected disabled")
	}
	if u := pid.Compute(10, 3, 7); u != 7 {
		t.Errorf("expected setpoint passthrough 7, got %f", u)
	}
	if u := pid.Compute(15, 3, 70); u != 10 {
		t.Errorf("expected clamped passthrough 10, got %f", u)
	}
	if pid.Integral() != integral || pid.LastError() != 1 {
		t.Error("passthrough mutated controller state")
	}

	pid.SetEnabled(true)
	// History was dropped: proportional plus carried integral only.
	if u := pid.Compute(1_000_000, 2, 0); u != 2+integral {
		t.Errorf("expected %f after re-enable, got %f", 2+integral, u)
	}
}

func TestPIDSetParam(t *testing.T) {
	pid := NewPID(Gains{}, 10, 10)

	for name, v := range map[string]float64{"kp": 1, "ki": 2, "kd": 3, "integral_limit": 4, "output_limit": 5} {
		if err := pid.SetParam(name, v); err != nil {
			t.Fatalf("SetParam(%s): %v", name, err)
		}
	}

	params := pid.GetParams()
	if params["kp"] != 1 || params["ki"] != 2 || params["kd"] != 3 {
		t.Errorf("unexpected gains: %v", params)
	}
	if i, o := pid.Limits(); i != 4 || o != 5 {
		t.Errorf("unexpected limits: %f %f", i, o)
	}

	if err := pid.SetParam("bogus", 1); !errors.Is(err, ErrUnknownParam) {
		t.Errorf("expected ErrUnknownParam, got %v", err)
	}
}

func TestPIDSetLimitsReclampsIntegral(t *testing.T) {
	pid := NewPID(Gains{I: 1}, 100, 1000)
	pid.Start(0)
	pid.Compute(50, 1, 0)

	pid.SetLimits(10, 1000)
	if pid.Integral() != 10 {
		t.Errorf("expected integral re-clamped to 10, got %f", pid.Integral())
	}
}

func TestPIDNonFiniteInput(t *testing.T) {
	tests := []struct {
		name               string
		i                  float64
		measured, setpoint float64
		want               float64
	}{
		{"inf measured no integral", 0, math.Inf(1), 0, 50},
		{"inf measured with integral", 0.001, math.Inf(1), 0, 50},
		{"inf setpoint", 0.001, 1, math.Inf(1), -50},
		{"nan measured no integral", 0, math.NaN(), 0, 0},
		{"nan measured with integral", 0.001, math.NaN(), 0, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			pid := NewPID(Gains{P: 1, I: tt.i, D: 0.5}, 10, 50)
			pid.Start(0)
			pid.Compute(1000, 1, 0)
			integral := pid.Integral()

			u := pid.Compute(2000, tt.measured, tt.setpoint)
			if math.IsNaN(u) || math.Abs(u) > 50 {
				t.Fatalf("glitch tick: output %f outside ±50", u)
			}
			if u != tt.want {
				t.Errorf("glitch tick: expected %f, got %f", tt.want, u)
			}
			if pid.Integral() != integral {
				t.Errorf("integral changed on glitch: %f -> %f", integral, pid.Integral())
			}
			if pid.LastError() != 1 {
				t.Errorf("glitch recorded as last error: %f", pid.LastError())
			}

			for k := uint64(3); k <= 5; k++ {
				u := pid.Compute(k*1000, 1, 0)
				if math.IsNaN(u) || math.Abs(u) > 50 {
					t.Errorf("tick %d: output %f outside ±50", k, u)
				}
				if math.IsNaN(pid.Integral()) || math.IsInf(pid.Integral(), 0) {
					t.Errorf("tick %d: integral %f not finite", k, pid.Integral())
				}
			}
		})
	}
}

func TestPIDNaNOnFreshController(t *testing.T) {
	pid := NewPID(Gains{P: 1, I: 1, D: 1}, 10, 50)
	if u := pid.Compute(0, math.NaN(), 0); u != 0 {
		t.Errorf("expected 0 for NaN input, got %f", u)
	}
	if u := pid.Compute(1000, 2, 0); u != 2 {
		t.Errorf("expected proportional-only output 2 after NaN, got %f", u)
	}
}

func TestClampNaN(t *testing.T) {
	if v := clamp(math.NaN(), 10); v != 0 {
		t.Errorf("expected NaN to clamp to 0, got %f", v)
	}
}
