package imu

import "math"

// Rates is an angular-rate sample, one value per body axis.
type Rates struct {
	Roll  float64 `json:"roll" yaml:"roll"`
	Pitch float64 `json:"pitch" yaml:"pitch"`
	Yaw   float64 `json:"yaw" yaml:"yaw"`
}

func (r Rates) Add(o Rates) Rates {
	return Rates{r.Roll + o.Roll, r.Pitch + o.Pitch, r.Yaw + o.Yaw}
}

func (r Rates) Sub(o Rates) Rates {
	return Rates{r.Roll - o.Roll, r.Pitch - o.Pitch, r.Yaw - o.Yaw}
}

func (r Rates) Scale(f float64) Rates {
	return Rates{r.Roll * f, r.Pitch * f, r.Yaw * f}
}

func (r Rates) Abs() Rates {
	return Rates{math.Abs(r.Roll), math.Abs(r.Pitch), math.Abs(r.Yaw)}
}

// Max returns the largest absolute component.
func (r Rates) Max() float64 {
	a := r.Abs()
	return math.Max(a.Roll, math.Max(a.Pitch, a.Yaw))
}

// Within reports whether every axis is strictly below tol in magnitude.
func (r Rates) Within(tol float64) bool {
	a := r.Abs()
	return a.Roll < tol && a.Pitch < tol && a.Yaw < tol
}

func (r Rates) Slice() []float64 {
	return []float64{r.Roll, r.Pitch, r.Yaw}
}

func (r Rates) IsValid() bool {
	for _, v := range r.Slice() {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return false
		}
	}
	return true
}

// Attitude is an absolute orientation sample in scaled units, see AttitudeFromEuler.
type Attitude struct {
	Roll  float64 `json:"roll"`
	Pitch float64 `json:"pitch"`
	Yaw   float64 `json:"yaw"`
}

// AttitudeScale is the full-turn range of an Attitude component.
const AttitudeScale = 1000.0

// AttitudeFromEuler maps yaw/pitch/roll angles in radians, each in (-π, π],
// onto [0, AttitudeScale] so that a level, north facing airframe reads
// AttitudeScale/2 on every axis.
func AttitudeFromEuler(yaw, pitch, roll float64) Attitude {
	scale := func(a float64) float64 {
		return (a + math.Pi) * (AttitudeScale / (2 * math.Pi))
	}
	return Attitude{Roll: scale(roll), Pitch: scale(pitch), Yaw: scale(yaw)}
}
