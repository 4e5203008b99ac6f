package analysis

import "math"

type Response struct {
	// Overshoot is the peak excursion past the target as a fraction of the step.
	Overshoot float64
	// RiseTime is the time from the step to first reaching 90% of it.
	RiseTime float64
	// SettlingTime is the time from the step until the trace last leaves
	// the band of band*|step| around the target.
	SettlingTime float64
	Settled      bool
}

// StepResponse measures the response of trace to a step from its value at
// index start to target. times and trace must have equal length.
func StepResponse(times, trace []float64, start int, target, band float64) Response {
	var r Response
	if start < 0 || start >= len(trace) || len(times) != len(trace) {
		return r
	}

	initial := trace[start]
	step := target - initial
	if step == 0 {
		r.Settled = true
		return r
	}
	dir := math.Copysign(1, step)
	tol := math.Abs(step) * band

	t0 := times[start]
	rose := false
	lastOut := -1
	peak := 0.0
	for i := start; i < len(trace); i++ {
		progress := (trace[i] - initial) * dir
		if !rose && progress >= 0.9*math.Abs(step) {
			r.RiseTime = times[i] - t0
			rose = true
		}
		if over := (trace[i] - target) * dir; over > peak {
			peak = over
		}
		if math.Abs(trace[i]-target) > tol {
			lastOut = i
		}
	}

	r.Overshoot = peak / math.Abs(step)
	switch {
	case lastOut == len(trace)-1:
		r.Settled = false
	case lastOut < 0:
		r.Settled = true
	default:
		r.Settled = true
		r.SettlingTime = times[lastOut+1] - t0
	}
	return r
}
