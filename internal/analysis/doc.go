// Package analysis inspects recorded rate traces for signs of poor tuning.
//
//   - [PowerSpectrum] and [DominantFrequency] find sustained oscillation,
//     the usual symptom of too much proportional or derivative gain.
//   - [StepResponse] measures overshoot and settling after a setpoint change.
//
// A sharp spectral peak well above the airframe's natural response suggests
// backing the gains off:
//
//	freq, power := analysis.DominantFrequency(errTrace, dt)
package analysis
