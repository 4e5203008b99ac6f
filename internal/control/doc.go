// Package control provides the rate regulators of the flight core.
//
//   - [PID]: single-axis regulator with integral anti-windup and output clamp
//   - [Axes]: one [PID] per body axis (roll, pitch, yaw)
//
// # Usage
//
//	pid := control.NewPID(control.Gains{P: 2}, 100, 50) // gains, integral limit, output limit
//	pid.Start(nowMicros)
//	out := pid.Compute(nowMicros, measured, setpoint)
//
// The error convention is measured minus setpoint. Compute never fails:
// degenerate time steps skip the integral and derivative terms, and both the
// integral and the output are saturated rather than reported.
//
// Controllers are not safe for concurrent use; run one instance per axis on
// the control goroutine.
package control
