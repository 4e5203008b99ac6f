// Package viz renders flight controller state in the terminal.
//
//   - [Model]: live Bubble Tea view of the closed loop with gain tuning
//   - [Sparkline] and [Bar]: compact inline charts for CLI summaries
//   - [CalibrationState]: colored calibration state names
//
// # Key Bindings
//
//	Space - Pause/Resume
//	1 2 3 - Select roll, pitch or yaw
//	Tab   - Cycle the tuned parameter
//	Up/K  - Increase parameter (+10%)
//	Down/J - Decrease parameter (-10%)
//	E     - Toggle the regulators (disabled passes the setpoint through)
//	R     - Reset the integral accumulators
package viz
