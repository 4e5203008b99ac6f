// Package calib estimates the standing bias of a gyroscope held still.
//
// The procedure alternates two steps until the corrected signal is quiet:
//
//	uncalibrated -> averaging-validation -> calibrated
//	                     |        ^
//	                     v        |
//	                re-estimating-raw-bias
//
// Validation averages [Config.Samples] bias corrected readings and accepts
// when every axis is strictly below [Config.Tolerance]. Re-estimation
// replaces the bias with the plain average of raw readings. Retries are
// bounded by [Config.MaxAttempts] and [Config.Timeout]; exhausting them
// yields an [*Error] wrapping [ErrNotConverged] or [ErrCanceled].
package calib
