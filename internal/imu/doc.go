// Package imu defines the sensor-side data contracts of the flight core.
//
// The transport that talks to the physical gyroscope is not part of this
// package. It only has to satisfy [RawReader] (blocking) or [Poller]
// (data-ready polling, adapted with [Blocking]). A [Source] wraps the
// transport and owns the standing bias produced by calibration:
//
//	src := imu.NewSource(transport)
//	src.SetBias(result.Bias)
//	rates, err := src.ReadCalibrated(ctx)
package imu
