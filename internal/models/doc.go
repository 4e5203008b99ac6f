// Package models provides the simulated airframe and sensors used to
// exercise the flight core off hardware.
//
//   - [Airframe]: decoupled rigid-body rate model for [sim.Simulator]
//   - [StationaryGyro]: gyro at rest with a known bias and bounded noise
//   - [MovingGyro]: gyro that keeps spinning up and can never be calibrated
//   - [PlantGyro]: gyro strapped to a simulated plant
//   - [DataReadyGyro]: polled sensor for [imu.Blocking]
package models
