package calib

import (
	"errors"
	"fmt"

	"github.com/san-kum/flightcore/internal/imu"
)

var (
	// ErrNotConverged indicates validation kept failing until the attempt budget ran out.
	ErrNotConverged = errors.New("calib: gyro bias did not converge")

	// ErrCanceled indicates the procedure was stopped by its context or timeout.
	ErrCanceled = errors.New("calib: calibration canceled")
)

// Error wraps a calibration failure with the progress made so far.
type Error struct {
	Attempts int
	// Residual is the last averaged corrected rate seen by validation.
	Residual imu.Rates
	Wrapped  error
}

func (e *Error) Error() string {
	return fmt.Sprintf("%v after %d attempts (residual %.3f/%.3f/%.3f)",
		e.Wrapped, e.Attempts, e.Residual.Roll, e.Residual.Pitch, e.Residual.Yaw)
}

func (e *Error) Unwrap() error {
	return e.Wrapped
}
