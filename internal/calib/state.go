package calib

import "github.com/san-kum/flightcore/internal/imu"

type State int

const (
	Uncalibrated State = iota
	Validating
	Reestimating
	Calibrated
	Failed
)

func (s State) String() string {
	switch s {
	case Uncalibrated:
		return "uncalibrated"
	case Validating:
		return "averaging-validation"
	case Reestimating:
		return "re-estimating-raw-bias"
	case Calibrated:
		return "calibrated"
	case Failed:
		return "failed"
	}
	return "unknown"
}

// Event reports a state transition to observers.
type Event struct {
	State State
	// Attempt counts failed validations so far.
	Attempt int
	// Iterations is the raw sample count of the current or next re-estimation.
	Iterations int
	// Average is the result of the step that just finished: the validation
	// residual or the new bias estimate.
	Average imu.Rates
}
