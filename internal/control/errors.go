package control

import "errors"

var (
	// ErrUnknownParam indicates a tuning parameter name the controller does not expose.
	ErrUnknownParam = errors.New("control: unknown parameter")

	// ErrUnknownAxis indicates an axis name other than roll, pitch or yaw.
	ErrUnknownAxis = errors.New("control: unknown axis")
)
