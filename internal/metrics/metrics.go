// Package metrics scores a simulated flight tick by tick.
package metrics

import "github.com/san-kum/flightcore/internal/sim"

// Defaults returns the metrics recorded for every flight.
func Defaults() []sim.Metric {
	return []sim.Metric{
		NewTracking(0.25),
		NewControlEffort(),
		NewSaturation(),
	}
}
