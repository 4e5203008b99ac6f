// Package integrators advances a simulated plant by one control tick.
package integrators

import (
	"fmt"
	"sort"

	"github.com/san-kum/flightcore/internal/sim"
)

var registry = map[string]func() sim.Integrator{
	"euler": func() sim.Integrator { return NewEuler() },
	"rk4":   func() sim.Integrator { return NewRK4() },
}

// New returns a fresh integrator by name.
func New(name string) (sim.Integrator, error) {
	fn, ok := registry[name]
	if !ok {
		return nil, fmt.Errorf("unknown integrator: %s (available: %v)", name, Names())
	}
	return fn(), nil
}

func Names() []string {
	names := make([]string, 0, len(registry))
	for name := range registry {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// axpy returns x + a*y.
func axpy(dst, x sim.State, a float64, y sim.State) sim.State {
	for i := range x {
		dst[i] = x[i] + a*y[i]
	}
	return dst
}
