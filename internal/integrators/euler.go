package integrators

import "github.com/san-kum/flightcore/internal/sim"

// Euler is the explicit first-order step. Good enough at control-loop tick
// rates where the airframe time constants are tens of ticks long.
type Euler struct{}

func NewEuler() *Euler {
	return &Euler{}
}

func (e *Euler) Step(dyn sim.Dynamics, x sim.State, u sim.Control, t float64, dt float64) sim.State {
	return axpy(make(sim.State, len(x)), x, dt, dyn.Derivative(x, u, t))
}
