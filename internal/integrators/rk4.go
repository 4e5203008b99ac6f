package integrators

import "github.com/san-kum/flightcore/internal/sim"

// RK4 is the classic fourth-order step. The control input is held constant
// over the tick, as a zero-order hold on the regulator output.
type RK4 struct {
	k       [4]sim.State
	scratch sim.State
}

func NewRK4() *RK4 {
	return &RK4{}
}

func (r *RK4) ensureScratch(n int) {
	if len(r.scratch) == n {
		return
	}
	for i := range r.k {
		r.k[i] = make(sim.State, n)
	}
	r.scratch = make(sim.State, n)
}

func (r *RK4) Step(dyn sim.Dynamics, x sim.State, u sim.Control, t, dt float64) sim.State {
	n := len(x)
	r.ensureScratch(n)

	copy(r.k[0], dyn.Derivative(x, u, t))
	copy(r.k[1], dyn.Derivative(axpy(r.scratch, x, dt/2, r.k[0]), u, t+dt/2))
	copy(r.k[2], dyn.Derivative(axpy(r.scratch, x, dt/2, r.k[1]), u, t+dt/2))
	copy(r.k[3], dyn.Derivative(axpy(r.scratch, x, dt, r.k[2]), u, t+dt))

	result := make(sim.State, n)
	dt6 := dt / 6.0
	for i := 0; i < n; i++ {
		result[i] = x[i] + dt6*(r.k[0][i]+2*r.k[1][i]+2*r.k[2][i]+r.k[3][i])
	}
	return result
}
