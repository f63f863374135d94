// Package integrators provides fixed-step solvers for [dynamo.System]s.
//
// Solvers may keep per-instance buffers and counters, so a rollout worker
// owns its own instance.
package integrators

import "github.com/san-kum/mppi/internal/dynamo"

// Counter is implemented by solvers that count derivative evaluations.
type Counter interface {
	Evaluations() int
}

var (
	_ Counter = (*Euler)(nil)
	_ Counter = (*RK4)(nil)
)

// Euler is the explicit first-order solver x + dt·f(x, u, t).
type Euler struct {
	stages int
}

func NewEuler() *Euler {
	return &Euler{}
}

func (e *Euler) Step(dyn dynamo.System, x dynamo.State, u dynamo.Control, t, dt float64) dynamo.State {
	e.stages++
	next := dyn.Derive(x, u, t).Clone()
	for i := range next {
		next[i] = x[i] + dt*next[i]
	}
	return next
}

// Evaluations reports how many times Derive has been called.
func (e *Euler) Evaluations() int { return e.stages }
