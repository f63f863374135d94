package integrators

import "github.com/san-kum/mppi/internal/dynamo"

// RK4 is the classic fourth-order Runge-Kutta stepper. It keeps scratch
// buffers between steps, so one instance must not be shared between
// goroutines.
type RK4 struct {
	k      [4]dynamo.State
	trial  dynamo.State
	stages int
}

func NewRK4() *RK4 {
	return &RK4{}
}

func (r *RK4) resize(n int) {
	if len(r.trial) == n {
		return
	}
	for i := range r.k {
		r.k[i] = make(dynamo.State, n)
	}
	r.trial = make(dynamo.State, n)
}

// offset writes x + h·k into the trial buffer.
func (r *RK4) offset(x, k dynamo.State, h float64) dynamo.State {
	for i := range x {
		r.trial[i] = x[i] + h*k[i]
	}
	return r.trial
}

func (r *RK4) Step(dyn dynamo.System, x dynamo.State, u dynamo.Control, t, dt float64) dynamo.State {
	r.resize(len(x))
	half := dt / 2

	copy(r.k[0], dyn.Derive(x, u, t))
	copy(r.k[1], dyn.Derive(r.offset(x, r.k[0], half), u, t+half))
	copy(r.k[2], dyn.Derive(r.offset(x, r.k[1], half), u, t+half))
	copy(r.k[3], dyn.Derive(r.offset(x, r.k[2], dt), u, t+dt))
	r.stages += 4

	next := make(dynamo.State, len(x))
	sixth := dt / 6
	for i := range x {
		next[i] = x[i] + sixth*(r.k[0][i]+2*r.k[1][i]+2*r.k[2][i]+r.k[3][i])
	}
	return next
}

// Evaluations reports how many times Derive has been called.
func (r *RK4) Evaluations() int { return r.stages }
