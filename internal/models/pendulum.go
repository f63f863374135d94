package models

import (
	"math"

	"github.com/san-kum/mppi/internal/dynamo"
)

// Pendulum is a damped rigid pendulum driven by a pivot torque. The state
// is (θ, ω) with θ = 0 hanging straight down.
type Pendulum struct {
	Mass    float64
	Length  float64
	Damping float64
	Gravity float64
}

// NewPendulum returns a 1 kg, 1 m pendulum with light damping, with any
// of "mass", "length", "damping" and "gravity" overridden by params.
func NewPendulum(params Params) (*Pendulum, error) {
	p := &Pendulum{Mass: 1.0, Length: 1.0, Damping: 0.1, Gravity: 9.81}
	err := params.apply("pendulum", map[string]constant{
		"mass":    {field: &p.Mass},
		"length":  {field: &p.Length},
		"damping": {field: &p.Damping, nonNegative: true},
		"gravity": {field: &p.Gravity, nonNegative: true},
	})
	if err != nil {
		return nil, err
	}
	return p, nil
}

func (p *Pendulum) StateDim() int   { return 2 }
func (p *Pendulum) ControlDim() int { return 1 }

// Derive returns (ω, α) with m·l²·α = τ - b·ω - m·g·l·sin θ.
func (p *Pendulum) Derive(x dynamo.State, u dynamo.Control, t float64) dynamo.State {
	var torque float64
	if len(u) > 0 {
		torque = u[0]
	}
	inertia := p.Mass * p.Length * p.Length
	alpha := (torque-p.Damping*x[1])/inertia - p.Gravity/p.Length*math.Sin(x[0])
	return dynamo.State{x[1], alpha}
}
