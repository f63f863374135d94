package models

import (
	"math"

	"github.com/san-kum/mppi/internal/dynamo"
)

// CartPole is a pole hinged on a cart pushed along a rail. The state is
// (x, ẋ, θ, ω) and the single input is the horizontal force on the cart.
type CartPole struct {
	CartMass   float64
	PoleMass   float64
	PoleLength float64
	Gravity    float64
}

// NewCartPole returns the classic 1 kg cart with a 0.1 kg pole, with any
// of "cart_mass", "pole_mass", "pole_length" and "gravity" overridden by
// params.
func NewCartPole(params Params) (*CartPole, error) {
	c := &CartPole{CartMass: 1.0, PoleMass: 0.1, PoleLength: 1.0, Gravity: 9.81}
	err := params.apply("cartpole", map[string]constant{
		"cart_mass":   {field: &c.CartMass},
		"pole_mass":   {field: &c.PoleMass},
		"pole_length": {field: &c.PoleLength},
		"gravity":     {field: &c.Gravity, nonNegative: true},
	})
	if err != nil {
		return nil, err
	}
	return c, nil
}

func (c *CartPole) StateDim() int {
	return 4
}

func (c *CartPole) ControlDim() int {
	return 1
}

// Derive follows the classic Barto cart-pole equations with θ = 0 upright.
func (c *CartPole) Derive(x dynamo.State, u dynamo.Control, t float64) dynamo.State {
	vel := x[1]
	theta := x[2]
	omega := x[3]

	force := 0.0
	if len(u) > 0 {
		force = u[0]
	}

	total := c.CartMass + c.PoleMass
	sint, cost := math.Sincos(theta)

	temp := (force + c.PoleMass*c.PoleLength*omega*omega*sint) / total
	thetaAcc := (c.Gravity*sint - cost*temp) / (c.PoleLength * (4.0/3.0 - c.PoleMass*cost*cost/total))
	xAcc := temp - c.PoleMass*c.PoleLength*thetaAcc*cost/total

	return dynamo.State{vel, xAcc, omega, thetaAcc}
}
