// Package models provides plant dynamics used to roll out sampled inputs.
//
// Each model implements [dynamo.System]:
//
//   - [CartPole]: pole on a force-driven cart, state (x, ẋ, θ, θ̇)
//   - [Pendulum]: damped torque-driven pendulum, state (θ, θ̇)
package models
