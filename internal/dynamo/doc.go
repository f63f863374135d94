// Package dynamo provides the shared primitives of the MPPI cost pipeline.
//
// The package defines the types every stage agrees on:
//
//   - [State], [Control]: single state and input vectors
//   - [System]: interface for ODE systems (dX/dt = f(X, u, t))
//   - [Integrator]: numerical stepper interface
//   - [Batch]: a (horizon, samples, dim) tensor of sampled trajectories
//
// Samplers fill [Batch]es with perturbed inputs and rolled-out states; cost
// models read them and never write to them.
//
// # Errors
//
// Failures are reported through the sentinel errors in this package,
// wrapped with call-site context. Match them with errors.Is:
//
//	if errors.Is(err, dynamo.ErrInvalidShape) { ... }
//
// # Thread Safety
//
// [Batch] carries no locks. Concurrent writers must own disjoint
// (t, s) cells, which is how [ParallelFor] partitions work.
package dynamo
