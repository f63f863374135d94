// Package evaluator scores sampled trajectories for an MPPI controller.
//
// A cost model implements [Evaluator]: it is constructed once with the
// dimensions of the sampling problem, then asked every control cycle to
// score a batch of input trajectories and the state trajectories they
// produced:
//
//	q, err := evaluator.NewQuadratic(dims, params)
//	if err != nil { ... }
//	if err := q.ComputeSampleCosts(inputs, states); err != nil { ... }
//	totals := q.SampleTotalCosts() // (1, samples)
//
// Models are also constructed from a [config.Evaluator] bundle through a
// [Registry], which maps the bundle's cost_model key to a [Factory].
//
// # Cost model
//
// [Quadratic] charges every (timestep, sample) cell
//
//	(x - x_ref)ᵀ W (x - x_ref) + (λ/2)·(uᵀ Σ⁻¹ u + βᵀ u)
//
// and sums cells over the horizon into a per-sample total. Cells are
// independent of each other, so they are evaluated in parallel.
//
// # Thread Safety
//
// Cost buffers are owned by the evaluator and overwritten by every call.
// Calls on one instance are serialised; results must be read before the
// next call on the same instance starts.
package evaluator
