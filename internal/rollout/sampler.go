// Package rollout produces sampled trajectory batches for cost evaluation.
//
// A [Sampler] perturbs a nominal input sequence with Gaussian noise and
// integrates every perturbed sequence through a plant model, yielding the
// (inputs, states) pair an evaluator scores.
package rollout

import (
	"context"
	"math/rand"
	"sync/atomic"

	"github.com/pkg/errors"
	"github.com/san-kum/mppi/internal/dynamo"
	"github.com/san-kum/mppi/internal/integrators"
)

// minSamplesPerWorker keeps small batches on the calling goroutine.
const minSamplesPerWorker = 16

// Sampler draws perturbed inputs and rolls them out. It is not safe for
// concurrent use: the random source is shared between calls.
type Sampler struct {
	sys           dynamo.System
	newIntegrator func() dynamo.Integrator
	dt            float64
	stdDev        []float64
	rng           *rand.Rand

	evaluations atomic.Int64
}

// NewSampler builds a sampler drawing ε ~ N(0, stdDev[c]²) on every input
// channel c. stdDev holds one value per control channel or a single value
// for all of them.
func NewSampler(sys dynamo.System, newIntegrator func() dynamo.Integrator, dt float64, stdDev []float64, seed int64) (*Sampler, error) {
	if dt <= 0 {
		return nil, errors.Wrapf(dynamo.ErrInvalidConfiguration, "dt must be positive, got %g", dt)
	}
	m := sys.ControlDim()
	std := make([]float64, m)
	switch len(stdDev) {
	case m:
		copy(std, stdDev)
	case 1:
		for i := range std {
			std[i] = stdDev[0]
		}
	default:
		return nil, errors.Wrapf(dynamo.ErrInvalidShape, "std_dev has %d entries, system has %d inputs", len(stdDev), m)
	}

	return &Sampler{
		sys:           sys,
		newIntegrator: newIntegrator,
		dt:            dt,
		stdDev:        std,
		rng:           rand.New(rand.NewSource(seed)),
	}, nil
}

// Sample fills a (horizon, samples, ControlDim) input batch with the
// perturbed nominal sequence and a (horizon, samples, StateDim) batch with
// the state reached after applying each input from x0. nominal is indexed
// by timestep; a single row is held for the whole horizon.
func (s *Sampler) Sample(ctx context.Context, x0 dynamo.State, nominal [][]float64, horizon, samples int) (inputs, states *dynamo.Batch, err error) {
	m, n := s.sys.ControlDim(), s.sys.StateDim()
	if len(x0) != n {
		return nil, nil, errors.Wrapf(dynamo.ErrInvalidShape, "initial state has %d entries, system has %d", len(x0), n)
	}
	if horizon <= 0 || samples <= 0 {
		return nil, nil, errors.Wrapf(dynamo.ErrInvalidShape, "horizon %d and samples %d must be positive", horizon, samples)
	}
	if len(nominal) != 1 && len(nominal) != horizon {
		return nil, nil, errors.Wrapf(dynamo.ErrInvalidShape, "nominal sequence has %d rows, want 1 or %d", len(nominal), horizon)
	}
	for t, row := range nominal {
		if len(row) != m {
			return nil, nil, errors.Wrapf(dynamo.ErrInvalidShape, "nominal row %d has %d entries, system has %d inputs", t, len(row), m)
		}
	}

	inputs = dynamo.NewBatch(horizon, samples, m)
	for t := 0; t < horizon; t++ {
		row := nominal[0]
		if len(nominal) > 1 {
			row = nominal[t]
		}
		for j := 0; j < samples; j++ {
			u := inputs.At(t, j)
			for c := range u {
				u[c] = row[c] + s.stdDev[c]*s.rng.NormFloat64()
			}
		}
	}

	states = dynamo.NewBatch(horizon, samples, n)
	err = dynamo.ParallelFor(samples, minSamplesPerWorker, func(start, end int) error {
		integ := s.newIntegrator()
		for j := start; j < end; j++ {
			if err := ctx.Err(); err != nil {
				return err
			}
			x := x0.Clone()
			for t := 0; t < horizon; t++ {
				x = integ.Step(s.sys, x, inputs.At(t, j), float64(t)*s.dt, s.dt)
				if !x.IsValid() {
					return &dynamo.StepError{Step: t, Sample: j, Wrapped: dynamo.ErrInvalidState}
				}
				copy(states.At(t, j), x)
			}
		}
		if c, ok := integ.(integrators.Counter); ok {
			s.evaluations.Add(int64(c.Evaluations()))
		}
		return nil
	})
	if err != nil {
		return nil, nil, err
	}
	return inputs, states, nil
}

// Evaluations reports the derivative evaluations spent by completed
// rollouts, or 0 when the integrator does not count them.
func (s *Sampler) Evaluations() int64 { return s.evaluations.Load() }
