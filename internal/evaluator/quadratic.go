package evaluator

import (
	"math"
	"sync"

	"github.com/pkg/errors"
	"github.com/san-kum/mppi/internal/config"
	"github.com/san-kum/mppi/internal/dynamo"
	"gonum.org/v1/gonum/mat"
	"k8s.io/klog/v2"
)

// minSamplesPerWorker keeps small batches on the calling goroutine.
const minSamplesPerWorker = 64

// QuadraticParams are the cost weights of a [Quadratic] model.
//
// StdDev holds one value per input channel, or a single value used for
// every channel. The values are placed on the covariance diagonal as
// given, so they act as per-channel variances in the cost. StateWeights
// follows the same one-or-all rule against the state dimension. A nil
// ReferenceState tracks the origin.
type QuadraticParams struct {
	StdDev             []float64
	Beta               float64
	InverseTemperature float64
	StateWeights       []float64
	ReferenceState     []float64
}

// Quadratic is the MPPI weighted-quadratic cost model. Everything except
// the two cost buffers is fixed at construction.
type Quadratic struct {
	dims Dims

	inputCovariance        *mat.DiagDense
	inputCovarianceInverse *mat.DiagDense
	stateWeights           *mat.DiagDense
	referenceState         *mat.VecDense
	beta                   *mat.Dense

	inverseTemperature     float64
	halfInverseTemperature float64

	mu               sync.Mutex
	sampleCosts      *mat.Dense
	sampleTotalCosts *mat.Dense
}

var (
	_ Evaluator        = (*Quadratic)(nil)
	_ FinalStateCoster = (*Quadratic)(nil)
)

// NewQuadratic builds the model from raw parameters. It fails with
// ErrInvalidShape on mismatched dims or vector lengths and with
// ErrInvalidConfiguration on a singular covariance or a bad temperature.
func NewQuadratic(dims Dims, p QuadraticParams) (*Quadratic, error) {
	if err := dims.Validate(); err != nil {
		return nil, err
	}

	variances, err := broadcast("std_dev", p.StdDev, dims.InputDimension)
	if err != nil {
		return nil, err
	}
	for i, v := range variances {
		if math.IsNaN(v) || math.IsInf(v, 0) || v < 0 {
			return nil, errors.Wrapf(dynamo.ErrInvalidConfiguration, "std_dev[%d] = %g is not a valid variance", i, v)
		}
	}
	if !(p.InverseTemperature > 0) || math.IsInf(p.InverseTemperature, 0) {
		return nil, errors.Wrapf(dynamo.ErrInvalidConfiguration, "inverse_temperature must be positive and finite, got %g", p.InverseTemperature)
	}

	weights, err := broadcast("state_weights", p.StateWeights, dims.StateDimension)
	if err != nil {
		return nil, err
	}

	reference := make([]float64, dims.StateDimension)
	if p.ReferenceState != nil {
		if len(p.ReferenceState) != dims.StateDimension {
			return nil, errors.Wrapf(dynamo.ErrInvalidShape, "reference_state has %d entries, state dimension is %d",
				len(p.ReferenceState), dims.StateDimension)
		}
		copy(reference, p.ReferenceState)
	}

	// Σ is diagonal, so only an exactly singular channel is rejected; a
	// poorly conditioned Σ still has an exact inverse.
	precisions := make([]float64, dims.InputDimension)
	for i, v := range variances {
		precisions[i] = 1 / v
		if math.IsInf(precisions[i], 0) {
			return nil, errors.Wrapf(dynamo.ErrInvalidConfiguration, "input covariance is singular: std_dev[%d] = %g", i, v)
		}
	}

	q := &Quadratic{
		dims:                   dims,
		inputCovariance:        mat.NewDiagDense(dims.InputDimension, variances),
		inputCovarianceInverse: mat.NewDiagDense(dims.InputDimension, precisions),
		stateWeights:           mat.NewDiagDense(dims.StateDimension, weights),
		referenceState:         mat.NewVecDense(dims.StateDimension, reference),
		beta:                   mat.NewDense(1, 1, []float64{p.Beta}),
		inverseTemperature:     p.InverseTemperature,
		halfInverseTemperature: p.InverseTemperature / 2,
		sampleCosts:            mat.NewDense(dims.SampleLength, dims.NumberSamples, nil),
		sampleTotalCosts:       mat.NewDense(1, dims.NumberSamples, nil),
	}

	klog.V(1).Infof("quadratic evaluator: samples=%d length=%d input=%d state=%d lambda=%g beta=%g",
		dims.NumberSamples, dims.SampleLength, dims.InputDimension, dims.StateDimension,
		p.InverseTemperature, p.Beta)

	return q, nil
}

// QuadraticFromConfig validates the bundle eagerly and builds the model.
// The reference state defaults to zeros of state_dimension.
func QuadraticFromConfig(cfg *config.Evaluator) (*Quadratic, error) {
	dims, err := DimsFromConfig(cfg)
	if err != nil {
		return nil, err
	}
	if len(cfg.Beta) != 1 {
		return nil, errors.Wrapf(dynamo.ErrInvalidShape, "beta must be a scalar or a 1-element list, got %d entries", len(cfg.Beta))
	}

	p := QuadraticParams{
		StdDev:             cfg.StdDev,
		Beta:               cfg.Beta[0],
		InverseTemperature: *cfg.InverseTemperature,
		StateWeights:       cfg.StateWeights,
		ReferenceState:     make([]float64, dims.StateDimension),
	}
	if cfg.ReferenceState != nil {
		p.ReferenceState = cfg.ReferenceState
	}
	return NewQuadratic(dims, p)
}

// broadcast returns a copy of v with exactly n entries: v itself when it
// already has n, or its single value repeated.
func broadcast(name string, v []float64, n int) ([]float64, error) {
	out := make([]float64, n)
	switch len(v) {
	case n:
		copy(out, v)
	case 1:
		for i := range out {
			out[i] = v[0]
		}
	default:
		return nil, errors.Wrapf(dynamo.ErrInvalidShape, "%s has %d entries, want 1 or %d", name, len(v), n)
	}
	return out, nil
}

func (q *Quadratic) Dims() Dims { return q.dims }

// InputCost returns (λ/2)·(uᵀ Σ⁻¹ u + βᵀ u) with β applied to every
// channel. It panics with mat.ErrShape if len(u) is not the input
// dimension.
func (q *Quadratic) InputCost(u []float64) float64 {
	uv := mat.NewVecDense(len(u), u)
	quad := mat.Inner(uv, q.inputCovarianceInverse, uv)

	bias := 0.0
	for _, v := range u {
		bias += v
	}
	bias *= q.beta.At(0, 0)
	return q.halfInverseTemperature * (quad + bias)
}

// StateCost returns (x - ref)ᵀ W (x - ref). It panics with mat.ErrShape if
// either vector does not have the state dimension.
func (q *Quadratic) StateCost(x, ref []float64) float64 {
	return q.stateCost(x, ref, make([]float64, len(x)))
}

func (q *Quadratic) stateCost(x, ref, scratch []float64) float64 {
	if len(ref) != len(x) {
		panic(mat.ErrShape)
	}
	for i := range x {
		scratch[i] = x[i] - ref[i]
	}
	e := mat.NewVecDense(len(scratch), scratch)
	return mat.Inner(e, q.stateWeights, e)
}

// ComputeSampleCosts fills the per-step cost matrix and the per-sample
// totals. Shapes are checked before anything is written, so a rejected
// call leaves the previous results intact.
func (q *Quadratic) ComputeSampleCosts(inputs, states *dynamo.Batch) error {
	d := q.dims
	if err := inputs.CheckShape(d.SampleLength, d.NumberSamples, d.InputDimension); err != nil {
		return errors.WithMessage(err, "sample inputs")
	}
	if err := states.CheckShape(d.SampleLength, d.NumberSamples, d.StateDimension); err != nil {
		return errors.WithMessage(err, "sample states")
	}

	q.mu.Lock()
	defer q.mu.Unlock()

	ref := q.referenceState.RawVector().Data

	// Workers own disjoint sample columns.
	return dynamo.ParallelFor(d.NumberSamples, minSamplesPerWorker, func(start, end int) error {
		scratch := make([]float64, d.StateDimension)
		for s := start; s < end; s++ {
			total := 0.0
			for t := 0; t < d.SampleLength; t++ {
				c := q.stateCost(states.At(t, s), ref, scratch) + q.InputCost(inputs.At(t, s))
				q.sampleCosts.Set(t, s, c)
				total += c
			}
			q.sampleTotalCosts.Set(0, s, total)
		}
		return nil
	})
}

func (q *Quadratic) SampleCosts() mat.Matrix { return q.sampleCosts }

func (q *Quadratic) SampleTotalCosts() mat.Matrix { return q.sampleTotalCosts }

// HasFinalStateCost reports false: the quadratic model defines no
// terminal weight, so ComputeFinalStateCost charges nothing.
func (q *Quadratic) HasFinalStateCost() bool { return false }

// ComputeFinalStateCost checks that final holds one state per sample,
// shape (1, NumberSamples, StateDimension), and returns a zero
// (1, NumberSamples) cost. Terminal costs are not added to the totals.
func (q *Quadratic) ComputeFinalStateCost(final *dynamo.Batch) (*mat.Dense, error) {
	if err := final.CheckShape(1, q.dims.NumberSamples, q.dims.StateDimension); err != nil {
		return nil, errors.WithMessage(err, "final states")
	}
	return mat.NewDense(1, q.dims.NumberSamples, nil), nil
}

// InputCovariance returns a copy of Σ.
func (q *Quadratic) InputCovariance() *mat.Dense { return mat.DenseCopyOf(q.inputCovariance) }

// InputCovarianceInverse returns a copy of Σ⁻¹.
func (q *Quadratic) InputCovarianceInverse() *mat.Dense {
	return mat.DenseCopyOf(q.inputCovarianceInverse)
}

// StateWeights returns a copy of W.
func (q *Quadratic) StateWeights() *mat.Dense { return mat.DenseCopyOf(q.stateWeights) }

// ReferenceState returns a copy of x_ref.
func (q *Quadratic) ReferenceState() []float64 {
	return append([]float64(nil), q.referenceState.RawVector().Data...)
}

func (q *Quadratic) Beta() float64 { return q.beta.At(0, 0) }

func (q *Quadratic) InverseTemperature() float64 { return q.inverseTemperature }
