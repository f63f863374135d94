package evaluator

import (
	"github.com/pkg/errors"
	"github.com/san-kum/mppi/internal/config"
	"github.com/san-kum/mppi/internal/dynamo"
	"gonum.org/v1/gonum/mat"
)

// Dims are the dimensions shared by every cost model.
type Dims struct {
	NumberSamples  int
	InputDimension int
	SampleLength   int
	StateDimension int
}

func (d Dims) Validate() error {
	if d.NumberSamples <= 0 || d.InputDimension <= 0 || d.SampleLength <= 0 || d.StateDimension <= 0 {
		return errors.Wrapf(dynamo.ErrInvalidShape,
			"dimensions must be positive: samples=%d input=%d length=%d state=%d",
			d.NumberSamples, d.InputDimension, d.SampleLength, d.StateDimension)
	}
	return nil
}

// DimsFromConfig reads the dimensional keys of a validated bundle.
func DimsFromConfig(cfg *config.Evaluator) (Dims, error) {
	if err := cfg.Validate(); err != nil {
		return Dims{}, err
	}
	steps, err := cfg.Steps()
	if err != nil {
		return Dims{}, err
	}
	d := Dims{
		NumberSamples:  *cfg.NumberSamples,
		InputDimension: *cfg.InputDimension,
		SampleLength:   steps,
		StateDimension: *cfg.StateDimension,
	}
	return d, d.Validate()
}

// Evaluator computes per-step and per-sample costs of sampled trajectories.
type Evaluator interface {
	Dims() Dims

	// ComputeSampleCosts scores inputs (SampleLength, NumberSamples,
	// InputDimension) against states (SampleLength, NumberSamples,
	// StateDimension), overwriting both cost buffers.
	ComputeSampleCosts(inputs, states *dynamo.Batch) error

	// SampleCosts is the (SampleLength, NumberSamples) per-step cost matrix.
	SampleCosts() mat.Matrix

	// SampleTotalCosts is the (1, NumberSamples) per-sample cost over the
	// horizon.
	SampleTotalCosts() mat.Matrix
}

// FinalStateCoster is implemented by models that can charge the last state
// of each sample. HasFinalStateCost reports whether the charge is real; a
// model may expose the hook while returning zeros.
type FinalStateCoster interface {
	HasFinalStateCost() bool
	ComputeFinalStateCost(final *dynamo.Batch) (*mat.Dense, error)
}

// Factory builds a cost model from a configuration bundle.
type Factory func(cfg *config.Evaluator) (Evaluator, error)
