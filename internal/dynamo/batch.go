package dynamo

import (
	"github.com/pkg/errors"
)

// Batch is a dense row-major tensor of shape (Horizon, Samples, Dim)
// holding one vector per timestep and sample.
type Batch struct {
	Horizon int
	Samples int
	Dim     int
	Data    []float64
}

// NewBatch allocates a zeroed batch.
func NewBatch(horizon, samples, dim int) *Batch {
	return &Batch{
		Horizon: horizon,
		Samples: samples,
		Dim:     dim,
		Data:    make([]float64, horizon*samples*dim),
	}
}

// NewBatchFrom wraps data without copying. It fails if len(data) does not
// match the declared shape.
func NewBatchFrom(horizon, samples, dim int, data []float64) (*Batch, error) {
	if horizon <= 0 || samples <= 0 || dim <= 0 {
		return nil, errors.Wrapf(ErrInvalidShape, "batch shape (%d, %d, %d) must be positive", horizon, samples, dim)
	}
	if len(data) != horizon*samples*dim {
		return nil, errors.Wrapf(ErrInvalidShape, "batch shape (%d, %d, %d) needs %d values, got %d",
			horizon, samples, dim, horizon*samples*dim, len(data))
	}
	return &Batch{Horizon: horizon, Samples: samples, Dim: dim, Data: data}, nil
}

// Shape returns (horizon, samples, dim).
func (b *Batch) Shape() (int, int, int) {
	return b.Horizon, b.Samples, b.Dim
}

// At returns the vector at timestep t and sample s. The slice aliases the
// batch storage and is capped so appends cannot spill into the next cell.
func (b *Batch) At(t, s int) []float64 {
	off := (t*b.Samples + s) * b.Dim
	return b.Data[off : off+b.Dim : off+b.Dim]
}

// Fill sets every entry to v.
func (b *Batch) Fill(v float64) {
	for i := range b.Data {
		b.Data[i] = v
	}
}

// CheckShape verifies the batch has exactly the given shape and that its
// storage is consistent with it.
func (b *Batch) CheckShape(horizon, samples, dim int) error {
	if b == nil {
		return errors.Wrap(ErrInvalidShape, "nil batch")
	}
	if h, n, d := b.Shape(); h != horizon || n != samples || d != dim {
		return errors.Wrapf(ErrInvalidShape, "batch shape (%d, %d, %d), want (%d, %d, %d)",
			h, n, d, horizon, samples, dim)
	}
	if len(b.Data) != horizon*samples*dim {
		return errors.Wrapf(ErrInvalidShape, "batch storage holds %d values, shape needs %d",
			len(b.Data), horizon*samples*dim)
	}
	return nil
}
