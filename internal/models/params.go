package models

import (
	"math"
	"sort"

	"github.com/pkg/errors"
	"github.com/san-kum/mppi/internal/dynamo"
)

// Params overrides named physical constants of a model, e.g.
// {"mass": 2, "length": 0.5}. Names a model does not know are rejected.
type Params map[string]float64

// constant is one overridable field of a model.
type constant struct {
	field *float64
	// nonNegative admits zero, for friction-like terms.
	nonNegative bool
}

func (p Params) apply(model string, constants map[string]constant) error {
	for _, name := range p.names() {
		c, ok := constants[name]
		if !ok {
			return errors.Wrapf(dynamo.ErrInvalidConfiguration, "%s has no parameter %q (known: %v)",
				model, name, knownNames(constants))
		}
		v := p[name]
		if math.IsNaN(v) || math.IsInf(v, 0) || v < 0 || (v == 0 && !c.nonNegative) {
			return errors.Wrapf(dynamo.ErrInvalidConfiguration, "%s parameter %s = %g out of range", model, name, v)
		}
		*c.field = v
	}
	return nil
}

func (p Params) names() []string {
	names := make([]string, 0, len(p))
	for name := range p {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

func knownNames(constants map[string]constant) []string {
	names := make([]string, 0, len(constants))
	for name := range constants {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
