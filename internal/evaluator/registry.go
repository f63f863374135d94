package evaluator

import (
	"sort"

	"github.com/pkg/errors"
	"github.com/san-kum/mppi/internal/config"
	"github.com/san-kum/mppi/internal/dynamo"
)

type Registry struct {
	factories map[string]Factory
}

func NewRegistry() *Registry {
	r := &Registry{
		factories: make(map[string]Factory),
	}

	r.factories["quadratic"] = func(cfg *config.Evaluator) (Evaluator, error) {
		q, err := QuadraticFromConfig(cfg)
		if err != nil {
			return nil, err
		}
		return q, nil
	}

	return r
}

func (r *Registry) Register(name string, f Factory) {
	r.factories[name] = f
}

// FromConfig builds the model named by cfg.CostModel, quadratic when empty.
func (r *Registry) FromConfig(cfg *config.Evaluator) (Evaluator, error) {
	name := cfg.CostModel
	if name == "" {
		name = config.DefaultCostModel
	}
	fn, ok := r.factories[name]
	if !ok {
		return nil, errors.Wrapf(dynamo.ErrInvalidConfiguration, "unknown cost model %q (available: %v)", name, r.Names())
	}
	return fn(cfg)
}

func (r *Registry) Names() []string {
	names := make([]string, 0, len(r.factories))
	for name := range r.factories {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
