package rollout

import (
	"sort"

	"github.com/pkg/errors"
	"github.com/san-kum/mppi/internal/dynamo"
	"github.com/san-kum/mppi/internal/integrators"
	"github.com/san-kum/mppi/internal/models"
)

type Registry struct {
	systems     map[string]func(models.Params) (dynamo.System, error)
	integrators map[string]func() dynamo.Integrator
}

func NewRegistry() *Registry {
	r := &Registry{
		systems:     make(map[string]func(models.Params) (dynamo.System, error)),
		integrators: make(map[string]func() dynamo.Integrator),
	}

	r.systems["cartpole"] = func(p models.Params) (dynamo.System, error) {
		c, err := models.NewCartPole(p)
		if err != nil {
			return nil, err
		}
		return c, nil
	}
	r.systems["pendulum"] = func(p models.Params) (dynamo.System, error) {
		pend, err := models.NewPendulum(p)
		if err != nil {
			return nil, err
		}
		return pend, nil
	}

	r.integrators["euler"] = func() dynamo.Integrator { return integrators.NewEuler() }
	r.integrators["rk4"] = func() dynamo.Integrator { return integrators.NewRK4() }

	return r
}

// GetSystem builds the named model with params overriding its physical
// constants. A nil params keeps the defaults.
func (r *Registry) GetSystem(name string, params map[string]float64) (dynamo.System, error) {
	fn, ok := r.systems[name]
	if !ok {
		return nil, errors.Wrapf(dynamo.ErrInvalidConfiguration, "unknown system %q (available: %v)", name, r.ListSystems())
	}
	return fn(params)
}

// GetIntegrator returns a constructor, since integrators may carry scratch
// state and each rollout worker needs its own.
func (r *Registry) GetIntegrator(name string) (func() dynamo.Integrator, error) {
	fn, ok := r.integrators[name]
	if !ok {
		return nil, errors.Wrapf(dynamo.ErrInvalidConfiguration, "unknown integrator %q (available: %v)", name, r.ListIntegrators())
	}
	return fn, nil
}

func (r *Registry) ListSystems() []string {
	return sortedKeys(r.systems)
}

func (r *Registry) ListIntegrators() []string {
	return sortedKeys(r.integrators)
}

func sortedKeys[V any](m map[string]V) []string {
	names := make([]string, 0, len(m))
	for name := range m {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
