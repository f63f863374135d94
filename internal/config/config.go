package config

import (
	"fmt"
	"math"
	"os"

	"github.com/pkg/errors"
	"github.com/san-kum/mppi/internal/dynamo"
	"gopkg.in/yaml.v3"
)

const (
	DefaultCostModel          = "quadratic"
	DefaultNumberSamples      = 1000
	DefaultInputDimension     = 1
	DefaultStateDimension     = 4
	DefaultTimeStep           = 1.0 / 20
	DefaultHorizon            = 0.75
	DefaultStdDev             = 0.1
	DefaultBeta               = 0.0
	DefaultInverseTemperature = 0.01
	DefaultStateWeight        = 1.0
	DefaultSystem             = "cartpole"
	DefaultIntegrator         = "rk4"
)

type Config struct {
	Evaluator Evaluator `yaml:"evaluator"`
	Rollout   Rollout   `yaml:"rollout"`
}

// Evaluator is the configuration bundle of a cost model. Pointer and
// [Vector] fields are nil when the key is absent from the YAML document,
// which lets [Evaluator.Validate] tell a missing key from a zero value.
type Evaluator struct {
	CostModel          string   `yaml:"cost_model,omitempty"`
	NumberSamples      *int     `yaml:"number_samples,omitempty"`
	InputDimension     *int     `yaml:"input_dimension,omitempty"`
	SampleLength       *int     `yaml:"sample_length,omitempty"`
	TimeStep           *float64 `yaml:"time_step,omitempty"`
	Horizon            *float64 `yaml:"horizon,omitempty"`
	StateDimension     *int     `yaml:"state_dimension,omitempty"`
	StdDev             Vector   `yaml:"std_dev,omitempty"`
	Beta               Vector   `yaml:"beta,omitempty"`
	InverseTemperature *float64 `yaml:"inverse_temperature,omitempty"`
	StateWeights       Vector   `yaml:"state_weights,omitempty"`
	ReferenceState     Vector   `yaml:"reference_state,omitempty"`
}

// Rollout configures the demo sampler that feeds the evaluator.
type Rollout struct {
	System       string    `yaml:"system"`
	Integrator   string    `yaml:"integrator"`
	Seed         int64     `yaml:"seed"`
	InitState    []float64 `yaml:"init_state"`
	NominalInput []float64 `yaml:"nominal_input"`

	// Params overrides physical constants of the system, e.g. mass.
	Params map[string]float64 `yaml:"params,omitempty"`
}

// MissingFieldError reports a required key absent from a section.
type MissingFieldError struct {
	Section string
	Field   string
}

func (e *MissingFieldError) Error() string {
	return fmt.Sprintf("config: missing required field %q in %s", e.Field, e.Section)
}

func (e *MissingFieldError) Unwrap() error {
	return dynamo.ErrMissingConfigurationField
}

// Vector is a list of floats that also accepts a bare scalar in YAML,
// decoded as a one-element list.
type Vector []float64

func (v *Vector) UnmarshalYAML(node *yaml.Node) error {
	switch node.Kind {
	case yaml.ScalarNode:
		var f float64
		if err := node.Decode(&f); err != nil {
			return err
		}
		*v = Vector{f}
		return nil
	case yaml.SequenceNode:
		var fs []float64
		if err := node.Decode(&fs); err != nil {
			return err
		}
		if fs == nil {
			fs = []float64{}
		}
		*v = Vector(fs)
		return nil
	default:
		return fmt.Errorf("line %d: expected a number or a list of numbers", node.Line)
	}
}

func intPtr(v int) *int { return &v }
func floatPtr(v float64) *float64 { return &v }

func DefaultConfig() *Config {
	return &Config{
		Evaluator: Evaluator{
			CostModel:          DefaultCostModel,
			NumberSamples:      intPtr(DefaultNumberSamples),
			InputDimension:     intPtr(DefaultInputDimension),
			TimeStep:           floatPtr(DefaultTimeStep),
			Horizon:            floatPtr(DefaultHorizon),
			StateDimension:     intPtr(DefaultStateDimension),
			StdDev:             Vector{DefaultStdDev},
			Beta:               Vector{DefaultBeta},
			InverseTemperature: floatPtr(DefaultInverseTemperature),
			StateWeights:       Vector{DefaultStateWeight},
		},
		Rollout: Rollout{
			System:       DefaultSystem,
			Integrator:   DefaultIntegrator,
			InitState:    []float64{0, 0, 0.1, 0},
			NominalInput: []float64{0},
		},
	}
}

// Load reads a YAML file. Keys absent from the file stay absent: the
// evaluator section is validated, not defaulted.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return Parse(data)
}

func Parse(data []byte) (*Config, error) {
	cfg := &Config{
		Rollout: DefaultConfig().Rollout,
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, errors.Wrap(err, "config: decoding yaml")
	}
	if cfg.Evaluator.CostModel == "" {
		cfg.Evaluator.CostModel = DefaultCostModel
	}
	return cfg, nil
}

func Marshal(cfg *Config) ([]byte, error) {
	return yaml.Marshal(cfg)
}

func Save(path string, cfg *Config) error {
	data, err := Marshal(cfg)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}

// Validate checks that every required evaluator key is present, in the
// order number_samples, input_dimension, sample_length, state_dimension,
// std_dev, beta, inverse_temperature, state_weights. sample_length is
// satisfied by horizon together with time_step.
func (e *Evaluator) Validate() error {
	missing := func(field string) error {
		return &MissingFieldError{Section: "evaluator", Field: field}
	}

	if e.NumberSamples == nil {
		return missing("number_samples")
	}
	if e.InputDimension == nil {
		return missing("input_dimension")
	}
	if e.SampleLength == nil && (e.Horizon == nil || e.TimeStep == nil) {
		return missing("sample_length")
	}
	if e.StateDimension == nil {
		return missing("state_dimension")
	}
	if e.StdDev == nil {
		return missing("std_dev")
	}
	if e.Beta == nil {
		return missing("beta")
	}
	if e.InverseTemperature == nil {
		return missing("inverse_temperature")
	}
	if e.StateWeights == nil {
		return missing("state_weights")
	}
	return nil
}

// Steps returns the horizon length in timesteps: sample_length when set,
// otherwise horizon / time_step truncated toward zero.
func (e *Evaluator) Steps() (int, error) {
	if e.SampleLength != nil {
		return *e.SampleLength, nil
	}
	if e.Horizon == nil || e.TimeStep == nil {
		return 0, &MissingFieldError{Section: "evaluator", Field: "sample_length"}
	}
	if *e.TimeStep <= 0 {
		return 0, errors.Wrapf(dynamo.ErrInvalidConfiguration, "time_step must be positive, got %g", *e.TimeStep)
	}
	// Quotients like 2.9999999999999996 must not lose a step.
	return int(math.Floor(*e.Horizon / *e.TimeStep + 1e-9)), nil
}

// Dt returns the rollout timestep, time_step when configured.
func (e *Evaluator) Dt() float64 {
	if e.TimeStep != nil && *e.TimeStep > 0 {
		return *e.TimeStep
	}
	return DefaultTimeStep
}

// Clone returns a deep copy, so callers may override fields of a preset.
func (c *Config) Clone() *Config {
	out := &Config{
		Evaluator: c.Evaluator,
		Rollout:   c.Rollout,
	}
	e := &out.Evaluator
	e.NumberSamples = cloneInt(c.Evaluator.NumberSamples)
	e.InputDimension = cloneInt(c.Evaluator.InputDimension)
	e.SampleLength = cloneInt(c.Evaluator.SampleLength)
	e.StateDimension = cloneInt(c.Evaluator.StateDimension)
	e.TimeStep = cloneFloat(c.Evaluator.TimeStep)
	e.Horizon = cloneFloat(c.Evaluator.Horizon)
	e.InverseTemperature = cloneFloat(c.Evaluator.InverseTemperature)
	e.StdDev = c.Evaluator.StdDev.clone()
	e.Beta = c.Evaluator.Beta.clone()
	e.StateWeights = c.Evaluator.StateWeights.clone()
	e.ReferenceState = c.Evaluator.ReferenceState.clone()
	out.Rollout.InitState = append([]float64(nil), c.Rollout.InitState...)
	out.Rollout.NominalInput = append([]float64(nil), c.Rollout.NominalInput...)
	if c.Rollout.Params != nil {
		out.Rollout.Params = make(map[string]float64, len(c.Rollout.Params))
		for k, v := range c.Rollout.Params {
			out.Rollout.Params[k] = v
		}
	}
	return out
}

func (v Vector) clone() Vector {
	if v == nil {
		return nil
	}
	return append(Vector{}, v...)
}

func cloneInt(p *int) *int {
	if p == nil {
		return nil
	}
	return intPtr(*p)
}

func cloneFloat(p *float64) *float64 {
	if p == nil {
		return nil
	}
	return floatPtr(*p)
}
