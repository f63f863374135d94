package config

import "sort"

func cartpoleEvaluator(samples, steps int) Evaluator {
	return Evaluator{
		CostModel:          DefaultCostModel,
		NumberSamples:      intPtr(samples),
		InputDimension:     intPtr(1),
		SampleLength:       intPtr(steps),
		TimeStep:           floatPtr(DefaultTimeStep),
		StateDimension:     intPtr(4),
		StdDev:             Vector{0.1},
		Beta:               Vector{0},
		InverseTemperature: floatPtr(0.01),
		StateWeights:       Vector{1, 1, 1, 1},
		ReferenceState:     Vector{0, 0, 0, 0},
	}
}

var Presets = map[string]*Config{
	"cartpole": {
		Evaluator: cartpoleEvaluator(1000, 15),
		Rollout: Rollout{
			System: "cartpole", Integrator: "rk4", Seed: 1,
			InitState: []float64{0, 0, 0.1, 0}, NominalInput: []float64{0},
		},
	},
	"cartpole_small": {
		Evaluator: cartpoleEvaluator(3, 3),
		Rollout: Rollout{
			System: "cartpole", Integrator: "rk4", Seed: 1,
			InitState: []float64{0, 0, 0.1, 0}, NominalInput: []float64{0},
		},
	},
	"cartpole_swingup": {
		Evaluator: Evaluator{
			CostModel:          DefaultCostModel,
			NumberSamples:      intPtr(2000),
			InputDimension:     intPtr(1),
			TimeStep:           floatPtr(0.02),
			Horizon:            floatPtr(1.5),
			StateDimension:     intPtr(4),
			StdDev:             Vector{4.0},
			Beta:               Vector{0},
			InverseTemperature: floatPtr(0.1),
			StateWeights:       Vector{1, 0.1, 10, 0.1},
			ReferenceState:     Vector{0, 0, 0, 0},
		},
		Rollout: Rollout{
			System: "cartpole", Integrator: "rk4", Seed: 7,
			InitState: []float64{0, 0, 3.0, 0}, NominalInput: []float64{0},
		},
	},
	"pendulum": {
		Evaluator: Evaluator{
			CostModel:          DefaultCostModel,
			NumberSamples:      intPtr(500),
			InputDimension:     intPtr(1),
			TimeStep:           floatPtr(0.05),
			Horizon:            floatPtr(1.0),
			StateDimension:     intPtr(2),
			StdDev:             Vector{0.5},
			Beta:               Vector{0},
			InverseTemperature: floatPtr(0.05),
			StateWeights:       Vector{1.0},
			ReferenceState:     Vector{0, 0},
		},
		Rollout: Rollout{
			System: "pendulum", Integrator: "rk4", Seed: 3,
			InitState: []float64{0.5, 0}, NominalInput: []float64{0},
			Params:    map[string]float64{"mass": 0.5, "length": 0.75, "damping": 0.05},
		},
	},
}

// GetPreset returns a copy of the named preset, or nil.
func GetPreset(name string) *Config {
	p, ok := Presets[name]
	if !ok {
		return nil
	}
	return p.Clone()
}

func ListPresets() []string {
	names := make([]string, 0, len(Presets))
	for name := range Presets {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
