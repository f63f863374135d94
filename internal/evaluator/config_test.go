package evaluator_test

import (
	"errors"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/san-kum/mppi/internal/config"
	"github.com/san-kum/mppi/internal/dynamo"
	"github.com/san-kum/mppi/internal/evaluator"
)

const cartpoleBundle = `
evaluator:
  cost_model: quadratic
  number_samples: 3
  input_dimension: 1
  time_step: 0.05
  horizon: 0.15000000000000002
  state_dimension: 4
  std_dev: [0.1]
  beta: 0
  inverse_temperature: 0.01
  state_weights: [1.0, 1.0, 1.0, 1.0]
`

var _ = Describe("configuration-driven construction", func() {
	It("builds an evaluator from a YAML bundle", func() {
		cfg, err := config.Parse([]byte(cartpoleBundle))
		Expect(err).NotTo(HaveOccurred())

		q, err := evaluator.QuadraticFromConfig(&cfg.Evaluator)
		Expect(err).NotTo(HaveOccurred())

		var _ evaluator.Evaluator = q
		Expect(q.Dims()).To(Equal(evaluator.Dims{
			NumberSamples: 3, InputDimension: 1, SampleLength: 3, StateDimension: 4,
		}))
		Expect(q.ReferenceState()).To(Equal([]float64{0, 0, 0, 0}))

		inputs := dynamo.NewBatch(3, 3, 1)
		states := dynamo.NewBatch(3, 3, 4)
		inputs.Fill(1)
		states.Fill(1)
		Expect(q.ComputeSampleCosts(inputs, states)).To(Succeed())
		Expect(q.SampleTotalCosts().At(0, 2)).To(BeNumerically("~", 12.15, 1e-12))
	})

	It("uses a configured reference state", func() {
		cfg := config.GetPreset("cartpole_small")
		cfg.Evaluator.ReferenceState = config.Vector{1, 0, 0, 0}

		q, err := evaluator.QuadraticFromConfig(&cfg.Evaluator)
		Expect(err).NotTo(HaveOccurred())
		Expect(q.ReferenceState()).To(Equal([]float64{1, 0, 0, 0}))
	})

	It("broadcasts a scalar state weight", func() {
		cfg := config.GetPreset("cartpole_small")
		cfg.Evaluator.StateWeights = config.Vector{3}

		q, err := evaluator.QuadraticFromConfig(&cfg.Evaluator)
		Expect(err).NotTo(HaveOccurred())
		Expect(q.StateWeights().At(3, 3)).To(Equal(3.0))
	})

	DescribeTable("names the missing field",
		func(field string, drop func(*config.Evaluator)) {
			cfg := config.GetPreset("cartpole_small")
			drop(&cfg.Evaluator)

			q, err := evaluator.QuadraticFromConfig(&cfg.Evaluator)
			Expect(q).To(BeNil())
			Expect(err).To(MatchError(dynamo.ErrMissingConfigurationField))

			var mf *config.MissingFieldError
			Expect(errors.As(err, &mf)).To(BeTrue())
			Expect(mf.Field).To(Equal(field))
		},
		Entry("std_dev", "std_dev", func(e *config.Evaluator) { e.StdDev = nil }),
		Entry("beta", "beta", func(e *config.Evaluator) { e.Beta = nil }),
		Entry("inverse_temperature", "inverse_temperature", func(e *config.Evaluator) { e.InverseTemperature = nil }),
		Entry("state_weights", "state_weights", func(e *config.Evaluator) { e.StateWeights = nil }),
		Entry("number_samples", "number_samples", func(e *config.Evaluator) { e.NumberSamples = nil }),
		Entry("state_dimension", "state_dimension", func(e *config.Evaluator) { e.StateDimension = nil }),
	)

	It("reports a missing field from YAML", func() {
		cfg, err := config.Parse([]byte("evaluator:\n  number_samples: 3\n  input_dimension: 1\n  sample_length: 3\n  state_dimension: 4\n  beta: 0\n  inverse_temperature: 0.01\n  state_weights: 1\n"))
		Expect(err).NotTo(HaveOccurred())

		_, err = evaluator.QuadraticFromConfig(&cfg.Evaluator)
		Expect(err).To(MatchError(ContainSubstring(`"std_dev"`)))
	})

	It("rejects a beta with more than one entry", func() {
		cfg := config.GetPreset("cartpole_small")
		cfg.Evaluator.Beta = config.Vector{1, 2}

		_, err := evaluator.QuadraticFromConfig(&cfg.Evaluator)
		Expect(err).To(MatchError(dynamo.ErrInvalidShape))
	})

	It("rejects a singular covariance", func() {
		cfg := config.GetPreset("cartpole_small")
		cfg.Evaluator.StdDev = config.Vector{0}

		_, err := evaluator.QuadraticFromConfig(&cfg.Evaluator)
		Expect(err).To(MatchError(dynamo.ErrInvalidConfiguration))
	})

	It("builds every preset", func() {
		for _, name := range config.ListPresets() {
			_, err := evaluator.QuadraticFromConfig(&config.GetPreset(name).Evaluator)
			Expect(err).NotTo(HaveOccurred(), name)
		}
	})
})

var _ = Describe("Registry", func() {
	It("resolves the quadratic model by name and by default", func() {
		r := evaluator.NewRegistry()
		Expect(r.Names()).To(Equal([]string{"quadratic"}))

		cfg := config.GetPreset("cartpole_small")
		ev, err := r.FromConfig(&cfg.Evaluator)
		Expect(err).NotTo(HaveOccurred())
		Expect(ev).To(BeAssignableToTypeOf(&evaluator.Quadratic{}))

		cfg.Evaluator.CostModel = ""
		_, err = r.FromConfig(&cfg.Evaluator)
		Expect(err).NotTo(HaveOccurred())
	})

	It("rejects unknown cost models", func() {
		cfg := config.GetPreset("cartpole_small")
		cfg.Evaluator.CostModel = "huber"

		_, err := evaluator.NewRegistry().FromConfig(&cfg.Evaluator)
		Expect(err).To(MatchError(dynamo.ErrInvalidConfiguration))
		Expect(err.Error()).To(HavePrefix(`unknown cost model "huber" (available: [quadratic])`))
	})

	It("accepts additional factories", func() {
		r := evaluator.NewRegistry()
		called := false
		r.Register("custom", func(cfg *config.Evaluator) (evaluator.Evaluator, error) {
			called = true
			return evaluator.QuadraticFromConfig(cfg)
		})

		cfg := config.GetPreset("cartpole_small")
		cfg.Evaluator.CostModel = "custom"
		_, err := r.FromConfig(&cfg.Evaluator)
		Expect(err).NotTo(HaveOccurred())
		Expect(called).To(BeTrue())
		Expect(r.Names()).To(Equal([]string{"custom", "quadratic"}))
	})
})
