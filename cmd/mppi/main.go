package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"text/tabwriter"
	"time"

	"github.com/san-kum/mppi/internal/config"
	"github.com/san-kum/mppi/internal/dynamo"
	"github.com/san-kum/mppi/internal/evaluator"
	"github.com/san-kum/mppi/internal/report"
	"github.com/san-kum/mppi/internal/rollout"
	"github.com/spf13/cobra"
	"k8s.io/klog/v2"
)

var (
	configFile string
	preset     string
	samples    int
	seed       int64
	iterations int
	outFile    string
)

// main registers the mppi commands and exits with status 1 when the
// selected command fails.
func main() {
	rootCmd := &cobra.Command{
		Use:           "mppi",
		Short:         "MPPI trajectory cost evaluation",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	klogFlags := flag.NewFlagSet("klog", flag.ExitOnError)
	klog.InitFlags(klogFlags)
	rootCmd.PersistentFlags().AddGoFlagSet(klogFlags)

	evalCmd := &cobra.Command{
		Use:   "eval",
		Short: "sample trajectories and score them",
		Args:  cobra.NoArgs,
		RunE:  runEval,
	}
	addConfigFlags(evalCmd)

	benchCmd := &cobra.Command{
		Use:   "bench",
		Short: "time repeated cost evaluations of one batch",
		Args:  cobra.NoArgs,
		RunE:  runBench,
	}
	addConfigFlags(benchCmd)
	benchCmd.Flags().IntVar(&iterations, "iterations", 100, "evaluations to time")

	presetsCmd := &cobra.Command{
		Use:   "presets",
		Short: "list available presets",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Println("presets:")
			for _, p := range config.ListPresets() {
				fmt.Printf("  %s\n", p)
			}
		},
	}

	configCmd := &cobra.Command{
		Use:   "config",
		Short: "write the resolved configuration as yaml",
		Args:  cobra.NoArgs,
		RunE:  writeConfig,
	}
	addConfigFlags(configCmd)
	configCmd.Flags().StringVar(&outFile, "out", "", "output file (stdout when empty)")

	rootCmd.AddCommand(evalCmd, benchCmd, presetsCmd, configCmd)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	err := rootCmd.ExecuteContext(ctx)
	stop()
	if err != nil {
		klog.Errorf("%v", err)
		klog.Flush()
		os.Exit(1)
	}
	klog.Flush()
}

func addConfigFlags(cmd *cobra.Command) {
	cmd.Flags().StringVar(&configFile, "config", "", "config file path (yaml)")
	cmd.Flags().StringVar(&preset, "preset", "cartpole", "use preset configuration")
	cmd.Flags().IntVar(&samples, "samples", 0, "override number_samples")
	cmd.Flags().Int64Var(&seed, "seed", 0, "override rollout seed")
}

// resolveConfig picks the config file over the preset, then applies flag
// overrides.
func resolveConfig(cmd *cobra.Command) (*config.Config, error) {
	var cfg *config.Config
	if configFile != "" {
		loaded, err := config.Load(configFile)
		if err != nil {
			return nil, fmt.Errorf("failed to load config: %w", err)
		}
		cfg = loaded
	} else {
		cfg = config.GetPreset(preset)
		if cfg == nil {
			return nil, fmt.Errorf("unknown preset: %s (available: %v)", preset, config.ListPresets())
		}
	}

	if cmd.Flags().Changed("samples") {
		n := samples
		cfg.Evaluator.NumberSamples = &n
	}
	if cmd.Flags().Changed("seed") {
		cfg.Rollout.Seed = seed
	}
	return cfg, nil
}

// pipeline is one control cycle's worth of work: a cost model and the
// sampler that feeds it.
type pipeline struct {
	cfg     *config.Config
	eval    evaluator.Evaluator
	sampler *rollout.Sampler
}

func newPipeline(cfg *config.Config) (*pipeline, error) {
	ev, err := evaluator.NewRegistry().FromConfig(&cfg.Evaluator)
	if err != nil {
		return nil, err
	}

	reg := rollout.NewRegistry()
	sys, err := reg.GetSystem(cfg.Rollout.System, cfg.Rollout.Params)
	if err != nil {
		return nil, err
	}
	newInteg, err := reg.GetIntegrator(cfg.Rollout.Integrator)
	if err != nil {
		return nil, err
	}

	dims := ev.Dims()
	if sys.StateDim() != dims.StateDimension || sys.ControlDim() != dims.InputDimension {
		return nil, fmt.Errorf("system %s has state/input dims %d/%d, evaluator expects %d/%d: %w",
			cfg.Rollout.System, sys.StateDim(), sys.ControlDim(), dims.StateDimension, dims.InputDimension,
			dynamo.ErrInvalidShape)
	}

	sampler, err := rollout.NewSampler(sys, newInteg, cfg.Evaluator.Dt(), cfg.Evaluator.StdDev, cfg.Rollout.Seed)
	if err != nil {
		return nil, err
	}

	return &pipeline{cfg: cfg, eval: ev, sampler: sampler}, nil
}

func (p *pipeline) sample(ctx context.Context) (inputs, states *dynamo.Batch, err error) {
	dims := p.eval.Dims()
	nominal := [][]float64{p.cfg.Rollout.NominalInput}
	return p.sampler.Sample(ctx, p.cfg.Rollout.InitState, nominal, dims.SampleLength, dims.NumberSamples)
}

// finalStates views the last timestep of states as a (1, samples, dim)
// batch sharing its storage.
func finalStates(states *dynamo.Batch) (*dynamo.Batch, error) {
	h, n, d := states.Shape()
	if h == 0 {
		return nil, fmt.Errorf("no timesteps to take final states from: %w", dynamo.ErrInvalidShape)
	}
	return dynamo.NewBatchFrom(1, n, d, states.Data[(h-1)*n*d:])
}

func evaluate(ctx context.Context, cfg *config.Config, w io.Writer) error {
	p, err := newPipeline(cfg)
	if err != nil {
		return err
	}

	inputs, states, err := p.sample(ctx)
	if err != nil {
		return fmt.Errorf("rollout failed: %w", err)
	}

	if err := p.eval.ComputeSampleCosts(inputs, states); err != nil {
		return err
	}

	final, err := finalStates(states)
	if err != nil {
		return err
	}
	if fc, ok := p.eval.(evaluator.FinalStateCoster); ok {
		if _, err := fc.ComputeFinalStateCost(final); err != nil {
			return err
		}
		if !fc.HasFinalStateCost() {
			klog.V(1).Infof("cost model %q applies no terminal state cost", cfg.Evaluator.CostModel)
		}
	}

	sum, err := report.Summarize(p.eval.SampleCosts(), p.eval.SampleTotalCosts())
	if err != nil {
		return err
	}
	sum.BestFinalNorm = dynamo.State(final.At(0, sum.Best)).Norm()
	title := fmt.Sprintf("%s / %s", cfg.Rollout.System, cfg.Evaluator.CostModel)
	return report.Render(w, title, sum, p.eval.SampleCosts(), p.eval.SampleTotalCosts())
}

func runEval(cmd *cobra.Command, args []string) error {
	cfg, err := resolveConfig(cmd)
	if err != nil {
		return err
	}
	return evaluate(cmd.Context(), cfg, os.Stdout)
}

func runBench(cmd *cobra.Command, args []string) error {
	cfg, err := resolveConfig(cmd)
	if err != nil {
		return err
	}
	if iterations <= 0 {
		return fmt.Errorf("iterations must be positive, got %d", iterations)
	}

	p, err := newPipeline(cfg)
	if err != nil {
		return err
	}
	inputs, states, err := p.sample(cmd.Context())
	if err != nil {
		return fmt.Errorf("rollout failed: %w", err)
	}

	start := time.Now()
	for i := 0; i < iterations; i++ {
		if err := p.eval.ComputeSampleCosts(inputs, states); err != nil {
			return err
		}
	}
	elapsed := time.Since(start)

	dims := p.eval.Dims()
	cells := float64(dims.SampleLength*dims.NumberSamples) * float64(iterations)

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "SAMPLES\tSTEPS\tITERATIONS\tTIME/EVAL\tCELLS/SEC\tROLLOUT DERIVS")
	fmt.Fprintf(w, "%d\t%d\t%d\t%v\t%.0f\t%d\n",
		dims.NumberSamples, dims.SampleLength, iterations,
		elapsed/time.Duration(iterations), cells/elapsed.Seconds(), p.sampler.Evaluations())
	return w.Flush()
}

func writeConfig(cmd *cobra.Command, args []string) error {
	cfg, err := resolveConfig(cmd)
	if err != nil {
		return err
	}
	if outFile == "" {
		data, err := config.Marshal(cfg)
		if err != nil {
			return err
		}
		_, err = os.Stdout.Write(data)
		return err
	}
	if err := config.Save(outFile, cfg); err != nil {
		return err
	}
	fmt.Printf("config written to %s\n", outFile)
	return nil
}
