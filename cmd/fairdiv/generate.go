package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/katalvlaran/fairdiv/generate"
	"github.com/katalvlaran/fairdiv/instance"
)

// genFlags describe a random instance on the command line.
type genFlags struct {
	agents    int
	items     int
	seed      int64
	dist      string
	min       float64
	max       float64
	identical bool
}

// register adds the generator flags to cmd.
func (f *genFlags) register(cmd *cobra.Command) {
	fl := cmd.Flags()
	fl.IntVar(&f.agents, "agents", 3, "number of agents")
	fl.IntVar(&f.items, "items", 9, "number of items")
	fl.Int64Var(&f.seed, "seed", 1, "random seed")
	fl.StringVar(&f.dist, "dist", "integer", "value distribution: constant, integer, uniform or exponential")
	fl.Float64Var(&f.min, "min", 1, "smallest value (constant value for --dist constant)")
	fl.Float64Var(&f.max, "max", 10, "largest value (mean for --dist exponential)")
	fl.BoolVar(&f.identical, "identical", false, "give every agent the same valuation")
}

// valueFn maps --dist onto a generator. Bad ranges are reported as errors
// instead of the generator's panics.
func (f *genFlags) valueFn() (generate.ValueFn, error) {
	if f.min < 0 || f.max < f.min {
		return nil, fmt.Errorf("require 0 ≤ --min ≤ --max, got %g and %g", f.min, f.max)
	}
	switch f.dist {
	case "constant":
		return generate.ConstantValueFn(f.min), nil
	case "integer":
		return generate.IntegerValueFn(int(f.min), int(f.max)), nil
	case "uniform":
		return generate.UniformValueFn(f.min, f.max), nil
	case "exponential":
		if f.max <= 0 {
			return nil, fmt.Errorf("--max must be positive for --dist exponential")
		}
		return generate.ExponentialValueFn(1 / f.max), nil
	default:
		return nil, fmt.Errorf("unknown --dist %q", f.dist)
	}
}

// config returns the generator config for the given seed.
func (f *genFlags) config(seed int64) (generate.Config, error) {
	fn, err := f.valueFn()
	if err != nil {
		return generate.Config{}, err
	}

	return generate.Config{
		Agents:    f.agents,
		Items:     f.items,
		Seed:      seed,
		Values:    fn,
		Identical: f.identical,
	}, nil
}

func newGenerateCmd() *cobra.Command {
	f := &genFlags{}
	var out string
	cmd := &cobra.Command{
		Use:   "generate",
		Short: "Write a random instance as YAML",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := f.config(f.seed)
			if err != nil {
				return err
			}
			agents, items, err := generate.Random(cfg)
			if err != nil {
				return err
			}
			in, err := instance.FromAgents(agents, items)
			if err != nil {
				return err
			}
			if out != "" {
				return in.Save(out)
			}

			return in.Encode(cmd.OutOrStdout())
		},
	}
	f.register(cmd)
	cmd.Flags().StringVarP(&out, "output", "o", "", "write to this file instead of stdout")

	return cmd
}
