package main

import (
	"fmt"
	"log/slog"

	"github.com/google/uuid"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"
	"gopkg.in/yaml.v3"

	"github.com/katalvlaran/fairdiv/fairenough"
	"github.com/katalvlaran/fairdiv/generate"
	"github.com/katalvlaran/fairdiv/instance"
	"github.com/katalvlaran/fairdiv/valuation"
)

// job is one allocation to run: a loaded file or a generated instance.
type job struct {
	source string
	agents []valuation.Agent
	items  []valuation.Item
}

// report is the YAML summary of one run.
type report struct {
	Run         string        `yaml:"run"`
	Source      string        `yaml:"source"`
	Agents      []agentReport `yaml:"agents,omitempty"`
	Unallocated []string      `yaml:"unallocated,omitempty"`
	OracleCalls int           `yaml:"oracle_calls,omitempty"`
	Rotations   int           `yaml:"rotations,omitempty"`
	Error       string        `yaml:"error,omitempty"`
}

// agentReport is one agent's line of a report.
type agentReport struct {
	Name         string   `yaml:"name"`
	Bundle       []string `yaml:"bundle,flow"`
	Value        float64  `yaml:"value"`
	Stage        string   `yaml:"stage"`
	ThresholdMet *bool    `yaml:"threshold_met,omitempty"`
	GammaMMS     *bool    `yaml:"gamma_mms,omitempty"`
}

func newAllocateCmd(g *globalFlags) *cobra.Command {
	gen := &genFlags{}
	var (
		random   int
		parallel int
		check    bool
	)
	cmd := &cobra.Command{
		Use:   "allocate [instance.yaml ...]",
		Short: "Allocate the items of each instance and print a YAML report",
		Long: `allocate runs the Fair Enough protocol once per instance file, or on
--random generated instances (seeds derived from --seed). Runs are independent
and may proceed in parallel; a failing run is reported and does not stop the
others.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			logger, err := g.logger(cmd.ErrOrStderr())
			if err != nil {
				return err
			}
			jobs, err := collectJobs(args, random, gen)
			if err != nil {
				return err
			}
			if len(jobs) == 0 {
				return fmt.Errorf("nothing to allocate: pass instance files or --random N")
			}

			opts := []fairenough.Option{fairenough.WithMMSOptions(g.mmsOptions())}
			reports := runJobs(jobs, parallel, check, logger, opts)

			enc := yaml.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent(2)
			if err = enc.Encode(reports); err != nil {
				return err
			}
			if err = enc.Close(); err != nil {
				return err
			}

			failed := 0
			for _, r := range reports {
				if r.Error != "" {
					failed++
				}
			}
			if failed > 0 {
				return fmt.Errorf("%d of %d runs failed", failed, len(reports))
			}

			return nil
		},
	}
	gen.register(cmd)
	fl := cmd.Flags()
	fl.IntVar(&random, "random", 0, "allocate this many generated instances")
	fl.IntVar(&parallel, "parallel", 1, "maximum concurrent runs")
	fl.BoolVar(&check, "check", false, "report whether each bundle is worth γ·MMS of the whole instance")

	return cmd
}

// collectJobs loads every file, then appends the generated instances.
func collectJobs(paths []string, random int, gen *genFlags) ([]job, error) {
	jobs := make([]job, 0, len(paths)+random)
	for _, p := range paths {
		in, err := instance.Load(p)
		if err != nil {
			return nil, err
		}
		jobs = append(jobs, job{source: p, agents: in.ToAgents(), items: in.Items})
	}
	if random <= 0 {
		return jobs, nil
	}
	base, err := gen.config(gen.seed)
	if err != nil {
		return nil, err
	}
	for _, cfg := range base.Batch(random) {
		agents, items, err := generate.Random(cfg)
		if err != nil {
			return nil, err
		}
		jobs = append(jobs, job{source: fmt.Sprintf("random seed=%d", cfg.Seed), agents: agents, items: items})
	}

	return jobs, nil
}

// runJobs allocates every job with at most parallel runs in flight. Each run
// owns its ledger, so nothing is shared between goroutines but the read-only
// inputs. Reports keep job order.
func runJobs(jobs []job, parallel int, check bool, logger *slog.Logger, opts []fairenough.Option) []report {
	if parallel < 1 {
		parallel = 1
	}
	reports := make([]report, len(jobs))

	var eg errgroup.Group
	eg.SetLimit(parallel)
	for k, j := range jobs {
		k, j := k, j
		eg.Go(func() error {
			id := uuid.NewString()[:8]
			log := logger.With("run", id, "source", j.source)
			runOpts := append([]fairenough.Option{fairenough.WithLogger(log)}, opts...)
			reports[k] = allocateOne(id, j, check, runOpts)

			return nil
		})
	}
	_ = eg.Wait()

	return reports
}

// allocateOne runs a single job and summarises it.
func allocateOne(id string, j job, check bool, opts []fairenough.Option) report {
	r := report{Run: id, Source: j.source}
	a, err := fairenough.Allocate(j.agents, j.items, opts...)
	if err != nil {
		r.Error = err.Error()

		return r
	}

	for _, name := range a.Agents() {
		b, _ := a.Bundle(name)
		v, _ := a.Value(name)
		rec, _ := a.Record(name)
		ar := agentReport{Name: name, Bundle: b, Value: v, Stage: rec.Stage.String()}
		if ok, err := a.MeetsThreshold(name); err == nil {
			ar.ThresholdMet = &ok
		}
		if check {
			if ok, err := a.SatisfiesGlobalGammaMMS(name); err == nil {
				ar.GammaMMS = &ok
			}
		}
		r.Agents = append(r.Agents, ar)
	}
	r.Unallocated = a.Unallocated()
	st := a.Stats()
	r.OracleCalls = st.OracleCalls
	r.Rotations = st.Rotations

	return r
}
