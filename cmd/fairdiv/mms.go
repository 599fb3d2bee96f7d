package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/katalvlaran/fairdiv/instance"
	"github.com/katalvlaran/fairdiv/mms"
	"github.com/katalvlaran/fairdiv/valuation"
)

func newMMSCmd(g *globalFlags) *cobra.Command {
	var (
		agent string
		parts int
	)
	cmd := &cobra.Command{
		Use:   "mms instance.yaml",
		Short: "Print an agent's maximin share and a partition achieving it",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			in, err := instance.Load(args[0])
			if err != nil {
				return err
			}
			agents := in.ToAgents()
			if parts < 1 {
				parts = len(agents)
			}
			var target *valuation.Agent
			for i := range agents {
				if agents[i].Name == agent || (agent == "" && i == 0) {
					target = &agents[i]
					break
				}
			}
			if target == nil {
				return fmt.Errorf("no agent %q in %s", agent, args[0])
			}

			res, err := mms.Partition(target.Valuation, in.Items, parts, g.mmsOptions())
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "agent: %s\nparts: %d\nmms: %g\nnodes: %d\n", target.Name, parts, res.Value, res.Nodes)
			for k, b := range res.Bundles {
				fmt.Fprintf(out, "bundle %d: %v value=%g\n", k+1, b, target.BundleValue(b))
			}

			return nil
		},
	}
	cmd.Flags().StringVar(&agent, "agent", "", "agent name (default: the first agent)")
	cmd.Flags().IntVar(&parts, "parts", 0, "number of parts c (default: the number of agents)")

	return cmd
}
