package main

import (
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/spf13/cobra"

	"github.com/katalvlaran/fairdiv/mms"
)

// globalFlags are the persistent flags shared by every subcommand.
type globalFlags struct {
	logLevel  string
	maxItems  int
	maxNodes  int64
	timeLimit time.Duration
}

// mmsOptions maps the budget flags onto oracle options.
func (g *globalFlags) mmsOptions() mms.Options {
	o := mms.DefaultOptions()
	o.MaxItems = g.maxItems
	o.MaxNodes = g.maxNodes
	o.TimeLimit = g.timeLimit

	return o
}

// logger builds a text logger on w at the configured level.
func (g *globalFlags) logger(w io.Writer) (*slog.Logger, error) {
	var level slog.Level
	if err := level.UnmarshalText([]byte(g.logLevel)); err != nil {
		return nil, fmt.Errorf("--log-level: %w", err)
	}

	return slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: level})), nil
}

func newRootCmd() *cobra.Command {
	g := &globalFlags{}
	root := &cobra.Command{
		Use:   "fairdiv",
		Short: "Approximate maximin-share allocation of indivisible goods",
		Long: `fairdiv divides indivisible items among agents with additive valuations
using the Fair Enough protocol: every agent receives a bundle worth a constant
fraction of its maximin share.`,
		SilenceUsage: true,
	}
	pf := root.PersistentFlags()
	pf.StringVar(&g.logLevel, "log-level", "warn", "log level: debug, info, warn or error")
	pf.IntVar(&g.maxItems, "max-items", mms.DefaultMaxItems, "largest item set the MMS search accepts")
	pf.Int64Var(&g.maxNodes, "max-nodes", mms.DefaultMaxNodes, "search-node budget per MMS computation")
	pf.DurationVar(&g.timeLimit, "time-limit", 0, "wall-clock budget per MMS computation (0 = none)")

	root.AddCommand(newAllocateCmd(g), newGenerateCmd(), newMMSCmd(g))

	return root
}
