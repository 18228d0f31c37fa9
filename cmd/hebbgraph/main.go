package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

// Set via -ldflags at release time.
var (
	version = "0.1.0-dev"
	commit  = "none"
	date    = "unknown"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "hebbgraph",
		Short: "Sparse Hebbian synapse graph",
		Long: `hebbgraph learns a sparse weighted graph of neuron-to-neuron synapses
from co-activation patterns, using a Hebbian update rule with pruning and
decay.

State lives in checkpoints (~/.hebbgraph/checkpoints by default). Every
command loads the latest checkpoint; commands that change the graph save a
new one when they finish.`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	rootCmd.PersistentFlags().String("config", "", "Config file (default: ~/.hebbgraph/config.yaml if present)")
	rootCmd.PersistentFlags().Bool("json", false, "Output as JSON")
	rootCmd.PersistentFlags().String("log-level", "", "Override log level (warn, info, debug, trace)")

	rootCmd.AddCommand(
		newVersionCmd(),
		newConfigCmd(),
		newTrainCmd(),
		newStatsCmd(),
		newWeightCmd(),
		newNeighborsCmd(),
		newPruneCmd(),
		newDecayCmd(),
		newExportCmd(),
		newImportCmd(),
		newMCPServerCmd(),
	)
	return rootCmd
}
