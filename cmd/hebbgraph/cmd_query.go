package main

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/nvandessel/hebbgraph/internal/neuron"
)

func newStatsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "stats",
		Short: "Summarize the synapse graph",
		Long: `Show synapse counts and the weight distribution of the latest checkpoint.

With --population N, also report sparsity and connectivity relative to a
population of N neurons.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			jsonOut, _ := cmd.Flags().GetBool("json")
			population, _ := cmd.Flags().GetInt("population")
			if population < 0 {
				return fmt.Errorf("--population must be >= 0, got %d", population)
			}

			rt, err := openRuntime(cmd)
			if err != nil {
				return err
			}
			defer rt.Close()

			st := rt.store.Stats(population)
			if jsonOut {
				return json.NewEncoder(cmd.OutOrStdout()).Encode(map[string]any{
					"stats":    st,
					"patterns": rt.meta.Patterns,
				})
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Synapses:     %d\n", st.Synapses)
			fmt.Fprintf(out, "Presynaptic:  %d\n", st.Presynaptic)
			fmt.Fprintf(out, "Weights:      min %.4f  mean %.4f  max %.4f\n", st.MinWeight, st.MeanWeight, st.MaxWeight)
			fmt.Fprintf(out, "Below prune:  %d\n", st.BelowPrune)
			fmt.Fprintf(out, "Patterns:     %d\n", rt.meta.Patterns)
			if population > 0 {
				fmt.Fprintf(out, "Sparsity:     %.6f (population %d)\n", st.Sparsity, population)
				fmt.Fprintf(out, "Connectivity: %.6f\n", st.Connectivity)
			}
			return nil
		},
	}

	cmd.Flags().Int("population", 0, "Neuron population size for sparsity")
	return cmd
}

func newWeightCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "weight <pre> <post>",
		Short: "Print the weight of one synapse",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			jsonOut, _ := cmd.Flags().GetBool("json")

			pre, err := neuron.Parse(args[0])
			if err != nil {
				return fmt.Errorf("invalid pre: %w", err)
			}
			post, err := neuron.Parse(args[1])
			if err != nil {
				return fmt.Errorf("invalid post: %w", err)
			}

			rt, err := openRuntime(cmd)
			if err != nil {
				return err
			}
			defer rt.Close()

			w := rt.store.Weight(pre, post)
			if jsonOut {
				return json.NewEncoder(cmd.OutOrStdout()).Encode(map[string]any{
					"pre":    pre,
					"post":   post,
					"weight": w,
					"exists": rt.store.Has(pre, post),
				})
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%g\n", w)
			return nil
		},
	}
}

func newNeighborsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "neighbors <pre>",
		Short: "List a neuron's outgoing synapses, strongest first",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			jsonOut, _ := cmd.Flags().GetBool("json")
			limit, _ := cmd.Flags().GetInt("limit")

			pre, err := neuron.Parse(args[0])
			if err != nil {
				return fmt.Errorf("invalid pre: %w", err)
			}

			rt, err := openRuntime(cmd)
			if err != nil {
				return err
			}
			defer rt.Close()

			records := rt.store.Neighbors(pre)
			if limit > 0 && len(records) > limit {
				records = records[:limit]
			}

			if jsonOut {
				return json.NewEncoder(cmd.OutOrStdout()).Encode(records)
			}
			out := cmd.OutOrStdout()
			if len(records) == 0 {
				fmt.Fprintf(out, "No outgoing synapses from %s\n", pre)
				return nil
			}
			for _, r := range records {
				fmt.Fprintf(out, "%s  %.6f\n", r.Post, r.Weight)
			}
			return nil
		},
	}

	cmd.Flags().Int("limit", 0, "Show at most this many neighbors (0 = all)")
	return cmd
}
