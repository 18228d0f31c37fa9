package main

import (
	"encoding/json"
	"fmt"
	"math"
	"strconv"

	"github.com/spf13/cobra"
)

func newPruneCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "prune",
		Short: "Remove synapses below the prune threshold",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			jsonOut, _ := cmd.Flags().GetBool("json")

			rt, err := openRuntime(cmd)
			if err != nil {
				return err
			}
			defer rt.Close()

			removed := rt.store.PruneWeakSynapses()
			rt.events.Record("prune", map[string]any{"removed": removed, "source": "cli"})

			info, err := rt.save(cmd.Context(), "prune")
			if err != nil {
				return err
			}

			if jsonOut {
				return json.NewEncoder(cmd.OutOrStdout()).Encode(map[string]any{
					"removed":    removed,
					"synapses":   info.Synapses,
					"checkpoint": info.Location,
				})
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Pruned %d synapses below %g (%d remain)\n",
				removed, rt.cfg.Hebbian.PruneThreshold, info.Synapses)
			return nil
		},
	}
}

func newDecayCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "decay <factor>",
		Short: "Multiply every synapse weight by a factor in (0, 1)",
		Long: `Scale every weight by factor. Decay never removes synapses; run
"hebbgraph prune" afterwards to drop weights that fell below the threshold.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			jsonOut, _ := cmd.Flags().GetBool("json")

			factor, err := strconv.ParseFloat(args[0], 64)
			if err != nil || math.IsNaN(factor) || factor <= 0 || factor >= 1 {
				return fmt.Errorf("factor must be a number strictly between 0 and 1, got %q", args[0])
			}

			rt, err := openRuntime(cmd)
			if err != nil {
				return err
			}
			defer rt.Close()

			decayed := rt.store.ApplyDecay(factor)
			rt.events.Record("decay", map[string]any{"factor": factor, "synapses": decayed, "source": "cli"})

			info, err := rt.save(cmd.Context(), "decay")
			if err != nil {
				return err
			}

			if jsonOut {
				return json.NewEncoder(cmd.OutOrStdout()).Encode(map[string]any{
					"decayed":    decayed,
					"factor":     factor,
					"checkpoint": info.Location,
				})
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Decayed %d synapses by %g\n", decayed, factor)
			return nil
		},
	}
}
