package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/nvandessel/hebbgraph/internal/checkpoint"
	"github.com/nvandessel/hebbgraph/internal/synapse"
)

func newExportCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "export",
		Short: "Write every synapse as JSONL",
		Long: `Export the synapse graph as one {"pre","post","weight"} record per line,
sorted by (pre, post).

Examples:
  hebbgraph export                      # To stdout
  hebbgraph export --output graph.jsonl`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			output, _ := cmd.Flags().GetString("output")

			rt, err := openRuntime(cmd)
			if err != nil {
				return err
			}
			defer rt.Close()

			records := rt.store.ExportSynapses()
			synapse.SortRecords(records)

			if output == "" || output == "-" {
				return checkpoint.WriteRecords(cmd.OutOrStdout(), records)
			}

			f, err := os.OpenFile(output, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0600)
			if err != nil {
				return fmt.Errorf("failed to create output: %w", err)
			}
			if err := checkpoint.WriteRecords(f, records); err != nil {
				f.Close()
				return err
			}
			if err := f.Close(); err != nil {
				return fmt.Errorf("failed to close output: %w", err)
			}

			jsonOut, _ := cmd.Flags().GetBool("json")
			if jsonOut {
				return json.NewEncoder(cmd.OutOrStdout()).Encode(map[string]any{
					"path":     output,
					"synapses": len(records),
				})
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Exported %d synapses to %s\n", len(records), output)
			return nil
		},
	}

	cmd.Flags().String("output", "", "Output file (default: stdout)")
	return cmd
}

func newImportCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "import <records.jsonl>",
		Short: "Merge JSONL synapse records into the graph",
		Long: `Import {"pre","post","weight"} records. An imported record replaces any
existing weight for the same (pre, post); when a pair repeats in the input
the last record wins. Weights are clamped to the configured bounds and
self-loops are dropped. Use "-" to read from stdin.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			jsonOut, _ := cmd.Flags().GetBool("json")

			var in io.Reader = cmd.InOrStdin()
			if args[0] != "-" {
				f, err := os.Open(args[0])
				if err != nil {
					return fmt.Errorf("failed to open records: %w", err)
				}
				defer f.Close()
				in = f
			}
			records, err := checkpoint.ReadRecords(in)
			if err != nil {
				return fmt.Errorf("failed to read records: %w", err)
			}

			rt, err := openRuntime(cmd)
			if err != nil {
				return err
			}
			defer rt.Close()

			report := rt.store.ImportSynapses(records)
			info, err := rt.save(cmd.Context(), "import")
			if err != nil {
				return err
			}

			if jsonOut {
				return json.NewEncoder(cmd.OutOrStdout()).Encode(map[string]any{
					"report":   report,
					"synapses": info.Synapses,
				})
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Imported %d records: %d created, %d replaced, %d self-loops dropped, %d clamped\n",
				report.Records, report.Created, report.Replaced, report.SelfLoops, report.Clamped)
			return nil
		},
	}
}
