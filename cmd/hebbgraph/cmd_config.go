package main

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/nvandessel/hebbgraph/internal/checkpoint"
)

func newConfigCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "config",
		Short: "Show the effective configuration",
		Long: `Print the configuration after defaults, the config file and
HEBBGRAPH_* environment overrides have been applied.

Examples:
  hebbgraph config                       # YAML
  hebbgraph config --json                # JSON
  HEBBGRAPH_RULE=oja hebbgraph config    # Preview an override`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(cmd)
			if err != nil {
				return err
			}

			jsonOut, _ := cmd.Flags().GetBool("json")
			if jsonOut {
				return json.NewEncoder(cmd.OutOrStdout()).Encode(map[string]any{
					"config":      cfg,
					"fingerprint": checkpoint.Fingerprint(cfg.Hebbian),
				})
			}

			data, err := cfg.Marshal()
			if err != nil {
				return fmt.Errorf("failed to render config: %w", err)
			}
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "# fingerprint: %s\n", checkpoint.Fingerprint(cfg.Hebbian))
			_, err = out.Write(data)
			return err
		},
	}
}
