package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/nvandessel/hebbgraph/internal/mcp"
)

func newMCPServerCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "mcp-server",
		Short: "Serve the synapse graph as MCP tools over stdio",
		Long: `Run an MCP (Model Context Protocol) server on stdin/stdout exposing
hebb_record, hebb_weight, hebb_neighbors, hebb_prune, hebb_decay,
hebb_stats and hebb_checkpoint.

The latest checkpoint is loaded on start. If any patterns were recorded, a
checkpoint is saved when the client disconnects or the server is stopped.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			noAudit, _ := cmd.Flags().GetBool("no-audit")

			rt, err := openRuntime(cmd)
			if err != nil {
				return err
			}
			defer rt.Close()

			auditDir := ""
			if !noAudit {
				auditDir = rt.cfg.Logging.EventDir
			}

			server, err := mcp.NewServer(&mcp.Config{
				Name:       "hebbgraph",
				Version:    version,
				Store:      rt.store,
				Checkpoint: rt.ckpt,
				Meta:       rt.meta,
				RateLimit:  rt.cfg.MCP.RateLimit,
				AuditDir:   auditDir,
				Logger:     rt.logger,
				Events:     rt.events,
			})
			if err != nil {
				return fmt.Errorf("failed to create MCP server: %w", err)
			}
			defer server.Close()

			ctx, cancel := withShutdown(cmd.Context())
			defer cancel()

			rt.logger.Info("mcp server starting", "synapses", rt.store.Count())
			if err := server.Run(ctx); err != nil && ctx.Err() == nil {
				return fmt.Errorf("MCP server error: %w", err)
			}
			return nil
		},
	}

	cmd.Flags().Bool("no-audit", false, "Disable the tool call audit log")
	return cmd
}
