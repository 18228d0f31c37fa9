package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/nvandessel/hebbgraph/internal/training"
)

func newTrainCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "train <patterns.jsonl>",
		Short: "Apply a stream of co-activation patterns",
		Long: `Read co-activation patterns, one JSON object per line, and apply them to
the synapse graph with a pool of workers. Use "-" to read from stdin.

Each line looks like:
  {"active":[{"id":"<uuid>","level":0.8},{"id":"<uuid>","level":0.5}]}

Pruning, decay and checkpoints run on the cadence set under "training" in
the config. A final checkpoint is always saved, including on Ctrl+C.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			jsonOut, _ := cmd.Flags().GetBool("json")
			workers, _ := cmd.Flags().GetInt("workers")

			rt, err := openRuntime(cmd)
			if err != nil {
				return err
			}
			defer rt.Close()

			var in io.Reader = cmd.InOrStdin()
			if args[0] != "-" {
				f, err := os.Open(args[0])
				if err != nil {
					return fmt.Errorf("failed to open patterns: %w", err)
				}
				defer f.Close()
				in = f
			}

			tcfg := rt.cfg.Training
			if workers > 0 {
				tcfg.Workers = workers
			}
			trainer := training.New(rt.store, tcfg,
				training.WithCheckpoint(rt.ckpt, rt.meta),
				training.WithLogger(rt.logger),
				training.WithEventLog(rt.events))

			ctx, cancel := withShutdown(cmd.Context())
			defer cancel()

			patterns := make(chan training.Pattern, tcfg.QueueSize)
			var sum training.Summary
			g, gctx := errgroup.WithContext(ctx)
			g.Go(func() error {
				defer close(patterns)
				return training.ReadPatterns(gctx, in, patterns)
			})
			g.Go(func() error {
				var err error
				sum, err = trainer.Run(gctx, patterns)
				return err
			})
			if err := g.Wait(); err != nil {
				if ctx.Err() == nil || !errors.Is(err, context.Canceled) {
					return fmt.Errorf("training failed after %d patterns: %w", sum.Patterns, err)
				}
				rt.logger.Warn("training interrupted", "patterns", sum.Patterns)
			}

			if jsonOut {
				return json.NewEncoder(cmd.OutOrStdout()).Encode(sum)
			}
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Trained on %d patterns in %v\n", sum.Patterns, sum.Duration.Round(time.Millisecond))
			fmt.Fprintf(out, "  Synapses:    %d (%d created, %d updated)\n", sum.Synapses, sum.Created, sum.Updated)
			fmt.Fprintf(out, "  Pruned:      %d\n", sum.Pruned)
			fmt.Fprintf(out, "  Checkpoints: %d\n", sum.Checkpoints)
			return nil
		},
	}

	cmd.Flags().Int("workers", 0, "Worker goroutines (default: training.workers from config)")
	return cmd
}
