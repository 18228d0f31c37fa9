package main

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/nvandessel/hebbgraph/internal/checkpoint"
	"github.com/nvandessel/hebbgraph/internal/config"
	"github.com/nvandessel/hebbgraph/internal/logging"
	"github.com/nvandessel/hebbgraph/internal/synapse"
)

// runtime is the state shared by every command: config, loggers, the
// synapse store restored from the latest checkpoint, and the checkpoint
// store it came from.
type runtime struct {
	cfg    *config.Config
	logger *slog.Logger
	events *logging.EventLog
	store  *synapse.Store
	ckpt   checkpoint.Store
	meta   checkpoint.Meta
}

// loadConfig resolves the effective configuration from --config, the
// environment and --log-level.
func loadConfig(cmd *cobra.Command) (*config.Config, error) {
	path, _ := cmd.Flags().GetString("config")
	cfg, err := config.Load(path)
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	if level, _ := cmd.Flags().GetString("log-level"); level != "" {
		cfg.Logging.Level = level
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return cfg, nil
}

// openRuntime loads config, builds the store and restores the latest
// checkpoint into it.
func openRuntime(cmd *cobra.Command) (*runtime, error) {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return nil, err
	}

	logger := logging.NewLogger(cfg.Logging.Level, cmd.ErrOrStderr())
	slog.SetDefault(logger)

	st, err := synapse.New(cfg.Hebbian,
		synapse.WithShards(cfg.Store.Shards),
		synapse.WithLogger(logger))
	if err != nil {
		return nil, err
	}

	cs, err := checkpoint.Open(cfg.Checkpoint.Backend, cfg.Checkpoint.Path,
		checkpoint.PolicyFor(cfg.Checkpoint.Keep, cfg.Checkpoint.MaxAge))
	if err != nil {
		return nil, fmt.Errorf("failed to open checkpoint store: %w", err)
	}

	rt := &runtime{
		cfg:    cfg,
		logger: logger,
		events: logging.NewEventLog(cfg.Logging.EventDir, cfg.Logging.Level),
		store:  st,
		ckpt:   cs,
	}

	report, meta, err := checkpoint.Restore(cmd.Context(), cs, st)
	if err != nil {
		rt.Close()
		return nil, err
	}

	fp := checkpoint.Fingerprint(cfg.Hebbian)
	if meta.Fingerprint != "" && meta.Fingerprint != fp {
		logger.Warn("checkpoint was built with a different learning config",
			"checkpoint", meta.Fingerprint, "current", fp)
	}
	meta.Fingerprint = fp
	rt.meta = meta

	logger.Debug("restored checkpoint",
		"backend", cfg.Checkpoint.Backend,
		"synapses", report.Created,
		"patterns", meta.Patterns)
	return rt, nil
}

// save snapshots the store with note attached.
func (rt *runtime) save(ctx context.Context, note string) (checkpoint.Info, error) {
	meta := rt.meta
	meta.Note = note
	info, err := checkpoint.Snapshot(ctx, rt.ckpt, rt.store, meta)
	if err != nil {
		return checkpoint.Info{}, err
	}
	rt.events.Record("checkpoint", map[string]any{
		"location": info.Location,
		"synapses": info.Synapses,
		"source":   note,
	})
	return info, nil
}

func (rt *runtime) Close() error {
	rt.events.Close()
	return rt.ckpt.Close()
}
