// Package mcp exposes a synapse store as MCP (Model Context Protocol) tools.
package mcp

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync/atomic"

	sdk "github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/nvandessel/hebbgraph/internal/checkpoint"
	"github.com/nvandessel/hebbgraph/internal/logging"
	"github.com/nvandessel/hebbgraph/internal/ratelimit"
	"github.com/nvandessel/hebbgraph/internal/synapse"
)

// Server wraps the MCP SDK server around a synapse store.
type Server struct {
	server *sdk.Server
	store  *synapse.Store
	ckpt   checkpoint.Store
	meta   checkpoint.Meta
	limits *ratelimit.Set
	audit  *AuditLogger
	events *logging.EventLog
	logger *slog.Logger

	// patterns counts hebb_record calls since the server started.
	patterns atomic.Int64
}

// Config holds server configuration.
type Config struct {
	Name    string // Server name (e.g., "hebbgraph")
	Version string // Server version

	Store      *synapse.Store
	Checkpoint checkpoint.Store // optional; hebb_checkpoint fails without it
	Meta       checkpoint.Meta  // restored meta, advanced by recorded patterns

	RateLimit bool
	AuditDir  string // empty disables the audit log

	Logger *slog.Logger
	Events *logging.EventLog
}

// NewServer creates a new MCP server with the hebb_* tools registered.
func NewServer(cfg *Config) (*Server, error) {
	if cfg == nil || cfg.Store == nil {
		return nil, errors.New("mcp server requires a synapse store")
	}

	mcpServer := sdk.NewServer(&sdk.Implementation{
		Name:    cfg.Name,
		Version: cfg.Version,
	}, nil)

	s := &Server{
		server: mcpServer,
		store:  cfg.Store,
		ckpt:   cfg.Checkpoint,
		meta:   cfg.Meta,
		events: cfg.Events,
		logger: cfg.Logger,
	}
	if s.logger == nil {
		s.logger = logging.Discard()
	}
	if cfg.RateLimit {
		s.limits = ratelimit.NewSet(ratelimit.DefaultRules())
	}
	if cfg.AuditDir != "" {
		s.audit = NewAuditLogger(cfg.AuditDir)
	}

	s.registerTools()
	return s, nil
}

// Run serves over stdio until the client disconnects or ctx is done. If
// patterns were recorded and a checkpoint store is configured, a final
// checkpoint is saved on the way out.
func (s *Server) Run(ctx context.Context) error {
	err := s.server.Run(ctx, &sdk.StdioTransport{})

	if s.ckpt != nil && s.patterns.Load() > 0 {
		if _, serr := s.saveCheckpoint(context.WithoutCancel(ctx), "shutdown"); serr != nil {
			err = errors.Join(err, serr)
		}
	}
	return err
}

// Close releases the audit log. The synapse and checkpoint stores belong to
// the caller.
func (s *Server) Close() error {
	return s.audit.Close()
}

func (s *Server) saveCheckpoint(ctx context.Context, note string) (checkpoint.Info, error) {
	if s.ckpt == nil {
		return checkpoint.Info{}, errors.New("no checkpoint store configured")
	}
	meta := s.meta
	meta.Patterns += s.patterns.Load()
	meta.Note = note

	info, err := checkpoint.Snapshot(ctx, s.ckpt, s.store, meta)
	if err != nil {
		return checkpoint.Info{}, fmt.Errorf("checkpoint failed: %w", err)
	}
	s.logger.Info("saved checkpoint", "location", info.Location, "synapses", info.Synapses)
	s.events.Record("checkpoint", map[string]any{
		"location": info.Location,
		"synapses": info.Synapses,
		"source":   "mcp",
	})
	return info, nil
}
