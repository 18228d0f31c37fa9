// Package config provides unified configuration loading for hebbgraph.
// It supports loading from YAML files and environment variables.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/nvandessel/hebbgraph/internal/hebbian"
	"github.com/nvandessel/hebbgraph/internal/logging"
	"gopkg.in/yaml.v3"
)

// Config contains all hebbgraph configuration settings.
type Config struct {
	// Hebbian configures the learning rule and weight bounds.
	Hebbian hebbian.Config `json:"hebbian" yaml:"hebbian"`

	// Store configures the in-memory synapse store.
	Store StoreConfig `json:"store" yaml:"store"`

	// Training configures the worker pool and maintenance cadence.
	Training TrainingConfig `json:"training" yaml:"training"`

	// Checkpoint configures where exported synapses are persisted.
	Checkpoint CheckpointConfig `json:"checkpoint" yaml:"checkpoint"`

	// Logging contains settings for operational and event logging.
	Logging LoggingConfig `json:"logging" yaml:"logging"`

	// MCP configures the MCP tool server.
	MCP MCPConfig `json:"mcp" yaml:"mcp"`
}

// StoreConfig configures the synapse store.
type StoreConfig struct {
	// Shards is the number of lock shards, rounded up to a power of two.
	Shards int `json:"shards" yaml:"shards"`
}

// TrainingConfig configures the trainer.
type TrainingConfig struct {
	// Workers is the number of goroutines applying patterns.
	Workers int `json:"workers" yaml:"workers"`

	// QueueSize is the buffer between the pattern reader and the workers.
	QueueSize int `json:"queue_size" yaml:"queue_size"`

	// PruneEvery prunes after this many patterns. 0 disables.
	PruneEvery int `json:"prune_every" yaml:"prune_every"`

	// DecayEvery decays after this many patterns. 0 disables.
	DecayEvery int `json:"decay_every" yaml:"decay_every"`

	// DecayFactor is the multiplier applied on each decay pass, in (0, 1).
	DecayFactor float64 `json:"decay_factor" yaml:"decay_factor"`

	// CheckpointEvery saves a checkpoint after this many patterns. 0 saves
	// only at the end of a run.
	CheckpointEvery int `json:"checkpoint_every" yaml:"checkpoint_every"`
}

// CheckpointConfig configures checkpoint persistence.
type CheckpointConfig struct {
	// Backend is "file" (default) or "sqlite".
	Backend string `json:"backend" yaml:"backend"`

	// Path is a directory for the file backend, or a database file for
	// sqlite. Supports ${VAR} expansion.
	Path string `json:"path" yaml:"path"`

	// Keep is how many checkpoint files the file backend retains. 0 keeps all.
	Keep int `json:"keep" yaml:"keep"`

	// MaxAge drops file checkpoints older than this. 0 disables.
	MaxAge time.Duration `json:"max_age,omitempty" yaml:"max_age,omitempty"`
}

// LoggingConfig configures hebbgraph's logging behavior.
type LoggingConfig struct {
	// Level sets the log verbosity: "warn", "info" (default), "debug", or "trace".
	// "debug" and "trace" also enable the maintenance event log.
	Level string `json:"level" yaml:"level"`

	// EventDir is where events.jsonl is written. Defaults to the home dir.
	EventDir string `json:"event_dir,omitempty" yaml:"event_dir,omitempty"`
}

// MCPConfig configures the MCP server.
type MCPConfig struct {
	// RateLimit enables per-tool rate limiting.
	RateLimit bool `json:"rate_limit" yaml:"rate_limit"`
}

// HomeDir returns ~/.hebbgraph, or .hebbgraph when the user home is unknown.
func HomeDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ".hebbgraph"
	}
	return filepath.Join(home, ".hebbgraph")
}

// Default returns a Config with sensible defaults.
func Default() *Config {
	home := HomeDir()
	return &Config{
		Hebbian: hebbian.DefaultConfig(),
		Store: StoreConfig{
			Shards: 64,
		},
		Training: TrainingConfig{
			Workers:         4,
			QueueSize:       256,
			PruneEvery:      1000,
			DecayEvery:      1000,
			DecayFactor:     0.99,
			CheckpointEvery: 0,
		},
		Checkpoint: CheckpointConfig{
			Backend: "file",
			Path:    filepath.Join(home, "checkpoints"),
			Keep:    5,
		},
		Logging: LoggingConfig{
			Level:    "info",
			EventDir: home,
		},
		MCP: MCPConfig{
			RateLimit: true,
		},
	}
}

// Load loads configuration from path, or from ~/.hebbgraph/config.yaml when
// path is empty and that file exists, then applies environment overrides.
// Order: defaults -> file -> environment variables
func Load(path string) (*Config, error) {
	cfg := Default()

	if path == "" {
		candidate := filepath.Join(HomeDir(), "config.yaml")
		if _, err := os.Stat(candidate); err == nil {
			path = candidate
		}
	}
	if path != "" {
		fileCfg, err := LoadFromFile(path)
		if err != nil {
			return nil, fmt.Errorf("loading config file: %w", err)
		}
		cfg = fileCfg
	}

	applyEnvOverrides(cfg)
	return cfg, nil
}

// LoadFromFile loads configuration from a specific YAML file on top of the
// defaults.
func LoadFromFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config file: %w", err)
	}

	cfg := Default()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parsing config file: %w", err)
	}

	cfg.Checkpoint.Path = expandEnvVars(cfg.Checkpoint.Path)
	cfg.Logging.EventDir = expandEnvVars(cfg.Logging.EventDir)
	return cfg, nil
}

// Marshal renders the configuration as YAML.
func (c *Config) Marshal() ([]byte, error) {
	return yaml.Marshal(c)
}

// Validate checks that the configuration is valid.
func (c *Config) Validate() error {
	if err := c.Hebbian.Validate(); err != nil {
		return err
	}

	if c.Store.Shards < 1 {
		return fmt.Errorf("store.shards must be >= 1, got %d", c.Store.Shards)
	}

	t := c.Training
	if t.Workers < 1 {
		return fmt.Errorf("training.workers must be >= 1, got %d", t.Workers)
	}
	if t.QueueSize < 0 {
		return fmt.Errorf("training.queue_size must be >= 0, got %d", t.QueueSize)
	}
	if t.PruneEvery < 0 || t.DecayEvery < 0 || t.CheckpointEvery < 0 {
		return fmt.Errorf("training cadences must be >= 0")
	}
	if t.DecayEvery > 0 && (t.DecayFactor <= 0 || t.DecayFactor >= 1) {
		return fmt.Errorf("training.decay_factor must be in (0, 1), got %v", t.DecayFactor)
	}

	validBackends := map[string]bool{"file": true, "sqlite": true}
	if !validBackends[c.Checkpoint.Backend] {
		return fmt.Errorf("invalid checkpoint backend: %s (valid: file, sqlite)", c.Checkpoint.Backend)
	}
	if c.Checkpoint.Path == "" {
		return fmt.Errorf("checkpoint.path is required")
	}
	if c.Checkpoint.Keep < 0 {
		return fmt.Errorf("checkpoint.keep must be >= 0, got %d", c.Checkpoint.Keep)
	}

	if !logging.ValidLevel(c.Logging.Level) {
		return fmt.Errorf("invalid log level: %s (valid: warn, info, debug, trace, or empty for default)", c.Logging.Level)
	}

	return nil
}

// applyEnvOverrides applies environment variable overrides to the config.
func applyEnvOverrides(cfg *Config) {
	setFloat := func(key string, dst *float64) {
		if v := os.Getenv(key); v != "" {
			if f, err := strconv.ParseFloat(v, 64); err == nil {
				*dst = f
			}
		}
	}
	setInt := func(key string, dst *int) {
		if v := os.Getenv(key); v != "" {
			if n, err := strconv.Atoi(v); err == nil {
				*dst = n
			}
		}
	}

	setFloat("HEBBGRAPH_LEARNING_RATE", &cfg.Hebbian.LearningRate)
	setFloat("HEBBGRAPH_PRUNE_THRESHOLD", &cfg.Hebbian.PruneThreshold)
	setFloat("HEBBGRAPH_CREATION_THRESHOLD", &cfg.Hebbian.CreationThreshold)
	if v := os.Getenv("HEBBGRAPH_RULE"); v != "" {
		cfg.Hebbian.Rule = strings.ToLower(v)
	}

	setInt("HEBBGRAPH_SHARDS", &cfg.Store.Shards)
	setInt("HEBBGRAPH_WORKERS", &cfg.Training.Workers)
	setFloat("HEBBGRAPH_DECAY_FACTOR", &cfg.Training.DecayFactor)

	if v := os.Getenv("HEBBGRAPH_CHECKPOINT_BACKEND"); v != "" {
		cfg.Checkpoint.Backend = v
	}
	if v := os.Getenv("HEBBGRAPH_CHECKPOINT_PATH"); v != "" {
		cfg.Checkpoint.Path = expandEnvVars(v)
	}

	if v := os.Getenv("HEBBGRAPH_LOG_LEVEL"); v != "" {
		cfg.Logging.Level = v
	}

	if v := os.Getenv("HEBBGRAPH_MCP_RATE_LIMIT"); v != "" {
		cfg.MCP.RateLimit = v == "true" || v == "1"
	}
}

// expandEnvVars expands ${VAR} patterns in a string with environment variable values.
func expandEnvVars(s string) string {
	if !strings.Contains(s, "${") {
		return s
	}
	return os.Expand(s, os.Getenv)
}
