package training

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/nvandessel/hebbgraph/internal/checkpoint"
	"github.com/nvandessel/hebbgraph/internal/config"
	"github.com/nvandessel/hebbgraph/internal/logging"
	"github.com/nvandessel/hebbgraph/internal/synapse"
)

// Summary reports what a Run did.
type Summary struct {
	Patterns    int64         `json:"patterns"`
	Pairs       int64         `json:"pairs"`
	Created     int64         `json:"created"`
	Updated     int64         `json:"updated"`
	Pruned      int64         `json:"pruned"`
	Decayed     int64         `json:"decayed"`
	Checkpoints int           `json:"checkpoints"`
	Synapses    int           `json:"synapses"`
	Duration    time.Duration `json:"duration"`
}

// Trainer applies pattern streams to a synapse store.
type Trainer struct {
	store  *synapse.Store
	cfg    config.TrainingConfig
	ckpt   checkpoint.Store
	meta   checkpoint.Meta
	logger *slog.Logger
	events *logging.EventLog
}

// Option configures a Trainer.
type Option func(*Trainer)

// WithCheckpoint saves snapshots through cs. meta seeds the saved Meta;
// its Patterns count is advanced by every pattern the trainer applies.
func WithCheckpoint(cs checkpoint.Store, meta checkpoint.Meta) Option {
	return func(t *Trainer) {
		t.ckpt = cs
		t.meta = meta
	}
}

// WithLogger sets the operational logger.
func WithLogger(l *slog.Logger) Option {
	return func(t *Trainer) {
		if l != nil {
			t.logger = l
		}
	}
}

// WithEventLog records maintenance events to el. A nil el is allowed.
func WithEventLog(el *logging.EventLog) Option {
	return func(t *Trainer) {
		t.events = el
	}
}

// New creates a Trainer for st.
func New(st *synapse.Store, cfg config.TrainingConfig, opts ...Option) *Trainer {
	t := &Trainer{
		store:  st,
		cfg:    cfg,
		logger: logging.Discard(),
	}
	for _, opt := range opts {
		opt(t)
	}
	if t.cfg.Workers < 1 {
		t.cfg.Workers = 1
	}
	return t
}

type counters struct {
	patterns, pairs, created, updated atomic.Int64
	pruned, decayed                   atomic.Int64
	checkpoints                       atomic.Int32
	savedAt                           atomic.Int64
}

// Run applies patterns until the channel is closed or ctx is done, then
// saves a final checkpoint if a checkpoint store is configured and patterns
// were applied since the last one. Maintenance passes run on a single
// goroutine, so they never overlap each other. A canceled run still returns
// the partial Summary alongside ctx's error.
func (t *Trainer) Run(ctx context.Context, patterns <-chan Pattern) (Summary, error) {
	start := time.Now()
	var c counters

	g, gctx := errgroup.WithContext(ctx)
	due := make(chan int64, t.cfg.Workers)

	var workers sync.WaitGroup
	for range t.cfg.Workers {
		workers.Add(1)
		g.Go(func() error {
			defer workers.Done()
			return t.work(gctx, patterns, due, &c)
		})
	}
	g.Go(func() error {
		workers.Wait()
		close(due)
		return nil
	})
	g.Go(func() error {
		return t.maintain(gctx, due, &c)
	})

	runErr := g.Wait()

	if n := c.patterns.Load(); t.ckpt != nil && n > 0 && n != c.savedAt.Load() {
		// The final save must survive a canceled run.
		if err := t.save(context.WithoutCancel(ctx), n, &c); err != nil {
			runErr = errors.Join(runErr, err)
		}
	}

	sum := Summary{
		Patterns:    c.patterns.Load(),
		Pairs:       c.pairs.Load(),
		Created:     c.created.Load(),
		Updated:     c.updated.Load(),
		Pruned:      c.pruned.Load(),
		Decayed:     c.decayed.Load(),
		Checkpoints: int(c.checkpoints.Load()),
		Synapses:    t.store.Count(),
		Duration:    time.Since(start),
	}

	t.logger.Info("training finished",
		"patterns", sum.Patterns,
		"created", sum.Created,
		"pruned", sum.Pruned,
		"synapses", sum.Synapses,
		"duration", sum.Duration)
	t.events.Record("train", map[string]any{
		"patterns": sum.Patterns,
		"created":  sum.Created,
		"updated":  sum.Updated,
		"pruned":   sum.Pruned,
		"decayed":  sum.Decayed,
		"synapses": sum.Synapses,
	})

	return sum, runErr
}

func (t *Trainer) work(ctx context.Context, patterns <-chan Pattern, due chan<- int64, c *counters) error {
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case p, ok := <-patterns:
			if !ok {
				return nil
			}
			res := t.store.RecordCoactivationPattern(p.Active)
			c.pairs.Add(int64(res.Pairs))
			c.created.Add(int64(res.Created))
			c.updated.Add(int64(res.Updated))

			n := c.patterns.Add(1)
			t.logger.Log(ctx, logging.LevelTrace, "applied pattern",
				"n", n, "active", len(p.Active), "created", res.Created, "updated", res.Updated)
			if !t.isDue(n) {
				continue
			}
			select {
			case due <- n:
			case <-ctx.Done():
				return ctx.Err()
			}
		}
	}
}

func (t *Trainer) isDue(n int64) bool {
	return every(n, t.cfg.PruneEvery) || every(n, t.cfg.DecayEvery) ||
		(t.ckpt != nil && every(n, t.cfg.CheckpointEvery))
}

func every(n int64, interval int) bool {
	return interval > 0 && n%int64(interval) == 0
}

// maintain runs the passes due at each pattern count it receives. Decay runs
// before prune so a single tick removes synapses decay pushed below the
// threshold.
func (t *Trainer) maintain(ctx context.Context, due <-chan int64, c *counters) error {
	for n := range due {
		if ctx.Err() != nil {
			continue
		}
		if every(n, t.cfg.DecayEvery) {
			decayed := t.store.ApplyDecay(t.cfg.DecayFactor)
			c.decayed.Add(int64(decayed))
			t.events.Record("decay", map[string]any{"at": n, "factor": t.cfg.DecayFactor, "synapses": decayed})
		}
		if every(n, t.cfg.PruneEvery) {
			pruned := t.store.PruneWeakSynapses()
			c.pruned.Add(int64(pruned))
			t.events.Record("prune", map[string]any{"at": n, "removed": pruned})
		}
		if t.ckpt != nil && every(n, t.cfg.CheckpointEvery) {
			if err := t.save(ctx, n, c); err != nil {
				return err
			}
		}
	}
	return nil
}

func (t *Trainer) save(ctx context.Context, n int64, c *counters) error {
	meta := t.meta
	meta.Patterns += n

	info, err := checkpoint.Snapshot(ctx, t.ckpt, t.store, meta)
	if err != nil {
		return fmt.Errorf("checkpoint after %d patterns: %w", n, err)
	}
	c.checkpoints.Add(1)
	if n > c.savedAt.Load() {
		c.savedAt.Store(n)
	}

	t.logger.Debug("saved checkpoint", "location", info.Location, "synapses", info.Synapses)
	t.events.Record("checkpoint", map[string]any{
		"at":       n,
		"location": info.Location,
		"synapses": info.Synapses,
	})
	return nil
}
