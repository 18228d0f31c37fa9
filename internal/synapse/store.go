// Package synapse implements the sparse synaptic graph: a sharded map of
// directed, weighted edges between neuron identifiers, learned through
// co-activation and maintained by explicit prune and decay passes.
//
// Locking: each shard guards the outgoing adjacency of the presynaptic
// neurons routed to it, so a read-modify-clamp-write of one pair holds exactly
// one shard lock. Full-graph passes (prune, decay, export, import) serialize
// on a separate maintenance mutex and visit shards one at a time.
package synapse

import (
	"fmt"
	"hash/maphash"
	"log/slog"
	"math"
	"math/bits"
	"sort"
	"sync"
	"sync/atomic"

	"github.com/nvandessel/hebbgraph/internal/hebbian"
	"github.com/nvandessel/hebbgraph/internal/neuron"
)

// DefaultShards is the shard count used when WithShards is not given.
const DefaultShards = 64

// Record is one directed synapse. It is also the unit of export/import.
type Record struct {
	Pre    neuron.ID `json:"pre"`
	Post   neuron.ID `json:"post"`
	Weight float64   `json:"weight"`
}

type shard struct {
	mu  sync.RWMutex
	out map[neuron.ID]map[neuron.ID]float64
}

// Store is the sparse synaptic graph. It is safe for concurrent use.
type Store struct {
	cfg      hebbian.Config
	rule     hebbian.Rule
	creation float64

	seed   maphash.Seed
	shards []*shard
	mask   uint64

	count  atomic.Int64
	passMu sync.Mutex

	logger *slog.Logger
}

// Option customizes a Store.
type Option func(*Store)

// WithShards sets the shard count, rounded up to a power of two.
// Values below 1 select a single shard.
func WithShards(n int) Option {
	return func(s *Store) {
		if n < 1 {
			n = 1
		}
		size := 1 << bits.Len(uint(n-1))
		s.shards = make([]*shard, size)
	}
}

// WithLogger sets the logger used for maintenance passes.
func WithLogger(l *slog.Logger) Option {
	return func(s *Store) {
		if l != nil {
			s.logger = l
		}
	}
}

// New creates an empty store. It fails only when cfg is invalid.
func New(cfg hebbian.Config, opts ...Option) (*Store, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("creating synapse store: %w", err)
	}
	if cfg.Rule == "" {
		cfg.Rule = hebbian.RuleProduct
	}

	s := &Store{
		cfg:      cfg,
		rule:     hebbian.NewRule(cfg),
		creation: cfg.EffectiveCreationThreshold(),
		seed:     maphash.MakeSeed(),
		shards:   make([]*shard, DefaultShards),
		logger:   slog.New(slog.DiscardHandler),
	}
	for _, opt := range opts {
		opt(s)
	}
	for i := range s.shards {
		s.shards[i] = &shard{out: make(map[neuron.ID]map[neuron.ID]float64)}
	}
	s.mask = uint64(len(s.shards) - 1)
	return s, nil
}

// Config returns the learning configuration the store was built with.
func (s *Store) Config() hebbian.Config {
	return s.cfg
}

// ShardCount reports the number of shards.
func (s *Store) ShardCount() int {
	return len(s.shards)
}

func (s *Store) shardFor(pre neuron.ID) *shard {
	return s.shards[maphash.Comparable(s.seed, pre)&s.mask]
}

// Weight returns the weight of (pre, post), or 0 if no such synapse exists.
// It never creates an entry.
func (s *Store) Weight(pre, post neuron.ID) float64 {
	sh := s.shardFor(pre)
	sh.mu.RLock()
	defer sh.mu.RUnlock()
	return sh.out[pre][post]
}

// Lookup returns the weight of (pre, post) and whether it is stored, under
// one lock.
func (s *Store) Lookup(pre, post neuron.ID) (float64, bool) {
	sh := s.shardFor(pre)
	sh.mu.RLock()
	defer sh.mu.RUnlock()
	w, ok := sh.out[pre][post]
	return w, ok
}

// Has reports whether (pre, post) is stored.
func (s *Store) Has(pre, post neuron.ID) bool {
	sh := s.shardFor(pre)
	sh.mu.RLock()
	defer sh.mu.RUnlock()
	_, ok := sh.out[pre][post]
	return ok
}

// Count returns the number of stored directed synapses.
func (s *Store) Count() int {
	return int(s.count.Load())
}

// RemoveSynapse deletes (pre, post). Removing an absent synapse is a no-op.
// Reports whether an entry was removed.
func (s *Store) RemoveSynapse(pre, post neuron.ID) bool {
	sh := s.shardFor(pre)
	sh.mu.Lock()
	defer sh.mu.Unlock()
	return s.deleteLocked(sh, pre, post)
}

// deleteLocked removes (pre, post) from sh. Caller holds sh.mu.
func (s *Store) deleteLocked(sh *shard, pre, post neuron.ID) bool {
	posts, ok := sh.out[pre]
	if !ok {
		return false
	}
	if _, ok := posts[post]; !ok {
		return false
	}
	delete(posts, post)
	if len(posts) == 0 {
		delete(sh.out, pre)
	}
	s.count.Add(-1)
	return true
}

// Neighbors returns the outgoing synapses of pre, strongest first.
func (s *Store) Neighbors(pre neuron.ID) []Record {
	sh := s.shardFor(pre)
	sh.mu.RLock()
	posts := sh.out[pre]
	out := make([]Record, 0, len(posts))
	for post, w := range posts {
		out = append(out, Record{Pre: pre, Post: post, Weight: w})
	}
	sh.mu.RUnlock()

	sort.Slice(out, func(i, j int) bool {
		if out[i].Weight != out[j].Weight {
			return out[i].Weight > out[j].Weight
		}
		return out[i].Post.Compare(out[j].Post) < 0
	})
	return out
}

// Stats summarizes the graph.
type Stats struct {
	Synapses     int     `json:"synapses"`
	Presynaptic  int     `json:"presynaptic"`
	MinWeight    float64 `json:"min_weight"`
	MaxWeight    float64 `json:"max_weight"`
	MeanWeight   float64 `json:"mean_weight"`
	BelowPrune   int     `json:"below_prune"`
	Population   int     `json:"population,omitempty"`
	Sparsity     float64 `json:"sparsity,omitempty"`
	Connectivity float64 `json:"connectivity,omitempty"`
}

// Stats walks every shard and summarizes weights. population, when > 0, is
// the neuron count used to compute sparsity (1 - synapses/population^2).
// The result is consistent per shard, not globally.
func (s *Store) Stats(population int) Stats {
	st := Stats{MinWeight: math.Inf(1), MaxWeight: math.Inf(-1)}
	var sum float64
	for _, sh := range s.shards {
		sh.mu.RLock()
		for _, posts := range sh.out {
			st.Presynaptic++
			for _, w := range posts {
				st.Synapses++
				sum += w
				st.MinWeight = math.Min(st.MinWeight, w)
				st.MaxWeight = math.Max(st.MaxWeight, w)
				if w < s.cfg.PruneThreshold {
					st.BelowPrune++
				}
			}
		}
		sh.mu.RUnlock()
	}

	if st.Synapses == 0 {
		st.MinWeight, st.MaxWeight = 0, 0
	} else {
		st.MeanWeight = sum / float64(st.Synapses)
	}
	if population > 0 {
		st.Population = population
		st.Connectivity = float64(st.Synapses) / (float64(population) * float64(population))
		st.Sparsity = 1 - st.Connectivity
	}
	return st
}
