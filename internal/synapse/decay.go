package synapse

import (
	"math"
	"time"

	"github.com/nvandessel/hebbgraph/internal/hebbian"
)

// ApplyDecay multiplies every stored weight by factor, which must lie in
// (0, 1). Results are clamped to the configured bounds. Decay never removes
// synapses: a weight pushed under the prune threshold stays until the next
// PruneWeakSynapses call. An out-of-range factor is logged and ignored.
// Returns the number of weights visited.
func (s *Store) ApplyDecay(factor float64) int {
	if math.IsNaN(factor) || factor <= 0 || factor >= 1 {
		s.logger.Warn("ignoring decay with out-of-range factor", "factor", factor)
		return 0
	}

	s.passMu.Lock()
	defer s.passMu.Unlock()

	start := time.Now()
	touched := 0
	for _, sh := range s.shards {
		sh.mu.Lock()
		for _, posts := range sh.out {
			for post, w := range posts {
				posts[post] = hebbian.ClampWeight(w*factor, s.cfg.MinWeight, s.cfg.MaxWeight)
				touched++
			}
		}
		sh.mu.Unlock()
	}

	s.logger.Debug("applied decay",
		"factor", factor,
		"synapses", touched,
		"duration", time.Since(start))
	return touched
}
