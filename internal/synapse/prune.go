package synapse

import "time"

// PruneWeakSynapses removes every synapse whose weight is below the prune
// threshold and returns how many were removed. Remaining weights are not
// touched. Shards are locked one at a time, so writers to other shards keep
// running during the pass.
func (s *Store) PruneWeakSynapses() int {
	s.passMu.Lock()
	defer s.passMu.Unlock()

	start := time.Now()
	threshold := s.cfg.PruneThreshold
	removed := 0
	for _, sh := range s.shards {
		sh.mu.Lock()
		for pre, posts := range sh.out {
			for post, w := range posts {
				if w < threshold {
					delete(posts, post)
					removed++
				}
			}
			if len(posts) == 0 {
				delete(sh.out, pre)
			}
		}
		sh.mu.Unlock()
	}
	s.count.Add(int64(-removed))

	s.logger.Debug("pruned weak synapses",
		"removed", removed,
		"remaining", s.Count(),
		"threshold", threshold,
		"duration", time.Since(start))
	return removed
}
