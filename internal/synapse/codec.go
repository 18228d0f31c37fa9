package synapse

import (
	"sort"

	"github.com/nvandessel/hebbgraph/internal/hebbian"
	"github.com/nvandessel/hebbgraph/internal/neuron"
)

// ExportSynapses returns every stored synapse exactly once, in no particular
// order. It does not interleave with prune, decay or import passes.
func (s *Store) ExportSynapses() []Record {
	s.passMu.Lock()
	defer s.passMu.Unlock()

	out := make([]Record, 0, s.Count())
	for _, sh := range s.shards {
		sh.mu.RLock()
		for pre, posts := range sh.out {
			for post, w := range posts {
				out = append(out, Record{Pre: pre, Post: post, Weight: w})
			}
		}
		sh.mu.RUnlock()
	}
	return out
}

// ImportReport describes what ImportSynapses did with its input.
type ImportReport struct {
	Records   int `json:"records"`
	Created   int `json:"created"`
	Replaced  int `json:"replaced"`
	SelfLoops int `json:"self_loops"`
	Clamped   int `json:"clamped"`
}

// ImportSynapses loads records into the store.
//
// A record for a pair that already exists replaces its weight; it is never
// summed. Within one call the last record for a pair wins. Weights are
// sanitized and clamped to the configured bounds, and self loops are dropped;
// both are counted in the report rather than rejected.
func (s *Store) ImportSynapses(records []Record) ImportReport {
	s.passMu.Lock()
	defer s.passMu.Unlock()

	rep := ImportReport{Records: len(records)}

	// Group by shard so each shard lock is taken once; input order within a
	// shard is preserved, which keeps last-record-wins.
	byShard := make(map[*shard][]Record)
	for _, r := range records {
		if r.Pre == r.Post {
			rep.SelfLoops++
			continue
		}
		w := hebbian.ClampWeight(r.Weight, s.cfg.MinWeight, s.cfg.MaxWeight)
		if w != r.Weight {
			rep.Clamped++
		}
		r.Weight = w
		sh := s.shardFor(r.Pre)
		byShard[sh] = append(byShard[sh], r)
	}

	created := 0
	for sh, recs := range byShard {
		sh.mu.Lock()
		for _, r := range recs {
			posts := sh.out[r.Pre]
			if posts == nil {
				posts = make(map[neuron.ID]float64)
				sh.out[r.Pre] = posts
			}
			if _, ok := posts[r.Post]; ok {
				rep.Replaced++
			} else {
				created++
			}
			posts[r.Post] = r.Weight
		}
		sh.mu.Unlock()
	}
	s.count.Add(int64(created))
	rep.Created = created

	s.logger.Debug("imported synapses",
		"records", rep.Records,
		"created", rep.Created,
		"replaced", rep.Replaced,
		"self_loops", rep.SelfLoops,
		"clamped", rep.Clamped)
	return rep
}

// SortRecords orders records by (pre, post) so serialized output is stable.
func SortRecords(records []Record) {
	sort.Slice(records, func(i, j int) bool {
		if c := records[i].Pre.Compare(records[j].Pre); c != 0 {
			return c < 0
		}
		return records[i].Post.Compare(records[j].Post) < 0
	})
}
