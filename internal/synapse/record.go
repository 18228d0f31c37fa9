package synapse

import (
	"github.com/nvandessel/hebbgraph/internal/hebbian"
	"github.com/nvandessel/hebbgraph/internal/neuron"
)

// Outcome describes what a single co-activation did to the graph.
type Outcome int

const (
	// Ignored means no state changed: a self pair, or a sub-threshold delta
	// for an absent synapse.
	Ignored Outcome = iota
	// Created means a new synapse was stored.
	Created
	// Updated means an existing synapse's weight was rewritten.
	Updated
)

func (o Outcome) String() string {
	switch o {
	case Created:
		return "created"
	case Updated:
		return "updated"
	default:
		return "ignored"
	}
}

// RecordCoactivation applies one directed Hebbian update to (pre, post).
//
// Activations are sanitized and clamped to [0, 1]. An existing synapse moves
// to clamp(weight + delta). An absent synapse is created only when delta is
// positive and at least the creation threshold; weaker deltas are discarded.
// Self pairs are ignored.
func (s *Store) RecordCoactivation(pre, post neuron.ID, activationPre, activationPost float64) Outcome {
	if pre == post {
		return Ignored
	}
	activationPre = hebbian.ClampActivation(activationPre)
	activationPost = hebbian.ClampActivation(activationPost)

	sh := s.shardFor(pre)
	sh.mu.Lock()
	defer sh.mu.Unlock()

	posts := sh.out[pre]
	if w, ok := posts[post]; ok {
		delta := s.rule.Delta(w, activationPre, activationPost)
		posts[post] = hebbian.ClampWeight(w+delta, s.cfg.MinWeight, s.cfg.MaxWeight)
		return Updated
	}

	delta := s.rule.Delta(0, activationPre, activationPost)
	if delta <= 0 || delta < s.creation {
		return Ignored
	}
	if posts == nil {
		posts = make(map[neuron.ID]float64)
		sh.out[pre] = posts
	}
	posts[post] = hebbian.ClampWeight(delta, s.cfg.MinWeight, s.cfg.MaxWeight)
	s.count.Add(1)
	return Created
}

// PatternResult counts what a co-activation pattern did.
type PatternResult struct {
	Pairs   int `json:"pairs"`
	Created int `json:"created"`
	Updated int `json:"updated"`
}

// RecordCoactivationPattern records every ordered pair drawn from a set of
// simultaneously active neurons. For each unordered pair {a, b} both (a, b)
// and (b, a) are updated, each direction using its own pre/post activation,
// so asymmetric activation levels can grow asymmetric weights. Repeated IDs
// are collapsed to their highest level first.
func (s *Store) RecordCoactivationPattern(active []neuron.Activation) PatternResult {
	active = neuron.Dedupe(active)

	var res PatternResult
	tally := func(o Outcome) {
		switch o {
		case Created:
			res.Created++
		case Updated:
			res.Updated++
		}
	}
	for i := 0; i < len(active); i++ {
		for j := i + 1; j < len(active); j++ {
			a, b := active[i], active[j]
			res.Pairs += 2
			tally(s.RecordCoactivation(a.ID, b.ID, a.Level, b.Level))
			tally(s.RecordCoactivation(b.ID, a.ID, b.Level, a.Level))
		}
	}
	return res
}
