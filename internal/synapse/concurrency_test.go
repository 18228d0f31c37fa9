package synapse

import (
	"math"
	"sync"
	"testing"

	"github.com/nvandessel/hebbgraph/internal/hebbian"
	"github.com/nvandessel/hebbgraph/internal/neuron"
)

func TestConcurrentSamePair_NoLostUpdates(t *testing.T) {
	// High ceiling so the sum never saturates; any lost update shows up.
	s := newTestStore(t, func(c *hebbian.Config) { c.MaxWeight = 1e6; c.LearningRate = 0.5 })
	a, b := neuron.New(), neuron.New()

	const workers, perWorker = 16, 500
	var wg sync.WaitGroup
	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := 0; i < perWorker; i++ {
				s.RecordCoactivation(a, b, 1, 1)
			}
		}()
	}
	wg.Wait()

	want := 0.5 * workers * perWorker
	if got := s.Weight(a, b); math.Abs(got-want) > 1e-6 {
		t.Errorf("weight = %v, want %v", got, want)
	}
	if s.Count() != 1 {
		t.Errorf("Count = %d, want 1", s.Count())
	}
}

func TestConcurrentMixedOperations(t *testing.T) {
	s := newTestStore(t, func(c *hebbian.Config) { c.PruneThreshold = 0.02 })
	n := ids(64)

	var wg sync.WaitGroup
	for w := 0; w < 8; w++ {
		wg.Add(1)
		go func(w int) {
			defer wg.Done()
			for i := 0; i < 200; i++ {
				base := (w*8 + i) % (len(n) - 4)
				set := []neuron.Activation{
					{ID: n[base], Level: 0.9},
					{ID: n[base+1], Level: 0.8},
					{ID: n[base+2], Level: 0.7},
				}
				s.RecordCoactivationPattern(set)
				_ = s.Weight(n[base], n[base+3])
			}
		}(w)
	}
	wg.Add(2)
	go func() {
		defer wg.Done()
		for i := 0; i < 20; i++ {
			s.ApplyDecay(0.9)
		}
	}()
	go func() {
		defer wg.Done()
		for i := 0; i < 20; i++ {
			s.PruneWeakSynapses()
			_ = s.ExportSynapses()
		}
	}()
	wg.Wait()

	exported := s.ExportSynapses()
	if len(exported) != s.Count() {
		t.Fatalf("Count %d disagrees with %d exported records", s.Count(), len(exported))
	}
	cfg := s.Config()
	for _, r := range exported {
		if r.Weight < cfg.MinWeight || r.Weight > cfg.MaxWeight || math.IsNaN(r.Weight) {
			t.Errorf("weight %v outside [%v, %v]", r.Weight, cfg.MinWeight, cfg.MaxWeight)
		}
	}
}

func TestConcurrentLookupDuringPrune(t *testing.T) {
	s := newTestStore(t, func(c *hebbian.Config) { c.PruneThreshold = 0.2; c.CreationThreshold = 0.01 })
	a, b := neuron.New(), neuron.New()

	done := make(chan struct{})
	go func() {
		defer close(done)
		for i := 0; i < 2000; i++ {
			s.RecordCoactivation(a, b, 1, 1)
			s.PruneWeakSynapses()
		}
	}()

	for {
		select {
		case <-done:
			return
		default:
		}
		w, ok := s.Lookup(a, b)
		if ok != (w > 0) {
			t.Fatalf("Lookup = %v, %v: existence and weight disagree", w, ok)
		}
	}
}
