package synapse

import (
	"bytes"
	"encoding/json"
	"errors"
	"log/slog"
	"math"
	"strings"
	"testing"

	"github.com/nvandessel/hebbgraph/internal/hebbian"
	"github.com/nvandessel/hebbgraph/internal/neuron"
)

func newTestStore(t *testing.T, mutate func(*hebbian.Config), opts ...Option) *Store {
	t.Helper()
	cfg := hebbian.DefaultConfig()
	if mutate != nil {
		mutate(&cfg)
	}
	s, err := New(cfg, opts...)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	return s
}

func ids(n int) []neuron.ID {
	out := make([]neuron.ID, n)
	for i := range out {
		out[i] = neuron.New()
	}
	return out
}

func TestNew_RejectsDegenerateConfig(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*hebbian.Config)
	}{
		{"min above max", func(c *hebbian.Config) { c.MinWeight, c.MaxWeight = 1, 0 }},
		{"zero learning rate", func(c *hebbian.Config) { c.LearningRate = 0 }},
		{"negative learning rate", func(c *hebbian.Config) { c.LearningRate = -0.5 }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := hebbian.DefaultConfig()
			tt.mutate(&cfg)
			s, err := New(cfg)
			if err == nil {
				t.Fatal("expected construction to fail")
			}
			if s != nil {
				t.Error("expected nil store on error")
			}
			if !errors.Is(err, hebbian.ErrInvalidConfig) {
				t.Errorf("error %v does not wrap ErrInvalidConfig", err)
			}
		})
	}
}

func TestWithShards_RoundsToPowerOfTwo(t *testing.T) {
	tests := []struct {
		in, want int
	}{
		{0, 1}, {1, 1}, {3, 4}, {16, 16}, {17, 32},
	}
	for _, tt := range tests {
		s := newTestStore(t, nil, WithShards(tt.in))
		if got := s.ShardCount(); got != tt.want {
			t.Errorf("WithShards(%d) -> %d shards, want %d", tt.in, got, tt.want)
		}
	}
}

func TestRecordCoactivation_CreatesAboveThreshold(t *testing.T) {
	s := newTestStore(t, nil)
	a, b := neuron.New(), neuron.New()

	if got := s.RecordCoactivation(a, b, 0.8, 0.8); got != Created {
		t.Fatalf("outcome = %v, want created", got)
	}
	if got := s.Weight(a, b); math.Abs(got-0.064) > 1e-12 {
		t.Errorf("weight = %v, want 0.064", got)
	}
	if got := s.Weight(b, a); got != 0 {
		t.Errorf("reverse direction weight = %v, want 0", got)
	}
	if s.Count() != 1 {
		t.Errorf("Count = %d, want 1", s.Count())
	}
}

func TestRecordCoactivation_DiscardsSubThreshold(t *testing.T) {
	s := newTestStore(t, func(c *hebbian.Config) { c.CreationThreshold = 0.05 })
	a, b := neuron.New(), neuron.New()

	// 0.1 * 0.3 * 0.3 = 0.009 < 0.05
	if got := s.RecordCoactivation(a, b, 0.3, 0.3); got != Ignored {
		t.Fatalf("outcome = %v, want ignored", got)
	}
	if s.Count() != 0 || s.Has(a, b) {
		t.Error("sub-threshold delta must not create a synapse")
	}
}

func TestRecordCoactivation_SubThresholdStillStrengthensExisting(t *testing.T) {
	s := newTestStore(t, func(c *hebbian.Config) { c.CreationThreshold = 0.05 })
	a, b := neuron.New(), neuron.New()

	s.RecordCoactivation(a, b, 1, 1)
	before := s.Weight(a, b)
	if got := s.RecordCoactivation(a, b, 0.3, 0.3); got != Updated {
		t.Fatalf("outcome = %v, want updated", got)
	}
	if s.Weight(a, b) <= before {
		t.Errorf("existing synapse should strengthen: %v -> %v", before, s.Weight(a, b))
	}
}

func TestRecordCoactivation_ZeroDeltaNeverCreates(t *testing.T) {
	s := newTestStore(t, func(c *hebbian.Config) { c.PruneThreshold = 0 })
	a, b := neuron.New(), neuron.New()
	if got := s.RecordCoactivation(a, b, 0, 0.9); got != Ignored {
		t.Errorf("outcome = %v, want ignored", got)
	}
}

func TestRecordCoactivation_SelfPairIgnored(t *testing.T) {
	s := newTestStore(t, nil)
	a := neuron.New()
	if got := s.RecordCoactivation(a, a, 1, 1); got != Ignored {
		t.Errorf("outcome = %v, want ignored", got)
	}
	if s.Count() != 0 {
		t.Errorf("Count = %d, want 0", s.Count())
	}
}

func TestRecordCoactivation_ClampsActivations(t *testing.T) {
	s := newTestStore(t, nil)
	a, b := neuron.New(), neuron.New()

	s.RecordCoactivation(a, b, 5, 3)
	if got := s.Weight(a, b); math.Abs(got-0.1) > 1e-12 {
		t.Errorf("out-of-range activations should clamp to 1: weight = %v, want 0.1", got)
	}
}

func TestRecordCoactivation_NaNActivationIsSanitized(t *testing.T) {
	s := newTestStore(t, nil)
	a, b := neuron.New(), neuron.New()

	s.RecordCoactivation(a, b, 1, 1)
	before := s.Weight(a, b)
	s.RecordCoactivation(a, b, math.NaN(), math.Inf(1))
	got := s.Weight(a, b)
	if math.IsNaN(got) || math.IsInf(got, 0) {
		t.Fatalf("weight became non-finite: %v", got)
	}
	if got != before {
		t.Errorf("NaN activation should contribute zero delta: %v -> %v", before, got)
	}
}

func TestRecordCoactivation_NeverExceedsMax(t *testing.T) {
	s := newTestStore(t, func(c *hebbian.Config) { c.MaxWeight = 0.5 })
	a, b := neuron.New(), neuron.New()

	prev := 0.0
	for i := 0; i < 100; i++ {
		s.RecordCoactivation(a, b, 1, 1)
		w := s.Weight(a, b)
		if w > 0.5 {
			t.Fatalf("iteration %d: weight %v exceeds max", i, w)
		}
		if w < prev {
			t.Fatalf("iteration %d: weight decreased %v -> %v", i, prev, w)
		}
		prev = w
	}
	if prev != 0.5 {
		t.Errorf("weight should saturate at 0.5, got %v", prev)
	}
}

func TestRecordCoactivation_CreatedWeightRespectsMin(t *testing.T) {
	s := newTestStore(t, func(c *hebbian.Config) {
		c.MinWeight, c.PruneThreshold, c.CreationThreshold = 0.2, 0.3, 0.01
	})
	a, b := neuron.New(), neuron.New()
	s.RecordCoactivation(a, b, 0.5, 0.5) // delta 0.025
	if got := s.Weight(a, b); got != 0.2 {
		t.Errorf("weight = %v, want floor 0.2", got)
	}
}

func TestRecordCoactivationPattern_BothDirections(t *testing.T) {
	s := newTestStore(t, nil)
	a, b, c := neuron.New(), neuron.New(), neuron.New()

	res := s.RecordCoactivationPattern([]neuron.Activation{{a, 1}, {b, 0.5}, {c, 0.9}})
	if res.Pairs != 6 {
		t.Errorf("Pairs = %d, want 6", res.Pairs)
	}
	if res.Created != 6 || s.Count() != 6 {
		t.Errorf("Created = %d, Count = %d, want 6", res.Created, s.Count())
	}

	// Product rule is symmetric in its factors; Oja is not.
	if math.Abs(s.Weight(a, b)-s.Weight(b, a)) > 1e-12 {
		t.Errorf("product rule should give equal directed weights, got %v and %v", s.Weight(a, b), s.Weight(b, a))
	}
}

func TestRecordCoactivationPattern_AsymmetricUnderOja(t *testing.T) {
	s := newTestStore(t, func(c *hebbian.Config) { c.Rule = hebbian.RuleOja })
	a, b := neuron.New(), neuron.New()

	for i := 0; i < 50; i++ {
		s.RecordCoactivationPattern([]neuron.Activation{{a, 0.9}, {b, 0.3}})
	}
	if s.Weight(a, b) == s.Weight(b, a) {
		t.Errorf("asymmetric activations should yield asymmetric weights, both %v", s.Weight(a, b))
	}
}

func TestRecordCoactivationPattern_DuplicateIDs(t *testing.T) {
	s := newTestStore(t, nil)
	a, b := neuron.New(), neuron.New()

	res := s.RecordCoactivationPattern([]neuron.Activation{{a, 0.2}, {a, 1}, {b, 1}})
	if res.Pairs != 2 {
		t.Errorf("Pairs = %d, want 2 after collapsing duplicates", res.Pairs)
	}
	if s.Has(a, a) {
		t.Error("duplicate ids must not produce a self loop")
	}
	if got := s.Weight(a, b); math.Abs(got-0.1) > 1e-12 {
		t.Errorf("weight = %v, want 0.1 (highest activation kept)", got)
	}

	// A non-finite level counts as 0, so the later finite level wins
	// regardless of where it appears.
	orders := map[string][]neuron.Activation{
		"NaN first": {{a, math.NaN()}, {b, 0.9}, {a, 0.9}},
		"NaN last":  {{a, 0.9}, {b, 0.9}, {a, math.NaN()}},
		"Inf first": {{a, math.Inf(1)}, {b, 0.9}, {a, 0.9}},
	}
	for name, set := range orders {
		t.Run(name, func(t *testing.T) {
			s := newTestStore(t, nil)
			s.RecordCoactivationPattern(set)
			if got := s.Weight(a, b); math.Abs(got-0.081) > 1e-12 {
				t.Errorf("weight = %v, want 0.081", got)
			}
			if s.Count() != 2 {
				t.Errorf("Count = %d, want 2", s.Count())
			}
		})
	}
}

func TestRecordCoactivationPattern_Trivial(t *testing.T) {
	s := newTestStore(t, nil)
	if res := s.RecordCoactivationPattern(nil); res != (PatternResult{}) {
		t.Errorf("empty pattern result = %+v", res)
	}
	if res := s.RecordCoactivationPattern([]neuron.Activation{{neuron.New(), 1}}); res.Pairs != 0 {
		t.Errorf("single neuron pattern produced %d pairs", res.Pairs)
	}
}

func TestLookup(t *testing.T) {
	s := newTestStore(t, nil)
	a, b := neuron.New(), neuron.New()
	s.RecordCoactivation(a, b, 1, 1)

	if w, ok := s.Lookup(a, b); !ok || math.Abs(w-0.1) > 1e-12 {
		t.Errorf("Lookup(a, b) = %v, %v; want 0.1, true", w, ok)
	}
	if w, ok := s.Lookup(b, a); ok || w != 0 {
		t.Errorf("Lookup(b, a) = %v, %v; want 0, false", w, ok)
	}
}

func TestRemoveSynapse_Idempotent(t *testing.T) {
	s := newTestStore(t, nil)
	a, b := neuron.New(), neuron.New()
	s.RecordCoactivation(a, b, 1, 1)

	if !s.RemoveSynapse(a, b) {
		t.Error("first removal should report true")
	}
	if s.RemoveSynapse(a, b) {
		t.Error("second removal should report false")
	}
	if s.RemoveSynapse(neuron.New(), neuron.New()) {
		t.Error("removing an unknown pair should report false")
	}
	if s.Count() != 0 {
		t.Errorf("Count = %d, want 0", s.Count())
	}
	if s.Weight(a, b) != 0 {
		t.Error("removed synapse should read as 0")
	}
}

func TestNeighbors(t *testing.T) {
	s := newTestStore(t, nil)
	pre, weak, strong := neuron.New(), neuron.New(), neuron.New()

	s.RecordCoactivation(pre, weak, 0.5, 0.5)
	for i := 0; i < 5; i++ {
		s.RecordCoactivation(pre, strong, 1, 1)
	}
	s.RecordCoactivation(strong, pre, 1, 1)

	got := s.Neighbors(pre)
	if len(got) != 2 {
		t.Fatalf("len(Neighbors) = %d, want 2", len(got))
	}
	if got[0].Post != strong || got[1].Post != weak {
		t.Errorf("neighbors not sorted strongest first: %+v", got)
	}
	for _, r := range got {
		if r.Pre != pre {
			t.Errorf("neighbor %+v has wrong pre", r)
		}
	}

	if n := s.Neighbors(neuron.New()); len(n) != 0 {
		t.Errorf("unknown neuron has %d neighbors", len(n))
	}
}

func TestStats(t *testing.T) {
	s := newTestStore(t, func(c *hebbian.Config) { c.PruneThreshold = 0.05; c.CreationThreshold = 0.01 })
	n := ids(4)

	s.RecordCoactivation(n[0], n[1], 1, 1)     // 0.1
	s.RecordCoactivation(n[0], n[2], 0.5, 0.5) // 0.025
	s.RecordCoactivation(n[3], n[1], 1, 0.8)   // 0.08

	for _, pop := range []int{4, 1 << 20, math.MaxInt} {
		st := s.Stats(pop)
		if math.IsInf(st.Connectivity, 0) || math.IsNaN(st.Connectivity) || st.Connectivity <= 0 {
			t.Errorf("Stats(%d).Connectivity = %v", pop, st.Connectivity)
		}
		if st.Sparsity < 0 || st.Sparsity > 1 {
			t.Errorf("Stats(%d).Sparsity = %v", pop, st.Sparsity)
		}
		if _, err := json.Marshal(st); err != nil {
			t.Errorf("Stats(%d) does not encode: %v", pop, err)
		}
	}

	st := s.Stats(4)
	if st.Synapses != 3 || st.Presynaptic != 2 {
		t.Errorf("Synapses=%d Presynaptic=%d, want 3 and 2", st.Synapses, st.Presynaptic)
	}
	if math.Abs(st.MinWeight-0.025) > 1e-12 || math.Abs(st.MaxWeight-0.1) > 1e-12 {
		t.Errorf("min/max = %v/%v", st.MinWeight, st.MaxWeight)
	}
	if st.BelowPrune != 1 {
		t.Errorf("BelowPrune = %d, want 1", st.BelowPrune)
	}
	if math.Abs(st.Sparsity-(1-3.0/16)) > 1e-12 {
		t.Errorf("Sparsity = %v", st.Sparsity)
	}

	empty := newTestStore(t, nil).Stats(0)
	if empty.MinWeight != 0 || empty.MaxWeight != 0 || empty.Sparsity != 0 {
		t.Errorf("empty stats = %+v", empty)
	}
}

func TestWithLogger_LogsMaintenance(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug}))
	s := newTestStore(t, nil, WithLogger(logger))

	s.PruneWeakSynapses()
	s.ApplyDecay(0.9)
	s.ApplyDecay(2)

	out := buf.String()
	for _, want := range []string{"pruned weak synapses", "applied decay", "out-of-range factor"} {
		if !strings.Contains(out, want) {
			t.Errorf("log output missing %q:\n%s", want, out)
		}
	}
}
