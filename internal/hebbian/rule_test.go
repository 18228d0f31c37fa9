package hebbian

import (
	"errors"
	"math"
	"testing"
)

// step applies one clamped update the way the synapse store does.
func step(r Rule, w, a, b, min, max float64) float64 {
	return ClampWeight(w+r.Delta(w, a, b), min, max)
}

func TestProductDelta(t *testing.T) {
	tests := []struct {
		name      string
		rate      float64
		pre, post float64
		want      float64
	}{
		{"basic", 0.1, 0.8, 0.8, 0.064},
		{"zero activation", 0.1, 0, 0.9, 0},
		{"full activation", 0.5, 1, 1, 0.5},
		{"NaN activation", 0.1, math.NaN(), 0.5, 0},
		{"Inf rate", math.Inf(1), 0.5, 0.5, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ProductDelta(tt.rate, tt.pre, tt.post)
			if math.Abs(got-tt.want) > 1e-12 {
				t.Errorf("ProductDelta(%v, %v, %v) = %v, want %v", tt.rate, tt.pre, tt.post, got, tt.want)
			}
		})
	}
}

func TestOjaDelta_ZeroWeightMatchesProduct(t *testing.T) {
	got := OjaDelta(0.1, 0, 0.7, 0.4)
	want := ProductDelta(0.1, 0.7, 0.4)
	if math.Abs(got-want) > 1e-12 {
		t.Errorf("OjaDelta at w=0 = %v, want %v", got, want)
	}
}

func TestOja_SelfLimiting(t *testing.T) {
	r := NewRule(Config{LearningRate: 0.05, Rule: RuleOja})

	w := 0.1
	for i := 0; i < 1000; i++ {
		w = step(r, w, 0.8, 0.8, 0, 0.95)
	}

	if w > 0.95 {
		t.Errorf("weight %f exceeds ceiling after 1000 iterations", w)
	}
	if w < 0.5 {
		t.Errorf("weight %f should converge to a high value, not stay low", w)
	}
}

func TestOja_AsymmetricConvergence(t *testing.T) {
	r := NewRule(Config{LearningRate: 0.05, Rule: RuleOja})

	// With A_pre=0.8, A_post=0.4 Oja converges to A_pre/A_post = 2.0
	w := 0.1
	for i := 0; i < 5000; i++ {
		w = step(r, w, 0.8, 0.4, 0, 2.5)
	}

	if math.Abs(w-2.0) > 0.05 {
		t.Errorf("weight should converge to 2.0, got %f", w)
	}
}

func TestOja_WeakensOnLowActivation(t *testing.T) {
	r := NewRule(Config{LearningRate: 0.05, Rule: RuleOja})

	// forgetting = 0.25*0.9 = 0.225 > hebbian = 0.05
	old := 0.9
	got := step(r, old, 0.1, 0.5, 0, 1)
	if got >= old {
		t.Errorf("forgetting should dominate: old=%f, new=%f", old, got)
	}
}

func TestProduct_MonotoneAndBounded(t *testing.T) {
	r := NewRule(DefaultConfig())

	w, prev := 0.0, 0.0
	for i := 0; i < 200; i++ {
		w = step(r, w, 1, 1, 0, 1)
		if w < prev {
			t.Fatalf("iteration %d: weight decreased %f -> %f", i, prev, w)
		}
		if w > 1 {
			t.Fatalf("iteration %d: weight %f overshot ceiling", i, w)
		}
		prev = w
	}
	if w != 1 {
		t.Errorf("weight should saturate at 1, got %f", w)
	}
}

func TestClampWeight(t *testing.T) {
	tests := []struct {
		name string
		in   float64
		want float64
	}{
		{"inside", 0.4, 0.4},
		{"below", -3, 0.1},
		{"above", 7, 0.9},
		{"NaN sanitized then clamped", math.NaN(), 0.1},
		{"+Inf sanitized then clamped", math.Inf(1), 0.1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := ClampWeight(tt.in, 0.1, 0.9); got != tt.want {
				t.Errorf("ClampWeight(%v) = %v, want %v", tt.in, got, tt.want)
			}
		})
	}
}

func TestClampActivation(t *testing.T) {
	if got := ClampActivation(1.7); got != 1 {
		t.Errorf("ClampActivation(1.7) = %v, want 1", got)
	}
	if got := ClampActivation(-0.2); got != 0 {
		t.Errorf("ClampActivation(-0.2) = %v, want 0", got)
	}
	if got := ClampActivation(math.NaN()); got != 0 {
		t.Errorf("ClampActivation(NaN) = %v, want 0", got)
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr bool
	}{
		{"default", func(*Config) {}, false},
		{"oja", func(c *Config) { c.Rule = RuleOja }, false},
		{"empty rule", func(c *Config) { c.Rule = "" }, false},
		{"zero learning rate", func(c *Config) { c.LearningRate = 0 }, true},
		{"negative learning rate", func(c *Config) { c.LearningRate = -1 }, true},
		{"NaN learning rate", func(c *Config) { c.LearningRate = math.NaN() }, true},
		{"min above max", func(c *Config) { c.MinWeight, c.MaxWeight = 2, 1 }, true},
		{"equal bounds", func(c *Config) { c.MinWeight, c.MaxWeight, c.PruneThreshold = 0.5, 0.5, 0.6 }, false},
		{"infinite max", func(c *Config) { c.MaxWeight = math.Inf(1) }, true},
		{"negative prune threshold", func(c *Config) { c.PruneThreshold = -0.1 }, true},
		{"prune threshold at floor", func(c *Config) { c.MinWeight, c.PruneThreshold = 0.05, 0.05 }, true},
		{"prune threshold below floor", func(c *Config) { c.MinWeight, c.PruneThreshold = 0.05, 0.01 }, true},
		{"prune threshold above floor", func(c *Config) { c.MinWeight, c.PruneThreshold = 0.05, 0.1 }, false},
		{"zero floor and threshold", func(c *Config) { c.PruneThreshold = 0 }, false},
		{"negative creation threshold", func(c *Config) { c.CreationThreshold = -0.1 }, true},
		{"unknown rule", func(c *Config) { c.Rule = "bcm" }, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.mutate(&cfg)
			err := cfg.Validate()
			if (err != nil) != tt.wantErr {
				t.Fatalf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
			if err != nil && !errors.Is(err, ErrInvalidConfig) {
				t.Errorf("error %v does not wrap ErrInvalidConfig", err)
			}
		})
	}
}

func TestEffectiveCreationThreshold(t *testing.T) {
	cfg := DefaultConfig()
	cfg.PruneThreshold = 0.15
	if got := cfg.EffectiveCreationThreshold(); math.Abs(got-0.3) > 1e-12 {
		t.Errorf("default creation threshold = %v, want 0.3", got)
	}
	cfg.CreationThreshold = 0.05
	if got := cfg.EffectiveCreationThreshold(); got != 0.05 {
		t.Errorf("explicit creation threshold = %v, want 0.05", got)
	}
}
