// Package hebbian holds the learning-rule math for the synaptic graph: the
// plain Hebbian product rule, the Oja-stabilized variant, and the numeric
// sanitization applied to every activation and weight.
package hebbian

import (
	"errors"
	"fmt"
	"math"
)

// ErrInvalidConfig is wrapped by every error returned from Config.Validate.
var ErrInvalidConfig = errors.New("invalid hebbian config")

// Rule names accepted in Config.Rule.
const (
	RuleProduct = "product"
	RuleOja     = "oja"
)

// Config configures co-activation learning for a synapse store.
type Config struct {
	// LearningRate scales every delta. Must be > 0. Default: 0.1.
	LearningRate float64 `json:"learning_rate" yaml:"learning_rate"`

	// MinWeight is the floor for stored weights. Default: 0.
	MinWeight float64 `json:"min_weight" yaml:"min_weight"`

	// MaxWeight is the ceiling for stored weights. Default: 1.
	MaxWeight float64 `json:"max_weight" yaml:"max_weight"`

	// PruneThreshold marks synapses eligible for removal by a pruning pass.
	// Default: 0.01.
	PruneThreshold float64 `json:"prune_threshold" yaml:"prune_threshold"`

	// CreationThreshold is the minimum delta that may instantiate a new
	// synapse. Zero means 2 * PruneThreshold, so fresh edges survive the
	// next prune.
	CreationThreshold float64 `json:"creation_threshold" yaml:"creation_threshold"`

	// Rule selects the update rule: "product" (default) or "oja".
	Rule string `json:"rule" yaml:"rule"`
}

// DefaultConfig returns the default learning configuration.
func DefaultConfig() Config {
	return Config{
		LearningRate:   0.1,
		MinWeight:      0,
		MaxWeight:      1,
		PruneThreshold: 0.01,
		Rule:           RuleProduct,
	}
}

// EffectiveCreationThreshold returns CreationThreshold, or twice the prune
// threshold when it is unset.
func (c Config) EffectiveCreationThreshold() float64 {
	if c.CreationThreshold > 0 {
		return c.CreationThreshold
	}
	return 2 * c.PruneThreshold
}

// Validate reports configurations that would produce undefined numeric
// behavior later. Errors wrap ErrInvalidConfig.
func (c Config) Validate() error {
	finite := func(name string, v float64) error {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return fmt.Errorf("%w: %s must be finite, got %v", ErrInvalidConfig, name, v)
		}
		return nil
	}
	for _, f := range []struct {
		name string
		v    float64
	}{
		{"learning_rate", c.LearningRate},
		{"min_weight", c.MinWeight},
		{"max_weight", c.MaxWeight},
		{"prune_threshold", c.PruneThreshold},
		{"creation_threshold", c.CreationThreshold},
	} {
		if err := finite(f.name, f.v); err != nil {
			return err
		}
	}

	if c.LearningRate <= 0 {
		return fmt.Errorf("%w: learning_rate must be > 0, got %v", ErrInvalidConfig, c.LearningRate)
	}
	if c.MinWeight > c.MaxWeight {
		return fmt.Errorf("%w: min_weight %v exceeds max_weight %v", ErrInvalidConfig, c.MinWeight, c.MaxWeight)
	}
	if c.PruneThreshold < 0 {
		return fmt.Errorf("%w: prune_threshold must be >= 0, got %v", ErrInvalidConfig, c.PruneThreshold)
	}
	if c.MinWeight > 0 && c.PruneThreshold <= c.MinWeight {
		return fmt.Errorf("%w: prune_threshold %v must exceed a positive min_weight %v", ErrInvalidConfig, c.PruneThreshold, c.MinWeight)
	}
	if c.CreationThreshold < 0 {
		return fmt.Errorf("%w: creation_threshold must be >= 0, got %v", ErrInvalidConfig, c.CreationThreshold)
	}

	switch c.Rule {
	case "", RuleProduct, RuleOja:
	default:
		return fmt.Errorf("%w: unknown rule %q (valid: product, oja)", ErrInvalidConfig, c.Rule)
	}
	return nil
}
