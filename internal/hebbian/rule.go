package hebbian

import "math"

// ProductDelta is the plain Hebbian product rule: dW = eta * A_pre * A_post.
func ProductDelta(rate, activationPre, activationPost float64) float64 {
	return Sanitize(rate * activationPre * activationPost)
}

// OjaDelta computes the Oja-stabilized delta.
//
// Oja's rule: dW = eta * (A_pre * A_post - A_post^2 * W)
//
// The A_post^2 * W term is a forgetting factor, so a synapse that is already
// strong relative to its inputs weakens instead of running away. At W = 0 it
// reduces to ProductDelta.
func OjaDelta(rate, weight, activationPre, activationPost float64) float64 {
	hebbian := activationPre * activationPost
	forgetting := activationPost * activationPost * weight
	return Sanitize(rate * (hebbian - forgetting))
}

// Rule computes weight deltas for one directed co-activation.
type Rule interface {
	// Delta returns the change for a synapse currently at weight. Absent
	// synapses are evaluated at weight 0.
	Delta(weight, activationPre, activationPost float64) float64
}

// NewRule returns the rule selected by cfg.Rule.
func NewRule(cfg Config) Rule {
	if cfg.Rule == RuleOja {
		return ojaRule{rate: cfg.LearningRate}
	}
	return productRule{rate: cfg.LearningRate}
}

type productRule struct{ rate float64 }

func (r productRule) Delta(_, pre, post float64) float64 {
	return ProductDelta(r.rate, pre, post)
}

type ojaRule struct{ rate float64 }

func (r ojaRule) Delta(w, pre, post float64) float64 {
	return OjaDelta(r.rate, w, pre, post)
}

// Sanitize maps NaN and infinities to 0.
func Sanitize(x float64) float64 {
	if math.IsNaN(x) || math.IsInf(x, 0) {
		return 0
	}
	return x
}

// ClampActivation sanitizes an activation level and restricts it to [0, 1].
func ClampActivation(a float64) float64 {
	return ClampWeight(a, 0, 1)
}

// ClampWeight sanitizes w and restricts it to [min, max].
func ClampWeight(w, min, max float64) float64 {
	w = Sanitize(w)
	if w < min {
		return min
	}
	if w > max {
		return max
	}
	return w
}
