package neuron

import "math"

// Activation is a neuron observed active at some level during one time step.
// Level is nominally in [0,1]; consumers clamp it.
type Activation struct {
	ID    ID      `json:"id"`
	Level float64 `json:"level"`
}

// Dedupe collapses repeated IDs, keeping the highest level for each, and
// preserves first-seen order. Non-finite levels count as 0.
func Dedupe(set []Activation) []Activation {
	index := make(map[ID]int, len(set))
	out := make([]Activation, 0, len(set))
	for _, a := range set {
		if math.IsNaN(a.Level) || math.IsInf(a.Level, 0) {
			a.Level = 0
		}
		if i, ok := index[a.ID]; ok {
			if a.Level > out[i].Level {
				out[i].Level = a.Level
			}
			continue
		}
		index[a.ID] = len(out)
		out = append(out, a)
	}
	return out
}
