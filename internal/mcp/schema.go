package mcp

// ActivationInput is one active neuron in a hebb_record call.
type ActivationInput struct {
	ID    string  `json:"id" jsonschema:"Neuron UUID"`
	Level float64 `json:"level" jsonschema:"Activation level (clamped to 0.0-1.0)"`
}

// RecordInput defines the input for the hebb_record tool.
type RecordInput struct {
	Active []ActivationInput `json:"active" jsonschema:"Neurons active at the same time. Every ordered pair is reinforced."`
}

// RecordOutput defines the output for the hebb_record tool.
type RecordOutput struct {
	Pairs    int    `json:"pairs" jsonschema:"Ordered pairs considered"`
	Created  int    `json:"created" jsonschema:"Synapses created"`
	Updated  int    `json:"updated" jsonschema:"Existing synapses updated"`
	Synapses int    `json:"synapses" jsonschema:"Total synapses after the update"`
	Message  string `json:"message" jsonschema:"Human-readable result message"`
}

// WeightInput defines the input for the hebb_weight tool.
type WeightInput struct {
	Pre  string `json:"pre" jsonschema:"Presynaptic neuron UUID"`
	Post string `json:"post" jsonschema:"Postsynaptic neuron UUID"`
}

// WeightOutput defines the output for the hebb_weight tool.
type WeightOutput struct {
	Pre    string  `json:"pre"`
	Post   string  `json:"post"`
	Weight float64 `json:"weight" jsonschema:"Synapse weight (0 when absent)"`
	Exists bool    `json:"exists" jsonschema:"Whether the synapse is stored"`
}

// NeighborsInput defines the input for the hebb_neighbors tool.
type NeighborsInput struct {
	Pre   string `json:"pre" jsonschema:"Presynaptic neuron UUID"`
	Limit int    `json:"limit,omitempty" jsonschema:"Maximum neighbors to return, strongest first (default: all)"`
}

// Neighbor is one outgoing synapse.
type Neighbor struct {
	Post   string  `json:"post"`
	Weight float64 `json:"weight"`
}

// NeighborsOutput defines the output for the hebb_neighbors tool.
type NeighborsOutput struct {
	Pre       string     `json:"pre"`
	Neighbors []Neighbor `json:"neighbors" jsonschema:"Outgoing synapses sorted by weight, strongest first"`
	Total     int        `json:"total" jsonschema:"Outgoing synapses before the limit was applied"`
}

// PruneInput defines the input for the hebb_prune tool.
type PruneInput struct{}

// PruneOutput defines the output for the hebb_prune tool.
type PruneOutput struct {
	Removed  int     `json:"removed" jsonschema:"Synapses removed"`
	Synapses int     `json:"synapses" jsonschema:"Synapses remaining"`
	Below    float64 `json:"threshold" jsonschema:"Prune threshold in effect"`
	Message  string  `json:"message"`
}

// DecayInput defines the input for the hebb_decay tool.
type DecayInput struct {
	Factor float64 `json:"factor" jsonschema:"Multiplier applied to every weight. Must be strictly between 0 and 1."`
}

// DecayOutput defines the output for the hebb_decay tool.
type DecayOutput struct {
	Decayed int     `json:"decayed" jsonschema:"Synapses scaled"`
	Factor  float64 `json:"factor"`
	Message string  `json:"message"`
}

// StatsInput defines the input for the hebb_stats tool.
type StatsInput struct {
	Population int `json:"population,omitempty" jsonschema:"Neuron population size used to compute sparsity and connectivity"`
}

// StatsOutput defines the output for the hebb_stats tool.
type StatsOutput struct {
	Synapses     int     `json:"synapses"`
	Presynaptic  int     `json:"presynaptic" jsonschema:"Neurons with at least one outgoing synapse"`
	MinWeight    float64 `json:"min_weight"`
	MaxWeight    float64 `json:"max_weight"`
	MeanWeight   float64 `json:"mean_weight"`
	BelowPrune   int     `json:"below_prune" jsonschema:"Synapses the next prune pass would remove"`
	Sparsity     float64 `json:"sparsity,omitempty" jsonschema:"Fraction of possible directed pairs without a synapse"`
	Connectivity float64 `json:"connectivity,omitempty" jsonschema:"Fraction of possible directed pairs with a synapse"`
}

// CheckpointInput defines the input for the hebb_checkpoint tool.
type CheckpointInput struct {
	Note string `json:"note,omitempty" jsonschema:"Free text stored with the checkpoint"`
}

// CheckpointOutput defines the output for the hebb_checkpoint tool.
type CheckpointOutput struct {
	Location  string `json:"location" jsonschema:"Checkpoint file or database path"`
	Synapses  int    `json:"synapses"`
	SizeBytes int64  `json:"size_bytes,omitempty"`
	Patterns  int64  `json:"patterns" jsonschema:"Patterns applied over the graph's lifetime"`
	Message   string `json:"message"`
}
