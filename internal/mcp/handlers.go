package mcp

import (
	"context"
	"fmt"
	"math"
	"time"

	sdk "github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/nvandessel/hebbgraph/internal/neuron"
)

// registerTools registers all hebb_* tools with the server.
func (s *Server) registerTools() {
	sdk.AddTool(s.server, &sdk.Tool{
		Name:        "hebb_record",
		Description: "Record a co-activation pattern: strengthen (or create) synapses between every pair of simultaneously active neurons",
	}, s.handleRecord)

	sdk.AddTool(s.server, &sdk.Tool{
		Name:        "hebb_weight",
		Description: "Get the weight of the synapse from one neuron to another",
	}, s.handleWeight)

	sdk.AddTool(s.server, &sdk.Tool{
		Name:        "hebb_neighbors",
		Description: "List a neuron's outgoing synapses, strongest first",
	}, s.handleNeighbors)

	sdk.AddTool(s.server, &sdk.Tool{
		Name:        "hebb_prune",
		Description: "Remove every synapse whose weight is below the prune threshold",
	}, s.handlePrune)

	sdk.AddTool(s.server, &sdk.Tool{
		Name:        "hebb_decay",
		Description: "Multiply every synapse weight by a factor in (0, 1)",
	}, s.handleDecay)

	sdk.AddTool(s.server, &sdk.Tool{
		Name:        "hebb_stats",
		Description: "Summarize the synapse graph: counts, weight range, sparsity",
	}, s.handleStats)

	sdk.AddTool(s.server, &sdk.Tool{
		Name:        "hebb_checkpoint",
		Description: "Save the current synapse graph to the configured checkpoint store",
	}, s.handleCheckpoint)
}

func parseID(field, s string) (neuron.ID, error) {
	if s == "" {
		return neuron.Nil, fmt.Errorf("'%s' parameter is required", field)
	}
	id, err := neuron.Parse(s)
	if err != nil {
		return neuron.Nil, fmt.Errorf("invalid '%s': %w", field, err)
	}
	return id, nil
}

// handleRecord implements the hebb_record tool.
func (s *Server) handleRecord(ctx context.Context, req *sdk.CallToolRequest, args RecordInput) (_ *sdk.CallToolResult, _ RecordOutput, retErr error) {
	start := time.Now()
	defer func() {
		s.auditTool("hebb_record", start, retErr, auditParams(map[string]any{"active": len(args.Active)}))
	}()

	if err := s.limits.Check("hebb_record"); err != nil {
		return nil, RecordOutput{}, err
	}
	if len(args.Active) == 0 {
		return nil, RecordOutput{}, fmt.Errorf("'active' parameter is required")
	}

	active := make([]neuron.Activation, 0, len(args.Active))
	for i, a := range args.Active {
		id, err := parseID(fmt.Sprintf("active[%d].id", i), a.ID)
		if err != nil {
			return nil, RecordOutput{}, err
		}
		active = append(active, neuron.Activation{ID: id, Level: a.Level})
	}

	res := s.store.RecordCoactivationPattern(active)
	s.patterns.Add(1)

	return nil, RecordOutput{
		Pairs:    res.Pairs,
		Created:  res.Created,
		Updated:  res.Updated,
		Synapses: s.store.Count(),
		Message:  fmt.Sprintf("Recorded %d pairs: %d created, %d updated", res.Pairs, res.Created, res.Updated),
	}, nil
}

// handleWeight implements the hebb_weight tool.
func (s *Server) handleWeight(ctx context.Context, req *sdk.CallToolRequest, args WeightInput) (_ *sdk.CallToolResult, _ WeightOutput, retErr error) {
	start := time.Now()
	defer func() {
		s.auditTool("hebb_weight", start, retErr, auditParams(map[string]any{"pre": args.Pre, "post": args.Post}))
	}()

	if err := s.limits.Check("hebb_weight"); err != nil {
		return nil, WeightOutput{}, err
	}
	pre, err := parseID("pre", args.Pre)
	if err != nil {
		return nil, WeightOutput{}, err
	}
	post, err := parseID("post", args.Post)
	if err != nil {
		return nil, WeightOutput{}, err
	}

	w, ok := s.store.Lookup(pre, post)
	return nil, WeightOutput{
		Pre:    pre.String(),
		Post:   post.String(),
		Weight: w,
		Exists: ok,
	}, nil
}

// handleNeighbors implements the hebb_neighbors tool.
func (s *Server) handleNeighbors(ctx context.Context, req *sdk.CallToolRequest, args NeighborsInput) (_ *sdk.CallToolResult, _ NeighborsOutput, retErr error) {
	start := time.Now()
	defer func() {
		s.auditTool("hebb_neighbors", start, retErr, auditParams(map[string]any{"pre": args.Pre, "limit": args.Limit}))
	}()

	if err := s.limits.Check("hebb_neighbors"); err != nil {
		return nil, NeighborsOutput{}, err
	}
	pre, err := parseID("pre", args.Pre)
	if err != nil {
		return nil, NeighborsOutput{}, err
	}
	if args.Limit < 0 {
		return nil, NeighborsOutput{}, fmt.Errorf("'limit' must be non-negative, got %d", args.Limit)
	}

	records := s.store.Neighbors(pre)
	out := NeighborsOutput{
		Pre:       pre.String(),
		Neighbors: make([]Neighbor, 0, len(records)),
		Total:     len(records),
	}
	if args.Limit > 0 && len(records) > args.Limit {
		records = records[:args.Limit]
	}
	for _, r := range records {
		out.Neighbors = append(out.Neighbors, Neighbor{Post: r.Post.String(), Weight: r.Weight})
	}
	return nil, out, nil
}

// handlePrune implements the hebb_prune tool.
func (s *Server) handlePrune(ctx context.Context, req *sdk.CallToolRequest, args PruneInput) (_ *sdk.CallToolResult, _ PruneOutput, retErr error) {
	start := time.Now()
	defer func() {
		s.auditTool("hebb_prune", start, retErr, auditParams(nil))
	}()

	if err := s.limits.Check("hebb_prune"); err != nil {
		return nil, PruneOutput{}, err
	}

	removed := s.store.PruneWeakSynapses()
	threshold := s.store.Config().PruneThreshold
	s.events.Record("prune", map[string]any{"removed": removed, "source": "mcp"})

	return nil, PruneOutput{
		Removed:  removed,
		Synapses: s.store.Count(),
		Below:    threshold,
		Message:  fmt.Sprintf("Pruned %d synapses below %g", removed, threshold),
	}, nil
}

// handleDecay implements the hebb_decay tool.
func (s *Server) handleDecay(ctx context.Context, req *sdk.CallToolRequest, args DecayInput) (_ *sdk.CallToolResult, _ DecayOutput, retErr error) {
	start := time.Now()
	defer func() {
		s.auditTool("hebb_decay", start, retErr, auditParams(map[string]any{"factor": args.Factor}))
	}()

	if err := s.limits.Check("hebb_decay"); err != nil {
		return nil, DecayOutput{}, err
	}
	if math.IsNaN(args.Factor) || args.Factor <= 0 || args.Factor >= 1 {
		return nil, DecayOutput{}, fmt.Errorf("'factor' must be strictly between 0 and 1, got %g", args.Factor)
	}

	decayed := s.store.ApplyDecay(args.Factor)
	s.events.Record("decay", map[string]any{"factor": args.Factor, "synapses": decayed, "source": "mcp"})

	return nil, DecayOutput{
		Decayed: decayed,
		Factor:  args.Factor,
		Message: fmt.Sprintf("Decayed %d synapses by %g", decayed, args.Factor),
	}, nil
}

// handleStats implements the hebb_stats tool.
func (s *Server) handleStats(ctx context.Context, req *sdk.CallToolRequest, args StatsInput) (_ *sdk.CallToolResult, _ StatsOutput, retErr error) {
	start := time.Now()
	defer func() {
		s.auditTool("hebb_stats", start, retErr, auditParams(map[string]any{"population": args.Population}))
	}()

	if err := s.limits.Check("hebb_stats"); err != nil {
		return nil, StatsOutput{}, err
	}
	if args.Population < 0 {
		return nil, StatsOutput{}, fmt.Errorf("'population' must be non-negative, got %d", args.Population)
	}

	st := s.store.Stats(args.Population)
	return nil, StatsOutput{
		Synapses:     st.Synapses,
		Presynaptic:  st.Presynaptic,
		MinWeight:    st.MinWeight,
		MaxWeight:    st.MaxWeight,
		MeanWeight:   st.MeanWeight,
		BelowPrune:   st.BelowPrune,
		Sparsity:     st.Sparsity,
		Connectivity: st.Connectivity,
	}, nil
}

// handleCheckpoint implements the hebb_checkpoint tool.
func (s *Server) handleCheckpoint(ctx context.Context, req *sdk.CallToolRequest, args CheckpointInput) (_ *sdk.CallToolResult, _ CheckpointOutput, retErr error) {
	start := time.Now()
	defer func() {
		s.auditTool("hebb_checkpoint", start, retErr, auditParams(map[string]any{"note": args.Note}))
	}()

	if err := s.limits.Check("hebb_checkpoint"); err != nil {
		return nil, CheckpointOutput{}, err
	}

	note := args.Note
	if note == "" {
		note = "mcp"
	}
	info, err := s.saveCheckpoint(ctx, note)
	if err != nil {
		return nil, CheckpointOutput{}, err
	}

	return nil, CheckpointOutput{
		Location:  info.Location,
		Synapses:  info.Synapses,
		SizeBytes: info.SizeBytes,
		Patterns:  info.Meta.Patterns,
		Message:   fmt.Sprintf("Checkpoint saved: %d synapses -> %s", info.Synapses, info.Location),
	}, nil
}
