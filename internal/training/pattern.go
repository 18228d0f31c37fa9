// Package training feeds streams of co-activation patterns into a synapse
// store and runs maintenance (prune, decay, checkpoint) as the stream
// advances.
package training

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"strings"

	"github.com/nvandessel/hebbgraph/internal/neuron"
)

// maxLineSize bounds a single JSONL pattern line.
const maxLineSize = 16 << 20

// Pattern is one set of simultaneously active neurons.
type Pattern struct {
	Active []neuron.Activation `json:"active"`
}

// ReadPatterns decodes JSONL patterns from r and sends them on out until r
// is exhausted or ctx is done. Blank lines are ignored; malformed lines are
// logged through slog.Default and skipped. out is not closed.
func ReadPatterns(ctx context.Context, r io.Reader, out chan<- Pattern) error {
	logger := slog.Default()

	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 0, 64*1024), maxLineSize)

	line := 0
	for sc.Scan() {
		line++
		text := strings.TrimSpace(sc.Text())
		if text == "" {
			continue
		}

		var p Pattern
		if err := json.Unmarshal([]byte(text), &p); err != nil {
			logger.Warn("skipping malformed pattern", "line", line, "error", err)
			continue
		}

		select {
		case out <- p:
		case <-ctx.Done():
			return ctx.Err()
		}
	}
	if err := sc.Err(); err != nil {
		return fmt.Errorf("reading patterns at line %d: %w", line+1, err)
	}
	return nil
}
