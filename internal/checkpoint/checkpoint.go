// Package checkpoint persists exported synapse records. It owns file format,
// compression and directory layout so the synapse store does not have to.
package checkpoint

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/nvandessel/hebbgraph/internal/hebbian"
	"github.com/nvandessel/hebbgraph/internal/synapse"
)

// ErrNoCheckpoint is returned by Load when nothing has been saved yet.
var ErrNoCheckpoint = errors.New("no checkpoint found")

// Meta is caller-supplied context saved alongside the records.
type Meta struct {
	// Fingerprint identifies the learning config the weights were built with.
	Fingerprint string `json:"fingerprint,omitempty"`

	// Patterns is the number of co-activation patterns applied so far.
	Patterns int64 `json:"patterns,omitempty"`

	// Note is free text.
	Note string `json:"note,omitempty"`
}

// Info describes a saved checkpoint.
type Info struct {
	Location  string    `json:"location"`
	CreatedAt time.Time `json:"created_at"`
	Synapses  int       `json:"synapses"`
	SizeBytes int64     `json:"size_bytes,omitempty"`
	Meta      Meta      `json:"meta"`
}

// Store persists and restores synapse snapshots.
type Store interface {
	// Save writes a complete snapshot. records are not retained.
	Save(ctx context.Context, records []synapse.Record, meta Meta) (Info, error)

	// Load returns the most recent snapshot, or ErrNoCheckpoint.
	Load(ctx context.Context) ([]synapse.Record, Meta, error)

	Close() error
}

// Open returns the checkpoint store for backend.
// The file backend treats path as a directory; sqlite treats it as a
// database file.
func Open(backend, path string, policy RetentionPolicy) (Store, error) {
	switch backend {
	case "", "file":
		return NewFileStore(path, policy)
	case "sqlite":
		return NewSQLiteStore(path)
	default:
		return nil, fmt.Errorf("unsupported checkpoint backend: %s", backend)
	}
}

// Fingerprint returns a short stable hash of a learning configuration.
func Fingerprint(cfg hebbian.Config) string {
	data, err := json.Marshal(cfg)
	if err != nil {
		return ""
	}
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:6])
}

// Restore loads the latest checkpoint into st. A store with no checkpoint
// yet is not an error: the returned Meta is zero and st is untouched.
func Restore(ctx context.Context, cs Store, st *synapse.Store) (synapse.ImportReport, Meta, error) {
	records, meta, err := cs.Load(ctx)
	if errors.Is(err, ErrNoCheckpoint) {
		return synapse.ImportReport{}, Meta{}, nil
	}
	if err != nil {
		return synapse.ImportReport{}, Meta{}, fmt.Errorf("loading checkpoint: %w", err)
	}
	return st.ImportSynapses(records), meta, nil
}

// Snapshot exports st and saves it through cs.
func Snapshot(ctx context.Context, cs Store, st *synapse.Store, meta Meta) (Info, error) {
	records := st.ExportSynapses()
	synapse.SortRecords(records)
	info, err := cs.Save(ctx, records, meta)
	if err != nil {
		return Info{}, fmt.Errorf("saving checkpoint: %w", err)
	}
	return info, nil
}
