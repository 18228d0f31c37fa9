package checkpoint

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/nvandessel/hebbgraph/internal/synapse"
)

// FileStore keeps checkpoints as files in a directory.
type FileStore struct {
	mu     sync.Mutex
	dir    string
	policy RetentionPolicy
	now    func() time.Time
}

// NewFileStore creates a FileStore rooted at dir, creating it if needed.
// policy may be nil to keep every checkpoint.
func NewFileStore(dir string, policy RetentionPolicy) (*FileStore, error) {
	if err := os.MkdirAll(dir, 0700); err != nil {
		return nil, fmt.Errorf("creating checkpoint directory: %w", err)
	}
	return &FileStore{dir: dir, policy: policy, now: time.Now}, nil
}

// Dir returns the checkpoint directory.
func (s *FileStore) Dir() string {
	return s.dir
}

// Save writes a new checkpoint file and applies retention.
func (s *FileStore) Save(ctx context.Context, records []synapse.Record, meta Meta) (Info, error) {
	if err := ctx.Err(); err != nil {
		return Info{}, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	createdAt := s.now()
	path := filepath.Join(s.dir, fileName(createdAt))
	header, err := WriteFile(path, records, meta, createdAt)
	if err != nil {
		return Info{}, err
	}

	if _, err := ApplyRetention(s.dir, s.policy); err != nil {
		return Info{}, fmt.Errorf("applying retention: %w", err)
	}

	info := Info{
		Location:  path,
		CreatedAt: header.CreatedAt,
		Synapses:  header.Synapses,
		Meta:      header.Meta,
	}
	if st, err := os.Stat(path); err == nil {
		info.SizeBytes = st.Size()
	}
	return info, nil
}

// Load reads the newest checkpoint file.
func (s *FileStore) Load(ctx context.Context) ([]synapse.Record, Meta, error) {
	if err := ctx.Err(); err != nil {
		return nil, Meta{}, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	files, err := ListFiles(s.dir)
	if err != nil {
		return nil, Meta{}, err
	}
	if len(files) == 0 {
		return nil, Meta{}, ErrNoCheckpoint
	}

	records, header, err := ReadFile(files[0].Path)
	if err != nil {
		return nil, Meta{}, fmt.Errorf("reading %s: %w", filepath.Base(files[0].Path), err)
	}
	return records, header.Meta, nil
}

// List returns the checkpoint files in the store, newest first.
func (s *FileStore) List() ([]FileInfo, error) {
	return ListFiles(s.dir)
}

// Close is a no-op for the file store.
func (s *FileStore) Close() error {
	return nil
}
