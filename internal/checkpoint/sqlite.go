package checkpoint

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/nvandessel/hebbgraph/internal/neuron"
	"github.com/nvandessel/hebbgraph/internal/synapse"
	_ "modernc.org/sqlite" // SQLite driver
)

// SQLiteStore keeps the latest snapshot in a SQLite database. Each Save
// replaces the synapses table in one transaction and appends a history row.
type SQLiteStore struct {
	mu     sync.RWMutex
	db     *sql.DB
	dbPath string
}

// NewSQLiteStore opens (or creates) the database at dbPath.
func NewSQLiteStore(dbPath string) (*SQLiteStore, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0700); err != nil {
		return nil, fmt.Errorf("failed to create database directory: %w", err)
	}

	db, err := sql.Open("sqlite", dbPath+"?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)")
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	db.SetMaxOpenConns(1) // SQLite works best with single writer

	if err := InitSchema(context.Background(), db); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}

	return &SQLiteStore{db: db, dbPath: dbPath}, nil
}

// Save replaces the stored snapshot with records.
func (s *SQLiteStore) Save(ctx context.Context, records []synapse.Record, meta Meta) (Info, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	metaJSON, err := json.Marshal(meta)
	if err != nil {
		return Info{}, fmt.Errorf("marshaling meta: %w", err)
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return Info{}, fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `DELETE FROM synapses`); err != nil {
		return Info{}, fmt.Errorf("clear synapses: %w", err)
	}

	stmt, err := tx.PrepareContext(ctx, `INSERT OR REPLACE INTO synapses (pre, post, weight) VALUES (?, ?, ?)`)
	if err != nil {
		return Info{}, fmt.Errorf("prepare insert: %w", err)
	}
	defer stmt.Close()

	for _, r := range records {
		if _, err := stmt.ExecContext(ctx, r.Pre[:], r.Post[:], r.Weight); err != nil {
			return Info{}, fmt.Errorf("insert synapse %s -> %s: %w", r.Pre, r.Post, err)
		}
	}

	createdAt := time.Now().UTC()
	if _, err := tx.ExecContext(ctx,
		`INSERT INTO checkpoints (created_at, synapses, meta) VALUES (?, ?, ?)`,
		createdAt.Format(time.RFC3339Nano), len(records), string(metaJSON)); err != nil {
		return Info{}, fmt.Errorf("record checkpoint: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return Info{}, fmt.Errorf("commit checkpoint: %w", err)
	}

	info := Info{
		Location:  s.dbPath,
		CreatedAt: createdAt,
		Synapses:  len(records),
		Meta:      meta,
	}
	if st, err := os.Stat(s.dbPath); err == nil {
		info.SizeBytes = st.Size()
	}
	return info, nil
}

// Load returns the stored snapshot and the meta of the latest save.
func (s *SQLiteStore) Load(ctx context.Context) ([]synapse.Record, Meta, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var metaJSON sql.NullString
	err := s.db.QueryRowContext(ctx,
		`SELECT meta FROM checkpoints ORDER BY id DESC LIMIT 1`).Scan(&metaJSON)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, Meta{}, ErrNoCheckpoint
	}
	if err != nil {
		return nil, Meta{}, fmt.Errorf("read checkpoint meta: %w", err)
	}

	var meta Meta
	if metaJSON.Valid && metaJSON.String != "" {
		if err := json.Unmarshal([]byte(metaJSON.String), &meta); err != nil {
			return nil, Meta{}, fmt.Errorf("parse checkpoint meta: %w", err)
		}
	}

	rows, err := s.db.QueryContext(ctx, `SELECT pre, post, weight FROM synapses ORDER BY pre, post`)
	if err != nil {
		return nil, Meta{}, fmt.Errorf("query synapses: %w", err)
	}
	defer rows.Close()

	var records []synapse.Record
	for rows.Next() {
		var pre, post []byte
		var weight float64
		if err := rows.Scan(&pre, &post, &weight); err != nil {
			return nil, Meta{}, fmt.Errorf("scan synapse: %w", err)
		}
		r := synapse.Record{Weight: weight}
		if r.Pre, err = neuron.FromBytes(pre); err != nil {
			return nil, Meta{}, fmt.Errorf("decode pre: %w", err)
		}
		if r.Post, err = neuron.FromBytes(post); err != nil {
			return nil, Meta{}, fmt.Errorf("decode post: %w", err)
		}
		records = append(records, r)
	}
	if err := rows.Err(); err != nil {
		return nil, Meta{}, fmt.Errorf("iterate synapses: %w", err)
	}
	return records, meta, nil
}

// History returns the most recent saves, newest first.
func (s *SQLiteStore) History(ctx context.Context, limit int) ([]Info, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.QueryContext(ctx,
		`SELECT created_at, synapses, meta FROM checkpoints ORDER BY id DESC LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("query history: %w", err)
	}
	defer rows.Close()

	var out []Info
	for rows.Next() {
		var createdAt string
		var metaJSON sql.NullString
		info := Info{Location: s.dbPath}
		if err := rows.Scan(&createdAt, &info.Synapses, &metaJSON); err != nil {
			return nil, fmt.Errorf("scan history: %w", err)
		}
		if t, err := time.Parse(time.RFC3339Nano, createdAt); err == nil {
			info.CreatedAt = t
		}
		if metaJSON.Valid && metaJSON.String != "" {
			if err := json.Unmarshal([]byte(metaJSON.String), &info.Meta); err != nil {
				return nil, fmt.Errorf("decode history meta: %w", err)
			}
		}
		out = append(out, info)
	}
	return out, rows.Err()
}

// Close closes the database.
func (s *SQLiteStore) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.db.Close()
}
