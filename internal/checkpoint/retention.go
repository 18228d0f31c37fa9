package checkpoint

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"
)

// FileInfo describes a checkpoint file on disk.
type FileInfo struct {
	Path      string
	Size      int64
	CreatedAt time.Time
}

// RetentionPolicy decides which checkpoint files to keep. Input is sorted
// newest first.
type RetentionPolicy interface {
	Apply(files []FileInfo) (keep []FileInfo)
}

// CountPolicy keeps the N most recent checkpoints.
type CountPolicy struct {
	MaxCount int
}

// Apply keeps the first MaxCount files.
func (p CountPolicy) Apply(files []FileInfo) []FileInfo {
	if len(files) <= p.MaxCount {
		return files
	}
	return files[:p.MaxCount]
}

// AgePolicy keeps checkpoints newer than MaxAge. The newest checkpoint is
// always kept.
type AgePolicy struct {
	MaxAge time.Duration
	Now    func() time.Time
}

// Apply keeps files whose CreatedAt is within MaxAge.
func (p AgePolicy) Apply(files []FileInfo) []FileInfo {
	now := time.Now
	if p.Now != nil {
		now = p.Now
	}
	cutoff := now().Add(-p.MaxAge)

	var keep []FileInfo
	for i, f := range files {
		if i == 0 || f.CreatedAt.After(cutoff) {
			keep = append(keep, f)
		}
	}
	return keep
}

// AllPolicy keeps a file only if every sub-policy keeps it (intersection).
type AllPolicy []RetentionPolicy

// Apply returns the files kept by all sub-policies.
func (p AllPolicy) Apply(files []FileInfo) []FileInfo {
	keep := files
	for _, policy := range p {
		keep = policy.Apply(keep)
	}
	return keep
}

// PolicyFor builds the retention policy for a keep count and max age.
// Zero values disable the corresponding limit; nil means keep everything.
func PolicyFor(keep int, maxAge time.Duration) RetentionPolicy {
	var all AllPolicy
	if keep > 0 {
		all = append(all, CountPolicy{MaxCount: keep})
	}
	if maxAge > 0 {
		all = append(all, AgePolicy{MaxAge: maxAge})
	}
	if len(all) == 0 {
		return nil
	}
	return all
}

const (
	filePrefix = "checkpoint-"
	fileSuffix = ".hgc"
	stampFmt   = "20060102T150405.000000000Z"
)

// fileName returns the checkpoint name for t. Names sort chronologically.
func fileName(t time.Time) string {
	return filePrefix + t.UTC().Format(stampFmt) + fileSuffix
}

func isCheckpointFile(name string) bool {
	return strings.HasPrefix(name, filePrefix) && strings.HasSuffix(name, fileSuffix)
}

// ListFiles scans dir for checkpoint files, newest first.
func ListFiles(dir string) ([]FileInfo, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("reading checkpoint directory: %w", err)
	}

	var files []FileInfo
	for _, e := range entries {
		if e.IsDir() || !isCheckpointFile(e.Name()) {
			continue
		}
		info, err := e.Info()
		if err != nil {
			continue
		}

		fi := FileInfo{
			Path:      filepath.Join(dir, e.Name()),
			Size:      info.Size(),
			CreatedAt: info.ModTime(),
		}
		stamp := strings.TrimSuffix(strings.TrimPrefix(e.Name(), filePrefix), fileSuffix)
		if t, err := time.Parse(stampFmt, stamp); err == nil {
			fi.CreatedAt = t
		}
		files = append(files, fi)
	}

	sort.Slice(files, func(i, j int) bool {
		return filepath.Base(files[i].Path) > filepath.Base(files[j].Path)
	})
	return files, nil
}

// ApplyRetention deletes checkpoint files in dir not kept by policy.
func ApplyRetention(dir string, policy RetentionPolicy) (deleted []string, err error) {
	if policy == nil {
		return nil, nil
	}
	files, err := ListFiles(dir)
	if err != nil {
		return nil, err
	}

	keep := policy.Apply(files)
	keepSet := make(map[string]bool, len(keep))
	for _, f := range keep {
		keepSet[f.Path] = true
	}

	for _, f := range files {
		if keepSet[f.Path] {
			continue
		}
		if err := os.Remove(f.Path); err != nil {
			return deleted, fmt.Errorf("removing %s: %w", filepath.Base(f.Path), err)
		}
		deleted = append(deleted, f.Path)
	}
	return deleted, nil
}
