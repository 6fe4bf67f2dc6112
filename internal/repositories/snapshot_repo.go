package repositories

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
)

// blocklistSnapshot is the on-disk shape of the blocklist file.
type blocklistSnapshot struct {
	BlockedIPs []string `json:"blockedIPs"`
}

// FileSnapshotRepository keeps a local JSON snapshot of the blocked-IP set so
// the blocklist survives restarts even when no durable store is configured.
type FileSnapshotRepository struct {
	path string
}

func NewFileSnapshotRepository(path string) *FileSnapshotRepository {
	return &FileSnapshotRepository{path: path}
}

// Load returns the snapshotted IPs. A missing file is an empty snapshot, not
// an error.
func (r *FileSnapshotRepository) Load() ([]string, error) {
	data, err := os.ReadFile(r.path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to read blocklist snapshot: %w", err)
	}

	var snap blocklistSnapshot
	if err := json.Unmarshal(data, &snap); err != nil {
		return nil, fmt.Errorf("failed to parse blocklist snapshot: %w", err)
	}
	return snap.BlockedIPs, nil
}

func (r *FileSnapshotRepository) Save(ips []string) error {
	if ips == nil {
		ips = []string{}
	}
	data, err := json.Marshal(blocklistSnapshot{BlockedIPs: ips})
	if err != nil {
		return fmt.Errorf("failed to encode blocklist snapshot: %w", err)
	}

	if dir := filepath.Dir(r.path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("failed to create snapshot directory: %w", err)
		}
	}

	// Write-then-rename so a crash mid-write never truncates the snapshot.
	tmp := r.path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return fmt.Errorf("failed to write blocklist snapshot: %w", err)
	}
	if err := os.Rename(tmp, r.path); err != nil {
		return fmt.Errorf("failed to replace blocklist snapshot: %w", err)
	}
	return nil
}
