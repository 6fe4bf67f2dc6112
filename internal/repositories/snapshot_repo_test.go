package repositories

import (
	"os"
	"path/filepath"
	"sort"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFileSnapshotRepository_MissingFileIsEmpty(t *testing.T) {
	repo := NewFileSnapshotRepository(filepath.Join(t.TempDir(), "blocked_ips.json"))

	ips, err := repo.Load()
	require.NoError(t, err)
	assert.Empty(t, ips)
}

func TestFileSnapshotRepository_SaveLoadRoundTrip(t *testing.T) {
	repo := NewFileSnapshotRepository(filepath.Join(t.TempDir(), "blocked_ips.json"))

	require.NoError(t, repo.Save([]string{"1.2.3.4", "5.6.7.8"}))

	ips, err := repo.Load()
	require.NoError(t, err)
	sort.Strings(ips)
	assert.Equal(t, []string{"1.2.3.4", "5.6.7.8"}, ips)
}

func TestFileSnapshotRepository_SaveNilWritesEmptySet(t *testing.T) {
	path := filepath.Join(t.TempDir(), "blocked_ips.json")
	repo := NewFileSnapshotRepository(path)

	require.NoError(t, repo.Save(nil))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.JSONEq(t, `{"blockedIPs":[]}`, string(data))
}

func TestFileSnapshotRepository_CreatesParentDirectory(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "dir", "blocked_ips.json")
	repo := NewFileSnapshotRepository(path)

	require.NoError(t, repo.Save([]string{"1.2.3.4"}))

	ips, err := repo.Load()
	require.NoError(t, err)
	assert.Equal(t, []string{"1.2.3.4"}, ips)
}

func TestFileSnapshotRepository_CorruptFileIsAnError(t *testing.T) {
	path := filepath.Join(t.TempDir(), "blocked_ips.json")
	require.NoError(t, os.WriteFile(path, []byte("{not json"), 0o644))

	repo := NewFileSnapshotRepository(path)
	_, err := repo.Load()
	assert.Error(t, err)
}
