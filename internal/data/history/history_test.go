package history

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func openStore(t *testing.T) *Store {
	t.Helper()
	store, err := Open(filepath.Join(t.TempDir(), "state", "history.db"), time.Second)
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })
	return store
}

func TestStore_SaveAndLoadBuilds(t *testing.T) {
	store := openStore(t)
	base := time.Date(2026, 2, 13, 10, 0, 0, 0, time.UTC)

	first, err := store.SaveBuild(Build{ProjectKey: "app", StartedAt: base, Duration: 1500 * time.Millisecond, Modules: 3, Warnings: 1, OutputHash: "abc"})
	require.NoError(t, err)
	assert.NotEmpty(t, first.RunID)

	_, err = store.SaveBuild(Build{ProjectKey: "app", StartedAt: base.Add(time.Hour), Modules: 2, Aborted: true, Errors: 1})
	require.NoError(t, err)
	_, err = store.SaveBuild(Build{ProjectKey: "other", StartedAt: base, Modules: 9})
	require.NoError(t, err)

	builds, err := store.LoadBuilds("app", time.Time{}, 0)
	require.NoError(t, err)
	require.Len(t, builds, 2)
	assert.Equal(t, first.RunID, builds[0].RunID)
	assert.Equal(t, base, builds[0].StartedAt)
	assert.Equal(t, 1500*time.Millisecond, builds[0].Duration)
	assert.Equal(t, "abc", builds[0].OutputHash)
	assert.True(t, builds[0].Succeeded())
	assert.True(t, builds[1].Aborted)
	assert.False(t, builds[1].Succeeded())

	recent, err := store.LoadBuilds("app", base.Add(30*time.Minute), 0)
	require.NoError(t, err)
	require.Len(t, recent, 1)

	last, ok, err := store.Last("app")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, 2, last.Modules)
}

func TestStore_DefaultProjectKey(t *testing.T) {
	store := openStore(t)
	saved, err := store.SaveBuild(Build{ProjectKey: "  "})
	require.NoError(t, err)
	assert.Equal(t, "default", saved.ProjectKey)
	assert.False(t, saved.StartedAt.IsZero())

	_, ok, err := store.Last("missing")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestStore_DuplicateRunIDFails(t *testing.T) {
	store := openStore(t)
	_, err := store.SaveBuild(Build{RunID: "same"})
	require.NoError(t, err)
	_, err = store.SaveBuild(Build{RunID: "same"})
	assert.Error(t, err)
}

func TestOpen_RejectsDirectory(t *testing.T) {
	dir := t.TempDir()
	_, err := Open(dir, 0)
	assert.Error(t, err)
	_, err = Open(" ", 0)
	assert.Error(t, err)
}

func TestOpen_ReopenKeepsSchema(t *testing.T) {
	path := filepath.Join(t.TempDir(), "history.db")
	store, err := Open(path, 0)
	require.NoError(t, err)
	_, err = store.SaveBuild(Build{Modules: 1})
	require.NoError(t, err)
	require.NoError(t, store.Close())

	_, err = os.Stat(path)
	require.NoError(t, err)

	store, err = Open(path, 0)
	require.NoError(t, err)
	defer store.Close()
	builds, err := store.LoadBuilds("", time.Time{}, 0)
	require.NoError(t, err)
	assert.Len(t, builds, 1)
}
