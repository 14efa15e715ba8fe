package watcher

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewWatcher_RejectsNilCallback(t *testing.T) {
	w, err := NewWatcher(t.TempDir(), 100*time.Millisecond, nil, nil, nil)
	require.Error(t, err)
	assert.True(t, errors.Is(err, os.ErrInvalid))
	assert.Nil(t, w)
}

func TestNewWatcher_RejectsBadGlob(t *testing.T) {
	_, err := NewWatcher(t.TempDir(), time.Millisecond, nil, []string{"[a"}, func([]string) {})
	assert.Error(t, err)
}

func startWatcher(t *testing.T, root string, exclude []string) (*Watcher, chan []string) {
	t.Helper()
	changed := make(chan []string, 10)
	w, err := NewWatcher(root, 50*time.Millisecond, []string{".js", ".json"}, exclude, func(paths []string) {
		changed <- paths
	})
	require.NoError(t, err)
	t.Cleanup(func() { w.Close() })
	require.NoError(t, w.Watch())
	return w, changed
}

func waitFor(t *testing.T, changed chan []string) []string {
	t.Helper()
	select {
	case paths := <-changed:
		return paths
	case <-time.After(3 * time.Second):
		t.Fatal("timed out waiting for file change event")
	}
	return nil
}

func TestWatcher_ReportsSourceChanges(t *testing.T) {
	root := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(root, "vendor"), 0o755))
	_, changed := startWatcher(t, root, []string{"vendor/**", "*.min.js"})

	require.NoError(t, os.WriteFile(filepath.Join(root, "notes.txt"), []byte("x"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(root, "vendor", "lib.js"), []byte("x"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(root, "a.min.js"), []byte("x"), 0o644))
	target := filepath.Join(root, "main.js")
	require.NoError(t, os.WriteFile(target, []byte("var a = 1;"), 0o644))

	assert.Equal(t, []string{target}, waitFor(t, changed))
}

func TestWatcher_SkipsUnchangedContent(t *testing.T) {
	root := t.TempDir()
	target := filepath.Join(root, "main.js")
	require.NoError(t, os.WriteFile(target, []byte("var a = 1;"), 0o644))
	_, changed := startWatcher(t, root, nil)

	// Rewriting identical bytes is not a change.
	require.NoError(t, os.WriteFile(target, []byte("var a = 1;"), 0o644))
	select {
	case paths := <-changed:
		t.Fatalf("unexpected change %v", paths)
	case <-time.After(300 * time.Millisecond):
	}

	require.NoError(t, os.WriteFile(target, []byte("var a = 2;"), 0o644))
	assert.Equal(t, []string{target}, waitFor(t, changed))
}

func TestWatcher_IgnoresOutput(t *testing.T) {
	root := t.TempDir()
	w, changed := startWatcher(t, root, nil)
	out := filepath.Join(root, "bundle.js")
	w.Ignore(out)

	require.NoError(t, os.WriteFile(out, []byte("var module$a = {};"), 0o644))
	src := filepath.Join(root, "a.js")
	require.NoError(t, os.WriteFile(src, []byte("exports.a = 1;"), 0o644))

	assert.Equal(t, []string{src}, waitFor(t, changed))
}

func TestWatcher_NewDirectory(t *testing.T) {
	root := t.TempDir()
	_, changed := startWatcher(t, root, nil)

	dir := filepath.Join(root, "lib")
	require.NoError(t, os.MkdirAll(dir, 0o755))
	time.Sleep(100 * time.Millisecond)
	target := filepath.Join(dir, "util.js")
	require.NoError(t, os.WriteFile(target, []byte("exports.x = 1;"), 0o644))

	assert.Contains(t, waitFor(t, changed), target)
}
