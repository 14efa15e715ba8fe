package config

import (
	"context"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"time"

	"cjsflat/internal/shared/util"

	"github.com/fsnotify/fsnotify"
)

const reloadDebounce = 100 * time.Millisecond

// Watcher reloads cjsflat.toml when its content changes and hands valid
// configs to the callback. Invalid edits are logged and skipped, so the
// last good config stays in effect.
type Watcher struct {
	path     string
	callback func(*Config)

	lastHash string
	stop     chan struct{}
	once     sync.Once
	wg       sync.WaitGroup
}

func NewWatcher(path string, callback func(*Config)) *Watcher {
	w := &Watcher{
		path:     filepath.Clean(path),
		callback: callback,
		stop:     make(chan struct{}),
	}
	if data, err := os.ReadFile(w.path); err == nil {
		w.lastHash = util.ContentHash(data)
	}
	return w
}

func (w *Watcher) Start(ctx context.Context) error {
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	// Editors save by replacing the file, which drops a watch on the file
	// itself; the directory watch survives that.
	if err := fsw.Add(filepath.Dir(w.path)); err != nil {
		fsw.Close()
		return err
	}

	w.wg.Add(1)
	go w.loop(ctx, fsw)
	return nil
}

func (w *Watcher) loop(ctx context.Context, fsw *fsnotify.Watcher) {
	defer w.wg.Done()
	defer fsw.Close()

	timer := time.NewTimer(reloadDebounce)
	timer.Stop()
	defer timer.Stop()

	for {
		select {
		case event, ok := <-fsw.Events:
			if !ok {
				return
			}
			if filepath.Clean(event.Name) == w.path && event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename) != 0 {
				timer.Reset(reloadDebounce)
			}
		case err, ok := <-fsw.Errors:
			if !ok {
				return
			}
			slog.Warn("config watcher error", "path", w.path, "error", err)
		case <-timer.C:
			w.reload()
		case <-w.stop:
			return
		case <-ctx.Done():
			return
		}
	}
}

func (w *Watcher) Stop() {
	w.once.Do(func() { close(w.stop) })
	w.wg.Wait()
}

func (w *Watcher) reload() {
	data, err := os.ReadFile(w.path)
	if err != nil {
		slog.Warn("config reload failed", "path", w.path, "error", err)
		return
	}
	hash := util.ContentHash(data)
	if hash == w.lastHash {
		return
	}
	cfg, err := Parse(string(data))
	if err != nil {
		slog.Warn("config reload rejected", "path", w.path, "error", err)
		return
	}
	w.lastHash = hash
	slog.Info("config reloaded", "path", w.path)
	if w.callback != nil {
		w.callback(cfg)
	}
}
