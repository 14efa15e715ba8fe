package watcher

import (
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"cjsflat/internal/shared/observability"
	"cjsflat/internal/shared/util"

	"github.com/fsnotify/fsnotify"
)

// Watcher reports batches of changed source files under a project root.
// A file whose content hash is unchanged since it was last reported is
// dropped from the batch.
type Watcher struct {
	fsWatcher  *fsnotify.Watcher
	root       string
	debounce   time.Duration
	exclude    *util.Matcher
	extensions map[string]bool
	ignored    map[string]bool
	onChange   func([]string)
	callbackMu sync.Mutex

	pending   map[string]struct{}
	hashes    map[string]string
	pendingMu sync.Mutex
	timer     *time.Timer
}

// NewWatcher watches files with one of extensions under root. exclude holds
// globs matched against slash-separated paths relative to root.
func NewWatcher(root string, debounce time.Duration, extensions, exclude []string, onChange func([]string)) (*Watcher, error) {
	if onChange == nil {
		return nil, os.ErrInvalid
	}
	compiled, err := util.NewMatcher(exclude)
	if err != nil {
		return nil, err
	}
	exts := make(map[string]bool, len(extensions))
	for _, ext := range extensions {
		if ext = strings.ToLower(strings.TrimSpace(ext)); ext != "" {
			exts[ext] = true
		}
	}

	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	return &Watcher{
		fsWatcher:  fsw,
		root:       filepath.Clean(root),
		debounce:   debounce,
		exclude:    compiled,
		extensions: exts,
		ignored:    make(map[string]bool),
		onChange:   onChange,
		pending:    make(map[string]struct{}),
		hashes:     make(map[string]string),
	}, nil
}

// Ignore drops events for path, e.g. the bundle the build itself writes.
func (w *Watcher) Ignore(path string) {
	w.pendingMu.Lock()
	defer w.pendingMu.Unlock()
	w.ignored[filepath.Clean(path)] = true
}

func (w *Watcher) SetDebounce(debounce time.Duration) {
	w.pendingMu.Lock()
	defer w.pendingMu.Unlock()
	w.debounce = debounce
}

// Watch registers every directory under root and starts delivering events.
func (w *Watcher) Watch() error {
	if err := w.watchRecursive(w.root); err != nil {
		return err
	}
	go w.run()
	return nil
}

func (w *Watcher) watchRecursive(dir string) error {
	return filepath.Walk(dir, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		if info.IsDir() {
			if path != w.root && w.excluded(path) {
				return filepath.SkipDir
			}
			return w.fsWatcher.Add(path)
		}
		if w.relevant(path) {
			w.remember(path)
		}
		return nil
	})
}

func (w *Watcher) run() {
	for {
		select {
		case event, ok := <-w.fsWatcher.Events:
			if !ok {
				return
			}
			observability.WatcherEventsTotal.Inc()

			if event.Op&fsnotify.Create == fsnotify.Create {
				if info, err := os.Stat(event.Name); err == nil && info.IsDir() {
					if !w.excluded(event.Name) {
						if err := w.watchRecursive(event.Name); err != nil {
							slog.Warn("failed to watch new directory", "path", event.Name, "error", err)
						}
						w.enqueueExistingFiles(event.Name)
					}
					continue
				}
			}
			if !w.relevant(event.Name) {
				continue
			}
			if event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Remove|fsnotify.Rename) != 0 {
				w.scheduleChange(event.Name)
			}

		case err, ok := <-w.fsWatcher.Errors:
			if !ok {
				return
			}
			slog.Error("watcher error", "error", err)
		}
	}
}

func (w *Watcher) scheduleChange(path string) {
	w.pendingMu.Lock()
	defer w.pendingMu.Unlock()

	w.pending[path] = struct{}{}
	if w.timer != nil {
		w.timer.Stop()
	}
	w.timer = time.AfterFunc(w.debounce, w.flushChanges)
}

func (w *Watcher) flushChanges() {
	w.pendingMu.Lock()
	paths := make([]string, 0, len(w.pending))
	for path := range w.pending {
		if w.changedLocked(path) {
			paths = append(paths, path)
		}
	}
	w.pending = make(map[string]struct{})
	w.pendingMu.Unlock()

	if len(paths) == 0 {
		return
	}
	sort.Strings(paths)
	w.callbackMu.Lock()
	defer w.callbackMu.Unlock()
	w.onChange(paths)
}

// changedLocked updates the stored hash of path and reports whether it
// differs. A deleted file always counts as changed.
func (w *Watcher) changedLocked(path string) bool {
	data, err := os.ReadFile(path)
	if err != nil {
		_, known := w.hashes[path]
		delete(w.hashes, path)
		return known || os.IsNotExist(err)
	}
	sum := util.ContentHash(data)
	if w.hashes[path] == sum {
		return false
	}
	w.hashes[path] = sum
	return true
}

func (w *Watcher) remember(path string) {
	data, err := os.ReadFile(path)
	if err != nil {
		return
	}
	w.pendingMu.Lock()
	defer w.pendingMu.Unlock()
	w.hashes[path] = util.ContentHash(data)
}

func (w *Watcher) rel(path string) string {
	rel, err := filepath.Rel(w.root, path)
	if err != nil {
		return filepath.ToSlash(path)
	}
	return filepath.ToSlash(rel)
}

func (w *Watcher) excluded(path string) bool {
	rel := w.rel(path)
	return w.exclude.Match(rel) || w.exclude.MatchDir(rel)
}

func (w *Watcher) relevant(path string) bool {
	w.pendingMu.Lock()
	ignored := w.ignored[filepath.Clean(path)]
	w.pendingMu.Unlock()
	if ignored {
		return false
	}
	if len(w.extensions) > 0 && !w.extensions[strings.ToLower(filepath.Ext(path))] {
		return false
	}
	return !w.excluded(path)
}

func (w *Watcher) Close() error {
	w.pendingMu.Lock()
	if w.timer != nil {
		w.timer.Stop()
	}
	w.pendingMu.Unlock()
	return w.fsWatcher.Close()
}

func (w *Watcher) enqueueExistingFiles(root string) {
	_ = filepath.Walk(root, func(path string, info os.FileInfo, err error) error {
		if err != nil || info == nil || info.IsDir() {
			return nil
		}
		if w.relevant(path) {
			w.scheduleChange(path)
		}
		return nil
	})
}
