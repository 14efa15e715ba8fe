package app

import (
	"context"
	"log/slog"
	"path/filepath"

	"cjsflat/internal/core/config"
	"cjsflat/internal/core/watcher"
	"cjsflat/internal/engine/resolver"
	"cjsflat/internal/engine/typecheck"
	"cjsflat/internal/shared/observability"
	"cjsflat/internal/shared/util"
)

// Watch builds once and then rebuilds whenever an input changes, until ctx
// is done. Rebuilds are capped at watch.max_rebuilds_per_second; a change
// arriving over the cap waits for the limiter instead of being dropped.
// When configPath is set and watch.reload_config is on, edits to the config
// file rebuild with the new settings.
func (c *Compiler) Watch(ctx context.Context, configPath string) error {
	if _, err := c.Build(ctx); err != nil {
		slog.Error("initial build failed", "error", err)
	}

	changes := make(chan []string, 1)
	w, err := watcher.NewWatcher(c.Paths.ProjectRoot, c.Config.Watch.Debounce, c.Parser.SupportedExtensions(), c.Config.Exclude, func(paths []string) {
		select {
		case changes <- paths:
		default:
			// A rebuild is already queued and will read the latest sources.
		}
	})
	if err != nil {
		return err
	}
	defer w.Close()
	if c.Paths.Output != "" {
		w.Ignore(c.Paths.Output)
	}
	if err := w.Watch(); err != nil {
		return err
	}

	reloads := make(chan *config.Config, 1)
	if configPath != "" && c.Config.Watch.ReloadConfig {
		cw := config.NewWatcher(configPath, func(cfg *config.Config) {
			select {
			case reloads <- cfg:
			default:
			}
		})
		if err := cw.Start(ctx); err != nil {
			slog.Warn("config watcher unavailable", "path", configPath, "error", err)
		} else {
			defer cw.Stop()
		}
	}

	limiter := util.NewLimiter(c.Config.Watch.MaxRebuildsPerSecond, 1)
	slog.Info("watching", "root", c.Paths.ProjectRoot, "debounce", c.Config.Watch.Debounce)
	for {
		select {
		case <-ctx.Done():
			return nil
		case paths := <-changes:
			slog.Info("inputs changed", "files", len(paths), "affected", c.Affected(paths))
		case cfg := <-reloads:
			if err := c.Reconfigure(cfg, filepath.Dir(configPath)); err != nil {
				slog.Warn("config reload rejected", "error", err)
				continue
			}
			w.SetDebounce(cfg.Watch.Debounce)
		}

		if !limiter.Allow(1) {
			observability.RebuildsThrottledTotal.Inc()
			if err := limiter.Wait(ctx, 1); err != nil {
				return nil
			}
		}
		if _, err := c.Build(ctx); err != nil {
			slog.Error("rebuild failed", "error", err)
		}
	}
}

// Reconfigure swaps in cfg for later builds. The history store, project
// root and watched tree stay those the compiler was created with.
func (c *Compiler) Reconfigure(cfg *config.Config, configDir string) error {
	config.ApplyEnvOverrides(cfg)
	paths, err := config.ResolvePaths(cfg, configDir)
	if err != nil {
		return err
	}
	if err := c.configure(cfg); err != nil {
		return err
	}
	if paths.ProjectRoot != c.Paths.ProjectRoot {
		slog.Warn("project_root change needs a restart", "current", c.Paths.ProjectRoot, "configured", paths.ProjectRoot)
	}
	c.Config = cfg
	c.Paths.Output = paths.Output
	c.checker = typecheck.New(c.Parser, c.level)
	return nil
}

// Affected lists the modules of the last build that a change to the files
// at paths can alter: each changed module and everything requiring it.
func (c *Compiler) Affected(paths []string) []string {
	last := c.Last()
	if last == nil || last.Result == nil || last.Result.Graph == nil {
		return nil
	}
	seen := make(map[string]bool)
	for _, path := range paths {
		if !util.HasPathPrefix(path, c.Paths.ProjectRoot) {
			continue
		}
		rel, err := filepath.Rel(c.Paths.ProjectRoot, path)
		if err != nil {
			continue
		}
		mp, err := resolver.NormalizePath(filepath.ToSlash(rel))
		if err != nil {
			continue
		}
		for _, id := range last.Result.Graph.Dependents(string(resolver.IDFor(mp))) {
			seen[id] = true
		}
	}
	return util.SortedStringKeys(seen)
}
