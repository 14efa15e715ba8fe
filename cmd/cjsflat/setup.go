package main

import (
	"context"
	"log/slog"
	"os"
	"path/filepath"

	"cjsflat/internal/core/app"
	"cjsflat/internal/core/config"
	"cjsflat/internal/shared/observability"
)

type project struct {
	compiler   *app.Compiler
	configPath string
	shutdown   func(context.Context) error
}

// loadConfig reads the config file named by --config, or the nearest
// cjsflat.toml above the working directory. Without either, the defaults
// apply with the working directory as project root.
func loadConfig(path string) (*config.Config, string, error) {
	if path == "" {
		cwd, err := os.Getwd()
		if err != nil {
			return nil, "", err
		}
		found, ok := config.FindConfig(cwd)
		if !ok {
			slog.Debug("no config file found, using defaults", "dir", cwd)
			cfg := config.DefaultConfig()
			config.ApplyEnvOverrides(cfg)
			return cfg, "", nil
		}
		path = found
	}
	cfg, err := config.Load(path)
	if err != nil {
		return nil, "", err
	}
	config.ApplyEnvOverrides(cfg)
	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, "", err
	}
	return cfg, abs, nil
}

func openProject(ctx context.Context, flags *globalFlags, adjust func(*config.Config)) (*project, error) {
	cfg, path, err := loadConfig(flags.configPath)
	if err != nil {
		return nil, err
	}
	if adjust != nil {
		adjust(cfg)
	}

	dir := "."
	if path != "" {
		dir = filepath.Dir(path)
	} else if cwd, err := os.Getwd(); err == nil {
		dir = cwd
	}
	paths, err := config.ResolvePaths(cfg, dir)
	if err != nil {
		return nil, err
	}

	shutdown, err := observability.InitTracing(ctx, cfg.Observability.OTLPEndpoint, cfg.Observability.ServiceName)
	if err != nil {
		slog.Warn("tracing disabled", "endpoint", cfg.Observability.OTLPEndpoint, "error", err)
		shutdown = func(context.Context) error { return nil }
	}

	compiler, err := app.New(cfg, paths)
	if err != nil {
		_ = shutdown(ctx)
		return nil, err
	}
	return &project{compiler: compiler, configPath: path, shutdown: shutdown}, nil
}

func (p *project) Close(ctx context.Context) {
	if err := p.compiler.Close(); err != nil {
		slog.Warn("close history failed", "error", err)
	}
	if err := p.shutdown(ctx); err != nil {
		slog.Warn("tracer shutdown failed", "error", err)
	}
}
