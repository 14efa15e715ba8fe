// Package app drives builds: it gathers the project's inputs, runs the
// flattening pass and the checker, writes the program and records history.
package app

import (
	"fmt"
	"sync"

	"cjsflat/internal/core/config"
	"cjsflat/internal/core/diag"
	"cjsflat/internal/core/errors"
	"cjsflat/internal/data/history"
	"cjsflat/internal/engine/parser"
	"cjsflat/internal/engine/resolver"
	"cjsflat/internal/engine/typecheck"
	"cjsflat/internal/shared/util"
)

// Compiler owns everything that lives across builds of one project.
type Compiler struct {
	Config *config.Config
	Paths  config.ResolvedPaths
	Parser *parser.Parser

	mode    resolver.Mode
	level   diag.Level
	inputs  *util.Matcher
	exclude *util.Matcher
	checker *typecheck.Checker
	history *history.Store

	mu       sync.RWMutex
	last     *Build
	onUpdate func(*Build)
}

// New validates the compiler settings of cfg and opens the history store
// when it is enabled.
func New(cfg *config.Config, paths config.ResolvedPaths) (*Compiler, error) {
	if cfg == nil {
		return nil, errors.New(errors.CodeValidationError, "config is required")
	}
	c := &Compiler{Config: cfg, Paths: paths}
	if err := c.configure(cfg); err != nil {
		return nil, err
	}

	p, err := parser.NewParser(parser.NewGrammarLoader())
	if err != nil {
		return nil, errors.Wrap(err, errors.CodeInternal, "create parser")
	}
	c.Parser = p
	c.checker = typecheck.New(p, c.level)

	if cfg.History.Enabled {
		store, err := history.Open(paths.HistoryPath, cfg.History.BusyTimeout)
		if err != nil {
			return nil, errors.AddContext(errors.Wrap(err, errors.CodeInternal, "open history"), errors.CtxPath, paths.HistoryPath)
		}
		c.history = store
	}
	return c, nil
}

func (c *Compiler) configure(cfg *config.Config) error {
	mode, err := resolver.ParseMode(cfg.ModuleResolution)
	if err != nil {
		return err
	}
	level, err := diag.ParseLevel(cfg.WarningLevel)
	if err != nil {
		return err
	}
	inputs, err := util.NewMatcher(cfg.Inputs)
	if err != nil {
		return errors.Wrap(err, errors.CodeValidationError, fmt.Sprintf("invalid inputs %q", cfg.Inputs))
	}
	exclude, err := util.NewMatcher(cfg.Exclude)
	if err != nil {
		return errors.Wrap(err, errors.CodeValidationError, fmt.Sprintf("invalid exclude %q", cfg.Exclude))
	}
	c.mode, c.level, c.inputs, c.exclude = mode, level, inputs, exclude
	return nil
}

// SetUpdateHandler registers a callback run after every build.
func (c *Compiler) SetUpdateHandler(handler func(*Build)) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.onUpdate = handler
}

// Last is the most recent build, or nil before the first one.
func (c *Compiler) Last() *Build {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.last
}

// History is the build history store; nil when history is disabled.
func (c *Compiler) History() *history.Store {
	return c.history
}

func (c *Compiler) Close() error {
	return c.history.Close()
}
