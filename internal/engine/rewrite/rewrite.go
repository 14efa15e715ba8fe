// Package rewrite flattens a set of CommonJS modules into one program of
// uniquely named global bindings.
package rewrite

import (
	"context"
	stderrors "errors"
	"log/slog"
	"runtime"
	"sort"
	"strings"
	"time"

	"cjsflat/internal/core/diag"
	"cjsflat/internal/core/errors"
	"cjsflat/internal/engine/exports"
	"cjsflat/internal/engine/graph"
	"cjsflat/internal/engine/naming"
	"cjsflat/internal/engine/parser"
	"cjsflat/internal/engine/resolver"
	"cjsflat/internal/engine/scope"
	"cjsflat/internal/shared/observability"

	"golang.org/x/sync/errgroup"
)

// ErrCyclicModuleGraph aborts a pass whose require graph has a cycle.
var ErrCyclicModuleGraph = stderrors.New("cyclic module graph")

type State uint8

const (
	StateScanning State = iota
	StateResolving
	StateEmitting
	StateDone
)

func (s State) String() string {
	switch s {
	case StateScanning:
		return "scanning"
	case StateResolving:
		return "resolving"
	case StateEmitting:
		return "emitting"
	case StateDone:
		return "done"
	}
	return "unknown"
}

// Input is one source module. Path is relative to the project root.
type Input struct {
	Path   string
	Source []byte
}

type Options struct {
	Mode  resolver.Mode
	Level diag.Level
	// KeepJSDoc selects the annotated program as Result.Output.
	KeepJSDoc bool
	// Workers bounds the parallel scanning tasks; 0 means GOMAXPROCS.
	Workers int
}

func (o Options) withDefaults() Options {
	if o.Mode == "" {
		o.Mode = resolver.ModeNode
	}
	if o.Level == "" {
		o.Level = diag.LevelDefault
	}
	if o.Workers <= 0 {
		o.Workers = runtime.GOMAXPROCS(0)
	}
	return o
}

// Segment is the rewritten text of one module.
type Segment struct {
	ID   resolver.ModuleID
	Path resolver.ModulePath
	Name string
	// Program has JSDoc comments removed; Annotated keeps them with
	// re-resolved type names.
	Program   string
	Annotated string
	// Line is the 1-based line of Annotated within Result.Annotated.
	Line int
}

// ModuleSummary is the metadata of one module that outlives the pass.
type ModuleSummary struct {
	ID       resolver.ModuleID
	Path     resolver.ModulePath
	Name     string
	State    State
	Shape    string
	Exports  int
	CommonJS bool
}

type Result struct {
	Program     string
	Annotated   string
	Order       []resolver.ModuleID
	Names       map[resolver.ModuleID]string
	Segments    []Segment
	Modules     []ModuleSummary
	Diagnostics []diag.Diagnostic
	// Graph is the require graph between the inputs.
	Graph     *graph.Graph
	keepJSDoc bool
}

// Output is the program text selected by Options.KeepJSDoc.
func (r *Result) Output() string {
	if r.keepJSDoc {
		return r.Annotated
	}
	return r.Program
}

// SegmentAt maps a 1-based line of Result.Annotated to its module segment.
func (r *Result) SegmentAt(line int) (Segment, bool) {
	for i := len(r.Segments) - 1; i >= 0; i-- {
		if r.Segments[i].Line <= line {
			return r.Segments[i], true
		}
	}
	return Segment{}, false
}

// Context owns all per-module metadata of one pass. Only the require graph
// outlives Flatten, through Result.Graph.
type Context struct {
	opts     Options
	names    *naming.Table
	resolver *resolver.Resolver
	graph    *graph.Graph
	diags    *diag.Bag
	modules  []*Module
	byID     map[resolver.ModuleID]*Module
}

// Flatten runs the pass over inputs. A cyclic require graph returns a Result
// holding only diagnostics together with an error wrapping
// ErrCyclicModuleGraph.
func Flatten(ctx context.Context, p *parser.Parser, inputs []Input, opts Options) (*Result, error) {
	opts = opts.withDefaults()
	c, err := newContext(inputs, opts)
	if err != nil {
		return nil, err
	}
	defer c.close()

	if err := c.scan(ctx, p); err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	// Every module gets its global name before anything is emitted, so
	// annotations can refer forward.
	ids := make([]string, 0, len(c.modules))
	for _, m := range c.sortedByPath() {
		ids = append(ids, string(m.ID))
	}
	c.names.Reserve(ids)
	for _, m := range c.modules {
		m.Name = c.names.NameFor(string(m.ID))
	}

	for _, m := range c.modules {
		m.state = StateResolving
		c.resolveModule(m)
	}

	order, cycle := c.graph.Order()
	if cycle != nil {
		for _, found := range c.graph.DetectCycles() {
			c.reportCycle(found)
		}
		return c.result(nil), errors.Wrap(ErrCyclicModuleGraph, errors.CodeCyclicModuleGraph, strings.Join(cycle, " -> "))
	}

	var segments []Segment
	for _, id := range order {
		m := c.byID[resolver.ModuleID(id)]
		m.state = StateEmitting
		segments = append(segments, c.emit(m))
		m.state = StateDone
		observability.ModulesRewritten.Inc()
		slog.Debug("module rewritten", "module", m.ID, "name", m.Name, "shape", m.exports.Shape.Kind.String())
	}
	return c.result(segments), nil
}

func newContext(inputs []Input, opts Options) (*Context, error) {
	c := &Context{
		opts:  opts,
		names: naming.NewTable(),
		graph: graph.NewGraph(),
		diags: diag.NewBag(),
		byID:  make(map[resolver.ModuleID]*Module, len(inputs)),
	}
	paths := make([]resolver.ModulePath, 0, len(inputs))
	for _, in := range inputs {
		mp, err := resolver.NormalizePath(in.Path)
		if err != nil {
			return nil, err
		}
		id := resolver.IDFor(mp)
		if _, dup := c.byID[id]; dup {
			return nil, errors.AddContext(errors.New(errors.CodeConflict, "duplicate module"), errors.CtxModule, string(id))
		}
		m := &Module{Path: mp, ID: id, source: in.Source, state: StateScanning}
		c.modules = append(c.modules, m)
		c.byID[id] = m
		c.graph.AddModule(string(id))
		paths = append(paths, mp)
	}
	r, err := resolver.New(opts.Mode, paths)
	if err != nil {
		return nil, err
	}
	c.resolver = r
	return c, nil
}

func (c *Context) close() {
	for _, m := range c.modules {
		m.file.Close()
	}
}

// Names exposes the synthesized name table.
func (c *Context) Names() *naming.Table {
	return c.names
}

// Modules returns the modules in input order.
func (c *Context) Modules() []*Module {
	return c.modules
}

func (c *Context) sortedByPath() []*Module {
	out := append([]*Module(nil), c.modules...)
	sort.Slice(out, func(i, j int) bool { return out[i].Path < out[j].Path })
	return out
}

// scan parses every module concurrently and joins before returning.
func (c *Context) scan(ctx context.Context, p *parser.Parser) error {
	start := time.Now()
	defer func() { observability.ParsingDuration.Observe(time.Since(start).Seconds()) }()

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(c.opts.Workers)
	for _, m := range c.modules {
		m := m
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			return c.scanModule(p, m)
		})
	}
	return g.Wait()
}

func (c *Context) scanModule(p *parser.Parser, m *Module) error {
	file, err := p.ParseFile(string(m.Path), m.source)
	if err != nil {
		return errors.AddContext(err, errors.CtxModule, string(m.ID))
	}
	m.file = file
	if bad := file.FirstSyntaxError(); bad != nil {
		c.diags.Add(c.opts.Level.New(diag.KindParseError, file.Location(bad), "syntax error near %q", clip(file.Text(bad))))
	}
	m.arena = scope.Build(file)
	m.exports = exports.Scan(file, m.arena)
	m.scanRequires()
	m.scanComments()
	m.scanModuleRefs()
	return nil
}

func (c *Context) reportCycle(cycle []string) {
	loc := diag.Location{}
	if m := c.byID[resolver.ModuleID(cycle[0])]; m != nil {
		loc = diag.Location{File: string(m.Path)}
	}
	next := cycle[0]
	if len(cycle) > 1 {
		next = cycle[1]
	}
	if e, ok := c.graph.EdgeBetween(cycle[0], next); ok {
		loc = e.Location
	}
	path := append(append([]string(nil), cycle...), cycle[0])
	c.diags.Add(c.opts.Level.New(diag.KindCyclicModuleGraph, loc, "require cycle: %s", strings.Join(path, " -> ")))
}

func (c *Context) result(segments []Segment) *Result {
	res := &Result{
		Names:     make(map[resolver.ModuleID]string, len(c.modules)),
		Graph:     c.graph,
		keepJSDoc: c.opts.KeepJSDoc,
	}
	for id, name := range c.names.Names() {
		res.Names[resolver.ModuleID(id)] = name
	}
	var program, annotated []string
	line := 1
	for i := range segments {
		segments[i].Line = line
		line += strings.Count(segments[i].Annotated, "\n") + 1
		program = append(program, segments[i].Program)
		annotated = append(annotated, segments[i].Annotated)
		res.Order = append(res.Order, segments[i].ID)
	}
	res.Segments = segments
	for _, m := range c.modules {
		summary := ModuleSummary{ID: m.ID, Path: m.Path, Name: m.Name, State: m.state, CommonJS: m.commonJS}
		if m.exports != nil {
			summary.Shape = m.exports.Shape.Kind.String()
			summary.Exports = len(m.exports.Records)
		}
		res.Modules = append(res.Modules, summary)
	}
	res.Program = strings.Join(program, "\n")
	res.Annotated = strings.Join(annotated, "\n")
	c.diags.Sort()
	res.Diagnostics = c.diags.Items()
	return res
}

func clip(s string) string {
	s = strings.TrimSpace(s)
	if len(s) > 40 {
		return s[:40] + "..."
	}
	return s
}
