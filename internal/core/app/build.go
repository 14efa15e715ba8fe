package app

import (
	"context"
	stderrors "errors"
	"log/slog"
	"time"

	"cjsflat/internal/core/diag"
	"cjsflat/internal/core/errors"
	"cjsflat/internal/data/history"
	"cjsflat/internal/engine/rewrite"
	"cjsflat/internal/shared/observability"
	"cjsflat/internal/shared/util"
	"cjsflat/internal/ui/report"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
)

// CheckedProgramName is the file name checker diagnostics report for the
// flattened program.
const CheckedProgramName = "[flattened].js"

// Build is the outcome of one compile.
type Build struct {
	RunID     string
	StartedAt time.Time
	Duration  time.Duration
	Inputs    []string
	Result    *rewrite.Result
	// Diagnostics holds the pass and checker diagnostics, sorted.
	Diagnostics []diag.Diagnostic
	// Aborted is set when a require cycle stopped the pass; Result then
	// holds no program.
	Aborted bool
	// Written is the path the program was written to, empty for stdout.
	Written    string
	OutputHash string
}

// Program is the text the build emits.
func (b *Build) Program() string {
	if b == nil || b.Result == nil || b.Aborted {
		return ""
	}
	return b.Result.Output()
}

func (b *Build) Failed() bool {
	return b.Aborted || diag.HasErrors(b.Diagnostics)
}

// Summary converts the build for the report renderers. Modules are listed in
// emission order, followed by any that were never emitted.
func (b *Build) Summary() report.Summary {
	s := report.Summary{
		RunID:       b.RunID,
		StartedAt:   b.StartedAt,
		Duration:    b.Duration,
		Aborted:     b.Aborted,
		Output:      b.Written,
		Diagnostics: b.Diagnostics,
	}
	if b.Result == nil {
		return s
	}
	byID := make(map[string]rewrite.ModuleSummary, len(b.Result.Modules))
	for _, m := range b.Result.Modules {
		byID[string(m.ID)] = m
	}
	row := func(m rewrite.ModuleSummary) report.Module {
		return report.Module{ID: string(m.ID), Path: string(m.Path), Name: m.Name, Shape: m.Shape, Exports: m.Exports, CommonJS: m.CommonJS}
	}
	for _, id := range b.Result.Order {
		if m, ok := byID[string(id)]; ok {
			s.Modules = append(s.Modules, row(m))
			delete(byID, string(id))
		}
	}
	for _, m := range b.Result.Modules {
		if _, ok := byID[string(m.ID)]; ok {
			s.Modules = append(s.Modules, row(m))
		}
	}
	return s
}

// Compile flattens inputs and, when check_types is set, checks the annotated
// program. A require cycle is reported through Build.Aborted, not as an
// error; errors are reserved for failures that leave no diagnostics.
func (c *Compiler) Compile(ctx context.Context, inputs []rewrite.Input) (*Build, error) {
	ctx, span := observability.Tracer.Start(ctx, "compiler.Compile")
	defer span.End()
	span.SetAttributes(attribute.Int("cjsflat.inputs", len(inputs)))

	build := &Build{RunID: history.NewRunID(), StartedAt: time.Now()}
	for _, in := range inputs {
		build.Inputs = append(build.Inputs, in.Path)
	}

	start := time.Now()
	res, err := rewrite.Flatten(ctx, c.Parser, inputs, rewrite.Options{
		Mode:      c.mode,
		Level:     c.level,
		KeepJSDoc: c.Config.KeepDocs(),
		Workers:   c.Config.Workers,
	})
	observability.PhaseDuration.WithLabelValues("flatten").Observe(time.Since(start).Seconds())
	switch {
	case stderrors.Is(err, rewrite.ErrCyclicModuleGraph):
		build.Aborted = true
		span.SetStatus(codes.Error, "cyclic module graph")
	case err != nil:
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}
	build.Result = res
	build.Diagnostics = append(build.Diagnostics, res.Diagnostics...)

	if c.Config.CheckTypes && !build.Aborted {
		checked, err := c.check(ctx, res)
		if err != nil {
			span.RecordError(err)
			return nil, err
		}
		build.Diagnostics = append(build.Diagnostics, checked...)
	}

	diag.Sort(build.Diagnostics)
	build.Duration = time.Since(build.StartedAt)
	observability.GraphModules.Set(float64(len(res.Modules)))
	for _, d := range build.Diagnostics {
		observability.DiagnosticsTotal.WithLabelValues(string(d.Kind), d.Severity.String()).Inc()
	}
	span.SetAttributes(
		attribute.Int("cjsflat.modules", len(res.Modules)),
		attribute.Int("cjsflat.diagnostics", len(build.Diagnostics)),
		attribute.Bool("cjsflat.aborted", build.Aborted),
	)
	return build, nil
}

func (c *Compiler) check(ctx context.Context, res *rewrite.Result) ([]diag.Diagnostic, error) {
	_, span := observability.Tracer.Start(ctx, "compiler.Check")
	defer span.End()
	start := time.Now()
	defer func() { observability.PhaseDuration.WithLabelValues("typecheck").Observe(time.Since(start).Seconds()) }()

	found, err := c.checker.Check(CheckedProgramName, res.Annotated)
	if err != nil {
		return nil, errors.Wrap(err, errors.CodeInternal, "check flattened program")
	}
	for i := range found {
		if seg, ok := res.SegmentAt(found[i].Location.Line); ok {
			found[i].Module = string(seg.ID)
		}
	}
	return found, nil
}

// Build collects the project's inputs, compiles them, writes the program
// when an output file is configured and records the build in history.
func (c *Compiler) Build(ctx context.Context) (*Build, error) {
	ctx, span := observability.Tracer.Start(ctx, "compiler.Build")
	defer span.End()

	start := time.Now()
	paths, err := c.CollectInputs(ctx)
	if err != nil {
		c.countBuild("error")
		return nil, err
	}
	inputs, err := c.ReadInputs(paths)
	if err != nil {
		c.countBuild("error")
		return nil, err
	}
	observability.PhaseDuration.WithLabelValues("collect").Observe(time.Since(start).Seconds())

	build, err := c.Compile(ctx, inputs)
	if err != nil {
		c.countBuild("error")
		return nil, err
	}
	build.StartedAt = start
	if !build.Aborted {
		program := []byte(build.Program())
		build.OutputHash = util.ContentHash(program)
		if c.Paths.Output != "" {
			if err := util.WriteFileAtomic(c.Paths.Output, program, 0o644); err != nil {
				c.countBuild("error")
				return nil, errors.AddContext(errors.Wrap(err, errors.CodeInternal, "write output"), errors.CtxPath, c.Paths.Output)
			}
			build.Written = c.Paths.Output
		}
	}
	build.Duration = time.Since(start)
	c.record(build)

	result := "ok"
	if build.Failed() {
		result = "failed"
	}
	c.countBuild(result)

	summary := build.Summary().Counts()
	slog.Info("build finished",
		"run_id", build.RunID,
		"modules", len(build.Inputs),
		"errors", summary.Errors,
		"warnings", summary.Warnings,
		"aborted", build.Aborted,
		"duration", build.Duration,
		"heap_mb", util.HeapAllocMB(),
		"parsers_in_use", c.Parser.Leased(),
	)

	c.mu.Lock()
	c.last = build
	handler := c.onUpdate
	c.mu.Unlock()
	if handler != nil {
		handler(build)
	}
	return build, nil
}

func (c *Compiler) countBuild(result string) {
	observability.BuildsTotal.WithLabelValues(result).Inc()
}

func (c *Compiler) record(build *Build) {
	if c.history == nil {
		return
	}
	counts := build.Summary().Counts()
	_, err := c.history.SaveBuild(history.Build{
		RunID:      build.RunID,
		ProjectKey: c.ProjectKey(),
		StartedAt:  build.StartedAt,
		Duration:   build.Duration,
		Modules:    len(build.Inputs),
		Errors:     counts.Errors,
		Warnings:   counts.Warnings,
		Aborted:    build.Aborted,
		OutputHash: build.OutputHash,
	})
	if err != nil {
		slog.Warn("failed to record build", "run_id", build.RunID, "error", err)
	}
}
