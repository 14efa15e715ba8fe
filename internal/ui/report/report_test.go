package report

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"
	"time"

	"cjsflat/internal/core/diag"
	"cjsflat/internal/core/errors"
	"cjsflat/internal/data/history"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"
)

func sampleSummary() Summary {
	return Summary{
		RunID:    "run-1",
		Duration: 1500 * time.Millisecond,
		Output:   "dist/out.js",
		Modules: []Module{
			{ID: "i0", Path: "lib/a.js", Name: "module$lib_a", Shape: "namespace", Exports: 2, CommonJS: true},
			{ID: "i1", Path: "main.js", Name: "module$main"},
		},
		Diagnostics: []diag.Diagnostic{
			{Kind: diag.KindUnresolvedSpecifier, Severity: diag.SevWarning, Location: diag.Location{File: "main.js", Line: 2, Column: 1}, Message: "cannot resolve ./gone"},
			{Kind: diag.KindTypeMismatch, Severity: diag.SevError, Location: diag.Location{File: "lib/a.js", Line: 4, Column: 3}, Message: "initializing variable"},
		},
	}
}

func TestCountsAndFailed(t *testing.T) {
	s := sampleSummary()
	assert.Equal(t, Counts{Errors: 1, Warnings: 1}, s.Counts())
	assert.True(t, s.Failed())

	s.Diagnostics = s.Diagnostics[:1]
	assert.False(t, s.Failed())

	s.Aborted = true
	assert.True(t, s.Failed())
}

func TestRenderTextPlain(t *testing.T) {
	out := RenderText(sampleSummary(), false)

	assert.Contains(t, out, "cjsflat build run-1")
	assert.Contains(t, out, "lib/a.js  module$lib_a (namespace, 2 export(s))")
	assert.Contains(t, out, "main.js   module$main (script)")
	assert.Contains(t, out, "main.js:2:1: WARNING: cannot resolve ./gone [UnresolvedSpecifier]")
	assert.Contains(t, out, "failed: 2 module(s), 1 error(s), 1 warning(s) in 1.5s")
	assert.Contains(t, out, "wrote dist/out.js")
}

func TestRenderTextStatus(t *testing.T) {
	s := sampleSummary()
	s.Diagnostics = nil
	assert.Contains(t, RenderText(s, false), "ok: 2 module(s)")

	s.Aborted = true
	assert.Contains(t, RenderText(s, false), "aborted: ")
}

func TestWriteJSON(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, Write(&buf, FormatJSON, sampleSummary(), false))

	var doc map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &doc))
	assert.Equal(t, "run-1", doc["run_id"])
	counts := doc["counts"].(map[string]any)
	assert.EqualValues(t, 1, counts["errors"])
	diags := doc["diagnostics"].([]any)
	require.Len(t, diags, 2)
	assert.Equal(t, "WARNING", diags[0].(map[string]any)["severity"])
}

func TestWriteYAML(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, Write(&buf, FormatYAML, sampleSummary(), false))

	var doc struct {
		RunID   string `yaml:"run_id"`
		Modules []struct {
			Name string `yaml:"name"`
		} `yaml:"modules"`
		Counts Counts `yaml:"counts"`
	}
	require.NoError(t, yaml.Unmarshal(buf.Bytes(), &doc))
	assert.Equal(t, "run-1", doc.RunID)
	require.Len(t, doc.Modules, 2)
	assert.Equal(t, "module$lib_a", doc.Modules[0].Name)
	assert.Equal(t, 1, doc.Counts.Warnings)
	assert.Contains(t, buf.String(), "severity: ERROR")
}

func TestWriteUnknownFormat(t *testing.T) {
	err := Write(&bytes.Buffer{}, "xml", sampleSummary(), false)
	require.Error(t, err)
	assert.True(t, errors.IsCode(err, errors.CodeNotSupported))
}

func TestRenderBuildsTSV(t *testing.T) {
	started := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)
	out := string(RenderBuildsTSV([]history.Build{
		{RunID: "r1", StartedAt: started, Duration: 250 * time.Millisecond, Modules: 3, Warnings: 1, OutputHash: "0123456789abcdef"},
		{RunID: "r2", StartedAt: started.Add(time.Minute), Modules: 3, Aborted: true},
	}))

	lines := strings.Split(strings.TrimRight(out, "\n"), "\n")
	require.Len(t, lines, 3)
	assert.Equal(t, "RunID\tStarted\tDurationMs\tModules\tErrors\tWarnings\tAborted\tOutputHash", lines[0])
	assert.Equal(t, "r1\t2026-01-02T03:04:05Z\t250\t3\t0\t1\tfalse\t0123456789ab", lines[1])
	assert.True(t, strings.HasPrefix(lines[2], "r2\t2026-01-02T03:05:05Z\t0\t3\t0\t0\ttrue\t"))
}
