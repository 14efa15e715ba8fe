// Package report renders build summaries for the terminal and for tools.
package report

import (
	"time"

	"cjsflat/internal/core/diag"
)

// Summary is everything a report shows about one build.
type Summary struct {
	RunID       string            `json:"run_id" yaml:"run_id"`
	StartedAt   time.Time         `json:"started_at" yaml:"started_at"`
	Duration    time.Duration     `json:"duration_ns" yaml:"duration"`
	Aborted     bool              `json:"aborted" yaml:"aborted"`
	Output      string            `json:"output,omitempty" yaml:"output,omitempty"`
	Modules     []Module          `json:"modules" yaml:"modules"`
	Diagnostics []diag.Diagnostic `json:"diagnostics" yaml:"diagnostics"`
}

// Module is one row of the module table, listed in emission order.
type Module struct {
	ID       string `json:"id" yaml:"id"`
	Path     string `json:"path" yaml:"path"`
	Name     string `json:"name" yaml:"name"`
	Shape    string `json:"shape" yaml:"shape"`
	Exports  int    `json:"exports" yaml:"exports"`
	CommonJS bool   `json:"commonjs" yaml:"commonjs"`
}

// Counts tallies diagnostics by severity.
type Counts struct {
	Errors   int `json:"errors" yaml:"errors"`
	Warnings int `json:"warnings" yaml:"warnings"`
	Infos    int `json:"infos" yaml:"infos"`
}

func (s Summary) Counts() Counts {
	var c Counts
	for _, d := range s.Diagnostics {
		switch d.Severity {
		case diag.SevError:
			c.Errors++
		case diag.SevWarning:
			c.Warnings++
		default:
			c.Infos++
		}
	}
	return c
}

// Failed reports whether the build should exit non-zero.
func (s Summary) Failed() bool {
	return s.Aborted || s.Counts().Errors > 0
}
