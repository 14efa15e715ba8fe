package report

import (
	"fmt"
	"strings"

	"cjsflat/internal/core/diag"

	"github.com/charmbracelet/lipgloss"
)

var (
	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#3B82F6"))

	errorStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#F87171")).
			Bold(true)

	warningStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#FBBF24"))

	successStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#10B981")).
			Bold(true)

	mutedStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#64748B"))
)

type palette struct {
	title, err, warn, ok, muted func(...string) string
}

func newPalette(color bool) palette {
	if !color {
		plain := func(s ...string) string { return strings.Join(s, " ") }
		return palette{plain, plain, plain, plain, plain}
	}
	return palette{titleStyle.Render, errorStyle.Render, warningStyle.Render, successStyle.Render, mutedStyle.Render}
}

// RenderText is the human-readable report: the module table, every
// diagnostic and a closing status line.
func RenderText(s Summary, color bool) string {
	p := newPalette(color)
	var b strings.Builder

	b.WriteString(p.title(fmt.Sprintf("cjsflat build %s", s.RunID)))
	b.WriteByte('\n')
	if len(s.Modules) > 0 {
		width := 0
		for _, m := range s.Modules {
			width = max(width, len(m.Path))
		}
		for _, m := range s.Modules {
			kind := "script"
			if m.CommonJS {
				kind = fmt.Sprintf("%s, %d export(s)", strings.ToLower(m.Shape), m.Exports)
			}
			fmt.Fprintf(&b, "  %-*s  %s %s\n", width, m.Path, m.Name, p.muted("("+kind+")"))
		}
	}

	for _, d := range s.Diagnostics {
		sev := p.warn(d.Severity.String())
		if d.Severity == diag.SevError {
			sev = p.err(d.Severity.String())
		}
		fmt.Fprintf(&b, "%s: %s: %s %s\n", d.Location, sev, d.Message, p.muted("["+string(d.Kind)+"]"))
	}

	c := s.Counts()
	status := fmt.Sprintf("%d module(s), %d error(s), %d warning(s) in %s", len(s.Modules), c.Errors, c.Warnings, s.Duration.Round(1e6))
	switch {
	case s.Aborted:
		b.WriteString(p.err("aborted: " + status))
	case c.Errors > 0:
		b.WriteString(p.err("failed: " + status))
	default:
		b.WriteString(p.ok("ok: " + status))
	}
	b.WriteByte('\n')
	if s.Output != "" {
		b.WriteString(p.muted("wrote " + s.Output))
		b.WriteByte('\n')
	}
	return b.String()
}
