package diag

import (
	"fmt"
	"strings"
)

// Level is the configured warning verbosity.
type Level string

const (
	LevelQuiet   Level = "QUIET"
	LevelDefault Level = "DEFAULT"
	LevelVerbose Level = "VERBOSE"
)

func ParseLevel(raw string) (Level, error) {
	switch Level(strings.ToUpper(strings.TrimSpace(raw))) {
	case "", LevelDefault:
		return LevelDefault, nil
	case LevelQuiet:
		return LevelQuiet, nil
	case LevelVerbose:
		return LevelVerbose, nil
	}
	return "", fmt.Errorf("unknown warning level %q", raw)
}

// SeverityFor maps a diagnostic kind to the severity it is reported with at
// this level. A cyclic graph aborts the pass regardless of its severity.
func (l Level) SeverityFor(kind Kind) Severity {
	switch kind {
	case KindUnresolvedSpecifier:
		if l == LevelVerbose {
			return SevError
		}
		return SevWarning
	case KindCyclicModuleGraph:
		if l == LevelQuiet {
			return SevWarning
		}
		return SevError
	case KindParseError:
		return SevError
	case KindAmbiguousExportShape:
		return SevWarning
	}
	if l == LevelQuiet {
		return SevWarning
	}
	return SevError
}

// New builds a diagnostic whose severity follows the level policy.
func (l Level) New(kind Kind, loc Location, format string, args ...any) Diagnostic {
	return Diagnostic{
		Kind:     kind,
		Severity: l.SeverityFor(kind),
		Location: loc,
		Message:  fmt.Sprintf(format, args...),
	}
}
