package diag

import "fmt"

// Kind tags a diagnostic with the failure class it reports.
type Kind string

const (
	KindUnresolvedSpecifier          Kind = "UnresolvedSpecifier"
	KindCyclicModuleGraph            Kind = "CyclicModuleGraph"
	KindAmbiguousExportShape         Kind = "AmbiguousExportShape"
	KindArgumentArityMismatch        Kind = "ArgumentArityMismatch"
	KindTypeMismatch                 Kind = "TypeMismatch"
	KindInheritanceResolutionFailure Kind = "InheritanceResolutionFailure"
	KindParseError                   Kind = "ParseError"
)

// Location points at the statement a diagnostic originates from. Line and
// Column are 1-based.
type Location struct {
	File   string `json:"file" yaml:"file"`
	Line   int    `json:"line" yaml:"line"`
	Column int    `json:"column" yaml:"column"`
}

func (l Location) String() string {
	if l.Line == 0 {
		return l.File
	}
	return fmt.Sprintf("%s:%d:%d", l.File, l.Line, l.Column)
}

type Diagnostic struct {
	Kind     Kind     `json:"kind" yaml:"kind"`
	Severity Severity `json:"severity" yaml:"severity"`
	Location Location `json:"location" yaml:"location"`
	// Module is the id of the module the diagnostic was raised for, when the
	// location is inside the flattened program rather than a source file.
	Module  string `json:"module,omitempty" yaml:"module,omitempty"`
	Message string `json:"message" yaml:"message"`
}

func (d Diagnostic) String() string {
	return fmt.Sprintf("%s: %s: %s [%s]", d.Location, d.Severity, d.Message, d.Kind)
}
