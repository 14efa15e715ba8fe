// # internal/engine/resolver/resolver.go
package resolver

import (
	"cjsflat/internal/core/errors"
	"cjsflat/internal/engine/resolver/drivers"
	"fmt"
	"path"
	"sort"
	"strings"
)

// ModulePath is a normalized, slash-separated path relative to the project
// root, e.g. "lib/util.js".
type ModulePath string

// ModuleID is the canonical module identity: the ModulePath without its .js
// extension.
type ModuleID string

type Mode string

// ModeNode is Node.js-style relative resolution with extension and index
// inference.
const ModeNode Mode = "NODE"

func ParseMode(raw string) (Mode, error) {
	switch Mode(strings.ToUpper(strings.TrimSpace(raw))) {
	case "", ModeNode:
		return ModeNode, nil
	}
	return "", errors.New(errors.CodeNotSupported, fmt.Sprintf("unsupported module resolution mode %q", raw))
}

// NormalizePath cleans p into a ModulePath. Backslashes become slashes and
// leading "./" or "/" are dropped; paths escaping the root are rejected.
func NormalizePath(p string) (ModulePath, error) {
	p = strings.ReplaceAll(strings.TrimSpace(p), "\\", "/")
	if p == "" {
		return "", errors.New(errors.CodeValidationError, "empty module path")
	}
	cleaned := path.Clean(strings.TrimPrefix(p, "/"))
	if cleaned == "." || cleaned == ".." || strings.HasPrefix(cleaned, "../") {
		return "", errors.AddContext(errors.New(errors.CodeValidationError, "module path escapes project root"), errors.CtxPath, p)
	}
	return ModulePath(cleaned), nil
}

func IDFor(p ModulePath) ModuleID {
	return ModuleID(strings.TrimSuffix(string(p), ".js"))
}

// UnresolvedSpecifierError reports a require argument that names no known
// module or is not a static string.
type UnresolvedSpecifierError struct {
	Specifier string
	From      ModulePath
	Reason    string
}

func (e *UnresolvedSpecifierError) Error() string {
	return fmt.Sprintf("cannot resolve %q from %s: %s", e.Specifier, e.From, e.Reason)
}

// Resolver maps specifiers to the modules of one compilation unit. It is
// read-only after construction and safe for concurrent use.
type Resolver struct {
	mode   Mode
	driver *drivers.NodeDriver
	known  map[ModulePath]ModuleID
}

func New(mode Mode, paths []ModulePath) (*Resolver, error) {
	if mode != ModeNode {
		return nil, errors.New(errors.CodeNotSupported, fmt.Sprintf("unsupported module resolution mode %q", mode))
	}
	r := &Resolver{
		mode:   mode,
		driver: drivers.NewNodeDriver(),
		known:  make(map[ModulePath]ModuleID, len(paths)),
	}
	owners := make(map[ModuleID]ModulePath, len(paths))
	sorted := append([]ModulePath(nil), paths...)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i] < sorted[j] })
	for _, p := range sorted {
		id := IDFor(p)
		if prev, ok := owners[id]; ok && prev != p {
			return nil, errors.AddContext(
				errors.New(errors.CodeConflict, fmt.Sprintf("%s and %s share module id %s", prev, p, id)),
				errors.CtxModule, string(id),
			)
		}
		owners[id] = p
		r.known[p] = id
	}
	return r, nil
}

func (r *Resolver) Mode() Mode {
	return r.mode
}

// Resolve maps specifier, as required from the module at from, to a known
// module. Two specifiers naming the same file yield the same ModuleID.
func (r *Resolver) Resolve(specifier string, from ModulePath) (ModuleID, error) {
	if strings.TrimSpace(specifier) == "" {
		return "", &UnresolvedSpecifierError{Specifier: specifier, From: from, Reason: "empty specifier"}
	}
	for _, candidate := range r.driver.Candidates(specifier, path.Dir(string(from))) {
		if id, ok := r.known[ModulePath(candidate)]; ok {
			return id, nil
		}
	}
	reason := "no such module"
	if !drivers.IsRelative(specifier) {
		reason = "not found in any node_modules directory"
	}
	return "", &UnresolvedSpecifierError{Specifier: specifier, From: from, Reason: reason}
}

// Dynamic builds the error for a require whose argument is not a static
// string.
func Dynamic(expr string, from ModulePath) error {
	return &UnresolvedSpecifierError{Specifier: expr, From: from, Reason: "specifier is not a static string"}
}
