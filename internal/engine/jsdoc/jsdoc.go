// Package jsdoc rewrites the type expressions of JSDoc comments so they name
// the flattened program's bindings.
package jsdoc

import (
	"strings"
)

// Lookup resolves the two kinds of type name atoms.
type Lookup interface {
	// Name maps the first segment of an alias-form atom, as seen from the
	// comment position, to its replacement. ok is false to leave it alone.
	Name(head string) (string, bool)
	// Module maps a path-literal specifier such as "./i0" to the global
	// name of the module it denotes.
	Module(specifier string) (string, bool)
}

// Unresolved is a path literal that named no module. Offset is relative to
// the start of the comment.
type Unresolved struct {
	Specifier string
	Offset    int
}

// typeTags take a `{type}` expression. extends and implements also accept a
// bare name.
var typeTags = map[string]bool{
	"type": true, "extends": true, "augments": true, "implements": true,
	"param": true, "return": true, "returns": true, "const": true,
	"define": true, "enum": true, "typedef": true, "this": true,
	"private": true, "protected": true, "public": true, "package": true,
	"throws": true, "export": true, "record": true, "interface": true,
}

var bareNameTags = map[string]bool{"extends": true, "augments": true, "implements": true}

// builtins are never rewritten even when a local of the same name exists.
var builtins = map[string]bool{
	"number": true, "string": true, "boolean": true, "symbol": true,
	"bigint": true, "null": true, "undefined": true, "void": true,
	"function": true, "Object": true, "Array": true, "Function": true,
	"String": true, "Number": true, "Boolean": true, "Symbol": true,
	"Date": true, "RegExp": true, "Error": true, "Promise": true,
	"Map": true, "Set": true, "WeakMap": true, "WeakSet": true,
	"IArrayLike": true, "Iterable": true, "Iterator": true, "Generator": true,
	"IThenable": true, "this": true, "new": true, "typeof": true, "keyof": true,
	"true": true, "false": true, "*": true,
}

// IsDoc reports whether a comment is a JSDoc block.
func IsDoc(comment string) bool {
	return strings.HasPrefix(comment, "/**") && !strings.HasPrefix(comment, "/**/")
}

// Rewrite returns comment with every type name atom re-resolved. Comments
// without type tags are returned unchanged.
func Rewrite(comment string, l Lookup) (string, []Unresolved) {
	if !IsDoc(comment) {
		return comment, nil
	}
	var out strings.Builder
	var unresolved []Unresolved
	i := 0
	for i < len(comment) {
		at := strings.IndexByte(comment[i:], '@')
		if at < 0 {
			break
		}
		tagStart := i + at + 1
		tagEnd := tagStart
		for tagEnd < len(comment) && isTagChar(comment[tagEnd]) {
			tagEnd++
		}
		tag := comment[tagStart:tagEnd]
		out.WriteString(comment[i:tagEnd])
		i = tagEnd
		if !typeTags[tag] {
			continue
		}

		j := i
		for j < len(comment) && (comment[j] == ' ' || comment[j] == '\t') {
			j++
		}
		if j < len(comment) && comment[j] == '{' {
			end := matchBrace(comment, j)
			if end < 0 {
				continue
			}
			out.WriteString(comment[i : j+1])
			expr, bad := rewriteExpr(comment[j+1:end], j+1, l)
			out.WriteString(expr)
			unresolved = append(unresolved, bad...)
			out.WriteByte('}')
			i = end + 1
			continue
		}
		if bareNameTags[tag] && j < len(comment) && isAtomStart(comment, j) {
			k := scanAtom(comment, j)
			out.WriteString(comment[i:j])
			expr, bad := rewriteExpr(comment[j:k], j, l)
			out.WriteString(expr)
			unresolved = append(unresolved, bad...)
			i = k
		}
	}
	out.WriteString(comment[i:])
	return out.String(), unresolved
}

// Atoms lists the type name atoms of a type expression, in order.
func Atoms(expr string) []string {
	var atoms []string
	forEachAtom(expr, func(atom string, _ int, _ bool) string {
		atoms = append(atoms, atom)
		return atom
	})
	return atoms
}

func rewriteExpr(expr string, base int, l Lookup) (string, []Unresolved) {
	var unresolved []Unresolved
	out := forEachAtom(expr, func(atom string, offset int, isKey bool) string {
		if isKey || builtins[atom] {
			return atom
		}
		if isPathLiteral(atom) {
			spec, rest := splitPathLiteral(atom)
			name, ok := l.Module(spec)
			if !ok {
				unresolved = append(unresolved, Unresolved{Specifier: spec, Offset: base + offset})
				return atom
			}
			return name + rest
		}
		head, rest := atom, ""
		if dot := strings.IndexByte(atom, '.'); dot >= 0 {
			head, rest = atom[:dot], atom[dot:]
		}
		if builtins[head] {
			return atom
		}
		if repl, ok := l.Name(head); ok {
			return repl + rest
		}
		return atom
	})
	return out, unresolved
}

// forEachAtom tokenizes a type expression and replaces each name atom with
// fn's result. isKey is set for record keys and function type labels such as
// `this:` and `new:`.
func forEachAtom(expr string, fn func(atom string, offset int, isKey bool) string) string {
	var out strings.Builder
	i := 0
	for i < len(expr) {
		if strings.HasPrefix(expr[i:], "...") && !strings.HasPrefix(expr[i:], "../") {
			out.WriteString("...")
			i += 3
			continue
		}
		if !isAtomStart(expr, i) {
			out.WriteByte(expr[i])
			i++
			continue
		}
		end := scanAtom(expr, i)
		atom := expr[i:end]
		// Old-style generics write `Array.<T>`; the trailing dot is syntax.
		trimmed := strings.TrimRight(atom, ".")
		k := end
		for k < len(expr) && (expr[k] == ' ' || expr[k] == '\t') {
			k++
		}
		isKey := k < len(expr) && expr[k] == ':'
		out.WriteString(fn(trimmed, i, isKey))
		out.WriteString(atom[len(trimmed):])
		i = end
	}
	return out.String()
}

func isAtomStart(s string, i int) bool {
	if isPathLiteral(s[i:]) {
		return true
	}
	c := s[i]
	return c == '_' || c == '$' || (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z')
}

func scanAtom(s string, i int) int {
	path := isPathLiteral(s[i:])
	j := i
	for j < len(s) {
		c := s[j]
		if isIdentChar(c) || c == '.' || (path && (c == '/' || c == '-')) {
			j++
			continue
		}
		break
	}
	return j
}

func isPathLiteral(s string) bool {
	return strings.HasPrefix(s, "./") || strings.HasPrefix(s, "../")
}

// splitPathLiteral cuts a path literal at the first dot after its last
// slash: "./i0.Hello" is the specifier "./i0" and the property path
// ".Hello". An explicit ".js" extension stays with the specifier.
func splitPathLiteral(atom string) (string, string) {
	slash := strings.LastIndexByte(atom, '/')
	dot := strings.IndexByte(atom[slash+1:], '.')
	if dot < 0 {
		return atom, ""
	}
	cut := slash + 1 + dot
	if rest := atom[cut:]; rest == ".js" || strings.HasPrefix(rest, ".js.") {
		cut += len(".js")
	}
	return atom[:cut], atom[cut:]
}

func matchBrace(s string, open int) int {
	depth := 0
	for i := open; i < len(s); i++ {
		switch s[i] {
		case '{':
			depth++
		case '}':
			depth--
			if depth == 0 {
				return i
			}
		}
	}
	return -1
}

func isTagChar(c byte) bool {
	return (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z')
}

func isIdentChar(c byte) bool {
	return c == '_' || c == '$' || (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z') || (c >= '0' && c <= '9')
}
