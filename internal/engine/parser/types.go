// # internal/engine/parser/types.go
package parser

import (
	"cjsflat/internal/core/diag"

	sitter "github.com/tree-sitter/go-tree-sitter"
)

// SourceFile is one parsed module. Nodes handed out by Root stay valid until
// Close is called.
type SourceFile struct {
	Path   string
	Source []byte
	// Wrapped is set for JSON inputs, whose Source is the synthesized
	// `module.exports = <json>;` text.
	Wrapped bool
	Tree    *sitter.Tree
}

func (f *SourceFile) Root() *sitter.Node {
	if f == nil || f.Tree == nil {
		return nil
	}
	return f.Tree.RootNode()
}

func (f *SourceFile) Close() {
	if f != nil && f.Tree != nil {
		f.Tree.Close()
		f.Tree = nil
	}
}

func (f *SourceFile) Text(node *sitter.Node) string {
	if node == nil {
		return ""
	}
	return string(f.Source[node.StartByte():node.EndByte()])
}

func (f *SourceFile) Location(node *sitter.Node) diag.Location {
	if node == nil {
		return diag.Location{File: f.Path}
	}
	return f.LocationAt(node.StartByte())
}

// LocationAt converts a byte offset into a 1-based line/column location.
func (f *SourceFile) LocationAt(offset uint) diag.Location {
	line, col := 1, 1
	for i := uint(0); i < offset && i < uint(len(f.Source)); i++ {
		if f.Source[i] == '\n' {
			line++
			col = 1
			continue
		}
		col++
	}
	return diag.Location{File: f.Path, Line: line, Column: col}
}

// FirstSyntaxError returns the first ERROR or MISSING node in document order.
func (f *SourceFile) FirstSyntaxError() *sitter.Node {
	root := f.Root()
	if root == nil || !root.HasError() {
		return nil
	}
	return firstError(root)
}

func firstError(node *sitter.Node) *sitter.Node {
	if node.IsError() || node.IsMissing() {
		return node
	}
	if !node.HasError() {
		return nil
	}
	for i := uint(0); i < node.ChildCount(); i++ {
		if found := firstError(node.Child(i)); found != nil {
			return found
		}
	}
	return nil
}
