package parser

import (
	sitter "github.com/tree-sitter/go-tree-sitter"
)

// NodeHandler processes one node. Returning true stops the walker from
// descending into the node's children.
type NodeHandler func(file *SourceFile, node *sitter.Node) bool

// Walker walks a syntax tree in document order and dispatches handlers by
// node kind.
type Walker struct {
	handlers map[string]NodeHandler
}

func NewWalker(handlers map[string]NodeHandler) *Walker {
	return &Walker{handlers: handlers}
}

func (w *Walker) Walk(file *SourceFile, node *sitter.Node) {
	if node == nil {
		return
	}
	if handler, ok := w.handlers[node.Kind()]; ok {
		if handler(file, node) {
			return
		}
	}
	for i := uint(0); i < node.ChildCount(); i++ {
		w.Walk(file, node.Child(i))
	}
}

// StringValue returns the literal value of a `string` node or of a template
// string without substitutions. ok is false for any other node.
func StringValue(file *SourceFile, node *sitter.Node) (string, bool) {
	if node == nil {
		return "", false
	}
	switch node.Kind() {
	case "string", "template_string":
	default:
		return "", false
	}
	var out []byte
	for i := uint(0); i < node.NamedChildCount(); i++ {
		child := node.NamedChild(i)
		switch child.Kind() {
		case "string_fragment":
			out = append(out, file.Source[child.StartByte():child.EndByte()]...)
		case "escape_sequence":
			out = append(out, unescape(file.Text(child))...)
		case "comment":
		default:
			// template_substitution and anything else makes the value dynamic.
			return "", false
		}
	}
	return string(out), true
}

func unescape(seq string) string {
	if len(seq) < 2 {
		return seq
	}
	switch seq[1] {
	case 'n':
		return "\n"
	case 't':
		return "\t"
	case 'r':
		return "\r"
	case '0':
		return "\x00"
	}
	return seq[1:]
}
