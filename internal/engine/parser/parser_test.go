package parser

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	sitter "github.com/tree-sitter/go-tree-sitter"
)

func newTestParser(t *testing.T) *Parser {
	t.Helper()
	p, err := NewParser(NewGrammarLoader())
	require.NoError(t, err)
	return p
}

func TestParseFile_JavaScript(t *testing.T) {
	p := newTestParser(t)

	file, err := p.ParseFile("lib/i0.js", []byte("/** @constructor */ function Hello() {}\nmodule.exports = Hello;\n"))
	require.NoError(t, err)
	defer file.Close()

	root := file.Root()
	require.NotNil(t, root)
	assert.Equal(t, "program", root.Kind())
	assert.Nil(t, file.FirstSyntaxError())
	assert.False(t, file.Wrapped)
	assert.Equal(t, 0, p.Leased())
}

func TestParseFile_JSONIsWrapped(t *testing.T) {
	p := newTestParser(t)

	file, err := p.ParseFile("data.json", []byte(`{"a": 1}`))
	require.NoError(t, err)
	defer file.Close()

	assert.True(t, file.Wrapped)
	assert.Equal(t, "module.exports = {\"a\": 1};\n", string(file.Source))
	assert.Nil(t, file.FirstSyntaxError())
}

func TestParseFile_Unsupported(t *testing.T) {
	p := newTestParser(t)
	_, err := p.ParseFile("style.css", []byte("a{}"))
	require.Error(t, err)
	assert.False(t, p.IsSupportedPath("style.css"))
	assert.True(t, p.IsSupportedPath("x.cjs"))
}

func TestParseFile_SyntaxErrorLocation(t *testing.T) {
	p := newTestParser(t)

	file, err := p.ParseFile("bad.js", []byte("var ok = 1;\nvar = ;\n"))
	require.NoError(t, err)
	defer file.Close()

	bad := file.FirstSyntaxError()
	require.NotNil(t, bad)
	assert.Equal(t, 2, file.Location(bad).Line)
}

func TestLocationAt(t *testing.T) {
	file := &SourceFile{Path: "a.js", Source: []byte("ab\ncd")}
	loc := file.LocationAt(4)
	assert.Equal(t, 2, loc.Line)
	assert.Equal(t, 2, loc.Column)
}

func TestWalkerAndStringValue(t *testing.T) {
	p := newTestParser(t)

	file, err := p.ParseFile("a.js", []byte("require('./x'); require(`./y`); require(`./${z}`); require(name);"))
	require.NoError(t, err)
	defer file.Close()

	var specs []string
	var dynamic int
	NewWalker(map[string]NodeHandler{
		"call_expression": func(f *SourceFile, node *sitter.Node) bool {
			args := node.ChildByFieldName("arguments")
			arg := args.NamedChild(0)
			if value, ok := StringValue(f, arg); ok {
				specs = append(specs, value)
			} else {
				dynamic++
			}
			return true
		},
	}).Walk(file, file.Root())

	assert.Equal(t, []string{"./x", "./y"}, specs)
	assert.Equal(t, 2, dynamic)
}
