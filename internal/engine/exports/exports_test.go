package exports

import (
	"testing"

	"cjsflat/internal/engine/parser"
	"cjsflat/internal/engine/scope"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func scan(t *testing.T, src string) (*parser.SourceFile, *Info) {
	t.Helper()
	p, err := parser.NewParser(parser.NewGrammarLoader())
	require.NoError(t, err)
	file, err := p.ParseFile("i0.js", []byte(src))
	require.NoError(t, err)
	t.Cleanup(file.Close)
	return file, Scan(file, scope.Build(file))
}

func TestSingleRootExport(t *testing.T) {
	file, info := scan(t, "/** @constructor */ function Hello() {}\nmodule.exports = Hello;\n")

	require.Len(t, info.Records, 1)
	r := info.Records[0]
	assert.True(t, r.IsRoot())
	assert.Equal(t, "Hello", file.Text(r.Value))
	assert.Equal(t, 2, r.StmtIndex)
	assert.Equal(t, 1, info.RootAssignments)
	assert.False(t, info.ReassignedRoot)
	assert.Equal(t, Bare, info.Shape.Kind)
	assert.Equal(t, "Hello", file.Text(info.Shape.Root))
}

func TestReassignedRootKeepsEveryRecord(t *testing.T) {
	src := "function Hello() {}\nmodule.exports = Hello;\nfunction Bar() {}\nmodule.exports = Bar;\n"
	file, info := scan(t, src)

	require.Len(t, info.Records, 2)
	assert.Equal(t, "Hello", file.Text(info.Records[0].Value))
	assert.Equal(t, "Bar", file.Text(info.Records[1].Value))
	assert.Equal(t, 2, info.RootAssignments)
	assert.True(t, info.ReassignedRoot)
	assert.False(t, info.LeadingProperty)
}

func TestPropertyExports(t *testing.T) {
	src := "module.exports.foo = 1;\nexports.foo = 2;\nmodule.exports['bar'].baz = 3;\nexports = {};\n"
	_, info := scan(t, src)

	require.Len(t, info.Records, 3)
	assert.Equal(t, []string{"foo"}, info.Records[0].Path)
	assert.False(t, info.Records[0].ViaExports)
	assert.Equal(t, []string{"foo"}, info.Records[1].Path)
	assert.True(t, info.Records[1].ViaExports)
	assert.Equal(t, "bar.baz", info.Records[2].PathKey())

	assert.Equal(t, Namespace, info.Shape.Kind)
	assert.Equal(t, []string{"foo", "bar"}, info.Shape.Properties)
	assert.Equal(t, 0, info.RootAssignments)
	assert.False(t, info.LeadingProperty)
}

func TestLeadingPropertyBeforeRoot(t *testing.T) {
	_, info := scan(t, "exports.a = 1;\nmodule.exports = function () {};\n")
	assert.True(t, info.LeadingProperty)
	assert.Equal(t, Bare, info.Shape.Kind)
	assert.Equal(t, 1, info.RootAssignments)
}

func TestObjectLiteralIsExpanded(t *testing.T) {
	file, info := scan(t, "function Hello() {}\nvar x = 1;\nmodule.exports = {Hello: Hello, 'y': x + 1, x};\n")

	require.Len(t, info.Records, 3)
	for _, r := range info.Records {
		assert.True(t, r.FromLiteral)
		assert.Nil(t, r.Left)
	}
	assert.Equal(t, []string{"Hello"}, info.Records[0].Path)
	assert.Equal(t, "Hello", file.Text(info.Records[0].Value))
	assert.Equal(t, []string{"y"}, info.Records[1].Path)
	assert.Equal(t, "x + 1", file.Text(info.Records[1].Value))
	assert.Equal(t, "shorthand_property_identifier", info.Records[2].Value.Kind())
	assert.Equal(t, Namespace, info.Shape.Kind)
	assert.Equal(t, 0, info.RootAssignments)
}

func TestObjectLiteralNotExpandedWhenReassigned(t *testing.T) {
	_, info := scan(t, "module.exports = {a: 1};\nmodule.exports = {b: 2};\n")
	require.Len(t, info.Records, 2)
	assert.True(t, info.ReassignedRoot)
	assert.False(t, info.Records[0].FromLiteral)
}

func TestShadowedModuleIsNotAnExport(t *testing.T) {
	_, info := scan(t, "var module = {};\nmodule.exports = 1;\nfunction f(exports) { exports.a = 1; }\n")
	assert.False(t, info.HasExports())
}

func TestNestedAssignmentsAreIgnored(t *testing.T) {
	_, info := scan(t, "if (x) { module.exports = 1; }\nfunction f() { exports.y = 2; }\n")
	assert.False(t, info.HasExports())
}

func TestChainedExportsAlias(t *testing.T) {
	file, info := scan(t, "function Hello() {}\nmodule.exports = exports = Hello;\n")

	require.Len(t, info.Records, 1)
	r := info.Records[0]
	assert.True(t, r.IsRoot())
	assert.Equal(t, "Hello", file.Text(r.Value))
	require.Len(t, r.Aliases, 1)
	assert.Equal(t, "exports = ", string(file.Source[r.Aliases[0].Start:r.Aliases[0].End]))
}
