package resolver

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func paths(t *testing.T, raw ...string) []ModulePath {
	t.Helper()
	out := make([]ModulePath, 0, len(raw))
	for _, p := range raw {
		mp, err := NormalizePath(p)
		require.NoError(t, err)
		out = append(out, mp)
	}
	return out
}

func TestNormalizePath(t *testing.T) {
	tests := []struct {
		in   string
		want ModulePath
		ok   bool
	}{
		{"i0.js", "i0.js", true},
		{"./lib/../lib/util.js", "lib/util.js", true},
		{`src\a.js`, "src/a.js", true},
		{"/abs.js", "abs.js", true},
		{"../outside.js", "", false},
		{"", "", false},
	}
	for _, tt := range tests {
		got, err := NormalizePath(tt.in)
		if !tt.ok {
			assert.Error(t, err, tt.in)
			continue
		}
		require.NoError(t, err, tt.in)
		assert.Equal(t, tt.want, got)
	}
}

func TestIDFor(t *testing.T) {
	assert.Equal(t, ModuleID("lib/util"), IDFor("lib/util.js"))
	assert.Equal(t, ModuleID("data.json"), IDFor("data.json"))
}

func TestResolveSameFileSameID(t *testing.T) {
	r, err := New(ModeNode, paths(t, "i0.js", "i1.js", "lib/i2.js", "lib/pkg/index.js", "conf.json"))
	require.NoError(t, err)

	for _, spec := range []string{"./i0", "./i0.js", "./lib/../i0", "/i0"} {
		id, err := r.Resolve(spec, "i1.js")
		require.NoError(t, err, spec)
		assert.Equal(t, ModuleID("i0"), id, spec)
	}

	id, err := r.Resolve("../i0", "lib/i2.js")
	require.NoError(t, err)
	assert.Equal(t, ModuleID("i0"), id)

	id, err = r.Resolve("./pkg", "lib/i2.js")
	require.NoError(t, err)
	assert.Equal(t, ModuleID("lib/pkg/index"), id)

	id, err = r.Resolve("./conf", "i0.js")
	require.NoError(t, err)
	assert.Equal(t, ModuleID("conf.json"), id)
}

func TestResolveNodeModules(t *testing.T) {
	r, err := New(ModeNode, paths(t, "node_modules/dep/index.js", "src/app/main.js"))
	require.NoError(t, err)

	id, err := r.Resolve("dep", "src/app/main.js")
	require.NoError(t, err)
	assert.Equal(t, ModuleID("node_modules/dep/index"), id)
}

func TestResolveUnresolved(t *testing.T) {
	r, err := New(ModeNode, paths(t, "i0.js"))
	require.NoError(t, err)

	_, err = r.Resolve("./missing", "i0.js")
	var unresolved *UnresolvedSpecifierError
	require.True(t, errors.As(err, &unresolved))
	assert.Equal(t, "./missing", unresolved.Specifier)
	assert.Equal(t, ModulePath("i0.js"), unresolved.From)

	_, err = r.Resolve("../../up", "i0.js")
	assert.Error(t, err)

	assert.Error(t, Dynamic("name", "i0.js"))
}

func TestNewRejectsDuplicateIDsAndModes(t *testing.T) {
	_, err := New(ModeNode, paths(t, "a", "a.js"))
	assert.Error(t, err)

	_, err = New(Mode("BROWSER"), nil)
	assert.Error(t, err)

	_, err = ParseMode("browser")
	assert.Error(t, err)
	mode, err := ParseMode("node")
	require.NoError(t, err)
	assert.Equal(t, ModeNode, mode)
}
