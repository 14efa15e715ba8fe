package drivers

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNodeDriverRelative(t *testing.T) {
	d := NewNodeDriver()
	got := d.Candidates("./i0", "lib")
	assert.Equal(t, []string{
		"lib/i0", "lib/i0.js", "lib/i0.json",
		"lib/i0/index.js", "lib/i0/index.json",
	}, got)
}

func TestNodeDriverParentAndRoot(t *testing.T) {
	d := NewNodeDriver()
	assert.Equal(t, "util", d.Candidates("../util", "lib")[0])
	assert.Empty(t, d.Candidates("../../escape", "lib"))
	assert.Equal(t, "abs/x", d.Candidates("/abs/x", "lib/deep")[0])
}

func TestNodeDriverBareWalksAncestors(t *testing.T) {
	d := NewNodeDriver()
	got := d.Candidates("left-pad", "a/b")
	assert.Equal(t, "a/b/node_modules/left-pad", got[0])
	assert.Contains(t, got, "a/node_modules/left-pad.js")
	assert.Contains(t, got, "node_modules/left-pad/index.js")
}

func TestIsRelative(t *testing.T) {
	assert.True(t, IsRelative("./a"))
	assert.True(t, IsRelative("../a"))
	assert.True(t, IsRelative("/a"))
	assert.False(t, IsRelative("lodash"))
}
