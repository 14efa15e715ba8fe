package naming

import (
	"fmt"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSanitize(t *testing.T) {
	assert.Equal(t, "module$i0", Sanitize("i0"))
	assert.Equal(t, "module$lib_util", Sanitize("lib/util"))
	assert.Equal(t, "module$a_b_c_json", Sanitize("a-b/c.json"))
	assert.Equal(t, "module$x$y", Sanitize("x$y"))
}

func TestNameForIsIdempotent(t *testing.T) {
	table := NewTable()
	first := table.NameFor("i0")
	assert.Equal(t, "module$i0", first)
	assert.Equal(t, first, table.NameFor("i0"))
	assert.True(t, table.IsSynthesized("module$i0"))
	assert.False(t, table.IsSynthesized("module$i1"))
}

func TestNameForIsInjective(t *testing.T) {
	table := NewTable()
	table.Reserve([]string{"a/b", "a-b", "a.b", "a_b"})

	seen := map[string]string{}
	for id, name := range table.Names() {
		prev, dup := seen[name]
		require.False(t, dup, "%s and %s both map to %s", prev, id, name)
		seen[name] = id
	}
	// Sorted allocation: "a-b" < "a.b" < "a/b" < "a_b".
	assert.Equal(t, "module$a_b", table.NameFor("a-b"))
	assert.Equal(t, "module$a_b_2", table.NameFor("a.b"))
	assert.Equal(t, "module$a_b_3", table.NameFor("a/b"))
	assert.Equal(t, "module$a_b_4", table.NameFor("a_b"))
}

func TestReserveOrderIndependent(t *testing.T) {
	a := NewTable()
	a.Reserve([]string{"x/y", "x_y"})
	b := NewTable()
	b.Reserve([]string{"x_y", "x/y"})
	assert.Equal(t, a.Names(), b.Names())
}

func TestClaimAndDisambiguate(t *testing.T) {
	table := NewTable()
	table.Reserve([]string{"i0", "i1"})

	assert.True(t, table.Claim("hello", "i1"))
	assert.True(t, table.Claim("hello", "i1"), "re-claim by the same owner")
	assert.False(t, table.Claim("hello", "i2"))
	assert.False(t, table.Claim("module$i0", "i1"), "synthesized names cannot be claimed")

	owner, ok := table.IsClaimed("hello")
	require.True(t, ok)
	assert.Equal(t, "i1", owner)

	assert.Equal(t, "hello$$module$i0", table.Disambiguate("hello", "i0"))
	// Another local of another module ending up on the same text gets a
	// numeric suffix.
	table.Claim("dup$$module$i0", "i1")
	assert.Equal(t, "dup$$module$i0$2", table.Disambiguate("dup", "i0"))
}

func TestConcurrentNameFor(t *testing.T) {
	table := NewTable()
	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			table.NameFor(fmt.Sprintf("m%d", i%10))
		}(i)
	}
	wg.Wait()
	assert.Len(t, table.Names(), 10)
}
