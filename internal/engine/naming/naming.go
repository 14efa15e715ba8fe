// Package naming allocates the global binding names of the flattened
// program. One Table is shared by every phase of a compilation unit.
package naming

import (
	"sort"
	"strconv"
	"strings"
	"sync"
)

const (
	modulePrefix = "module$"
	localInfix   = "$$"
)

// Sanitize maps a module id to its base global name: every character outside
// [A-Za-z0-9_$] becomes '_'.
func Sanitize(id string) string {
	var sb strings.Builder
	sb.Grow(len(modulePrefix) + len(id))
	sb.WriteString(modulePrefix)
	for _, r := range id {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '_', r == '$':
			sb.WriteRune(r)
		default:
			sb.WriteByte('_')
		}
	}
	return sb.String()
}

// Table is the id -> name mapping plus the claimed top-level namespace of the
// flattened program. Every method takes the mutex, so the table has a
// single writer at any time.
type Table struct {
	mu sync.Mutex
	// byID maps module ids to their synthesized names.
	byID map[string]string
	// synthesized is the reverse of byID.
	synthesized map[string]string
	// claimed maps top-level names to the id of the module declaring them.
	claimed map[string]string
}

func NewTable() *Table {
	return &Table{
		byID:        make(map[string]string),
		synthesized: make(map[string]string),
		claimed:     make(map[string]string),
	}
}

// NameFor returns the global name for id, allocating it on first use.
func (t *Table) NameFor(id string) string {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.allocate(id)
}

func (t *Table) allocate(id string) string {
	if name, ok := t.byID[id]; ok {
		return name
	}
	base := Sanitize(id)
	name := base
	for n := 2; ; n++ {
		if _, taken := t.synthesized[name]; !taken {
			break
		}
		name = base + "_" + strconv.Itoa(n)
	}
	t.byID[id] = name
	t.synthesized[name] = id
	return name
}

// Reserve allocates names for ids in sorted order, so suffixes for ids that
// sanitize alike do not depend on the caller's ordering.
func (t *Table) Reserve(ids []string) {
	sorted := append([]string(nil), ids...)
	sort.Strings(sorted)
	t.mu.Lock()
	defer t.mu.Unlock()
	for _, id := range sorted {
		t.allocate(id)
	}
}

func (t *Table) IsSynthesized(name string) bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	_, ok := t.synthesized[name]
	return ok
}

// Claim records that owner declares name at the top level. It returns false
// when the name is synthesized or already claimed by a different owner.
func (t *Table) Claim(name, owner string) bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.claim(name, owner)
}

func (t *Table) claim(name, owner string) bool {
	if _, ok := t.synthesized[name]; ok {
		return false
	}
	if prev, ok := t.claimed[name]; ok && prev != owner {
		return false
	}
	t.claimed[name] = owner
	return true
}

// IsClaimed returns the owner of a claimed top-level name.
func (t *Table) IsClaimed(name string) (string, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	owner, ok := t.claimed[name]
	return owner, ok
}

// Disambiguate claims and returns <local>$$<name of owner>. If that is taken
// too, $2, $3, ... is appended until a free name is found.
func (t *Table) Disambiguate(local, owner string) string {
	t.mu.Lock()
	defer t.mu.Unlock()
	base := local + localInfix + t.allocate(owner)
	candidate := base
	for n := 2; !t.claim(candidate, owner); n++ {
		candidate = base + "$" + strconv.Itoa(n)
	}
	return candidate
}

// Names returns a copy of the id -> name mapping.
func (t *Table) Names() map[string]string {
	t.mu.Lock()
	defer t.mu.Unlock()
	out := make(map[string]string, len(t.byID))
	for id, name := range t.byID {
		out[id] = name
	}
	return out
}
