package diag

import (
	"sort"
	"sync"
)

// Bag collects diagnostics. It is unbounded so nothing is ever dropped, and
// safe for concurrent Add calls from scanning workers.
type Bag struct {
	mu    sync.Mutex
	items []Diagnostic
}

func NewBag() *Bag {
	return &Bag{}
}

func (b *Bag) Add(d Diagnostic) {
	b.mu.Lock()
	b.items = append(b.items, d)
	b.mu.Unlock()
}

func (b *Bag) Len() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.items)
}

// Items returns a copy of the collected diagnostics.
func (b *Bag) Items() []Diagnostic {
	b.mu.Lock()
	defer b.mu.Unlock()
	out := make([]Diagnostic, len(b.items))
	copy(out, b.items)
	return out
}

func (b *Bag) HasErrors() bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	return HasErrors(b.items)
}

// Sort orders diagnostics by file, line, column, severity (desc), kind and
// message so output is stable across runs.
func (b *Bag) Sort() {
	b.mu.Lock()
	defer b.mu.Unlock()
	Sort(b.items)
}

func Sort(items []Diagnostic) {
	sort.SliceStable(items, func(i, j int) bool {
		di, dj := items[i], items[j]
		if di.Location.File != dj.Location.File {
			return di.Location.File < dj.Location.File
		}
		if di.Location.Line != dj.Location.Line {
			return di.Location.Line < dj.Location.Line
		}
		if di.Location.Column != dj.Location.Column {
			return di.Location.Column < dj.Location.Column
		}
		if di.Severity != dj.Severity {
			return di.Severity > dj.Severity
		}
		if di.Kind != dj.Kind {
			return di.Kind < dj.Kind
		}
		return di.Message < dj.Message
	})
}

func HasErrors(items []Diagnostic) bool {
	for i := range items {
		if items[i].Severity >= SevError {
			return true
		}
	}
	return false
}

// CountByKind tallies diagnostics per kind.
func CountByKind(items []Diagnostic) map[Kind]int {
	counts := make(map[Kind]int)
	for _, d := range items {
		counts[d.Kind]++
	}
	return counts
}
