package rewrite

import (
	"sort"
	"strings"

	"cjsflat/internal/engine/scope"
)

type edit struct {
	start, end uint
	text       string
}

// editor applies byte-range replacements to a module source. Edits that
// start inside an earlier, wider replacement are dropped, which lets a
// statement-level rewrite swallow the identifier edits it already baked in.
type editor struct {
	src    []byte
	edits  []edit
	sorted bool
}

func newEditor(src []byte) *editor {
	return &editor{src: src}
}

func (e *editor) replace(span scope.Span, text string) {
	e.edits = append(e.edits, edit{start: span.Start, end: span.End, text: text})
	e.sorted = false
}

func (e *editor) insert(at uint, text string) {
	e.edits = append(e.edits, edit{start: at, end: at, text: text})
	e.sorted = false
}

// remove deletes span together with trailing blanks, and the line break when
// the span was alone on its line.
func (e *editor) remove(span scope.Span) {
	end := span.End
	for end < uint(len(e.src)) && (e.src[end] == ' ' || e.src[end] == '\t') {
		end++
	}
	if end < uint(len(e.src)) && e.src[end] == '\n' && e.lineStartsAt(span.Start) {
		end++
	}
	e.replace(scope.Span{Start: span.Start, End: end}, "")
}

func (e *editor) lineStartsAt(offset uint) bool {
	for i := int(offset) - 1; i >= 0; i-- {
		switch e.src[i] {
		case '\n':
			return true
		case ' ', '\t':
			continue
		default:
			return false
		}
	}
	return true
}

func (e *editor) sort() {
	if e.sorted {
		return
	}
	sort.SliceStable(e.edits, func(i, j int) bool {
		a, b := e.edits[i], e.edits[j]
		if a.start != b.start {
			return a.start < b.start
		}
		aInsert, bInsert := a.start == a.end, b.start == b.end
		if aInsert != bInsert {
			return aInsert
		}
		return a.end > b.end
	})
	e.sorted = true
}

// render returns src[start:end) with every edit inside the range applied.
func (e *editor) render(start, end uint) string {
	e.sort()
	var sb strings.Builder
	cursor := start
	for _, ed := range e.edits {
		if ed.start < start || ed.end > end {
			continue
		}
		if ed.start < cursor {
			continue
		}
		sb.Write(e.src[cursor:ed.start])
		sb.WriteString(ed.text)
		cursor = ed.end
	}
	sb.Write(e.src[cursor:end])
	return sb.String()
}

func (e *editor) renderAll() string {
	return e.render(0, uint(len(e.src)))
}
