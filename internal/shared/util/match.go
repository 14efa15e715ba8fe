package util

import (
	"strings"

	"github.com/gobwas/glob"
)

// Matcher matches slash-separated relative paths against a set of globs.
// `*` stops at a slash and `**` crosses them. `**/` may also match no
// directory at all, so `src/**/*.js` matches `src/a.js`.
type Matcher struct {
	patterns []string
	globs    []glob.Glob
}

func NewMatcher(patterns []string) (*Matcher, error) {
	m := &Matcher{patterns: append([]string(nil), patterns...)}
	for _, p := range patterns {
		p = NormalizePatternPath(p)
		variants := []string{p}
		if flat := strings.ReplaceAll(p, "/**/", "/"); flat != p {
			variants = append(variants, flat)
		}
		for _, v := range variants {
			g, err := glob.Compile(v, '/')
			if err != nil {
				return nil, err
			}
			m.globs = append(m.globs, g)
		}
	}
	return m, nil
}

func (m *Matcher) Empty() bool {
	return m == nil || len(m.globs) == 0
}

// Match reports whether the file path rel matches any pattern.
func (m *Matcher) Match(rel string) bool {
	if m == nil {
		return false
	}
	rel = NormalizePatternPath(rel)
	for _, g := range m.globs {
		if g.Match(rel) || g.Match("/"+rel) {
			return true
		}
	}
	return false
}

// MatchDir reports whether every file below the directory rel matches.
func (m *Matcher) MatchDir(rel string) bool {
	rel = NormalizePatternPath(rel)
	if rel == "" {
		return false
	}
	return m.Match(rel) || m.Match(rel+"/\x00")
}
