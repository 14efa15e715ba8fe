package drivers

import (
	"path"
	"strings"
)

// NodeDriver expands a require specifier into the ordered list of candidate
// files Node.js would try: the path itself, extension inference, directory
// index files, and for bare specifiers node_modules in every ancestor.
type NodeDriver struct {
	Extensions []string
}

func NewNodeDriver() *NodeDriver {
	return &NodeDriver{Extensions: []string{".js", ".json"}}
}

// IsRelative reports whether the specifier is resolved against the requiring
// file rather than through node_modules.
func IsRelative(specifier string) bool {
	return specifier == "." || specifier == ".." ||
		strings.HasPrefix(specifier, "./") ||
		strings.HasPrefix(specifier, "../") ||
		strings.HasPrefix(specifier, "/")
}

// Candidates returns project-relative candidate paths for specifier required
// from a file in fromDir. Candidates that escape the project root are
// omitted.
func (d *NodeDriver) Candidates(specifier, fromDir string) []string {
	specifier = strings.TrimPrefix(specifier, "node:")
	if specifier == "" {
		return nil
	}

	var bases []string
	switch {
	case strings.HasPrefix(specifier, "/"):
		bases = append(bases, specifier)
	case IsRelative(specifier):
		bases = append(bases, path.Join(fromDir, specifier))
	default:
		dir := fromDir
		for {
			bases = append(bases, path.Join(dir, "node_modules", specifier))
			if dir == "." || dir == "" || dir == "/" {
				break
			}
			dir = path.Dir(dir)
		}
	}

	var out []string
	for _, base := range bases {
		base, ok := clean(base)
		if !ok {
			continue
		}
		out = append(out, d.fileCandidates(base)...)
		out = append(out, d.indexCandidates(base)...)
	}
	return out
}

func (d *NodeDriver) fileCandidates(base string) []string {
	out := []string{base}
	for _, ext := range d.Extensions {
		out = append(out, base+ext)
	}
	return out
}

func (d *NodeDriver) indexCandidates(base string) []string {
	out := make([]string, 0, len(d.Extensions))
	for _, ext := range d.Extensions {
		out = append(out, path.Join(base, "index"+ext))
	}
	return out
}

func clean(p string) (string, bool) {
	p = path.Clean(strings.TrimPrefix(p, "/"))
	if p == ".." || strings.HasPrefix(p, "../") {
		return "", false
	}
	return p, true
}
