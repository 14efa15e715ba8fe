package jsdoc

import "strings"

// Tag is one block tag of a JSDoc comment, e.g. `@param {T=} opt_x`.
type Tag struct {
	Name string
	// Type is the braced type expression without braces, or the bare name of
	// an extends or implements tag.
	Type string
	// Arg is the first word after the type, usually a parameter name.
	Arg string
}

// Tags lists the block tags of a JSDoc comment in order.
func Tags(comment string) []Tag {
	if !IsDoc(comment) {
		return nil
	}
	var tags []Tag
	i := 0
	for {
		at := strings.IndexByte(comment[i:], '@')
		if at < 0 {
			return tags
		}
		start := i + at + 1
		end := start
		for end < len(comment) && isTagChar(comment[end]) {
			end++
		}
		tag := Tag{Name: comment[start:end]}
		i = end
		if tag.Name == "" {
			continue
		}

		j := skipBlanks(comment, i)
		switch {
		case j < len(comment) && comment[j] == '{':
			if end := matchBrace(comment, j); end > 0 {
				tag.Type = strings.TrimSpace(comment[j+1 : end])
				j = end + 1
			}
		case bareNameTags[tag.Name] && j < len(comment) && isAtomStart(comment, j):
			k := scanAtom(comment, j)
			tag.Type = comment[j:k]
			j = k
		}
		j = skipBlanks(comment, j)
		k := j
		for k < len(comment) && !isBlank(comment[k]) && comment[k] != '*' && comment[k] != '@' {
			k++
		}
		tag.Arg = comment[j:k]
		i = k
		tags = append(tags, tag)
	}
}

// Has reports whether comment carries the named tag.
func Has(comment, name string) bool {
	for _, t := range Tags(comment) {
		if t.Name == name {
			return true
		}
	}
	return false
}

func skipBlanks(s string, i int) int {
	for i < len(s) && (s[i] == ' ' || s[i] == '\t') {
		i++
	}
	return i
}

func isBlank(c byte) bool {
	return c == ' ' || c == '\t' || c == '\n' || c == '\r'
}
