// # internal/engine/parser/loader.go
package parser

import (
	"fmt"
	"path/filepath"
	"strings"

	sitter "github.com/tree-sitter/go-tree-sitter"
	tree_sitter_javascript "github.com/tree-sitter/tree-sitter-javascript/bindings/go"
)

const LanguageJavaScript = "javascript"

// GrammarLoader owns the compiled tree-sitter grammars. Only JavaScript is
// linked in; JSON inputs are parsed through it after being wrapped in an
// export assignment.
type GrammarLoader struct {
	languages  map[string]*sitter.Language
	extensions map[string]string
}

func NewGrammarLoader() *GrammarLoader {
	return &GrammarLoader{
		languages: map[string]*sitter.Language{
			LanguageJavaScript: sitter.NewLanguage(tree_sitter_javascript.Language()),
		},
		extensions: map[string]string{
			".js":   LanguageJavaScript,
			".cjs":  LanguageJavaScript,
			".json": LanguageJavaScript,
		},
	}
}

func (gl *GrammarLoader) Language(name string) (*sitter.Language, error) {
	lang, ok := gl.languages[name]
	if !ok {
		return nil, fmt.Errorf("grammar not loaded: %s", name)
	}
	return lang, nil
}

// LanguageFor maps a file path to a loaded grammar name, or "" when the
// extension is not supported.
func (gl *GrammarLoader) LanguageFor(path string) string {
	return gl.extensions[strings.ToLower(filepath.Ext(path))]
}

func (gl *GrammarLoader) SupportedExtensions() []string {
	return []string{".cjs", ".js", ".json"}
}
