// # internal/engine/parser/parser.go
package parser

import (
	"cjsflat/internal/core/errors"
	"fmt"
	"strings"
)

// Parser turns module sources into syntax trees. It is safe for concurrent
// use; each call leases a parser from the pool.
type Parser struct {
	loader *GrammarLoader
	pool   *ParserPool
}

func NewParser(loader *GrammarLoader) (*Parser, error) {
	lang, err := loader.Language(LanguageJavaScript)
	if err != nil {
		return nil, errors.Wrap(err, errors.CodeInternal, "javascript grammar unavailable")
	}
	return &Parser{loader: loader, pool: NewParserPool(lang)}, nil
}

// ParseFile parses content as a module. The returned SourceFile owns its tree
// and must be closed by the caller. Syntax errors do not fail the parse;
// callers inspect FirstSyntaxError.
func (p *Parser) ParseFile(path string, content []byte) (*SourceFile, error) {
	if p.loader.LanguageFor(path) == "" {
		return nil, errors.AddContext(errors.New(errors.CodeNotSupported, "unsupported file type"), errors.CtxPath, path)
	}

	file := &SourceFile{Path: path, Source: content}
	if strings.HasSuffix(strings.ToLower(path), ".json") {
		file.Source = []byte(fmt.Sprintf("module.exports = %s;\n", strings.TrimSpace(string(content))))
		file.Wrapped = true
	}

	sp := p.pool.Get()
	defer p.pool.Put(sp)

	tree := sp.Parse(file.Source, nil)
	if tree == nil {
		return nil, errors.AddContext(errors.New(errors.CodeInternal, "parse failed"), errors.CtxPath, path)
	}
	file.Tree = tree
	return file, nil
}

func (p *Parser) IsSupportedPath(path string) bool {
	return p.loader.LanguageFor(path) != ""
}

// Leased reports how many pooled parsers are currently in use.
func (p *Parser) Leased() int {
	return p.pool.Stats()
}

func (p *Parser) SupportedExtensions() []string {
	return p.loader.SupportedExtensions()
}
