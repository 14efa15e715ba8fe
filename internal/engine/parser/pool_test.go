// # internal/engine/parser/pool_test.go
package parser

import (
	"sync"
	"testing"

	sitter "github.com/tree-sitter/go-tree-sitter"
	tree_sitter_javascript "github.com/tree-sitter/tree-sitter-javascript/bindings/go"
)

func jsLanguage() *sitter.Language {
	return sitter.NewLanguage(tree_sitter_javascript.Language())
}

func TestParserPool_GetPut(t *testing.T) {
	pool := NewParserPool(jsLanguage())

	sp := pool.Get()
	if sp == nil {
		t.Fatal("expected non-nil parser from pool")
	}
	if pool.Stats() != 1 {
		t.Fatalf("expected 1 leased parser, got %d", pool.Stats())
	}
	pool.Put(sp)
	if pool.Stats() != 0 {
		t.Fatalf("expected 0 leased parsers, got %d", pool.Stats())
	}
}

func TestParserPool_PutNil(t *testing.T) {
	pool := NewParserPool(jsLanguage())
	pool.Put(nil)
}

func TestParserPool_ParsesValidJavaScript(t *testing.T) {
	pool := NewParserPool(jsLanguage())

	sp := pool.Get()
	defer pool.Put(sp)

	tree := sp.Parse([]byte("var Hello = require('./i0');\n"), nil)
	if tree == nil {
		t.Fatal("expected non-nil parse tree")
	}
	defer tree.Close()

	root := tree.RootNode()
	if root.HasError() {
		t.Fatalf("expected error-free tree, got %s", root.ToSexp())
	}
}

func TestParserPool_ConcurrentAccess(t *testing.T) {
	pool := NewParserPool(jsLanguage())

	const goroutines = 16
	const iters = 25

	var wg sync.WaitGroup
	wg.Add(goroutines)
	src := []byte("module.exports = function () {};\n")

	for i := 0; i < goroutines; i++ {
		go func() {
			defer wg.Done()
			for j := 0; j < iters; j++ {
				sp := pool.Get()
				tree := sp.Parse(src, nil)
				if tree == nil {
					t.Errorf("expected non-nil parse tree")
				} else {
					tree.Close()
				}
				pool.Put(sp)
			}
		}()
	}
	wg.Wait()
}

func TestParserPool_LanguageSetAfterReset(t *testing.T) {
	pool := NewParserPool(jsLanguage())

	sp := pool.Get()
	sp.Reset()
	pool.Put(sp)

	sp2 := pool.Get()
	defer pool.Put(sp2)

	tree := sp2.Parse([]byte("function ok() {}\n"), nil)
	if tree == nil {
		t.Fatal("parser should still parse after Reset")
	}
	defer tree.Close()
}
