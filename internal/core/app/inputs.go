package app

import (
	"context"
	"io/fs"
	"os"
	"path/filepath"
	"sort"

	"cjsflat/internal/core/errors"
	"cjsflat/internal/engine/rewrite"
)

// CollectInputs walks the project root and returns the slash-separated
// relative paths of every supported file matched by inputs and not by
// exclude, sorted. The configured output file is never an input.
func (c *Compiler) CollectInputs(ctx context.Context) ([]string, error) {
	root := c.Paths.ProjectRoot
	var files []string
	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if err := ctx.Err(); err != nil {
			return err
		}
		rel, err := filepath.Rel(root, path)
		if err != nil {
			return err
		}
		rel = filepath.ToSlash(rel)
		if d.IsDir() {
			if rel != "." && c.exclude.MatchDir(rel) {
				return filepath.SkipDir
			}
			return nil
		}
		if c.Paths.Output != "" && filepath.Clean(path) == c.Paths.Output {
			return nil
		}
		if !c.Parser.IsSupportedPath(path) || c.exclude.Match(rel) || !c.inputs.Match(rel) {
			return nil
		}
		files = append(files, rel)
		return nil
	})
	if err != nil {
		return nil, errors.AddContext(errors.Wrap(err, errors.CodeInternal, "collect inputs"), errors.CtxPath, root)
	}
	sort.Strings(files)
	return files, nil
}

// ReadInputs loads the sources of rel paths under the project root.
func (c *Compiler) ReadInputs(paths []string) ([]rewrite.Input, error) {
	inputs := make([]rewrite.Input, 0, len(paths))
	for _, rel := range paths {
		abs := filepath.Join(c.Paths.ProjectRoot, filepath.FromSlash(rel))
		src, err := os.ReadFile(abs)
		if err != nil {
			code := errors.CodeInternal
			if os.IsNotExist(err) {
				code = errors.CodeNotFound
			}
			return nil, errors.AddContext(errors.Wrap(err, code, "read input"), errors.CtxPath, rel)
		}
		inputs = append(inputs, rewrite.Input{Path: rel, Source: src})
	}
	return inputs, nil
}
