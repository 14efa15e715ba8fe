package util

import (
	"crypto/sha256"
	"encoding/hex"
	"io/fs"
	"os"
	"path"
	"path/filepath"
	"runtime"
	"sort"
	"strings"
)

// NormalizePatternPath turns s into the slash-separated, cleaned form the
// matchers compare against. The project root itself normalizes to "".
func NormalizePatternPath(s string) string {
	clean := path.Clean(strings.TrimSpace(strings.ReplaceAll(s, "\\", "/")))
	if clean == "." {
		return ""
	}
	return strings.TrimPrefix(clean, "./")
}

// HasPathPrefix reports whether p is dir or lies below it.
func HasPathPrefix(p, dir string) bool {
	p, dir = NormalizePatternPath(p), NormalizePatternPath(dir)
	switch {
	case p == dir:
		return true
	case p == "" || dir == "":
		return false
	case dir == "/":
		return strings.HasPrefix(p, "/")
	}
	return strings.HasPrefix(p, dir+"/")
}

func SortedStringKeys[T any](m map[string]T) []string {
	keys := make([]string, 0, len(m))
	for key := range m {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	return keys
}

// WriteFileAtomic writes data to a temporary file next to target and renames
// it into place, creating parent directories. Readers of target, such as a
// dev server watching the bundle, never see a partial program.
func WriteFileAtomic(target string, data []byte, perm fs.FileMode) error {
	dir := filepath.Dir(target)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return err
	}
	tmp, err := os.CreateTemp(dir, "."+filepath.Base(target)+".*")
	if err != nil {
		return err
	}
	name := tmp.Name()
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(name)
		return err
	}
	if err := tmp.Close(); err != nil {
		os.Remove(name)
		return err
	}
	if err := os.Chmod(name, perm); err != nil {
		os.Remove(name)
		return err
	}
	if err := os.Rename(name, target); err != nil {
		os.Remove(name)
		return err
	}
	return nil
}

// ContentHash is the hex sha256 of data.
func ContentHash(data []byte) string {
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:])
}

// HeapAllocMB is the live heap in MiB, logged after each build.
func HeapAllocMB() uint64 {
	var m runtime.MemStats
	runtime.ReadMemStats(&m)
	return m.Alloc >> 20
}
