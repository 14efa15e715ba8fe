package main

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFiles(t *testing.T, files map[string]string) string {
	t.Helper()
	root := t.TempDir()
	for rel, content := range files {
		path := filepath.Join(root, filepath.FromSlash(rel))
		require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
		require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	}
	return root
}

func execute(t *testing.T, args ...string) (string, string, error) {
	t.Helper()
	var stdout, stderr bytes.Buffer
	cmd := newRootCmd(&stdout, &stderr)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return stdout.String(), stderr.String(), err
}

func TestBuildToStdout(t *testing.T) {
	root := writeFiles(t, map[string]string{
		"cjsflat.toml": "[report]\ncolor = false\n",
		"lib/a.js":     "exports.x = 1;\n",
		"main.js":      "var a = require('./lib/a');\nconsole.log(a.x);\n",
	})

	stdout, stderr, err := execute(t, "build", "--config", filepath.Join(root, "cjsflat.toml"))
	require.NoError(t, err)
	assert.Contains(t, stdout, "module$lib_a")
	assert.Contains(t, stderr, "ok: 2 module(s), 0 error(s)")
}

func TestBuildToFileWithJSONReport(t *testing.T) {
	root := writeFiles(t, map[string]string{
		"cjsflat.toml": "",
		"a.js":         "module.exports = 1;\n",
	})

	stdout, _, err := execute(t, "build", "--config", filepath.Join(root, "cjsflat.toml"), "--out", "dist/bundle.js", "--format", "json")
	require.NoError(t, err)

	var doc map[string]any
	require.NoError(t, json.Unmarshal([]byte(stdout), &doc))
	assert.Equal(t, false, doc["aborted"])
	assert.FileExists(t, filepath.Join(root, "dist", "bundle.js"))
}

func TestBuildFailureExitsNonZero(t *testing.T) {
	root := writeFiles(t, map[string]string{
		"cjsflat.toml": "[report]\ncolor = false\n",
		"a.js":         "require('./b');\n",
		"b.js":         "require('./a');\n",
	})

	stdout, stderr, err := execute(t, "build", "--config", filepath.Join(root, "cjsflat.toml"))
	require.ErrorIs(t, err, errBuildFailed)
	assert.Empty(t, strings.TrimSpace(stdout))
	assert.Contains(t, stderr, "aborted: ")
	assert.Contains(t, stderr, "CyclicModuleGraph")
}

func TestBuildInvalidConfig(t *testing.T) {
	root := writeFiles(t, map[string]string{"cjsflat.toml": "warning_level = \"LOUD\"\n"})

	_, _, err := execute(t, "build", "--config", filepath.Join(root, "cjsflat.toml"))
	require.Error(t, err)
	assert.NotErrorIs(t, err, errBuildFailed)
	assert.Equal(t, 2, exitCode(err))
}

func TestExitCode(t *testing.T) {
	assert.Equal(t, 0, exitCode(nil))
	assert.Equal(t, 1, exitCode(errBuildFailed))
	assert.Equal(t, 1, exitCode(os.ErrPermission))
}

func TestHistoryListsBuilds(t *testing.T) {
	root := writeFiles(t, map[string]string{
		"cjsflat.toml": "output = \"out.js\"\n[history]\nenabled = true\npath = \"h.db\"\n",
		"a.js":         "module.exports = 1;\n",
	})
	config := filepath.Join(root, "cjsflat.toml")

	_, _, err := execute(t, "build", "--config", config)
	require.NoError(t, err)
	_, _, err = execute(t, "build", "--config", config)
	require.NoError(t, err)

	stdout, _, err := execute(t, "history", "--config", config)
	require.NoError(t, err)
	lines := strings.Split(strings.TrimSpace(stdout), "\n")
	require.Len(t, lines, 3)
	assert.True(t, strings.HasPrefix(lines[0], "RunID\t"))
}
