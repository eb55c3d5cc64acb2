package main

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidateFormat(t *testing.T) {
	assert.NoError(t, validateFormat("json"))
	assert.NoError(t, validateFormat("text"))
	assert.Error(t, validateFormat("yaml"))
}

func TestParseTarget(t *testing.T) {
	file, line, col, err := parseTarget("pkg/user.go:42:7")
	require.NoError(t, err)
	assert.Equal(t, "pkg/user.go", file)
	assert.Equal(t, 41, line)
	assert.Equal(t, 6, col)

	// Column defaults to the first one.
	_, line, col, err = parseTarget("main.go:1")
	require.NoError(t, err)
	assert.Equal(t, 0, line)
	assert.Equal(t, 0, col)

	_, _, _, err = parseTarget("main.go")
	assert.Error(t, err)
	_, _, _, err = parseTarget("main.go:zero")
	assert.Error(t, err)
	_, _, _, err = parseTarget("main.go:0")
	assert.Error(t, err)
	_, _, _, err = parseTarget(":12")
	assert.Error(t, err)
}

func TestParseTarget_PathsWithColons(t *testing.T) {
	file, line, col, err := parseTarget(`C:\src\a.go:10`)
	require.NoError(t, err)
	assert.Equal(t, `C:\src\a.go`, file)
	assert.Equal(t, 9, line)
	assert.Equal(t, 0, col)

	file, line, col, err = parseTarget(`C:\src\a.go:10:3`)
	require.NoError(t, err)
	assert.Equal(t, `C:\src\a.go`, file)
	assert.Equal(t, 9, line)
	assert.Equal(t, 2, col)
}

func TestFindRepoRoot(t *testing.T) {
	root := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(root, ".git"), 0o755))
	nested := filepath.Join(root, "a", "b")
	require.NoError(t, os.MkdirAll(nested, 0o755))

	assert.Equal(t, root, findRepoRoot(nested))

	plain := t.TempDir()
	assert.Equal(t, plain, findRepoRoot(plain))
}

func TestResolveDBPath(t *testing.T) {
	orig := flagDB
	defer func() { flagDB = orig }()

	flagDB = ""
	assert.Equal(t, filepath.Join("/repo", ".understory", "index.db"), resolveDBPath("/repo"))

	flagDB = "custom.db"
	assert.Equal(t, filepath.Join("/repo", "custom.db"), resolveDBPath("/repo"))

	flagDB = "/abs/custom.db"
	assert.Equal(t, "/abs/custom.db", resolveDBPath("/repo"))
}
