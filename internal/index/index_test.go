package index

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jward/understory/internal/provider"
	"github.com/jward/understory/internal/store"
)

func newTestStore(t *testing.T) *store.Store {
	t.Helper()
	s, err := store.NewStore(filepath.Join(t.TempDir(), "index.db"))
	require.NoError(t, err)
	require.NoError(t, s.Migrate())
	t.Cleanup(func() { s.Close() })
	return s
}

func writeFile(t *testing.T, root, name, content string) string {
	t.Helper()
	path := filepath.Join(root, name)
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

const goUserSrc = `package main

type User struct {
	Name string
}
`

const goLoadSrc = `package main

func load() User {
	var u User
	return u
}
`

func TestIndexDirectory_Go(t *testing.T) {
	root := t.TempDir()
	writeFile(t, root, "a.go", goUserSrc)
	writeFile(t, root, "b.go", goLoadSrc)
	writeFile(t, root, "notes.txt", "not code\n")

	s := newTestStore(t)
	ix := NewIndexer(s)

	stats, err := ix.IndexDirectory(context.Background(), root)
	require.NoError(t, err)
	assert.Equal(t, 2, stats.Indexed)
	assert.Equal(t, 0, stats.Failed)

	files, err := s.Files()
	require.NoError(t, err)
	require.Len(t, files, 2)
	assert.Equal(t, "go", files[0].Language)
}

func TestIndexFiles_HashSkip(t *testing.T) {
	root := t.TempDir()
	path := writeFile(t, root, "a.go", goUserSrc)

	s := newTestStore(t)
	ix := NewIndexer(s)

	stats, err := ix.IndexFiles(context.Background(), []string{path})
	require.NoError(t, err)
	assert.Equal(t, 1, stats.Indexed)

	// Unchanged content is skipped on the second run.
	stats, err = ix.IndexFiles(context.Background(), []string{path})
	require.NoError(t, err)
	assert.Equal(t, 0, stats.Indexed)
	assert.Equal(t, 1, stats.Skipped)

	// Changed content reindexes and replaces the old symbols.
	writeFile(t, root, "a.go", "package main\n\ntype Account struct{}\n")
	stats, err = ix.IndexFiles(context.Background(), []string{path})
	require.NoError(t, err)
	assert.Equal(t, 1, stats.Indexed)

	p := NewProvider(s)
	syms, err := p.Symbols(context.Background(), path)
	require.NoError(t, err)
	require.Len(t, syms, 1)
	assert.Equal(t, "Account", syms[0].Name)
}

func TestIndexFiles_ForceReindex(t *testing.T) {
	root := t.TempDir()
	path := writeFile(t, root, "a.go", goUserSrc)

	s := newTestStore(t)
	_, err := NewIndexer(s).IndexFiles(context.Background(), []string{path})
	require.NoError(t, err)

	stats, err := NewIndexer(s, WithForce(true)).IndexFiles(context.Background(), []string{path})
	require.NoError(t, err)
	assert.Equal(t, 1, stats.Indexed)
}

func TestIndexFiles_LanguageFilter(t *testing.T) {
	root := t.TempDir()
	goPath := writeFile(t, root, "a.go", goUserSrc)
	pyPath := writeFile(t, root, "b.py", "class Thing:\n    pass\n")

	s := newTestStore(t)
	ix := NewIndexer(s, WithLanguages([]string{"go"}))

	stats, err := ix.IndexFiles(context.Background(), []string{goPath, pyPath})
	require.NoError(t, err)
	assert.Equal(t, 1, stats.Indexed)
	assert.Equal(t, 1, stats.Skipped)
}

func TestSymbols_GoKinds(t *testing.T) {
	root := t.TempDir()
	path := writeFile(t, root, "a.go", `package main

type User struct {
	Name string
}

type Loader interface {
	Load() User
}

func connect() {}
`)

	s := newTestStore(t)
	_, err := NewIndexer(s).IndexFiles(context.Background(), []string{path})
	require.NoError(t, err)

	syms, err := NewProvider(s).Symbols(context.Background(), path)
	require.NoError(t, err)

	kinds := make(map[string]provider.SymbolKind)
	for _, sym := range syms {
		kinds[sym.Name] = sym.Kind
	}
	assert.Equal(t, provider.KindStruct, kinds["User"])
	assert.Equal(t, provider.KindInterface, kinds["Loader"])
	assert.Equal(t, provider.KindFunction, kinds["connect"])
}

func TestSymbols_PythonMethodNesting(t *testing.T) {
	root := t.TempDir()
	path := writeFile(t, root, "svc.py", `class Service:
    def handle(self):
        return 1

def main():
    pass
`)

	s := newTestStore(t)
	_, err := NewIndexer(s).IndexFiles(context.Background(), []string{path})
	require.NoError(t, err)

	syms, err := NewProvider(s).Symbols(context.Background(), path)
	require.NoError(t, err)
	require.Len(t, syms, 2)

	assert.Equal(t, "Service", syms[0].Name)
	assert.Equal(t, provider.KindClass, syms[0].Kind)
	require.Len(t, syms[0].Children, 1)
	assert.Equal(t, "handle", syms[0].Children[0].Name)
	assert.Equal(t, provider.KindMethod, syms[0].Children[0].Kind)

	assert.Equal(t, "main", syms[1].Name)
	assert.Equal(t, provider.KindFunction, syms[1].Kind)
}

func TestProvider_DefinitionLookup(t *testing.T) {
	root := t.TempDir()
	aPath := writeFile(t, root, "a.go", goUserSrc)
	bPath := writeFile(t, root, "b.go", goLoadSrc)

	s := newTestStore(t)
	_, err := NewIndexer(s).IndexFiles(context.Background(), []string{aPath, bPath})
	require.NoError(t, err)
	p := NewProvider(s)

	// "User" in "func load() User {".
	locs, err := p.TypeDefinitionsAt(context.Background(), bPath, provider.Position{Line: 2, Col: 12})
	require.NoError(t, err)
	require.Len(t, locs, 1)
	assert.Equal(t, aPath, locs[0].File)
	assert.Equal(t, 2, locs[0].Range.Start.Line)

	// Plain definitions include non-type symbols.
	locs, err = p.DefinitionsAt(context.Background(), bPath, provider.Position{Line: 2, Col: 5})
	require.NoError(t, err)
	require.Len(t, locs, 1)
	assert.Equal(t, bPath, locs[0].File)

	// A type-only query for a function name is empty.
	locs, err = p.TypeDefinitionsAt(context.Background(), bPath, provider.Position{Line: 2, Col: 5})
	require.NoError(t, err)
	assert.Empty(t, locs)

	// Whitespace resolves to nothing.
	locs, err = p.DefinitionsAt(context.Background(), bPath, provider.Position{Line: 1, Col: 0})
	require.NoError(t, err)
	assert.Empty(t, locs)
}

func TestProvider_ReferencesAt(t *testing.T) {
	root := t.TempDir()
	aPath := writeFile(t, root, "a.go", goUserSrc)
	bPath := writeFile(t, root, "b.go", goLoadSrc)

	s := newTestStore(t)
	_, err := NewIndexer(s).IndexFiles(context.Background(), []string{aPath, bPath})
	require.NoError(t, err)

	locs, err := NewProvider(s).ReferencesAt(context.Background(), bPath, provider.Position{Line: 2, Col: 12})
	require.NoError(t, err)

	byFile := make(map[string]int)
	for _, l := range locs {
		byFile[l.File]++
	}
	assert.Equal(t, 1, byFile[aPath], "declaration site")
	assert.Equal(t, 2, byFile[bPath], "return type and var declaration")
}

func TestProvider_UnindexedFile(t *testing.T) {
	s := newTestStore(t)
	p := NewProvider(s)

	syms, err := p.Symbols(context.Background(), "/no/such/file.go")
	require.NoError(t, err)
	assert.Empty(t, syms)

	assert.False(t, p.Exists("/no/such/file.go"))
}
