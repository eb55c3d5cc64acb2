package understory

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jward/understory/internal/provider"
)

const mainTS = `function loadUser(id: string) {
  const u: User = fetchUser(id)
  return u
}
`

const utilTS = `function fetchUser(id: string) {
  return api.get(id)
}
`

func span(file string, startLine, startCol, endLine, endCol int) provider.Range {
	return provider.Range{
		Start: provider.Position{Line: startLine, Col: startCol},
		End:   provider.Position{Line: endLine, Col: endCol},
	}
}

func location(file string, line, startCol, endCol int) Location {
	return Location{File: file, Range: span(file, line, startCol, line, endCol)}
}

// testWorkspace wires a small TypeScript project into a Mem provider:
// loadUser mentions User, User mentions Label, Label mentions Tag, and
// loadUser calls fetchUser.
func testWorkspace() *provider.Mem {
	m := provider.NewMem()
	m.AddFile("main.ts", mainTS, Symbol{
		Name: "loadUser", Kind: provider.KindFunction, Range: span("main.ts", 0, 0, 3, 1),
	})
	m.AddFile("util.ts", utilTS, Symbol{
		Name: "fetchUser", Kind: provider.KindFunction, Range: span("util.ts", 0, 0, 2, 1),
	})
	m.AddFile("user.ts", "class User {\n  tags: Label\n}\n")
	m.AddFile("label.ts", "class Label {\n  tag: Tag\n}\n")
	m.AddFile("tag.ts", "class Tag {}\n")
	m.AddTypeDefinition("User", location("user.ts", 0, 6, 10))
	m.AddTypeDefinition("Label", location("label.ts", 0, 6, 11))
	m.AddTypeDefinition("Tag", location("tag.ts", 0, 6, 9))
	m.AddDefinition("fetchUser", location("util.ts", 0, 9, 18))
	return m
}

func newTestEngine(t *testing.T, m *provider.Mem, opts ...Option) *Engine {
	t.Helper()
	e, err := New(m, t.TempDir(), opts...)
	require.NoError(t, err)
	return e
}

func typeNames(defs []TypeDefinition) []string {
	var out []string
	for _, d := range defs {
		out = append(out, d.Name)
	}
	return out
}

func TestNew_NoWorkspace(t *testing.T) {
	_, err := New(provider.NewMem(), "")
	assert.ErrorIs(t, err, ErrNoWorkspace)
}

func TestContextAt_Primary(t *testing.T) {
	e := newTestEngine(t, testWorkspace())

	b, err := e.ContextAt(context.Background(), "main.ts", Position{Line: 1, Col: 4})
	require.NoError(t, err)

	require.NotNil(t, b.Primary)
	assert.Equal(t, "loadUser", b.Primary.Name)
	assert.Equal(t, "typescript", b.Language)
	assert.Equal(t, 1, b.Line)
	assert.Contains(t, b.Primary.Text, "const u: User = fetchUser(id)")
}

func TestContextAt_ExcerptIsFocusLine(t *testing.T) {
	e := newTestEngine(t, testWorkspace())

	b, err := e.ContextAt(context.Background(), "main.ts", Position{Line: 1, Col: 4})
	require.NoError(t, err)

	// The excerpt is the single queried line, not the enclosing function.
	assert.Equal(t, "  const u: User = fetchUser(id)", b.Excerpt)

	b, err = e.ContextAt(context.Background(), "main.ts", Position{Line: 99, Col: 0})
	require.NoError(t, err)
	assert.Empty(t, b.Excerpt)
}

func TestContextAt_RecursiveTypes(t *testing.T) {
	e := newTestEngine(t, testWorkspace())

	b, err := e.ContextAt(context.Background(), "main.ts", Position{Line: 1, Col: 4})
	require.NoError(t, err)

	assert.Equal(t, []string{"User", "Label", "Tag"}, typeNames(b.Types))
	assert.Equal(t, "class User {\n  tags: Label\n}", b.Types[0].Text)
}

func TestContextAt_TypeDepthBound(t *testing.T) {
	e := newTestEngine(t, testWorkspace(), WithTypeDepth(1))

	b, err := e.ContextAt(context.Background(), "main.ts", Position{Line: 1, Col: 4})
	require.NoError(t, err)

	// Depth 1 reaches User's direct subtypes but not theirs.
	assert.Equal(t, []string{"User", "Label"}, typeNames(b.Types))
}

func TestContextAt_ReferencedFunctions(t *testing.T) {
	e := newTestEngine(t, testWorkspace())

	b, err := e.ContextAt(context.Background(), "main.ts", Position{Line: 1, Col: 4})
	require.NoError(t, err)

	require.Len(t, b.Referenced, 1)
	assert.Equal(t, "fetchUser", b.Referenced[0].Name)
	assert.Equal(t, "util.ts", b.Referenced[0].File)
	assert.Contains(t, b.Referenced[0].Text, "api.get(id)")
}

func TestContextAt_EntireDocumentFallback(t *testing.T) {
	m := testWorkspace()
	m.AddFile("notes.ts", "const answer = 42\n")
	e := newTestEngine(t, m)

	b, err := e.ContextAt(context.Background(), "notes.ts", Position{Line: 0, Col: 0})
	require.NoError(t, err)

	require.NotNil(t, b.Primary)
	assert.Equal(t, EntireDocumentName, b.Primary.Name)
	assert.Equal(t, "const answer = 42\n", b.Primary.Text)
	assert.Equal(t, "const answer = 42", b.Excerpt)
}

func TestContextAt_UnreadableFile(t *testing.T) {
	m := testWorkspace()
	m.FailFile("gone.ts", assert.AnError)
	e := newTestEngine(t, m)

	_, err := e.ContextAt(context.Background(), "gone.ts", Position{})
	assert.Error(t, err)
}

func TestContextAt_TouchedFiles(t *testing.T) {
	e := newTestEngine(t, testWorkspace())

	b, err := e.ContextAt(context.Background(), "main.ts", Position{Line: 1, Col: 4})
	require.NoError(t, err)

	assert.ElementsMatch(t, []string{"main.ts", "user.ts", "label.ts", "tag.ts", "util.ts"}, b.Touched)
}

func TestContextAt_TreeRendered(t *testing.T) {
	e := newTestEngine(t, testWorkspace())

	b, err := e.ContextAt(context.Background(), "main.ts", Position{Line: 1, Col: 4})
	require.NoError(t, err)

	// The workspace root is an empty temp dir; the snapshot still renders
	// its root line.
	assert.NotEmpty(t, b.Tree)
}

func TestContextAt_PackagesCarried(t *testing.T) {
	pkgs := map[string]string{"api": "src/api", "models": "src/models"}
	e := newTestEngine(t, testWorkspace(), WithPackages(pkgs))

	b, err := e.ContextAt(context.Background(), "main.ts", Position{Line: 1, Col: 4})
	require.NoError(t, err)
	assert.Equal(t, pkgs, b.Packages)
}
