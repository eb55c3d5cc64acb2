package locate

import (
	"strings"
	"testing"

	"github.com/jward/understory/internal/provider"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func pos(line, col int) provider.Position { return provider.Position{Line: line, Col: col} }

func rng(sl, sc, el, ec int) provider.Range {
	return provider.Range{Start: pos(sl, sc), End: pos(el, ec)}
}

func TestFlatten(t *testing.T) {
	tree := []provider.Symbol{
		{Name: "A", Kind: provider.KindClass, Children: []provider.Symbol{
			{Name: "m", Kind: provider.KindMethod},
			{Name: "E", Kind: provider.KindEnum, Children: []provider.Symbol{
				{Name: "Red", Kind: provider.KindVariable},
			}},
		}},
		{Name: "f", Kind: provider.KindFunction},
	}

	flat := Flatten(tree)
	require.Len(t, flat, 5)

	var names []string
	for _, fs := range flat {
		names = append(names, fs.Name)
	}
	assert.Equal(t, []string{"A", "m", "E", "Red", "f"}, names)

	assert.Equal(t, provider.KindNone, flat[0].ParentKind)
	assert.Equal(t, provider.KindClass, flat[1].ParentKind)
	assert.Equal(t, provider.KindEnum, flat[3].ParentKind)
}

func TestLocateLargestTieBreak(t *testing.T) {
	// A single-line symbol spanning columns 0..120 must lose to a two-line
	// symbol ending at column 5 of the next line.
	text := strings.Repeat("x", 121) + "\nyyyyy\n"
	doc := Document{
		File:     "a.go",
		Language: "go",
		Text:     text,
		Symbols: []provider.Symbol{
			{Name: "wide", Kind: provider.KindFunction, Range: rng(0, 0, 0, 120)},
			{Name: "tall", Kind: provider.KindFunction, Range: rng(0, 0, 1, 5)},
		},
	}

	fd, ok := Locate(doc, pos(0, 10), Largest, FunctionLike)
	require.True(t, ok)
	assert.Equal(t, "tall", fd.Name)
}

func TestLocateSmallestRequiresStartLine(t *testing.T) {
	text := "type Big struct {\n\tA int\n\tB int\n}\n"
	doc := Document{
		File:     "a.go",
		Language: "go",
		Text:     text,
		Symbols: []provider.Symbol{
			{Name: "Big", Kind: provider.KindStruct, Range: rng(0, 0, 3, 1)},
		},
	}

	// Query on the declaration line: found.
	fd, ok := Locate(doc, pos(0, 6), Smallest, TypeLike)
	require.True(t, ok)
	assert.Equal(t, "Big", fd.Name)
	assert.Equal(t, 0, fd.StartLine)
	assert.Equal(t, 3, fd.EndLine)

	// Query deep inside the type: the minimal container starts on a
	// different line, so this is a miss, not an attribution to Big.
	_, ok = Locate(doc, pos(2, 3), Smallest, TypeLike)
	assert.False(t, ok)
}

func TestLocateEnumChildrenExcluded(t *testing.T) {
	text := "enum Color {\n\tRed = () => 1,\n}\n"
	doc := Document{
		File:     "a.ts",
		Language: "typescript",
		Text:     text,
		Symbols: []provider.Symbol{
			{Name: "Color", Kind: provider.KindEnum, Range: rng(0, 0, 2, 1), Children: []provider.Symbol{
				// Would reclassify as an arrow function if not excluded.
				{Name: "Red", Kind: provider.KindVariable, Range: rng(1, 1, 1, 14)},
			}},
		},
	}

	fd, ok := Locate(doc, pos(1, 3), Largest, FunctionLike)
	require.True(t, ok)
	assert.Equal(t, EntireDocumentName, fd.Name)
}

func TestLocateArrowVariableReclassified(t *testing.T) {
	text := "const handler = (req) => {\n\treturn req\n}\n"
	doc := Document{
		File:     "a.js",
		Language: "javascript",
		Text:     text,
		Symbols: []provider.Symbol{
			{Name: "handler", Kind: provider.KindVariable, Range: rng(0, 0, 2, 1)},
		},
	}

	fd, ok := Locate(doc, pos(1, 2), Largest, FunctionLike)
	require.True(t, ok)
	assert.Equal(t, "handler", fd.Name)
	assert.Contains(t, fd.Text, "return req")
}

func TestLocateEntireDocumentFallback(t *testing.T) {
	text := "x = 1\ny = 2\n"
	doc := Document{File: "cfg.py", Language: "python", Text: text}

	fd, ok := Locate(doc, pos(0, 0), Largest, FunctionLike)
	require.True(t, ok)
	assert.Equal(t, EntireDocumentName, fd.Name)
	assert.Equal(t, text, fd.Text)
	assert.Equal(t, 0, fd.StartLine)
	assert.Equal(t, 2, fd.EndLine)

	// Smallest mode never synthesizes the fallback.
	_, ok = Locate(doc, pos(0, 0), Smallest, FunctionLike)
	assert.False(t, ok)
}

func TestLocateUnsupportedLanguageFallsBack(t *testing.T) {
	doc := Document{
		File:     "a.xyz",
		Language: "xyz",
		Text:     "whatever\n",
		Symbols: []provider.Symbol{
			{Name: "f", Kind: provider.KindFunction, Range: rng(0, 0, 0, 8)},
		},
	}
	fd, ok := Locate(doc, pos(0, 2), Largest, FunctionLike)
	require.True(t, ok)
	assert.Equal(t, EntireDocumentName, fd.Name)
}

func TestSliceRange(t *testing.T) {
	text := "abcdef\nghijkl\nmnopqr"

	assert.Equal(t, "cde", SliceRange(text, rng(0, 2, 0, 5)))
	assert.Equal(t, "ef\nghijkl\nmn", SliceRange(text, rng(0, 4, 2, 2)))
	// Out-of-bounds end clamps to the document.
	assert.Equal(t, "mnopqr", SliceRange(text, rng(2, 0, 9, 99)))
	assert.Equal(t, "", SliceRange(text, rng(7, 0, 8, 0)))
}
