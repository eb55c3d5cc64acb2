// Package locate finds the enclosing function-like or type-like symbol at a
// document position. It flattens the provider's symbol tree, classifies
// symbols per language, and supports two lookup modes with deliberately
// different behavior: Largest favors the widest enclosing symbol, Smallest
// the narrowest and only when it starts on the query line. Callers depend on
// both behaviors; they are not interchangeable.
package locate

import (
	"strings"

	"github.com/jward/understory/internal/lang"
	"github.com/jward/understory/internal/provider"
)

// Mode selects the enclosing-symbol strategy.
type Mode int

const (
	// Largest keeps the candidate with the greatest span, so a multi-line
	// function wins over any single-line symbol inside it.
	Largest Mode = iota
	// Smallest keeps the minimal-span candidate, and only when its start
	// line equals the query line. This prevents attributing a deep position
	// inside a large type to the type itself.
	Smallest
)

// Want selects which classifier predicate qualifies a symbol.
type Want int

const (
	FunctionLike Want = iota
	TypeLike
)

// EntireDocumentName is the pseudo-symbol name used when no symbol qualifies.
const EntireDocumentName = "Entire Document"

// spanLineWeight makes any extra line outweigh any realistic column count
// when comparing symbol spans.
const spanLineWeight = 10000

// Document is the locator's view of one open file.
type Document struct {
	File     string // workspace-relative path
	Language string
	Text     string
	Symbols  []provider.Symbol
}

// FunctionDefinition is the extracted enclosing unit. Immutable once built.
type FunctionDefinition struct {
	Name      string
	File      string
	Text      string
	Range     provider.Range
	StartLine int
	EndLine   int
	Handle    provider.Handle
}

// FlatSymbol is a symbol lifted out of the tree with its parent's kind
// attached, so enum members can be excluded regardless of their own kind.
type FlatSymbol struct {
	provider.Symbol
	ParentKind provider.SymbolKind
}

// Flatten lifts every nested symbol into one iterable slice, depth-first,
// preserving document order within each level.
func Flatten(symbols []provider.Symbol) []FlatSymbol {
	var out []FlatSymbol
	var walk func(syms []provider.Symbol, parent provider.SymbolKind)
	walk = func(syms []provider.Symbol, parent provider.SymbolKind) {
		for _, s := range syms {
			out = append(out, FlatSymbol{Symbol: s, ParentKind: parent})
			walk(s.Children, s.Kind)
		}
	}
	walk(symbols, provider.KindNone)
	return out
}

// span orders symbols by size: lines dominate, end column breaks ties.
func span(r provider.Range) int {
	return (r.End.Line-r.Start.Line)*spanLineWeight + r.End.Col
}

// Locate returns the enclosing symbol at pos as a FunctionDefinition.
//
// In Largest mode a whole-document pseudo-symbol named "Entire Document" is
// synthesized when no symbol exists or qualifies, so the second return is
// always true. In Smallest mode a miss returns (nil, false).
func Locate(doc Document, pos provider.Position, mode Mode, want Want) (*FunctionDefinition, bool) {
	classifier := lang.ClassifierFor(doc.Language)

	var best *FlatSymbol
	bestSpan := 0
	for _, fs := range Flatten(doc.Symbols) {
		if !fs.Range.Contains(pos) {
			continue
		}
		// Symbols nested directly inside an enum are members, not
		// functions or types, whatever kind the provider reports.
		if fs.ParentKind == provider.KindEnum {
			continue
		}
		text := SliceRange(doc.Text, fs.Range)
		qualifies := false
		switch want {
		case FunctionLike:
			qualifies = classifier.IsFunctionLike(fs.Symbol, text)
		case TypeLike:
			qualifies = classifier.IsTypeLike(fs.Symbol, text)
		}
		if !qualifies {
			continue
		}
		sp := span(fs.Range)
		switch {
		case best == nil:
			fs := fs
			best, bestSpan = &fs, sp
		case mode == Largest && sp > bestSpan:
			fs := fs
			best, bestSpan = &fs, sp
		case mode == Smallest && sp < bestSpan:
			fs := fs
			best, bestSpan = &fs, sp
		}
	}

	if best == nil {
		if mode == Largest {
			fd := EntireDocument(doc)
			return &fd, true
		}
		return nil, false
	}
	if mode == Smallest && best.Range.Start.Line != pos.Line {
		return nil, false
	}

	return &FunctionDefinition{
		Name:      best.Name,
		File:      doc.File,
		Text:      SliceRange(doc.Text, best.Range),
		Range:     best.Range,
		StartLine: best.Range.Start.Line,
		EndLine:   best.Range.End.Line,
		Handle:    best.Symbol.Handle(doc.File),
	}, true
}

// EntireDocument builds the whole-file fallback definition.
func EntireDocument(doc Document) FunctionDefinition {
	lines := strings.Split(doc.Text, "\n")
	last := len(lines) - 1
	r := provider.Range{
		Start: provider.Position{Line: 0, Col: 0},
		End:   provider.Position{Line: last, Col: len(lines[last])},
	}
	return FunctionDefinition{
		Name:      EntireDocumentName,
		File:      doc.File,
		Text:      doc.Text,
		Range:     r,
		StartLine: 0,
		EndLine:   last,
		Handle:    provider.Handle{File: doc.File, Range: r},
	}
}

// SliceRange extracts the text covered by r. Out-of-bounds ranges are
// clamped rather than rejected; providers occasionally report end columns
// past the final line.
func SliceRange(text string, r provider.Range) string {
	lines := strings.Split(text, "\n")
	start, end := r.Start, r.End
	if start.Line < 0 {
		start = provider.Position{}
	}
	if start.Line >= len(lines) {
		return ""
	}
	if end.Line >= len(lines) {
		end = provider.Position{Line: len(lines) - 1, Col: len(lines[len(lines)-1])}
	}
	if start.Line == end.Line {
		line := lines[start.Line]
		return line[clamp(start.Col, len(line)):clamp(end.Col, len(line))]
	}
	out := make([]string, 0, end.Line-start.Line+1)
	first := lines[start.Line]
	out = append(out, first[clamp(start.Col, len(first)):])
	for i := start.Line + 1; i < end.Line; i++ {
		out = append(out, lines[i])
	}
	last := lines[end.Line]
	out = append(out, last[:clamp(end.Col, len(last))])
	return strings.Join(out, "\n")
}

func clamp(v, max int) int {
	if v < 0 {
		return 0
	}
	if v > max {
		return max
	}
	return v
}
