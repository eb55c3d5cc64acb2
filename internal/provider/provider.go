// Package provider defines the capability-provider boundary: the set of
// symbol, definition, and document queries the extraction engine depends on.
// Implementations answer best-effort; an empty result means "not found" and
// is never an error. Errors are reserved for transport or I/O failures, which
// callers convert to not-found at the engine boundary.
package provider

import "context"

// Provider is the language-intelligence capability the engine consumes.
// Every method is fallible and every empty result is a valid answer.
type Provider interface {
	// Symbols returns the symbol tree for a file, outermost symbols first.
	Symbols(ctx context.Context, file string) ([]Symbol, error)

	// DefinitionsAt returns locations defining the symbol referenced at pos.
	DefinitionsAt(ctx context.Context, file string, pos Position) ([]Location, error)

	// TypeDefinitionsAt returns locations defining the type of the symbol at pos.
	TypeDefinitionsAt(ctx context.Context, file string, pos Position) ([]Location, error)

	// DeclarationsAt returns declaration locations for the symbol at pos.
	DeclarationsAt(ctx context.Context, file string, pos Position) ([]Location, error)

	// ReferencesAt returns locations referencing the symbol at pos.
	ReferencesAt(ctx context.Context, file string, pos Position) ([]Location, error)

	// ReadText returns the full text of a file.
	ReadText(ctx context.Context, file string) (string, error)

	// Exists reports whether a path exists on the provider's filesystem.
	Exists(path string) bool
}

// Position is a 0-based (line, column) document position.
type Position struct {
	Line int
	Col  int
}

// Range is a half-open document span from Start to End.
type Range struct {
	Start Position
	End   Position
}

// Contains reports whether pos falls within the range, inclusive of both ends.
func (r Range) Contains(pos Position) bool {
	if pos.Line < r.Start.Line || pos.Line > r.End.Line {
		return false
	}
	if pos.Line == r.Start.Line && pos.Col < r.Start.Col {
		return false
	}
	if pos.Line == r.End.Line && pos.Col > r.End.Col {
		return false
	}
	return true
}

// Location is a ranged position within a file.
type Location struct {
	File  string
	Range Range
}

// Handle identifies a declaration by its document and range. The engine holds
// handles instead of provider-owned symbol objects, so provider internals can
// be rebuilt between calls without invalidating engine state.
type Handle struct {
	File  string
	Range Range
}

// SymbolKind classifies a symbol. Kinds mirror the coarse categories the
// engine cares about; providers map their native kinds onto these.
type SymbolKind int

const (
	KindNone SymbolKind = iota
	KindFunction
	KindMethod
	KindConstructor
	KindClass
	KindInterface
	KindStruct
	KindEnum
	KindVariable
	KindFile
)

var kindNames = map[SymbolKind]string{
	KindNone:        "none",
	KindFunction:    "function",
	KindMethod:      "method",
	KindConstructor: "constructor",
	KindClass:       "class",
	KindInterface:   "interface",
	KindStruct:      "struct",
	KindEnum:        "enum",
	KindVariable:    "variable",
	KindFile:        "file",
}

func (k SymbolKind) String() string {
	if name, ok := kindNames[k]; ok {
		return name
	}
	return "unknown"
}

// KindFromString maps a canonical kind name back to a SymbolKind.
// Unrecognized names map to KindNone.
func KindFromString(name string) SymbolKind {
	for k, n := range kindNames {
		if n == name {
			return k
		}
	}
	return KindNone
}

// Symbol is a named, ranged region of source text with a kind tag and
// ordered children.
type Symbol struct {
	Name     string
	Kind     SymbolKind
	Range    Range
	Children []Symbol
}

// Handle returns the symbol's handle within the given file.
func (s Symbol) Handle(file string) Handle {
	return Handle{File: file, Range: s.Range}
}
