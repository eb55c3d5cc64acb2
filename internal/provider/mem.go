package provider

import (
	"context"
	"fmt"
	"strings"
	"sync"
)

// Mem is an in-memory Provider backed by literal file contents and lookup
// tables keyed by identifier name. Definition queries find the identifier
// under the position in the file text and answer from the tables. Used by
// tests and available for embedding scratch workspaces.
type Mem struct {
	mu    sync.Mutex
	files map[string]string
	trees map[string][]Symbol
	defs  map[string][]Location
	types map[string][]Location
	fail  map[string]error

	// Calls counts provider queries by method name.
	Calls map[string]int
}

// NewMem returns an empty in-memory provider.
func NewMem() *Mem {
	return &Mem{
		files: make(map[string]string),
		trees: make(map[string][]Symbol),
		defs:  make(map[string][]Location),
		types: make(map[string][]Location),
		fail:  make(map[string]error),
		Calls: make(map[string]int),
	}
}

// AddFile registers a file's text and symbol tree.
func (m *Mem) AddFile(path, text string, symbols ...Symbol) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.files[path] = text
	m.trees[path] = symbols
}

// AddDefinition registers a definition location for an identifier name.
func (m *Mem) AddDefinition(name string, loc Location) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.defs[name] = append(m.defs[name], loc)
}

// AddTypeDefinition registers a type-definition location for an identifier name.
func (m *Mem) AddTypeDefinition(name string, loc Location) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.types[name] = append(m.types[name], loc)
}

// FailFile makes every query touching path return err.
func (m *Mem) FailFile(path string, err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.fail[path] = err
}

func (m *Mem) count(method string) {
	m.mu.Lock()
	m.Calls[method]++
	m.mu.Unlock()
}

func (m *Mem) Symbols(_ context.Context, file string) ([]Symbol, error) {
	m.count("Symbols")
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.fail[file]; err != nil {
		return nil, err
	}
	return m.trees[file], nil
}

func (m *Mem) DefinitionsAt(_ context.Context, file string, pos Position) ([]Location, error) {
	m.count("DefinitionsAt")
	return m.lookup(file, pos, m.defs)
}

func (m *Mem) TypeDefinitionsAt(_ context.Context, file string, pos Position) ([]Location, error) {
	m.count("TypeDefinitionsAt")
	return m.lookup(file, pos, m.types)
}

func (m *Mem) DeclarationsAt(_ context.Context, file string, pos Position) ([]Location, error) {
	m.count("DeclarationsAt")
	return m.lookup(file, pos, m.defs)
}

func (m *Mem) ReferencesAt(_ context.Context, file string, pos Position) ([]Location, error) {
	m.count("ReferencesAt")
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.fail[file]; err != nil {
		return nil, err
	}
	word := WordAt(m.files[file], pos)
	if word == "" {
		return nil, nil
	}
	var locs []Location
	for path, text := range m.files {
		for _, loc := range Occurrences(path, text, word) {
			locs = append(locs, loc)
		}
	}
	return locs, nil
}

func (m *Mem) ReadText(_ context.Context, file string) (string, error) {
	m.count("ReadText")
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.fail[file]; err != nil {
		return "", err
	}
	text, ok := m.files[file]
	if !ok {
		return "", fmt.Errorf("mem provider: no such file %s", file)
	}
	return text, nil
}

func (m *Mem) Exists(path string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	_, ok := m.files[path]
	return ok
}

func (m *Mem) lookup(file string, pos Position, table map[string][]Location) ([]Location, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.fail[file]; err != nil {
		return nil, err
	}
	word := WordAt(m.files[file], pos)
	if word == "" {
		return nil, nil
	}
	return table[word], nil
}

func isWordByte(b byte) bool {
	return b == '_' || (b >= 'a' && b <= 'z') || (b >= 'A' && b <= 'Z') || (b >= '0' && b <= '9')
}

// WordAt returns the identifier token covering pos, or "".
func WordAt(text string, pos Position) string {
	lines := strings.Split(text, "\n")
	if pos.Line < 0 || pos.Line >= len(lines) {
		return ""
	}
	line := lines[pos.Line]
	col := pos.Col
	if col < 0 || col >= len(line) || !isWordByte(line[col]) {
		return ""
	}
	start, end := col, col+1
	for start > 0 && isWordByte(line[start-1]) {
		start--
	}
	for end < len(line) && isWordByte(line[end]) {
		end++
	}
	return line[start:end]
}

// Occurrences returns whole-word locations of name within text.
func Occurrences(path, text, name string) []Location {
	var locs []Location
	for i, line := range strings.Split(text, "\n") {
		from := 0
		for {
			idx := strings.Index(line[from:], name)
			if idx < 0 {
				break
			}
			col := from + idx
			before := col == 0 || !isWordByte(line[col-1])
			afterIdx := col + len(name)
			after := afterIdx >= len(line) || !isWordByte(line[afterIdx])
			if before && after {
				locs = append(locs, Location{
					File: path,
					Range: Range{
						Start: Position{Line: i, Col: col},
						End:   Position{Line: i, Col: afterIdx},
					},
				})
			}
			from = afterIdx
		}
	}
	return locs
}
