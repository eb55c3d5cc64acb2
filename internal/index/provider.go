package index

import (
	"context"
	"fmt"
	"os"

	"github.com/jward/understory/internal/provider"
	"github.com/jward/understory/internal/store"
)

// referenceLimit caps how many reference locations one query returns.
const referenceLimit = 200

// typeKinds are the symbol kinds a type-definition query answers with.
var typeKinds = map[string]bool{
	provider.KindClass.String():     true,
	provider.KindInterface.String(): true,
	provider.KindStruct.String():    true,
	provider.KindEnum.String():      true,
}

// IndexProvider answers capability queries from the symbol index. Definition
// lookups resolve the identifier under the query position against indexed
// symbol names; file text is read from disk on demand.
type IndexProvider struct {
	store *store.Store
}

// NewProvider creates an IndexProvider over st.
func NewProvider(st *store.Store) *IndexProvider {
	return &IndexProvider{store: st}
}

var _ provider.Provider = (*IndexProvider)(nil)

// Symbols rebuilds the file's symbol tree from stored parent links.
func (p *IndexProvider) Symbols(_ context.Context, file string) ([]provider.Symbol, error) {
	f, err := p.store.FileByPath(file)
	if err != nil {
		return nil, fmt.Errorf("symbols: %w", err)
	}
	if f == nil {
		return nil, nil
	}
	rows, err := p.store.SymbolsByFile(f.ID)
	if err != nil {
		return nil, fmt.Errorf("symbols: %w", err)
	}

	// Two passes: materialize every node, then attach children to parents.
	nodes := make(map[int64]*provider.Symbol, len(rows))
	for _, row := range rows {
		nodes[row.ID] = &provider.Symbol{
			Name: row.Name,
			Kind: provider.KindFromString(row.Kind),
			Range: provider.Range{
				Start: provider.Position{Line: row.StartLine, Col: row.StartCol},
				End:   provider.Position{Line: row.EndLine, Col: row.EndCol},
			},
		}
	}
	var rootIDs []int64
	for _, row := range rows {
		if row.ParentSymbolID == nil {
			rootIDs = append(rootIDs, row.ID)
			continue
		}
		if _, ok := nodes[*row.ParentSymbolID]; !ok {
			rootIDs = append(rootIDs, row.ID)
		}
	}
	return assemble(rows, nodes, rootIDs), nil
}

// assemble rebuilds the nested symbol tree recursively so grandchildren land
// inside their parents' copies. Sibling order follows SymbolsByFile's
// position ordering.
func assemble(rows []*store.Symbol, nodes map[int64]*provider.Symbol, rootIDs []int64) []provider.Symbol {
	children := make(map[int64][]int64)
	for _, row := range rows {
		if row.ParentSymbolID != nil {
			if _, ok := nodes[*row.ParentSymbolID]; ok {
				children[*row.ParentSymbolID] = append(children[*row.ParentSymbolID], row.ID)
			}
		}
	}
	var build func(id int64) provider.Symbol
	build = func(id int64) provider.Symbol {
		sym := *nodes[id]
		sym.Children = nil
		for _, cid := range children[id] {
			sym.Children = append(sym.Children, build(cid))
		}
		return sym
	}
	var out []provider.Symbol
	for _, id := range rootIDs {
		out = append(out, build(id))
	}
	return out
}

// DefinitionsAt resolves the identifier under pos against indexed symbol
// names.
func (p *IndexProvider) DefinitionsAt(ctx context.Context, file string, pos provider.Position) ([]provider.Location, error) {
	return p.lookup(ctx, file, pos, false)
}

// TypeDefinitionsAt is DefinitionsAt restricted to type-like symbols.
func (p *IndexProvider) TypeDefinitionsAt(ctx context.Context, file string, pos provider.Position) ([]provider.Location, error) {
	return p.lookup(ctx, file, pos, true)
}

// DeclarationsAt answers with the same locations as DefinitionsAt; the index
// does not distinguish declarations from definitions.
func (p *IndexProvider) DeclarationsAt(ctx context.Context, file string, pos provider.Position) ([]provider.Location, error) {
	return p.lookup(ctx, file, pos, false)
}

func (p *IndexProvider) lookup(ctx context.Context, file string, pos provider.Position, typesOnly bool) ([]provider.Location, error) {
	text, err := p.ReadText(ctx, file)
	if err != nil {
		return nil, err
	}
	word := provider.WordAt(text, pos)
	if word == "" {
		return nil, nil
	}
	syms, err := p.store.SymbolsByName(word)
	if err != nil {
		return nil, fmt.Errorf("lookup %q: %w", word, err)
	}

	filePaths := make(map[int64]string)
	var locs []provider.Location
	for _, sym := range syms {
		if typesOnly && !typeKinds[sym.Kind] {
			continue
		}
		path, ok := filePaths[sym.FileID]
		if !ok {
			f, err := p.store.FileByID(sym.FileID)
			if err != nil || f == nil {
				continue
			}
			path = f.Path
			filePaths[sym.FileID] = path
		}
		locs = append(locs, provider.Location{
			File: path,
			Range: provider.Range{
				Start: provider.Position{Line: sym.StartLine, Col: sym.StartCol},
				End:   provider.Position{Line: sym.EndLine, Col: sym.EndCol},
			},
		})
	}
	return locs, nil
}

// ReferencesAt scans every indexed file for whole-word occurrences of the
// identifier under pos, capped at referenceLimit locations.
func (p *IndexProvider) ReferencesAt(ctx context.Context, file string, pos provider.Position) ([]provider.Location, error) {
	text, err := p.ReadText(ctx, file)
	if err != nil {
		return nil, err
	}
	word := provider.WordAt(text, pos)
	if word == "" {
		return nil, nil
	}
	files, err := p.store.Files()
	if err != nil {
		return nil, fmt.Errorf("references: %w", err)
	}
	var locs []provider.Location
	for _, f := range files {
		if err := ctx.Err(); err != nil {
			return locs, err
		}
		content, err := os.ReadFile(f.Path)
		if err != nil {
			continue
		}
		locs = append(locs, provider.Occurrences(f.Path, string(content), word)...)
		if len(locs) >= referenceLimit {
			return locs[:referenceLimit], nil
		}
	}
	return locs, nil
}

// ReadText returns the file's current on-disk content, which may be newer
// than the indexed snapshot.
func (p *IndexProvider) ReadText(_ context.Context, file string) (string, error) {
	content, err := os.ReadFile(file)
	if err != nil {
		return "", fmt.Errorf("read %s: %w", file, err)
	}
	return string(content), nil
}

func (p *IndexProvider) Exists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}
