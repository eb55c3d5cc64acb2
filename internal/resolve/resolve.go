// Package resolve turns positions and type names into full type
// declarations. It has two modes: position-based (query the provider at a
// position, expand each defining location to a whole declaration) and
// name-based (depth-bounded, cycle-safe recursive resolution over the
// implicit graph of "type name appears inside this declaration"). Both are
// best-effort: a failed provider call or unreadable file contributes nothing
// rather than failing the resolution.
package resolve

import (
	"context"
	"io"
	"log/slog"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/jward/understory/internal/lang"
	"github.com/jward/understory/internal/provider"
)

// PlaceholderName is used when a declaration yields no recognizable name.
const PlaceholderName = "declaration"

// TypeDefinition is one extracted declaration. Within a single bundle the
// identity (Name, basename of File) is unique; across bundles the Handle
// (defining file + range) identifies the underlying declaration.
type TypeDefinition struct {
	Name   string
	File   string
	Text   string
	Handle provider.Handle
}

// Key is the per-bundle identity: (type name, file basename).
func (d TypeDefinition) Key() string {
	return d.Name + "\x00" + filepath.Base(d.File)
}

// denyList holds path substrings that mark vendored, standard-library, or
// runtime locations whose declarations are never extracted.
var denyList = []string{
	"node_modules",
	"vendor/",
	"site-packages",
	"dist-packages",
	".venv",
	"typescript/lib",
	"go/pkg/mod",
	"goroot",
	".cargo/registry",
	"rustlib",
	"/usr/lib",
	"/usr/include",
}

// capitalRe finds capitalized identifiers — the "looks like a type name"
// heuristic used to discover edges for recursive resolution. False positives
// are tolerated; a failed lookup contributes nothing.
var capitalRe = regexp.MustCompile(`\b[A-Z][A-Za-z0-9_]*\b`)

// Resolver resolves type references against a capability provider within a
// workspace root.
type Resolver struct {
	p    provider.Provider
	root string
	log  *slog.Logger
}

// Option configures a Resolver.
type Option func(*Resolver)

// WithLogger sets the logger used for degraded-result reporting.
func WithLogger(log *slog.Logger) Option {
	return func(r *Resolver) { r.log = log }
}

// New creates a Resolver scoped to the given workspace root.
func New(p provider.Provider, root string, opts ...Option) *Resolver {
	r := &Resolver{p: p, root: root, log: slog.New(slog.NewTextHandler(io.Discard, nil))}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// TypesAt resolves the reference at pos to zero or more type definitions.
// Type-definition locations are preferred; plain definitions are the
// fallback. Vendored and out-of-workspace locations are discarded.
func (r *Resolver) TypesAt(ctx context.Context, file string, pos provider.Position) []TypeDefinition {
	var out []TypeDefinition
	seen := make(map[string]bool)
	for _, loc := range r.definingLocations(ctx, file, pos) {
		def, ok := r.extractAt(ctx, loc)
		if !ok {
			continue
		}
		if seen[def.Key()] {
			continue
		}
		seen[def.Key()] = true
		out = append(out, def)
	}
	return out
}

// ResolveName recursively resolves typeName starting from fromFile. The
// visited set and depth budget are scoped to one top-level call: depth
// strictly decreases per level and a name is never re-queried once visited.
func (r *Resolver) ResolveName(ctx context.Context, fromFile, typeName string, depth int, visited map[string]bool) []TypeDefinition {
	if depth <= 0 || visited[typeName] {
		return nil
	}
	visited[typeName] = true

	text, err := r.p.ReadText(ctx, fromFile)
	if err != nil {
		r.log.Debug("resolve: read failed", "file", fromFile, "err", err)
		return nil
	}
	pos, ok := firstLineOccurrence(text, typeName)
	if !ok {
		return nil
	}

	locs := r.definingLocations(ctx, fromFile, pos)
	if len(locs) == 0 {
		return nil
	}
	def, ok := r.extractAt(ctx, locs[0])
	if !ok {
		return nil
	}

	out := []TypeDefinition{def}
	for _, name := range capitalizedIdents(def.Text) {
		out = append(out, r.ResolveName(ctx, locs[0].File, name, depth-1, visited)...)
	}
	return out
}

// Expand runs name-based resolution for every capitalized identifier inside
// an already-extracted declaration. One visited set spans the whole
// expansion so shared subtypes are emitted once.
func (r *Resolver) Expand(ctx context.Context, def TypeDefinition, depth int) []TypeDefinition {
	visited := map[string]bool{def.Name: true}
	var out []TypeDefinition
	for _, name := range capitalizedIdents(def.Text) {
		out = append(out, r.ResolveName(ctx, def.Handle.File, name, depth, visited)...)
	}
	return out
}

// definingLocations queries type definitions first, then plain definitions,
// converting provider failures to empty results. Excluded paths are dropped.
func (r *Resolver) definingLocations(ctx context.Context, file string, pos provider.Position) []provider.Location {
	locs, err := r.p.TypeDefinitionsAt(ctx, file, pos)
	if err != nil {
		r.log.Debug("resolve: typeDefinitionsAt failed", "file", file, "err", err)
		locs = nil
	}
	if len(locs) == 0 {
		locs, err = r.p.DefinitionsAt(ctx, file, pos)
		if err != nil {
			r.log.Debug("resolve: definitionsAt failed", "file", file, "err", err)
			locs = nil
		}
	}
	var kept []provider.Location
	for _, loc := range locs {
		if r.Excluded(loc.File) {
			continue
		}
		kept = append(kept, loc)
	}
	return kept
}

// Excluded reports whether a path is vendored/runtime or outside the
// workspace root.
func (r *Resolver) Excluded(path string) bool {
	slashed := filepath.ToSlash(path)
	for _, deny := range denyList {
		if strings.Contains(slashed, deny) {
			return true
		}
	}
	if filepath.IsAbs(path) && r.root != "" {
		rel, err := filepath.Rel(r.root, path)
		if err != nil || rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
			return true
		}
	}
	return strings.HasPrefix(filepath.ToSlash(path), "../")
}

// extractAt reads the file behind a defining location and expands it to the
// full declaration. If the boundary walk overshoots into header text (the
// slice opens with a module/import marker) the original single-line
// extraction is kept instead.
func (r *Resolver) extractAt(ctx context.Context, loc provider.Location) (TypeDefinition, bool) {
	text, err := r.p.ReadText(ctx, loc.File)
	if err != nil {
		r.log.Debug("resolve: read failed", "file", loc.File, "err", err)
		return TypeDefinition{}, false
	}

	language, _ := lang.FromPath(loc.File)
	family := lang.FamilyOf(language)

	line := loc.Range.Start.Line
	decl, startLine, ok := expandDeclaration(text, line, family)
	if ok && lang.IsImportMarker(firstToken(decl)) {
		ok = false
	}
	if !ok {
		decl, startLine = shortExtraction(text, line)
	}
	if strings.TrimSpace(decl) == "" {
		return TypeDefinition{}, false
	}

	name := PlaceholderName
	if m := declNameRe.FindStringSubmatch(decl); m != nil {
		name = m[1]
	}

	declLines := strings.Split(decl, "\n")
	endLine := startLine + len(declLines) - 1
	return TypeDefinition{
		Name: name,
		File: loc.File,
		Text: decl,
		Handle: provider.Handle{
			File: loc.File,
			Range: provider.Range{
				Start: provider.Position{Line: startLine, Col: 0},
				End:   provider.Position{Line: endLine, Col: len(declLines[len(declLines)-1])},
			},
		},
	}, true
}

// shortExtraction returns just the reference line.
func shortExtraction(text string, line int) (string, int) {
	lines := strings.Split(text, "\n")
	if line < 0 || line >= len(lines) {
		return "", 0
	}
	return lines[line], line
}

// firstLineOccurrence scans lines for the first literal occurrence of name.
// The scan is raw text: occurrences inside strings or comments match too.
func firstLineOccurrence(text, name string) (provider.Position, bool) {
	for i, line := range strings.Split(text, "\n") {
		if idx := strings.Index(line, name); idx >= 0 {
			return provider.Position{Line: i, Col: idx}, true
		}
	}
	return provider.Position{}, false
}

// capitalizedIdents returns the deduplicated capitalized identifiers in
// text, in order of first appearance.
func capitalizedIdents(text string) []string {
	seen := make(map[string]bool)
	var out []string
	for _, m := range capitalRe.FindAllString(text, -1) {
		if seen[m] {
			continue
		}
		seen[m] = true
		out = append(out, m)
	}
	return out
}
