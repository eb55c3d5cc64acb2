package understory

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"

	"github.com/jward/understory/internal/extract"
	"github.com/jward/understory/internal/filetree"
	"github.com/jward/understory/internal/lang"
	"github.com/jward/understory/internal/locate"
	"github.com/jward/understory/internal/provider"
	"github.com/jward/understory/internal/resolve"
)

// ErrNoWorkspace is returned by New when no workspace root is configured.
var ErrNoWorkspace = errors.New("understory: no workspace root")

// DefaultTypeDepth bounds recursive type resolution: a type's subtypes, and
// theirs, down this many levels from the function body.
const DefaultTypeDepth = 3

// Engine assembles context bundles from capability queries against one
// workspace.
type Engine struct {
	p         provider.Provider
	root      string
	resolver  *resolve.Resolver
	typeDepth int
	treeCap   int
	excludes  []string
	packages  map[string]string
	log       *slog.Logger
}

// Option configures an Engine.
type Option func(*Engine)

// WithTypeDepth overrides the recursive type resolution depth.
func WithTypeDepth(depth int) Option {
	return func(e *Engine) {
		if depth > 0 {
			e.typeDepth = depth
		}
	}
}

// WithFileTreeCap overrides the workspace snapshot's node cap.
func WithFileTreeCap(n int) Option {
	return func(e *Engine) { e.treeCap = n }
}

// WithExcludes replaces the snapshot's exclusion globs.
func WithExcludes(patterns []string) Option {
	return func(e *Engine) { e.excludes = patterns }
}

// WithPackages sets the workspace package map (name to root) carried on
// every bundle.
func WithPackages(packages map[string]string) Option {
	return func(e *Engine) { e.packages = packages }
}

// WithLogger sets the engine's logger.
func WithLogger(log *slog.Logger) Option {
	return func(e *Engine) { e.log = log }
}

// New creates an Engine over p, scoped to the workspace at root.
func New(p provider.Provider, root string, opts ...Option) (*Engine, error) {
	if root == "" {
		return nil, ErrNoWorkspace
	}
	e := &Engine{
		p:         p,
		root:      root,
		typeDepth: DefaultTypeDepth,
		treeCap:   filetree.DefaultCap,
		log:       slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
	for _, opt := range opts {
		opt(e)
	}
	e.resolver = resolve.New(p, root, resolve.WithLogger(e.log))
	return e, nil
}

// ContextAt builds the context bundle for the position in file. The returned
// error covers only unreadable source documents; every downstream lookup
// failure degrades the bundle instead.
func (e *Engine) ContextAt(ctx context.Context, file string, pos Position) (Bundle, error) {
	text, err := e.p.ReadText(ctx, file)
	if err != nil {
		return Bundle{}, fmt.Errorf("understory: read %s: %w", file, err)
	}

	language, _ := lang.FromPath(file)
	bundle := Bundle{
		SourceFile: file,
		Line:       pos.Line,
		Language:   language,
		Packages:   e.packages,
	}

	symbols, err := e.p.Symbols(ctx, file)
	if err != nil {
		e.log.Debug("symbols query failed", "file", file, "err", err)
		symbols = nil
	}
	doc := locate.Document{File: file, Language: language, Text: text, Symbols: symbols}

	fn, _ := locate.Locate(doc, pos, locate.Largest, locate.FunctionLike)
	bundle.Primary = fn
	bundle.Excerpt = focusLine(text, pos.Line)

	bundle.Types = e.resolveTypes(ctx, file, fn)
	bundle.Referenced = e.resolveReferenced(ctx, file, fn)

	touched := e.touchedFiles(bundle)
	bundle.Touched = touched
	bundle.Tree = e.renderTree(touched)
	return bundle, nil
}

// resolveTypes resolves each type-reference candidate in the function body
// and expands the results recursively. Per token, occurrences are tried in
// order until one yields declarations.
func (e *Engine) resolveTypes(ctx context.Context, file string, fn *FunctionDefinition) []TypeDefinition {
	var out []TypeDefinition
	seen := make(map[string]bool)
	add := func(def TypeDefinition) {
		if seen[def.Key()] {
			return
		}
		seen[def.Key()] = true
		out = append(out, def)
	}

	for _, cand := range extract.Candidates(fn.Text, fn.Name) {
		for _, rel := range cand.Occurrences {
			defs := e.resolver.TypesAt(ctx, file, absolutePos(fn, rel))
			if len(defs) == 0 {
				continue
			}
			for _, def := range defs {
				add(def)
				for _, sub := range e.resolver.Expand(ctx, def, e.typeDepth) {
					add(sub)
				}
			}
			break
		}
	}
	return out
}

// resolveReferenced resolves call-shaped tokens to function definitions.
// The definition site is located in Smallest mode, so only a definition that
// starts on the resolved line qualifies.
func (e *Engine) resolveReferenced(ctx context.Context, file string, fn *FunctionDefinition) []FunctionDefinition {
	var out []FunctionDefinition
	seen := map[provider.Handle]bool{fn.Handle: true}

	for _, cand := range extract.CallCandidates(fn.Text, fn.Name) {
		for _, rel := range cand.Occurrences {
			def, ok := e.referencedAt(ctx, file, absolutePos(fn, rel))
			if !ok {
				continue
			}
			if !seen[def.Handle] {
				seen[def.Handle] = true
				out = append(out, *def)
			}
			break
		}
	}
	return out
}

// referencedAt chases one call site to the function defined at its
// definition location.
func (e *Engine) referencedAt(ctx context.Context, file string, pos Position) (*FunctionDefinition, bool) {
	locs, err := e.p.DefinitionsAt(ctx, file, pos)
	if err != nil {
		e.log.Debug("definition query failed", "file", file, "err", err)
		return nil, false
	}
	for _, loc := range locs {
		if e.resolver.Excluded(loc.File) {
			continue
		}
		text, err := e.p.ReadText(ctx, loc.File)
		if err != nil {
			e.log.Debug("read failed", "file", loc.File, "err", err)
			continue
		}
		symbols, err := e.p.Symbols(ctx, loc.File)
		if err != nil {
			e.log.Debug("symbols query failed", "file", loc.File, "err", err)
			continue
		}
		language, _ := lang.FromPath(loc.File)
		doc := locate.Document{File: loc.File, Language: language, Text: text, Symbols: symbols}
		if def, ok := locate.Locate(doc, loc.Range.Start, locate.Smallest, locate.FunctionLike); ok {
			return def, true
		}
	}
	return nil, false
}

// touchedFiles collects the files that contributed text to the bundle.
func (e *Engine) touchedFiles(bundle Bundle) []string {
	seen := make(map[string]bool)
	var out []string
	add := func(path string) {
		if path == "" || seen[path] {
			return
		}
		seen[path] = true
		out = append(out, path)
	}
	add(bundle.SourceFile)
	for _, td := range bundle.Types {
		add(td.File)
	}
	for _, fn := range bundle.Referenced {
		add(fn.File)
	}
	return out
}

// renderTree builds and renders the capped workspace snapshot. Failures
// yield an empty tree, not an error.
func (e *Engine) renderTree(touched []string) string {
	opts := []filetree.BuilderOption{filetree.WithCap(e.treeCap)}
	if e.excludes != nil {
		opts = append(opts, filetree.WithExcludes(e.excludes))
	}
	tree, err := filetree.NewBuilder(e.root, opts...).Build()
	if err != nil {
		e.log.Debug("file tree build failed", "root", e.root, "err", err)
		return ""
	}
	marks := make(map[string]bool, len(touched))
	for _, path := range touched {
		marks[path] = true
	}
	return filetree.Render(tree, marks)
}

// focusLine returns the source line at the query position, or "" when the
// position is past the document.
func focusLine(text string, line int) string {
	lines := strings.Split(text, "\n")
	if line < 0 || line >= len(lines) {
		return ""
	}
	return lines[line]
}

// absolutePos converts a body-relative occurrence to a document position.
// The body's first line starts at the symbol's start column; later lines are
// whole document lines.
func absolutePos(fn *FunctionDefinition, rel Position) Position {
	col := rel.Col
	if rel.Line == 0 {
		col += fn.Range.Start.Col
	}
	return Position{Line: fn.StartLine + rel.Line, Col: col}
}
