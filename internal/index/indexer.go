package index

import (
	"bytes"
	"context"
	"crypto/sha256"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"time"

	sitter "github.com/smacker/go-tree-sitter"

	"github.com/jward/understory/internal/lang"
	"github.com/jward/understory/internal/store"
)

// skipDirs are directory names excluded from the filesystem-walk fallback.
var skipDirs = map[string]bool{
	"node_modules": true,
	"vendor":       true,
	"__pycache__":  true,
	"dist":         true,
	"build":        true,
	"target":       true,
}

// Stats summarizes one indexing run.
type Stats struct {
	Indexed int
	Skipped int
	Failed  int
}

// Indexer parses workspace files and persists their symbols.
type Indexer struct {
	store     *store.Store
	log       *slog.Logger
	languages map[string]bool // nil means all supported languages
	force     bool
}

// IndexerOption configures an Indexer.
type IndexerOption func(*Indexer)

// WithLanguages restricts indexing to the named languages.
func WithLanguages(langs []string) IndexerOption {
	return func(ix *Indexer) {
		if len(langs) == 0 {
			return
		}
		ix.languages = make(map[string]bool, len(langs))
		for _, l := range langs {
			ix.languages[l] = true
		}
	}
}

// WithForce reindexes files even when their content hash is unchanged.
func WithForce(force bool) IndexerOption {
	return func(ix *Indexer) { ix.force = force }
}

// WithIndexLogger sets the logger for per-file progress and failures.
func WithIndexLogger(log *slog.Logger) IndexerOption {
	return func(ix *Indexer) { ix.log = log }
}

// NewIndexer creates an Indexer writing to st.
func NewIndexer(st *store.Store, opts ...IndexerOption) *Indexer {
	ix := &Indexer{store: st, log: slog.New(slog.NewTextHandler(io.Discard, nil))}
	for _, opt := range opts {
		opt(ix)
	}
	return ix
}

// IndexDirectory discovers and indexes all supported files under root. If
// root is inside a git repository, git ls-files is used so .gitignore is
// respected; otherwise a filesystem walk (skipping hidden and build
// directories) is the fallback.
func (ix *Indexer) IndexDirectory(ctx context.Context, root string) (Stats, error) {
	paths, err := gitListFiles(root)
	if err != nil {
		paths, err = walkListFiles(root)
		if err != nil {
			return Stats{}, err
		}
	}
	return ix.IndexFiles(ctx, paths)
}

// IndexFiles indexes the given paths. Errors on individual files are logged
// and counted; processing continues.
func (ix *Indexer) IndexFiles(ctx context.Context, paths []string) (Stats, error) {
	var stats Stats
	for _, path := range paths {
		if err := ctx.Err(); err != nil {
			return stats, err
		}
		indexed, err := ix.indexFile(ctx, path)
		switch {
		case err != nil:
			stats.Failed++
			ix.log.Warn("index failed", "file", path, "err", err)
		case indexed:
			stats.Indexed++
		default:
			stats.Skipped++
		}
	}
	return stats, nil
}

// indexFile parses one file and replaces its stored symbols. Returns false
// when the file is skipped (unsupported, filtered out, or unchanged).
func (ix *Indexer) indexFile(ctx context.Context, path string) (bool, error) {
	language, ok := lang.FromPath(path)
	if !ok {
		return false, nil
	}
	if ix.languages != nil && !ix.languages[language] {
		return false, nil
	}
	grammar, ok := GrammarFor(language)
	if !ok {
		return false, nil
	}

	content, err := os.ReadFile(path)
	if err != nil {
		return false, fmt.Errorf("read file: %w", err)
	}
	hash := fmt.Sprintf("%x", sha256.Sum256(content))

	existing, err := ix.store.FileByPath(path)
	if err != nil {
		return false, fmt.Errorf("lookup file: %w", err)
	}
	if existing != nil && existing.Hash == hash && !ix.force {
		return false, nil
	}
	if existing != nil {
		if err := ix.store.DeleteFileData(existing.ID); err != nil {
			return false, fmt.Errorf("delete old data: %w", err)
		}
	}

	parser := sitter.NewParser()
	parser.SetLanguage(grammar)
	tree, err := parser.ParseCtx(ctx, nil, content)
	if err != nil {
		return false, fmt.Errorf("parse: %w", err)
	}
	defer tree.Close()

	fileID, err := ix.store.InsertFile(&store.File{
		Path:        path,
		Language:    language,
		Hash:        hash,
		LineCount:   bytes.Count(content, []byte{'\n'}) + 1,
		LastIndexed: time.Now(),
	})
	if err != nil {
		return false, fmt.Errorf("insert file: %w", err)
	}

	decls := extractSymbols(tree.RootNode(), content, language)
	syms := make([]*store.Symbol, len(decls))
	for i := range decls {
		decls[i].Sym.FileID = fileID
		syms[i] = &decls[i].Sym
	}
	if err := ix.store.InsertSymbols(syms); err != nil {
		return false, fmt.Errorf("insert symbols: %w", err)
	}
	// Depth-first extraction order guarantees a parent's ID is assigned
	// before any of its children are linked.
	for i, d := range decls {
		if d.Parent < 0 {
			continue
		}
		if err := ix.store.SetSymbolParent(syms[i].ID, syms[d.Parent].ID); err != nil {
			return false, fmt.Errorf("link symbol parent: %w", err)
		}
	}

	ix.log.Debug("indexed", "file", path, "symbols", len(syms))
	return true, nil
}

// gitListFiles uses git ls-files to discover tracked and untracked (but not
// ignored) files under root, filtered to supported languages.
func gitListFiles(root string) ([]string, error) {
	cmd := exec.Command("git", "ls-files", "--cached", "--others", "--exclude-standard")
	cmd.Dir = root
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr
	if err := cmd.Run(); err != nil {
		return nil, fmt.Errorf("git ls-files: %w", err)
	}

	var paths []string
	for _, line := range strings.Split(stdout.String(), "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		absPath := filepath.Join(root, line)
		if _, ok := lang.FromPath(absPath); ok {
			paths = append(paths, absPath)
		}
	}
	return paths, nil
}

// walkListFiles discovers files by walking the filesystem, used as a fallback
// when git is not available.
func walkListFiles(root string) ([]string, error) {
	var paths []string
	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			name := d.Name()
			if strings.HasPrefix(name, ".") && path != root {
				return filepath.SkipDir
			}
			if skipDirs[name] {
				return filepath.SkipDir
			}
			return nil
		}
		if _, ok := lang.FromPath(path); ok {
			paths = append(paths, path)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("walk directory: %w", err)
	}
	return paths, nil
}
