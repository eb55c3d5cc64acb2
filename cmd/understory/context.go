package main

import (
	"context"
	"fmt"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/jward/understory"
	"github.com/jward/understory/internal/index"
	"github.com/jward/understory/internal/logging"
	"github.com/jward/understory/internal/store"
)

var (
	flagDepth   int
	flagTreeCap int
)

var contextCmd = &cobra.Command{
	Use:   "context FILE:LINE[:COL]",
	Short: "Build a context bundle for a position",
	Long:  "Locates the enclosing function at FILE:LINE, resolves the types it mentions and the functions it calls against the symbol index, and prints the assembled bundle. LINE and COL are 1-based.",
	Args:  cobra.ExactArgs(1),
	RunE:  runContext,
}

func init() {
	contextCmd.Flags().IntVar(&flagDepth, "depth", understory.DefaultTypeDepth, "recursive type resolution depth")
	contextCmd.Flags().IntVar(&flagTreeCap, "tree-cap", 0, "workspace tree node cap (0 uses the default)")
}

func runContext(cmd *cobra.Command, args []string) error {
	file, line, col, err := parseTarget(args[0])
	if err != nil {
		return err
	}
	absFile, err := filepath.Abs(file)
	if err != nil {
		return fmt.Errorf("resolving %q: %w", file, err)
	}

	e, s, err := openEngine(filepath.Dir(absFile))
	if err != nil {
		return err
	}
	defer s.Close()

	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	bundle, err := e.ContextAt(ctx, absFile, understory.Position{Line: line, Col: col})
	if err != nil {
		return err
	}
	return outputBundle(bundle)
}

// openEngine opens the index database for the repository containing dir and
// builds an Engine over it. The caller closes the returned store.
func openEngine(dir string) (*understory.Engine, *store.Store, error) {
	repoRoot := findRepoRoot(dir)
	dbPath := resolveDBPath(repoRoot)

	s, err := store.NewStore(dbPath)
	if err != nil {
		return nil, nil, fmt.Errorf("opening database %s (run `understory index` first?): %w", dbPath, err)
	}
	if err := s.Migrate(); err != nil {
		s.Close()
		return nil, nil, fmt.Errorf("migrating: %w", err)
	}

	opts := []understory.Option{understory.WithLogger(logging.Default("engine"))}
	if flagDepth > 0 {
		opts = append(opts, understory.WithTypeDepth(flagDepth))
	}
	if flagTreeCap > 0 {
		opts = append(opts, understory.WithFileTreeCap(flagTreeCap))
	}

	e, err := understory.New(index.NewProvider(s), repoRoot, opts...)
	if err != nil {
		s.Close()
		return nil, nil, err
	}
	return e, s, nil
}
