package main

import (
	"context"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/spf13/cobra"

	"github.com/jward/understory/internal/index"
	"github.com/jward/understory/internal/lang"
	"github.com/jward/understory/internal/logging"
	"github.com/jward/understory/internal/store"
)

var (
	flagForce     bool
	flagLanguages string
	flagWatch     bool
)

var indexCmd = &cobra.Command{
	Use:   "index [path]",
	Short: "Build or refresh the symbol index",
	Long:  "Parses source files with tree-sitter and writes their symbols to the SQLite index. Unchanged files are skipped by content hash.",
	Args:  cobra.MaximumNArgs(1),
	RunE:  runIndex,
}

func init() {
	indexCmd.Flags().BoolVar(&flagForce, "force", false, "delete database and reindex from scratch")
	indexCmd.Flags().StringVar(&flagLanguages, "languages", "", "comma-separated language filter (e.g. go,typescript)")
	indexCmd.Flags().BoolVar(&flagWatch, "watch", false, "stay running and reindex files as they change")
}

func runIndex(cmd *cobra.Command, args []string) error {
	start := time.Now()

	targetDir, err := resolveTargetDir(args)
	if err != nil {
		return err
	}
	repoRoot := findRepoRoot(targetDir)
	dbPath := resolveDBPath(repoRoot)

	if err := os.MkdirAll(filepath.Dir(dbPath), 0o755); err != nil {
		return fmt.Errorf("creating %s: %w", filepath.Dir(dbPath), err)
	}
	if flagForce {
		if err := os.Remove(dbPath); err != nil && !os.IsNotExist(err) {
			return fmt.Errorf("removing database for --force: %w", err)
		}
		fmt.Fprintf(os.Stderr, "Cleared database: %s\n", dbPath)
	}

	s, err := store.NewStore(dbPath)
	if err != nil {
		return fmt.Errorf("opening database: %w", err)
	}
	defer s.Close()
	if err := s.Migrate(); err != nil {
		return fmt.Errorf("migrating: %w", err)
	}

	opts := []index.IndexerOption{index.WithIndexLogger(logging.Default("index"))}
	if flagLanguages != "" {
		langs := strings.Split(flagLanguages, ",")
		for i := range langs {
			langs[i] = strings.TrimSpace(langs[i])
		}
		opts = append(opts, index.WithLanguages(langs))
	}
	ix := index.NewIndexer(s, opts...)

	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	stats, err := ix.IndexDirectory(ctx, targetDir)
	if err != nil {
		return fmt.Errorf("indexing: %w", err)
	}

	fmt.Fprintf(os.Stderr, "Indexed %s in %s (%d indexed, %d skipped, %d failed)\n",
		targetDir, time.Since(start).Round(time.Millisecond),
		stats.Indexed, stats.Skipped, stats.Failed)
	fmt.Fprintf(os.Stderr, "Database: %s\n", dbPath)

	if flagWatch {
		return watchAndReindex(ctx, ix, targetDir)
	}
	return nil
}

// watchAndReindex blocks, reindexing files as the filesystem reports writes.
// Newly created directories are added to the watch; hidden and build
// directories are never watched.
func watchAndReindex(ctx context.Context, ix *index.Indexer, root string) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("starting watcher: %w", err)
	}
	defer watcher.Close()

	if err := addWatchDirs(watcher, root); err != nil {
		return err
	}
	fmt.Fprintf(os.Stderr, "Watching %s for changes\n", root)

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if event.Op&(fsnotify.Write|fsnotify.Create) == 0 {
				continue
			}
			if info, err := os.Stat(event.Name); err == nil && info.IsDir() {
				if !skipWatchDir(filepath.Base(event.Name)) {
					_ = watcher.Add(event.Name)
				}
				continue
			}
			if _, ok := lang.FromPath(event.Name); !ok {
				continue
			}
			stats, err := ix.IndexFiles(ctx, []string{event.Name})
			if err != nil {
				return err
			}
			if stats.Indexed > 0 {
				fmt.Fprintf(os.Stderr, "Reindexed %s\n", event.Name)
			}
		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			fmt.Fprintf(os.Stderr, "Watch error: %s\n", err)
		}
	}
}

func addWatchDirs(watcher *fsnotify.Watcher, root string) error {
	return filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil || !d.IsDir() {
			return nil
		}
		name := d.Name()
		if path != root && skipWatchDir(name) {
			return filepath.SkipDir
		}
		if err := watcher.Add(path); err != nil {
			return fmt.Errorf("watching %s: %w", path, err)
		}
		return nil
	})
}

func skipWatchDir(name string) bool {
	return strings.HasPrefix(name, ".") || name == "node_modules" || name == "vendor" ||
		name == "__pycache__" || name == "dist" || name == "build" || name == "target"
}
