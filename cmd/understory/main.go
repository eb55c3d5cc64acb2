package main

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/spf13/cobra"
)

var (
	flagDB     string
	flagFormat string
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %s\n", err)
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:           "understory",
	Short:         "Bounded context bundles for code positions",
	Long:          "Understory indexes source code with tree-sitter and assembles context bundles: the function around a position, the types it mentions, the functions it calls, and a capped workspace tree.",
	SilenceErrors: true,
	SilenceUsage:  true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		return validateFormat(flagFormat)
	},
	// No Run — prints help by default.
}

func init() {
	rootCmd.PersistentFlags().StringVar(&flagDB, "db", "", "database path (default: .understory/index.db relative to repo root)")
	rootCmd.PersistentFlags().StringVar(&flagFormat, "format", "text", "output format: json|text")

	rootCmd.AddCommand(indexCmd)
	rootCmd.AddCommand(contextCmd)
	rootCmd.AddCommand(sweepCmd)
}

// validFormats lists accepted values for --format.
var validFormats = []string{"json", "text"}

func validateFormat(format string) error {
	for _, f := range validFormats {
		if format == f {
			return nil
		}
	}
	return fmt.Errorf("invalid format %q: must be %s", format, strings.Join(validFormats, " or "))
}

// resolveTargetDir returns the absolute path of the directory to operate on.
func resolveTargetDir(args []string) (string, error) {
	dir := "."
	if len(args) > 0 {
		dir = args[0]
	}
	abs, err := filepath.Abs(dir)
	if err != nil {
		return "", fmt.Errorf("resolving path %q: %w", dir, err)
	}
	info, err := os.Stat(abs)
	if err != nil {
		return "", fmt.Errorf("directory not found: %s", abs)
	}
	if !info.IsDir() {
		return "", fmt.Errorf("not a directory: %s", abs)
	}
	return abs, nil
}

// findRepoRoot walks up from startDir looking for a .git directory.
// Returns the directory containing .git, or startDir if not found.
func findRepoRoot(startDir string) string {
	dir := startDir
	for {
		if info, err := os.Stat(filepath.Join(dir, ".git")); err == nil && info.IsDir() {
			return dir
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			return startDir
		}
		dir = parent
	}
}

// resolveDBPath returns the database path from the --db flag or the default.
func resolveDBPath(repoRoot string) string {
	if flagDB != "" {
		if filepath.IsAbs(flagDB) {
			return flagDB
		}
		return filepath.Join(repoRoot, flagDB)
	}
	return filepath.Join(repoRoot, ".understory", "index.db")
}

// parseTarget splits a FILE:LINE[:COL] argument. Numeric segments are peeled
// off the right, so paths containing colons (Windows drives) stay intact.
// LINE and COL are 1-based on the command line and converted to the engine's
// 0-based positions.
func parseTarget(arg string) (file string, line, col int, err error) {
	file = arg
	var nums []int
	for len(nums) < 2 {
		i := strings.LastIndex(file, ":")
		if i < 0 {
			break
		}
		n, convErr := strconv.Atoi(file[i+1:])
		if convErr != nil || n < 1 {
			break
		}
		nums = append(nums, n)
		file = file[:i]
	}
	if len(nums) == 0 || file == "" {
		return "", 0, 0, fmt.Errorf("expected FILE:LINE[:COL], got %q", arg)
	}

	// nums holds [COL, LINE] or just [LINE], rightmost first.
	line = nums[len(nums)-1]
	col = 1
	if len(nums) == 2 {
		col = nums[0]
	}
	return file, line - 1, col - 1, nil
}
