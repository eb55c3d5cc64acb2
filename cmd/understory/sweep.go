package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/jward/understory"
)

var flagConsolidate bool

var sweepCmd = &cobra.Command{
	Use:   "sweep [path]",
	Short: "Build context bundles for every indexed function",
	Long:  "Runs the context pipeline over every function in every indexed file under path, in file order. With --consolidate the per-function bundles are merged into one, deduplicating shared declarations.",
	Args:  cobra.MaximumNArgs(1),
	RunE:  runSweep,
}

func init() {
	sweepCmd.Flags().BoolVar(&flagConsolidate, "consolidate", true, "merge per-function bundles into one")
}

func runSweep(cmd *cobra.Command, args []string) error {
	targetDir, err := resolveTargetDir(args)
	if err != nil {
		return err
	}

	e, s, err := openEngine(targetDir)
	if err != nil {
		return err
	}
	defer s.Close()

	files, err := s.Files()
	if err != nil {
		return fmt.Errorf("listing indexed files: %w", err)
	}
	if len(files) == 0 {
		return fmt.Errorf("no indexed files (run `understory index` first)")
	}
	paths := make([]string, 0, len(files))
	for _, f := range files {
		paths = append(paths, f.Path)
	}

	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	bundles, err := e.Sweep(ctx, paths)
	if err != nil {
		return err
	}

	if flagConsolidate {
		return outputBundle(understory.Consolidate(bundles))
	}
	for _, b := range bundles {
		if err := outputBundle(b); err != nil {
			return err
		}
	}
	return nil
}
