package understory

import (
	"context"
	"fmt"

	"github.com/jward/understory/internal/lang"
	"github.com/jward/understory/internal/locate"
	"github.com/jward/understory/internal/provider"
)

// Sweep builds a context bundle for every function-like symbol in the given
// files, in file order. Files that cannot be read or listed are logged and
// skipped; the sweep keeps going. Callers typically pass the result to
// [Consolidate].
func (e *Engine) Sweep(ctx context.Context, files []string) ([]Bundle, error) {
	var bundles []Bundle
	for _, file := range files {
		if err := ctx.Err(); err != nil {
			return bundles, err
		}
		fileBundles, err := e.sweepFile(ctx, file)
		if err != nil {
			e.log.Warn("sweep: file skipped", "file", file, "err", err)
			continue
		}
		bundles = append(bundles, fileBundles...)
	}
	return bundles, nil
}

// sweepFile queries one bundle per function-like symbol in file. A file with
// no function-like symbols yields a single whole-document bundle.
func (e *Engine) sweepFile(ctx context.Context, file string) ([]Bundle, error) {
	text, err := e.p.ReadText(ctx, file)
	if err != nil {
		return nil, fmt.Errorf("read: %w", err)
	}
	symbols, err := e.p.Symbols(ctx, file)
	if err != nil {
		return nil, fmt.Errorf("symbols: %w", err)
	}

	positions := functionPositions(file, text, symbols)
	if len(positions) == 0 {
		positions = []Position{{Line: 0, Col: 0}}
	}

	var bundles []Bundle
	for _, pos := range positions {
		b, err := e.ContextAt(ctx, file, pos)
		if err != nil {
			e.log.Warn("sweep: query failed", "file", file, "line", pos.Line, "err", err)
			continue
		}
		bundles = append(bundles, b)
	}
	return bundles, nil
}

// functionPositions returns one query position per function-like symbol, at
// the symbol's start. Nested functions are visited too; ContextAt attributes
// each position to its widest enclosing function and Consolidate removes the
// resulting duplicates.
func functionPositions(file, text string, symbols []Symbol) []Position {
	language, _ := lang.FromPath(file)
	classifier := lang.ClassifierFor(language)

	var out []Position
	for _, fs := range locate.Flatten(symbols) {
		if fs.ParentKind == provider.KindEnum {
			continue
		}
		if classifier.IsFunctionLike(fs.Symbol, locate.SliceRange(text, fs.Range)) {
			out = append(out, fs.Range.Start)
		}
	}
	return out
}
