package understory

import "strings"

// Bundle is one assembled context result. Every field is best-effort: a
// bundle with only SourceFile and Excerpt set is still a valid answer.
type Bundle struct {
	// SourceFile is the workspace-relative path the query targeted.
	SourceFile string
	// Line is the 0-based query line.
	Line int
	// Language is the canonical language name, or "" when unrecognized.
	// A consolidated bundle carries the comma-joined set of languages.
	Language string

	// Primary is the enclosing function, or the whole-document fallback.
	Primary *FunctionDefinition
	// Excerpt is the source line at the query position. Consolidation
	// newline-joins one line per merged bundle.
	Excerpt string

	// Types are the declarations of types the primary function mentions,
	// including recursively resolved subtypes.
	Types []TypeDefinition
	// Referenced are definitions of functions the primary function calls.
	Referenced []FunctionDefinition

	// Touched are paths of files that contributed text.
	Touched []string
	// Tree is the rendered workspace snapshot with touched files marked.
	Tree string

	// Packages maps workspace package names to their roots.
	Packages map[string]string

	// ErrorMessage carries a human-readable note when the bundle was
	// degraded, never a fatal condition.
	ErrorMessage string
}

// Consolidate merges per-function bundles from a sweep into one. Types and
// referenced functions are deduplicated by their defining handle (file and
// range), not by name, so two same-named declarations in different files
// both survive. Excerpts are newline-joined, error messages semicolon-joined,
// languages form a comma-joined set, package maps merge with later entries
// winning, and the primary and tree come from the first bundle that has one.
// An empty input yields a zero bundle.
func Consolidate(bundles []Bundle) Bundle {
	if len(bundles) == 0 {
		return Bundle{}
	}

	out := Bundle{
		SourceFile: bundles[0].SourceFile,
		Line:       bundles[0].Line,
	}

	var excerpts, errs, langs []string
	seenLang := make(map[string]bool)
	seenTypes := make(map[Handle]bool)
	seenFns := make(map[Handle]bool)
	seenTouched := make(map[string]bool)
	for _, b := range bundles {
		if b.Excerpt != "" {
			excerpts = append(excerpts, b.Excerpt)
		}
		if b.ErrorMessage != "" {
			errs = append(errs, b.ErrorMessage)
		}
		if b.Language != "" && !seenLang[b.Language] {
			seenLang[b.Language] = true
			langs = append(langs, b.Language)
		}
		if out.Primary == nil && b.Primary != nil {
			out.Primary = b.Primary
		}
		for _, td := range b.Types {
			if seenTypes[td.Handle] {
				continue
			}
			seenTypes[td.Handle] = true
			out.Types = append(out.Types, td)
		}
		for _, fn := range b.Referenced {
			if seenFns[fn.Handle] {
				continue
			}
			seenFns[fn.Handle] = true
			out.Referenced = append(out.Referenced, fn)
		}
		for _, path := range b.Touched {
			if seenTouched[path] {
				continue
			}
			seenTouched[path] = true
			out.Touched = append(out.Touched, path)
		}
		for name, root := range b.Packages {
			if out.Packages == nil {
				out.Packages = make(map[string]string)
			}
			out.Packages[name] = root
		}
		if out.Tree == "" {
			out.Tree = b.Tree
		}
	}
	out.Excerpt = strings.Join(excerpts, "\n")
	out.ErrorMessage = strings.Join(errs, "; ")
	out.Language = strings.Join(langs, ",")
	return out
}
