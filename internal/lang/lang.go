// Package lang holds the closed per-language tables the engine dispatches on:
// file-extension mapping, declaration family (brace- vs indentation-delimited),
// keyword sets, and symbol-kind classifier pairs. Unsupported languages get
// explicit "neither" classifiers rather than a guess.
package lang

import (
	"path/filepath"
	"regexp"
	"strings"

	"github.com/jward/understory/internal/provider"
)

// Family is the declaration-boundary style of a language.
type Family int

const (
	// FamilyBrace delimits declarations with balanced { } pairs.
	FamilyBrace Family = iota
	// FamilyIndent delimits declarations by indentation depth.
	FamilyIndent
)

// extToLanguage maps file extensions to canonical language names.
var extToLanguage = map[string]string{
	".go":   "go",
	".ts":   "typescript",
	".tsx":  "typescript",
	".js":   "javascript",
	".jsx":  "javascript",
	".py":   "python",
	".rs":   "rust",
	".c":    "c",
	".h":    "c",
	".cpp":  "cpp",
	".cc":   "cpp",
	".cxx":  "cpp",
	".hpp":  "cpp",
	".java": "java",
	".php":  "php",
	".rb":   "ruby",
}

// families maps canonical language names to their declaration family.
var families = map[string]Family{
	"go":         FamilyBrace,
	"typescript": FamilyBrace,
	"javascript": FamilyBrace,
	"rust":       FamilyBrace,
	"c":          FamilyBrace,
	"cpp":        FamilyBrace,
	"java":       FamilyBrace,
	"php":        FamilyBrace,
	"python":     FamilyIndent,
	"ruby":       FamilyIndent,
}

// FromPath returns the canonical language name for a file path based on its
// extension. Returns ("", false) if the extension is not recognized.
func FromPath(path string) (string, bool) {
	l, ok := extToLanguage[strings.ToLower(filepath.Ext(path))]
	return l, ok
}

// FamilyOf returns the declaration family for a language. Unknown languages
// default to the brace family.
func FamilyOf(language string) Family {
	if f, ok := families[language]; ok {
		return f
	}
	return FamilyBrace
}

// Supported reports whether the language has a classifier table.
func Supported(language string) bool {
	_, ok := classifiers[language]
	return ok
}

// Classifier is the per-language pair of symbol-kind predicates. Both
// predicates receive the symbol and its extracted source text; the text is
// only consulted for variable reclassification.
type Classifier struct {
	IsFunctionLike func(sym provider.Symbol, text string) bool
	IsTypeLike     func(sym provider.Symbol, text string) bool
}

// arrowFnRe matches a variable initialized with an arrow function: a
// parameter list or bare identifier, an optional type annotation, then =>.
var arrowFnRe = regexp.MustCompile(`=\s*(?:async\s+)?(?:\([^)]*\)|[A-Za-z_$][A-Za-z0-9_$]*)\s*(?::\s*[^=>]+)?\s*=>`)

// typeAliasRe matches a `type Name =` alias declaration.
var typeAliasRe = regexp.MustCompile(`^\s*(?:export\s+)?type\s+[A-Za-z_$][A-Za-z0-9_$]*\s*(?:<[^>]*>\s*)?=`)

func kindSet(kinds ...provider.SymbolKind) map[provider.SymbolKind]bool {
	set := make(map[provider.SymbolKind]bool, len(kinds))
	for _, k := range kinds {
		set[k] = true
	}
	return set
}

func byKind(set map[provider.SymbolKind]bool) func(provider.Symbol, string) bool {
	return func(sym provider.Symbol, _ string) bool {
		return set[sym.Kind]
	}
}

var (
	fnKinds   = kindSet(provider.KindFunction, provider.KindMethod, provider.KindConstructor)
	typeKinds = kindSet(provider.KindClass, provider.KindInterface, provider.KindStruct, provider.KindEnum)
)

// ecmaFunctionLike covers languages whose symbol providers report arrow
// functions as plain variables: a variable whose text matches the arrow
// pattern counts as function-like.
func ecmaFunctionLike(sym provider.Symbol, text string) bool {
	if fnKinds[sym.Kind] {
		return true
	}
	return sym.Kind == provider.KindVariable && arrowFnRe.MatchString(text)
}

// ecmaTypeLike additionally reclassifies `type Name =` alias variables.
func ecmaTypeLike(sym provider.Symbol, text string) bool {
	if typeKinds[sym.Kind] {
		return true
	}
	return sym.Kind == provider.KindVariable && typeAliasRe.MatchString(text)
}

// classifiers is the closed per-language dispatch table.
var classifiers = map[string]Classifier{
	"go":         {IsFunctionLike: byKind(fnKinds), IsTypeLike: byKind(typeKinds)},
	"rust":       {IsFunctionLike: byKind(fnKinds), IsTypeLike: byKind(typeKinds)},
	"c":          {IsFunctionLike: byKind(fnKinds), IsTypeLike: byKind(typeKinds)},
	"cpp":        {IsFunctionLike: byKind(fnKinds), IsTypeLike: byKind(typeKinds)},
	"java":       {IsFunctionLike: byKind(fnKinds), IsTypeLike: byKind(typeKinds)},
	"php":        {IsFunctionLike: byKind(fnKinds), IsTypeLike: byKind(typeKinds)},
	"python":     {IsFunctionLike: byKind(fnKinds), IsTypeLike: byKind(kindSet(provider.KindClass, provider.KindEnum))},
	"ruby":       {IsFunctionLike: byKind(fnKinds), IsTypeLike: byKind(kindSet(provider.KindClass))},
	"typescript": {IsFunctionLike: ecmaFunctionLike, IsTypeLike: ecmaTypeLike},
	"javascript": {IsFunctionLike: ecmaFunctionLike, IsTypeLike: ecmaTypeLike},
}

// neither is the default classifier for unsupported languages.
var neither = Classifier{
	IsFunctionLike: func(provider.Symbol, string) bool { return false },
	IsTypeLike:     func(provider.Symbol, string) bool { return false },
}

// ClassifierFor returns the classifier pair for a language, or the default
// "neither" pair for unsupported languages.
func ClassifierFor(language string) Classifier {
	if c, ok := classifiers[language]; ok {
		return c
	}
	return neither
}

// commonKeywords are structural tokens excluded from candidate extraction in
// every language.
var commonKeywords = []string{
	"if", "else", "for", "while", "do", "switch", "case", "default",
	"break", "continue", "return", "true", "false", "null", "nil", "none",
	"new", "delete", "this", "self", "super", "void", "in", "of", "not",
	"and", "or", "is", "as", "try", "catch", "finally", "throw", "throws",
	"public", "private", "protected", "static", "final", "abstract",
	"async", "await", "yield", "import", "export", "from", "package",
	"class", "interface", "struct", "enum", "type", "func", "function",
	"def", "fn", "var", "let", "const", "string", "int", "bool", "float",
	"double", "byte", "rune", "error", "any", "number", "boolean", "object",
	"undefined", "map", "range", "chan", "go", "defer", "select", "make",
	"len", "cap", "append", "print", "println", "use", "pub", "impl",
	"trait", "match", "mod", "where", "end", "module", "require", "elif",
	"lambda", "pass", "raise", "with", "global", "nonlocal", "extends",
	"implements", "instanceof", "typeof", "namespace", "declare", "readonly",
}

var keywordSet = func() map[string]bool {
	set := make(map[string]bool, len(commonKeywords))
	for _, k := range commonKeywords {
		set[k] = true
	}
	return set
}()

// IsKeyword reports whether token is a structural keyword. The set is shared
// across languages; a keyword of one language is a poor type-candidate in any
// other, so over-exclusion is the cheaper mistake.
func IsKeyword(token string) bool {
	return keywordSet[strings.ToLower(token)]
}

// importMarkers are tokens that, when they open an expanded declaration
// slice, signal the upward boundary walk overshot into file-header text.
var importMarkers = map[string]bool{
	"import":   true,
	"package":  true,
	"module":   true,
	"from":     true,
	"require":  true,
	"use":      true,
	"using":    true,
	"include":  true,
	"#include": true,
}

// IsImportMarker reports whether token marks module/import header text.
func IsImportMarker(token string) bool {
	return importMarkers[strings.ToLower(token)]
}
