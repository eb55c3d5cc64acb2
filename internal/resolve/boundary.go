package resolve

import (
	"regexp"
	"strings"

	"github.com/jward/understory/internal/lang"
)

// declLineRe matches the opening line of a declaration: optional indentation
// and modifiers (export, public, abstract, ...), then a declaration keyword
// and an identifier. Matching happens on raw line text; occurrences inside
// strings, comments, or type-only import lines are matched too. The caller
// rejects import-marker lines after expansion.
var declLineRe = regexp.MustCompile(`^\s*(?:\w+[ \t]+)*(interface|type|class|enum)\s+\w+`)

// declNameRe extracts the declared identifier from a declaration slice.
var declNameRe = regexp.MustCompile(`(?:interface|class|type|enum)\s+([A-Za-z_][A-Za-z0-9_]*)`)

// expandDeclaration grows the single reference line at lineIdx into the full
// enclosing declaration using the family's boundary rules. Returns the
// declaration text, the line it starts on, and whether a declaration line
// was found at all.
func expandDeclaration(text string, lineIdx int, family lang.Family) (string, int, bool) {
	lines := strings.Split(text, "\n")
	if lineIdx < 0 || lineIdx >= len(lines) {
		return "", 0, false
	}

	// Walk upward to the declaration-keyword line.
	decl := -1
	for i := lineIdx; i >= 0; i-- {
		if declLineRe.MatchString(lines[i]) {
			decl = i
			break
		}
	}
	if decl < 0 {
		return "", 0, false
	}

	var end int
	if family == lang.FamilyIndent {
		end = indentEnd(lines, decl)
	} else {
		end = braceEnd(lines, decl)
	}
	return strings.Join(lines[decl:end+1], "\n"), decl, true
}

// braceEnd walks forward from decl counting braces; the line on which the
// open count returns to zero ends the declaration. A declaration that never
// opens a brace (a one-line alias) ends on its own line; one that never
// closes runs to end of file.
func braceEnd(lines []string, decl int) int {
	depth := 0
	opened := false
	for i := decl; i < len(lines); i++ {
		if !opened && i > decl && !opensWithBrace(lines[i]) {
			// No brace on the declaration line and the next line does not
			// open one either: a one-line declaration.
			return decl
		}
		for _, ch := range lines[i] {
			switch ch {
			case '{':
				depth++
				opened = true
			case '}':
				depth--
			}
		}
		if opened && depth <= 0 {
			return i
		}
	}
	if !opened {
		return decl
	}
	return len(lines) - 1
}

// opensWithBrace reports whether the line's first non-blank character is an
// open brace (Allman-style declarations).
func opensWithBrace(line string) bool {
	trimmed := strings.TrimSpace(line)
	return strings.HasPrefix(trimmed, "{")
}

// indentEnd walks forward from decl until a non-blank line's indentation
// drops strictly below the declaration's column; that line is excluded.
// Nested declarations at equal-or-deeper indentation stay included.
func indentEnd(lines []string, decl int) int {
	base := indentWidth(lines[decl])
	end := decl
	for i := decl + 1; i < len(lines); i++ {
		if strings.TrimSpace(lines[i]) == "" {
			continue
		}
		if indentWidth(lines[i]) < base {
			break
		}
		end = i
	}
	return end
}

// indentWidth returns the column of the first non-blank character.
func indentWidth(line string) int {
	for i, ch := range line {
		if ch != ' ' && ch != '\t' {
			return i
		}
	}
	return len(line)
}

// firstToken returns the first whitespace-delimited token of text.
func firstToken(text string) string {
	fields := strings.Fields(text)
	if len(fields) == 0 {
		return ""
	}
	return fields[0]
}
