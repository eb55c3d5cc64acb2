// Package extract lexically enumerates the identifiers inside a function
// body that are worth querying for type or definition information. There is
// no scope analysis here: tokens are filtered by keyword tables and a
// followed-by-paren call heuristic, then located by whole-word matching.
// Precision is traded for language independence on purpose.
package extract

import (
	"regexp"

	"github.com/jward/understory/internal/lang"
	"github.com/jward/understory/internal/provider"
)

var identRe = regexp.MustCompile(`[A-Za-z_][A-Za-z0-9_]*`)

// Candidate is a surviving token with every whole-word occurrence inside the
// body, as positions relative to the body's first line.
type Candidate struct {
	Token       string
	Occurrences []provider.Position
}

// Candidates tokenizes body and returns type-reference candidates in order
// of first appearance. Dropped: structural keywords, selfName (the
// function's own name), and any token immediately followed by an open paren
// (a call, not a type use). Tokens are deduplicated by lexical form.
func Candidates(body, selfName string) []Candidate {
	return collect(body, selfName, false)
}

// CallCandidates returns the complementary set: non-keyword tokens
// immediately followed by an open paren, i.e. likely call sites. Used to
// resolve referenced functions rather than types.
func CallCandidates(body, selfName string) []Candidate {
	return collect(body, selfName, true)
}

func collect(body, selfName string, calls bool) []Candidate {
	seen := make(map[string]bool)
	var out []Candidate
	for _, m := range identRe.FindAllStringIndex(body, -1) {
		token := body[m[0]:m[1]]
		if seen[token] {
			continue
		}
		if lang.IsKeyword(token) || token == selfName {
			continue
		}
		followedByParen := m[1] < len(body) && body[m[1]] == '('
		if followedByParen != calls {
			continue
		}
		seen[token] = true
		out = append(out, Candidate{
			Token:       token,
			Occurrences: Occurrences(body, token),
		})
	}
	return out
}

// Occurrences returns every whole-word position of token within body,
// relative to the body's first line. Word boundaries are checked against
// adjacent alphanumeric/underscore bytes.
func Occurrences(body, token string) []provider.Position {
	var out []provider.Position
	line, col := 0, 0
	for i := 0; i+len(token) <= len(body); i++ {
		switch {
		case body[i] == '\n':
			line++
			col = 0
			continue
		case body[i:i+len(token)] == token:
			before := i == 0 || !isWordByte(body[i-1])
			after := i+len(token) >= len(body) || !isWordByte(body[i+len(token)])
			if before && after {
				out = append(out, provider.Position{Line: line, Col: col})
			}
		}
		col++
	}
	return out
}

func isWordByte(b byte) bool {
	return b == '_' || (b >= 'a' && b <= 'z') || (b >= 'A' && b <= 'Z') || (b >= '0' && b <= '9')
}
