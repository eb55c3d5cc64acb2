package extract

import (
	"testing"

	"github.com/jward/understory/internal/provider"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const body = `func Load(id string) (User, error) {
	var u User
	u = parse(id)
	return u, validate(u)
}`

func tokens(cands []Candidate) []string {
	var out []string
	for _, c := range cands {
		out = append(out, c.Token)
	}
	return out
}

func TestCandidates(t *testing.T) {
	cands := Candidates(body, "Load")

	got := tokens(cands)
	// Keywords (func, string, error, var, return) are dropped, Load is the
	// function's own name, parse/validate are calls.
	assert.Equal(t, []string{"id", "User", "u"}, got)
}

func TestCandidatesDeduplicates(t *testing.T) {
	cands := Candidates("Widget a\nWidget b\nWidget c", "")
	require.Len(t, cands, 4) // Widget, a, b, c
	assert.Equal(t, "Widget", cands[0].Token)
	assert.Len(t, cands[0].Occurrences, 3)
}

func TestCallCandidates(t *testing.T) {
	cands := CallCandidates(body, "Load")
	assert.Equal(t, []string{"parse", "validate"}, tokens(cands))
}

func TestCallCandidatesExcludeKeywordsAndSelf(t *testing.T) {
	src := "if (x) { Load(x); make(y); helper(z) }"
	cands := CallCandidates(src, "Load")
	assert.Equal(t, []string{"helper"}, tokens(cands))
}

func TestOccurrencesWholeWordOnly(t *testing.T) {
	src := "User u\nSuperUser su\nUser_id x\nUser"
	occs := Occurrences(src, "User")

	// "SuperUser" and "User_id" must not match.
	assert.Equal(t, []provider.Position{
		{Line: 0, Col: 0},
		{Line: 3, Col: 0},
	}, occs)
}

func TestOccurrencesColumns(t *testing.T) {
	src := "x := NewUser()\n\ty = NewUser()"
	occs := Occurrences(src, "NewUser")
	assert.Equal(t, []provider.Position{
		{Line: 0, Col: 5},
		{Line: 1, Col: 5},
	}, occs)
}

func TestCandidatesEmptyBody(t *testing.T) {
	assert.Empty(t, Candidates("", "f"))
	assert.Empty(t, CallCandidates("", "f"))
}
