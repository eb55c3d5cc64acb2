package understory

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSweep_BundlePerFunction(t *testing.T) {
	m := testWorkspace()
	e := newTestEngine(t, m)

	bundles, err := e.Sweep(context.Background(), []string{"main.ts", "util.ts"})
	require.NoError(t, err)
	require.Len(t, bundles, 2)
	assert.Equal(t, "loadUser", bundles[0].Primary.Name)
	assert.Equal(t, "fetchUser", bundles[1].Primary.Name)
}

func TestSweep_SkipsFailingFiles(t *testing.T) {
	m := testWorkspace()
	m.FailFile("main.ts", assert.AnError)
	e := newTestEngine(t, m)

	bundles, err := e.Sweep(context.Background(), []string{"main.ts", "util.ts"})
	require.NoError(t, err)
	require.Len(t, bundles, 1)
	assert.Equal(t, "fetchUser", bundles[0].Primary.Name)
}

func TestSweep_FileWithoutFunctions(t *testing.T) {
	m := testWorkspace()
	m.AddFile("config.ts", "const retries = 3\n")
	e := newTestEngine(t, m)

	bundles, err := e.Sweep(context.Background(), []string{"config.ts"})
	require.NoError(t, err)
	require.Len(t, bundles, 1)
	assert.Equal(t, EntireDocumentName, bundles[0].Primary.Name)
}

func TestSweep_ConsolidatedWorkspaceContext(t *testing.T) {
	e := newTestEngine(t, testWorkspace())

	bundles, err := e.Sweep(context.Background(), []string{"main.ts", "util.ts"})
	require.NoError(t, err)

	out := Consolidate(bundles)
	require.NotNil(t, out.Primary)
	assert.Equal(t, "loadUser", out.Primary.Name)
	assert.Equal(t, "typescript", out.Language)
	assert.Contains(t, out.Excerpt, "loadUser")
	assert.Contains(t, out.Excerpt, "fetchUser")

	require.Len(t, out.Referenced, 1)
	assert.Equal(t, "fetchUser", out.Referenced[0].Name)

	assert.Equal(t, []string{"User", "Label", "Tag"}, typeNames(out.Types))
	assert.Contains(t, out.Touched, "main.ts")
	assert.Contains(t, out.Touched, "util.ts")
}
