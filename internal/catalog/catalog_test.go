package catalog

import (
	"testing"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func objSchema() map[string]any {
	return map[string]any{"type": "object"}
}

func TestNewRejectsMissingInputSchema(t *testing.T) {
	_, err := New("search", map[string]Descriptor{
		"query": {Description: "run a query"},
	})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "query")
}

func TestNewAcceptsValidDescriptors(t *testing.T) {
	c, err := New("search", map[string]Descriptor{
		"query": {Description: "run a query", InputSchema: objSchema()},
	})
	require.NoError(t, err)
	assert.Equal(t, "search", c.Server)
}

func TestLoadKeepsMalformedEntries(t *testing.T) {
	fsys := afero.NewMemMapFs()
	require.NoError(t, afero.WriteFile(fsys, "search.yaml", []byte(`
server: search
tools:
  query:
    description: run a query
    inputSchema:
      type: object
  legacy:
    description: schema never written down
`), 0o644))

	c, err := Load(fsys, "search.yaml")
	require.NoError(t, err)

	assert.True(t, c.Tools["query"].Valid())
	assert.False(t, c.Tools["legacy"].Valid(), "entry without inputSchema must be invalid, not dropped")
}

func TestLoadMissingServerName(t *testing.T) {
	fsys := afero.NewMemMapFs()
	require.NoError(t, afero.WriteFile(fsys, "bad.yaml", []byte("tools: {}\n"), 0o644))
	_, err := Load(fsys, "bad.yaml")
	require.Error(t, err)
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(afero.NewMemMapFs(), "nope.yaml")
	require.Error(t, err)
}

func TestDiffSymmetricDifference(t *testing.T) {
	// Live {a, b, c} vs catalog {a, b, d}: missing {c}, orphaned {d}.
	c := &Catalog{
		Server: "search",
		Tools: map[string]Descriptor{
			"a": {InputSchema: objSchema()},
			"b": {InputSchema: objSchema()},
			"d": {InputSchema: objSchema()},
		},
	}
	report := Diff(c, []string{"a", "b", "c"})

	assert.Equal(t, []string{"c"}, report.Missing)
	assert.Equal(t, []string{"d"}, report.Orphaned)
	assert.Empty(t, report.Malformed)
	assert.False(t, report.Clean())
}

func TestDiffMalformed(t *testing.T) {
	c := &Catalog{
		Server: "search",
		Tools: map[string]Descriptor{
			"good": {InputSchema: objSchema()},
			"bad":  {Description: "no schema"},
		},
	}
	report := Diff(c, []string{"good", "bad"})

	assert.Equal(t, []string{"bad"}, report.Malformed)
	assert.Empty(t, report.Missing)
	assert.Empty(t, report.Orphaned)
}

func TestDiffClean(t *testing.T) {
	c := &Catalog{
		Server: "search",
		Tools:  map[string]Descriptor{"a": {InputSchema: objSchema()}},
	}
	report := Diff(c, []string{"a"})
	assert.True(t, report.Clean())
}

func TestDiffOrderedOutput(t *testing.T) {
	c := &Catalog{Server: "s", Tools: map[string]Descriptor{}}
	report := Diff(c, []string{"zeta", "alpha", "mid"})
	assert.Equal(t, []string{"alpha", "mid", "zeta"}, report.Missing)
}
