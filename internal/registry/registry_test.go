package registry

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewPreloadsBuiltinCatalog(t *testing.T) {
	reg := New("")
	assert.Equal(t, builtinDefaultModel, reg.Default())
	assert.Equal(t, len(builtinCatalog()), reg.Len())

	rec, ok := reg.Get("Claude-3.5-Haiku")
	require.True(t, ok)
	assert.Equal(t, SizeSmall, rec.Size)
	assert.True(t, rec.HasCapability(CapCodeGeneration))
	assert.False(t, rec.HasCapability(CapSecurity))
}

func TestNewRejectsUnknownDefault(t *testing.T) {
	reg := New("not-a-model")
	assert.Equal(t, builtinDefaultModel, reg.Default())

	reg = New("GPT-4o")
	assert.Equal(t, "GPT-4o", reg.Default())
}

func TestRegisterKeepsInsertionOrder(t *testing.T) {
	reg := Empty()
	for _, name := range []string{"c", "a", "b"} {
		reg.Register(Record{Name: name})
	}
	assert.Equal(t, []string{"c", "a", "b"}, reg.List())

	// re-registering updates in place without moving the entry
	reg.Register(Record{Name: "a", Provider: "acme"})
	assert.Equal(t, []string{"c", "a", "b"}, reg.List())
	rec, ok := reg.Get("a")
	require.True(t, ok)
	assert.Equal(t, "acme", rec.Provider)
}

func TestEmptyRegistryDefaultsToFirstRegistered(t *testing.T) {
	reg := Empty()
	assert.Equal(t, "", reg.Default())
	reg.Register(Record{Name: "first"})
	reg.Register(Record{Name: "second"})
	assert.Equal(t, "first", reg.Default())
}

func TestSetDefault(t *testing.T) {
	reg := New("")
	assert.False(t, reg.SetDefault("ghost"))
	assert.Equal(t, builtinDefaultModel, reg.Default())

	assert.True(t, reg.SetDefault("Claude-3.5-Opus"))
	assert.Equal(t, "Claude-3.5-Opus", reg.Default())
}

func TestFindByCapability(t *testing.T) {
	reg := New("")
	secure := reg.FindByCapability(CapSecurity)
	assert.Equal(t, []string{"Claude-3.7-Sonnet", "Claude-3.5-Opus"}, secure)
	assert.Empty(t, reg.FindByCapability("telepathy"))
}

func TestFindByCriteria(t *testing.T) {
	reg := New("")

	tests := []struct {
		name     string
		criteria Criteria
		want     []string
	}{
		{
			name:     "by provider",
			criteria: Criteria{Provider: "openai"},
			want:     []string{"GPT-4o"},
		},
		{
			name:     "by provider and size",
			criteria: Criteria{Provider: "anthropic", Size: SizeMedium},
			want:     []string{"Claude-3.7-Sonnet", "Claude-3.5-Sonnet"},
		},
		{
			name:     "by version",
			criteria: Criteria{Version: "3.5"},
			want:     []string{"Claude-3.5-Sonnet", "Claude-3.5-Haiku", "Claude-3.5-Opus"},
		},
		{
			name:     "no match",
			criteria: Criteria{Provider: "google"},
			want:     nil,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, reg.FindByCriteria(tt.criteria))
		})
	}
}

func TestAveragePerformance(t *testing.T) {
	assert.Zero(t, Record{}.AveragePerformance())
	rec := Record{Performance: map[string]float64{"a": 0.8, "b": 0.6}}
	assert.InDelta(t, 0.7, rec.AveragePerformance(), 1e-9)
}

const testCatalog = `
default_model: tiny
models:
  - name: big
    provider: acme
    size: large
    capabilities: [reasoning, code_generation]
    performance:
      quality: 0.9
    cost:
      output_tokens: 0.0001
  - name: tiny
    provider: acme
    size: small
    capabilities: [code_generation]
    performance:
      quality: 0.5
    cost:
      output_tokens: 0.000001
`

func writeCatalog(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "catalog.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestLoadFileReplacesCatalog(t *testing.T) {
	reg := New("")
	require.NoError(t, reg.LoadFile(writeCatalog(t, testCatalog)))

	assert.Equal(t, []string{"big", "tiny"}, reg.List())
	assert.Equal(t, "tiny", reg.Default())
	rec, ok := reg.Get("big")
	require.True(t, ok)
	assert.Equal(t, SizeLarge, rec.Size)
	assert.InDelta(t, 0.0001, rec.Cost.OutputTokens, 1e-12)
}

func TestLoadFileDefaultsToFirstModel(t *testing.T) {
	catalog := `
models:
  - name: only
    provider: acme
    size: medium
`
	reg := New("")
	require.NoError(t, reg.LoadFile(writeCatalog(t, catalog)))
	assert.Equal(t, "only", reg.Default())
}

func TestLoadFileRejectsBadCatalogs(t *testing.T) {
	tests := []struct {
		name    string
		content string
	}{
		{"empty", "models: []"},
		{"unnamed model", "models:\n  - provider: acme"},
		{"duplicate name", "models:\n  - name: x\n  - name: x"},
		{"unresolvable default", "default_model: ghost\nmodels:\n  - name: x"},
		{"malformed yaml", "models: ["},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			reg := New("")
			before := reg.List()
			require.Error(t, reg.LoadFile(writeCatalog(t, tt.content)))
			// a failed load must not disturb the current catalog
			assert.Equal(t, before, reg.List())
		})
	}
}

func TestLoadFileMissing(t *testing.T) {
	reg := New("")
	require.Error(t, reg.LoadFile(filepath.Join(t.TempDir(), "nope.yaml")))
}
