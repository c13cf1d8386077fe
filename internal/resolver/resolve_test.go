package resolver

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/argannor/gdbt/internal/eval"
	"github.com/argannor/gdbt/internal/provider"
	"github.com/argannor/gdbt/internal/resource"
)

func Test_FormatUID_IsDeterministic(t *testing.T) {
	assert.Equal(t, FormatUID("team/overview"), FormatUID("team/overview"))
	assert.NotEqual(t, FormatUID("team/overview"), FormatUID("team/other"))
}

func Test_FormatUID_HasExpectedPrefix(t *testing.T) {
	uid := FormatUID("x")
	assert.Equal(t, "gdbt_", uid[:5])
	assert.Len(t, uid, 5+32)
}

func Test_ParseStencil_Folder(t *testing.T) {
	data := []byte("kind: folder\nprovider: grafana\nmodel: |\n  {\"title\": \"Team\"}\n")
	stencil, err := parseStencil(data)
	require.NoError(t, err)
	assert.Equal(t, resource.KindFolder, stencil.Kind)
	assert.Equal(t, "grafana", stencil.Provider)
}

func Test_ParseStencil_UnknownKindErrors(t *testing.T) {
	_, err := parseStencil([]byte("kind: datasource\n"))
	assert.Error(t, err)
}

func Test_ParseStencil_DashboardRequiresFolder(t *testing.T) {
	data := []byte("kind: dashboard\nprovider: grafana\nmodel: |\n  {\"title\": \"Team\"}\n")
	_, err := parseStencil(data)
	assert.Error(t, err)
}

func Test_ParseStencil_DashboardWithFolder(t *testing.T) {
	data := []byte("kind: dashboard\nprovider: grafana\nfolder: team\nmodel: |\n  {\"title\": \"Team\"}\n")
	stencil, err := parseStencil(data)
	require.NoError(t, err)
	assert.Equal(t, resource.KindDashboard, stencil.Kind)
	assert.Equal(t, "team", stencil.Folder)
}

func Test_Resolve_NoLoopProducesOneResource(t *testing.T) {
	dir := t.TempDir()
	stencil := &Stencil{
		Kind:     resource.KindFolder,
		Provider: "gr",
		Grafana:  "gr",
		Model:    `{"title": "{$ .lookups.name $}"}`,
		Lookups:  map[string]any{"name": "Team"},
	}
	r := NewResolver(&provider.Registry{}, false)
	resources, err := r.Resolve(context.Background(), "team", filepath.Join(dir, "team.yaml"), stencil)
	require.NoError(t, err)
	require.Len(t, resources, 1)
	res := resources["team"]
	assert.Equal(t, "Team", res.Model()["title"])
}

func Test_Resolve_ModelCanReferenceProviderTable(t *testing.T) {
	dir := t.TempDir()
	reg, err := provider.NewRegistry(map[string]map[string]any{
		"gr": {"kind": "grafana", "endpoint": "https://grafana.example.com"},
	})
	require.NoError(t, err)

	stencil := &Stencil{
		Kind:     resource.KindFolder,
		Provider: "gr",
		Grafana:  "gr",
		Model:    `{"title": "{$ .providers.gr.endpoint $}"}`,
	}
	r := NewResolver(reg, false)
	resources, err := r.Resolve(context.Background(), "team", filepath.Join(dir, "team.yaml"), stencil)
	require.NoError(t, err)
	assert.Equal(t, "https://grafana.example.com", resources["team"].Model()["title"])
}

func Test_Resolve_LoopExpandsPerItem(t *testing.T) {
	dir := t.TempDir()
	stencil := &Stencil{
		Kind:     resource.KindFolder,
		Provider: "gr",
		Grafana:  "gr",
		Loop:     "lookups.envs",
		Model:    `{"title": "env-{$ .loop.item $}"}`,
		Lookups:  map[string]any{"envs": []any{"stg", "prd"}},
	}
	r := NewResolver(&provider.Registry{}, false)
	resources, err := r.Resolve(context.Background(), "name", filepath.Join(dir, "name.yaml"), stencil)
	require.NoError(t, err)
	require.Len(t, resources, 2)
	assert.Contains(t, resources, "name:stg")
	assert.Contains(t, resources, "name:prd")
}

func Test_Evaluate_CacheHitSkipsProvider(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "group.yaml")
	stencil := &Stencil{
		Evaluations: map[string]map[string]any{
			"hosts": {"source": "prom", "metric": "up", "label": "instance"},
		},
	}
	r := NewResolver(&provider.Registry{}, false)

	hash := eval.NewPrometheusEvaluation("prom", "up", "instance").Hash()
	lockPath := filepath.Join(dir, "group.lock")
	lockContent := `{"hosts": {"data": ["a", "b"], "hash": "` + hash + `"}}`
	require.NoError(t, os.WriteFile(lockPath, []byte(lockContent), 0o644))

	resolved, err := r.evaluate(context.Background(), path, stencil)
	require.NoError(t, err)
	assert.Equal(t, []any{"a", "b"}, resolved["hosts"])
}
