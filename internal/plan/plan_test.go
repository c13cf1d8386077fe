package plan

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/argannor/gdbt/internal/differ"
	"github.com/argannor/gdbt/internal/resource"
)

func Test_Build_EmptyToOneFolderCreate(t *testing.T) {
	desired := map[string]resource.Resource{
		"f": resource.NewFolder("gr", "u1", map[string]any{"title": "T"}),
	}
	p := Build(map[string]resource.Resource{}, desired)

	assert.True(t, p.HasChanges())
	assert.Equal(t, differ.ActionAdded, p["f"].Action)
	assert.Equal(t, resource.KindFolder, p["f"].Kind)
}

func Test_Build_NoDrift(t *testing.T) {
	res := resource.NewFolder("gr", "u1", map[string]any{"title": "T"})
	current := map[string]resource.Resource{"f": res}
	desired := map[string]resource.Resource{"f": res}
	p := Build(current, desired)
	assert.False(t, p.HasChanges())
}

func Test_Build_TitleUpdate(t *testing.T) {
	current := map[string]resource.Resource{
		"f": resource.NewFolder("gr", "u1", map[string]any{"title": "Old"}),
	}
	desired := map[string]resource.Resource{
		"f": resource.NewFolder("gr", "u1", map[string]any{"title": "New"}),
	}
	p := Build(current, desired)
	assert.Equal(t, differ.ActionChanged, p["f"].Action)
	assert.Len(t, p["f"].Fields, 1)
	assert.Equal(t, "model.title", p["f"].Fields[0].Path)
}

func Test_Build_OrphanIsRemove(t *testing.T) {
	current := map[string]resource.Resource{
		"f": resource.NewFolder("gr", "u1", map[string]any{"title": "T"}),
	}
	p := Build(current, map[string]resource.Resource{})
	assert.Equal(t, differ.ActionRemoved, p["f"].Action)
}

func Test_Plan_ByActionAndKind_FoldersBeforeDashboardsInCreateOrder(t *testing.T) {
	desired := map[string]resource.Resource{
		"d": resource.NewDashboard("gr", "ud", map[string]any{"title": "D"}, "uf"),
		"f": resource.NewFolder("gr", "uf", map[string]any{"title": "F"}),
	}
	p := Build(map[string]resource.Resource{}, desired)

	folders := p.byActionAndKind(differ.ActionAdded, resource.KindFolder)
	dashboards := p.byActionAndKind(differ.ActionAdded, resource.KindDashboard)
	assert.Len(t, folders, 1)
	assert.Len(t, dashboards, 1)
	assert.Equal(t, "f", folders[0].Name)
	assert.Equal(t, "d", dashboards[0].Name)
}

func Test_Render_UpToDate(t *testing.T) {
	assert.Equal(t, "Dashboards are up to date!", Render(Plan{}))
}

func Test_Render_IncludesHeadingAndField(t *testing.T) {
	desired := map[string]resource.Resource{
		"f": resource.NewFolder("gr", "u1", map[string]any{"title": "T"}),
	}
	p := Build(map[string]resource.Resource{}, desired)
	out := Render(p)
	assert.Contains(t, out, "Folder")
	assert.Contains(t, out, "f")
	assert.Contains(t, out, "title")
}
