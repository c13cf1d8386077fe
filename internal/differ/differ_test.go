package differ

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func Test_Diff_NoDrift(t *testing.T) {
	current := map[string]any{"title": "A", "kind": "folder"}
	desired := map[string]any{"title": "A", "kind": "folder"}
	outcomes := Diff(current, desired)
	assert.Empty(t, outcomes)
}

func Test_Diff_FieldChanged(t *testing.T) {
	current := map[string]any{"title": "A"}
	desired := map[string]any{"title": "B"}
	outcomes := Diff(current, desired)
	assert.Len(t, outcomes, 1)
	assert.Equal(t, ActionChanged, outcomes[0].Action)
	assert.Equal(t, "title", outcomes[0].Path)
	assert.Equal(t, "A", outcomes[0].OldValue)
	assert.Equal(t, "B", outcomes[0].Value)
}

func Test_Diff_AllAddedIsCreate(t *testing.T) {
	current := map[string]any{}
	desired := map[string]any{"title": "T", "kind": "folder"}
	outcomes := Diff(current, desired)
	assert.Equal(t, ActionAdded, ResourceAction(outcomes))
}

func Test_Diff_AllRemovedIsRemove(t *testing.T) {
	current := map[string]any{"title": "T"}
	desired := map[string]any{}
	outcomes := Diff(current, desired)
	assert.Equal(t, ActionRemoved, ResourceAction(outcomes))
}

func Test_Diff_MixedIsUpdate(t *testing.T) {
	current := map[string]any{"title": "A", "tag": "old"}
	desired := map[string]any{"title": "B"}
	outcomes := Diff(current, desired)
	assert.Equal(t, ActionChanged, ResourceAction(outcomes))
}

func Test_Visible_SuppressesIgnoredPaths(t *testing.T) {
	current := map[string]any{"kind": "folder", "grafana": "g", "uid": "u", "folder": "f", "title": "A"}
	desired := map[string]any{"kind": "folder", "grafana": "g2", "uid": "u", "folder": "f2", "title": "B"}
	visible := Visible(Diff(current, desired))
	assert.Len(t, visible, 1)
	assert.Equal(t, "title", visible[0].Path)
}

func Test_Diff_ListIsOrderInsensitive(t *testing.T) {
	current := map[string]any{"panels": []any{"a", "b"}}
	desired := map[string]any{"panels": []any{"b", "a"}}
	assert.Empty(t, Diff(current, desired))
}

func Test_Diff_ListReportsAddRemove(t *testing.T) {
	current := map[string]any{"panels": []any{"a", "b"}}
	desired := map[string]any{"panels": []any{"a", "c"}}
	outcomes := Diff(current, desired)
	var added, removed int
	for _, o := range outcomes {
		switch o.Action {
		case ActionAdded:
			added++
		case ActionRemoved:
			removed++
		}
	}
	assert.Equal(t, 1, added)
	assert.Equal(t, 1, removed)
}

func Test_Diff_NestedMap(t *testing.T) {
	current := map[string]any{"model": map[string]any{"title": "A", "rows": float64(1)}}
	desired := map[string]any{"model": map[string]any{"title": "A", "rows": float64(2)}}
	outcomes := Diff(current, desired)
	assert.Len(t, outcomes, 1)
	assert.Equal(t, "model.rows", outcomes[0].Path)
}
