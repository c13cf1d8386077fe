package statestore

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/argannor/gdbt/internal/provider"
	"github.com/argannor/gdbt/internal/resource"
)

func newFileBackend(t *testing.T) provider.StateProvider {
	t.Helper()
	reg, err := provider.NewRegistry(map[string]map[string]any{
		"state": {"kind": "file", "path": t.TempDir()},
	})
	require.NoError(t, err)
	backend, err := reg.State("state")
	require.NoError(t, err)
	return backend
}

func Test_Store_RoundTrip(t *testing.T) {
	store := NewStore(newFileBackend(t))
	ctx := context.Background()

	st := Empty("gr", "folder")
	st.ResourceMeta["f"] = resource.Meta{Grafana: "gr", UID: "u1", Kind: resource.KindFolder}
	require.NoError(t, store.Put(ctx, "gdbt", st))

	loaded, err := store.Get(ctx, "gdbt")
	require.NoError(t, err)
	require.NotNil(t, loaded)
	assert.Equal(t, CurrentVersion, loaded.StateVersion)
	assert.Equal(t, "u1", loaded.ResourceMeta["f"].UID)
}

func Test_Store_GetAbsentReturnsNil(t *testing.T) {
	store := NewStore(newFileBackend(t))
	loaded, err := store.Get(context.Background(), "missing")
	require.NoError(t, err)
	assert.Nil(t, loaded)
}

func Test_Store_RefusesWrongVersion(t *testing.T) {
	backend := newFileBackend(t)
	ctx := context.Background()
	require.NoError(t, backend.Put(ctx, "gdbt", []byte(`{"grafana":"g","kind":"folder","resource_meta":{},"state_version":1}`)))

	store := NewStore(backend)
	_, err := store.Get(ctx, "gdbt")
	assert.Error(t, err)
}

func Test_Store_RemoveIsIdempotent(t *testing.T) {
	store := NewStore(newFileBackend(t))
	ctx := context.Background()
	assert.NoError(t, store.Remove(ctx, "never-existed"))
}
