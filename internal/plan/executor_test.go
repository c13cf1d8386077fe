package plan

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/argannor/gdbt/internal/differ"
	gdbterrors "github.com/argannor/gdbt/internal/errors"
	"github.com/argannor/gdbt/internal/provider"
	"github.com/argannor/gdbt/internal/resource"
	"github.com/argannor/gdbt/internal/statestore"
)

func newExecutor(t *testing.T) *Executor {
	t.Helper()
	reg, err := provider.NewRegistry(map[string]map[string]any{
		"state": {"kind": "file", "path": t.TempDir()},
	})
	require.NoError(t, err)
	backend, err := reg.State("state")
	require.NoError(t, err)
	return &Executor{Providers: reg, Store: statestore.NewStore(backend), Concurrency: 2}
}

func Test_Execute_NoopPlanPersistsNothingAndSucceeds(t *testing.T) {
	e := newExecutor(t)
	err := e.Execute(context.Background(), Plan{}, map[string]resource.Resource{}, map[string]resource.Resource{}, "gdbt", "", "")
	assert.NoError(t, err)

	persisted, err := e.Store.Get(context.Background(), "gdbt")
	require.NoError(t, err)
	assert.Nil(t, persisted)
}

func Test_Execute_CreateAgainstMissingProviderFailsButPersistsPriorMeta(t *testing.T) {
	e := newExecutor(t)
	ctx := context.Background()

	// Seed the store with one already-applied folder, so we can assert
	// the failed create phase does not lose it from the persisted meta.
	seed := statestore.Empty("", "")
	seed.ResourceMeta["existing"] = resource.Meta{Grafana: "no-such-grafana", UID: "u0", Kind: resource.KindFolder}
	require.NoError(t, e.Store.Put(ctx, "gdbt", seed))

	desired := map[string]resource.Resource{
		"new-folder": resource.NewFolder("no-such-grafana", "u1", map[string]any{"title": "T"}),
	}
	p := Build(map[string]resource.Resource{}, desired)
	current := map[string]resource.Resource{
		"existing": resource.NewFolder("no-such-grafana", "u0", map[string]any{"title": "Old"}),
	}

	err := e.Execute(ctx, p, current, desired, "gdbt", "", "")
	assert.Error(t, err)

	persisted, err := e.Store.Get(ctx, "gdbt")
	require.NoError(t, err)
	require.NotNil(t, persisted)
	assert.Contains(t, persisted.ResourceMeta, "existing")
}

func Test_Execute_DeleteOfOrphanWithNoCurrentEntryIsNoop(t *testing.T) {
	e := newExecutor(t)
	ctx := context.Background()
	p := Plan{"ghost": &Entry{Name: "ghost", Kind: resource.KindFolder, Action: differ.ActionRemoved}}

	err := e.Execute(ctx, p, map[string]resource.Resource{}, map[string]resource.Resource{}, "gdbt", "", "")
	assert.NoError(t, err)
}

func Test_RunPhase_UnboundedWithZeroTimeout(t *testing.T) {
	e := &Executor{Concurrency: 1}
	entries := []*Entry{{Name: "a"}}
	results, err := e.runPhase(context.Background(), entries, func(ctx context.Context, entry *Entry) (resource.Meta, bool, error) {
		return resource.Meta{UID: "u"}, false, nil
	})
	require.NoError(t, err)
	assert.Contains(t, results, "a")
}

func Test_RunPhase_ExceedingTimeoutReturnsConcurrencyTimeout(t *testing.T) {
	e := &Executor{Concurrency: 1, Timeout: 10 * time.Millisecond}
	entries := []*Entry{{Name: "slow"}}
	_, err := e.runPhase(context.Background(), entries, func(ctx context.Context, entry *Entry) (resource.Meta, bool, error) {
		time.Sleep(100 * time.Millisecond)
		return resource.Meta{}, false, nil
	})
	require.Error(t, err)
	var gerr *gdbterrors.Error
	require.True(t, gdbterrors.As(err, &gerr))
	assert.Equal(t, gdbterrors.CodeConcurrencyTimeout, gerr.Code)
}

func Test_RunPhase_FinishingBeforeTimeoutSucceeds(t *testing.T) {
	e := &Executor{Concurrency: 2, Timeout: time.Second}
	entries := []*Entry{{Name: "a"}, {Name: "b"}}
	results, err := e.runPhase(context.Background(), entries, func(ctx context.Context, entry *Entry) (resource.Meta, bool, error) {
		return resource.Meta{UID: entry.Name}, false, nil
	})
	require.NoError(t, err)
	assert.Len(t, results, 2)
}
