package plan

import (
	"context"
	"fmt"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/argannor/gdbt/internal/differ"
	gdbterrors "github.com/argannor/gdbt/internal/errors"
	"github.com/argannor/gdbt/internal/provider"
	"github.com/argannor/gdbt/internal/resource"
	"github.com/argannor/gdbt/internal/statestore"
)

// Executor applies a Plan against Grafana in the phased order spec.md
// §4.6 requires, persisting state after each phase so a crash mid-apply
// leaves the store consistent with the last completed transition.
type Executor struct {
	Providers   *provider.Registry
	Store       *statestore.Store
	Concurrency int
	// Timeout bounds how long one phase's worker pool may run before
	// runPhase gives up waiting, per spec.md §5 ("timeout per wait =
	// concurrency.timeout"). Zero means no bound.
	Timeout time.Duration
}

// Execute runs every phase in order: creates(folders) ->
// creates(dashboards) -> updates -> deletes(dashboards) ->
// deletes(folders). current/desired are keyed by resource name; group
// and grafanaRef/kindLabel identify the state document to persist.
// POSIX termination signals are masked for the duration of the call.
func (e *Executor) Execute(ctx context.Context, p Plan, current, desired map[string]resource.Resource, group, grafanaRef, kindLabel string) error {
	signal.Ignore(syscall.SIGHUP, syscall.SIGINT, syscall.SIGQUIT, syscall.SIGTERM)
	defer signal.Reset(syscall.SIGHUP, syscall.SIGINT, syscall.SIGQUIT, syscall.SIGTERM)

	meta := map[string]resource.Meta{}
	for name, r := range current {
		meta[name] = r.Meta()
	}

	phases := []struct {
		entries []*Entry
		run     func(context.Context, *Entry) (resource.Meta, bool, error)
	}{
		{p.byActionAndKind(differ.ActionAdded, resource.KindFolder), e.create(desired)},
		{p.byActionAndKind(differ.ActionAdded, resource.KindDashboard), e.create(desired)},
		{p.byAction(differ.ActionChanged), e.update(current, desired)},
		{p.byActionAndKind(differ.ActionRemoved, resource.KindDashboard), e.delete(current)},
		{p.byActionAndKind(differ.ActionRemoved, resource.KindFolder), e.delete(current)},
	}

	for _, phase := range phases {
		if len(phase.entries) == 0 {
			continue
		}
		results, err := e.runPhase(ctx, phase.entries, phase.run)
		for name, res := range results {
			if res.removed {
				delete(meta, name)
			} else {
				meta[name] = res.meta
			}
		}
		if persistErr := e.persist(ctx, group, grafanaRef, kindLabel, meta); persistErr != nil && err == nil {
			err = persistErr
		}
		if err != nil {
			return err
		}
	}
	return nil
}

type phaseResult struct {
	meta    resource.Meta
	removed bool
}

// runPhase applies run to every entry in a bounded worker pool, one
// task per resource. Tasks within a phase run concurrently; the first
// error is returned after every task has been awaited, so completed
// tasks stay applied per spec.md §4.6. The wait itself is bounded by
// e.Timeout (concurrency.timeout): if workers haven't drained by then,
// runPhase returns whatever results landed so far alongside a
// ConcurrencyTimeout error, per spec.md §5.
func (e *Executor) runPhase(ctx context.Context, entries []*Entry, run func(context.Context, *Entry) (resource.Meta, bool, error)) (map[string]phaseResult, error) {
	workers := e.Concurrency
	if workers < 1 {
		workers = 1
	}
	if workers > len(entries) {
		workers = len(entries)
	}

	type job struct{ entry *Entry }
	jobs := make(chan job, len(entries))
	for _, entry := range entries {
		jobs <- job{entry}
	}
	close(jobs)

	results := make(map[string]phaseResult, len(entries))
	var mu sync.Mutex
	var firstErr error
	var wg sync.WaitGroup

	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := range jobs {
				m, removed, err := run(ctx, j.entry)
				mu.Lock()
				if err != nil {
					if firstErr == nil {
						firstErr = err
					}
				} else {
					results[j.entry.Name] = phaseResult{meta: m, removed: removed}
				}
				mu.Unlock()
			}
		}()
	}

	done := make(chan struct{})
	go func() {
		wg.Wait()
		close(done)
	}()

	if e.Timeout > 0 {
		select {
		case <-done:
		case <-time.After(e.Timeout):
			mu.Lock()
			defer mu.Unlock()
			snapshot := make(map[string]phaseResult, len(results))
			for name, res := range results {
				snapshot[name] = res
			}
			return snapshot, gdbterrors.ConcurrencyTimeout(
				fmt.Sprintf("phase did not finish within %s", e.Timeout))
		}
	} else {
		<-done
	}
	return results, firstErr
}

func (e *Executor) create(desired map[string]resource.Resource) func(context.Context, *Entry) (resource.Meta, bool, error) {
	return func(ctx context.Context, entry *Entry) (resource.Meta, bool, error) {
		des, ok := desired[entry.Name]
		if !ok {
			return resource.Meta{}, false, gdbterrors.DataError(entry.Name + ": create planned but no desired resource")
		}
		adapter, err := resource.AdapterFor(entry.Kind)
		if err != nil {
			return resource.Meta{}, false, err
		}
		created, err := adapter.Create(ctx, des.Meta().Grafana, des.Meta().UID, des.Model(), des.Meta().Folder, e.Providers)
		if err != nil {
			return resource.Meta{}, false, err
		}
		return created.Meta(), false, nil
	}
}

func (e *Executor) update(current, desired map[string]resource.Resource) func(context.Context, *Entry) (resource.Meta, bool, error) {
	return func(ctx context.Context, entry *Entry) (resource.Meta, bool, error) {
		cur, ok := current[entry.Name]
		if !ok {
			return resource.Meta{}, false, gdbterrors.DataError(entry.Name + ": update planned but no current resource")
		}
		des, ok := desired[entry.Name]
		if !ok {
			return resource.Meta{}, false, gdbterrors.DataError(entry.Name + ": update planned but no desired resource")
		}
		adapter, err := resource.AdapterFor(entry.Kind)
		if err != nil {
			return resource.Meta{}, false, err
		}
		if err := adapter.Update(ctx, cur, des.Model(), e.Providers); err != nil {
			return resource.Meta{}, false, err
		}
		return des.Meta(), false, nil
	}
}

func (e *Executor) delete(current map[string]resource.Resource) func(context.Context, *Entry) (resource.Meta, bool, error) {
	return func(ctx context.Context, entry *Entry) (resource.Meta, bool, error) {
		cur, ok := current[entry.Name]
		if !ok {
			return resource.Meta{}, true, nil
		}
		adapter, err := resource.AdapterFor(entry.Kind)
		if err != nil {
			return resource.Meta{}, false, err
		}
		if err := adapter.Delete(ctx, cur, e.Providers); err != nil {
			return resource.Meta{}, false, err
		}
		return resource.Meta{}, true, nil
	}
}

func (e *Executor) persist(ctx context.Context, group, grafanaRef, kindLabel string, meta map[string]resource.Meta) error {
	st := statestore.Empty(grafanaRef, kindLabel)
	st.ResourceMeta = meta
	return e.Store.Put(ctx, group, st)
}
