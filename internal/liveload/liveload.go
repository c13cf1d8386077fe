// Package liveload re-fetches the live Grafana state for every
// resource meta entry persisted in a group's state, bounded by a
// worker pool, the way spec.md §4.3 requires so the differ always
// compares against reality rather than stale state.
package liveload

import (
	"context"
	"sync"

	gdbterrors "github.com/argannor/gdbt/internal/errors"
	"github.com/argannor/gdbt/internal/provider"
	"github.com/argannor/gdbt/internal/resource"
)

// job and result pair a resource name with its meta/outcome, the shape
// adapted from the worker-pool pattern used for bounded Grafana
// refetch fan-out in the broader example pack.
type job struct {
	name string
	meta resource.Meta
}

type result struct {
	name string
	res  resource.Resource
	err  error
}

// Load fetches every entry in metas from Grafana concurrently, bounded
// by concurrency workers. A GrafanaResourceNotFound for one entry is
// tolerated (the resource is omitted, not an error); any other error
// aborts the whole load.
func Load(ctx context.Context, metas map[string]resource.Meta, providers *provider.Registry, concurrency int) (map[string]resource.Resource, error) {
	if concurrency < 1 {
		concurrency = 1
	}

	jobs := make(chan job, len(metas))
	results := make(chan result, len(metas))

	var wg sync.WaitGroup
	for i := 0; i < concurrency; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := range jobs {
				adapter, err := resource.AdapterFor(j.meta.Kind)
				if err != nil {
					results <- result{name: j.name, err: err}
					continue
				}
				res, err := adapter.Get(ctx, j.meta.Grafana, j.meta.UID, providers)
				results <- result{name: j.name, res: res, err: err}
			}
		}()
	}

	for name, meta := range metas {
		jobs <- job{name: name, meta: meta}
	}
	close(jobs)

	go func() {
		wg.Wait()
		close(results)
	}()

	current := make(map[string]resource.Resource, len(metas))
	for r := range results {
		if r.err != nil {
			var gerr *gdbterrors.Error
			if gdbterrors.As(r.err, &gerr) && gerr.Code == gdbterrors.CodeGrafanaResourceNotFound {
				continue
			}
			return nil, r.err
		}
		current[r.name] = r.res
	}
	return current, nil
}
