// Package app wires GDBT's components together into the operations the
// CLI exposes: validate, plan, apply, destroy. Grounded on the
// original's cli.py command bodies (load config -> load resources ->
// resolve -> load state -> diff -> act), generalized from its
// single-shot synchronous flow to the meta-only/live-refetch model
// spec.md §9 makes authoritative.
package app

import (
	"context"
	"fmt"
	"time"

	"github.com/go-logr/logr"

	"github.com/argannor/gdbt/internal/config"
	gdbterrors "github.com/argannor/gdbt/internal/errors"
	"github.com/argannor/gdbt/internal/liveload"
	"github.com/argannor/gdbt/internal/plan"
	"github.com/argannor/gdbt/internal/provider"
	"github.com/argannor/gdbt/internal/resolver"
	"github.com/argannor/gdbt/internal/resource"
	"github.com/argannor/gdbt/internal/statestore"
)

// stateGroup names the single state document a run persists to. GDBT
// does not partition resources across multiple state documents; every
// stencil in scope contributes to the one group.
const stateGroup = "gdbt"

// App holds everything one CLI invocation needs after config/provider
// loading.
type App struct {
	Log       logr.Logger
	Scope     string
	Update    bool
	Config    *config.Config
	Providers *provider.Registry
	Store     *statestore.Store
}

// Load discovers config, builds the provider registry, and opens the
// state store backend named by config.State.Provider.
func Load(log logr.Logger, scope string, update bool) (*App, error) {
	cfg, err := config.Load(scope)
	if err != nil {
		return nil, err
	}
	providers, err := provider.NewRegistry(cfg.Providers)
	if err != nil {
		return nil, err
	}
	backend, err := providers.State(cfg.State.Provider)
	if err != nil {
		return nil, err
	}
	return &App{
		Log:       log,
		Scope:     scope,
		Update:    update,
		Config:    cfg,
		Providers: providers,
		Store:     statestore.NewStore(backend),
	}, nil
}

// Resolve loads every stencil under the scope and expands each into its
// desired resources, matching the original's load_resources + per-
// stencil Template.resolve loop.
func (a *App) Resolve(ctx context.Context) (map[string]resource.Resource, error) {
	stencils, paths, err := resolver.LoadStencils(a.Scope)
	if err != nil {
		return nil, err
	}

	r := resolver.NewResolver(a.Providers, a.Update)
	desired := map[string]resource.Resource{}
	for tag, stencil := range stencils {
		a.Log.V(1).Info("resolving stencil", "tag", tag)
		resolved, err := r.Resolve(ctx, tag, paths[tag], stencil)
		if err != nil {
			return nil, err
		}
		for name, res := range resolved {
			desired[name] = res
		}
	}
	return desired, nil
}

// currentState loads the persisted meta and live-refetches every
// resource it names, tolerating resources that vanished remotely.
func (a *App) currentState(ctx context.Context) (map[string]resource.Resource, error) {
	st, err := a.Store.Get(ctx, stateGroup)
	if err != nil {
		return nil, err
	}
	if st == nil {
		return map[string]resource.Resource{}, nil
	}
	return liveload.Load(ctx, st.ResourceMeta, a.Providers, a.Config.Concurrency.Threads)
}

// Plan resolves the desired resources, live-loads the current ones,
// and diffs them into a plan.Plan, returning the plan together with the
// current and desired resource sets it was built from.
func (a *App) Plan(ctx context.Context) (plan.Plan, map[string]resource.Resource, map[string]resource.Resource, error) {
	desired, err := a.Resolve(ctx)
	if err != nil {
		return nil, nil, nil, err
	}
	current, err := a.currentState(ctx)
	if err != nil {
		return nil, nil, nil, err
	}
	return plan.Build(current, desired), current, desired, nil
}

// PlanDestroy diffs the current state against an empty desired set, so
// every live resource is planned for removal.
func (a *App) PlanDestroy(ctx context.Context) (plan.Plan, map[string]resource.Resource, error) {
	current, err := a.currentState(ctx)
	if err != nil {
		return nil, nil, err
	}
	return plan.Build(current, map[string]resource.Resource{}), current, nil
}

// Apply executes p against Grafana and persists the resulting state,
// timing the run the way the original's apply command reports duration.
func (a *App) Apply(ctx context.Context, p plan.Plan, current, desired map[string]resource.Resource) (time.Duration, error) {
	executor := &plan.Executor{
		Providers:   a.Providers,
		Store:       a.Store,
		Concurrency: a.Config.Concurrency.Threads,
		Timeout:     time.Duration(a.Config.Concurrency.Timeout * float64(time.Second)),
	}
	start := time.Now()
	err := executor.Execute(ctx, p, current, desired, stateGroup, "", "")
	return time.Since(start), err
}

// Validate resolves every stencil without touching the state store or
// Grafana, surfacing configuration and template errors early.
func (a *App) Validate(ctx context.Context) error {
	_, err := a.Resolve(ctx)
	return err
}

// RenderErr formats err the way spec.md §7 requires:
// "[ERROR] [code]: message: details".
func RenderErr(err error) string {
	var gerr *gdbterrors.Error
	if gdbterrors.As(err, &gerr) {
		return gerr.Render()
	}
	return fmt.Sprintf("[ERROR] %s", err.Error())
}
