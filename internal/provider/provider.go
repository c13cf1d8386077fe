// Package provider implements GDBT's provider registry: a tagged union
// of backends (file, s3, consul, http, grafana, prometheus) built from
// the "kind" field of each [providers.<name>] table in config.toml.
package provider

import (
	"context"

	gdbterrors "github.com/argannor/gdbt/internal/errors"
)

// Provider is the root of the tagged union. Every concrete provider
// embeds its table's name for error messages.
type Provider interface {
	Name() string
	Kind() string
}

// EvaluationProvider answers dynamic queries used by evaluations, e.g.
// a Prometheus instant query.
type EvaluationProvider interface {
	Provider
	Query(ctx context.Context, query string) ([]any, error)
}

// StateProvider persists one or more named resource-group state
// documents, and optionally serializes as an advisory lock around
// apply. "name" identifies a resource group within the backend;
// file-like backends suffix it with ".json".
type StateProvider interface {
	Provider
	List(ctx context.Context, subdir string) ([]string, error)
	Get(ctx context.Context, name string) ([]byte, error)
	Put(ctx context.Context, name string, content []byte) error
	Remove(ctx context.Context, name string) error
	Lock(ctx context.Context, name string) error
	Unlock(ctx context.Context, name string) error
}

// GrafanaClientProvider exposes the endpoint and token of a Grafana
// instance; a client is built from them per use.
type GrafanaClientProvider interface {
	Provider
	Endpoint() string
	Token() string
}

// Registry resolves provider names (as referenced by stencils, state
// config, and lookups) to concrete providers built from config tables.
type Registry struct {
	providers map[string]Provider
	tables    map[string]map[string]any
}

// NewRegistry builds every provider table in tables, dispatching on its
// "kind" discriminant the way the original's @deserialize.downcast_field
// does.
func NewRegistry(tables map[string]map[string]any) (*Registry, error) {
	reg := &Registry{providers: map[string]Provider{}, tables: tables}
	for name, table := range tables {
		kind, _ := table["kind"].(string)
		p, err := build(name, kind, table)
		if err != nil {
			return nil, err
		}
		reg.providers[name] = p
	}
	return reg, nil
}

func build(name, kind string, table map[string]any) (Provider, error) {
	switch kind {
	case "file":
		return newFileProvider(name, table)
	case "s3":
		return newS3Provider(name, table)
	case "consul":
		return newConsulProvider(name, table)
	case "http":
		return newHTTPProvider(name, table)
	case "grafana":
		return newGrafanaProvider(name, table)
	case "prometheus":
		return newPrometheusProvider(name, table)
	default:
		return nil, gdbterrors.New(gdbterrors.CodeConfigFormatInvalid, "unknown provider kind: "+kind)
	}
}

// Tables exposes every provider's raw config table (name -> {kind,
// endpoint, ...}), matching the original's configuration.providers
// dict so model templates can reference {$ .providers.<name>.<field> $}.
func (r *Registry) Tables() map[string]map[string]any {
	return r.tables
}

// Get looks up a provider by name.
func (r *Registry) Get(name string) (Provider, error) {
	p, ok := r.providers[name]
	if !ok {
		return nil, gdbterrors.ProviderNotFound(name)
	}
	return p, nil
}

// State resolves name as a StateProvider, erroring if the named
// provider does not implement state storage.
func (r *Registry) State(name string) (StateProvider, error) {
	p, err := r.Get(name)
	if err != nil {
		return nil, err
	}
	sp, ok := p.(StateProvider)
	if !ok {
		return nil, gdbterrors.New(gdbterrors.CodeConfigFormatInvalid, name+" is not a state provider")
	}
	return sp, nil
}

// Evaluation resolves name as an EvaluationProvider.
func (r *Registry) Evaluation(name string) (EvaluationProvider, error) {
	p, err := r.Get(name)
	if err != nil {
		return nil, err
	}
	ep, ok := p.(EvaluationProvider)
	if !ok {
		return nil, gdbterrors.New(gdbterrors.CodeConfigFormatInvalid, name+" is not an evaluation provider")
	}
	return ep, nil
}

// Grafana resolves name as a GrafanaClientProvider.
func (r *Registry) Grafana(name string) (GrafanaClientProvider, error) {
	p, err := r.Get(name)
	if err != nil {
		return nil, err
	}
	gp, ok := p.(GrafanaClientProvider)
	if !ok {
		return nil, gdbterrors.New(gdbterrors.CodeConfigFormatInvalid, name+" is not a grafana provider")
	}
	return gp, nil
}

func stringField(table map[string]any, key string) string {
	if v, ok := table[key].(string); ok {
		return v
	}
	return ""
}

func floatField(table map[string]any, key string, fallback float64) float64 {
	switch v := table[key].(type) {
	case float64:
		return v
	case int64:
		return float64(v)
	case int:
		return float64(v)
	default:
		return fallback
	}
}
