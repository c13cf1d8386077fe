// Package resource implements the Grafana-facing side of GDBT's
// resource model: dashboards and folders, identified by a deterministic
// uid, CRUD'd through grafana-openapi-client-go and retried the way
// spec.md §7 requires for the server-error/not-found classes.
package resource

import (
	"context"

	gdbterrors "github.com/argannor/gdbt/internal/errors"
	"github.com/argannor/gdbt/internal/provider"
)

// Kind discriminates the two resource variants the data model supports.
type Kind string

const (
	KindDashboard Kind = "dashboard"
	KindFolder    Kind = "folder"
)

var ignoredModelFields = [...]string{"id", "uid", "version"}

// StripIgnoredFields removes the server-assigned fields GDBT never
// diffs or persists, matching the original's _model_strip/
// model_strip_fields.
func StripIgnoredFields(model map[string]any) map[string]any {
	stripped := make(map[string]any, len(model))
	for k, v := range model {
		stripped[k] = v
	}
	for _, field := range ignoredModelFields {
		delete(stripped, field)
	}
	return stripped
}

// Meta is the small, durable identity GDBT persists in state: enough
// to re-fetch the live resource without carrying its full model.
// Fields are declared in key order so the persisted JSON is sorted.
type Meta struct {
	Folder  string `json:"folder,omitempty"`
	Grafana string `json:"grafana"`
	Kind    Kind   `json:"kind"`
	UID     string `json:"uid"`
}

// Resource is a fully resolved dashboard or folder: its identity plus
// the model content used for diffing and for Create/Update calls.
type Resource interface {
	Meta() Meta
	Model() map[string]any
	Serialize() map[string]any
}

// Adapter performs the Grafana-side operations for one resource kind.
// Dashboard and Folder both implement it, dispatched by the planner on
// Meta.Kind.
type Adapter interface {
	Create(ctx context.Context, grafanaRef string, uid string, model map[string]any, folder string, providers *provider.Registry) (Resource, error)
	Get(ctx context.Context, grafanaRef string, uid string, providers *provider.Registry) (Resource, error)
	Exists(ctx context.Context, grafanaRef string, uid string, providers *provider.Registry) (bool, error)
	Update(ctx context.Context, res Resource, model map[string]any, providers *provider.Registry) error
	Delete(ctx context.Context, res Resource, providers *provider.Registry) error
}

// AdapterFor returns the Adapter implementing kind's CRUD operations.
func AdapterFor(kind Kind) (Adapter, error) {
	switch kind {
	case KindDashboard:
		return DashboardAdapter{}, nil
	case KindFolder:
		return FolderAdapter{}, nil
	default:
		return nil, gdbterrors.New(gdbterrors.CodeData, "unknown resource kind: "+string(kind))
	}
}

func grafanaClient(ctx context.Context, grafanaRef string, providers *provider.Registry) (*provider.GrafanaProvider, error) {
	p, err := providers.Get(grafanaRef)
	if err != nil {
		return nil, err
	}
	gp, ok := p.(*provider.GrafanaProvider)
	if !ok {
		return nil, gdbterrors.New(gdbterrors.CodeConfigFormatInvalid, grafanaRef+" is not a grafana provider")
	}
	return gp, nil
}
