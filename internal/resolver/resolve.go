package resolver

import (
	"bytes"
	"context"
	"crypto/md5"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"text/template"

	gdbterrors "github.com/argannor/gdbt/internal/errors"
	"github.com/argannor/gdbt/internal/eval"
	"github.com/argannor/gdbt/internal/provider"
	"github.com/argannor/gdbt/internal/resource"
)

const (
	templateDelimLeft  = "{$"
	templateDelimRight = "$}"
)

// Resolver expands named stencils into resources against a provider
// registry, caching evaluation results in one Lock per stencil group.
type Resolver struct {
	Providers *provider.Registry
	Update    bool // force re-evaluation, bypassing the lock cache
}

func NewResolver(providers *provider.Registry, update bool) *Resolver {
	return &Resolver{Providers: providers, Update: update}
}

// Resolve expands one named stencil (backed by the file at path) into
// zero or more resources, one per loop item (or exactly one if the
// stencil has no loop), grounded on Template.resolve.
func (r *Resolver) Resolve(ctx context.Context, name, path string, stencil *Stencil) (map[string]resource.Resource, error) {
	evaluations, err := r.evaluate(ctx, path, stencil)
	if err != nil {
		return nil, err
	}

	items, err := r.loopItems(stencil, evaluations)
	if err != nil {
		return nil, err
	}

	resources := map[string]resource.Resource{}
	for _, item := range items {
		resourceName := name
		if item != nil {
			resourceName = fmt.Sprintf("%s:%v", name, item)
		}
		uid := FormatUID(resourceName)

		rendered, err := renderModel(stencil.Model, r.Providers.Tables(), evaluations, stencil.Lookups, item)
		if err != nil {
			return nil, err
		}
		var modelMap map[string]any
		if err := json.Unmarshal([]byte(rendered), &modelMap); err != nil {
			return nil, gdbterrors.Wrap(gdbterrors.CodeData, err, resourceName)
		}

		switch stencil.Kind {
		case resource.KindDashboard:
			folderUID := FormatUID(stencil.Folder)
			resources[resourceName] = resource.NewDashboard(stencil.Grafana, uid, modelMap, folderUID)
		case resource.KindFolder:
			resources[resourceName] = resource.NewFolder(stencil.Grafana, uid, modelMap)
		}
	}
	return resources, nil
}

// loopItems returns a single nil item for stencils without a loop, or
// every entry in the dpath-resolved iterable otherwise.
func (r *Resolver) loopItems(stencil *Stencil, evaluations map[string]any) ([]any, error) {
	if stencil.Loop == "" {
		return []any{nil}, nil
	}
	namespace := map[string]any{
		"evaluations": evaluations,
		"lookups":     stencil.Lookups,
	}
	v, err := get(namespace, stencil.Loop)
	if err != nil {
		return nil, err
	}
	return asIterable(stencil.Loop, v)
}

// evaluate resolves every named evaluation in stencil, consulting the
// lock cache first and falling back to a live provider query, matching
// Template.resolve_vars.
func (r *Resolver) evaluate(ctx context.Context, path string, stencil *Stencil) (map[string]any, error) {
	resolved := map[string]any{}
	hashes := map[string]string{}
	lock := eval.NewLock(path)
	dirty := false

	for evalName, table := range stencil.Evaluations {
		source, _ := table["source"].(string)
		evaluation, err := eval.FromConfig(source, table)
		if err != nil {
			return nil, err
		}
		hash := evaluation.Hash()
		hashes[evalName] = hash

		value, ok := lock.Load(evalName, hash)
		if !ok || r.Update {
			evalProvider, err := r.Providers.Evaluation(source)
			if err != nil {
				return nil, err
			}
			value, err = evaluation.Evaluate(ctx, evalProvider)
			if err != nil {
				return nil, err
			}
			dirty = true
		}
		resolved[evalName] = value
	}

	if dirty {
		if err := lock.Dump(resolved, hashes); err != nil {
			return nil, err
		}
	}
	return resolved, nil
}

// renderModel renders a stencil's model template with {$ ... $}
// delimiters, exposing providers/evaluations/lookups/loop.item, matching
// Model.render (providers=configuration.providers in the original).
func renderModel(src string, providers map[string]map[string]any, evaluations map[string]any, lookups map[string]any, loopItem any) (string, error) {
	tmpl, err := template.New("model").Delims(templateDelimLeft, templateDelimRight).Parse(src)
	if err != nil {
		return "", gdbterrors.Wrap(gdbterrors.CodeConfigFormatInvalid, err, "")
	}
	data := map[string]any{
		"providers":   providers,
		"evaluations": evaluations,
		"lookups":     lookups,
		"loop":        map[string]any{"item": loopItem},
	}
	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, data); err != nil {
		return "", gdbterrors.Wrap(gdbterrors.CodeData, err, "")
	}
	return buf.String(), nil
}

// FormatUID derives a resource's uid from its fully-qualified name,
// matching the original's format_uid: "gdbt_" + md5(name).
func FormatUID(name string) string {
	sum := md5.Sum([]byte(name))
	return "gdbt_" + hex.EncodeToString(sum[:])
}
