// Package plan builds the resource-level plan from a structural diff
// and executes it against Grafana in the phased order spec.md §4.6
// requires, grounded on the original's StateDiff.outcomes/Plan.apply
// and the teacher's reconciler Create/Update/Delete call shapes.
package plan

import (
	"sort"

	"github.com/argannor/gdbt/internal/differ"
	"github.com/argannor/gdbt/internal/resource"
)

// Entry is one resource's planned change: its outcome plus the
// per-field changes that drove it.
type Entry struct {
	Name   string
	Kind   resource.Kind
	Folder string
	Action differ.Action
	Fields []differ.FieldOutcome
}

// Plan maps resource name to its planned Entry. Only resources with at
// least one field-level change are present; an empty Plan means "up
// to date".
type Plan map[string]*Entry

// Build diffs current against desired for every name in either map and
// keeps only resources with a non-empty outcome.
func Build(current, desired map[string]resource.Resource) Plan {
	names := map[string]bool{}
	for name := range current {
		names[name] = true
	}
	for name := range desired {
		names[name] = true
	}

	p := Plan{}
	for name := range names {
		cur, des := serializedOrEmpty(current[name]), serializedOrEmpty(desired[name])
		outcomes := differ.Diff(cur, des)
		action := differ.ResourceAction(outcomes)
		if action == "" {
			continue
		}
		kind, folder := resourceKind(current[name], desired[name])
		p[name] = &Entry{
			Name:   name,
			Kind:   kind,
			Folder: folder,
			Action: action,
			Fields: differ.Visible(outcomes),
		}
	}
	return p
}

func serializedOrEmpty(r resource.Resource) map[string]any {
	if r == nil {
		return map[string]any{}
	}
	return r.Serialize()
}

func resourceKind(current, desired resource.Resource) (resource.Kind, string) {
	if desired != nil {
		return desired.Meta().Kind, desired.Meta().Folder
	}
	if current != nil {
		return current.Meta().Kind, current.Meta().Folder
	}
	return "", ""
}

// HasChanges reports whether the plan contains any resource outcome.
func (p Plan) HasChanges() bool {
	return len(p) > 0
}

// Names returns the plan's resource names, sorted for stable display
// and iteration order.
func (p Plan) Names() []string {
	names := make([]string, 0, len(p))
	for name := range p {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// byAction groups a plan's entries by action, each group sorted by
// name, matching the original's sorted-heading render order.
func (p Plan) byAction(action differ.Action) []*Entry {
	var entries []*Entry
	for _, name := range p.Names() {
		if p[name].Action == action {
			entries = append(entries, p[name])
		}
	}
	return entries
}

// byActionAndKind further splits a group by resource kind, folders
// first, matching spec.md §4.5's "folder outcomes before dashboard
// outcomes" summary ordering.
func (p Plan) byActionAndKind(action differ.Action, kind resource.Kind) []*Entry {
	var entries []*Entry
	for _, e := range p.byAction(action) {
		if e.Kind == kind {
			entries = append(entries, e)
		}
	}
	return entries
}
