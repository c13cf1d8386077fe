// Package differ computes a structural, order-insensitive diff between
// two serialized resource trees (plain JSON-shaped map[string]any),
// grounded on the original's StateDiff (a DeepDiff wrapper) and on the
// teacher's hand-rolled CompareMap/CompareSlice recursive comparator.
//
// Known limitation: lists are compared as multisets, so reordering the
// elements of a list (for example a dashboard's panels) is not reported
// as a change.
package differ

import (
	"fmt"
	"sort"

	"github.com/google/go-cmp/cmp"
)

// Action classifies one field-level event.
type Action string

const (
	ActionAdded   Action = "create"
	ActionRemoved Action = "remove"
	ActionChanged Action = "update"
)

// FieldOutcome is one path's classified change, the Go counterpart of
// the original's Added/Removed/Changed Outcome classes.
type FieldOutcome struct {
	Path     string
	Action   Action
	Value    any
	OldValue any
}

// suppressedPaths are excluded from per-field display but still
// participate in the resource-level outcome, matching spec.md §4.5.
var suppressedPaths = map[string]bool{
	"kind": true, "grafana": true, "uid": true, "folder": true,
}

// Diff walks current and desired (each {} if the resource is absent on
// that side) and returns every field-level change, sorted by path.
// Returns an empty, non-nil slice when the trees are structurally
// equal, matching the "no drift" scenario in spec.md §8.
func Diff(current, desired map[string]any) []FieldOutcome {
	outcomes := []FieldOutcome{}
	walk("", current, desired, &outcomes)
	sort.Slice(outcomes, func(i, j int) bool { return outcomes[i].Path < outcomes[j].Path })
	return outcomes
}

// Visible filters out the paths spec.md §4.5 suppresses from display.
func Visible(outcomes []FieldOutcome) []FieldOutcome {
	var visible []FieldOutcome
	for _, o := range outcomes {
		if suppressedPaths[o.Path] {
			continue
		}
		visible = append(visible, o)
	}
	return visible
}

// ResourceAction derives the whole-resource outcome from its field
// events: uniform creations become a create, uniform removals a
// remove, anything mixed an update — the same rule the original's
// StateDiff.outcomes applies to its DeepDiff event classes.
func ResourceAction(outcomes []FieldOutcome) Action {
	if len(outcomes) == 0 {
		return ""
	}
	allAdded, allRemoved := true, true
	for _, o := range outcomes {
		if o.Action != ActionAdded {
			allAdded = false
		}
		if o.Action != ActionRemoved {
			allRemoved = false
		}
	}
	switch {
	case allAdded:
		return ActionAdded
	case allRemoved:
		return ActionRemoved
	default:
		return ActionChanged
	}
}

func joinPath(base, key string) string {
	if base == "" {
		return key
	}
	return base + "." + key
}

func walk(path string, current, desired any, out *[]FieldOutcome) {
	cm, cIsMap := current.(map[string]any)
	dm, dIsMap := desired.(map[string]any)
	if cIsMap || dIsMap {
		walkMap(path, asMap(cm), asMap(dm), out)
		return
	}

	cs, cIsSlice := current.([]any)
	ds, dIsSlice := desired.([]any)
	if cIsSlice || dIsSlice {
		walkSlice(path, cs, ds, out)
		return
	}

	if current == nil && desired == nil {
		return
	}
	if current == nil {
		*out = append(*out, FieldOutcome{Path: path, Action: ActionAdded, Value: desired})
		return
	}
	if desired == nil {
		*out = append(*out, FieldOutcome{Path: path, Action: ActionRemoved, Value: current})
		return
	}
	if !cmp.Equal(current, desired) {
		*out = append(*out, FieldOutcome{Path: path, Action: ActionChanged, Value: desired, OldValue: current})
	}
}

func asMap(m map[string]any) map[string]any {
	if m == nil {
		return map[string]any{}
	}
	return m
}

func walkMap(path string, current, desired map[string]any, out *[]FieldOutcome) {
	keys := map[string]bool{}
	for k := range current {
		keys[k] = true
	}
	for k := range desired {
		keys[k] = true
	}
	for k := range keys {
		cv, cok := current[k]
		dv, dok := desired[k]
		childPath := joinPath(path, k)
		switch {
		case !cok:
			*out = append(*out, FieldOutcome{Path: childPath, Action: ActionAdded, Value: dv})
		case !dok:
			*out = append(*out, FieldOutcome{Path: childPath, Action: ActionRemoved, Value: cv})
		default:
			walk(childPath, cv, dv, out)
		}
	}
}

// walkSlice compares two lists with set semantics (order-insensitive,
// repetition-reported), matching deepdiff's ignore_order=True,
// report_repetition=True and spec.md's §9 open question on list diffs.
func walkSlice(path string, current, desired []any, out *[]FieldOutcome) {
	remaining := make([]any, len(desired))
	copy(remaining, desired)

	var removedFromCurrent []int
	for ci, cv := range current {
		matched := -1
		for ri, rv := range remaining {
			if rv != nil && cmp.Equal(cv, rv) {
				matched = ri
				break
			}
		}
		if matched >= 0 {
			remaining[matched] = nil
		} else {
			removedFromCurrent = append(removedFromCurrent, ci)
		}
	}

	for _, ci := range removedFromCurrent {
		*out = append(*out, FieldOutcome{Path: fmt.Sprintf("%s[%d]", path, ci), Action: ActionRemoved, Value: current[ci]})
	}
	for ri, rv := range remaining {
		if rv == nil {
			continue
		}
		*out = append(*out, FieldOutcome{Path: fmt.Sprintf("%s[%d]", path, ri), Action: ActionAdded, Value: rv})
	}
}
