package resolver

import (
	"sort"
	"strconv"
	"strings"

	gdbterrors "github.com/argannor/gdbt/internal/errors"
)

// get walks a dotted path ("evaluations.foo.bar") into nested
// map[string]any/[]any trees, the Go-sized equivalent of the original's
// dpath.util.get(namespace, path, separator=".").
func get(namespace map[string]any, path string) (any, error) {
	var cur any = namespace
	for _, segment := range strings.Split(path, ".") {
		switch node := cur.(type) {
		case map[string]any:
			v, ok := node[segment]
			if !ok {
				return nil, gdbterrors.VariableNotFound(path)
			}
			cur = v
		case []any:
			idx, err := strconv.Atoi(segment)
			if err != nil || idx < 0 || idx >= len(node) {
				return nil, gdbterrors.VariableNotFound(path)
			}
			cur = node[idx]
		default:
			return nil, gdbterrors.VariableNotFound(path)
		}
	}
	return cur, nil
}

// asIterable converts v to a []any, the way Python's for-loop would
// accept a list but raise TypeError on a scalar.
func asIterable(path string, v any) ([]any, error) {
	switch t := v.(type) {
	case []any:
		return t, nil
	case map[string]any:
		names := make([]string, 0, len(t))
		for k := range t {
			names = append(names, k)
		}
		sort.Strings(names)
		keys := make([]any, len(names))
		for i, n := range names {
			keys[i] = n
		}
		return keys, nil
	default:
		return nil, gdbterrors.VariableNotIterable(path)
	}
}
