package eval

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"unicode/utf16"
	"unicode/utf8"

	gdbterrors "github.com/argannor/gdbt/internal/errors"
)

type lockEntry struct {
	Data any    `json:"data"`
	Hash string `json:"hash"`
}

// Lock is the on-disk cache of evaluated values for one stencil group,
// grounded on the original's EvaluationLock (one ".lock" file per
// template group, keyed by evaluation name, gated on a content hash).
type Lock struct {
	path string
}

// NewLock derives the lock file path from a group's source file path,
// replacing its extension with ".lock".
func NewLock(groupPath string) *Lock {
	ext := filepath.Ext(groupPath)
	path := groupPath[:len(groupPath)-len(ext)] + ".lock"
	return &Lock{path: path}
}

// Load returns the cached value for name if the file exists and its
// stored hash still matches hash; otherwise it returns ok=false so the
// caller re-evaluates.
func (l *Lock) Load(name, hash string) (value any, ok bool) {
	raw, err := os.ReadFile(l.path)
	if err != nil {
		return nil, false
	}
	var entries map[string]lockEntry
	if err := json.Unmarshal(raw, &entries); err != nil {
		return nil, false
	}
	entry, found := entries[name]
	if !found || entry.Hash != hash {
		return nil, false
	}
	return entry.Data, true
}

// Dump persists every non-empty evaluated value along with the hash it
// was computed from. Falsy values are omitted, matching the original's
// "if evaluations.get(name)" filter. A nil values map is a no-op, same
// as the original skipping the write when nothing changed.
func (l *Lock) Dump(values map[string]any, hashes map[string]string) error {
	entries := map[string]lockEntry{}
	for name, value := range values {
		if isFalsy(value) {
			continue
		}
		entries[name] = lockEntry{Data: value, Hash: hashes[name]}
	}
	if len(entries) == 0 {
		return nil
	}

	// encoding/json already emits map keys in sorted order, matching
	// the original's sort_keys=True.
	encoded, err := json.MarshalIndent(entries, "", "  ")
	if err != nil {
		return gdbterrors.Wrap(gdbterrors.CodeData, err, l.path)
	}
	// Escape every non-ASCII rune as \uXXXX (a surrogate pair above the
	// BMP) so the file is ASCII-safe.
	var ascii bytes.Buffer
	for _, r := range string(encoded) {
		switch {
		case r < utf8.RuneSelf:
			ascii.WriteRune(r)
		case r > 0xFFFF:
			r1, r2 := utf16.EncodeRune(r)
			fmt.Fprintf(&ascii, `\u%04x\u%04x`, r1, r2)
		default:
			fmt.Fprintf(&ascii, `\u%04x`, r)
		}
	}
	encoded = ascii.Bytes()
	if err := os.WriteFile(l.path, encoded, 0o644); err != nil {
		return gdbterrors.Wrap(gdbterrors.CodeFile, err, l.path)
	}
	return nil
}

func isFalsy(v any) bool {
	switch t := v.(type) {
	case nil:
		return true
	case string:
		return t == ""
	case []any:
		return len(t) == 0
	case map[string]any:
		return len(t) == 0
	case bool:
		return !t
	case float64:
		return t == 0
	default:
		return false
	}
}
