// Package config loads and merges GDBT's TOML configuration, the way
// the original ConfigurationLoader walks up from the working directory
// collecting every config.toml it passes.
package config

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"
	"github.com/pkg/errors"

	gdbterrors "github.com/argannor/gdbt/internal/errors"
)

const Filename = "config.toml"

// Concurrency bounds the worker pools used by live-loading and apply.
type Concurrency struct {
	Threads int     `toml:"threads"`
	Timeout float64 `toml:"timeout"`
}

func defaultConcurrency() Concurrency {
	return Concurrency{Threads: 100, Timeout: 60.0}
}

// State names the provider backing the state store and its lock timeout.
type State struct {
	Provider    string   `toml:"provider"`
	LockTimeout *float64 `toml:"lock_timeout"`
}

// raw mirrors the on-disk TOML shape before provider tables are
// dispatched into concrete provider configs.
type raw struct {
	Providers   map[string]map[string]any `toml:"providers"`
	State       State                     `toml:"state"`
	Concurrency *Concurrency              `toml:"concurrency"`
}

// Config is the fully merged, defaulted configuration tree.
type Config struct {
	Providers   map[string]map[string]any
	State       State
	Concurrency Concurrency
}

// Discover walks from path up through its parents (nearest directory
// first) and returns every config.toml found along the way, nearest
// first, matching ConfigurationLoader.list_files.
func Discover(path string) ([]string, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, errors.Wrap(err, "resolve scope path")
	}
	var found []string
	dir := abs
	for {
		candidate := filepath.Join(dir, Filename)
		if info, err := os.Stat(candidate); err == nil && !info.IsDir() {
			found = append(found, candidate)
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			break
		}
		dir = parent
	}
	return found, nil
}

// Load discovers, parses, and merges configuration starting at path
// ("." if empty). Files nearer to path take precedence over files
// further up the tree, field by field; a provider table is replaced
// whole by a nearer table of the same name.
func Load(path string) (*Config, error) {
	if path == "" {
		path = "."
	}
	files, err := Discover(path)
	if err != nil {
		return nil, err
	}
	if len(files) == 0 {
		return nil, gdbterrors.New(gdbterrors.CodeConfigEmpty, path)
	}

	merged := &Config{
		Providers:   map[string]map[string]any{},
		Concurrency: defaultConcurrency(),
	}

	// Farthest first, so that nearer files overwrite farther ones as we
	// fold forward.
	for i := len(files) - 1; i >= 0; i-- {
		var r raw
		data, err := os.ReadFile(files[i])
		if err != nil {
			return nil, errors.Wrapf(err, "read %s", files[i])
		}
		if _, err := toml.Decode(expandEnv(string(data)), &r); err != nil {
			return nil, gdbterrors.Wrap(gdbterrors.CodeConfigFormatInvalid, err, files[i])
		}
		for name, table := range r.Providers {
			merged.Providers[name] = table
		}
		if r.State.Provider != "" {
			merged.State.Provider = r.State.Provider
		}
		if r.State.LockTimeout != nil {
			merged.State.LockTimeout = r.State.LockTimeout
		}
		if r.Concurrency != nil {
			if r.Concurrency.Threads != 0 {
				merged.Concurrency.Threads = r.Concurrency.Threads
			}
			if r.Concurrency.Timeout != 0 {
				merged.Concurrency.Timeout = r.Concurrency.Timeout
			}
		}
	}

	if merged.State.Provider == "" {
		return nil, gdbterrors.New(gdbterrors.CodeConfigFormatInvalid, "state.provider is required")
	}
	return merged, nil
}

// expandEnv substitutes ${VAR} and $VAR references before parsing,
// mirroring envtoml's pre-processing of the original's config.toml.
func expandEnv(s string) string {
	return os.Expand(s, func(key string) string {
		if v, ok := os.LookupEnv(key); ok {
			return v
		}
		return "${" + key + "}"
	})
}

// ProviderKind reads the discriminant "kind" field every provider table
// carries, matching stencil/resource "kind" tagging.
func ProviderKind(table map[string]any) (string, error) {
	kind, ok := table["kind"].(string)
	if !ok || strings.TrimSpace(kind) == "" {
		return "", gdbterrors.New(gdbterrors.CodeConfigFormatInvalid, "provider table missing kind")
	}
	return kind, nil
}
