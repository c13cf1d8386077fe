// Package resolver expands stencils (YAML templates) into concrete
// resources: resolving their evaluations and lookups, expanding any
// loop, rendering the model template, and deriving each resource's uid.
package resolver

import (
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	gdbterrors "github.com/argannor/gdbt/internal/errors"
	"github.com/argannor/gdbt/internal/resource"
)

// Stencil is the tagged-union template: dashboard or folder, grounded
// on the original's newer-generation Template (code/templates.py).
type Stencil struct {
	Kind        resource.Kind
	Provider    string
	Grafana     string
	Folder      string // dashboard-only; the template path/literal for its parent folder
	Evaluations map[string]map[string]any
	Lookups     map[string]any
	Loop        string
	Model       string
}

// rawStencil mirrors the on-disk YAML shape before Kind dispatch.
type rawStencil struct {
	Kind        string                    `yaml:"kind"`
	Provider    string                    `yaml:"provider"`
	Grafana     string                    `yaml:"grafana"`
	Folder      string                    `yaml:"folder"`
	Evaluations map[string]map[string]any `yaml:"evaluations"`
	Lookups     map[string]any            `yaml:"lookups"`
	Loop        string                    `yaml:"loop"`
	Model       string                    `yaml:"model"`
}

func parseStencil(data []byte) (*Stencil, error) {
	var raw rawStencil
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return nil, gdbterrors.Wrap(gdbterrors.CodeConfigFormatInvalid, err, "")
	}
	var kind resource.Kind
	switch raw.Kind {
	case "dashboard":
		kind = resource.KindDashboard
		if raw.Folder == "" {
			return nil, gdbterrors.New(gdbterrors.CodeConfigFormatInvalid, "dashboard stencil requires folder")
		}
	case "folder":
		kind = resource.KindFolder
	default:
		return nil, gdbterrors.New(gdbterrors.CodeConfigFormatInvalid, "unknown stencil kind: "+raw.Kind)
	}
	return &Stencil{
		Kind:        kind,
		Provider:    raw.Provider,
		Grafana:     raw.Provider,
		Folder:      raw.Folder,
		Evaluations: raw.Evaluations,
		Lookups:     raw.Lookups,
		Loop:        raw.Loop,
		Model:       raw.Model,
	}, nil
}

// LoadStencils walks base collecting every "**/*.yaml" file, tagging
// each by its path relative to base with the extension stripped,
// matching the original's TemplateLoader.tag_files.
func LoadStencils(base string) (map[string]*Stencil, map[string]string, error) {
	stencils := map[string]*Stencil{}
	paths := map[string]string{}

	err := filepath.WalkDir(base, func(path string, d os.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() || !strings.HasSuffix(path, ".yaml") {
			return nil
		}
		rel, err := filepath.Rel(base, path)
		if err != nil {
			return err
		}
		tag := strings.TrimSuffix(rel, filepath.Ext(rel))
		tag = filepath.ToSlash(tag)

		data, err := os.ReadFile(path)
		if err != nil {
			return err
		}
		stencil, err := parseStencil(data)
		if err != nil {
			return err
		}
		stencils[tag] = stencil
		paths[tag] = path
		return nil
	})
	if err != nil {
		return nil, nil, gdbterrors.Wrap(gdbterrors.CodeConfigFormatInvalid, err, base)
	}
	return stencils, paths, nil
}
