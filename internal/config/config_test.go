package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
}

func Test_Discover_ListsNearestFirst(t *testing.T) {
	root := t.TempDir()
	scope := filepath.Join(root, "team", "dashboards")
	writeFile(t, filepath.Join(root, Filename), "[state]\nprovider = \"s\"\n")
	writeFile(t, filepath.Join(root, "team", Filename), "[state]\nprovider = \"s\"\n")

	found, err := Discover(scope)
	require.NoError(t, err)
	require.Len(t, found, 2)
	assert.Equal(t, filepath.Join(root, "team", Filename), found[0])
	assert.Equal(t, filepath.Join(root, Filename), found[1])
}

func Test_Load_NearerFileOverridesFartherField(t *testing.T) {
	root := t.TempDir()
	scope := filepath.Join(root, "team")
	writeFile(t, filepath.Join(root, Filename), `
[state]
provider = "root-state"

[providers.shared]
kind = "file"
path = "/tmp/root"
`)
	writeFile(t, filepath.Join(scope, Filename), `
[state]
provider = "team-state"

[providers.grafana]
kind = "grafana"
`)

	cfg, err := Load(scope)
	require.NoError(t, err)
	assert.Equal(t, "team-state", cfg.State.Provider)
	assert.Contains(t, cfg.Providers, "shared")
	assert.Contains(t, cfg.Providers, "grafana")
}

func Test_Load_DefaultsConcurrencyWhenUnset(t *testing.T) {
	root := t.TempDir()
	writeFile(t, filepath.Join(root, Filename), "[state]\nprovider = \"s\"\n")

	cfg, err := Load(root)
	require.NoError(t, err)
	assert.Equal(t, 100, cfg.Concurrency.Threads)
	assert.Equal(t, 60.0, cfg.Concurrency.Timeout)
}

func Test_Load_MissingStateProviderErrors(t *testing.T) {
	root := t.TempDir()
	writeFile(t, filepath.Join(root, Filename), "[providers.shared]\nkind = \"file\"\n")

	_, err := Load(root)
	assert.Error(t, err)
}

func Test_Load_NoConfigFilesErrors(t *testing.T) {
	_, err := Load(t.TempDir())
	assert.Error(t, err)
}

func Test_Load_ExpandsEnvVars(t *testing.T) {
	root := t.TempDir()
	require.NoError(t, os.Setenv("GDBT_TEST_TOKEN", "s3cr3t"))
	defer os.Unsetenv("GDBT_TEST_TOKEN")

	writeFile(t, filepath.Join(root, Filename), `
[state]
provider = "s"

[providers.grafana]
kind = "grafana"
token = "${GDBT_TEST_TOKEN}"
`)

	cfg, err := Load(root)
	require.NoError(t, err)
	assert.Equal(t, "s3cr3t", cfg.Providers["grafana"]["token"])
}

func Test_ProviderKind_MissingKindErrors(t *testing.T) {
	_, err := ProviderKind(map[string]any{"path": "/tmp"})
	assert.Error(t, err)
}

func Test_ProviderKind_ReturnsValue(t *testing.T) {
	kind, err := ProviderKind(map[string]any{"kind": "file"})
	require.NoError(t, err)
	assert.Equal(t, "file", kind)
}
