package eval

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func Test_NewLock_ReplacesExtension(t *testing.T) {
	l := NewLock("/scope/team/dashboards.yaml")
	assert.Equal(t, "/scope/team/dashboards.lock", l.path)
}

func Test_Lock_LoadMissingFileIsMiss(t *testing.T) {
	l := NewLock(filepath.Join(t.TempDir(), "group.yaml"))
	_, ok := l.Load("hosts", "anyhash")
	assert.False(t, ok)
}

func Test_Lock_DumpThenLoadRoundTrips(t *testing.T) {
	groupPath := filepath.Join(t.TempDir(), "group.yaml")
	l := NewLock(groupPath)

	values := map[string]any{"hosts": []any{"a", "b"}}
	hashes := map[string]string{"hosts": "deadbeef"}
	require.NoError(t, l.Dump(values, hashes))

	value, ok := l.Load("hosts", "deadbeef")
	require.True(t, ok)
	assert.Equal(t, []any{"a", "b"}, value)
}

func Test_Lock_LoadWithStaleHashIsMiss(t *testing.T) {
	groupPath := filepath.Join(t.TempDir(), "group.yaml")
	l := NewLock(groupPath)
	require.NoError(t, l.Dump(map[string]any{"hosts": []any{"a"}}, map[string]string{"hosts": "old"}))

	_, ok := l.Load("hosts", "new")
	assert.False(t, ok)
}

func Test_Lock_DumpOmitsFalsyValues(t *testing.T) {
	groupPath := filepath.Join(t.TempDir(), "group.yaml")
	l := NewLock(groupPath)
	require.NoError(t, l.Dump(map[string]any{"empty": []any{}, "zero": float64(0)}, map[string]string{"empty": "h1", "zero": "h2"}))

	_, ok := l.Load("empty", "h1")
	assert.False(t, ok)
}

func Test_Lock_DumpNoEntriesSkipsWrite(t *testing.T) {
	groupPath := filepath.Join(t.TempDir(), "group.yaml")
	l := NewLock(groupPath)
	require.NoError(t, l.Dump(map[string]any{"x": nil}, map[string]string{"x": "h"}))

	_, statErr := os.Stat(l.path)
	assert.True(t, os.IsNotExist(statErr))
	_, ok := l.Load("x", "h")
	assert.False(t, ok)
}
