package provider

import (
	"context"
	"os"
	"path/filepath"
	"strings"

	gdbterrors "github.com/argannor/gdbt/internal/errors"
)

const stateFileExt = ".json"

// FileProvider reads and writes named state groups as files under a
// root directory, grounded on the original's FileProvider.read/write.
type FileProvider struct {
	name string
	Path string
}

func newFileProvider(name string, table map[string]any) (*FileProvider, error) {
	path := stringField(table, "path")
	if path == "" {
		return nil, gdbterrors.New(gdbterrors.CodeConfigFormatInvalid, name+": file provider requires path")
	}
	return &FileProvider{name: name, Path: path}, nil
}

func (p *FileProvider) Name() string { return p.name }
func (p *FileProvider) Kind() string { return "file" }

func (p *FileProvider) groupPath(name string) string {
	return filepath.Join(p.Path, name+stateFileExt)
}

func (p *FileProvider) List(ctx context.Context, subdir string) ([]string, error) {
	dir := filepath.Join(p.Path, subdir)
	entries, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, gdbterrors.Wrap(gdbterrors.CodeFile, err, dir)
	}
	var names []string
	for _, e := range entries {
		if e.IsDir() || !strings.HasSuffix(e.Name(), stateFileExt) {
			continue
		}
		names = append(names, strings.TrimSuffix(e.Name(), stateFileExt))
	}
	return names, nil
}

func (p *FileProvider) Get(ctx context.Context, name string) ([]byte, error) {
	content, err := os.ReadFile(p.groupPath(name))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, gdbterrors.Wrap(gdbterrors.CodeFile, err, name)
	}
	return content, nil
}

func (p *FileProvider) Put(ctx context.Context, name string, content []byte) error {
	path := p.groupPath(name)
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return gdbterrors.Wrap(gdbterrors.CodeFile, err, path)
	}
	if err := os.WriteFile(path, content, 0o644); err != nil {
		if os.IsPermission(err) {
			return gdbterrors.New(gdbterrors.CodeFileAccessDenied, path)
		}
		return gdbterrors.Wrap(gdbterrors.CodeFile, err, path)
	}
	return nil
}

func (p *FileProvider) Remove(ctx context.Context, name string) error {
	if err := os.Remove(p.groupPath(name)); err != nil && !os.IsNotExist(err) {
		return gdbterrors.Wrap(gdbterrors.CodeFile, err, name)
	}
	return nil
}

// Lock/Unlock are no-ops: a local file has no concurrent-writer
// protocol, matching the original's implicit lack of file locking.
func (p *FileProvider) Lock(ctx context.Context, name string) error   { return nil }
func (p *FileProvider) Unlock(ctx context.Context, name string) error { return nil }
