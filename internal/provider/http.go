package provider

import (
	"bytes"
	"context"
	"io"
	"net/http"
	"strings"

	gdbterrors "github.com/argannor/gdbt/internal/errors"
)

// HTTPProvider stores named state groups via plain GET/PUT of JSON
// payloads at endpoint/path/name.json. No example repo wraps bare
// GET/PUT in a client library, so this uses net/http directly.
type HTTPProvider struct {
	name     string
	Endpoint string
	Path     string
	Token    string
	client   *http.Client
}

func newHTTPProvider(name string, table map[string]any) (*HTTPProvider, error) {
	endpoint := stringField(table, "endpoint")
	if endpoint == "" {
		return nil, gdbterrors.New(gdbterrors.CodeConfigFormatInvalid, name+": http provider requires endpoint")
	}
	return &HTTPProvider{
		name:     name,
		Endpoint: strings.TrimRight(endpoint, "/"),
		Path:     strings.Trim(stringField(table, "path"), "/"),
		Token:    stringField(table, "token"),
		client:   &http.Client{},
	}, nil
}

func (p *HTTPProvider) Name() string { return p.name }
func (p *HTTPProvider) Kind() string { return "http" }

func (p *HTTPProvider) url(name string) string {
	parts := []string{p.Endpoint}
	if p.Path != "" {
		parts = append(parts, p.Path)
	}
	parts = append(parts, name+stateFileExt)
	return strings.Join(parts, "/")
}

func (p *HTTPProvider) authorize(req *http.Request) {
	if p.Token != "" {
		req.Header.Set("Authorization", "Bearer "+p.Token)
	}
}

// List is unsupported by a bare GET/PUT HTTP backend: there is no
// listing endpoint to call, so group discovery must come from the
// state-group names already known to the caller.
func (p *HTTPProvider) List(ctx context.Context, subdir string) ([]string, error) {
	return nil, nil
}

func (p *HTTPProvider) Get(ctx context.Context, name string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, p.url(name), nil)
	if err != nil {
		return nil, gdbterrors.Wrap(gdbterrors.CodeFile, err, name)
	}
	p.authorize(req)

	resp, err := p.client.Do(req)
	if err != nil {
		return nil, gdbterrors.Wrap(gdbterrors.CodeFile, err, name)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return nil, nil
	}
	if resp.StatusCode >= 400 {
		return nil, gdbterrors.New(gdbterrors.CodeFile, name)
	}
	return io.ReadAll(resp.Body)
}

func (p *HTTPProvider) Put(ctx context.Context, name string, content []byte) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodPut, p.url(name), bytes.NewReader(content))
	if err != nil {
		return gdbterrors.Wrap(gdbterrors.CodeFile, err, name)
	}
	p.authorize(req)
	req.Header.Set("Content-Type", "application/json")

	resp, err := p.client.Do(req)
	if err != nil {
		return gdbterrors.Wrap(gdbterrors.CodeFile, err, name)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		return gdbterrors.New(gdbterrors.CodeFile, name)
	}
	return nil
}

func (p *HTTPProvider) Remove(ctx context.Context, name string) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodDelete, p.url(name), nil)
	if err != nil {
		return gdbterrors.Wrap(gdbterrors.CodeFile, err, name)
	}
	p.authorize(req)

	resp, err := p.client.Do(req)
	if err != nil {
		return gdbterrors.Wrap(gdbterrors.CodeFile, err, name)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 && resp.StatusCode != http.StatusNotFound {
		return gdbterrors.New(gdbterrors.CodeFile, name)
	}
	return nil
}

func (p *HTTPProvider) Lock(ctx context.Context, name string) error   { return nil }
func (p *HTTPProvider) Unlock(ctx context.Context, name string) error { return nil }
