package provider

import (
	"context"
	"strings"

	consulapi "github.com/hashicorp/consul/api"

	gdbterrors "github.com/argannor/gdbt/internal/errors"
)

// ConsulProvider stores named state groups as keys under a path prefix
// in a Consul KV store, grounded on the original's
// ConsulProvider(python-consul).
type ConsulProvider struct {
	name       string
	Endpoint   string
	Path       string
	Token      string
	Datacenter string
}

func newConsulProvider(name string, table map[string]any) (*ConsulProvider, error) {
	endpoint := stringField(table, "endpoint")
	path := stringField(table, "path")
	if endpoint == "" || path == "" {
		return nil, gdbterrors.New(gdbterrors.CodeConfigFormatInvalid, name+": consul provider requires endpoint and path")
	}
	return &ConsulProvider{
		name:       name,
		Endpoint:   endpoint,
		Path:       strings.Trim(path, "/"),
		Token:      stringField(table, "token"),
		Datacenter: stringField(table, "datacenter"),
	}, nil
}

func (p *ConsulProvider) Name() string { return p.name }
func (p *ConsulProvider) Kind() string { return "consul" }

func (p *ConsulProvider) client() (*consulapi.Client, error) {
	cfg := consulapi.DefaultConfig()
	cfg.Address = p.Endpoint
	if p.Token != "" {
		cfg.Token = p.Token
	}
	if p.Datacenter != "" {
		cfg.Datacenter = p.Datacenter
	}
	client, err := consulapi.NewClient(cfg)
	if err != nil {
		return nil, gdbterrors.Wrap(gdbterrors.CodeConsul, err, p.Endpoint)
	}
	return client, nil
}

func (p *ConsulProvider) key(name string) string {
	return p.Path + "/" + name
}

func (p *ConsulProvider) List(ctx context.Context, subdir string) ([]string, error) {
	client, err := p.client()
	if err != nil {
		return nil, err
	}
	prefix := p.key(subdir)
	pairs, _, err := client.KV().List(prefix, nil)
	if err != nil {
		return nil, gdbterrors.Wrap(gdbterrors.CodeConsul, err, prefix)
	}
	var names []string
	for _, pair := range pairs {
		names = append(names, strings.TrimPrefix(strings.TrimPrefix(pair.Key, p.Path), "/"))
	}
	return names, nil
}

func (p *ConsulProvider) Get(ctx context.Context, name string) ([]byte, error) {
	client, err := p.client()
	if err != nil {
		return nil, err
	}
	pair, _, err := client.KV().Get(p.key(name), nil)
	if err != nil {
		return nil, gdbterrors.Wrap(gdbterrors.CodeConsul, err, name)
	}
	if pair == nil {
		return nil, nil
	}
	return pair.Value, nil
}

func (p *ConsulProvider) Put(ctx context.Context, name string, content []byte) error {
	client, err := p.client()
	if err != nil {
		return err
	}
	pair := &consulapi.KVPair{Key: p.key(name), Value: content}
	_, err = client.KV().Put(pair, nil)
	if err != nil {
		return gdbterrors.Wrap(gdbterrors.CodeConsul, err, name)
	}
	return nil
}

func (p *ConsulProvider) Remove(ctx context.Context, name string) error {
	client, err := p.client()
	if err != nil {
		return err
	}
	_, err = client.KV().Delete(p.key(name), nil)
	if err != nil {
		return gdbterrors.Wrap(gdbterrors.CodeConsul, err, name)
	}
	return nil
}

// Lock/Unlock are no-ops, matching the original ConsulProvider's stub
// lock()/unlock() methods.
func (p *ConsulProvider) Lock(ctx context.Context, name string) error   { return nil }
func (p *ConsulProvider) Unlock(ctx context.Context, name string) error { return nil }
