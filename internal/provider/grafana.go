package provider

import (
	"net/url"

	grafana "github.com/grafana/grafana-openapi-client-go/client"

	gdbterrors "github.com/argannor/gdbt/internal/errors"
)

// GrafanaProvider names the Grafana instance resource adapters talk to.
// It does not hold a live client itself; NewClient builds one per use,
// mirroring the teacher's connector.Connect building a fresh
// common.GrafanaAPI from a TransportConfig per reconcile.
type GrafanaProvider struct {
	name     string
	endpoint string
	token    string
}

func newGrafanaProvider(name string, table map[string]any) (*GrafanaProvider, error) {
	endpoint := stringField(table, "endpoint")
	if endpoint == "" {
		return nil, gdbterrors.New(gdbterrors.CodeConfigFormatInvalid, name+": grafana provider requires endpoint")
	}
	return &GrafanaProvider{
		name:     name,
		endpoint: endpoint,
		token:    stringField(table, "token"),
	}, nil
}

func (p *GrafanaProvider) Name() string      { return p.name }
func (p *GrafanaProvider) Kind() string      { return "grafana" }
func (p *GrafanaProvider) Endpoint() string  { return p.endpoint }
func (p *GrafanaProvider) Token() string     { return p.token }

// NewClient builds a grafana-openapi-client-go client authenticated
// with a bearer token, the same TransportConfig shape the teacher's
// connectors build from CR credentials.
func (p *GrafanaProvider) NewClient() (*grafana.GrafanaHTTPAPI, error) {
	u, err := url.Parse(p.endpoint)
	if err != nil {
		return nil, gdbterrors.Wrap(gdbterrors.CodeGrafana, err, p.endpoint)
	}
	cfg := grafana.DefaultTransportConfig()
	cfg = cfg.WithHost(hostPort(u))
	cfg = cfg.WithSchemes([]string{u.Scheme})
	if p.token != "" {
		cfg.APIKey = p.token
	}
	return grafana.NewHTTPClientWithConfig(nil, cfg), nil
}

func hostPort(u *url.URL) string {
	if u.Port() != "" {
		return u.Hostname() + ":" + u.Port()
	}
	port := "80"
	if u.Scheme == "https" {
		port = "443"
	}
	return u.Hostname() + ":" + port
}
