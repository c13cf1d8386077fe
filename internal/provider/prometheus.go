package provider

import (
	"context"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/tidwall/gjson"

	gdbterrors "github.com/argannor/gdbt/internal/errors"
)

const defaultPrometheusTimeout = 5 * time.Second

// PrometheusProvider evaluates instant queries against a Prometheus
// HTTP API, grounded on the original's PrometheusProvider.query.
type PrometheusProvider struct {
	name     string
	Endpoint string
	Timeout  time.Duration
	client   *http.Client
}

func newPrometheusProvider(name string, table map[string]any) (*PrometheusProvider, error) {
	endpoint := stringField(table, "endpoint")
	if endpoint == "" {
		return nil, gdbterrors.New(gdbterrors.CodeConfigFormatInvalid, name+": prometheus provider requires endpoint")
	}
	timeout := defaultPrometheusTimeout
	if raw := stringField(table, "timeout"); raw != "" {
		d, err := parseDuration(raw)
		if err != nil {
			return nil, gdbterrors.Wrap(gdbterrors.CodeConfigFormatInvalid, err, name+".timeout")
		}
		timeout = d
	} else if secs := floatField(table, "timeout", 0); secs > 0 {
		timeout = time.Duration(secs * float64(time.Second))
	}
	return &PrometheusProvider{
		name:     name,
		Endpoint: endpoint,
		Timeout:  timeout,
		client:   &http.Client{Timeout: timeout},
	}, nil
}

func (p *PrometheusProvider) Name() string { return p.name }
func (p *PrometheusProvider) Kind() string { return "prometheus" }

// Query runs an instant query and returns the result array at
// data.result, matching the original's response.json()["data"]["result"].
func (p *PrometheusProvider) Query(ctx context.Context, query string) ([]any, error) {
	u := strings.TrimRight(p.Endpoint, "/") + "/api/v1/query"
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, gdbterrors.Wrap(gdbterrors.CodeData, err, query)
	}
	q := url.Values{"query": {query}}
	req.URL.RawQuery = q.Encode()

	resp, err := p.client.Do(req)
	if err != nil {
		return nil, gdbterrors.Wrap(gdbterrors.CodeData, err, query)
	}
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, gdbterrors.Wrap(gdbterrors.CodeData, err, query)
	}
	if resp.StatusCode >= 400 {
		return nil, gdbterrors.New(gdbterrors.CodeData, "prometheus query failed: "+string(body))
	}

	results := gjson.GetBytes(body, "data.result")
	out := make([]any, 0, len(results.Array()))
	for _, r := range results.Array() {
		out = append(out, r.Value())
	}
	return out, nil
}

// parseDuration converts a "5s"/"1m"/"500ms"-shaped string, or a bare
// integer (seconds, matching the original's isdigit()-then-append-"s"
// rule), into a time.Duration.
func parseDuration(raw string) (time.Duration, error) {
	if _, err := strconv.Atoi(raw); err == nil {
		raw += "s"
	}
	return time.ParseDuration(raw)
}
