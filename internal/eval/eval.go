// Package eval implements GDBT's dynamic evaluations: values pulled
// from an EvaluationProvider at resolve time, content-hashed and
// cached in an on-disk lock file so unchanged evaluations are not
// re-queried on every plan.
package eval

import (
	"context"
	"crypto/md5"
	"encoding/hex"
	"encoding/json"
	"fmt"

	"github.com/tidwall/gjson"

	gdbterrors "github.com/argannor/gdbt/internal/errors"
	"github.com/argannor/gdbt/internal/provider"
)

// Evaluation is a tagged-union query against a named provider. Only the
// "prometheus" kind exists today; new kinds register in FromConfig.
type Evaluation interface {
	Source() string
	Hash() string
	Evaluate(ctx context.Context, p provider.EvaluationProvider) (any, error)
}

// prometheusKind discriminates this evaluation kind in Hash, so a
// future kind sharing a source/metric/label triple can't collide with
// it, per spec §3's source || kind || parameters identity.
const prometheusKind = "prometheus"

// PrometheusEvaluation extracts one label's values from an instant
// query's result vector, grounded on the original's
// PrometheusEvaluation.evaluate ($[*].metric.<label> via jsonpath).
type PrometheusEvaluation struct {
	source string
	Metric string
	Label  string
}

func NewPrometheusEvaluation(source, metric, label string) *PrometheusEvaluation {
	return &PrometheusEvaluation{source: source, Metric: metric, Label: label}
}

func (e *PrometheusEvaluation) Source() string { return e.source }

func (e *PrometheusEvaluation) Hash() string {
	sum := md5.Sum([]byte(e.source + "|" + prometheusKind + "|" + e.Metric + "|" + e.Label))
	return hex.EncodeToString(sum[:])
}

func (e *PrometheusEvaluation) Evaluate(ctx context.Context, p provider.EvaluationProvider) (any, error) {
	result, err := p.Query(ctx, e.Metric)
	if err != nil {
		return nil, err
	}
	encoded, err := json.Marshal(result)
	if err != nil {
		return nil, gdbterrors.Wrap(gdbterrors.CodeData, err, e.Metric)
	}

	path := fmt.Sprintf("#.metric.%s", e.Label)
	values := gjson.GetBytes(encoded, path)
	out := make([]any, 0, len(values.Array()))
	for _, v := range values.Array() {
		out = append(out, v.Value())
	}
	return out, nil
}

// FromConfig builds an Evaluation from a [[stencils.*.evaluations.*]]
// table, dispatching on its "kind" field.
func FromConfig(source string, table map[string]any) (Evaluation, error) {
	kind, _ := table["kind"].(string)
	switch kind {
	case "prometheus", "":
		metric, _ := table["metric"].(string)
		label, _ := table["label"].(string)
		if metric == "" || label == "" {
			return nil, gdbterrors.New(gdbterrors.CodeConfigEvaluationKindNotFound, "prometheus evaluation requires metric and label")
		}
		return NewPrometheusEvaluation(source, metric, label), nil
	default:
		return nil, gdbterrors.New(gdbterrors.CodeConfigEvaluationKindNotFound, kind)
	}
}
