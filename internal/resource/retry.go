package resource

import (
	"context"
	"net/http"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/go-openapi/runtime"

	gdbterrors "github.com/argannor/gdbt/internal/errors"
)

const maxRetryElapsed = 60 * time.Second

// withRetry wraps a Grafana call with a decorrelated exponential backoff
// capped at maxRetryElapsed cumulative, retrying only server errors and
// not-found (errors fn returns already translated to
// CodeGrafanaServerError or CodeGrafanaResourceNotFound). Not-found is
// retried wherever fn returns it: on gets, and also on the create and
// update calls that pass their error through translateGrafanaError, so
// a 404 there is returned only after maxRetryElapsed. Delete callers
// map not-found to success before returning.
func withRetry(ctx context.Context, fn func() error) error {
	policy := backoff.WithContext(backoff.WithMaxElapsedTime(backoff.NewExponentialBackOff(), maxRetryElapsed), ctx)
	return backoff.Retry(func() error {
		err := fn()
		if err == nil {
			return nil
		}
		if gdbterrors.IsRetryable(err) {
			return err
		}
		return backoff.Permanent(err)
	}, policy)
}

// translateGrafanaError maps an HTTP-status-bearing API error (the
// grafana-openapi-client-go runtime.APIError shape) onto GDBT's error
// codes, the way the teacher's isCode/orNilOnStatus distinguish 403/404
// from genuine server failures.
func translateGrafanaError(err error) error {
	if err == nil {
		return nil
	}
	if status, ok := statusCode(err); ok {
		switch {
		case status == http.StatusNotFound:
			return gdbterrors.New(gdbterrors.CodeGrafanaResourceNotFound, "")
		case status == http.StatusTooManyRequests,
			status == http.StatusInternalServerError,
			status == http.StatusServiceUnavailable,
			status == http.StatusGatewayTimeout:
			return gdbterrors.GrafanaServerError(err)
		}
	}
	return gdbterrors.GrafanaError(err)
}

func statusCode(err error) (int, bool) {
	if apiErr, ok := err.(interface{ Code() int }); ok {
		return apiErr.Code(), true
	}
	if apiErr, ok := err.(*runtime.APIError); ok {
		return apiErr.Code, true
	}
	return 0, false
}

// isNotFoundFolderCreate reports whether err is the 412 precondition
// Grafana returns when a folder with the same uid already exists,
// matching the original's "if exc.status_code != 412: raise" guard in
// Folder.create.
func isNotFoundFolderCreate(err error) bool {
	status, ok := statusCode(err)
	return ok && status == http.StatusPreconditionFailed
}
