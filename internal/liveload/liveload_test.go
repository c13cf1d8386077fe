package liveload

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/argannor/gdbt/internal/provider"
	"github.com/argannor/gdbt/internal/resource"
)

func Test_Load_EmptyMetasReturnsEmptyMap(t *testing.T) {
	current, err := Load(context.Background(), map[string]resource.Meta{}, &provider.Registry{}, 4)
	require.NoError(t, err)
	assert.Empty(t, current)
}

func Test_Load_AbortsOnNonNotFoundError(t *testing.T) {
	metas := map[string]resource.Meta{
		"f": {Grafana: "missing-grafana", UID: "u1", Kind: resource.KindFolder},
	}
	_, err := Load(context.Background(), metas, &provider.Registry{}, 2)
	assert.Error(t, err)
}

func Test_Load_ZeroConcurrencyDefaultsToOneWorker(t *testing.T) {
	metas := map[string]resource.Meta{
		"f": {Grafana: "missing-grafana", UID: "u1", Kind: resource.KindFolder},
	}
	_, err := Load(context.Background(), metas, &provider.Registry{}, 0)
	assert.Error(t, err)
}
