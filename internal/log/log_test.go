package log

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func Test_New_ReturnsEnabledLogger(t *testing.T) {
	l := New(false)
	assert.True(t, l.Enabled())
}

func Test_New_DebugEnablesV1(t *testing.T) {
	l := New(true)
	assert.True(t, l.V(1).Enabled())
}

func Test_WithComponent_AddsValuesWithoutPanicking(t *testing.T) {
	l := New(false)
	tagged := WithComponent(l, "resolver")
	assert.NotPanics(t, func() {
		tagged.Info("resolved stencils", "count", 3)
	})
}
