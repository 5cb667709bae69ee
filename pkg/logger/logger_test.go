package logger

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

func TestFromContextBeforeInitialize(t *testing.T) {
	originalLogger := Log
	Log = nil
	defer func() { Log = originalLogger }()

	log := FromContext(context.Background())
	require.NotNil(t, log)
	assert.NotPanics(t, func() { log.Info("no global logger yet") })

	log = FromContext(nil)
	require.NotNil(t, log)
	assert.NotPanics(t, func() { log.Warn("nil context, no global logger") })
}

func TestFromContextPrefersScopedLogger(t *testing.T) {
	originalLogger := Log
	Log = nil
	defer func() { Log = originalLogger }()

	scoped := zaptest.NewLogger(t)
	ctx := WithLogger(context.Background(), scoped)
	assert.Same(t, scoped, FromContext(ctx))
}

func TestFromContextOrBeforeInitialize(t *testing.T) {
	originalLogger := Log
	Log = nil
	defer func() { Log = originalLogger }()

	log := FromContextOr(context.Background(), nil)
	require.NotNil(t, log)
	assert.NotPanics(t, func() { log.Info("fallback logger") })

	fallback := zaptest.NewLogger(t)
	assert.Same(t, fallback, FromContextOr(context.Background(), fallback))
}
