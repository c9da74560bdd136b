package telemetry

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zapcore"
)

func TestSetup_Disabled(t *testing.T) {
	p, err := Setup(context.Background(), ExportConfig{ServiceName: "propledger"})
	require.NoError(t, err)

	assert.False(t, p.Enabled())
	assert.NotNil(t, p.Meter("propledger/ledger"))
	assert.False(t, p.ZapCore(zapcore.DebugLevel).Enabled(zapcore.ErrorLevel))
	assert.NoError(t, p.Shutdown(context.Background()))
}

func TestSamplerFor(t *testing.T) {
	assert.Equal(t, "AlwaysOnSampler", samplerFor(1).Description())
	assert.Equal(t, "AlwaysOffSampler", samplerFor(0).Description())
	assert.Contains(t, samplerFor(0.25).Description(), "TraceIDRatioBased{0.25}")
}

func TestMinLevelCore(t *testing.T) {
	core := &minLevelCore{Core: zapcore.NewNopCore(), min: zapcore.WarnLevel}
	assert.False(t, core.Enabled(zapcore.InfoLevel))

	entry := zapcore.Entry{Level: zapcore.InfoLevel}
	assert.Nil(t, core.Check(entry, nil))

	child, ok := core.With(nil).(*minLevelCore)
	require.True(t, ok)
	assert.Equal(t, zapcore.WarnLevel, child.min)
}
