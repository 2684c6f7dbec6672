package telemetry

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/fyrsmithlabs/doctord/internal/config"
)

func TestNewDisabled(t *testing.T) {
	tel, err := New(context.Background(), config.TelemetryConfig{Enabled: false}, zap.NewNop())
	require.NoError(t, err)
	assert.False(t, tel.Degraded())
	assert.NotNil(t, tel.Tracer("doctord/test"))
	assert.NoError(t, tel.Shutdown(context.Background()))
}

func TestNewEnabled(t *testing.T) {
	// The gRPC exporter connects lazily, so construction succeeds even
	// without a collector listening.
	cfg := config.TelemetryConfig{
		Enabled:     true,
		Endpoint:    "localhost:4317",
		ServiceName: "doctord",
		SampleRatio: 0.5,
	}
	tel, err := New(context.Background(), cfg, zap.NewNop())
	require.NoError(t, err)
	assert.False(t, tel.Degraded())
	assert.NotNil(t, tel.Tracer("doctord/test"))

	_, span := tel.Tracer("doctord/test").Start(context.Background(), "noop")
	span.End()
}

func TestNilTelemetry(t *testing.T) {
	var tel *Telemetry
	assert.NotNil(t, tel.Tracer("doctord/test"))
	assert.False(t, tel.Degraded())
	assert.NoError(t, tel.Shutdown(context.Background()))
}
