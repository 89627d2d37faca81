package observability

import (
	"context"
	"log/slog"
	"testing"

	"github.com/couchcryptid/floodplan-service/internal/config"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewLogger_LevelFromConfig(t *testing.T) {
	prev := slog.Default()
	t.Cleanup(func() { slog.SetDefault(prev) })

	tests := []struct {
		level, format string
		debug, info   bool
	}{
		{"debug", "json", true, true},
		{"info", "text", false, true},
		{"warn", "json", false, false},
	}
	for _, tt := range tests {
		t.Run(tt.level+"/"+tt.format, func(t *testing.T) {
			logger := NewLogger(&config.Config{LogLevel: tt.level, LogFormat: tt.format})
			require.NotNil(t, logger)

			ctx := context.Background()
			assert.Equal(t, tt.debug, logger.Enabled(ctx, slog.LevelDebug))
			assert.Equal(t, tt.info, logger.Enabled(ctx, slog.LevelInfo))
			assert.Same(t, logger, slog.Default())
		})
	}
}

func TestNewMetricsForTesting_Independent(t *testing.T) {
	a := NewMetricsForTesting()
	b := NewMetricsForTesting()

	a.JitterTicks.WithLabelValues("world").Inc()

	assert.Equal(t, 1.0, testutil.ToFloat64(a.JitterTicks.WithLabelValues("world")))
	assert.Equal(t, 0.0, testutil.ToFloat64(b.JitterTicks.WithLabelValues("world")))
}
