package echarts

import (
	"bytes"
	"errors"
	"io"
	"log/slog"
	"testing"

	"github.com/couchcryptid/floodplan-service/internal/domain"
	"github.com/couchcryptid/floodplan-service/internal/observability"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testRenderer() (*Renderer, *observability.Metrics) {
	m := observability.NewMetricsForTesting()
	return NewRenderer(slog.New(slog.NewTextHandler(io.Discard, nil)), m), m
}

func validSpecs() []domain.ChartSpec {
	return []domain.ChartSpec{
		{
			ID: "forecast-risk", Title: "Flood Risk Forecast", Kind: domain.ChartLine, Unit: "score",
			Labels: []string{"Today", "Tomorrow", "Wed"},
			Series: []domain.Series{{Label: "Risk score", Data: []float64{55, 61, 48}, Color: "#ef4444"}},
		},
		{
			ID: "regional-at-risk", Title: "People at Risk by Region", Kind: domain.ChartBar,
			Labels: []string{"King County", "Skagit County"},
			Series: []domain.Series{{Label: "At risk", Data: []float64{45000, 28000}}},
		},
	}
}

func TestRender(t *testing.T) {
	r, _ := testRenderer()
	var buf bytes.Buffer

	require.NoError(t, r.Render(&buf, "FloodPlan Washington State", validSpecs()))

	html := buf.String()
	assert.Contains(t, html, "FloodPlan Washington State")
	assert.Contains(t, html, "forecast-risk")
	assert.Contains(t, html, "regional-at-risk")
	assert.Contains(t, html, "Flood Risk Forecast")
}

func TestRender_InvalidSpec(t *testing.T) {
	tests := []struct {
		name string
		spec domain.ChartSpec
	}{
		{"unknown kind", domain.ChartSpec{ID: "pie", Kind: "pie"}},
		{"length mismatch", domain.ChartSpec{
			ID: "broken", Kind: domain.ChartLine, Labels: []string{"a", "b"},
			Series: []domain.Series{{Label: "s", Data: []float64{1}}},
		}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r, _ := testRenderer()
			var buf bytes.Buffer
			err := r.Render(&buf, "x", []domain.ChartSpec{tt.spec})
			require.Error(t, err)
			assert.True(t, errors.Is(err, domain.ErrRenderUnavailable))
			assert.Zero(t, buf.Len())
		})
	}
}

func TestRenderOrPlaceholder_Fallback(t *testing.T) {
	r, m := testRenderer()
	bad := []domain.ChartSpec{{ID: "pie", Kind: "pie"}}

	for range 2 {
		var buf bytes.Buffer
		require.NoError(t, r.RenderOrPlaceholder(&buf, "world", "FloodPlan <Global>", bad))
		assert.Contains(t, buf.String(), "Charts are temporarily unavailable.")
		assert.Contains(t, buf.String(), "FloodPlan &lt;Global&gt;")
	}
	assert.Equal(t, 2.0, testutil.ToFloat64(m.RenderFallbacks.WithLabelValues("world")))
	assert.False(t, r.firstFailure("world"), "first failure already recorded")
}

func TestRenderOrPlaceholder_Success(t *testing.T) {
	r, m := testRenderer()
	var buf bytes.Buffer

	require.NoError(t, r.RenderOrPlaceholder(&buf, "wa", "FloodPlan Washington State", validSpecs()))
	assert.NotContains(t, buf.String(), "temporarily unavailable")
	assert.Equal(t, 0.0, testutil.ToFloat64(m.RenderFallbacks.WithLabelValues("wa")))
}
