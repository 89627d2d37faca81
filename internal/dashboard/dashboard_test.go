package dashboard

import (
	"bytes"
	"context"
	"io"
	"log/slog"
	"strings"
	"testing"
	"time"

	"github.com/couchcryptid/floodplan-service/internal/catalog"
	"github.com/couchcryptid/floodplan-service/internal/domain"
	"github.com/couchcryptid/floodplan-service/internal/observability"
	"github.com/jonboulle/clockwork"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var testNow = time.Date(2026, time.October, 19, 12, 0, 0, 0, time.UTC)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func loadSeed(t *testing.T, id string) catalog.Seed {
	t.Helper()
	s, err := catalog.Load(id)
	require.NoError(t, err)
	return s
}

// newTestDashboard builds a dashboard with a fake clock and zero-noise randomness.
func newTestDashboard(t *testing.T, id string, opts ...Option) (*Dashboard, *observability.Metrics) {
	t.Helper()
	m := observability.NewMetricsForTesting()
	base := []Option{
		WithClock(clockwork.NewFakeClockAt(testNow)),
		WithRandom(domain.NewSequenceSource()),
		WithLogger(testLogger()),
		WithMetrics(m),
	}
	d, err := New(loadSeed(t, id), append(base, opts...)...)
	require.NoError(t, err)
	return d, m
}

type stubGeocoder struct {
	result domain.GeocodingResult
	err    error
}

func (s stubGeocoder) ReverseGeocode(_ context.Context, _, _ float64) (domain.GeocodingResult, error) {
	return s.result, s.err
}

func TestNew_EmptySeed(t *testing.T) {
	_, err := New(catalog.Seed{ID: "empty"})
	require.ErrorIs(t, err, domain.ErrEmptyCatalog)
}

func TestNew_InitialState(t *testing.T) {
	d, _ := newTestDashboard(t, "world")

	assert.Equal(t, "world", d.ID())
	assert.Equal(t, "FloodPlan Global", d.Title())
	assert.Equal(t, 30*time.Second, d.Interval())
	assert.False(t, d.Live())
	assert.Len(t, d.Regions(), 5)
	assert.Len(t, d.CurrentForecast(), 7)
	assert.True(t, d.LastRefresh().IsZero())
}

func TestRegion_NotFound(t *testing.T) {
	d, _ := newTestDashboard(t, "world")

	_, err := d.Region("atlantis")
	require.ErrorIs(t, err, domain.ErrRegionNotFound)

	_, err = d.Score("atlantis", time.January)
	require.ErrorIs(t, err, domain.ErrRegionNotFound)
}

func TestClosest(t *testing.T) {
	d, _ := newTestDashboard(t, "world", WithGeocoder(stubGeocoder{
		result: domain.GeocodingResult{PlaceName: "Lanzhou"},
	}))

	got, err := d.Closest(context.Background(), 35, 105)
	require.NoError(t, err)

	assert.Equal(t, "asia-pacific", got.Region.ID)
	assert.InDelta(t, 0, got.DistanceKm, 1e-9)
	assert.Equal(t, 85, got.Score.Score)
	assert.Equal(t, "extreme", got.Score.Level)
	assert.Equal(t, "asia-pacific", got.Score.RegionID)
	assert.Equal(t, "Lanzhou", got.Place)
}

func TestClosest_ClampsCoordinates(t *testing.T) {
	d, _ := newTestDashboard(t, "world")

	got, err := d.Closest(context.Background(), 250, -400)
	require.NoError(t, err)
	assert.NotEmpty(t, got.Region.ID)
	assert.Empty(t, got.Place)
}

func TestScore_Seasonal(t *testing.T) {
	d, _ := newTestDashboard(t, "world")

	tests := []struct {
		region string
		month  time.Month
		score  int
		level  string
	}{
		{"europe", time.June, 65, "high"},
		{"europe", time.January, 80, "extreme"},
		{"asia-pacific", time.December, 100, "extreme"},
		{"north-america", time.July, 20, "low"},
		{"north-america", time.March, 35, "moderate"},
	}
	for _, tt := range tests {
		t.Run(tt.region+"/"+tt.month.String(), func(t *testing.T) {
			s, err := d.Score(tt.region, tt.month)
			require.NoError(t, err)
			assert.Equal(t, tt.score, s.Score)
			assert.Equal(t, tt.level, s.Level)
			assert.Equal(t, domain.RiskColor(tt.level), s.Color)
		})
	}
}

func TestScoreAll_CatalogOrder(t *testing.T) {
	d, _ := newTestDashboard(t, "us")

	scores, err := d.ScoreAll(time.October)
	require.NoError(t, err)
	regions := d.Regions()
	require.Len(t, scores, len(regions))
	for i, r := range regions {
		assert.Equal(t, r.ID, scores[i].RegionID)
	}
}

func TestForecast(t *testing.T) {
	d, _ := newTestDashboard(t, "wa")
	start := 50.0

	got := d.Forecast(ForecastRequest{Start: &start, Days: 3})
	require.Len(t, got, 3)
	assert.Equal(t, "Today", got[0].Label)
	assert.Equal(t, "Tomorrow", got[1].Label)
	assert.Equal(t, "Wed", got[2].Label)
	for _, f := range got {
		assert.Equal(t, 50, f.RiskScore)
		assert.Equal(t, 1.25, f.Precipitation)
	}

	assert.Len(t, d.Forecast(ForecastRequest{}), 10, "non-positive days use the dashboard default")
}

func TestApplyJitter_ZeroNoise(t *testing.T) {
	d, m := newTestDashboard(t, "world")
	before := d.Regions()

	require.NoError(t, d.ApplyJitter())

	assert.Equal(t, before, d.Regions())
	snap, err := d.Snapshot()
	require.NoError(t, err)
	assert.Equal(t, uint64(1), snap.Cycle)
	assert.Equal(t, 1, int(testutil.ToFloat64(m.JitterTicks.WithLabelValues("world"))))
}

func TestApplyJitter_StaysWithinBound(t *testing.T) {
	seed := loadSeed(t, "world")
	d, err := New(seed,
		WithClock(clockwork.NewFakeClockAt(testNow)),
		WithRandom(domain.NewRandomSource(42)),
		WithLogger(testLogger()),
	)
	require.NoError(t, err)

	before := d.Regions()
	require.NoError(t, d.ApplyJitter())
	after := d.Regions()

	for i := range before {
		v := float64(before[i].AtRisk)
		assert.GreaterOrEqual(t, float64(after[i].AtRisk), v*(1-seed.Jitter.Bound)-1, before[i].ID)
		assert.LessOrEqual(t, float64(after[i].AtRisk), v*(1+seed.Jitter.Bound), before[i].ID)
		assert.Equal(t, before[i].BaseRisk, after[i].BaseRisk)
		assert.Equal(t, before[i].Attributes, after[i].Attributes)
	}
}

func TestApplyJitter_Busy(t *testing.T) {
	d, _ := newTestDashboard(t, "world")
	d.inFlight.Store(true)

	require.ErrorIs(t, d.ApplyJitter(), ErrRefreshInProgress)
	_, err := d.Tick(context.Background())
	require.ErrorIs(t, err, ErrRefreshInProgress)
}

func TestClose_RejectsMutation(t *testing.T) {
	d, _ := newTestDashboard(t, "world")
	d.Close()

	require.ErrorIs(t, d.ApplyJitter(), ErrClosed)
	_, err := d.Tick(context.Background())
	require.ErrorIs(t, err, ErrClosed)
	_, err = d.Refresh(context.Background())
	require.ErrorIs(t, err, ErrClosed)
}

func TestJitter_CloseAfterFlagTaken(t *testing.T) {
	d, m := newTestDashboard(t, "world")
	before := d.Regions()

	// A tick has taken the in-flight flag when Close lands.
	require.True(t, d.inFlight.CompareAndSwap(false, true))
	d.Close()

	require.ErrorIs(t, d.jitterLocked(), ErrClosed)
	assert.Equal(t, before, d.Regions())
	assert.Zero(t, d.cycle)
	assert.Zero(t, testutil.ToFloat64(m.JitterTicks.WithLabelValues("world")))
}

func TestNew_TagsLogsWithDashboard(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewJSONHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug}))
	d, err := New(loadSeed(t, "us"),
		WithClock(clockwork.NewFakeClockAt(testNow)),
		WithRandom(domain.NewSequenceSource()),
		WithLogger(logger),
	)
	require.NoError(t, err)

	_, err = d.Refresh(context.Background())
	require.NoError(t, err)

	line := buf.String()
	assert.Contains(t, line, "refresh applied")
	assert.Equal(t, 1, strings.Count(line, `"dashboard":"us"`))
}

func TestTick_NonLive(t *testing.T) {
	d, _ := newTestDashboard(t, "us")
	forecast := d.CurrentForecast()

	snap, err := d.Tick(context.Background())
	require.NoError(t, err)

	assert.Equal(t, "us", snap.Dashboard)
	assert.Equal(t, uint64(1), snap.Cycle)
	assert.Equal(t, domain.SourceSeed, snap.Source)
	assert.Equal(t, forecast, snap.Forecast, "non-live ticks leave the forecast alone")
}

func TestSnapshot(t *testing.T) {
	d, _ := newTestDashboard(t, "us")

	a, err := d.Snapshot()
	require.NoError(t, err)
	b, err := d.Snapshot()
	require.NoError(t, err)

	assert.NotEmpty(t, a.ID)
	assert.NotEqual(t, a.ID, b.ID)
	assert.Equal(t, testNow, a.TakenAt)
	assert.Len(t, a.Scores, len(a.Regions))
	assert.NotEmpty(t, a.Stats)
	assert.Equal(t, "FloodPlan United States", a.Title)
}

func TestStats(t *testing.T) {
	d, _ := newTestDashboard(t, "world")

	stats, err := d.Stats()
	require.NoError(t, err)
	byKey := map[string]domain.Stat{}
	for _, s := range stats {
		byKey[s.Key] = s
	}
	assert.Equal(t, 23, byKey["active_floods"].Raw)
	assert.Equal(t, "1.4M", byKey["people_affected"].Value)
	assert.Equal(t, "$2.8B", byKey["economic_impact"].Value)
}
