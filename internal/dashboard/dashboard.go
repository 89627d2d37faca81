// Package dashboard holds the per-instance state of one flood-risk dashboard
// and every operation the API and the periodic pipeline run against it.
//
// A Dashboard owns its catalog, random source and clock. Jitter ticks and
// refreshes are mutually exclusive: whichever starts first holds the
// in-flight flag and the other returns ErrRefreshInProgress. Every refresh
// takes a sequence number, and results whose number is no longer current
// when the provider fetches complete are discarded.
package dashboard

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/couchcryptid/floodplan-service/internal/catalog"
	"github.com/couchcryptid/floodplan-service/internal/domain"
	"github.com/couchcryptid/floodplan-service/internal/observability"
	"github.com/google/uuid"
	"github.com/jonboulle/clockwork"
)

// ErrRefreshInProgress is returned when a jitter tick or refresh is already running.
var ErrRefreshInProgress = errors.New("refresh already in progress")

// ErrClosed is returned by mutating operations after Close.
var ErrClosed = errors.New("dashboard closed")

// Dashboard is one running dashboard instance.
type Dashboard struct {
	seed     catalog.Seed
	logger   *slog.Logger
	metrics  *observability.Metrics
	clock    clockwork.Clock
	rng      domain.RandomSource
	geocoder domain.Geocoder
	weather  domain.WeatherProvider
	flow     domain.StreamflowProvider

	inFlight atomic.Bool
	seq      atomic.Uint64
	closed   atomic.Bool

	mu          sync.RWMutex
	cat         *domain.Catalog
	forecast    []domain.ForecastDay
	source      string
	cycle       uint64
	lastRefresh time.Time
}

// Option configures a Dashboard.
type Option func(*Dashboard)

// WithClock sets the time source.
func WithClock(c clockwork.Clock) Option { return func(d *Dashboard) { d.clock = c } }

// WithRandom sets the random source.
func WithRandom(r domain.RandomSource) Option { return func(d *Dashboard) { d.rng = r } }

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) Option { return func(d *Dashboard) { d.logger = l } }

// WithMetrics sets the metrics sink.
func WithMetrics(m *observability.Metrics) Option { return func(d *Dashboard) { d.metrics = m } }

// WithGeocoder enables place labels for clicked coordinates.
func WithGeocoder(g domain.Geocoder) Option { return func(d *Dashboard) { d.geocoder = g } }

// WithLiveProviders makes refreshes fetch weather and streamflow. It only
// takes effect for seeds that declare live gauges.
func WithLiveProviders(w domain.WeatherProvider, f domain.StreamflowProvider) Option {
	return func(d *Dashboard) {
		d.weather = w
		d.flow = f
	}
}

// New builds a dashboard from a validated seed.
func New(seed catalog.Seed, opts ...Option) (*Dashboard, error) {
	cat, err := seed.Catalog()
	if err != nil {
		return nil, fmt.Errorf("dashboard %s: %w", seed.ID, err)
	}
	d := &Dashboard{
		seed:    seed,
		cat:     cat,
		source:  domain.SourceSeed,
		logger:  slog.Default(),
		metrics: observability.NewMetricsForTesting(),
		clock:   clockwork.NewRealClock(),
	}
	for _, o := range opts {
		o(d)
	}
	if d.rng == nil {
		d.rng = domain.NewRandomSource(0)
	}
	if seed.Live == nil {
		d.weather, d.flow = nil, nil
	}
	d.logger = d.logger.With("dashboard", seed.ID)
	d.forecast = domain.GenerateForecast(domain.DefaultStartingRisk(d.rng), seed.ForecastDays, d.rng, d.clock.Now())
	d.metrics.TrackedAtRisk.WithLabelValues(seed.ID).Set(float64(sumAtRisk(cat.Regions())))
	return d, nil
}

// ID returns the dashboard identifier.
func (d *Dashboard) ID() string { return d.seed.ID }

// Title returns the display title.
func (d *Dashboard) Title() string { return d.seed.Title }

// Interval returns the seed's jitter period.
func (d *Dashboard) Interval() time.Duration { return d.seed.Jitter.Interval }

// Live reports whether refreshes fetch from external providers.
func (d *Dashboard) Live() bool { return d.weather != nil && d.flow != nil }

// Thresholds returns the level partition used by this dashboard.
func (d *Dashboard) Thresholds() domain.Thresholds { return d.seed.Thresholds }

// Regions returns a copy of the catalog in order.
func (d *Dashboard) Regions() []domain.Region {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return d.cat.Regions()
}

// Region returns one region by ID.
func (d *Dashboard) Region(id string) (domain.Region, error) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	r, ok := d.cat.Get(id)
	if !ok {
		return domain.Region{}, fmt.Errorf("%w: %s", domain.ErrRegionNotFound, id)
	}
	return r, nil
}

// Closest is the answer to a map click.
type Closest struct {
	Region     domain.Region `json:"region"`
	DistanceKm float64       `json:"distance_km"`
	Score      domain.Score  `json:"score"`
	Place      string        `json:"place,omitempty"`
}

// Closest resolves a clicked coordinate to the nearest region and scores it
// for the current month. Coordinates are clamped to valid ranges first.
func (d *Dashboard) Closest(ctx context.Context, lat, lon float64) (Closest, error) {
	lat, lon = domain.ClampCoordinate(lat, lon)
	r, dist, err := domain.FindClosest(lat, lon, d.Regions())
	if err != nil {
		return Closest{}, err
	}
	s, err := d.score(r, d.clock.Now().Month())
	if err != nil {
		return Closest{}, err
	}
	return Closest{
		Region:     r,
		DistanceKm: dist,
		Score:      s,
		Place:      domain.PlaceLabel(ctx, d.geocoder, lat, lon, d.logger),
	}, nil
}

// Score scores one region for the given month.
func (d *Dashboard) Score(regionID string, month time.Month) (domain.Score, error) {
	r, err := d.Region(regionID)
	if err != nil {
		return domain.Score{}, err
	}
	return d.score(r, month)
}

// ScoreAll scores every region in catalog order.
func (d *Dashboard) ScoreAll(month time.Month) ([]domain.Score, error) {
	regions := d.Regions()
	out := make([]domain.Score, 0, len(regions))
	for _, r := range regions {
		s, err := d.score(r, month)
		if err != nil {
			return nil, err
		}
		out = append(out, s)
	}
	return out, nil
}

func (d *Dashboard) score(r domain.Region, month time.Month) (domain.Score, error) {
	s, err := domain.ScoreRegion(r.BaseRisk, month, d.rng, d.seed.Thresholds)
	if err != nil {
		return domain.Score{}, fmt.Errorf("score %s: %w", r.ID, err)
	}
	s.RegionID = r.ID
	return s, nil
}

// ForecastRequest parameterizes an on-demand forecast.
type ForecastRequest struct {
	Start *float64
	Days  int
}

// Forecast generates a fresh synthetic forecast. A nil start draws the
// default starting risk; non-positive days use the dashboard default.
func (d *Dashboard) Forecast(req ForecastRequest) []domain.ForecastDay {
	days := req.Days
	if days <= 0 {
		days = d.seed.ForecastDays
	}
	start := domain.DefaultStartingRisk(d.rng)
	if req.Start != nil {
		start = *req.Start
	}
	return domain.GenerateForecast(start, days, d.rng, d.clock.Now())
}

// CurrentForecast returns the forecast set by the latest refresh.
func (d *Dashboard) CurrentForecast() []domain.ForecastDay {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return append([]domain.ForecastDay(nil), d.forecast...)
}

// ApplyJitter perturbs every at-risk counter once.
func (d *Dashboard) ApplyJitter() error {
	if d.closed.Load() {
		return ErrClosed
	}
	if !d.inFlight.CompareAndSwap(false, true) {
		return ErrRefreshInProgress
	}
	defer d.inFlight.Store(false)
	return d.jitterLocked()
}

// jitterLocked re-checks closed under mu so a Close that lands after the
// in-flight flag was taken still wins.
func (d *Dashboard) jitterLocked() error {
	d.mu.Lock()
	if d.closed.Load() {
		d.mu.Unlock()
		return ErrClosed
	}
	d.cat.Jitter(d.seed.Jitter.Bound, d.rng)
	d.cycle++
	total := sumAtRisk(d.cat.Regions())
	d.mu.Unlock()

	d.metrics.JitterTicks.WithLabelValues(d.seed.ID).Inc()
	d.metrics.TrackedAtRisk.WithLabelValues(d.seed.ID).Set(float64(total))
	return nil
}

// Tick is one scheduled cycle: jitter, then a refresh for live dashboards.
// It returns the resulting snapshot, or ErrStaleRefresh when Close discarded
// the refresh.
func (d *Dashboard) Tick(ctx context.Context) (domain.Snapshot, error) {
	if d.closed.Load() {
		return domain.Snapshot{}, ErrClosed
	}
	if !d.inFlight.CompareAndSwap(false, true) {
		d.metrics.Refreshes.WithLabelValues(d.seed.ID, OutcomeBusy).Inc()
		return domain.Snapshot{}, ErrRefreshInProgress
	}
	defer d.inFlight.Store(false)

	if err := d.jitterLocked(); err != nil {
		return domain.Snapshot{}, err
	}
	if d.Live() {
		if err := d.refreshLocked(ctx); err != nil {
			return domain.Snapshot{}, err
		}
	}
	return d.Snapshot()
}

// Stats computes the headline figures.
func (d *Dashboard) Stats() ([]domain.Stat, error) {
	return domain.ComputeStats(d.Regions(), d.seed.Stats, d.seed.Thresholds)
}

// Snapshot captures the current state.
func (d *Dashboard) Snapshot() (domain.Snapshot, error) {
	now := d.clock.Now()
	d.mu.RLock()
	regions := d.cat.Regions()
	forecast := append([]domain.ForecastDay(nil), d.forecast...)
	source, cycle := d.source, d.cycle
	d.mu.RUnlock()

	stats, err := domain.ComputeStats(regions, d.seed.Stats, d.seed.Thresholds)
	if err != nil {
		return domain.Snapshot{}, err
	}
	scores := make([]domain.Score, 0, len(regions))
	for _, r := range regions {
		s, err := d.score(r, now.Month())
		if err != nil {
			return domain.Snapshot{}, err
		}
		scores = append(scores, s)
	}
	return domain.Snapshot{
		ID:        uuid.NewString(),
		Dashboard: d.seed.ID,
		Title:     d.seed.Title,
		Cycle:     cycle,
		Source:    source,
		TakenAt:   now.UTC(),
		Regions:   regions,
		Scores:    scores,
		Stats:     stats,
		Forecast:  forecast,
	}, nil
}

// Close stops accepting mutations and invalidates any refresh in flight.
func (d *Dashboard) Close() {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.closed.Store(true)
	d.seq.Add(1)
}

// LastRefresh returns when a refresh was last applied, or the zero time.
func (d *Dashboard) LastRefresh() time.Time {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return d.lastRefresh
}

func sumAtRisk(regions []domain.Region) int {
	total := 0
	for _, r := range regions {
		total += r.AtRisk
	}
	return total
}

// Now reads the dashboard's clock.
func (d *Dashboard) Now() time.Time { return d.clock.Now() }
