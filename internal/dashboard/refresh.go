package dashboard

import (
	"context"
	"errors"
	"fmt"

	"github.com/couchcryptid/floodplan-service/internal/domain"
	"golang.org/x/sync/errgroup"
)

// ErrStaleRefresh is returned when a refresh finished after the dashboard
// moved on and its results were dropped.
var ErrStaleRefresh = errors.New("refresh result discarded")

// Refresh outcomes recorded in metrics.
const (
	OutcomeLive      = "live"
	OutcomeSynthetic = "synthetic"
	OutcomeFallback  = "fallback"
	OutcomeStale     = "stale"
	OutcomeBusy      = "busy"
)

// Refresh replaces the forecast and, for live dashboards, the gauged river
// readings. Either every provider succeeds and all live data is applied, or
// the forecast is regenerated synthetically and rivers are left as they were.
func (d *Dashboard) Refresh(ctx context.Context) (domain.Snapshot, error) {
	if d.closed.Load() {
		return domain.Snapshot{}, ErrClosed
	}
	if !d.inFlight.CompareAndSwap(false, true) {
		d.metrics.Refreshes.WithLabelValues(d.seed.ID, OutcomeBusy).Inc()
		return domain.Snapshot{}, ErrRefreshInProgress
	}
	defer d.inFlight.Store(false)

	if err := d.refreshLocked(ctx); err != nil {
		return domain.Snapshot{}, err
	}
	return d.Snapshot()
}

// liveData is the joined result of both provider fetches.
type liveData struct {
	weather []domain.WeatherDay
	flows   map[string]float64
}

func (d *Dashboard) refreshLocked(ctx context.Context) error {
	seq := d.seq.Add(1)

	outcome := OutcomeSynthetic
	var data *liveData
	if d.Live() {
		live, err := d.fetchLive(ctx)
		if err != nil {
			d.logger.Warn("live refresh failed, using synthetic data", "error", err)
			outcome = OutcomeFallback
		} else {
			data = live
			outcome = OutcomeLive
		}
	}

	var (
		forecast []domain.ForecastDay
		rivers   map[string][]domain.RiverStatus
		source   = domain.SourceSynthetic
	)
	if data != nil {
		var alerting int
		rivers, alerting = d.gaugeRivers(data.flows)
		forecast = domain.LiveForecast(d.meanBaseRisk(), data.weather, alerting)
		source = domain.SourceLive
	} else {
		forecast = domain.GenerateForecast(domain.DefaultStartingRisk(d.rng), d.seed.ForecastDays, d.rng, d.clock.Now())
	}

	d.mu.Lock()
	defer d.mu.Unlock()
	if d.seq.Load() != seq {
		d.metrics.Refreshes.WithLabelValues(d.seed.ID, OutcomeStale).Inc()
		d.logger.Info("discarding stale refresh", "seq", seq)
		return ErrStaleRefresh
	}
	for id, rs := range rivers {
		if err := d.cat.ReplaceRivers(id, rs); err != nil {
			return err
		}
	}
	d.forecast = forecast
	d.source = source
	d.lastRefresh = d.clock.Now()
	d.metrics.Refreshes.WithLabelValues(d.seed.ID, outcome).Inc()
	d.logger.Debug("refresh applied", "outcome", outcome, "days", len(forecast))
	return nil
}

func (d *Dashboard) fetchLive(ctx context.Context) (*liveData, error) {
	live := d.seed.Live
	sites := make([]string, len(live.Gauges))
	for i, g := range live.Gauges {
		sites[i] = g.Site
	}

	var out liveData
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		days, err := d.weather.DailyForecast(gctx, live.WeatherPoint, d.seed.ForecastDays)
		if err != nil {
			return err
		}
		if len(days) == 0 {
			return domain.NewProviderError("weather", errors.New("empty daily forecast"))
		}
		out.weather = days
		return nil
	})
	g.Go(func() error {
		flows, err := d.flow.LatestDischarge(gctx, sites)
		if err != nil {
			return err
		}
		for _, s := range sites {
			if _, ok := flows[s]; !ok {
				return domain.NewProviderError("streamflow", fmt.Errorf("no reading for site %s", s))
			}
		}
		out.flows = flows
		return nil
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return &out, nil
}

// gaugeRivers groups gauge readings into per-region river lists, in gauge
// order, and counts gauges at warning or above.
func (d *Dashboard) gaugeRivers(flows map[string]float64) (map[string][]domain.RiverStatus, int) {
	rivers := make(map[string][]domain.RiverStatus)
	alerting := 0
	for _, g := range d.seed.Live.Gauges {
		rv := domain.GaugeRiver(g.River, flows[g.Site], g.FloodFlow)
		if rv.Alerting() {
			alerting++
		}
		rivers[g.Region] = append(rivers[g.Region], rv)
	}
	return rivers, alerting
}

func (d *Dashboard) meanBaseRisk() float64 {
	regions := d.Regions()
	total := 0
	for _, r := range regions {
		total += r.BaseRisk
	}
	return float64(total) / float64(len(regions))
}
