// Package catalog loads the embedded dashboard seeds. Each seed is a YAML
// document describing one dashboard: its regions, map overlays and markers,
// static chart series, headline stats, jitter settings, and (for the live
// monitor) the provider gauges it refreshes from.
package catalog

import (
	"embed"
	"errors"
	"fmt"
	"slices"
	"time"

	"github.com/couchcryptid/floodplan-service/internal/domain"
	"gopkg.in/yaml.v3"
)

//go:embed data/*.yaml
var seedFS embed.FS

// DefaultIDs lists the shipped dashboards in display order.
var DefaultIDs = []string{"world", "us", "wa", "wa-monitor"}

// Jitter configures the periodic perturbation of at-risk counters.
type Jitter struct {
	Interval time.Duration `yaml:"interval"`
	Bound    float64       `yaml:"bound"`
}

// Overlay is a risk polygon that is not tied to a catalog region.
type Overlay struct {
	Name    string       `yaml:"name"`
	Level   string       `yaml:"level"`
	Note    string       `yaml:"note"`
	Polygon []domain.Geo `yaml:"polygon"`
}

// Marker is a point of interest such as an emergency zone or a river gauge.
type Marker struct {
	Name       string             `yaml:"name"`
	Kind       string             `yaml:"kind"`
	Position   domain.Geo         `yaml:"position"`
	Status     string             `yaml:"status"`
	Note       string             `yaml:"note"`
	Attributes []domain.Attribute `yaml:"attributes"`
}

// Gauge binds a streamflow site to a river of a catalog region.
type Gauge struct {
	Site      string  `yaml:"site"`
	Region    string  `yaml:"region"`
	River     string  `yaml:"river"`
	FloodFlow float64 `yaml:"flood_flow"`
}

// Live configures the external providers of a live dashboard.
type Live struct {
	WeatherPoint domain.Geo `yaml:"weather_point"`
	Gauges       []Gauge    `yaml:"gauges"`
}

// Seed is the parsed definition of one dashboard.
type Seed struct {
	ID           string             `yaml:"id"`
	Title        string             `yaml:"title"`
	Inherit      string             `yaml:"inherit"`
	Jitter       Jitter             `yaml:"jitter"`
	Thresholds   domain.Thresholds  `yaml:"thresholds"`
	ForecastDays int                `yaml:"forecast_days"`
	Stats        []domain.StatDef   `yaml:"stats"`
	Regions      []domain.Region    `yaml:"regions"`
	Overlays     []Overlay          `yaml:"overlays"`
	Markers      []Marker           `yaml:"markers"`
	Charts       []domain.ChartSpec `yaml:"charts"`
	Live         *Live              `yaml:"live"`
}

// Load reads, resolves, and validates the embedded seed with the given ID.
func Load(id string) (Seed, error) {
	s, err := read(id)
	if err != nil {
		return Seed{}, err
	}
	if s.Inherit != "" {
		parent, err := read(s.Inherit)
		if err != nil {
			return Seed{}, fmt.Errorf("seed %s: inherit: %w", id, err)
		}
		if parent.Inherit != "" {
			return Seed{}, fmt.Errorf("seed %s: inherited seed %s inherits again", id, parent.ID)
		}
		s.inheritFrom(parent)
	}
	if err := s.Validate(); err != nil {
		return Seed{}, fmt.Errorf("seed %s: %w", id, err)
	}
	return s, nil
}

// LoadAll loads every seed named in ids.
func LoadAll(ids []string) ([]Seed, error) {
	seeds := make([]Seed, 0, len(ids))
	for _, id := range ids {
		s, err := Load(id)
		if err != nil {
			return nil, err
		}
		seeds = append(seeds, s)
	}
	return seeds, nil
}

// Parse decodes one seed document without resolving inheritance.
func Parse(data []byte) (Seed, error) {
	var s Seed
	if err := yaml.Unmarshal(data, &s); err != nil {
		return Seed{}, fmt.Errorf("decode seed: %w", err)
	}
	return s, nil
}

func read(id string) (Seed, error) {
	data, err := seedFS.ReadFile("data/" + id + ".yaml")
	if err != nil {
		return Seed{}, fmt.Errorf("unknown dashboard %q: %w", id, err)
	}
	s, err := Parse(data)
	if err != nil {
		return Seed{}, fmt.Errorf("seed %s: %w", id, err)
	}
	if s.ID != id {
		return Seed{}, fmt.Errorf("seed file %s declares id %q", id, s.ID)
	}
	return s, nil
}

func (s *Seed) inheritFrom(p Seed) {
	inheritRegions := len(s.Regions) == 0
	if inheritRegions {
		s.Regions = slices.Clone(p.Regions)
	}
	if len(s.Overlays) == 0 {
		s.Overlays = p.Overlays
	}
	if len(s.Markers) == 0 {
		s.Markers = p.Markers
	}
	if len(s.Stats) == 0 {
		s.Stats = p.Stats
	}
	if len(s.Charts) == 0 {
		s.Charts = p.Charts
	}
	if s.Thresholds == (domain.Thresholds{}) {
		s.Thresholds = p.Thresholds
	}
	if s.Jitter == (Jitter{}) {
		s.Jitter = p.Jitter
	}
	if s.ForecastDays == 0 {
		s.ForecastDays = p.ForecastDays
	}
	// Inherited region levels are relabelled by rank onto this seed's labels.
	if inheritRegions && s.Thresholds.Labels != p.Thresholds.Labels {
		for i, r := range s.Regions {
			if idx := p.Thresholds.Index(r.Level); idx >= 0 {
				s.Regions[i].Level = s.Thresholds.Labels[idx]
			}
		}
	}
}

// Catalog builds the region catalog of the seed.
func (s Seed) Catalog() (*domain.Catalog, error) {
	return domain.NewCatalog(s.Regions)
}

var validStatus = map[string]bool{
	domain.StatusNormal:   true,
	domain.StatusWatch:    true,
	domain.StatusWarning:  true,
	domain.StatusCritical: true,
}

// Validate reports every integrity problem of the seed.
func (s Seed) Validate() error {
	var errs []error
	add := func(format string, args ...any) { errs = append(errs, fmt.Errorf(format, args...)) }

	if s.Title == "" {
		add("title is required")
	}
	if s.Jitter.Interval <= 0 {
		add("jitter interval must be positive")
	}
	if s.Jitter.Bound < 0.015 || s.Jitter.Bound > 0.05 {
		add("jitter bound %v outside [0.015,0.05]", s.Jitter.Bound)
	}
	if s.ForecastDays <= 0 {
		add("forecast_days must be positive")
	}
	if err := s.Thresholds.Validate(); err != nil {
		errs = append(errs, err)
	}

	cat, err := s.Catalog()
	if err != nil {
		errs = append(errs, err)
	}
	for _, r := range s.Regions {
		if !validGeo(r.Center) {
			add("region %s: center %v out of range", r.ID, r.Center)
		}
		if r.BaseRisk < 0 || r.BaseRisk > 100 {
			add("region %s: base_risk %d outside [0,100]", r.ID, r.BaseRisk)
		}
		if r.AtRisk < 0 {
			add("region %s: at_risk is negative", r.ID)
		}
		if s.Thresholds.Index(r.Level) < 0 {
			add("region %s: level %q is not a threshold label", r.ID, r.Level)
		}
		for _, rv := range r.Rivers {
			if !validStatus[rv.Status] {
				add("region %s: river %s has status %q", r.ID, rv.Name, rv.Status)
			}
		}
		for _, g := range r.Bounds {
			if !validGeo(g) {
				add("region %s: bound %v out of range", r.ID, g)
			}
		}
	}
	if _, err := domain.ComputeStats(s.Regions, s.Stats, s.Thresholds); err != nil {
		errs = append(errs, err)
	}
	for _, o := range s.Overlays {
		if len(o.Polygon) < 3 {
			add("overlay %s: polygon needs at least 3 points", o.Name)
		}
	}
	for _, m := range s.Markers {
		if !validStatus[m.Status] {
			add("marker %s: status %q", m.Name, m.Status)
		}
		if !validGeo(m.Position) {
			add("marker %s: position %v out of range", m.Name, m.Position)
		}
	}
	for _, c := range s.Charts {
		if c.Kind != domain.ChartLine && c.Kind != domain.ChartBar {
			add("chart %s: kind %q", c.ID, c.Kind)
		}
		for _, sr := range c.Series {
			if len(sr.Data) != len(c.Labels) {
				add("chart %s: series %q has %d points for %d labels", c.ID, sr.Label, len(sr.Data), len(c.Labels))
			}
		}
	}
	if s.Live != nil {
		if !validGeo(s.Live.WeatherPoint) {
			add("live: weather point %v out of range", s.Live.WeatherPoint)
		}
		if len(s.Live.Gauges) == 0 {
			add("live: at least one gauge is required")
		}
		for _, g := range s.Live.Gauges {
			if g.Site == "" {
				add("live: gauge for %s has no site", g.River)
			}
			if g.FloodFlow <= 0 {
				add("live: gauge %s flood_flow must be positive", g.Site)
			}
			if cat != nil {
				if _, ok := cat.Get(g.Region); !ok {
					add("live: gauge %s references unknown region %q", g.Site, g.Region)
				}
			}
		}
	}
	return errors.Join(errs...)
}

func validGeo(g domain.Geo) bool {
	return g.Lat >= -90 && g.Lat <= 90 && g.Lon >= -180 && g.Lon <= 180
}
