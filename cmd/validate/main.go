// Command validate runs integrity checks over the embedded dashboard seeds:
// seed validation, scoring coverage for every month, map and chart rendering,
// and the gauge bindings of live dashboards.
//
// Usage:
//
//	go run ./cmd/validate [-dashboards world,us,wa,wa-monitor]
package main

import (
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/couchcryptid/floodplan-service/internal/adapter/echarts"
	"github.com/couchcryptid/floodplan-service/internal/catalog"
	"github.com/couchcryptid/floodplan-service/internal/dashboard"
	"github.com/couchcryptid/floodplan-service/internal/domain"
	"github.com/couchcryptid/floodplan-service/internal/observability"
	"github.com/jonboulle/clockwork"
)

var validateTime = time.Date(2026, time.January, 15, 12, 0, 0, 0, time.UTC)

// phase tracks pass/fail for a validation phase.
type phase struct {
	name   string
	errors []string
}

func (p *phase) errorf(format string, args ...any) {
	p.errors = append(p.errors, fmt.Sprintf(format, args...))
}

func (p *phase) passed() bool { return len(p.errors) == 0 }

func main() {
	ids := flag.String("dashboards", strings.Join(catalog.DefaultIDs, ","), "comma-separated dashboard seeds to validate")
	flag.Parse()

	os.Exit(run(strings.Split(*ids, ",")))
}

func run(ids []string) int {
	fmt.Println("=== Dashboard Seed Validation ===")
	fmt.Println()

	seeds, seedPhase := validateSeeds(ids)
	phases := []*phase{
		seedPhase,
		validateScoring(seeds),
		validateRendering(seeds),
		validateGauges(seeds),
	}

	allPassed := true
	for _, p := range phases {
		status := "\033[32mPASS\033[0m"
		if !p.passed() {
			status = fmt.Sprintf("\033[31mFAIL (%d errors)\033[0m", len(p.errors))
			allPassed = false
		}
		fmt.Printf("  %-42s %s\n", p.name, status)
	}

	regions := 0
	for _, s := range seeds {
		regions += len(s.Regions)
	}
	fmt.Printf("\nSeeds: %d loaded, %d regions\n", len(seeds), regions)

	for _, p := range phases {
		if p.passed() {
			continue
		}
		fmt.Printf("\n--- %s ---\n", p.name)
		for i, e := range p.errors {
			fmt.Printf("  [%d] %s\n", i+1, e)
		}
	}

	if allPassed {
		fmt.Println("\nAll validations passed.")
		return 0
	}
	fmt.Println("\nValidation FAILED.")
	return 1
}

func validateSeeds(ids []string) ([]catalog.Seed, *phase) {
	p := &phase{name: "Seed integrity"}
	seen := map[string]bool{}
	var seeds []catalog.Seed
	for _, id := range ids {
		id = strings.TrimSpace(id)
		s, err := catalog.Load(id)
		if err != nil {
			p.errorf("%v", err)
			continue
		}
		if seen[s.ID] {
			p.errorf("dashboard %s listed twice", s.ID)
			continue
		}
		seen[s.ID] = true
		seeds = append(seeds, s)
	}
	return seeds, p
}

// validateScoring scores every region for every month at both ends of the
// noise range and checks the result stays in [0,100] with a known level.
func validateScoring(seeds []catalog.Seed) *phase {
	p := &phase{name: "Scoring coverage (12 months, noise extremes)"}
	for _, s := range seeds {
		labels := map[string]bool{}
		for _, l := range s.Thresholds.Labels {
			labels[l] = true
		}
		for _, noise := range []float64{0, 0.999999} {
			rng := domain.NewSequenceSource(noise)
			for _, r := range s.Regions {
				for m := time.January; m <= time.December; m++ {
					sc, err := domain.ScoreRegion(r.BaseRisk, m, rng, s.Thresholds)
					if err != nil {
						p.errorf("%s/%s %s: %v", s.ID, r.ID, m, err)
						continue
					}
					if sc.Score < 0 || sc.Score > 100 {
						p.errorf("%s/%s %s: score %d out of range", s.ID, r.ID, m, sc.Score)
					}
					if !labels[sc.Level] {
						p.errorf("%s/%s %s: unknown level %q", s.ID, r.ID, m, sc.Level)
					}
				}
			}
		}
	}
	return p
}

func validateRendering(seeds []catalog.Seed) *phase {
	p := &phase{name: "Map and chart rendering"}
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	metrics := observability.NewMetricsForTesting()
	renderer := echarts.NewRenderer(logger, metrics)

	for _, s := range seeds {
		d, err := dashboard.New(s,
			dashboard.WithClock(clockwork.NewFakeClockAt(validateTime)),
			dashboard.WithRandom(domain.NewSequenceSource()),
			dashboard.WithLogger(logger),
			dashboard.WithMetrics(metrics),
		)
		if err != nil {
			p.errorf("%s: %v", s.ID, err)
			continue
		}
		layer, err := d.MapLayer()
		if err != nil {
			p.errorf("%s: map layer: %v", s.ID, err)
		} else if want := len(s.Regions) + len(s.Overlays) + len(s.Markers); len(layer.Features) != want {
			p.errorf("%s: map layer has %d features, want %d", s.ID, len(layer.Features), want)
		}
		specs, err := d.Charts(validateTime.Month())
		if err != nil {
			p.errorf("%s: charts: %v", s.ID, err)
			continue
		}
		if err := renderer.Render(io.Discard, s.Title, specs); err != nil {
			p.errorf("%s: render: %v", s.ID, err)
		}
	}
	return p
}

// validateGauges checks that every live gauge names a river the seed already
// lists on its region.
func validateGauges(seeds []catalog.Seed) *phase {
	p := &phase{name: "Live gauge bindings"}
	for _, s := range seeds {
		if s.Live == nil {
			continue
		}
		rivers := map[string]map[string]bool{}
		for _, r := range s.Regions {
			rivers[r.ID] = map[string]bool{}
			for _, rv := range r.Rivers {
				rivers[r.ID][rv.Name] = true
			}
		}
		sites := map[string]bool{}
		for _, g := range s.Live.Gauges {
			if sites[g.Site] {
				p.errorf("%s: gauge site %s bound twice", s.ID, g.Site)
			}
			sites[g.Site] = true
			if !rivers[g.Region][g.River] {
				p.errorf("%s: gauge %s river %q not listed on region %s", s.ID, g.Site, g.River, g.Region)
			}
		}
	}
	return p
}
