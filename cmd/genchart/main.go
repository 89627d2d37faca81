// Command genchart renders the chart page of every dashboard to an HTML file.
// It uses a fixed clock and random seed so repeated runs produce identical
// figures (chart element IDs aside).
//
// Usage:
//
//	go run ./cmd/genchart -out build/charts [-seed 42] [-month 1]
package main

import (
	"flag"
	"fmt"
	"io"
	"log"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/couchcryptid/floodplan-service/internal/adapter/echarts"
	"github.com/couchcryptid/floodplan-service/internal/catalog"
	"github.com/couchcryptid/floodplan-service/internal/dashboard"
	"github.com/couchcryptid/floodplan-service/internal/domain"
	"github.com/couchcryptid/floodplan-service/internal/observability"
	"github.com/jonboulle/clockwork"
)

var baseDate = time.Date(2026, time.January, 15, 12, 0, 0, 0, time.UTC)

func main() {
	if err := run(); err != nil {
		log.Fatal(err)
	}
}

func run() error {
	outDir := flag.String("out", "", "directory to write <dashboard>.html files into")
	seed := flag.Uint64("seed", 42, "random seed for scores and forecasts")
	month := flag.Int("month", int(baseDate.Month()), "month used for regional risk scores (1-12)")
	ids := flag.String("dashboards", strings.Join(catalog.DefaultIDs, ","), "comma-separated dashboards to render")
	flag.Parse()

	if *outDir == "" {
		flag.Usage()
		return fmt.Errorf("missing required flag: -out")
	}
	if *month < 1 || *month > 12 {
		return fmt.Errorf("month %d outside [1,12]", *month)
	}
	if err := os.MkdirAll(*outDir, 0o755); err != nil {
		return err
	}

	seeds, err := catalog.LoadAll(strings.Split(*ids, ","))
	if err != nil {
		return err
	}

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	metrics := observability.NewMetricsForTesting()
	renderer := echarts.NewRenderer(logger, metrics)

	for _, s := range seeds {
		d, err := dashboard.New(s,
			dashboard.WithClock(clockwork.NewFakeClockAt(baseDate)),
			dashboard.WithRandom(domain.NewRandomSource(*seed)),
			dashboard.WithLogger(logger),
			dashboard.WithMetrics(metrics),
		)
		if err != nil {
			return fmt.Errorf("%s: %w", s.ID, err)
		}
		specs, err := d.Charts(time.Month(*month))
		if err != nil {
			return fmt.Errorf("%s: %w", s.ID, err)
		}
		path := filepath.Join(*outDir, s.ID+".html")
		if err := writePage(renderer, path, s.Title, specs); err != nil {
			return fmt.Errorf("%s: %w", s.ID, err)
		}
		fmt.Printf("Wrote %d charts to %s\n", len(specs), path)
	}
	return nil
}

func writePage(r *echarts.Renderer, path, title string, specs []domain.ChartSpec) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := r.Render(f, title, specs); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}
