// Package echarts renders dashboard chart specs to standalone HTML pages with
// go-echarts. When a page cannot be rendered the caller gets a static
// placeholder instead of an error page.
package echarts

import (
	"bytes"
	"errors"
	"fmt"
	"html/template"
	"io"
	"log/slog"
	"sync"

	"github.com/couchcryptid/floodplan-service/internal/domain"
	"github.com/couchcryptid/floodplan-service/internal/observability"
	"github.com/go-echarts/go-echarts/v2/charts"
	"github.com/go-echarts/go-echarts/v2/components"
	"github.com/go-echarts/go-echarts/v2/opts"
)

const (
	chartWidth  = "900px"
	chartHeight = "360px"
)

var placeholderTmpl = template.Must(template.New("placeholder").Parse(`<!DOCTYPE html>
<html><head><meta charset="utf-8"><title>{{.Title}}</title></head>
<body><div class="chart-placeholder"><h2>{{.Title}}</h2><p>Charts are temporarily unavailable.</p></div></body></html>
`))

// Renderer turns chart specs into HTML.
type Renderer struct {
	logger  *slog.Logger
	metrics *observability.Metrics

	mu     sync.Mutex
	warned map[string]bool
}

// NewRenderer creates a Renderer.
func NewRenderer(logger *slog.Logger, metrics *observability.Metrics) *Renderer {
	return &Renderer{logger: logger, metrics: metrics, warned: make(map[string]bool)}
}

// Render writes every spec as one page. Any invalid spec or render failure
// yields an error wrapping domain.ErrRenderUnavailable and writes nothing.
func (r *Renderer) Render(w io.Writer, title string, specs []domain.ChartSpec) error {
	page := components.NewPage()
	page.PageTitle = title
	page.SetLayout(components.PageFlexLayout)

	for _, spec := range specs {
		chart, err := buildChart(spec)
		if err != nil {
			return fmt.Errorf("%w: %w", domain.ErrRenderUnavailable, err)
		}
		page.AddCharts(chart)
	}

	var buf bytes.Buffer
	if err := page.Render(&buf); err != nil {
		return fmt.Errorf("%w: %w", domain.ErrRenderUnavailable, err)
	}
	_, err := w.Write(buf.Bytes())
	return err
}

// RenderOrPlaceholder renders the page, falling back to the placeholder when
// rendering fails. The first failure per dashboard is logged at warn level.
func (r *Renderer) RenderOrPlaceholder(w io.Writer, dashboard, title string, specs []domain.ChartSpec) error {
	var buf bytes.Buffer
	err := r.Render(&buf, title, specs)
	if err == nil {
		_, err = w.Write(buf.Bytes())
		return err
	}
	if !errors.Is(err, domain.ErrRenderUnavailable) {
		return err
	}

	r.metrics.RenderFallbacks.WithLabelValues(dashboard).Inc()
	if r.firstFailure(dashboard) {
		r.logger.Warn("chart rendering unavailable, serving placeholder", "dashboard", dashboard, "error", err)
	} else {
		r.logger.Debug("chart rendering unavailable", "dashboard", dashboard, "error", err)
	}
	return placeholderTmpl.Execute(w, struct{ Title string }{title})
}

func (r *Renderer) firstFailure(dashboard string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.warned[dashboard] {
		return false
	}
	r.warned[dashboard] = true
	return true
}

func buildChart(spec domain.ChartSpec) (components.Charter, error) {
	for _, s := range spec.Series {
		if len(s.Data) != len(spec.Labels) {
			return nil, fmt.Errorf("chart %s: series %q has %d points for %d labels", spec.ID, s.Label, len(s.Data), len(spec.Labels))
		}
	}
	global := []charts.GlobalOpts{
		charts.WithInitializationOpts(opts.Initialization{
			ChartID: spec.ID,
			Width:   chartWidth,
			Height:  chartHeight,
		}),
		charts.WithTitleOpts(opts.Title{Title: spec.Title}),
		charts.WithTooltipOpts(opts.Tooltip{Show: opts.Bool(true), Trigger: "axis"}),
		charts.WithLegendOpts(opts.Legend{Show: opts.Bool(len(spec.Series) > 1), Top: "bottom"}),
		charts.WithYAxisOpts(opts.YAxis{Name: spec.Unit}),
	}

	switch spec.Kind {
	case domain.ChartLine:
		line := charts.NewLine()
		line.SetGlobalOptions(global...)
		line.SetXAxis(spec.Labels)
		for _, s := range spec.Series {
			data := make([]opts.LineData, len(s.Data))
			for i, v := range s.Data {
				data[i] = opts.LineData{Value: v}
			}
			line.AddSeries(s.Label, data,
				charts.WithLineChartOpts(opts.LineChart{Smooth: opts.Bool(true)}),
				charts.WithItemStyleOpts(opts.ItemStyle{Color: s.Color}),
			)
		}
		return line, nil
	case domain.ChartBar:
		bar := charts.NewBar()
		bar.SetGlobalOptions(global...)
		bar.SetXAxis(spec.Labels)
		for _, s := range spec.Series {
			data := make([]opts.BarData, len(s.Data))
			for i, v := range s.Data {
				data[i] = opts.BarData{Value: v}
			}
			bar.AddSeries(s.Label, data, charts.WithItemStyleOpts(opts.ItemStyle{Color: s.Color}))
		}
		return bar, nil
	default:
		return nil, fmt.Errorf("chart %s: unsupported kind %q", spec.ID, spec.Kind)
	}
}
