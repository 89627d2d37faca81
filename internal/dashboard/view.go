package dashboard

import (
	"bytes"
	"fmt"
	"html/template"
	"strconv"
	"strings"
	"time"

	"github.com/couchcryptid/floodplan-service/internal/domain"
)

var popupTmpl = template.Must(template.New("popup").Parse(
	`<div class="popup"><h4 style="color: {{.Color}}">{{.Title}}</h4>` +
		`{{if .Note}}<p>{{.Note}}</p>{{end}}` +
		`{{range .Rows}}<p><strong>{{.Label}}:</strong> {{.Value}}</p>{{end}}</div>`))

type popup struct {
	Title string
	Color string
	Note  string
	Rows  []domain.Attribute
}

func renderPopup(p popup) (string, error) {
	var buf bytes.Buffer
	if err := popupTmpl.Execute(&buf, p); err != nil {
		return "", fmt.Errorf("render popup %s: %w", p.Title, err)
	}
	return buf.String(), nil
}

// MapLayer builds the map features: one per region (its bounds polygon, or
// its center point when it has none), then overlays, then markers.
func (d *Dashboard) MapLayer() (domain.MapLayer, error) {
	regions := d.Regions()
	layer := domain.MapLayer{Dashboard: d.seed.ID}

	for _, r := range regions {
		f := domain.MapFeature{
			ID:        "region:" + r.ID,
			Name:      r.Name,
			FillColor: domain.RiskColor(r.Level),
			RegionID:  r.ID,
		}
		if len(r.Bounds) >= 3 {
			f.Geometry = domain.GeometryPolygon
			f.Coordinates = r.Bounds
		} else {
			f.Geometry = domain.GeometryPoint
			f.Coordinates = []domain.Geo{r.Center}
		}
		html, err := renderPopup(regionPopup(r))
		if err != nil {
			return domain.MapLayer{}, err
		}
		f.PopupHTML = html
		layer.Features = append(layer.Features, f)
	}

	for i, o := range d.seed.Overlays {
		html, err := renderPopup(popup{
			Title: o.Name,
			Color: domain.RiskColor(o.Level),
			Note:  o.Note,
			Rows:  []domain.Attribute{{Label: "Risk level", Value: titleCase(o.Level)}},
		})
		if err != nil {
			return domain.MapLayer{}, err
		}
		layer.Features = append(layer.Features, domain.MapFeature{
			ID:          "overlay:" + strconv.Itoa(i),
			Name:        o.Name,
			Geometry:    domain.GeometryPolygon,
			Coordinates: o.Polygon,
			FillColor:   domain.RiskColor(o.Level),
			PopupHTML:   html,
		})
	}

	for i, m := range d.seed.Markers {
		rows := append([]domain.Attribute{{Label: "Status", Value: titleCase(m.Status)}}, m.Attributes...)
		html, err := renderPopup(popup{
			Title: m.Name,
			Color: domain.StatusColor(m.Status),
			Note:  m.Note,
			Rows:  rows,
		})
		if err != nil {
			return domain.MapLayer{}, err
		}
		layer.Features = append(layer.Features, domain.MapFeature{
			ID:          "marker:" + strconv.Itoa(i),
			Name:        m.Name,
			Geometry:    domain.GeometryPoint,
			Coordinates: []domain.Geo{m.Position},
			FillColor:   domain.StatusColor(m.Status),
			PopupHTML:   html,
		})
	}
	return layer, nil
}

func regionPopup(r domain.Region) popup {
	rows := []domain.Attribute{
		{Label: "Risk level", Value: titleCase(r.Level)},
		{Label: "People at risk", Value: domain.FormatNumber(float64(r.AtRisk))},
	}
	if r.Population > 0 {
		rows = append(rows, domain.Attribute{Label: "Population", Value: domain.FormatNumber(float64(r.Population))})
	}
	rows = append(rows, r.Attributes...)
	for _, rv := range r.Rivers {
		rows = append(rows, domain.Attribute{
			Label: rv.Name,
			Value: fmt.Sprintf("%s (%s / flood %s)", titleCase(rv.Status), rv.CurrentLevel, rv.FloodStage),
		})
	}
	return popup{Title: r.Name, Color: domain.RiskColor(r.Level), Note: r.Description, Rows: rows}
}

func titleCase(s string) string {
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + s[1:]
}

// Charts returns the dashboard's chart specs: the current forecast, the
// per-region at-risk counts and scores for month, then the seed's static
// series.
func (d *Dashboard) Charts(month time.Month) ([]domain.ChartSpec, error) {
	forecast := d.CurrentForecast()
	regions := d.Regions()
	scores, err := d.ScoreAll(month)
	if err != nil {
		return nil, err
	}

	days := make([]string, len(forecast))
	risk := make([]float64, len(forecast))
	precip := make([]float64, len(forecast))
	for i, f := range forecast {
		days[i] = f.Label
		risk[i] = float64(f.RiskScore)
		precip[i] = f.Precipitation
	}

	names := make([]string, len(regions))
	atRisk := make([]float64, len(regions))
	scored := make([]float64, len(regions))
	for i, r := range regions {
		names[i] = r.Name
		atRisk[i] = float64(r.AtRisk)
		scored[i] = float64(scores[i].Score)
	}

	charts := []domain.ChartSpec{
		{
			ID: "forecast-risk", Title: "Flood Risk Forecast", Kind: domain.ChartLine, Unit: "score",
			Labels: days,
			Series: []domain.Series{{Label: "Risk score", Data: risk, Color: "#ef4444"}},
		},
		{
			ID: "forecast-precipitation", Title: "Expected Precipitation", Kind: domain.ChartBar, Unit: "in",
			Labels: days,
			Series: []domain.Series{{Label: "Precipitation", Data: precip, Color: "#3b82f6"}},
		},
		{
			ID: "regional-at-risk", Title: "People at Risk by Region", Kind: domain.ChartBar,
			Labels: names,
			Series: []domain.Series{{Label: "At risk", Data: atRisk, Color: "#f59e0b"}},
		},
		{
			ID: "regional-risk-score", Title: "Risk Score by Region (" + month.String() + ")", Kind: domain.ChartBar, Unit: "score",
			Labels: names,
			Series: []domain.Series{{Label: "Risk score", Data: scored, Color: "#dc2626"}},
		},
	}
	return append(charts, d.seed.Charts...), nil
}
