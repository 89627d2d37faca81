package domain

import (
	"context"
	"fmt"
	"math"
	"time"
)

// WeatherDay is one day of a provider weather forecast.
type WeatherDay struct {
	Date            time.Time
	PrecipitationIn float64
	TempMaxF        float64
	TempMinF        float64
}

// WeatherProvider fetches a daily forecast for a point.
type WeatherProvider interface {
	DailyForecast(ctx context.Context, point Geo, days int) ([]WeatherDay, error)
}

// StreamflowProvider fetches the latest discharge (cfs) for gauge sites,
// keyed by site ID.
type StreamflowProvider interface {
	LatestDischarge(ctx context.Context, sites []string) (map[string]float64, error)
}

// GaugeStatus grades a discharge reading against the site's flood flow.
func GaugeStatus(discharge, floodFlow float64) string {
	if floodFlow <= 0 {
		return StatusNormal
	}
	switch ratio := discharge / floodFlow; {
	case ratio >= 1.0:
		return StatusCritical
	case ratio >= 0.85:
		return StatusWarning
	case ratio >= 0.70:
		return StatusWatch
	default:
		return StatusNormal
	}
}

// GaugeRiver renders a gauge reading as a river status entry.
func GaugeRiver(name string, discharge, floodFlow float64) RiverStatus {
	return RiverStatus{
		Name:         name,
		Status:       GaugeStatus(discharge, floodFlow),
		CurrentLevel: fmt.Sprintf("%.0f cfs", discharge),
		FloodStage:   fmt.Sprintf("%.0f cfs", floodFlow),
	}
}

// LiveForecast scores provider weather days. Each day's risk is
// base + 20 per inch of precipitation + 10 per alerting gauge, rounded and
// clamped to [10,90].
func LiveForecast(base float64, days []WeatherDay, alertingGauges int) []ForecastDay {
	out := make([]ForecastDay, len(days))
	for i, d := range days {
		risk := clamp(math.Round(base+20*d.PrecipitationIn+10*float64(alertingGauges)), forecastMinRisk, forecastMaxRisk)
		precip := math.Round(d.PrecipitationIn*100) / 100
		out[i] = ForecastDay{
			Label:         DayLabel(i, d.Date),
			Date:          d.Date.Format(time.DateOnly),
			RiskScore:     int(risk),
			Precipitation: precip,
			Description:   DescribePrecipitation(precip),
		}
	}
	return out
}
