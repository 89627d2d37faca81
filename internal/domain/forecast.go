package domain

import (
	"math"
	"time"
)

const (
	forecastMinRisk   = 10
	forecastMaxRisk   = 90
	forecastMaxPrecip = 2.5
)

// ForecastDay is one step of a generated forecast.
type ForecastDay struct {
	Label         string  `json:"label"`
	Date          string  `json:"date"`
	RiskScore     int     `json:"risk_score"`
	Precipitation float64 `json:"precipitation_in"`
	Description   string  `json:"description"`
}

// DefaultStartingRisk draws the starting risk used when a caller gives none.
func DefaultStartingRisk(rng RandomSource) float64 {
	return 40 + uniform(rng, 0, 30)
}

// GenerateForecast walks a risk value for the given number of days starting
// at start. Each day draws the risk step first, then precipitation. The first
// two days are labelled "Today" and "Tomorrow"; the rest use the weekday of
// now plus i days. It returns nil when days ≤ 0.
func GenerateForecast(start float64, days int, rng RandomSource, now time.Time) []ForecastDay {
	if days <= 0 {
		return nil
	}
	out := make([]ForecastDay, days)
	risk := start
	for i := range out {
		risk = clamp(risk+uniform(rng, -10, 10), forecastMinRisk, forecastMaxRisk)
		precip := math.Round(uniform(rng, 0, forecastMaxPrecip)*100) / 100
		date := now.AddDate(0, 0, i)
		out[i] = ForecastDay{
			Label:         DayLabel(i, date),
			Date:          date.Format(time.DateOnly),
			RiskScore:     int(math.Round(risk)),
			Precipitation: precip,
			Description:   DescribePrecipitation(precip),
		}
	}
	return out
}

// DayLabel names the i-th forecast day.
func DayLabel(i int, date time.Time) string {
	switch i {
	case 0:
		return "Today"
	case 1:
		return "Tomorrow"
	default:
		return date.Weekday().String()[:3]
	}
}

// DescribePrecipitation turns a daily precipitation total in inches into a
// short summary.
func DescribePrecipitation(inches float64) string {
	switch {
	case inches >= 1.5:
		return "Heavy rain"
	case inches >= 0.75:
		return "Moderate rain"
	case inches >= 0.25:
		return "Light rain"
	default:
		return "Mostly dry"
	}
}
