package domain

import (
	"errors"
	"fmt"
	"math"
	"time"
)

// StormSeasonBoost is added to the base risk from November through March.
const StormSeasonBoost = 15

// Thresholds partitions [0,100] into four risk levels. A score s gets
// Labels[0] when s ≤ Low, Labels[1] when s ≤ Moderate, Labels[2] when
// s ≤ High, and Labels[3] otherwise.
type Thresholds struct {
	Low      int       `json:"low" yaml:"low"`
	Moderate int       `json:"moderate" yaml:"moderate"`
	High     int       `json:"high" yaml:"high"`
	Labels   [4]string `json:"labels" yaml:"labels"`
}

// DefaultThresholds is the 25/50/75 partition.
var DefaultThresholds = Thresholds{
	Low:      25,
	Moderate: 50,
	High:     75,
	Labels:   [4]string{"low", "moderate", "high", "extreme"},
}

// Validate checks that the bounds are strictly increasing inside [0,100) and
// every label is set.
func (t Thresholds) Validate() error {
	if t.Low < 0 || t.Low >= t.Moderate || t.Moderate >= t.High || t.High >= 100 {
		return fmt.Errorf("thresholds %d/%d/%d do not partition [0,100]", t.Low, t.Moderate, t.High)
	}
	for i, l := range t.Labels {
		if l == "" {
			return fmt.Errorf("threshold label %d is empty", i)
		}
	}
	return nil
}

// Level maps a score to its label.
func (t Thresholds) Level(score int) string {
	switch {
	case score <= t.Low:
		return t.Labels[0]
	case score <= t.Moderate:
		return t.Labels[1]
	case score <= t.High:
		return t.Labels[2]
	default:
		return t.Labels[3]
	}
}

// Elevated reports whether level is one of the two top labels.
func (t Thresholds) Elevated(level string) bool {
	return level != "" && (level == t.Labels[2] || level == t.Labels[3])
}

// Index returns the position of level in Labels, or -1.
func (t Thresholds) Index(level string) int {
	for i, l := range t.Labels {
		if l == level {
			return i
		}
	}
	return -1
}

// Score is a scored region.
type Score struct {
	RegionID string `json:"region_id,omitempty"`
	Score    int    `json:"score"`
	Level    string `json:"level"`
	Color    string `json:"color"`
}

// IsStormSeason reports whether month falls in November through March.
func IsStormSeason(month time.Month) bool {
	switch month {
	case time.November, time.December, time.January, time.February, time.March:
		return true
	default:
		return false
	}
}

var errBaseRiskRange = errors.New("base risk must be within [0,100]")

// ScoreRegion derives a risk score from a base risk, the month, and one noise
// draw from rng.
func ScoreRegion(baseRisk int, month time.Month, rng RandomSource, t Thresholds) (Score, error) {
	if baseRisk < 0 || baseRisk > 100 {
		return Score{}, fmt.Errorf("%w: %d", errBaseRiskRange, baseRisk)
	}
	raw := float64(baseRisk) + uniform(rng, -10, 10)
	if IsStormSeason(month) {
		raw += StormSeasonBoost
	}
	score := int(math.Round(clamp(raw, 0, 100)))
	level := t.Level(score)
	return Score{Score: score, Level: level, Color: RiskColor(level)}, nil
}

// RiskColor returns the display color for a risk level label.
func RiskColor(level string) string {
	switch level {
	case "extreme", "critical":
		return "#dc2626"
	case "high":
		return "#ef4444"
	case "moderate":
		return "#f59e0b"
	case "low":
		return "#3b82f6"
	case "minimal":
		return "#10b981"
	default:
		return "#94a3b8"
	}
}

// StatusColor returns the display color for a river or emergency status.
func StatusColor(status string) string {
	switch status {
	case StatusCritical:
		return "#dc2626"
	case StatusWarning:
		return "#f59e0b"
	case StatusWatch:
		return "#3b82f6"
	case StatusNormal:
		return "#10b981"
	default:
		return "#94a3b8"
	}
}

func clamp(v, lo, hi float64) float64 {
	return math.Max(lo, math.Min(hi, v))
}
