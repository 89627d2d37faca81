package domain

import (
	"fmt"
	"math"
	"strconv"
)

// Stat kinds understood by ComputeStats.
const (
	StatSumAtRisk       = "sum_at_risk"
	StatSumCount        = "sum_count"
	StatAlertingRivers  = "alerting_rivers"
	StatElevatedRegions = "elevated_regions"
	StatStatic          = "static"
)

// Stat formats.
const (
	FormatPlain    = ""
	FormatCompact  = "compact"
	FormatMillions = "millions"
)

// StatDef describes one headline figure of a dashboard.
type StatDef struct {
	Key    string `json:"key" yaml:"key"`
	Label  string `json:"label" yaml:"label"`
	Kind   string `json:"kind" yaml:"kind"`
	Field  string `json:"field,omitempty" yaml:"field"`
	Format string `json:"format,omitempty" yaml:"format"`
	Value  string `json:"value,omitempty" yaml:"value"`
}

// Stat is a computed headline figure.
type Stat struct {
	Key   string `json:"key"`
	Label string `json:"label"`
	Raw   int    `json:"raw"`
	Value string `json:"value"`
}

// ComputeStats evaluates defs over regions. Elevated regions are those whose
// level is one of the two top labels of t.
func ComputeStats(regions []Region, defs []StatDef, t Thresholds) ([]Stat, error) {
	out := make([]Stat, 0, len(defs))
	for _, d := range defs {
		s := Stat{Key: d.Key, Label: d.Label}
		switch d.Kind {
		case StatSumAtRisk:
			for _, r := range regions {
				s.Raw += r.AtRisk
			}
		case StatSumCount:
			for _, r := range regions {
				s.Raw += r.Counts[d.Field]
			}
		case StatAlertingRivers:
			for _, r := range regions {
				for _, rv := range r.Rivers {
					if rv.Alerting() {
						s.Raw++
					}
				}
			}
		case StatElevatedRegions:
			for _, r := range regions {
				if t.Elevated(r.Level) {
					s.Raw++
				}
			}
		case StatStatic:
			s.Value = d.Value
			out = append(out, s)
			continue
		default:
			return nil, fmt.Errorf("unknown stat kind %q for %q", d.Kind, d.Key)
		}
		s.Value = formatStat(s.Raw, d.Format)
		out = append(out, s)
	}
	return out, nil
}

func formatStat(v int, format string) string {
	switch format {
	case FormatCompact:
		return FormatNumber(float64(v))
	case FormatMillions:
		return "$" + FormatNumber(float64(v)/1e6) + "M"
	default:
		return strconv.Itoa(v)
	}
}

// FormatNumber renders n as 1.2M, 45K, or a plain integer.
func FormatNumber(n float64) string {
	switch {
	case n >= 1e6:
		return strconv.FormatFloat(math.Round(n/1e5)/10, 'f', 1, 64) + "M"
	case n >= 1e3:
		return strconv.FormatFloat(math.Round(n/1e3), 'f', 0, 64) + "K"
	default:
		return strconv.FormatFloat(n, 'f', -1, 64)
	}
}
