package domain

import "time"

// Data sources of a snapshot's forecast and river readings.
const (
	SourceSeed      = "seed"
	SourceSynthetic = "synthetic"
	SourceLive      = "live"
)

// Snapshot is a point-in-time copy of a dashboard's state.
type Snapshot struct {
	ID        string        `json:"id"`
	Dashboard string        `json:"dashboard"`
	Title     string        `json:"title"`
	Cycle     uint64        `json:"cycle"`
	Source    string        `json:"source"`
	TakenAt   time.Time     `json:"taken_at"`
	Regions   []Region      `json:"regions"`
	Scores    []Score       `json:"scores"`
	Stats     []Stat        `json:"stats"`
	Forecast  []ForecastDay `json:"forecast"`
}
