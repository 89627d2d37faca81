package domain

import (
	"maps"
	"slices"
)

// Geo is a latitude/longitude pair in degrees.
type Geo struct {
	Lat float64 `json:"lat" yaml:"lat"`
	Lon float64 `json:"lon" yaml:"lon"`
}

// Attribute is a labelled display string shown in a region's detail panel.
type Attribute struct {
	Label string `json:"label" yaml:"label"`
	Value string `json:"value" yaml:"value"`
}

// River gauge statuses, ordered by severity.
const (
	StatusNormal   = "normal"
	StatusWatch    = "watch"
	StatusWarning  = "warning"
	StatusCritical = "critical"
)

// RiverStatus is the latest reading for one river or gauge in a region.
type RiverStatus struct {
	Name         string `json:"name" yaml:"name"`
	Status       string `json:"status" yaml:"status"`
	CurrentLevel string `json:"current_level" yaml:"current_level"`
	FloodStage   string `json:"flood_stage" yaml:"flood_stage"`
}

// Alerting reports whether the river counts as an active warning.
func (r RiverStatus) Alerting() bool {
	return r.Status == StatusWarning || r.Status == StatusCritical
}

// Region is one entry of a dashboard catalog.
type Region struct {
	ID          string         `json:"id" yaml:"id"`
	Name        string         `json:"name" yaml:"name"`
	Center      Geo            `json:"center" yaml:"center"`
	Level       string         `json:"level" yaml:"level"`
	BaseRisk    int            `json:"base_risk" yaml:"base_risk"`
	AtRisk      int            `json:"at_risk" yaml:"at_risk"`
	Population  int            `json:"population,omitempty" yaml:"population"`
	Description string         `json:"description,omitempty" yaml:"description"`
	Attributes  []Attribute    `json:"attributes,omitempty" yaml:"attributes"`
	Counts      map[string]int `json:"counts,omitempty" yaml:"counts"`
	Rivers      []RiverStatus  `json:"rivers,omitempty" yaml:"rivers"`
	Bounds      []Geo          `json:"bounds,omitempty" yaml:"bounds"`
}

// Clone returns a copy that shares no mutable state with r.
func (r Region) Clone() Region {
	r.Attributes = slices.Clone(r.Attributes)
	r.Counts = maps.Clone(r.Counts)
	r.Rivers = slices.Clone(r.Rivers)
	r.Bounds = slices.Clone(r.Bounds)
	return r
}
