package domain

// Chart kinds.
const (
	ChartLine = "line"
	ChartBar  = "bar"
)

// Series is one labelled data row of a chart.
type Series struct {
	Label string    `json:"label" yaml:"label"`
	Data  []float64 `json:"data" yaml:"data"`
	Color string    `json:"color,omitempty" yaml:"color"`
}

// ChartSpec is a library-agnostic chart: parallel labels and series data.
type ChartSpec struct {
	ID     string   `json:"id" yaml:"id"`
	Title  string   `json:"title" yaml:"title"`
	Kind   string   `json:"kind" yaml:"kind"`
	Unit   string   `json:"unit,omitempty" yaml:"unit"`
	Labels []string `json:"labels" yaml:"labels"`
	Series []Series `json:"series" yaml:"series"`
}

// Map feature geometries.
const (
	GeometryPolygon = "polygon"
	GeometryPoint   = "point"
)

// MapFeature is one overlay or marker handed to a map renderer.
type MapFeature struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Geometry    string `json:"geometry"`
	Coordinates []Geo  `json:"coordinates"`
	FillColor   string `json:"fill_color"`
	PopupHTML   string `json:"popup_html"`
	RegionID    string `json:"region_id,omitempty"`
}

// MapLayer is the full set of features for one dashboard.
type MapLayer struct {
	Dashboard string       `json:"dashboard"`
	Features  []MapFeature `json:"features"`
}
