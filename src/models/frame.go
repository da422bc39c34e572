package models

// -----------------------------------------------------------------------------
// Display frame (derived, never persisted)
// -----------------------------------------------------------------------------

type MDisplayFrame struct {
	Type      string        `json:"type"` // "FRAME"
	Mode      MViewMode     `json:"mode"`
	Gain      int           `json:"gain"`
	Labels    []string      `json:"labels"`
	Series    []MSeriesView `json:"series"`
	Chart     MChartData    `json:"chart"`
	Timestamp int64         `json:"timestamp"`
}

// MSeriesView holds the transformed values of one series and its chart hints.
// Values that are not finite are carried as nil so the frame always encodes.
type MSeriesView struct {
	Label    string     `json:"label"`
	Raw      []*float64 `json:"raw"`
	Display  []*float64 `json:"display"`
	Baseline *float64   `json:"baseline,omitempty"`
	Mean     *float64   `json:"mean"`
	Std      *float64   `json:"std"`
	YDomain  [2]float64 `json:"y_domain"`
}

// MChartData is the shared-index representation used for rendering.
type MChartData struct {
	Length int         `json:"length"`
	Rows   []MChartRow `json:"rows"`
}

// MChartRow is one position of the shared index. A nil value means missing.
type MChartRow struct {
	Index  int                 `json:"idx"`
	Values map[string]*float64 `json:"values"`
}
