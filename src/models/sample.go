package models

// MSample is one decoded payload: equal-length labels and values.
type MSample struct {
	Labels []string  `json:"labels"`
	Values []float64 `json:"values"`
}

// Len returns the number of series carried by the sample.
func (s MSample) Len() int {
	return len(s.Values)
}

// MSeriesSnapshot is a copy of the registry contents, oldest sample first.
type MSeriesSnapshot struct {
	Labels []string    `json:"labels"`
	Series [][]float64 `json:"series"`
}
