package posterior

import (
	"fmt"

	"filmtrend/domain/film"
)

// Kind distinguishes the classes of model parameters in a summary
type Kind string

const (
	KindTrend     Kind = "trend"     // global trend value for one year
	KindDeviation Kind = "deviation" // category deviation for one (axis, label, group)
	KindSigma     Kind = "sigma"     // shared observation noise
)

// Row is the posterior summary for a single parameter: point estimate,
// spread, and credible bounds. Rows are derived from a frozen trace and never
// mutated afterwards.
type Row struct {
	Parameter string     `json:"parameter"` // stable identity, e.g. "deviation[country/USA/same]"
	Kind      Kind       `json:"kind"`
	Axis      string     `json:"axis,omitempty"`
	Label     string     `json:"label,omitempty"`
	Group     string     `json:"group,omitempty"`
	Year      int        `json:"year,omitempty"`
	Count     int        `json:"count"` // films backing this parameter
	Mean      float64    `json:"mean"`
	StdDev    float64    `json:"std_dev"`
	Lower     float64    `json:"lower"`
	Upper     float64    `json:"upper"`
}

// TrendParameter builds the identity string for a trend row
func TrendParameter(year int) string {
	return fmt.Sprintf("trend[%d]", year)
}

// DeviationParameter builds the identity string for a deviation row
func DeviationParameter(axis film.Axis, label string, group film.Group) string {
	return fmt.Sprintf("deviation[%s/%s/%s]", axis, label, group)
}

// SigmaParameter is the identity string for the observation noise row
func SigmaParameter() string {
	return "sigma"
}
