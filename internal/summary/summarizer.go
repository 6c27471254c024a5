// Package summary reduces frozen MCMC traces to per-parameter posterior
// statistics for the external plotting stage. It is a pure function of its
// inputs: no state, no side effects.
package summary

import (
	"fmt"
	"math"

	"github.com/montanaflynn/stats"

	"filmtrend/domain/core"
	"filmtrend/domain/film"
	"filmtrend/domain/model"
	"filmtrend/domain/posterior"
	"filmtrend/internal/sampler"
)

// Summarize reduces the post-burn-in, thinned samples of one or more chains
// to one posterior.Row per model parameter. Multiple chains are pooled.
// credibleMass selects the central credible interval, e.g. 0.95 for
// 2.5%/97.5% bounds.
func Summarize(m *model.Model, traces []*sampler.Trace, credibleMass float64) ([]posterior.Row, error) {
	if len(traces) == 0 {
		return nil, core.NewConfigError("traces", "at least one chain is required")
	}
	if credibleMass <= 0 || credibleMass >= 1 {
		return nil, core.NewConfigError("credible_mass", fmt.Sprintf("must be in (0, 1), got %g", credibleMass))
	}
	layout := m.Layout()
	for i, t := range traces {
		if t.Dim() != layout.Dim() {
			return nil, fmt.Errorf("chain %d has dimension %d, want %d", i, t.Dim(), layout.Dim())
		}
	}

	lowerPct := (1 - credibleMass) / 2 * 100
	upperPct := 100 - lowerPct
	dataset := layout.Dataset()
	vocab := dataset.Vocab()

	rows := make([]posterior.Row, 0, layout.Dim()+len(layout.Pairs()))

	// Global trend, one row per distinct year
	for yearIdx, year := range dataset.Years() {
		series := pooled(traces, layout.TrendIndex(yearIdx), nil)
		row, err := summarizeSeries(series, lowerPct, upperPct)
		if err != nil {
			return nil, fmt.Errorf("trend[%d]: %w", year, err)
		}
		row.Parameter = posterior.TrendParameter(year)
		row.Kind = posterior.KindTrend
		row.Year = year
		row.Count = dataset.YearCount(year)
		rows = append(rows, row)
	}

	// Category deviations: the free "same" coordinate and its derived
	// "different" complement, which is a fixed linear rescaling per pair
	for pairIdx, pair := range layout.Pairs() {
		coord := layout.DevIndex(pairIdx)
		label := vocab.Label(pair.Axis, pair.Label)
		ratio := -float64(pair.SameCount) / float64(pair.DiffCount)

		sameSeries := pooled(traces, coord, nil)
		sameRow, err := summarizeSeries(sameSeries, lowerPct, upperPct)
		if err != nil {
			return nil, fmt.Errorf("deviation %s/%s: %w", pair.Axis, label, err)
		}
		sameRow.Parameter = posterior.DeviationParameter(pair.Axis, label, film.GroupSame)
		sameRow.Kind = posterior.KindDeviation
		sameRow.Axis = pair.Axis.String()
		sameRow.Label = label
		sameRow.Group = film.GroupSame.String()
		sameRow.Count = pair.SameCount
		rows = append(rows, sameRow)

		diffSeries := pooled(traces, coord, func(v float64) float64 { return v * ratio })
		diffRow, err := summarizeSeries(diffSeries, lowerPct, upperPct)
		if err != nil {
			return nil, fmt.Errorf("deviation %s/%s: %w", pair.Axis, label, err)
		}
		diffRow.Parameter = posterior.DeviationParameter(pair.Axis, label, film.GroupDifferent)
		diffRow.Kind = posterior.KindDeviation
		diffRow.Axis = pair.Axis.String()
		diffRow.Label = label
		diffRow.Group = film.GroupDifferent.String()
		diffRow.Count = pair.DiffCount
		rows = append(rows, diffRow)
	}

	// Observation noise, recovered from its log-scale coordinate per sample
	sigmaSeries := pooled(traces, layout.SigmaIndex(), math.Exp)
	sigmaRow, err := summarizeSeries(sigmaSeries, lowerPct, upperPct)
	if err != nil {
		return nil, fmt.Errorf("sigma: %w", err)
	}
	sigmaRow.Parameter = posterior.SigmaParameter()
	sigmaRow.Kind = posterior.KindSigma
	sigmaRow.Count = dataset.Len()
	rows = append(rows, sigmaRow)

	return rows, nil
}

// pooled concatenates the post-burn-in, thinned series of one coordinate
// across chains, applying an optional per-sample transform
func pooled(traces []*sampler.Trace, coord int, transform func(float64) float64) []float64 {
	var series []float64
	for _, t := range traces {
		part := t.Coordinate(coord)
		if transform == nil {
			series = append(series, part...)
			continue
		}
		for _, v := range part {
			series = append(series, transform(v))
		}
	}
	return series
}

func summarizeSeries(series []float64, lowerPct, upperPct float64) (posterior.Row, error) {
	if len(series) == 0 {
		return posterior.Row{}, fmt.Errorf("no post-burn-in samples")
	}
	mean, err := stats.Mean(series)
	if err != nil {
		return posterior.Row{}, err
	}
	stdDev, err := stats.StandardDeviation(series)
	if err != nil {
		return posterior.Row{}, err
	}
	lower, err := stats.Percentile(series, lowerPct)
	if err != nil {
		return posterior.Row{}, err
	}
	upper, err := stats.Percentile(series, upperPct)
	if err != nil {
		return posterior.Row{}, err
	}
	return posterior.Row{Mean: mean, StdDev: stdDev, Lower: lower, Upper: upper}, nil
}
