package sampler

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/stat"

	"filmtrend/domain/core"
)

// Diagnostics summarizes chain health after a multi-chain run
type Diagnostics struct {
	AcceptanceRates []float64 `json:"acceptance_rates"` // one per chain
	RHat            []float64 `json:"r_hat"`            // one per free coordinate
	MaxRHat         float64   `json:"max_r_hat"`
}

// Converged reports whether every coordinate's potential scale reduction
// factor is below the conventional 1.1 threshold
func (d Diagnostics) Converged() bool {
	return d.MaxRHat > 0 && d.MaxRHat < 1.1
}

// Diagnose computes per-chain acceptance rates and the Gelman-Rubin potential
// scale reduction factor for every free coordinate, comparing between-chain
// and within-chain variance over the post-burn-in samples. With a single
// chain only acceptance rates are reported.
func Diagnose(traces []*Trace) (Diagnostics, error) {
	if len(traces) == 0 {
		return Diagnostics{}, core.NewConfigError("traces", "at least one chain is required")
	}
	dim := traces[0].Dim()
	d := Diagnostics{AcceptanceRates: make([]float64, len(traces))}
	for i, t := range traces {
		if t.Dim() != dim {
			return Diagnostics{}, fmt.Errorf("chain %d has dimension %d, want %d", i, t.Dim(), dim)
		}
		d.AcceptanceRates[i] = t.AcceptanceRate()
	}
	if len(traces) < 2 {
		return d, nil
	}

	d.RHat = make([]float64, dim)
	for coord := 0; coord < dim; coord++ {
		d.RHat[coord] = gelmanRubin(traces, coord)
		if d.RHat[coord] > d.MaxRHat {
			d.MaxRHat = d.RHat[coord]
		}
	}
	return d, nil
}

// gelmanRubin computes the potential scale reduction factor for one
// coordinate across chains
func gelmanRubin(traces []*Trace, coord int) float64 {
	m := len(traces)
	chains := make([][]float64, 0, m)
	n := math.MaxInt
	for _, t := range traces {
		series := t.Coordinate(coord)
		chains = append(chains, series)
		if len(series) < n {
			n = len(series)
		}
	}
	if n < 2 {
		return math.NaN()
	}

	chainMeans := make([]float64, m)
	chainVars := make([]float64, m)
	for i, series := range chains {
		series = series[:n]
		chainMeans[i] = stat.Mean(series, nil)
		chainVars[i] = stat.Variance(series, nil)
	}

	w := stat.Mean(chainVars, nil)                        // within-chain variance
	b := float64(n) * stat.Variance(chainMeans, nil)      // between-chain variance
	if w == 0 {
		// Degenerate chains (e.g. every proposal rejected): identical chains
		// are trivially converged, diverging ones are not.
		if b == 0 {
			return 1
		}
		return math.Inf(1)
	}

	varEst := (float64(n-1)/float64(n))*w + b/float64(n)
	return math.Sqrt(varEst / w)
}
