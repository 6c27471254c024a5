package model

import (
	"math"

	"gonum.org/v1/gonum/stat/distuv"

	"filmtrend/domain/core"
	"filmtrend/domain/film"
)

// Priors holds the hyperparameters of the weakly-informative priors. All of
// them are proper, keeping the posterior well-defined.
type Priors struct {
	TrendMean   float64 `json:"trend_mean"`   // prior mean of each per-year trend value (minutes)
	TrendSD     float64 `json:"trend_sd"`     // prior spread of trend values
	DeviationSD float64 `json:"deviation_sd"` // prior spread of free category deviations
	SigmaShape  float64 `json:"sigma_shape"`  // Gamma shape for the observation noise
	SigmaRate   float64 `json:"sigma_rate"`   // Gamma rate for the observation noise
}

// DefaultPriors returns the documented default hyperparameters
func DefaultPriors() Priors {
	return Priors{
		TrendMean:   100,
		TrendSD:     30,
		DeviationSD: 15,
		SigmaShape:  1,
		SigmaRate:   0.05,
	}
}

// Model evaluates the generative assumption: per film, runtime is Gaussian
// with mean trend[year] + sum of the film's group deviations, observation
// noise sigma shared across all films.
//
// Runtime is treated as a continuous quantity in minutes. Predicted means
// near or below zero are not specially handled: the Gaussian approximation is
// accepted as-is, with the trend prior keeping mass well above zero.
type Model struct {
	dataset *film.Dataset
	layout  *Layout
	priors  Priors
}

// New builds a model (and its parameter layout) over a validated dataset
func New(dataset *film.Dataset, priors Priors) *Model {
	return &Model{
		dataset: dataset,
		layout:  NewLayout(dataset),
		priors:  priors,
	}
}

// Layout returns the free-coordinate layout
func (m *Model) Layout() *Layout {
	return m.layout
}

// Priors returns the prior hyperparameters
func (m *Model) Priors() Priors {
	return m.priors
}

// InitVector returns the chain starting point: every trend value at the prior
// mean, deviations at zero, sigma at the prior mean of its Gamma.
func (m *Model) InitVector() *ParamVector {
	p := NewParamVector(m.layout)
	for i := 0; i < m.layout.NumTrend(); i++ {
		p.free[m.layout.TrendIndex(i)] = m.priors.TrendMean
	}
	p.free[m.layout.SigmaIndex()] = math.Log(m.priors.SigmaShape / m.priors.SigmaRate)
	return p
}

// PredictedMean computes the modeled mean runtime of a single record:
// the trend value for its year plus the deviation of every category label it
// belongs to, in its overlap group. Contributions are additive and
// independent across axes.
func (m *Model) PredictedMean(rec film.Record, p *ParamVector) float64 {
	yearIdx, _ := m.dataset.YearIndex(rec.Year)
	mean := p.TrendAt(yearIdx)
	group := rec.Group()
	for _, axis := range film.Axes {
		for _, id := range rec.Categories[axis] {
			mean += p.Deviation(axis, id, group)
		}
	}
	return mean
}

// LogLikelihood sums the Gaussian log-density of every observed runtime under
// the predicted means. A non-finite total is reported as a numerical error so
// the sampler can reject the proposal instead of crashing the run.
func (m *Model) LogLikelihood(p *ParamVector) (float64, error) {
	sigma := p.Sigma()
	if sigma <= 0 || math.IsInf(sigma, 0) || math.IsNaN(sigma) {
		return math.Inf(-1), core.NewNumericalError("sigma out of range")
	}
	total := 0.0
	for _, rec := range m.dataset.Records() {
		dist := distuv.Normal{Mu: m.PredictedMean(rec, p), Sigma: sigma}
		total += dist.LogProb(rec.Runtime)
	}
	if math.IsNaN(total) || math.IsInf(total, 1) {
		return math.Inf(-1), core.NewNumericalError("likelihood not finite")
	}
	return total, nil
}

// LogPrior evaluates the joint log-prior density over the free coordinates.
// Sigma is sampled on the log scale, so its Gamma prior carries the
// log-transform Jacobian term.
func (m *Model) LogPrior(p *ParamVector) float64 {
	trendPrior := distuv.Normal{Mu: m.priors.TrendMean, Sigma: m.priors.TrendSD}
	devPrior := distuv.Normal{Mu: 0, Sigma: m.priors.DeviationSD}
	sigmaPrior := distuv.Gamma{Alpha: m.priors.SigmaShape, Beta: m.priors.SigmaRate}

	total := 0.0
	for i := 0; i < m.layout.NumTrend(); i++ {
		total += trendPrior.LogProb(p.free[m.layout.TrendIndex(i)])
	}
	for i := range m.layout.pairs {
		total += devPrior.LogProb(p.free[m.layout.DevIndex(i)])
	}
	logSigma := p.free[m.layout.SigmaIndex()]
	total += sigmaPrior.LogProb(math.Exp(logSigma)) + logSigma
	return total
}

// LogPosterior evaluates log-likelihood plus log-prior. Numerical failures
// collapse to -Inf, which the Metropolis rule treats as certain rejection.
func (m *Model) LogPosterior(p *ParamVector) float64 {
	ll, err := m.LogLikelihood(p)
	if err != nil {
		return math.Inf(-1)
	}
	lp := m.LogPrior(p)
	if math.IsNaN(lp) || math.IsInf(lp, 0) {
		return math.Inf(-1)
	}
	return ll + lp
}
