package model

import (
	"math"

	"filmtrend/domain/film"
)

// ParamVector is one point in the free parameter space. Each instance owns
// its coordinate slice; nothing here is process-global, so independent chains
// never alias state. The constrained "different" deviations are never stored:
// they are derived algebraically on every read, keeping the zero-sum
// invariant exact rather than enforced after the fact.
type ParamVector struct {
	layout *Layout
	free   []float64
}

// NewParamVector allocates a zero vector for the layout
func NewParamVector(layout *Layout) *ParamVector {
	return &ParamVector{
		layout: layout,
		free:   make([]float64, layout.Dim()),
	}
}

// Clone returns a deep copy sharing only the immutable layout
func (p *ParamVector) Clone() *ParamVector {
	c := &ParamVector{
		layout: p.layout,
		free:   make([]float64, len(p.free)),
	}
	copy(c.free, p.free)
	return c
}

// Layout returns the layout this vector is defined over
func (p *ParamVector) Layout() *Layout {
	return p.layout
}

// Free exposes the raw free coordinates. The sampler perturbs these directly.
func (p *ParamVector) Free() []float64 {
	return p.free
}

// TrendAt returns the global trend value for the i-th distinct year
func (p *ParamVector) TrendAt(yearIdx int) float64 {
	return p.free[p.layout.TrendIndex(yearIdx)]
}

// Trend returns the global trend value for a calendar year
func (p *ParamVector) Trend(year int) (float64, bool) {
	idx, ok := p.layout.dataset.YearIndex(year)
	if !ok {
		return 0, false
	}
	return p.TrendAt(idx), true
}

// Sigma returns the observation noise, recovered from its log-scale coordinate
func (p *ParamVector) Sigma() float64 {
	return math.Exp(p.free[p.layout.SigmaIndex()])
}

// Deviation returns the runtime deviation for a (axis, label, group) cell.
// The "same" value is the stored free coordinate; the "different" value is
// derived so the film-count-weighted sum over both groups is exactly zero:
//
//	nSame*devSame + nDiff*devDiff = 0  =>  devDiff = -nSame/nDiff * devSame
//
// Labels without a pair (single-group labels) deviate by zero.
func (p *ParamVector) Deviation(axis film.Axis, label film.CategoryID, group film.Group) float64 {
	pairIdx := p.layout.PairFor(axis, label)
	if pairIdx < 0 {
		return 0
	}
	same := p.free[p.layout.DevIndex(pairIdx)]
	if group == film.GroupSame {
		return same
	}
	pair := p.layout.pairs[pairIdx]
	return -same * float64(pair.SameCount) / float64(pair.DiffCount)
}

// WeightedDeviationSum returns the film-count-weighted sum of the two group
// deviations for a label. Zero (within floating-point tolerance) for every
// label, by construction.
func (p *ParamVector) WeightedDeviationSum(axis film.Axis, label film.CategoryID) float64 {
	d := p.layout.dataset
	same := p.Deviation(axis, label, film.GroupSame)
	diff := p.Deviation(axis, label, film.GroupDifferent)
	return float64(d.Count(axis, label, film.GroupSame))*same +
		float64(d.Count(axis, label, film.GroupDifferent))*diff
}
