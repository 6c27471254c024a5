package model

import (
	"filmtrend/domain/film"
)

// DevPair is one constrained deviation pair: a category label represented in
// both writer/director overlap groups. Only the "same" deviation is a free
// coordinate; the "different" deviation is derived from the weighted zero-sum
// constraint.
type DevPair struct {
	Axis      film.Axis
	Label     film.CategoryID
	SameCount int
	DiffCount int
}

// Layout is the arena/index view of the free parameter space. Coordinates are
// laid out as [trend per distinct year | one "same" deviation per pair |
// log-sigma]. It is built once per dataset and shared read-only by all chains.
type Layout struct {
	dataset   *film.Dataset
	pairs     []DevPair
	pairIndex [film.NumAxes][]int // label id -> index into pairs, or -1
}

// NewLayout derives the free-coordinate layout from a dataset. Labels with
// films in a single overlap group carry no deviation pair: the zero-sum
// constraint would pin their only deviation to zero, so they are excluded
// from the parameterization entirely.
func NewLayout(dataset *film.Dataset) *Layout {
	l := &Layout{dataset: dataset}
	for _, axis := range film.Axes {
		size := dataset.Vocab().Size(axis)
		l.pairIndex[axis] = make([]int, size)
		for id := 0; id < size; id++ {
			same := dataset.Count(axis, film.CategoryID(id), film.GroupSame)
			diff := dataset.Count(axis, film.CategoryID(id), film.GroupDifferent)
			if same > 0 && diff > 0 {
				l.pairIndex[axis][id] = len(l.pairs)
				l.pairs = append(l.pairs, DevPair{
					Axis:      axis,
					Label:     film.CategoryID(id),
					SameCount: same,
					DiffCount: diff,
				})
			} else {
				l.pairIndex[axis][id] = -1
			}
		}
	}
	return l
}

// Dataset returns the dataset this layout was derived from
func (l *Layout) Dataset() *film.Dataset {
	return l.dataset
}

// Dim returns the total number of free coordinates
func (l *Layout) Dim() int {
	return len(l.dataset.Years()) + len(l.pairs) + 1
}

// NumTrend returns the number of trend coordinates (distinct years)
func (l *Layout) NumTrend() int {
	return len(l.dataset.Years())
}

// Pairs returns the deviation pairs in coordinate order
func (l *Layout) Pairs() []DevPair {
	return l.pairs
}

// TrendIndex returns the coordinate index of the trend value for the i-th year
func (l *Layout) TrendIndex(yearIdx int) int {
	return yearIdx
}

// DevIndex returns the coordinate index of the i-th pair's free deviation
func (l *Layout) DevIndex(pairIdx int) int {
	return l.NumTrend() + pairIdx
}

// SigmaIndex returns the coordinate index of log-sigma
func (l *Layout) SigmaIndex() int {
	return l.Dim() - 1
}

// PairFor returns the pair index for a label, or -1 when the label carries no
// deviation pair
func (l *Layout) PairFor(axis film.Axis, label film.CategoryID) int {
	return l.pairIndex[axis][label]
}
