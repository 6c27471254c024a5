package film

import (
	"fmt"
	"sort"

	"filmtrend/domain/core"
)

// Axis identifies one of the three category dimensions a film is labeled on.
type Axis int

const (
	AxisCountry Axis = iota
	AxisLanguage
	AxisGenre
)

// NumAxes is the fixed number of category axes
const NumAxes = 3

// Axes lists all axes in canonical order
var Axes = [NumAxes]Axis{AxisCountry, AxisLanguage, AxisGenre}

// String returns the axis name
func (a Axis) String() string {
	switch a {
	case AxisCountry:
		return "country"
	case AxisLanguage:
		return "language"
	case AxisGenre:
		return "genre"
	default:
		return fmt.Sprintf("axis(%d)", int(a))
	}
}

// CategoryID is a dense per-axis index into the vocabulary
type CategoryID int32

// Group splits deviations by whether a writer of the film also directed it
type Group int

const (
	GroupSame Group = iota // at least one writer was also a director
	GroupDifferent
)

// NumGroups is the fixed number of overlap groups
const NumGroups = 2

// String returns the group name
func (g Group) String() string {
	if g == GroupSame {
		return "same"
	}
	return "different"
}

// Record is a single immutable film observation. Category membership is a
// fixed ordered set of vocabulary ids per axis, resolved once at load time.
type Record struct {
	Year             int
	Runtime          float64 // minutes
	Categories       [NumAxes][]CategoryID
	WriterIsDirector bool
}

// Group returns the overlap group this record's deviations belong to
func (r Record) Group() Group {
	if r.WriterIsDirector {
		return GroupSame
	}
	return GroupDifferent
}

// Vocabulary is the closed set of valid category labels per axis. It is fixed
// before inference begins; records referencing labels outside it are a load
// error.
type Vocabulary struct {
	labels [NumAxes][]string
	index  [NumAxes]map[string]CategoryID
}

// NewVocabulary builds a vocabulary from per-axis label lists
func NewVocabulary(countries, languages, genres []string) (*Vocabulary, error) {
	v := &Vocabulary{}
	for axis, labels := range map[Axis][]string{
		AxisCountry:  countries,
		AxisLanguage: languages,
		AxisGenre:    genres,
	} {
		if len(labels) == 0 {
			return nil, core.NewDataError(0, fmt.Sprintf("empty %s vocabulary", axis))
		}
		v.labels[axis] = make([]string, len(labels))
		copy(v.labels[axis], labels)
		v.index[axis] = make(map[string]CategoryID, len(labels))
		for i, label := range labels {
			if _, dup := v.index[axis][label]; dup {
				return nil, core.NewDataError(0, fmt.Sprintf("duplicate %s label %q", axis, label))
			}
			v.index[axis][label] = CategoryID(i)
		}
	}
	return v, nil
}

// Resolve maps a label to its id on the given axis
func (v *Vocabulary) Resolve(axis Axis, label string) (CategoryID, bool) {
	id, ok := v.index[axis][label]
	return id, ok
}

// Label returns the label for an id on the given axis
func (v *Vocabulary) Label(axis Axis, id CategoryID) string {
	return v.labels[axis][id]
}

// Size returns the number of labels on the given axis
func (v *Vocabulary) Size(axis Axis) int {
	return len(v.labels[axis])
}

// Dataset is the immutable collection of film records plus the derived
// structures the model needs: the distinct release years and the per
// (axis, label, group) film counts used as zero-sum constraint weights.
// It is loaded once, never mutated, and safely shared across chains.
type Dataset struct {
	records    []Record
	vocab      *Vocabulary
	years      []int
	yearIndex  map[int]int
	yearCounts map[int]int
	counts     [NumAxes][][NumGroups]int
}

// NewDataset validates the records against the vocabulary and builds the
// derived year index and group counts. Any malformed record aborts the load.
func NewDataset(vocab *Vocabulary, records []Record) (*Dataset, error) {
	d := &Dataset{
		records:    records,
		vocab:      vocab,
		yearIndex:  make(map[int]int),
		yearCounts: make(map[int]int),
	}
	for _, axis := range Axes {
		d.counts[axis] = make([][NumGroups]int, vocab.Size(axis))
	}

	yearSet := make(map[int]struct{})
	for i, rec := range records {
		if err := validateRecord(i, rec, vocab); err != nil {
			return nil, err
		}
		yearSet[rec.Year] = struct{}{}
		d.yearCounts[rec.Year]++
		group := rec.Group()
		for _, axis := range Axes {
			for _, id := range rec.Categories[axis] {
				d.counts[axis][id][group]++
			}
		}
	}

	d.years = make([]int, 0, len(yearSet))
	for y := range yearSet {
		d.years = append(d.years, y)
	}
	sort.Ints(d.years)
	for i, y := range d.years {
		d.yearIndex[y] = i
	}
	return d, nil
}

func validateRecord(row int, rec Record, vocab *Vocabulary) error {
	if rec.Year == 0 {
		return fmt.Errorf("%w: row %d", core.ErrMissingYear, row)
	}
	if rec.Runtime <= 0 {
		return fmt.Errorf("%w: row %d: runtime %g", core.ErrBadRuntime, row, rec.Runtime)
	}
	for _, axis := range Axes {
		for _, id := range rec.Categories[axis] {
			if id < 0 || int(id) >= vocab.Size(axis) {
				return core.NewDataError(row, fmt.Sprintf("%s id %d outside vocabulary", axis, id))
			}
		}
	}
	return nil
}

// Records returns the underlying record slice. Callers must not mutate it.
func (d *Dataset) Records() []Record {
	return d.records
}

// Len returns the number of records
func (d *Dataset) Len() int {
	return len(d.records)
}

// Vocab returns the category vocabulary
func (d *Dataset) Vocab() *Vocabulary {
	return d.vocab
}

// Years returns the sorted distinct release years
func (d *Dataset) Years() []int {
	return d.years
}

// YearIndex returns the dense index of a year in Years()
func (d *Dataset) YearIndex(year int) (int, bool) {
	i, ok := d.yearIndex[year]
	return i, ok
}

// YearCount returns the number of films released in the given year
func (d *Dataset) YearCount(year int) int {
	return d.yearCounts[year]
}

// Count returns the number of films carrying the given label in the given
// overlap group. These counts weight the zero-sum deviation constraint.
func (d *Dataset) Count(axis Axis, id CategoryID, group Group) int {
	return d.counts[axis][id][group]
}
