package film

import (
	"testing"

	"filmtrend/domain/core"
)

func testVocabulary(t *testing.T) *Vocabulary {
	t.Helper()
	vocab, err := NewVocabulary(
		[]string{"USA", "India", "France"},
		[]string{"English", "Hindi"},
		[]string{"Drama", "Comedy"},
	)
	if err != nil {
		t.Fatalf("NewVocabulary failed: %v", err)
	}
	return vocab
}

func TestVocabularyResolve(t *testing.T) {
	vocab := testVocabulary(t)

	id, ok := vocab.Resolve(AxisCountry, "India")
	if !ok {
		t.Fatal("expected India to resolve")
	}
	if vocab.Label(AxisCountry, id) != "India" {
		t.Errorf("round trip gave %q, want India", vocab.Label(AxisCountry, id))
	}

	if _, ok := vocab.Resolve(AxisCountry, "Atlantis"); ok {
		t.Error("unknown label should not resolve")
	}
	if _, ok := vocab.Resolve(AxisLanguage, "USA"); ok {
		t.Error("labels must not leak across axes")
	}
}

func TestVocabularyRejectsDuplicates(t *testing.T) {
	_, err := NewVocabulary([]string{"USA", "USA"}, []string{"English"}, []string{"Drama"})
	if err == nil {
		t.Fatal("expected duplicate label error")
	}
	if !core.IsDataError(err) {
		t.Errorf("expected a data error, got %v", err)
	}
}

func TestNewDatasetCountsAndYears(t *testing.T) {
	vocab := testVocabulary(t)
	records := []Record{
		makeRecord(1990, 95, []CategoryID{0}, true),
		makeRecord(1990, 110, []CategoryID{0, 1}, false),
		makeRecord(1995, 120, []CategoryID{1}, false),
	}

	dataset, err := NewDataset(vocab, records)
	if err != nil {
		t.Fatalf("NewDataset failed: %v", err)
	}

	years := dataset.Years()
	if len(years) != 2 || years[0] != 1990 || years[1] != 1995 {
		t.Errorf("unexpected years %v", years)
	}
	if n := dataset.YearCount(1990); n != 2 {
		t.Errorf("YearCount(1990) = %d, want 2", n)
	}
	if idx, ok := dataset.YearIndex(1995); !ok || idx != 1 {
		t.Errorf("YearIndex(1995) = %d,%t, want 1,true", idx, ok)
	}

	if n := dataset.Count(AxisCountry, 0, GroupSame); n != 1 {
		t.Errorf("Count(USA, same) = %d, want 1", n)
	}
	if n := dataset.Count(AxisCountry, 0, GroupDifferent); n != 1 {
		t.Errorf("Count(USA, different) = %d, want 1", n)
	}
	if n := dataset.Count(AxisCountry, 1, GroupDifferent); n != 2 {
		t.Errorf("Count(India, different) = %d, want 2", n)
	}
}

func TestNewDatasetRejectsMalformedRecords(t *testing.T) {
	vocab := testVocabulary(t)

	cases := []struct {
		name   string
		record Record
	}{
		{"negative runtime", makeRecord(1990, -5, []CategoryID{0}, true)},
		{"zero runtime", makeRecord(1990, 0, []CategoryID{0}, true)},
		{"missing year", makeRecord(0, 100, []CategoryID{0}, true)},
		{"unknown category id", makeRecord(1990, 100, []CategoryID{99}, true)},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := NewDataset(vocab, []Record{tc.record})
			if err == nil {
				t.Fatal("expected a load error")
			}
			if !core.IsDataError(err) {
				t.Errorf("expected a data error, got %v", err)
			}
		})
	}
}

func TestFingerprintIsStable(t *testing.T) {
	vocab := testVocabulary(t)
	records := []Record{
		makeRecord(1990, 95, []CategoryID{0}, true),
		makeRecord(1995, 120, []CategoryID{1}, false),
	}

	a, err := NewDataset(vocab, records)
	if err != nil {
		t.Fatalf("NewDataset failed: %v", err)
	}
	b, err := NewDataset(vocab, records)
	if err != nil {
		t.Fatalf("NewDataset failed: %v", err)
	}
	if a.Fingerprint() != b.Fingerprint() {
		t.Error("identical datasets must have identical fingerprints")
	}

	c, err := NewDataset(vocab, records[:1])
	if err != nil {
		t.Fatalf("NewDataset failed: %v", err)
	}
	if a.Fingerprint() == c.Fingerprint() {
		t.Error("different datasets must not share a fingerprint")
	}
}

func makeRecord(year int, runtime float64, countries []CategoryID, same bool) Record {
	rec := Record{
		Year:             year,
		Runtime:          runtime,
		WriterIsDirector: same,
	}
	rec.Categories[AxisCountry] = countries
	rec.Categories[AxisLanguage] = []CategoryID{0}
	rec.Categories[AxisGenre] = []CategoryID{0}
	return rec
}
