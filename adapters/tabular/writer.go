package tabular

import (
	"context"
	"encoding/csv"
	"encoding/json"
	"fmt"
	"os"
	"strconv"
	"strings"

	"filmtrend/domain/film"
	"filmtrend/domain/posterior"
	"filmtrend/domain/run"
)

// Writer persists run outputs: the posterior summary table consumed by the
// plotting stage and the run manifest
type Writer struct{}

// NewWriter creates a results writer
func NewWriter() *Writer {
	return &Writer{}
}

// WriteSummary writes the posterior summary as a CSV table, one row per
// model parameter
func (w *Writer) WriteSummary(_ context.Context, path string, rows []posterior.Row) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create results file: %w", err)
	}
	defer f.Close()

	cw := csv.NewWriter(f)
	header := []string{"parameter", "kind", "axis", "label", "group", "year", "count", "mean", "sd", "lower95", "upper95"}
	if err := cw.Write(header); err != nil {
		return fmt.Errorf("write results header: %w", err)
	}
	for _, row := range rows {
		year := ""
		if row.Kind == posterior.KindTrend {
			year = strconv.Itoa(row.Year)
		}
		record := []string{
			row.Parameter,
			string(row.Kind),
			row.Axis,
			row.Label,
			row.Group,
			year,
			strconv.Itoa(row.Count),
			formatFloat(row.Mean),
			formatFloat(row.StdDev),
			formatFloat(row.Lower),
			formatFloat(row.Upper),
		}
		if err := cw.Write(record); err != nil {
			return fmt.Errorf("write results row %s: %w", row.Parameter, err)
		}
	}
	cw.Flush()
	return cw.Error()
}

// WriteManifest writes the run manifest as indented JSON
func (w *Writer) WriteManifest(_ context.Context, path string, manifest run.Manifest) error {
	data, err := json.MarshalIndent(manifest, "", "  ")
	if err != nil {
		return fmt.Errorf("encode manifest: %w", err)
	}
	if err := os.WriteFile(path, append(data, '\n'), 0o644); err != nil {
		return fmt.Errorf("write manifest: %w", err)
	}
	return nil
}

// WriteDataset exports a film table and its vocabulary in the reader's input
// format. Used by the synthetic-data generator CLI.
func (w *Writer) WriteDataset(_ context.Context, dataPath, vocabPath string, dataset *film.Dataset) error {
	vocab := dataset.Vocab()

	vf, err := os.Create(vocabPath)
	if err != nil {
		return fmt.Errorf("create vocabulary file: %w", err)
	}
	defer vf.Close()
	for _, axis := range film.Axes {
		labels := make([]string, vocab.Size(axis))
		for i := range labels {
			labels[i] = vocab.Label(axis, film.CategoryID(i))
		}
		if _, err := fmt.Fprintln(vf, strings.Join(labels, ", ")); err != nil {
			return fmt.Errorf("write vocabulary: %w", err)
		}
	}

	df, err := os.Create(dataPath)
	if err != nil {
		return fmt.Errorf("create film table: %w", err)
	}
	defer df.Close()

	cw := csv.NewWriter(df)
	if err := cw.Write([]string{colYear, colRuntime, colCountries, colLanguages, colGenres, colSameFlag}); err != nil {
		return fmt.Errorf("write film table header: %w", err)
	}
	for _, rec := range dataset.Records() {
		row := []string{
			strconv.Itoa(rec.Year),
			formatFloat(rec.Runtime),
			joinLabels(vocab, film.AxisCountry, rec.Categories[film.AxisCountry]),
			joinLabels(vocab, film.AxisLanguage, rec.Categories[film.AxisLanguage]),
			joinLabels(vocab, film.AxisGenre, rec.Categories[film.AxisGenre]),
			strconv.FormatBool(rec.WriterIsDirector),
		}
		if err := cw.Write(row); err != nil {
			return fmt.Errorf("write film table row: %w", err)
		}
	}
	cw.Flush()
	return cw.Error()
}

func joinLabels(vocab *film.Vocabulary, axis film.Axis, ids []film.CategoryID) string {
	labels := make([]string, len(ids))
	for i, id := range ids {
		labels[i] = vocab.Label(axis, id)
	}
	return strings.Join(labels, labelSeparator)
}

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'g', -1, 64)
}
