// Package tabular reads the wrangled film table and category vocabulary and
// writes the posterior results table. It handles both CSV and Excel inputs.
package tabular

import (
	"bufio"
	"context"
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/xuri/excelize/v2"

	"filmtrend/domain/core"
	"filmtrend/domain/film"
)

// Column names expected in the film table header
const (
	colYear      = "year"
	colRuntime   = "runtime"
	colCountries = "countries"
	colLanguages = "languages"
	colGenres    = "genres"
	colSameFlag  = "writer_is_director"
)

// labelSeparator delimits multiple labels inside one cell
const labelSeparator = ";"

// Reader loads film datasets from CSV or Excel files, sniffing the format
// from the file extension
type Reader struct{}

// NewReader creates a dataset reader
func NewReader() *Reader {
	return &Reader{}
}

// ReadVocabulary parses the category vocabulary file: three lines of
// comma-separated labels, in axis order country, language, genre.
func (r *Reader) ReadVocabulary(_ context.Context, path string) (*film.Vocabulary, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open vocabulary file: %w", err)
	}
	defer f.Close()

	var lines []string
	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for scanner.Scan() {
		lines = append(lines, scanner.Text())
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("read vocabulary file: %w", err)
	}
	if len(lines) < film.NumAxes {
		return nil, core.NewDataError(len(lines), fmt.Sprintf("vocabulary file needs %d lines (countries, languages, genres), got %d", film.NumAxes, len(lines)))
	}

	return film.NewVocabulary(splitLabels(lines[0], ","), splitLabels(lines[1], ","), splitLabels(lines[2], ","))
}

// ReadDataset parses the film table and validates it against the vocabulary.
// Any malformed row aborts the load with a data error naming the row.
func (r *Reader) ReadDataset(ctx context.Context, path string, vocab *film.Vocabulary) (*film.Dataset, error) {
	rows, err := r.readRows(path)
	if err != nil {
		return nil, err
	}
	if len(rows) < 2 {
		return nil, core.NewDataError(0, "film table needs a header row and at least one data row")
	}

	cols, err := indexHeader(rows[0])
	if err != nil {
		return nil, err
	}

	records := make([]film.Record, 0, len(rows)-1)
	for i, row := range rows[1:] {
		rowNum := i + 1 // 1-based data row, matching the spreadsheet view
		rec, err := parseRecord(rowNum, row, cols, vocab)
		if err != nil {
			return nil, err
		}
		records = append(records, rec)
	}

	return film.NewDataset(vocab, records)
}

// readRows loads raw cells from a CSV or Excel file
func (r *Reader) readRows(path string) ([][]string, error) {
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return nil, fmt.Errorf("film table not found: %s", path)
	}
	if strings.ToLower(filepath.Ext(path)) == ".xlsx" {
		return r.readExcelRows(path)
	}
	return r.readCSVRows(path)
}

func (r *Reader) readCSVRows(path string) ([][]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open film table: %w", err)
	}
	defer f.Close()

	reader := csv.NewReader(f)
	reader.FieldsPerRecord = -1
	rows, err := reader.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("parse film table: %w", err)
	}
	return rows, nil
}

func (r *Reader) readExcelRows(path string) ([][]string, error) {
	f, err := excelize.OpenFile(path)
	if err != nil {
		return nil, fmt.Errorf("open Excel film table: %w", err)
	}
	defer f.Close()

	rows, err := f.GetRows("Sheet1")
	if err != nil {
		return nil, fmt.Errorf("read Sheet1: %w", err)
	}
	return rows, nil
}

func indexHeader(header []string) (map[string]int, error) {
	cols := make(map[string]int, len(header))
	for i, name := range header {
		cols[strings.ToLower(strings.TrimSpace(name))] = i
	}
	for _, required := range []string{colYear, colRuntime, colCountries, colLanguages, colGenres, colSameFlag} {
		if _, ok := cols[required]; !ok {
			return nil, core.NewDataError(0, fmt.Sprintf("missing required column %q", required))
		}
	}
	return cols, nil
}

func parseRecord(rowNum int, row []string, cols map[string]int, vocab *film.Vocabulary) (film.Record, error) {
	cell := func(name string) string {
		idx := cols[name]
		if idx >= len(row) {
			return ""
		}
		return strings.TrimSpace(row[idx])
	}

	yearStr := cell(colYear)
	if yearStr == "" {
		return film.Record{}, fmt.Errorf("%w: row %d", core.ErrMissingYear, rowNum)
	}
	year, err := strconv.Atoi(yearStr)
	if err != nil {
		return film.Record{}, core.NewDataError(rowNum, fmt.Sprintf("invalid year %q", yearStr))
	}

	runtime, err := strconv.ParseFloat(cell(colRuntime), 64)
	if err != nil {
		return film.Record{}, core.NewDataError(rowNum, fmt.Sprintf("invalid runtime %q", cell(colRuntime)))
	}
	if runtime <= 0 {
		return film.Record{}, fmt.Errorf("%w: row %d: runtime %g", core.ErrBadRuntime, rowNum, runtime)
	}

	sameFlag, err := strconv.ParseBool(cell(colSameFlag))
	if err != nil {
		return film.Record{}, core.NewDataError(rowNum, fmt.Sprintf("invalid %s value %q", colSameFlag, cell(colSameFlag)))
	}

	rec := film.Record{
		Year:             year,
		Runtime:          runtime,
		WriterIsDirector: sameFlag,
	}
	for axis, column := range map[film.Axis]string{
		film.AxisCountry:  colCountries,
		film.AxisLanguage: colLanguages,
		film.AxisGenre:    colGenres,
	} {
		ids, err := resolveLabels(rowNum, axis, cell(column), vocab)
		if err != nil {
			return film.Record{}, err
		}
		rec.Categories[axis] = ids
	}
	return rec, nil
}

// resolveLabels maps a delimited label cell to sorted, deduplicated
// vocabulary ids
func resolveLabels(rowNum int, axis film.Axis, cellValue string, vocab *film.Vocabulary) ([]film.CategoryID, error) {
	labels := splitLabels(cellValue, labelSeparator)
	if len(labels) == 0 {
		return nil, nil
	}
	seen := make(map[film.CategoryID]struct{}, len(labels))
	ids := make([]film.CategoryID, 0, len(labels))
	for _, label := range labels {
		id, ok := vocab.Resolve(axis, label)
		if !ok {
			return nil, core.NewUnknownCategoryError(rowNum, axis.String(), label)
		}
		if _, dup := seen[id]; dup {
			continue
		}
		seen[id] = struct{}{}
		ids = append(ids, id)
	}
	// Keep id sets ordered so dataset fingerprints are stable
	for i := 1; i < len(ids); i++ {
		for j := i; j > 0 && ids[j] < ids[j-1]; j-- {
			ids[j], ids[j-1] = ids[j-1], ids[j]
		}
	}
	return ids, nil
}

func splitLabels(s, sep string) []string {
	parts := strings.Split(s, sep)
	labels := make([]string, 0, len(parts))
	for _, p := range parts {
		if trimmed := strings.TrimSpace(p); trimmed != "" {
			labels = append(labels, trimmed)
		}
	}
	return labels
}
