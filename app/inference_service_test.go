package app

import (
	"context"
	"math"
	"math/rand"
	"os"
	"path/filepath"
	"strings"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	rngadapter "filmtrend/adapters/rng"
	"filmtrend/adapters/tabular"
	"filmtrend/domain/core"
	"filmtrend/domain/posterior"
	"filmtrend/internal/config"
	"filmtrend/internal/testkit"
)

// writeSyntheticInputs generates a small known dataset and writes it in the
// reader's input format, returning the data and vocabulary paths.
func writeSyntheticInputs(t *testing.T, dir string, records int) (string, string) {
	t.Helper()

	spec := testkit.DefaultSpec()
	spec.Records = records
	dataset, err := testkit.Generate(spec, rand.New(rand.NewSource(11)))
	require.NoError(t, err)

	dataPath := filepath.Join(dir, "films.csv")
	vocabPath := filepath.Join(dir, "categories.txt")
	require.NoError(t, tabular.NewWriter().WriteDataset(context.Background(), dataPath, vocabPath, dataset))
	return dataPath, vocabPath
}

func smallConfig() config.Config {
	cfg := config.Default()
	cfg.Iterations = 2000
	cfg.BurnIn = 500
	cfg.Chains = 2
	cfg.Seed = 7
	return cfg
}

func newService() *InferenceService {
	return NewInferenceService(tabular.NewReader(), tabular.NewWriter(), rngadapter.New(), nil)
}

func TestRunEndToEnd(t *testing.T) {
	dir := t.TempDir()
	dataPath, vocabPath := writeSyntheticInputs(t, dir, 400)
	resultsPath := filepath.Join(dir, "results.csv")

	result, err := newService().Run(context.Background(), RunRequest{
		DataPath:    dataPath,
		VocabPath:   vocabPath,
		ResultsPath: resultsPath,
		Config:      smallConfig(),
	})
	require.NoError(t, err)
	require.NotNil(t, result)

	// One trend row, a same/different pair for the country, and sigma.
	require.Len(t, result.Rows, 4)
	kinds := make(map[posterior.Kind]int)
	for _, row := range result.Rows {
		kinds[row.Kind]++
		assert.LessOrEqual(t, row.Lower, row.Upper, "interval for %s", row.Parameter)
	}
	assert.Equal(t, 1, kinds[posterior.KindTrend])
	assert.Equal(t, 2, kinds[posterior.KindDeviation])
	assert.Equal(t, 1, kinds[posterior.KindSigma])

	assert.Len(t, result.Manifest.AcceptanceRates, 2)
	assert.Equal(t, 400, result.Manifest.RecordCount)
	assert.NotEmpty(t, result.Manifest.Fingerprint)

	raw, err := os.ReadFile(resultsPath)
	require.NoError(t, err)
	lines := strings.Split(strings.TrimSpace(string(raw)), "\n")
	assert.Len(t, lines, 5, "header plus one row per parameter")

	_, err = os.Stat(resultsPath + ".manifest.json")
	assert.NoError(t, err, "manifest written next to the results by default")
}

func TestRunIsReproducibleForSameSeed(t *testing.T) {
	dir := t.TempDir()
	dataPath, vocabPath := writeSyntheticInputs(t, dir, 200)

	runOnce := func(out string) []posterior.Row {
		result, err := newService().Run(context.Background(), RunRequest{
			DataPath:    dataPath,
			VocabPath:   vocabPath,
			ResultsPath: filepath.Join(dir, out),
			Config:      smallConfig(),
		})
		require.NoError(t, err)
		return result.Rows
	}

	first := runOnce("a.csv")
	second := runOnce("b.csv")
	require.Equal(t, len(first), len(second))
	for i := range first {
		assert.Equal(t, first[i], second[i], "row %d", i)
	}
}

// stopAfterContext reports cancellation after a fixed number of Err checks,
// letting tests stop a chain mid-run at a known iteration.
type stopAfterContext struct {
	context.Context
	calls atomic.Int64
	limit int64
}

func (c *stopAfterContext) Err() error {
	if c.calls.Add(1) > c.limit {
		return context.DeadlineExceeded
	}
	return nil
}

func TestRunSummarizesPartialTracesOnHardStop(t *testing.T) {
	dir := t.TempDir()
	dataPath, vocabPath := writeSyntheticInputs(t, dir, 200)
	resultsPath := filepath.Join(dir, "results.csv")

	cfg := smallConfig()
	cfg.Chains = 1
	// The sampler checks the context once per iteration: the chain stops at
	// iteration 1500 of 2000, leaving 1000 post-burn-in samples.
	ctx := &stopAfterContext{Context: context.Background(), limit: 1500}

	result, err := newService().Run(ctx, RunRequest{
		DataPath:    dataPath,
		VocabPath:   vocabPath,
		ResultsPath: resultsPath,
		Config:      cfg,
	})
	require.NoError(t, err)
	require.NotNil(t, result)

	assert.True(t, result.Manifest.Truncated)
	require.Len(t, result.Rows, 4)
	for _, row := range result.Rows {
		assert.False(t, math.IsNaN(row.Mean), "row %s has no samples", row.Parameter)
	}

	_, err = os.Stat(resultsPath)
	assert.NoError(t, err, "partial results written on a hard stop")
}

func TestRunStopsCleanlyWhenCancelledBeforeSampling(t *testing.T) {
	dir := t.TempDir()
	dataPath, vocabPath := writeSyntheticInputs(t, dir, 100)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := newService().Run(ctx, RunRequest{
		DataPath:    dataPath,
		VocabPath:   vocabPath,
		ResultsPath: filepath.Join(dir, "results.csv"),
		Config:      smallConfig(),
	})
	require.Error(t, err)
}

func TestRunRejectsInvalidConfigBeforeReadingData(t *testing.T) {
	cfg := smallConfig()
	cfg.Iterations = 0

	_, err := newService().Run(context.Background(), RunRequest{
		DataPath:    "does-not-exist.csv",
		VocabPath:   "does-not-exist.txt",
		ResultsPath: filepath.Join(t.TempDir(), "results.csv"),
		Config:      cfg,
	})
	require.Error(t, err)
	assert.True(t, core.IsConfigError(err))
}

func TestRunSurfacesDataErrors(t *testing.T) {
	dir := t.TempDir()
	vocabPath := filepath.Join(dir, "categories.txt")
	require.NoError(t, os.WriteFile(vocabPath, []byte("USA\nEnglish\nDrama\n"), 0o644))
	dataPath := filepath.Join(dir, "films.csv")
	bad := "year,runtime,countries,languages,genres,writer_is_director\n" +
		"1990,-10,USA,English,Drama,true\n"
	require.NoError(t, os.WriteFile(dataPath, []byte(bad), 0o644))

	_, err := newService().Run(context.Background(), RunRequest{
		DataPath:    dataPath,
		VocabPath:   vocabPath,
		ResultsPath: filepath.Join(dir, "results.csv"),
		Config:      smallConfig(),
	})
	require.Error(t, err)
	assert.True(t, core.IsDataError(err))
}
