package ports

import (
	"context"

	"filmtrend/domain/posterior"
	"filmtrend/domain/run"
)

// ResultsPort persists the outputs of a completed run for the external
// plotting stage: the posterior summary table and the reproducibility
// manifest. I/O happens only at the end-of-run boundary.
type ResultsPort interface {
	// WriteSummary writes the per-parameter posterior summary table
	WriteSummary(ctx context.Context, path string, rows []posterior.Row) error

	// WriteManifest writes the run manifest alongside the results
	WriteManifest(ctx context.Context, path string, manifest run.Manifest) error
}
