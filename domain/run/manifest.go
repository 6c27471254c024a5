package run

import (
	"crypto/sha256"
	"fmt"
	"time"

	"filmtrend/domain/core"
	"filmtrend/domain/model"
)

// Settings echoes the full sampling configuration of a run. Every field here
// changes the trace, so all of them feed the determinism fingerprint.
type Settings struct {
	Seed         int64        `json:"seed"`
	Iterations   int          `json:"iterations"`
	BurnIn       int          `json:"burn_in"`
	Thin         int          `json:"thin"`
	Chains       int          `json:"chains"`
	TrendStep    float64      `json:"trend_step"`
	DevStep      float64      `json:"dev_step"`
	SigmaStep    float64      `json:"sigma_step"`
	CredibleMass float64      `json:"credible_mass"`
	Priors       model.Priors `json:"priors"`
}

// Manifest records everything needed to reproduce or audit an inference run:
// the full sampling settings and a fingerprint of the dataset the posterior
// was fitted on. It is written next to the results table.
type Manifest struct {
	RunID core.RunID `json:"run_id"`
	Settings
	RecordCount        int       `json:"record_count"`
	DatasetFingerprint string    `json:"dataset_fingerprint"`
	AcceptanceRates    []float64 `json:"acceptance_rates"`
	MaxRHat            float64   `json:"max_r_hat"`
	Truncated          bool      `json:"truncated,omitempty"`
	RuntimeMs          int64     `json:"runtime_ms"`
	CreatedAt          time.Time `json:"created_at"`
	Fingerprint        string    `json:"fingerprint"` // hash of the determinism inputs above
}

// NewManifest assembles a manifest and stamps its determinism fingerprint
func NewManifest(runID core.RunID, settings Settings, recordCount int, datasetFingerprint string) Manifest {
	m := Manifest{
		RunID:              runID,
		Settings:           settings,
		RecordCount:        recordCount,
		DatasetFingerprint: datasetFingerprint,
		CreatedAt:          time.Now().UTC(),
	}
	m.Fingerprint = computeFingerprint(m)
	return m
}

// computeFingerprint hashes the determinism inputs: the complete sampling
// settings, including step sizes and prior hyperparameters, plus the dataset
// fingerprint. Two runs with the same fingerprint produce identical traces.
func computeFingerprint(m Manifest) string {
	data := fmt.Sprintf("seed:%d|iter:%d|burn:%d|thin:%d|chains:%d|steps:%g,%g,%g|mass:%g|priors:%g,%g,%g,%g,%g|dataset:%s",
		m.Seed, m.Iterations, m.BurnIn, m.Thin, m.Chains,
		m.TrendStep, m.DevStep, m.SigmaStep, m.CredibleMass,
		m.Priors.TrendMean, m.Priors.TrendSD, m.Priors.DeviationSD,
		m.Priors.SigmaShape, m.Priors.SigmaRate,
		m.DatasetFingerprint)
	hash := sha256.Sum256([]byte(data))
	return fmt.Sprintf("%x", hash)
}
