package config

import (
	"fmt"
	"os"
	"strconv"

	"filmtrend/domain/core"
	"filmtrend/domain/model"
)

// Config holds the complete inference configuration. Every value has a
// documented default; environment variables (FILMTREND_*) override them and
// CLI flags override both.
type Config struct {
	Iterations int   // total chain length, including burn-in
	BurnIn     int   // leading iterations flagged and excluded from summaries
	Thin       int   // keep every k-th post-burn-in sample
	Chains     int   // independent chains for convergence diagnostics
	Seed       int64 // base seed; chain streams derive from it

	TrendStep float64 // proposal step size for trend coordinates (minutes)
	DevStep   float64 // proposal step size for deviation coordinates
	SigmaStep float64 // proposal step size for log-sigma

	CredibleMass float64 // central credible interval mass, e.g. 0.95

	Priors model.Priors
}

// Default returns the documented default configuration
func Default() Config {
	return Config{
		Iterations:   20000,
		BurnIn:       5000,
		Thin:         1,
		Chains:       2,
		Seed:         42,
		TrendStep:    0.8,
		DevStep:      0.5,
		SigmaStep:    0.05,
		CredibleMass: 0.95,
		Priors:       model.DefaultPriors(),
	}
}

// Load builds the configuration from defaults plus FILMTREND_* environment
// overrides, then validates it
func Load() (Config, error) {
	c := Default()

	var err error
	if c.Iterations, err = envInt("FILMTREND_ITERATIONS", c.Iterations); err != nil {
		return c, err
	}
	if c.BurnIn, err = envInt("FILMTREND_BURN_IN", c.BurnIn); err != nil {
		return c, err
	}
	if c.Thin, err = envInt("FILMTREND_THIN", c.Thin); err != nil {
		return c, err
	}
	if c.Chains, err = envInt("FILMTREND_CHAINS", c.Chains); err != nil {
		return c, err
	}
	if c.Seed, err = envInt64("FILMTREND_SEED", c.Seed); err != nil {
		return c, err
	}
	if c.TrendStep, err = envFloat("FILMTREND_TREND_STEP", c.TrendStep); err != nil {
		return c, err
	}
	if c.DevStep, err = envFloat("FILMTREND_DEV_STEP", c.DevStep); err != nil {
		return c, err
	}
	if c.SigmaStep, err = envFloat("FILMTREND_SIGMA_STEP", c.SigmaStep); err != nil {
		return c, err
	}
	if c.CredibleMass, err = envFloat("FILMTREND_CREDIBLE_MASS", c.CredibleMass); err != nil {
		return c, err
	}
	if c.Priors.TrendMean, err = envFloat("FILMTREND_PRIOR_TREND_MEAN", c.Priors.TrendMean); err != nil {
		return c, err
	}
	if c.Priors.TrendSD, err = envFloat("FILMTREND_PRIOR_TREND_SD", c.Priors.TrendSD); err != nil {
		return c, err
	}
	if c.Priors.DeviationSD, err = envFloat("FILMTREND_PRIOR_DEVIATION_SD", c.Priors.DeviationSD); err != nil {
		return c, err
	}
	if c.Priors.SigmaShape, err = envFloat("FILMTREND_PRIOR_SIGMA_SHAPE", c.Priors.SigmaShape); err != nil {
		return c, err
	}
	if c.Priors.SigmaRate, err = envFloat("FILMTREND_PRIOR_SIGMA_RATE", c.Priors.SigmaRate); err != nil {
		return c, err
	}

	if err := c.Validate(); err != nil {
		return c, err
	}
	return c, nil
}

// Validate checks every value that could silently break a run
func (c Config) Validate() error {
	if c.Iterations <= 0 {
		return core.NewConfigError("iterations", fmt.Sprintf("must be positive, got %d", c.Iterations))
	}
	if c.BurnIn < 0 || c.BurnIn >= c.Iterations {
		return core.NewConfigError("burn_in", fmt.Sprintf("must be in [0, iterations), got %d", c.BurnIn))
	}
	if c.Thin < 1 {
		return core.NewConfigError("thin", fmt.Sprintf("must be >= 1, got %d", c.Thin))
	}
	if c.Chains < 1 {
		return core.NewConfigError("chains", fmt.Sprintf("must be >= 1, got %d", c.Chains))
	}
	if c.TrendStep <= 0 {
		return core.NewConfigError("trend_step", "must be positive")
	}
	if c.DevStep <= 0 {
		return core.NewConfigError("dev_step", "must be positive")
	}
	if c.SigmaStep <= 0 {
		return core.NewConfigError("sigma_step", "must be positive")
	}
	if c.CredibleMass <= 0 || c.CredibleMass >= 1 {
		return core.NewConfigError("credible_mass", fmt.Sprintf("must be in (0, 1), got %g", c.CredibleMass))
	}
	if c.Priors.TrendSD <= 0 || c.Priors.DeviationSD <= 0 {
		return core.NewConfigError("priors", "prior standard deviations must be positive")
	}
	if c.Priors.SigmaShape <= 0 || c.Priors.SigmaRate <= 0 {
		return core.NewConfigError("priors", "sigma gamma shape and rate must be positive")
	}
	return nil
}

func envInt(key string, fallback int) (int, error) {
	raw := os.Getenv(key)
	if raw == "" {
		return fallback, nil
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return 0, core.NewConfigError(key, fmt.Sprintf("invalid integer %q", raw))
	}
	return v, nil
}

func envInt64(key string, fallback int64) (int64, error) {
	raw := os.Getenv(key)
	if raw == "" {
		return fallback, nil
	}
	v, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return 0, core.NewConfigError(key, fmt.Sprintf("invalid integer %q", raw))
	}
	return v, nil
}

func envFloat(key string, fallback float64) (float64, error) {
	raw := os.Getenv(key)
	if raw == "" {
		return fallback, nil
	}
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return 0, core.NewConfigError(key, fmt.Sprintf("invalid number %q", raw))
	}
	return v, nil
}
