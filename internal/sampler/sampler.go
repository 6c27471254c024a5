package sampler

import (
	"context"
	"fmt"
	"math"
	"math/rand"

	"filmtrend/domain/core"
	"filmtrend/domain/model"
)

// Config holds the tunable sampling schedule and proposal step sizes.
// Step sizes are grouped by coordinate block; tune them for an acceptance
// rate in the 15-50% band.
type Config struct {
	Iterations int
	BurnIn     int
	Thin       int
	TrendStep  float64 // proposal step for per-year trend coordinates
	DevStep    float64 // proposal step for free deviation coordinates
	SigmaStep  float64 // proposal step for the log-sigma coordinate
}

// Validate rejects schedules that cannot produce a usable trace
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
	if c.TrendStep <= 0 || c.DevStep <= 0 || c.SigmaStep <= 0 {
		return core.NewConfigError("step_sizes", "all proposal step sizes must be positive")
	}
	return nil
}

// Sampler drives random-walk Metropolis MCMC over a model's free coordinates.
// Each iteration perturbs one randomly chosen coordinate by a symmetric
// Gaussian step and accepts with probability min(1, exp(dlogPosterior)).
// All randomness comes from the single seeded stream handed in at
// construction, so a given (seed, dataset, config) triple replays the exact
// same trace.
type Sampler struct {
	model *model.Model
	cfg   Config
	rng   *rand.Rand
}

// New creates a sampler over a model with a dedicated RNG stream
func New(m *model.Model, cfg Config, rng *rand.Rand) (*Sampler, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if rng == nil {
		return nil, core.NewConfigError("rng", "seeded random stream is required")
	}
	return &Sampler{model: m, cfg: cfg, rng: rng}, nil
}

// stepFor returns the proposal step size for a coordinate by block
func (s *Sampler) stepFor(coord int) float64 {
	layout := s.model.Layout()
	switch {
	case coord < layout.NumTrend():
		return s.cfg.TrendStep
	case coord == layout.SigmaIndex():
		return s.cfg.SigmaStep
	default:
		return s.cfg.DevStep
	}
}

// Run executes the chain: Initialize, then Propose/Evaluate/Accept|Reject for
// the configured number of iterations. The context acts as a hard stop: on
// cancellation the accumulated trace is frozen and returned along with the
// context's error, never discarded.
//
// Numerical failures in evaluation surface as a -Inf log-posterior and reject
// the proposal; they never abort the run.
func (s *Sampler) Run(ctx context.Context) (*Trace, error) {
	layout := s.model.Layout()
	dim := layout.Dim()
	trace := NewTrace(dim, s.cfg.Iterations, s.cfg.BurnIn, s.cfg.Thin)

	current := s.model.InitVector()
	currentLP := s.model.LogPosterior(current)
	proposal := current.Clone()

	for i := 0; i < s.cfg.Iterations; i++ {
		if err := ctx.Err(); err != nil {
			trace.Freeze()
			return trace, fmt.Errorf("sampling stopped after %d iterations: %w", i, err)
		}

		// Propose: symmetric Gaussian perturbation of one coordinate
		copy(proposal.Free(), current.Free())
		coord := s.rng.Intn(dim)
		proposal.Free()[coord] += s.rng.NormFloat64() * s.stepFor(coord)

		// Evaluate
		proposalLP := s.model.LogPosterior(proposal)

		// Accept|Reject. A NaN delta (both states -Inf) rejects.
		accepted := false
		delta := proposalLP - currentLP
		if !math.IsNaN(delta) && (delta >= 0 || math.Log(s.rng.Float64()) < delta) {
			current, proposal = proposal, current
			currentLP = proposalLP
			accepted = true
		}

		trace.Append(current.Free(), currentLP, accepted)
	}

	trace.Freeze()
	return trace, nil
}
