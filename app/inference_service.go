package app

import (
	"context"
	"errors"
	"fmt"
	"runtime"
	"sync"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/semaphore"

	"filmtrend/domain/core"
	"filmtrend/domain/model"
	"filmtrend/domain/posterior"
	"filmtrend/domain/run"
	"filmtrend/internal/config"
	"filmtrend/internal/sampler"
	"filmtrend/internal/summary"
	"filmtrend/ports"
)

// InferenceService runs the full pipeline: load dataset, fit the runtime
// model by MCMC over independent chains, diagnose convergence, summarize the
// posterior, and write the results for the plotting stage.
type InferenceService struct {
	datasetPort ports.DatasetPort
	resultsPort ports.ResultsPort
	rngPort     ports.RNGPort
	logger      *zap.Logger
}

// RunRequest defines one inference run
type RunRequest struct {
	DataPath     string
	VocabPath    string
	ResultsPath  string
	ManifestPath string // optional; defaults next to ResultsPath when empty
	Config       config.Config
}

// RunResult is the in-memory outcome of a completed run
type RunResult struct {
	RunID       core.RunID
	Rows        []posterior.Row
	Manifest    run.Manifest
	Diagnostics sampler.Diagnostics
}

// NewInferenceService creates the service with its collaborators
func NewInferenceService(datasetPort ports.DatasetPort, resultsPort ports.ResultsPort,
	rngPort ports.RNGPort, logger *zap.Logger) *InferenceService {

	if logger == nil {
		logger = zap.NewNop()
	}
	return &InferenceService{
		datasetPort: datasetPort,
		resultsPort: resultsPort,
		rngPort:     rngPort,
		logger:      logger,
	}
}

// Run executes a complete inference run. Configuration and data errors abort
// before any sampling; numerical issues inside chains never do.
func (s *InferenceService) Run(ctx context.Context, req RunRequest) (*RunResult, error) {
	startTime := time.Now()

	if err := req.Config.Validate(); err != nil {
		return nil, err
	}

	vocab, err := s.datasetPort.ReadVocabulary(ctx, req.VocabPath)
	if err != nil {
		return nil, err
	}
	dataset, err := s.datasetPort.ReadDataset(ctx, req.DataPath, vocab)
	if err != nil {
		return nil, err
	}

	m := model.New(dataset, req.Config.Priors)
	runID := core.RunID(core.NewID())
	s.logger.Info("starting inference run",
		zap.String("run_id", runID.String()),
		zap.Int("records", dataset.Len()),
		zap.Int("years", len(dataset.Years())),
		zap.Int("free_parameters", m.Layout().Dim()),
		zap.Int("chains", req.Config.Chains),
		zap.Int64("seed", req.Config.Seed))

	traces, truncated, err := s.runChains(ctx, m, req.Config)
	if err != nil {
		return nil, err
	}
	if truncated {
		s.logger.Warn("run stopped early; summarizing the flushed partial traces",
			zap.Int("samples", traces[0].Len()))
	}

	diagnostics, err := sampler.Diagnose(traces)
	if err != nil {
		return nil, err
	}
	for i, rate := range diagnostics.AcceptanceRates {
		s.logger.Info("chain finished",
			zap.Int("chain", i),
			zap.Float64("acceptance_rate", rate))
	}
	if len(traces) > 1 && !diagnostics.Converged() {
		s.logger.Warn("chains may not have converged",
			zap.Float64("max_r_hat", diagnostics.MaxRHat))
	}

	rows, err := summary.Summarize(m, traces, req.Config.CredibleMass)
	if err != nil {
		return nil, err
	}

	manifest := run.NewManifest(runID, run.Settings{
		Seed:         req.Config.Seed,
		Iterations:   req.Config.Iterations,
		BurnIn:       req.Config.BurnIn,
		Thin:         req.Config.Thin,
		Chains:       req.Config.Chains,
		TrendStep:    req.Config.TrendStep,
		DevStep:      req.Config.DevStep,
		SigmaStep:    req.Config.SigmaStep,
		CredibleMass: req.Config.CredibleMass,
		Priors:       req.Config.Priors,
	}, dataset.Len(), dataset.Fingerprint())
	manifest.AcceptanceRates = diagnostics.AcceptanceRates
	manifest.MaxRHat = diagnostics.MaxRHat
	manifest.Truncated = truncated
	manifest.RuntimeMs = time.Since(startTime).Milliseconds()

	if err := s.resultsPort.WriteSummary(ctx, req.ResultsPath, rows); err != nil {
		return nil, err
	}
	manifestPath := req.ManifestPath
	if manifestPath == "" {
		manifestPath = req.ResultsPath + ".manifest.json"
	}
	if err := s.resultsPort.WriteManifest(ctx, manifestPath, manifest); err != nil {
		return nil, err
	}

	s.logger.Info("inference run complete",
		zap.String("run_id", runID.String()),
		zap.Int("parameters", len(rows)),
		zap.Int64("runtime_ms", manifest.RuntimeMs))

	return &RunResult{
		RunID:       runID,
		Rows:        rows,
		Manifest:    manifest,
		Diagnostics: diagnostics,
	}, nil
}

// runChains executes the configured number of independent chains. Each chain
// gets its own derived RNG stream and shares only the read-only dataset and
// model; a weighted semaphore bounds how many run at once.
//
// A context stop is not fatal: chains flush their partial traces, and when
// every chain produced one the truncated traces are returned for
// summarization instead of being discarded.
func (s *InferenceService) runChains(ctx context.Context, m *model.Model, cfg config.Config) ([]*sampler.Trace, bool, error) {
	samplerCfg := sampler.Config{
		Iterations: cfg.Iterations,
		BurnIn:     cfg.BurnIn,
		Thin:       cfg.Thin,
		TrendStep:  cfg.TrendStep,
		DevStep:    cfg.DevStep,
		SigmaStep:  cfg.SigmaStep,
	}

	maxParallel := int64(runtime.NumCPU())
	if maxParallel > int64(cfg.Chains) {
		maxParallel = int64(cfg.Chains)
	}
	sem := semaphore.NewWeighted(maxParallel)

	traces := make([]*sampler.Trace, cfg.Chains)
	errs := make([]error, cfg.Chains)
	var wg sync.WaitGroup

	for chainIdx := 0; chainIdx < cfg.Chains; chainIdx++ {
		if err := sem.Acquire(ctx, 1); err != nil {
			// In-flight chains still write into traces/errs; wait them out
			wg.Wait()
			errs[chainIdx] = fmt.Errorf("acquire chain slot: %w", err)
			break
		}
		wg.Add(1)
		go func(chainIdx int) {
			defer wg.Done()
			defer sem.Release(1)

			stream, err := s.rngPort.ChainStream(ctx, chainIdx, cfg.Seed)
			if err != nil {
				errs[chainIdx] = fmt.Errorf("chain %d: %w", chainIdx, err)
				return
			}
			chain, err := sampler.New(m, samplerCfg, stream)
			if err != nil {
				errs[chainIdx] = fmt.Errorf("chain %d: %w", chainIdx, err)
				return
			}
			trace, err := chain.Run(ctx)
			if trace != nil {
				traces[chainIdx] = trace
			}
			if err != nil {
				errs[chainIdx] = fmt.Errorf("chain %d: %w", chainIdx, err)
			}
		}(chainIdx)
	}
	wg.Wait()

	truncated := false
	for chainIdx, err := range errs {
		if err == nil {
			continue
		}
		stopped := errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded)
		if !stopped || traces[chainIdx] == nil {
			return nil, false, err
		}
		truncated = true
	}
	return traces, truncated, nil
}
