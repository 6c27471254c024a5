package sampler

import (
	"context"
	"math"
	"math/rand"
	"testing"

	"filmtrend/domain/core"
	"filmtrend/domain/film"
	"filmtrend/domain/model"
	"filmtrend/internal/testkit"
)

// recoveryFixture is the tuned synthetic setup shared by the sampler tests:
// constant trend 100, one country pair +2/-2 weighted 1:1, sigma 1.
func recoveryFixture(t *testing.T, records int) *model.Model {
	t.Helper()
	spec := testkit.DefaultSpec()
	spec.Records = records
	dataset, err := testkit.Generate(spec, rand.New(rand.NewSource(99)))
	if err != nil {
		t.Fatalf("Generate failed: %v", err)
	}
	return model.New(dataset, model.DefaultPriors())
}

// tunedConfig holds step sizes calibrated for the recovery fixture's
// posterior scale
func tunedConfig(iterations, burnIn int) Config {
	return Config{
		Iterations: iterations,
		BurnIn:     burnIn,
		Thin:       1,
		TrendStep:  0.08,
		DevStep:    0.08,
		SigmaStep:  0.08,
	}
}

func TestTraceLengthEqualsIterations(t *testing.T) {
	m := recoveryFixture(t, 200)
	s, err := New(m, tunedConfig(500, 100), rand.New(rand.NewSource(1)))
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}

	trace, err := s.Run(context.Background())
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}
	if trace.Len() != 500 {
		t.Errorf("trace length = %d, want 500", trace.Len())
	}
	if trace.Dim() != m.Layout().Dim() {
		t.Errorf("trace dim = %d, want %d", trace.Dim(), m.Layout().Dim())
	}
}

func TestTraceIsBitForBitReproducible(t *testing.T) {
	m := recoveryFixture(t, 200)

	runOnce := func() *Trace {
		s, err := New(m, tunedConfig(400, 0), rand.New(rand.NewSource(7)))
		if err != nil {
			t.Fatalf("New failed: %v", err)
		}
		trace, err := s.Run(context.Background())
		if err != nil {
			t.Fatalf("Run failed: %v", err)
		}
		return trace
	}

	a, b := runOnce(), runOnce()
	if a.Len() != b.Len() {
		t.Fatalf("trace lengths differ: %d vs %d", a.Len(), b.Len())
	}
	for i := 0; i < a.Len(); i++ {
		if a.LogPosterior(i) != b.LogPosterior(i) {
			t.Fatalf("log-posterior differs at iteration %d", i)
		}
		sa, sb := a.Sample(i), b.Sample(i)
		for j := range sa {
			if sa[j] != sb[j] {
				t.Fatalf("sample differs at iteration %d coordinate %d", i, j)
			}
		}
	}
}

func TestEverySampleHonorsZeroSumConstraint(t *testing.T) {
	m := recoveryFixture(t, 200)
	s, err := New(m, tunedConfig(300, 0), rand.New(rand.NewSource(3)))
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}
	trace, err := s.Run(context.Background())
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}

	layout := m.Layout()
	dataset := layout.Dataset()
	p := model.NewParamVector(layout)
	for i := 0; i < trace.Len(); i++ {
		copy(p.Free(), trace.Sample(i))
		for _, axis := range film.Axes {
			for id := 0; id < dataset.Vocab().Size(axis); id++ {
				sum := p.WeightedDeviationSum(axis, film.CategoryID(id))
				if math.Abs(sum) > 1e-9 {
					t.Fatalf("iteration %d: weighted deviation sum for %s id %d is %g", i, axis, id, sum)
				}
			}
		}
	}
}

func TestAcceptanceRateInTargetBand(t *testing.T) {
	m := recoveryFixture(t, 2000)
	s, err := New(m, tunedConfig(10000, 3000), rand.New(rand.NewSource(5)))
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}
	trace, err := s.Run(context.Background())
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}

	rate := trace.AcceptanceRate()
	if rate < 0.15 || rate > 0.50 {
		t.Errorf("acceptance rate %.3f outside the 15-50%% target band", rate)
	}
}

func TestPosteriorRecoversGeneratingParameters(t *testing.T) {
	spec := testkit.DefaultSpec()
	spec.Records = 2000
	dataset, err := testkit.Generate(spec, rand.New(rand.NewSource(99)))
	if err != nil {
		t.Fatalf("Generate failed: %v", err)
	}
	m := model.New(dataset, model.DefaultPriors())
	layout := m.Layout()

	s, err := New(m, tunedConfig(10000, 3000), rand.New(rand.NewSource(13)))
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}
	trace, err := s.Run(context.Background())
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}

	mean := func(series []float64) float64 {
		total := 0.0
		for _, v := range series {
			total += v
		}
		return total / float64(len(series))
	}

	trendMean := mean(trace.Coordinate(layout.TrendIndex(0)))
	if math.Abs(trendMean-spec.Trend) > 0.5 {
		t.Errorf("posterior trend mean %.3f not within 0.5 of true %.1f", trendMean, spec.Trend)
	}

	devMean := mean(trace.Coordinate(layout.DevIndex(0)))
	if math.Abs(devMean-spec.SameDeviation) > 0.5 {
		t.Errorf("posterior deviation mean %.3f not within 0.5 of true %.1f", devMean, spec.SameDeviation)
	}

	sigmaSeries := trace.Coordinate(layout.SigmaIndex())
	sigmaMean := 0.0
	for _, v := range sigmaSeries {
		sigmaMean += math.Exp(v)
	}
	sigmaMean /= float64(len(sigmaSeries))
	if math.Abs(sigmaMean-spec.Sigma) > 0.5 {
		t.Errorf("posterior sigma mean %.3f not within 0.5 of true %.1f", sigmaMean, spec.Sigma)
	}
}

func TestCancelledContextFlushesPartialTrace(t *testing.T) {
	m := recoveryFixture(t, 100)
	s, err := New(m, tunedConfig(1000, 0), rand.New(rand.NewSource(2)))
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	trace, err := s.Run(ctx)
	if err == nil {
		t.Fatal("expected a cancellation error")
	}
	if trace == nil {
		t.Fatal("accumulated trace must be returned on cancellation")
	}
	if trace.Len() >= 1000 {
		t.Errorf("trace length %d, want fewer than the configured iterations", trace.Len())
	}
}

func TestConfigValidation(t *testing.T) {
	m := recoveryFixture(t, 50)
	rng := rand.New(rand.NewSource(1))

	cases := []struct {
		name string
		cfg  Config
	}{
		{"zero iterations", Config{Iterations: 0, Thin: 1, TrendStep: 1, DevStep: 1, SigmaStep: 1}},
		{"burn-in past end", Config{Iterations: 10, BurnIn: 10, Thin: 1, TrendStep: 1, DevStep: 1, SigmaStep: 1}},
		{"zero thin", Config{Iterations: 10, Thin: 0, TrendStep: 1, DevStep: 1, SigmaStep: 1}},
		{"negative step", Config{Iterations: 10, Thin: 1, TrendStep: -1, DevStep: 1, SigmaStep: 1}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if _, err := New(m, tc.cfg, rng); err == nil {
				t.Fatal("expected a config error")
			} else if !core.IsConfigError(err) {
				t.Errorf("expected a config error, got %v", err)
			}
		})
	}
}
