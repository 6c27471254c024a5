package sampler

// Trace is the ordered sequence of chain states, one per iteration, plus the
// log-posterior at each. It is append-only while the chain runs and frozen on
// hand-off to the summarizer. Rejected iterations re-append the current
// state, so the length always equals the number of iterations performed.
type Trace struct {
	dim      int
	burnIn   int
	thin     int
	samples  []float64 // row-major, len = iterations*dim
	logPost  []float64
	accepted int
	frozen   bool
}

// NewTrace allocates a trace for the given dimensionality and schedule
func NewTrace(dim, expectedIterations, burnIn, thin int) *Trace {
	return &Trace{
		dim:     dim,
		burnIn:  burnIn,
		thin:    thin,
		samples: make([]float64, 0, expectedIterations*dim),
		logPost: make([]float64, 0, expectedIterations),
	}
}

// Append records one iteration's state. Panics on a frozen trace: nothing
// may grow a trace after the sampler hands it off.
func (t *Trace) Append(state []float64, logPost float64, accepted bool) {
	if t.frozen {
		panic("sampler: append to frozen trace")
	}
	t.samples = append(t.samples, state...)
	t.logPost = append(t.logPost, logPost)
	if accepted {
		t.accepted++
	}
}

// Freeze marks the trace read-only; the sampler calls it on termination
func (t *Trace) Freeze() {
	t.frozen = true
}

// Len returns the number of recorded iterations
func (t *Trace) Len() int {
	return len(t.logPost)
}

// Dim returns the number of free coordinates per sample
func (t *Trace) Dim() int {
	return t.dim
}

// BurnIn returns the number of leading iterations flagged as burn-in. They
// are retained in the trace but excluded from summaries.
func (t *Trace) BurnIn() int {
	return t.burnIn
}

// Thin returns the thinning interval applied at summarization
func (t *Trace) Thin() int {
	return t.thin
}

// Sample returns the state recorded at iteration i. Callers must not mutate it.
func (t *Trace) Sample(i int) []float64 {
	return t.samples[i*t.dim : (i+1)*t.dim]
}

// LogPosterior returns the log-posterior recorded at iteration i
func (t *Trace) LogPosterior(i int) float64 {
	return t.logPost[i]
}

// Accepted returns the number of accepted proposals
func (t *Trace) Accepted() int {
	return t.accepted
}

// AcceptanceRate returns the fraction of iterations that accepted
func (t *Trace) AcceptanceRate() float64 {
	if t.Len() == 0 {
		return 0
	}
	return float64(t.accepted) / float64(t.Len())
}

// Coordinate extracts the post-burn-in, thinned series of one free
// coordinate. This is the view the summarizer and diagnostics consume.
func (t *Trace) Coordinate(coord int) []float64 {
	thin := t.thin
	if thin < 1 {
		thin = 1
	}
	var series []float64
	for i := t.burnIn; i < t.Len(); i += thin {
		series = append(series, t.Sample(i)[coord])
	}
	return series
}
