package ports

import (
	"context"
	"math/rand"
)

// RNGPort provides seeded random number generation for deterministic sampling
type RNGPort interface {
	// SeededStream creates a deterministic random number generator for a named
	// operation. The same (name, seed) pair always yields the same stream.
	SeededStream(ctx context.Context, name string, seed int64) (*rand.Rand, error)

	// ChainStream creates the deterministic RNG stream driving one MCMC chain.
	// Streams for distinct chain indices are independent; streams for the same
	// (chainIdx, baseSeed) are identical across runs, which is what makes a
	// trace bit-for-bit reproducible.
	ChainStream(ctx context.Context, chainIdx int, baseSeed int64) (*rand.Rand, error)
}
