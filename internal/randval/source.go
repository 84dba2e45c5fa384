// Package randval produces random scalar values for synthetic form data.
//
// All generators draw from an injected Source so callers (and tests) decide
// whether output is reproducible.
package randval

import (
	"math/rand/v2"
	"sync"
)

// Source supplies pseudo-random numbers. *rand.Rand from math/rand/v2
// satisfies it.
type Source interface {
	// IntN returns a value in [0, n). It panics if n <= 0.
	IntN(n int) int
	// Float64 returns a value in [0.0, 1.0).
	Float64() float64
}

// NewSource returns an unseeded source that is safe for concurrent use.
func NewSource() Source {
	return &lockedSource{r: rand.New(rand.NewPCG(rand.Uint64(), rand.Uint64()))}
}

// NewSeeded returns a deterministic source that is safe for concurrent use.
// Draws repeat for a given seed as long as callers take them in the same
// order.
func NewSeeded(seed uint64) Source {
	return &lockedSource{r: rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15))}
}

type lockedSource struct {
	mu sync.Mutex
	r  *rand.Rand
}

func (s *lockedSource) IntN(n int) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.r.IntN(n)
}

func (s *lockedSource) Float64() float64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.r.Float64()
}
