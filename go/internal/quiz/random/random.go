// Package random provides the seeded randomness used by the question
// sequencer and the card deck. A fixed seed makes every draw and shuffle in
// a game reproducible.
package random

import (
	crand "crypto/rand"
	"encoding/binary"
	"fmt"
	"math/rand"
)

// NewSeed generates a random seed using crypto/rand.
func NewSeed() (int64, error) {
	var b [8]byte
	if _, err := crand.Read(b[:]); err != nil {
		return 0, fmt.Errorf("read random seed: %w", err)
	}

	return int64(binary.LittleEndian.Uint64(b[:])), nil
}

// Randomizer is a deterministic source of shuffles and draws.
type Randomizer struct {
	rng *rand.Rand
}

// New creates a Randomizer from a seed.
func New(seed int64) *Randomizer {
	return &Randomizer{rng: rand.New(rand.NewSource(seed))}
}

// Intn returns a uniform int in [0, n). Panics if n <= 0, matching
// math/rand.
func (r *Randomizer) Intn(n int) int {
	return r.rng.Intn(n)
}

// Shuffle pseudo-randomizes the order of n elements through swap.
func (r *Randomizer) Shuffle(n int, swap func(i, j int)) {
	r.rng.Shuffle(n, swap)
}

// PickIndex returns a random index into a collection of length n, or -1 if
// the collection is empty.
func (r *Randomizer) PickIndex(n int) int {
	if n <= 0 {
		return -1
	}
	return r.rng.Intn(n)
}
