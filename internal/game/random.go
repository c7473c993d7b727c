package game

import "math/rand/v2"

// Rand is the randomness used to build puzzles. *rand.Rand from math/rand/v2
// satisfies it, so tests can pass a seeded source.
type Rand interface {
	IntN(n int) int
	Shuffle(n int, swap func(i, j int))
}

type globalRand struct{}

func (globalRand) IntN(n int) int                     { return rand.IntN(n) }
func (globalRand) Shuffle(n int, swap func(i, j int)) { rand.Shuffle(n, swap) }

// DefaultRand uses the math/rand/v2 top-level functions, which are safe for
// concurrent use.
func DefaultRand() Rand { return globalRand{} }
