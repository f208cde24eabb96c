// Package entropy provides the randomness sources used for universe seeding
// and per-step model noise. Each universe owns one Source; nothing here is
// process-global, so independent universes never share generator state.
package entropy

import (
	"crypto/rand"
	"encoding/binary"
	mathrand "math/rand"

	opensimplex "github.com/ojrac/opensimplex-go"

	"github.com/talgya/retroverse/internal/vecmath"
)

// Source wraps a seeded PRNG. A zero seed selects a fresh random seed drawn
// from crypto/rand, so unseeded runs are independent across processes.
type Source struct {
	seed int64
	rng  *mathrand.Rand
}

// NewSource creates a Source from the given seed. Seed 0 means "pick one".
func NewSource(seed int64) *Source {
	if seed == 0 {
		seed = cryptoSeed()
	}
	return &Source{
		seed: seed,
		rng:  mathrand.New(mathrand.NewSource(seed)),
	}
}

// Seed returns the seed this source was created with (after resolution of a
// zero seed), for logging and run records.
func (s *Source) Seed() int64 {
	return s.seed
}

// Float returns a uniform float64 in [0, 1).
func (s *Source) Float() float64 {
	return s.rng.Float64()
}

// Uniform returns a uniform float64 in [lo, hi).
func (s *Source) Uniform(lo, hi float64) float64 {
	return lo + (hi-lo)*s.rng.Float64()
}

// Int63 returns a non-negative random int64, used to derive child seeds for
// ensemble members.
func (s *Source) Int63() int64 {
	return s.rng.Int63()
}

// Vector returns a vector of dim independent uniform [0, 1) samples.
func (s *Source) Vector(dim int) vecmath.Vector {
	out := make(vecmath.Vector, dim)
	for i := range out {
		out[i] = s.rng.Float64()
	}
	return out
}

// SmoothVector returns a seed vector whose neighboring components are
// correlated, sampled from multi-octave simplex noise along one axis.
// Values land in [0, 1) like the uniform generator.
func (s *Source) SmoothVector(dim int) vecmath.Vector {
	noise := opensimplex.NewNormalized(s.rng.Int63())
	out := make(vecmath.Vector, dim)
	for i := range out {
		out[i] = octaveNoise(noise, float64(i), 4, 0.15, 0.5)
	}
	return out
}

// octaveNoise layers several noise frequencies for a natural-looking profile.
func octaveNoise(noise opensimplex.Noise, x float64, octaves int, frequency, persistence float64) float64 {
	total := 0.0
	amplitude := 1.0
	maxValue := 0.0
	freq := frequency

	for i := 0; i < octaves; i++ {
		total += noise.Eval2(x*freq, 0.5) * amplitude
		maxValue += amplitude
		amplitude *= persistence
		freq *= 2
	}

	return total / maxValue
}

// cryptoSeed derives an int64 seed from crypto/rand.
func cryptoSeed() int64 {
	var buf [8]byte
	if _, err := rand.Read(buf[:]); err != nil {
		// Should never happen; fall back to a fixed odd constant.
		return 0x5DEECE66D
	}
	n := binary.LittleEndian.Uint64(buf[:]) &^ (1 << 63)
	if n == 0 {
		n = 1
	}
	return int64(n)
}
