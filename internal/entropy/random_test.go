package entropy

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSourceDeterminism(t *testing.T) {
	a := NewSource(42)
	b := NewSource(42)

	for i := 0; i < 100; i++ {
		require.Equal(t, a.Float(), b.Float())
	}
	require.Equal(t, a.Vector(16), b.Vector(16))
}

func TestZeroSeedIsResolved(t *testing.T) {
	s := NewSource(0)
	assert.NotZero(t, s.Seed())
}

func TestVectorRange(t *testing.T) {
	s := NewSource(7)
	v := s.Vector(1000)
	require.Len(t, v, 1000)
	for _, x := range v {
		assert.GreaterOrEqual(t, x, 0.0)
		assert.Less(t, x, 1.0)
	}
}

func TestUniformBounds(t *testing.T) {
	s := NewSource(7)
	for i := 0; i < 1000; i++ {
		x := s.Uniform(-0.02, 0.02)
		assert.GreaterOrEqual(t, x, -0.02)
		assert.Less(t, x, 0.02)
	}
}

func TestSmoothVector(t *testing.T) {
	s := NewSource(11)
	v := s.SmoothVector(64)
	require.Len(t, v, 64)
	for _, x := range v {
		assert.GreaterOrEqual(t, x, 0.0)
		assert.LessOrEqual(t, x, 1.0)
	}

	// Same seed, same smooth profile.
	v2 := NewSource(11).SmoothVector(64)
	assert.Equal(t, v, v2)
}
