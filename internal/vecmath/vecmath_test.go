package vecmath

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestElementwiseOps(t *testing.T) {
	a := Vector{1, 2, 3}
	b := Vector{4, 5, 6}

	t.Run("Add", func(t *testing.T) {
		assert.Equal(t, Vector{5, 7, 9}, Add(a, b))
	})

	t.Run("Sub", func(t *testing.T) {
		assert.Equal(t, Vector{-3, -3, -3}, Sub(a, b))
	})

	t.Run("Scale", func(t *testing.T) {
		assert.Equal(t, Vector{2, 4, 6}, Scale(a, 2))
	})

	t.Run("inputs are never mutated", func(t *testing.T) {
		Add(a, b)
		Sub(a, b)
		Scale(a, 10)
		Blend(a, b, 0.5)
		Sin(a)
		Cos(a)
		assert.Equal(t, Vector{1, 2, 3}, a)
		assert.Equal(t, Vector{4, 5, 6}, b)
	})
}

func TestBlend(t *testing.T) {
	a := Vector{0, 0}
	b := Vector{1, 1}

	assert.Equal(t, Vector{0, 0}, Blend(a, b, 0))
	assert.Equal(t, Vector{1, 1}, Blend(a, b, 1))
	assert.Equal(t, Vector{0.25, 0.25}, Blend(a, b, 0.25))
}

func TestTrig(t *testing.T) {
	v := Vector{0, math.Pi / 2}

	s := Sin(v)
	assert.InDelta(t, 0, s[0], 1e-12)
	assert.InDelta(t, 1, s[1], 1e-12)

	c := Cos(v)
	assert.InDelta(t, 1, c[0], 1e-12)
	assert.InDelta(t, 0, c[1], 1e-12)
}

func TestNorm(t *testing.T) {
	assert.Equal(t, 5.0, Norm(Vector{3, 4}))
	assert.Equal(t, 0.0, Norm(Zero(8)))
}

func TestMean(t *testing.T) {
	assert.Equal(t, 2.0, Mean(Vector{1, 2, 3}))
	assert.Equal(t, 0.0, Mean(Vector{}))
}

func TestCloneIsIndependent(t *testing.T) {
	a := Vector{1, 2}
	c := Clone(a)
	c[0] = 99
	require.Equal(t, Vector{1, 2}, a)
}

func TestAddInPlace(t *testing.T) {
	a := Vector{1, 1}
	AddInPlace(a, Vector{2, 3})
	assert.Equal(t, Vector{3, 4}, a)
}
