package dynamics

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/talgya/retroverse/internal/entropy"
	"github.com/talgya/retroverse/internal/vecmath"
)

func TestParseModel(t *testing.T) {
	for tag, want := range map[string]Model{
		"nonlinear":   Nonlinear,
		"oscillators": Oscillators,
		"ising":       Ising,
	} {
		got, err := ParseModel(tag)
		require.NoError(t, err)
		assert.Equal(t, want, got)
		assert.Equal(t, tag, got.String())
	}

	_, err := ParseModel("quantum")
	assert.Error(t, err)
}

func TestParseSystem(t *testing.T) {
	for tag, want := range map[string]System{
		"isolated": Isolated,
		"open":     Open,
		"closed":   Closed,
	} {
		got, err := ParseSystem(tag)
		require.NoError(t, err)
		assert.Equal(t, want, got)
		assert.Equal(t, tag, got.String())
	}

	_, err := ParseSystem("leaky")
	assert.Error(t, err)
}

func TestNonlinearStep(t *testing.T) {
	rng := entropy.NewSource(1)

	t.Run("level 0 collapses to cos(memory)", func(t *testing.T) {
		zero := vecmath.Zero(4)
		next := Nonlinear.Step(zero, zero, 0, Isolated, rng)
		assert.Equal(t, vecmath.Vector{1, 1, 1, 1}, next)
	})

	t.Run("deeper levels blend toward the sine term", func(t *testing.T) {
		prev := vecmath.Vector{1, 1}
		memory := vecmath.Vector{0, 0}
		next := Nonlinear.Step(prev, memory, 1, Isolated, rng)
		want := 0.5*math.Sin(1) + 0.5*math.Cos(0)
		assert.InDelta(t, want, next[0], 1e-12)
		assert.InDelta(t, want, next[1], 1e-12)
	})
}

func TestOscillatorsStep(t *testing.T) {
	rng := entropy.NewSource(1)

	t.Run("single pair at rest stays at rest", func(t *testing.T) {
		next := Oscillators.Step(vecmath.Vector{0, 0}, nil, 0, Isolated, rng)
		assert.Equal(t, vecmath.Vector{0, 0}, next)
	})

	t.Run("restoring force pulls displaced position back", func(t *testing.T) {
		// x=1, v=0: acceleration -spring*x, velocity goes negative.
		next := Oscillators.Step(vecmath.Vector{1, 0}, nil, 0, Isolated, rng)
		assert.Less(t, next[1], 0.0)
		assert.Less(t, next[0], 1.0)
	})

	t.Run("odd trailing component is carried forward", func(t *testing.T) {
		next := Oscillators.Step(vecmath.Vector{0.5, 0.1, 7.0}, nil, 0, Isolated, rng)
		assert.Equal(t, 7.0, next[2])
	})

	t.Run("closed system damps velocity", func(t *testing.T) {
		free := Oscillators.Step(vecmath.Vector{0, 1}, nil, 0, Isolated, rng)
		damped := Oscillators.Step(vecmath.Vector{0, 1}, nil, 0, Closed, rng)
		assert.InDelta(t, free[1]*0.99, damped[1], 1e-12)
	})

	t.Run("noise-free systems are deterministic", func(t *testing.T) {
		state := vecmath.Vector{0.3, -0.2, 0.1, 0.4}
		a := Oscillators.Step(state, nil, 0, Closed, entropy.NewSource(5))
		b := Oscillators.Step(state, nil, 0, Closed, entropy.NewSource(99))
		assert.Equal(t, a, b)
	})

	t.Run("open system perturbs velocity within the noise band", func(t *testing.T) {
		base := Oscillators.Step(vecmath.Vector{0, 1}, nil, 0, Isolated, rng)
		open := Oscillators.Step(vecmath.Vector{0, 1}, nil, 0, Open, entropy.NewSource(5))
		// Damped update plus bounded noise.
		assert.InDelta(t, base[1]*0.95, open[1], 0.02)
	})
}

func TestIsingStep(t *testing.T) {
	rng := entropy.NewSource(1)

	t.Run("aligned spins relax to tanh(1)", func(t *testing.T) {
		next := Ising.Step(vecmath.Vector{1, 1}, nil, 0, Isolated, rng)
		assert.InDelta(t, math.Tanh(1), next[0], 1e-6)
		assert.InDelta(t, math.Tanh(1), next[1], 1e-6)
	})

	t.Run("magnetization decays toward the fixed point at zero", func(t *testing.T) {
		state := vecmath.Vector{1, 1}
		prev := vecmath.Mean(state)
		for i := 0; i < 20; i++ {
			state = Ising.Step(state, nil, 0, Isolated, rng)
			m := vecmath.Mean(state)
			assert.Less(t, m, prev)
			assert.Greater(t, m, 0.0)
			prev = m
		}
	})

	t.Run("zero magnetization is a fixed point", func(t *testing.T) {
		next := Ising.Step(vecmath.Vector{0.5, -0.5}, nil, 0, Isolated, rng)
		assert.Equal(t, vecmath.Vector{0, 0}, next)
	})
}

func TestOscillatorEnergy(t *testing.T) {
	assert.Equal(t, 0.0, OscillatorEnergy(vecmath.Zero(6)))
	assert.Equal(t, 0.5*(9+16), OscillatorEnergy(vecmath.Vector{3, 4}))

	// Non-negative over evolved states.
	rng := entropy.NewSource(3)
	state := rng.Vector(8)
	for i := 0; i < 200; i++ {
		state = Oscillators.Step(state, nil, 0, Open, rng)
		assert.GreaterOrEqual(t, OscillatorEnergy(state), 0.0)
	}
}

func TestIsingEnergy(t *testing.T) {
	// m = 1, dim = 2: -0.5 * 1.0 * 2 * 1 = -1.
	assert.Equal(t, -1.0, IsingEnergy(vecmath.Vector{1, 1}))
	assert.Equal(t, 0.0, IsingEnergy(vecmath.Vector{1, -1}))
}

func TestDeterministic(t *testing.T) {
	assert.True(t, Nonlinear.Deterministic(Open))
	assert.True(t, Oscillators.Deterministic(Closed))
	assert.True(t, Ising.Deterministic(Isolated))
	assert.False(t, Oscillators.Deterministic(Open))
	assert.False(t, Ising.Deterministic(Open))
}
