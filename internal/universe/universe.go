// Package universe implements the layered time-evolution core: a base
// trajectory of state vectors plus a stack of derived levels, where each
// level's update rule reads the level below it as its own history.
package universe

import (
	"errors"
	"fmt"
	"log/slog"
	"sort"

	"github.com/talgya/retroverse/internal/dynamics"
	"github.com/talgya/retroverse/internal/entropy"
	"github.com/talgya/retroverse/internal/vecmath"
)

var (
	// ErrInvalidDimension rejects construction with dim < 1.
	ErrInvalidDimension = errors.New("dimension must be positive")

	// ErrUncomputedState is returned when a (time, level) pair was never
	// produced by a step. Accessors fail loudly rather than returning a
	// default, so caller bugs surface instead of propagating NaNs.
	ErrUncomputedState = errors.New("state was never computed")

	// ErrStepOrder is returned when Step is called out of order: time t
	// can only be stepped once history reaches exactly length t.
	ErrStepOrder = errors.New("steps must be taken in increasing order")
)

// LivingUniverse owns one base timeline (history, the level-0 trajectory)
// and a sparse table of derived levels keyed by time then level. Level 0 at
// time t is history[t] and is never stored in the table. Entries are written
// once, at the step that produces them; the single exception is the
// retrocausal rewrite of a past history slot.
type LivingUniverse struct {
	dim    int
	model  dynamics.Model
	system dynamics.System

	history []vecmath.Vector
	levels  map[int]map[int]vecmath.Vector

	rng *entropy.Source
}

// New constructs a universe. If seed is nil a uniform random seed vector is
// drawn from src. A non-nil seed must have length dim and is copied, so the
// caller keeps no mutable alias into history.
func New(dim int, model dynamics.Model, system dynamics.System, seed vecmath.Vector, src *entropy.Source) (*LivingUniverse, error) {
	if dim < 1 {
		return nil, fmt.Errorf("%w: got %d", ErrInvalidDimension, dim)
	}
	if seed != nil && len(seed) != dim {
		return nil, fmt.Errorf("seed length %d does not match dimension %d", len(seed), dim)
	}
	if src == nil {
		src = entropy.NewSource(0)
	}

	var initial vecmath.Vector
	if seed != nil {
		initial = vecmath.Clone(seed)
	} else {
		initial = src.Vector(dim)
	}

	return &LivingUniverse{
		dim:     dim,
		model:   model,
		system:  system,
		history: []vecmath.Vector{initial},
		levels:  make(map[int]map[int]vecmath.Vector),
		rng:     src,
	}, nil
}

// Dim returns the fixed state dimension.
func (u *LivingUniverse) Dim() int { return u.dim }

// Model returns the active dynamics model.
func (u *LivingUniverse) Model() dynamics.Model { return u.model }

// System returns the system coupling type.
func (u *LivingUniverse) System() dynamics.System { return u.system }

// Len returns the number of recorded time steps (length of history).
func (u *LivingUniverse) Len() int { return len(u.history) }

// Step advances the universe to time t, computing the level-0 next state and
// then each derived level bottom-up. t must equal the current history length
// (steps are strictly sequential); t == 0 is a no-op since the seed already
// occupies that slot.
func (u *LivingUniverse) Step(t, maxLevel int) error {
	if t == 0 {
		return nil
	}
	if t != len(u.history) {
		return fmt.Errorf("%w: step %d with history length %d", ErrStepOrder, t, len(u.history))
	}

	// Level 0: memory is two steps back in time, or the previous state
	// itself on the very first step.
	prev := u.history[t-1]
	memory := prev
	if t >= 2 {
		memory = u.history[t-2]
	}
	next := u.model.Step(prev, memory, 0, u.system, u.rng)
	u.history = append(u.history, next)

	// Derived levels: level L at time t evolves from level L-1 at time t,
	// with level L-1 at time t-1 as its memory. Each level reads the level
	// below it as its own past.
	for level := 1; level < maxLevel; level++ {
		levelPrev := u.levelState(t, level-1)
		levelMemory := levelPrev
		if t > 1 {
			// Fall back to the same-step level when an earlier step was
			// taken with a shallower maxLevel and never produced it.
			if prior, ok := u.storedLevel(t-1, level-1); ok {
				levelMemory = prior
			}
		}
		derived := u.model.Step(levelPrev, levelMemory, level, u.system, u.rng)
		if u.levels[t] == nil {
			u.levels[t] = make(map[int]vecmath.Vector)
		}
		u.levels[t][level] = derived
	}

	return nil
}

// levelState reads an already-computed state during a step, where the
// bottom-up ordering guarantees existence. Level 0 aliases history.
func (u *LivingUniverse) levelState(t, level int) vecmath.Vector {
	if level == 0 {
		return u.history[t]
	}
	return u.levels[t][level]
}

// storedLevel reports whether (t, level) was ever computed, aliasing history
// for level 0.
func (u *LivingUniverse) storedLevel(t, level int) (vecmath.Vector, bool) {
	if level == 0 {
		if t < len(u.history) {
			return u.history[t], true
		}
		return nil, false
	}
	v, ok := u.levels[t][level]
	return v, ok
}

// Run advances through steps sequentially, leaving history with exactly
// steps entries (the seed plus steps-1 evolved states).
func (u *LivingUniverse) Run(steps, maxLevel int) error {
	for t := 1; t < steps; t++ {
		if err := u.Step(t, maxLevel); err != nil {
			return err
		}
	}
	return nil
}

// State returns the state at (t, level). Level 0 reads history; deeper
// levels read the derived table. Requesting a pair that was never computed
// is an error, never a silent default.
func (u *LivingUniverse) State(t, level int) (vecmath.Vector, error) {
	if t < 0 || level < 0 {
		return nil, fmt.Errorf("%w: t=%d level=%d", ErrUncomputedState, t, level)
	}
	if level == 0 {
		if t >= len(u.history) {
			return nil, fmt.Errorf("%w: t=%d beyond history length %d", ErrUncomputedState, t, len(u.history))
		}
		return u.history[t], nil
	}
	v, ok := u.levels[t][level]
	if !ok {
		return nil, fmt.Errorf("%w: t=%d level=%d", ErrUncomputedState, t, level)
	}
	return v, nil
}

// InfiniteState returns the geometrically weighted sum over all derived
// levels recorded at time t: sum over stored levels L of levels[t][L]/(L+1).
// Level 0 is deliberately excluded — the "infinite" stack ranges only over
// reinterpretations, never the base trajectory itself.
func (u *LivingUniverse) InfiniteState(t int) (vecmath.Vector, error) {
	if t < 0 || t >= len(u.history) {
		return nil, fmt.Errorf("%w: t=%d beyond history length %d", ErrUncomputedState, t, len(u.history))
	}
	// Ascending level order keeps the float sum stable across calls.
	stored := make([]int, 0, len(u.levels[t]))
	for level := range u.levels[t] {
		stored = append(stored, level)
	}
	sort.Ints(stored)

	acc := vecmath.Zero(u.dim)
	for _, level := range stored {
		vecmath.AddInPlace(acc, vecmath.Scale(u.levels[t][level], 1.0/float64(level+1)))
	}
	return acc, nil
}

// RetroInfluence perturbs the past: delta = (state(tFuture) - history[tPast])
// * strength, added onto history[tPast] in place. Indices beyond the current
// history are a silent no-op, returning nil. The derived levels table is
// never recomputed — levels at tPast go intentionally stale. Returns the
// applied delta for reporting.
func (u *LivingUniverse) RetroInfluence(tFuture, tPast int, strength float64) vecmath.Vector {
	if tFuture < 0 || tPast < 0 || tFuture >= len(u.history) || tPast >= len(u.history) {
		return nil
	}

	delta := vecmath.Scale(vecmath.Sub(u.history[tFuture], u.history[tPast]), strength)
	u.history[tPast] = vecmath.Add(u.history[tPast], delta)

	slog.Debug("retrocausal influence applied",
		"t_future", tFuture,
		"t_past", tPast,
		"strength", strength,
		"delta_norm", vecmath.Norm(delta),
	)
	return delta
}

// HistoryNorms returns the Euclidean norm of every recorded base state, in
// time order, for plotting and reporting.
func (u *LivingUniverse) HistoryNorms() []float64 {
	norms := make([]float64, len(u.history))
	for t, state := range u.history {
		norms[t] = vecmath.Norm(state)
	}
	return norms
}

// Energy reports the model's diagnostic energy at time t of the base
// trajectory.
func (u *LivingUniverse) Energy(t int) (float64, error) {
	state, err := u.State(t, 0)
	if err != nil {
		return 0, err
	}
	return u.model.Energy(state), nil
}
