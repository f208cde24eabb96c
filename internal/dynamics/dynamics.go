// Package dynamics implements the per-step update rules a universe can evolve
// under. Each model maps (previous state, memory state, level index, system
// coupling) to a next state; the memory vector is the "one step back in time
// or level" reference a model may use for damping or blending context.
package dynamics

import (
	"fmt"
	"math"

	"github.com/talgya/retroverse/internal/entropy"
	"github.com/talgya/retroverse/internal/vecmath"
)

// Model selects the update rule. The set is closed: construction rejects
// unknown tags instead of silently defaulting.
type Model uint8

const (
	// Nonlinear blends sin(prev) toward cos(memory) with a level-dependent
	// weight, so deeper levels lean harder on their memory term.
	Nonlinear Model = iota
	// Oscillators treats the state as position/velocity pairs on a 1-D
	// spring chain with nearest-neighbor coupling.
	Oscillators
	// Ising treats the state as continuous spins relaxing toward the
	// mean-field magnetization.
	Ising
)

// System modulates damping and noise terms inside a model.
type System uint8

const (
	Isolated System = iota // no damping, no noise
	Open                   // strong damping plus per-step noise
	Closed                 // weak damping, no noise
)

// Oscillator chain constants.
const (
	oscCoupling = 0.1  // nearest-neighbor spring coupling
	oscSpring   = 1.0  // restoring spring constant
	oscDT       = 0.05 // fixed integration timestep
	oscNoise    = 0.02 // open-system velocity noise amplitude
)

// Mean-field Ising constants.
const (
	isingJ     = 1.0  // coupling
	isingH     = 0.0  // external field
	isingBeta  = 1.0  // inverse temperature
	isingNoise = 0.15 // open-system field noise amplitude
)

// ParseModel maps a tag to its Model. Unknown tags are an error.
func ParseModel(tag string) (Model, error) {
	switch tag {
	case "nonlinear":
		return Nonlinear, nil
	case "oscillators":
		return Oscillators, nil
	case "ising":
		return Ising, nil
	default:
		return 0, fmt.Errorf("unknown model %q", tag)
	}
}

// ParseSystem maps a tag to its System. Unknown tags are an error.
func ParseSystem(tag string) (System, error) {
	switch tag {
	case "isolated":
		return Isolated, nil
	case "open":
		return Open, nil
	case "closed":
		return Closed, nil
	default:
		return 0, fmt.Errorf("unknown system %q", tag)
	}
}

// String returns the canonical tag for the model.
func (m Model) String() string {
	switch m {
	case Nonlinear:
		return "nonlinear"
	case Oscillators:
		return "oscillators"
	case Ising:
		return "ising"
	default:
		return fmt.Sprintf("model(%d)", uint8(m))
	}
}

// String returns the canonical tag for the system.
func (s System) String() string {
	switch s {
	case Isolated:
		return "isolated"
	case Open:
		return "open"
	case Closed:
		return "closed"
	default:
		return fmt.Sprintf("system(%d)", uint8(s))
	}
}

// Step computes the next state from prev under this model. memory is the
// trajectory reference one step back (in time or in level); only the
// nonlinear model reads it. level parameterizes the nonlinear blend weight.
// rng feeds the open-system noise branches and is only drawn from when the
// model and system actually inject noise.
func (m Model) Step(prev, memory vecmath.Vector, level int, system System, rng *entropy.Source) vecmath.Vector {
	switch m {
	case Oscillators:
		return stepOscillators(prev, system, rng)
	case Ising:
		return stepIsing(prev, system, rng)
	default:
		return stepNonlinear(prev, memory, level)
	}
}

// stepNonlinear: next = (1-alpha)*sin(prev) + alpha*cos(memory) with
// alpha = 1/(1+level). Level 0 collapses to pure cos(memory); deeper levels
// blend progressively more of their own sine term.
func stepNonlinear(prev, memory vecmath.Vector, level int) vecmath.Vector {
	alpha := 1.0 / float64(1+level)
	return vecmath.Blend(vecmath.Sin(prev), vecmath.Cos(memory), alpha)
}

// stepOscillators integrates a 1-D chain of (position, velocity) pairs with
// nearest-neighbor coupling and reflective boundaries. An odd trailing
// component is carried forward unchanged.
func stepOscillators(prev vecmath.Vector, system System, rng *entropy.Source) vecmath.Vector {
	next := make(vecmath.Vector, len(prev))
	pairs := len(prev) / 2

	damping := 0.0
	switch system {
	case Open:
		damping = 0.05
	case Closed:
		damping = 0.01
	}

	for i := 0; i < pairs; i++ {
		x := prev[2*i]
		v := prev[2*i+1]

		// Reflective boundary: missing neighbors are the pair's own position.
		left := x
		if i > 0 {
			left = prev[2*(i-1)]
		}
		right := x
		if i < pairs-1 {
			right = prev[2*(i+1)]
		}

		accel := -oscSpring*x + oscCoupling*(left-x) + oscCoupling*(right-x)

		vNext := (v + oscDT*accel) * (1 - damping)
		if system == Open {
			vNext += rng.Uniform(-oscNoise, oscNoise)
		}

		next[2*i] = x + oscDT*vNext
		next[2*i+1] = vNext
	}

	if len(prev)%2 == 1 {
		next[len(prev)-1] = prev[len(prev)-1]
	}

	return next
}

// stepIsing relaxes continuous spins toward tanh(beta*(J*m + h)), where m is
// the global mean magnetization. Every component feels the mean field, not
// just its neighbors. Open systems jitter each local field independently.
func stepIsing(prev vecmath.Vector, system System, rng *entropy.Source) vecmath.Vector {
	m := vecmath.Mean(prev)
	next := make(vecmath.Vector, len(prev))
	for i := range prev {
		field := isingJ*m + isingH
		if system == Open {
			field += rng.Uniform(-isingNoise, isingNoise)
		}
		next[i] = math.Tanh(isingBeta * field)
	}
	return next
}

// OscillatorEnergy reports the total energy sum(0.5*(x^2 + v^2)) over the
// position/velocity pairs. Diagnostic only; never feeds back into evolution.
func OscillatorEnergy(state vecmath.Vector) float64 {
	total := 0.0
	pairs := len(state) / 2
	for i := 0; i < pairs; i++ {
		x := state[2*i]
		v := state[2*i+1]
		total += 0.5 * (x*x + v*v)
	}
	return total
}

// IsingEnergy reports the mean-field energy -0.5*J*dim*m^2.
func IsingEnergy(state vecmath.Vector) float64 {
	m := vecmath.Mean(state)
	return -0.5 * isingJ * float64(len(state)) * m * m
}

// Energy dispatches to the model's diagnostic energy. The nonlinear model has
// no physical energy; its norm serves as the reported diagnostic instead.
func (m Model) Energy(state vecmath.Vector) float64 {
	switch m {
	case Oscillators:
		return OscillatorEnergy(state)
	case Ising:
		return IsingEnergy(state)
	default:
		return vecmath.Norm(state)
	}
}

// Deterministic reports whether evolution under this model and system is
// free of per-step noise, i.e. fully reproducible from the seed vector.
func (m Model) Deterministic(system System) bool {
	if m == Nonlinear {
		return true
	}
	return system != Open
}
