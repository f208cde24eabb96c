package universe

import (
	"fmt"

	"github.com/talgya/retroverse/internal/vecmath"
)

// Observer is a read-only view of a universe bound to one fixed level. It
// shares the universe, never owns it, and holds no state beyond the binding.
type Observer struct {
	u     *LivingUniverse
	level int
}

// NewObserver binds an observer to a universe at the given level.
func NewObserver(u *LivingUniverse, level int) (*Observer, error) {
	if level < 0 {
		return nil, fmt.Errorf("observer level must be non-negative, got %d", level)
	}
	return &Observer{u: u, level: level}, nil
}

// Level returns the bound level index.
func (o *Observer) Level() int { return o.level }

// Perceive reads the state at time t on the bound level.
func (o *Observer) Perceive(t int) (vecmath.Vector, error) {
	return o.u.State(t, o.level)
}
