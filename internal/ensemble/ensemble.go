// Package ensemble runs many independent, identically parameterized
// universes (multiverse mode) and aggregates summary statistics of their
// outcomes. Members never share state, so they fan out across a worker pool;
// aggregation is order-independent so the parallel and sequential paths
// report identical statistics.
package ensemble

import (
	"errors"
	"fmt"
	"log/slog"
	"runtime"
	"sync"

	"github.com/talgya/retroverse/internal/dynamics"
	"github.com/talgya/retroverse/internal/entropy"
	"github.com/talgya/retroverse/internal/universe"
	"github.com/talgya/retroverse/internal/vecmath"
)

// ErrBadCount rejects ensembles with fewer than one member rather than
// silently reporting degenerate statistics.
var ErrBadCount = errors.New("ensemble count must be at least 1")

// Params describes one ensemble run. Every member shares these values and
// differs only in its random seed vector.
type Params struct {
	Dim      int
	Model    dynamics.Model
	System   dynamics.System
	Steps    int
	MaxLevel int
	TPast    int     // perturbation target (t0)
	TFuture  int     // perturbation source (t1)
	Strength float64 // retrocausal perturbation scale
	Count    int     // number of independent universes
	Workers  int     // 0 = NumCPU
}

// Stats holds the aggregated outcome of an ensemble run.
type Stats struct {
	Count            int     `json:"count"`
	MeanDeltaNorm    float64 `json:"mean_delta_norm"`
	MeanInfiniteNorm float64 `json:"mean_infinite_norm"`
	VarInfiniteNorm  float64 `json:"var_infinite_norm"`
}

// memberResult is one universe's contribution to the aggregates.
type memberResult struct {
	deltaNorm    float64
	infiniteNorm float64
	err          error
}

// Run executes the ensemble. src seeds the member generators: each member
// derives its own child seed, so members are independent but the whole
// ensemble is reproducible from one seed for noise-free model/system pairs.
func Run(p Params, src *entropy.Source) (Stats, error) {
	if p.Count < 1 {
		return Stats{}, fmt.Errorf("%w: got %d", ErrBadCount, p.Count)
	}
	if src == nil {
		src = entropy.NewSource(0)
	}

	workers := p.Workers
	if workers <= 0 {
		workers = runtime.NumCPU()
	}
	if workers > p.Count {
		workers = p.Count
	}

	// Child seeds are drawn up front on one goroutine so the fan-out never
	// contends on the parent source.
	seeds := make([]int64, p.Count)
	for i := range seeds {
		seeds[i] = src.Int63()
	}

	jobs := make(chan int)
	results := make(chan memberResult, p.Count)

	var wg sync.WaitGroup
	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := range jobs {
				results <- runMember(p, seeds[i])
			}
		}()
	}

	go func() {
		for i := 0; i < p.Count; i++ {
			jobs <- i
		}
		close(jobs)
		wg.Wait()
		close(results)
	}()

	// Order-independent reduction: sums only.
	var sumDelta, sumInf, sumInfSq float64
	collected := 0
	for r := range results {
		if r.err != nil {
			return Stats{}, r.err
		}
		sumDelta += r.deltaNorm
		sumInf += r.infiniteNorm
		sumInfSq += r.infiniteNorm * r.infiniteNorm
		collected++
	}

	n := float64(collected)
	meanInf := sumInf / n
	variance := sumInfSq/n - meanInf*meanInf
	if variance < 0 {
		// Floating-point underflow can leave E[X^2] - E[X]^2 a hair negative.
		variance = 0
	}

	stats := Stats{
		Count:            collected,
		MeanDeltaNorm:    sumDelta / n,
		MeanInfiniteNorm: meanInf,
		VarInfiniteNorm:  variance,
	}

	slog.Info("ensemble complete",
		"count", stats.Count,
		"workers", workers,
		"mean_delta_norm", stats.MeanDeltaNorm,
		"mean_infinite_norm", stats.MeanInfiniteNorm,
		"var_infinite_norm", stats.VarInfiniteNorm,
	)
	return stats, nil
}

// runMember builds, evolves, and perturbs one universe, then measures it.
func runMember(p Params, seed int64) memberResult {
	src := entropy.NewSource(seed)

	u, err := universe.New(p.Dim, p.Model, p.System, nil, src)
	if err != nil {
		return memberResult{err: err}
	}
	if err := u.Run(p.Steps, p.MaxLevel); err != nil {
		return memberResult{err: err}
	}

	before, err := u.State(p.TPast, 0)
	if err != nil {
		return memberResult{err: err}
	}
	beforeNorm := vecmath.Norm(before)

	u.RetroInfluence(p.TFuture, p.TPast, p.Strength)

	after, err := u.State(p.TPast, 0)
	if err != nil {
		return memberResult{err: err}
	}

	inf, err := u.InfiniteState(p.TPast)
	if err != nil {
		return memberResult{err: err}
	}

	return memberResult{
		deltaNorm:    vecmath.Norm(after) - beforeNorm,
		infiniteNorm: vecmath.Norm(inf),
	}
}
