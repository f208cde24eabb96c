package main

import (
	"fmt"
	"log/slog"

	"github.com/dustin/go-humanize"
	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/talgya/retroverse/internal/api"
	"github.com/talgya/retroverse/internal/config"
	"github.com/talgya/retroverse/internal/dynamics"
	"github.com/talgya/retroverse/internal/entropy"
	"github.com/talgya/retroverse/internal/persistence"
	"github.com/talgya/retroverse/internal/universe"
	"github.com/talgya/retroverse/internal/vecmath"
)

func newRunCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "run",
		Short: "Run a single universe and report its outcomes",
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := loadScenario(cmd)
			if err != nil {
				return err
			}

			u, summary, err := performRun(s)
			if err != nil {
				return err
			}

			if dbPath, _ := cmd.Flags().GetString("db"); dbPath != "" {
				if err := saveRun(dbPath, s, summary, u.HistoryNorms()); err != nil {
					return fmt.Errorf("save run: %w", err)
				}
			}

			fmt.Printf("Run %s complete: %s steps, delta %.6f, infinite norm %.6f\n",
				summary.RunID, humanize.Comma(int64(s.Steps)), summary.DeltaNorm, summary.InfiniteNorm)
			return nil
		},
	}
	addScenarioFlags(cmd)
	return cmd
}

// performRun executes one scenario end to end: construct, evolve, perturb,
// and measure. Returns the finished universe alongside its scalar summary.
func performRun(s config.Scenario) (*universe.LivingUniverse, api.RunSummary, error) {
	model, err := dynamics.ParseModel(s.Model)
	if err != nil {
		return nil, api.RunSummary{}, err
	}
	system, err := dynamics.ParseSystem(s.System)
	if err != nil {
		return nil, api.RunSummary{}, err
	}

	src := entropy.NewSource(s.Seed)

	var seed vecmath.Vector
	if s.SeedMode == "smooth" {
		seed = src.SmoothVector(s.Dim)
	}

	u, err := universe.New(s.Dim, model, system, seed, src)
	if err != nil {
		return nil, api.RunSummary{}, err
	}

	slog.Info("universe created",
		"scenario", s.Name,
		"dim", s.Dim,
		"model", model.String(),
		"system", system.String(),
		"seed", src.Seed(),
		"seed_mode", s.SeedMode,
		"deterministic", model.Deterministic(system),
	)

	if err := u.Run(s.Steps, s.MaxLevels); err != nil {
		return nil, api.RunSummary{}, err
	}

	// Measurements around the retrocausal perturbation.
	before, err := u.State(s.TPast, 0)
	if err != nil {
		return nil, api.RunSummary{}, err
	}
	preNorm := vecmath.Norm(before)
	energyBefore, _ := u.Energy(s.TPast)

	u.RetroInfluence(s.TFuture, s.TPast, s.Strength)

	after, err := u.State(s.TPast, 0)
	if err != nil {
		return nil, api.RunSummary{}, err
	}
	postNorm := vecmath.Norm(after)
	energyAfter, _ := u.Energy(s.TPast)

	inf, err := u.InfiniteState(s.TPast)
	if err != nil {
		return nil, api.RunSummary{}, err
	}

	obs, err := universe.NewObserver(u, s.ObserverLevel)
	if err != nil {
		return nil, api.RunSummary{}, err
	}
	perceived, err := obs.Perceive(s.TPast)
	observerNorm := 0.0
	if err == nil {
		observerNorm = vecmath.Norm(perceived)
	} else if s.ObserverLevel > 0 {
		// Level never computed at this t (e.g. steps too short). Surface it.
		return nil, api.RunSummary{}, fmt.Errorf("observer at level %d: %w", s.ObserverLevel, err)
	}

	summary := api.RunSummary{
		RunID:        uuid.NewString(),
		Seed:         src.Seed(),
		PreNorm:      preNorm,
		PostNorm:     postNorm,
		DeltaNorm:    postNorm - preNorm,
		InfiniteNorm: vecmath.Norm(inf),
		ObserverNorm: observerNorm,
		EnergyBefore: energyBefore,
		EnergyAfter:  energyAfter,
	}

	slog.Info("run report",
		"run_id", summary.RunID,
		"steps", s.Steps,
		"levels", s.MaxLevels,
		"pre_norm", fmt.Sprintf("%.6f", summary.PreNorm),
		"post_norm", fmt.Sprintf("%.6f", summary.PostNorm),
		"delta_norm", fmt.Sprintf("%.6f", summary.DeltaNorm),
		"infinite_norm", fmt.Sprintf("%.6f", summary.InfiniteNorm),
		"observer_norm", fmt.Sprintf("%.6f", summary.ObserverNorm),
		"energy_before", fmt.Sprintf("%.6f", summary.EnergyBefore),
		"energy_after", fmt.Sprintf("%.6f", summary.EnergyAfter),
	)

	return u, summary, nil
}

// saveRun persists a run record plus its norm timeline.
func saveRun(dbPath string, s config.Scenario, summary api.RunSummary, timeline []float64) error {
	db, err := persistence.Open(dbPath)
	if err != nil {
		return err
	}
	defer db.Close()

	return db.SaveRun(persistence.RunRecord{
		ID:            summary.RunID,
		Scenario:      s.Name,
		Dim:           s.Dim,
		Model:         s.Model,
		System:        s.System,
		Steps:         s.Steps,
		MaxLevels:     s.MaxLevels,
		TPast:         s.TPast,
		TFuture:       s.TFuture,
		Strength:      s.Strength,
		Seed:          summary.Seed,
		PreNorm:       summary.PreNorm,
		PostNorm:      summary.PostNorm,
		DeltaNorm:     summary.DeltaNorm,
		InfiniteNorm:  summary.InfiniteNorm,
		ObserverLevel: s.ObserverLevel,
		ObserverNorm:  summary.ObserverNorm,
		EnergyBefore:  summary.EnergyBefore,
		EnergyAfter:   summary.EnergyAfter,
	}, timeline)
}
