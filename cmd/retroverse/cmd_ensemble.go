package main

import (
	"fmt"

	"github.com/dustin/go-humanize"
	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/talgya/retroverse/internal/config"
	"github.com/talgya/retroverse/internal/dynamics"
	"github.com/talgya/retroverse/internal/ensemble"
	"github.com/talgya/retroverse/internal/entropy"
	"github.com/talgya/retroverse/internal/persistence"
)

func newEnsembleCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "ensemble",
		Short: "Run a multiverse ensemble and aggregate its statistics",
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := loadScenario(cmd)
			if err != nil {
				return err
			}

			stats, err := performEnsemble(s)
			if err != nil {
				return err
			}

			if dbPath, _ := cmd.Flags().GetString("db"); dbPath != "" {
				if err := saveEnsemble(dbPath, s, stats); err != nil {
					return fmt.Errorf("save ensemble: %w", err)
				}
			}

			fmt.Printf("Ensemble of %s universes: mean delta %.6f, mean infinite norm %.6f, variance %.6f\n",
				humanize.Comma(int64(stats.Count)), stats.MeanDeltaNorm,
				stats.MeanInfiniteNorm, stats.VarInfiniteNorm)
			return nil
		},
	}
	addScenarioFlags(cmd)
	return cmd
}

// performEnsemble translates a scenario into ensemble parameters and runs it.
func performEnsemble(s config.Scenario) (ensemble.Stats, error) {
	model, err := dynamics.ParseModel(s.Model)
	if err != nil {
		return ensemble.Stats{}, err
	}
	system, err := dynamics.ParseSystem(s.System)
	if err != nil {
		return ensemble.Stats{}, err
	}

	return ensemble.Run(ensemble.Params{
		Dim:      s.Dim,
		Model:    model,
		System:   system,
		Steps:    s.Steps,
		MaxLevel: s.MaxLevels,
		TPast:    s.TPast,
		TFuture:  s.TFuture,
		Strength: s.Strength,
		Count:    s.Count,
		Workers:  s.Workers,
	}, entropy.NewSource(s.Seed))
}

// saveEnsemble persists an ensemble record.
func saveEnsemble(dbPath string, s config.Scenario, stats ensemble.Stats) error {
	db, err := persistence.Open(dbPath)
	if err != nil {
		return err
	}
	defer db.Close()

	return db.SaveEnsemble(persistence.EnsembleRecord{
		ID:               uuid.NewString(),
		Scenario:         s.Name,
		Dim:              s.Dim,
		Model:            s.Model,
		System:           s.System,
		Steps:            s.Steps,
		MaxLevels:        s.MaxLevels,
		TPast:            s.TPast,
		TFuture:          s.TFuture,
		Strength:         s.Strength,
		Count:            stats.Count,
		MeanDeltaNorm:    stats.MeanDeltaNorm,
		MeanInfiniteNorm: stats.MeanInfiniteNorm,
		VarInfiniteNorm:  stats.VarInfiniteNorm,
	})
}
