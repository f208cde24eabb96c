// Command retroverse runs layered retrocausal universe simulations: single
// runs, multiverse ensembles, and a read-only HTTP results server.
package main

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/talgya/retroverse/internal/config"
)

var version = "0.1.0-dev"

func main() {
	rootCmd := &cobra.Command{
		Use:   "retroverse",
		Short: "Layered retrocausal universe simulator",
		Long: `retroverse advances a vector-valued universe state through simulated time
under one of three dynamical models, while stacking derived levels that each
reinterpret the level below as their own history. A retrocausal operator can
inject a future-derived delta into a past state, and multiverse mode runs
many independent universes and aggregates their statistics.`,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			levelName, _ := cmd.Flags().GetString("log-level")
			level := slog.LevelInfo
			if levelName == "debug" {
				level = slog.LevelDebug
			}
			logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
				Level: level,
			}))
			slog.SetDefault(logger)
		},
	}

	rootCmd.PersistentFlags().String("scenario", "", "Path to a YAML scenario file")
	rootCmd.PersistentFlags().String("db", "", "SQLite path for saving run results (empty = no save)")
	rootCmd.PersistentFlags().String("log-level", "info", "Log level: info or debug")

	rootCmd.AddCommand(
		newRunCmd(),
		newEnsembleCmd(),
		newServeCmd(),
		newVersionCmd(),
	)

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// addScenarioFlags registers the per-parameter overrides shared by the run,
// ensemble, and serve commands.
func addScenarioFlags(cmd *cobra.Command) {
	d := config.Default()
	cmd.Flags().Int("dim", d.Dim, "State vector dimension")
	cmd.Flags().String("model", d.Model, "Dynamics model: nonlinear, oscillators, ising")
	cmd.Flags().String("system", d.System, "System coupling: isolated, open, closed")
	cmd.Flags().Int("steps", d.Steps, "Number of time steps, seed state included")
	cmd.Flags().Int("levels", d.MaxLevels, "Levels evolved per step")
	cmd.Flags().Int("t-past", d.TPast, "Retrocausal perturbation target index")
	cmd.Flags().Int("t-future", d.TFuture, "Retrocausal perturbation source index")
	cmd.Flags().Float64("strength", d.Strength, "Retrocausal perturbation strength")
	cmd.Flags().Int("obs-level", d.ObserverLevel, "Observer level binding")
	cmd.Flags().Int("count", d.Count, "Ensemble member count")
	cmd.Flags().Int("workers", d.Workers, "Ensemble worker goroutines (0 = NumCPU)")
	cmd.Flags().Int64("seed", d.Seed, "Random seed (0 = pick one)")
	cmd.Flags().String("seed-mode", d.SeedMode, "Seed vector mode: uniform or smooth")
}

// loadScenario builds the effective scenario: defaults, then the YAML file if
// given, then any explicitly set flags on top.
func loadScenario(cmd *cobra.Command) (config.Scenario, error) {
	s := config.Default()

	if path, _ := cmd.Flags().GetString("scenario"); path != "" {
		loaded, err := config.Load(path)
		if err != nil {
			return s, err
		}
		s = loaded
	}

	if cmd.Flags().Changed("dim") {
		s.Dim, _ = cmd.Flags().GetInt("dim")
	}
	if cmd.Flags().Changed("model") {
		s.Model, _ = cmd.Flags().GetString("model")
	}
	if cmd.Flags().Changed("system") {
		s.System, _ = cmd.Flags().GetString("system")
	}
	if cmd.Flags().Changed("steps") {
		s.Steps, _ = cmd.Flags().GetInt("steps")
	}
	if cmd.Flags().Changed("levels") {
		s.MaxLevels, _ = cmd.Flags().GetInt("levels")
	}
	if cmd.Flags().Changed("t-past") {
		s.TPast, _ = cmd.Flags().GetInt("t-past")
	}
	if cmd.Flags().Changed("t-future") {
		s.TFuture, _ = cmd.Flags().GetInt("t-future")
	}
	if cmd.Flags().Changed("strength") {
		s.Strength, _ = cmd.Flags().GetFloat64("strength")
	}
	if cmd.Flags().Changed("obs-level") {
		s.ObserverLevel, _ = cmd.Flags().GetInt("obs-level")
	}
	if cmd.Flags().Changed("count") {
		s.Count, _ = cmd.Flags().GetInt("count")
	}
	if cmd.Flags().Changed("workers") {
		s.Workers, _ = cmd.Flags().GetInt("workers")
	}
	if cmd.Flags().Changed("seed") {
		s.Seed, _ = cmd.Flags().GetInt64("seed")
	}
	if cmd.Flags().Changed("seed-mode") {
		s.SeedMode, _ = cmd.Flags().GetString("seed-mode")
	}

	if err := s.Validate(); err != nil {
		return s, fmt.Errorf("invalid scenario: %w", err)
	}
	return s, nil
}
