package main

import (
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/talgya/retroverse/internal/api"
	"github.com/talgya/retroverse/internal/ensemble"
)

func newServeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run a scenario, then serve its results over HTTP",
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := loadScenario(cmd)
			if err != nil {
				return err
			}
			port, _ := cmd.Flags().GetInt("port")
			withEnsemble, _ := cmd.Flags().GetBool("ensemble")

			u, summary, err := performRun(s)
			if err != nil {
				return err
			}

			var stats *ensemble.Stats
			if withEnsemble {
				es, err := performEnsemble(s)
				if err != nil {
					return err
				}
				stats = &es
			}

			server := &api.Server{
				Scenario: s,
				Universe: u,
				Summary:  summary,
				Ensemble: stats,
				Port:     port,
			}
			server.Start()

			fmt.Printf("Results for run %s: http://localhost:%d/api/v1/status (Ctrl+C to stop)\n",
				summary.RunID, port)

			sigCh := make(chan os.Signal, 1)
			signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
			sig := <-sigCh
			slog.Info("received signal, shutting down", "signal", sig)
			return nil
		},
	}
	addScenarioFlags(cmd)
	cmd.Flags().Int("port", 8080, "HTTP port for the results API")
	cmd.Flags().Bool("ensemble", false, "Also run the ensemble and serve its statistics")
	return cmd
}
