// Package api provides a read-only HTTP API over a completed run: scenario
// parameters, scalar summary, the per-step norm timeline, and state lookup
// by time and level. GET only; the simulation is never mutated through here.
package api

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/talgya/retroverse/internal/config"
	"github.com/talgya/retroverse/internal/ensemble"
	"github.com/talgya/retroverse/internal/universe"
	"github.com/talgya/retroverse/internal/vecmath"
)

// RunSummary holds the scalar outputs of one run for reporting.
type RunSummary struct {
	RunID        string  `json:"run_id"`
	Seed         int64   `json:"seed"`
	PreNorm      float64 `json:"pre_norm"`
	PostNorm     float64 `json:"post_norm"`
	DeltaNorm    float64 `json:"delta_norm"`
	InfiniteNorm float64 `json:"infinite_norm"`
	ObserverNorm float64 `json:"observer_norm"`
	EnergyBefore float64 `json:"energy_before"`
	EnergyAfter  float64 `json:"energy_after"`
}

// Server serves run results over HTTP. The universe it reads is a completed,
// no-longer-mutated snapshot, so handlers need no locking.
type Server struct {
	Scenario config.Scenario
	Universe *universe.LivingUniverse
	Summary  RunSummary
	Ensemble *ensemble.Stats // nil when the run was not an ensemble
	Port     int
}

// Start begins serving the HTTP API in a goroutine.
func (s *Server) Start() {
	mux := http.NewServeMux()

	mux.HandleFunc("/api/v1/status", s.readOnly(s.handleStatus))
	mux.HandleFunc("/api/v1/timeline", s.readOnly(s.handleTimeline))
	mux.HandleFunc("/api/v1/state", s.readOnly(s.handleState))
	mux.HandleFunc("/api/v1/infinite", s.readOnly(s.handleInfinite))
	mux.HandleFunc("/api/v1/ensemble", s.readOnly(s.handleEnsemble))

	addr := fmt.Sprintf(":%d", s.Port)
	slog.Info("HTTP API starting", "addr", addr)

	go func() {
		if err := http.ListenAndServe(addr, mux); err != nil {
			slog.Error("HTTP server error", "error", err)
		}
	}()
}

// readOnly rejects everything but GET.
func (s *Server) readOnly(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet {
			http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
			return
		}
		next(w, r)
	}
}

func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, map[string]any{
		"scenario":   s.Scenario.Name,
		"dim":        s.Scenario.Dim,
		"model":      s.Scenario.Model,
		"system":     s.Scenario.System,
		"steps":      s.Scenario.Steps,
		"max_levels": s.Scenario.MaxLevels,
		"t_past":     s.Scenario.TPast,
		"t_future":   s.Scenario.TFuture,
		"strength":   s.Scenario.Strength,
		"summary":    s.Summary,
	})
}

func (s *Server) handleTimeline(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, map[string]any{
		"run_id": s.Summary.RunID,
		"norms":  s.Universe.HistoryNorms(),
	})
}

func (s *Server) handleState(w http.ResponseWriter, r *http.Request) {
	t, err := queryInt(r, "t", 0)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	level, err := queryInt(r, "level", 0)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	state, err := s.Universe.State(t, level)
	if err != nil {
		http.Error(w, err.Error(), http.StatusNotFound)
		return
	}

	writeJSON(w, map[string]any{
		"t":     t,
		"level": level,
		"state": state,
		"norm":  vecmath.Norm(state),
	})
}

func (s *Server) handleInfinite(w http.ResponseWriter, r *http.Request) {
	t, err := queryInt(r, "t", 0)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	state, err := s.Universe.InfiniteState(t)
	if err != nil {
		http.Error(w, err.Error(), http.StatusNotFound)
		return
	}

	writeJSON(w, map[string]any{
		"t":     t,
		"state": state,
		"norm":  vecmath.Norm(state),
	})
}

func (s *Server) handleEnsemble(w http.ResponseWriter, r *http.Request) {
	if s.Ensemble == nil {
		http.Error(w, "no ensemble results for this run", http.StatusNotFound)
		return
	}
	writeJSON(w, s.Ensemble)
}

// queryInt parses an integer query parameter, falling back to def when absent.
func queryInt(r *http.Request, key string, def int) (int, error) {
	raw := r.URL.Query().Get(key)
	if raw == "" {
		return def, nil
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return 0, fmt.Errorf("invalid %s %q", key, raw)
	}
	return v, nil
}

func writeJSON(w http.ResponseWriter, data any) {
	w.Header().Set("Content-Type", "application/json")
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	enc.Encode(data)
}
