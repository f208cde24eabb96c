// Package config provides scenario configuration loading from YAML files,
// with defaults suitable for quick experiments. Flag overrides are applied
// by the CLI layer after loading.
package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/talgya/retroverse/internal/dynamics"
)

// Scenario holds one complete parameter set for a run or an ensemble.
type Scenario struct {
	// Name labels the scenario in logs and run records.
	Name string `yaml:"name"`

	// Dim is the state vector dimension. At least 2.
	Dim int `yaml:"dim"`

	// Model selects the update rule: "nonlinear", "oscillators", or "ising".
	Model string `yaml:"model"`

	// System selects the coupling: "isolated", "open", or "closed".
	System string `yaml:"system"`

	// Steps is the number of time steps to record, including the seed state.
	Steps int `yaml:"steps"`

	// MaxLevels is the number of levels evolved per step (level 0 included).
	MaxLevels int `yaml:"max_levels"`

	// TPast and TFuture are the retrocausal perturbation indices, with
	// TFuture > TPast, both within [0, Steps-1].
	TPast   int `yaml:"t_past"`
	TFuture int `yaml:"t_future"`

	// Strength scales the retrocausal delta. Non-negative.
	Strength float64 `yaml:"strength"`

	// ObserverLevel is the level the observer binds to, in [0, MaxLevels-1].
	ObserverLevel int `yaml:"observer_level"`

	// Count is the ensemble size when multiverse mode is active.
	Count int `yaml:"count"`

	// Workers bounds ensemble parallelism. 0 means one worker per CPU.
	Workers int `yaml:"workers"`

	// Seed makes noise-free runs reproducible. 0 picks a random seed.
	Seed int64 `yaml:"seed"`

	// SeedMode selects seed vector generation: "uniform" (independent
	// samples) or "smooth" (simplex-noise correlated components).
	SeedMode string `yaml:"seed_mode"`
}

// Default returns a reasonable starting scenario.
func Default() Scenario {
	return Scenario{
		Name:          "default",
		Dim:           16,
		Model:         "nonlinear",
		System:        "isolated",
		Steps:         50,
		MaxLevels:     4,
		TPast:         10,
		TFuture:       40,
		Strength:      0.5,
		ObserverLevel: 1,
		Count:         32,
		SeedMode:      "uniform",
	}
}

// Load reads a scenario from a YAML file, layered over the defaults.
func Load(path string) (Scenario, error) {
	s := Default()

	data, err := os.ReadFile(path)
	if err != nil {
		return s, fmt.Errorf("read scenario: %w", err)
	}
	if err := yaml.Unmarshal(data, &s); err != nil {
		return s, fmt.Errorf("parse scenario %q: %w", path, err)
	}
	return s, nil
}

// Validate checks the cross-field constraints the core expects its caller to
// enforce. Returns the first violation found.
func (s Scenario) Validate() error {
	if s.Dim < 2 {
		return fmt.Errorf("dim must be at least 2, got %d", s.Dim)
	}
	if _, err := dynamics.ParseModel(s.Model); err != nil {
		return err
	}
	if _, err := dynamics.ParseSystem(s.System); err != nil {
		return err
	}
	if s.Steps < 1 {
		return fmt.Errorf("steps must be at least 1, got %d", s.Steps)
	}
	if s.MaxLevels < 1 {
		return fmt.Errorf("max_levels must be at least 1, got %d", s.MaxLevels)
	}
	if s.TPast < 0 || s.TPast > s.Steps-1 {
		return fmt.Errorf("t_past %d outside [0, %d]", s.TPast, s.Steps-1)
	}
	if s.TFuture < 0 || s.TFuture > s.Steps-1 {
		return fmt.Errorf("t_future %d outside [0, %d]", s.TFuture, s.Steps-1)
	}
	if s.TFuture <= s.TPast {
		return fmt.Errorf("t_future %d must be greater than t_past %d", s.TFuture, s.TPast)
	}
	if s.Strength < 0 {
		return fmt.Errorf("strength must be non-negative, got %g", s.Strength)
	}
	if s.ObserverLevel < 0 || s.ObserverLevel > s.MaxLevels-1 {
		return fmt.Errorf("observer_level %d outside [0, %d]", s.ObserverLevel, s.MaxLevels-1)
	}
	if s.Count < 1 {
		return fmt.Errorf("count must be at least 1, got %d", s.Count)
	}
	if s.SeedMode != "uniform" && s.SeedMode != "smooth" {
		return fmt.Errorf("unknown seed_mode %q", s.SeedMode)
	}
	return nil
}
