package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestDefaultSettingsValidate(t *testing.T) {
	if err := Default().Validate(); err != nil {
		t.Fatalf("default settings invalid: %v", err)
	}
}

func TestLoadOverridesDefaults(t *testing.T) {
	content := `[simulation]
tick_rate = 30
iteration_time = 15
batch_size = 8
seed = 42

[network]
hidden_size = 16

[evolution]
mutation_rate = 0.1
selector = tournament
tournament_size = 5

[physics]
gravity = 900
`
	path := filepath.Join(t.TempDir(), "settings.ini")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write settings: %v", err)
	}

	settings, err := Load(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if settings.Simulation.TickRate != 30 {
		t.Fatalf("tick_rate: got=%d want=30", settings.Simulation.TickRate)
	}
	if settings.Simulation.BatchSize != 8 {
		t.Fatalf("batch_size: got=%d want=8", settings.Simulation.BatchSize)
	}
	if settings.Simulation.Seed != 42 {
		t.Fatalf("seed: got=%d want=42", settings.Simulation.Seed)
	}
	if settings.Network.HiddenSize != 16 {
		t.Fatalf("hidden_size: got=%d want=16", settings.Network.HiddenSize)
	}
	if settings.Evolution.Selector != "tournament" || settings.Evolution.TournamentSize != 5 {
		t.Fatalf("selector: got=%s/%d", settings.Evolution.Selector, settings.Evolution.TournamentSize)
	}
	if settings.Physics.Gravity != 900 {
		t.Fatalf("gravity: got=%v want=900", settings.Physics.Gravity)
	}
	// Untouched keys keep their stock values.
	if settings.Evolution.MutationScale != Default().Evolution.MutationScale {
		t.Fatalf("mutation_scale should keep default, got=%v", settings.Evolution.MutationScale)
	}
}

func TestLoadMissingFile(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "missing.ini")); err == nil {
		t.Fatal("expected error for missing settings file")
	}
}

func TestValidateRejectsBadValues(t *testing.T) {
	cases := []struct {
		name   string
		mutate func(*Settings)
	}{
		{"zero tick rate", func(s *Settings) { s.Simulation.TickRate = 0 }},
		{"zero iteration time", func(s *Settings) { s.Simulation.IterationTime = 0 }},
		{"zero batch", func(s *Settings) { s.Simulation.BatchSize = 0 }},
		{"negative workers", func(s *Settings) { s.Simulation.Workers = -1 }},
		{"zero hidden", func(s *Settings) { s.Network.HiddenSize = 0 }},
		{"rate above one", func(s *Settings) { s.Evolution.MutationRate = 1.5 }},
		{"negative scale", func(s *Settings) { s.Evolution.MutationScale = -0.1 }},
		{"elite above batch", func(s *Settings) { s.Evolution.EliteCount = s.Simulation.BatchSize + 1 }},
		{"unknown selector", func(s *Settings) { s.Evolution.Selector = "roulette" }},
		{"zero tournament", func(s *Settings) { s.Evolution.Selector = "tournament"; s.Evolution.TournamentSize = 0 }},
		{"zero motor velocity", func(s *Settings) { s.Physics.MaxMotorVelocity = 0 }},
		{"zero torque", func(s *Settings) { s.Physics.MaxTorque = 0 }},
		{"zero world", func(s *Settings) { s.Physics.WorldWidth = 0 }},
	}
	for _, tc := range cases {
		settings := Default()
		tc.mutate(&settings)
		if err := settings.Validate(); err == nil {
			t.Fatalf("%s: expected validation error", tc.name)
		}
	}
}

func TestGroundY(t *testing.T) {
	p := PhysicsConfig{WorldHeight: 600, GroundClearance: 50}
	if got := p.GroundY(); got != 550 {
		t.Fatalf("ground y: got=%v want=550", got)
	}
}
