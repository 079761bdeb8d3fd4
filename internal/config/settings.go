package config

import (
	"fmt"

	"gopkg.in/ini.v1"
)

// Settings holds every user-adjustable parameter of the simulation.
type Settings struct {
	Simulation SimulationConfig
	Network    NetworkConfig
	Evolution  EvolutionConfig
	Physics    PhysicsConfig
}

// SimulationConfig controls the loop and population scheduling.
type SimulationConfig struct {
	TickRate      int     `ini:"tick_rate"`      // physics/inference steps per simulated second
	IterationTime float64 `ini:"iteration_time"` // seconds of simulated time per generation
	BatchSize     int     `ini:"batch_size"`     // walkers per generation
	Workers       int     `ini:"workers"`        // parallel evaluations in headless runs
	Seed          int64   `ini:"seed"`
}

type NetworkConfig struct {
	HiddenSize   int     `ini:"hidden_size"`
	LearningRate float64 `ini:"learning_rate"`
}

type EvolutionConfig struct {
	MutationRate   float64 `ini:"mutation_rate"`
	MutationScale  float64 `ini:"mutation_scale"`
	EliteCount     int     `ini:"elite_count"`
	Selector       string  `ini:"selector"` // elite | tournament
	TournamentSize int     `ini:"tournament_size"`
}

type PhysicsConfig struct {
	Gravity          float64 `ini:"gravity"`
	MaxTorque        float64 `ini:"max_torque"`
	MaxMotorVelocity float64 `ini:"max_motor_velocity"`
	WorldWidth       float64 `ini:"world_width"`
	WorldHeight      float64 `ini:"world_height"`
	GroundClearance  float64 `ini:"ground_clearance"` // ground sits this far above the world's bottom edge
}

// Default returns the stock settings.
func Default() Settings {
	return Settings{
		Simulation: SimulationConfig{
			TickRate:      60,
			IterationTime: 60,
			BatchSize:     32,
			Workers:       1,
			Seed:          0,
		},
		Network: NetworkConfig{
			HiddenSize:   128,
			LearningRate: 0.001,
		},
		Evolution: EvolutionConfig{
			MutationRate:   0.05,
			MutationScale:  0.5,
			EliteCount:     1,
			Selector:       "elite",
			TournamentSize: 3,
		},
		Physics: PhysicsConfig{
			Gravity:          1000.0,
			MaxTorque:        50000.0,
			MaxMotorVelocity: 10.0,
			WorldWidth:       800,
			WorldHeight:      600,
			GroundClearance:  50,
		},
	}
}

// Load reads settings from an INI file, starting from defaults so missing
// keys keep their stock values.
func Load(path string) (Settings, error) {
	file, err := ini.LoadSources(ini.LoadOptions{
		IgnoreInlineComment:         true,
		UnescapeValueCommentSymbols: true,
	}, path)
	if err != nil {
		return Settings{}, fmt.Errorf("load settings file %q: %w", path, err)
	}

	settings := Default()
	sections := map[string]any{
		"simulation": &settings.Simulation,
		"network":    &settings.Network,
		"evolution":  &settings.Evolution,
		"physics":    &settings.Physics,
	}
	for name, target := range sections {
		section := file.Section(name)
		if err := section.MapTo(target); err != nil {
			return Settings{}, fmt.Errorf("parse [%s] section: %w", name, err)
		}
	}

	if err := settings.Validate(); err != nil {
		return Settings{}, err
	}
	return settings, nil
}

// Validate rejects settings the simulation cannot run with.
func (s Settings) Validate() error {
	if s.Simulation.TickRate <= 0 {
		return fmt.Errorf("tick_rate must be > 0, got %d", s.Simulation.TickRate)
	}
	if s.Simulation.IterationTime <= 0 {
		return fmt.Errorf("iteration_time must be > 0, got %v", s.Simulation.IterationTime)
	}
	if s.Simulation.BatchSize <= 0 {
		return fmt.Errorf("batch_size must be > 0, got %d", s.Simulation.BatchSize)
	}
	if s.Simulation.Workers < 0 {
		return fmt.Errorf("workers must be >= 0, got %d", s.Simulation.Workers)
	}
	if s.Network.HiddenSize <= 0 {
		return fmt.Errorf("hidden_size must be > 0, got %d", s.Network.HiddenSize)
	}
	if s.Evolution.MutationRate < 0 || s.Evolution.MutationRate > 1 {
		return fmt.Errorf("mutation_rate must be in [0, 1], got %v", s.Evolution.MutationRate)
	}
	if s.Evolution.MutationScale < 0 {
		return fmt.Errorf("mutation_scale must be >= 0, got %v", s.Evolution.MutationScale)
	}
	if s.Evolution.EliteCount < 0 || s.Evolution.EliteCount > s.Simulation.BatchSize {
		return fmt.Errorf("elite_count must be in [0, batch_size], got %d", s.Evolution.EliteCount)
	}
	switch s.Evolution.Selector {
	case "elite", "tournament":
	default:
		return fmt.Errorf("unsupported selector: %s", s.Evolution.Selector)
	}
	if s.Evolution.Selector == "tournament" && s.Evolution.TournamentSize <= 0 {
		return fmt.Errorf("tournament_size must be > 0, got %d", s.Evolution.TournamentSize)
	}
	if s.Physics.MaxMotorVelocity <= 0 {
		return fmt.Errorf("max_motor_velocity must be > 0, got %v", s.Physics.MaxMotorVelocity)
	}
	if s.Physics.MaxTorque <= 0 {
		return fmt.Errorf("max_torque must be > 0, got %v", s.Physics.MaxTorque)
	}
	if s.Physics.WorldWidth <= 0 || s.Physics.WorldHeight <= 0 {
		return fmt.Errorf("world dimensions must be > 0, got %vx%v", s.Physics.WorldWidth, s.Physics.WorldHeight)
	}
	return nil
}

// GroundY returns the world-space y coordinate of the ground surface.
func (p PhysicsConfig) GroundY() float64 {
	return p.WorldHeight - p.GroundClearance
}
