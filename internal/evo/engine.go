package evo

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"sort"
	"sync"

	"evowalk/internal/brain"
	"evowalk/internal/config"
	"evowalk/internal/model"
	"evowalk/internal/walker"
)

// Command steers a running engine between generations.
type Command string

const (
	CommandPause    Command = "pause"
	CommandContinue Command = "continue"
	CommandStop     Command = "stop"
)

// ErrStopped is returned when a run ends on a stop command; the result next
// to it still carries the history produced so far.
var ErrStopped = errors.New("run stopped")

type ScoredBrain struct {
	ID      string
	Brain   *brain.Network
	Fitness float64
}

type RunResult struct {
	BestByGeneration []float64
	Diagnostics      []model.GenerationDiagnostics
	FinalPopulation  []ScoredBrain
}

type EngineConfig struct {
	Settings          config.Settings
	Generations       int
	InitialGeneration int
	Selector          Selector
	Mutation          Operator
	Control           <-chan Command
}

// Engine runs headless generational evolution. Each brain is evaluated in a
// private space, which is physically identical to the shared interactive
// world because walker shapes never collide with each other.
type Engine struct {
	cfg EngineConfig
	rng *rand.Rand
}

func NewEngine(cfg EngineConfig) (*Engine, error) {
	if err := cfg.Settings.Validate(); err != nil {
		return nil, err
	}
	if cfg.Generations <= 0 {
		return nil, fmt.Errorf("generations must be > 0, got %d", cfg.Generations)
	}
	if cfg.InitialGeneration < 0 {
		return nil, fmt.Errorf("initial generation must be >= 0, got %d", cfg.InitialGeneration)
	}
	if cfg.Selector == nil {
		cfg.Selector = EliteSelector{}
	}
	if cfg.Mutation == nil {
		cfg.Mutation = MaskedGaussianMutation{
			Rate:  cfg.Settings.Evolution.MutationRate,
			Scale: cfg.Settings.Evolution.MutationScale,
		}
	}

	return &Engine{
		cfg: cfg,
		rng: rand.New(rand.NewSource(cfg.Settings.Simulation.Seed)),
	}, nil
}

// NewPopulation creates a randomized seed population sized to the batch.
func NewPopulation(rng *rand.Rand, settings config.Settings) ([]*brain.Network, error) {
	population := make([]*brain.Network, 0, settings.Simulation.BatchSize)
	for i := 0; i < settings.Simulation.BatchSize; i++ {
		net, err := brain.New(walker.InputSize(), settings.Network.HiddenSize, walker.OutputSize())
		if err != nil {
			return nil, err
		}
		net.Randomize(rng)
		population = append(population, net)
	}
	return population, nil
}

// SeedFromBrain builds a population descending from one saved brain: every
// member is a mutated clone of the parent.
func SeedFromBrain(rng *rand.Rand, parent *brain.Network, settings config.Settings) []*brain.Network {
	op := MaskedGaussianMutation{
		Rate:  settings.Evolution.MutationRate,
		Scale: settings.Evolution.MutationScale,
	}
	population := make([]*brain.Network, 0, settings.Simulation.BatchSize)
	for i := 0; i < settings.Simulation.BatchSize; i++ {
		child, err := op.Apply(rng, parent)
		if err != nil {
			// Apply only fails on invalid parameters, which Validate
			// already rejected.
			child = parent.Clone()
		}
		population = append(population, child)
	}
	return population
}

// Run evolves the population for the configured number of generations.
func (e *Engine) Run(ctx context.Context, initial []*brain.Network) (RunResult, error) {
	batch := e.cfg.Settings.Simulation.BatchSize
	if len(initial) != batch {
		return RunResult{}, fmt.Errorf("initial population mismatch: got=%d want=%d", len(initial), batch)
	}

	population := make([]ScoredBrain, 0, batch)
	for i, net := range initial {
		population = append(population, ScoredBrain{
			ID:    fmt.Sprintf("g%d-i%d", e.cfg.InitialGeneration, i),
			Brain: net,
		})
	}

	result := RunResult{
		BestByGeneration: make([]float64, 0, e.cfg.Generations),
		Diagnostics:      make([]model.GenerationDiagnostics, 0, e.cfg.Generations),
	}

	for gen := 0; gen < e.cfg.Generations; gen++ {
		if err := e.waitForContinue(ctx); err != nil {
			if errors.Is(err, ErrStopped) {
				result.FinalPopulation = population
				return result, ErrStopped
			}
			return RunResult{}, err
		}

		ranked, err := e.evaluatePopulation(ctx, population)
		if err != nil {
			return RunResult{}, err
		}

		generation := e.cfg.InitialGeneration + gen + 1
		result.BestByGeneration = append(result.BestByGeneration, ranked[0].Fitness)
		result.Diagnostics = append(result.Diagnostics, summarizeGeneration(ranked, generation))

		if gen == e.cfg.Generations-1 {
			result.FinalPopulation = ranked
			break
		}
		population, err = e.nextGeneration(ranked, generation)
		if err != nil {
			return RunResult{}, err
		}
	}

	return result, nil
}

func (e *Engine) waitForContinue(ctx context.Context) error {
	if e.cfg.Control == nil {
		return ctx.Err()
	}
	paused := false
	for {
		if !paused {
			select {
			case cmd := <-e.cfg.Control:
				switch cmd {
				case CommandStop:
					return ErrStopped
				case CommandPause:
					paused = true
				}
			case <-ctx.Done():
				return ctx.Err()
			default:
				return nil
			}
			continue
		}

		select {
		case cmd := <-e.cfg.Control:
			switch cmd {
			case CommandStop:
				return ErrStopped
			case CommandContinue:
				paused = false
			}
		case <-ctx.Done():
			return ctx.Err()
		}
	}
}

func (e *Engine) evaluatePopulation(ctx context.Context, population []ScoredBrain) ([]ScoredBrain, error) {
	type job struct {
		idx    int
		scored ScoredBrain
	}
	type outcome struct {
		idx     int
		fitness float64
		err     error
	}

	workers := e.cfg.Settings.Simulation.Workers
	if workers <= 0 {
		workers = 1
	}
	if workers > len(population) {
		workers = len(population)
	}

	jobs := make(chan job)
	outcomes := make(chan outcome, len(population))

	var wg sync.WaitGroup
	wg.Add(workers)
	for w := 0; w < workers; w++ {
		go func() {
			defer wg.Done()
			for j := range jobs {
				fitness, err := e.evaluateBrain(ctx, j.scored.Brain)
				outcomes <- outcome{idx: j.idx, fitness: fitness, err: err}
			}
		}()
	}

	for i := range population {
		jobs <- job{idx: i, scored: population[i]}
	}
	close(jobs)
	wg.Wait()
	close(outcomes)

	ranked := make([]ScoredBrain, len(population))
	for out := range outcomes {
		if out.err != nil {
			return nil, out.err
		}
		ranked[out.idx] = population[out.idx]
		ranked[out.idx].Fitness = out.fitness
	}

	sort.SliceStable(ranked, func(i, j int) bool {
		return ranked[i].Fitness > ranked[j].Fitness
	})
	return ranked, nil
}

// evaluateBrain scores one brain over a full generation budget in a private
// space.
func (e *Engine) evaluateBrain(ctx context.Context, net *brain.Network) (float64, error) {
	settings := e.cfg.Settings
	space := walker.NewSpace(settings.Physics)
	w, err := walker.New(space, settings.Physics, net, 0)
	if err != nil {
		return 0, err
	}

	dt := 1.0 / float64(settings.Simulation.TickRate)
	ticks := int(settings.Simulation.IterationTime * float64(settings.Simulation.TickRate))
	for tick := 0; tick < ticks; tick++ {
		if err := w.Step(ctx); err != nil {
			return 0, err
		}
		space.Step(dt)
	}
	return w.Fitness(), nil
}

func (e *Engine) nextGeneration(ranked []ScoredBrain, generation int) ([]ScoredBrain, error) {
	batch := e.cfg.Settings.Simulation.BatchSize
	next := make([]ScoredBrain, 0, batch)

	eliteCount := e.cfg.Settings.Evolution.EliteCount
	if eliteCount > len(ranked) {
		eliteCount = len(ranked)
	}
	for i := 0; i < eliteCount; i++ {
		next = append(next, ScoredBrain{
			ID:    fmt.Sprintf("g%d-e%d", generation, i),
			Brain: ranked[i].Brain.Clone(),
		})
	}

	selectorElite := eliteCount
	if selectorElite <= 0 {
		selectorElite = 1
	}
	for len(next) < batch {
		parent, err := e.cfg.Selector.PickParent(e.rng, ranked, selectorElite)
		if err != nil {
			return nil, err
		}
		child, err := e.cfg.Mutation.Apply(e.rng, parent.Brain)
		if err != nil {
			return nil, err
		}
		next = append(next, ScoredBrain{
			ID:    fmt.Sprintf("g%d-i%d", generation, len(next)),
			Brain: child,
		})
	}
	return next, nil
}

func summarizeGeneration(ranked []ScoredBrain, generation int) model.GenerationDiagnostics {
	if len(ranked) == 0 {
		return model.GenerationDiagnostics{Generation: generation}
	}
	total := 0.0
	min := ranked[0].Fitness
	for _, item := range ranked {
		total += item.Fitness
		if item.Fitness < min {
			min = item.Fitness
		}
	}
	return model.GenerationDiagnostics{
		Generation:  generation,
		BestFitness: ranked[0].Fitness,
		MeanFitness: total / float64(len(ranked)),
		MinFitness:  min,
		BestBrainID: ranked[0].ID,
	}
}
