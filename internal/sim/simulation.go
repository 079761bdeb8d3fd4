package sim

import (
	"context"
	"fmt"
	"math/rand"
	"sort"
	"sync"
	"time"

	"evowalk/internal/brain"
	"evowalk/internal/config"
	"evowalk/internal/evo"
	"evowalk/internal/model"
	"evowalk/internal/phys"
	"evowalk/internal/storage"
	"evowalk/internal/walker"
)

// State is the lifecycle phase of the interactive loop.
type State string

const (
	StateIdle    State = "idle"
	StateRunning State = "running"
	StatePaused  State = "paused"
)

// Simulation is the real-time surface a front end drives: one shared space,
// a batch of walkers, and start/pause/resume/stop/load controls. Rendering
// and input stay outside; Snapshot exposes everything a renderer needs.
type Simulation struct {
	mu sync.Mutex

	settings config.Settings
	store    storage.Store
	runID    string
	rng      *rand.Rand
	mutation evo.MaskedGaussianMutation

	space   *phys.Space
	walkers []*walker.Walker

	state       State
	generation  int
	tick        int
	ticksPerGen int
	bestWalker  int // index of last generation's winner, -1 before the first rollover
}

// WalkerSnapshot is the render-ready view of one walker.
type WalkerSnapshot struct {
	ID      int
	Fitness float64
	Best    bool
	Parts   []walker.PartState
}

// Snapshot is a consistent copy of the visible simulation state.
type Snapshot struct {
	State      State
	Generation int
	TimeLeft   float64
	Walkers    []WalkerSnapshot
}

// New builds an idle simulation with a randomized batch. The store may be
// nil; best brains then stay in memory only.
func New(settings config.Settings, store storage.Store, runID string) (*Simulation, error) {
	if err := settings.Validate(); err != nil {
		return nil, err
	}
	if runID == "" {
		runID = "interactive"
	}

	s := &Simulation{
		settings: settings,
		store:    store,
		runID:    runID,
		rng:      rand.New(rand.NewSource(settings.Simulation.Seed)),
		mutation: evo.MaskedGaussianMutation{
			Rate:  settings.Evolution.MutationRate,
			Scale: settings.Evolution.MutationScale,
		},
		state:       StateIdle,
		generation:  1,
		ticksPerGen: int(settings.Simulation.IterationTime * float64(settings.Simulation.TickRate)),
		bestWalker:  -1,
	}
	if err := s.spawnRandomBatch(); err != nil {
		return nil, err
	}
	return s, nil
}

func (s *Simulation) spawnRandomBatch() error {
	s.space = walker.NewSpace(s.settings.Physics)
	s.walkers = s.walkers[:0]
	for i := 0; i < s.settings.Simulation.BatchSize; i++ {
		net, err := brain.New(walker.InputSize(), s.settings.Network.HiddenSize, walker.OutputSize())
		if err != nil {
			return err
		}
		net.Randomize(s.rng)
		w, err := walker.New(s.space, s.settings.Physics, net, i)
		if err != nil {
			return err
		}
		s.walkers = append(s.walkers, w)
	}
	s.tick = 0
	s.bestWalker = -1
	return nil
}

// Start begins or restarts stepping. Starting a paused simulation resumes it.
func (s *Simulation) Start() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.state = StateRunning
}

// Pause freezes the loop; simulated time stops accumulating.
func (s *Simulation) Pause() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state == StateRunning {
		s.state = StatePaused
	}
}

// Resume continues a paused simulation.
func (s *Simulation) Resume() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state == StatePaused {
		s.state = StateRunning
	}
}

// Stop halts the loop and replaces the batch with fresh random walkers. The
// generation counter is kept so a later run continues the numbering.
func (s *Simulation) Stop() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.state = StateIdle
	return s.spawnRandomBatch()
}

// LoadBrain reseeds the whole batch from a saved brain and resets the
// generation clock. The simulation is left idle; Start continues the run.
func (s *Simulation) LoadBrain(record model.BrainRecord) error {
	parent, err := brain.FromRecord(record)
	if err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	for _, w := range s.walkers {
		if err := w.SetBrain(parent.Clone()); err != nil {
			return err
		}
		w.Reset()
	}
	if record.Generation > 0 {
		s.generation = record.Generation
	}
	s.state = StateIdle
	s.tick = 0
	s.bestWalker = -1
	return nil
}

// Run drives the loop in real time until the context ends.
func (s *Simulation) Run(ctx context.Context) error {
	dt := time.Second / time.Duration(s.settings.Simulation.TickRate)
	ticker := time.NewTicker(dt)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			if err := s.Tick(ctx); err != nil {
				return err
			}
		}
	}
}

// Tick advances one fixed timestep if the simulation is running. It is the
// unit the real-time loop schedules and what headless tests call directly.
func (s *Simulation) Tick(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.state != StateRunning {
		return nil
	}

	for _, w := range s.walkers {
		if err := w.Step(ctx); err != nil {
			return err
		}
	}
	s.space.Step(1.0 / float64(s.settings.Simulation.TickRate))
	s.tick++

	if s.tick >= s.ticksPerGen {
		return s.rollover(ctx)
	}
	return nil
}

// rollover ends the generation: rank, persist the best brain, reseed the
// batch from it, and restart the clock. Caller holds the lock.
func (s *Simulation) rollover(ctx context.Context) error {
	order := make([]int, len(s.walkers))
	for i := range order {
		order[i] = i
	}
	sort.SliceStable(order, func(i, j int) bool {
		return s.walkers[order[i]].Fitness() > s.walkers[order[j]].Fitness()
	})
	best := s.walkers[order[0]]

	record := best.Brain().ToRecord(
		fmt.Sprintf("%s-gen%d", s.runID, s.generation),
		s.generation,
		s.settings.Network.LearningRate,
		best.Fitness(),
		storage.CurrentSchemaVersion,
		storage.CurrentCodecVersion,
	)
	if s.store != nil {
		if err := s.store.SaveBestBrain(ctx, s.runID, s.generation, record); err != nil {
			return fmt.Errorf("save generation %d best brain: %w", s.generation, err)
		}
	}

	s.generation++

	parent := best.Brain()
	elites := s.settings.Evolution.EliteCount
	if elites > len(s.walkers) {
		elites = len(s.walkers)
	}
	for i, w := range s.walkers {
		var net *brain.Network
		if i < elites {
			net = parent.Clone()
		} else {
			child, err := s.mutation.Apply(s.rng, parent)
			if err != nil {
				return err
			}
			net = child
		}
		if err := w.SetBrain(net); err != nil {
			return err
		}
		w.Reset()
	}
	if elites > 0 {
		// The unmutated clone carries the previous winner forward.
		s.bestWalker = 0
	} else {
		s.bestWalker = -1
	}
	s.tick = 0
	return nil
}

// Snapshot copies out everything a renderer needs to draw one frame.
func (s *Simulation) Snapshot() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()

	snap := Snapshot{
		State:      s.state,
		Generation: s.generation,
		TimeLeft:   float64(s.ticksPerGen-s.tick) / float64(s.settings.Simulation.TickRate),
		Walkers:    make([]WalkerSnapshot, 0, len(s.walkers)),
	}
	for i, w := range s.walkers {
		snap.Walkers = append(snap.Walkers, WalkerSnapshot{
			ID:      w.ID(),
			Fitness: w.Fitness(),
			Best:    i == s.bestWalker,
			Parts:   w.Parts(),
		})
	}
	return snap
}

// Generation returns the current generation number.
func (s *Simulation) Generation() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.generation
}

// State returns the current lifecycle phase.
func (s *Simulation) CurrentState() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}
