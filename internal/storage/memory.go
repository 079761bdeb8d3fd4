package storage

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"evowalk/internal/model"
)

type MemoryStore struct {
	mu          sync.RWMutex
	initialized bool
	brains      map[string]model.BrainRecord
	best        map[string]map[int]model.BrainRecord
	checkpoints map[string]model.Checkpoint
	history     map[string][]float64
	diagnostics map[string][]model.GenerationDiagnostics
	runs        map[string]model.RunRecord
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{}
}

func (s *MemoryStore) Init(_ context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.initialized = true
	s.brains = make(map[string]model.BrainRecord)
	s.best = make(map[string]map[int]model.BrainRecord)
	s.checkpoints = make(map[string]model.Checkpoint)
	s.history = make(map[string][]float64)
	s.diagnostics = make(map[string][]model.GenerationDiagnostics)
	s.runs = make(map[string]model.RunRecord)
	return nil
}

func (s *MemoryStore) Reset(ctx context.Context) error {
	return s.Init(ctx)
}

func (s *MemoryStore) SaveBrain(_ context.Context, brain model.BrainRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if brain.ID == "" {
		return fmt.Errorf("brain id is required")
	}
	s.brains[brain.ID] = brain
	return nil
}

func (s *MemoryStore) GetBrain(_ context.Context, id string) (model.BrainRecord, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	brain, ok := s.brains[id]
	return brain, ok, nil
}

func (s *MemoryStore) SaveBestBrain(_ context.Context, runID string, generation int, brain model.BrainRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if runID == "" {
		return fmt.Errorf("run id is required")
	}
	if s.best[runID] == nil {
		s.best[runID] = make(map[int]model.BrainRecord)
	}
	s.best[runID][generation] = brain
	return nil
}

func (s *MemoryStore) GetBestBrain(_ context.Context, runID string, generation int) (model.BrainRecord, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	brain, ok := s.best[runID][generation]
	return brain, ok, nil
}

func (s *MemoryStore) ListBestGenerations(_ context.Context, runID string) ([]int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	generations := make([]int, 0, len(s.best[runID]))
	for generation := range s.best[runID] {
		generations = append(generations, generation)
	}
	sort.Ints(generations)
	return generations, nil
}

func (s *MemoryStore) SaveCheckpoint(_ context.Context, checkpoint model.Checkpoint) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if checkpoint.RunID == "" {
		return fmt.Errorf("checkpoint run id is required")
	}
	s.checkpoints[checkpoint.RunID] = checkpoint
	return nil
}

func (s *MemoryStore) GetCheckpoint(_ context.Context, runID string) (model.Checkpoint, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	checkpoint, ok := s.checkpoints[runID]
	return checkpoint, ok, nil
}

func (s *MemoryStore) SaveFitnessHistory(_ context.Context, runID string, history []float64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.history[runID] = append([]float64(nil), history...)
	return nil
}

func (s *MemoryStore) GetFitnessHistory(_ context.Context, runID string) ([]float64, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	history, ok := s.history[runID]
	if !ok {
		return nil, false, nil
	}
	return append([]float64(nil), history...), true, nil
}

func (s *MemoryStore) SaveDiagnostics(_ context.Context, runID string, diagnostics []model.GenerationDiagnostics) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.diagnostics[runID] = append([]model.GenerationDiagnostics(nil), diagnostics...)
	return nil
}

func (s *MemoryStore) GetDiagnostics(_ context.Context, runID string) ([]model.GenerationDiagnostics, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	diagnostics, ok := s.diagnostics[runID]
	if !ok {
		return nil, false, nil
	}
	return append([]model.GenerationDiagnostics(nil), diagnostics...), true, nil
}

func (s *MemoryStore) SaveRun(_ context.Context, run model.RunRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if run.ID == "" {
		return fmt.Errorf("run id is required")
	}
	s.runs[run.ID] = run
	return nil
}

func (s *MemoryStore) GetRun(_ context.Context, id string) (model.RunRecord, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	run, ok := s.runs[id]
	return run, ok, nil
}

func (s *MemoryStore) ListRuns(_ context.Context) ([]model.RunRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	ids := make([]string, 0, len(s.runs))
	for id := range s.runs {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	runs := make([]model.RunRecord, 0, len(ids))
	for _, id := range ids {
		runs = append(runs, s.runs[id])
	}
	return runs, nil
}
