package storage

import (
	"context"

	"evowalk/internal/model"
)

// Store persists brains, run checkpoints, and per-run history.
type Store interface {
	Init(ctx context.Context) error

	SaveBrain(ctx context.Context, brain model.BrainRecord) error
	GetBrain(ctx context.Context, id string) (model.BrainRecord, bool, error)

	// The generation winner is kept per run so any generation can be
	// exported or reloaded later.
	SaveBestBrain(ctx context.Context, runID string, generation int, brain model.BrainRecord) error
	GetBestBrain(ctx context.Context, runID string, generation int) (model.BrainRecord, bool, error)
	ListBestGenerations(ctx context.Context, runID string) ([]int, error)

	SaveCheckpoint(ctx context.Context, checkpoint model.Checkpoint) error
	GetCheckpoint(ctx context.Context, runID string) (model.Checkpoint, bool, error)

	SaveFitnessHistory(ctx context.Context, runID string, history []float64) error
	GetFitnessHistory(ctx context.Context, runID string) ([]float64, bool, error)

	SaveDiagnostics(ctx context.Context, runID string, diagnostics []model.GenerationDiagnostics) error
	GetDiagnostics(ctx context.Context, runID string) ([]model.GenerationDiagnostics, bool, error)

	SaveRun(ctx context.Context, run model.RunRecord) error
	GetRun(ctx context.Context, id string) (model.RunRecord, bool, error)
	ListRuns(ctx context.Context) ([]model.RunRecord, error)
}

// Resetter is implemented by stores that can wipe all persisted state.
type Resetter interface {
	Reset(ctx context.Context) error
}
