package storage

import (
	"context"
	"testing"

	"evowalk/internal/model"
)

func newInitializedStore(t *testing.T) *MemoryStore {
	t.Helper()
	store := NewMemoryStore()
	if err := store.Init(context.Background()); err != nil {
		t.Fatalf("init: %v", err)
	}
	return store
}

func testBrainRecord(id string, generation int) model.BrainRecord {
	return model.BrainRecord{
		VersionedRecord: CurrentVersions(),
		ID:              id,
		Generation:      generation,
		InputSize:       30,
		HiddenSize:      4,
		OutputSize:      4,
		Fitness:         12.5,
		Layers: []model.LayerRecord{
			{Activation: "relu", Weights: [][]float64{{0.1, 0.2}}, Biases: []float64{0.3}},
		},
	}
}

func TestMemoryStoreBrainRoundTrip(t *testing.T) {
	ctx := context.Background()
	store := newInitializedStore(t)

	input := testBrainRecord("b1", 3)
	if err := store.SaveBrain(ctx, input); err != nil {
		t.Fatalf("save brain: %v", err)
	}
	output, ok, err := store.GetBrain(ctx, "b1")
	if err != nil {
		t.Fatalf("get brain: %v", err)
	}
	if !ok {
		t.Fatal("expected persisted brain")
	}
	if output.Generation != 3 || output.Fitness != 12.5 {
		t.Fatalf("unexpected brain: %+v", output)
	}

	if err := store.SaveBrain(ctx, model.BrainRecord{}); err == nil {
		t.Fatal("expected error for empty brain id")
	}
}

func TestMemoryStoreBestBrainPerGeneration(t *testing.T) {
	ctx := context.Background()
	store := newInitializedStore(t)

	for _, generation := range []int{3, 1, 2} {
		rec := testBrainRecord("b", generation)
		if err := store.SaveBestBrain(ctx, "run-1", generation, rec); err != nil {
			t.Fatalf("save best: %v", err)
		}
	}

	generations, err := store.ListBestGenerations(ctx, "run-1")
	if err != nil {
		t.Fatalf("list generations: %v", err)
	}
	if len(generations) != 3 || generations[0] != 1 || generations[2] != 3 {
		t.Fatalf("generations not sorted: %v", generations)
	}

	rec, ok, err := store.GetBestBrain(ctx, "run-1", 2)
	if err != nil {
		t.Fatalf("get best: %v", err)
	}
	if !ok || rec.Generation != 2 {
		t.Fatalf("unexpected best brain: ok=%t %+v", ok, rec)
	}

	if _, ok, _ := store.GetBestBrain(ctx, "run-2", 1); ok {
		t.Fatal("unknown run should have no best brain")
	}
}

func TestMemoryStoreCheckpointRoundTrip(t *testing.T) {
	ctx := context.Background()
	store := newInitializedStore(t)

	checkpoint := model.Checkpoint{
		VersionedRecord: CurrentVersions(),
		RunID:           "run-1",
		Generation:      7,
		Brains:          []model.BrainRecord{testBrainRecord("b1", 7), testBrainRecord("b2", 7)},
	}
	if err := store.SaveCheckpoint(ctx, checkpoint); err != nil {
		t.Fatalf("save checkpoint: %v", err)
	}
	output, ok, err := store.GetCheckpoint(ctx, "run-1")
	if err != nil {
		t.Fatalf("get checkpoint: %v", err)
	}
	if !ok || output.Generation != 7 || len(output.Brains) != 2 {
		t.Fatalf("unexpected checkpoint: ok=%t %+v", ok, output)
	}
}

func TestMemoryStoreFitnessHistoryIsCopied(t *testing.T) {
	ctx := context.Background()
	store := newInitializedStore(t)

	input := []float64{1, 2, 3}
	if err := store.SaveFitnessHistory(ctx, "run-1", input); err != nil {
		t.Fatalf("save history: %v", err)
	}
	input[0] = 99

	output, ok, err := store.GetFitnessHistory(ctx, "run-1")
	if err != nil {
		t.Fatalf("get history: %v", err)
	}
	if !ok || output[0] != 1 {
		t.Fatalf("store shares history storage with caller: %+v", output)
	}
	output[1] = 99
	again, _, _ := store.GetFitnessHistory(ctx, "run-1")
	if again[1] != 2 {
		t.Fatalf("returned history shares storage with store: %+v", again)
	}
}

func TestMemoryStoreDiagnosticsRoundTrip(t *testing.T) {
	ctx := context.Background()
	store := newInitializedStore(t)

	input := []model.GenerationDiagnostics{
		{Generation: 1, BestFitness: 5, MeanFitness: 2, MinFitness: -1, BestBrainID: "b1"},
		{Generation: 2, BestFitness: 8, MeanFitness: 3, MinFitness: 0, BestBrainID: "b2"},
	}
	if err := store.SaveDiagnostics(ctx, "run-1", input); err != nil {
		t.Fatalf("save diagnostics: %v", err)
	}
	output, ok, err := store.GetDiagnostics(ctx, "run-1")
	if err != nil {
		t.Fatalf("get diagnostics: %v", err)
	}
	if !ok || len(output) != 2 || output[1].BestBrainID != "b2" {
		t.Fatalf("unexpected diagnostics: %+v", output)
	}
}

func TestMemoryStoreRunsListedSorted(t *testing.T) {
	ctx := context.Background()
	store := newInitializedStore(t)

	for _, id := range []string{"run-c", "run-a", "run-b"} {
		run := model.RunRecord{VersionedRecord: CurrentVersions(), ID: id, Seed: 1, Population: 4, Generations: 2}
		if err := store.SaveRun(ctx, run); err != nil {
			t.Fatalf("save run: %v", err)
		}
	}
	runs, err := store.ListRuns(ctx)
	if err != nil {
		t.Fatalf("list runs: %v", err)
	}
	if len(runs) != 3 || runs[0].ID != "run-a" || runs[2].ID != "run-c" {
		t.Fatalf("runs not sorted: %+v", runs)
	}
}

func TestMemoryStoreReset(t *testing.T) {
	ctx := context.Background()
	store := newInitializedStore(t)

	if err := store.SaveBrain(ctx, testBrainRecord("b1", 1)); err != nil {
		t.Fatalf("save brain: %v", err)
	}
	if err := store.Reset(ctx); err != nil {
		t.Fatalf("reset: %v", err)
	}
	if _, ok, _ := store.GetBrain(ctx, "b1"); ok {
		t.Fatal("reset should drop persisted brains")
	}
}
