package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"os"

	"github.com/dustin/go-humanize"
	"github.com/google/uuid"

	"evowalk/internal/brain"
	"evowalk/internal/config"
	"evowalk/internal/evo"
	"evowalk/internal/model"
	"evowalk/internal/sim"
	"evowalk/internal/storage"
	"evowalk/internal/walker"
)

func main() {
	if err := run(context.Background(), os.Args[1:]); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func run(ctx context.Context, args []string) error {
	if len(args) == 0 {
		return usageError("missing command")
	}

	switch args[0] {
	case "init":
		return runInit(ctx, args[1:])
	case "reset":
		return runReset(ctx, args[1:])
	case "run":
		return runRun(ctx, args[1:])
	case "play":
		return runPlay(ctx, args[1:])
	case "fitness":
		return runFitness(ctx, args[1:])
	case "diagnostics":
		return runDiagnostics(ctx, args[1:])
	case "best":
		return runBest(ctx, args[1:])
	case "runs":
		return runRuns(ctx, args[1:])
	default:
		return usageError(fmt.Sprintf("unknown command: %s", args[0]))
	}
}

func usageError(msg string) error {
	return fmt.Errorf("%s\nusage: evowalkctl <init|reset|run|play|fitness|diagnostics|best|runs> [flags]", msg)
}

func openStore(kind, dbPath string) (storage.Store, func(), error) {
	store, err := storage.NewStore(kind, dbPath)
	if err != nil {
		return nil, nil, err
	}
	return store, func() { _ = storage.CloseIfSupported(store) }, nil
}

func runInit(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("init", flag.ContinueOnError)
	storeKind := fs.String("store", storage.DefaultStoreKind(), "store backend: memory|sqlite")
	dbPath := fs.String("db-path", "evowalk.db", "sqlite database path")
	if err := fs.Parse(args); err != nil {
		return err
	}

	store, closeStore, err := openStore(*storeKind, *dbPath)
	if err != nil {
		return err
	}
	defer closeStore()

	if err := store.Init(ctx); err != nil {
		return err
	}
	fmt.Printf("initialized store=%s\n", *storeKind)
	return nil
}

func runReset(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("reset", flag.ContinueOnError)
	storeKind := fs.String("store", storage.DefaultStoreKind(), "store backend: memory|sqlite")
	dbPath := fs.String("db-path", "evowalk.db", "sqlite database path")
	if err := fs.Parse(args); err != nil {
		return err
	}

	store, closeStore, err := openStore(*storeKind, *dbPath)
	if err != nil {
		return err
	}
	defer closeStore()
	if err := store.Init(ctx); err != nil {
		return err
	}

	resetter, ok := store.(storage.Resetter)
	if !ok {
		return fmt.Errorf("store %s does not support reset", *storeKind)
	}
	if err := resetter.Reset(ctx); err != nil {
		return err
	}
	fmt.Printf("reset store=%s\n", *storeKind)
	return nil
}

func runRun(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("run", flag.ContinueOnError)
	configPath := fs.String("config", "", "settings INI path (defaults used when empty)")
	runID := fs.String("run-id", "", "explicit run id (optional)")
	population := fs.Int("pop", 0, "population size (overrides config)")
	generations := fs.Int("gens", 100, "generation count")
	seed := fs.Int64("seed", 0, "rng seed (overrides config)")
	workers := fs.Int("workers", 0, "worker count (overrides config)")
	hiddenSize := fs.Int("hidden-size", 0, "hidden layer width (overrides config)")
	mutationRate := fs.Float64("mutation-rate", -1, "per-parameter mutation probability (overrides config)")
	mutationScale := fs.Float64("mutation-scale", -1, "mutation noise scale (overrides config)")
	eliteCount := fs.Int("elite", -1, "unmutated survivors per generation (overrides config)")
	selectorName := fs.String("selection", "", "parent selection strategy: elite|tournament (overrides config)")
	resume := fs.Bool("resume", false, "resume from the run's persisted checkpoint")
	loadBrainPath := fs.String("load-brain", "", "seed the population from an exported brain JSON file")
	storeKind := fs.String("store", storage.DefaultStoreKind(), "store backend: memory|sqlite")
	dbPath := fs.String("db-path", "evowalk.db", "sqlite database path")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *resume && *loadBrainPath != "" {
		return errors.New("use either --resume or --load-brain, not both")
	}
	if *resume && *runID == "" {
		return errors.New("--resume requires --run-id")
	}
	if *resume && *population > 0 {
		return errors.New("--pop cannot be combined with --resume; the checkpoint fixes the population size")
	}

	settings, err := loadSettings(*configPath)
	if err != nil {
		return err
	}
	applyOverrides(&settings, overrides{
		population:    *population,
		seed:          *seed,
		seedSet:       flagWasSet(fs, "seed"),
		workers:       *workers,
		hiddenSize:    *hiddenSize,
		mutationRate:  *mutationRate,
		mutationScale: *mutationScale,
		eliteCount:    *eliteCount,
		selector:      *selectorName,
	})
	if err := settings.Validate(); err != nil {
		return err
	}

	store, closeStore, err := openStore(*storeKind, *dbPath)
	if err != nil {
		return err
	}
	defer closeStore()
	if err := store.Init(ctx); err != nil {
		return err
	}

	id := *runID
	if id == "" {
		id = uuid.NewString()
	}

	selector, err := evo.SelectorFromName(settings.Evolution.Selector, settings.Evolution.TournamentSize)
	if err != nil {
		return err
	}

	initialGeneration := 0
	var initial []*brain.Network
	switch {
	case *resume:
		checkpoint, ok, err := store.GetCheckpoint(ctx, id)
		if err != nil {
			return err
		}
		if !ok {
			return fmt.Errorf("no checkpoint for run %s", id)
		}
		initialGeneration = checkpoint.Generation
		settings.Simulation.BatchSize = len(checkpoint.Brains)
		for _, rec := range checkpoint.Brains {
			net, err := brain.FromRecord(rec)
			if err != nil {
				return err
			}
			initial = append(initial, net)
		}
	case *loadBrainPath != "":
		record, err := readBrainFile(*loadBrainPath)
		if err != nil {
			return err
		}
		parent, err := brain.FromRecord(record)
		if err != nil {
			return err
		}
		settings.Network.HiddenSize = record.HiddenSize
		initialGeneration = record.Generation
		seedRNG := newSettingsRNG(settings)
		initial = evo.SeedFromBrain(seedRNG, parent, settings)
	default:
		seedRNG := newSettingsRNG(settings)
		initial, err = evo.NewPopulation(seedRNG, settings)
		if err != nil {
			return err
		}
	}

	engine, err := evo.NewEngine(evo.EngineConfig{
		Settings:          settings,
		Generations:       *generations,
		InitialGeneration: initialGeneration,
		Selector:          selector,
	})
	if err != nil {
		return err
	}

	result, err := engine.Run(ctx, initial)
	if err != nil && !errors.Is(err, evo.ErrStopped) {
		return err
	}
	if len(result.Diagnostics) == 0 {
		return errors.New("run produced no generations")
	}

	if err := persistRun(ctx, store, id, settings, *generations, result, initialGeneration); err != nil {
		return err
	}

	params := parameterCount(settings)
	fmt.Printf("run completed run_id=%s pop=%d gens=%d seed=%d params=%s\n",
		id, settings.Simulation.BatchSize, len(result.Diagnostics), settings.Simulation.Seed, humanize.Comma(int64(params)))
	for _, d := range result.Diagnostics {
		fmt.Printf("generation=%d best=%.6f mean=%.6f min=%.6f brain_id=%s\n",
			d.Generation, d.BestFitness, d.MeanFitness, d.MinFitness, d.BestBrainID)
	}
	fmt.Printf("final_best_fitness=%.6f\n", result.Diagnostics[len(result.Diagnostics)-1].BestFitness)
	return nil
}

func persistRun(ctx context.Context, store storage.Store, id string, settings config.Settings, generations int, result evo.RunResult, initialGeneration int) error {
	versions := storage.CurrentVersions()

	run := model.RunRecord{
		VersionedRecord: versions,
		ID:              id,
		Seed:            settings.Simulation.Seed,
		Population:      settings.Simulation.BatchSize,
		Generations:     initialGeneration + len(result.Diagnostics),
	}
	if err := store.SaveRun(ctx, run); err != nil {
		return err
	}

	history, _, err := store.GetFitnessHistory(ctx, id)
	if err != nil {
		return err
	}
	history = append(history, result.BestByGeneration...)
	if err := store.SaveFitnessHistory(ctx, id, history); err != nil {
		return err
	}

	diagnostics, _, err := store.GetDiagnostics(ctx, id)
	if err != nil {
		return err
	}
	diagnostics = append(diagnostics, result.Diagnostics...)
	if err := store.SaveDiagnostics(ctx, id, diagnostics); err != nil {
		return err
	}

	finalGeneration := initialGeneration + len(result.Diagnostics)
	if len(result.FinalPopulation) > 0 {
		best := result.FinalPopulation[0]
		record := best.Brain.ToRecord(best.ID, finalGeneration, settings.Network.LearningRate, best.Fitness,
			versions.SchemaVersion, versions.CodecVersion)
		if err := store.SaveBestBrain(ctx, id, finalGeneration, record); err != nil {
			return err
		}

		checkpoint := model.Checkpoint{
			VersionedRecord: versions,
			RunID:           id,
			Generation:      finalGeneration,
			Brains:          make([]model.BrainRecord, 0, len(result.FinalPopulation)),
		}
		for _, scored := range result.FinalPopulation {
			checkpoint.Brains = append(checkpoint.Brains, scored.Brain.ToRecord(scored.ID, finalGeneration,
				settings.Network.LearningRate, scored.Fitness, versions.SchemaVersion, versions.CodecVersion))
		}
		if err := store.SaveCheckpoint(ctx, checkpoint); err != nil {
			return err
		}
	}
	return nil
}

func runPlay(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("play", flag.ContinueOnError)
	configPath := fs.String("config", "", "settings INI path (defaults used when empty)")
	runID := fs.String("run-id", "", "explicit run id (optional)")
	generations := fs.Int("gens", 5, "generations to play before exiting")
	loadBrainPath := fs.String("load-brain", "", "seed the batch from an exported brain JSON file")
	storeKind := fs.String("store", storage.DefaultStoreKind(), "store backend: memory|sqlite")
	dbPath := fs.String("db-path", "evowalk.db", "sqlite database path")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *generations <= 0 {
		return errors.New("gens must be > 0")
	}

	settings, err := loadSettings(*configPath)
	if err != nil {
		return err
	}

	store, closeStore, err := openStore(*storeKind, *dbPath)
	if err != nil {
		return err
	}
	defer closeStore()
	if err := store.Init(ctx); err != nil {
		return err
	}

	id := *runID
	if id == "" {
		id = uuid.NewString()
	}

	simulation, err := sim.New(settings, store, id)
	if err != nil {
		return err
	}
	if *loadBrainPath != "" {
		record, err := readBrainFile(*loadBrainPath)
		if err != nil {
			return err
		}
		if err := simulation.LoadBrain(record); err != nil {
			return err
		}
	}

	simulation.Start()
	target := simulation.Generation() + *generations
	for simulation.Generation() < target {
		if err := ctx.Err(); err != nil {
			return err
		}
		if err := simulation.Tick(ctx); err != nil {
			return err
		}
	}

	fmt.Printf("played run_id=%s generations=%d batch=%d\n", id, *generations, settings.Simulation.BatchSize)
	saved, err := store.ListBestGenerations(ctx, id)
	if err != nil {
		return err
	}
	for _, gen := range saved {
		record, ok, err := store.GetBestBrain(ctx, id, gen)
		if err != nil {
			return err
		}
		if !ok {
			continue
		}
		fmt.Printf("generation=%d best_fitness=%.6f brain_id=%s\n", gen, record.Fitness, record.ID)
	}
	return nil
}

func runFitness(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("fitness", flag.ContinueOnError)
	runID := fs.String("run-id", "", "run id")
	limit := fs.Int("limit", 50, "max generations to print (<=0 for all)")
	jsonOut := fs.Bool("json", false, "emit fitness history as JSON")
	storeKind := fs.String("store", storage.DefaultStoreKind(), "store backend: memory|sqlite")
	dbPath := fs.String("db-path", "evowalk.db", "sqlite database path")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *runID == "" {
		return errors.New("fitness requires --run-id")
	}

	store, closeStore, err := openStore(*storeKind, *dbPath)
	if err != nil {
		return err
	}
	defer closeStore()
	if err := store.Init(ctx); err != nil {
		return err
	}

	history, ok, err := store.GetFitnessHistory(ctx, *runID)
	if err != nil {
		return err
	}
	if !ok || len(history) == 0 {
		fmt.Println("no fitness history")
		return nil
	}
	if *limit > 0 && len(history) > *limit {
		history = history[len(history)-*limit:]
	}
	if *jsonOut {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(history)
	}
	for i, best := range history {
		fmt.Printf("generation=%d best_fitness=%.6f\n", i+1, best)
	}
	return nil
}

func runDiagnostics(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("diagnostics", flag.ContinueOnError)
	runID := fs.String("run-id", "", "run id")
	limit := fs.Int("limit", 50, "max generations to print (<=0 for all)")
	jsonOut := fs.Bool("json", false, "emit diagnostics as JSON")
	storeKind := fs.String("store", storage.DefaultStoreKind(), "store backend: memory|sqlite")
	dbPath := fs.String("db-path", "evowalk.db", "sqlite database path")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *runID == "" {
		return errors.New("diagnostics requires --run-id")
	}

	store, closeStore, err := openStore(*storeKind, *dbPath)
	if err != nil {
		return err
	}
	defer closeStore()
	if err := store.Init(ctx); err != nil {
		return err
	}

	diagnostics, ok, err := store.GetDiagnostics(ctx, *runID)
	if err != nil {
		return err
	}
	if !ok || len(diagnostics) == 0 {
		fmt.Println("no diagnostics")
		return nil
	}
	if *limit > 0 && len(diagnostics) > *limit {
		diagnostics = diagnostics[len(diagnostics)-*limit:]
	}
	if *jsonOut {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(diagnostics)
	}
	for _, d := range diagnostics {
		fmt.Printf("generation=%d best=%.6f mean=%.6f min=%.6f brain_id=%s\n",
			d.Generation, d.BestFitness, d.MeanFitness, d.MinFitness, d.BestBrainID)
	}
	return nil
}

func runBest(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("best", flag.ContinueOnError)
	runID := fs.String("run-id", "", "run id")
	generation := fs.Int("gen", 0, "generation to export (0 for the latest saved)")
	outPath := fs.String("out", "", "output file path (stdout when empty)")
	storeKind := fs.String("store", storage.DefaultStoreKind(), "store backend: memory|sqlite")
	dbPath := fs.String("db-path", "evowalk.db", "sqlite database path")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *runID == "" {
		return errors.New("best requires --run-id")
	}

	store, closeStore, err := openStore(*storeKind, *dbPath)
	if err != nil {
		return err
	}
	defer closeStore()
	if err := store.Init(ctx); err != nil {
		return err
	}

	gen := *generation
	if gen == 0 {
		saved, err := store.ListBestGenerations(ctx, *runID)
		if err != nil {
			return err
		}
		if len(saved) == 0 {
			return fmt.Errorf("no saved brains for run %s", *runID)
		}
		gen = saved[len(saved)-1]
	}

	record, ok, err := store.GetBestBrain(ctx, *runID, gen)
	if err != nil {
		return err
	}
	if !ok {
		return fmt.Errorf("no saved brain for run %s generation %d", *runID, gen)
	}

	data, err := storage.EncodeBrain(record)
	if err != nil {
		return err
	}
	if *outPath == "" {
		fmt.Println(string(data))
		return nil
	}
	if err := os.WriteFile(*outPath, data, 0o644); err != nil {
		return err
	}
	fmt.Printf("exported run_id=%s generation=%d fitness=%.6f path=%s\n", *runID, gen, record.Fitness, *outPath)
	return nil
}

func runRuns(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("runs", flag.ContinueOnError)
	limit := fs.Int("limit", 20, "max runs to list")
	jsonOut := fs.Bool("json", false, "emit runs list as JSON")
	storeKind := fs.String("store", storage.DefaultStoreKind(), "store backend: memory|sqlite")
	dbPath := fs.String("db-path", "evowalk.db", "sqlite database path")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *limit <= 0 {
		return errors.New("limit must be > 0")
	}

	store, closeStore, err := openStore(*storeKind, *dbPath)
	if err != nil {
		return err
	}
	defer closeStore()
	if err := store.Init(ctx); err != nil {
		return err
	}

	runs, err := store.ListRuns(ctx)
	if err != nil {
		return err
	}
	if len(runs) == 0 {
		fmt.Println("no runs found")
		return nil
	}
	if len(runs) > *limit {
		runs = runs[:*limit]
	}
	if *jsonOut {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(runs)
	}
	for _, r := range runs {
		fmt.Printf("run_id=%s seed=%d pop=%d gens=%d\n", r.ID, r.Seed, r.Population, r.Generations)
	}
	return nil
}

func readBrainFile(path string) (model.BrainRecord, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return model.BrainRecord{}, fmt.Errorf("read brain file %q: %w", path, err)
	}
	return storage.DecodeBrain(data)
}

// parameterCount is the total weight and bias count of one brain.
func parameterCount(settings config.Settings) int {
	in := walker.InputSize()
	hidden := settings.Network.HiddenSize
	out := walker.OutputSize()
	return (in+1)*hidden + (hidden+1)*hidden + (hidden+1)*out
}
