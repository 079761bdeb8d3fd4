package model

// VersionedRecord captures schema and codec evolution for persistent data.
type VersionedRecord struct {
	SchemaVersion int `json:"schema_version"`
	CodecVersion  int `json:"codec_version"`
}

// BrainRecord is the persistent form of a walker's neural controller.
type BrainRecord struct {
	VersionedRecord
	ID           string        `json:"id"`
	Generation   int           `json:"generation"`
	InputSize    int           `json:"input_size"`
	HiddenSize   int           `json:"hidden_size"`
	OutputSize   int           `json:"output_size"`
	LearningRate float64       `json:"learning_rate"`
	Fitness      float64       `json:"fitness"`
	Layers       []LayerRecord `json:"layers"`
}

type LayerRecord struct {
	Activation string      `json:"activation"`
	Weights    [][]float64 `json:"weights"`
	Biases     []float64   `json:"biases"`
}

// RunRecord describes one evolution run.
type RunRecord struct {
	VersionedRecord
	ID          string `json:"id"`
	Seed        int64  `json:"seed"`
	Population  int    `json:"population"`
	Generations int    `json:"generations"`
}

// Checkpoint is a full population snapshot used to resume a run.
type Checkpoint struct {
	VersionedRecord
	RunID      string        `json:"run_id"`
	Generation int           `json:"generation"`
	Brains     []BrainRecord `json:"brains"`
}

type GenerationDiagnostics struct {
	Generation  int     `json:"generation"`
	BestFitness float64 `json:"best_fitness"`
	MeanFitness float64 `json:"mean_fitness"`
	MinFitness  float64 `json:"min_fitness"`
	BestBrainID string  `json:"best_brain_id"`
}
