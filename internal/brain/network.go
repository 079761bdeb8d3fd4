package brain

import (
	"fmt"
	"math"
	"math/rand"

	"evowalk/internal/model"
)

const (
	ActivationReLU = "relu"
	ActivationTanh = "tanh"
)

// Layer is one dense layer: out = activation(W*in + b).
type Layer struct {
	Activation string
	Weights    [][]float64
	Biases     []float64
}

// Network is the walker controller: input -> hidden (relu) -> hidden (relu)
// -> output (tanh).
type Network struct {
	InputSize  int
	HiddenSize int
	OutputSize int
	Layers     []Layer
}

// New creates an unrandomized network of the standard shape. Call Randomize
// before first use unless the weights come from a record.
func New(inputSize, hiddenSize, outputSize int) (*Network, error) {
	if inputSize <= 0 || hiddenSize <= 0 || outputSize <= 0 {
		return nil, fmt.Errorf("invalid network shape: %dx%dx%d", inputSize, hiddenSize, outputSize)
	}
	return &Network{
		InputSize:  inputSize,
		HiddenSize: hiddenSize,
		OutputSize: outputSize,
		Layers: []Layer{
			newLayer(inputSize, hiddenSize, ActivationReLU),
			newLayer(hiddenSize, hiddenSize, ActivationReLU),
			newLayer(hiddenSize, outputSize, ActivationTanh),
		},
	}, nil
}

func newLayer(in, out int, activation string) Layer {
	weights := make([][]float64, out)
	for i := range weights {
		weights[i] = make([]float64, in)
	}
	return Layer{
		Activation: activation,
		Weights:    weights,
		Biases:     make([]float64, out),
	}
}

// Randomize initializes all parameters uniformly in [-k, k] with
// k = 1/sqrt(fanIn).
func (n *Network) Randomize(rng *rand.Rand) {
	for li := range n.Layers {
		layer := &n.Layers[li]
		fanIn := len(layer.Weights[0])
		k := 1 / math.Sqrt(float64(fanIn))
		for i := range layer.Weights {
			for j := range layer.Weights[i] {
				layer.Weights[i][j] = (rng.Float64()*2 - 1) * k
			}
			layer.Biases[i] = (rng.Float64()*2 - 1) * k
		}
	}
}

// Forward runs one inference pass.
func (n *Network) Forward(inputs []float64) ([]float64, error) {
	if len(inputs) != n.InputSize {
		return nil, fmt.Errorf("input size mismatch: got=%d want=%d", len(inputs), n.InputSize)
	}

	current := inputs
	for li := range n.Layers {
		layer := &n.Layers[li]
		next := make([]float64, len(layer.Weights))
		for i, row := range layer.Weights {
			total := layer.Biases[i]
			for j, w := range row {
				total += w * current[j]
			}
			next[i] = activate(layer.Activation, total)
		}
		current = next
	}
	return current, nil
}

func activate(name string, x float64) float64 {
	switch name {
	case ActivationReLU:
		if x < 0 {
			return 0
		}
		return x
	case ActivationTanh:
		return math.Tanh(x)
	default:
		return x
	}
}

// Mutate perturbs each parameter independently: with probability rate the
// parameter gains gaussian noise scaled by scale.
func (n *Network) Mutate(rng *rand.Rand, rate, scale float64) {
	if rate <= 0 {
		return
	}
	for li := range n.Layers {
		layer := &n.Layers[li]
		for i := range layer.Weights {
			for j := range layer.Weights[i] {
				if rng.Float64() < rate {
					layer.Weights[i][j] += rng.NormFloat64() * scale
				}
			}
			if rng.Float64() < rate {
				layer.Biases[i] += rng.NormFloat64() * scale
			}
		}
	}
}

// Clone returns a deep copy sharing no storage with the receiver.
func (n *Network) Clone() *Network {
	out := &Network{
		InputSize:  n.InputSize,
		HiddenSize: n.HiddenSize,
		OutputSize: n.OutputSize,
		Layers:     make([]Layer, len(n.Layers)),
	}
	for li, layer := range n.Layers {
		cloned := Layer{
			Activation: layer.Activation,
			Weights:    make([][]float64, len(layer.Weights)),
			Biases:     append([]float64(nil), layer.Biases...),
		}
		for i, row := range layer.Weights {
			cloned.Weights[i] = append([]float64(nil), row...)
		}
		out.Layers[li] = cloned
	}
	return out
}

// ToRecord converts the network into its persistent form.
func (n *Network) ToRecord(id string, generation int, learningRate, fitness float64, schemaVersion, codecVersion int) model.BrainRecord {
	record := model.BrainRecord{
		VersionedRecord: model.VersionedRecord{
			SchemaVersion: schemaVersion,
			CodecVersion:  codecVersion,
		},
		ID:           id,
		Generation:   generation,
		InputSize:    n.InputSize,
		HiddenSize:   n.HiddenSize,
		OutputSize:   n.OutputSize,
		LearningRate: learningRate,
		Fitness:      fitness,
		Layers:       make([]model.LayerRecord, 0, len(n.Layers)),
	}
	clone := n.Clone()
	for _, layer := range clone.Layers {
		record.Layers = append(record.Layers, model.LayerRecord{
			Activation: layer.Activation,
			Weights:    layer.Weights,
			Biases:     layer.Biases,
		})
	}
	return record
}

// FromRecord reconstructs a network from its persistent form.
func FromRecord(record model.BrainRecord) (*Network, error) {
	if len(record.Layers) == 0 {
		return nil, fmt.Errorf("brain record %s has no layers", record.ID)
	}
	n := &Network{
		InputSize:  record.InputSize,
		HiddenSize: record.HiddenSize,
		OutputSize: record.OutputSize,
		Layers:     make([]Layer, 0, len(record.Layers)),
	}
	expectIn := record.InputSize
	for li, layer := range record.Layers {
		if len(layer.Weights) == 0 {
			return nil, fmt.Errorf("brain record %s layer %d is empty", record.ID, li)
		}
		for i, row := range layer.Weights {
			if len(row) != expectIn {
				return nil, fmt.Errorf("brain record %s layer %d row %d: width=%d want=%d", record.ID, li, i, len(row), expectIn)
			}
		}
		if len(layer.Biases) != len(layer.Weights) {
			return nil, fmt.Errorf("brain record %s layer %d: biases=%d rows=%d", record.ID, li, len(layer.Biases), len(layer.Weights))
		}
		copied := Layer{
			Activation: layer.Activation,
			Weights:    make([][]float64, len(layer.Weights)),
			Biases:     append([]float64(nil), layer.Biases...),
		}
		for i, row := range layer.Weights {
			copied.Weights[i] = append([]float64(nil), row...)
		}
		n.Layers = append(n.Layers, copied)
		expectIn = len(layer.Weights)
	}
	if expectIn != record.OutputSize {
		return nil, fmt.Errorf("brain record %s: final width=%d want=%d", record.ID, expectIn, record.OutputSize)
	}
	return n, nil
}
