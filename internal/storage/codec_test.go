package storage

import (
	"errors"
	"testing"

	"evowalk/internal/model"
)

func TestBrainCodecRoundTrip(t *testing.T) {
	input := testBrainRecord("b1", 4)
	data, err := EncodeBrain(input)
	if err != nil {
		t.Fatalf("encode: %v", err)
	}
	output, err := DecodeBrain(data)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if output.ID != input.ID || output.Generation != input.Generation {
		t.Fatalf("round trip changed record: %+v", output)
	}
	if len(output.Layers) != 1 || output.Layers[0].Weights[0][1] != 0.2 {
		t.Fatalf("round trip changed layers: %+v", output.Layers)
	}
}

func TestDecodeBrainRejectsVersionMismatch(t *testing.T) {
	input := testBrainRecord("b1", 4)
	input.SchemaVersion = CurrentSchemaVersion + 1
	data, err := EncodeBrain(input)
	if err != nil {
		t.Fatalf("encode: %v", err)
	}
	if _, err := DecodeBrain(data); !errors.Is(err, ErrVersionMismatch) {
		t.Fatalf("expected version mismatch, got %v", err)
	}
}

func TestCheckpointCodecRoundTrip(t *testing.T) {
	input := model.Checkpoint{
		VersionedRecord: CurrentVersions(),
		RunID:           "run-1",
		Generation:      9,
		Brains:          []model.BrainRecord{testBrainRecord("b1", 9)},
	}
	data, err := EncodeCheckpoint(input)
	if err != nil {
		t.Fatalf("encode: %v", err)
	}
	output, err := DecodeCheckpoint(data)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if output.RunID != "run-1" || output.Generation != 9 || len(output.Brains) != 1 {
		t.Fatalf("round trip changed checkpoint: %+v", output)
	}

	stale := input
	stale.CodecVersion = CurrentCodecVersion + 1
	data, err = EncodeCheckpoint(stale)
	if err != nil {
		t.Fatalf("encode stale: %v", err)
	}
	if _, err := DecodeCheckpoint(data); !errors.Is(err, ErrVersionMismatch) {
		t.Fatalf("expected version mismatch, got %v", err)
	}
}

func TestDecodeBrainRejectsGarbage(t *testing.T) {
	if _, err := DecodeBrain([]byte("not json")); err == nil {
		t.Fatal("expected decode error")
	}
}
