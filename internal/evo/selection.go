package evo

import (
	"fmt"
	"math/rand"
)

// Selector chooses parents from ranked brains for replication. Ranked slices
// are ordered best-first.
type Selector interface {
	Name() string
	PickParent(rng *rand.Rand, ranked []ScoredBrain, eliteCount int) (ScoredBrain, error)
}

// EliteSelector picks uniformly from the top elite set. With an elite count
// of one every child descends from the single best walker.
type EliteSelector struct{}

func (EliteSelector) Name() string {
	return "elite"
}

func (EliteSelector) PickParent(rng *rand.Rand, ranked []ScoredBrain, eliteCount int) (ScoredBrain, error) {
	if rng == nil {
		return ScoredBrain{}, fmt.Errorf("random source is required")
	}
	if eliteCount <= 0 || eliteCount > len(ranked) {
		return ScoredBrain{}, fmt.Errorf("invalid elite count: %d", eliteCount)
	}
	return ranked[rng.Intn(eliteCount)], nil
}

// TournamentSelector samples candidates from the whole population and keeps
// the fittest.
type TournamentSelector struct {
	TournamentSize int
}

func (TournamentSelector) Name() string {
	return "tournament"
}

func (s TournamentSelector) PickParent(rng *rand.Rand, ranked []ScoredBrain, eliteCount int) (ScoredBrain, error) {
	if rng == nil {
		return ScoredBrain{}, fmt.Errorf("random source is required")
	}
	if len(ranked) == 0 {
		return ScoredBrain{}, fmt.Errorf("empty population")
	}

	size := s.TournamentSize
	if size <= 0 {
		size = 3
	}
	if size > len(ranked) {
		size = len(ranked)
	}

	best := ranked[rng.Intn(len(ranked))]
	for i := 1; i < size; i++ {
		candidate := ranked[rng.Intn(len(ranked))]
		if candidate.Fitness > best.Fitness {
			best = candidate
		}
	}
	return best, nil
}

// SelectorFromName maps a settings value to a selector.
func SelectorFromName(name string, tournamentSize int) (Selector, error) {
	switch name {
	case "", "elite":
		return EliteSelector{}, nil
	case "tournament":
		return TournamentSelector{TournamentSize: tournamentSize}, nil
	default:
		return nil, fmt.Errorf("unsupported selector: %s", name)
	}
}
