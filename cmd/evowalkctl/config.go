package main

import (
	"flag"
	"math/rand"

	"evowalk/internal/config"
)

func loadSettings(path string) (config.Settings, error) {
	if path == "" {
		return config.Default(), nil
	}
	return config.Load(path)
}

// overrides carries CLI flags that take precedence over the settings file.
// Zero values (or -1 for rates) mean "keep the configured value"; the seed
// needs an explicit set marker because zero is a valid seed.
type overrides struct {
	population    int
	seed          int64
	seedSet       bool
	workers       int
	hiddenSize    int
	mutationRate  float64
	mutationScale float64
	eliteCount    int
	selector      string
}

func applyOverrides(settings *config.Settings, o overrides) {
	if o.population > 0 {
		settings.Simulation.BatchSize = o.population
	}
	if o.seedSet {
		settings.Simulation.Seed = o.seed
	}
	if o.workers > 0 {
		settings.Simulation.Workers = o.workers
	}
	if o.hiddenSize > 0 {
		settings.Network.HiddenSize = o.hiddenSize
	}
	if o.mutationRate >= 0 {
		settings.Evolution.MutationRate = o.mutationRate
	}
	if o.mutationScale >= 0 {
		settings.Evolution.MutationScale = o.mutationScale
	}
	if o.eliteCount >= 0 {
		settings.Evolution.EliteCount = o.eliteCount
	}
	if o.selector != "" {
		settings.Evolution.Selector = o.selector
	}
}

func flagWasSet(fs *flag.FlagSet, name string) bool {
	set := false
	fs.Visit(func(f *flag.Flag) {
		if f.Name == name {
			set = true
		}
	})
	return set
}

func newSettingsRNG(settings config.Settings) *rand.Rand {
	return rand.New(rand.NewSource(settings.Simulation.Seed))
}
