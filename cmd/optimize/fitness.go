package main

import (
	"log"
	"math"
	"sync"

	"github.com/pthm-cable/chroma/config"
	"github.com/pthm-cable/chroma/game"
	"github.com/pthm-cable/chroma/telemetry"
)

// FitnessEvaluator runs headless simulations and computes fitness.
type FitnessEvaluator struct {
	params      *ParamVector
	maxTicks    int32
	seeds       []int64
	baseConfig  *config.Config
	statsWindow int

	mu          sync.Mutex
	lastQuality float64 // quality from most recent Evaluate call
}

// NewFitnessEvaluator creates a new evaluator.
func NewFitnessEvaluator(params *ParamVector, maxTicks int32, seeds []int64, baseCfg *config.Config) *FitnessEvaluator {
	return &FitnessEvaluator{
		params:      params,
		maxTicks:    maxTicks,
		seeds:       seeds,
		baseConfig:  baseCfg,
		statsWindow: baseCfg.Telemetry.StatsWindow,
	}
}

// LastQuality returns the quality score from the most recent evaluation.
func (fe *FitnessEvaluator) LastQuality() float64 {
	fe.mu.Lock()
	defer fe.mu.Unlock()
	return fe.lastQuality
}

// Evaluate computes fitness for a parameter vector (lower = better).
// Fitness is the negated quality averaged over all seeds.
func (fe *FitnessEvaluator) Evaluate(x []float64) float64 {
	qualities := make([]float64, len(fe.seeds))
	var wg sync.WaitGroup

	for i, seed := range fe.seeds {
		wg.Add(1)
		go func(idx int, s int64) {
			defer wg.Done()
			windows, err := fe.runSimulation(x, s)
			if err != nil {
				log.Printf("seed %d: %v", s, err)
				return
			}
			qualities[idx] = computeQuality(windows, fe.baseConfig.Segments.Count, fe.baseConfig.Derived.Capacity)
		}(i, seed)
	}
	wg.Wait()

	var total float64
	for _, q := range qualities {
		total += q
	}
	avgQuality := total / float64(len(fe.seeds))
	fitness := -avgQuality

	fe.mu.Lock()
	fe.lastQuality = avgQuality
	fe.mu.Unlock()

	return fitness
}

// runSimulation executes a single headless run and returns every flushed window.
func (fe *FitnessEvaluator) runSimulation(x []float64, seed int64) ([]telemetry.WindowStats, error) {
	cfg := fe.baseConfig.Clone()
	fe.params.ApplyToConfig(cfg, x)

	var windows []telemetry.WindowStats
	g, err := game.NewGameWithOptions(game.Options{
		Seed:           seed,
		Config:         cfg,
		StatsWindow:    fe.statsWindow,
		StepsPerUpdate: 1,
		StatsCallback: func(stats telemetry.WindowStats) {
			windows = append(windows, stats)
		},
	})
	if err != nil {
		return nil, err
	}
	defer g.Unload()

	for g.Tick() < fe.maxTicks {
		g.UpdateHeadless()
		if g.Population() == 0 {
			break
		}
	}
	return windows, nil
}

// Quality component weights.
const (
	qualityWeightSpread    = 0.4
	qualityWeightMatch     = 0.3
	qualityWeightOccupancy = 0.2
	qualityWeightStability = 0.1

	qualityWarmupWindows = 3 // windows excluded from the stability term
)

// computeQuality scores a run in [0, 1] from its window series.
// Spread, match and occupancy come from the final window; stability is
// exp(-cv²) over post-warmup population counts.
func computeQuality(windows []telemetry.WindowStats, segments, capacity int) float64 {
	if len(windows) == 0 {
		return 0
	}
	last := windows[len(windows)-1]
	if last.Population == 0 {
		return 0
	}

	spread := 0.0
	if segments > 0 {
		spread = float64(last.ColonizedSegments) / float64(segments)
	}
	occupancy := 0.0
	if capacity > 0 {
		occupancy = float64(last.Population) / float64(capacity)
	}

	stability := 0.0
	if len(windows) > qualityWarmupWindows+1 {
		counts := make([]float64, 0, len(windows)-qualityWarmupWindows)
		for _, w := range windows[qualityWarmupWindows:] {
			counts = append(counts, float64(w.Population))
		}
		cv := telemetry.CoefficientOfVariation(counts)
		stability = math.Exp(-cv * cv)
	}

	quality := qualityWeightSpread*spread +
		qualityWeightMatch*(1-last.MismatchMean) +
		qualityWeightOccupancy*clamp01(occupancy) +
		qualityWeightStability*stability

	return clamp01(quality)
}

// clamp01 clamps x to [0, 1].
func clamp01(x float64) float64 {
	if x < 0 {
		return 0
	}
	if x > 1 {
		return 1
	}
	return x
}
