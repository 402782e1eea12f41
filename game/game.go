// Package game drives the environment headlessly: it builds the engine from
// configuration, seeds founders, steps the simulation and wires telemetry.
package game

import (
	"fmt"
	"math/rand"

	"github.com/pthm-cable/chroma/config"
	"github.com/pthm-cable/chroma/systems"
	"github.com/pthm-cable/chroma/telemetry"
)

// Options configures a Game.
type Options struct {
	Seed           int64
	Config         *config.Config // nil = config.Cfg()
	LogStats       bool
	StatsWindow    int // ticks per stats window (0 = use config)
	OutputDir      string
	StepsPerUpdate int // ticks per UpdateHeadless call (0 = 1)

	// StatsCallback, if set, receives every flushed stats window.
	StatsCallback func(telemetry.WindowStats)
}

// Game holds the complete simulation state.
type Game struct {
	cfg     *config.Config
	env     *systems.Environment
	rng     *rand.Rand
	rngSeed int64

	// State
	tick           int32
	stepsPerUpdate int
	logStats       bool

	// Telemetry
	collector        *telemetry.Collector
	perfCollector    *telemetry.PerfCollector
	bookmarkDetector *telemetry.BookmarkDetector
	outputManager    *telemetry.OutputManager
	statsCallback    func(telemetry.WindowStats)
	lastStats        *telemetry.WindowStats
}

// NewGameWithOptions creates a game from opts and seeds its founders.
func NewGameWithOptions(opts Options) (*Game, error) {
	cfg := opts.Config
	if cfg == nil {
		cfg = config.Cfg()
	}

	params, err := cfg.EnvironmentParams()
	if err != nil {
		return nil, fmt.Errorf("building environment params: %w", err)
	}

	rng := systems.NewRand(opts.Seed)
	env, err := systems.NewEnvironment(params, rng)
	if err != nil {
		return nil, fmt.Errorf("creating environment: %w", err)
	}

	statsWindow := cfg.Telemetry.StatsWindow
	if opts.StatsWindow > 0 {
		statsWindow = opts.StatsWindow
	}
	steps := opts.StepsPerUpdate
	if steps < 1 {
		steps = 1
	}

	g := &Game{
		cfg:              cfg,
		env:              env,
		rng:              rng,
		rngSeed:          opts.Seed,
		stepsPerUpdate:   steps,
		logStats:         opts.LogStats,
		collector:        telemetry.NewCollector(statsWindow),
		perfCollector:    telemetry.NewPerfCollector(cfg.Telemetry.PerfCollectorWindow),
		bookmarkDetector: telemetry.NewBookmarkDetector(cfg.Telemetry.BookmarkHistorySize, cfg.Bookmarks),
		statsCallback:    opts.StatsCallback,
	}
	env.SetPhaseHook(g.perfCollector.StartPhase)

	if err := g.spawnInitialPopulation(); err != nil {
		return nil, err
	}

	om, err := telemetry.NewOutputManager(opts.OutputDir)
	if err != nil {
		return nil, err
	}
	if err := om.WriteConfig(cfg); err != nil {
		om.Close()
		return nil, fmt.Errorf("writing config snapshot: %w", err)
	}
	g.outputManager = om

	return g, nil
}

// UpdateHeadless runs StepsPerUpdate simulation ticks.
func (g *Game) UpdateHeadless() {
	for i := 0; i < g.stepsPerUpdate; i++ {
		g.simulationStep()
	}
}

// simulationStep runs a single tick of the simulation and its telemetry.
func (g *Game) simulationStep() {
	g.perfCollector.StartTick()

	g.env.Step()
	g.collector.Record(g.env.LastStep())
	g.tick++

	g.perfCollector.StartPhase(telemetry.PhaseTelemetry)
	g.flushTelemetry()

	g.perfCollector.EndTick()
}

// Unload releases output files.
func (g *Game) Unload() {
	if err := g.outputManager.Close(); err != nil {
		logError("failed to close output", err)
	}
}

// Tick returns the number of ticks simulated so far.
func (g *Game) Tick() int32 {
	return g.tick
}

// Seed returns the RNG seed the game was created with.
func (g *Game) Seed() int64 {
	return g.rngSeed
}

// Population returns the current number of organisms.
func (g *Game) Population() int {
	return g.env.Population()
}

// Environment exposes the engine for read-only inspection.
func (g *Game) Environment() *systems.Environment {
	return g.env
}

// LastStats returns the most recently flushed window, if any.
func (g *Game) LastStats() (telemetry.WindowStats, bool) {
	if g.lastStats == nil {
		return telemetry.WindowStats{}, false
	}
	return *g.lastStats, true
}

// OutputDir returns the directory run output is written to, or "".
func (g *Game) OutputDir() string {
	return g.outputManager.Dir()
}
