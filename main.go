// Command chroma runs the colour-adaptation grid simulation headlessly,
// logging window statistics and writing CSV output.
package main

import (
	"context"
	"flag"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/pthm-cable/chroma/config"
	"github.com/pthm-cable/chroma/game"
)

type runFlags struct {
	configPath       string
	outputDir        string
	logLevel         string
	logStats         bool
	seed             int64
	statsWindow      int
	maxTicks         int
	stepsPerUpdate   int
	stopOnExtinction bool
}

func parseFlags() runFlags {
	var f runFlags
	flag.StringVar(&f.configPath, "config", "", "Path to config.yaml (empty = use defaults)")
	flag.StringVar(&f.outputDir, "output-dir", "", "Output directory for CSV logs and config snapshot")
	flag.StringVar(&f.logLevel, "log-level", "info", "Log level: debug, info, warn, error")
	flag.BoolVar(&f.logStats, "log-stats", false, "Log every stats window, perf summary and bookmark")
	flag.Int64Var(&f.seed, "seed", 0, "RNG seed (0 = time-based)")
	flag.IntVar(&f.statsWindow, "stats-window", 0, "Stats window size in ticks (0 = use config)")
	flag.IntVar(&f.maxTicks, "max-ticks", 0, "Stop after N ticks (0 = until interrupted)")
	flag.IntVar(&f.stepsPerUpdate, "steps-per-update", 1, "Simulation ticks per update call")
	flag.BoolVar(&f.stopOnExtinction, "stop-on-extinction", true, "Stop when the population reaches zero")
	flag.Parse()
	return f
}

func main() {
	f := parseFlags()

	var level slog.Level
	if err := level.UnmarshalText([]byte(f.logLevel)); err != nil {
		level = slog.LevelInfo
	}
	slog.SetDefault(slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: level})))

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, f); err != nil {
		slog.Error("simulation failed", "error", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, f runFlags) error {
	if err := config.Init(f.configPath); err != nil {
		return err
	}

	seed := f.seed
	if seed == 0 {
		seed = time.Now().UnixNano()
	}

	g, err := game.NewGameWithOptions(game.Options{
		Seed:           seed,
		LogStats:       f.logStats,
		StatsWindow:    f.statsWindow,
		OutputDir:      f.outputDir,
		StepsPerUpdate: f.stepsPerUpdate,
	})
	if err != nil {
		return err
	}
	defer g.Unload()

	slog.Info("starting simulation",
		"seed", seed,
		"config", f.configPath,
		"max_ticks", f.maxTicks,
		"output_dir", g.OutputDir(),
		"population", g.Population(),
	)

	for !done(ctx, g, f) {
		g.UpdateHeadless()
	}

	g.LogWorldState()
	return nil
}

// done reports whether the loop should stop, logging the reason.
func done(ctx context.Context, g *game.Game, f runFlags) bool {
	switch {
	case ctx.Err() != nil:
		slog.Info("interrupted", "tick", g.Tick())
	case f.stopOnExtinction && g.Tick() > 0 && g.Population() == 0:
		slog.Info("population extinct", "tick", g.Tick())
	case f.maxTicks > 0 && int(g.Tick()) >= f.maxTicks:
		slog.Info("max ticks reached", "tick", g.Tick())
	default:
		return false
	}
	return true
}
