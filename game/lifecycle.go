package game

import (
	"fmt"
	"log/slog"

	"github.com/pthm-cable/chroma/config"
	"github.com/pthm-cable/chroma/systems"
	"github.com/pthm-cable/chroma/traits"
)

// spawnInitialPopulation seeds the founders according to population.seeding.
// Founders are added regardless of cell capacity.
func (g *Game) spawnInitialPopulation() error {
	pop := g.cfg.Population
	if pop.Initial < 0 {
		return fmt.Errorf("population.initial: %w: must not be negative, got %d", systems.ErrInvalidConfiguration, pop.Initial)
	}

	var spawn func() (x, y int, v traits.Vector)
	switch pop.Seeding {
	case config.SeedRandom, "":
		spawn = g.randomFounder
	case config.SeedWest:
		spawn = g.westFounder
	default:
		return fmt.Errorf("population.seeding: %w: unknown strategy %q", systems.ErrInvalidConfiguration, pop.Seeding)
	}

	for i := 0; i < pop.Initial; i++ {
		x, y, v := spawn()
		if err := g.env.Add(x, y, v); err != nil {
			return fmt.Errorf("seeding founder %d: %w", i, err)
		}
	}

	slog.Debug("seeded population",
		"strategy", pop.Seeding,
		"founders", pop.Initial,
		"occupied_cells", len(g.env.ActiveCells()),
	)
	return nil
}

// randomFounder places an organism with a colour drawn uniformly from
// [0, 255) per channel at a uniformly random cell.
func (g *Game) randomFounder() (int, int, traits.Vector) {
	x := g.rng.Intn(g.env.Width())
	y := g.rng.Intn(g.env.Height())
	var v traits.Vector
	for i := range v {
		v[i] = g.rng.Float64() * traits.MaxComponent
	}
	return x, y, v
}

// westFounder places an organism carrying the western target colour on a
// random row of the first column.
func (g *Game) westFounder() (int, int, traits.Vector) {
	y := g.rng.Intn(g.env.Height())
	return 0, y, g.env.Target(0, y)
}
