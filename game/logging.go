package game

import (
	"log/slog"

	"github.com/pthm-cable/chroma/traits"
)

func logError(msg string, err error) {
	slog.Error(msg, "error", err)
}

// WorldState is a point-in-time summary of the grid.
type WorldState struct {
	Tick          int32
	Population    int
	OccupiedCells int
	MaxOccupancy  int
	SegmentCounts []int // organisms per segment, west to east
	MeanColour    traits.Vector
}

// WorldState summarises the current grid.
func (g *Game) WorldState() WorldState {
	ws := WorldState{
		Tick:          g.tick,
		SegmentCounts: make([]int, g.env.SegmentCount()),
	}

	var sum traits.Vector
	for _, c := range g.env.ActiveCells() {
		occupants := g.env.Cell(c.X, c.Y)
		ws.OccupiedCells++
		ws.Population += len(occupants)
		ws.SegmentCounts[g.env.Segment(c.X, c.Y)] += len(occupants)
		if len(occupants) > ws.MaxOccupancy {
			ws.MaxOccupancy = len(occupants)
		}
		for _, v := range occupants {
			for i := range sum {
				sum[i] += v[i]
			}
		}
	}

	if ws.Population > 0 {
		for i := range sum {
			ws.MeanColour[i] = sum[i] / float64(ws.Population)
		}
	}
	return ws
}

// LogValue implements slog.LogValuer for structured logging.
func (ws WorldState) LogValue() slog.Value {
	return slog.GroupValue(
		slog.Int("tick", int(ws.Tick)),
		slog.Int("population", ws.Population),
		slog.Int("occupied_cells", ws.OccupiedCells),
		slog.Int("max_occupancy", ws.MaxOccupancy),
		slog.Any("segment_counts", ws.SegmentCounts),
		slog.String("mean_colour", ws.MeanColour.String()),
	)
}

// LogWorldState logs the current world state.
func (g *Game) LogWorldState() {
	slog.Info("world state", "world", g.WorldState())
}
