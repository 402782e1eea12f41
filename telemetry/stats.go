package telemetry

import (
	"log/slog"
	"math"
	"sort"

	"gonum.org/v1/gonum/stat"

	"github.com/pthm-cable/chroma/systems"
	"github.com/pthm-cable/chroma/traits"
)

// Population is the read-only view of the environment telemetry samples.
type Population interface {
	EachActive(fn func(c systems.Coord, occupants []traits.Vector))
	Target(x, y int) traits.Vector
	Segment(x, y int) int
	SegmentCount() int
}

// WindowStats holds aggregated statistics for a window of ticks.
type WindowStats struct {
	WindowStartTick int32 `csv:"-"`
	WindowEndTick   int32 `csv:"window_end"`

	// Population at window end
	Population    int     `csv:"population"`
	OccupiedCells int     `csv:"occupied_cells"`
	MeanOccupancy float64 `csv:"mean_occupancy"`

	// Events during window
	Births          int `csv:"births"`
	Deaths          int `csv:"deaths"`
	ForcedSurvivors int `csv:"forced_survivors"`
	Attempts        int `csv:"attempts"`
	Unestablished   int `csv:"unestablished"`
	Rejected        int `csv:"rejected"`
	Culled          int `csv:"culled"`

	// Mismatch against the local target (sampled at window end)
	MismatchMean float64 `csv:"mismatch_mean"`
	MismatchP10  float64 `csv:"mismatch_p10"`
	MismatchP50  float64 `csv:"mismatch_p50"`
	MismatchP90  float64 `csv:"mismatch_p90"`

	// Trait distribution per channel
	RedMean   float64 `csv:"red_mean"`
	RedStd    float64 `csv:"red_std"`
	GreenMean float64 `csv:"green_mean"`
	GreenStd  float64 `csv:"green_std"`
	BlueMean  float64 `csv:"blue_mean"`
	BlueStd   float64 `csv:"blue_std"`

	// Spread
	ColonizedSegments int `csv:"colonized_segments"`
	EasternmostColumn int `csv:"easternmost_column"` // -1 when extinct
}

// populationSample is the raw per-organism data behind one WindowStats row.
type populationSample struct {
	population    int
	occupiedCells int
	mismatches    []float64
	channels      [traits.Components][]float64
	segments      []bool
	easternmost   int
}

func samplePopulation(pop Population) populationSample {
	s := populationSample{
		segments:    make([]bool, pop.SegmentCount()),
		easternmost: -1,
	}
	pop.EachActive(func(c systems.Coord, occupants []traits.Vector) {
		s.occupiedCells++
		s.population += len(occupants)
		s.segments[pop.Segment(c.X, c.Y)] = true
		if c.X > s.easternmost {
			s.easternmost = c.X
		}

		target := pop.Target(c.X, c.Y)
		for _, v := range occupants {
			s.mismatches = append(s.mismatches, v.Mismatch(target))
			for i := range s.channels {
				s.channels[i] = append(s.channels[i], v[i])
			}
		}
	})
	return s
}

func (s populationSample) colonized() int {
	n := 0
	for _, ok := range s.segments {
		if ok {
			n++
		}
	}
	return n
}

// ComputeMismatchStats returns the mean and the 10th, 50th and 90th
// empirical percentiles of values. Returns zeros for an empty slice.
func ComputeMismatchStats(values []float64) (mean, p10, p50, p90 float64) {
	if len(values) == 0 {
		return 0, 0, 0, 0
	}

	sorted := make([]float64, len(values))
	copy(sorted, values)
	sort.Float64s(sorted)

	mean = stat.Mean(sorted, nil)
	p10 = stat.Quantile(0.10, stat.Empirical, sorted, nil)
	p50 = stat.Quantile(0.50, stat.Empirical, sorted, nil)
	p90 = stat.Quantile(0.90, stat.Empirical, sorted, nil)
	return mean, p10, p50, p90
}

// ComputeChannelStats returns the mean and population standard deviation of
// values. Returns zeros for an empty slice.
func ComputeChannelStats(values []float64) (mean, std float64) {
	if len(values) == 0 {
		return 0, 0
	}
	return stat.PopMeanStdDev(values, nil)
}

// CoefficientOfVariation returns the sample standard deviation over the mean.
// It is +Inf when the mean is zero and 0 with fewer than two values.
func CoefficientOfVariation(values []float64) float64 {
	if len(values) < 2 {
		return 0
	}
	mean, std := stat.MeanStdDev(values, nil)
	if mean == 0 {
		return math.Inf(1)
	}
	return std / mean
}

// LogValue implements slog.LogValuer for structured logging.
func (s WindowStats) LogValue() slog.Value {
	return slog.GroupValue(
		slog.Int("window_start", int(s.WindowStartTick)),
		slog.Int("window_end", int(s.WindowEndTick)),
		slog.Int("population", s.Population),
		slog.Int("occupied_cells", s.OccupiedCells),
		slog.Float64("mean_occupancy", s.MeanOccupancy),
		slog.Int("births", s.Births),
		slog.Int("deaths", s.Deaths),
		slog.Int("forced_survivors", s.ForcedSurvivors),
		slog.Int("attempts", s.Attempts),
		slog.Int("unestablished", s.Unestablished),
		slog.Int("rejected", s.Rejected),
		slog.Int("culled", s.Culled),
		slog.Float64("mismatch_mean", s.MismatchMean),
		slog.Float64("mismatch_p10", s.MismatchP10),
		slog.Float64("mismatch_p50", s.MismatchP50),
		slog.Float64("mismatch_p90", s.MismatchP90),
		slog.Float64("red_mean", s.RedMean),
		slog.Float64("green_mean", s.GreenMean),
		slog.Float64("blue_mean", s.BlueMean),
		slog.Int("colonized_segments", s.ColonizedSegments),
		slog.Int("easternmost_column", s.EasternmostColumn),
	)
}

// LogStats logs the window stats using slog.
func (s WindowStats) LogStats() {
	slog.Info("stats",
		"window_end", s.WindowEndTick,
		"population", s.Population,
		"occupied_cells", s.OccupiedCells,
		"mean_occupancy", s.MeanOccupancy,
		"births", s.Births,
		"deaths", s.Deaths,
		"forced_survivors", s.ForcedSurvivors,
		"unestablished", s.Unestablished,
		"rejected", s.Rejected,
		"culled", s.Culled,
		"mismatch_mean", s.MismatchMean,
		"mismatch_p50", s.MismatchP50,
		"red_mean", s.RedMean,
		"red_std", s.RedStd,
		"green_mean", s.GreenMean,
		"green_std", s.GreenStd,
		"blue_mean", s.BlueMean,
		"blue_std", s.BlueStd,
		"colonized_segments", s.ColonizedSegments,
		"easternmost_column", s.EasternmostColumn,
	)
}
