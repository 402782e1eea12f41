// Package telemetry provides windowed population statistics, bookmarking,
// per-stage timing and CSV output.
package telemetry

import "github.com/pthm-cable/chroma/systems"

// Collector accumulates step tallies within tick windows and produces
// WindowStats.
type Collector struct {
	windowDurationTicks int32

	// Current window tracking
	windowStartTick int32

	// Event counters for current window
	counts systems.StepCounts
}

// NewCollector creates a new stats collector that flushes every windowTicks
// ticks.
func NewCollector(windowTicks int) *Collector {
	if windowTicks < 1 {
		windowTicks = 1
	}
	return &Collector{windowDurationTicks: int32(windowTicks)}
}

// Record adds one tick's tallies to the current window.
func (c *Collector) Record(s systems.StepCounts) {
	c.counts.Deaths += s.Deaths
	c.counts.ForcedSurvivors += s.ForcedSurvivors
	c.counts.Attempts += s.Attempts
	c.counts.Unestablished += s.Unestablished
	c.counts.Placed += s.Placed
	c.counts.Rejected += s.Rejected
	c.counts.Culled += s.Culled
}

// ShouldFlush returns true if enough ticks have passed to flush the window.
func (c *Collector) ShouldFlush(currentTick int32) bool {
	return currentTick-c.windowStartTick >= c.windowDurationTicks
}

// Flush samples pop, produces a WindowStats and resets counters for the next
// window.
func (c *Collector) Flush(currentTick int32, pop Population) WindowStats {
	sample := samplePopulation(pop)

	mMean, mP10, mP50, mP90 := ComputeMismatchStats(sample.mismatches)
	rMean, rStd := ComputeChannelStats(sample.channels[0])
	gMean, gStd := ComputeChannelStats(sample.channels[1])
	bMean, bStd := ComputeChannelStats(sample.channels[2])

	var occupancy float64
	if sample.occupiedCells > 0 {
		occupancy = float64(sample.population) / float64(sample.occupiedCells)
	}

	stats := WindowStats{
		WindowStartTick: c.windowStartTick,
		WindowEndTick:   currentTick,

		Population:    sample.population,
		OccupiedCells: sample.occupiedCells,
		MeanOccupancy: occupancy,

		Births:          c.counts.Placed,
		Deaths:          c.counts.Deaths,
		ForcedSurvivors: c.counts.ForcedSurvivors,
		Attempts:        c.counts.Attempts,
		Unestablished:   c.counts.Unestablished,
		Rejected:        c.counts.Rejected,
		Culled:          c.counts.Culled,

		MismatchMean: mMean,
		MismatchP10:  mP10,
		MismatchP50:  mP50,
		MismatchP90:  mP90,

		RedMean:   rMean,
		RedStd:    rStd,
		GreenMean: gMean,
		GreenStd:  gStd,
		BlueMean:  bMean,
		BlueStd:   bStd,

		ColonizedSegments: sample.colonized(),
		EasternmostColumn: sample.easternmost,
	}

	// Reset for next window
	c.windowStartTick = currentTick
	c.counts = systems.StepCounts{}

	return stats
}

// WindowDurationTicks returns the number of ticks per window.
func (c *Collector) WindowDurationTicks() int32 {
	return c.windowDurationTicks
}
