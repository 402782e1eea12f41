package game

import (
	"log/slog"

	"github.com/pthm-cable/chroma/telemetry"
)

// flushTelemetry closes the stats window once it has run its length, then
// publishes the window and any bookmarks it triggers.
func (g *Game) flushTelemetry() {
	if !g.collector.ShouldFlush(g.tick) {
		return
	}

	stats := g.collector.Flush(g.tick, g.env)
	g.lastStats = &stats
	if g.statsCallback != nil {
		g.statsCallback(stats)
	}

	g.publishWindow(stats, g.perfCollector.Stats())
	for _, bm := range g.bookmarkDetector.Check(stats) {
		g.publishBookmark(bm)
	}
}

func (g *Game) publishWindow(stats telemetry.WindowStats, perf telemetry.PerfStats) {
	if g.logStats {
		stats.LogStats()
		perf.LogStats()
	}
	if err := g.outputManager.WriteTelemetry(stats); err != nil {
		logError("failed to write telemetry", err)
	}
	if err := g.outputManager.WritePerf(perf, stats.WindowEndTick); err != nil {
		logError("failed to write perf", err)
	}
}

// publishBookmark records bm and, when logging, the grid state it was seen in.
func (g *Game) publishBookmark(bm telemetry.Bookmark) {
	if g.logStats {
		bm.LogBookmark()
		slog.Debug("bookmark world state", "type", bm.Type, "world", g.WorldState())
	}
	if err := g.outputManager.WriteBookmark(bm); err != nil {
		logError("failed to write bookmark", err)
	}
}
