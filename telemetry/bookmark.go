package telemetry

import (
	"fmt"
	"log/slog"

	"github.com/pthm-cable/chroma/config"
)

// BookmarkType identifies the type of bookmark.
type BookmarkType string

const (
	BookmarkExtinction       BookmarkType = "extinction"
	BookmarkSegmentColonized BookmarkType = "segment_colonized"
	BookmarkPopulationCrash  BookmarkType = "population_crash"
	BookmarkStablePopulation BookmarkType = "stable_population"
)

// stableSpan is how many windows, current included, the stability CV covers.
const stableSpan = 4

// Bookmark represents an automatically triggered bookmark.
type Bookmark struct {
	Type        BookmarkType `csv:"type"`
	Tick        int32        `csv:"tick"`
	Description string       `csv:"description"`
}

// LogBookmark logs the bookmark using slog.
func (b Bookmark) LogBookmark() {
	slog.Info("bookmark",
		"type", string(b.Type),
		"tick", b.Tick,
		"description", b.Description,
	)
}

// BookmarkDetector detects interesting moments in the simulation.
type BookmarkDetector struct {
	cfg config.BookmarksConfig

	// Rolling history (circular buffer)
	history     []WindowStats
	historySize int
	historyIdx  int
	historyFull bool

	// State tracking
	recentPeak         int  // peak population since the last crash
	maxColonized       int  // most segments ever colonised
	extinct            bool // extinction already reported
	stableWindowsCount int  // consecutive windows with a stable population
}

// NewBookmarkDetector creates a detector with the given history size.
func NewBookmarkDetector(historySize int, cfg config.BookmarksConfig) *BookmarkDetector {
	if historySize < stableSpan {
		historySize = stableSpan
	}
	return &BookmarkDetector{
		cfg:         cfg,
		history:     make([]WindowStats, historySize),
		historySize: historySize,
	}
}

// Check analyzes the latest stats and returns any triggered bookmarks.
func (bd *BookmarkDetector) Check(stats WindowStats) []Bookmark {
	var bookmarks []Bookmark

	if b := bd.checkExtinction(stats); b != nil {
		bookmarks = append(bookmarks, *b)
	}

	if bd.historyFull || bd.historyIdx > 0 {
		if b := bd.checkSegmentColonized(stats); b != nil {
			bookmarks = append(bookmarks, *b)
		}
		if b := bd.checkPopulationCrash(stats); b != nil {
			bookmarks = append(bookmarks, *b)
		}
		if b := bd.checkStablePopulation(stats); b != nil {
			bookmarks = append(bookmarks, *b)
		}
	}

	bd.addToHistory(stats)

	if stats.Population > bd.recentPeak {
		bd.recentPeak = stats.Population
	}
	if stats.ColonizedSegments > bd.maxColonized {
		bd.maxColonized = stats.ColonizedSegments
	}

	return bookmarks
}

func (bd *BookmarkDetector) addToHistory(stats WindowStats) {
	bd.history[bd.historyIdx] = stats
	bd.historyIdx = (bd.historyIdx + 1) % bd.historySize
	if bd.historyIdx == 0 {
		bd.historyFull = true
	}
}

// recent returns up to n of the latest history entries, oldest first.
func (bd *BookmarkDetector) recent(n int) []WindowStats {
	size := bd.historyIdx
	if bd.historyFull {
		size = bd.historySize
	}
	if n > size {
		n = size
	}
	out := make([]WindowStats, n)
	for i := 0; i < n; i++ {
		j := (bd.historyIdx - n + i + bd.historySize) % bd.historySize
		out[i] = bd.history[j]
	}
	return out
}

func (bd *BookmarkDetector) checkExtinction(stats WindowStats) *Bookmark {
	if stats.Population > 0 {
		bd.extinct = false
		return nil
	}
	if bd.extinct {
		return nil
	}
	bd.extinct = true
	return &Bookmark{
		Type:        BookmarkExtinction,
		Tick:        stats.WindowEndTick,
		Description: fmt.Sprintf("Population went extinct (peak %d)", bd.recentPeak),
	}
}

func (bd *BookmarkDetector) checkSegmentColonized(stats WindowStats) *Bookmark {
	if stats.ColonizedSegments <= bd.maxColonized {
		return nil
	}
	return &Bookmark{
		Type:        BookmarkSegmentColonized,
		Tick:        stats.WindowEndTick,
		Description: fmt.Sprintf("Colonised %d segments (was %d), easternmost column %d", stats.ColonizedSegments, bd.maxColonized, stats.EasternmostColumn),
	}
}

func (bd *BookmarkDetector) checkPopulationCrash(stats WindowStats) *Bookmark {
	if bd.recentPeak == 0 {
		return nil
	}

	c := bd.cfg.PopulationCrash
	dropPercent := 1.0 - float64(stats.Population)/float64(bd.recentPeak)
	if dropPercent > c.DropPercent && stats.Population < bd.recentPeak-c.MinDrop {
		// Reset peak after crash
		oldPeak := bd.recentPeak
		bd.recentPeak = stats.Population

		return &Bookmark{
			Type:        BookmarkPopulationCrash,
			Tick:        stats.WindowEndTick,
			Description: fmt.Sprintf("Population crashed %.0f%% from peak %d to %d", dropPercent*100, oldPeak, stats.Population),
		}
	}

	return nil
}

func (bd *BookmarkDetector) checkStablePopulation(stats WindowStats) *Bookmark {
	c := bd.cfg.StablePopulation
	if stats.Population < c.MinPopulation {
		bd.stableWindowsCount = 0
		return nil
	}

	prev := bd.recent(stableSpan - 1)
	if len(prev) < stableSpan-1 {
		return nil
	}
	values := make([]float64, 0, stableSpan)
	for _, h := range prev {
		values = append(values, float64(h.Population))
	}
	values = append(values, float64(stats.Population))

	if CoefficientOfVariation(values) < c.CVThreshold {
		bd.stableWindowsCount++
	} else {
		bd.stableWindowsCount = 0
	}

	if bd.stableWindowsCount == c.StableWindows { // trigger exactly once per stable run
		return &Bookmark{
			Type:        BookmarkStablePopulation,
			Tick:        stats.WindowEndTick,
			Description: fmt.Sprintf("Stable population of %d over %d windows", stats.Population, c.StableWindows),
		}
	}

	return nil
}
