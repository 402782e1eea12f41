package telemetry

import (
	"log/slog"
	"sort"
	"time"

	"gonum.org/v1/gonum/stat"

	"github.com/pthm-cable/chroma/systems"
)

// Phase names for the simulation step. The engine stages are reported by
// systems through its phase hook; telemetry is timed by the runner.
const (
	PhaseMortality    = systems.PhaseMortality
	PhaseReproduction = systems.PhaseReproduction
	PhasePlacement    = systems.PhasePlacement
	PhaseCull         = systems.PhaseCull
	PhaseTelemetry    = "telemetry"
)

// phaseOrder is the reporting order for log and CSV output.
var phaseOrder = [...]string{
	PhaseMortality, PhaseReproduction, PhasePlacement, PhaseCull, PhaseTelemetry,
}

const numPhases = len(phaseOrder)

func phaseIndex(name string) int {
	for i, p := range phaseOrder {
		if p == name {
			return i
		}
	}
	return -1
}

// PerfSample holds timing data for a single tick.
type PerfSample struct {
	TickDuration time.Duration
	Phases       [numPhases]time.Duration
}

// PerfCollector times ticks and their phases over a rolling window.
// Unknown phase names are timed but not attributed.
type PerfCollector struct {
	samples     []PerfSample
	writeIndex  int
	sampleCount int

	current    PerfSample
	tickStart  time.Time
	phaseStart time.Time
	phase      int // index into phaseOrder, -1 when none or unknown
	inPhase    bool

	now func() time.Time
}

// NewPerfCollector creates a collector averaging over windowSize ticks.
func NewPerfCollector(windowSize int) *PerfCollector {
	if windowSize < 1 {
		windowSize = 100
	}
	return &PerfCollector{samples: make([]PerfSample, windowSize), now: time.Now}
}

// StartTick begins timing a new simulation tick.
func (p *PerfCollector) StartTick() {
	p.tickStart = p.now()
	p.current = PerfSample{}
	p.inPhase = false
}

// StartPhase closes the running phase, if any, and starts timing phase.
func (p *PerfCollector) StartPhase(phase string) {
	now := p.now()
	p.closePhase(now)
	p.phaseStart = now
	p.phase = phaseIndex(phase)
	p.inPhase = true
}

func (p *PerfCollector) closePhase(now time.Time) {
	if p.inPhase && p.phase >= 0 {
		p.current.Phases[p.phase] += now.Sub(p.phaseStart)
	}
	p.inPhase = false
}

// EndTick finishes timing the current tick and records the sample.
func (p *PerfCollector) EndTick() {
	now := p.now()
	p.closePhase(now)
	p.current.TickDuration = now.Sub(p.tickStart)

	p.samples[p.writeIndex] = p.current
	p.writeIndex = (p.writeIndex + 1) % len(p.samples)
	if p.sampleCount < len(p.samples) {
		p.sampleCount++
	}
}

// PerfStats holds aggregated performance statistics.
type PerfStats struct {
	AvgTickDuration time.Duration
	MinTickDuration time.Duration
	MaxTickDuration time.Duration
	P90TickDuration time.Duration

	// Average duration and share of tick time per phase, in phaseOrder.
	PhaseAvg [numPhases]time.Duration
	PhasePct [numPhases]float64

	TicksPerSecond float64
}

// Pct returns the share of tick time spent in phase, in percent.
func (s PerfStats) Pct(phase string) float64 {
	if i := phaseIndex(phase); i >= 0 {
		return s.PhasePct[i]
	}
	return 0
}

// Avg returns the average time spent in phase per tick.
func (s PerfStats) Avg(phase string) time.Duration {
	if i := phaseIndex(phase); i >= 0 {
		return s.PhaseAvg[i]
	}
	return 0
}

// Stats computes aggregated statistics over the current window.
func (p *PerfCollector) Stats() PerfStats {
	var s PerfStats
	if p.sampleCount == 0 {
		return s
	}

	ticks := make([]float64, p.sampleCount)
	var phaseSum [numPhases]time.Duration
	for i, sample := range p.samples[:p.sampleCount] {
		ticks[i] = float64(sample.TickDuration)
		for j, d := range sample.Phases {
			phaseSum[j] += d
		}
	}
	sort.Float64s(ticks)

	n := time.Duration(p.sampleCount)
	s.AvgTickDuration = time.Duration(stat.Mean(ticks, nil))
	s.MinTickDuration = time.Duration(ticks[0])
	s.MaxTickDuration = time.Duration(ticks[len(ticks)-1])
	s.P90TickDuration = time.Duration(stat.Quantile(0.9, stat.Empirical, ticks, nil))

	for j, sum := range phaseSum {
		s.PhaseAvg[j] = sum / n
		if s.AvgTickDuration > 0 {
			s.PhasePct[j] = float64(s.PhaseAvg[j]) / float64(s.AvgTickDuration) * 100
		}
	}
	if s.AvgTickDuration > 0 {
		s.TicksPerSecond = float64(time.Second) / float64(s.AvgTickDuration)
	}
	return s
}

// LogStats logs performance statistics, omitting negligible phases.
func (s PerfStats) LogStats() {
	attrs := []any{
		"avg_tick_us", s.AvgTickDuration.Microseconds(),
		"p90_tick_us", s.P90TickDuration.Microseconds(),
		"max_tick_us", s.MaxTickDuration.Microseconds(),
		"ticks_per_sec", int(s.TicksPerSecond),
	}
	for i, phase := range phaseOrder {
		if pct := s.PhasePct[i]; pct > 0.1 {
			attrs = append(attrs, phase+"_pct", float64(int(pct*10))/10)
		}
	}
	slog.Info("perf", attrs...)
}

// LogValue implements slog.LogValuer for structured logging.
func (s PerfStats) LogValue() slog.Value {
	attrs := []slog.Attr{
		slog.Int64("avg_tick_us", s.AvgTickDuration.Microseconds()),
		slog.Int64("min_tick_us", s.MinTickDuration.Microseconds()),
		slog.Int64("p90_tick_us", s.P90TickDuration.Microseconds()),
		slog.Int64("max_tick_us", s.MaxTickDuration.Microseconds()),
		slog.Float64("ticks_per_sec", s.TicksPerSecond),
	}
	for i, phase := range phaseOrder {
		attrs = append(attrs, slog.Float64(phase+"_pct", s.PhasePct[i]))
	}
	return slog.GroupValue(attrs...)
}

// PerfStatsCSV is a flat struct for CSV export of performance stats.
type PerfStatsCSV struct {
	WindowEnd       int32   `csv:"window_end"`
	AvgTickUS       int64   `csv:"avg_tick_us"`
	MinTickUS       int64   `csv:"min_tick_us"`
	P90TickUS       int64   `csv:"p90_tick_us"`
	MaxTickUS       int64   `csv:"max_tick_us"`
	TicksPerSec     float64 `csv:"ticks_per_sec"`
	MortalityPct    float64 `csv:"mortality_pct"`
	ReproductionPct float64 `csv:"reproduction_pct"`
	PlacementPct    float64 `csv:"placement_pct"`
	CullPct         float64 `csv:"cull_pct"`
	TelemetryPct    float64 `csv:"telemetry_pct"`
}

// ToCSV converts PerfStats to a flat CSV-friendly struct.
func (s PerfStats) ToCSV(windowEnd int32) PerfStatsCSV {
	return PerfStatsCSV{
		WindowEnd:       windowEnd,
		AvgTickUS:       s.AvgTickDuration.Microseconds(),
		MinTickUS:       s.MinTickDuration.Microseconds(),
		P90TickUS:       s.P90TickDuration.Microseconds(),
		MaxTickUS:       s.MaxTickDuration.Microseconds(),
		TicksPerSec:     s.TicksPerSecond,
		MortalityPct:    s.Pct(PhaseMortality),
		ReproductionPct: s.Pct(PhaseReproduction),
		PlacementPct:    s.Pct(PhasePlacement),
		CullPct:         s.Pct(PhaseCull),
		TelemetryPct:    s.Pct(PhaseTelemetry),
	}
}
