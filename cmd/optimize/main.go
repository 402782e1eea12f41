// Package main searches the rate and mutation parameters with CMA-ES for
// settings under which the population spreads east and tracks its targets.
package main

import (
	"encoding/csv"
	"flag"
	"fmt"
	"log"
	"math"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"gonum.org/v1/gonum/optimize"

	"github.com/pthm-cable/chroma/config"
)

type options struct {
	configPath  string
	outputDir   string
	maxTicks    int
	statsWindow int
	seeds       int
	maxEvals    int
	population  int
	stepSize    float64
}

func parseFlags() options {
	var o options
	flag.StringVar(&o.configPath, "config", "", "Base config YAML file (empty = use defaults)")
	flag.StringVar(&o.outputDir, "output", "", "Output directory for results")
	flag.IntVar(&o.maxTicks, "max-ticks", 2000, "Ticks simulated per run")
	flag.IntVar(&o.statsWindow, "stats-window", 0, "Stats window size in ticks (0 = use config)")
	flag.IntVar(&o.seeds, "seeds", 3, "Number of seeds per evaluation")
	flag.IntVar(&o.maxEvals, "max-evals", 200, "Maximum number of evaluations")
	flag.IntVar(&o.population, "population", 0, "CMA-ES population size (0 = auto)")
	flag.Float64Var(&o.stepSize, "step-size", 0.3, "Initial CMA-ES step size in normalized units")
	flag.Parse()
	return o
}

func main() {
	opts := parseFlags()
	if opts.outputDir == "" {
		log.Fatal("--output is required")
	}
	if err := run(opts); err != nil {
		log.Fatal(err)
	}
}

func run(opts options) error {
	if err := os.MkdirAll(opts.outputDir, 0755); err != nil {
		return fmt.Errorf("creating output directory: %w", err)
	}
	if err := config.Init(opts.configPath); err != nil {
		return fmt.Errorf("loading config: %w", err)
	}
	baseCfg := config.Cfg().Clone()
	if opts.statsWindow > 0 {
		baseCfg.Telemetry.StatsWindow = opts.statsWindow
	}

	params := NewParamVector()
	evalSeeds := make([]int64, opts.seeds)
	for i := range evalSeeds {
		evalSeeds[i] = int64(i*1000 + 42)
	}
	evaluator := NewFitnessEvaluator(params, int32(opts.maxTicks), evalSeeds, baseCfg)

	elog, err := newEvalLog(filepath.Join(opts.outputDir, "optimize_log.csv"), params, opts.maxEvals)
	if err != nil {
		return err
	}
	defer elog.Close()

	// Search in normalized space starting from the base config's values.
	problem := optimize.Problem{
		Func: func(x []float64) float64 {
			raw := params.Clamp(params.Denormalize(x))
			fitness := evaluator.Evaluate(raw)
			elog.Record(raw, fitness, evaluator.LastQuality())
			return fitness
		},
	}
	initX := params.Normalize(params.ExtractFromConfig(baseCfg))

	popSize := opts.population
	if popSize == 0 {
		popSize = 4 + int(3.0*math.Log(float64(params.Dim())))
	}
	method := &optimize.CmaEsChol{
		InitStepSize: opts.stepSize,
		Population:   popSize,
	}
	settings := &optimize.Settings{
		FuncEvaluations: opts.maxEvals,
		Concurrent:      0, // seeds already run in parallel inside Evaluate
	}

	fmt.Printf("Starting CMA-ES optimization with %d parameters, population=%d, max_evals=%d\n",
		params.Dim(), popSize, opts.maxEvals)
	fmt.Printf("Seeds per evaluation: %d, ticks per run: %d, stats window: %d\n",
		opts.seeds, opts.maxTicks, baseCfg.Telemetry.StatsWindow)

	result, err := optimize.Minimize(problem, initX, settings, method)
	if err != nil {
		log.Printf("optimization ended: %v", err)
	}

	best := elog.best
	if best == nil && result != nil {
		best = params.Clamp(params.Denormalize(result.X))
	}
	if best == nil {
		return fmt.Errorf("no evaluations completed")
	}

	fmt.Printf("\nOptimization complete after %d evaluations in %s\n",
		elog.count, formatDuration(time.Since(elog.start)))
	fmt.Printf("Best quality: %.4f\n", -elog.bestFitness)
	fmt.Println("\nBest parameters:")
	for i, spec := range params.Specs {
		fmt.Printf("  %s (%s): %.6f\n", spec.Name, spec.Path, best[i])
	}

	bestCfg := baseCfg.Clone()
	params.ApplyToConfig(bestCfg, best)
	outPath := filepath.Join(opts.outputDir, "best_config.yaml")
	if err := bestCfg.WriteYAML(outPath); err != nil {
		return fmt.Errorf("writing best config: %w", err)
	}
	fmt.Printf("\nBest config saved to: %s\n", outPath)
	return nil
}

// evalLog appends one CSV row per evaluation and tracks the best point.
type evalLog struct {
	file     *os.File
	w        *csv.Writer
	maxEvals int
	start    time.Time

	count       int
	bestFitness float64
	best        []float64
}

func newEvalLog(path string, params *ParamVector, maxEvals int) (*evalLog, error) {
	f, err := os.Create(path)
	if err != nil {
		return nil, fmt.Errorf("creating eval log: %w", err)
	}
	w := csv.NewWriter(f)

	header := []string{"eval", "fitness", "quality"}
	for _, spec := range params.Specs {
		header = append(header, spec.Name)
	}
	if err := w.Write(header); err != nil {
		f.Close()
		return nil, fmt.Errorf("writing eval log header: %w", err)
	}
	w.Flush()

	return &evalLog{
		file:        f,
		w:           w,
		maxEvals:    maxEvals,
		start:       time.Now(),
		bestFitness: math.Inf(1),
	}, nil
}

// Record logs the clamped values actually simulated.
func (l *evalLog) Record(values []float64, fitness, quality float64) {
	l.count++
	if fitness < l.bestFitness {
		l.bestFitness = fitness
		l.best = append([]float64(nil), values...)
	}

	row := []string{
		strconv.Itoa(l.count),
		strconv.FormatFloat(fitness, 'f', 6, 64),
		strconv.FormatFloat(quality, 'f', 6, 64),
	}
	for _, v := range values {
		row = append(row, strconv.FormatFloat(v, 'f', 6, 64))
	}
	if err := l.w.Write(row); err != nil {
		log.Printf("eval log: %v", err)
	}
	l.w.Flush()

	elapsed := time.Since(l.start)
	remaining := time.Duration(l.maxEvals-l.count) * (elapsed / time.Duration(l.count))
	fmt.Printf("Eval %d/%d: quality=%.4f (best=%.4f) | elapsed: %s, ETA: %s\n",
		l.count, l.maxEvals, quality, -l.bestFitness,
		formatDuration(elapsed), formatDuration(remaining))
}

func (l *evalLog) Close() error {
	l.w.Flush()
	if err := l.w.Error(); err != nil {
		l.file.Close()
		return err
	}
	return l.file.Close()
}

// formatDuration formats a duration as 1h02m03s, or 2m03s under an hour.
func formatDuration(d time.Duration) string {
	d = d.Round(time.Second)
	h := d / time.Hour
	d -= h * time.Hour
	m := d / time.Minute
	d -= m * time.Minute
	s := d / time.Second

	if h > 0 {
		return fmt.Sprintf("%dh%02dm%02ds", h, m, s)
	}
	return fmt.Sprintf("%dm%02ds", m, s)
}
