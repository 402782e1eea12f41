// Package config provides configuration loading and access for the simulation.
package config

import (
	_ "embed"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/pthm-cable/chroma/systems"
	"github.com/pthm-cable/chroma/traits"
)

//go:embed defaults.yaml
var defaultsYAML []byte

// Seeding strategies for the founder population.
const (
	SeedRandom = "random" // uniform random cells, uniform random colours
	SeedWest   = "west"   // column 0, west target colour
)

// Config holds all simulation configuration parameters.
type Config struct {
	World      WorldConfig      `yaml:"world"`
	Population PopulationConfig `yaml:"population"`
	Segments   SegmentsConfig   `yaml:"segments"`
	Rates      RatesConfig      `yaml:"rates"`
	Mutation   MutationConfig   `yaml:"mutation"`
	Variant    VariantConfig    `yaml:"variant"`
	Telemetry  TelemetryConfig  `yaml:"telemetry"`
	Bookmarks  BookmarksConfig  `yaml:"bookmarks"`

	// Derived values computed after loading
	Derived DerivedConfig `yaml:"-"`
}

// WorldConfig holds grid dimensions and per-cell capacity.
type WorldConfig struct {
	Width      int `yaml:"width"`
	Height     int `yaml:"height"`
	MaxDensity int `yaml:"max_density"`
}

// PopulationConfig holds founder seeding parameters.
type PopulationConfig struct {
	Initial int    `yaml:"initial"`
	Seeding string `yaml:"seeding"` // "random" or "west"
}

// SegmentsConfig describes the west-to-east target gradient.
type SegmentsConfig struct {
	Count int       `yaml:"count"`
	West  []float64 `yaml:"west"` // RGB, each in [0,255]
	East  []float64 `yaml:"east"`
}

// RatesConfig holds the per-tick probability knobs.
type RatesConfig struct {
	BaseDeathRate   float64 `yaml:"base_death_rate"`
	CrowdingPenalty float64 `yaml:"crowding_penalty"` // added at full capacity, sqrt-damped below
	MismatchPenalty float64 `yaml:"mismatch_penalty"` // used only when variant.pressure is off
	BaseReproProb   float64 `yaml:"base_repro_prob"`
}

// MutationConfig holds mutation parameters.
type MutationConfig struct {
	Sigma    float64 `yaml:"sigma"`
	Boundary string  `yaml:"boundary"` // "saturate" or "wrap"
}

// VariantConfig toggles engine behaviours.
type VariantConfig struct {
	Mortality          bool   `yaml:"mortality"`
	Fitness            string `yaml:"fitness"` // "target" or "constant"
	Pressure           bool   `yaml:"pressure"`
	Migration          bool   `yaml:"migration"`
	ParentCrowdingGate bool   `yaml:"parent_crowding_gate"`
	EstablishmentGate  bool   `yaml:"establishment_gate"`
	StrictPlacement    bool   `yaml:"strict_placement"`
	Cull               bool   `yaml:"cull"`
}

// TelemetryConfig holds telemetry parameters.
type TelemetryConfig struct {
	StatsWindow         int `yaml:"stats_window"` // ticks per stats row
	BookmarkHistorySize int `yaml:"bookmark_history_size"`
	PerfCollectorWindow int `yaml:"perf_collector_window"`
}

// BookmarksConfig holds bookmark detection thresholds.
type BookmarksConfig struct {
	PopulationCrash  PopulationCrashConfig  `yaml:"population_crash"`
	StablePopulation StablePopulationConfig `yaml:"stable_population"`
}

// PopulationCrashConfig holds population crash detection parameters.
type PopulationCrashConfig struct {
	DropPercent float64 `yaml:"drop_percent"`
	MinDrop     int     `yaml:"min_drop"`
}

// StablePopulationConfig holds stable population detection parameters.
type StablePopulationConfig struct {
	MinPopulation int     `yaml:"min_population"`
	CVThreshold   float64 `yaml:"cv_threshold"`
	StableWindows int     `yaml:"stable_windows"`
}

// DerivedConfig holds computed values derived from the loaded config.
type DerivedConfig struct {
	Cells    int // World.Width * World.Height
	Capacity int // Cells * World.MaxDensity
}

// global holds the loaded configuration.
var global *Config

// Init loads configuration from the given path, or uses embedded defaults if path is empty.
// Must be called before Cfg().
func Init(path string) error {
	cfg, err := Load(path)
	if err != nil {
		return err
	}
	global = cfg
	return nil
}

// MustInit is like Init but panics on error.
func MustInit(path string) {
	if err := Init(path); err != nil {
		panic(fmt.Sprintf("config: failed to initialize: %v", err))
	}
}

// Cfg returns the global configuration. Panics if Init was not called.
func Cfg() *Config {
	if global == nil {
		panic("config: Cfg() called before Init()")
	}
	return global
}

// Defaults returns a fresh copy of the embedded defaults.
func Defaults() (*Config, error) {
	return Load("")
}

// Load loads configuration from a YAML file, merging with embedded defaults.
// If path is empty, only embedded defaults are used.
func Load(path string) (*Config, error) {
	cfg := &Config{}
	if err := yaml.Unmarshal(defaultsYAML, cfg); err != nil {
		return nil, fmt.Errorf("parsing embedded defaults: %w", err)
	}

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("reading config file: %w", err)
		}
		// Unmarshal into same struct - only overwrites fields present in file
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parsing config file: %w", err)
		}
	}

	cfg.computeDerived()

	return cfg, nil
}

// computeDerived calculates values derived from loaded config.
func (c *Config) computeDerived() {
	c.Derived.Cells = c.World.Width * c.World.Height
	c.Derived.Capacity = c.Derived.Cells * c.World.MaxDensity
}

// EnvironmentParams converts the configuration into engine parameters.
// Colour arity is checked here; every other range is left to
// systems.Params.Validate.
func (c *Config) EnvironmentParams() (systems.Params, error) {
	west, err := traits.FromSlice(c.Segments.West)
	if err != nil {
		return systems.Params{}, fmt.Errorf("segments.west: %w", err)
	}
	east, err := traits.FromSlice(c.Segments.East)
	if err != nil {
		return systems.Params{}, fmt.Errorf("segments.east: %w", err)
	}

	v := c.Variant
	return systems.Params{
		Width:           c.World.Width,
		Height:          c.World.Height,
		MaxDensity:      c.World.MaxDensity,
		SegmentCount:    c.Segments.Count,
		West:            west,
		East:            east,
		BaseDeathRate:   c.Rates.BaseDeathRate,
		CrowdingPenalty: c.Rates.CrowdingPenalty,
		MismatchPenalty: c.Rates.MismatchPenalty,
		BaseReproProb:   c.Rates.BaseReproProb,
		MutationSigma:   c.Mutation.Sigma,
		Variant: systems.Variant{
			Mortality:          v.Mortality,
			Fitness:            systems.FitnessModel(v.Fitness),
			Pressure:           v.Pressure,
			Migration:          v.Migration,
			ParentCrowdingGate: v.ParentCrowdingGate,
			EstablishmentGate:  v.EstablishmentGate,
			StrictPlacement:    v.StrictPlacement,
			Cull:               v.Cull,
			Boundary:           traits.Boundary(c.Mutation.Boundary),
		},
	}, nil
}

// Clone returns a deep copy, safe to modify without touching c.
func (c *Config) Clone() *Config {
	out := *c
	out.Segments.West = append([]float64(nil), c.Segments.West...)
	out.Segments.East = append([]float64(nil), c.Segments.East...)
	return &out
}

// WriteYAML writes the configuration to a YAML file.
func (c *Config) WriteYAML(path string) error {
	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("marshaling config: %w", err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("writing config file: %w", err)
	}
	return nil
}
