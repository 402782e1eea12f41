package main

import (
	"github.com/pthm-cable/chroma/config"
)

// ParamSpec defines a single optimizable parameter.
type ParamSpec struct {
	Name string  // Human-readable name
	Path string  // YAML path in the config file
	Min  float64 // Lower bound
	Max  float64 // Upper bound

	field func(cfg *config.Config) *float64
}

// ParamVector is the ordered set of optimizable parameters.
type ParamVector struct {
	Specs []ParamSpec
}

// NewParamVector creates the standard set: the three stage rates that shape
// survival and spread, and the mutation step size.
func NewParamVector() *ParamVector {
	return &ParamVector{Specs: []ParamSpec{
		{
			Name: "base_death_rate", Path: "rates.base_death_rate", Min: 0, Max: 0.2,
			field: func(c *config.Config) *float64 { return &c.Rates.BaseDeathRate },
		},
		{
			Name: "crowding_penalty", Path: "rates.crowding_penalty", Min: 0, Max: 0.3,
			field: func(c *config.Config) *float64 { return &c.Rates.CrowdingPenalty },
		},
		{
			Name: "base_repro_prob", Path: "rates.base_repro_prob", Min: 0.05, Max: 0.8,
			field: func(c *config.Config) *float64 { return &c.Rates.BaseReproProb },
		},
		{
			Name: "mutation_sigma", Path: "mutation.sigma", Min: 1, Max: 30,
			field: func(c *config.Config) *float64 { return &c.Mutation.Sigma },
		},
	}}
}

// Dim returns the number of parameters.
func (pv *ParamVector) Dim() int {
	return len(pv.Specs)
}

// Normalize maps raw values onto [0,1] per parameter bounds.
func (pv *ParamVector) Normalize(raw []float64) []float64 {
	out := make([]float64, len(pv.Specs))
	for i, s := range pv.Specs {
		out[i] = (raw[i] - s.Min) / (s.Max - s.Min)
	}
	return out
}

// Denormalize is the inverse of Normalize.
func (pv *ParamVector) Denormalize(normalized []float64) []float64 {
	out := make([]float64, len(pv.Specs))
	for i, s := range pv.Specs {
		out[i] = s.Min + normalized[i]*(s.Max-s.Min)
	}
	return out
}

// Clamp limits every value to its parameter bounds.
func (pv *ParamVector) Clamp(v []float64) []float64 {
	out := make([]float64, len(pv.Specs))
	for i, s := range pv.Specs {
		out[i] = min(max(v[i], s.Min), s.Max)
	}
	return out
}

// ApplyToConfig writes the clamped values into cfg, in Specs order.
func (pv *ParamVector) ApplyToConfig(cfg *config.Config, values []float64) {
	for i, v := range pv.Clamp(values) {
		*pv.Specs[i].field(cfg) = v
	}
}

// ExtractFromConfig reads the current values from cfg, clamped to bounds.
func (pv *ParamVector) ExtractFromConfig(cfg *config.Config) []float64 {
	out := make([]float64, len(pv.Specs))
	for i, s := range pv.Specs {
		out[i] = *s.field(cfg)
	}
	return pv.Clamp(out)
}
