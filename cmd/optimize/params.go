// Package main provides CMA-ES optimization for evolution parameters.
package main

import (
	"math"

	"github.com/pthm-cable/creatures/config"
)

// ParamSpec defines a single optimizable parameter.
type ParamSpec struct {
	Name    string  // Human-readable name
	Path    string  // Config path for logging
	Min     float64 // Lower bound
	Max     float64 // Upper bound
	Default float64 // Default value
	Integer bool    // rounded before it is applied

	get func(cfg *config.Config) float64
	set func(cfg *config.Config, v float64)
}

// ParamVector holds the set of all optimizable parameters.
type ParamVector struct {
	Specs []ParamSpec
}

// NewParamVector creates the standard set of optimizable parameters.
func NewParamVector() *ParamVector {
	return &ParamVector{
		Specs: []ParamSpec{
			// Selection
			{Name: "cull_fraction", Path: "evolution.cull_fraction", Min: 0.05, Max: 0.5, Default: 0.2,
				get: func(c *config.Config) float64 { return c.Evolution.CullFraction },
				set: func(c *config.Config, v float64) { c.Evolution.CullFraction = v }},
			// Hill climbing
			{Name: "hill_climb_attempts", Path: "hill_climb.attempts", Min: 0, Max: 5, Default: 2, Integer: true,
				get: func(c *config.Config) float64 { return float64(c.HillClimb.Attempts) },
				set: func(c *config.Config, v float64) { c.HillClimb.Attempts = int(v) }},
			{Name: "hill_climb_size_sigma", Path: "hill_climb.size_sigma", Min: 0.01, Max: 0.5, Default: 0.1,
				get: func(c *config.Config) float64 { return c.HillClimb.SizeSigma },
				set: func(c *config.Config, v float64) { c.HillClimb.SizeSigma = v }},
			{Name: "hill_climb_neuron_sigma", Path: "hill_climb.neuron_sigma", Min: 0.05, Max: 2.0, Default: 0.5,
				get: func(c *config.Config) float64 { return c.HillClimb.NeuronSigma },
				set: func(c *config.Config, v float64) { c.HillClimb.NeuronSigma = v }},
			// Post-crossover mutation
			{Name: "mutation_rate", Path: "mutation.rate", Min: 0, Max: 1, Default: 0.3,
				get: func(c *config.Config) float64 { return c.Mutation.Rate },
				set: func(c *config.Config, v float64) { c.Mutation.Rate = v }},
			{Name: "mutation_size_sigma", Path: "mutation.size_sigma", Min: 0.005, Max: 0.3, Default: 0.05,
				get: func(c *config.Config) float64 { return c.Mutation.SizeSigma },
				set: func(c *config.Config, v float64) { c.Mutation.SizeSigma = v }},
			{Name: "mutation_pivot_sigma", Path: "mutation.pivot_sigma", Min: 0.005, Max: 0.3, Default: 0.05,
				get: func(c *config.Config) float64 { return c.Mutation.PivotSigma },
				set: func(c *config.Config, v float64) { c.Mutation.PivotSigma = v }},
			// Actuation
			{Name: "motor_speed", Path: "neural.motor_speed", Min: 0.5, Max: 10, Default: 4,
				get: func(c *config.Config) float64 { return c.Neural.MotorSpeed },
				set: func(c *config.Config, v float64) { c.Neural.MotorSpeed = v }},
			{Name: "impulse_per_area", Path: "neural.impulse_per_area", Min: 0.05, Max: 2, Default: 0.5,
				get: func(c *config.Config) float64 { return c.Neural.ImpulsePerArea },
				set: func(c *config.Config, v float64) { c.Neural.ImpulsePerArea = v }},
		},
	}
}

// Dim returns the number of parameters.
func (pv *ParamVector) Dim() int {
	return len(pv.Specs)
}

// DefaultVector returns the default parameter values as a slice.
func (pv *ParamVector) DefaultVector() []float64 {
	v := make([]float64, len(pv.Specs))
	for i, spec := range pv.Specs {
		v[i] = spec.Default
	}
	return v
}

// Normalize converts raw parameter values to [0,1] range.
func (pv *ParamVector) Normalize(raw []float64) []float64 {
	normalized := make([]float64, len(pv.Specs))
	for i, spec := range pv.Specs {
		normalized[i] = (raw[i] - spec.Min) / (spec.Max - spec.Min)
	}
	return normalized
}

// Denormalize converts [0,1] values back to raw parameter values.
func (pv *ParamVector) Denormalize(normalized []float64) []float64 {
	raw := make([]float64, len(pv.Specs))
	for i, spec := range pv.Specs {
		raw[i] = spec.Min + normalized[i]*(spec.Max-spec.Min)
	}
	return raw
}

// Clamp ensures all values are within bounds, rounding integer parameters.
func (pv *ParamVector) Clamp(v []float64) []float64 {
	clamped := make([]float64, len(pv.Specs))
	for i, spec := range pv.Specs {
		val := math.Max(spec.Min, math.Min(spec.Max, v[i]))
		if spec.Integer {
			val = math.Round(val)
		}
		clamped[i] = val
	}
	return clamped
}

// ApplyToConfig applies parameter values to a Config struct. Call
// Finalize afterwards to refresh derived values.
func (pv *ParamVector) ApplyToConfig(cfg *config.Config, values []float64) {
	for i, v := range pv.Clamp(values) {
		pv.Specs[i].set(cfg, v)
	}
}

// ExtractFromConfig extracts current parameter values from a Config struct.
func (pv *ParamVector) ExtractFromConfig(cfg *config.Config) []float64 {
	v := make([]float64, len(pv.Specs))
	for i, spec := range pv.Specs {
		v[i] = spec.get(cfg)
	}
	return v
}
