// Package config provides configuration loading and access for the simulation.
package config

import (
	_ "embed"
	"errors"
	"fmt"
	"math"
	"os"

	"gopkg.in/yaml.v3"
)

//go:embed defaults.yaml
var defaultsYAML []byte

// Config holds all simulation configuration parameters.
type Config struct {
	Screen     ScreenConfig     `yaml:"screen"`
	Physics    PhysicsConfig    `yaml:"physics"`
	Morphology MorphologyConfig `yaml:"morphology"`
	Neural     NeuralConfig     `yaml:"neural"`
	Evaluation EvaluationConfig `yaml:"evaluation"`
	Population PopulationConfig `yaml:"population"`
	Evolution  EvolutionConfig  `yaml:"evolution"`
	HillClimb  HillClimbConfig  `yaml:"hill_climb"`
	Mutation   MutationConfig   `yaml:"mutation"`
	Telemetry  TelemetryConfig  `yaml:"telemetry"`

	// Derived values computed after loading
	Derived DerivedConfig `yaml:"-"`
}

// ScreenConfig holds display settings for the interactive viewer.
type ScreenConfig struct {
	Width     int `yaml:"width"`
	Height    int `yaml:"height"`
	TargetFPS int `yaml:"target_fps"`
}

// PhysicsConfig holds world constants.
type PhysicsConfig struct {
	DT           float64 `yaml:"dt"`            // seconds per tick
	Gravity      float64 `yaml:"gravity"`       // m/s^2
	Density      float64 `yaml:"density"`       // mass per m^3
	GroundKick   float64 `yaml:"ground_kick"`   // penetration -> upward velocity factor
	Friction     float64 `yaml:"friction"`      // horizontal damping per second on the ground
	JointDamping float64 `yaml:"joint_damping"` // unpowered hinge damping per second
	SleepSpeed   float64 `yaml:"sleep_speed"`
	SleepTime    float64 `yaml:"sleep_time"` // 0 = never sleep
}

// MorphologyConfig holds creature growth parameters.
type MorphologyConfig struct {
	Strategy       string  `yaml:"strategy"` // "random" or "mirrored"
	MinBlocks      int     `yaml:"min_blocks"`
	MaxBlocks      int     `yaml:"max_blocks"`
	MinBlockSize   float64 `yaml:"min_block_size"` // full edge length
	MaxBlockSize   float64 `yaml:"max_block_size"`
	SizeJitter     float64 `yaml:"size_jitter"`     // sub-unit jitter added to each half-extent
	PivotSpread    float64 `yaml:"pivot_spread"`    // fraction of the free axis a pivot may use
	JointLimit     float64 `yaml:"joint_limit"`     // hinge limit in radians, symmetric
	SpawnClearance float64 `yaml:"spawn_clearance"` // gap between lowest block and ground at spawn
}

// NeuralConfig holds rule table parameters.
type NeuralConfig struct {
	MaxNeuronsPerBlock int     `yaml:"max_neurons_per_block"`
	MinNeuronSeconds   float64 `yaml:"min_neuron_seconds"`
	MaxNeuronSeconds   float64 `yaml:"max_neuron_seconds"`
	ImpulsePerArea     float64 `yaml:"impulse_per_area"` // max impulse per m^2 of parent surface
	MotorSpeed         float64 `yaml:"motor_speed"`      // rad/s commanded when a rule fires
}

// EvaluationConfig holds fitness evaluation parameters.
type EvaluationConfig struct {
	Seconds             float64 `yaml:"seconds"`
	InvalidCheckSeconds float64 `yaml:"invalid_check_seconds"`
	InvalidHeight       float64 `yaml:"invalid_height"`
	SinkTolerance       float64 `yaml:"sink_tolerance"`
}

// PopulationConfig holds population sizing.
type PopulationConfig struct {
	Size         int `yaml:"size"`
	RecentWindow int `yaml:"recent_window"` // generations averaged per strand
}

// EvolutionConfig holds selection and crossover parameters.
type EvolutionConfig struct {
	Selection    string  `yaml:"selection"` // "cull" or "tournament"
	Crossover    string  `yaml:"crossover"` // "uniform" or "single_point"
	CullFraction float64 `yaml:"cull_fraction"`
	Generations  int     `yaml:"generations"` // 0 = unlimited
}

// HillClimbConfig holds lineage-local search parameters.
type HillClimbConfig struct {
	Attempts    int     `yaml:"attempts"` // per strand per generation, 0 disables
	SizeSigma   float64 `yaml:"size_sigma"`
	NeuronSigma float64 `yaml:"neuron_sigma"`
}

// MutationConfig holds post-crossover bump parameters.
type MutationConfig struct {
	Rate       float64 `yaml:"rate"` // probability each block is bumped
	SizeSigma  float64 `yaml:"size_sigma"`
	PivotSigma float64 `yaml:"pivot_sigma"`
}

// TelemetryConfig holds output parameters.
type TelemetryConfig struct {
	LogGenerations bool `yaml:"log_generations"`
	SaveEvery      int  `yaml:"save_every"`      // population snapshot interval in generations, 0 = never
	HallOfFame     int  `yaml:"hall_of_fame"`    // best genomes kept across the run
	PerfWindow     int  `yaml:"perf_window"`     // ticks averaged by the perf collector
	BookmarkWindow int  `yaml:"bookmark_window"` // generations of history for bookmark detection
}

// DerivedConfig holds computed values derived from the loaded config.
type DerivedConfig struct {
	EvalTicks         int     // Evaluation.Seconds / Physics.DT
	InvalidCheckTicks int     // Evaluation.InvalidCheckSeconds / Physics.DT
	MinHalfExtent     float64 // Morphology.MinBlockSize / 2
	MaxHalfExtent     float64 // Morphology.MaxBlockSize / 2
	CullCount         int     // round(Population.Size * Evolution.CullFraction)
}

// Selection and crossover names.
const (
	SelectionCull       = "cull"
	SelectionTournament = "tournament"
	CrossoverUniform    = "uniform"
	CrossoverSingle     = "single_point"
	StrategyRandom      = "random"
	StrategyMirrored    = "mirrored"
)

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

// Default returns the embedded defaults.
func Default() *Config {
	cfg, err := Load("")
	if err != nil {
		panic(fmt.Sprintf("config: embedded defaults are invalid: %v", err))
	}
	return cfg
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

	if err := cfg.Finalize(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Finalize validates the config and recomputes derived values. Call it after
// changing fields in code (CLI overrides, parameter search).
func (c *Config) Finalize() error {
	if err := c.Validate(); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}
	c.computeDerived()
	return nil
}

// Validate checks value ranges.
func (c *Config) Validate() error {
	var errs []error
	m := c.Morphology
	if m.MinBlocks < 1 || m.MaxBlocks < m.MinBlocks {
		errs = append(errs, fmt.Errorf("morphology: block range [%d,%d]", m.MinBlocks, m.MaxBlocks))
	}
	if m.MinBlockSize < 1 || m.MaxBlockSize < m.MinBlockSize {
		errs = append(errs, fmt.Errorf("morphology: block size range [%g,%g], minimum edge is 1", m.MinBlockSize, m.MaxBlockSize))
	}
	if m.MaxBlockSize/2+m.SizeJitter > 10*m.MinBlockSize/2 {
		errs = append(errs, errors.New("morphology: size range allows aspect ratios above 10"))
	}
	if m.Strategy != StrategyRandom && m.Strategy != StrategyMirrored {
		errs = append(errs, fmt.Errorf("morphology: unknown strategy %q", m.Strategy))
	}
	if c.Neural.MaxNeuronsPerBlock < 1 {
		errs = append(errs, errors.New("neural: max_neurons_per_block must be >= 1"))
	}
	if c.Neural.MaxNeuronSeconds < c.Neural.MinNeuronSeconds {
		errs = append(errs, errors.New("neural: max_neuron_seconds < min_neuron_seconds"))
	}
	if c.Physics.DT <= 0 || c.Evaluation.Seconds <= 0 {
		errs = append(errs, errors.New("physics.dt and evaluation.seconds must be positive"))
	}
	if c.Population.Size < 2 {
		errs = append(errs, fmt.Errorf("population: size %d, need at least 2", c.Population.Size))
	}
	if c.Evolution.Selection != SelectionCull && c.Evolution.Selection != SelectionTournament {
		errs = append(errs, fmt.Errorf("evolution: unknown selection %q", c.Evolution.Selection))
	}
	if c.Evolution.Crossover != CrossoverUniform && c.Evolution.Crossover != CrossoverSingle {
		errs = append(errs, fmt.Errorf("evolution: unknown crossover %q", c.Evolution.Crossover))
	}
	if c.Evolution.CullFraction < 0 || c.Evolution.CullFraction >= 1 {
		errs = append(errs, fmt.Errorf("evolution: cull_fraction %g outside [0,1)", c.Evolution.CullFraction))
	}
	return errors.Join(errs...)
}

// computeDerived calculates values derived from loaded config.
func (c *Config) computeDerived() {
	c.Derived.EvalTicks = int(math.Round(c.Evaluation.Seconds / c.Physics.DT))
	c.Derived.InvalidCheckTicks = int(math.Round(c.Evaluation.InvalidCheckSeconds / c.Physics.DT))
	c.Derived.MinHalfExtent = c.Morphology.MinBlockSize / 2
	c.Derived.MaxHalfExtent = c.Morphology.MaxBlockSize / 2
	c.Derived.CullCount = int(math.Round(float64(c.Population.Size) * c.Evolution.CullFraction))
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
