// Package evolve runs the evolutionary loop: evaluate every strand's latest
// genome, hill-climb within strands, then select, cross over and mutate to
// seed the next generation.
//
// The loop is tick driven. Each call to Orchestrator.Step simulates exactly
// one physics tick of the current evaluation; phase changes happen between
// evaluations.
package evolve

import (
	"context"
	"fmt"
	"log/slog"
	"math/rand"

	"github.com/pthm-cable/creatures/config"
	"github.com/pthm-cable/creatures/creature"
	"github.com/pthm-cable/creatures/genome"
	"github.com/pthm-cable/creatures/lineage"
	"github.com/pthm-cable/creatures/physics"
	"github.com/pthm-cable/creatures/telemetry"
)

// Phase is the orchestrator's state.
type Phase int

const (
	PhaseEvaluate Phase = iota
	PhaseHillClimb
	PhaseSelect
)

func (p Phase) String() string {
	switch p {
	case PhaseEvaluate:
		return "evaluate"
	case PhaseHillClimb:
		return "hill_climb"
	case PhaseSelect:
		return "select"
	}
	return fmt.Sprintf("phase(%d)", int(p))
}

// job is one pending evaluation.
type job struct {
	strand    int
	genome    *genome.Genome
	candidate bool // hill-climb candidate rather than the strand's latest
}

// Options configure a new Orchestrator. All fields are optional.
type Options struct {
	// Seeds are cloned into the first strands; remaining strands start
	// from random genomes.
	Seeds []*genome.Genome
	// Population resumes from an existing population instead of seeding.
	Population *lineage.Population
	// Generation is the counter value to resume from.
	Generation int
	// Perf receives per-tick timing if set.
	Perf *telemetry.PerfCollector
	// OnGeneration is called after each generation's stats are computed,
	// before the population is reseeded.
	OnGeneration func(stats telemetry.GenerationStats, pop *lineage.Population)
}

// Orchestrator owns the population and drives evaluation, hill climbing
// and breeding.
type Orchestrator struct {
	cfg       *config.Config
	rng       *rand.Rand
	engine    physics.Engine
	gen       *creature.Generator
	crossover CrossoverFunc
	pop       *lineage.Population
	perf      *telemetry.PerfCollector
	onGen     func(telemetry.GenerationStats, *lineage.Population)

	phase   Phase
	queue   []job
	current job
	eval    *Evaluator
	round   int    // hill-climb round within this generation
	needed  []bool // per strand: no hill-climb attempt has improved it yet

	// Counters. Per-generation counters reset after OnGeneration.
	Generation  int
	Crossovers  int
	Evaluations int
	Accepted    int // hill-climb candidates kept this generation
	Failures    int // structural errors this generation
	Invalid     int // creatures rejected by the fitness check this generation
}

// New creates an orchestrator evaluating in engine. The engine must be empty
// and is reused for every evaluation.
func New(cfg *config.Config, rng *rand.Rand, engine physics.Engine, opts Options) (*Orchestrator, error) {
	gen, err := creature.NewGenerator(cfg)
	if err != nil {
		return nil, err
	}
	o := &Orchestrator{
		cfg:        cfg,
		rng:        rng,
		engine:     engine,
		gen:        gen,
		crossover:  CrossoverFor(cfg.Evolution.Crossover),
		perf:       opts.Perf,
		onGen:      opts.OnGeneration,
		Generation: opts.Generation,
		needed:     make([]bool, cfg.Population.Size),
	}

	switch {
	case opts.Population != nil:
		if opts.Population.Size() != cfg.Population.Size {
			return nil, fmt.Errorf("resumed population has %d strands, config wants %d", opts.Population.Size(), cfg.Population.Size)
		}
		o.pop = opts.Population
	default:
		o.pop = lineage.NewPopulation(cfg.Population.Size)
		for i := 0; i < o.pop.Size(); i++ {
			if i < len(opts.Seeds) {
				seed := opts.Seeds[i].Clone()
				if err := seed.Validate(); err != nil {
					return nil, fmt.Errorf("seed genome %d: %w", i, err)
				}
				o.pop.Append(i, seed)
				continue
			}
			o.pop.Append(i, o.randomGenome())
		}
	}
	o.queueEvaluate()
	return o, nil
}

// Population returns the population being evolved.
func (o *Orchestrator) Population() *lineage.Population {
	return o.pop
}

// Phase returns the current phase.
func (o *Orchestrator) Phase() Phase {
	return o.phase
}

// Current returns the running evaluation and the strand it belongs to, or
// nil between evaluations.
func (o *Orchestrator) Current() (*Evaluator, int) {
	return o.eval, o.current.strand
}

// Step advances the current evaluation by one tick, starting the next
// evaluation or changing phase first if nothing is running.
func (o *Orchestrator) Step() {
	for o.eval == nil {
		o.next()
	}
	if !o.eval.Step() {
		o.finish()
	}
}

// RunGeneration steps until the generation counter advances or ctx is
// cancelled.
func (o *Orchestrator) RunGeneration(ctx context.Context) error {
	start := o.Generation
	for o.Generation == start {
		if err := ctx.Err(); err != nil {
			return err
		}
		o.Step()
	}
	return nil
}

// Run runs n generations, or until ctx is cancelled when n is 0.
func (o *Orchestrator) Run(ctx context.Context, n int) error {
	for i := 0; n == 0 || i < n; i++ {
		if err := o.RunGeneration(ctx); err != nil {
			return err
		}
	}
	return nil
}

// Close removes the creature being simulated, if any, from the engine.
func (o *Orchestrator) Close() {
	if o.eval != nil {
		o.eval.Close()
		o.eval = nil
	}
}

// next starts the next queued evaluation, or moves to the next phase when
// the queue is empty.
func (o *Orchestrator) next() {
	if len(o.queue) == 0 {
		o.advancePhase()
		return
	}
	j := o.queue[0]
	o.queue = o.queue[1:]

	ev, err := NewEvaluator(o.cfg, o.engine, j.genome, o.perf)
	if err != nil {
		slog.Warn("structural error, recording fitness 0",
			"strand", j.strand, "generation", o.Generation, "phase", o.phase.String(), "error", err)
		o.Failures++
		if !j.candidate {
			o.record(j, 0, j.genome)
		}
		return
	}
	o.current = j
	o.eval = ev
}

// finish records the completed evaluation and frees the engine.
func (o *Orchestrator) finish() {
	ev := o.eval
	if bad, reason := ev.Invalid(); bad {
		slog.Debug("creature rejected", "strand", o.current.strand, "reason", reason, "tick", ev.Tick())
		o.Invalid++
	}
	o.record(o.current, ev.Fitness(), ev.Creature().Genome())
	ev.Close()
	o.eval = nil
	o.Evaluations++
}

// record stores an evaluated fitness. simulated is the genome actually
// built, which differs from j.genome when blocks were dropped.
func (o *Orchestrator) record(j job, fitness float64, simulated *genome.Genome) {
	strand := o.pop.Strand(j.strand)
	if !j.candidate {
		if simulated != j.genome {
			strand.ReplaceLatest(simulated)
		}
		simulated.SetFitness(fitness)
		return
	}

	best := strand.Best()
	simulated.SetFitness(fitness)
	if best.Evaluated && fitness < best.Fitness {
		return
	}
	strand.Append(simulated)
	o.Accepted++
	if !best.Evaluated || fitness > best.Fitness {
		o.needed[j.strand] = false
	}
}

// advancePhase moves Evaluate -> HillClimb -> Select -> Evaluate.
func (o *Orchestrator) advancePhase() {
	switch o.phase {
	case PhaseEvaluate:
		o.phase = PhaseHillClimb
		o.round = 0
		for i := range o.needed {
			o.needed[i] = true
		}
		o.queueHillClimb()
	case PhaseHillClimb:
		o.round++
		o.queueHillClimb()
	}
	if o.phase == PhaseSelect {
		o.breed()
		o.queueEvaluate()
	}
}

// queueEvaluate queues every strand's latest genome.
func (o *Orchestrator) queueEvaluate() {
	o.phase = PhaseEvaluate
	o.queue = o.queue[:0]
	for i := 0; i < o.pop.Size(); i++ {
		o.queue = append(o.queue, job{strand: i, genome: o.pop.Strand(i).Latest()})
	}
}

// queueHillClimb queues one perturbed copy of each strand's best genome for
// strands still needing a mutation, or moves to Select when the attempt cap
// is reached or no strand needs one.
func (o *Orchestrator) queueHillClimb() {
	o.queue = o.queue[:0]
	if o.round < o.cfg.HillClimb.Attempts {
		for i := 0; i < o.pop.Size(); i++ {
			if !o.needed[i] {
				continue
			}
			g := o.pop.Strand(i).Best().Clone()
			kind, err := Perturb(o.rng, g, o.cfg.HillClimb)
			if err != nil {
				slog.Debug("hill-climb perturbation invalid", "strand", i, "kind", kind, "error", err)
				continue
			}
			o.queue = append(o.queue, job{strand: i, genome: g, candidate: true})
		}
	}
	if len(o.queue) == 0 {
		o.phase = PhaseSelect
	}
}

// breed builds the next generation: select, cross over, bump, reseed.
func (o *Orchestrator) breed() {
	stats := telemetry.NewGenerationStats(o.Generation, o.pop)
	stats.Evaluations = o.Evaluations
	stats.Crossovers = o.Crossovers
	stats.HillClimbAccepted = o.Accepted
	stats.Failures = o.Failures
	stats.Invalid = o.Invalid
	if o.cfg.Telemetry.LogGenerations {
		slog.Info("generation", "stats", stats)
	}
	if o.onGen != nil {
		o.onGen(stats, o.pop)
	}

	children := o.breedChildren()
	for i, c := range children {
		if err := Bump(o.rng, c, o.cfg.Mutation); err != nil {
			slog.Debug("bump produced invalid child", "child", i, "error", err)
		}
	}
	o.pop.Reseed(children)

	o.Generation++
	o.Accepted, o.Failures, o.Invalid = 0, 0, 0
}

// randomGenome grows a fresh random genome in the engine and removes it.
func (o *Orchestrator) randomGenome() *genome.Genome {
	c := o.gen.Generate(o.engine, o.rng)
	g := c.Genome()
	c.Remove()
	return g
}
