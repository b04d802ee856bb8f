package evolve

import (
	"context"
	"fmt"

	"github.com/pthm-cable/creatures/config"
	"github.com/pthm-cable/creatures/creature"
	"github.com/pthm-cable/creatures/genome"
	"github.com/pthm-cable/creatures/physics"
	"github.com/pthm-cable/creatures/systems"
	"github.com/pthm-cable/creatures/telemetry"
)

// NewEngine creates a physics world from config.
func NewEngine(cfg *config.Config) *physics.World {
	p := physics.DefaultConfig()
	p.Gravity = cfg.Physics.Gravity
	p.Density = cfg.Physics.Density
	p.GroundKick = cfg.Physics.GroundKick
	p.Friction = cfg.Physics.Friction
	p.JointDamping = cfg.Physics.JointDamping
	p.SleepSpeed = cfg.Physics.SleepSpeed
	p.SleepTime = cfg.Physics.SleepTime
	return physics.NewWorld(p)
}

// Evaluator simulates one genome for a fixed number of ticks and tracks its
// fitness.
type Evaluator struct {
	creature   *creature.Creature
	controller *systems.ControllerSystem
	fitness    *systems.FitnessSystem
	perf       *telemetry.PerfCollector

	dt    float64
	ticks int
	tick  int
	done  bool
}

// NewEvaluator builds g in e and prepares to simulate it. Structural errors
// in g are returned and nothing is added to e. perf may be nil.
func NewEvaluator(cfg *config.Config, e physics.Engine, g *genome.Genome, perf *telemetry.PerfCollector) (*Evaluator, error) {
	c, err := creature.Build(e, g, creature.NewOptions(cfg))
	if err != nil {
		return nil, err
	}
	return &Evaluator{
		creature:   c,
		controller: systems.NewControllerSystem(cfg.Neural.MotorSpeed),
		fitness:    systems.NewFitnessSystem(cfg.Evaluation),
		perf:       perf,
		dt:         cfg.Physics.DT,
		ticks:      cfg.Derived.EvalTicks,
	}, nil
}

// Step simulates one tick: rules, physics, then fitness. Returns false once
// the evaluation is over, either because time ran out or the creature was
// rejected.
func (ev *Evaluator) Step() bool {
	if ev.done {
		return false
	}
	if ev.perf != nil {
		ev.perf.StartTick()
		ev.perf.StartPhase(telemetry.PhaseController)
	}
	ev.controller.Update(ev.creature, ev.Elapsed())

	if ev.perf != nil {
		ev.perf.StartPhase(telemetry.PhasePhysics)
	}
	ev.creature.Engine().Step(ev.dt)
	ev.tick++

	if ev.perf != nil {
		ev.perf.StartPhase(telemetry.PhaseFitness)
	}
	valid := ev.fitness.Update(ev.creature, ev.Elapsed())
	if ev.perf != nil {
		ev.perf.EndTick()
	}

	if !valid || ev.tick >= ev.ticks {
		ev.done = true
	}
	return !ev.done
}

// Run steps until the evaluation is over or ctx is cancelled.
func (ev *Evaluator) Run(ctx context.Context) error {
	for ev.Step() {
		if ev.tick%60 == 0 {
			if err := ctx.Err(); err != nil {
				return err
			}
		}
	}
	return nil
}

// Elapsed returns the simulated time so far.
func (ev *Evaluator) Elapsed() float64 {
	return float64(ev.tick) * ev.dt
}

// Tick returns the number of ticks simulated.
func (ev *Evaluator) Tick() int {
	return ev.tick
}

// Done reports whether the evaluation is over.
func (ev *Evaluator) Done() bool {
	return ev.done
}

// Fitness returns the running fitness.
func (ev *Evaluator) Fitness() float64 {
	return ev.fitness.Fitness()
}

// Invalid reports whether the creature was rejected, and why.
func (ev *Evaluator) Invalid() (bool, string) {
	return ev.fitness.Invalid()
}

// Creature returns the simulated creature.
func (ev *Evaluator) Creature() *creature.Creature {
	return ev.creature
}

// Fired returns, per block, the rule that fired on the last tick or -1.
func (ev *Evaluator) Fired() []int {
	return ev.controller.Fired
}

// Close removes the creature from the engine.
func (ev *Evaluator) Close() {
	ev.creature.Remove()
}

// Evaluate runs g to completion in a fresh engine and returns its fitness
// and the genome actually simulated (compacted if blocks were dropped).
func Evaluate(ctx context.Context, cfg *config.Config, g *genome.Genome) (float64, *genome.Genome, error) {
	ev, err := NewEvaluator(cfg, NewEngine(cfg), g, nil)
	if err != nil {
		return 0, nil, fmt.Errorf("evaluate: %w", err)
	}
	defer ev.Close()
	if err := ev.Run(ctx); err != nil {
		return 0, nil, err
	}
	return ev.Fitness(), ev.creature.Genome(), nil
}
