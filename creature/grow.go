package creature

import (
	"fmt"
	"math/rand"

	"gonum.org/v1/gonum/spatial/r3"

	"github.com/pthm-cable/creatures/config"
	"github.com/pthm-cable/creatures/genome"
	"github.com/pthm-cable/creatures/neural"
	"github.com/pthm-cable/creatures/physics"
)

// Strategy decides how the slot frontier is consumed while growing.
type Strategy interface {
	// Name returns the config name of the strategy.
	Name() string
	// target adjusts a drawn block count to one the strategy can reach.
	target(n, lo, hi int) int
	// grow consumes slots and places blocks. Returns false to stop early.
	grow(gr *grower, remaining int) bool
}

// Random attaches one block per iteration to a uniformly chosen slot.
type Random struct{}

// Mirrored attaches blocks in pairs reflected across the root's X = 0 plane.
// Block counts are always odd: the root plus pairs.
type Mirrored struct{}

// StrategyFor returns the strategy with the given config name.
func StrategyFor(name string) (Strategy, error) {
	switch name {
	case config.StrategyRandom:
		return Random{}, nil
	case config.StrategyMirrored:
		return Mirrored{}, nil
	}
	return nil, fmt.Errorf("unknown growth strategy %q", name)
}

// Generator grows random creatures.
type Generator struct {
	Morph    config.MorphologyConfig
	Neural   config.NeuralConfig
	Strategy Strategy
	Options  Options
}

// NewGenerator creates a generator from config.
func NewGenerator(cfg *config.Config) (*Generator, error) {
	s, err := StrategyFor(cfg.Morphology.Strategy)
	if err != nil {
		return nil, err
	}
	return &Generator{
		Morph:    cfg.Morphology,
		Neural:   cfg.Neural,
		Strategy: s,
		Options:  NewOptions(cfg),
	}, nil
}

// Target draws a block count for one creature.
func (g *Generator) Target(rng *rand.Rand) int {
	lo, hi := g.Morph.MinBlocks, g.Morph.MaxBlocks
	return g.Strategy.target(lo+rng.Intn(hi-lo+1), lo, hi)
}

// Generate grows a creature in e. Growth stops when the drawn block count is
// reached or no edge slots remain, so the result may be smaller than the
// target.
func (g *Generator) Generate(e physics.Engine, rng *rand.Rand) *Creature {
	target := g.Target(rng)

	rootSize := g.randomSize(rng)
	c := &Creature{
		engine: e,
		genome: &genome.Genome{Blocks: []genome.Block{{ID: 0, Parent: genome.NoParent, Size: rootSize}}},
	}
	c.Blocks = append(c.Blocks, Block{Body: e.AddBox(rootSize, r3.Vec{Y: rootSize.Y})})

	gr := &grower{gen: g, rng: rng, c: c, mirror: []int{0}}
	gr.front.add(0)
	for c.Len() < target && gr.front.len() > 0 {
		if !g.Strategy.grow(gr, target-c.Len()) {
			break
		}
	}

	c.exhausted = gr.front.len() == 0 && c.Len() < target
	c.Settle(g.Options.SpawnClearance)
	return c
}

// randomSize draws a half-extent: each axis uniform over the configured
// edge range, halved, plus jitter.
func (g *Generator) randomSize(rng *rand.Rand) r3.Vec {
	axis := func() float64 {
		full := g.Morph.MinBlockSize + rng.Float64()*(g.Morph.MaxBlockSize-g.Morph.MinBlockSize)
		return full/2 + rng.Float64()*g.Morph.SizeJitter
	}
	return genome.ClampSize(r3.Vec{X: axis(), Y: axis(), Z: axis()})
}

// randomNeurons draws 1..MaxNeuronsPerBlock timed rules.
func (g *Generator) randomNeurons(rng *rand.Rand, maxImpulse float64) []neural.Neuron {
	n := 1 + rng.Intn(g.Neural.MaxNeuronsPerBlock)
	ns := make([]neural.Neuron, n)
	for i := range ns {
		ns[i] = neural.NewRandom(rng, g.Neural.MinNeuronSeconds, g.Neural.MaxNeuronSeconds, maxImpulse)
	}
	return ns
}

// grower is the in-progress state of one Generate call.
type grower struct {
	gen    *Generator
	rng    *rand.Rand
	c      *Creature
	front  frontier
	mirror []int // mirror[id] is the block reflected onto id; only used by Mirrored
}

// propose draws a child block for slot without placing it.
func (gr *grower) propose(slot EdgeSlot) genome.Block {
	spread := gr.gen.Morph.PivotSpread
	b := genome.Block{
		Parent:        slot.Block,
		Size:          gr.gen.randomSize(gr.rng),
		ParentSurface: slot.Surface,
		ChildSurface:  CorrespondingChildSurface(slot.Surface),
		Edge:          slot.Edge,
		ChildEdge:     ChildEdge(gr.rng, slot.Edge),
		ParentOffset:  spread * (2*gr.rng.Float64() - 1),
		ChildOffset:   spread * (2*gr.rng.Float64() - 1),
	}
	Reattach(&b, gr.c.genome.Block(slot.Block).Size)
	return b
}

// add places b and appends it to the creature and genome. Returns false and
// leaves no trace if b intersects a non-parent block.
func (gr *grower) add(b genome.Block) (int, bool) {
	parentHalf := gr.c.genome.Block(b.Parent).Size
	lb, ok := gr.c.place(&b, b.Parent, parentHalf, gr.gen.Options)
	if !ok {
		return 0, false
	}
	b.ID = len(gr.c.Blocks)
	gr.c.Blocks = append(gr.c.Blocks, lb)
	gr.c.genome.Blocks = append(gr.c.genome.Blocks, b)
	return b.ID, true
}

// pop removes the most recently added block.
func (gr *grower) pop() {
	last := len(gr.c.Blocks) - 1
	gr.c.engine.RemoveBody(gr.c.Blocks[last].Body)
	gr.c.Blocks = gr.c.Blocks[:last]
	gr.c.genome.Blocks = gr.c.genome.Blocks[:last]
}

// arm attaches rules to a placed block and opens its slots.
func (gr *grower) arm(id int) {
	b := gr.c.genome.Block(id)
	b.Neurons = gr.gen.randomNeurons(gr.rng, gr.c.Blocks[id].MaxImpulse)
	gr.front.add(id)
}

func (Random) Name() string { return config.StrategyRandom }

func (Random) target(n, _, _ int) int { return n }

func (Random) grow(gr *grower, _ int) bool {
	slot := gr.front.take(gr.rng)
	id, ok := gr.add(gr.propose(slot))
	if ok {
		gr.arm(id)
	}
	return true
}

func (Mirrored) Name() string { return config.StrategyMirrored }

func (Mirrored) target(n, _, hi int) int {
	if n%2 == 1 {
		return n
	}
	if n+1 <= hi {
		return n + 1
	}
	return n - 1
}

func (Mirrored) grow(gr *grower, remaining int) bool {
	if remaining < 2 {
		return false
	}
	slot := gr.front.take(gr.rng)
	ms, me, flip := reflectX(slot.Surface, slot.Edge)
	mslot := EdgeSlot{Block: gr.mirror[slot.Block], Surface: ms, Edge: me}
	if mslot != slot {
		gr.front.remove(mslot)
	}

	first := gr.propose(slot)
	second := reflect(first, mslot, flip)
	Reattach(&second, gr.c.genome.Block(mslot.Block).Size)

	a, ok := gr.add(first)
	if !ok {
		return true
	}
	b, ok := gr.add(second)
	if !ok {
		gr.pop()
		return true
	}
	gr.mirror = append(gr.mirror, b, a)

	gr.arm(a)
	rules := gr.c.genome.Block(a).Neurons
	mirrored := make([]neural.Neuron, len(rules))
	for i, n := range rules {
		mirrored[i] = n.Mirror()
	}
	gr.c.genome.Block(b).Neurons = mirrored
	gr.front.add(b)
	return true
}

// reflect returns b mirrored across X = 0 and attached to mslot.
func reflect(b genome.Block, mslot EdgeSlot, flip bool) genome.Block {
	m := b
	m.Parent = mslot.Block
	m.ParentSurface = mslot.Surface
	m.Edge = mslot.Edge
	if flip {
		m.ParentOffset = -m.ParentOffset
	}
	cs, ce, cflip := reflectX(b.ChildSurface, b.ChildEdge)
	m.ChildSurface = cs
	m.ChildEdge = ce
	if cflip {
		m.ChildOffset = -m.ChildOffset
	}
	m.Neurons = nil
	return m
}
