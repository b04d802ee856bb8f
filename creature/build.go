package creature

import (
	"fmt"

	"gonum.org/v1/gonum/spatial/r3"

	"github.com/pthm-cable/creatures/config"
	"github.com/pthm-cable/creatures/genome"
	"github.com/pthm-cable/creatures/physics"
)

// Options are the placement parameters shared by Build and the Generator.
type Options struct {
	JointLimit     float64 // symmetric hinge limit, radians
	SpawnClearance float64 // height of the lowest point after settling
	ImpulsePerArea float64 // max joint impulse per unit of parent surface area
}

// NewOptions extracts placement options from a config.
func NewOptions(cfg *config.Config) Options {
	return Options{
		JointLimit:     cfg.Morphology.JointLimit,
		SpawnClearance: cfg.Morphology.SpawnClearance,
		ImpulsePerArea: cfg.Neural.ImpulsePerArea,
	}
}

// MaxImpulse returns the impulse available to a joint whose parent has
// half-extent parentHalf.
func (o Options) MaxImpulse(parentHalf r3.Vec) float64 {
	return o.ImpulsePerArea * SurfaceArea(parentHalf)
}

// Build instantiates g in e and settles it on the ground. A block that
// intersects any placed block other than its parent is dropped with its
// subtree; the creature's genome is then a compacted copy of g.
//
// Structural errors wrap the genome sentinels and leave the engine untouched.
func Build(e physics.Engine, g *genome.Genome, opts Options) (*Creature, error) {
	if err := g.Validate(); err != nil {
		return nil, fmt.Errorf("build creature: %w", err)
	}

	root := g.Root()
	c := &Creature{engine: e, genome: g}
	c.Blocks = make([]Block, 0, g.Len())
	c.Blocks = append(c.Blocks, Block{Body: e.AddBox(root.Size, r3.Vec{Y: root.Size.Y})})

	keep := make([]bool, g.Len())
	keep[0] = true
	index := make([]int, g.Len()) // genome id -> c.Blocks index
	for i := 1; i < g.Len(); i++ {
		b := g.Block(i)
		index[i] = -1
		if !keep[b.Parent] {
			c.Dropped++
			continue
		}
		lb, ok := c.place(b, index[b.Parent], g.Block(b.Parent).Size, opts)
		if !ok {
			c.Dropped++
			continue
		}
		keep[i] = true
		index[i] = len(c.Blocks)
		c.Blocks = append(c.Blocks, lb)
	}

	if c.Dropped > 0 {
		c.genome = g.Compact(keep)
	}
	c.Settle(opts.SpawnClearance)
	return c, nil
}

// place adds one block jointed to c.Blocks[parent]. The block is removed
// again and ok is false if it overlaps a placed block other than its parent.
func (c *Creature) place(b *genome.Block, parent int, parentHalf r3.Vec, opts Options) (Block, bool) {
	e := c.engine
	pb := c.Blocks[parent].Body
	body := e.AddBox(b.Size, r3.Vec{})
	joint := e.AddHinge(pb, body, b.ParentPivot, b.ChildPivot, b.Axis, -opts.JointLimit, opts.JointLimit)

	for i := range c.Blocks {
		if i == parent {
			continue
		}
		if e.Overlap(body, c.Blocks[i].Body) {
			e.RemoveBody(body)
			return Block{}, false
		}
	}
	return Block{Body: body, Joint: joint, MaxImpulse: opts.MaxImpulse(parentHalf)}, true
}
