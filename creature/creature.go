// Package creature grows block creatures and instantiates genomes in a
// physics engine.
//
// A Creature is an arena: Blocks[i] is the live body of genome block i, the
// parent relation lives only in the genome as an index.
package creature

import (
	"math"

	"gonum.org/v1/gonum/spatial/r3"

	"github.com/pthm-cable/creatures/genome"
	"github.com/pthm-cable/creatures/neural"
	"github.com/pthm-cable/creatures/physics"
)

// groundContact is the height below which a block counts as touching the
// ground for sensed inputs.
const groundContact = 1e-3

// Block is the live state of one genome block.
type Block struct {
	Body       physics.BodyID
	Joint      physics.JointID // zero for the root
	MaxImpulse float64         // largest impulse the joint motor may apply
}

// Creature is a block tree instantiated in a physics engine.
type Creature struct {
	engine physics.Engine
	genome *genome.Genome

	Blocks []Block

	// Dropped counts genome blocks that could not be placed (overlap or
	// descendant of an overlapping block).
	Dropped int

	exhausted bool // growth ran out of edge slots before reaching its target
}

// Genome returns the genome the creature was built from, compacted if blocks
// were dropped.
func (c *Creature) Genome() *genome.Genome {
	return c.genome
}

// Len returns the number of live blocks.
func (c *Creature) Len() int {
	return len(c.Blocks)
}

// Engine returns the physics engine the creature lives in.
func (c *Creature) Engine() physics.Engine {
	return c.engine
}

// Root returns the root body.
func (c *Creature) Root() physics.BodyID {
	return c.Blocks[0].Body
}

// Lowest returns the minimum world height over all block bounding boxes.
func (c *Creature) Lowest() float64 {
	low := math.Inf(1)
	for i := range c.Blocks {
		low = math.Min(low, c.engine.Bounds(c.Blocks[i].Body).Min.Y)
	}
	return low
}

// Bounds returns the union of all block bounding boxes.
func (c *Creature) Bounds() r3.Box {
	box := c.engine.Bounds(c.Blocks[0].Body)
	for i := 1; i < len(c.Blocks); i++ {
		b := c.engine.Bounds(c.Blocks[i].Body)
		box.Min = r3.Vec{X: math.Min(box.Min.X, b.Min.X), Y: math.Min(box.Min.Y, b.Min.Y), Z: math.Min(box.Min.Z, b.Min.Z)}
		box.Max = r3.Vec{X: math.Max(box.Max.X, b.Max.X), Y: math.Max(box.Max.Y, b.Max.Y), Z: math.Max(box.Max.Z, b.Max.Z)}
	}
	return box
}

// Settle moves the creature vertically so its lowest point is at clearance.
func (c *Creature) Settle(clearance float64) {
	dy := clearance - c.Lowest()
	if dy != 0 {
		c.engine.Translate(c.Root(), r3.Vec{Y: dy})
	}
}

// Remove deletes every body and joint of the creature from the engine.
func (c *Creature) Remove() {
	for i := len(c.Blocks) - 1; i >= 0; i-- {
		c.engine.RemoveBody(c.Blocks[i].Body)
	}
	c.Blocks = nil
}

// Sensor returns the rule input source for block i at the given elapsed
// simulation time.
func (c *Creature) Sensor(i int, elapsed float64) Sensor {
	return Sensor{c: c, block: i, elapsed: elapsed}
}

// Sensor resolves time and sensed inputs for one block.
type Sensor struct {
	c       *Creature
	block   int
	elapsed float64
}

var _ neural.Sensor = Sensor{}

// Elapsed returns the simulation time.
func (s Sensor) Elapsed() float64 {
	return s.elapsed
}

// Sense returns the current value of a sensed input.
func (s Sensor) Sense(t neural.InputType) float64 {
	b := s.c.Blocks[s.block]
	switch t {
	case neural.InputJointAngle:
		if b.Joint.IsZero() {
			return 0
		}
		return s.c.engine.JointAngle(b.Joint)
	case neural.InputBlockHeight:
		return s.c.engine.Bounds(b.Body).Min.Y
	case neural.InputGroundContact:
		if s.c.engine.Bounds(b.Body).Min.Y <= groundContact {
			return 1
		}
	}
	return 0
}
