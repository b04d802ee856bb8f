// Package genome defines the serializable description of a creature: its
// block tree and the rule tables attached to each joint.
package genome

import (
	"errors"
	"fmt"
	"math"

	"gonum.org/v1/gonum/spatial/r3"

	"github.com/pthm-cable/creatures/neural"
)

// NoParent is the parent id of the root block.
const NoParent = -1

// Block size limits. Sizes are half-extents in meters.
const (
	MinHalfExtent = 0.5
	MaxAspect     = 10.0
)

var (
	ErrEmpty       = errors.New("genome has no blocks")
	ErrInvalidSize = errors.New("block dimension below minimum")
	ErrSizeRatio   = errors.New("block size ratio exceeded")
	ErrRoot        = errors.New("genome must have exactly one root at id 0")
	ErrParentOrder = errors.New("parent id must precede block id")
	ErrBlockID     = errors.New("block id does not match its index")
)

// Block describes one rigid box and the hinge joining it to its parent.
// Pivots and axis are expressed in the unrotated local frame of the block
// they belong to; the axis is in the parent's frame.
type Block struct {
	ID     int    `json:"id"`
	Parent int    `json:"parent"`
	Size   r3.Vec `json:"size"`

	ParentPivot   r3.Vec  `json:"parent_pivot"`
	ChildPivot    r3.Vec  `json:"child_pivot"`
	Axis          r3.Vec  `json:"axis"`
	ParentSurface int     `json:"parent_surface"`
	ChildSurface  int     `json:"child_surface"`
	Edge          int     `json:"edge"`
	ChildEdge     int     `json:"child_edge"`
	ParentOffset  float64 `json:"parent_offset"` // along-edge position, fraction of half-extent
	ChildOffset   float64 `json:"child_offset"`

	Neurons []neural.Neuron `json:"neurons,omitempty"`
}

// IsRoot reports whether the block has no parent.
func (b *Block) IsRoot() bool {
	return b.Parent == NoParent
}

// Genome is an ordered list of blocks (index = id) and the fitness recorded
// for it. Only Fitness and Evaluated change after evaluation.
type Genome struct {
	Blocks    []Block `json:"blocks"`
	Fitness   float64 `json:"fitness"`
	Evaluated bool    `json:"evaluated"`
}

// Len returns the block count.
func (g *Genome) Len() int {
	return len(g.Blocks)
}

// Root returns the root block.
func (g *Genome) Root() *Block {
	return &g.Blocks[0]
}

// Block returns the block with the given id. Panics on an invalid id.
func (g *Genome) Block(id int) *Block {
	if id < 0 || id >= len(g.Blocks) {
		panic(fmt.Sprintf("genome: block id %d out of range [0,%d)", id, len(g.Blocks)))
	}
	return &g.Blocks[id]
}

// SetFitness records the evaluated fitness.
func (g *Genome) SetFitness(f float64) {
	g.Fitness = f
	g.Evaluated = true
}

// ValidateSize checks the half-extent constraints of a single block.
func ValidateSize(size r3.Vec) error {
	lo := math.Min(size.X, math.Min(size.Y, size.Z))
	hi := math.Max(size.X, math.Max(size.Y, size.Z))
	if lo < MinHalfExtent {
		return fmt.Errorf("%w: %.3f < %.1f", ErrInvalidSize, lo, MinHalfExtent)
	}
	if hi > MaxAspect*lo {
		return fmt.Errorf("%w: %.3f > %.0f x %.3f", ErrSizeRatio, hi, MaxAspect, lo)
	}
	return nil
}

// ClampSize returns the nearest size that satisfies ValidateSize.
func ClampSize(size r3.Vec) r3.Vec {
	size.X = math.Max(size.X, MinHalfExtent)
	size.Y = math.Max(size.Y, MinHalfExtent)
	size.Z = math.Max(size.Z, MinHalfExtent)
	lo := math.Min(size.X, math.Min(size.Y, size.Z))
	hi := lo * MaxAspect
	size.X = math.Min(size.X, hi)
	size.Y = math.Min(size.Y, hi)
	size.Z = math.Min(size.Z, hi)
	return size
}

// Validate checks the structural invariants: one root at id 0, ids matching
// indices, parents preceding children, valid sizes and neuron slots.
func (g *Genome) Validate() error {
	if len(g.Blocks) == 0 {
		return ErrEmpty
	}
	for i := range g.Blocks {
		b := &g.Blocks[i]
		if b.ID != i {
			return fmt.Errorf("block %d: %w (id %d)", i, ErrBlockID, b.ID)
		}
		switch {
		case i == 0 && !b.IsRoot():
			return fmt.Errorf("block 0: %w", ErrRoot)
		case i > 0 && b.IsRoot():
			return fmt.Errorf("block %d: %w", i, ErrRoot)
		case i > 0 && (b.Parent < 0 || b.Parent >= i):
			return fmt.Errorf("block %d: %w (parent %d)", i, ErrParentOrder, b.Parent)
		}
		if err := ValidateSize(b.Size); err != nil {
			return fmt.Errorf("block %d: %w", i, err)
		}
		for j := range b.Neurons {
			if err := b.Neurons[j].Validate(); err != nil {
				return fmt.Errorf("block %d neuron %d: %w", i, j, err)
			}
		}
	}
	return nil
}

// Clone returns a deep copy with the fitness cleared.
func (g *Genome) Clone() *Genome {
	c := &Genome{Blocks: make([]Block, len(g.Blocks))}
	for i, b := range g.Blocks {
		b.Neurons = append([]neural.Neuron(nil), b.Neurons...)
		c.Blocks[i] = b
	}
	return c
}

// NeuronCount returns the total number of rules in the genome.
func (g *Genome) NeuronCount() int {
	n := 0
	for i := range g.Blocks {
		n += len(g.Blocks[i].Neurons)
	}
	return n
}
