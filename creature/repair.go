package creature

import (
	"gonum.org/v1/gonum/spatial/r3"

	"github.com/pthm-cable/creatures/genome"
)

// Reattach recomputes b's pivots and hinge axis from its surface, edge and
// offset fields, for a parent of half-extent parentHalf.
func Reattach(b *genome.Block, parentHalf r3.Vec) {
	b.ParentSurface = clampIndex(b.ParentSurface, NumSurfaces)
	b.Edge = clampIndex(b.Edge, NumEdges)
	b.ChildSurface = CorrespondingChildSurface(b.ParentSurface)
	b.ChildEdge = clampIndex(b.ChildEdge, NumEdges)

	b.ParentPivot = SurfacePoint(parentHalf, b.ParentSurface, b.Edge, b.ParentOffset)
	b.ChildPivot = SurfacePoint(b.Size, b.ChildSurface, b.ChildEdge, b.ChildOffset)
	b.Axis = HingeAxis(b.ParentSurface, b.Edge)
}

// Repair restores the structural invariants of a genome assembled from
// pieces of others (crossover, mutation): ids match indices, parents precede
// children, sizes are valid and every joint is re-projected onto its possibly
// resized parent. Geometric overlaps are left to Build.
func Repair(g *genome.Genome) error {
	for i := range g.Blocks {
		b := &g.Blocks[i]
		b.ID = i
		b.Size = genome.ClampSize(b.Size)
		if i == 0 {
			b.Parent = genome.NoParent
			b.ParentPivot, b.ChildPivot, b.Axis = r3.Vec{}, r3.Vec{}, r3.Vec{}
			continue
		}
		if b.Parent < 0 || b.Parent >= i {
			b.Parent = i - 1
		}
	}
	for i := 1; i < len(g.Blocks); i++ {
		b := &g.Blocks[i]
		Reattach(b, g.Blocks[b.Parent].Size)
	}
	g.Fitness, g.Evaluated = 0, false
	return g.Validate()
}

func clampIndex(i, n int) int {
	if i < 0 {
		return 0
	}
	if i >= n {
		return n - 1
	}
	return i
}
