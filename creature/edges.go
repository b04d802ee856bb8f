package creature

import (
	"math"
	"math/rand"

	"gonum.org/v1/gonum/spatial/r3"
)

// Surface and edge counts of a box.
const (
	NumSurfaces = 6
	NumEdges    = 4
	SlotsPerBox = NumSurfaces * NumEdges
)

// Surfaces are numbered +X, -X, +Y, -Y, +Z, -Z. Each surface has four edges:
// 0 and 1 lie at the positive and negative end of the face's first in-plane
// axis, 2 and 3 at the ends of the second.

// EdgeSlot names one candidate attachment location on a block.
type EdgeSlot struct {
	Block   int
	Surface int
	Edge    int
}

// CorrespondingChildSurface returns the child surface that mates with a parent
// surface: the opposite face on the same axis.
func CorrespondingChildSurface(s int) int {
	return s ^ 1
}

// ChildEdge picks the child edge for a parent edge: one of the two edges of
// the same parity, chosen at random.
func ChildEdge(rng *rand.Rand, e int) int {
	return e%2 + 2*rng.Intn(2)
}

// faceAxis returns the axis (0=X, 1=Y, 2=Z) and outward sign of a surface.
func faceAxis(s int) (axis int, sign float64) {
	sign = 1
	if s%2 == 1 {
		sign = -1
	}
	return s / 2, sign
}

// edgeAxes returns the axis an edge is pinned to, its sign, and the free axis
// the edge runs along.
func edgeAxes(s, e int) (fixed int, sign float64, free int) {
	a, _ := faceAxis(s)
	u, v := (a+1)%3, (a+2)%3
	sign = 1
	if e%2 == 1 {
		sign = -1
	}
	if e < 2 {
		return u, sign, v
	}
	return v, sign, u
}

// SurfacePoint maps a surface/edge pair to a point on a box of half-extent
// half. The point sits on the face, on the edge, and at offset t along the
// edge, where t is a fraction of the half-extent clamped to [-1, 1].
func SurfacePoint(half r3.Vec, s, e int, t float64) r3.Vec {
	a, faceSign := faceAxis(s)
	fixed, edgeSign, free := edgeAxes(s, e)
	t = math.Max(-1, math.Min(1, t))

	var p [3]float64
	h := [3]float64{half.X, half.Y, half.Z}
	p[a] = faceSign * h[a]
	p[fixed] = edgeSign * h[fixed]
	p[free] = t * h[free]
	return r3.Vec{X: p[0], Y: p[1], Z: p[2]}
}

// HingeAxis returns the unit direction an edge runs along.
func HingeAxis(s, e int) r3.Vec {
	_, _, free := edgeAxes(s, e)
	return unitAxis(free)
}

func unitAxis(i int) r3.Vec {
	switch i {
	case 0:
		return r3.Vec{X: 1}
	case 1:
		return r3.Vec{Y: 1}
	}
	return r3.Vec{Z: 1}
}

// SurfaceArea returns the total surface area of a box with half-extent half.
func SurfaceArea(half r3.Vec) float64 {
	return 8 * (half.X*half.Y + half.Y*half.Z + half.X*half.Z)
}

// slotsFor returns the 24 slots of a block.
func slotsFor(id int) []EdgeSlot {
	slots := make([]EdgeSlot, 0, SlotsPerBox)
	for s := 0; s < NumSurfaces; s++ {
		for e := 0; e < NumEdges; e++ {
			slots = append(slots, EdgeSlot{Block: id, Surface: s, Edge: e})
		}
	}
	return slots
}

// reflectX mirrors a surface/edge pair across the X = 0 plane. The second
// return value reports whether the edge's free axis is X, in which case the
// along-edge offset must be negated too.
func reflectX(s, e int) (int, int, bool) {
	a, _ := faceAxis(s)
	if a == 0 {
		return s ^ 1, e, false
	}
	fixed, _, free := edgeAxes(s, e)
	if fixed == 0 {
		return s, e ^ 1, false
	}
	return s, e, free == 0
}

// frontier is the set of unused edge slots.
type frontier struct {
	slots []EdgeSlot
}

func (f *frontier) add(id int) {
	f.slots = append(f.slots, slotsFor(id)...)
}

func (f *frontier) len() int {
	return len(f.slots)
}

// take removes and returns a uniformly chosen slot.
func (f *frontier) take(rng *rand.Rand) EdgeSlot {
	i := rng.Intn(len(f.slots))
	s := f.slots[i]
	f.removeAt(i)
	return s
}

// remove deletes slot s if present.
func (f *frontier) remove(s EdgeSlot) bool {
	for i, o := range f.slots {
		if o == s {
			f.removeAt(i)
			return true
		}
	}
	return false
}

func (f *frontier) removeAt(i int) {
	last := len(f.slots) - 1
	f.slots[i] = f.slots[last]
	f.slots = f.slots[:last]
}
