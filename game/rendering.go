package game

import (
	"math"

	rl "github.com/gen2brain/raylib-go/raylib"
	"gonum.org/v1/gonum/spatial/r3"
)

// Block colors
var (
	rootColor   = rl.Color{R: 220, G: 170, B: 80, A: 255}
	blockColor  = rl.Color{R: 90, G: 140, B: 200, A: 255}
	firedColor  = rl.Color{R: 120, G: 210, B: 120, A: 255}
	wireColor   = rl.Color{R: 20, G: 25, B: 30, A: 255}
	groundColor = rl.Color{R: 45, G: 50, B: 55, A: 255}
	skyColor    = rl.Color{R: 25, G: 30, B: 38, A: 255}
)

// colorFor returns the fill color of block i given the rule that fired for
// it on the last tick (-1 for none).
func colorFor(i, fired int) rl.Color {
	switch {
	case i == 0:
		return rootColor
	case fired >= 0:
		return firedColor
	}
	return blockColor
}

// axisAngle converts a rotation to a unit axis and an angle in radians in
// [0, pi]. The identity maps to the X axis with angle 0.
func axisAngle(q r3.Rotation) (r3.Vec, float64) {
	w, x, y, z := q.Real, q.Imag, q.Jmag, q.Kmag
	if n := math.Sqrt(w*w + x*x + y*y + z*z); n > 0 {
		w, x, y, z = w/n, x/n, y/n, z/n
	}
	if w < 0 {
		w, x, y, z = -w, -x, -y, -z
	}
	s := math.Sqrt(math.Max(0, 1-w*w))
	if s < 1e-9 {
		return r3.Vec{X: 1}, 0
	}
	return r3.Vec{X: x / s, Y: y / s, Z: z / s}, 2 * math.Acos(math.Min(w, 1))
}

// toVector3 converts a vector to raylib's float32 form.
func toVector3(v r3.Vec) rl.Vector3 {
	return rl.NewVector3(float32(v.X), float32(v.Y), float32(v.Z))
}

// r3Center returns the center of a box.
func r3Center(b r3.Box) r3.Vec {
	return r3.Scale(0.5, r3.Add(b.Min, b.Max))
}

// halfDiagonal returns half the length of a box's diagonal.
func halfDiagonal(b r3.Box) float64 {
	return 0.5 * r3.Norm(r3.Sub(b.Max, b.Min))
}
