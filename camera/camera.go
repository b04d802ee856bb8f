// Package camera provides an orbit camera that follows a creature around
// the ground plane.
package camera

import (
	"math"

	"gonum.org/v1/gonum/spatial/r3"
)

// Camera orbits a target point. Y is up.
type Camera struct {
	// Target is the point looked at, in world coordinates
	Target r3.Vec

	// Yaw around the vertical axis and pitch above the ground, in radians
	Yaw, Pitch float64

	// Distance from the target
	Distance float64

	// Smoothing is the fraction of the remaining distance to a new target
	// covered per Follow call (1 = snap)
	Smoothing float64

	// Constraints
	MinDistance, MaxDistance float64
	MinPitch, MaxPitch       float64
}

// New creates a camera looking at the origin from distance.
func New(distance float64) *Camera {
	c := &Camera{
		Smoothing:   0.1,
		MinDistance: 2,
		MaxDistance: 200,
		MinPitch:    0.05,
		MaxPitch:    math.Pi/2 - 0.05,
	}
	c.defaults(distance)
	return c
}

func (c *Camera) defaults(distance float64) {
	c.Target = r3.Vec{}
	c.Yaw = math.Pi / 4
	c.Pitch = math.Pi / 6
	c.Distance = clamp(distance, c.MinDistance, c.MaxDistance)
}

// Position returns the eye position in world coordinates.
func (c *Camera) Position() r3.Vec {
	cp := math.Cos(c.Pitch)
	offset := r3.Vec{
		X: c.Distance * cp * math.Sin(c.Yaw),
		Y: c.Distance * math.Sin(c.Pitch),
		Z: c.Distance * cp * math.Cos(c.Yaw),
	}
	return r3.Add(c.Target, offset)
}

// Follow moves the target toward p by the smoothing fraction. Height is
// followed too so tall creatures stay framed.
func (c *Camera) Follow(p r3.Vec) {
	s := clamp(c.Smoothing, 0, 1)
	c.Target = r3.Add(c.Target, r3.Scale(s, r3.Sub(p, c.Target)))
}

// Orbit rotates the camera by the given yaw and pitch deltas in radians.
func (c *Camera) Orbit(dYaw, dPitch float64) {
	c.Yaw = math.Mod(c.Yaw+dYaw, 2*math.Pi)
	c.Pitch = clamp(c.Pitch+dPitch, c.MinPitch, c.MaxPitch)
}

// SetDistance sets the orbit distance, clamped to min/max.
func (c *Camera) SetDistance(d float64) {
	c.Distance = clamp(d, c.MinDistance, c.MaxDistance)
}

// ZoomBy divides the current distance by factor (factor > 1 moves closer).
func (c *Camera) ZoomBy(factor float64) {
	if factor <= 0 {
		return
	}
	c.SetDistance(c.Distance / factor)
}

// Frame sets the distance so a box of the given half-diagonal fits a view
// with the given vertical field of view (degrees).
func (c *Camera) Frame(halfDiagonal, fovy float64) {
	half := fovy / 2 * math.Pi / 180
	if half <= 0 || halfDiagonal <= 0 {
		return
	}
	c.SetDistance(1.5 * halfDiagonal / math.Tan(half))
}

// Reset returns the camera to the default angles at distance.
func (c *Camera) Reset(distance float64) {
	c.defaults(distance)
}

// clamp restricts a value to a range.
func clamp(x, min, max float64) float64 {
	if x < min {
		return min
	}
	if x > max {
		return max
	}
	return x
}
