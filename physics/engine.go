// Package physics provides the rigid-body collaborator the creature code
// drives: box bodies joined by motorized hinges over a ground plane at y=0.
package physics

import (
	"github.com/mlange-42/ark/ecs"
	"gonum.org/v1/gonum/spatial/r3"
)

// BodyID identifies a rigid body.
type BodyID struct{ e ecs.Entity }

// JointID identifies a hinge joint.
type JointID struct{ e ecs.Entity }

// IsZero reports whether the id was never assigned.
func (b BodyID) IsZero() bool { return b.e.IsZero() }

// IsZero reports whether the id was never assigned.
func (j JointID) IsZero() bool { return j.e.IsZero() }

// Engine is the set of physics capabilities the creature, controller and
// fitness code rely on.
type Engine interface {
	// AddBox creates a box body with the given half-extent centered at pos.
	AddBox(half, pos r3.Vec) BodyID
	// AddHinge joins child to parent. Pivots are in each body's local frame,
	// axis in the parent's. Angles are limited to [lo, hi].
	AddHinge(parent, child BodyID, pivotParent, pivotChild, axis r3.Vec, lo, hi float64) JointID
	// RemoveBody deletes a body and every joint attached to it.
	RemoveBody(b BodyID)
	// Translate moves the whole assembly containing b.
	Translate(b BodyID, delta r3.Vec)
	// Bounds returns the world axis-aligned bounding box of b.
	Bounds(b BodyID) r3.Box
	// Overlap reports whether the bounding boxes of a and b intersect.
	Overlap(a, b BodyID) bool
	// SetMotor configures a hinge motor.
	SetMotor(j JointID, enabled bool, speed, maxImpulse float64)
	// JointAngle returns the current hinge angle in radians.
	JointAngle(j JointID) float64
	// Activate wakes the assembly containing b.
	Activate(b BodyID)
	// Step advances the simulation by dt seconds.
	Step(dt float64)
}
