package physics

import (
	"github.com/mlange-42/ark/ecs"
	"gonum.org/v1/gonum/spatial/r3"
)

// Box is a body's collision shape.
type Box struct {
	Half r3.Vec
}

// Pose is a body's world transform. Root is the body at the top of the
// assembly (itself for unjointed bodies).
type Pose struct {
	Pos  r3.Vec
	Rot  r3.Rotation
	Root ecs.Entity
}

// Motion holds the linear state of an assembly. Only the root's Motion is
// integrated; the rest of the assembly follows by forward kinematics.
type Motion struct {
	Vel   r3.Vec
	Awake bool
	Idle  float64 // seconds spent at rest
}

// Hinge is a single-axis joint with limits and a motor.
type Hinge struct {
	Parent, Child ecs.Entity

	PivotParent r3.Vec
	PivotChild  r3.Vec
	Axis        r3.Vec

	Lo, Hi float64
	Angle  float64
	Speed  float64

	Motor      bool
	MotorSpeed float64
	MaxImpulse float64
}

// identity is the zero rotation.
var identity = r3.Rotation{Real: 1}
