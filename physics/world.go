package physics

import (
	"fmt"
	"math"

	"github.com/mlange-42/ark/ecs"
	"gonum.org/v1/gonum/num/quat"
	"gonum.org/v1/gonum/spatial/r3"
)

// Config holds the world's physical constants.
type Config struct {
	Gravity      float64 // m/s^2, pulls along -Y
	Density      float64 // mass per cubic meter of box volume
	GroundKick   float64 // fraction of ground penetration converted to upward velocity
	Friction     float64 // horizontal velocity lost per second while grounded
	JointDamping float64 // hinge speed lost per second with the motor off
	SleepSpeed   float64 // assemblies slower than this may fall asleep
	SleepTime    float64 // seconds at rest before sleeping (0 = never sleep)
	Epsilon      float64 // overlap tolerance for touching faces
}

// DefaultConfig returns earth-like defaults.
func DefaultConfig() Config {
	return Config{
		Gravity:      9.81,
		Density:      1.0,
		GroundKick:   0.6,
		Friction:     4.0,
		JointDamping: 2.0,
		SleepSpeed:   0.05,
		SleepTime:    2.0,
		Epsilon:      1e-6,
	}
}

// World is an articulated rigid-body world. Bodies and hinges are ECS
// entities; hinges are solved in creation order, so a parent must be jointed
// before its children.
type World struct {
	cfg   Config
	world *ecs.World

	bodies     *ecs.Map3[Box, Pose, Motion]
	boxMap     *ecs.Map[Box]
	poseMap    *ecs.Map[Pose]
	motionMap  *ecs.Map[Motion]
	hingeMap   *ecs.Map[Hinge]
	bodyFilter *ecs.Filter3[Box, Pose, Motion]

	joints []ecs.Entity

	// scratch, reused across steps
	lowest map[ecs.Entity]float64
	moving map[ecs.Entity]bool
}

// NewWorld creates an empty world.
func NewWorld(cfg Config) *World {
	w := ecs.NewWorld()
	return &World{
		cfg:        cfg,
		world:      w,
		bodies:     ecs.NewMap3[Box, Pose, Motion](w),
		boxMap:     ecs.NewMap[Box](w),
		poseMap:    ecs.NewMap[Pose](w),
		motionMap:  ecs.NewMap[Motion](w),
		hingeMap:   ecs.NewMap[Hinge](w),
		bodyFilter: ecs.NewFilter3[Box, Pose, Motion](w),
		lowest:     make(map[ecs.Entity]float64),
		moving:     make(map[ecs.Entity]bool),
	}
}

// AddBox creates a resting, awake body.
func (w *World) AddBox(half, pos r3.Vec) BodyID {
	box := Box{Half: half}
	pose := Pose{Pos: pos, Rot: identity}
	motion := Motion{Awake: true}
	e := w.bodies.NewEntity(&box, &pose, &motion)
	w.poseMap.Get(e).Root = e
	return BodyID{e}
}

// AddHinge joins child to parent and moves child into the rest pose implied
// by the pivots.
func (w *World) AddHinge(parent, child BodyID, pivotParent, pivotChild, axis r3.Vec, lo, hi float64) JointID {
	w.mustBody(parent)
	w.mustBody(child)

	h := Hinge{
		Parent:      parent.e,
		Child:       child.e,
		PivotParent: pivotParent,
		PivotChild:  pivotChild,
		Axis:        r3.Unit(axis),
		Lo:          lo,
		Hi:          hi,
	}
	e := w.hingeMap.NewEntity(&h)
	w.joints = append(w.joints, e)

	pp := w.poseMap.Get(parent.e)
	cp := w.poseMap.Get(child.e)
	cp.Root = pp.Root
	w.solve(&h)
	return JointID{e}
}

// RemoveBody deletes b and all joints touching it.
func (w *World) RemoveBody(b BodyID) {
	w.mustBody(b)
	kept := w.joints[:0]
	var doomed []ecs.Entity
	for _, j := range w.joints {
		h := w.hingeMap.Get(j)
		if h.Parent == b.e || h.Child == b.e {
			doomed = append(doomed, j)
			continue
		}
		kept = append(kept, j)
	}
	w.joints = kept
	for _, j := range doomed {
		w.world.RemoveEntity(j)
	}
	w.world.RemoveEntity(b.e)
}

// Translate shifts every body in b's assembly.
func (w *World) Translate(b BodyID, delta r3.Vec) {
	root := w.poseMap.Get(w.mustBody(b)).Root
	query := w.bodyFilter.Query()
	for query.Next() {
		_, pose, _ := query.Get()
		if pose.Root == root {
			pose.Pos = r3.Add(pose.Pos, delta)
		}
	}
}

// Bounds returns the world AABB of b.
func (w *World) Bounds(b BodyID) r3.Box {
	e := w.mustBody(b)
	return aabb(w.boxMap.Get(e), w.poseMap.Get(e))
}

// Overlap reports strict AABB intersection; touching faces do not overlap.
func (w *World) Overlap(a, b BodyID) bool {
	return overlaps(w.Bounds(a), w.Bounds(b), w.cfg.Epsilon)
}

// SetMotor configures a hinge motor.
func (w *World) SetMotor(j JointID, enabled bool, speed, maxImpulse float64) {
	h := w.mustHinge(j)
	h.Motor = enabled
	h.MotorSpeed = speed
	h.MaxImpulse = maxImpulse
}

// JointAngle returns the hinge angle.
func (w *World) JointAngle(j JointID) float64 {
	return w.mustHinge(j).Angle
}

// Activate wakes b's assembly.
func (w *World) Activate(b BodyID) {
	root := w.poseMap.Get(w.mustBody(b)).Root
	m := w.motionMap.Get(root)
	m.Awake = true
	m.Idle = 0
}

// Awake reports whether b's assembly is simulated.
func (w *World) Awake(b BodyID) bool {
	root := w.poseMap.Get(w.mustBody(b)).Root
	return w.motionMap.Get(root).Awake
}

// Pose returns b's world position and orientation.
func (w *World) Pose(b BodyID) (r3.Vec, r3.Rotation) {
	p := w.poseMap.Get(w.mustBody(b))
	return p.Pos, p.Rot
}

// HalfExtent returns b's box half-extent.
func (w *World) HalfExtent(b BodyID) r3.Vec {
	return w.boxMap.Get(w.mustBody(b)).Half
}

// BodyCount returns the number of live bodies.
func (w *World) BodyCount() int {
	n := 0
	query := w.bodyFilter.Query()
	for query.Next() {
		n++
	}
	return n
}

// JointCount returns the number of live hinges.
func (w *World) JointCount() int {
	return len(w.joints)
}

// Step advances the world by dt: hinge motors, root integration, forward
// kinematics, then ground contact.
func (w *World) Step(dt float64) {
	clear(w.moving)
	for _, j := range w.joints {
		h := w.hingeMap.Get(j)
		root := w.poseMap.Get(h.Parent).Root
		if !w.motionMap.Get(root).Awake {
			continue
		}
		w.driveHinge(h, dt)
		if math.Abs(h.Speed) > w.cfg.SleepSpeed {
			w.moving[root] = true
		}
	}

	query := w.bodyFilter.Query()
	for query.Next() {
		_, pose, motion := query.Get()
		if pose.Root != query.Entity() || !motion.Awake {
			continue
		}
		motion.Vel.Y -= w.cfg.Gravity * dt
		pose.Pos = r3.Add(pose.Pos, r3.Scale(dt, motion.Vel))
	}

	for _, j := range w.joints {
		h := w.hingeMap.Get(j)
		if w.motionMap.Get(w.poseMap.Get(h.Parent).Root).Awake {
			w.solve(h)
		}
	}

	w.resolveGround(dt)
}

// driveHinge integrates one hinge's angle.
func (w *World) driveHinge(h *Hinge, dt float64) {
	if h.Motor {
		box := w.boxMap.Get(h.Child)
		maxDelta := h.MaxImpulse / w.inertia(box.Half)
		delta := h.MotorSpeed - h.Speed
		h.Speed += math.Max(-maxDelta, math.Min(maxDelta, delta))
	} else {
		h.Speed *= math.Max(0, 1-w.cfg.JointDamping*dt)
	}

	h.Angle += h.Speed * dt
	if h.Angle < h.Lo {
		h.Angle, h.Speed = h.Lo, 0
	}
	if h.Angle > h.Hi {
		h.Angle, h.Speed = h.Hi, 0
	}
}

// inertia approximates a box's moment of inertia about a hinge on its face.
func (w *World) inertia(half r3.Vec) float64 {
	mass := 8 * half.X * half.Y * half.Z * w.cfg.Density
	return math.Max(mass*r3.Dot(half, half)/3, 1e-6)
}

// solve places a hinge's child so both pivots coincide.
func (w *World) solve(h *Hinge) {
	pp := w.poseMap.Get(h.Parent)
	cp := w.poseMap.Get(h.Child)

	turn := r3.NewRotation(h.Angle, h.Axis)
	cp.Rot = r3.Rotation(quat.Mul(quat.Number(pp.Rot), quat.Number(turn)))

	pivot := r3.Add(pp.Pos, pp.Rot.Rotate(h.PivotParent))
	cp.Pos = r3.Sub(pivot, cp.Rot.Rotate(h.PivotChild))
}

// resolveGround lifts assemblies out of the ground plane and converts the
// penetration into upward velocity.
func (w *World) resolveGround(dt float64) {
	clear(w.lowest)
	query := w.bodyFilter.Query()
	for query.Next() {
		box, pose, _ := query.Get()
		y := aabb(box, pose).Min.Y
		if low, ok := w.lowest[pose.Root]; !ok || y < low {
			w.lowest[pose.Root] = y
		}
	}

	lift := make(map[ecs.Entity]float64)
	for root, low := range w.lowest {
		m := w.motionMap.Get(root)
		if !m.Awake {
			continue
		}
		grounded := low <= w.cfg.Epsilon
		if low < 0 {
			lift[root] = -low
			m.Vel.Y = math.Max(m.Vel.Y, w.cfg.GroundKick*(-low)/dt)
		}
		if grounded {
			damp := math.Max(0, 1-w.cfg.Friction*dt)
			m.Vel.X *= damp
			m.Vel.Z *= damp
		}
		w.updateSleep(root, m, grounded, dt)
	}
	if len(lift) == 0 {
		return
	}

	query = w.bodyFilter.Query()
	for query.Next() {
		_, pose, _ := query.Get()
		if dy, ok := lift[pose.Root]; ok {
			pose.Pos.Y += dy
		}
	}
}

// updateSleep puts a resting assembly to sleep after SleepTime seconds.
func (w *World) updateSleep(root ecs.Entity, m *Motion, grounded bool, dt float64) {
	if w.cfg.SleepTime <= 0 {
		return
	}
	resting := grounded && !w.moving[root] &&
		math.Abs(m.Vel.X) < w.cfg.SleepSpeed && math.Abs(m.Vel.Z) < w.cfg.SleepSpeed &&
		math.Abs(m.Vel.Y) < w.cfg.SleepSpeed+w.cfg.Gravity*dt
	if !resting {
		m.Idle = 0
		return
	}
	m.Idle += dt
	if m.Idle >= w.cfg.SleepTime {
		m.Awake = false
		m.Vel = r3.Vec{}
	}
}

func (w *World) mustBody(b BodyID) ecs.Entity {
	if b.e.IsZero() || !w.world.Alive(b.e) || !w.boxMap.Has(b.e) {
		panic(fmt.Sprintf("physics: invalid body %v", b.e))
	}
	return b.e
}

func (w *World) mustHinge(j JointID) *Hinge {
	if j.e.IsZero() || !w.world.Alive(j.e) || !w.hingeMap.Has(j.e) {
		panic(fmt.Sprintf("physics: invalid joint %v", j.e))
	}
	return w.hingeMap.Get(j.e)
}

// aabb computes the world bounding box of a rotated box.
func aabb(box *Box, pose *Pose) r3.Box {
	ax := pose.Rot.Rotate(r3.Vec{X: box.Half.X})
	ay := pose.Rot.Rotate(r3.Vec{Y: box.Half.Y})
	az := pose.Rot.Rotate(r3.Vec{Z: box.Half.Z})
	ext := r3.Vec{
		X: math.Abs(ax.X) + math.Abs(ay.X) + math.Abs(az.X),
		Y: math.Abs(ax.Y) + math.Abs(ay.Y) + math.Abs(az.Y),
		Z: math.Abs(ax.Z) + math.Abs(ay.Z) + math.Abs(az.Z),
	}
	return r3.Box{Min: r3.Sub(pose.Pos, ext), Max: r3.Add(pose.Pos, ext)}
}

// overlaps reports whether a and b intersect by more than eps on every axis.
func overlaps(a, b r3.Box, eps float64) bool {
	return a.Min.X < b.Max.X-eps && b.Min.X < a.Max.X-eps &&
		a.Min.Y < b.Max.Y-eps && b.Min.Y < a.Max.Y-eps &&
		a.Min.Z < b.Max.Z-eps && b.Min.Z < a.Max.Z-eps
}
