package camera

import (
	"math"
	"testing"

	"gonum.org/v1/gonum/spatial/r3"
)

func TestNew(t *testing.T) {
	cam := New(20)

	if cam.Target != (r3.Vec{}) {
		t.Errorf("expected target at origin, got %v", cam.Target)
	}
	if cam.Distance != 20 {
		t.Errorf("expected distance 20, got %f", cam.Distance)
	}
}

func TestPositionDistance(t *testing.T) {
	cam := New(15)
	cam.Target = r3.Vec{X: 3, Y: 1, Z: -2}

	for _, yaw := range []float64{0, 1, 2.5, -1} {
		cam.Yaw = yaw
		d := r3.Norm(r3.Sub(cam.Position(), cam.Target))
		if math.Abs(d-15) > 1e-9 {
			t.Errorf("yaw %v: eye is %v from target, want 15", yaw, d)
		}
	}
}

func TestPositionAboveGround(t *testing.T) {
	cam := New(10)
	cam.Orbit(0, -10) // try to go below the ground

	if cam.Pitch != cam.MinPitch {
		t.Errorf("pitch %v not clamped to %v", cam.Pitch, cam.MinPitch)
	}
	if cam.Position().Y <= cam.Target.Y {
		t.Errorf("eye at %v is not above target", cam.Position())
	}
}

func TestZoomClamped(t *testing.T) {
	tests := []struct {
		name   string
		factor float64
		want   float64
	}{
		{"closer", 2, 10},
		{"too close", 100, 2},
		{"too far", 0.001, 200},
		{"ignored", 0, 20},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cam := New(20)
			cam.ZoomBy(tt.factor)
			if math.Abs(cam.Distance-tt.want) > 1e-9 {
				t.Errorf("distance = %v, want %v", cam.Distance, tt.want)
			}
		})
	}
}

func TestFollowConverges(t *testing.T) {
	cam := New(20)
	goal := r3.Vec{X: 10, Y: 2, Z: -4}

	prev := r3.Norm(r3.Sub(goal, cam.Target))
	for i := 0; i < 200; i++ {
		cam.Follow(goal)
		d := r3.Norm(r3.Sub(goal, cam.Target))
		if d > prev {
			t.Fatalf("step %d: moved away from target", i)
		}
		prev = d
	}
	if prev > 1e-6 {
		t.Errorf("target %v did not converge to %v", cam.Target, goal)
	}

	cam.Smoothing = 1
	cam.Follow(r3.Vec{})
	if cam.Target != (r3.Vec{}) {
		t.Errorf("smoothing 1 should snap, got %v", cam.Target)
	}
}

func TestFrame(t *testing.T) {
	cam := New(20)
	cam.Frame(5, 45)

	// The framed box must fit inside the vertical field of view
	half := 45.0 / 2 * math.Pi / 180
	if cam.Distance*math.Tan(half) < 5 {
		t.Errorf("distance %v too close to frame half-diagonal 5", cam.Distance)
	}
}

func TestReset(t *testing.T) {
	cam := New(20)
	cam.Orbit(1, 0.3)
	cam.ZoomBy(3)
	cam.Target = r3.Vec{X: 5}

	cam.Reset(20)
	fresh := New(20)
	if *cam != *fresh {
		t.Errorf("reset camera %+v differs from new %+v", *cam, *fresh)
	}
}
