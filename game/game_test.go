package game

import (
	"context"
	"math"
	"os"
	"path/filepath"
	"testing"

	"gonum.org/v1/gonum/spatial/r3"

	"github.com/pthm-cable/creatures/config"
	"github.com/pthm-cable/creatures/telemetry"
)

func testConfig(t *testing.T) *config.Config {
	t.Helper()
	cfg := config.Default()
	cfg.Population.Size = 4
	cfg.Evaluation.Seconds = 0.25
	cfg.HillClimb.Attempts = 1
	cfg.Telemetry.LogGenerations = false
	cfg.Telemetry.SaveEvery = 1
	if err := cfg.Finalize(); err != nil {
		t.Fatal(err)
	}
	return cfg
}

func TestAxisAngle(t *testing.T) {
	tests := []struct {
		name  string
		rot   r3.Rotation
		axis  r3.Vec
		angle float64
	}{
		{"identity", r3.NewRotation(0, r3.Vec{Y: 1}), r3.Vec{X: 1}, 0},
		{"quarter turn about Y", r3.NewRotation(math.Pi/2, r3.Vec{Y: 1}), r3.Vec{Y: 1}, math.Pi / 2},
		{"half turn about Z", r3.NewRotation(math.Pi, r3.Vec{Z: 1}), r3.Vec{Z: 1}, math.Pi},
		{"negative angle flips axis", r3.NewRotation(-math.Pi/3, r3.Vec{X: 1}), r3.Vec{X: -1}, math.Pi / 3},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			axis, angle := axisAngle(tt.rot)
			if math.Abs(angle-tt.angle) > 1e-9 {
				t.Errorf("angle = %v, want %v", angle, tt.angle)
			}
			if r3.Norm(r3.Sub(axis, tt.axis)) > 1e-9 {
				t.Errorf("axis = %v, want %v", axis, tt.axis)
			}
		})
	}
}

func TestAxisAngle_RotatesLikeQuaternion(t *testing.T) {
	rot := r3.NewRotation(1.1, r3.Unit(r3.Vec{X: 1, Y: 2, Z: -0.5}))
	axis, angle := axisAngle(rot)
	v := r3.Vec{X: 0.3, Y: -1, Z: 2}

	want := rot.Rotate(v)
	got := r3.NewRotation(angle, axis).Rotate(v)
	if r3.Norm(r3.Sub(got, want)) > 1e-9 {
		t.Errorf("rebuilt rotation maps %v to %v, want %v", v, got, want)
	}
}

func TestColorFor(t *testing.T) {
	if colorFor(0, 2) != rootColor {
		t.Error("root should always use the root color")
	}
	if colorFor(3, -1) != blockColor {
		t.Error("idle block should use the block color")
	}
	if colorFor(3, 0) != firedColor {
		t.Error("block whose rule fired should use the fired color")
	}
}

func TestWrapIndex(t *testing.T) {
	tests := []struct {
		i, n, want int
	}{
		{0, 5, 0},
		{5, 5, 0},
		{-1, 5, 4},
		{-6, 5, 4},
		{7, 5, 2},
		{3, 0, 0},
	}
	for _, tt := range tests {
		if got := wrapIndex(tt.i, tt.n); got != tt.want {
			t.Errorf("wrapIndex(%d, %d) = %d, want %d", tt.i, tt.n, got, tt.want)
		}
	}
}

func TestBoxHelpers(t *testing.T) {
	b := r3.Box{Min: r3.Vec{X: -1, Y: 0, Z: -2}, Max: r3.Vec{X: 1, Y: 2, Z: 2}}
	if c := r3Center(b); c != (r3.Vec{X: 0, Y: 1, Z: 0}) {
		t.Errorf("r3Center = %v", c)
	}
	if d := halfDiagonal(b); math.Abs(d-math.Sqrt(24)/2) > 1e-12 {
		t.Errorf("halfDiagonal = %v", d)
	}
}

func TestHeadlessRun_WritesOutput(t *testing.T) {
	cfg := testConfig(t)
	dir := t.TempDir()

	g, err := NewGameWithOptions(cfg, Options{Seed: 42, OutputDir: dir, Headless: true})
	if err != nil {
		t.Fatal(err)
	}
	for i := 0; i < 2; i++ {
		if err := g.UpdateHeadless(context.Background()); err != nil {
			t.Fatal(err)
		}
	}
	if g.Generation() != 2 {
		t.Errorf("Generation() = %d, want 2", g.Generation())
	}
	if g.Best() == nil {
		t.Error("Best() = nil after two generations")
	}
	g.Unload()

	for _, name := range []string{"config.yaml", "generations.csv", "strands.csv", "perf.csv", "bookmarks.csv", "hall_of_fame.json"} {
		if _, err := os.Stat(filepath.Join(dir, name)); err != nil {
			t.Errorf("missing %s: %v", name, err)
		}
	}

	snaps, err := filepath.Glob(filepath.Join(dir, "snapshots", "population_*.json"))
	if err != nil {
		t.Fatal(err)
	}
	if len(snaps) != 2 {
		t.Fatalf("got %d snapshots, want 2", len(snaps))
	}

	snap, err := telemetry.LoadPopulation(snaps[0])
	if err != nil {
		t.Fatal(err)
	}
	resumed, err := NewGameWithOptions(cfg, Options{Seed: 7, Resume: snap, Headless: true})
	if err != nil {
		t.Fatal(err)
	}
	defer resumed.Unload()
	if resumed.Generation() != snap.Generation {
		t.Errorf("resumed at generation %d, want %d", resumed.Generation(), snap.Generation)
	}
	if resumed.Population().Size() != cfg.Population.Size {
		t.Errorf("resumed population has %d strands", resumed.Population().Size())
	}
}

func TestSetSpeed_Clamps(t *testing.T) {
	g := &Game{speed: MinSpeed}
	g.setSpeed(MaxSpeed + 5)
	if g.speed != MaxSpeed {
		t.Errorf("speed = %d, want %d", g.speed, MaxSpeed)
	}
	g.setSpeed(0)
	if g.speed != MinSpeed {
		t.Errorf("speed = %d, want %d", g.speed, MinSpeed)
	}
}
