package game

import (
	"math"

	rl "github.com/gen2brain/raylib-go/raylib"
	"gonum.org/v1/gonum/spatial/r3"

	"github.com/pthm-cable/creatures/evolve"
	"github.com/pthm-cable/creatures/physics"
	"github.com/pthm-cable/creatures/ui"
)

const controlsText = "SPACE pause | , . speed | LEFT/RIGHT strand | B best | R replay | H hall of fame | I inspector | TAB controls | RMB orbit | wheel zoom | HOME reset"

// fovy is the vertical field of view in degrees.
const fovy = 45

// Draw renders the game state.
func (g *Game) Draw() {
	rl.BeginDrawing()
	rl.ClearBackground(skyColor)

	ev, world, strand := g.viewed()

	rl.BeginMode3D(g.camera3D())
	rl.DrawPlane(rl.NewVector3(0, 0, 0), rl.NewVector2(400, 400), groundColor)
	rl.DrawGrid(100, 2)
	if ev != nil {
		g.drawCreature(ev, world)
	}
	rl.EndMode3D()

	g.drawUI(ev, world, strand)

	rl.EndDrawing()
}

// camera3D converts the orbit camera to a raylib camera.
func (g *Game) camera3D() rl.Camera3D {
	return rl.Camera3D{
		Position:   toVector3(g.camera.Position()),
		Target:     toVector3(g.camera.Target),
		Up:         rl.NewVector3(0, 1, 0),
		Fovy:       fovy,
		Projection: rl.CameraPerspective,
	}
}

// drawCreature draws every block of the evaluated creature as an oriented box.
func (g *Game) drawCreature(ev *evolve.Evaluator, world *physics.World) {
	c := ev.Creature()
	fired := ev.Fired()
	for i := range c.Blocks {
		pos, rot := world.Pose(c.Blocks[i].Body)
		half := world.HalfExtent(c.Blocks[i].Body)
		axis, angle := axisAngle(rot)

		f := -1
		if i < len(fired) {
			f = fired[i]
		}

		rl.PushMatrix()
		rl.Translatef(float32(pos.X), float32(pos.Y), float32(pos.Z))
		rl.Rotatef(float32(angle*180/math.Pi), float32(axis.X), float32(axis.Y), float32(axis.Z))
		size := r3.Scale(2, half)
		rl.DrawCube(rl.Vector3{}, float32(size.X), float32(size.Y), float32(size.Z), colorFor(i, f))
		rl.DrawCubeWires(rl.Vector3{}, float32(size.X), float32(size.Y), float32(size.Z), wireColor)
		rl.PopMatrix()
	}
}

// followCreature keeps the camera on the creature being shown.
func (g *Game) followCreature() {
	if g.camera == nil {
		return
	}
	ev, _, _ := g.viewed()
	if ev == nil || ev.Creature().Len() == 0 {
		return
	}
	bounds := ev.Creature().Bounds()
	g.camera.Follow(r3Center(bounds))
	if ev != g.framed {
		g.camera.Frame(halfDiagonal(bounds), fovy)
		g.framed = ev
	}
}

// layout positions the panels for the current screen size.
func (g *Game) layout() {
	w := int32(g.screenWidth)
	h := int32(g.screenHeight)
	g.controls.SetPosition(w-290, h-g.controls.Height()-40)
	g.inspector.SetPosition(w-350, 10)
}

// drawUI renders the HUD, panels and control panel.
func (g *Game) drawUI(ev *evolve.Evaluator, world *physics.World, strand int) {
	tick, fitness, blocks := 0, 0.0, 0
	if ev != nil {
		tick = ev.Tick()
		fitness = ev.Fitness()
		blocks = ev.Creature().Len()
	}

	g.hud.Draw(ui.HUDData{
		Title:        "Block Creatures",
		Generation:   g.orch.Generation,
		Phase:        g.orch.Phase().String(),
		Strand:       strand,
		Replay:       g.replayMode,
		Tick:         tick,
		EvalTicks:    g.cfg.Derived.EvalTicks,
		Fitness:      fitness,
		Blocks:       blocks,
		Evaluations:  g.orch.Evaluations,
		Speed:        g.speed,
		FPS:          rl.GetFPS(),
		Paused:       g.paused,
		ScreenHeight: int32(g.screenHeight),
	})
	g.perfPanel.Draw(g.perfCollector.Stats())
	g.strandPanel.Draw(g.strandPanelData(ev, strand))

	if g.showInspector && ev != nil {
		g.inspector.Draw(g.inspectorData(ev, world, strand))
	}

	g.applyControls(g.controls.Draw(ui.ControlState{
		Paused:   g.paused,
		Replay:   g.replayMode,
		Speed:    g.speed,
		MaxSpeed: MaxSpeed,
		Strand:   g.selected,
	}))

	g.hud.DrawControls(int32(g.screenHeight), controlsText)
}

// strandPanelData summarizes every strand for the strand panel.
func (g *Game) strandPanelData(ev *evolve.Evaluator, strand int) ui.StrandPanelData {
	pop := g.orch.Population()
	window := g.cfg.Population.RecentWindow
	data := ui.StrandPanelData{
		Rows:     make([]ui.StrandRow, pop.Size()),
		Selected: g.selected,
		Current:  -1,
		Best:     pop.Stats().BestStrand,
	}
	if ev != nil && !g.replayMode {
		data.Current = strand
	}
	for i := range data.Rows {
		s := pop.Strand(i)
		latest, best := s.Latest(), s.Best()
		data.Rows[i] = ui.StrandRow{
			Length:     s.Len(),
			Latest:     latest.Fitness,
			Best:       best.Fitness,
			RecentMean: s.RecentAverage(window),
		}
	}
	return data
}

// inspectorData gathers joint angles and fired rules for the inspector.
func (g *Game) inspectorData(ev *evolve.Evaluator, world *physics.World, strand int) ui.InspectorData {
	c := ev.Creature()
	angles := make([]float64, c.Len())
	for i := 1; i < c.Len(); i++ {
		angles[i] = world.JointAngle(c.Blocks[i].Joint)
	}
	generation := 0
	if strand >= 0 && strand < g.orch.Population().Size() {
		generation = g.orch.Population().Strand(strand).Len() - 1
	}
	return ui.InspectorData{
		Genome:     c.Genome(),
		Strand:     strand,
		Generation: generation,
		Angles:     angles,
		Fired:      ev.Fired(),
		JointLimit: g.cfg.Morphology.JointLimit,
		First:      g.inspectFirst,
		MaxBlocks:  8,
	}
}

// applyControls applies the control panel's actions.
func (g *Game) applyControls(a ui.ControlActions) {
	if a.TogglePause {
		g.paused = !g.paused
	}
	if a.ToggleReplay {
		g.toggleReplay()
	}
	if a.PrevStrand {
		g.selectStrand(-1)
	}
	if a.NextStrand {
		g.selectStrand(1)
	}
	if a.BestStrand {
		g.selectBestStrand()
	}
	g.setSpeed(a.Speed)
}

// setSpeed sets the ticks stepped per frame, clamped to the allowed range.
func (g *Game) setSpeed(s int) {
	g.speed = max(MinSpeed, min(MaxSpeed, s))
}
