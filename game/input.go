package game

import rl "github.com/gen2brain/raylib-go/raylib"

// Mouse sensitivity
const (
	orbitPerPixel = 0.005 // radians per pixel dragged
	zoomPerNotch  = 0.1
)

// handleInput processes keyboard and mouse input.
func (g *Game) handleInput() {
	g.handleResize()

	if rl.IsKeyPressed(rl.KeyF11) {
		rl.ToggleFullscreen()
	}

	if rl.IsKeyPressed(rl.KeySpace) {
		g.paused = !g.paused
	}

	// Ticks per frame with < > keys (comma and period)
	if rl.IsKeyPressed(rl.KeyComma) {
		g.setSpeed(g.speed - 1)
	}
	if rl.IsKeyPressed(rl.KeyPeriod) {
		g.setSpeed(g.speed + 1)
	}

	// Strand selection
	if rl.IsKeyPressed(rl.KeyLeft) {
		g.selectStrand(-1)
	}
	if rl.IsKeyPressed(rl.KeyRight) {
		g.selectStrand(1)
	}
	if rl.IsKeyPressed(rl.KeyB) {
		g.selectBestStrand()
	}

	if rl.IsKeyPressed(rl.KeyR) {
		g.toggleReplay()
	}
	if rl.IsKeyPressed(rl.KeyH) {
		g.replayHallOfFame()
	}

	if rl.IsKeyPressed(rl.KeyI) {
		g.showInspector = !g.showInspector
	}
	if g.showInspector {
		if rl.IsKeyPressed(rl.KeyPageDown) {
			g.inspectFirst += 4
		}
		if rl.IsKeyPressed(rl.KeyPageUp) {
			g.inspectFirst = max(0, g.inspectFirst-4)
		}
	}
	if rl.IsKeyPressed(rl.KeyTab) {
		g.controls.Toggle()
	}

	g.handleCameraInput()
}

// handleResize checks for window resize and repositions the panels.
func (g *Game) handleResize() {
	if !rl.IsWindowResized() {
		return
	}
	w := float32(rl.GetScreenWidth())
	h := float32(rl.GetScreenHeight())
	if w == g.screenWidth && h == g.screenHeight {
		return
	}
	g.screenWidth = w
	g.screenHeight = h
	g.layout()
}

// handleCameraInput processes orbit and zoom controls.
func (g *Game) handleCameraInput() {
	if g.camera == nil {
		return
	}

	// Right mouse drag orbits
	if rl.IsMouseButtonDown(rl.MouseButtonRight) {
		d := rl.GetMouseDelta()
		g.camera.Orbit(-float64(d.X)*orbitPerPixel, float64(d.Y)*orbitPerPixel)
	}

	// Zoom controls: mouse wheel or +/- keys
	if wheel := rl.GetMouseWheelMove(); wheel != 0 {
		g.camera.ZoomBy(1 + float64(wheel)*zoomPerNotch)
	}
	if rl.IsKeyPressed(rl.KeyEqual) || rl.IsKeyPressed(rl.KeyKpAdd) {
		g.camera.ZoomBy(1.25)
	}
	if rl.IsKeyPressed(rl.KeyMinus) || rl.IsKeyPressed(rl.KeyKpSubtract) {
		g.camera.ZoomBy(0.8)
	}

	if rl.IsKeyPressed(rl.KeyHome) {
		g.camera.Reset(20)
		g.framed = nil
	}
}
