package ui

import (
	"fmt"

	gui "github.com/gen2brain/raylib-go/raygui"
	rl "github.com/gen2brain/raylib-go/raylib"
)

// ControlState is what the control panel displays.
type ControlState struct {
	Paused   bool
	Replay   bool
	Speed    int
	MaxSpeed int
	Strand   int
}

// ControlActions are the buttons pressed this frame.
type ControlActions struct {
	TogglePause  bool
	ToggleReplay bool
	PrevStrand   bool
	NextStrand   bool
	BestStrand   bool
	Speed        int // new speed, equal to the old one if unchanged
}

// ControlsPanel renders the raygui control panel.
type ControlsPanel struct {
	renderer *Renderer
	x, y     int32
	width    int32
	visible  bool
}

// NewControlsPanel creates a new controls panel.
func NewControlsPanel(x, y, width int32) *ControlsPanel {
	return &ControlsPanel{
		renderer: NewRenderer(),
		x:        x,
		y:        y,
		width:    width,
		visible:  true,
	}
}

// SetPosition updates the panel position.
func (c *ControlsPanel) SetPosition(x, y int32) {
	c.x = x
	c.y = y
}

// IsVisible returns whether the panel is shown.
func (c *ControlsPanel) IsVisible() bool {
	return c.visible
}

// Toggle switches panel visibility.
func (c *ControlsPanel) Toggle() bool {
	c.visible = !c.visible
	return c.visible
}

// Height returns the panel height in pixels.
func (c *ControlsPanel) Height() int32 {
	return c.renderer.Theme.Padding*2 + 4*30 + 20
}

// Draw renders the panel and returns the actions triggered by its widgets.
func (c *ControlsPanel) Draw(state ControlState) ControlActions {
	actions := ControlActions{Speed: state.Speed}
	if !c.visible {
		return actions
	}

	r := c.renderer
	padding := r.Theme.Padding
	r.DrawPanel(c.x, c.y, c.width, c.Height())

	x := float32(c.x + padding)
	y := float32(c.y + padding)
	inner := float32(c.width - padding*2)
	half := (inner - 6) / 2

	rl.DrawText("Controls", int32(x), int32(y), 16, rl.White)
	y += 20

	if gui.Button(rl.Rectangle{X: x, Y: y, Width: half, Height: 24}, toggleText(state.Paused, "Resume", "Pause")) {
		actions.TogglePause = true
	}
	if gui.Button(rl.Rectangle{X: x + half + 6, Y: y, Width: half, Height: 24}, toggleText(state.Replay, "Live", "Replay best")) {
		actions.ToggleReplay = true
	}
	y += 30

	third := (inner - 12) / 3
	if gui.Button(rl.Rectangle{X: x, Y: y, Width: third, Height: 24}, "< Prev") {
		actions.PrevStrand = true
	}
	if gui.Button(rl.Rectangle{X: x + third + 6, Y: y, Width: third, Height: 24}, "Best") {
		actions.BestStrand = true
	}
	if gui.Button(rl.Rectangle{X: x + 2*(third+6), Y: y, Width: third, Height: 24}, "Next >") {
		actions.NextStrand = true
	}
	y += 30

	rl.DrawText(fmt.Sprintf("Strand %d | Speed %dx", state.Strand, state.Speed), int32(x), int32(y+4), r.Theme.FontSize, r.Theme.LabelColor)
	y += 30

	speed := gui.SliderBar(
		rl.Rectangle{X: x + 20, Y: y, Width: inner - 50, Height: 20},
		"1", fmt.Sprint(state.MaxSpeed),
		float32(state.Speed), 1, float32(state.MaxSpeed),
	)
	if s := int(speed + 0.5); s != state.Speed {
		actions.Speed = s
	}
	return actions
}

func toggleText(on bool, onText, offText string) string {
	if on {
		return onText
	}
	return offText
}
