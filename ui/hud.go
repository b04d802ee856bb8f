package ui

import (
	"fmt"

	rl "github.com/gen2brain/raylib-go/raylib"

	"github.com/pthm-cable/creatures/telemetry"
)

// HUDData holds all the data needed to render the main HUD.
type HUDData struct {
	Title        string
	Generation   int
	Phase        string
	Strand       int
	Replay       bool // showing a replay rather than the live evaluation
	Tick         int
	EvalTicks    int
	Fitness      float64
	Blocks       int
	Evaluations  int
	Speed        int
	FPS          int32
	Paused       bool
	ScreenHeight int32
}

// HUD renders the main heads-up display.
type HUD struct {
	renderer *Renderer
}

// NewHUD creates a new HUD renderer.
func NewHUD() *HUD {
	return &HUD{
		renderer: NewRenderer(),
	}
}

// Draw renders the HUD.
func (h *HUD) Draw(data HUDData) {
	rl.DrawText(data.Title, 10, 10, 20, rl.White)

	mode := "Live"
	if data.Replay {
		mode = "Replay"
	}
	rl.DrawText(
		fmt.Sprintf("Generation: %d | Phase: %s | Evaluations: %d", data.Generation, data.Phase, data.Evaluations),
		10, 35, 16, rl.LightGray,
	)
	rl.DrawText(
		fmt.Sprintf("%s strand %d | Blocks: %d | Tick: %d/%d | Fitness: %.3f",
			mode, data.Strand, data.Blocks, data.Tick, data.EvalTicks, data.Fitness),
		10, 55, 16, rl.LightGray,
	)
	rl.DrawText(
		fmt.Sprintf("Speed: %dx | FPS: %d", data.Speed, data.FPS),
		10, 75, 16, rl.LightGray,
	)

	if data.Paused {
		rl.DrawText("PAUSED", 10, 95, 16, rl.Yellow)
	}
}

// DrawControls renders the control legend at the bottom of the screen.
func (h *HUD) DrawControls(screenHeight int32, controls string) {
	rl.DrawText(controls, 10, screenHeight-25, 14, rl.Gray)
}

// PhaseLabel names one perf phase for display.
type PhaseLabel struct {
	ID   string
	Name string
}

// PerfPanel renders the evaluation tick timing panel.
type PerfPanel struct {
	renderer *Renderer
	x, y     int32
	phases   []PhaseLabel
}

// NewPerfPanel creates a new performance panel listing phases in order.
func NewPerfPanel(x, y int32, phases []PhaseLabel) *PerfPanel {
	return &PerfPanel{
		renderer: NewRenderer(),
		x:        x,
		y:        y,
		phases:   phases,
	}
}

// SetPosition updates the panel position.
func (p *PerfPanel) SetPosition(x, y int32) {
	p.x = x
	p.y = y
}

// Draw renders the performance panel.
func (p *PerfPanel) Draw(stats telemetry.PerfStats) {
	x := p.x
	y := p.y

	rl.DrawText("Tick Performance", x, y, 16, rl.White)
	y += 20

	rl.DrawText(fmt.Sprintf("Avg: %dus | %.0f ticks/s", stats.AvgTickDuration.Microseconds(), stats.TicksPerSecond), x, y, 14, rl.Yellow)
	y += 16

	for _, phase := range p.phases {
		pct := stats.PhasePct[phase.ID]
		color := rl.LightGray
		if pct > 60 {
			color = rl.Orange
		}
		rl.DrawText(fmt.Sprintf("%-12s %5.1f%%", phase.Name, pct), x, y, 12, color)
		y += 14
	}
}

// StrandRow is one line of the strand panel.
type StrandRow struct {
	Length     int
	Latest     float64
	Best       float64
	RecentMean float64
}

// StrandPanelData holds data for the strand panel.
type StrandPanelData struct {
	Rows     []StrandRow
	Selected int
	Current  int // strand being evaluated, -1 between evaluations
	Best     int // strand holding the best genome
}

// StrandPanel lists every strand with its fitness history.
type StrandPanel struct {
	renderer *Renderer
	x, y     int32
	width    int32
}

// NewStrandPanel creates a new strand panel.
func NewStrandPanel(x, y, width int32) *StrandPanel {
	return &StrandPanel{
		renderer: NewRenderer(),
		x:        x,
		y:        y,
		width:    width,
	}
}

// SetPosition updates the panel position.
func (s *StrandPanel) SetPosition(x, y int32) {
	s.x = x
	s.y = y
}

// Draw renders the strand panel and returns its height.
func (s *StrandPanel) Draw(data StrandPanelData) int32 {
	r := s.renderer
	padding := r.Theme.Padding
	lineHeight := r.Theme.LineHeight

	height := padding*2 + lineHeight*int32(len(data.Rows)+2)
	r.DrawPanel(s.x, s.y, s.width, height)

	y := s.y + padding
	rl.DrawText("Strands", s.x+padding, y, 16, rl.White)
	y += lineHeight + 2
	rl.DrawText(" #   len   latest     best   recent", s.x+padding, y, r.Theme.FontSize, r.Theme.SectionHeader)
	y += lineHeight

	for i, row := range data.Rows {
		color := r.Theme.LabelColor
		if i == data.Best {
			color = r.Theme.Highlight
		}
		marker := " "
		if i == data.Current {
			marker = ">"
		}
		if i == data.Selected {
			rl.DrawRectangle(s.x+padding-4, y-1, s.width-padding*2+8, lineHeight, rl.Color{R: 60, G: 70, B: 90, A: 255})
		}
		rl.DrawText(
			fmt.Sprintf("%s%2d %5d %8.3f %8.3f %8.3f", marker, i, row.Length, row.Latest, row.Best, row.RecentMean),
			s.x+padding, y, r.Theme.FontSize, color,
		)
		y += lineHeight
	}
	return height
}
