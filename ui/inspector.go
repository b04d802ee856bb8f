package ui

import (
	"fmt"

	rl "github.com/gen2brain/raylib-go/raylib"

	"github.com/pthm-cable/creatures/genome"
)

// InspectorData holds all the data needed to render the inspector panel.
type InspectorData struct {
	Genome     *genome.Genome
	Strand     int
	Generation int // index of the genome in its strand
	Angles     []float64
	Fired      []int // per block, rule that fired on the last tick or -1
	JointLimit float64
	First      int // first block listed
	MaxBlocks  int // blocks listed at most, 0 for all
}

// Inspector renders the genome inspection panel.
type Inspector struct {
	renderer *Renderer
	x, y     int32
	width    int32
}

// NewInspector creates a new inspector panel.
func NewInspector(x, y, width int32) *Inspector {
	return &Inspector{
		renderer: NewRenderer(),
		x:        x,
		y:        y,
		width:    width,
	}
}

// SetPosition updates the inspector position.
func (ins *Inspector) SetPosition(x, y int32) {
	ins.x = x
	ins.y = y
}

// Draw renders the inspector panel for the given data and returns the bottom
// edge of the panel.
func (ins *Inspector) Draw(data InspectorData) int32 {
	if data.Genome == nil || data.Genome.Len() == 0 {
		return ins.y
	}
	r := ins.renderer
	padding := r.Theme.Padding
	contentWidth := ins.width - padding*2

	first, last := VisibleBlocks(data.Genome.Len(), data.First, data.MaxBlocks)
	height := ins.measure(data, first, last)
	r.DrawPanel(ins.x, ins.y, ins.width, height)

	x := ins.x + padding
	y := ins.y + padding
	y = ins.drawHeader(x, y, data, contentWidth)
	y = r.DrawSpacer(y, 6)

	for id := first; id < last; id++ {
		y = ins.drawBlock(x, y, data, id, contentWidth)
	}
	if hidden := data.Genome.Len() - (last - first); hidden > 0 {
		rl.DrawText(fmt.Sprintf("blocks %d-%d of %d", first, last-1, data.Genome.Len()), x, y, r.Theme.FontSize, rl.Gray)
	}
	return ins.y + height
}

// VisibleBlocks returns the [first, last) range of block ids listed when at
// most max blocks fit, starting at first. max 0 lists every block.
func VisibleBlocks(n, first, max int) (int, int) {
	if max <= 0 || max >= n {
		return 0, n
	}
	if first > n-max {
		first = n - max
	}
	if first < 0 {
		first = 0
	}
	return first, first + max
}

func (ins *Inspector) measure(data InspectorData, first, last int) int32 {
	t := ins.renderer.Theme
	lines := 4 // header
	for id := first; id < last; id++ {
		b := data.Genome.Block(id)
		lines++
		if !b.IsRoot() {
			lines++
		}
		lines += len(b.Neurons)
	}
	height := t.Padding*2 + int32(lines)*(t.LineHeight+1) + 6
	if last-first < data.Genome.Len() {
		height += t.LineHeight
	}
	return height
}

func (ins *Inspector) drawHeader(x, y int32, data InspectorData, width int32) int32 {
	r := ins.renderer
	g := data.Genome

	rl.DrawText(fmt.Sprintf("Strand %d, genome %d", data.Strand, data.Generation), x, y, r.Theme.HeaderFontSize, rl.White)
	y += r.Theme.LineHeight + 2

	fitness := "-"
	if g.Evaluated {
		fitness = fmt.Sprintf("%.3f", g.Fitness)
	}
	y = r.DrawLabelValue(x, y, "Fitness", fitness, width)
	y = r.DrawLabelValue(x, y, "Blocks", fmt.Sprintf("%d (depth %d)", g.Len(), g.Depth()), width)
	return r.DrawLabelValue(x, y, "Rules", fmt.Sprint(g.NeuronCount()), width)
}

func (ins *Inspector) drawBlock(x, y int32, data InspectorData, id int, width int32) int32 {
	r := ins.renderer
	b := data.Genome.Block(id)

	title := fmt.Sprintf("#%d root %.2fx%.2fx%.2f", id, b.Size.X, b.Size.Y, b.Size.Z)
	if !b.IsRoot() {
		title = fmt.Sprintf("#%d <- %d %.2fx%.2fx%.2f", id, b.Parent, b.Size.X, b.Size.Y, b.Size.Z)
	}
	y = r.DrawSectionHeader(x, y, title)

	if !b.IsRoot() && id < len(data.Angles) {
		lim := float32(data.JointLimit)
		y = r.DrawCenteredBar(x, y, "Angle", float32(data.Angles[id]), -lim, lim, width)
	}

	fired := -1
	if id < len(data.Fired) {
		fired = data.Fired[id]
	}
	for i, n := range b.Neurons {
		color := r.Theme.ValueColor
		if i == fired {
			color = r.Theme.Highlight
		}
		rl.DrawText(fmt.Sprintf("  %d: %s", i, n), x, y, r.Theme.FontSize, color)
		y += r.Theme.LineHeight
	}
	return y
}
