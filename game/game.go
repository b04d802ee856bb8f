// Package game drives an evolution run: it owns the orchestrator, routes
// per-generation results to telemetry and, in graphical mode, renders the
// creature under evaluation with raylib.
package game

import (
	"context"
	"fmt"
	"log/slog"
	"math/rand"

	"github.com/pthm-cable/creatures/camera"
	"github.com/pthm-cable/creatures/config"
	"github.com/pthm-cable/creatures/evolve"
	"github.com/pthm-cable/creatures/genome"
	"github.com/pthm-cable/creatures/lineage"
	"github.com/pthm-cable/creatures/physics"
	"github.com/pthm-cable/creatures/systems"
	"github.com/pthm-cable/creatures/telemetry"
	"github.com/pthm-cable/creatures/ui"
)

// Playback speed limits, in ticks per frame.
const (
	MinSpeed = 1
	MaxSpeed = 10
)

// Options configure a new Game.
type Options struct {
	Seed      int64
	Seeds     []*genome.Genome    // genomes cloned into the first strands
	Resume    *telemetry.Snapshot // resume a saved population instead of seeding
	OutputDir string              // CSV and snapshot output, empty = disabled
	LogStats  bool                // log perf stats every generation
	Headless  bool
}

// Game holds the run state.
type Game struct {
	cfg    *config.Config
	rng    *rand.Rand
	seed   int64
	engine *physics.World
	orch   *evolve.Orchestrator

	// Telemetry
	perfCollector    *telemetry.PerfCollector
	outputManager    *telemetry.OutputManager
	bookmarkDetector *telemetry.BookmarkDetector
	hallOfFame       *telemetry.HallOfFame
	lastStats        telemetry.GenerationStats
	logStats         bool

	// Viewer state, unused in headless mode
	headless      bool
	camera        *camera.Camera
	hud           *ui.HUD
	perfPanel     *ui.PerfPanel
	strandPanel   *ui.StrandPanel
	controls      *ui.ControlsPanel
	inspector     *ui.Inspector
	replay        *replay
	replayMode    bool
	paused        bool
	speed         int
	selected      int
	showInspector bool
	inspectFirst  int
	framed        *evolve.Evaluator // evaluation the camera was last framed on

	screenWidth, screenHeight float32
}

// NewGameWithOptions creates a game from cfg. In graphical mode the raylib
// window must already be open.
func NewGameWithOptions(cfg *config.Config, opts Options) (*Game, error) {
	g := &Game{
		cfg:              cfg,
		rng:              rand.New(rand.NewSource(opts.Seed)),
		seed:             opts.Seed,
		engine:           evolve.NewEngine(cfg),
		perfCollector:    telemetry.NewPerfCollector(cfg.Telemetry.PerfWindow),
		bookmarkDetector: telemetry.NewBookmarkDetector(cfg.Telemetry.BookmarkWindow),
		hallOfFame:       telemetry.NewHallOfFame(cfg.Telemetry.HallOfFame, rand.New(rand.NewSource(opts.Seed+1))),
		logStats:         opts.LogStats,
		headless:         opts.Headless,
		speed:            MinSpeed,
		screenWidth:      float32(cfg.Screen.Width),
		screenHeight:     float32(cfg.Screen.Height),
	}

	om, err := telemetry.NewOutputManager(opts.OutputDir)
	if err != nil {
		return nil, err
	}
	g.outputManager = om
	if err := om.WriteConfig(cfg); err != nil {
		om.Close()
		return nil, fmt.Errorf("writing config: %w", err)
	}

	evo := evolve.Options{
		Seeds:        opts.Seeds,
		Perf:         g.perfCollector,
		OnGeneration: g.onGeneration,
	}
	if opts.Resume != nil {
		evo.Population = opts.Resume.Population()
		evo.Generation = opts.Resume.Generation
	}
	orch, err := evolve.New(cfg, g.rng, g.engine, evo)
	if err != nil {
		om.Close()
		return nil, err
	}
	if opts.Resume != nil {
		orch.Crossovers = opts.Resume.Crossovers
		orch.Evaluations = opts.Resume.Evaluations
		slog.Info("resumed population",
			"generation", opts.Resume.Generation,
			"strands", len(opts.Resume.Strands),
		)
	}
	g.orch = orch

	if !g.headless {
		g.initViewer()
	}
	return g, nil
}

// initViewer creates the camera and UI panels.
func (g *Game) initViewer() {
	g.camera = camera.New(20)
	g.hud = ui.NewHUD()
	var phases []ui.PhaseLabel
	for _, sys := range systems.NewSystemRegistry().All() {
		phases = append(phases, ui.PhaseLabel{ID: sys.ID, Name: sys.Name})
	}
	g.perfPanel = ui.NewPerfPanel(10, 120, phases)
	g.strandPanel = ui.NewStrandPanel(10, 200, 300)
	g.controls = ui.NewControlsPanel(0, 0, 280)
	g.inspector = ui.NewInspector(0, 0, 340)
	g.layout()
}

// Update handles input and advances the simulation by the current speed.
func (g *Game) Update() {
	g.handleInput()

	if !g.paused {
		for i := 0; i < g.speed; i++ {
			if g.replayMode {
				g.stepReplay()
			} else {
				g.orch.Step()
			}
		}
	}
	g.perfCollector.RecordFrame()
	g.followCreature()
}

// UpdateHeadless runs one full generation without rendering.
func (g *Game) UpdateHeadless(ctx context.Context) error {
	return g.orch.RunGeneration(ctx)
}

// Generation returns the generation counter.
func (g *Game) Generation() int {
	return g.orch.Generation
}

// Population returns the evolving population.
func (g *Game) Population() *lineage.Population {
	return g.orch.Population()
}

// Best returns the fittest genome found so far, or nil before any strand
// has been evaluated.
func (g *Game) Best() *genome.Genome {
	pop := g.orch.Population()
	st := pop.Stats()
	if st.BestStrand < 0 {
		return nil
	}
	best := pop.Strand(st.BestStrand).Best()
	if !best.Evaluated {
		return nil
	}
	return best
}

// HallOfFame returns the run's hall of fame.
func (g *Game) HallOfFame() *telemetry.HallOfFame {
	return g.hallOfFame
}

// Unload stops the run and flushes output.
func (g *Game) Unload() {
	g.orch.Close()
	if g.replay != nil {
		g.replay.Close()
		g.replay = nil
	}
	if err := g.outputManager.WriteHallOfFame(g.hallOfFame); err != nil {
		slog.Error("failed to write hall of fame", "error", err)
	}
	if err := g.outputManager.Close(); err != nil {
		slog.Error("failed to close output", "error", err)
	}
}
