package game

import (
	"log/slog"

	"github.com/pthm-cable/creatures/evolve"
	"github.com/pthm-cable/creatures/genome"
	"github.com/pthm-cable/creatures/physics"
)

// replay re-simulates one genome in its own world, restarting when the
// evaluation ends.
type replay struct {
	engine *physics.World
	eval   *evolve.Evaluator
	genome *genome.Genome
	strand int // -1 for a hall of fame genome
	runs   int
}

// Close removes the replayed creature.
func (r *replay) Close() {
	if r.eval != nil {
		r.eval.Close()
		r.eval = nil
	}
}

// selectStrand moves the selection by delta, wrapping around.
func (g *Game) selectStrand(delta int) {
	n := g.orch.Population().Size()
	g.selected = wrapIndex(g.selected+delta, n)
	g.inspectFirst = 0
	if g.replayMode {
		g.startReplay(g.selectedBest(), g.selected)
	}
}

// selectBestStrand selects the strand holding the fittest genome.
func (g *Game) selectBestStrand() {
	if st := g.orch.Population().Stats(); st.BestStrand >= 0 {
		g.selectStrand(st.BestStrand - g.selected)
	}
}

func (g *Game) selectedBest() *genome.Genome {
	return g.orch.Population().Strand(g.selected).Best()
}

// toggleReplay switches between the live evaluation and a replay of the
// selected strand's best genome. Evolution does not advance while replaying.
func (g *Game) toggleReplay() {
	g.replayMode = !g.replayMode
	if !g.replayMode {
		if g.replay != nil {
			g.replay.Close()
			g.replay = nil
		}
		return
	}
	g.startReplay(g.selectedBest(), g.selected)
}

// replayHallOfFame replays a genome sampled from the hall of fame.
func (g *Game) replayHallOfFame() {
	sample := g.hallOfFame.Sample()
	if sample == nil {
		return
	}
	g.replayMode = true
	g.startReplay(sample, -1)
}

// startReplay begins simulating gen in the replay world.
func (g *Game) startReplay(gen *genome.Genome, strand int) {
	if g.replay == nil {
		g.replay = &replay{engine: evolve.NewEngine(g.cfg)}
	}
	r := g.replay
	r.Close()
	r.genome = gen
	r.strand = strand
	r.runs = 0

	ev, err := evolve.NewEvaluator(g.cfg, r.engine, gen, nil)
	if err != nil {
		slog.Warn("cannot replay genome", "strand", strand, "error", err)
		g.replayMode = false
		return
	}
	r.eval = ev
	if g.camera != nil {
		g.camera.Target = r3Center(ev.Creature().Bounds())
	}
}

// stepReplay advances the replay by one tick, restarting it when done.
func (g *Game) stepReplay() {
	r := g.replay
	if r == nil || r.eval == nil {
		g.replayMode = false
		return
	}
	if r.eval.Step() {
		return
	}
	r.eval.Close()
	ev, err := evolve.NewEvaluator(g.cfg, r.engine, r.genome, nil)
	if err != nil {
		slog.Warn("cannot restart replay", "strand", r.strand, "error", err)
		r.eval = nil
		g.replayMode = false
		return
	}
	r.eval = ev
	r.runs++
}

// viewed returns the evaluator shown on screen, the world it lives in and
// its strand, or a nil evaluator between evaluations.
func (g *Game) viewed() (*evolve.Evaluator, *physics.World, int) {
	if g.replayMode && g.replay != nil && g.replay.eval != nil {
		return g.replay.eval, g.replay.engine, g.replay.strand
	}
	ev, strand := g.orch.Current()
	return ev, g.engine, strand
}

// wrapIndex maps i into [0, n).
func wrapIndex(i, n int) int {
	if n <= 0 {
		return 0
	}
	i %= n
	if i < 0 {
		i += n
	}
	return i
}
