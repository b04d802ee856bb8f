package game

import (
	"log/slog"

	"github.com/pthm-cable/creatures/genome"
	"github.com/pthm-cable/creatures/lineage"
	"github.com/pthm-cable/creatures/telemetry"
)

// onGeneration receives each generation's stats from the orchestrator,
// before the population is reseeded.
func (g *Game) onGeneration(stats telemetry.GenerationStats, pop *lineage.Population) {
	g.lastStats = stats
	perfStats := g.perfCollector.Stats()

	if g.logStats {
		perfStats.LogStats()
	}

	if err := g.outputManager.WriteGeneration(stats); err != nil {
		slog.Error("failed to write generation", "error", err)
	}
	records := telemetry.StrandRecords(stats.Generation, pop, g.cfg.Population.RecentWindow)
	if err := g.outputManager.WriteStrands(records); err != nil {
		slog.Error("failed to write strands", "error", err)
	}
	if err := g.outputManager.WritePerf(perfStats, stats.Generation, stats.Evaluations); err != nil {
		slog.Error("failed to write perf", "error", err)
	}

	bests := make([]*genome.Genome, pop.Size())
	for i := range bests {
		bests[i] = pop.Strand(i).Best()
	}
	if n := g.hallOfFame.ConsiderPopulation(bests, stats.Generation); n > 0 {
		slog.Debug("hall of fame updated", "added", n, "top", g.hallOfFame.TopFitness())
	}

	saved := false
	for _, bm := range g.bookmarkDetector.Check(stats) {
		if g.cfg.Telemetry.LogGenerations {
			bm.LogBookmark()
		}
		if err := g.outputManager.WriteBookmark(bm); err != nil {
			slog.Error("failed to write bookmark", "error", err)
		}
		if !saved {
			g.saveSnapshot(pop, stats, &bm)
			saved = true
		}
	}

	every := g.cfg.Telemetry.SaveEvery
	if !saved && every > 0 && (stats.Generation+1)%every == 0 {
		g.saveSnapshot(pop, stats, nil)
	}
}

// saveSnapshot writes the population to the output directory.
func (g *Game) saveSnapshot(pop *lineage.Population, stats telemetry.GenerationStats, bookmark *telemetry.Bookmark) {
	if g.outputManager == nil {
		return
	}
	snapshot := telemetry.NewSnapshot(pop, g.seed, stats.Generation)
	snapshot.Crossovers = stats.Crossovers
	snapshot.Evaluations = stats.Evaluations
	if bookmark != nil {
		bm := *bookmark
		snapshot.Bookmark = &bm
	}

	path, err := g.outputManager.WriteSnapshot(snapshot)
	if err != nil {
		slog.Error("failed to save snapshot", "error", err)
		return
	}
	slog.Info("snapshot saved", "path", path, "generation", stats.Generation)
}
