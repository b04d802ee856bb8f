package main

import (
	"context"
	"log/slog"
	"math"
	"sync"

	"github.com/pthm-cable/creatures/config"
	"github.com/pthm-cable/creatures/game"
	"github.com/pthm-cable/creatures/telemetry"
)

// FitnessEvaluator runs headless evolution runs and computes fitness.
type FitnessEvaluator struct {
	params      *ParamVector
	generations int
	seeds       []int64
	baseConfig  *config.Config

	// Best run tracking
	mu             sync.Mutex
	bestFitness    float64
	bestHallOfFame *telemetry.HallOfFame
	lastQuality    float64 // quality from most recent Evaluate call
	lastBest       float64 // mean best creature fitness from most recent Evaluate call
}

// NewFitnessEvaluator creates a new evaluator.
func NewFitnessEvaluator(params *ParamVector, generations int, seeds []int64, baseCfg *config.Config) *FitnessEvaluator {
	return &FitnessEvaluator{
		params:      params,
		generations: generations,
		seeds:       seeds,
		baseConfig:  baseCfg,
		bestFitness: math.Inf(1),
	}
}

// BestHallOfFame returns the hall of fame from the best evaluation.
func (fe *FitnessEvaluator) BestHallOfFame() *telemetry.HallOfFame {
	fe.mu.Lock()
	defer fe.mu.Unlock()
	return fe.bestHallOfFame
}

// LastQuality returns the quality score from the most recent evaluation.
func (fe *FitnessEvaluator) LastQuality() float64 {
	fe.mu.Lock()
	defer fe.mu.Unlock()
	return fe.lastQuality
}

// LastBest returns the mean best creature fitness from the most recent
// evaluation.
func (fe *FitnessEvaluator) LastBest() float64 {
	fe.mu.Lock()
	defer fe.mu.Unlock()
	return fe.lastBest
}

// runResult holds the results from a single evolution run.
type runResult struct {
	best       float64 // fittest creature found
	recentMean float64 // mean fitness of every strand's latest genome at the end
	hallOfFame *telemetry.HallOfFame
}

// seedResult holds the result from one seed evaluation.
type seedResult struct {
	fitness    float64
	best       float64
	quality    float64
	hallOfFame *telemetry.HallOfFame
}

// Evaluate computes fitness for a parameter vector (lower = better).
// Fitness is the negated best creature fitness, so further-moving creatures
// give lower values.
func (fe *FitnessEvaluator) Evaluate(x []float64) float64 {
	results := make([]seedResult, len(fe.seeds))
	var wg sync.WaitGroup

	for i, seed := range fe.seeds {
		wg.Add(1)
		go func(idx int, s int64) {
			defer wg.Done()
			result := fe.runEvolution(x, s)
			results[idx] = seedResult{
				fitness:    computeFitness(result),
				best:       result.best,
				quality:    computeQuality(result),
				hallOfFame: result.hallOfFame,
			}
		}(i, seed)
	}
	wg.Wait()

	// Aggregate results
	var totalFitness, totalQuality, totalBest float64
	bestSeedFitness := math.Inf(1)
	var bestSeedHallOfFame *telemetry.HallOfFame

	for _, r := range results {
		totalFitness += r.fitness
		totalQuality += r.quality
		totalBest += r.best
		if r.fitness < bestSeedFitness {
			bestSeedFitness = r.fitness
			bestSeedHallOfFame = r.hallOfFame
		}
	}

	n := float64(len(fe.seeds))
	avgFitness := totalFitness / n

	fe.mu.Lock()
	if avgFitness < fe.bestFitness {
		fe.bestFitness = avgFitness
		fe.bestHallOfFame = bestSeedHallOfFame
	}
	fe.lastQuality = totalQuality / n
	fe.lastBest = totalBest / n
	fe.mu.Unlock()

	return avgFitness
}

// runEvolution executes one headless evolution run for the configured
// number of generations.
func (fe *FitnessEvaluator) runEvolution(x []float64, seed int64) *runResult {
	cfg := fe.copyConfig()
	fe.params.ApplyToConfig(cfg, x)
	cfg.Telemetry.LogGenerations = false
	if err := cfg.Finalize(); err != nil {
		slog.Warn("rejected parameter vector", "error", err)
		return &runResult{}
	}

	g, err := game.NewGameWithOptions(cfg, game.Options{Seed: seed, Headless: true})
	if err != nil {
		slog.Warn("failed to start run", "seed", seed, "error", err)
		return &runResult{}
	}
	defer g.Unload()

	ctx := context.Background()
	for g.Generation() < fe.generations {
		if err := g.UpdateHeadless(ctx); err != nil {
			break
		}
	}

	result := &runResult{
		recentMean: g.Population().Stats().RecentAverage,
		hallOfFame: g.HallOfFame(),
	}
	if best := g.Best(); best != nil {
		result.best = best.Fitness
	}
	return result
}

// copyConfig creates a copy of the base config. Config holds only values,
// so a struct copy is deep.
func (fe *FitnessEvaluator) copyConfig() *config.Config {
	cfg := *fe.baseConfig
	return &cfg
}

// computeFitness calculates the scalar fitness (lower = better).
// Formula: -(best × (1.0 + 0.2 × quality))
// The best creature dominates; quality adds up to 20% bonus for runs whose
// whole population keeps up.
func computeFitness(r *runResult) float64 {
	return -(r.best * (1.0 + 0.2*computeQuality(r)))
}

// computeQuality is the population's recent mean relative to its best
// creature, in [0, 1].
func computeQuality(r *runResult) float64 {
	if r.best <= 0 {
		return 0
	}
	return clamp01(r.recentMean / r.best)
}

// clamp01 clamps x to [0, 1].
func clamp01(x float64) float64 {
	if x < 0 {
		return 0
	}
	if x > 1 {
		return 1
	}
	return x
}
