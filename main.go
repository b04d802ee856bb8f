package main

import (
	"bytes"
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"log/slog"
	"math/rand"
	"os"
	"os/signal"
	"time"

	rl "github.com/gen2brain/raylib-go/raylib"

	"github.com/pthm-cable/creatures/config"
	"github.com/pthm-cable/creatures/game"
	"github.com/pthm-cable/creatures/genome"
	"github.com/pthm-cable/creatures/telemetry"
)

func main() {
	// CLI flags
	configPath := flag.String("config", "", "Path to config.yaml (empty = use defaults)")
	population := flag.Int("population", 0, "Number of strands (0 = use config)")
	maxBlocks := flag.Int("max-blocks", 0, "Maximum blocks per generated creature (0 = use config)")
	crossover := flag.String("crossover", "", "Crossover operator: uniform or single_point (empty = use config)")
	selection := flag.String("selection", "", "Selection: cull or tournament (empty = use config)")
	strategy := flag.String("strategy", "", "Growth strategy: random or mirrored (empty = use config)")
	headless := flag.Bool("headless", false, "Run without graphics")
	inPath := flag.String("in", "", "Seed from a genome, hall of fame or population snapshot JSON file")
	outPath := flag.String("out", "", "Write the best genome to this file on exit")
	outputDir := flag.String("output-dir", "", "Output directory for CSV logs, snapshots and config")
	seed := flag.Int64("seed", 0, "RNG seed (0 = time-based)")
	generations := flag.Int("generations", -1, "Stop after N generations (0 = unlimited, -1 = use config)")
	logStats := flag.Bool("log-stats", false, "Output perf stats via slog every generation")

	flag.Parse()

	// Set up slog (JSON to stdout for structured logging)
	logger := slog.New(slog.NewJSONHandler(os.Stdout, nil))
	slog.SetDefault(logger)

	// Initialize config before anything else
	if err := config.Init(*configPath); err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}
	cfg := config.Cfg()

	// Set up seed
	rngSeed := *seed
	if rngSeed == 0 {
		rngSeed = time.Now().UnixNano()
	}

	opts := game.Options{
		Seed:      rngSeed,
		OutputDir: *outputDir,
		LogStats:  *logStats,
		Headless:  *headless,
	}
	if *inPath != "" {
		seeds, resume, err := loadInput(*inPath, rngSeed)
		if err != nil {
			slog.Error("failed to load input", "path", *inPath, "error", err)
			os.Exit(1)
		}
		opts.Seeds = seeds
		opts.Resume = resume
		if resume != nil && *population == 0 {
			cfg.Population.Size = len(resume.Strands)
		}
		slog.Info("loaded input", "path", *inPath, "seeds", len(seeds), "resume", resume != nil)
	}

	// CLI overrides
	if *population > 0 {
		cfg.Population.Size = *population
	}
	if *maxBlocks > 0 {
		cfg.Morphology.MaxBlocks = *maxBlocks
		cfg.Morphology.MinBlocks = min(cfg.Morphology.MinBlocks, *maxBlocks)
	}
	if *crossover != "" {
		cfg.Evolution.Crossover = *crossover
	}
	if *selection != "" {
		cfg.Evolution.Selection = *selection
	}
	if *strategy != "" {
		cfg.Morphology.Strategy = *strategy
	}
	if *generations >= 0 {
		cfg.Evolution.Generations = *generations
	}
	if err := cfg.Finalize(); err != nil {
		slog.Error("invalid flags", "error", err)
		os.Exit(1)
	}
	maxGen := cfg.Evolution.Generations

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	if *headless {
		// Headless mode - pure CPU simulation, no raylib needed
		g, err := game.NewGameWithOptions(cfg, opts)
		if err != nil {
			slog.Error("failed to start", "error", err)
			os.Exit(1)
		}

		slog.Info("starting headless evolution",
			"seed", rngSeed,
			"population", cfg.Population.Size,
			"selection", cfg.Evolution.Selection,
			"crossover", cfg.Evolution.Crossover,
			"strategy", cfg.Morphology.Strategy,
			"generations", maxGen,
		)

		for maxGen == 0 || g.Generation() < maxGen {
			if err := g.UpdateHeadless(ctx); err != nil {
				slog.Info("stopped", "generation", g.Generation(), "reason", err)
				break
			}
		}
		if maxGen > 0 && g.Generation() >= maxGen {
			slog.Info("max generations reached", "generation", g.Generation())
		}
		finish(g, *outPath)
	} else {
		// Graphical mode
		rl.SetConfigFlags(rl.FlagWindowResizable | rl.FlagMsaa4xHint)
		rl.InitWindow(int32(cfg.Screen.Width), int32(cfg.Screen.Height), "Block Creatures")
		defer rl.CloseWindow()

		rl.SetTargetFPS(int32(cfg.Screen.TargetFPS))

		g, err := game.NewGameWithOptions(cfg, opts)
		if err != nil {
			slog.Error("failed to start", "error", err)
			os.Exit(1)
		}

		for !rl.WindowShouldClose() && ctx.Err() == nil {
			g.Update()
			g.Draw()

			if maxGen > 0 && g.Generation() >= maxGen {
				break
			}
		}
		finish(g, *outPath)
	}
}

// finish saves the best genome if requested and releases the game.
func finish(g *game.Game, outPath string) {
	if outPath != "" {
		if best := g.Best(); best != nil {
			if err := genome.Save(outPath, best); err != nil {
				slog.Error("failed to save best genome", "path", outPath, "error", err)
			} else {
				slog.Info("saved best genome", "path", outPath, "fitness", best.Fitness, "blocks", best.Len())
			}
		} else {
			slog.Warn("no evaluated genome to save")
		}
	}
	g.Unload()
}

// loadInput reads a seed file. A population snapshot resumes the run, a hall
// of fame seeds its genomes fittest first, anything else is read as a single
// genome.
func loadInput(path string, seed int64) ([]*genome.Genome, *telemetry.Snapshot, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, nil, err
	}

	if bytes.HasPrefix(bytes.TrimSpace(data), []byte("[")) {
		hof, err := telemetry.LoadHallOfFameFromFile(path, rand.New(rand.NewSource(seed)))
		if err != nil {
			return nil, nil, err
		}
		seeds := make([]*genome.Genome, hof.Size())
		for i := range seeds {
			seeds[i] = hof.Entry(i).Genome
		}
		return seeds, nil, nil
	}

	var probe struct {
		Strands json.RawMessage `json:"strands"`
	}
	if err := json.Unmarshal(data, &probe); err != nil {
		return nil, nil, fmt.Errorf("parsing input: %w", err)
	}
	if probe.Strands != nil {
		snap, err := telemetry.LoadPopulation(path)
		if err != nil {
			return nil, nil, err
		}
		return nil, snap, nil
	}

	g, err := genome.Load(path)
	if err != nil {
		return nil, nil, err
	}
	return []*genome.Genome{g}, nil, nil
}
