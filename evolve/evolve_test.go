package evolve

import (
	"context"
	"errors"
	"math"
	"math/rand"
	"reflect"
	"testing"

	"gonum.org/v1/gonum/spatial/r3"

	"github.com/pthm-cable/creatures/config"
	"github.com/pthm-cable/creatures/creature"
	"github.com/pthm-cable/creatures/genome"
	"github.com/pthm-cable/creatures/lineage"
	"github.com/pthm-cable/creatures/physics"
	"github.com/pthm-cable/creatures/telemetry"
)

// testConfig returns defaults with short evaluations.
func testConfig(t testing.TB, size int) *config.Config {
	t.Helper()
	cfg := config.Default()
	cfg.Population.Size = size
	cfg.Evaluation.Seconds = 0.25
	cfg.HillClimb.Attempts = 1
	cfg.Telemetry.LogGenerations = false
	if err := cfg.Finalize(); err != nil {
		t.Fatal(err)
	}
	return cfg
}

func newOrchestrator(t testing.TB, cfg *config.Config, seed int64, opts Options) *Orchestrator {
	t.Helper()
	o, err := New(cfg, rand.New(rand.NewSource(seed)), NewEngine(cfg), opts)
	if err != nil {
		t.Fatal(err)
	}
	return o
}

// randomGenomes grows n random genomes.
func randomGenomes(t testing.TB, cfg *config.Config, rng *rand.Rand, n int) []*genome.Genome {
	t.Helper()
	gen, err := creature.NewGenerator(cfg)
	if err != nil {
		t.Fatal(err)
	}
	w := NewEngine(cfg)
	out := make([]*genome.Genome, n)
	for i := range out {
		c := gen.Generate(w, rng)
		out[i] = c.Genome()
		c.Remove()
	}
	return out
}

// setFitness gives strand i's latest genome fitness f(i).
func setFitness(pop *lineage.Population, f func(i int) float64) {
	for i := 0; i < pop.Size(); i++ {
		pop.Strand(i).Latest().SetFitness(f(i))
	}
}

func TestCrossoverChildrenAreValid(t *testing.T) {
	cfg := testConfig(t, 4)
	rng := rand.New(rand.NewSource(42))
	parents := randomGenomes(t, cfg, rng, 40)

	tests := []struct {
		name string
		fn   CrossoverFunc
	}{
		{config.CrossoverUniform, Uniform},
		{config.CrossoverSingle, SinglePoint},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			for i := 0; i+1 < len(parents); i += 2 {
				a, b := parents[i], parents[i+1]
				aBefore, bBefore := a.Clone(), b.Clone()

				c1, c2 := tt.fn(rng, a, b)
				for _, c := range []*genome.Genome{c1, c2} {
					if err := c.Validate(); err != nil {
						t.Fatalf("pair %d: invalid child: %v", i, err)
					}
					if c.Evaluated {
						t.Errorf("pair %d: child carries parent fitness", i)
					}
				}
				if got, want := c1.Len()+c2.Len(), a.Len()+b.Len(); got != want {
					t.Errorf("pair %d: children have %d blocks, parents %d", i, got, want)
				}
				if !reflect.DeepEqual(a, aBefore) || !reflect.DeepEqual(b, bBefore) {
					t.Fatalf("pair %d: parents modified", i)
				}
			}
		})
	}
}

func TestUniformKeepsOwnTails(t *testing.T) {
	cfg := testConfig(t, 4)
	rng := rand.New(rand.NewSource(42))
	gs := randomGenomes(t, cfg, rng, 20)
	for i := 0; i+1 < len(gs); i += 2 {
		c1, c2 := Uniform(rng, gs[i], gs[i+1])
		if c1.Len() != gs[i].Len() || c2.Len() != gs[i+1].Len() {
			t.Errorf("pair %d: lengths %d,%d want %d,%d", i, c1.Len(), c2.Len(), gs[i].Len(), gs[i+1].Len())
		}
	}
}

func TestSinglePointShortParents(t *testing.T) {
	root := &genome.Genome{Blocks: []genome.Block{{ID: 0, Parent: genome.NoParent, Size: r3.Vec{X: 1, Y: 1, Z: 1}}}}
	other := root.Clone()
	other.Blocks[0].Size = r3.Vec{X: 2, Y: 1, Z: 1}

	c1, c2 := SinglePoint(rand.New(rand.NewSource(42)), root, other)
	if !reflect.DeepEqual(c1, root) || !reflect.DeepEqual(c2, other) {
		t.Error("single-block parents should be copied unchanged")
	}
	if c1 == root || c2 == other {
		t.Error("children must be copies")
	}
}

func TestBreedChildrenExactlyP(t *testing.T) {
	for _, selection := range []string{config.SelectionCull, config.SelectionTournament} {
		for _, size := range []int{2, 3, 5, 10} {
			cfg := testConfig(t, size)
			cfg.Evolution.Selection = selection
			if err := cfg.Finalize(); err != nil {
				t.Fatal(err)
			}
			o := newOrchestrator(t, cfg, 42, Options{})
			setFitness(o.Population(), func(i int) float64 { return float64(i) })

			children := o.breedChildren()
			if len(children) != size {
				t.Errorf("%s P=%d: %d children", selection, size, len(children))
			}
			for i, c := range children {
				if err := c.Validate(); err != nil {
					t.Errorf("%s P=%d: child %d invalid: %v", selection, size, i, err)
				}
			}
			if o.Crossovers != (size+1)/2 {
				t.Errorf("%s P=%d: %d crossovers, want %d", selection, size, o.Crossovers, (size+1)/2)
			}
		}
	}
}

func TestCullPool(t *testing.T) {
	cfg := testConfig(t, 10)
	if cfg.Derived.CullCount != 2 {
		t.Fatalf("CullCount = %d, want 2", cfg.Derived.CullCount)
	}
	o := newOrchestrator(t, cfg, 42, Options{})
	pop := o.Population()
	setFitness(pop, func(i int) float64 { return float64(i) })

	pool, fresh := o.cullPool()
	if len(pool) != 10 || fresh != 2 {
		t.Fatalf("pool %d with %d fresh, want 10 with 2", len(pool), fresh)
	}

	// Survivors are the top 8 strands, fittest first
	for k := 0; k < 8; k++ {
		want := pop.Strand(9 - k).Latest()
		if pool[k] != want {
			t.Errorf("pool[%d] is not strand %d's genome", k, 9-k)
		}
	}
	// Strands 0 and 1 are gone; the refills are new, unevaluated genomes
	for _, g := range pool[8:] {
		if g.Evaluated {
			t.Error("fresh genome is already evaluated")
		}
		for i := 0; i < pop.Size(); i++ {
			if g == pop.Strand(i).Latest() {
				t.Errorf("fresh genome is strand %d's", i)
			}
		}
		if err := g.Validate(); err != nil {
			t.Errorf("fresh genome invalid: %v", err)
		}
	}
	if n := o.engine.(*physics.World).BodyCount(); n != 0 {
		t.Errorf("engine holds %d bodies after generating fresh genomes", n)
	}
}

func TestTournamentPicksFitter(t *testing.T) {
	cfg := testConfig(t, 2)
	o := newOrchestrator(t, cfg, 42, Options{})
	pop := o.Population()
	setFitness(pop, func(i int) float64 { return float64(1 + 4*i) })

	for k := 0; k < 20; k++ {
		if got := o.tournament(); got != pop.Strand(1).Latest() {
			t.Fatal("tournament between two strands picked the weaker one")
		}
	}
}

func TestHillClimbRecord(t *testing.T) {
	cfg := testConfig(t, 2)
	o := newOrchestrator(t, cfg, 42, Options{})
	strand := o.Population().Strand(0)
	strand.Latest().SetFitness(2)

	tests := []struct {
		name         string
		fitness      float64
		wantAccepted bool
		wantNeeded   bool
	}{
		{"worse is reverted", 1, false, true},
		{"equal is kept", 2, true, true},
		{"better is kept", 3, true, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			o.needed[0] = true
			o.Accepted = 0
			before := strand.Len()
			cand := strand.Best().Clone()

			o.record(job{strand: 0, genome: cand, candidate: true}, tt.fitness, cand)

			if got := strand.Len() > before; got != tt.wantAccepted {
				t.Errorf("appended = %v, want %v", got, tt.wantAccepted)
			}
			if got := o.Accepted == 1; got != tt.wantAccepted {
				t.Errorf("Accepted = %d", o.Accepted)
			}
			if o.needed[0] != tt.wantNeeded {
				t.Errorf("needed = %v, want %v", o.needed[0], tt.wantNeeded)
			}
			if tt.wantAccepted && strand.Latest() != cand {
				t.Error("accepted candidate is not the strand's latest")
			}
		})
	}
	if best := strand.Best().Fitness; best != 3 {
		t.Errorf("strand best = %v, want 3", best)
	}
}

func TestRecordReplacesCompactedLatest(t *testing.T) {
	cfg := testConfig(t, 2)
	o := newOrchestrator(t, cfg, 42, Options{})
	strand := o.Population().Strand(1)
	orig := strand.Latest()
	compacted := orig.Clone()
	compacted.Blocks = compacted.Blocks[:1]

	o.record(job{strand: 1, genome: orig}, 0.75, compacted)

	if strand.Latest() != compacted || strand.Len() != 1 {
		t.Error("compacted genome did not replace the strand's latest")
	}
	if !compacted.Evaluated || compacted.Fitness != 0.75 {
		t.Errorf("fitness not recorded: %v %v", compacted.Evaluated, compacted.Fitness)
	}
}

func TestStructuralFailureRecordsZero(t *testing.T) {
	cfg := testConfig(t, 2)
	o := newOrchestrator(t, cfg, 42, Options{})
	bad := o.Population().Strand(0).Latest()
	bad.Blocks[0].Size = r3.Vec{X: 0.1, Y: 1, Z: 1}

	o.next()

	if o.eval != nil {
		t.Fatal("evaluation started for an invalid genome")
	}
	if o.Failures != 1 {
		t.Errorf("Failures = %d, want 1", o.Failures)
	}
	if !bad.Evaluated || bad.Fitness != 0 {
		t.Errorf("invalid genome recorded as (%v, %v), want evaluated with 0", bad.Evaluated, bad.Fitness)
	}
	if n := o.engine.(*physics.World).BodyCount(); n != 0 {
		t.Errorf("engine holds %d bodies", n)
	}
}

func TestRunGeneration(t *testing.T) {
	cfg := testConfig(t, 4)
	var calls []telemetry.GenerationStats
	o := newOrchestrator(t, cfg, 42, Options{
		OnGeneration: func(s telemetry.GenerationStats, pop *lineage.Population) {
			calls = append(calls, s)
			for i := 0; i < pop.Size(); i++ {
				if !pop.Strand(i).Latest().Evaluated {
					t.Errorf("strand %d latest not evaluated before breeding", i)
				}
			}
		},
	})
	defer o.Close()

	if err := o.RunGeneration(context.Background()); err != nil {
		t.Fatal(err)
	}

	if o.Generation != 1 {
		t.Errorf("Generation = %d, want 1", o.Generation)
	}
	if len(calls) != 1 || calls[0].Generation != 0 {
		t.Fatalf("OnGeneration calls = %+v", calls)
	}
	if calls[0].Evaluations < cfg.Population.Size {
		t.Errorf("Evaluations = %d, want >= %d", calls[0].Evaluations, cfg.Population.Size)
	}
	pop := o.Population()
	for i := 0; i < pop.Size(); i++ {
		st := pop.Strand(i)
		if st.Len() < 2 {
			t.Errorf("strand %d has %d genomes after reseed", i, st.Len())
		}
		if err := st.Latest().Validate(); err != nil {
			t.Errorf("strand %d child invalid: %v", i, err)
		}
	}
	if o.Phase() != PhaseEvaluate {
		t.Errorf("phase = %v after a generation, want evaluate", o.Phase())
	}
}

func TestRunGenerationCancelled(t *testing.T) {
	cfg := testConfig(t, 2)
	o := newOrchestrator(t, cfg, 42, Options{})
	defer o.Close()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if err := o.RunGeneration(ctx); !errors.Is(err, context.Canceled) {
		t.Errorf("err = %v, want context.Canceled", err)
	}
	if o.Generation != 0 {
		t.Errorf("Generation = %d, want 0", o.Generation)
	}
}

func TestResumeSizeMismatch(t *testing.T) {
	cfg := testConfig(t, 3)
	_, err := New(cfg, rand.New(rand.NewSource(42)), NewEngine(cfg), Options{Population: lineage.NewPopulation(2)})
	if err == nil {
		t.Error("expected error for a resumed population of the wrong size")
	}
}

func TestEvaluateRootOnly(t *testing.T) {
	cfg := testConfig(t, 2)
	cfg.Evaluation.Seconds = 10
	if err := cfg.Finalize(); err != nil {
		t.Fatal(err)
	}
	g := &genome.Genome{Blocks: []genome.Block{{ID: 0, Parent: genome.NoParent, Size: r3.Vec{X: 1, Y: 1, Z: 1}}}}

	fitness, simulated, err := Evaluate(context.Background(), cfg, g)
	if err != nil {
		t.Fatal(err)
	}
	if math.Abs(fitness-cfg.Morphology.SpawnClearance) > 1e-9 {
		t.Errorf("fitness = %v, want resting height %v", fitness, cfg.Morphology.SpawnClearance)
	}
	if simulated.Len() != 1 {
		t.Errorf("simulated %d blocks, want 1", simulated.Len())
	}
}

func TestEvaluateStructuralError(t *testing.T) {
	cfg := testConfig(t, 2)
	g := &genome.Genome{Blocks: []genome.Block{{ID: 0, Parent: genome.NoParent, Size: r3.Vec{X: 0.1, Y: 1, Z: 1}}}}
	if _, _, err := Evaluate(context.Background(), cfg, g); !errors.Is(err, genome.ErrInvalidSize) {
		t.Errorf("err = %v, want ErrInvalidSize", err)
	}
}

func TestMutationsKeepGenomesValid(t *testing.T) {
	cfg := testConfig(t, 2)
	rng := rand.New(rand.NewSource(42))
	mut := cfg.Mutation
	mut.Rate = 1

	for i, g := range randomGenomes(t, cfg, rng, 30) {
		n := g.Len()
		if err := Bump(rng, g, mut); err != nil {
			t.Fatalf("genome %d: Bump: %v", i, err)
		}
		if g.Len() != n {
			t.Errorf("genome %d: Bump changed block count %d -> %d", i, n, g.Len())
		}

		g.SetFitness(1)
		kind, err := Perturb(rng, g, cfg.HillClimb)
		if err != nil {
			t.Fatalf("genome %d: Perturb: %v", i, err)
		}
		if kind != PerturbSize && kind != PerturbNeuron {
			t.Errorf("genome %d: unknown perturbation %q", i, kind)
		}
		if g.Evaluated {
			t.Errorf("genome %d: perturbed genome keeps its old fitness", i)
		}
	}
}

func BenchmarkEvaluate(b *testing.B) {
	cfg := testConfig(b, 2)
	gs := randomGenomes(b, cfg, rand.New(rand.NewSource(42)), 8)
	ctx := context.Background()
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		if _, _, err := Evaluate(ctx, cfg, gs[i%len(gs)]); err != nil {
			b.Fatal(err)
		}
	}
}
