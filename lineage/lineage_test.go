package lineage

import (
	"math"
	"testing"

	"gonum.org/v1/gonum/spatial/r3"

	"github.com/pthm-cable/creatures/genome"
)

func scored(f float64) *genome.Genome {
	g := &genome.Genome{Blocks: []genome.Block{{ID: 0, Parent: genome.NoParent, Size: r3.Vec{X: 1, Y: 1, Z: 1}}}}
	g.SetFitness(f)
	return g
}

func unscored() *genome.Genome {
	return &genome.Genome{Blocks: []genome.Block{{ID: 0, Parent: genome.NoParent, Size: r3.Vec{X: 1, Y: 1, Z: 1}}}}
}

func TestStrandBestAndLatest(t *testing.T) {
	var s Strand
	a, b, c := scored(1), scored(3), scored(2)
	s.Append(a)
	s.Append(b)
	s.Append(c)

	if s.Latest() != c {
		t.Error("Latest is not the newest generation")
	}
	if s.Best() != b {
		t.Error("Best is not the fittest generation")
	}
	if s.RecentBest(1) != c {
		t.Error("RecentBest(1) should only see the latest generation")
	}
	if got := s.RecentAverage(2); math.Abs(got-2.5) > 1e-12 {
		t.Errorf("RecentAverage(2) = %v, want 2.5", got)
	}

	d := unscored()
	s.Append(d)
	if s.Best() != b {
		t.Error("unevaluated generation should not become Best")
	}
	if s.RecentBest(1) != d {
		t.Error("RecentBest falls back to latest when nothing is evaluated")
	}
}

func TestStrandBestTieGoesToNewest(t *testing.T) {
	var s Strand
	old, newer := scored(2), scored(2)
	s.Append(old)
	s.Append(newer)
	if s.Best() != newer {
		t.Error("tie should prefer the newest generation")
	}
}

func TestIndexErrorsPanic(t *testing.T) {
	tests := []struct {
		name string
		fn   func()
	}{
		{"empty latest", func() { (&Strand{}).Latest() }},
		{"generation", func() { s := &Strand{}; s.Append(scored(1)); s.Generation(1) }},
		{"strand", func() { NewPopulation(3).Strand(3) }},
		{"negative strand", func() { NewPopulation(3).Strand(-1) }},
		{"reseed size", func() { NewPopulation(2).Reseed([]*genome.Genome{scored(1)}) }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			defer func() {
				if recover() == nil {
					t.Error("expected panic")
				}
			}()
			tt.fn()
		})
	}
}

func TestPopulationStats(t *testing.T) {
	p := NewPopulation(3)
	p.Append(0, scored(4))
	p.Append(0, scored(1))
	p.Append(1, scored(2))
	p.Append(2, unscored())

	st := p.Stats()
	if math.Abs(st.RecentSum-3) > 1e-12 || math.Abs(st.RecentAverage-1) > 1e-12 {
		t.Errorf("recent = %v / %v, want 3 / 1", st.RecentSum, st.RecentAverage)
	}
	if math.Abs(st.BestSum-6) > 1e-12 || math.Abs(st.BestAverage-2) > 1e-12 {
		t.Errorf("best = %v / %v, want 6 / 2", st.BestSum, st.BestAverage)
	}
	if st.Best != 4 || st.BestStrand != 0 {
		t.Errorf("best %v at strand %d, want 4 at 0", st.Best, st.BestStrand)
	}
}

func TestRankedAndReseed(t *testing.T) {
	p := NewPopulation(4)
	for i, f := range []float64{1, 5, 3, 5} {
		p.Append(i, scored(f))
	}
	got := p.Ranked(5)
	want := []int{1, 3, 2, 0}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("Ranked = %v, want %v", got, want)
		}
	}

	children := []*genome.Genome{unscored(), unscored(), unscored(), unscored()}
	p.Reseed(children)
	for i := 0; i < p.Size(); i++ {
		if p.Strand(i).Len() != 2 || p.Strand(i).Latest() != children[i] {
			t.Errorf("strand %d not reseeded", i)
		}
	}
}
