// Package lineage groups genomes into strands, one per ancestral line, and
// aggregates their fitness.
package lineage

import (
	"fmt"
	"sort"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"

	"github.com/pthm-cable/creatures/genome"
)

// Strand is the append-only generation history of one lineage.
type Strand struct {
	generations []*genome.Genome
}

// Len returns the number of generations recorded.
func (s *Strand) Len() int {
	return len(s.generations)
}

// Append adds g as the newest generation.
func (s *Strand) Append(g *genome.Genome) {
	if g == nil {
		panic("lineage: append nil genome")
	}
	s.generations = append(s.generations, g)
}

// Generation returns generation i. Panics if i is out of range.
func (s *Strand) Generation(i int) *genome.Genome {
	if i < 0 || i >= len(s.generations) {
		panic(fmt.Sprintf("lineage: generation %d out of range [0,%d)", i, len(s.generations)))
	}
	return s.generations[i]
}

// Latest returns the newest generation. Panics on an empty strand.
func (s *Strand) Latest() *genome.Genome {
	return s.Generation(len(s.generations) - 1)
}

// ReplaceLatest swaps the newest generation, used when instantiation had to
// drop blocks and the genome was compacted.
func (s *Strand) ReplaceLatest(g *genome.Genome) {
	s.Generation(len(s.generations) - 1)
	s.generations[len(s.generations)-1] = g
}

// Best returns the highest-fitness evaluated generation, or the latest if
// none has been evaluated. Ties go to the newest.
func (s *Strand) Best() *genome.Genome {
	return s.RecentBest(len(s.generations))
}

// RecentBest is Best restricted to the last window generations.
func (s *Strand) RecentBest(window int) *genome.Genome {
	latest := s.Latest()
	var best *genome.Genome
	for i := len(s.generations) - 1; i >= 0 && i >= len(s.generations)-window; i-- {
		g := s.generations[i]
		if g.Evaluated && (best == nil || g.Fitness > best.Fitness) {
			best = g
		}
	}
	if best == nil {
		return latest
	}
	return best
}

// RecentAverage returns the mean fitness of the evaluated generations among
// the last window, or 0 if there are none.
func (s *Strand) RecentAverage(window int) float64 {
	var xs []float64
	for i := len(s.generations) - 1; i >= 0 && i >= len(s.generations)-window; i-- {
		if g := s.generations[i]; g.Evaluated {
			xs = append(xs, g.Fitness)
		}
	}
	if len(xs) == 0 {
		return 0
	}
	return stat.Mean(xs, nil)
}

// Population is a fixed number of strands.
type Population struct {
	strands []*Strand
}

// NewPopulation creates size empty strands.
func NewPopulation(size int) *Population {
	p := &Population{strands: make([]*Strand, size)}
	for i := range p.strands {
		p.strands[i] = &Strand{}
	}
	return p
}

// Size returns the strand count.
func (p *Population) Size() int {
	return len(p.strands)
}

// Strand returns strand i. Panics if i is out of range.
func (p *Population) Strand(i int) *Strand {
	if i < 0 || i >= len(p.strands) {
		panic(fmt.Sprintf("lineage: strand %d out of range [0,%d)", i, len(p.strands)))
	}
	return p.strands[i]
}

// Append adds g to strand i.
func (p *Population) Append(i int, g *genome.Genome) {
	p.Strand(i).Append(g)
}

// Reseed appends children[i] to strand i. Panics unless there is exactly one
// child per strand.
func (p *Population) Reseed(children []*genome.Genome) {
	if len(children) != len(p.strands) {
		panic(fmt.Sprintf("lineage: reseed with %d children for %d strands", len(children), len(p.strands)))
	}
	for i, g := range children {
		p.strands[i].Append(g)
	}
}

// Stats are population fitness aggregates.
type Stats struct {
	RecentSum     float64 // over every strand's latest genome
	RecentAverage float64
	BestSum       float64 // over every strand's best-ever genome
	BestAverage   float64
	Best          float64 // single highest best-ever fitness
	BestStrand    int
	StdDev        float64 // of latest fitness
}

// Stats recomputes aggregates over all strands. Unevaluated genomes count as
// fitness 0.
func (p *Population) Stats() Stats {
	if len(p.strands) == 0 {
		return Stats{BestStrand: -1}
	}
	recent := make([]float64, len(p.strands))
	best := make([]float64, len(p.strands))
	for i, s := range p.strands {
		if s.Len() == 0 {
			continue
		}
		recent[i] = fitnessOf(s.Latest())
		best[i] = fitnessOf(s.Best())
	}

	n := float64(len(p.strands))
	st := Stats{
		RecentSum:  floats.Sum(recent),
		BestSum:    floats.Sum(best),
		Best:       floats.Max(best),
		BestStrand: floats.MaxIdx(best),
	}
	st.RecentAverage = st.RecentSum / n
	st.BestAverage = st.BestSum / n
	if len(recent) > 1 {
		st.StdDev = stat.StdDev(recent, nil)
	}
	return st
}

// Ranked returns strand indices sorted by their best genome in the last
// window generations, fittest first. Ties keep index order.
func (p *Population) Ranked(window int) []int {
	idx := make([]int, len(p.strands))
	fit := make([]float64, len(p.strands))
	for i, s := range p.strands {
		idx[i] = i
		if s.Len() > 0 {
			fit[i] = fitnessOf(s.RecentBest(window))
		}
	}
	sort.SliceStable(idx, func(a, b int) bool {
		return fit[idx[a]] > fit[idx[b]]
	})
	return idx
}

func fitnessOf(g *genome.Genome) float64 {
	if !g.Evaluated {
		return 0
	}
	return g.Fitness
}
