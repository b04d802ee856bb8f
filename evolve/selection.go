package evolve

import (
	"github.com/pthm-cable/creatures/config"
	"github.com/pthm-cable/creatures/genome"
)

// breedChildren selects parents and crosses them over until there is exactly
// one child per strand.
func (o *Orchestrator) breedChildren() []*genome.Genome {
	size := o.pop.Size()
	children := make([]*genome.Genome, 0, size)

	switch o.cfg.Evolution.Selection {
	case config.SelectionTournament:
		for len(children) < size {
			children = o.cross(children, o.tournament(), o.tournament(), size)
		}
	default:
		pool, _ := o.cullPool()
		for len(children) < size {
			i := o.rng.Intn(len(pool))
			j := o.rng.Intn(len(pool) - 1)
			if j >= i {
				j++
			}
			children = o.cross(children, pool[i], pool[j], size)
		}
	}
	return children
}

// cross appends up to two children of a and b, never exceeding size.
func (o *Orchestrator) cross(children []*genome.Genome, a, b *genome.Genome, size int) []*genome.Genome {
	c1, c2 := o.crossover(o.rng, a, b)
	o.Crossovers++
	children = append(children, c1)
	if len(children) < size {
		children = append(children, c2)
	}
	return children
}

// cullPool ranks strands by their recent best genome, keeps all but the
// worst CullCount and refills with freshly generated genomes. Returns the
// pool and the number of fresh genomes in it.
func (o *Orchestrator) cullPool() ([]*genome.Genome, int) {
	window := o.cfg.Population.RecentWindow
	ranked := o.pop.Ranked(window)
	cull := o.cfg.Derived.CullCount
	keep := len(ranked) - cull

	pool := make([]*genome.Genome, 0, len(ranked))
	for _, i := range ranked[:keep] {
		pool = append(pool, o.pop.Strand(i).RecentBest(window))
	}
	for k := 0; k < cull; k++ {
		pool = append(pool, o.randomGenome())
	}
	return pool, cull
}

// tournament draws two distinct strands and returns the fitter one's recent
// best genome.
func (o *Orchestrator) tournament() *genome.Genome {
	window := o.cfg.Population.RecentWindow
	n := o.pop.Size()
	i := o.rng.Intn(n)
	j := o.rng.Intn(n - 1)
	if j >= i {
		j++
	}
	a := o.pop.Strand(i).RecentBest(window)
	b := o.pop.Strand(j).RecentBest(window)
	if b.Fitness > a.Fitness {
		return b
	}
	return a
}
