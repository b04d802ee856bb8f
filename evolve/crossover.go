package evolve

import (
	"math/rand"

	"github.com/pthm-cable/creatures/config"
	"github.com/pthm-cable/creatures/creature"
	"github.com/pthm-cable/creatures/genome"
	"github.com/pthm-cable/creatures/neural"
)

// CrossoverFunc combines two parents into two children. Children are
// repaired and structurally valid; parents are not modified.
type CrossoverFunc func(rng *rand.Rand, a, b *genome.Genome) (*genome.Genome, *genome.Genome)

// CrossoverFor returns the crossover with the given config name.
func CrossoverFor(name string) CrossoverFunc {
	if name == config.CrossoverSingle {
		return SinglePoint
	}
	return Uniform
}

// SinglePoint cuts both parents at the same random index k in [1, min(m,n))
// and swaps the tails. Parents too short to cut are copied.
func SinglePoint(rng *rand.Rand, a, b *genome.Genome) (*genome.Genome, *genome.Genome) {
	shortest := min(a.Len(), b.Len())
	if shortest < 2 {
		return a.Clone(), b.Clone()
	}
	k := 1 + rng.Intn(shortest-1)
	c1 := splice(a.Blocks[:k], b.Blocks[k:])
	c2 := splice(b.Blocks[:k], a.Blocks[k:])
	return repaired(c1, a), repaired(c2, b)
}

// Uniform takes each block position below min(m,n) from either parent with
// equal probability. Each child keeps its own parent's tail.
func Uniform(rng *rand.Rand, a, b *genome.Genome) (*genome.Genome, *genome.Genome) {
	c1, c2 := a.Clone(), b.Clone()
	shortest := min(a.Len(), b.Len())
	for i := 0; i < shortest; i++ {
		if rng.Intn(2) == 0 {
			c1.Blocks[i], c2.Blocks[i] = c2.Blocks[i], c1.Blocks[i]
		}
	}
	return repaired(c1, a), repaired(c2, b)
}

func splice(head, tail []genome.Block) *genome.Genome {
	g := &genome.Genome{Blocks: make([]genome.Block, 0, len(head)+len(tail))}
	for _, part := range [][]genome.Block{head, tail} {
		for _, b := range part {
			b.Neurons = append([]neural.Neuron(nil), b.Neurons...)
			g.Blocks = append(g.Blocks, b)
		}
	}
	return g
}

// repaired returns child after Repair, or a copy of fallback if the child
// cannot be made valid.
func repaired(child, fallback *genome.Genome) *genome.Genome {
	if err := creature.Repair(child); err != nil {
		return fallback.Clone()
	}
	return child
}
