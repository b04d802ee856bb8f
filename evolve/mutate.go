package evolve

import (
	"math"
	"math/rand"

	"gonum.org/v1/gonum/spatial/r3"

	"github.com/pthm-cable/creatures/config"
	"github.com/pthm-cable/creatures/creature"
	"github.com/pthm-cable/creatures/genome"
)

// Bump applies small size and pivot perturbations to a child genome. Each
// block is bumped with probability cfg.Rate; the result is repaired.
func Bump(rng *rand.Rand, g *genome.Genome, cfg config.MutationConfig) error {
	for i := range g.Blocks {
		if rng.Float64() >= cfg.Rate {
			continue
		}
		b := &g.Blocks[i]
		b.Size = jitter(rng, b.Size, cfg.SizeSigma)
		if i > 0 {
			b.ParentOffset = clamp(b.ParentOffset+rng.NormFloat64()*cfg.PivotSigma, -1, 1)
			b.ChildOffset = clamp(b.ChildOffset+rng.NormFloat64()*cfg.PivotSigma, -1, 1)
		}
	}
	return creature.Repair(g)
}

// Perturbation kinds applied by Perturb.
const (
	PerturbSize   = "size"
	PerturbNeuron = "neuron"
)

// Perturb applies one bounded hill-climbing change to g: a resize of a
// random target block, or a change to one constant of one of its rules.
// Returns the kind of change made.
func Perturb(rng *rand.Rand, g *genome.Genome, cfg config.HillClimbConfig) (string, error) {
	target := g.Block(rng.Intn(g.Len()))
	kind := PerturbSize
	if n := len(target.Neurons); n > 0 && rng.Intn(2) == 0 {
		if target.Neurons[rng.Intn(n)].Perturb(rng, cfg.NeuronSigma) {
			kind = PerturbNeuron
		}
	}
	if kind == PerturbSize {
		target.Size = jitter(rng, target.Size, cfg.SizeSigma)
	}
	return kind, creature.Repair(g)
}

// jitter adds gaussian noise, bounded to three sigma, to each axis.
func jitter(rng *rand.Rand, v r3.Vec, sigma float64) r3.Vec {
	d := func() float64 {
		return clamp(rng.NormFloat64()*sigma, -3*sigma, 3*sigma)
	}
	return genome.ClampSize(r3.Vec{X: v.X + d(), Y: v.Y + d(), Z: v.Z + d()})
}

func clamp(x, lo, hi float64) float64 {
	return math.Max(lo, math.Min(hi, x))
}
