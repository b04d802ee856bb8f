// Package telemetry provides per-generation statistics, CSV output,
// performance timing, milestone bookmarks and population snapshots.
package telemetry

import (
	"log/slog"
	"sort"

	"gonum.org/v1/gonum/stat"

	"github.com/pthm-cable/creatures/lineage"
)

// GenerationStats holds aggregated statistics for one generation, taken
// after evaluation and hill climbing and before breeding.
type GenerationStats struct {
	Generation int `csv:"generation"`

	// Orchestrator counters
	Evaluations       int `csv:"evaluations"` // cumulative
	Crossovers        int `csv:"crossovers"`  // cumulative
	HillClimbAccepted int `csv:"hill_climb_accepted"`
	Failures          int `csv:"failures"` // structural errors
	Invalid           int `csv:"invalid"`  // rejected by the fitness check

	// Fitness over every strand's latest genome
	RecentSum  float64 `csv:"recent_sum"`
	RecentMean float64 `csv:"recent_mean"`
	FitnessStd float64 `csv:"fitness_std"`
	FitnessP10 float64 `csv:"fitness_p10"`
	FitnessP50 float64 `csv:"fitness_p50"`
	FitnessP90 float64 `csv:"fitness_p90"`

	// Fitness over every strand's best-ever genome
	BestSum    float64 `csv:"best_sum"`
	BestMean   float64 `csv:"best_mean"`
	Best       float64 `csv:"best"`
	BestStrand int     `csv:"best_strand"`

	// Morphology of the latest genomes
	MeanBlocks  float64 `csv:"mean_blocks"`
	MeanNeurons float64 `csv:"mean_neurons"`
	MaxDepth    int     `csv:"max_depth"`
}

// NewGenerationStats computes the fitness and morphology fields from the
// population. Counter fields are left for the caller.
func NewGenerationStats(generation int, pop *lineage.Population) GenerationStats {
	agg := pop.Stats()
	s := GenerationStats{
		Generation: generation,
		RecentSum:  agg.RecentSum,
		RecentMean: agg.RecentAverage,
		FitnessStd: agg.StdDev,
		BestSum:    agg.BestSum,
		BestMean:   agg.BestAverage,
		Best:       agg.Best,
		BestStrand: agg.BestStrand,
	}

	n := pop.Size()
	if n == 0 {
		return s
	}
	latest := make([]float64, 0, n)
	blocks := make([]float64, 0, n)
	neurons := make([]float64, 0, n)
	for i := 0; i < n; i++ {
		st := pop.Strand(i)
		if st.Len() == 0 {
			continue
		}
		g := st.Latest()
		f := 0.0
		if g.Evaluated {
			f = g.Fitness
		}
		latest = append(latest, f)
		blocks = append(blocks, float64(g.Len()))
		neurons = append(neurons, float64(g.NeuronCount()))
		if d := g.Depth(); d > s.MaxDepth {
			s.MaxDepth = d
		}
	}
	if len(latest) == 0 {
		return s
	}
	sort.Float64s(latest)
	s.FitnessP10 = Percentile(latest, 0.10)
	s.FitnessP50 = Percentile(latest, 0.50)
	s.FitnessP90 = Percentile(latest, 0.90)
	s.MeanBlocks = stat.Mean(blocks, nil)
	s.MeanNeurons = stat.Mean(neurons, nil)
	return s
}

// Percentile calculates the p-th percentile of a sorted slice.
// p should be in [0, 1]. Returns 0 if slice is empty.
func Percentile(sorted []float64, p float64) float64 {
	n := len(sorted)
	if n == 0 {
		return 0
	}
	if p <= 0 {
		return sorted[0]
	}
	if p >= 1 {
		return sorted[n-1]
	}

	// Linear interpolation
	idx := p * float64(n-1)
	lo := int(idx)
	hi := lo + 1
	if hi >= n {
		return sorted[n-1]
	}

	frac := idx - float64(lo)
	return sorted[lo]*(1-frac) + sorted[hi]*frac
}

// LogValue implements slog.LogValuer for structured logging.
func (s GenerationStats) LogValue() slog.Value {
	return slog.GroupValue(
		slog.Int("generation", s.Generation),
		slog.Int("evaluations", s.Evaluations),
		slog.Int("crossovers", s.Crossovers),
		slog.Int("hill_climb_accepted", s.HillClimbAccepted),
		slog.Int("failures", s.Failures),
		slog.Int("invalid", s.Invalid),
		slog.Float64("recent_mean", s.RecentMean),
		slog.Float64("fitness_std", s.FitnessStd),
		slog.Float64("fitness_p50", s.FitnessP50),
		slog.Float64("best_mean", s.BestMean),
		slog.Float64("best", s.Best),
		slog.Int("best_strand", s.BestStrand),
		slog.Float64("mean_blocks", s.MeanBlocks),
		slog.Float64("mean_neurons", s.MeanNeurons),
		slog.Int("max_depth", s.MaxDepth),
	)
}

// StrandRecord is one strand's state at the end of a generation, flattened
// for strands.csv.
type StrandRecord struct {
	Generation    int     `csv:"generation"`
	Strand        int     `csv:"strand"`
	Length        int     `csv:"length"`
	LatestFitness float64 `csv:"latest_fitness"`
	BestFitness   float64 `csv:"best_fitness"`
	RecentMean    float64 `csv:"recent_mean"`
	Blocks        int     `csv:"blocks"`
	Neurons       int     `csv:"neurons"`
	Depth         int     `csv:"depth"`
}

// StrandRecords flattens every non-empty strand of pop.
func StrandRecords(generation int, pop *lineage.Population, window int) []StrandRecord {
	records := make([]StrandRecord, 0, pop.Size())
	for i := 0; i < pop.Size(); i++ {
		st := pop.Strand(i)
		if st.Len() == 0 {
			continue
		}
		latest := st.Latest()
		records = append(records, StrandRecord{
			Generation:    generation,
			Strand:        i,
			Length:        st.Len(),
			LatestFitness: latest.Fitness,
			BestFitness:   st.Best().Fitness,
			RecentMean:    st.RecentAverage(window),
			Blocks:        latest.Len(),
			Neurons:       latest.NeuronCount(),
			Depth:         latest.Depth(),
		})
	}
	return records
}
