package telemetry

import (
	"encoding/json"
	"fmt"
	"math/rand"
	"os"
	"sort"

	"github.com/pthm-cable/creatures/genome"
)

// HallEntry is one of the best genomes seen during a run.
type HallEntry struct {
	Genome     *genome.Genome
	Fitness    float64
	Strand     int
	Generation int

	source *genome.Genome // genome the entry was copied from, for dedup
}

// HallOfFame keeps the fittest genomes of a run, sorted by fitness
// descending, independent of which strands still carry them.
type HallOfFame struct {
	hall    []HallEntry
	maxSize int
	rng     *rand.Rand
}

// NewHallOfFame creates a new hall of fame with the given capacity.
func NewHallOfFame(maxSize int, rng *rand.Rand) *HallOfFame {
	if maxSize < 1 {
		maxSize = 1
	}
	return &HallOfFame{
		hall:    make([]HallEntry, 0, maxSize),
		maxSize: maxSize,
		rng:     rng,
	}
}

// Consider offers an evaluated genome for entry. The hall stores a copy.
// Returns true if the genome was added.
func (hof *HallOfFame) Consider(g *genome.Genome, strand, generation int) bool {
	if g == nil || !g.Evaluated || g.Fitness <= 0 {
		return false
	}
	if hof.contains(g) {
		return false
	}

	entry := HallEntry{
		Genome:     g.Clone(),
		Fitness:    g.Fitness,
		Strand:     strand,
		Generation: generation,
		source:     g,
	}
	hof.hall = hof.insertEntry(hof.hall, entry)
	return hof.contains(g)
}

// ConsiderPopulation offers every strand's best genome.
func (hof *HallOfFame) ConsiderPopulation(bests []*genome.Genome, generation int) int {
	added := 0
	for strand, g := range bests {
		if hof.Consider(g, strand, generation) {
			added++
		}
	}
	return added
}

func (hof *HallOfFame) contains(g *genome.Genome) bool {
	for _, e := range hof.hall {
		if e.source == g {
			return true
		}
	}
	return false
}

// insertEntry adds an entry to the hall, maintaining sorted order by fitness.
// If the hall is full, the lowest-fitness entry is removed.
func (hof *HallOfFame) insertEntry(hall []HallEntry, entry HallEntry) []HallEntry {
	// Find insertion point (sorted descending by fitness)
	idx := sort.Search(len(hall), func(i int) bool {
		return hall[i].Fitness < entry.Fitness
	})

	// If hall is full and entry would be last (lowest), skip it
	if len(hall) >= hof.maxSize && idx >= hof.maxSize {
		return hall
	}

	hall = append(hall, HallEntry{})
	copy(hall[idx+1:], hall[idx:])
	hall[idx] = entry

	if len(hall) > hof.maxSize {
		hall = hall[:hof.maxSize]
	}
	return hall
}

// Sample selects a genome from the hall using tournament selection and
// returns a copy. Returns nil if the hall is empty.
func (hof *HallOfFame) Sample() *genome.Genome {
	if len(hof.hall) == 0 {
		return nil
	}

	// Tournament selection with k=3
	const tournamentSize = 3
	var best *HallEntry
	for i := 0; i < tournamentSize && i < len(hof.hall); i++ {
		candidate := &hof.hall[hof.rng.Intn(len(hof.hall))]
		if best == nil || candidate.Fitness > best.Fitness {
			best = candidate
		}
	}
	return best.Genome.Clone()
}

// Size returns the number of entries.
func (hof *HallOfFame) Size() int {
	return len(hof.hall)
}

// Entry returns entry i, fittest first.
func (hof *HallOfFame) Entry(i int) HallEntry {
	if i < 0 || i >= len(hof.hall) {
		panic(fmt.Sprintf("hall of fame entry %d out of range [0,%d)", i, len(hof.hall)))
	}
	return hof.hall[i]
}

// TopFitness returns the highest fitness in the hall, or 0 if it is empty.
func (hof *HallOfFame) TopFitness() float64 {
	if len(hof.hall) == 0 {
		return 0
	}
	return hof.hall[0].Fitness
}

// hallEntryJSON is the JSON-serializable representation of a hall entry.
type hallEntryJSON struct {
	Fitness    float64        `json:"fitness"`
	Strand     int            `json:"strand"`
	Generation int            `json:"generation"`
	Blocks     int            `json:"blocks"`
	Genome     *genome.Genome `json:"genome"`
}

// MarshalJSON serializes the hall of fame, fittest first.
func (hof *HallOfFame) MarshalJSON() ([]byte, error) {
	entries := make([]hallEntryJSON, len(hof.hall))
	for i, e := range hof.hall {
		entries[i] = hallEntryJSON{
			Fitness:    e.Fitness,
			Strand:     e.Strand,
			Generation: e.Generation,
			Blocks:     e.Genome.Len(),
			Genome:     e.Genome,
		}
	}
	return json.MarshalIndent(entries, "", "  ")
}

// LoadHallOfFameFromFile reads a hall of fame JSON file. Entries whose genome
// fails validation are an error.
func LoadHallOfFameFromFile(path string, rng *rand.Rand) (*HallOfFame, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading hall of fame: %w", err)
	}

	var raw []hallEntryJSON
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("parsing hall of fame JSON: %w", err)
	}

	maxSize := max(len(raw), 20)
	hof := NewHallOfFame(maxSize, rng)
	for i, ej := range raw {
		if ej.Genome == nil {
			return nil, fmt.Errorf("hall of fame entry %d: missing genome", i)
		}
		if err := ej.Genome.Validate(); err != nil {
			return nil, fmt.Errorf("hall of fame entry %d: %w", i, err)
		}
		ej.Genome.SetFitness(ej.Fitness)
		hof.hall = hof.insertEntry(hof.hall, HallEntry{
			Genome:     ej.Genome,
			Fitness:    ej.Fitness,
			Strand:     ej.Strand,
			Generation: ej.Generation,
		})
	}
	return hof, nil
}
