package telemetry

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/pthm-cable/creatures/genome"
	"github.com/pthm-cable/creatures/lineage"
)

// SnapshotVersion is incremented when the format changes.
const SnapshotVersion = 1

// Snapshot holds a whole population and the counters needed to resume a run.
type Snapshot struct {
	Version int   `json:"version"`
	RNGSeed int64 `json:"rng_seed"`

	Generation  int `json:"generation"`
	Crossovers  int `json:"crossovers"`
	Evaluations int `json:"evaluations"`

	// Strands in order; each strand's genomes oldest first.
	Strands [][]*genome.Genome `json:"strands"`

	Bookmark *Bookmark `json:"bookmark,omitempty"`
}

// NewSnapshot captures pop. Genomes are shared, not copied; save the snapshot
// before the population changes.
func NewSnapshot(pop *lineage.Population, seed int64, generation int) *Snapshot {
	s := &Snapshot{
		Version:    SnapshotVersion,
		RNGSeed:    seed,
		Generation: generation,
		Strands:    make([][]*genome.Genome, pop.Size()),
	}
	for i := range s.Strands {
		st := pop.Strand(i)
		gs := make([]*genome.Genome, st.Len())
		for k := range gs {
			gs[k] = st.Generation(k)
		}
		s.Strands[i] = gs
	}
	return s
}

// Population rebuilds the lineage population from the snapshot.
func (s *Snapshot) Population() *lineage.Population {
	pop := lineage.NewPopulation(len(s.Strands))
	for i, gs := range s.Strands {
		for _, g := range gs {
			pop.Append(i, g)
		}
	}
	return pop
}

// SavePopulation writes a snapshot to dir.
// Returns the filepath where it was saved.
func SavePopulation(snapshot *Snapshot, dir string) (string, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return "", fmt.Errorf("create snapshot dir: %w", err)
	}

	// Build filename
	name := fmt.Sprintf("population_%d", snapshot.Generation)
	if snapshot.Bookmark != nil {
		// Sanitize bookmark type for filename
		sanitized := strings.ReplaceAll(string(snapshot.Bookmark.Type), " ", "_")
		name = fmt.Sprintf("population_%d_%s", snapshot.Generation, sanitized)
	}
	name += ".json"

	path := filepath.Join(dir, name)

	data, err := json.MarshalIndent(snapshot, "", "  ")
	if err != nil {
		return "", fmt.Errorf("marshal snapshot: %w", err)
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return "", fmt.Errorf("write snapshot: %w", err)
	}

	return path, nil
}

// LoadPopulation reads a snapshot from disk and validates every genome in it.
func LoadPopulation(path string) (*Snapshot, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read snapshot: %w", err)
	}

	var snapshot Snapshot
	if err := json.Unmarshal(data, &snapshot); err != nil {
		return nil, fmt.Errorf("unmarshal snapshot: %w", err)
	}
	if snapshot.Version != SnapshotVersion {
		return nil, fmt.Errorf("unsupported snapshot version %d", snapshot.Version)
	}

	for i, gs := range snapshot.Strands {
		if len(gs) == 0 {
			return nil, fmt.Errorf("strand %d is empty", i)
		}
		for k, g := range gs {
			if g == nil {
				return nil, fmt.Errorf("strand %d genome %d: missing", i, k)
			}
			if err := g.Validate(); err != nil {
				return nil, fmt.Errorf("strand %d genome %d: %w", i, k, err)
			}
		}
	}

	return &snapshot, nil
}
