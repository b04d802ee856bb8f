package telemetry

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"gonum.org/v1/gonum/spatial/r3"

	"github.com/pthm-cable/creatures/genome"
	"github.com/pthm-cable/creatures/lineage"
)

// testGenome builds an n-block chain with the given fitness.
func testGenome(n int, fitness float64) *genome.Genome {
	g := &genome.Genome{}
	for i := 0; i < n; i++ {
		g.Blocks = append(g.Blocks, genome.Block{
			ID:     i,
			Parent: i - 1,
			Size:   r3.Vec{X: 1, Y: 1, Z: 1},
		})
	}
	g.SetFitness(fitness)
	return g
}

func testPopulation() *lineage.Population {
	pop := lineage.NewPopulation(3)
	pop.Append(0, testGenome(1, 0.5))
	pop.Append(0, testGenome(2, 1.5))
	pop.Append(1, testGenome(3, 2.0))
	pop.Append(2, testGenome(2, 0.25))
	return pop
}

func TestSnapshotSaveLoad(t *testing.T) {
	tmpDir := t.TempDir()

	pop := testPopulation()
	snapshot := NewSnapshot(pop, 42, 7)
	snapshot.Crossovers = 30
	snapshot.Bookmark = &Bookmark{
		Type:        BookmarkNewRecord,
		Generation:  7,
		Description: "Test bookmark",
	}

	path, err := SavePopulation(snapshot, tmpDir)
	if err != nil {
		t.Fatalf("SavePopulation failed: %v", err)
	}
	if _, err := os.Stat(path); os.IsNotExist(err) {
		t.Errorf("Snapshot file not created at %s", path)
	}

	loaded, err := LoadPopulation(path)
	if err != nil {
		t.Fatalf("LoadPopulation failed: %v", err)
	}

	if loaded.RNGSeed != 42 || loaded.Generation != 7 || loaded.Crossovers != 30 {
		t.Errorf("counters = seed %d gen %d crossovers %d, want 42/7/30",
			loaded.RNGSeed, loaded.Generation, loaded.Crossovers)
	}
	if loaded.Bookmark == nil || loaded.Bookmark.Type != BookmarkNewRecord {
		t.Errorf("Bookmark not loaded: %+v", loaded.Bookmark)
	}

	restored := loaded.Population()
	if restored.Size() != pop.Size() {
		t.Fatalf("restored size = %d, want %d", restored.Size(), pop.Size())
	}
	for i := 0; i < pop.Size(); i++ {
		want, got := pop.Strand(i), restored.Strand(i)
		if got.Len() != want.Len() {
			t.Fatalf("strand %d length = %d, want %d", i, got.Len(), want.Len())
		}
		for k := 0; k < want.Len(); k++ {
			w, g := want.Generation(k), got.Generation(k)
			if g.Len() != w.Len() || g.Fitness != w.Fitness || g.Evaluated != w.Evaluated {
				t.Errorf("strand %d genome %d = (%d blocks, %v, %v), want (%d, %v, %v)",
					i, k, g.Len(), g.Fitness, g.Evaluated, w.Len(), w.Fitness, w.Evaluated)
			}
		}
	}
}

func TestSnapshotFilename(t *testing.T) {
	tmpDir := t.TempDir()

	snapshot := &Snapshot{
		Version:    SnapshotVersion,
		Generation: 50,
		Bookmark: &Bookmark{
			Type:       BookmarkStagnation,
			Generation: 50,
		},
	}
	path, err := SavePopulation(snapshot, tmpDir)
	if err != nil {
		t.Fatalf("SavePopulation failed: %v", err)
	}
	expected := filepath.Join(tmpDir, "population_50_stagnation.json")
	if path != expected {
		t.Errorf("Path mismatch: got %s, want %s", path, expected)
	}

	path, err = SavePopulation(&Snapshot{Version: SnapshotVersion, Generation: 30}, tmpDir)
	if err != nil {
		t.Fatalf("SavePopulation failed: %v", err)
	}
	expected = filepath.Join(tmpDir, "population_30.json")
	if path != expected {
		t.Errorf("Path mismatch: got %s, want %s", path, expected)
	}
}

func TestLoadPopulationRejectsInvalid(t *testing.T) {
	bad := testGenome(2, 1)
	bad.Blocks[1].Size = r3.Vec{X: 0.1, Y: 1, Z: 1}

	tests := []struct {
		name     string
		snapshot Snapshot
	}{
		{"wrong version", Snapshot{Version: SnapshotVersion + 1, Strands: [][]*genome.Genome{{testGenome(1, 0)}}}},
		{"empty strand", Snapshot{Version: SnapshotVersion, Strands: [][]*genome.Genome{{}}}},
		{"invalid genome", Snapshot{Version: SnapshotVersion, Strands: [][]*genome.Genome{{bad}}}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			data, err := json.Marshal(tt.snapshot)
			if err != nil {
				t.Fatal(err)
			}
			path := filepath.Join(t.TempDir(), "population.json")
			if err := os.WriteFile(path, data, 0644); err != nil {
				t.Fatal(err)
			}
			if _, err := LoadPopulation(path); err == nil {
				t.Error("expected error")
			}
		})
	}
}
