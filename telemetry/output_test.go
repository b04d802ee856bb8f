package telemetry

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/gocarina/gocsv"
)

func TestOutputManagerDisabled(t *testing.T) {
	om, err := NewOutputManager("")
	if err != nil {
		t.Fatalf("NewOutputManager: %v", err)
	}
	if om != nil {
		t.Fatal("expected nil manager for empty dir")
	}
	// All writes are no-ops on a nil manager
	if err := om.WriteGeneration(GenerationStats{}); err != nil {
		t.Error(err)
	}
	if err := om.WriteBookmark(Bookmark{}); err != nil {
		t.Error(err)
	}
	if err := om.Close(); err != nil {
		t.Error(err)
	}
}

func TestOutputManagerGenerations(t *testing.T) {
	dir := t.TempDir()
	om, err := NewOutputManager(dir)
	if err != nil {
		t.Fatalf("NewOutputManager: %v", err)
	}

	for gen := 0; gen < 3; gen++ {
		if err := om.WriteGeneration(GenerationStats{Generation: gen, Best: float64(gen) + 0.5}); err != nil {
			t.Fatalf("WriteGeneration: %v", err)
		}
	}
	if err := om.WriteStrands(StrandRecords(2, testPopulation(), 5)); err != nil {
		t.Fatalf("WriteStrands: %v", err)
	}
	if err := om.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}

	data, err := os.ReadFile(filepath.Join(dir, "generations.csv"))
	if err != nil {
		t.Fatal(err)
	}
	if n := strings.Count(string(data), "generation,"); n != 1 {
		t.Errorf("header written %d times, want 1", n)
	}

	f, err := os.Open(filepath.Join(dir, "generations.csv"))
	if err != nil {
		t.Fatal(err)
	}
	defer f.Close()
	var rows []GenerationStats
	if err := gocsv.UnmarshalFile(f, &rows); err != nil {
		t.Fatalf("UnmarshalFile: %v", err)
	}
	if len(rows) != 3 {
		t.Fatalf("rows = %d, want 3", len(rows))
	}
	if rows[2].Generation != 2 || rows[2].Best != 2.5 {
		t.Errorf("last row = gen %d best %v, want 2 / 2.5", rows[2].Generation, rows[2].Best)
	}

	sf, err := os.Open(filepath.Join(dir, "strands.csv"))
	if err != nil {
		t.Fatal(err)
	}
	defer sf.Close()
	var strands []StrandRecord
	if err := gocsv.UnmarshalFile(sf, &strands); err != nil {
		t.Fatalf("UnmarshalFile strands: %v", err)
	}
	if len(strands) != 3 {
		t.Errorf("strand rows = %d, want 3", len(strands))
	}
}
