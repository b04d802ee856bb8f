package genome

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
)

// FileVersion is incremented when the on-disk layout changes.
const FileVersion = 1

// fileGenome is the persisted form of a genome.
type fileGenome struct {
	Version    int     `json:"version"`
	BlockCount int     `json:"block_count"`
	Fitness    float64 `json:"fitness"`
	Evaluated  bool    `json:"evaluated"`
	Blocks     []Block `json:"blocks"`
}

// Encode writes g as indented JSON.
func Encode(w io.Writer, g *Genome) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(fileGenome{
		Version:    FileVersion,
		BlockCount: g.Len(),
		Fitness:    g.Fitness,
		Evaluated:  g.Evaluated,
		Blocks:     g.Blocks,
	})
}

// Decode reads and validates a genome written by Encode.
func Decode(r io.Reader) (*Genome, error) {
	var f fileGenome
	if err := json.NewDecoder(r).Decode(&f); err != nil {
		return nil, fmt.Errorf("decode genome: %w", err)
	}
	if f.Version != FileVersion {
		return nil, fmt.Errorf("unsupported genome version %d", f.Version)
	}
	if f.BlockCount != len(f.Blocks) {
		return nil, fmt.Errorf("block count %d does not match %d blocks", f.BlockCount, len(f.Blocks))
	}
	g := &Genome{Blocks: f.Blocks, Fitness: f.Fitness, Evaluated: f.Evaluated}
	if err := g.Validate(); err != nil {
		return nil, fmt.Errorf("invalid genome: %w", err)
	}
	return g, nil
}

// Save writes g to path, creating parent directories.
func Save(path string, g *Genome) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("create genome dir: %w", err)
	}
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create genome file: %w", err)
	}
	if err := Encode(f, g); err != nil {
		f.Close()
		return fmt.Errorf("write genome: %w", err)
	}
	return f.Close()
}

// Load reads a genome from path.
func Load(path string) (*Genome, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open genome: %w", err)
	}
	defer f.Close()
	return Decode(f)
}
