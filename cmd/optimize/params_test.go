package main

import (
	"math"
	"testing"

	"github.com/pthm-cable/creatures/config"
)

func TestParamVector_DefaultsMatchConfig(t *testing.T) {
	pv := NewParamVector()
	got := pv.ExtractFromConfig(config.Default())
	for i, spec := range pv.Specs {
		if got[i] != spec.Default {
			t.Errorf("%s: config has %v, spec default %v", spec.Name, got[i], spec.Default)
		}
	}
}

func TestParamVector_NormalizeRoundTrip(t *testing.T) {
	pv := NewParamVector()
	raw := pv.DefaultVector()
	back := pv.Denormalize(pv.Normalize(raw))
	for i := range raw {
		if math.Abs(back[i]-raw[i]) > 1e-12 {
			t.Errorf("%s: %v -> %v", pv.Specs[i].Name, raw[i], back[i])
		}
	}
}

func TestParamVector_Clamp(t *testing.T) {
	pv := NewParamVector()
	v := make([]float64, pv.Dim())
	for i, spec := range pv.Specs {
		v[i] = spec.Max + 10
	}
	for i, c := range pv.Clamp(v) {
		if c != pv.Specs[i].Max {
			t.Errorf("%s clamped to %v, want %v", pv.Specs[i].Name, c, pv.Specs[i].Max)
		}
	}

	for i, spec := range pv.Specs {
		if !spec.Integer {
			continue
		}
		v := pv.DefaultVector()
		v[i] = 2.6
		if got := pv.Clamp(v)[i]; got != 3 {
			t.Errorf("%s: integer parameter 2.6 clamped to %v, want 3", spec.Name, got)
		}
	}
}

func TestParamVector_ApplyToConfig(t *testing.T) {
	pv := NewParamVector()
	v := pv.DefaultVector()
	for i, spec := range pv.Specs {
		v[i] = spec.Min + 0.25*(spec.Max-spec.Min)
	}
	cfg := config.Default()
	pv.ApplyToConfig(cfg, v)
	if err := cfg.Finalize(); err != nil {
		t.Fatalf("applied config invalid: %v", err)
	}

	want := pv.Clamp(v)
	got := pv.ExtractFromConfig(cfg)
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("%s: config has %v after apply, want %v", pv.Specs[i].Name, got[i], want[i])
		}
	}
}

func TestComputeFitness(t *testing.T) {
	tests := []struct {
		name string
		r    runResult
		want float64
	}{
		{"no progress", runResult{}, 0},
		{"best only", runResult{best: 10}, -10},
		{"whole population keeps up", runResult{best: 10, recentMean: 10}, -12},
		{"half", runResult{best: 10, recentMean: 5}, -11},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := computeFitness(&tt.r); math.Abs(got-tt.want) > 1e-12 {
				t.Errorf("computeFitness = %v, want %v", got, tt.want)
			}
		})
	}
}
