package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load defaults: %v", err)
	}
	if cfg.World.Width != 128 || cfg.World.Height != 128 {
		t.Errorf("world = %dx%d, want 128x128", cfg.World.Width, cfg.World.Height)
	}
	if cfg.Engine.NegligibleLevel != 1e-6 {
		t.Errorf("negligible_level = %v, want 1e-6", cfg.Engine.NegligibleLevel)
	}
	if cfg.Derived.Cells != 128*128 {
		t.Errorf("Derived.Cells = %d", cfg.Derived.Cells)
	}
	if !cfg.Paint.Noise.Enabled || cfg.Paint.Noise.Octaves != 3 {
		t.Errorf("paint noise = %+v", cfg.Paint.Noise)
	}
}

func TestLoadMergesOverDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "run.yaml")
	data := []byte("world:\n  width: 16\nengine:\n  seed: 7\n")
	if err := os.WriteFile(path, data, 0644); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatal(err)
	}
	if cfg.World.Width != 16 || cfg.World.Height != 128 {
		t.Errorf("world = %dx%d, want 16x128", cfg.World.Width, cfg.World.Height)
	}
	if cfg.Engine.Seed != 7 {
		t.Errorf("seed = %d, want 7", cfg.Engine.Seed)
	}
	if cfg.Run.MaxSteps != 1000 {
		t.Errorf("max_steps = %d, want default 1000", cfg.Run.MaxSteps)
	}
	if cfg.Derived.Cells != 16*128 {
		t.Errorf("Derived.Cells = %d", cfg.Derived.Cells)
	}
}

func TestLoadRejectsInvalid(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bad.yaml")
	if err := os.WriteFile(path, []byte("world:\n  width: 0\n"), 0644); err != nil {
		t.Fatal(err)
	}
	if _, err := Load(path); err == nil {
		t.Error("expected error for zero width")
	}
	if _, err := Load(filepath.Join(t.TempDir(), "missing.yaml")); err == nil {
		t.Error("expected error for missing file")
	}
}

func TestWriteYAMLRoundTrip(t *testing.T) {
	cfg, err := Load("")
	if err != nil {
		t.Fatal(err)
	}
	cfg.Run.SaveEvery = 25
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := cfg.WriteYAML(path); err != nil {
		t.Fatal(err)
	}

	got, err := Load(path)
	if err != nil {
		t.Fatal(err)
	}
	if got.Run.SaveEvery != 25 || got.World != cfg.World || got.Paint != cfg.Paint {
		t.Errorf("round trip mismatch: %+v vs %+v", got, cfg)
	}
}

func TestCfgBeforeInitPanics(t *testing.T) {
	saved := global
	global = nil
	defer func() {
		global = saved
		if recover() == nil {
			t.Error("Cfg() did not panic before Init")
		}
	}()
	Cfg()
}
