package config

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/pthm-cable/chroma/systems"
	"github.com/pthm-cable/chroma/traits"
)

func TestDefaultsProduceValidParams(t *testing.T) {
	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	p, err := cfg.EnvironmentParams()
	if err != nil {
		t.Fatalf("EnvironmentParams: %v", err)
	}
	if err := p.Validate(); err != nil {
		t.Fatalf("defaults do not validate: %v", err)
	}
	if p.Variant != systems.RichVariant() {
		t.Errorf("default variant = %+v, want rich variant", p.Variant)
	}
	if cfg.Derived.Cells != cfg.World.Width*cfg.World.Height {
		t.Errorf("Derived.Cells = %d", cfg.Derived.Cells)
	}
	if cfg.Derived.Capacity != cfg.Derived.Cells*cfg.World.MaxDensity {
		t.Errorf("Derived.Capacity = %d", cfg.Derived.Capacity)
	}
}

func TestOverlayOnlyChangesListedKeys(t *testing.T) {
	path := filepath.Join(t.TempDir(), "run.yaml")
	overlay := "world:\n  width: 17\nsegments:\n  west: [10, 20, 30]\n"
	if err := os.WriteFile(path, []byte(overlay), 0644); err != nil {
		t.Fatal(err)
	}

	defaults, err := Load("")
	if err != nil {
		t.Fatal(err)
	}
	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}

	if cfg.World.Width != 17 {
		t.Errorf("width = %d, want 17", cfg.World.Width)
	}
	if cfg.World.Height != defaults.World.Height {
		t.Errorf("height = %d, want default %d", cfg.World.Height, defaults.World.Height)
	}
	p, err := cfg.EnvironmentParams()
	if err != nil {
		t.Fatal(err)
	}
	if p.West != (traits.Vector{10, 20, 30}) {
		t.Errorf("west = %v", p.West)
	}
	if cfg.Derived.Cells != 17*cfg.World.Height {
		t.Errorf("derived values not recomputed: %d", cfg.Derived.Cells)
	}
}

func TestSimplePresetMatchesSimpleVariant(t *testing.T) {
	cfg, err := Load(filepath.Join("..", "configs", "simple.yaml"))
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	p, err := cfg.EnvironmentParams()
	if err != nil {
		t.Fatal(err)
	}
	if p.Variant != systems.SimpleVariant() {
		t.Errorf("variant = %+v, want %+v", p.Variant, systems.SimpleVariant())
	}
	if err := p.Validate(); err != nil {
		t.Errorf("simple preset does not validate: %v", err)
	}
}

func TestPresetsValidate(t *testing.T) {
	paths, err := filepath.Glob(filepath.Join("..", "configs", "*.yaml"))
	if err != nil {
		t.Fatal(err)
	}
	if len(paths) == 0 {
		t.Fatal("no presets found")
	}
	for _, path := range paths {
		t.Run(filepath.Base(path), func(t *testing.T) {
			cfg, err := Load(path)
			if err != nil {
				t.Fatalf("Load: %v", err)
			}
			p, err := cfg.EnvironmentParams()
			if err != nil {
				t.Fatal(err)
			}
			if err := p.Validate(); err != nil {
				t.Errorf("preset does not validate: %v", err)
			}
		})
	}
}

func TestEnvironmentParamsColourArity(t *testing.T) {
	cfg, err := Load("")
	if err != nil {
		t.Fatal(err)
	}
	cfg.Segments.East = []float64{1, 2}
	if _, err := cfg.EnvironmentParams(); err == nil {
		t.Error("expected error for two-component east colour")
	}
}

func TestInvalidValuesSurfaceAsConfigErrors(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bad.yaml")
	if err := os.WriteFile(path, []byte("world:\n  max_density: 0\n"), 0644); err != nil {
		t.Fatal(err)
	}
	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	p, err := cfg.EnvironmentParams()
	if err != nil {
		t.Fatal(err)
	}
	err = p.Validate()
	if !errors.Is(err, systems.ErrInvalidConfiguration) {
		t.Fatalf("expected ErrInvalidConfiguration, got %v", err)
	}
}

func TestLoadErrors(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "missing.yaml")); err == nil {
		t.Error("expected error for missing file")
	}

	path := filepath.Join(t.TempDir(), "broken.yaml")
	if err := os.WriteFile(path, []byte("world: [unclosed"), 0644); err != nil {
		t.Fatal(err)
	}
	if _, err := Load(path); err == nil {
		t.Error("expected error for malformed YAML")
	}
}

func TestWriteYAMLRoundTrip(t *testing.T) {
	cfg, err := Load("")
	if err != nil {
		t.Fatal(err)
	}
	cfg.Rates.BaseDeathRate = 0.123
	cfg.Variant.Cull = true

	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := cfg.WriteYAML(path); err != nil {
		t.Fatalf("WriteYAML: %v", err)
	}
	back, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if back.Rates.BaseDeathRate != 0.123 || !back.Variant.Cull {
		t.Errorf("round trip lost values: %+v %+v", back.Rates, back.Variant)
	}
}

func TestCloneIsDeep(t *testing.T) {
	cfg, err := Load("")
	if err != nil {
		t.Fatal(err)
	}
	c := cfg.Clone()
	c.Segments.West[0] = 99
	c.World.Width = 1
	if cfg.Segments.West[0] == 99 || cfg.World.Width == 1 {
		t.Error("Clone shares state with the original")
	}
}

func TestCfgRequiresInit(t *testing.T) {
	saved := global
	defer func() { global = saved }()

	global = nil
	defer func() {
		if recover() == nil {
			t.Error("expected panic")
		}
	}()
	Cfg()
}
