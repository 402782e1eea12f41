package systems

import (
	"errors"
	"math/rand"
	"testing"

	"github.com/pthm-cable/chroma/traits"
)

func testParams() Params {
	return Params{
		Width:           10,
		Height:          10,
		MaxDensity:      5,
		SegmentCount:    2,
		West:            traits.Vector{0, 0, 0},
		East:            traits.Vector{255, 255, 255},
		BaseDeathRate:   0.05,
		CrowdingPenalty: 0.1,
		MismatchPenalty: 0.5,
		BaseReproProb:   0.3,
		MutationSigma:   6,
		Variant:         RichVariant(),
	}
}

func newTestEnv(t *testing.T, seed int64, mutate func(p *Params)) *Environment {
	t.Helper()
	p := testParams()
	if mutate != nil {
		mutate(&p)
	}
	env, err := NewEnvironment(p, rand.New(rand.NewSource(seed)))
	if err != nil {
		t.Fatalf("NewEnvironment: %v", err)
	}
	return env
}

func TestNewEnvironmentRejectsInvalidConfiguration(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(p *Params)
		field  string
	}{
		{"zero width", func(p *Params) { p.Width = 0 }, "width"},
		{"negative height", func(p *Params) { p.Height = -3 }, "height"},
		{"zero capacity", func(p *Params) { p.MaxDensity = 0 }, "max_density"},
		{"one segment", func(p *Params) { p.SegmentCount = 1 }, "segment_count"},
		{"west out of range", func(p *Params) { p.West = traits.Vector{0, 300, 0} }, "west"},
		{"east negative", func(p *Params) { p.East = traits.Vector{-1, 0, 0} }, "east"},
		{"death above one", func(p *Params) { p.BaseDeathRate = 1.5 }, "base_death_rate"},
		{"negative crowding", func(p *Params) { p.CrowdingPenalty = -0.1 }, "crowding_penalty"},
		{"negative sigma", func(p *Params) { p.MutationSigma = -1 }, "mutation_sigma"},
		{"unknown fitness", func(p *Params) { p.Variant.Fitness = "psychic" }, "variant.fitness"},
		{"unknown boundary", func(p *Params) { p.Variant.Boundary = "bounce" }, "variant.boundary"},
		{"lenient without cull", func(p *Params) {
			p.Variant.StrictPlacement = false
			p.Variant.Cull = false
		}, "variant.strict_placement"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := testParams()
			tt.mutate(&p)
			env, err := NewEnvironment(p, rand.New(rand.NewSource(1)))
			if err == nil {
				t.Fatal("expected error")
			}
			if env != nil {
				t.Error("expected nil environment on error")
			}
			if !errors.Is(err, ErrInvalidConfiguration) {
				t.Errorf("expected ErrInvalidConfiguration, got %v", err)
			}
			var ce *ConfigError
			if !errors.As(err, &ce) {
				t.Fatalf("expected *ConfigError, got %T", err)
			}
			if ce.Field != tt.field {
				t.Errorf("Field = %q, want %q", ce.Field, tt.field)
			}
		})
	}
}

func TestNewEnvironmentRejectsNilRand(t *testing.T) {
	_, err := NewEnvironment(testParams(), nil)
	if !errors.Is(err, ErrInvalidConfiguration) {
		t.Errorf("expected ErrInvalidConfiguration, got %v", err)
	}
}

func TestAddAndDensity(t *testing.T) {
	env := newTestEnv(t, 1, nil)

	if env.Density(3, 4) != 0 || env.IsActive(3, 4) {
		t.Fatal("new environment should be empty")
	}

	// Seeding ignores capacity.
	for i := 0; i < 8; i++ {
		if err := env.Add(3, 4, traits.Vector{1, 2, 3}); err != nil {
			t.Fatalf("Add: %v", err)
		}
	}
	if got := env.Density(3, 4); got != 8 {
		t.Errorf("Density = %d, want 8", got)
	}
	if !env.IsActive(3, 4) {
		t.Error("cell should be active after Add")
	}
	if got := env.ActiveCells(); len(got) != 1 || got[0] != (Coord{X: 3, Y: 4}) {
		t.Errorf("ActiveCells = %v", got)
	}
	if got := env.Population(); got != 8 {
		t.Errorf("Population = %d, want 8", got)
	}
}

func TestAddRejectsBadInput(t *testing.T) {
	env := newTestEnv(t, 1, nil)

	if err := env.Add(10, 0, traits.Vector{}); !errors.Is(err, ErrOutOfBounds) {
		t.Errorf("expected ErrOutOfBounds, got %v", err)
	}
	if err := env.Add(-1, 0, traits.Vector{}); !errors.Is(err, ErrOutOfBounds) {
		t.Errorf("expected ErrOutOfBounds, got %v", err)
	}
	if err := env.Add(0, 0, traits.Vector{0, 256, 0}); !errors.Is(err, ErrInvalidTrait) {
		t.Errorf("expected ErrInvalidTrait, got %v", err)
	}
	if len(env.ActiveCells()) != 0 {
		t.Error("rejected Add must not activate a cell")
	}
}

func TestCellPanicsOutOfBounds(t *testing.T) {
	env := newTestEnv(t, 1, nil)

	defer func() {
		r := recover()
		if r == nil {
			t.Fatal("expected panic")
		}
		err, ok := r.(error)
		if !ok || !errors.Is(err, ErrOutOfBounds) {
			t.Errorf("expected ErrOutOfBounds panic, got %v", r)
		}
	}()
	env.Cell(0, 10)
}

func TestCellViewIsCapped(t *testing.T) {
	env := newTestEnv(t, 1, nil)
	env.Add(0, 0, traits.Vector{1, 1, 1})
	env.Add(0, 0, traits.Vector{2, 2, 2})

	view := env.Cell(0, 0)
	_ = append(view, traits.Vector{9, 9, 9})
	env.Add(0, 0, traits.Vector{3, 3, 3})

	if got := env.Cell(0, 0)[2]; got != (traits.Vector{3, 3, 3}) {
		t.Errorf("caller append leaked into grid: %v", got)
	}
}

// checkInvariants asserts occupancy bound, active-set consistency and trait
// range over the whole grid.
func checkInvariants(t *testing.T, env *Environment, tick int) {
	t.Helper()
	active := make(map[Coord]bool)
	for _, c := range env.ActiveCells() {
		if active[c] {
			t.Fatalf("tick %d: %v indexed twice", tick, c)
		}
		if !env.InBounds(c.X, c.Y) {
			t.Fatalf("tick %d: active coordinate %v out of bounds", tick, c)
		}
		active[c] = true
	}

	for y := 0; y < env.Height(); y++ {
		for x := 0; x < env.Width(); x++ {
			n := env.Density(x, y)
			if n > env.MaxDensity() {
				t.Fatalf("tick %d: (%d,%d) occupancy %d exceeds %d", tick, x, y, n, env.MaxDensity())
			}
			c := Coord{X: x, Y: y}
			if (n > 0) != active[c] {
				t.Fatalf("tick %d: (%d,%d) occupancy %d but active=%v", tick, x, y, n, active[c])
			}
			for _, v := range env.Cell(x, y) {
				if !v.InBounds() {
					t.Fatalf("tick %d: (%d,%d) holds out-of-range vector %v", tick, x, y, v)
				}
			}
		}
	}
}

func seedRandom(t *testing.T, env *Environment, rng *rand.Rand, n int) {
	t.Helper()
	for i := 0; i < n; i++ {
		v := traits.Vector{rng.Float64() * 255, rng.Float64() * 255, rng.Float64() * 255}
		if err := env.Add(rng.Intn(env.Width()), rng.Intn(env.Height()), v); err != nil {
			t.Fatalf("Add: %v", err)
		}
	}
}

func TestInvariantsHoldAcrossVariants(t *testing.T) {
	variants := []struct {
		name    string
		variant Variant
	}{
		{"rich", RichVariant()},
		{"simple", SimpleVariant()},
		{"lenient cull", func() Variant {
			v := SimpleVariant()
			v.StrictPlacement = false
			return v
		}()},
		{"no pressure", func() Variant {
			v := RichVariant()
			v.Pressure = false
			v.Migration = false
			return v
		}()},
	}

	for _, tt := range variants {
		t.Run(tt.name, func(t *testing.T) {
			env := newTestEnv(t, 3, func(p *Params) {
				p.Width = 20
				p.Height = 12
				p.MaxDensity = 4
				p.SegmentCount = 4
				p.BaseReproProb = 0.8
				p.MutationSigma = 30
				p.Variant = tt.variant
			})
			seedRandom(t, env, rand.New(rand.NewSource(9)), 60)

			for tick := 0; tick < 120; tick++ {
				env.Step()
				checkInvariants(t, env, tick)
			}
		})
	}
}

func gridState(env *Environment) [][]traits.Vector {
	out := make([][]traits.Vector, 0, env.Width()*env.Height())
	for y := 0; y < env.Height(); y++ {
		for x := 0; x < env.Width(); x++ {
			out = append(out, append([]traits.Vector(nil), env.Cell(x, y)...))
		}
	}
	return out
}

func TestStepDeterministic(t *testing.T) {
	run := func() ([][]traits.Vector, []Coord) {
		env := newTestEnv(t, 42, func(p *Params) {
			p.Width = 16
			p.Height = 16
			p.SegmentCount = 4
		})
		seedRandom(t, env, rand.New(rand.NewSource(5)), 40)
		for i := 0; i < 60; i++ {
			env.Step()
		}
		return gridState(env), env.ActiveCells()
	}

	gridA, activeA := run()
	gridB, activeB := run()

	if len(activeA) != len(activeB) {
		t.Fatalf("active sets differ: %d vs %d", len(activeA), len(activeB))
	}
	for i := range activeA {
		if activeA[i] != activeB[i] {
			t.Fatalf("active order differs at %d: %v vs %v", i, activeA[i], activeB[i])
		}
	}
	for i := range gridA {
		if len(gridA[i]) != len(gridB[i]) {
			t.Fatalf("cell %d occupancy differs: %d vs %d", i, len(gridA[i]), len(gridB[i]))
		}
		for j := range gridA[i] {
			if gridA[i][j] != gridB[i][j] {
				t.Fatalf("cell %d occupant %d differs: %v vs %v", i, j, gridA[i][j], gridB[i][j])
			}
		}
	}
}

func TestSingleFounderScenario(t *testing.T) {
	env := newTestEnv(t, 2024, func(p *Params) {
		p.Width = 10
		p.Height = 10
		p.MaxDensity = 1
		p.SegmentCount = 2
		p.West = traits.Vector{0, 0, 0}
		p.East = traits.Vector{255, 255, 255}
	})
	if err := env.Add(0, 5, traits.Vector{0, 0, 0}); err != nil {
		t.Fatalf("Add: %v", err)
	}

	for tick := 0; tick < 50; tick++ {
		env.Step()
		checkInvariants(t, env, tick)
	}

	total := env.Population()
	if total < 0 || total > 100 {
		t.Errorf("population %d outside [0,100]", total)
	}
	env.EachActive(func(c Coord, occupants []traits.Vector) {
		for _, v := range occupants {
			if !v.InBounds() {
				t.Errorf("%v holds out-of-range vector %v", c, v)
			}
		}
	})
}

func TestPhaseHookOrder(t *testing.T) {
	env := newTestEnv(t, 1, func(p *Params) { p.Variant.Cull = true })
	env.Add(2, 2, traits.Vector{10, 10, 10})

	var phases []string
	env.SetPhaseHook(func(phase string) { phases = append(phases, phase) })
	env.Step()

	want := []string{PhaseMortality, PhaseReproduction, PhasePlacement, PhaseCull}
	if len(phases) != len(want) {
		t.Fatalf("phases = %v, want %v", phases, want)
	}
	for i := range want {
		if phases[i] != want[i] {
			t.Errorf("phase %d = %s, want %s", i, phases[i], want[i])
		}
	}

	phases = nil
	env = newTestEnv(t, 1, func(p *Params) { p.Variant = SimpleVariant() })
	env.SetPhaseHook(func(phase string) { phases = append(phases, phase) })
	env.Step()
	if len(phases) != 3 || phases[0] != PhaseReproduction {
		t.Errorf("simple variant phases = %v", phases)
	}
}

func TestStepCountsBalance(t *testing.T) {
	env := newTestEnv(t, 8, func(p *Params) {
		p.Width = 12
		p.Height = 12
		p.BaseReproProb = 0.9
	})
	seedRandom(t, env, rand.New(rand.NewSource(3)), 50)

	for i := 0; i < 40; i++ {
		before := env.Population()
		env.Step()
		c := env.LastStep()
		after := env.Population()

		if want := before - c.Deaths + c.Placed - c.Culled; after != want {
			t.Fatalf("tick %d: population %d, counts predict %d (%+v)", i, after, want, c)
		}
		if c.Attempts != c.Unestablished+c.Placed+c.Rejected {
			t.Fatalf("tick %d: attempts %d != unestablished+placed+rejected (%+v)", i, c.Attempts, c)
		}
	}
}
