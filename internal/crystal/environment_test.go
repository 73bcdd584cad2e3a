package crystal

import (
	"errors"
	"math"
	"testing"

	"snowgen/internal/core"
)

type fixedCurves struct{ base Params }

func (f fixedCurves) At(iteration int) Params {
	p := f.base
	p.Beta = f.base.Beta + float64(iteration)
	return p
}

func TestEnvironmentGet(t *testing.T) {
	env := DefaultEnvironment()
	beta, err := env.Get(KeyBeta)
	if err != nil {
		t.Fatalf("get beta: %v", err)
	}
	if beta != 1.3 {
		t.Fatalf("expected default beta 1.3, got %g", beta)
	}
	if _, err := env.Get("humidity"); !errors.Is(err, ErrUnknownParameter) {
		t.Fatalf("expected unknown parameter error, got %v", err)
	}
}

func TestEnvironmentWithOverrides(t *testing.T) {
	base := DefaultEnvironment()
	env, err := base.WithOverrides(map[string]float64{KeyBeta: 2, KeyGamma: 0.7})
	if err != nil {
		t.Fatalf("overrides: %v", err)
	}
	if got := env.Params().Beta; got != 2 {
		t.Fatalf("expected beta 2, got %g", got)
	}
	if got := env.Defaults().Gamma; got != 0.7 {
		t.Fatalf("expected overrides to become the template, got gamma %g", got)
	}
	if got := base.Params().Beta; got != 1.3 {
		t.Fatalf("base environment mutated: beta %g", got)
	}

	if _, err := base.WithOverrides(map[string]float64{"upilson": 1}); !errors.Is(err, ErrUnknownParameter) {
		t.Fatalf("expected unknown parameter, got %v", err)
	}
	if _, err := base.WithOverrides(map[string]float64{KeyKappa: 1.5}); !errors.Is(err, ErrInvalidParameter) {
		t.Fatalf("expected invalid parameter, got %v", err)
	}
}

func TestEnvironmentAdvance(t *testing.T) {
	env := DefaultEnvironment()
	if got := env.Advance(10).Params(); got != env.Params() {
		t.Fatalf("advance without curves changed params: %+v", got)
	}

	curved := env.WithCurves(fixedCurves{base: env.Params()})
	first := curved.Advance(3)
	second := curved.Advance(3)
	if first.Params() != second.Params() {
		t.Fatal("advance must be deterministic for the same iteration")
	}
	if got := first.Params().Beta; math.Abs(got-4.3) > 1e-12 {
		t.Fatalf("expected curve beta 4.3, got %g", got)
	}
	if first.Defaults() != env.Params() {
		t.Fatal("advance must not touch the template")
	}
}

func TestEnvironmentRandomizeDeterministic(t *testing.T) {
	env := DefaultEnvironment()
	a := env.Randomize(core.NewRNG(5))
	b := env.Randomize(core.NewRNG(5))
	if a.Params() != b.Params() {
		t.Fatalf("randomize not deterministic: %+v vs %+v", a.Params(), b.Params())
	}
	if a.Params().Sigma != env.Params().Sigma {
		t.Fatal("randomize must leave sigma alone")
	}
	if a.Params().Gamma <= env.Params().Gamma {
		t.Fatalf("gamma should only grow, got %g", a.Params().Gamma)
	}
	if d := math.Abs(a.Params().Beta - env.Params().Beta); d == 0 || d > 0.01 {
		t.Fatalf("beta nudge out of range: %g", d)
	}
	if err := a.Params().Validate(); err != nil {
		t.Fatalf("randomized params invalid: %v", err)
	}
}

func TestParamsMapCoversKeys(t *testing.T) {
	m := DefaultParams().Map()
	for _, key := range Keys() {
		if _, ok := m[key]; !ok {
			t.Fatalf("map missing %q", key)
		}
	}
	if len(m) != len(Keys()) {
		t.Fatalf("expected %d keys, got %d", len(Keys()), len(m))
	}
}
