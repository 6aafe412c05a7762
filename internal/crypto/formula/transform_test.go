package formula_test

import (
	"testing"

	"github.com/smallyu/go-ecc-sim/internal/crypto/curve"
	"github.com/smallyu/go-ecc-sim/internal/crypto/efd"
	"github.com/smallyu/go-ecc-sim/internal/crypto/field"
	"github.com/smallyu/go-ecc-sim/internal/crypto/formula"
	"github.com/smallyu/go-ecc-sim/pkg/ecsim"
)

// rawOutputs runs a formula and flattens the output coordinates.
func rawOutputs(t *testing.T, c *curve.Curve, f *formula.Formula, pts ...curve.Point) []field.Element {
	t.Helper()
	out, err := f.Call(c, nil, pts...)
	if err != nil {
		t.Fatalf("%s failed: %v", f, err)
	}
	var values []field.Element
	for _, p := range out {
		for _, v := range c.Coords.Variables {
			el, ok := p.Coordinate(v)
			if !ok {
				t.Fatalf("output missing %s", v)
			}
			values = append(values, el)
		}
	}
	return values
}

// TestFliparooFindsCheaperOrdering uses a program where reordering one
// product chain exposes a shared subproduct.
func TestFliparooFindsCheaperOrdering(t *testing.T) {
	f := syntheticFormula(t, "flip-test", formula.Scaling, []string{
		"t0 = X1*Y1",
		"t1 = t0*Z1",
		"t2 = Y1*Z1",
		"t3 = t2*X1",
		"X3 = t1+t3",
		"Y3 = Y1",
		"Z3 = Z1",
	})
	if f.Cost().Multiplications != 4 {
		t.Fatalf("Baseline has %d multiplications, want 4", f.Cost().Multiplications)
	}
	best, err := formula.Fliparoo(f, 0)
	if err != nil {
		t.Fatalf("Fliparoo failed: %v", err)
	}
	if best.Cost().Multiplications != 2 {
		t.Fatalf("Fliparoo kept %d multiplications, want 2 after sharing X1*Y1*Z1",
			best.Cost().Multiplications)
	}

	// The cheaper program computes the same values.
	dom := loadDomain(t, "secp256r1", "jacobian")
	c := dom.Curve
	rng := ecsim.NewDRBGUint64(15)
	for i := 0; i < 20; i++ {
		p, err := c.RandomAffine(rng)
		if err != nil {
			t.Fatalf("RandomAffine failed: %v", err)
		}
		pc, err := c.FromAffine(p)
		if err != nil {
			t.Fatalf("FromAffine failed: %v", err)
		}
		want := rawOutputs(t, c, f, pc)
		got := rawOutputs(t, c, best, pc)
		for j := range want {
			if !want[j].Equal(got[j]) {
				t.Fatalf("Fliparoo output %d differs", j)
			}
		}
	}
}

// TestFliparooSoundness reorders real formulas and checks the result
// never diverges from the original, whatever candidate wins.
func TestFliparooSoundness(t *testing.T) {
	dom := loadDomain(t, "secp256r1", "jacobian")
	c := dom.Curve
	for _, name := range []string{"add-2007-bl", "dbl-2007-bl", "dbl-2001-b"} {
		f, err := efd.GetFormula("shortw", "jacobian", name)
		if err != nil {
			t.Fatalf("GetFormula failed: %v", err)
		}
		best, err := formula.Fliparoo(f, 200)
		if err != nil {
			t.Fatalf("Fliparoo(%s) failed: %v", name, err)
		}
		if best.Cost().Weight() > f.Cost().Weight() {
			t.Fatalf("Fliparoo made %s worse", name)
		}
		rng := ecsim.NewDRBGUint64(400)
		for i := 0; i < 20; i++ {
			checkFormula(t, c, best, rng)
		}
	}
}

func TestSwitchSignsProducesValidVariants(t *testing.T) {
	// Flipping X1-Y1 under a square cannot change any output.
	f := syntheticFormula(t, "switch-test", formula.Scaling, []string{
		"t0 = X1-Y1",
		"X3 = t0^2",
		"Y3 = Y1",
		"Z3 = Z1",
	})
	variants, err := formula.SwitchSigns(f, 0)
	if err != nil {
		t.Fatalf("SwitchSigns failed: %v", err)
	}
	if len(variants) == 0 {
		t.Fatal("No variant found for a sign flip absorbed by a squaring")
	}

	dom := loadDomain(t, "secp256r1", "jacobian")
	c := dom.Curve
	rng := ecsim.NewDRBGUint64(8)
	p, err := c.RandomAffine(rng)
	if err != nil {
		t.Fatalf("RandomAffine failed: %v", err)
	}
	pc, err := c.FromAffine(p)
	if err != nil {
		t.Fatalf("FromAffine failed: %v", err)
	}
	want := rawOutputs(t, c, f, pc)
	for _, v := range variants {
		got := rawOutputs(t, c, v, pc)
		for j := range want {
			if !want[j].Equal(got[j]) {
				t.Fatalf("Variant %s output %d differs", v.Name, j)
			}
		}
	}
}

func TestSwitchSignsRejectsBareSubReversal(t *testing.T) {
	// Reversing t0 negates X3. X has even homogeneity weight, so no
	// projective rescaling absorbs the flip and no variant may be
	// emitted.
	f := syntheticFormula(t, "switch-reject", formula.Scaling, []string{
		"t0 = X1-Y1",
		"X3 = t0",
		"Y3 = Y1",
		"Z3 = Z1",
	})
	variants, err := formula.SwitchSigns(f, 0)
	if err != nil {
		t.Fatalf("SwitchSigns failed: %v", err)
	}
	if len(variants) != 0 {
		t.Fatalf("Got %d variants for an unabsorbable sign flip", len(variants))
	}
}

// TestSwitchSignsOnDatabaseFormulas validates every produced variant
// against the original as a point, allowing the projective sign
// rescaling the homogeneity weights permit.
func TestSwitchSignsOnDatabaseFormulas(t *testing.T) {
	dom := loadDomain(t, "secp256r1", "jacobian")
	c := dom.Curve
	rng := ecsim.NewDRBGUint64(655)

	for _, name := range []string{"add-2007-bl", "dbl-2007-bl"} {
		f, err := efd.GetFormula("shortw", "jacobian", name)
		if err != nil {
			t.Fatalf("GetFormula failed: %v", err)
		}
		variants, err := formula.SwitchSigns(f, 64)
		if err != nil {
			t.Fatalf("SwitchSigns(%s) failed: %v", name, err)
		}
		for _, v := range variants {
			for i := 0; i < 5; i++ {
				checkFormula(t, c, v, rng)
			}
		}
	}
}

// TestNegateParameter checks that the derived formula computes the
// original result when run on a curve with the parameter negated.
func TestNegateParameter(t *testing.T) {
	dbl, err := efd.GetFormula("shortw", "jacobian", "dbl-2007-bl")
	if err != nil {
		t.Fatalf("GetFormula failed: %v", err)
	}
	neg, err := formula.NegateParameter(dbl, "a")
	if err != nil {
		t.Fatalf("NegateParameter failed: %v", err)
	}

	dom := loadDomain(t, "secp256r1", "jacobian")
	c := dom.Curve

	// A second curve object with a -> -a; points are carried over as
	// raw coordinates, the formulas never check the curve equation.
	m, err := efd.GetModel("shortw")
	if err != nil {
		t.Fatalf("GetModel failed: %v", err)
	}
	coords, err := efd.GetCoords("shortw", "jacobian")
	if err != nil {
		t.Fatalf("GetCoords failed: %v", err)
	}
	negParams := map[string]field.Element{
		"a": c.Parameters["a"].Neg(),
		"b": c.Parameters["b"],
	}
	negCurve, err := curve.NewCurve(m, coords, c.Field, negParams)
	if err != nil {
		t.Fatalf("NewCurve failed: %v", err)
	}

	rng := ecsim.NewDRBGUint64(23)
	for i := 0; i < 20; i++ {
		p, err := c.RandomAffine(rng)
		if err != nil {
			t.Fatalf("RandomAffine failed: %v", err)
		}
		pc, err := c.FromAffine(p)
		if err != nil {
			t.Fatalf("FromAffine failed: %v", err)
		}
		want := rawOutputs(t, c, dbl, pc)
		got := rawOutputs(t, negCurve, neg, pc)
		for j := range want {
			if !want[j].Equal(got[j]) {
				t.Fatalf("Negated-parameter formula output %d differs", j)
			}
		}
	}

	if _, err := formula.NegateParameter(dbl, "q"); err == nil {
		t.Fatal("Unknown parameter accepted")
	}
}

func TestNegateParameterUnusedBudget(t *testing.T) {
	// dbl-2001-b does not reference the parameter a at all.
	dbl, err := efd.GetFormula("shortw", "jacobian-3", "dbl-2001-b")
	if err != nil {
		t.Fatalf("GetFormula failed: %v", err)
	}
	if _, err := formula.NegateParameter(dbl, "a"); err == nil {
		t.Fatal("Expected an error for a parameter the formula never reads")
	}
}
