package efd

import (
	"testing"

	"github.com/smallyu/go-ecc-sim/internal/crypto/formula"
)

func TestVersion(t *testing.T) {
	v, err := Version()
	if err != nil {
		t.Fatalf("Version failed: %v", err)
	}
	if v == "" {
		t.Fatal("Empty database version")
	}
}

func TestModels(t *testing.T) {
	models, err := Models()
	if err != nil {
		t.Fatalf("Models failed: %v", err)
	}
	want := map[string]bool{"shortw": false, "montgom": false, "twisted": false}
	for _, m := range models {
		if _, ok := want[m.ShortName]; ok {
			want[m.ShortName] = true
		}
	}
	for name, found := range want {
		if !found {
			t.Errorf("Model %q not loaded", name)
		}
	}
}

func TestGetModel(t *testing.T) {
	m, err := GetModel("shortw")
	if err != nil {
		t.Fatalf("GetModel failed: %v", err)
	}
	if len(m.ParameterNames) != 2 {
		t.Errorf("shortw has %d parameters, want 2 (a, b)", len(m.ParameterNames))
	}
	if len(m.BaseAddition) == 0 || len(m.BaseDoubling) == 0 {
		t.Error("shortw base group law is empty")
	}
	if m.HasAffineNeutral() {
		t.Error("shortw reported an affine neutral point")
	}

	tw, err := GetModel("twisted")
	if err != nil {
		t.Fatalf("GetModel failed: %v", err)
	}
	if !tw.HasAffineNeutral() {
		t.Error("twisted Edwards should have an affine neutral point")
	}

	if _, err := GetModel("hessian"); err == nil {
		t.Error("Expected error for unknown model")
	}
}

func TestGetCoords(t *testing.T) {
	cases := []struct {
		model, coords string
		variables     int
	}{
		{"shortw", "projective", 3},
		{"shortw", "jacobian", 3},
		{"shortw", "jacobian-3", 3},
		{"montgom", "xz", 2},
		{"twisted", "projective", 3},
		{"twisted", "extended", 4},
	}
	for _, c := range cases {
		coords, err := GetCoords(c.model, c.coords)
		if err != nil {
			t.Fatalf("GetCoords(%s, %s) failed: %v", c.model, c.coords, err)
		}
		if len(coords.Variables) != c.variables {
			t.Errorf("%s/%s has %d variables, want %d", c.model, c.coords, len(coords.Variables), c.variables)
		}
		if len(coords.ToAffine) == 0 {
			t.Errorf("%s/%s has no affine exit map", c.model, c.coords)
		}
	}

	if _, err := GetCoords("shortw", "inverted"); err == nil {
		t.Error("Expected error for unknown coordinate system")
	}
}

func TestJacobianHomogweights(t *testing.T) {
	coords, err := GetCoords("shortw", "jacobian")
	if err != nil {
		t.Fatalf("GetCoords failed: %v", err)
	}
	want := map[string]int{"X": 2, "Y": 3, "Z": 1}
	for v, w := range want {
		if coords.HomogWeights[v] != w {
			t.Errorf("Weight of %s = %d, want %d", v, coords.HomogWeights[v], w)
		}
	}
}

func TestGetFormula(t *testing.T) {
	f, err := GetFormula("shortw", "jacobian", "add-2007-bl")
	if err != nil {
		t.Fatalf("GetFormula failed: %v", err)
	}
	if f.Kind != formula.Addition {
		t.Errorf("Kind = %v, want Addition", f.Kind)
	}
	if f.Opaque {
		t.Error("add-2007-bl loaded as opaque")
	}
	cost := f.Cost()
	if cost.Squarings != 5 {
		t.Errorf("add-2007-bl squarings = %d, want 5", cost.Squarings)
	}
	if cost.Total() != len(f.Code) {
		t.Errorf("Cost total %d does not cover all %d operations", cost.Total(), len(f.Code))
	}
	if err := f.Validate(); err != nil {
		t.Errorf("Loaded formula fails validation: %v", err)
	}
}

func TestFormulasPerSystem(t *testing.T) {
	cases := []struct {
		model, coords string
		names         []string
	}{
		{"shortw", "jacobian", []string{"add-2007-bl", "dbl-2007-bl", "dbl-2001-b", "neg", "z"}},
		{"shortw", "jacobian-3", []string{"add-2007-bl", "dbl-2001-b"}},
		{"shortw", "projective", []string{"add-1998-cmo-2", "dbl-2007-bl"}},
		{"montgom", "xz", []string{"ladd-1987-m", "dadd-1987-m", "dbl-1987-m", "scale"}},
		{"twisted", "projective", []string{"add-2008-bbjlp", "dbl-2008-bbjlp"}},
		{"twisted", "extended", []string{"add-2008-hwcd", "dbl-2008-hwcd", "neg", "z"}},
	}
	for _, c := range cases {
		coords, err := GetCoords(c.model, c.coords)
		if err != nil {
			t.Fatalf("GetCoords(%s, %s) failed: %v", c.model, c.coords, err)
		}
		reg, err := Formulas(coords)
		if err != nil {
			t.Fatalf("Formulas(%s/%s) failed: %v", c.model, c.coords, err)
		}
		for _, name := range c.names {
			if reg[name] == nil {
				t.Errorf("%s/%s is missing formula %q", c.model, c.coords, name)
			}
		}
	}
}

func TestOpaqueFormula(t *testing.T) {
	f, err := GetFormula("shortw", "jacobian", "add-unknown")
	if err != nil {
		t.Fatalf("GetFormula failed: %v", err)
	}
	if !f.Opaque {
		t.Fatal("Formula without a metadata file should load as opaque")
	}
	if len(f.Code) == 0 {
		t.Fatal("Opaque formula has no executable body")
	}
	// Opaque formulas execute like any other.
	if err := f.Validate(); err != nil {
		t.Errorf("Opaque formula fails validation: %v", err)
	}
}

func TestLadderArity(t *testing.T) {
	f, err := GetFormula("montgom", "xz", "ladd-1987-m")
	if err != nil {
		t.Fatalf("GetFormula failed: %v", err)
	}
	if f.Kind != formula.Ladder {
		t.Fatalf("Kind = %v, want Ladder", f.Kind)
	}
	if f.Kind.NumInputs() != 3 || f.Kind.NumOutputs() != 2 {
		t.Errorf("Ladder arity %d->%d, want 3->2", f.Kind.NumInputs(), f.Kind.NumOutputs())
	}
}
