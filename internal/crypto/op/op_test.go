package op

import (
	"math/big"
	"testing"

	"github.com/smallyu/go-ecc-sim/internal/crypto/field"
)

func testField(t *testing.T) field.Field {
	t.Helper()
	b, err := field.ByName("big")
	if err != nil {
		t.Fatalf("big backend missing: %v", err)
	}
	return b.Field(big.NewInt(251))
}

func TestParseOpClassification(t *testing.T) {
	cases := []struct {
		line string
		typ  Type
	}{
		{"t0 = X1+Y1", Add},
		{"t0 = X1-Y1", Sub},
		{"t0 = X1*Y1", Mult},
		{"t0 = X1/Y1", Div},
		{"t0 = 1/X1", Inv},
		{"t0 = -X1", Neg},
		{"t0 = X1^2", Sqr},
		{"t0 = X1^3", Pow},
		{"t0 = X1", Id},
		{"t0 = 2*X1", Mult},
		{"t0 = 4", Id},
	}
	for _, c := range cases {
		o, err := ParseOp(c.line)
		if err != nil {
			t.Fatalf("ParseOp(%q) failed: %v", c.line, err)
		}
		if o.Type != c.typ {
			t.Errorf("ParseOp(%q) classified as %v, want %v", c.line, o.Type, c.typ)
		}
		if o.Result != "t0" {
			t.Errorf("ParseOp(%q) result %q", c.line, o.Result)
		}
	}
}

func TestParseOpRejectsDeepExpressions(t *testing.T) {
	for _, line := range []string{
		"t0 = (X1+Y1)*Z1",
		"t0 = X1+Y1+Z1",
		"t0 = X1^Y1",
	} {
		if _, err := ParseOp(line); err == nil {
			t.Errorf("ParseOp(%q) accepted a non-straight-line operation", line)
		}
	}
}

func TestParseOpNegativeConstant(t *testing.T) {
	o, err := ParseOp("t0 = X1*-3")
	if err != nil {
		// Some sources write the multiplication the other way round.
		o, err = ParseOp("t0 = -3*X1")
	}
	if err != nil {
		t.Fatalf("Negative constant operand rejected: %v", err)
	}
	if o.Type != Mult {
		t.Fatalf("Classified as %v, want Mult", o.Type)
	}
}

func TestOpExecute(t *testing.T) {
	f := testField(t)
	vars := map[string]field.Element{
		"a": f.FromInt64(10),
		"b": f.FromInt64(3),
	}
	cases := []struct {
		line string
		want int64
	}{
		{"r = a+b", 13},
		{"r = a-b", 7},
		{"r = a*b", 30},
		{"r = a^2", 100},
		{"r = a^3", 247}, // 1000 mod 251
		{"r = -a", 241},
		{"r = 2*a", 20},
	}
	for _, c := range cases {
		o, err := ParseOp(c.line)
		if err != nil {
			t.Fatalf("ParseOp(%q) failed: %v", c.line, err)
		}
		got, err := o.Execute(f, vars)
		if err != nil {
			t.Fatalf("Execute(%q) failed: %v", c.line, err)
		}
		if got.Int().Int64() != c.want {
			t.Errorf("Execute(%q) = %s, want %d", c.line, got.Int(), c.want)
		}
	}
}

func TestOpExecuteDivision(t *testing.T) {
	f := testField(t)
	vars := map[string]field.Element{
		"a": f.FromInt64(10),
		"b": f.FromInt64(2),
		"z": f.Zero(),
	}
	o, _ := ParseOp("r = a/b")
	got, err := o.Execute(f, vars)
	if err != nil {
		t.Fatalf("Execute failed: %v", err)
	}
	if got.Int().Int64() != 5 {
		t.Errorf("10/2 = %s, want 5", got.Int())
	}

	o, _ = ParseOp("r = a/z")
	if _, err := o.Execute(f, vars); err == nil {
		t.Fatal("Division by zero did not error")
	}

	o, _ = ParseOp("r = 1/b")
	inv, err := o.Execute(f, vars)
	if err != nil {
		t.Fatalf("Execute failed: %v", err)
	}
	if !inv.Mul(vars["b"]).Equal(f.One()) {
		t.Error("1/b * b != 1")
	}
}

func TestOpExecuteUndefinedVariable(t *testing.T) {
	f := testField(t)
	o, _ := ParseOp("r = a+missing")
	if _, err := o.Execute(f, map[string]field.Element{"a": f.One()}); err == nil {
		t.Fatal("Undefined operand did not error")
	}
}

func TestEvalExpression(t *testing.T) {
	f := testField(t)
	vars := map[string]field.Element{
		"a": f.FromInt64(7),
	}
	e, err := ParseExpr("(a + 2)/4")
	if err != nil {
		t.Fatalf("ParseExpr failed: %v", err)
	}
	got, err := Eval(e, f, vars)
	if err != nil {
		t.Fatalf("Eval failed: %v", err)
	}
	// (7+2)/4 in GF(251): 9 * 4^-1. 4*63 = 252 = 1, so 9*63 = 567 = 65.
	if got.Int().Int64() != 65 {
		t.Errorf("Eval = %s, want 65", got.Int())
	}
}

func TestEvalPrecedence(t *testing.T) {
	f := testField(t)
	vars := map[string]field.Element{}
	for _, c := range []struct {
		src  string
		want int64
	}{
		{"2+3*4", 14},
		{"2*3^2", 18},
		{"-3+5", 2},
	} {
		e, err := ParseExpr(c.src)
		if err != nil {
			t.Fatalf("ParseExpr(%q) failed: %v", c.src, err)
		}
		got, err := Eval(e, f, vars)
		if err != nil {
			t.Fatalf("Eval(%q) failed: %v", c.src, err)
		}
		if got.Int().Int64() != c.want%251 {
			t.Errorf("Eval(%q) = %s, want %d", c.src, got.Int(), c.want%251)
		}
	}
}

func TestVariables(t *testing.T) {
	e, err := ParseExpr("x^3 + a*x + b")
	if err != nil {
		t.Fatalf("ParseExpr failed: %v", err)
	}
	names := Variables(e)
	seen := map[string]bool{}
	for _, n := range names {
		seen[n] = true
	}
	for _, want := range []string{"x", "a", "b"} {
		if !seen[want] {
			t.Errorf("Variables missing %q", want)
		}
	}
	if len(names) != 3 {
		t.Errorf("Variables returned %d names, want 3", len(names))
	}
}
