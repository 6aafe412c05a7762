package params_test

import (
	"errors"
	"testing"

	"github.com/smallyu/go-ecc-sim/internal/crypto/field"
	"github.com/smallyu/go-ecc-sim/internal/crypto/params"
	"github.com/smallyu/go-ecc-sim/pkg/ecsim"
)

func backend(t *testing.T, name string) field.Backend {
	t.Helper()
	b, err := field.ByName(name)
	if err != nil {
		t.Fatalf("ByName(%s) failed: %v", name, err)
	}
	return b
}

func TestNamesListsKnownCurves(t *testing.T) {
	names, err := params.Names()
	if err != nil {
		t.Fatalf("Names failed: %v", err)
	}
	want := map[string]bool{
		"secp256r1":  false,
		"secp256k1":  false,
		"curve25519": false,
		"ed25519":    false,
	}
	for _, n := range names {
		if _, ok := want[n]; ok {
			want[n] = true
		}
	}
	for n, seen := range want {
		if !seen {
			t.Errorf("curve %s missing from the database", n)
		}
	}
}

func TestLoadAllCurvesOnBothBackends(t *testing.T) {
	cases := []struct {
		curve, coords string
	}{
		{"secp256r1", "jacobian"},
		{"secp256k1", "jacobian"},
		{"curve25519", "xz"},
		{"ed25519", "extended"},
	}
	for _, backendName := range []string{"big", "saferith"} {
		for _, tc := range cases {
			t.Run(backendName+"/"+tc.curve, func(t *testing.T) {
				dom, err := params.Load(tc.curve, tc.coords, backend(t, backendName))
				if err != nil {
					t.Fatalf("Load failed: %v", err)
				}
				if dom.Name != tc.curve {
					t.Errorf("Name = %s, want %s", dom.Name, tc.curve)
				}
				if dom.Order.Sign() <= 0 || dom.Cofactor.Sign() <= 0 {
					t.Errorf("order/cofactor not positive")
				}
				if dom.Generator.IsInfinity() {
					t.Errorf("generator is the point at infinity")
				}
				on, err := dom.Curve.IsOnCurve(dom.Generator)
				if err != nil {
					t.Fatalf("IsOnCurve failed: %v", err)
				}
				if !on {
					t.Errorf("generator not on the curve")
				}
			})
		}
	}
}

func TestLoadUnknownCurve(t *testing.T) {
	_, err := params.Load("secp999r9", "jacobian", backend(t, "big"))
	if !errors.Is(err, ecsim.ErrInvalidDomainParameters) {
		t.Errorf("unknown curve: got %v, want ErrInvalidDomainParameters", err)
	}
}

func TestLoadUnknownCoordinates(t *testing.T) {
	_, err := params.Load("secp256r1", "does-not-exist", backend(t, "big"))
	if !errors.Is(err, ecsim.ErrUnsupportedConfiguration) {
		t.Errorf("unknown coordinates: got %v, want ErrUnsupportedConfiguration", err)
	}
}

// jacobian-3 assumes a = -3, which holds for secp256r1 but not for
// secp256k1 (a = 0). Binding the latter must fail at load time.
func TestCoordinateAssumptionChecked(t *testing.T) {
	if _, err := params.Load("secp256r1", "jacobian-3", backend(t, "big")); err != nil {
		t.Fatalf("secp256r1 on jacobian-3 failed: %v", err)
	}
	_, err := params.Load("secp256k1", "jacobian-3", backend(t, "big"))
	if !errors.Is(err, ecsim.ErrUnsupportedConfiguration) {
		t.Errorf("secp256k1 on jacobian-3: got %v, want ErrUnsupportedConfiguration", err)
	}
}

func TestLoadAffine(t *testing.T) {
	dom, err := params.Load("secp256r1", "affine", backend(t, "big"))
	if err != nil {
		t.Fatalf("Load affine failed: %v", err)
	}
	if !dom.Generator.Coords().IsAffine() {
		t.Errorf("generator not in affine coordinates")
	}
}

func TestScalarBytes(t *testing.T) {
	dom, err := params.Load("secp256r1", "jacobian", backend(t, "big"))
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if got := dom.ScalarBytes(); got != 32 {
		t.Errorf("ScalarBytes = %d, want 32", got)
	}
}

func TestBackendsProduceSameGenerator(t *testing.T) {
	a, err := params.Load("secp256r1", "jacobian", backend(t, "big"))
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	b, err := params.Load("secp256r1", "jacobian", backend(t, "saferith"))
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	ga, err := a.Curve.ToAffine(a.Generator)
	if err != nil {
		t.Fatalf("ToAffine failed: %v", err)
	}
	gb, err := b.Curve.ToAffine(b.Generator)
	if err != nil {
		t.Fatalf("ToAffine failed: %v", err)
	}
	xa, _ := ga.Coordinate("x")
	xb, _ := gb.Coordinate("x")
	if xa.Int().Cmp(xb.Int()) != 0 {
		t.Errorf("generator x differs between backends: %v vs %v", xa.Int(), xb.Int())
	}
}
