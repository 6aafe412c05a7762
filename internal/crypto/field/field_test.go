package field

import (
	"errors"
	"math/big"
	"math/rand"
	"testing"

	"github.com/smallyu/go-ecc-sim/pkg/ecsim"
)

var testModuli = []string{
	"fffffffffffffffffffffffffffffffffffffffffffffffffffffffefffffc2f",
	"ffffffff00000001000000000000000000000000ffffffffffffffffffffffff",
	"7fffffffffffffffffffffffffffffffffffffffffffffffffffffffffffffed",
	"fb", // 251, a small prime
}

func allBackends(t *testing.T) []Backend {
	t.Helper()
	var out []Backend
	for _, name := range Names() {
		b, err := ByName(name)
		if err != nil {
			t.Fatalf("Backend %q listed but not constructible: %v", name, err)
		}
		out = append(out, b)
	}
	if len(out) < 2 {
		t.Fatalf("Expected at least two backends, got %d", len(out))
	}
	return out
}

func TestByName(t *testing.T) {
	if _, err := ByName("big"); err != nil {
		t.Fatalf("big backend missing: %v", err)
	}
	if _, err := ByName("saferith"); err != nil {
		t.Fatalf("saferith backend missing: %v", err)
	}
	if _, err := ByName("gmp"); err == nil {
		t.Fatal("Expected error for unknown backend")
	}
}

// TestBackendAgreement drives every backend pair through random
// operand triples and demands bit-identical results.
func TestBackendAgreement(t *testing.T) {
	backends := allBackends(t)
	src := rand.New(rand.NewSource(1))

	for _, modHex := range testModuli {
		p, ok := new(big.Int).SetString(modHex, 16)
		if !ok {
			t.Fatalf("Bad modulus %q", modHex)
		}
		fields := make([]Field, len(backends))
		for i, b := range backends {
			fields[i] = b.Field(p)
		}

		for trial := 0; trial < 500; trial++ {
			a := new(big.Int).Rand(src, p)
			b := new(big.Int).Rand(src, p)

			results := make([][]*big.Int, len(fields))
			for i, f := range fields {
				ea := f.FromInt(a)
				eb := f.FromInt(b)
				row := []*big.Int{
					ea.Add(eb).Int(),
					ea.Sub(eb).Int(),
					ea.Mul(eb).Int(),
					ea.Sqr().Int(),
					ea.Neg().Int(),
					ea.Pow(big.NewInt(5)).Int(),
				}
				if ea.IsZero() {
					row = append(row, big.NewInt(-1))
				} else {
					inv, err := ea.Inv()
					if err != nil {
						t.Fatalf("%s: Inv of nonzero failed: %v", f.Backend(), err)
					}
					row = append(row, inv.Int())
				}
				results[i] = row
			}

			for i := 1; i < len(results); i++ {
				for j := range results[0] {
					if results[0][j].Cmp(results[i][j]) != 0 {
						t.Fatalf("Backend %s disagrees with %s on op %d: a=%s b=%s p=%s: %s vs %s",
							fields[i].Backend(), fields[0].Backend(), j, a, b, p,
							results[i][j], results[0][j])
					}
				}
			}
		}
	}
}

func TestInverseOfZero(t *testing.T) {
	p, _ := new(big.Int).SetString(testModuli[0], 16)
	for _, b := range allBackends(t) {
		f := b.Field(p)
		_, err := f.Zero().Inv()
		if !errors.Is(err, ecsim.ErrDivisionByZero) {
			t.Errorf("%s: Inv(0) returned %v, want ErrDivisionByZero", b.Name(), err)
		}
		_, err = f.One().Div(f.Zero())
		if !errors.Is(err, ecsim.ErrDivisionByZero) {
			t.Errorf("%s: Div by 0 returned %v, want ErrDivisionByZero", b.Name(), err)
		}
	}
}

func TestBytesFixedLength(t *testing.T) {
	p, _ := new(big.Int).SetString(testModuli[1], 16)
	for _, b := range allBackends(t) {
		f := b.Field(p)
		if f.ByteLen() != 32 {
			t.Fatalf("%s: ByteLen = %d, want 32", b.Name(), f.ByteLen())
		}
		// Small values still serialize to the full modulus width.
		one := f.One().Bytes()
		if len(one) != 32 {
			t.Fatalf("%s: Bytes() length %d, want 32", b.Name(), len(one))
		}
		if one[31] != 1 {
			t.Fatalf("%s: Bytes() of 1 not big-endian padded", b.Name())
		}
		back := f.FromBytes(one)
		if !back.Equal(f.One()) {
			t.Fatalf("%s: FromBytes(Bytes(1)) != 1", b.Name())
		}
	}
}

func TestModularReduction(t *testing.T) {
	p := big.NewInt(251)
	for _, b := range allBackends(t) {
		f := b.Field(p)
		// Inputs are reduced on entry.
		e := f.FromInt(big.NewInt(502))
		if !e.IsZero() {
			t.Errorf("%s: 502 mod 251 != 0", b.Name())
		}
		neg := f.FromInt64(-1)
		if neg.Int().Cmp(big.NewInt(250)) != 0 {
			t.Errorf("%s: -1 mod 251 = %s, want 250", b.Name(), neg.Int())
		}
		if !neg.Neg().Equal(f.One()) {
			t.Errorf("%s: -(-1) != 1", b.Name())
		}
	}
}

func TestIsOdd(t *testing.T) {
	p := big.NewInt(251)
	for _, b := range allBackends(t) {
		f := b.Field(p)
		if f.FromInt64(2).IsOdd() {
			t.Errorf("%s: 2 reported odd", b.Name())
		}
		if !f.FromInt64(3).IsOdd() {
			t.Errorf("%s: 3 reported even", b.Name())
		}
	}
}
