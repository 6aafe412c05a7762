package field

import (
	"fmt"
	"math/big"
)

// Element is an integer modulo a prime, produced by one Field. Elements
// are immutable values: every operation returns a new Element. Mixing
// elements from different fields or backends is a programming error and
// panics rather than returning a wrong result.
type Element interface {
	// Add returns x + other mod p.
	Add(other Element) Element

	// Sub returns x - other mod p.
	Sub(other Element) Element

	// Mul returns x * other mod p.
	Mul(other Element) Element

	// Sqr returns x^2 mod p.
	Sqr() Element

	// Neg returns -x mod p.
	Neg() Element

	// Inv returns x^-1 mod p. Inverting zero fails with
	// ecsim.ErrDivisionByZero on every backend.
	Inv() (Element, error)

	// Div returns x * other^-1 mod p.
	Div(other Element) (Element, error)

	// Pow returns x^e mod p for a non-negative exponent.
	Pow(e *big.Int) Element

	// Equal reports whether the two elements have the same value.
	Equal(other Element) bool

	// IsZero reports whether the element is the zero element.
	IsZero() bool

	// IsOdd reports the parity of the canonical representative.
	IsOdd() bool

	// Int returns the canonical representative in [0, p).
	Int() *big.Int

	// Bytes returns the fixed-length big-endian serialization, sized to
	// the modulus byte length. Identical across backends.
	Bytes() []byte

	// Field returns the field this element belongs to.
	Field() Field
}

// Field constructs elements modulo one fixed prime.
type Field interface {
	// Backend returns the name of the backend that built this field.
	Backend() string

	// Modulus returns the prime p.
	Modulus() *big.Int

	// Bits returns the bit length of the modulus.
	Bits() int

	// ByteLen returns the serialized element length in bytes.
	ByteLen() int

	// FromInt reduces v modulo p and returns the element.
	FromInt(v *big.Int) Element

	// FromInt64 reduces v modulo p and returns the element.
	FromInt64(v int64) Element

	// FromBytes interprets b as a big-endian integer and reduces it.
	FromBytes(b []byte) Element

	// Zero returns the zero element.
	Zero() Element

	// One returns the one element.
	One() Element
}

// Backend constructs fields. All backends are behaviorally identical:
// the same inputs must produce bit-identical outputs everywhere.
type Backend interface {
	// Name returns the backend identifier.
	Name() string

	// Field creates a field for the given prime modulus.
	Field(p *big.Int) Field
}

var backends = map[string]Backend{
	"big":      &BigBackend{},
	"saferith": &SaferithBackend{},
}

// ByName looks up a registered backend by its identifier.
func ByName(name string) (Backend, error) {
	b, ok := backends[name]
	if !ok {
		return nil, fmt.Errorf("unknown field backend %q", name)
	}
	return b, nil
}

// Names returns the identifiers of all registered backends.
func Names() []string {
	return []string{"big", "saferith"}
}
