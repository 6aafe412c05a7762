package field

import (
	"math/big"

	"github.com/cronokirby/saferith"

	"github.com/smallyu/go-ecc-sim/pkg/ecsim"
)

// SaferithBackend is the backend built on github.com/cronokirby/saferith
// big numbers. Results are bit-identical with the math/big backend; the
// constant-time properties of the library are incidental here, the
// simulator makes no timing claims.
type SaferithBackend struct{}

func (b *SaferithBackend) Name() string {
	return "saferith"
}

func (b *SaferithBackend) Field(p *big.Int) Field {
	m := saferith.ModulusFromBytes(p.Bytes())
	return &natField{
		p:       new(big.Int).Set(p),
		m:       m,
		byteLen: (p.BitLen() + 7) / 8,
	}
}

type natField struct {
	p       *big.Int
	m       *saferith.Modulus
	byteLen int
}

func (f *natField) Backend() string {
	return "saferith"
}

func (f *natField) Modulus() *big.Int {
	return new(big.Int).Set(f.p)
}

func (f *natField) Bits() int {
	return f.p.BitLen()
}

func (f *natField) ByteLen() int {
	return f.byteLen
}

func (f *natField) FromInt(v *big.Int) Element {
	red := new(big.Int).Mod(v, f.p)
	x := new(saferith.Nat).SetBytes(red.Bytes())
	return &natElement{f: f, x: x}
}

func (f *natField) FromInt64(v int64) Element {
	return f.FromInt(big.NewInt(v))
}

func (f *natField) FromBytes(b []byte) Element {
	x := new(saferith.Nat).SetBytes(b)
	x.Mod(x, f.m)
	return &natElement{f: f, x: x}
}

func (f *natField) Zero() Element {
	return &natElement{f: f, x: new(saferith.Nat).SetUint64(0)}
}

func (f *natField) One() Element {
	return &natElement{f: f, x: new(saferith.Nat).SetUint64(1)}
}

type natElement struct {
	f *natField
	x *saferith.Nat
}

func (e *natElement) sibling(other Element) *natElement {
	o, ok := other.(*natElement)
	if !ok || o.f.p.Cmp(e.f.p) != 0 {
		panic("field: mixed element backends or moduli")
	}
	return o
}

func (e *natElement) Add(other Element) Element {
	o := e.sibling(other)
	x := new(saferith.Nat).ModAdd(e.x, o.x, e.f.m)
	return &natElement{f: e.f, x: x}
}

func (e *natElement) Sub(other Element) Element {
	o := e.sibling(other)
	neg := new(saferith.Nat).ModNeg(o.x, e.f.m)
	x := new(saferith.Nat).ModAdd(e.x, neg, e.f.m)
	return &natElement{f: e.f, x: x}
}

func (e *natElement) Mul(other Element) Element {
	o := e.sibling(other)
	x := new(saferith.Nat).ModMul(e.x, o.x, e.f.m)
	return &natElement{f: e.f, x: x}
}

func (e *natElement) Sqr() Element {
	x := new(saferith.Nat).ModMul(e.x, e.x, e.f.m)
	return &natElement{f: e.f, x: x}
}

func (e *natElement) Neg() Element {
	x := new(saferith.Nat).ModNeg(e.x, e.f.m)
	return &natElement{f: e.f, x: x}
}

func (e *natElement) Inv() (Element, error) {
	if e.IsZero() {
		return nil, ecsim.ErrDivisionByZero
	}
	x := new(saferith.Nat).ModInverse(e.x, e.f.m)
	return &natElement{f: e.f, x: x}, nil
}

func (e *natElement) Div(other Element) (Element, error) {
	inv, err := other.Inv()
	if err != nil {
		return nil, err
	}
	return e.Mul(inv), nil
}

func (e *natElement) Pow(exp *big.Int) Element {
	en := new(saferith.Nat).SetBytes(exp.Bytes())
	x := new(saferith.Nat).Exp(e.x, en, e.f.m)
	return &natElement{f: e.f, x: x}
}

func (e *natElement) Equal(other Element) bool {
	o := e.sibling(other)
	return e.x.Eq(o.x) == 1
}

func (e *natElement) IsZero() bool {
	return e.x.Eq(new(saferith.Nat).SetUint64(0)) == 1
}

func (e *natElement) IsOdd() bool {
	b := e.x.Bytes()
	if len(b) == 0 {
		return false
	}
	return b[len(b)-1]&1 == 1
}

func (e *natElement) Int() *big.Int {
	return new(big.Int).SetBytes(e.x.Bytes())
}

func (e *natElement) Bytes() []byte {
	buf := make([]byte, e.f.byteLen)
	e.Int().FillBytes(buf)
	return buf
}

func (e *natElement) Field() Field {
	return e.f
}
