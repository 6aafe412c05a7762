package field

import (
	"math/big"

	"github.com/smallyu/go-ecc-sim/pkg/ecsim"
)

// BigBackend is the software backend built on math/big.
type BigBackend struct{}

func (b *BigBackend) Name() string {
	return "big"
}

func (b *BigBackend) Field(p *big.Int) Field {
	return &bigField{p: new(big.Int).Set(p), byteLen: (p.BitLen() + 7) / 8}
}

type bigField struct {
	p       *big.Int
	byteLen int
}

func (f *bigField) Backend() string {
	return "big"
}

func (f *bigField) Modulus() *big.Int {
	return new(big.Int).Set(f.p)
}

func (f *bigField) Bits() int {
	return f.p.BitLen()
}

func (f *bigField) ByteLen() int {
	return f.byteLen
}

func (f *bigField) FromInt(v *big.Int) Element {
	x := new(big.Int).Mod(v, f.p)
	return &bigElement{f: f, x: x}
}

func (f *bigField) FromInt64(v int64) Element {
	return f.FromInt(big.NewInt(v))
}

func (f *bigField) FromBytes(b []byte) Element {
	return f.FromInt(new(big.Int).SetBytes(b))
}

func (f *bigField) Zero() Element {
	return &bigElement{f: f, x: new(big.Int)}
}

func (f *bigField) One() Element {
	return &bigElement{f: f, x: big.NewInt(1)}
}

type bigElement struct {
	f *bigField
	x *big.Int
}

func (e *bigElement) sibling(other Element) *bigElement {
	o, ok := other.(*bigElement)
	if !ok || o.f.p.Cmp(e.f.p) != 0 {
		panic("field: mixed element backends or moduli")
	}
	return o
}

func (e *bigElement) Add(other Element) Element {
	o := e.sibling(other)
	x := new(big.Int).Add(e.x, o.x)
	x.Mod(x, e.f.p)
	return &bigElement{f: e.f, x: x}
}

func (e *bigElement) Sub(other Element) Element {
	o := e.sibling(other)
	x := new(big.Int).Sub(e.x, o.x)
	x.Mod(x, e.f.p)
	return &bigElement{f: e.f, x: x}
}

func (e *bigElement) Mul(other Element) Element {
	o := e.sibling(other)
	x := new(big.Int).Mul(e.x, o.x)
	x.Mod(x, e.f.p)
	return &bigElement{f: e.f, x: x}
}

func (e *bigElement) Sqr() Element {
	x := new(big.Int).Mul(e.x, e.x)
	x.Mod(x, e.f.p)
	return &bigElement{f: e.f, x: x}
}

func (e *bigElement) Neg() Element {
	x := new(big.Int).Neg(e.x)
	x.Mod(x, e.f.p)
	return &bigElement{f: e.f, x: x}
}

func (e *bigElement) Inv() (Element, error) {
	if e.x.Sign() == 0 {
		return nil, ecsim.ErrDivisionByZero
	}
	x := new(big.Int).ModInverse(e.x, e.f.p)
	if x == nil {
		return nil, ecsim.ErrDivisionByZero
	}
	return &bigElement{f: e.f, x: x}, nil
}

func (e *bigElement) Div(other Element) (Element, error) {
	inv, err := other.Inv()
	if err != nil {
		return nil, err
	}
	return e.Mul(inv), nil
}

func (e *bigElement) Pow(exp *big.Int) Element {
	x := new(big.Int).Exp(e.x, exp, e.f.p)
	return &bigElement{f: e.f, x: x}
}

func (e *bigElement) Equal(other Element) bool {
	o := e.sibling(other)
	return e.x.Cmp(o.x) == 0
}

func (e *bigElement) IsZero() bool {
	return e.x.Sign() == 0
}

func (e *bigElement) IsOdd() bool {
	return e.x.Bit(0) == 1
}

func (e *bigElement) Int() *big.Int {
	return new(big.Int).Set(e.x)
}

func (e *bigElement) Bytes() []byte {
	buf := make([]byte, e.f.byteLen)
	e.x.FillBytes(buf)
	return buf
}

func (e *bigElement) Field() Field {
	return e.f
}
