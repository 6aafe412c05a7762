package curve

import (
	"fmt"

	"github.com/smallyu/go-ecc-sim/internal/crypto/field"
	"github.com/smallyu/go-ecc-sim/pkg/ecsim"
)

// Point encoding follows SEC 1 / X9.62 over the affine form: 0x00 for
// the point at infinity, 0x04 || x || y uncompressed, 0x02/0x03 || x
// compressed with the parity of y in the type byte.

// EncodeAffine serializes an affine point in uncompressed form.
func (c *Curve) EncodeAffine(p Point, compressed bool) ([]byte, error) {
	if p.IsInfinity() {
		return []byte{0x00}, nil
	}
	if !p.Coords().IsAffine() {
		var err error
		p, err = c.ToAffine(p)
		if err != nil {
			return nil, err
		}
	}
	x, okx := p.Coordinate("x")
	if !okx {
		return nil, fmt.Errorf("point has no x coordinate")
	}
	y, oky := p.Coordinate("y")
	if compressed {
		if !oky {
			return nil, fmt.Errorf("cannot compress an x-only point")
		}
		t := byte(0x02)
		if y.IsOdd() {
			t = 0x03
		}
		return append([]byte{t}, x.Bytes()...), nil
	}
	if !oky {
		return nil, fmt.Errorf("point has no y coordinate")
	}
	out := make([]byte, 0, 1+2*c.Field.ByteLen())
	out = append(out, 0x04)
	out = append(out, x.Bytes()...)
	out = append(out, y.Bytes()...)
	return out, nil
}

// DecodeAffine parses an encoded point and verifies it lies on the
// curve, returning an error wrapping the not-on-curve sentinel when it
// does not.
func (c *Curve) DecodeAffine(data []byte) (Point, error) {
	if len(data) == 1 && data[0] == 0x00 {
		return Infinity(c.Model.Affine()), nil
	}
	if len(data) == 0 {
		return Point{}, fmt.Errorf("empty point encoding")
	}
	n := c.Field.ByteLen()
	switch data[0] {
	case 0x04:
		if len(data) != 1+2*n {
			return Point{}, fmt.Errorf("uncompressed point has %d bytes, want %d", len(data), 1+2*n)
		}
		x := c.Field.FromBytes(data[1 : 1+n])
		y := c.Field.FromBytes(data[1+n:])
		p := NewPoint(c.Model.Affine(), map[string]field.Element{"x": x, "y": y})
		on, err := c.IsOnCurve(p)
		if err != nil {
			return Point{}, err
		}
		if !on {
			return Point{}, fmt.Errorf("%w: decoded point fails the curve equation", ecsim.ErrPointNotOnCurve)
		}
		return p, nil
	case 0x02, 0x03:
		if len(data) != 1+n {
			return Point{}, fmt.Errorf("compressed point has %d bytes, want %d", len(data), 1+n)
		}
		x := c.Field.FromBytes(data[1:])
		p, err := c.LiftX(x)
		if err != nil {
			return Point{}, err
		}
		odd := data[0] == 0x03
		if p.Y().IsOdd() != odd {
			p = NewPoint(p.Coords(), map[string]field.Element{"x": p.X(), "y": p.Y().Neg()})
		}
		return p, nil
	default:
		return Point{}, fmt.Errorf("unknown point encoding type 0x%02x", data[0])
	}
}
