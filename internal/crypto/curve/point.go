package curve

import (
	"fmt"
	"sort"
	"strings"

	"github.com/smallyu/go-ecc-sim/internal/crypto/field"
	"github.com/smallyu/go-ecc-sim/internal/crypto/model"
)

// Point is a curve point in some coordinate system. The zero value is
// not usable; construct points with NewPoint, Infinity, or through a
// Curve. Points are immutable.
type Point struct {
	coords   *model.CoordinateModel
	values   map[string]field.Element
	infinity bool
}

// NewPoint builds a point from explicit coordinate values. Every
// variable of the system must be present unless the system only
// defines a subset (x-only conversions produce such points).
func NewPoint(coords *model.CoordinateModel, values map[string]field.Element) Point {
	cp := make(map[string]field.Element, len(values))
	for k, v := range values {
		cp[k] = v
	}
	return Point{coords: coords, values: cp}
}

// Infinity is the point at infinity marker for the given system.
func Infinity(coords *model.CoordinateModel) Point {
	return Point{coords: coords, infinity: true}
}

// Coords returns the coordinate system the point lives in.
func (p Point) Coords() *model.CoordinateModel { return p.coords }

// IsInfinity reports whether the point is the point at infinity.
func (p Point) IsInfinity() bool { return p.infinity }

// Coordinate returns the named coordinate value.
func (p Point) Coordinate(name string) (field.Element, bool) {
	v, ok := p.values[name]
	return v, ok
}

// X is shorthand for the affine x coordinate. It panics off the affine
// system.
func (p Point) X() field.Element { return p.mustCoord("x") }

// Y is shorthand for the affine y coordinate.
func (p Point) Y() field.Element { return p.mustCoord("y") }

func (p Point) mustCoord(name string) field.Element {
	v, ok := p.values[name]
	if !ok {
		panic(fmt.Sprintf("point in %s has no coordinate %s", p.coords, name))
	}
	return v
}

// Equal reports exact coordinate equality. Points in different systems
// are never equal, and no rescaling is attempted; use a Curve for
// equality up to projective scaling.
func (p Point) Equal(q Point) bool {
	if p.coords != q.coords {
		return false
	}
	if p.infinity || q.infinity {
		return p.infinity == q.infinity
	}
	if len(p.values) != len(q.values) {
		return false
	}
	for k, v := range p.values {
		w, ok := q.values[k]
		if !ok || !v.Equal(w) {
			return false
		}
	}
	return true
}

// Bytes serializes the point as the concatenation of its coordinates
// in the system's variable order, each as a fixed-length big-endian
// field element. The point at infinity serializes to a single zero
// byte.
func (p Point) Bytes() []byte {
	if p.infinity {
		return []byte{0x00}
	}
	var out []byte
	for _, v := range p.coords.Variables {
		if el, ok := p.values[v]; ok {
			out = append(out, el.Bytes()...)
		}
	}
	return out
}

func (p Point) String() string {
	if p.infinity {
		return fmt.Sprintf("Infinity@%s", p.coords)
	}
	names := make([]string, 0, len(p.values))
	for k := range p.values {
		names = append(names, k)
	}
	sort.Strings(names)
	parts := make([]string, 0, len(names))
	for _, n := range names {
		parts = append(parts, fmt.Sprintf("%s=%s", n, p.values[n].Int().Text(16)))
	}
	return fmt.Sprintf("[%s]@%s", strings.Join(parts, ","), p.coords)
}
