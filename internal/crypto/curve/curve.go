// Package curve binds a curve model and coordinate system to a
// concrete prime field and parameter values, and provides the affine
// reference arithmetic every other layer is checked against.
package curve

import (
	"errors"
	"fmt"
	"math/big"

	"github.com/smallyu/go-ecc-sim/internal/crypto/field"
	"github.com/smallyu/go-ecc-sim/internal/crypto/model"
	"github.com/smallyu/go-ecc-sim/internal/crypto/op"
	"github.com/smallyu/go-ecc-sim/pkg/ecsim"
)

// Curve is an elliptic curve instance: a model, a coordinate system,
// a prime field and concrete parameter values. Curves are immutable
// and safe for concurrent use.
type Curve struct {
	Model  *model.CurveModel
	Coords *model.CoordinateModel
	Field  field.Field

	// Parameters holds the curve parameters (a, b, ...) plus any
	// derived coordinate system parameters (a24, ...).
	Parameters map[string]field.Element

	neutral Point
}

// NewCurve constructs a curve instance. Coordinate system assumptions
// are resolved here: assumptions over declared system parameters are
// evaluated and stored, assumptions constraining curve parameters are
// checked and reported as an unsupported configuration when violated.
func NewCurve(m *model.CurveModel, coords *model.CoordinateModel, fld field.Field, params map[string]field.Element) (*Curve, error) {
	if coords.Model != m {
		return nil, fmt.Errorf("%w: coordinate system %s does not belong to model %s",
			ecsim.ErrUnsupportedConfiguration, coords, m)
	}
	for _, name := range m.ParameterNames {
		if _, ok := params[name]; !ok {
			return nil, fmt.Errorf("%w: missing curve parameter %q", ecsim.ErrInvalidDomainParameters, name)
		}
	}
	all := make(map[string]field.Element, len(params)+len(coords.Parameters))
	for k, v := range params {
		all[k] = v
	}
	for _, as := range coords.Assumptions {
		val, err := op.Eval(as.Expr, fld, all)
		if err != nil {
			return nil, fmt.Errorf("evaluate assumption %s: %w", as.Result, err)
		}
		if cur, ok := all[as.Result]; ok {
			if !cur.Equal(val) {
				return nil, fmt.Errorf("%w: coordinate system %s assumes %s = %s",
					ecsim.ErrUnsupportedConfiguration, coords, as.Result, val.Int().Text(10))
			}
			continue
		}
		all[as.Result] = val
	}
	for _, name := range coords.Parameters {
		if _, ok := all[name]; !ok {
			return nil, fmt.Errorf("%w: coordinate parameter %q has no defining assumption",
				ecsim.ErrUnsupportedConfiguration, name)
		}
	}
	c := &Curve{Model: m, Coords: coords, Field: fld, Parameters: all}
	if err := c.initNeutral(); err != nil {
		return nil, err
	}
	return c, nil
}

func (c *Curve) initNeutral() error {
	if !c.Model.HasAffineNeutral() {
		c.neutral = Infinity(c.Coords)
		return nil
	}
	vars := c.paramVars()
	for _, as := range c.Model.BaseNeutral {
		v, err := op.Eval(as.Expr, c.Field, vars)
		if err != nil {
			return err
		}
		vars[as.Result] = v
	}
	aff := NewPoint(c.Model.Affine(), map[string]field.Element{"x": vars["x"], "y": vars["y"]})
	if c.Coords.IsAffine() {
		c.neutral = aff
		return nil
	}
	n, err := c.FromAffine(aff)
	if err != nil {
		return err
	}
	c.neutral = n
	return nil
}

func (c *Curve) paramVars() map[string]field.Element {
	vars := make(map[string]field.Element, len(c.Parameters)+8)
	for k, v := range c.Parameters {
		vars[k] = v
	}
	return vars
}

// Neutral returns the neutral point of the group in the curve's
// coordinate system. For models without a finite neutral this is the
// point at infinity marker.
func (c *Curve) Neutral() Point {
	return c.neutral
}

// IsNeutral reports whether p is the group neutral. Affine points are
// compared against the affine neutral, points in the curve's system
// against its converted form.
func (c *Curve) IsNeutral(p Point) bool {
	if p.IsInfinity() {
		return true
	}
	if !c.Model.HasAffineNeutral() {
		return false
	}
	aff := p
	if !p.Coords().IsAffine() {
		if p.Equal(c.neutral) {
			return true
		}
		var err error
		aff, err = c.ToAffine(p)
		if err != nil {
			return false
		}
	}
	naff, err := c.affineNeutral()
	if err != nil {
		return false
	}
	return aff.Equal(naff)
}

// FromAffine converts an affine point into the curve's coordinate
// system by evaluating the system's entry map.
func (c *Curve) FromAffine(p Point) (Point, error) {
	if p.IsInfinity() {
		return Infinity(c.Coords), nil
	}
	if !p.Coords().IsAffine() {
		return Point{}, fmt.Errorf("point is in %s, not affine", p.Coords())
	}
	if c.Coords.IsAffine() {
		return p, nil
	}
	vars := c.paramVars()
	for _, name := range []string{"x", "y"} {
		if v, ok := p.Coordinate(name); ok {
			vars[name] = v
		}
	}
	values := make(map[string]field.Element, len(c.Coords.Variables))
	for _, as := range c.Coords.FromAffine {
		v, err := op.Eval(as.Expr, c.Field, vars)
		if err != nil {
			return Point{}, err
		}
		vars[as.Result] = v
		if c.Coords.HasVariable(as.Result) {
			values[as.Result] = v
		}
	}
	for _, v := range c.Coords.Variables {
		if _, ok := values[v]; !ok {
			return Point{}, fmt.Errorf("conversion into %s does not define %s", c.Coords, v)
		}
	}
	return NewPoint(c.Coords, values), nil
}

// ToAffine converts a point of the curve's coordinate system back to
// affine coordinates. x-only systems yield a point carrying only x.
func (c *Curve) ToAffine(p Point) (Point, error) {
	if p.IsInfinity() {
		if c.Model.HasAffineNeutral() {
			return c.affineNeutral()
		}
		return Infinity(c.Model.Affine()), nil
	}
	if p.Coords().IsAffine() {
		return p, nil
	}
	if p.Coords() != c.Coords {
		return Point{}, fmt.Errorf("point is in %s, curve uses %s", p.Coords(), c.Coords)
	}
	vars := c.paramVars()
	for _, v := range c.Coords.Variables {
		el, ok := p.Coordinate(v)
		if !ok {
			return Point{}, fmt.Errorf("point in %s is missing %s", c.Coords, v)
		}
		vars[v] = el
	}
	values := make(map[string]field.Element, 2)
	for _, as := range c.Coords.ToAffine {
		v, err := op.Eval(as.Expr, c.Field, vars)
		if err != nil {
			return Point{}, err
		}
		vars[as.Result] = v
		if as.Result == "x" || as.Result == "y" {
			values[as.Result] = v
		}
	}
	return NewPoint(c.Model.Affine(), values), nil
}

func (c *Curve) affineNeutral() (Point, error) {
	if c.Coords.IsAffine() {
		return c.neutral, nil
	}
	vars := c.paramVars()
	for _, as := range c.Model.BaseNeutral {
		v, err := op.Eval(as.Expr, c.Field, vars)
		if err != nil {
			return Point{}, err
		}
		vars[as.Result] = v
	}
	return NewPoint(c.Model.Affine(), map[string]field.Element{"x": vars["x"], "y": vars["y"]}), nil
}

// EqualPoints compares two points of the curve's system up to
// projective scaling, by converting both to affine.
func (c *Curve) EqualPoints(p, q Point) (bool, error) {
	if p.IsInfinity() || q.IsInfinity() {
		return c.IsNeutral(p) == c.IsNeutral(q), nil
	}
	pa, err := c.ToAffine(p)
	if err != nil {
		return false, err
	}
	qa, err := c.ToAffine(q)
	if err != nil {
		return false, err
	}
	return pa.Equal(qa), nil
}

// IsOnCurve checks the defining equation for a point, converting to
// affine first when needed. The point at infinity is on the curve.
func (c *Curve) IsOnCurve(p Point) (bool, error) {
	if p.IsInfinity() {
		return true, nil
	}
	aff := p
	if !p.Coords().IsAffine() {
		var err error
		aff, err = c.ToAffine(p)
		if err != nil {
			return false, err
		}
	}
	x, okx := aff.Coordinate("x")
	y, oky := aff.Coordinate("y")
	if !okx {
		return false, errors.New("point has no x coordinate")
	}
	if !oky {
		// x-only point: check that x lifts to a curve point.
		ys, err := c.YSquaredAt(x)
		if err != nil {
			return false, err
		}
		_, err = c.Sqrt(ys)
		return err == nil, nil
	}
	vars := c.paramVars()
	vars["x"] = x
	vars["y"] = y
	lhs, err := op.Eval(c.Model.EquationLHS, c.Field, vars)
	if err != nil {
		return false, err
	}
	rhs, err := op.Eval(c.Model.EquationRHS, c.Field, vars)
	if err != nil {
		return false, err
	}
	return lhs.Equal(rhs), nil
}

// YSquaredAt evaluates y^2 of the defining equation at the given x.
func (c *Curve) YSquaredAt(x field.Element) (field.Element, error) {
	vars := c.paramVars()
	vars["x"] = x
	return op.Eval(c.Model.YSquared, c.Field, vars)
}

// Sqrt computes a square root in the curve's field, or an error when
// the element is a non-residue.
func (c *Curve) Sqrt(v field.Element) (field.Element, error) {
	r := new(big.Int).ModSqrt(v.Int(), c.Field.Modulus())
	if r == nil {
		return nil, fmt.Errorf("%d-bit element is not a quadratic residue", c.Field.Bits())
	}
	return c.Field.FromInt(r), nil
}

// LiftX lifts an x-coordinate to an affine curve point, choosing the
// root with even integer value. An x off the curve yields an error
// wrapping the not-on-curve sentinel.
func (c *Curve) LiftX(x field.Element) (Point, error) {
	ys, err := c.YSquaredAt(x)
	if err != nil {
		return Point{}, err
	}
	y, err := c.Sqrt(ys)
	if err != nil {
		return Point{}, fmt.Errorf("%w: x does not lift to a point", ecsim.ErrPointNotOnCurve)
	}
	if y.Int().Bit(0) == 1 {
		y = y.Neg()
	}
	return NewPoint(c.Model.Affine(), map[string]field.Element{"x": x, "y": y}), nil
}

// RandomAffine samples a uniform affine point on the curve by lifting
// random x-coordinates, flipping the root sign with one more bit.
func (c *Curve) RandomAffine(rng *ecsim.DRBG) (Point, error) {
	for i := 0; i < 1000; i++ {
		xi, err := rng.UniformMod(c.Field.Modulus())
		if err != nil {
			return Point{}, err
		}
		p, err := c.LiftX(c.Field.FromInt(xi))
		if err != nil {
			continue
		}
		var b [1]byte
		if _, err := rng.Read(b[:]); err != nil {
			return Point{}, err
		}
		if b[0]&1 == 1 {
			p = NewPoint(p.Coords(), map[string]field.Element{"x": p.X(), "y": p.Y().Neg()})
		}
		return p, nil
	}
	return Point{}, errors.New("no curve point found after 1000 attempts")
}
