package curve

import (
	"errors"
	"fmt"
	"math/big"

	"github.com/smallyu/go-ecc-sim/internal/crypto/field"
	"github.com/smallyu/go-ecc-sim/internal/crypto/op"
)

// Affine reference arithmetic, straight from the model's base group
// law. Slow (one field inversion per step) but independent of any
// formula, which is what makes it useful as an oracle.

func (c *Curve) runBase(code []op.Assignment, points ...Point) (Point, error) {
	vars := c.paramVars()
	for i, p := range points {
		if !p.Coords().IsAffine() {
			return Point{}, fmt.Errorf("base law needs affine input, got %s", p.Coords())
		}
		idx := fmt.Sprintf("%d", i+1)
		for _, name := range []string{"x", "y"} {
			v, ok := p.Coordinate(name)
			if !ok {
				return Point{}, fmt.Errorf("base law needs %s of point %d", name, i+1)
			}
			vars[name+idx] = v
		}
	}
	for _, as := range code {
		v, err := op.Eval(as.Expr, c.Field, vars)
		if err != nil {
			return Point{}, err
		}
		vars[as.Result] = v
	}
	x, okx := vars["x"]
	y, oky := vars["y"]
	if !okx || !oky {
		return Point{}, errors.New("base law did not produce x and y")
	}
	return NewPoint(c.Model.Affine(), map[string]field.Element{"x": x, "y": y}), nil
}

// completeAffine lifts an x-only affine point back onto the curve so
// the base law can run on it. The root sign is LiftX's choice; callers
// comparing x coordinates are unaffected.
func (c *Curve) completeAffine(p Point) (Point, error) {
	if p.IsInfinity() || !p.Coords().IsAffine() {
		return p, nil
	}
	if _, ok := p.Coordinate("y"); ok {
		return p, nil
	}
	x, ok := p.Coordinate("x")
	if !ok {
		return Point{}, errors.New("affine point carries no coordinates")
	}
	return c.LiftX(x)
}

// AffineAdd adds two affine points, handling the neutral, inverse
// pairs and doubling explicitly before falling through to the base
// addition law.
func (c *Curve) AffineAdd(p, q Point) (Point, error) {
	var err error
	if p, err = c.completeAffine(p); err != nil {
		return Point{}, err
	}
	if q, err = c.completeAffine(q); err != nil {
		return Point{}, err
	}
	if c.IsNeutral(p) {
		return q, nil
	}
	if c.IsNeutral(q) {
		return p, nil
	}
	if p.Equal(q) {
		return c.AffineDouble(p)
	}
	np, err := c.AffineNegate(p)
	if err != nil {
		return Point{}, err
	}
	if np.Equal(q) {
		return c.affineZero(), nil
	}
	return c.runBase(c.Model.BaseAddition, p, q)
}

// AffineDouble doubles an affine point.
func (c *Curve) AffineDouble(p Point) (Point, error) {
	var err error
	if p, err = c.completeAffine(p); err != nil {
		return Point{}, err
	}
	if c.IsNeutral(p) {
		return p, nil
	}
	np, err := c.AffineNegate(p)
	if err != nil {
		return Point{}, err
	}
	if np.Equal(p) {
		// Order-two point, tangent is vertical.
		return c.affineZero(), nil
	}
	return c.runBase(c.Model.BaseDoubling, p)
}

// AffineNegate negates an affine point.
func (c *Curve) AffineNegate(p Point) (Point, error) {
	var err error
	if p, err = c.completeAffine(p); err != nil {
		return Point{}, err
	}
	if c.IsNeutral(p) {
		return p, nil
	}
	return c.runBase(c.Model.BaseNegation, p)
}

func (c *Curve) affineZero() Point {
	if c.Model.HasAffineNeutral() {
		n, err := c.affineNeutral()
		if err == nil {
			return n
		}
	}
	return Infinity(c.Model.Affine())
}

// AffineMultiply computes the scalar multiple [k]p with a plain
// left-to-right double-and-add over the base law. Reference only.
func (c *Curve) AffineMultiply(k *big.Int, p Point) (Point, error) {
	if k.Sign() < 0 {
		return Point{}, errors.New("negative scalar")
	}
	acc := c.affineZero()
	for i := k.BitLen() - 1; i >= 0; i-- {
		var err error
		acc, err = c.AffineDouble(acc)
		if err != nil {
			return Point{}, err
		}
		if k.Bit(i) == 1 {
			acc, err = c.AffineAdd(acc, p)
			if err != nil {
				return Point{}, err
			}
		}
	}
	return acc, nil
}
