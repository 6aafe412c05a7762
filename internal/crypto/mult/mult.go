// Package mult implements scalar multiplication algorithms on top of
// executable formulas. Every multiplier is configured with a formula
// set, bound to domain parameters and a point via Init, and then
// multiplies scalars; all formula applications go through the bound
// recorder, so two runs over the same inputs produce identical traces.
package mult

import (
	"fmt"
	"math/big"

	"github.com/smallyu/go-ecc-sim/internal/crypto/curve"
	"github.com/smallyu/go-ecc-sim/internal/crypto/formula"
	"github.com/smallyu/go-ecc-sim/internal/crypto/params"
	"github.com/smallyu/go-ecc-sim/pkg/ecsim"
)

// FormulaSet maps operation kinds to the formula chosen for them. All
// formulas in a set must share one coordinate system.
type FormulaSet map[formula.Kind]*formula.Formula

// NewFormulaSet builds a set from a list of formulas, rejecting
// duplicates per kind and mixed coordinate systems.
func NewFormulaSet(fs ...*formula.Formula) (FormulaSet, error) {
	out := make(FormulaSet, len(fs))
	for _, f := range fs {
		if f == nil {
			continue
		}
		if prev, ok := out[f.Kind]; ok {
			return nil, fmt.Errorf("%w: both %s and %s fill the %s slot",
				ecsim.ErrUnsupportedConfiguration, prev, f, f.Kind)
		}
		out[f.Kind] = f
	}
	var coords interface{ String() string }
	for _, f := range out {
		if coords == nil {
			coords = f.Coords
		} else if coords != f.Coords {
			return nil, fmt.Errorf("%w: formula set mixes coordinate systems",
				ecsim.ErrUnsupportedConfiguration)
		}
	}
	return out, nil
}

func (fs FormulaSet) require(kinds ...formula.Kind) error {
	for _, k := range kinds {
		if fs[k] == nil {
			return fmt.Errorf("%w: multiplier needs a %s formula", ecsim.ErrUnsupportedConfiguration, k)
		}
	}
	return nil
}

// Multiplier computes scalar multiples of one fixed point.
type Multiplier interface {
	// Init binds the multiplier to domain parameters and a point and
	// runs any precomputation. Precomputation formula applications are
	// recorded like any other.
	Init(dom *params.Domain, point curve.Point, rec ecsim.Recorder) error

	// Multiply computes [k]point. A zero scalar yields the neutral
	// point, and multiplying the neutral point yields it back without
	// touching any formula.
	Multiply(k *big.Int) (curve.Point, error)
}

// Direction fixes the scalar traversal order.
type Direction int

const (
	// LTR processes the scalar from the most significant bit down.
	LTR Direction = iota
	// RTL processes the scalar from the least significant bit up.
	RTL
)

// AccumulationOrder fixes the operand order of accumulator additions.
type AccumulationOrder int

const (
	// AccumulatorFirst computes acc = add(acc, p).
	AccumulatorFirst AccumulationOrder = iota
	// PointFirst computes acc = add(p, acc).
	PointFirst
)

// base carries the state shared by all multipliers.
type base struct {
	fs    FormulaSet
	dom   *params.Domain
	point curve.Point
	rec   ecsim.Recorder
	ready bool

	// shortCircuit handles the neutral point outside the formulas,
	// which cannot represent it.
	shortCircuit bool
}

func (b *base) init(dom *params.Domain, point curve.Point, rec ecsim.Recorder) error {
	if dom == nil {
		return fmt.Errorf("%w: multiplier needs domain parameters", ecsim.ErrUnsupportedConfiguration)
	}
	for _, f := range b.fs {
		if f.Coords != dom.Curve.Coords {
			return fmt.Errorf("%w: formula %s does not match curve coordinates %s",
				ecsim.ErrUnsupportedConfiguration, f, dom.Curve.Coords)
		}
	}
	if point.Coords() != dom.Curve.Coords && !point.IsInfinity() {
		if !point.Coords().IsAffine() {
			return fmt.Errorf("%w: point is in %s, curve uses %s",
				ecsim.ErrUnsupportedConfiguration, point.Coords(), dom.Curve.Coords)
		}
		var err error
		point, err = dom.Curve.FromAffine(point)
		if err != nil {
			return err
		}
	}
	b.dom = dom
	b.point = point
	b.rec = rec
	b.ready = true
	return nil
}

func (b *base) checkReady() error {
	if !b.ready {
		return fmt.Errorf("%w: multiplier used before Init", ecsim.ErrUnsupportedConfiguration)
	}
	return nil
}

func (b *base) neutral() curve.Point {
	return b.dom.Curve.Neutral()
}

func (b *base) isNeutral(p curve.Point) bool {
	return p.IsInfinity() || (b.dom.Curve.Model.HasAffineNeutral() && b.dom.Curve.IsNeutral(p))
}

func (b *base) call1(kind formula.Kind, pts ...curve.Point) (curve.Point, error) {
	out, err := b.fs[kind].Call(b.dom.Curve, b.rec, pts...)
	if err != nil {
		return curve.Point{}, err
	}
	return out[0], nil
}

func (b *base) add(p, q curve.Point) (curve.Point, error) {
	if b.shortCircuit {
		if p.IsInfinity() {
			return q, nil
		}
		if q.IsInfinity() {
			return p, nil
		}
	}
	return b.call1(formula.Addition, p, q)
}

func (b *base) dbl(p curve.Point) (curve.Point, error) {
	if b.shortCircuit && p.IsInfinity() {
		return p, nil
	}
	return b.call1(formula.Doubling, p)
}

func (b *base) neg(p curve.Point) (curve.Point, error) {
	if b.shortCircuit && p.IsInfinity() {
		return p, nil
	}
	return b.call1(formula.Negation, p)
}

// dadd computes p + q given their difference diff.
func (b *base) dadd(diff, p, q curve.Point) (curve.Point, error) {
	if b.shortCircuit {
		if p.IsInfinity() {
			return q, nil
		}
		if q.IsInfinity() {
			return p, nil
		}
	}
	return b.call1(formula.DiffAdd, diff, p, q)
}

// ladd computes (2p, p+q) given the difference diff = q - p.
func (b *base) ladd(diff, p, q curve.Point) (curve.Point, curve.Point, error) {
	if b.shortCircuit {
		if p.IsInfinity() {
			return p, q, nil
		}
		if q.IsInfinity() {
			d, err := b.dblViaLadder(diff, p)
			return d, p, err
		}
	}
	out, err := b.fs[formula.Ladder].Call(b.dom.Curve, b.rec, diff, p, q)
	if err != nil {
		return curve.Point{}, curve.Point{}, err
	}
	return out[0], out[1], nil
}

func (b *base) dblViaLadder(diff, p curve.Point) (curve.Point, error) {
	if b.fs[formula.Doubling] != nil {
		return b.dbl(p)
	}
	out, err := b.fs[formula.Ladder].Call(b.dom.Curve, b.rec, diff, p, p)
	if err != nil {
		return curve.Point{}, err
	}
	return out[0], nil
}

// finish applies the scaling formula when the set carries one, so
// results come out in a normalized representation.
func (b *base) finish(p curve.Point) (curve.Point, error) {
	if b.fs[formula.Scaling] == nil || p.IsInfinity() {
		return p, nil
	}
	return b.call1(formula.Scaling, p)
}

// scalarCheck handles the two inputs every multiplier short-cuts on.
func (b *base) scalarCheck(k *big.Int) (curve.Point, bool, error) {
	if err := b.checkReady(); err != nil {
		return curve.Point{}, false, err
	}
	if k.Sign() < 0 {
		return curve.Point{}, false, fmt.Errorf("negative scalar")
	}
	if k.Sign() == 0 {
		return b.neutral(), true, nil
	}
	if b.isNeutral(b.point) {
		return b.point, true, nil
	}
	return curve.Point{}, false, nil
}
