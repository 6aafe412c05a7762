package mult

import (
	"math/big"

	"github.com/smallyu/go-ecc-sim/internal/crypto/curve"
	"github.com/smallyu/go-ecc-sim/internal/crypto/formula"
	"github.com/smallyu/go-ecc-sim/internal/crypto/params"
	"github.com/smallyu/go-ecc-sim/pkg/ecsim"
)

// Ladder is the Montgomery ladder over a combined ladder-step formula.
// Both branch arms perform the same operation sequence, the bit only
// swaps the operand roles.
type Ladder struct {
	base
	complete bool
}

// NewLadder validates the formula set and builds the multiplier. The
// complete variant walks the full order width and additionally needs a
// doubling formula to leave the neutral start state.
func NewLadder(fs FormulaSet, complete bool) (*Ladder, error) {
	if err := fs.require(formula.Ladder); err != nil {
		return nil, err
	}
	if !complete {
		if err := fs.require(formula.Doubling); err != nil {
			return nil, err
		}
	}
	return &Ladder{base: base{fs: fs, shortCircuit: true}, complete: complete}, nil
}

// Init binds domain parameters and the point.
func (m *Ladder) Init(dom *params.Domain, point curve.Point, rec ecsim.Recorder) error {
	return m.init(dom, point, rec)
}

// Multiply computes [k]P by ladder steps.
func (m *Ladder) Multiply(k *big.Int) (curve.Point, error) {
	if p, done, err := m.scalarCheck(k); done || err != nil {
		return p, err
	}
	var p0, p1 curve.Point
	var top int
	if m.complete {
		p0 = m.neutral()
		p1 = m.point
		top = m.dom.Order.BitLen() - 1
	} else {
		p0 = m.point
		d, err := m.dbl(m.point)
		if err != nil {
			return curve.Point{}, err
		}
		p1 = d
		top = k.BitLen() - 2
	}
	for i := top; i >= 0; i-- {
		var err error
		if k.Bit(i) == 0 {
			p0, p1, err = m.ladd(m.point, p0, p1)
		} else {
			p1, p0, err = m.ladd(m.point, p1, p0)
		}
		if err != nil {
			return curve.Point{}, err
		}
	}
	return m.finish(p0)
}

// SimpleLadder is the ladder shape over separate add and dbl formulas.
type SimpleLadder struct {
	base
}

// NewSimpleLadder validates the formula set and builds the multiplier.
func NewSimpleLadder(fs FormulaSet) (*SimpleLadder, error) {
	if err := fs.require(formula.Addition, formula.Doubling); err != nil {
		return nil, err
	}
	return &SimpleLadder{base: base{fs: fs, shortCircuit: true}}, nil
}

// Init binds domain parameters and the point.
func (m *SimpleLadder) Init(dom *params.Domain, point curve.Point, rec ecsim.Recorder) error {
	return m.init(dom, point, rec)
}

// Multiply computes [k]P with one addition and one doubling per bit of
// the order, regardless of the bit value.
func (m *SimpleLadder) Multiply(k *big.Int) (curve.Point, error) {
	if p, done, err := m.scalarCheck(k); done || err != nil {
		return p, err
	}
	p0 := m.neutral()
	p1 := m.point
	for i := m.dom.Order.BitLen() - 1; i >= 0; i-- {
		var err error
		if k.Bit(i) == 0 {
			p1, err = m.add(p0, p1)
			if err != nil {
				return curve.Point{}, err
			}
			p0, err = m.dbl(p0)
		} else {
			p0, err = m.add(p0, p1)
			if err != nil {
				return curve.Point{}, err
			}
			p1, err = m.dbl(p1)
		}
		if err != nil {
			return curve.Point{}, err
		}
	}
	return m.finish(p0)
}

// DifferentialLadder is the ladder over differential addition and
// doubling, for x-only coordinate systems where the difference of the
// two rungs stays fixed at P.
type DifferentialLadder struct {
	base
}

// NewDifferentialLadder validates the formula set and builds the
// multiplier.
func NewDifferentialLadder(fs FormulaSet) (*DifferentialLadder, error) {
	if err := fs.require(formula.DiffAdd, formula.Doubling); err != nil {
		return nil, err
	}
	return &DifferentialLadder{base: base{fs: fs, shortCircuit: true}}, nil
}

// Init binds domain parameters and the point.
func (m *DifferentialLadder) Init(dom *params.Domain, point curve.Point, rec ecsim.Recorder) error {
	return m.init(dom, point, rec)
}

// Multiply computes [k]P by differential ladder steps.
func (m *DifferentialLadder) Multiply(k *big.Int) (curve.Point, error) {
	if p, done, err := m.scalarCheck(k); done || err != nil {
		return p, err
	}
	p0 := m.neutral()
	p1 := m.point
	for i := m.dom.Order.BitLen() - 1; i >= 0; i-- {
		var err error
		if k.Bit(i) == 0 {
			p1, err = m.dadd(m.point, p0, p1)
			if err != nil {
				return curve.Point{}, err
			}
			p0, err = m.dbl(p0)
		} else {
			p0, err = m.dadd(m.point, p0, p1)
			if err != nil {
				return curve.Point{}, err
			}
			p1, err = m.dbl(p1)
		}
		if err != nil {
			return curve.Point{}, err
		}
	}
	return m.finish(p0)
}
