package mult

import (
	"math/big"

	"github.com/smallyu/go-ecc-sim/internal/crypto/curve"
	"github.com/smallyu/go-ecc-sim/internal/crypto/formula"
	"github.com/smallyu/go-ecc-sim/internal/crypto/params"
	"github.com/smallyu/go-ecc-sim/pkg/ecsim"
)

// DoubleAndAdd is the classic binary multiplier in both traversal
// directions, with optional dummy additions (add-always) and optional
// fixed-length traversal over the full order width (complete).
type DoubleAndAdd struct {
	base
	dir      Direction
	order    AccumulationOrder
	always   bool
	complete bool
}

// NewDoubleAndAdd validates the formula set and builds the multiplier.
func NewDoubleAndAdd(fs FormulaSet, dir Direction, order AccumulationOrder, always, complete bool) (*DoubleAndAdd, error) {
	if err := fs.require(formula.Addition, formula.Doubling); err != nil {
		return nil, err
	}
	return &DoubleAndAdd{
		base:     base{fs: fs, shortCircuit: true},
		dir:      dir,
		order:    order,
		always:   always,
		complete: complete,
	}, nil
}

// Init binds domain parameters and the point.
func (m *DoubleAndAdd) Init(dom *params.Domain, point curve.Point, rec ecsim.Recorder) error {
	return m.init(dom, point, rec)
}

func (m *DoubleAndAdd) accumulate(r curve.Point, p curve.Point) (curve.Point, error) {
	if m.order == PointFirst {
		return m.add(p, r)
	}
	return m.add(r, p)
}

// Multiply computes [k]P by binary double-and-add.
func (m *DoubleAndAdd) Multiply(k *big.Int) (curve.Point, error) {
	if p, done, err := m.scalarCheck(k); done || err != nil {
		return p, err
	}
	if m.dir == LTR {
		return m.multiplyLTR(k)
	}
	return m.multiplyRTL(k)
}

func (m *DoubleAndAdd) multiplyLTR(k *big.Int) (curve.Point, error) {
	top := k.BitLen() - 1
	if m.complete {
		top = m.dom.Order.BitLen() - 1
	}
	r := m.neutral()
	for i := top; i >= 0; i-- {
		var err error
		r, err = m.dbl(r)
		if err != nil {
			return curve.Point{}, err
		}
		if k.Bit(i) == 1 {
			r, err = m.accumulate(r, m.point)
		} else if m.always {
			_, err = m.accumulate(r, m.point)
		}
		if err != nil {
			return curve.Point{}, err
		}
	}
	return m.finish(r)
}

func (m *DoubleAndAdd) multiplyRTL(k *big.Int) (curve.Point, error) {
	top := k.BitLen()
	if m.complete {
		top = m.dom.Order.BitLen()
	}
	r := m.neutral()
	q := m.point
	for i := 0; i < top; i++ {
		var err error
		if k.Bit(i) == 1 {
			r, err = m.accumulate(r, q)
		} else if m.always {
			_, err = m.accumulate(r, q)
		}
		if err != nil {
			return curve.Point{}, err
		}
		q, err = m.dbl(q)
		if err != nil {
			return curve.Point{}, err
		}
	}
	return m.finish(r)
}

// Coron is the left-to-right double-and-add-always multiplier: every
// iteration performs an addition, discarding the result on zero bits.
type Coron struct {
	inner *DoubleAndAdd
}

// NewCoron validates the formula set and builds the multiplier.
func NewCoron(fs FormulaSet) (*Coron, error) {
	inner, err := NewDoubleAndAdd(fs, LTR, AccumulatorFirst, true, false)
	if err != nil {
		return nil, err
	}
	return &Coron{inner: inner}, nil
}

// Init binds domain parameters and the point.
func (m *Coron) Init(dom *params.Domain, point curve.Point, rec ecsim.Recorder) error {
	return m.inner.Init(dom, point, rec)
}

// Multiply computes [k]P with a dummy addition on every zero bit.
func (m *Coron) Multiply(k *big.Int) (curve.Point, error) {
	return m.inner.Multiply(k)
}
