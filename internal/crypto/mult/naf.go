package mult

import (
	"fmt"
	"math/big"

	"github.com/smallyu/go-ecc-sim/internal/crypto/curve"
	"github.com/smallyu/go-ecc-sim/internal/crypto/formula"
	"github.com/smallyu/go-ecc-sim/internal/crypto/params"
	"github.com/smallyu/go-ecc-sim/pkg/ecsim"
)

// BinaryNAF multiplies via the non-adjacent form of the scalar, which
// needs the negated point and roughly a third fewer additions than
// plain binary.
type BinaryNAF struct {
	base
	dir      Direction
	negPoint curve.Point
}

// NewBinaryNAF validates the formula set and builds the multiplier.
func NewBinaryNAF(fs FormulaSet, dir Direction) (*BinaryNAF, error) {
	if err := fs.require(formula.Addition, formula.Doubling, formula.Negation); err != nil {
		return nil, err
	}
	return &BinaryNAF{base: base{fs: fs, shortCircuit: true}, dir: dir}, nil
}

// Init binds the point and precomputes its negation.
func (m *BinaryNAF) Init(dom *params.Domain, point curve.Point, rec ecsim.Recorder) error {
	if err := m.init(dom, point, rec); err != nil {
		return err
	}
	if m.isNeutral(m.point) {
		m.negPoint = m.point
		return nil
	}
	np, err := m.neg(m.point)
	if err != nil {
		return err
	}
	m.negPoint = np
	return nil
}

// Multiply computes [k]P over the NAF digits of k.
func (m *BinaryNAF) Multiply(k *big.Int) (curve.Point, error) {
	if p, done, err := m.scalarCheck(k); done || err != nil {
		return p, err
	}
	digits := naf(k)
	if m.dir == LTR {
		r := m.neutral()
		for _, d := range reverse(digits) {
			var err error
			r, err = m.dbl(r)
			if err != nil {
				return curve.Point{}, err
			}
			switch d {
			case 1:
				r, err = m.add(r, m.point)
			case -1:
				r, err = m.add(r, m.negPoint)
			}
			if err != nil {
				return curve.Point{}, err
			}
		}
		return m.finish(r)
	}
	r := m.neutral()
	q := m.point
	nq := m.negPoint
	for i, d := range digits {
		var err error
		switch d {
		case 1:
			r, err = m.add(r, q)
		case -1:
			r, err = m.add(r, nq)
		}
		if err != nil {
			return curve.Point{}, err
		}
		if i != len(digits)-1 {
			q, err = m.dbl(q)
			if err != nil {
				return curve.Point{}, err
			}
			nq, err = m.neg(q)
			if err != nil {
				return curve.Point{}, err
			}
		}
	}
	return m.finish(r)
}

// WindowNAF multiplies via width-w NAF with a precomputed table of odd
// multiples. With negation precomputed, negative digits also come out
// of a table instead of invoking the negation formula per use.
type WindowNAF struct {
	base
	width      int
	precompNeg bool
	table      map[int]curve.Point
}

// NewWindowNAF validates the formula set and builds the multiplier.
// The width must be at least 2.
func NewWindowNAF(fs FormulaSet, width int, precomputeNegation bool) (*WindowNAF, error) {
	if err := fs.require(formula.Addition, formula.Doubling, formula.Negation); err != nil {
		return nil, err
	}
	if width < 2 {
		return nil, fmt.Errorf("%w: window width %d is below 2", ecsim.ErrUnsupportedConfiguration, width)
	}
	return &WindowNAF{
		base:       base{fs: fs, shortCircuit: true},
		width:      width,
		precompNeg: precomputeNegation,
	}, nil
}

// Init binds the point and fills the odd-multiple table.
func (m *WindowNAF) Init(dom *params.Domain, point curve.Point, rec ecsim.Recorder) error {
	if err := m.init(dom, point, rec); err != nil {
		return err
	}
	m.table = map[int]curve.Point{1: m.point}
	if m.isNeutral(m.point) {
		return nil
	}
	double, err := m.dbl(m.point)
	if err != nil {
		return err
	}
	last := m.point
	for i := 3; i < 1<<uint(m.width-1); i += 2 {
		last, err = m.add(last, double)
		if err != nil {
			return err
		}
		m.table[i] = last
	}
	if m.precompNeg {
		for i := 1; i < 1<<uint(m.width-1); i += 2 {
			np, err := m.neg(m.table[i])
			if err != nil {
				return err
			}
			m.table[-i] = np
		}
	}
	return nil
}

// Multiply computes [k]P over the width-w NAF digits of k.
func (m *WindowNAF) Multiply(k *big.Int) (curve.Point, error) {
	if p, done, err := m.scalarCheck(k); done || err != nil {
		return p, err
	}
	r := m.neutral()
	for _, d := range reverse(wnaf(k, m.width)) {
		var err error
		r, err = m.dbl(r)
		if err != nil {
			return curve.Point{}, err
		}
		if d == 0 {
			continue
		}
		q, ok := m.table[d]
		if !ok {
			q, err = m.neg(m.table[-d])
			if err != nil {
				return curve.Point{}, err
			}
		}
		r, err = m.add(r, q)
		if err != nil {
			return curve.Point{}, err
		}
	}
	return m.finish(r)
}
