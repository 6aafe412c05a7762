package mult

import (
	"fmt"
	"math/big"

	"github.com/smallyu/go-ecc-sim/internal/crypto/curve"
	"github.com/smallyu/go-ecc-sim/internal/crypto/formula"
	"github.com/smallyu/go-ecc-sim/internal/crypto/params"
	"github.com/smallyu/go-ecc-sim/pkg/ecsim"
)

// Shamir computes u*P + v*Q in one interleaved pass (the Shamir
// trick): P+Q is precomputed, and each bit position costs one doubling
// plus at most one addition.
type Shamir struct {
	base
	pointQ curve.Point
	sum    curve.Point
}

// NewShamir validates the formula set and builds the multiplier.
func NewShamir(fs FormulaSet) (*Shamir, error) {
	if err := fs.require(formula.Addition, formula.Doubling); err != nil {
		return nil, err
	}
	return &Shamir{base: base{fs: fs, shortCircuit: true}}, nil
}

// Init binds both points and precomputes their sum.
func (m *Shamir) Init(dom *params.Domain, p, q curve.Point, rec ecsim.Recorder) error {
	if err := m.init(dom, p, rec); err != nil {
		return err
	}
	if q.Coords() != dom.Curve.Coords && !q.IsInfinity() {
		var err error
		q, err = dom.Curve.FromAffine(q)
		if err != nil {
			return err
		}
	}
	m.pointQ = q
	sum, err := m.add(m.point, m.pointQ)
	if err != nil {
		return err
	}
	m.sum = sum
	return nil
}

// Multiply computes u*P + v*Q.
func (m *Shamir) Multiply(u, v *big.Int) (curve.Point, error) {
	if err := m.checkReady(); err != nil {
		return curve.Point{}, err
	}
	top := u.BitLen()
	if v.BitLen() > top {
		top = v.BitLen()
	}
	r := m.neutral()
	for i := top - 1; i >= 0; i-- {
		var err error
		r, err = m.dbl(r)
		if err != nil {
			return curve.Point{}, err
		}
		switch {
		case u.Bit(i) == 1 && v.Bit(i) == 1:
			r, err = m.add(r, m.sum)
		case u.Bit(i) == 1:
			r, err = m.add(r, m.point)
		case v.Bit(i) == 1:
			r, err = m.add(r, m.pointQ)
		}
		if err != nil {
			return curve.Point{}, err
		}
	}
	return m.finish(r)
}

// Interleaved computes u*P + v*Q by running a width-w NAF expansion of
// each scalar against its own odd-multiple table, sharing the doubling
// chain between the two.
type Interleaved struct {
	base
	width  int
	pointQ curve.Point
	tableP map[int]curve.Point
	tableQ map[int]curve.Point
}

// NewInterleaved validates the formula set and builds the multiplier.
// The width must be at least 2.
func NewInterleaved(fs FormulaSet, width int) (*Interleaved, error) {
	if err := fs.require(formula.Addition, formula.Doubling, formula.Negation); err != nil {
		return nil, err
	}
	if width < 2 {
		return nil, fmt.Errorf("%w: window width %d is below 2", ecsim.ErrUnsupportedConfiguration, width)
	}
	return &Interleaved{base: base{fs: fs, shortCircuit: true}, width: width}, nil
}

// Init binds both points and fills one signed odd-multiple table each.
func (m *Interleaved) Init(dom *params.Domain, p, q curve.Point, rec ecsim.Recorder) error {
	if err := m.init(dom, p, rec); err != nil {
		return err
	}
	if q.Coords() != dom.Curve.Coords && !q.IsInfinity() {
		var err error
		q, err = dom.Curve.FromAffine(q)
		if err != nil {
			return err
		}
	}
	m.pointQ = q
	var err error
	m.tableP, err = m.oddMultiples(m.point)
	if err != nil {
		return err
	}
	m.tableQ, err = m.oddMultiples(m.pointQ)
	return err
}

func (m *Interleaved) oddMultiples(p curve.Point) (map[int]curve.Point, error) {
	table := map[int]curve.Point{1: p}
	if m.isNeutral(p) {
		return table, nil
	}
	double, err := m.dbl(p)
	if err != nil {
		return nil, err
	}
	last := p
	for i := 3; i < 1<<uint(m.width-1); i += 2 {
		last, err = m.add(last, double)
		if err != nil {
			return nil, err
		}
		table[i] = last
	}
	for i := 1; i < 1<<uint(m.width-1); i += 2 {
		np, err := m.neg(table[i])
		if err != nil {
			return nil, err
		}
		table[-i] = np
	}
	return table, nil
}

// Multiply computes u*P + v*Q.
func (m *Interleaved) Multiply(u, v *big.Int) (curve.Point, error) {
	if err := m.checkReady(); err != nil {
		return curve.Point{}, err
	}
	du := reverse(wnaf(u, m.width))
	dv := reverse(wnaf(v, m.width))
	if len(du) < len(dv) {
		du = append(make([]int, len(dv)-len(du)), du...)
	} else if len(dv) < len(du) {
		dv = append(make([]int, len(du)-len(dv)), dv...)
	}
	r := m.neutral()
	for i := range du {
		var err error
		r, err = m.dbl(r)
		if err != nil {
			return curve.Point{}, err
		}
		if d := du[i]; d != 0 {
			if r, err = m.add(r, m.lookup(m.tableP, m.point, d)); err != nil {
				return curve.Point{}, err
			}
		}
		if d := dv[i]; d != 0 {
			if r, err = m.add(r, m.lookup(m.tableQ, m.pointQ, d)); err != nil {
				return curve.Point{}, err
			}
		}
	}
	return m.finish(r)
}

// lookup resolves a signed odd digit against a table. A neutral bound
// point has a degenerate table; every digit then maps to the point
// itself so the addition short-circuits.
func (m *Interleaved) lookup(table map[int]curve.Point, p curve.Point, d int) curve.Point {
	if q, ok := table[d]; ok {
		return q
	}
	return p
}
