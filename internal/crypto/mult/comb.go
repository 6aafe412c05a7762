package mult

import (
	"fmt"
	"math/big"

	"github.com/smallyu/go-ecc-sim/internal/crypto/curve"
	"github.com/smallyu/go-ecc-sim/internal/crypto/formula"
	"github.com/smallyu/go-ecc-sim/internal/crypto/params"
	"github.com/smallyu/go-ecc-sim/pkg/ecsim"
)

// Comb is the Lim-Lee comb multiplier: the scalar is viewed as a
// width x d bit matrix and each column selects one precomputed subset
// sum, so a full multiplication costs d doublings and at most d
// additions. Precomputation is heavy and pays off for fixed points.
type Comb struct {
	base
	width int
	d     int
	table []curve.Point
}

// NewComb validates the formula set and builds the multiplier. The
// width (number of comb teeth) must be at least 2.
func NewComb(fs FormulaSet, width int) (*Comb, error) {
	if err := fs.require(formula.Addition, formula.Doubling); err != nil {
		return nil, err
	}
	if width < 2 {
		return nil, fmt.Errorf("%w: comb width %d is below 2", ecsim.ErrUnsupportedConfiguration, width)
	}
	return &Comb{base: base{fs: fs, shortCircuit: true}, width: width}, nil
}

// Init binds the point and precomputes all subset sums of the comb
// base points 2^(j*d) P.
func (m *Comb) Init(dom *params.Domain, point curve.Point, rec ecsim.Recorder) error {
	if err := m.init(dom, point, rec); err != nil {
		return err
	}
	bits := dom.Order.BitLen()
	m.d = (bits + m.width - 1) / m.width
	basePoints := make([]curve.Point, m.width)
	basePoints[0] = m.point
	if m.isNeutral(m.point) {
		m.table = nil
		return nil
	}
	for j := 1; j < m.width; j++ {
		p := basePoints[j-1]
		var err error
		for i := 0; i < m.d; i++ {
			p, err = m.dbl(p)
			if err != nil {
				return err
			}
		}
		basePoints[j] = p
	}
	size := 1 << uint(m.width)
	m.table = make([]curve.Point, size)
	m.table[0] = m.neutral()
	for mask := 1; mask < size; mask++ {
		low := mask & (-mask)
		j := 0
		for 1<<uint(j) != low {
			j++
		}
		rest := mask ^ low
		if rest == 0 {
			m.table[mask] = basePoints[j]
			continue
		}
		p, err := m.add(m.table[rest], basePoints[j])
		if err != nil {
			return err
		}
		m.table[mask] = p
	}
	return nil
}

// Multiply computes [k]P column by column.
func (m *Comb) Multiply(k *big.Int) (curve.Point, error) {
	if p, done, err := m.scalarCheck(k); done || err != nil {
		return p, err
	}
	if k.BitLen() > m.width*m.d {
		return curve.Point{}, fmt.Errorf("%w: scalar exceeds the comb range", ecsim.ErrUnsupportedConfiguration)
	}
	r := m.neutral()
	for i := m.d - 1; i >= 0; i-- {
		var err error
		r, err = m.dbl(r)
		if err != nil {
			return curve.Point{}, err
		}
		col := 0
		for j := 0; j < m.width; j++ {
			col |= int(k.Bit(i+j*m.d)) << uint(j)
		}
		if col != 0 {
			r, err = m.add(r, m.table[col])
			if err != nil {
				return curve.Point{}, err
			}
		}
	}
	return m.finish(r)
}

// BGMW is the Brickell-Gordon-McCurley-Wilson multiplier: base-2^w
// digits select precomputed points 2^(j*w) P, accumulated bucket by
// bucket from the highest digit value down.
type BGMW struct {
	base
	width int
	bases []curve.Point
}

// NewBGMW validates the formula set and builds the multiplier.
func NewBGMW(fs FormulaSet, width int) (*BGMW, error) {
	if err := fs.require(formula.Addition, formula.Doubling); err != nil {
		return nil, err
	}
	if width < 2 {
		return nil, fmt.Errorf("%w: digit width %d is below 2", ecsim.ErrUnsupportedConfiguration, width)
	}
	return &BGMW{base: base{fs: fs, shortCircuit: true}, width: width}, nil
}

// Init binds the point and precomputes the digit-position points.
func (m *BGMW) Init(dom *params.Domain, point curve.Point, rec ecsim.Recorder) error {
	if err := m.init(dom, point, rec); err != nil {
		return err
	}
	positions := (dom.Order.BitLen() + m.width - 1) / m.width
	m.bases = make([]curve.Point, positions)
	m.bases[0] = m.point
	if m.isNeutral(m.point) {
		for j := 1; j < positions; j++ {
			m.bases[j] = m.point
		}
		return nil
	}
	for j := 1; j < positions; j++ {
		p := m.bases[j-1]
		var err error
		for i := 0; i < m.width; i++ {
			p, err = m.dbl(p)
			if err != nil {
				return err
			}
		}
		m.bases[j] = p
	}
	return nil
}

// Multiply computes [k]P by bucket accumulation over base-2^w digits.
func (m *BGMW) Multiply(k *big.Int) (curve.Point, error) {
	if p, done, err := m.scalarCheck(k); done || err != nil {
		return p, err
	}
	digits := convertBase(k, 1<<uint(m.width))
	if len(digits) > len(m.bases) {
		return curve.Point{}, fmt.Errorf("%w: scalar exceeds the precomputed range", ecsim.ErrUnsupportedConfiguration)
	}
	a := m.neutral()
	b := m.neutral()
	for v := 1<<uint(m.width) - 1; v >= 1; v-- {
		var err error
		for j, d := range digits {
			if d == v {
				b, err = m.add(b, m.bases[j])
				if err != nil {
					return curve.Point{}, err
				}
			}
		}
		a, err = m.add(a, b)
		if err != nil {
			return curve.Point{}, err
		}
	}
	return m.finish(a)
}
