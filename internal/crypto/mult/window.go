package mult

import (
	"fmt"
	"math/big"

	"github.com/smallyu/go-ecc-sim/internal/crypto/curve"
	"github.com/smallyu/go-ecc-sim/internal/crypto/formula"
	"github.com/smallyu/go-ecc-sim/internal/crypto/params"
	"github.com/smallyu/go-ecc-sim/pkg/ecsim"
)

// FixedWindow is the m-ary left-to-right multiplier: the scalar is cut
// into fixed windows of w bits and every window costs w doublings plus
// one table addition.
type FixedWindow struct {
	base
	width int
	table []curve.Point
}

// NewFixedWindow validates the formula set and builds the multiplier.
// The width must be at least 2.
func NewFixedWindow(fs FormulaSet, width int) (*FixedWindow, error) {
	if err := fs.require(formula.Addition, formula.Doubling); err != nil {
		return nil, err
	}
	if width < 2 {
		return nil, fmt.Errorf("%w: window width %d is below 2", ecsim.ErrUnsupportedConfiguration, width)
	}
	return &FixedWindow{base: base{fs: fs, shortCircuit: true}, width: width}, nil
}

// Init binds the point and precomputes the multiples 1..2^w - 1.
func (m *FixedWindow) Init(dom *params.Domain, point curve.Point, rec ecsim.Recorder) error {
	if err := m.init(dom, point, rec); err != nil {
		return err
	}
	size := 1 << uint(m.width)
	m.table = make([]curve.Point, size)
	m.table[0] = m.neutral()
	m.table[1] = m.point
	if m.isNeutral(m.point) {
		for i := 2; i < size; i++ {
			m.table[i] = m.point
		}
		return nil
	}
	for i := 2; i < size; i++ {
		var err error
		if i%2 == 0 {
			m.table[i], err = m.dbl(m.table[i/2])
		} else {
			m.table[i], err = m.add(m.table[i-1], m.point)
		}
		if err != nil {
			return err
		}
	}
	return nil
}

// Multiply computes [k]P window by window, most significant first.
func (m *FixedWindow) Multiply(k *big.Int) (curve.Point, error) {
	if p, done, err := m.scalarCheck(k); done || err != nil {
		return p, err
	}
	digits := reverse(convertBase(k, 1<<uint(m.width)))
	r := m.neutral()
	for _, d := range digits {
		var err error
		for j := 0; j < m.width; j++ {
			r, err = m.dbl(r)
			if err != nil {
				return curve.Point{}, err
			}
		}
		if d != 0 {
			r, err = m.add(r, m.table[d])
			if err != nil {
				return curve.Point{}, err
			}
		}
	}
	return m.finish(r)
}

// SlidingWindow is the left-to-right sliding window multiplier: zero
// runs of the scalar cost doublings only, and windowed odd digits come
// from a precomputed odd-multiple table.
type SlidingWindow struct {
	base
	width int
	table map[int]curve.Point
}

// NewSlidingWindow validates the formula set and builds the
// multiplier. The width must be at least 2.
func NewSlidingWindow(fs FormulaSet, width int) (*SlidingWindow, error) {
	if err := fs.require(formula.Addition, formula.Doubling); err != nil {
		return nil, err
	}
	if width < 2 {
		return nil, fmt.Errorf("%w: window width %d is below 2", ecsim.ErrUnsupportedConfiguration, width)
	}
	return &SlidingWindow{base: base{fs: fs, shortCircuit: true}, width: width}, nil
}

// Init binds the point and fills the odd-multiple table.
func (m *SlidingWindow) Init(dom *params.Domain, point curve.Point, rec ecsim.Recorder) error {
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
	for i := 3; i < 1<<uint(m.width); i += 2 {
		last, err = m.add(last, double)
		if err != nil {
			return err
		}
		m.table[i] = last
	}
	return nil
}

// Multiply computes [k]P over the sliding-window recoding of k.
func (m *SlidingWindow) Multiply(k *big.Int) (curve.Point, error) {
	if p, done, err := m.scalarCheck(k); done || err != nil {
		return p, err
	}
	r := m.neutral()
	for _, d := range slidingWindowLTR(k, m.width) {
		var err error
		r, err = m.dbl(r)
		if err != nil {
			return curve.Point{}, err
		}
		if d != 0 {
			r, err = m.add(r, m.table[d])
			if err != nil {
				return curve.Point{}, err
			}
		}
	}
	return m.finish(r)
}
