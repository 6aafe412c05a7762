package mult

import (
	"fmt"
	"math/big"

	"github.com/smallyu/go-ecc-sim/internal/crypto/curve"
	"github.com/smallyu/go-ecc-sim/internal/crypto/formula"
	"github.com/smallyu/go-ecc-sim/internal/crypto/params"
	"github.com/smallyu/go-ecc-sim/pkg/ecsim"
)

// Countermeasures randomize how a scalar multiplication is computed
// without changing its result. Each one wraps an inner multiplier and
// draws its randomness from an explicit source, so a fixed seed still
// replays to an identical trace.

// Countermeasure is the common shape of all scalar-splitting wrappers.
type Countermeasure interface {
	Init(dom *params.Domain, point curve.Point, rec ecsim.Recorder) error
	Multiply(k *big.Int, rng *ecsim.DRBG) (curve.Point, error)
}

// GroupScalarRandomization blinds the scalar with a random multiple of
// the group order: [k + r*n]P = [k]P.
type GroupScalarRandomization struct {
	mult     Multiplier
	randBits int
	dom      *params.Domain
}

// NewGroupScalarRandomization wraps a multiplier, drawing randBits of
// blinding randomness per multiplication (32 when zero).
func NewGroupScalarRandomization(m Multiplier, randBits int) *GroupScalarRandomization {
	if randBits <= 0 {
		randBits = 32
	}
	return &GroupScalarRandomization{mult: m, randBits: randBits}
}

// Init binds the inner multiplier.
func (c *GroupScalarRandomization) Init(dom *params.Domain, point curve.Point, rec ecsim.Recorder) error {
	c.dom = dom
	return c.mult.Init(dom, point, rec)
}

// Multiply computes [k]P through a blinded scalar.
func (c *GroupScalarRandomization) Multiply(k *big.Int, rng *ecsim.DRBG) (curve.Point, error) {
	bound := new(big.Int).Lsh(big.NewInt(1), uint(c.randBits))
	r, err := rng.UniformMod(bound)
	if err != nil {
		return curve.Point{}, err
	}
	masked := new(big.Int).Mul(r, c.dom.Order)
	masked.Add(masked, k)
	return c.mult.Multiply(masked)
}

// AdditiveSplitting splits the scalar as k = (k - r) + r and adds the
// two partial results: [k-r]P + [r]P.
type AdditiveSplitting struct {
	mult Multiplier
	fs   FormulaSet
	base base
	dom  *params.Domain
}

// NewAdditiveSplitting wraps a multiplier; the formula set must carry
// an addition formula for recombination.
func NewAdditiveSplitting(m Multiplier, fs FormulaSet) (*AdditiveSplitting, error) {
	if err := fs.require(formula.Addition); err != nil {
		return nil, err
	}
	return &AdditiveSplitting{mult: m, fs: fs}, nil
}

// Init binds the inner multiplier.
func (c *AdditiveSplitting) Init(dom *params.Domain, point curve.Point, rec ecsim.Recorder) error {
	c.dom = dom
	c.base = base{fs: c.fs, shortCircuit: true}
	if err := c.base.init(dom, point, rec); err != nil {
		return err
	}
	return c.mult.Init(dom, point, rec)
}

// Multiply computes [k]P through an additive split.
func (c *AdditiveSplitting) Multiply(k *big.Int, rng *ecsim.DRBG) (curve.Point, error) {
	r, err := rng.UniformMod(c.dom.Order)
	if err != nil {
		return curve.Point{}, err
	}
	k1 := new(big.Int).Sub(k, r)
	k1.Mod(k1, c.dom.Order)
	p1, err := c.mult.Multiply(k1)
	if err != nil {
		return curve.Point{}, err
	}
	p2, err := c.mult.Multiply(r)
	if err != nil {
		return curve.Point{}, err
	}
	return c.base.add(p1, p2)
}

// MultiplicativeSplitting splits the scalar as k = (k * r^-1) * r:
// first S = [r]P, then [k * r^-1 mod n]S.
type MultiplicativeSplitting struct {
	mult Multiplier
	dom  *params.Domain
	pt   curve.Point
	rec  ecsim.Recorder
}

// NewMultiplicativeSplitting wraps a multiplier.
func NewMultiplicativeSplitting(m Multiplier) *MultiplicativeSplitting {
	return &MultiplicativeSplitting{mult: m}
}

// Init binds the inner multiplier.
func (c *MultiplicativeSplitting) Init(dom *params.Domain, point curve.Point, rec ecsim.Recorder) error {
	c.dom = dom
	c.pt = point
	c.rec = rec
	return c.mult.Init(dom, point, rec)
}

// Multiply computes [k]P through a multiplicative split.
func (c *MultiplicativeSplitting) Multiply(k *big.Int, rng *ecsim.DRBG) (curve.Point, error) {
	r, err := rng.UniformNonZeroMod(c.dom.Order)
	if err != nil {
		return curve.Point{}, err
	}
	s, err := c.mult.Multiply(r)
	if err != nil {
		return curve.Point{}, err
	}
	rInv := new(big.Int).ModInverse(r, c.dom.Order)
	if rInv == nil {
		return curve.Point{}, fmt.Errorf("splitting factor is not invertible modulo the order")
	}
	k2 := new(big.Int).Mul(k, rInv)
	k2.Mod(k2, c.dom.Order)
	if err := c.mult.Init(c.dom, s, c.rec); err != nil {
		return curve.Point{}, err
	}
	defer func() {
		// Rebind the original point for the next call.
		_ = c.mult.Init(c.dom, c.pt, c.rec)
	}()
	return c.mult.Multiply(k2)
}

// EuclideanSplitting writes k = k1 + k2*r with r about half the order
// width, so both halves are short: [k]P = [k1]P + [k2]([r]P).
type EuclideanSplitting struct {
	mult Multiplier
	fs   FormulaSet
	base base
	dom  *params.Domain
	pt   curve.Point
	rec  ecsim.Recorder
}

// NewEuclideanSplitting wraps a multiplier; the formula set must carry
// an addition formula for recombination.
func NewEuclideanSplitting(m Multiplier, fs FormulaSet) (*EuclideanSplitting, error) {
	if err := fs.require(formula.Addition); err != nil {
		return nil, err
	}
	return &EuclideanSplitting{mult: m, fs: fs}, nil
}

// Init binds the inner multiplier.
func (c *EuclideanSplitting) Init(dom *params.Domain, point curve.Point, rec ecsim.Recorder) error {
	c.dom = dom
	c.pt = point
	c.rec = rec
	c.base = base{fs: c.fs, shortCircuit: true}
	if err := c.base.init(dom, point, rec); err != nil {
		return err
	}
	return c.mult.Init(dom, point, rec)
}

// Multiply computes [k]P through a Euclidean split.
func (c *EuclideanSplitting) Multiply(k *big.Int, rng *ecsim.DRBG) (curve.Point, error) {
	half := uint(c.dom.Order.BitLen() / 2)
	bound := new(big.Int).Lsh(big.NewInt(1), half)
	r, err := rng.UniformNonZeroMod(bound)
	if err != nil {
		return curve.Point{}, err
	}
	k1 := new(big.Int)
	k2 := new(big.Int)
	k2.QuoRem(k, r, k1)
	p1, err := c.mult.Multiply(k1)
	if err != nil {
		return curve.Point{}, err
	}
	rp, err := c.mult.Multiply(r)
	if err != nil {
		return curve.Point{}, err
	}
	if err := c.mult.Init(c.dom, rp, c.rec); err != nil {
		return curve.Point{}, err
	}
	p2, err := c.mult.Multiply(k2)
	if err2 := c.mult.Init(c.dom, c.pt, c.rec); err == nil {
		err = err2
	}
	if err != nil {
		return curve.Point{}, err
	}
	return c.base.add(p1, p2)
}
