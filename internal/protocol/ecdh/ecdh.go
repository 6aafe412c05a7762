// Package ecdh implements Diffie-Hellman key agreement over a
// configured scalar multiplier.
package ecdh

import (
	"fmt"
	"math/big"

	"github.com/smallyu/go-ecc-sim/internal/crypto/curve"
	"github.com/smallyu/go-ecc-sim/internal/crypto/mult"
	"github.com/smallyu/go-ecc-sim/internal/crypto/params"
	"github.com/smallyu/go-ecc-sim/pkg/ecsim"
)

// Agreement derives shared secrets on fixed domain parameters.
type Agreement struct {
	dom *params.Domain
	m   mult.Multiplier
}

// New builds an agreement over the given multiplier.
func New(dom *params.Domain, m mult.Multiplier) *Agreement {
	return &Agreement{dom: dom, m: m}
}

// Derive computes [priv]peer and returns the affine x-coordinate as a
// fixed-length big-endian byte string, along with the full point. The
// neutral peer point is rejected, and so is a derivation that lands on
// the neutral point.
func (a *Agreement) Derive(priv *big.Int, peer curve.Point, rec ecsim.Recorder) ([]byte, curve.Point, error) {
	p, err := a.multiply(priv, peer, rec)
	if err != nil {
		return nil, curve.Point{}, err
	}
	x, ok := p.Coordinate("x")
	if !ok {
		return nil, curve.Point{}, fmt.Errorf("derived point has no x coordinate")
	}
	return x.Bytes(), p, nil
}

// DeriveXDH is the x-only variant: the shared secret is the affine
// x-coordinate in little-endian order, the way X25519 outputs it.
func (a *Agreement) DeriveXDH(priv *big.Int, peer curve.Point, rec ecsim.Recorder) ([]byte, error) {
	p, err := a.multiply(priv, peer, rec)
	if err != nil {
		return nil, err
	}
	x, ok := p.Coordinate("x")
	if !ok {
		return nil, fmt.Errorf("derived point has no x coordinate")
	}
	be := x.Bytes()
	le := make([]byte, len(be))
	for i, b := range be {
		le[len(be)-1-i] = b
	}
	return le, nil
}

func (a *Agreement) multiply(priv *big.Int, peer curve.Point, rec ecsim.Recorder) (curve.Point, error) {
	if a.dom.Curve.IsNeutral(peer) {
		return curve.Point{}, fmt.Errorf("%w: peer public point is the neutral element", ecsim.ErrIdentityElementMisuse)
	}
	on, err := a.dom.Curve.IsOnCurve(peer)
	if err != nil {
		return curve.Point{}, err
	}
	if !on {
		return curve.Point{}, fmt.Errorf("%w: peer public point fails the curve equation", ecsim.ErrPointNotOnCurve)
	}
	if err := a.m.Init(a.dom, peer, rec); err != nil {
		return curve.Point{}, err
	}
	p, err := a.m.Multiply(priv)
	if err != nil {
		return curve.Point{}, err
	}
	aff, err := a.dom.Curve.ToAffine(p)
	if err != nil {
		return curve.Point{}, err
	}
	if a.dom.Curve.IsNeutral(aff) {
		return curve.Point{}, fmt.Errorf("%w: shared point is the neutral element", ecsim.ErrIdentityElementMisuse)
	}
	return aff, nil
}
