// Package keygen implements key generation over a configured scalar
// multiplier: a uniform nonzero private scalar and the matching public
// point.
package keygen

import (
	"fmt"
	"math/big"

	"github.com/smallyu/go-ecc-sim/internal/crypto/curve"
	"github.com/smallyu/go-ecc-sim/internal/crypto/mult"
	"github.com/smallyu/go-ecc-sim/internal/crypto/params"
	"github.com/smallyu/go-ecc-sim/pkg/ecsim"
)

// KeyPair is one generated key: the private scalar and the public
// point in affine form.
type KeyPair struct {
	Private *big.Int
	Public  curve.Point
}

// Generator produces key pairs on fixed domain parameters.
type Generator struct {
	dom *params.Domain
	m   mult.Multiplier
}

// New builds a generator over the given multiplier.
func New(dom *params.Domain, m mult.Multiplier) *Generator {
	return &Generator{dom: dom, m: m}
}

// Generate draws a private scalar from rng and computes the public
// point. All formula applications, precomputation included, go to rec.
func (g *Generator) Generate(rng *ecsim.DRBG, rec ecsim.Recorder) (*KeyPair, error) {
	priv, err := rng.UniformNonZeroMod(g.dom.Order)
	if err != nil {
		return nil, err
	}
	if err := g.m.Init(g.dom, g.dom.Generator, rec); err != nil {
		return nil, err
	}
	pub, err := g.m.Multiply(priv)
	if err != nil {
		return nil, err
	}
	aff, err := g.dom.Curve.ToAffine(pub)
	if err != nil {
		return nil, err
	}
	if g.dom.Curve.IsNeutral(aff) {
		return nil, fmt.Errorf("%w: key generation produced the neutral point", ecsim.ErrIdentityElementMisuse)
	}
	return &KeyPair{Private: priv, Public: aff}, nil
}
