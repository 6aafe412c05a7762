// Package ecdsa implements ECDSA signing and verification over a
// configured scalar multiplier.
package ecdsa

import (
	"encoding/asn1"
	"fmt"
	"math/big"

	"github.com/smallyu/go-ecc-sim/internal/crypto/curve"
	"github.com/smallyu/go-ecc-sim/internal/crypto/mult"
	"github.com/smallyu/go-ecc-sim/internal/crypto/params"
	"github.com/smallyu/go-ecc-sim/pkg/ecsim"
)

// Signature is an ECDSA signature pair.
type Signature struct {
	R, S *big.Int
}

type derSignature struct {
	R, S *big.Int
}

// EncodeDER serializes the signature as the usual ASN.1 SEQUENCE of
// two INTEGERs.
func (s Signature) EncodeDER() ([]byte, error) {
	return asn1.Marshal(derSignature{R: s.R, S: s.S})
}

// DecodeDER parses a DER signature, rejecting trailing data.
func DecodeDER(data []byte) (Signature, error) {
	var d derSignature
	rest, err := asn1.Unmarshal(data, &d)
	if err != nil {
		return Signature{}, err
	}
	if len(rest) != 0 {
		return Signature{}, fmt.Errorf("trailing bytes after DER signature")
	}
	return Signature{R: d.R, S: d.S}, nil
}

// Signer signs and verifies on fixed domain parameters. Signing uses
// the configured multiplier for the nonce multiplication, verification
// uses an interleaved dual multiplication over the same formula set.
type Signer struct {
	dom *params.Domain
	m   mult.Multiplier
	fs  mult.FormulaSet
}

// New builds a signer. The formula set is needed for the dual
// multiplication during verification.
func New(dom *params.Domain, m mult.Multiplier, fs mult.FormulaSet) *Signer {
	return &Signer{dom: dom, m: m, fs: fs}
}

// hashToScalar truncates a digest to the order width: take the
// leftmost order-bits of the digest, as an integer.
func (sg *Signer) hashToScalar(digest []byte) *big.Int {
	z := new(big.Int).SetBytes(digest)
	if excess := len(digest)*8 - sg.dom.Order.BitLen(); excess > 0 {
		z.Rsh(z, uint(excess))
	}
	return z
}

// Sign produces a signature over the digest, drawing nonces from rng
// until both signature halves are nonzero.
func (sg *Signer) Sign(priv *big.Int, digest []byte, rng *ecsim.DRBG, rec ecsim.Recorder) (Signature, error) {
	if priv.Sign() == 0 || priv.Cmp(sg.dom.Order) >= 0 {
		return Signature{}, fmt.Errorf("%w: private key out of range", ecsim.ErrInvalidDomainParameters)
	}
	z := sg.hashToScalar(digest)
	for {
		k, err := rng.UniformNonZeroMod(sg.dom.Order)
		if err != nil {
			return Signature{}, err
		}
		if err := sg.m.Init(sg.dom, sg.dom.Generator, rec); err != nil {
			return Signature{}, err
		}
		kg, err := sg.m.Multiply(k)
		if err != nil {
			return Signature{}, err
		}
		aff, err := sg.dom.Curve.ToAffine(kg)
		if err != nil {
			return Signature{}, err
		}
		if sg.dom.Curve.IsNeutral(aff) {
			continue
		}
		x, ok := aff.Coordinate("x")
		if !ok {
			return Signature{}, fmt.Errorf("nonce point has no x coordinate")
		}
		r := new(big.Int).Mod(x.Int(), sg.dom.Order)
		if r.Sign() == 0 {
			continue
		}
		kInv := new(big.Int).ModInverse(k, sg.dom.Order)
		s := new(big.Int).Mul(r, priv)
		s.Add(s, z)
		s.Mul(s, kInv)
		s.Mod(s, sg.dom.Order)
		if s.Sign() == 0 {
			continue
		}
		return Signature{R: r, S: s}, nil
	}
}

// Verify checks a signature over the digest against a public point.
func (sg *Signer) Verify(pub curve.Point, digest []byte, sig Signature, rec ecsim.Recorder) (bool, error) {
	n := sg.dom.Order
	if sig.R == nil || sig.S == nil ||
		sig.R.Sign() <= 0 || sig.R.Cmp(n) >= 0 ||
		sig.S.Sign() <= 0 || sig.S.Cmp(n) >= 0 {
		return false, nil
	}
	if sg.dom.Curve.IsNeutral(pub) {
		return false, fmt.Errorf("%w: public point is the neutral element", ecsim.ErrIdentityElementMisuse)
	}
	on, err := sg.dom.Curve.IsOnCurve(pub)
	if err != nil {
		return false, err
	}
	if !on {
		return false, fmt.Errorf("%w: public point fails the curve equation", ecsim.ErrPointNotOnCurve)
	}
	z := sg.hashToScalar(digest)
	w := new(big.Int).ModInverse(sig.S, n)
	u1 := new(big.Int).Mul(z, w)
	u1.Mod(u1, n)
	u2 := new(big.Int).Mul(sig.R, w)
	u2.Mod(u2, n)
	dual, err := mult.NewShamir(sg.fs)
	if err != nil {
		return false, err
	}
	if err := dual.Init(sg.dom, sg.dom.Generator, pub, rec); err != nil {
		return false, err
	}
	p, err := dual.Multiply(u1, u2)
	if err != nil {
		return false, err
	}
	aff, err := sg.dom.Curve.ToAffine(p)
	if err != nil {
		return false, err
	}
	if sg.dom.Curve.IsNeutral(aff) {
		return false, nil
	}
	x, ok := aff.Coordinate("x")
	if !ok {
		return false, fmt.Errorf("verification point has no x coordinate")
	}
	v := new(big.Int).Mod(x.Int(), n)
	return v.Cmp(sig.R) == 0, nil
}
