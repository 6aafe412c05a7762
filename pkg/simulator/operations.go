package simulator

import (
	"fmt"
	"math/big"

	"github.com/smallyu/go-ecc-sim/internal/crypto/curve"
	"github.com/smallyu/go-ecc-sim/internal/protocol/ecdh"
	"github.com/smallyu/go-ecc-sim/internal/protocol/ecdsa"
	"github.com/smallyu/go-ecc-sim/internal/protocol/keygen"
	"github.com/smallyu/go-ecc-sim/pkg/ecsim"
)

// Operation names a simulated cryptographic operation.
type Operation string

const (
	OpKeyGen Operation = "keygen"
	OpECDH   Operation = "ecdh"
	OpSign   Operation = "sign"
	OpVerify Operation = "verify"
)

// Inputs carries the operation inputs. Points travel in their
// uncompressed affine encoding.
type Inputs struct {
	// Private is the private scalar (ecdh, sign).
	Private *big.Int

	// PeerPublic is the peer's public point (ecdh).
	PeerPublic []byte

	// Public is the signer's public point (verify).
	Public []byte

	// Digest is the message digest (sign, verify).
	Digest []byte

	// Signature is a DER signature (verify).
	Signature []byte
}

// Result carries the operation outputs; only the fields relevant to
// the operation are set.
type Result struct {
	// Private is the generated private scalar (keygen).
	Private *big.Int

	// Public is the generated public point, uncompressed (keygen).
	Public []byte

	// SharedSecret is the affine x-coordinate of the derived point,
	// big-endian (ecdh).
	SharedSecret []byte

	// Signature is the DER signature (sign).
	Signature []byte

	// Valid is the verification outcome (verify).
	Valid bool
}

// Simulate runs one operation under this configuration, drawing all
// randomness from rng. The returned trace lists every formula
// application in execution order; running the same operation with the
// same inputs and an equally-seeded rng reproduces it byte for byte.
func (c *Configuration) Simulate(op Operation, in Inputs, rng *ecsim.DRBG) (*Result, *ecsim.Trace, error) {
	trace := ecsim.NewTrace()
	m, err := c.wrap(nil, rng)
	if err != nil {
		return nil, nil, err
	}
	switch op {
	case OpKeyGen:
		kp, err := keygen.New(c.Domain, m).Generate(rng, trace)
		if err != nil {
			return nil, nil, err
		}
		pub, err := c.Domain.Curve.EncodeAffine(kp.Public, false)
		if err != nil {
			return nil, nil, err
		}
		return &Result{Private: kp.Private, Public: pub}, trace, nil

	case OpECDH:
		if in.Private == nil {
			return nil, nil, fmt.Errorf("ecdh needs a private scalar")
		}
		peer, err := c.decodePoint(in.PeerPublic)
		if err != nil {
			return nil, nil, err
		}
		secret, _, err := ecdh.New(c.Domain, m).Derive(in.Private, peer, trace)
		if err != nil {
			return nil, nil, err
		}
		return &Result{SharedSecret: secret}, trace, nil

	case OpSign:
		if in.Private == nil {
			return nil, nil, fmt.Errorf("sign needs a private scalar")
		}
		sig, err := ecdsa.New(c.Domain, m, c.Formulas).Sign(in.Private, in.Digest, rng, trace)
		if err != nil {
			return nil, nil, err
		}
		der, err := sig.EncodeDER()
		if err != nil {
			return nil, nil, err
		}
		return &Result{Signature: der}, trace, nil

	case OpVerify:
		pub, err := c.decodePoint(in.Public)
		if err != nil {
			return nil, nil, err
		}
		sig, err := ecdsa.DecodeDER(in.Signature)
		if err != nil {
			return nil, nil, err
		}
		valid, err := ecdsa.New(c.Domain, m, c.Formulas).Verify(pub, in.Digest, sig, trace)
		if err != nil {
			return nil, nil, err
		}
		return &Result{Valid: valid}, trace, nil

	default:
		return nil, nil, fmt.Errorf("%w: unknown operation %q", ecsim.ErrUnsupportedConfiguration, op)
	}
}

func (c *Configuration) decodePoint(data []byte) (curve.Point, error) {
	if len(data) == 0 {
		return curve.Point{}, fmt.Errorf("missing point encoding")
	}
	return c.Domain.Curve.DecodeAffine(data)
}
