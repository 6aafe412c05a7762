package simulator_test

import (
	"bytes"
	"errors"
	"testing"

	"github.com/smallyu/go-ecc-sim/internal/crypto/formula"
	"github.com/smallyu/go-ecc-sim/pkg/ecsim"
	"github.com/smallyu/go-ecc-sim/pkg/simulator"
)

func p256Spec() simulator.Spec {
	return simulator.Spec{
		Curve:      "secp256r1",
		Coords:     "jacobian",
		Formulas:   []string{"add-2007-bl", "dbl-2007-bl"},
		Multiplier: simulator.MultiplierSpec{Algorithm: "fixed-window", Width: 4},
	}
}

func TestNewResolvesValidSpec(t *testing.T) {
	cfg, err := simulator.New(p256Spec())
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}
	if cfg.Domain.Name != "secp256r1" {
		t.Errorf("Domain.Name = %s", cfg.Domain.Name)
	}
	if cfg.Formulas[formula.Addition] == nil || cfg.Formulas[formula.Doubling] == nil {
		t.Errorf("formula set is missing required kinds")
	}
}

func TestNewRejectsInconsistentSpecs(t *testing.T) {
	cases := []struct {
		name    string
		mutate  func(*simulator.Spec)
		wantErr error
	}{
		{"unknown-curve", func(s *simulator.Spec) { s.Curve = "secp42" }, ecsim.ErrInvalidDomainParameters},
		{"unknown-coords", func(s *simulator.Spec) { s.Coords = "toric" }, ecsim.ErrUnsupportedConfiguration},
		{"unknown-backend", func(s *simulator.Spec) { s.Backend = "gmp" }, ecsim.ErrUnsupportedConfiguration},
		{"unknown-formula", func(s *simulator.Spec) { s.Formulas = []string{"add-9999-xx"} }, ecsim.ErrUnsupportedConfiguration},
		{"unknown-multiplier", func(s *simulator.Spec) { s.Multiplier.Algorithm = "quantum" }, ecsim.ErrUnsupportedConfiguration},
		{"unknown-direction", func(s *simulator.Spec) {
			s.Multiplier = simulator.MultiplierSpec{Algorithm: "double-and-add", Direction: "down"}
		}, ecsim.ErrUnsupportedConfiguration},
		{"unknown-countermeasure", func(s *simulator.Spec) { s.Countermeasure = "foil" }, ecsim.ErrUnsupportedConfiguration},
		{"bad-width", func(s *simulator.Spec) { s.Multiplier.Width = 1 }, ecsim.ErrUnsupportedConfiguration},
		{"assumption-violated", func(s *simulator.Spec) {
			// jacobian-3 assumes a = -3, secp256k1 has a = 0.
			s.Curve = "secp256k1"
			s.Coords = "jacobian-3"
			s.Formulas = nil
		}, ecsim.ErrUnsupportedConfiguration},
		{"missing-formula-kind", func(s *simulator.Spec) {
			// Short Weierstrass has no ladder-step formula, so the
			// combined ladder cannot be configured on it.
			s.Formulas = nil
			s.Multiplier = simulator.MultiplierSpec{Algorithm: "ladder", Complete: true}
		}, ecsim.ErrUnsupportedConfiguration},
		{"no-addition-on-xz", func(s *simulator.Spec) {
			// x-only coordinates carry no plain addition formula, which
			// the binary multiplier needs.
			s.Curve = "curve25519"
			s.Coords = "xz"
			s.Formulas = nil
			s.Multiplier = simulator.MultiplierSpec{Algorithm: "double-and-add"}
		}, ecsim.ErrUnsupportedConfiguration},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			spec := p256Spec()
			tc.mutate(&spec)
			_, err := simulator.New(spec)
			if !errors.Is(err, tc.wantErr) {
				t.Errorf("New: got %v, want %v", err, tc.wantErr)
			}
		})
	}
}

func TestSimulateKeyGen(t *testing.T) {
	cfg, err := simulator.New(p256Spec())
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}
	res, trace, err := cfg.Simulate(simulator.OpKeyGen, simulator.Inputs{}, ecsim.NewDRBGUint64(42))
	if err != nil {
		t.Fatalf("Simulate failed: %v", err)
	}
	if res.Private == nil || res.Private.Sign() <= 0 {
		t.Errorf("missing private scalar")
	}
	if len(res.Public) != 65 || res.Public[0] != 0x04 {
		t.Errorf("public key is not a 65-byte uncompressed point")
	}
	if trace.Len() == 0 {
		t.Errorf("empty trace")
	}
	if _, err := cfg.Domain.Curve.DecodeAffine(res.Public); err != nil {
		t.Errorf("public key does not decode: %v", err)
	}
}

func TestSimulateReplay(t *testing.T) {
	cfg, err := simulator.New(p256Spec())
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}
	run := func() (*simulator.Result, *ecsim.Trace) {
		res, trace, err := cfg.Simulate(simulator.OpKeyGen, simulator.Inputs{}, ecsim.NewDRBGUint64(1234))
		if err != nil {
			t.Fatalf("Simulate failed: %v", err)
		}
		return res, trace
	}
	r1, t1 := run()
	r2, t2 := run()
	if r1.Private.Cmp(r2.Private) != 0 || !bytes.Equal(r1.Public, r2.Public) {
		t.Errorf("same seed produced different keys")
	}
	if !t1.Equal(t2) {
		t.Errorf("same seed produced different traces")
	}
	r3, t3 := cfgMustSimulate(t, cfg, simulator.OpKeyGen, simulator.Inputs{}, 1235)
	if r1.Private.Cmp(r3.Private) == 0 {
		t.Errorf("different seeds produced the same key")
	}
	if t1.Equal(t3) {
		t.Errorf("different seeds produced identical traces")
	}
}

func cfgMustSimulate(t *testing.T, cfg *simulator.Configuration, op simulator.Operation, in simulator.Inputs, seed uint64) (*simulator.Result, *ecsim.Trace) {
	t.Helper()
	res, trace, err := cfg.Simulate(op, in, ecsim.NewDRBGUint64(seed))
	if err != nil {
		t.Fatalf("Simulate(%s) failed: %v", op, err)
	}
	return res, trace
}

func TestSimulateECDHFlow(t *testing.T) {
	cfg, err := simulator.New(p256Spec())
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}
	alice, _ := cfgMustSimulate(t, cfg, simulator.OpKeyGen, simulator.Inputs{}, 1)
	bob, _ := cfgMustSimulate(t, cfg, simulator.OpKeyGen, simulator.Inputs{}, 2)

	sa, ta := cfgMustSimulate(t, cfg, simulator.OpECDH, simulator.Inputs{
		Private:    alice.Private,
		PeerPublic: bob.Public,
	}, 3)
	sb, _ := cfgMustSimulate(t, cfg, simulator.OpECDH, simulator.Inputs{
		Private:    bob.Private,
		PeerPublic: alice.Public,
	}, 4)
	if !bytes.Equal(sa.SharedSecret, sb.SharedSecret) {
		t.Errorf("shared secrets differ")
	}
	if ta.Len() == 0 {
		t.Errorf("empty ECDH trace")
	}
}

func TestSimulateSignVerifyFlow(t *testing.T) {
	cfg, err := simulator.New(p256Spec())
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}
	kp, _ := cfgMustSimulate(t, cfg, simulator.OpKeyGen, simulator.Inputs{}, 5)
	digest := bytes.Repeat([]byte{0x5a}, 32)

	signed, _ := cfgMustSimulate(t, cfg, simulator.OpSign, simulator.Inputs{
		Private: kp.Private,
		Digest:  digest,
	}, 6)
	if len(signed.Signature) == 0 {
		t.Fatalf("missing signature")
	}

	verified, _ := cfgMustSimulate(t, cfg, simulator.OpVerify, simulator.Inputs{
		Public:    kp.Public,
		Digest:    digest,
		Signature: signed.Signature,
	}, 7)
	if !verified.Valid {
		t.Errorf("valid signature rejected")
	}

	tampered := append([]byte{}, digest...)
	tampered[0] ^= 0xff
	refuted, _ := cfgMustSimulate(t, cfg, simulator.OpVerify, simulator.Inputs{
		Public:    kp.Public,
		Digest:    tampered,
		Signature: signed.Signature,
	}, 8)
	if refuted.Valid {
		t.Errorf("tampered digest accepted")
	}
}

func TestSimulateWithCountermeasures(t *testing.T) {
	for _, cm := range []string{"gsr", "additive", "multiplicative", "euclidean"} {
		t.Run(cm, func(t *testing.T) {
			spec := p256Spec()
			spec.Countermeasure = cm
			cfg, err := simulator.New(spec)
			if err != nil {
				t.Fatalf("New failed: %v", err)
			}
			kp, _ := cfgMustSimulate(t, cfg, simulator.OpKeyGen, simulator.Inputs{}, 42)

			// The countermeasure may not change the resulting key, only
			// the computation that produced it.
			plain, err := simulator.New(p256Spec())
			if err != nil {
				t.Fatalf("New failed: %v", err)
			}
			ref, _ := cfgMustSimulate(t, plain, simulator.OpKeyGen, simulator.Inputs{}, 42)
			if kp.Private.Cmp(ref.Private) != 0 {
				t.Errorf("countermeasure changed the drawn scalar")
			}
			if !bytes.Equal(kp.Public, ref.Public) {
				t.Errorf("countermeasure changed the public key")
			}
		})
	}
}

func TestSimulateAcrossBackends(t *testing.T) {
	specBig := p256Spec()
	specNat := p256Spec()
	specNat.Backend = "saferith"

	a, err := simulator.New(specBig)
	if err != nil {
		t.Fatalf("New(big) failed: %v", err)
	}
	b, err := simulator.New(specNat)
	if err != nil {
		t.Fatalf("New(saferith) failed: %v", err)
	}
	ra, ta := cfgMustSimulate(t, a, simulator.OpKeyGen, simulator.Inputs{}, 9)
	rb, tb := cfgMustSimulate(t, b, simulator.OpKeyGen, simulator.Inputs{}, 9)
	if !bytes.Equal(ra.Public, rb.Public) {
		t.Errorf("backends disagree on the public key")
	}
	if !ta.Equal(tb) {
		t.Errorf("backends disagree on the recorded trace")
	}
}

func TestScaleNormalizesTrace(t *testing.T) {
	spec := p256Spec()
	spec.Scale = true
	cfg, err := simulator.New(spec)
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}
	if cfg.Formulas[formula.Scaling] == nil {
		t.Fatalf("scaling formula not resolved")
	}
	_, trace, err := cfg.Simulate(simulator.OpKeyGen, simulator.Inputs{}, ecsim.NewDRBGUint64(42))
	if err != nil {
		t.Fatalf("Simulate failed: %v", err)
	}
	last := trace.Events[trace.Len()-1]
	if last.Kind != "scl" {
		t.Errorf("final event kind = %s, want scl", last.Kind)
	}
}

func TestSimulateUnknownOperation(t *testing.T) {
	cfg, err := simulator.New(p256Spec())
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}
	if _, _, err := cfg.Simulate("divine", simulator.Inputs{}, ecsim.NewDRBGUint64(1)); !errors.Is(err, ecsim.ErrUnsupportedConfiguration) {
		t.Errorf("unknown operation: got %v, want ErrUnsupportedConfiguration", err)
	}
}

func TestBestAvailableFillsMissingKinds(t *testing.T) {
	// Name no formulas at all: resolution must pick executable defaults
	// for addition and doubling.
	spec := p256Spec()
	spec.Formulas = nil
	cfg, err := simulator.New(spec)
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}
	add := cfg.Formulas[formula.Addition]
	dbl := cfg.Formulas[formula.Doubling]
	if add == nil || dbl == nil {
		t.Fatalf("missing resolved formulas")
	}
	if add.Opaque || dbl.Opaque {
		t.Errorf("resolution picked an opaque formula over executable ones")
	}
	if _, _, err := cfg.Simulate(simulator.OpKeyGen, simulator.Inputs{}, ecsim.NewDRBGUint64(3)); err != nil {
		t.Errorf("Simulate with defaults failed: %v", err)
	}
}
