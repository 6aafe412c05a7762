// Package simulator is the public entry point: it resolves a named
// configuration (curve, coordinate system, formulas, multiplier,
// backend) into executable objects, fails fast on inconsistent
// combinations, and runs cryptographic operations while recording
// their full formula trace.
package simulator

import (
	"fmt"
	"math/big"

	"github.com/smallyu/go-ecc-sim/internal/crypto/curve"
	"github.com/smallyu/go-ecc-sim/internal/crypto/efd"
	"github.com/smallyu/go-ecc-sim/internal/crypto/field"
	"github.com/smallyu/go-ecc-sim/internal/crypto/formula"
	"github.com/smallyu/go-ecc-sim/internal/crypto/mult"
	"github.com/smallyu/go-ecc-sim/internal/crypto/params"
	"github.com/smallyu/go-ecc-sim/pkg/ecsim"
)

// MultiplierSpec names a scalar multiplication algorithm and its
// options. Unused options are ignored by algorithms that do not take
// them.
type MultiplierSpec struct {
	// Algorithm is one of: double-and-add, coron, binary-naf,
	// window-naf, sliding-window, fixed-window, comb, bgmw, ladder,
	// simple-ladder, differential-ladder.
	Algorithm string

	// Width is the window, comb or digit width.
	Width int

	// Direction is "ltr" (default) or "rtl".
	Direction string

	// AccumulationOrder is "ra" (acc = acc + p, default) or "ar".
	AccumulationOrder string

	// Always enables dummy additions on zero bits.
	Always bool

	// Complete walks the full order width instead of the scalar width.
	Complete bool

	// PrecomputeNegation also tabulates negated points (window-naf).
	PrecomputeNegation bool
}

// Spec names a full implementation configuration.
type Spec struct {
	// Curve is a database curve name, e.g. "secp256r1".
	Curve string

	// Coords is the coordinate system name, e.g. "jacobian".
	Coords string

	// Backend is the field backend name, "big" (default) or
	// "saferith".
	Backend string

	// Formulas lists formula names to use, e.g. "add-2007-bl". Kinds
	// the multiplier needs that are not named here are filled with the
	// cheapest available formula.
	Formulas []string

	// Multiplier picks the scalar multiplication algorithm.
	Multiplier MultiplierSpec

	// Countermeasure optionally wraps the multiplier: "gsr",
	// "additive", "multiplicative" or "euclidean".
	Countermeasure string

	// Scale normalizes results with a scaling formula when one exists.
	Scale bool
}

// Configuration is a resolved, validated Spec. It is immutable; each
// Simulate call builds fresh multiplier state, so a configuration can
// be reused across any number of operations.
type Configuration struct {
	Spec     Spec
	Domain   *params.Domain
	Formulas mult.FormulaSet

	newMult func() (mult.Multiplier, error)
}

// New resolves and validates a spec. Every inconsistency, from unknown
// names to a formula set the multiplier cannot run on, is reported
// here rather than at operation time.
func New(spec Spec) (*Configuration, error) {
	backendName := spec.Backend
	if backendName == "" {
		backendName = "big"
	}
	backend, err := field.ByName(backendName)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ecsim.ErrUnsupportedConfiguration, err)
	}
	dom, err := params.Load(spec.Curve, spec.Coords, backend)
	if err != nil {
		return nil, err
	}
	fs, err := resolveFormulas(spec, dom)
	if err != nil {
		return nil, err
	}
	c := &Configuration{Spec: spec, Domain: dom, Formulas: fs}
	c.newMult = func() (mult.Multiplier, error) {
		return buildMultiplier(spec.Multiplier, fs)
	}
	// Constructing one multiplier validates the algorithm options and
	// formula requirements up front.
	if _, err := c.newMult(); err != nil {
		return nil, err
	}
	if spec.Countermeasure != "" {
		if _, err := c.wrap(nil, nil); err != nil {
			return nil, err
		}
	}
	return c, nil
}

func neededKinds(ms MultiplierSpec) []formula.Kind {
	switch ms.Algorithm {
	case "ladder":
		if ms.Complete {
			return []formula.Kind{formula.Ladder}
		}
		return []formula.Kind{formula.Ladder, formula.Doubling}
	case "differential-ladder":
		return []formula.Kind{formula.DiffAdd, formula.Doubling}
	case "binary-naf", "window-naf":
		return []formula.Kind{formula.Addition, formula.Doubling, formula.Negation}
	default:
		return []formula.Kind{formula.Addition, formula.Doubling}
	}
}

func resolveFormulas(spec Spec, dom *params.Domain) (mult.FormulaSet, error) {
	available, err := efd.Formulas(dom.Curve.Coords)
	if err != nil {
		return nil, err
	}
	var chosen []*formula.Formula
	taken := make(map[formula.Kind]bool)
	for _, name := range spec.Formulas {
		f, ok := available[name]
		if !ok {
			return nil, fmt.Errorf("%w: no formula %q in %s",
				ecsim.ErrUnsupportedConfiguration, name, dom.Curve.Coords)
		}
		chosen = append(chosen, f)
		taken[f.Kind] = true
	}
	need := neededKinds(spec.Multiplier)
	if spec.Scale {
		need = append(need, formula.Scaling)
	}
	for _, kind := range need {
		if taken[kind] {
			continue
		}
		best := bestAvailable(available, kind)
		if best == nil {
			return nil, fmt.Errorf("%w: no %s formula available in %s",
				ecsim.ErrUnsupportedConfiguration, kind, dom.Curve.Coords)
		}
		chosen = append(chosen, best)
		taken[kind] = true
	}
	return mult.NewFormulaSet(chosen...)
}

// bestAvailable picks the formula with the lowest cost weight for a
// kind, preferring non-opaque entries and breaking ties by name for
// determinism.
func bestAvailable(available map[string]*formula.Formula, kind formula.Kind) *formula.Formula {
	var best *formula.Formula
	for _, f := range available {
		if f.Kind != kind {
			continue
		}
		if best == nil {
			best = f
			continue
		}
		bw, fw := best.Cost().Weight(), f.Cost().Weight()
		switch {
		case best.Opaque != f.Opaque:
			if best.Opaque {
				best = f
			}
		case fw < bw:
			best = f
		case fw == bw && f.Name < best.Name:
			best = f
		}
	}
	return best
}

func buildMultiplier(ms MultiplierSpec, fs mult.FormulaSet) (mult.Multiplier, error) {
	dir := mult.LTR
	switch ms.Direction {
	case "", "ltr":
	case "rtl":
		dir = mult.RTL
	default:
		return nil, fmt.Errorf("%w: unknown direction %q", ecsim.ErrUnsupportedConfiguration, ms.Direction)
	}
	order := mult.AccumulatorFirst
	switch ms.AccumulationOrder {
	case "", "ra":
	case "ar":
		order = mult.PointFirst
	default:
		return nil, fmt.Errorf("%w: unknown accumulation order %q", ecsim.ErrUnsupportedConfiguration, ms.AccumulationOrder)
	}
	width := ms.Width
	switch ms.Algorithm {
	case "", "double-and-add":
		return mult.NewDoubleAndAdd(fs, dir, order, ms.Always, ms.Complete)
	case "coron":
		return mult.NewCoron(fs)
	case "binary-naf":
		return mult.NewBinaryNAF(fs, dir)
	case "window-naf":
		return mult.NewWindowNAF(fs, width, ms.PrecomputeNegation)
	case "sliding-window":
		return mult.NewSlidingWindow(fs, width)
	case "fixed-window":
		return mult.NewFixedWindow(fs, width)
	case "comb":
		return mult.NewComb(fs, width)
	case "bgmw":
		return mult.NewBGMW(fs, width)
	case "ladder":
		return mult.NewLadder(fs, ms.Complete)
	case "simple-ladder":
		return mult.NewSimpleLadder(fs)
	case "differential-ladder":
		return mult.NewDifferentialLadder(fs)
	default:
		return nil, fmt.Errorf("%w: unknown multiplier %q", ecsim.ErrUnsupportedConfiguration, ms.Algorithm)
	}
}

// cmAdapter exposes a countermeasure through the plain Multiplier
// interface by binding the randomness source.
type cmAdapter struct {
	cm  mult.Countermeasure
	rng *ecsim.DRBG
}

func (a *cmAdapter) Init(dom *params.Domain, point curve.Point, rec ecsim.Recorder) error {
	return a.cm.Init(dom, point, rec)
}

func (a *cmAdapter) Multiply(k *big.Int) (curve.Point, error) {
	return a.cm.Multiply(k, a.rng)
}

// wrap builds the effective multiplier for one operation, applying the
// configured countermeasure around a fresh inner multiplier.
func (c *Configuration) wrap(inner mult.Multiplier, rng *ecsim.DRBG) (mult.Multiplier, error) {
	if inner == nil {
		var err error
		inner, err = c.newMult()
		if err != nil {
			return nil, err
		}
	}
	switch c.Spec.Countermeasure {
	case "":
		return inner, nil
	case "gsr":
		return &cmAdapter{cm: mult.NewGroupScalarRandomization(inner, 0), rng: rng}, nil
	case "additive":
		cm, err := mult.NewAdditiveSplitting(inner, c.Formulas)
		if err != nil {
			return nil, err
		}
		return &cmAdapter{cm: cm, rng: rng}, nil
	case "multiplicative":
		return &cmAdapter{cm: mult.NewMultiplicativeSplitting(inner), rng: rng}, nil
	case "euclidean":
		cm, err := mult.NewEuclideanSplitting(inner, c.Formulas)
		if err != nil {
			return nil, err
		}
		return &cmAdapter{cm: cm, rng: rng}, nil
	default:
		return nil, fmt.Errorf("%w: unknown countermeasure %q", ecsim.ErrUnsupportedConfiguration, c.Spec.Countermeasure)
	}
}
