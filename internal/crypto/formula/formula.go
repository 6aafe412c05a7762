// Package formula holds executable formulas for curve operations:
// straight-line programs over coordinate variables, together with a
// graph form that supports inspection and rewriting.
package formula

import (
	"fmt"
	"strconv"

	"github.com/smallyu/go-ecc-sim/internal/crypto/curve"
	"github.com/smallyu/go-ecc-sim/internal/crypto/field"
	"github.com/smallyu/go-ecc-sim/internal/crypto/model"
	"github.com/smallyu/go-ecc-sim/internal/crypto/op"
	"github.com/smallyu/go-ecc-sim/pkg/ecsim"
)

// Kind classifies a formula by the group operation it implements.
type Kind int

const (
	// Addition adds two distinct points.
	Addition Kind = iota
	// Doubling doubles a point.
	Doubling
	// Tripling triples a point.
	Tripling
	// Negation negates a point.
	Negation
	// Scaling normalizes the projective representation of a point.
	Scaling
	// DiffAdd adds two points whose difference is known (first input).
	DiffAdd
	// Ladder is one combined ladder step: given the difference P0 and
	// points P1, P2 it outputs 2*P1 and P1+P2.
	Ladder
)

// kindInfo fixes the arity conventions shared with the formula
// database: inputs are numbered from 1, outputs start at
// max(numInputs+1, 3).
var kindInfo = map[Kind]struct {
	name    string
	inputs  int
	outputs int
}{
	Addition: {"add", 2, 1},
	Doubling: {"dbl", 1, 1},
	Tripling: {"tpl", 1, 1},
	Negation: {"neg", 1, 1},
	Scaling:  {"scl", 1, 1},
	DiffAdd:  {"dadd", 3, 1},
	Ladder:   {"ladd", 3, 2},
}

// KindByName resolves the short database name of a kind.
func KindByName(name string) (Kind, error) {
	for k, info := range kindInfo {
		if info.name == name {
			return k, nil
		}
	}
	return 0, fmt.Errorf("unknown formula kind %q", name)
}

func (k Kind) String() string { return kindInfo[k].name }

// NumInputs is the number of input points of the kind.
func (k Kind) NumInputs() int { return kindInfo[k].inputs }

// NumOutputs is the number of output points of the kind.
func (k Kind) NumOutputs() int { return kindInfo[k].outputs }

// OutputIndex is the variable index of the first output point.
func (k Kind) OutputIndex() int {
	if n := kindInfo[k].inputs + 1; n > 3 {
		return n
	}
	return 3
}

// Formula is a straight-line program implementing one group operation
// in one coordinate system. Formulas are immutable once loaded.
type Formula struct {
	// Name is the database identifier, e.g. "add-2007-bl".
	Name string

	// Kind is the operation the formula implements.
	Kind Kind

	// Coords is the coordinate system the formula operates in.
	Coords *model.CoordinateModel

	// Parameters are formula-local parameters with defining
	// assumptions, e.g. a24 for ladder formulas.
	Parameters []string

	// Assumptions either define Parameters in terms of curve
	// parameters or constrain inputs (Z1 = 1 for mixed addition).
	Assumptions []op.Assignment

	// Code is the program, in execution order.
	Code []op.Op

	// Unified marks formulas valid for both addition and doubling.
	Unified bool

	// Opaque marks formulas known only as raw operation listings,
	// without provenance metadata. They execute like any other formula
	// but are not eligible for graph rewriting.
	Opaque bool
}

func (f *Formula) String() string {
	return fmt.Sprintf("%s/%s", f.Coords, f.Name)
}

// InputVariables lists the concrete input variable names, e.g.
// X1,Y1,Z1,X2,Y2,Z2 for an addition in a three-variable system.
func (f *Formula) InputVariables() []string {
	var out []string
	for i := 1; i <= f.Kind.NumInputs(); i++ {
		for _, v := range f.Coords.Variables {
			out = append(out, v+strconv.Itoa(i))
		}
	}
	return out
}

// OutputVariables lists the concrete output variable names.
func (f *Formula) OutputVariables() []string {
	var out []string
	for i := 0; i < f.Kind.NumOutputs(); i++ {
		idx := f.Kind.OutputIndex() + i
		for _, v := range f.Coords.Variables {
			out = append(out, v+strconv.Itoa(idx))
		}
	}
	return out
}

// Validate checks that the program is closed: every operand is an
// input variable, parameter, constant or earlier result, and every
// output variable is assigned. Run once at load time.
func (f *Formula) Validate() error {
	defined := make(map[string]bool)
	for _, v := range f.InputVariables() {
		defined[v] = true
	}
	for _, p := range f.Coords.Model.ParameterNames {
		defined[p] = true
	}
	for _, p := range f.Coords.Parameters {
		defined[p] = true
	}
	for _, p := range f.Parameters {
		defined[p] = true
	}
	for _, o := range f.Code {
		for _, parent := range o.Parents() {
			if !parent.IsConst && !defined[parent.Name] {
				return fmt.Errorf("operand %q of %q is undefined", parent.Name, o.String())
			}
		}
		defined[o.Result] = true
	}
	for _, v := range f.OutputVariables() {
		if !defined[v] {
			return fmt.Errorf("output variable %q is never assigned", v)
		}
	}
	return nil
}

// Call executes the formula on the given input points, recording one
// trace event when rec is non-nil. Inputs must match the formula's
// coordinate system and arity, and must not be the point at infinity;
// neutral handling belongs to the caller.
func (f *Formula) Call(c *curve.Curve, rec ecsim.Recorder, points ...curve.Point) ([]curve.Point, error) {
	if len(points) != f.Kind.NumInputs() {
		return nil, fmt.Errorf("%s takes %d points, got %d", f, f.Kind.NumInputs(), len(points))
	}
	if c.Coords != f.Coords {
		return nil, fmt.Errorf("%w: curve uses %s, formula %s", ecsim.ErrUnsupportedConfiguration, c.Coords, f)
	}
	vars := make(map[string]field.Element, len(c.Parameters)+len(points)*len(f.Coords.Variables)+len(f.Code))
	for k, v := range c.Parameters {
		vars[k] = v
	}
	var inputs [][]byte
	for i, p := range points {
		if p.IsInfinity() {
			return nil, fmt.Errorf("%w: formula %s applied to the point at infinity", ecsim.ErrIdentityElementMisuse, f)
		}
		if p.Coords() != f.Coords {
			return nil, fmt.Errorf("%w: input point in %s, formula in %s", ecsim.ErrUnsupportedConfiguration, p.Coords(), f.Coords)
		}
		for _, v := range f.Coords.Variables {
			el, ok := p.Coordinate(v)
			if !ok {
				return nil, fmt.Errorf("input point is missing %s", v)
			}
			vars[v+strconv.Itoa(i+1)] = el
			inputs = append(inputs, el.Bytes())
		}
	}
	if err := f.resolveAssumptions(c, vars); err != nil {
		return nil, err
	}
	var intermediates []ecsim.Intermediate
	for _, o := range f.Code {
		v, err := o.Execute(c.Field, vars)
		if err != nil {
			return nil, fmt.Errorf("%s at %q: %w", f, o.String(), err)
		}
		vars[o.Result] = v
		if rec != nil {
			intermediates = append(intermediates, ecsim.Intermediate{Name: o.Result, Value: v.Bytes()})
		}
	}
	out := make([]curve.Point, 0, f.Kind.NumOutputs())
	var outputs [][]byte
	for i := 0; i < f.Kind.NumOutputs(); i++ {
		idx := strconv.Itoa(f.Kind.OutputIndex() + i)
		values := make(map[string]field.Element, len(f.Coords.Variables))
		for _, v := range f.Coords.Variables {
			el, ok := vars[v+idx]
			if !ok {
				return nil, fmt.Errorf("%s did not assign %s%s", f, v, idx)
			}
			values[v] = el
			outputs = append(outputs, el.Bytes())
		}
		out = append(out, curve.NewPoint(f.Coords, values))
	}
	if rec != nil {
		rec.Record(ecsim.Event{
			Formula:       f.Name,
			Kind:          f.Kind.String(),
			Inputs:        inputs,
			Outputs:       outputs,
			Intermediates: intermediates,
		})
	}
	return out, nil
}

// resolveAssumptions evaluates defining assumptions into vars and
// checks constraining ones against the already-bound values.
func (f *Formula) resolveAssumptions(c *curve.Curve, vars map[string]field.Element) error {
	for _, as := range f.Assumptions {
		val, err := op.Eval(as.Expr, c.Field, vars)
		if err != nil {
			return fmt.Errorf("assumption %s of %s: %w", as.Result, f, err)
		}
		if cur, ok := vars[as.Result]; ok {
			if !cur.Equal(val) {
				return fmt.Errorf("%w: %s assumes %s = %s", ecsim.ErrUnsupportedConfiguration,
					f, as.Result, val.Int().Text(10))
			}
			continue
		}
		vars[as.Result] = val
	}
	return nil
}
