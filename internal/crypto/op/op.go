// Package op represents the single arithmetic operations that formula
// bodies are made of, plus the small expression language the formula
// and curve databases are written in.
package op

import (
	"fmt"
	"math/big"

	"github.com/smallyu/go-ecc-sim/internal/crypto/field"
)

// Type identifies a binary or unary field operation.
type Type int

const (
	Add Type = iota
	Sub
	Neg
	Mult
	Div
	Inv
	Sqr
	Pow
	Id
)

// Symbol returns the operator character used in formula sources.
func (t Type) Symbol() string {
	switch t {
	case Add:
		return "+"
	case Sub, Neg:
		return "-"
	case Mult:
		return "*"
	case Div, Inv:
		return "/"
	case Sqr, Pow:
		return "^"
	default:
		return ""
	}
}

// Inputs returns the operand count of the operation type.
func (t Type) Inputs() int {
	switch t {
	case Neg, Inv, Sqr, Id:
		return 1
	default:
		return 2
	}
}

// Operand is either a variable reference or an integer constant.
type Operand struct {
	Name    string
	Const   int64
	IsConst bool
}

func (o Operand) valid() bool {
	return o.IsConst || o.Name != ""
}

func (o Operand) String() string {
	if o.IsConst {
		return fmt.Sprint(o.Const)
	}
	return o.Name
}

// VarOperand makes a variable operand.
func VarOperand(name string) Operand {
	return Operand{Name: name}
}

// ConstOperand makes a constant operand.
func ConstOperand(v int64) Operand {
	return Operand{Const: v, IsConst: true}
}

// Op is one executable straight-line operation, `Result = Left op Right`.
// Unary negation and inversion keep their operand on the right (they
// read as -X and 1/X); squaring and identity keep it on the left.
type Op struct {
	Result string
	Type   Type
	Left   Operand
	Right  Operand
}

// Parents returns the operands the operation actually reads.
func (o Op) Parents() []Operand {
	switch o.Type {
	case Inv, Neg:
		return []Operand{o.Right}
	case Sqr, Id:
		return []Operand{o.Left}
	default:
		return []Operand{o.Left, o.Right}
	}
}

func (o Op) String() string {
	switch o.Type {
	case Inv:
		return fmt.Sprintf("%s = 1/%s", o.Result, o.Right)
	case Neg:
		return fmt.Sprintf("%s = -%s", o.Result, o.Right)
	case Sqr:
		return fmt.Sprintf("%s = %s^2", o.Result, o.Left)
	case Id:
		return fmt.Sprintf("%s = %s", o.Result, o.Left)
	default:
		return fmt.Sprintf("%s = %s%s%s", o.Result, o.Left, o.Type.Symbol(), o.Right)
	}
}

// ParseOp parses one straight-line operation. The right-hand side must
// be a single operation over plain operands; anything deeper is a
// malformed formula source.
func ParseOp(line string) (Op, error) {
	assign, err := ParseAssignment(line)
	if err != nil {
		return Op{}, err
	}
	return FromAssignment(assign)
}

// FromAssignment classifies a parsed assignment into an Op.
func FromAssignment(assign Assignment) (Op, error) {
	operand := func(e Expr) (Operand, bool) {
		switch v := e.(type) {
		case Name:
			return VarOperand(string(v)), true
		case Const:
			return ConstOperand(int64(v)), true
		case *Negate:
			if c, ok := v.X.(Const); ok {
				return ConstOperand(-int64(c)), true
			}
		}
		return Operand{}, false
	}
	bad := func() (Op, error) {
		return Op{}, fmt.Errorf("not a straight-line operation: %q", assign.String())
	}
	switch e := assign.Expr.(type) {
	case Name, Const:
		left, _ := operand(e)
		return Op{Result: assign.Result, Type: Id, Left: left}, nil
	case *Negate:
		right, ok := operand(e.X)
		if !ok {
			return bad()
		}
		return Op{Result: assign.Result, Type: Neg, Right: right}, nil
	case *Bin:
		left, lok := operand(e.L)
		right, rok := operand(e.R)
		if !lok || !rok {
			return bad()
		}
		switch e.Op {
		case Add:
			return Op{Result: assign.Result, Type: Add, Left: left, Right: right}, nil
		case Sub:
			return Op{Result: assign.Result, Type: Sub, Left: left, Right: right}, nil
		case Mult:
			return Op{Result: assign.Result, Type: Mult, Left: left, Right: right}, nil
		case Div:
			if left.IsConst && left.Const == 1 {
				return Op{Result: assign.Result, Type: Inv, Right: right}, nil
			}
			return Op{Result: assign.Result, Type: Div, Left: left, Right: right}, nil
		case Pow:
			if !right.IsConst {
				return bad()
			}
			if right.Const == 2 {
				return Op{Result: assign.Result, Type: Sqr, Left: left}, nil
			}
			return Op{Result: assign.Result, Type: Pow, Left: left, Right: right}, nil
		}
	}
	return bad()
}

// Execute runs the operation over the variable environment and returns
// the result. The caller stores it under o.Result.
func (o Op) Execute(fld field.Field, vars map[string]field.Element) (field.Element, error) {
	get := func(operand Operand) (field.Element, error) {
		if operand.IsConst {
			return fld.FromInt64(operand.Const), nil
		}
		el, ok := vars[operand.Name]
		if !ok {
			return nil, fmt.Errorf("undefined variable %q in %q", operand.Name, o.String())
		}
		return el, nil
	}
	switch o.Type {
	case Id:
		return get(o.Left)
	case Neg:
		x, err := get(o.Right)
		if err != nil {
			return nil, err
		}
		return x.Neg(), nil
	case Inv:
		x, err := get(o.Right)
		if err != nil {
			return nil, err
		}
		return x.Inv()
	case Sqr:
		x, err := get(o.Left)
		if err != nil {
			return nil, err
		}
		return x.Sqr(), nil
	case Pow:
		x, err := get(o.Left)
		if err != nil {
			return nil, err
		}
		return x.Pow(big.NewInt(o.Right.Const)), nil
	}
	left, err := get(o.Left)
	if err != nil {
		return nil, err
	}
	right, err := get(o.Right)
	if err != nil {
		return nil, err
	}
	switch o.Type {
	case Add:
		return left.Add(right), nil
	case Sub:
		return left.Sub(right), nil
	case Mult:
		return left.Mul(right), nil
	case Div:
		return left.Div(right)
	}
	return nil, fmt.Errorf("unknown operation type in %q", o.String())
}
