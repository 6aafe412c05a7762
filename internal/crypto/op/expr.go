package op

import (
	"fmt"
	"math/big"
	"strconv"
	"strings"

	"github.com/smallyu/go-ecc-sim/internal/crypto/field"
)

// Expr is a parsed arithmetic expression over field elements. The
// grammar covers what the formula database needs: identifiers, integer
// constants, + - * / ^ and unary minus.
type Expr interface {
	exprNode()
	String() string
}

// Name references a variable or curve parameter.
type Name string

// Const is an integer literal.
type Const int64

// Bin is a binary operation. Op is one of Add, Sub, Mult, Div, Pow.
type Bin struct {
	Op   Type
	L, R Expr
}

// Negate is unary minus.
type Negate struct {
	X Expr
}

func (Name) exprNode()    {}
func (Const) exprNode()   {}
func (*Bin) exprNode()    {}
func (*Negate) exprNode() {}

func (n Name) String() string  { return string(n) }
func (c Const) String() string { return strconv.FormatInt(int64(c), 10) }

func (b *Bin) String() string {
	return fmt.Sprintf("%s%s%s", b.L.String(), b.Op.Symbol(), b.R.String())
}

func (n *Negate) String() string { return "-" + n.X.String() }

// Assignment is one `lhs = expr` line.
type Assignment struct {
	Result string
	Expr   Expr
}

func (a Assignment) String() string {
	return a.Result + " = " + a.Expr.String()
}

// ParseAssignment parses a single `lhs = expr` line.
func ParseAssignment(line string) (Assignment, error) {
	eq := strings.Index(line, "=")
	if eq < 0 {
		return Assignment{}, fmt.Errorf("missing '=' in %q", line)
	}
	lhs := strings.TrimSpace(line[:eq])
	if !isIdent(lhs) {
		return Assignment{}, fmt.Errorf("bad assignment target %q", lhs)
	}
	expr, err := ParseExpr(line[eq+1:])
	if err != nil {
		return Assignment{}, err
	}
	return Assignment{Result: lhs, Expr: expr}, nil
}

// ParseExpr parses an expression with the usual precedence; ^ binds
// tightest and associates right.
func ParseExpr(src string) (Expr, error) {
	p := &parser{src: src}
	expr, err := p.parseSum()
	if err != nil {
		return nil, err
	}
	p.skipSpace()
	if p.pos != len(p.src) {
		return nil, fmt.Errorf("trailing input at %d in %q", p.pos, src)
	}
	return expr, nil
}

type parser struct {
	src string
	pos int
}

func (p *parser) skipSpace() {
	for p.pos < len(p.src) && (p.src[p.pos] == ' ' || p.src[p.pos] == '\t') {
		p.pos++
	}
}

func (p *parser) peek() byte {
	p.skipSpace()
	if p.pos >= len(p.src) {
		return 0
	}
	return p.src[p.pos]
}

func (p *parser) parseSum() (Expr, error) {
	left, err := p.parseProduct()
	if err != nil {
		return nil, err
	}
	for {
		switch p.peek() {
		case '+':
			p.pos++
			right, err := p.parseProduct()
			if err != nil {
				return nil, err
			}
			left = &Bin{Op: Add, L: left, R: right}
		case '-':
			p.pos++
			right, err := p.parseProduct()
			if err != nil {
				return nil, err
			}
			left = &Bin{Op: Sub, L: left, R: right}
		default:
			return left, nil
		}
	}
}

func (p *parser) parseProduct() (Expr, error) {
	left, err := p.parsePower()
	if err != nil {
		return nil, err
	}
	for {
		switch p.peek() {
		case '*':
			p.pos++
			right, err := p.parsePower()
			if err != nil {
				return nil, err
			}
			left = &Bin{Op: Mult, L: left, R: right}
		case '/':
			p.pos++
			right, err := p.parsePower()
			if err != nil {
				return nil, err
			}
			left = &Bin{Op: Div, L: left, R: right}
		default:
			return left, nil
		}
	}
}

func (p *parser) parsePower() (Expr, error) {
	base, err := p.parseUnary()
	if err != nil {
		return nil, err
	}
	if p.peek() == '^' {
		p.pos++
		exp, err := p.parsePower()
		if err != nil {
			return nil, err
		}
		return &Bin{Op: Pow, L: base, R: exp}, nil
	}
	return base, nil
}

func (p *parser) parseUnary() (Expr, error) {
	if p.peek() == '-' {
		p.pos++
		x, err := p.parseUnary()
		if err != nil {
			return nil, err
		}
		return &Negate{X: x}, nil
	}
	return p.parseAtom()
}

func (p *parser) parseAtom() (Expr, error) {
	c := p.peek()
	switch {
	case c == '(':
		p.pos++
		expr, err := p.parseSum()
		if err != nil {
			return nil, err
		}
		if p.peek() != ')' {
			return nil, fmt.Errorf("missing ')' in %q", p.src)
		}
		p.pos++
		return expr, nil
	case c >= '0' && c <= '9':
		start := p.pos
		for p.pos < len(p.src) && p.src[p.pos] >= '0' && p.src[p.pos] <= '9' {
			p.pos++
		}
		v, err := strconv.ParseInt(p.src[start:p.pos], 10, 64)
		if err != nil {
			return nil, err
		}
		return Const(v), nil
	case isIdentStart(c):
		start := p.pos
		for p.pos < len(p.src) && isIdentChar(p.src[p.pos]) {
			p.pos++
		}
		return Name(p.src[start:p.pos]), nil
	default:
		return nil, fmt.Errorf("unexpected character %q at %d in %q", c, p.pos, p.src)
	}
}

func isIdentStart(c byte) bool {
	return c == '_' || (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z')
}

func isIdentChar(c byte) bool {
	return isIdentStart(c) || (c >= '0' && c <= '9')
}

func isIdent(s string) bool {
	if s == "" || !isIdentStart(s[0]) {
		return false
	}
	for i := 1; i < len(s); i++ {
		if !isIdentChar(s[i]) {
			return false
		}
	}
	return true
}

// Eval evaluates an expression over the given variable environment.
func Eval(e Expr, fld field.Field, vars map[string]field.Element) (field.Element, error) {
	switch v := e.(type) {
	case Name:
		el, ok := vars[string(v)]
		if !ok {
			return nil, fmt.Errorf("undefined variable %q", string(v))
		}
		return el, nil
	case Const:
		return fld.FromInt64(int64(v)), nil
	case *Negate:
		x, err := Eval(v.X, fld, vars)
		if err != nil {
			return nil, err
		}
		return x.Neg(), nil
	case *Bin:
		left, err := Eval(v.L, fld, vars)
		if err != nil {
			return nil, err
		}
		if v.Op == Pow {
			exp, ok := v.R.(Const)
			if !ok {
				return nil, fmt.Errorf("non-constant exponent in %q", e.String())
			}
			return left.Pow(big.NewInt(int64(exp))), nil
		}
		right, err := Eval(v.R, fld, vars)
		if err != nil {
			return nil, err
		}
		switch v.Op {
		case Add:
			return left.Add(right), nil
		case Sub:
			return left.Sub(right), nil
		case Mult:
			return left.Mul(right), nil
		case Div:
			return left.Div(right)
		}
	}
	return nil, fmt.Errorf("cannot evaluate %q", e.String())
}

// Variables collects all referenced names in the expression.
func Variables(e Expr) []string {
	seen := map[string]bool{}
	var walk func(Expr)
	walk = func(x Expr) {
		switch v := x.(type) {
		case Name:
			seen[string(v)] = true
		case *Negate:
			walk(v.X)
		case *Bin:
			walk(v.L)
			walk(v.R)
		}
	}
	walk(e)
	names := make([]string, 0, len(seen))
	for n := range seen {
		names = append(names, n)
	}
	return names
}
