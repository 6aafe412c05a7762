package formula

import (
	"fmt"

	"github.com/smallyu/go-ecc-sim/internal/crypto/op"
)

// Switch-sign rewriting: negate the value of chosen nodes and push the
// sign change through the rest of the graph, rewriting additions into
// subtractions and vice versa along the way. A rewrite is only valid
// when the final output signs describe the same projective point,
// which the coordinate system's homogeneity weights decide: scaling by
// lambda = -1 multiplies each variable v by (-1)^weight(v).

// propagateSigns runs a forward pass over the clone, rewriting nodes
// based on the sign parity of their operands. seeds are nodes whose
// value is forcibly negated. It returns the resulting sign of every
// node (+1 or -1), or an error when a sign reaches an operation it
// cannot pass through.
func propagateSigns(g *Graph, seeds map[*Node]bool) (map[*Node]int, error) {
	sign := make(map[*Node]int)
	for _, n := range g.live() {
		s := 1
		switch n.Kind {
		case InputNode, ConstNode:
			// Seeded inputs model a negated curve parameter.
		case OpNode:
			switch n.Op {
			case op.Add:
				l, r := sign[n.In[0]], sign[n.In[1]]
				switch {
				case l < 0 && r < 0:
					s = -1
				case l < 0:
					// (-a) + b = b - a
					n.Op = op.Sub
					n.In[0], n.In[1] = n.In[1], n.In[0]
				case r < 0:
					// a + (-b) = a - b
					n.Op = op.Sub
				}
			case op.Sub:
				l, r := sign[n.In[0]], sign[n.In[1]]
				switch {
				case l < 0 && r < 0:
					// (-a) - (-b) = -(a - b)
					s = -1
				case l < 0:
					// (-a) - b = -(a + b)
					n.Op = op.Add
					s = -1
				case r < 0:
					// a - (-b) = a + b
					n.Op = op.Add
				}
			case op.Neg, op.Id:
				s = sign[n.In[0]]
			case op.Mult, op.Div:
				s = sign[n.In[0]] * sign[n.In[1]]
			case op.Inv:
				s = sign[n.In[0]]
			case op.Sqr:
				s = 1
			case op.Pow:
				if n.In[1].Value%2 == 0 {
					s = 1
				} else {
					s = sign[n.In[0]]
				}
			default:
				if sign[n.In[0]] < 0 || (len(n.In) > 1 && sign[n.In[1]] < 0) {
					return nil, fmt.Errorf("sign cannot pass through %s", n.Op.Symbol())
				}
			}
		}
		if seeds[n] {
			switch {
			case n.Kind != OpNode:
				// The value arrives negated from outside; nothing to
				// rewrite.
				s = -s
			case n.Op == op.Sub:
				// b - a = -(a - b): the swap negates the node's value,
				// and downstream rewrites must see that negation.
				n.In[0], n.In[1] = n.In[1], n.In[0]
				s = -s
			default:
				return nil, fmt.Errorf("cannot negate a %s node in place", n.Op.Symbol())
			}
		}
		if s == 0 {
			s = 1
		}
		sign[n] = s
	}
	return sign, nil
}

// validOutputSigns checks that the output sign vector corresponds to a
// projective rescaling by +1 or -1 under the given homogeneity
// weights. Affine-like systems (all weights zero or absent) require
// every sign to be positive.
func validOutputSigns(g *Graph, signs map[*Node]int, weights map[string]int) bool {
	for _, lambda := range []int{1, -1} {
		ok := true
		for _, v := range g.outVars {
			base := baseVariable(v)
			w, known := weights[base]
			want := 1
			if known && w%2 == 1 {
				want = lambda
			}
			if !known {
				want = 1
			}
			if signs[g.outputs[v]] != want {
				ok = false
				break
			}
		}
		if ok {
			return true
		}
	}
	return false
}

// baseVariable strips the trailing point index from an output
// variable, X3 -> X.
func baseVariable(v string) string {
	i := len(v)
	for i > 0 && v[i-1] >= '0' && v[i-1] <= '9' {
		i--
	}
	return v[:i]
}

// SwitchSigns enumerates sign-switched variants of a formula. Each
// variant picks a subset of subtraction nodes, reverses them, and
// propagates; only variants whose outputs stay projectively equal to
// the original survive. At most budget subsets are tried. Opaque
// formulas are rejected.
func SwitchSigns(f *Formula, budget int) ([]*Formula, error) {
	g, err := NewGraph(f)
	if err != nil {
		return nil, err
	}
	if budget <= 0 {
		budget = 128
	}
	var subs []*Node
	for _, n := range g.live() {
		if n.Kind == OpNode && n.Op == op.Sub {
			subs = append(subs, n)
		}
	}
	weights := f.Coords.HomogWeights
	var out []*Formula
	// Subsets are enumerated as bitmasks, smallest first, so single
	// switches come before compound ones.
	total := 1 << uint(len(subs))
	if len(subs) > 16 {
		total = 1 << 16
	}
	for mask := 1; mask < total && budget > 0; mask++ {
		budget--
		cg, m := g.Clone()
		seeds := make(map[*Node]bool)
		for i, n := range subs {
			if mask&(1<<uint(i)) != 0 {
				seeds[m[n]] = true
			}
		}
		signs, err := propagateSigns(cg, seeds)
		if err != nil {
			continue
		}
		if !validOutputSigns(cg, signs, weights) {
			continue
		}
		cand, err := cg.ToFormula(fmt.Sprintf("%s-switch%d", f.Name, mask))
		if err != nil {
			continue
		}
		out = append(out, cand)
	}
	return out, nil
}

// NegateParameter derives the formula valid for a curve with the named
// parameter negated: occurrences of the parameter are treated as
// carrying a flipped sign and the change is propagated to the outputs.
// The result computes the same point on the curve whose parameter is
// -value. An error is returned when the sign change cannot be absorbed.
func NegateParameter(f *Formula, param string) (*Formula, error) {
	g, err := NewGraph(f)
	if err != nil {
		return nil, err
	}
	node, ok := g.inputs[param]
	if !ok {
		return nil, fmt.Errorf("formula %s does not use parameter %q", f, param)
	}
	seeds := map[*Node]bool{node: true}
	signs, err := propagateSigns(g, seeds)
	if err != nil {
		return nil, err
	}
	if !validOutputSigns(g, signs, f.Coords.HomogWeights) {
		return nil, fmt.Errorf("negating %q changes the outputs of %s", param, f)
	}
	return g.ToFormula(f.Name + "-neg-" + param)
}
