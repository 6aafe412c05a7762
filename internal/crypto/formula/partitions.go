package formula

import (
	"sort"
	"strconv"
	"strings"

	"github.com/smallyu/go-ecc-sim/internal/crypto/op"
)

// Canonical keys under associativity and commutativity: additive
// chains flatten into a signed multiset of terms, multiplicative
// chains into a multiset of factors with exponents. Two nodes with
// equal keys compute the same value regardless of how the chain was
// sequenced.

type signedTerm struct {
	sign int
	key  string
}

type factor struct {
	key string
	exp int64
}

func canonicalKey(n *Node, memo map[*Node]string) string {
	if k, ok := memo[n]; ok {
		return k
	}
	var k string
	switch n.Kind {
	case InputNode:
		k = "v:" + n.Var
	case ConstNode:
		k = "c:" + strconv.FormatInt(n.Value, 10)
	case OpNode:
		switch n.Op {
		case op.Add, op.Sub, op.Neg:
			var terms []signedTerm
			collectTerms(n, 1, &terms, memo)
			parts := make([]string, len(terms))
			for i, t := range terms {
				s := "+"
				if t.sign < 0 {
					s = "-"
				}
				parts[i] = s + t.key
			}
			sort.Strings(parts)
			k = "sum(" + strings.Join(parts, ",") + ")"
		case op.Mult, op.Div, op.Inv, op.Sqr, op.Pow:
			factors := make(map[string]int64)
			collectFactors(n, 1, factors, memo)
			parts := make([]string, 0, len(factors))
			for fk, e := range factors {
				if e == 0 {
					continue
				}
				parts = append(parts, fk+"^"+strconv.FormatInt(e, 10))
			}
			sort.Strings(parts)
			k = "prod(" + strings.Join(parts, ",") + ")"
		default:
			parts := make([]string, len(n.In))
			for i, in := range n.In {
				parts[i] = canonicalKey(in, memo)
			}
			k = "op" + strconv.Itoa(int(n.Op)) + "(" + strings.Join(parts, ",") + ")"
		}
	}
	memo[n] = k
	return k
}

func collectTerms(n *Node, sign int, out *[]signedTerm, memo map[*Node]string) {
	if n.Kind == OpNode {
		switch n.Op {
		case op.Add:
			collectTerms(n.In[0], sign, out, memo)
			collectTerms(n.In[1], sign, out, memo)
			return
		case op.Sub:
			collectTerms(n.In[0], sign, out, memo)
			collectTerms(n.In[1], -sign, out, memo)
			return
		case op.Neg:
			collectTerms(n.In[0], -sign, out, memo)
			return
		}
	}
	*out = append(*out, signedTerm{sign: sign, key: canonicalKey(n, memo)})
}

func collectFactors(n *Node, exp int64, out map[string]int64, memo map[*Node]string) {
	if n.Kind == OpNode {
		switch n.Op {
		case op.Mult:
			collectFactors(n.In[0], exp, out, memo)
			collectFactors(n.In[1], exp, out, memo)
			return
		case op.Div:
			collectFactors(n.In[0], exp, out, memo)
			collectFactors(n.In[1], -exp, out, memo)
			return
		case op.Inv:
			collectFactors(n.In[0], -exp, out, memo)
			return
		case op.Sqr:
			collectFactors(n.In[0], 2*exp, out, memo)
			return
		case op.Pow:
			collectFactors(n.In[0], n.In[1].Value*exp, out, memo)
			return
		}
	}
	out[canonicalKey(n, memo)] += exp
}

// Partition groups the live operation nodes of the graph into
// equivalence classes: nodes in one class compute the same value under
// reassociation and commutation of their chains.
func (g *Graph) Partition() map[string][]*Node {
	memo := make(map[*Node]string)
	classes := make(map[string][]*Node)
	for _, n := range g.live() {
		if n.Kind != OpNode {
			continue
		}
		k := canonicalKey(n, memo)
		classes[k] = append(classes[k], n)
	}
	return classes
}

// OutputKeys returns the canonical key of every output variable.
func (g *Graph) OutputKeys() map[string]string {
	memo := make(map[*Node]string)
	out := make(map[string]string, len(g.outVars))
	for _, v := range g.outVars {
		out[v] = canonicalKey(g.outputs[v], memo)
	}
	return out
}

// SameComputation reports whether two formulas of the same kind and
// coordinate system compute identical outputs up to reassociation and
// commutation. It is a sound but incomplete check: a false answer only
// means the equivalence could not be established structurally.
func SameComputation(a, b *Formula) (bool, error) {
	if a.Kind != b.Kind || a.Coords != b.Coords {
		return false, nil
	}
	ga, err := NewGraph(a)
	if err != nil {
		return false, err
	}
	gb, err := NewGraph(b)
	if err != nil {
		return false, err
	}
	ka := ga.OutputKeys()
	kb := gb.OutputKeys()
	for v, k := range ka {
		if kb[v] != k {
			return false, nil
		}
	}
	return true, nil
}
