package formula

import (
	"fmt"

	"github.com/smallyu/go-ecc-sim/internal/crypto/op"
)

// Fliparoo: reassociate and reorder maximal same-operation chains
// (products, and sums with signs) and keep the cheapest resulting
// formula. Reordering by itself never changes the value; it pays off
// when a different sequencing exposes shared subterms that common
// subexpression elimination can then merge.

type chainTerm struct {
	node *Node
	sign int // +1 or -1, always +1 in product chains
}

type chain struct {
	top   *Node
	mul   bool
	terms []chainTerm
}

// findChains locates maximal chains rooted at nodes whose operator
// class differs from their consumer's. Interior nodes must have a
// single consumer, otherwise splitting the chain would duplicate work.
func (g *Graph) findChains() []chain {
	live := g.live()
	uses := g.uses()
	outNodes := make(map[*Node]bool)
	for _, v := range g.outVars {
		outNodes[g.outputs[v]] = true
	}
	class := func(n *Node) int {
		if n.Kind != OpNode {
			return 0
		}
		switch n.Op {
		case op.Mult:
			return 1
		case op.Add, op.Sub:
			return 2
		}
		return 0
	}
	interior := make(map[*Node]bool)
	for _, n := range live {
		c := class(n)
		if c == 0 {
			continue
		}
		for _, in := range n.In {
			if class(in) == c && uses[in] == 1 && !outNodes[in] {
				interior[in] = true
			}
		}
	}
	var chains []chain
	for _, n := range live {
		c := class(n)
		if c == 0 || interior[n] {
			continue
		}
		var terms []chainTerm
		var collect func(m *Node, sign int)
		collect = func(m *Node, sign int) {
			if class(m) == c && (m == n || interior[m]) {
				if m.Op == op.Sub {
					collect(m.In[0], sign)
					collect(m.In[1], -sign)
				} else {
					collect(m.In[0], sign)
					collect(m.In[1], sign)
				}
				return
			}
			terms = append(terms, chainTerm{node: m, sign: sign})
		}
		collect(n, 1)
		if len(terms) >= 3 {
			chains = append(chains, chain{top: n, mul: c == 1, terms: terms})
		}
	}
	return chains
}

// rebuildChain rewrites the chain top in place as a left-leaning
// sequence over the permuted terms. The first term of a sum chain must
// carry a positive sign.
func rebuildChain(g *Graph, ch chain, perm []chainTerm) {
	acc := perm[0].node
	for i := 1; i < len(perm); i++ {
		t := perm[i]
		var n *Node
		if ch.mul {
			n = &Node{Kind: OpNode, Op: op.Mult, In: []*Node{acc, t.node}}
		} else if t.sign > 0 {
			n = &Node{Kind: OpNode, Op: op.Add, In: []*Node{acc, t.node}}
		} else {
			n = &Node{Kind: OpNode, Op: op.Sub, In: []*Node{acc, t.node}}
		}
		if i == len(perm)-1 {
			// The final step takes over the original top node so that
			// consumers keep pointing at the chain result.
			ch.top.Op = n.Op
			ch.top.In = n.In
			return
		}
		g.nodes = append(g.nodes, n)
		acc = n
	}
}

// Fliparoo searches reorderings of the formula's operation chains,
// bounded by evaluating at most budget candidate formulas, and returns
// the candidate with the lowest cost. The input formula itself is the
// baseline, so the result is never worse. Opaque formulas are
// rejected.
func Fliparoo(f *Formula, budget int) (*Formula, error) {
	g, err := NewGraph(f)
	if err != nil {
		return nil, err
	}
	if budget <= 0 {
		budget = 64
	}
	best := f
	bestCost := f.Cost()
	better := func(a, b Metrics) bool {
		if a.Weight() != b.Weight() {
			return a.Weight() < b.Weight()
		}
		return a.Total() < b.Total()
	}
	variant := 0
	for _, ch := range g.findChains() {
		if budget <= 0 {
			break
		}
		perms := permuteTerms(ch, &budget)
		for _, perm := range perms {
			cg, m := g.Clone()
			cperm := make([]chainTerm, len(perm))
			for i, t := range perm {
				cperm[i] = chainTerm{node: m[t.node], sign: t.sign}
			}
			cch := chain{top: m[ch.top], mul: ch.mul}
			rebuildChain(cg, cch, cperm)
			cg.Deduplicate()
			variant++
			cand, err := cg.ToFormula(fmt.Sprintf("%s-flip%d", f.Name, variant))
			if err != nil {
				continue
			}
			if c := cand.Cost(); better(c, bestCost) {
				best = cand
				bestCost = c
			}
		}
	}
	return best, nil
}

// permuteTerms enumerates orderings of a chain's terms, consuming one
// unit of budget per ordering. Sum chains only admit orderings that
// start with a positive term. The identity ordering is skipped.
func permuteTerms(ch chain, budget *int) [][]chainTerm {
	var out [][]chainTerm
	n := len(ch.terms)
	idx := make([]int, n)
	used := make([]bool, n)
	identity := func() bool {
		for i, j := range idx {
			if i != j {
				return false
			}
		}
		return true
	}
	var rec func(depth int)
	rec = func(depth int) {
		if *budget <= 0 {
			return
		}
		if depth == n {
			if identity() {
				return
			}
			perm := make([]chainTerm, n)
			for i, j := range idx {
				perm[i] = ch.terms[j]
			}
			out = append(out, perm)
			*budget--
			return
		}
		for j := 0; j < n; j++ {
			if used[j] {
				continue
			}
			if depth == 0 && !ch.mul && ch.terms[j].sign < 0 {
				continue
			}
			used[j] = true
			idx[depth] = j
			rec(depth + 1)
			used[j] = false
			if *budget <= 0 {
				return
			}
		}
	}
	rec(0)
	return out
}
