package formula

import (
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/smallyu/go-ecc-sim/internal/crypto/op"
	"github.com/smallyu/go-ecc-sim/pkg/ecsim"
)

// NodeKind distinguishes the three node shapes of a formula graph.
type NodeKind int

const (
	// InputNode is an input coordinate or a parameter.
	InputNode NodeKind = iota
	// ConstNode is an integer constant.
	ConstNode
	// OpNode is one field operation over earlier nodes.
	OpNode
)

// Node is one vertex of a formula graph.
type Node struct {
	Kind NodeKind

	// Var is the variable name of an input node.
	Var string

	// Value is the constant of a const node, and the exponent operand
	// of Pow nodes appears as a const child instead.
	Value int64

	// Op is the operation of an op node.
	Op op.Type

	// In are the operand nodes in evaluation order. Unary operations
	// have one entry, Pow has the base followed by a const exponent.
	In []*Node
}

// Graph is a formula body as a DAG: operands become edges, repeated
// constants are shared, and every output variable points at the node
// producing it. A graph always belongs to the formula it was built
// from; rewrites work on clones.
type Graph struct {
	Name        string
	Kind        Kind
	Parameters  []string
	Assumptions []op.Assignment
	Unified     bool

	srcFormula *Formula

	nodes   []*Node
	inputs  map[string]*Node
	consts  map[int64]*Node
	outputs map[string]*Node
	outVars []string
}

// NewGraph builds the graph form of a formula. Opaque formulas are
// rejected: without provenance there is no guarantee the listing obeys
// the structural conventions rewriting relies on.
func NewGraph(f *Formula) (*Graph, error) {
	if f.Opaque {
		return nil, fmt.Errorf("%w: formula %s is opaque and cannot be rewritten",
			ecsim.ErrUnsupportedConfiguration, f)
	}
	g := &Graph{
		Name:        f.Name,
		Kind:        f.Kind,
		Parameters:  append([]string(nil), f.Parameters...),
		Assumptions: append([]op.Assignment(nil), f.Assumptions...),
		Unified:     f.Unified,
		inputs:      make(map[string]*Node),
		consts:      make(map[int64]*Node),
		outputs:     make(map[string]*Node),
	}
	g.srcFormula = f
	env := make(map[string]*Node)
	for _, v := range f.InputVariables() {
		n := &Node{Kind: InputNode, Var: v}
		g.nodes = append(g.nodes, n)
		g.inputs[v] = n
		env[v] = n
	}
	outSet := make(map[string]bool)
	g.outVars = f.OutputVariables()
	for _, v := range g.outVars {
		outSet[v] = true
	}
	operand := func(o op.Operand) (*Node, error) {
		if o.IsConst {
			return g.constNode(o.Const), nil
		}
		if n, ok := env[o.Name]; ok {
			return n, nil
		}
		// Parameters are materialized lazily, only when referenced.
		n := &Node{Kind: InputNode, Var: o.Name}
		g.nodes = append(g.nodes, n)
		g.inputs[o.Name] = n
		env[o.Name] = n
		return n, nil
	}
	for _, o := range f.Code {
		var node *Node
		switch o.Type {
		case op.Id:
			src, err := operand(o.Left)
			if err != nil {
				return nil, err
			}
			env[o.Result] = src
			if outSet[o.Result] {
				g.outputs[o.Result] = src
			}
			continue
		case op.Neg, op.Inv:
			in, err := operand(o.Right)
			if err != nil {
				return nil, err
			}
			node = &Node{Kind: OpNode, Op: o.Type, In: []*Node{in}}
		case op.Sqr:
			in, err := operand(o.Left)
			if err != nil {
				return nil, err
			}
			node = &Node{Kind: OpNode, Op: op.Sqr, In: []*Node{in}}
		case op.Pow:
			base, err := operand(o.Left)
			if err != nil {
				return nil, err
			}
			node = &Node{Kind: OpNode, Op: op.Pow, In: []*Node{base, g.constNode(o.Right.Const)}}
		default:
			left, err := operand(o.Left)
			if err != nil {
				return nil, err
			}
			right, err := operand(o.Right)
			if err != nil {
				return nil, err
			}
			node = &Node{Kind: OpNode, Op: o.Type, In: []*Node{left, right}}
		}
		g.nodes = append(g.nodes, node)
		env[o.Result] = node
		if outSet[o.Result] {
			g.outputs[o.Result] = node
		}
	}
	for _, v := range g.outVars {
		if g.outputs[v] == nil {
			return nil, fmt.Errorf("formula %s never assigns output %s", f, v)
		}
	}
	return g, nil
}

func (g *Graph) constNode(v int64) *Node {
	if n, ok := g.consts[v]; ok {
		return n
	}
	n := &Node{Kind: ConstNode, Value: v}
	g.nodes = append(g.nodes, n)
	g.consts[v] = n
	return n
}

// Clone deep-copies the graph and returns the node correspondence.
func (g *Graph) Clone() (*Graph, map[*Node]*Node) {
	m := make(map[*Node]*Node, len(g.nodes))
	for _, n := range g.nodes {
		cp := &Node{Kind: n.Kind, Var: n.Var, Value: n.Value, Op: n.Op}
		m[n] = cp
	}
	for _, n := range g.nodes {
		cp := m[n]
		for _, in := range n.In {
			cp.In = append(cp.In, m[in])
		}
	}
	out := &Graph{
		Name:        g.Name,
		Kind:        g.Kind,
		Parameters:  append([]string(nil), g.Parameters...),
		Assumptions: append([]op.Assignment(nil), g.Assumptions...),
		Unified:     g.Unified,
		inputs:      make(map[string]*Node, len(g.inputs)),
		consts:      make(map[int64]*Node, len(g.consts)),
		outputs:     make(map[string]*Node, len(g.outputs)),
		outVars:     append([]string(nil), g.outVars...),
	}
	out.srcFormula = g.srcFormula
	for _, n := range g.nodes {
		out.nodes = append(out.nodes, m[n])
	}
	for k, n := range g.inputs {
		out.inputs[k] = m[n]
	}
	for k, n := range g.consts {
		out.consts[k] = m[n]
	}
	for k, n := range g.outputs {
		out.outputs[k] = m[n]
	}
	return out, m
}

// live returns the nodes reachable from the outputs, in a valid
// evaluation order. Rewrites may strand nodes; those are dropped here.
func (g *Graph) live() []*Node {
	var order []*Node
	seen := make(map[*Node]bool)
	var visit func(n *Node)
	visit = func(n *Node) {
		if seen[n] {
			return
		}
		seen[n] = true
		for _, in := range n.In {
			visit(in)
		}
		order = append(order, n)
	}
	for _, v := range g.outVars {
		visit(g.outputs[v])
	}
	return order
}

// uses counts consumers of every live node.
func (g *Graph) uses() map[*Node]int {
	u := make(map[*Node]int)
	for _, n := range g.live() {
		for _, in := range n.In {
			u[in]++
		}
	}
	return u
}

// ToFormula linearizes the graph back into an executable formula.
// Output nodes keep their output variable names, everything else gets
// a fresh intermediate name.
func (g *Graph) ToFormula(name string) (*Formula, error) {
	f := &Formula{
		Name:        name,
		Kind:        g.Kind,
		Coords:      g.srcFormula.Coords,
		Parameters:  append([]string(nil), g.Parameters...),
		Assumptions: append([]op.Assignment(nil), g.Assumptions...),
		Unified:     g.Unified,
	}
	names := make(map[*Node]string)
	outOf := make(map[*Node][]string)
	for _, v := range g.outVars {
		outOf[g.outputs[v]] = append(outOf[g.outputs[v]], v)
	}
	fresh := 0
	nameOf := func(n *Node) string {
		if s, ok := names[n]; ok {
			return s
		}
		var s string
		if n.Kind == InputNode {
			s = n.Var
		} else if vs := outOf[n]; len(vs) > 0 {
			s = vs[0]
		} else {
			s = "iv" + strconv.Itoa(fresh)
			fresh++
		}
		names[n] = s
		return s
	}
	asOperand := func(n *Node) op.Operand {
		if n.Kind == ConstNode {
			return op.ConstOperand(n.Value)
		}
		return op.VarOperand(nameOf(n))
	}
	var code []op.Op
	for _, n := range g.live() {
		if n.Kind != OpNode {
			continue
		}
		res := nameOf(n)
		o := op.Op{Result: res, Type: n.Op}
		switch n.Op {
		case op.Neg, op.Inv:
			o.Right = asOperand(n.In[0])
		case op.Sqr:
			o.Left = asOperand(n.In[0])
		case op.Pow:
			o.Left = asOperand(n.In[0])
			o.Right = op.ConstOperand(n.In[1].Value)
		default:
			o.Left = asOperand(n.In[0])
			o.Right = asOperand(n.In[1])
		}
		code = append(code, o)
	}
	// Outputs aliased to inputs or constants, and nodes feeding several
	// outputs, need explicit copies.
	for _, v := range g.outVars {
		n := g.outputs[v]
		if n.Kind == OpNode && names[n] == v {
			continue
		}
		if n.Kind == ConstNode {
			code = append(code, op.Op{Result: v, Type: op.Id, Left: op.ConstOperand(n.Value)})
			continue
		}
		code = append(code, op.Op{Result: v, Type: op.Id, Left: op.VarOperand(nameOf(n))})
	}
	f.Code = code
	if err := f.Validate(); err != nil {
		return nil, err
	}
	return f, nil
}

// Deduplicate merges structurally identical subcomputations, treating
// addition and multiplication as commutative. Returns the number of
// nodes removed.
func (g *Graph) Deduplicate() int {
	ids := make(map[*Node]int)
	keys := make(map[string]*Node)
	repl := make(map[*Node]*Node)
	next := 0
	removed := 0
	resolve := func(n *Node) *Node {
		for {
			r, ok := repl[n]
			if !ok {
				return n
			}
			n = r
		}
	}
	assign := func(n *Node, key string) {
		if prev, ok := keys[key]; ok && prev != n {
			repl[n] = prev
			ids[n] = ids[prev]
			removed++
			return
		}
		keys[key] = n
		ids[n] = next
		next++
	}
	for _, n := range g.nodes {
		switch n.Kind {
		case InputNode:
			assign(n, "v:"+n.Var)
		case ConstNode:
			assign(n, "c:"+strconv.FormatInt(n.Value, 10))
		}
	}
	// Operand ids must exist before a consumer's key is formed, so op
	// nodes are visited in evaluation order regardless of how rewrites
	// ordered the node list.
	for _, n := range g.live() {
		if n.Kind != OpNode {
			continue
		}
		for i, in := range n.In {
			n.In[i] = resolve(in)
		}
		parts := make([]string, len(n.In))
		for i, in := range n.In {
			parts[i] = strconv.Itoa(ids[in])
		}
		if n.Op == op.Add || n.Op == op.Mult {
			sort.Strings(parts)
		}
		assign(n, n.Op.Symbol()+strconv.Itoa(int(n.Op))+":"+strings.Join(parts, ","))
	}
	if removed == 0 {
		return 0
	}
	for v, n := range g.outputs {
		g.outputs[v] = resolve(n)
	}
	liveSet := make(map[*Node]bool)
	for _, n := range g.live() {
		liveSet[n] = true
	}
	var kept []*Node
	for _, n := range g.nodes {
		if _, dup := repl[n]; dup {
			continue
		}
		if n.Kind == OpNode && !liveSet[n] {
			continue
		}
		kept = append(kept, n)
	}
	g.nodes = kept
	return removed
}
