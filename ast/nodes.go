package ast

// Decl is a view of a Decl node.
type Decl struct {
	Name     string
	TypeName string
	Const    bool
	Value    NodeID
}

// Decl returns a view of a Decl node.
func (t *Tree) Decl(id NodeID) Decl {
	n := &t.nodes[id]
	return Decl{Name: n.Text, TypeName: n.TypeName, Const: n.Const, Value: t.optional(id, 0)}
}

// Assign is a view of an Assign node.
type Assign struct {
	Operator string
	Target   NodeID
	Value    NodeID
}

// IsCompound reports whether the assignment combines an operator with "=".
func (a Assign) IsCompound() bool {
	return a.Operator != "="
}

// BinaryOperator returns the arithmetic operator of a compound assignment,
// for example "+" for "+=".
func (a Assign) BinaryOperator() string {
	if !a.IsCompound() {
		return ""
	}
	return a.Operator[:len(a.Operator)-1]
}

// Assign returns a view of an Assign node.
func (t *Tree) Assign(id NodeID) Assign {
	n := &t.nodes[id]
	return Assign{Operator: n.Text, Target: n.Children[0], Value: n.Children[1]}
}

// If is a view of an If node. Else is NoNode, a Block, or another If.
type If struct {
	Cond NodeID
	Then NodeID
	Else NodeID
}

// If returns a view of an If node.
func (t *Tree) If(id NodeID) If {
	n := &t.nodes[id]
	return If{Cond: n.Children[0], Then: n.Children[1], Else: t.optional(id, 2)}
}

// Loop is a view of a Loop node. Fields that do not apply to the shape are
// NoNode.
type Loop struct {
	Shape   LoopShape
	Counter string
	Mutable bool
	Cond    NodeID
	Count   NodeID
	Start   NodeID
	End     NodeID
	Body    NodeID
}

// Loop returns a view of a Loop node.
func (t *Tree) Loop(id NodeID) Loop {
	n := &t.nodes[id]
	l := Loop{
		Shape:   n.Shape,
		Counter: n.Text,
		Mutable: n.Mutable,
		Cond:    NoNode,
		Count:   NoNode,
		Start:   NoNode,
		End:     NoNode,
		Body:    NoNode,
	}
	c := n.Children
	switch n.Shape {
	case LoopInfinite:
		l.Body = c[0]
	case LoopWhile:
		l.Cond, l.Body = c[0], c[1]
	case LoopDoWhile:
		l.Body, l.Cond = c[0], c[1]
	case LoopCount:
		l.Count, l.Body = c[0], c[1]
	case LoopRange:
		l.Start, l.End, l.Body = c[0], c[1], c[2]
	}
	return l
}

// Cond returns the condition of a Break or Skip node, or NoNode when the
// jump is unconditional.
func (t *Tree) Cond(id NodeID) NodeID {
	return t.optional(id, 0)
}

// Operand returns the single child of a Return, Print, ExprStmt or Prefix
// node. Return without a value yields NoNode.
func (t *Tree) Operand(id NodeID) NodeID {
	return t.optional(id, 0)
}

// Func is a view of a Func node.
type Func struct {
	Name       string
	ReturnType string
	Params     []NodeID
	Body       NodeID
}

// Func returns a view of a Func node.
func (t *Tree) Func(id NodeID) Func {
	n := &t.nodes[id]
	last := len(n.Children) - 1
	return Func{
		Name:       n.Text,
		ReturnType: n.TypeName,
		Params:     n.Children[:last],
		Body:       n.Children[last],
	}
}

// Param is a view of a Param node.
type Param struct {
	Name     string
	TypeName string
}

// Param returns a view of a Param node.
func (t *Tree) Param(id NodeID) Param {
	n := &t.nodes[id]
	return Param{Name: n.Text, TypeName: n.TypeName}
}

// Name returns the identifier of an Ident node or the callee of a Call node.
func (t *Tree) Name(id NodeID) string {
	return t.nodes[id].Text
}

// Binary returns the operator and operands of an Infix node.
func (t *Tree) Binary(id NodeID) (operator string, lhs, rhs NodeID) {
	n := &t.nodes[id]
	return n.Text, n.Children[0], n.Children[1]
}

// Unary returns the operator and operand of a Prefix node.
func (t *Tree) Unary(id NodeID) (operator string, operand NodeID) {
	n := &t.nodes[id]
	return n.Text, n.Children[0]
}

// Args returns the arguments of a Call node.
func (t *Tree) Args(id NodeID) []NodeID {
	return t.nodes[id].Children
}
