package ast

import (
	"iter"
	"strings"
)

// Inspect traverses the subtree rooted at id in depth-first order. It calls
// fn for each node; if fn returns false the node's children are skipped.
func (t *Tree) Inspect(id NodeID, fn func(NodeID) bool) {
	if id == NoNode || !fn(id) {
		return
	}
	for _, child := range t.nodes[id].Children {
		t.Inspect(child, fn)
	}
}

// Preorder returns an iterator over the subtree rooted at id in depth-first
// preorder.
func (t *Tree) Preorder(id NodeID) iter.Seq[NodeID] {
	return func(yield func(NodeID) bool) {
		stopped := false
		t.Inspect(id, func(n NodeID) bool {
			if stopped {
				return false
			}
			if !yield(n) {
				stopped = true
				return false
			}
			return true
		})
	}
}

// String renders the subtree rooted at id as source-like text.
func (t *Tree) String(id NodeID) string {
	var b strings.Builder
	t.write(&b, id)
	return b.String()
}

func (t *Tree) writeBlock(b *strings.Builder, id NodeID) {
	b.WriteString("{ ")
	for i, s := range t.nodes[id].Children {
		if i > 0 {
			b.WriteString("; ")
		}
		t.write(b, s)
	}
	b.WriteString(" }")
}

func (t *Tree) write(b *strings.Builder, id NodeID) {
	if id == NoNode {
		return
	}
	n := &t.nodes[id]
	switch n.Kind {
	case ProgramNode:
		for i, s := range n.Children {
			if i > 0 {
				b.WriteString("\n")
			}
			t.write(b, s)
		}
	case BlockNode:
		t.writeBlock(b, id)
	case DeclNode:
		if n.Const {
			b.WriteString("const ")
		} else {
			b.WriteString("data ")
		}
		b.WriteString(n.Text)
		if n.TypeName != "" {
			b.WriteString(": " + n.TypeName)
		}
		b.WriteString(" = ")
		t.write(b, n.Children[0])
	case AssignNode:
		t.write(b, n.Children[0])
		b.WriteString(" " + n.Text + " ")
		t.write(b, n.Children[1])
	case IfNode:
		v := t.If(id)
		b.WriteString("if ")
		t.write(b, v.Cond)
		b.WriteString(" ")
		t.writeBlock(b, v.Then)
		if v.Else != NoNode {
			b.WriteString(" else ")
			t.write(b, v.Else)
		}
	case LoopNode:
		v := t.Loop(id)
		b.WriteString("loop ")
		switch v.Shape {
		case LoopWhile:
			b.WriteString("while ")
			t.write(b, v.Cond)
			b.WriteString(" ")
		case LoopCount:
			t.write(b, v.Count)
			b.WriteString(" ")
		case LoopRange:
			if v.Mutable {
				b.WriteString("mut ")
			}
			b.WriteString(v.Counter + " in ")
			t.write(b, v.Start)
			b.WriteString("..")
			t.write(b, v.End)
			b.WriteString(" ")
		}
		t.writeBlock(b, v.Body)
		if v.Shape == LoopDoWhile {
			b.WriteString(" while ")
			t.write(b, v.Cond)
		}
	case BreakNode, SkipNode:
		if n.Kind == BreakNode {
			b.WriteString("break")
		} else {
			b.WriteString("skip")
		}
		if len(n.Children) > 0 {
			b.WriteString(" if ")
			t.write(b, n.Children[0])
		}
	case ReturnNode:
		b.WriteString("return")
		if len(n.Children) > 0 {
			b.WriteString(" ")
			t.write(b, n.Children[0])
		}
	case PrintNode:
		b.WriteString("print(")
		t.write(b, n.Children[0])
		b.WriteString(")")
	case ExprStmtNode:
		t.write(b, n.Children[0])
	case FuncNode:
		v := t.Func(id)
		b.WriteString("fn " + v.Name + "(")
		for i, p := range v.Params {
			if i > 0 {
				b.WriteString(", ")
			}
			t.write(b, p)
		}
		b.WriteString(")")
		if v.ReturnType != "" {
			b.WriteString(" -> " + v.ReturnType)
		}
		b.WriteString(" ")
		t.writeBlock(b, v.Body)
	case ParamNode:
		b.WriteString(n.Text + ": " + n.TypeName)
	case IdentNode:
		b.WriteString(n.Text)
	case LiteralNode:
		b.WriteString(n.Value.String())
	case PrefixNode:
		b.WriteString("(" + n.Text)
		t.write(b, n.Children[0])
		b.WriteString(")")
	case InfixNode:
		b.WriteString("(")
		t.write(b, n.Children[0])
		b.WriteString(" " + n.Text + " ")
		t.write(b, n.Children[1])
		b.WriteString(")")
	case CallNode:
		b.WriteString(n.Text + "(")
		for i, a := range n.Children {
			if i > 0 {
				b.WriteString(", ")
			}
			t.write(b, a)
		}
		b.WriteString(")")
	default:
		b.WriteString("<bad>")
	}
}
