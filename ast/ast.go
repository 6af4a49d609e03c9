// Package ast defines the abstract syntax tree representation of Hexe code.
//
// The tree is an arena: every node lives in a single slice owned by a Tree
// and nodes refer to their children by NodeID. The node kind is a closed
// enumeration, so consumers dispatch with a switch over Kind.
package ast

import (
	"fmt"

	"github.com/hexe-lang/hexe/internal/token"
	"github.com/hexe-lang/hexe/object"
)

// NodeID addresses a node within a Tree.
type NodeID int32

// NoNode marks an absent optional child.
const NoNode NodeID = -1

// Kind identifies the type of a node.
type Kind uint8

const (
	BadNode Kind = iota
	ProgramNode
	BlockNode
	DeclNode
	AssignNode
	IfNode
	LoopNode
	BreakNode
	SkipNode
	ReturnNode
	PrintNode
	ExprStmtNode
	FuncNode
	ParamNode
	IdentNode
	LiteralNode
	PrefixNode
	InfixNode
	CallNode
)

var kindNames = [...]string{
	BadNode:      "Bad",
	ProgramNode:  "Program",
	BlockNode:    "Block",
	DeclNode:     "Decl",
	AssignNode:   "Assign",
	IfNode:       "If",
	LoopNode:     "Loop",
	BreakNode:    "Break",
	SkipNode:     "Skip",
	ReturnNode:   "Return",
	PrintNode:    "Print",
	ExprStmtNode: "ExprStmt",
	FuncNode:     "Func",
	ParamNode:    "Param",
	IdentNode:    "Ident",
	LiteralNode:  "Literal",
	PrefixNode:   "Prefix",
	InfixNode:    "Infix",
	CallNode:     "Call",
}

func (k Kind) String() string {
	if int(k) < len(kindNames) {
		return kindNames[k]
	}
	return fmt.Sprintf("Kind(%d)", k)
}

// IsExpr reports whether nodes of this kind produce a value.
func (k Kind) IsExpr() bool {
	switch k {
	case IdentNode, LiteralNode, PrefixNode, InfixNode, CallNode:
		return true
	}
	return false
}

// LoopShape distinguishes the loop forms.
type LoopShape uint8

const (
	LoopInfinite LoopShape = iota // loop { }
	LoopWhile                     // loop while c { }
	LoopDoWhile                   // loop { } while c
	LoopCount                     // loop N { }
	LoopRange                     // loop i in a..b { }
)

func (s LoopShape) String() string {
	switch s {
	case LoopInfinite:
		return "infinite"
	case LoopWhile:
		return "while"
	case LoopDoWhile:
		return "do-while"
	case LoopCount:
		return "count"
	case LoopRange:
		return "range"
	}
	return fmt.Sprintf("LoopShape(%d)", s)
}

// Node is one entry of the arena. The meaning of Text, TypeName and
// Children depends on Kind; use the accessors on Tree to read them.
//
//	Program   Children: statements
//	Block     Children: statements
//	Decl      Text: name, TypeName: annotation, Const; Children: [value]
//	Assign    Text: operator ("=", "+=", ...); Children: [target, value]
//	If        Children: [cond, then, else?]
//	Loop      Shape; Text: counter, Mutable; Children by shape (see Loop)
//	Break     Children: [cond?]
//	Skip      Children: [cond?]
//	Return    Children: [value?]
//	Print     Children: [value]
//	ExprStmt  Children: [expr]
//	Func      Text: name, TypeName: return type; Children: [params..., body]
//	Param     Text: name, TypeName: type
//	Ident     Text: name
//	Literal   Value
//	Prefix    Text: operator; Children: [operand]
//	Infix     Text: operator; Children: [lhs, rhs]
//	Call      Text: callee; Children: arguments
type Node struct {
	Kind     Kind
	Pos      token.Position
	End      token.Position
	Text     string
	TypeName string
	Const    bool
	Mutable  bool
	Shape    LoopShape
	Value    object.Value
	Children []NodeID
}

// Tree is an arena of nodes rooted at a Program node.
type Tree struct {
	nodes    []Node
	Root     NodeID
	Source   string
	Filename string
}

// NewTree returns an empty tree for the given source.
func NewTree(source, filename string) *Tree {
	return &Tree{Root: NoNode, Source: source, Filename: filename}
}

// Add appends a node and returns its ID.
func (t *Tree) Add(n Node) NodeID {
	t.nodes = append(t.nodes, n)
	return NodeID(len(t.nodes) - 1)
}

// Len returns the number of nodes in the arena.
func (t *Tree) Len() int {
	return len(t.nodes)
}

// Node returns the node with the given ID. The pointer is invalidated by the
// next call to Add.
func (t *Tree) Node(id NodeID) *Node {
	return &t.nodes[id]
}

// Kind returns the kind of a node.
func (t *Tree) Kind(id NodeID) Kind {
	return t.nodes[id].Kind
}

// Pos returns the start position of a node.
func (t *Tree) Pos(id NodeID) token.Position {
	return t.nodes[id].Pos
}

// Children returns the child IDs of a node.
func (t *Tree) Children(id NodeID) []NodeID {
	return t.nodes[id].Children
}

// Statements returns the statements of a Program or Block node.
func (t *Tree) Statements(id NodeID) []NodeID {
	return t.nodes[id].Children
}

// optional returns the i-th child or NoNode.
func (t *Tree) optional(id NodeID, i int) NodeID {
	if c := t.nodes[id].Children; i < len(c) {
		return c[i]
	}
	return NoNode
}
