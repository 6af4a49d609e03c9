// Package sema type-checks a parsed Hexe program and records the facts the
// code generator relies on: function signatures, global names and the type
// of every expression.
package sema

import (
	"github.com/hexe-lang/hexe/ast"
	"github.com/hexe-lang/hexe/object"
)

// MainFunction is the name of the function that, when present, is called
// after the global statements run.
const MainFunction = "Main"

// Param is a function parameter.
type Param struct {
	Name string
	Type object.Type
}

// Function is the signature of a declared function. Return is object.NONE
// for functions that do not return a value.
type Function struct {
	Name   string
	Params []Param
	Return object.Type
	Node   ast.NodeID
}

// IsVoid reports whether the function returns no value.
func (f *Function) IsVoid() bool {
	return f.Return == object.NONE
}

// Info is the result of analysis.
type Info struct {
	functions map[string]*Function
	order     []string
	globals   []string
	types     map[ast.NodeID]object.Type
}

func newInfo() *Info {
	return &Info{
		functions: map[string]*Function{},
		types:     map[ast.NodeID]object.Type{},
	}
}

// Function returns the signature of the named function.
func (i *Info) Function(name string) (*Function, bool) {
	f, ok := i.functions[name]
	return f, ok
}

// Functions returns every function in source order.
func (i *Info) Functions() []*Function {
	result := make([]*Function, 0, len(i.order))
	for _, name := range i.order {
		result = append(result, i.functions[name])
	}
	return result
}

// HasMain reports whether the program declares a Main function.
func (i *Info) HasMain() bool {
	_, ok := i.functions[MainFunction]
	return ok
}

// Globals returns the names declared by top-level statements, in order.
func (i *Info) Globals() []string {
	return i.globals
}

// TypeOf returns the type of an expression node, or object.INVALID if the
// node was not typed.
func (i *Info) TypeOf(id ast.NodeID) object.Type {
	if t, ok := i.types[id]; ok {
		return t
	}
	return object.INVALID
}
