package compiler

import (
	"github.com/hexe-lang/hexe/ast"
	"github.com/hexe-lang/hexe/object"
)

// Function is the code generator's metadata for a declared function.
type Function struct {
	Name   string
	Return object.Type

	// Address is the byte offset of the first instruction, or -1 until the
	// body has been emitted.
	Address int

	// Frame allocates the registers of the function's window. Parameters
	// occupy the first registers.
	Frame *RegisterFrame

	params []string
}

func newFunction(name string, ret object.Type, params []string) *Function {
	f := &Function{
		Name:    name,
		Return:  ret,
		Address: -1,
		Frame:   NewRegisterFrame(),
		params:  params,
	}
	f.Frame.Reserve(len(params))
	return f
}

// FrameSize returns the number of registers the function's window needs.
func (f *Function) FrameSize() int {
	return f.Frame.Total()
}

// IsVoid reports whether the function returns no value.
func (f *Function) IsVoid() bool {
	return f.Return == object.NONE
}

// pendingCall is a Call whose target address was unknown when it was
// emitted.
type pendingCall struct {
	offset int
	callee string
	node   ast.NodeID
}
