package vm

import (
	"context"

	"github.com/hexe-lang/hexe/bytecode"
	"github.com/hexe-lang/hexe/object"
)

// Run executes the given program in a new Virtual Machine and returns the
// content of its return slot.
func Run(ctx context.Context, c *bytecode.Container, options ...Option) (object.Value, error) {
	machine := New(options...)
	if _, err := machine.Execute(ctx, c); err != nil {
		return object.Value{}, err
	}
	return machine.ReturnValue(), nil
}
