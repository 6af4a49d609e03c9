package hexe

import (
	"github.com/hexe-lang/hexe/bytecode"
)

// Program is a compiled Hexe program. It is immutable after creation and
// safe for concurrent use; every execution gets its own Virtual Machine.
type Program struct {
	container *bytecode.Container

	source   string
	filename string
}

// Source returns the source code that was compiled. It is empty for
// programs loaded from an executable.
func (p *Program) Source() string {
	return p.source
}

// Filename returns the filename associated with this program, if any.
func (p *Program) Filename() string {
	return p.filename
}

// Container returns the bytecode of the program.
func (p *Program) Container() *bytecode.Container {
	return p.container
}

// Bytes returns the program encoded as a Hexe executable.
func (p *Program) Bytes() []byte {
	return p.container.Serialize()
}
