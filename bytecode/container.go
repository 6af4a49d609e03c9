package bytecode

import (
	"encoding/binary"
	"errors"
	"fmt"

	"github.com/hexe-lang/hexe/object"
	"github.com/hexe-lang/hexe/op"
)

// MaxConstants is the maximum number of entries in a constant pool.
const MaxConstants = 65535

// ErrTooManyConstants is returned by AddConstant once the pool is full.
var ErrTooManyConstants = errors.New("constant pool is full")

// Container holds an instruction stream and its constant pool.
type Container struct {
	instructions []byte
	constants    []object.Value
	index        map[string]uint16
	entryPoint   uint64
	mainFrame    uint16
	version      Version
}

// NewContainer returns an empty container stamped with CurrentVersion.
func NewContainer() *Container {
	return &Container{
		index:   map[string]uint16{},
		version: CurrentVersion,
	}
}

// Write appends an opcode and its 16-bit operands and returns the byte
// offset of the opcode.
func (c *Container) Write(code op.Code, operands ...uint16) int {
	offset := len(c.instructions)
	c.instructions = append(c.instructions, byte(code))
	for _, operand := range operands {
		c.instructions = binary.LittleEndian.AppendUint16(c.instructions, operand)
	}
	return offset
}

// WriteCall appends a Call instruction and returns its byte offset.
func (c *Container) WriteCall(frameSize uint8, address uint32) int {
	offset := len(c.instructions)
	c.instructions = append(c.instructions, byte(op.Call), frameSize)
	c.instructions = binary.LittleEndian.AppendUint32(c.instructions, address)
	return offset
}

// Patch overwrites the 16-bit operand at position operand (0-based) of the
// instruction starting at offset.
func (c *Container) Patch(offset int, value uint16, operand int) {
	pos := offset + 1 + operand*2
	binary.LittleEndian.PutUint16(c.instructions[pos:pos+2], value)
}

// PatchCall overwrites the address operand of the Call at offset.
func (c *Container) PatchCall(offset int, address uint32) {
	pos := offset + 2
	binary.LittleEndian.PutUint32(c.instructions[pos:pos+4], address)
}

// AddConstant adds v to the constant pool and returns its index. A value
// equal to an existing entry returns the existing index.
func (c *Container) AddConstant(v object.Value) (uint16, error) {
	if !v.IsValid() {
		return 0, fmt.Errorf("cannot add an invalid value to the constant pool")
	}
	key := v.Key()
	if idx, ok := c.index[key]; ok {
		return idx, nil
	}
	if len(c.constants) >= MaxConstants {
		return 0, ErrTooManyConstants
	}
	idx := uint16(len(c.constants))
	c.constants = append(c.constants, v.Copy())
	c.index[key] = idx
	return idx, nil
}

// Len returns the length of the instruction stream in bytes.
func (c *Container) Len() int {
	return len(c.instructions)
}

// Instructions returns a copy of the instruction stream.
func (c *Container) Instructions() []byte {
	out := make([]byte, len(c.instructions))
	copy(out, c.instructions)
	return out
}

// ConstantCount returns the number of constants in the pool.
func (c *Container) ConstantCount() int {
	return len(c.constants)
}

// ConstantAt returns a copy of the constant at index i.
func (c *Container) ConstantAt(i int) object.Value {
	return c.constants[i].Copy()
}

// EntryPoint returns the byte offset where execution starts.
func (c *Container) EntryPoint() uint64 {
	return c.entryPoint
}

// SetEntryPoint sets the byte offset where execution starts.
func (c *Container) SetEntryPoint(offset uint64) {
	c.entryPoint = offset
}

// MainFrame returns the number of registers used by global code.
func (c *Container) MainFrame() uint16 {
	return c.mainFrame
}

// SetMainFrame sets the number of registers used by global code.
func (c *Container) SetMainFrame(size uint16) {
	c.mainFrame = size
}

// Version returns the format version the container was built or loaded with.
func (c *Container) Version() Version {
	return c.version
}

// IsEmpty reports whether the container has neither instructions nor
// constants.
func (c *Container) IsEmpty() bool {
	return len(c.instructions) == 0 && len(c.constants) == 0
}

// Equal reports whether two containers hold the same instructions,
// constants, entry point and main frame size.
func (c *Container) Equal(other *Container) bool {
	if c == nil || other == nil {
		return c == other
	}
	if c.entryPoint != other.entryPoint || c.mainFrame != other.mainFrame {
		return false
	}
	if string(c.instructions) != string(other.instructions) {
		return false
	}
	if len(c.constants) != len(other.constants) {
		return false
	}
	for i := range c.constants {
		if !c.constants[i].Equals(other.constants[i]) {
			return false
		}
	}
	return true
}

// Stats contains statistics about a container. It is useful for auditing
// executables before running them.
type Stats struct {
	InstructionCount int    `json:"instruction_count"`
	CodeBytes        int    `json:"code_bytes"`
	ConstantCount    int    `json:"constant_count"`
	EntryPoint       uint64 `json:"entry_point"`
	MainFrame        uint16 `json:"main_frame"`
	Version          string `json:"version"`
}

// Stats decodes the instruction stream and summarizes the container.
func (c *Container) Stats() (Stats, error) {
	stats := Stats{
		CodeBytes:     len(c.instructions),
		ConstantCount: len(c.constants),
		EntryPoint:    c.entryPoint,
		MainFrame:     c.mainFrame,
		Version:       c.version.String(),
	}
	iter := NewInstructionIter(c)
	for {
		if _, ok := iter.Next(); !ok {
			break
		}
		stats.InstructionCount++
	}
	return stats, iter.Err()
}
