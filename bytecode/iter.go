package bytecode

import (
	"encoding/binary"
	"fmt"

	"github.com/hexe-lang/hexe/op"
)

// Instruction is one decoded instruction.
type Instruction struct {
	Offset   int
	Opcode   op.Code
	Operands []uint32
}

// Size returns the encoded size of the instruction in bytes.
func (i Instruction) Size() int {
	return op.GetInfo(i.Opcode).Size()
}

// InstructionIter iterates over the instructions in a Container.
type InstructionIter struct {
	code []byte
	pos  int
	err  error
}

// NewInstructionIter creates a new instruction iterator for the given
// container.
func NewInstructionIter(c *Container) *InstructionIter {
	return &InstructionIter{code: c.instructions}
}

// Next decodes the next instruction. It returns false at the end of the
// stream or when the stream is malformed; Err distinguishes the two.
func (i *InstructionIter) Next() (Instruction, bool) {
	if i.err != nil || i.pos >= len(i.code) {
		return Instruction{}, false
	}
	code := op.Code(i.code[i.pos])
	info := op.GetInfo(code)
	if !info.IsValid() {
		i.err = fmt.Errorf("unknown opcode %d at offset %d", code, i.pos)
		return Instruction{}, false
	}
	if i.pos+info.Size() > len(i.code) {
		i.err = fmt.Errorf("truncated %s instruction at offset %d", info.Name, i.pos)
		return Instruction{}, false
	}
	instr := Instruction{Offset: i.pos, Opcode: code}
	if len(info.Operands) > 0 {
		instr.Operands = make([]uint32, len(info.Operands))
	}
	pos := i.pos + 1
	for j, operand := range info.Operands {
		switch operand.Width() {
		case 1:
			instr.Operands[j] = uint32(i.code[pos])
		case 2:
			instr.Operands[j] = uint32(binary.LittleEndian.Uint16(i.code[pos:]))
		case 4:
			instr.Operands[j] = binary.LittleEndian.Uint32(i.code[pos:])
		}
		pos += operand.Width()
	}
	i.pos = pos
	return instr, true
}

// Err returns the decoding error that stopped iteration, if any.
func (i *InstructionIter) Err() error {
	return i.err
}

// All returns all remaining instructions as a newly allocated slice.
func (i *InstructionIter) All() ([]Instruction, error) {
	var results []Instruction
	for {
		instr, ok := i.Next()
		if !ok {
			break
		}
		results = append(results, instr)
	}
	return results, i.err
}
