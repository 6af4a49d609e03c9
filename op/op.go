// Package op defines opcodes used by the Hexe compiler and virtual machine.
//
// An instruction is a one byte opcode followed by its operands. Operands are
// 16-bit little-endian words except for Call, whose operands are an 8-bit
// frame size and a 32-bit absolute address.
package op

// Code is a one byte opcode that indicates an operation to execute.
type Code uint8

const (
	Halt          Code = 0
	Err           Code = 1
	Return        Code = 2
	LoadConstant  Code = 3
	Move          Code = 4
	Add           Code = 5
	Sub           Code = 6
	Div           Code = 7
	Mul           Code = 8
	Mod           Code = 9
	Negate        Code = 10
	Not           Code = 11
	CmpGreater    Code = 12
	CmpGreaterEq  Code = 13
	CmpLesser     Code = 14
	CmpLesserEq   Code = 15
	Equals        Code = 16
	NotEquals     Code = 17
	Jump          Code = 18
	JumpWhenTrue  Code = 19
	JumpWhenFalse Code = 20
	Call          Code = 21
	Print         Code = 22
	PrintValue    Code = 23
)

// RegisterReturn addresses the VM's dedicated return-value slot rather than
// a register in the current window.
const RegisterReturn uint16 = 0xFFFF

// JumpSentinel is written into jump and call operands that are patched later.
const JumpSentinel uint16 = 0x7FFF

// Operand describes how an operand is encoded and how tools should read it.
type Operand uint8

const (
	Register  Operand = iota + 1 // 16-bit register index
	Constant                     // 16-bit constant pool index
	Offset                       // signed 16-bit relative jump
	FrameSize                    // 8-bit caller frame size
	Address                      // 32-bit absolute byte address
)

// Width returns the number of bytes the operand occupies.
func (o Operand) Width() int {
	switch o {
	case FrameSize:
		return 1
	case Address:
		return 4
	default:
		return 2
	}
}

func (o Operand) String() string {
	switch o {
	case Register:
		return "register"
	case Constant:
		return "constant"
	case Offset:
		return "offset"
	case FrameSize:
		return "frame_size"
	case Address:
		return "address"
	default:
		return "unknown"
	}
}

// BinaryOpType describes an arithmetic operation on two values.
type BinaryOpType uint8

const (
	Addition       BinaryOpType = 1
	Subtraction    BinaryOpType = 2
	Multiplication BinaryOpType = 3
	Division       BinaryOpType = 4
	Modulo         BinaryOpType = 5
)

// String returns a string representation of the binary operation.
// For example "+" for addition.
func (bop BinaryOpType) String() string {
	switch bop {
	case Addition:
		return "+"
	case Subtraction:
		return "-"
	case Multiplication:
		return "*"
	case Division:
		return "/"
	case Modulo:
		return "%"
	default:
		return ""
	}
}

// CompareOpType describes a type of comparison operation.
type CompareOpType uint8

const (
	LessThan           CompareOpType = 1
	LessThanOrEqual    CompareOpType = 2
	Equal              CompareOpType = 3
	NotEqual           CompareOpType = 4
	GreaterThan        CompareOpType = 5
	GreaterThanOrEqual CompareOpType = 6
)

// String returns a string representation of the comparison operation.
// For example "<" for less than.
func (cop CompareOpType) String() string {
	switch cop {
	case LessThan:
		return "<"
	case LessThanOrEqual:
		return "<="
	case Equal:
		return "=="
	case NotEqual:
		return "!="
	case GreaterThan:
		return ">"
	case GreaterThanOrEqual:
		return ">="
	default:
		return ""
	}
}

// Info contains information about an opcode.
type Info struct {
	Code     Code
	Name     string
	Operands []Operand
}

// OperandCount returns the number of operands the opcode takes.
func (i Info) OperandCount() int {
	return len(i.Operands)
}

// Size returns the encoded size of the instruction in bytes, opcode included.
func (i Info) Size() int {
	size := 1
	for _, o := range i.Operands {
		size += o.Width()
	}
	return size
}

// IsValid reports whether the info describes a defined opcode.
func (i Info) IsValid() bool {
	return i.Name != ""
}

var infos = make([]Info, 256)

func init() {
	type opInfo struct {
		op       Code
		name     string
		operands []Operand
	}
	binary := []Operand{Register, Register, Register}
	unary := []Operand{Register, Register}
	ops := []opInfo{
		{Halt, "HALT", nil},
		{Err, "ERR", nil},
		{Return, "RETURN", []Operand{Register}},
		{LoadConstant, "LOAD_CONSTANT", []Operand{Register, Constant}},
		{Move, "MOVE", unary},
		{Add, "ADD", binary},
		{Sub, "SUB", binary},
		{Div, "DIV", binary},
		{Mul, "MUL", binary},
		{Mod, "MOD", binary},
		{Negate, "NEGATE", unary},
		{Not, "NOT", unary},
		{CmpGreater, "CMP_GREATER", binary},
		{CmpGreaterEq, "CMP_GREATER_EQ", binary},
		{CmpLesser, "CMP_LESSER", binary},
		{CmpLesserEq, "CMP_LESSER_EQ", binary},
		{Equals, "EQUALS", binary},
		{NotEquals, "NOT_EQUALS", binary},
		{Jump, "JUMP", []Operand{Offset}},
		{JumpWhenTrue, "JUMP_WHEN_TRUE", []Operand{Register, Offset}},
		{JumpWhenFalse, "JUMP_WHEN_FALSE", []Operand{Register, Offset}},
		{Call, "CALL", []Operand{FrameSize, Address}},
		{Print, "PRINT", []Operand{Constant}},
		{PrintValue, "PRINT_VALUE", []Operand{Register}},
	}
	for _, o := range ops {
		infos[o.op] = Info{
			Code:     o.op,
			Name:     o.name,
			Operands: o.operands,
		}
	}
}

// GetInfo returns information about the given opcode. The returned Info is
// not valid for undefined opcodes.
func GetInfo(op Code) Info {
	return infos[op]
}

func (c Code) String() string {
	if info := infos[c]; info.IsValid() {
		return info.Name
	}
	return "UNKNOWN"
}

// BinaryOp returns the arithmetic operation performed by an opcode.
func (c Code) BinaryOp() (BinaryOpType, bool) {
	switch c {
	case Add:
		return Addition, true
	case Sub:
		return Subtraction, true
	case Mul:
		return Multiplication, true
	case Div:
		return Division, true
	case Mod:
		return Modulo, true
	}
	return 0, false
}

// CompareOp returns the comparison performed by an opcode.
func (c Code) CompareOp() (CompareOpType, bool) {
	switch c {
	case CmpGreater:
		return GreaterThan, true
	case CmpGreaterEq:
		return GreaterThanOrEqual, true
	case CmpLesser:
		return LessThan, true
	case CmpLesserEq:
		return LessThanOrEqual, true
	case Equals:
		return Equal, true
	case NotEquals:
		return NotEqual, true
	}
	return 0, false
}
