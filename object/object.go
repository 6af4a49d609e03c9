// Package object provides the runtime value type shared by the Hexe
// compiler, executable format and virtual machine.
//
// A Value is a tagged variant. Scalars carry an 8-byte little-endian
// payload and strings carry their UTF-8 bytes:
//
//	switch v.Type() {
//	case object.INT:
//		// use v.Int64()
//	case object.STRING:
//		// use v.Text()
//	}
package object

import (
	"bytes"
	"encoding/binary"
	"math"
	"strconv"
)

// Type is the tag of a Value. The numeric values are part of the executable
// format.
type Type uint8

// Type constants
const (
	INVALID Type = 0
	INT     Type = 1
	UINT    Type = 2
	FLOAT   Type = 3
	BOOL    Type = 4
	STRING  Type = 5
	NONE    Type = 6
)

var typeNames = map[Type]string{
	INVALID: "invalid",
	INT:     "int",
	UINT:    "uint",
	FLOAT:   "float",
	BOOL:    "bool",
	STRING:  "string",
	NONE:    "none",
}

func (t Type) String() string {
	if name, ok := typeNames[t]; ok {
		return name
	}
	return "type(" + strconv.Itoa(int(t)) + ")"
}

// IsNumeric reports whether values of the type support arithmetic.
func (t Type) IsNumeric() bool {
	return t == INT || t == UINT || t == FLOAT
}

// IsValid reports whether t is a known, non-invalid tag.
func (t Type) IsValid() bool {
	return t >= INT && t <= NONE
}

// ParseType returns the Type named by a source-level type annotation.
func ParseType(name string) (Type, bool) {
	switch name {
	case "int":
		return INT, true
	case "uint":
		return UINT, true
	case "float":
		return FLOAT, true
	case "bool":
		return BOOL, true
	case "string":
		return STRING, true
	}
	return INVALID, false
}

const payloadSize = 8

// Value is a runtime value. The zero Value is Invalid. A Value owns its
// buffer; Copy duplicates it and Move transfers it.
type Value struct {
	typ  Type
	data []byte
}

func scalar(t Type, bits uint64) Value {
	buf := make([]byte, payloadSize)
	binary.LittleEndian.PutUint64(buf, bits)
	return Value{typ: t, data: buf}
}

// NewInt returns a signed 64-bit integer value.
func NewInt(v int64) Value { return scalar(INT, uint64(v)) }

// NewUint returns an unsigned 64-bit integer value.
func NewUint(v uint64) Value { return scalar(UINT, v) }

// NewFloat returns a 64-bit float value.
func NewFloat(v float64) Value { return scalar(FLOAT, math.Float64bits(v)) }

// NewBool returns a boolean value.
func NewBool(v bool) Value {
	if v {
		return scalar(BOOL, 1)
	}
	return scalar(BOOL, 0)
}

// NewString returns a string value holding a copy of s.
func NewString(s string) Value {
	return Value{typ: STRING, data: []byte(s)}
}

// None returns the unit value.
func None() Value {
	return Value{typ: NONE, data: make([]byte, payloadSize)}
}

// Invalid returns a value with no type and no storage.
func Invalid() Value {
	return Value{}
}

// Type returns the value's tag.
func (v Value) Type() Type { return v.typ }

// Len returns the length of the value's buffer in bytes.
func (v Value) Len() int { return len(v.data) }

// IsValid reports whether the value holds anything.
func (v Value) IsValid() bool { return v.typ != INVALID }

func (v Value) bits() uint64 {
	if len(v.data) < payloadSize {
		return 0
	}
	return binary.LittleEndian.Uint64(v.data)
}

// Int64 returns the payload interpreted as a signed integer.
func (v Value) Int64() int64 { return int64(v.bits()) }

// Uint64 returns the payload interpreted as an unsigned integer.
func (v Value) Uint64() uint64 { return v.bits() }

// Float64 returns the payload interpreted as a float.
func (v Value) Float64() float64 { return math.Float64frombits(v.bits()) }

// Bool returns the payload interpreted as a boolean.
func (v Value) Bool() bool { return v.bits() != 0 }

// Text returns the contents of a string value.
func (v Value) Text() string {
	if v.typ != STRING {
		return ""
	}
	return string(v.data)
}

// Copy returns a value with an independent copy of the buffer.
func (v Value) Copy() Value {
	if v.typ == INVALID {
		return Value{}
	}
	buf := make([]byte, len(v.data))
	copy(buf, v.data)
	return Value{typ: v.typ, data: buf}
}

// SharesBuffer reports whether v and other are backed by the same memory.
func (v Value) SharesBuffer(other Value) bool {
	return len(v.data) > 0 && len(other.data) > 0 && &v.data[0] == &other.data[0]
}

// Move transfers the buffer out of v, leaving v Invalid.
func (v *Value) Move() Value {
	out := *v
	*v = Value{}
	return out
}

// Equals reports whether both values have the same tag and payload. Values
// of different types are never equal.
func (v Value) Equals(other Value) bool {
	return v.typ == other.typ && bytes.Equal(v.data, other.data)
}

// Truthy reports whether the value counts as true in a boolean context.
func (v Value) Truthy() bool {
	switch v.typ {
	case BOOL, INT, UINT:
		return v.bits() != 0
	case FLOAT:
		return v.Float64() != 0
	case STRING:
		return len(v.data) > 0
	default:
		return false
	}
}

// Interface converts the value to a native Go value.
func (v Value) Interface() any {
	switch v.typ {
	case INT:
		return v.Int64()
	case UINT:
		return v.Uint64()
	case FLOAT:
		return v.Float64()
	case BOOL:
		return v.Bool()
	case STRING:
		return v.Text()
	default:
		return nil
	}
}

// Inspect returns the text printed for the value by the VM.
func (v Value) Inspect() string {
	switch v.typ {
	case INT:
		return strconv.FormatInt(v.Int64(), 10)
	case UINT:
		return strconv.FormatUint(v.Uint64(), 10)
	case FLOAT:
		return strconv.FormatFloat(v.Float64(), 'f', -1, 64)
	case BOOL:
		return strconv.FormatBool(v.Bool())
	case STRING:
		return v.Text()
	case NONE:
		return "none"
	default:
		return "<invalid>"
	}
}

// String returns a debugging representation; strings are quoted and uints
// carry a "u" suffix.
func (v Value) String() string {
	switch v.typ {
	case STRING:
		return strconv.Quote(v.Text())
	case UINT:
		return v.Inspect() + "u"
	default:
		return v.Inspect()
	}
}

// Key returns a string that is identical for two values exactly when they
// are Equal. It is used to index constant pools.
func (v Value) Key() string {
	return string([]byte{byte(v.typ)}) + string(v.data)
}
