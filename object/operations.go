package object

import (
	"errors"
	"fmt"
	"math"
	"strings"

	"github.com/hexe-lang/hexe/op"
)

// ErrDivisionByZero is returned for integer division or modulo by zero.
var ErrDivisionByZero = errors.New("division by zero")

// TypeError reports an operation applied to values of unsupported types.
// Well-typed programs never produce one; the VM reports it as a runtime
// fault.
type TypeError struct {
	msg string
}

func (e *TypeError) Error() string {
	return "type error: " + e.msg
}

// TypeErrorf returns a TypeError with a formatted message.
func TypeErrorf(format string, args ...any) *TypeError {
	return &TypeError{msg: fmt.Sprintf(format, args...)}
}

// BinaryOp performs an arithmetic operation on two values of the same type.
func BinaryOp(opType op.BinaryOpType, a, b Value) (Value, error) {
	if a.typ != b.typ {
		return Value{}, TypeErrorf("unsupported operand types for %s: %s and %s",
			opType, a.typ, b.typ)
	}
	switch a.typ {
	case INT:
		return intOp(opType, a.Int64(), b.Int64())
	case UINT:
		return uintOp(opType, a.Uint64(), b.Uint64())
	case FLOAT:
		return floatOp(opType, a.Float64(), b.Float64())
	case STRING:
		if opType == op.Addition {
			return NewString(a.Text() + b.Text()), nil
		}
	}
	return Value{}, TypeErrorf("unsupported operation for %s: %s", a.typ, opType)
}

func intOp(opType op.BinaryOpType, a, b int64) (Value, error) {
	switch opType {
	case op.Addition:
		return NewInt(a + b), nil
	case op.Subtraction:
		return NewInt(a - b), nil
	case op.Multiplication:
		return NewInt(a * b), nil
	case op.Division:
		if b == 0 {
			return Value{}, ErrDivisionByZero
		}
		return NewInt(a / b), nil
	case op.Modulo:
		if b == 0 {
			return Value{}, ErrDivisionByZero
		}
		return NewInt(a % b), nil
	}
	return Value{}, TypeErrorf("unsupported operation for int: %s", opType)
}

func uintOp(opType op.BinaryOpType, a, b uint64) (Value, error) {
	switch opType {
	case op.Addition:
		return NewUint(a + b), nil
	case op.Subtraction:
		return NewUint(a - b), nil
	case op.Multiplication:
		return NewUint(a * b), nil
	case op.Division:
		if b == 0 {
			return Value{}, ErrDivisionByZero
		}
		return NewUint(a / b), nil
	case op.Modulo:
		if b == 0 {
			return Value{}, ErrDivisionByZero
		}
		return NewUint(a % b), nil
	}
	return Value{}, TypeErrorf("unsupported operation for uint: %s", opType)
}

func floatOp(opType op.BinaryOpType, a, b float64) (Value, error) {
	switch opType {
	case op.Addition:
		return NewFloat(a + b), nil
	case op.Subtraction:
		return NewFloat(a - b), nil
	case op.Multiplication:
		return NewFloat(a * b), nil
	case op.Division:
		return NewFloat(a / b), nil
	case op.Modulo:
		return NewFloat(math.Mod(a, b)), nil
	}
	return Value{}, TypeErrorf("unsupported operation for float: %s", opType)
}

// Compare two values using the given comparison operator. Equality is
// defined for every pair of values; ordering requires matching numeric or
// string types.
func Compare(opType op.CompareOpType, a, b Value) (Value, error) {
	if a.typ == FLOAT && b.typ == FLOAT {
		return compareFloats(opType, a.Float64(), b.Float64())
	}
	switch opType {
	case op.Equal:
		return NewBool(a.Equals(b)), nil
	case op.NotEqual:
		return NewBool(!a.Equals(b)), nil
	}
	if a.typ != b.typ {
		return Value{}, TypeErrorf("unable to compare %s and %s", a.typ, b.typ)
	}
	var cmp int
	switch a.typ {
	case INT:
		cmp = compareOrdered(a.Int64(), b.Int64())
	case UINT:
		cmp = compareOrdered(a.Uint64(), b.Uint64())
	case STRING:
		cmp = strings.Compare(a.Text(), b.Text())
	default:
		return Value{}, TypeErrorf("unable to order values of type %s", a.typ)
	}
	switch opType {
	case op.LessThan:
		return NewBool(cmp < 0), nil
	case op.LessThanOrEqual:
		return NewBool(cmp <= 0), nil
	case op.GreaterThan:
		return NewBool(cmp > 0), nil
	case op.GreaterThanOrEqual:
		return NewBool(cmp >= 0), nil
	}
	return Value{}, TypeErrorf("unknown comparison operator: %d", opType)
}

// compareFloats follows IEEE 754: -0 equals 0 and NaN is unordered, even
// with itself.
func compareFloats(opType op.CompareOpType, a, b float64) (Value, error) {
	switch opType {
	case op.Equal:
		return NewBool(a == b), nil
	case op.NotEqual:
		return NewBool(a != b), nil
	case op.LessThan:
		return NewBool(a < b), nil
	case op.LessThanOrEqual:
		return NewBool(a <= b), nil
	case op.GreaterThan:
		return NewBool(a > b), nil
	case op.GreaterThanOrEqual:
		return NewBool(a >= b), nil
	}
	return Value{}, TypeErrorf("unknown comparison operator: %d", opType)
}

func compareOrdered[T int64 | uint64](a, b T) int {
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	}
	return 0
}

// Negate returns the arithmetic negation of a signed numeric value.
func Negate(v Value) (Value, error) {
	switch v.typ {
	case INT:
		return NewInt(-v.Int64()), nil
	case FLOAT:
		return NewFloat(-v.Float64()), nil
	}
	return Value{}, TypeErrorf("bad operand type for unary -: %s", v.typ)
}

// Not returns the logical negation of a boolean value.
func Not(v Value) (Value, error) {
	if v.typ != BOOL {
		return Value{}, TypeErrorf("bad operand type for !: %s", v.typ)
	}
	return NewBool(!v.Bool()), nil
}
