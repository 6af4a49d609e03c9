package op

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestGetInfo(t *testing.T) {
	info := GetInfo(LoadConstant)
	require.Equal(t, "LOAD_CONSTANT", info.Name)
	require.Equal(t, 2, info.OperandCount())
	require.Equal(t, LoadConstant, info.Code)
	require.Equal(t, 5, info.Size())
}

func TestInstructionSizes(t *testing.T) {
	tests := []struct {
		code Code
		name string
		size int
	}{
		{Halt, "HALT", 1},
		{Err, "ERR", 1},
		{Return, "RETURN", 3},
		{LoadConstant, "LOAD_CONSTANT", 5},
		{Move, "MOVE", 5},
		{Add, "ADD", 7},
		{Sub, "SUB", 7},
		{Div, "DIV", 7},
		{Mul, "MUL", 7},
		{Mod, "MOD", 7},
		{Negate, "NEGATE", 5},
		{Not, "NOT", 5},
		{CmpGreater, "CMP_GREATER", 7},
		{CmpGreaterEq, "CMP_GREATER_EQ", 7},
		{CmpLesser, "CMP_LESSER", 7},
		{CmpLesserEq, "CMP_LESSER_EQ", 7},
		{Equals, "EQUALS", 7},
		{NotEquals, "NOT_EQUALS", 7},
		{Jump, "JUMP", 3},
		{JumpWhenTrue, "JUMP_WHEN_TRUE", 5},
		{JumpWhenFalse, "JUMP_WHEN_FALSE", 5},
		{Call, "CALL", 6},
		{Print, "PRINT", 3},
		{PrintValue, "PRINT_VALUE", 3},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			info := GetInfo(tt.code)
			require.True(t, info.IsValid())
			require.Equal(t, tt.name, info.Name)
			require.Equal(t, tt.name, tt.code.String())
			require.Equal(t, tt.size, info.Size())
		})
	}
}

func TestUnknownOpcode(t *testing.T) {
	info := GetInfo(Code(200))
	require.False(t, info.IsValid())
	require.Equal(t, "UNKNOWN", Code(200).String())
}

func TestOperatorMapping(t *testing.T) {
	bop, ok := Mod.BinaryOp()
	require.True(t, ok)
	require.Equal(t, "%", bop.String())
	_, ok = Move.BinaryOp()
	require.False(t, ok)

	cop, ok := CmpLesserEq.CompareOp()
	require.True(t, ok)
	require.Equal(t, "<=", cop.String())
	_, ok = Jump.CompareOp()
	require.False(t, ok)
}
