package compiler

import (
	"bytes"
	"context"
	"strings"
	"testing"

	"github.com/hexe-lang/hexe/bytecode"
	"github.com/hexe-lang/hexe/errors"
	"github.com/hexe-lang/hexe/op"
	"github.com/hexe-lang/hexe/parser"
	"github.com/hexe-lang/hexe/sema"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func compileSource(t *testing.T, input string, cfg *Config) (*bytecode.Container, error) {
	t.Helper()
	tree, err := parser.Parse(context.Background(), input)
	require.NoError(t, err)
	info, err := sema.Analyze(tree, nil)
	require.NoError(t, err)
	return Compile(tree, info, cfg)
}

func mustCompile(t *testing.T, input string) *bytecode.Container {
	t.Helper()
	c, err := compileSource(t, input, nil)
	require.NoError(t, err)
	return c
}

func instructions(t *testing.T, c *bytecode.Container) []bytecode.Instruction {
	t.Helper()
	instrs, err := bytecode.NewInstructionIter(c).All()
	require.NoError(t, err)
	return instrs
}

func opcodes(t *testing.T, c *bytecode.Container) []op.Code {
	t.Helper()
	var codes []op.Code
	for _, instr := range instructions(t, c) {
		codes = append(codes, instr.Opcode)
	}
	return codes
}

func errorCodes(err error) []errors.ErrorCode {
	var codes []errors.ErrorCode
	for _, e := range errors.CompileErrors(err) {
		codes = append(codes, e.Code)
	}
	return codes
}

func TestCompileDeclAndPrint(t *testing.T) {
	c := mustCompile(t, "data x = 1\nprint(x)")
	assert.Equal(t, []op.Code{op.LoadConstant, op.PrintValue, op.Halt}, opcodes(t, c))
	assert.Equal(t, uint64(0), c.EntryPoint())
	assert.Equal(t, uint16(1), c.MainFrame())
	require.Equal(t, 1, c.ConstantCount())
	assert.Equal(t, int64(1), c.ConstantAt(0).Int64())
}

func TestCompilePrintStringLiteral(t *testing.T) {
	c := mustCompile(t, `print("hello")`)
	instrs := instructions(t, c)
	require.Len(t, instrs, 2)
	assert.Equal(t, op.Print, instrs[0].Opcode)
	assert.Equal(t, []uint32{0}, instrs[0].Operands)
	assert.Equal(t, "hello", c.ConstantAt(0).Text())
}

func TestConstantDeduplication(t *testing.T) {
	c := mustCompile(t, `
data a = 1
data b = 1
data c = 2
print("x")
print("x")
`)
	assert.Equal(t, 3, c.ConstantCount())
}

func TestCompileArithmetic(t *testing.T) {
	c := mustCompile(t, "data x = 1 + 2 * 3")
	assert.Equal(t, []op.Code{
		op.LoadConstant,
		op.LoadConstant,
		op.LoadConstant,
		op.Mul,
		op.Add,
		op.Halt,
	}, opcodes(t, c))
}

func TestCompileIfElseJumps(t *testing.T) {
	c := mustCompile(t, `if true { print("a") } else { print("b") }`)
	instrs := instructions(t, c)
	require.Equal(t, []op.Code{
		op.LoadConstant,
		op.JumpWhenFalse,
		op.Print,
		op.Jump,
		op.Print,
		op.Halt,
	}, opcodes(t, c))

	// JumpWhenFalse at 5 ends at 10 and lands on the else branch at 16.
	assert.Equal(t, uint32(6), instrs[1].Operands[1])
	// Jump at 13 ends at 16 and lands on Halt at 19.
	assert.Equal(t, uint32(3), instrs[3].Operands[0])
}

func TestCompileLogicalShortCircuit(t *testing.T) {
	c := mustCompile(t, "data x = true && false")
	assert.Equal(t, []op.Code{
		op.LoadConstant,
		op.Move,
		op.JumpWhenFalse,
		op.LoadConstant,
		op.Move,
		op.Halt,
	}, opcodes(t, c))
}

func TestCompileLoopJumpsBackward(t *testing.T) {
	for _, input := range []string{
		`loop { break }`,
		"data i = 0\nloop while i < 3 { i += 1 }",
		"data i = 0\nloop { i += 1 } while i < 3",
		`loop 3 { print("x") }`,
		`loop i in 0..3 { print(i) }`,
		`loop mut i in 0..3 { print(i) }`,
	} {
		t.Run(input, func(t *testing.T) {
			c := mustCompile(t, input)
			var backward bool
			for _, instr := range instructions(t, c) {
				switch instr.Opcode {
				case op.Jump:
					backward = backward || int16(instr.Operands[0]) < 0
				case op.JumpWhenTrue, op.JumpWhenFalse:
					backward = backward || int16(instr.Operands[1]) < 0
				}
			}
			assert.True(t, backward)
		})
	}
}

func TestBreakLandsAfterBackwardJump(t *testing.T) {
	c := mustCompile(t, "data x = true\nloop { break if x }")
	instrs := instructions(t, c)
	require.Equal(t, []op.Code{op.LoadConstant, op.JumpWhenTrue, op.Jump, op.Halt}, opcodes(t, c))

	brk, back, halt := instrs[1], instrs[2], instrs[3]
	assert.Equal(t, halt.Offset, brk.Offset+brk.Size()+int(int16(brk.Operands[1])))
	assert.Equal(t, brk.Offset, back.Offset+back.Size()+int(int16(back.Operands[0])))
}

func TestNoSentinelLeftBehind(t *testing.T) {
	c := mustCompile(t, `
fn Main() {
    data n = 0
    loop {
        n += 1
        skip if n == 2
        break if n > 4
        if n == 3 { print("three") } else { print(n) }
    }
}`)
	for _, instr := range instructions(t, c) {
		switch instr.Opcode {
		case op.Jump:
			assert.NotEqual(t, uint32(op.JumpSentinel), instr.Operands[0])
		case op.JumpWhenTrue, op.JumpWhenFalse:
			assert.NotEqual(t, uint32(op.JumpSentinel), instr.Operands[1])
		}
	}
}

func TestFunctionLayout(t *testing.T) {
	c := mustCompile(t, `
fn add(a: int, b: int) -> int { return a + b }
fn Main() { print(add(1, 2)) }
`)
	instrs := instructions(t, c)
	require.Equal(t, []op.Code{
		op.Add, op.Return, // add
		op.LoadConstant, op.LoadConstant, op.Move, op.Move, op.Call, op.Move, op.PrintValue, op.Halt, // Main
		op.Call, // entry point
	}, opcodes(t, c))

	// Parameters occupy registers 0 and 1; the result lands in register 2.
	assert.Equal(t, []uint32{2, 0, 1}, instrs[0].Operands)
	assert.Equal(t, []uint32{2}, instrs[1].Operands)

	// Arguments are moved just past Main's two registers.
	assert.Equal(t, []uint32{2, 0}, instrs[4].Operands)
	assert.Equal(t, []uint32{3, 1}, instrs[5].Operands)
	assert.Equal(t, []uint32{2, 0}, instrs[6].Operands)
	assert.Equal(t, uint32(op.RegisterReturn), instrs[7].Operands[1])

	mainAddr := uint32(instrs[2].Offset)
	assert.Equal(t, uint64(instrs[10].Offset), c.EntryPoint())
	assert.Equal(t, []uint32{0, mainAddr}, instrs[10].Operands)
}

func TestForwardCallIsPatched(t *testing.T) {
	c := mustCompile(t, `
fn Main() { print(later()) }
fn later() -> int { return 7 }
`)
	instrs := instructions(t, c)
	var calls []bytecode.Instruction
	var laterAddr int
	for i, instr := range instrs {
		if instr.Opcode == op.Call {
			calls = append(calls, instr)
		}
		if instr.Opcode == op.Halt && laterAddr == 0 {
			laterAddr = instrs[i+1].Offset
		}
	}
	require.Len(t, calls, 2)
	assert.Equal(t, uint32(laterAddr), calls[0].Operands[1])
	assert.Equal(t, uint32(0), calls[1].Operands[1])
}

func TestVoidFunctionReturns(t *testing.T) {
	c := mustCompile(t, `fn f() { print("a") }`)
	instrs := instructions(t, c)
	require.Equal(t, []op.Code{op.Print, op.Return, op.Halt}, opcodes(t, c))
	assert.Equal(t, uint32(op.RegisterReturn), instrs[1].Operands[0])
	assert.Equal(t, uint64(instrs[2].Offset), c.EntryPoint())
}

func TestTopLevelReturn(t *testing.T) {
	c := mustCompile(t, "data x = 5\nreturn x")
	instrs := instructions(t, c)
	require.Equal(t, []op.Code{op.LoadConstant, op.Return, op.Halt}, opcodes(t, c))
	assert.Equal(t, []uint32{0, 0}, instrs[0].Operands)
	assert.Equal(t, []uint32{0}, instrs[1].Operands)
	require.Equal(t, 1, c.ConstantCount())
	assert.Equal(t, int64(5), c.ConstantAt(0).Int64())
}

func TestFunctionMetadata(t *testing.T) {
	tree, err := parser.Parse(context.Background(), `
fn pick(a: int, b: int, c: int) -> int {
    data t = a + b
    return t + c
}`)
	require.NoError(t, err)
	info, err := sema.Analyze(tree, nil)
	require.NoError(t, err)
	comp := New(tree, info, nil)
	_, err = comp.Compile()
	require.NoError(t, err)

	f, ok := comp.Function("pick")
	require.True(t, ok)
	assert.Equal(t, 0, f.Address)
	assert.Equal(t, 5, f.FrameSize())
	assert.False(t, f.IsVoid())
}

func TestCompileErrors(t *testing.T) {
	tests := []struct {
		name  string
		input string
		code  errors.ErrorCode
	}{
		{"break outside loop", "break", errors.E2003},
		{"skip outside loop", "skip if true", errors.E2004},
		{"break in function outside loop", "fn f() { break }", errors.E2003},
		{"negative loop count", `loop -3 { print("x") }`, errors.E2014},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c, err := compileSource(t, tt.input, nil)
			require.Error(t, err)
			assert.Nil(t, c)
			assert.Contains(t, errorCodes(err), tt.code)
		})
	}
}

func TestJumpOutOfRange(t *testing.T) {
	var b strings.Builder
	b.WriteString("if true {\n")
	for i := 0; i < 11000; i++ {
		b.WriteString("print(\"a\")\n")
	}
	b.WriteString("}\n")
	_, err := compileSource(t, b.String(), nil)
	require.Error(t, err)
	assert.Contains(t, errorCodes(err), errors.E2012)
}

func TestCallFrameTooLarge(t *testing.T) {
	var b strings.Builder
	b.WriteString("fn f() { }\n")
	for i := 0; i < 256; i++ {
		b.WriteString("data v")
		b.WriteString(strings.Repeat("x", i%3))
		b.WriteString(string(rune('a'+i%26)))
		b.WriteString(strings.Repeat("y", i/26))
		b.WriteString(" = 0\n")
	}
	b.WriteString("f()\n")
	_, err := compileSource(t, b.String(), nil)
	require.Error(t, err)
	assert.Contains(t, errorCodes(err), errors.E2007)
}

func TestCalcJump(t *testing.T) {
	offset, ok := CalcJump(10, 16)
	assert.True(t, ok)
	assert.Equal(t, uint16(6), offset)

	offset, ok = CalcJump(20, 0)
	assert.True(t, ok)
	assert.Equal(t, int16(-20), int16(offset))

	_, ok = CalcJump(0, 32767)
	assert.True(t, ok)
	_, ok = CalcJump(32768, 0)
	assert.True(t, ok)

	offset, ok = CalcJump(0, 32768)
	assert.False(t, ok)
	assert.Equal(t, op.JumpSentinel, offset)
	_, ok = CalcJump(32769, 0)
	assert.False(t, ok)
}

func TestSinkAndLogger(t *testing.T) {
	collector := errors.NewCollector("")
	_, err := compileSource(t, "break", &Config{Sink: collector, Filename: "prog.hx"})
	require.Error(t, err)
	diags := collector.Diagnostics()
	require.Len(t, diags, 1)
	assert.Equal(t, errors.E2003, diags[0].Err.Code)
	assert.Equal(t, "prog.hx", diags[0].Err.Filename)

	var buf bytes.Buffer
	logger := zerolog.New(&buf).Level(zerolog.DebugLevel)
	_, err = compileSource(t, "fn f() { }\nf()", &Config{Logger: &logger})
	require.NoError(t, err)
	assert.Contains(t, buf.String(), `"message":"generated program"`)
	assert.Contains(t, buf.String(), `"function":"f"`)
}
