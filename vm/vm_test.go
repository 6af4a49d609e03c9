package vm

import (
	"bytes"
	"context"
	"strings"
	"testing"

	"github.com/hexe-lang/hexe/bytecode"
	"github.com/hexe-lang/hexe/compiler"
	"github.com/hexe-lang/hexe/errors"
	"github.com/hexe-lang/hexe/object"
	"github.com/hexe-lang/hexe/op"
	"github.com/hexe-lang/hexe/parser"
	"github.com/hexe-lang/hexe/sema"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func compileSource(t *testing.T, input string) *bytecode.Container {
	t.Helper()
	tree, err := parser.Parse(context.Background(), input)
	require.NoError(t, err)
	info, err := sema.Analyze(tree, nil)
	require.NoError(t, err)
	c, err := compiler.Compile(tree, info, nil)
	require.NoError(t, err)
	return c
}

type result struct {
	vm     *VirtualMachine
	status Status
	err    error
	output string
}

func execute(t *testing.T, c *bytecode.Container, options ...Option) result {
	t.Helper()
	var out bytes.Buffer
	machine := New(append([]Option{WithOutput(&out)}, options...)...)
	status, err := machine.Execute(context.Background(), c)
	return result{vm: machine, status: status, err: err, output: out.String()}
}

func runSource(t *testing.T, input string, options ...Option) result {
	t.Helper()
	return execute(t, compileSource(t, input), options...)
}

func requireRuntimeError(t *testing.T, r result, code errors.ErrorCode) *errors.RuntimeError {
	t.Helper()
	require.Equal(t, RuntimeError, r.status)
	var rtErr *errors.RuntimeError
	require.ErrorAs(t, r.err, &rtErr)
	assert.Equal(t, code, rtErr.Code)
	return rtErr
}

func TestReturnValue(t *testing.T) {
	r := runSource(t, "data x = 5\nreturn x")
	require.NoError(t, r.err)
	assert.Equal(t, Ok, r.status)
	assert.Equal(t, object.NewInt(5), r.vm.ReturnValue())
}

func TestCountLoop(t *testing.T) {
	r := runSource(t, "data x = 0\nloop 3 { x = x + 1 }\nreturn x")
	require.NoError(t, r.err)
	assert.Equal(t, object.NewInt(3), r.vm.ReturnValue())
	x, ok := r.vm.Register(0)
	require.True(t, ok)
	assert.Equal(t, int64(3), x.Int64())
}

func TestForwardCall(t *testing.T) {
	r := runSource(t, `
fn A() -> int { return B() + 1 }
fn B() -> int { return 41 }
fn Main() { print(A()) }
`)
	require.NoError(t, r.err)
	assert.Equal(t, "42\n", r.output)
}

func TestPrograms(t *testing.T) {
	tests := []struct {
		name   string
		input  string
		output string
	}{
		{"print string", `print("hi")`, "hi\n"},
		{"print expression", `print(1 + 2 * 3)`, "7\n"},
		{"negative literal", `print(-5 + 2)`, "-3\n"},
		{"unary minus", "data a = 4\nprint(-a)", "-4\n"},
		{"not", "data a = true\nprint(!a)", "false\n"},
		{"float", `print(1.5 * 2.0)`, "3\n"},
		{"float division by zero", "data z = 0.0\nprint(1.0 / z)", "+Inf\n"},
		{"float equality", "data a = -0.0\ndata b = 0.0\nprint(a == b)\ndata z = 0.0\ndata n = z / z\nprint(n == n)\nprint(n != n)", "true\nfalse\ntrue\n"},
		{"uint", `print(7u % 4u)`, "3\n"},
		{"string concat", `print("a" + "b")`, "ab\n"},
		{"string compare", `print("a" < "b")`, "true\n"},
		{"or", `print(false || true)`, "true\n"},
		{"and", `print(true && false)`, "false\n"},
		{"if", "data x = 3\nif x > 2 { print(\"big\") } else { print(\"small\") }", "big\n"},
		{"else if", "data x = 2\nif x > 2 { print(1) } else if x == 2 { print(2) } else { print(3) }", "2\n"},
		{"compound assign", "data x = 10\nx -= 3\nx *= 2\nprint(x)", "14\n"},
		{"while", "data i = 0\nloop while i < 3 { print(i)\ni += 1 }", "0\n1\n2\n"},
		{"do while", "data n = 0\nloop { n += 1 } while n < 3\nprint(n)", "3\n"},
		{"infinite with break", "data n = 0\nloop {\nn += 1\nbreak if n == 4\n}\nprint(n)", "4\n"},
		{"range", `loop i in 1..3 { print(i) }`, "1\n2\n3\n"},
		{"descending range", `loop i in 3..1 { print(i) }`, "3\n2\n1\n"},
		{"single step range", `loop i in 2..2 { print(i) }`, "2\n"},
		{"skip", "loop i in 1..5 {\nskip if i == 3\nprint(i)\n}", "1\n2\n4\n5\n"},
		{"mutable range", "loop mut i in 0..10 {\ni += 2\nprint(i)\n}", "2\n5\n8\n11\n"},
		{"mutable range moved bound", "data n = 5\nloop mut i in 0..n {\nn = 1\nprint(i)\n}", "0\n1\n"},
		{"immutable range fixed bound", "data n = 2\nloop i in 0..n {\nn = 0\nprint(i)\n}", "0\n1\n2\n"},
		{"uint count", `loop 2u { print("x") }`, "x\nx\n"},
		{"zero count", `loop 0 { print("x") }`, ""},
		{"nested loops", "loop i in 1..2 {\nloop j in 1..2 {\nprint(i * 10 + j)\n}\n}", "11\n12\n21\n22\n"},
		{"break inner only", "loop i in 1..2 {\nloop {\nbreak\n}\nprint(i)\n}", "1\n2\n"},
		{"recursion", `
fn fib(n: int) -> int {
    if n < 2 { return n }
    return fib(n - 1) + fib(n - 2)
}
fn Main() { print(fib(10)) }`, "55\n"},
		{"arguments", `
fn sub(a: int, b: int) -> int { return a - b }
fn Main() {
    data x = 10
    print(sub(x, 3))
    print(sub(3, x))
}`, "7\n-7\n"},
		{"void call", `
fn greet(name: string) { print("hello " + name) }
fn Main() {
    greet("a")
    greet("b")
}`, "hello a\nhello b\n"},
		{"early return in Main", `
fn Main() {
    print(1)
    return
    print(2)
}`, "1\n"},
		{"globals before Main", "print(\"global\")\nfn Main() { print(\"main\") }", "global\nmain\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := runSource(t, tt.input)
			require.NoError(t, r.err)
			assert.Equal(t, Ok, r.status)
			assert.Equal(t, tt.output, r.output)
		})
	}
}

func TestDivisionByZero(t *testing.T) {
	for _, input := range []string{
		"data a = 1\ndata b = 0\nprint(a / b)",
		"data a = 1\ndata b = 0\nprint(a % b)",
		"data a = 1u\ndata b = 0u\nprint(a / b)",
	} {
		r := runSource(t, input)
		requireRuntimeError(t, r, errors.E3002)
	}
}

func TestRuntimeErrorLocation(t *testing.T) {
	r := runSource(t, `
fn div(a: int, b: int) -> int { return a / b }
fn Main() { print(div(1, 0)) }
`)
	rtErr := requireRuntimeError(t, r, errors.E3002)
	assert.Equal(t, "DIV", rtErr.Opcode)
	assert.Equal(t, 0, rtErr.IP)
	assert.Equal(t, 2, rtErr.FrameDepth)
	require.Len(t, rtErr.Stack, 2)
	assert.Equal(t, 2, rtErr.Stack[0].Depth)
	assert.Equal(t, 2, rtErr.Stack[0].WindowSize)
}

func TestStackOverflow(t *testing.T) {
	c := compileSource(t, `
fn down(n: int) -> int { return down(n + 1) }
fn Main() { print(down(0)) }
`)
	r := execute(t, c, WithMaxFrameDepth(50))
	rtErr := requireRuntimeError(t, r, errors.E3006)
	assert.Equal(t, 50, rtErr.FrameDepth)
}

func TestInstructionLimit(t *testing.T) {
	r := runSource(t, "loop { }", WithInstructionLimit(100))
	requireRuntimeError(t, r, errors.E3012)
	assert.Equal(t, int64(101), r.vm.Executed())
}

func TestContextCancellation(t *testing.T) {
	c := compileSource(t, "loop { }")
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	machine := New(WithContextCheckInterval(1))
	status, err := machine.Execute(ctx, c)
	assert.Equal(t, RuntimeError, status)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestReturnOutsideCallContinues(t *testing.T) {
	c := bytecode.NewContainer()
	idx, err := c.AddConstant(object.NewString("done"))
	require.NoError(t, err)
	c.Write(op.LoadConstant, 0, idx)
	c.Write(op.Return, 0)
	c.Write(op.PrintValue, 0)
	c.Write(op.Halt)
	c.SetMainFrame(1)

	r := execute(t, c)
	require.NoError(t, r.err)
	assert.Equal(t, "done\n", r.output)
	assert.Equal(t, "done", r.vm.ReturnValue().Text())
}

func TestEmptyProgram(t *testing.T) {
	r := execute(t, bytecode.NewContainer())
	require.NoError(t, r.err)
	assert.Equal(t, Ok, r.status)
	assert.Equal(t, object.NONE, r.vm.ReturnValue().Type())
}

func TestErrOpcode(t *testing.T) {
	c := bytecode.NewContainer()
	c.Write(op.Err)
	r := execute(t, c)
	assert.Equal(t, CompileError, r.status)
	require.Error(t, r.err)
}

func TestInvalidOpcode(t *testing.T) {
	c := bytecode.NewContainer()
	c.Write(op.Code(200))
	r := execute(t, c)
	assert.Equal(t, CompileError, r.status)
	var rtErr *errors.RuntimeError
	require.ErrorAs(t, r.err, &rtErr)
	assert.Equal(t, errors.E3011, rtErr.Code)
}

func TestRegisterOutOfBounds(t *testing.T) {
	c := bytecode.NewContainer()
	c.Write(op.PrintValue, 3)
	c.Write(op.Halt)
	r := execute(t, c)
	requireRuntimeError(t, r, errors.E3003)
}

func TestConstantOutOfBounds(t *testing.T) {
	c := bytecode.NewContainer()
	c.Write(op.LoadConstant, 0, 9)
	c.Write(op.Halt)
	c.SetMainFrame(1)
	r := execute(t, c)
	requireRuntimeError(t, r, errors.E3003)
}

func TestJumpConditionMustBeBool(t *testing.T) {
	c := bytecode.NewContainer()
	idx, err := c.AddConstant(object.NewInt(1))
	require.NoError(t, err)
	c.Write(op.LoadConstant, 0, idx)
	c.Write(op.JumpWhenTrue, 0, 0)
	c.Write(op.Halt)
	c.SetMainFrame(1)
	r := execute(t, c)
	requireRuntimeError(t, r, errors.E3001)
}

func TestMoveCopiesBuffer(t *testing.T) {
	c := bytecode.NewContainer()
	idx, err := c.AddConstant(object.NewString("hexe"))
	require.NoError(t, err)
	c.Write(op.LoadConstant, 0, idx)
	c.Write(op.Move, 1, 0)
	c.Write(op.Halt)
	c.SetMainFrame(2)
	r := execute(t, c)
	require.NoError(t, r.err)

	src, ok := r.vm.Register(0)
	require.True(t, ok)
	dst, ok := r.vm.Register(1)
	require.True(t, ok)
	assert.Equal(t, "hexe", dst.Text())
	assert.True(t, src.Equals(dst))
	assert.False(t, src.SharesBuffer(dst))
}

func TestConditionalJumpOffset(t *testing.T) {
	tests := []struct {
		name     string
		jump     op.Code
		cond     bool
		expected string
	}{
		{"true taken", op.JumpWhenTrue, true, "b\n"},
		{"true not taken", op.JumpWhenTrue, false, "a\nb\n"},
		{"false taken", op.JumpWhenFalse, false, "b\n"},
		{"false not taken", op.JumpWhenFalse, true, "a\nb\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := bytecode.NewContainer()
			cond, err := c.AddConstant(object.NewBool(tt.cond))
			require.NoError(t, err)
			a, err := c.AddConstant(object.NewString("a"))
			require.NoError(t, err)
			b, err := c.AddConstant(object.NewString("b"))
			require.NoError(t, err)
			c.Write(op.LoadConstant, 0, cond)
			c.Write(tt.jump, 0, uint16(op.GetInfo(op.Print).Size()))
			c.Write(op.Print, a)
			c.Write(op.Print, b)
			c.Write(op.Halt)
			c.SetMainFrame(1)
			r := execute(t, c)
			require.NoError(t, r.err)
			assert.Equal(t, tt.expected, r.output)
		})
	}
}

func TestTypeError(t *testing.T) {
	c := bytecode.NewContainer()
	a, err := c.AddConstant(object.NewInt(1))
	require.NoError(t, err)
	b, err := c.AddConstant(object.NewString("x"))
	require.NoError(t, err)
	c.Write(op.LoadConstant, 0, a)
	c.Write(op.LoadConstant, 1, b)
	c.Write(op.Add, 2, 0, 1)
	c.Write(op.Halt)
	c.SetMainFrame(3)
	r := execute(t, c)
	rtErr := requireRuntimeError(t, r, errors.E3001)
	assert.Equal(t, "ADD", rtErr.Opcode)
}

func TestRoundTripExecution(t *testing.T) {
	input := `
fn square(x: int) -> int { return x * x }
fn Main() {
    loop i in 1..3 { print(square(i)) }
    print("end")
}`
	c := compileSource(t, input)
	loaded, err := bytecode.Deserialize(c.Serialize())
	require.NoError(t, err)

	before := execute(t, c)
	after := execute(t, loaded)
	require.NoError(t, before.err)
	require.NoError(t, after.err)
	assert.Equal(t, "1\n4\n9\nend\n", after.output)
	assert.Equal(t, before.output, after.output)
}

func TestReuseVM(t *testing.T) {
	var out bytes.Buffer
	machine := New(WithOutput(&out))
	for _, input := range []string{`print("one")`, `print("two")`} {
		status, err := machine.Execute(context.Background(), compileSource(t, input))
		require.NoError(t, err)
		assert.Equal(t, Ok, status)
	}
	assert.Equal(t, "one\ntwo\n", out.String())
}

func TestRun(t *testing.T) {
	v, err := Run(context.Background(), compileSource(t, "return 6 * 7"), WithOutput(&strings.Builder{}))
	require.NoError(t, err)
	assert.Equal(t, int64(42), v.Int64())

	_, err = Run(context.Background(), compileSource(t, "data z = 0\nreturn 1 / z"))
	assert.Error(t, err)
}

func TestStatusString(t *testing.T) {
	assert.Equal(t, "ok", Ok.String())
	assert.Equal(t, "compile error", CompileError.String())
	assert.Equal(t, "runtime error", RuntimeError.String())
}
