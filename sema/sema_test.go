package sema

import (
	"context"
	"testing"

	"github.com/hexe-lang/hexe/ast"
	"github.com/hexe-lang/hexe/errors"
	"github.com/hexe-lang/hexe/object"
	"github.com/hexe-lang/hexe/parser"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func analyze(t *testing.T, input string) (*ast.Tree, *Info, error) {
	t.Helper()
	tree, err := parser.Parse(context.Background(), input)
	require.NoError(t, err)
	info, err := Analyze(tree, nil)
	return tree, info, err
}

func TestValidProgram(t *testing.T) {
	input := `
data total = 0
loop i in 1..10 {
    total += i
}
fn square(x: int) -> int {
    return x * x
}
fn Main() {
    data s: string = "n="
    print(s + "x")
    print(square(3))
    loop mut j in 0..3 { j += 1 }
    loop 3u { }
}
`
	_, info, err := analyze(t, input)
	require.NoError(t, err)

	square, ok := info.Function("square")
	require.True(t, ok)
	assert.Equal(t, object.INT, square.Return)
	assert.Equal(t, []Param{{Name: "x", Type: object.INT}}, square.Params)
	assert.False(t, square.IsVoid())

	main, ok := info.Function("Main")
	require.True(t, ok)
	assert.True(t, main.IsVoid())
	assert.True(t, info.HasMain())

	var names []string
	for _, f := range info.Functions() {
		names = append(names, f.Name)
	}
	assert.Equal(t, []string{"square", "Main"}, names)
	assert.Equal(t, []string{"total"}, info.Globals())
}

func TestExpressionTypes(t *testing.T) {
	tree, info, err := analyze(t, `data a = 1 + 2
data b = 1.5 < 2.0
data c = "x" + "y"
data d = !(a == 3)`)
	require.NoError(t, err)
	stmts := tree.Statements(tree.Root)
	expected := []object.Type{object.INT, object.BOOL, object.STRING, object.BOOL}
	for i, stmt := range stmts {
		assert.Equal(t, expected[i], info.TypeOf(tree.Decl(stmt).Value), "statement %d", i)
	}
	assert.Equal(t, object.INVALID, info.TypeOf(stmts[0]))
}

func TestForwardReference(t *testing.T) {
	_, _, err := analyze(t, `
fn a() -> int { return b() }
fn b() -> int { return 1 }
`)
	require.NoError(t, err)
}

func TestMissingReturnWithIfElse(t *testing.T) {
	_, _, err := analyze(t, `
fn sign(x: int) -> int {
    if x < 0 {
        return -1
    } else if x == 0 {
        return 0
    } else {
        return 1
    }
}`)
	require.NoError(t, err)
}

func TestAnalyzeErrors(t *testing.T) {
	tests := []struct {
		name  string
		input string
		code  errors.ErrorCode
		msg   string
	}{
		{"undefined variable", "print(y)", errors.E2001, `undefined variable "y"`},
		{"undefined function", "foo()", errors.E2002, `undefined function "foo"`},
		{"redeclared", "data x = 1\ndata x = 2", errors.E2011, `"x" is already declared`},
		{"redeclared in nested scope", "data x = 1\nif true { data x = 2 }", errors.E2011, "already declared"},
		{"redeclared function", "fn f() { }\nfn f() { }", errors.E2011, "redeclared"},
		{"duplicate parameter", "fn f(a: int, a: int) { }", errors.E2006, "duplicate parameter"},
		{"unknown type", "data x: integer = 1", errors.E2018, `unknown type "integer"`},
		{"annotation mismatch", "data x: float = 1", errors.E2013, "cannot use int value as float"},
		{"assign mismatch", "data x = 1\nx = true", errors.E2013, "cannot assign bool value"},
		{"assign const", "const k = 1\nk = 2", errors.E2015, `cannot assign to constant "k"`},
		{"assign counter", "loop i in 0..3 { i = 1 }", errors.E2015, "immutable loop counter"},
		{"mixed arithmetic", "data x = 1 + 1.5", errors.E2013, "mismatched types int and float"},
		{"bool arithmetic", "data x = true + false", errors.E2013, "operator + is not defined for bool"},
		{"negate uint", "data x = -(1u)", errors.E2013, "bad operand type for unary -"},
		{"not int", "data x = !1", errors.E2013, "bad operand type for unary !"},
		{"if condition", "if 1 { }", errors.E2013, "if condition must be bool"},
		{"break condition", "loop { break if 1 }", errors.E2013, "break condition must be bool"},
		{"loop count type", "loop 1.5 { }", errors.E2013, "loop count must be int or uint"},
		{"range type", `loop i in 0.."a" { }`, errors.E2013, "range bounds must be int"},
		{"argument count", "fn f(a: int) { }\nf()", errors.E2016, "expects 1 arguments, got 0"},
		{"argument type", "fn f(a: int) { }\nf(true)", errors.E2013, `cannot use bool value as int argument "a"`},
		{"void value", "fn f() { }\ndata x = f()", errors.E2013, `function "f" does not return a value`},
		{"return value from void", "fn f() { return 1 }", errors.E2005, "does not return a value"},
		{"missing return value", "fn f() -> int { return }", errors.E2005, "missing return value"},
		{"missing return", "fn f() -> int { }", errors.E2005, "missing return at end"},
		{"return type", "fn f() -> int { return true }", errors.E2013, "cannot return bool value"},
		{"main params", "fn Main(a: int) { }", errors.E2016, "must not take parameters"},
		{"top-level return with Main", "fn Main() { print(1) }\nreturn 1", errors.E2005, "prevents Main from running"},
		{"nested top-level return with Main", "loop 2 { return }\nfn Main() { }", errors.E2005, "prevents Main from running"},
		{"global in function", "data g = 1\nfn f() { print(g) }", errors.E2001, `undefined variable "g"`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, _, err := analyze(t, tt.input)
			require.Error(t, err)
			errs := errors.CompileErrors(err)
			require.NotEmpty(t, errs)
			assert.Equal(t, tt.code, errs[0].Code)
			assert.Contains(t, errs[0].Message, tt.msg)
		})
	}
}

func TestUndefinedSuggestions(t *testing.T) {
	_, _, err := analyze(t, "data counter = 1\nprint(countr)")
	errs := errors.CompileErrors(err)
	require.Len(t, errs, 1)
	require.NotEmpty(t, errs[0].Suggestions)
	assert.Equal(t, "counter", errs[0].Suggestions[0].Value)
	assert.Equal(t, 2, errs[0].Line)
	assert.Equal(t, "print(countr)", errs[0].SourceLine)
}

func TestGlobalNote(t *testing.T) {
	_, _, err := analyze(t, "data g = 1\nfn f() { print(g) }")
	errs := errors.CompileErrors(err)
	require.Len(t, errs, 1)
	assert.Contains(t, errs[0].Note, "not visible inside functions")
}

func TestRedeclaredNote(t *testing.T) {
	_, _, err := analyze(t, "data x = 1\n\ndata x = 2")
	errs := errors.CompileErrors(err)
	require.Len(t, errs, 1)
	assert.Equal(t, "previous declaration at line 1", errs[0].Note)
}

func TestMultipleErrorsReported(t *testing.T) {
	tree, err := parser.Parse(context.Background(), "print(a)\nprint(b)\nc()")
	require.NoError(t, err)
	sink := errors.NewCollector("")
	_, err = Analyze(tree, sink)
	require.Error(t, err)
	assert.Len(t, errors.CompileErrors(err), 3)
	assert.Len(t, sink.Diagnostics(), 3)
}

func TestScopesEnd(t *testing.T) {
	_, _, err := analyze(t, `
if true { data x = 1 }
if true { data x = 2 }
loop i in 0..1 { }
loop i in 0..1 { }
print(x)
`)
	errs := errors.CompileErrors(err)
	require.Len(t, errs, 1)
	assert.Equal(t, errors.E2001, errs[0].Code)
}
