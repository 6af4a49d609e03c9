package sema

import (
	"fmt"
	"sort"

	"github.com/hexe-lang/hexe/ast"
	"github.com/hexe-lang/hexe/errors"
	"github.com/hexe-lang/hexe/object"
)

type analyzer struct {
	tree    *ast.Tree
	info    *Info
	diag    *errors.Collector
	sink    errors.Sink
	globals *scope
	scope   *scope
	fn      *Function
}

// Analyze type-checks the program. Every problem is reported to sink (which
// may be nil) and the error-level diagnostics are returned together as a
// single error. The Info is returned even when analysis fails.
func Analyze(tree *ast.Tree, sink errors.Sink) (*Info, error) {
	a := &analyzer{
		tree: tree,
		info: newInfo(),
		diag: errors.NewCollector(tree.Source),
		sink: sink,
	}
	a.globals = newScope(nil)
	a.scope = a.globals
	if tree.Root == ast.NoNode {
		return a.info, nil
	}
	statements := tree.Statements(tree.Root)
	for _, stmt := range statements {
		if tree.Kind(stmt) == ast.FuncNode {
			a.declareFunction(stmt)
		}
	}
	for _, stmt := range statements {
		if tree.Kind(stmt) == ast.FuncNode {
			a.functionBody(stmt)
			continue
		}
		a.statement(stmt)
	}
	return a.info, a.diag.Err()
}

func (a *analyzer) errorf(code errors.ErrorCode, id ast.NodeID, format string, args ...any) *errors.CompileError {
	err := errors.NewCompileError(code, a.tree.Pos(id), format, args...)
	a.diag.Report(errors.LevelError, err)
	if a.sink != nil {
		a.sink.Report(errors.LevelError, err)
	}
	return err
}

func (a *analyzer) parseType(name string, id ast.NodeID) object.Type {
	t, ok := object.ParseType(name)
	if !ok {
		err := a.errorf(errors.E2018, id, "unknown type %q", name)
		err.Suggestions = errors.SuggestSimilar(name, []string{"int", "uint", "float", "bool", "string"})
	}
	return t
}

func (a *analyzer) declareFunction(id ast.NodeID) {
	v := a.tree.Func(id)
	if _, exists := a.info.functions[v.Name]; exists {
		a.errorf(errors.E2011, id, "function %q redeclared", v.Name)
		return
	}
	f := &Function{Name: v.Name, Return: object.NONE, Node: id}
	if v.ReturnType != "" {
		f.Return = a.parseType(v.ReturnType, id)
	}
	seen := map[string]bool{}
	for _, p := range v.Params {
		param := a.tree.Param(p)
		if seen[param.Name] {
			a.errorf(errors.E2006, p, "duplicate parameter %q in function %q", param.Name, v.Name)
		}
		seen[param.Name] = true
		f.Params = append(f.Params, Param{Name: param.Name, Type: a.parseType(param.TypeName, p)})
	}
	if v.Name == MainFunction {
		if len(f.Params) > 0 {
			a.errorf(errors.E2016, id, "function %s must not take parameters", MainFunction)
		}
		if v.ReturnType != "" {
			a.errorf(errors.E2005, id, "function %s must not return a value", MainFunction)
		}
	}
	a.info.functions[v.Name] = f
	a.info.order = append(a.info.order, v.Name)
}

func (a *analyzer) functionBody(id ast.NodeID) {
	v := a.tree.Func(id)
	f, ok := a.info.functions[v.Name]
	if !ok || f.Node != id {
		return
	}
	outerScope, outerFn := a.scope, a.fn
	defer func() { a.scope, a.fn = outerScope, outerFn }()
	a.fn = f
	a.scope = newScope(nil)
	for i, p := range v.Params {
		if _, exists := a.scope.lookup(f.Params[i].Name); exists {
			continue
		}
		a.scope.insert(&symbol{name: f.Params[i].Name, typ: f.Params[i].Type, pos: a.tree.Pos(p)})
	}
	a.block(v.Body)
	if !f.IsVoid() && !a.terminates(v.Body) {
		a.errorf(errors.E2005, id, "missing return at end of function %q", v.Name)
	}
}

// terminates reports whether control cannot reach the end of the statement.
func (a *analyzer) terminates(id ast.NodeID) bool {
	switch a.tree.Kind(id) {
	case ast.ReturnNode:
		return true
	case ast.BlockNode:
		stmts := a.tree.Statements(id)
		return len(stmts) > 0 && a.terminates(stmts[len(stmts)-1])
	case ast.IfNode:
		v := a.tree.If(id)
		return v.Else != ast.NoNode && a.terminates(v.Then) && a.terminates(v.Else)
	}
	return false
}

func (a *analyzer) block(id ast.NodeID) {
	a.scope = newScope(a.scope)
	defer func() { a.scope = a.scope.parent }()
	for _, stmt := range a.tree.Statements(id) {
		a.statement(stmt)
	}
}

func (a *analyzer) statement(id ast.NodeID) {
	switch a.tree.Kind(id) {
	case ast.DeclNode:
		a.declaration(id)
	case ast.AssignNode:
		a.assignment(id)
	case ast.IfNode:
		v := a.tree.If(id)
		a.condition(v.Cond, "if")
		a.block(v.Then)
		if v.Else != ast.NoNode {
			a.statement(v.Else)
		}
	case ast.LoopNode:
		a.loop(id)
	case ast.BreakNode, ast.SkipNode:
		if cond := a.tree.Cond(id); cond != ast.NoNode {
			context := "break"
			if a.tree.Kind(id) == ast.SkipNode {
				context = "skip"
			}
			a.condition(cond, context)
		}
	case ast.ReturnNode:
		a.returnStatement(id)
	case ast.PrintNode:
		a.value(a.tree.Operand(id))
	case ast.ExprStmtNode:
		a.expr(a.tree.Operand(id))
	case ast.BlockNode:
		a.block(id)
	case ast.FuncNode:
		a.errorf(errors.E2019, id, "function %q declared outside the top level", a.tree.Func(id).Name)
	default:
		a.errorf(errors.E2019, id, "unexpected %s node in statement position", a.tree.Kind(id))
	}
}

func (a *analyzer) declare(id ast.NodeID, sym *symbol) {
	if prev, exists := a.scope.lookup(sym.name); exists {
		err := a.errorf(errors.E2011, id, "%q is already declared", sym.name)
		if prev.pos.IsValid() {
			err.Note = fmt.Sprintf("previous declaration at line %d", prev.pos.LineNumber())
		}
		return
	}
	a.scope.insert(sym)
	if a.scope == a.globals {
		a.info.globals = append(a.info.globals, sym.name)
	}
}

func (a *analyzer) declaration(id ast.NodeID) {
	v := a.tree.Decl(id)
	typ := a.value(v.Value)
	if v.TypeName != "" {
		want := a.parseType(v.TypeName, id)
		if want != object.INVALID && typ != object.INVALID && typ != want {
			a.errorf(errors.E2013, v.Value, "cannot use %s value as %s in declaration of %q", typ, want, v.Name)
		}
		typ = want
	}
	a.declare(id, &symbol{name: v.Name, typ: typ, constant: v.Const, pos: a.tree.Pos(id)})
}

func (a *analyzer) assignment(id ast.NodeID) {
	v := a.tree.Assign(id)
	name := a.tree.Name(v.Target)
	valueType := a.value(v.Value)
	sym, ok := a.scope.lookup(name)
	if !ok {
		a.undefined(v.Target, name)
		return
	}
	switch {
	case sym.counter && sym.constant:
		a.errorf(errors.E2015, v.Target, "cannot assign to immutable loop counter %q", name)
		return
	case sym.constant:
		a.errorf(errors.E2015, v.Target, "cannot assign to constant %q", name)
		return
	}
	if valueType == object.INVALID || sym.typ == object.INVALID {
		return
	}
	if v.IsCompound() {
		a.binaryType(id, v.BinaryOperator(), sym.typ, valueType)
		return
	}
	if valueType != sym.typ {
		a.errorf(errors.E2013, v.Value, "cannot assign %s value to %q of type %s", valueType, name, sym.typ)
	}
}

func (a *analyzer) loop(id ast.NodeID) {
	v := a.tree.Loop(id)
	a.scope = newScope(a.scope)
	defer func() { a.scope = a.scope.parent }()
	switch v.Shape {
	case ast.LoopWhile, ast.LoopDoWhile:
		if v.Shape == ast.LoopDoWhile {
			a.block(v.Body)
			a.condition(v.Cond, "loop")
			return
		}
		a.condition(v.Cond, "loop")
	case ast.LoopCount:
		if t := a.value(v.Count); t != object.INVALID && t != object.INT && t != object.UINT {
			a.errorf(errors.E2013, v.Count, "loop count must be int or uint, found %s", t)
		}
	case ast.LoopRange:
		for _, bound := range []ast.NodeID{v.Start, v.End} {
			if t := a.value(bound); t != object.INVALID && t != object.INT {
				a.errorf(errors.E2013, bound, "range bounds must be int, found %s", t)
			}
		}
		a.declare(id, &symbol{
			name:     v.Counter,
			typ:      object.INT,
			constant: !v.Mutable,
			counter:  true,
			pos:      a.tree.Pos(id),
		})
	}
	a.block(v.Body)
}

func (a *analyzer) returnStatement(id ast.NodeID) {
	value := a.tree.Operand(id)
	if a.fn == nil {
		if value != ast.NoNode {
			a.value(value)
		}
		// A top-level return halts the program before Main is called.
		if _, ok := a.info.functions[MainFunction]; ok {
			a.errorf(errors.E2005, id, "return outside a function prevents %s from running", MainFunction)
		}
		return
	}
	switch {
	case a.fn.IsVoid() && value != ast.NoNode:
		a.expr(value)
		a.errorf(errors.E2005, id, "function %q does not return a value", a.fn.Name)
	case !a.fn.IsVoid() && value == ast.NoNode:
		a.errorf(errors.E2005, id, "missing return value in function %q", a.fn.Name)
	case value != ast.NoNode:
		if t := a.value(value); t != object.INVALID && t != a.fn.Return {
			a.errorf(errors.E2013, value, "cannot return %s value from function %q returning %s",
				t, a.fn.Name, a.fn.Return)
		}
	}
}

func (a *analyzer) condition(id ast.NodeID, context string) {
	if t := a.value(id); t != object.INVALID && t != object.BOOL {
		a.errorf(errors.E2013, id, "%s condition must be bool, found %s", context, t)
	}
}

func (a *analyzer) undefined(id ast.NodeID, name string) {
	err := a.errorf(errors.E2001, id, "undefined variable %q", name)
	candidates := a.scope.names()
	sort.Strings(candidates)
	err.Suggestions = errors.SuggestSimilar(name, candidates)
	if a.fn != nil {
		if _, global := a.globals.lookup(name); global {
			err.Note = "top-level variables are not visible inside functions"
		}
	}
}

// value checks an expression whose result is used.
func (a *analyzer) value(id ast.NodeID) object.Type {
	t := a.expr(id)
	if t == object.NONE {
		a.errorf(errors.E2013, id, "function %q does not return a value", a.tree.Name(id))
		return object.INVALID
	}
	return t
}

func (a *analyzer) expr(id ast.NodeID) object.Type {
	var t object.Type
	switch a.tree.Kind(id) {
	case ast.LiteralNode:
		t = a.tree.Node(id).Value.Type()
	case ast.IdentNode:
		name := a.tree.Name(id)
		sym, ok := a.scope.lookup(name)
		if !ok {
			a.undefined(id, name)
			return object.INVALID
		}
		t = sym.typ
	case ast.PrefixNode:
		t = a.prefix(id)
	case ast.InfixNode:
		operator, lhs, rhs := a.tree.Binary(id)
		left, right := a.value(lhs), a.value(rhs)
		if left == object.INVALID || right == object.INVALID {
			return object.INVALID
		}
		t = a.binaryType(id, operator, left, right)
	case ast.CallNode:
		t = a.call(id)
	default:
		a.errorf(errors.E2019, id, "unexpected %s node in expression position", a.tree.Kind(id))
		return object.INVALID
	}
	if t != object.INVALID {
		a.info.types[id] = t
	}
	return t
}

func (a *analyzer) prefix(id ast.NodeID) object.Type {
	operator, operand := a.tree.Unary(id)
	t := a.value(operand)
	if t == object.INVALID {
		return object.INVALID
	}
	switch operator {
	case "-":
		if t == object.INT || t == object.FLOAT {
			return t
		}
	case "!":
		if t == object.BOOL {
			return t
		}
	default:
		a.errorf(errors.E2017, id, "unknown operator %q", operator)
		return object.INVALID
	}
	a.errorf(errors.E2013, id, "bad operand type for unary %s: %s", operator, t)
	return object.INVALID
}

// binaryType returns the result type of applying a binary operator to
// operands of the given types.
func (a *analyzer) binaryType(id ast.NodeID, operator string, left, right object.Type) object.Type {
	if left != right {
		a.errorf(errors.E2013, id, "mismatched types %s and %s for operator %s", left, right, operator)
		return object.INVALID
	}
	ok := false
	result := left
	switch operator {
	case "&&", "||":
		ok = left == object.BOOL
	case "==", "!=":
		ok, result = true, object.BOOL
	case "<", "<=", ">", ">=":
		ok, result = left.IsNumeric() || left == object.STRING, object.BOOL
	case "+":
		ok = left.IsNumeric() || left == object.STRING
	case "-", "*", "/", "%":
		ok = left.IsNumeric()
	default:
		a.errorf(errors.E2017, id, "unknown operator %q", operator)
		return object.INVALID
	}
	if !ok {
		a.errorf(errors.E2013, id, "operator %s is not defined for %s", operator, left)
		return object.INVALID
	}
	return result
}

func (a *analyzer) call(id ast.NodeID) object.Type {
	name := a.tree.Name(id)
	args := a.tree.Args(id)
	argTypes := make([]object.Type, len(args))
	for i, arg := range args {
		argTypes[i] = a.value(arg)
	}
	f, ok := a.info.functions[name]
	if !ok {
		err := a.errorf(errors.E2002, id, "undefined function %q", name)
		err.Suggestions = errors.SuggestSimilar(name, a.info.order)
		return object.INVALID
	}
	if len(args) != len(f.Params) {
		a.errorf(errors.E2016, id, "function %q expects %d arguments, got %d", name, len(f.Params), len(args))
		return f.Return
	}
	for i, t := range argTypes {
		want := f.Params[i].Type
		if t != object.INVALID && want != object.INVALID && t != want {
			a.errorf(errors.E2013, args[i], "cannot use %s value as %s argument %q in call to %q",
				t, want, f.Params[i].Name, name)
		}
	}
	return f.Return
}
