package compiler

import (
	"github.com/hexe-lang/hexe/ast"
	"github.com/hexe-lang/hexe/errors"
	"github.com/hexe-lang/hexe/op"
)

var arithmeticOps = map[string]op.Code{
	"+": op.Add,
	"-": op.Sub,
	"*": op.Mul,
	"/": op.Div,
	"%": op.Mod,
}

var comparisonOps = map[string]op.Code{
	">":  op.CmpGreater,
	">=": op.CmpGreaterEq,
	"<":  op.CmpLesser,
	"<=": op.CmpLesserEq,
	"==": op.Equals,
	"!=": op.NotEquals,
}

// expr compiles an expression and pushes the register holding its result.
func (c *Compiler) expr(id ast.NodeID) {
	switch c.tree.Kind(id) {
	case ast.LiteralNode:
		dst := c.allocate(id)
		c.container.Write(op.LoadConstant, dst, c.constant(c.tree.Node(id).Value, id))
		c.push(dst)
	case ast.IdentNode:
		c.compileIdent(id)
	case ast.PrefixNode:
		c.compilePrefix(id)
	case ast.InfixNode:
		c.compileInfix(id)
	case ast.CallNode:
		c.compileCall(id, true)
	default:
		c.errorf(errors.E2019, id, "unexpected %s node in expression position", c.tree.Kind(id))
		c.container.Write(op.Err)
		c.push(c.allocate(id))
	}
}

func (c *Compiler) compileIdent(id ast.NodeID) {
	name := c.tree.Name(id)
	sym, ok := c.symbols.Get(name)
	if !ok {
		err := c.errorf(errors.E2001, id, "undefined variable %q", name)
		err.Suggestions = errors.SuggestSimilar(name, c.symbols.Names())
		c.push(c.allocate(id))
		return
	}
	c.push(sym.Register)
}

func (c *Compiler) compilePrefix(id ast.NodeID) {
	operator, operand := c.tree.Unary(id)
	src := c.value(operand)
	c.frame.Free(src)
	dst := c.allocate(id)
	switch operator {
	case "-":
		c.container.Write(op.Negate, dst, src)
	case "!":
		c.container.Write(op.Not, dst, src)
	default:
		c.errorf(errors.E2017, id, "unknown operator %q", operator)
	}
	c.push(dst)
}

func (c *Compiler) compileInfix(id ast.NodeID) {
	operator, lhs, rhs := c.tree.Binary(id)
	switch operator {
	case "&&":
		c.compileLogical(lhs, rhs, op.JumpWhenFalse, id)
		return
	case "||":
		c.compileLogical(lhs, rhs, op.JumpWhenTrue, id)
		return
	}
	left := c.value(lhs)
	right := c.value(rhs)
	c.frame.Free(left)
	c.frame.Free(right)
	dst := c.allocate(id)
	if code, ok := arithmeticOps[operator]; ok {
		c.container.Write(code, dst, left, right)
	} else if code, ok := comparisonOps[operator]; ok {
		c.container.Write(code, dst, left, right)
	} else {
		c.errorf(errors.E2017, id, "unknown operator %q", operator)
	}
	c.push(dst)
}

// compileLogical emits a short-circuit "&&" or "||". The right operand is
// skipped when the left operand alone decides the result.
func (c *Compiler) compileLogical(lhs, rhs ast.NodeID, jump op.Code, id ast.NodeID) {
	dst := c.allocate(id)
	left := c.value(lhs)
	c.container.Write(op.Move, dst, left)
	c.frame.Free(left)
	skip := c.jumpForward(jump, dst)
	right := c.value(rhs)
	c.container.Write(op.Move, dst, right)
	c.frame.Free(right)
	c.patchHere(skip, id)
	c.push(dst)
}

// compileCall evaluates the arguments, moves them into the registers just
// above the caller's window and emits the Call. When wantResult is set the
// result is copied out of the return slot into a fresh register.
func (c *Compiler) compileCall(id ast.NodeID, wantResult bool) {
	name := c.tree.Name(id)
	args := c.tree.Args(id)
	regs := make([]uint16, len(args))
	for i, arg := range args {
		regs[i] = c.value(arg)
	}
	callerTotal := c.frame.Total()
	if callerTotal+len(args) > MaxRegisters {
		c.errorf(errors.E2007, id, "too many registers in use for call to %q", name)
	}
	for i, reg := range regs {
		c.container.Write(op.Move, uint16(callerTotal+i), reg)
	}
	c.emitCall(name, id)
	for _, reg := range regs {
		c.frame.Free(reg)
	}
	if wantResult {
		dst := c.allocate(id)
		c.container.Write(op.Move, dst, op.RegisterReturn)
		c.push(dst)
	}
}

// emitCall writes a Call to the named function using the current frame size
// as the caller's window. Calls to functions not yet laid out are resolved
// once all code has been generated.
func (c *Compiler) emitCall(name string, id ast.NodeID) {
	frameSize := c.frame.Total()
	if frameSize > MaxCallFrame {
		c.errorf(errors.E2007, id, "caller window of %d registers exceeds the call limit of %d",
			frameSize, MaxCallFrame)
		frameSize = MaxCallFrame
	}
	f, ok := c.functions[name]
	if ok && f.Address >= 0 {
		c.container.WriteCall(uint8(frameSize), uint32(f.Address))
		return
	}
	offset := c.container.WriteCall(uint8(frameSize), uint32(op.JumpSentinel))
	c.pending = append(c.pending, pendingCall{offset: offset, callee: name, node: id})
}

func (c *Compiler) resolvePendingCalls() {
	for _, p := range c.pending {
		f, ok := c.functions[p.callee]
		if !ok || f.Address < 0 {
			err := c.errorf(errors.E2002, p.node, "undefined function %q", p.callee)
			names := make([]string, 0, len(c.order))
			for _, fn := range c.order {
				names = append(names, fn.Name)
			}
			err.Suggestions = errors.SuggestSimilar(p.callee, names)
			continue
		}
		c.container.PatchCall(p.offset, uint32(f.Address))
	}
	c.pending = nil
}
