package compiler

import (
	"math"

	"github.com/hexe-lang/hexe/ast"
	"github.com/hexe-lang/hexe/errors"
	"github.com/hexe-lang/hexe/object"
	"github.com/hexe-lang/hexe/op"
)

// patchRecord is a jump whose offset operand is written later.
type patchRecord struct {
	offset      int
	conditional bool
}

// loopContext collects the pending break and skip jumps of one loop.
type loopContext struct {
	start  int
	breaks []patchRecord
	skips  []patchRecord
}

// CalcJump returns the encoded offset of a jump from the instruction that
// ends at after to target. Offsets are signed 16-bit values; ok is false if
// the distance does not fit.
func CalcJump(after, target int) (offset uint16, ok bool) {
	distance := target - after
	if distance < math.MinInt16 || distance > math.MaxInt16 {
		return op.JumpSentinel, false
	}
	return uint16(int16(distance)), true
}

// jumpForward writes a jump with a placeholder offset. Conditional jumps take
// the condition register as their first operand.
func (c *Compiler) jumpForward(code op.Code, operands ...uint16) patchRecord {
	offset := c.container.Write(code, append(operands, op.JumpSentinel)...)
	return patchRecord{offset: offset, conditional: code != op.Jump}
}

// patch points a forward jump at target.
func (c *Compiler) patch(rec patchRecord, target int, id ast.NodeID) {
	code, operand := op.Jump, 0
	if rec.conditional {
		code, operand = op.JumpWhenTrue, 1
	}
	after := rec.offset + op.GetInfo(code).Size()
	offset, ok := CalcJump(after, target)
	if !ok {
		c.errorf(errors.E2012, id, "jump distance %d is out of range", target-after)
	}
	c.container.Patch(rec.offset, offset, operand)
}

// patchHere points a forward jump at the next instruction to be written.
func (c *Compiler) patchHere(rec patchRecord, id ast.NodeID) {
	c.patch(rec, c.container.Len(), id)
}

// jumpBack writes a jump to an already emitted target.
func (c *Compiler) jumpBack(code op.Code, target int, id ast.NodeID, operands ...uint16) {
	after := c.container.Len() + op.GetInfo(code).Size()
	offset, ok := CalcJump(after, target)
	if !ok {
		c.errorf(errors.E2012, id, "jump distance %d is out of range", target-after)
	}
	c.container.Write(code, append(operands, offset)...)
}

func (c *Compiler) pushLoop() *loopContext {
	ctx := &loopContext{start: c.container.Len()}
	c.loops = append(c.loops, ctx)
	return ctx
}

// resolveSkips points the loop's skip jumps at the next instruction.
func (c *Compiler) resolveSkips(ctx *loopContext, id ast.NodeID) {
	for _, rec := range ctx.skips {
		c.patchHere(rec, id)
	}
	ctx.skips = nil
}

// finishLoop points the loop's break jumps past the loop and pops it.
func (c *Compiler) finishLoop(ctx *loopContext, id ast.NodeID) {
	for _, rec := range ctx.breaks {
		c.patchHere(rec, id)
	}
	c.loops = c.loops[:len(c.loops)-1]
}

// exitUnless ends the loop when the condition register holds false.
func (c *Compiler) exitUnless(ctx *loopContext, cond uint16) {
	ctx.breaks = append(ctx.breaks, c.jumpForward(op.JumpWhenFalse, cond))
	c.frame.Free(cond)
}

func (c *Compiler) loadConstant(v object.Value, id ast.NodeID) uint16 {
	reg := c.allocate(id)
	c.container.Write(op.LoadConstant, reg, c.constant(v, id))
	return reg
}

func (c *Compiler) compileLoop(id ast.NodeID) {
	v := c.tree.Loop(id)
	c.enterScope()
	defer c.leaveScope()
	switch v.Shape {
	case ast.LoopInfinite:
		ctx := c.pushLoop()
		c.block(v.Body)
		c.resolveSkips(ctx, id)
		c.jumpBack(op.Jump, ctx.start, id)
		c.finishLoop(ctx, id)

	case ast.LoopWhile:
		ctx := c.pushLoop()
		c.exitUnless(ctx, c.value(v.Cond))
		c.block(v.Body)
		c.resolveSkips(ctx, id)
		c.jumpBack(op.Jump, ctx.start, id)
		c.finishLoop(ctx, id)

	case ast.LoopDoWhile:
		ctx := c.pushLoop()
		c.block(v.Body)
		c.resolveSkips(ctx, id)
		cond := c.value(v.Cond)
		c.jumpBack(op.JumpWhenTrue, ctx.start, id, cond)
		c.frame.Free(cond)
		c.finishLoop(ctx, id)

	case ast.LoopCount:
		c.compileCountLoop(id, v)

	case ast.LoopRange:
		c.compileRangeLoop(id, v)
	}
}

// compileCountLoop emits "loop N { }". The count is evaluated once and a
// hidden counter steps from zero towards it.
func (c *Compiler) compileCountLoop(id ast.NodeID, v ast.Loop) {
	if n := c.tree.Node(v.Count); n.Kind == ast.LiteralNode && n.Value.Type() == object.INT && n.Value.Int64() < 0 {
		c.errorf(errors.E2014, v.Count, "loop count must not be negative, got %d", n.Value.Int64())
		return
	}
	zero, one := object.NewInt(0), object.NewInt(1)
	if c.info.TypeOf(v.Count) == object.UINT {
		zero, one = object.NewUint(0), object.NewUint(1)
	}
	target := c.hold(c.scratch(c.value(v.Count), v.Count))
	counter := c.hold(c.loadConstant(zero, id))
	step := c.hold(c.loadConstant(one, id))

	ctx := c.pushLoop()
	test := c.allocate(id)
	c.container.Write(op.CmpLesser, test, counter, target)
	c.exitUnless(ctx, test)
	c.block(v.Body)
	c.resolveSkips(ctx, id)
	c.container.Write(op.Add, counter, counter, step)
	c.jumpBack(op.Jump, ctx.start, id)
	c.finishLoop(ctx, id)
	c.release(target, counter, step)
}

// compileRangeLoop emits "loop i in a..b { }" and its mutable form. Both
// bounds are inclusive and the loop counts down when a > b.
func (c *Compiler) compileRangeLoop(id ast.NodeID, v ast.Loop) {
	counter := c.hold(c.scratch(c.value(v.Start), v.Start))
	var held []uint16
	// A variable bound of the mutable form is tested in place, so the body
	// can move it.
	end := c.value(v.End)
	if !v.Mutable || !c.frame.Locked(end) {
		end = c.hold(c.scratch(end, v.End))
		held = append(held, end)
	}
	step := c.hold(c.loadConstant(object.NewInt(1), id))

	ascending := c.allocate(id)
	c.container.Write(op.CmpLesserEq, ascending, counter, end)
	keepStep := c.jumpForward(op.JumpWhenTrue, ascending)
	c.frame.Free(ascending)
	c.container.Write(op.Negate, step, step)
	c.patchHere(keepStep, id)

	held = append(held, step)
	var stop, zero uint16
	if v.Mutable {
		zero = c.hold(c.loadConstant(object.NewInt(0), id))
		held = append(held, zero)
	} else {
		stop = c.hold(c.allocate(id))
		c.container.Write(op.Add, stop, end, step)
		held = append(held, stop)
	}
	if _, ok := c.symbols.Insert(v.Counter, counter, v.Mutable, object.INT); !ok {
		c.errorf(errors.E2011, id, "%q is already declared", v.Counter)
		held = append(held, counter)
	}

	ctx := c.pushLoop()
	test := c.allocate(id)
	if v.Mutable {
		// The body may move the counter, so the remaining distance is
		// re-derived on every iteration: (end - counter) * step >= 0.
		c.container.Write(op.Sub, test, end, counter)
		c.container.Write(op.Mul, test, test, step)
		c.container.Write(op.CmpGreaterEq, test, test, zero)
	} else {
		c.container.Write(op.NotEquals, test, counter, stop)
	}
	c.exitUnless(ctx, test)
	c.block(v.Body)
	c.resolveSkips(ctx, id)
	c.container.Write(op.Add, counter, counter, step)
	c.jumpBack(op.Jump, ctx.start, id)
	c.finishLoop(ctx, id)
	c.release(held...)
}

func (c *Compiler) compileLoopJump(id ast.NodeID, isBreak bool) {
	if len(c.loops) == 0 {
		if isBreak {
			c.errorf(errors.E2003, id, "break outside of a loop")
		} else {
			c.errorf(errors.E2004, id, "skip outside of a loop")
		}
		return
	}
	ctx := c.loops[len(c.loops)-1]
	var rec patchRecord
	if cond := c.tree.Cond(id); cond != ast.NoNode {
		reg := c.value(cond)
		rec = c.jumpForward(op.JumpWhenTrue, reg)
		c.frame.Free(reg)
	} else {
		rec = c.jumpForward(op.Jump)
	}
	if isBreak {
		ctx.breaks = append(ctx.breaks, rec)
	} else {
		ctx.skips = append(ctx.skips, rec)
	}
}
