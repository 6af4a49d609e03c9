// Package compiler generates register-based Hexe bytecode from a parsed and
// analyzed program.
package compiler

import (
	"github.com/hexe-lang/hexe/ast"
	"github.com/hexe-lang/hexe/bytecode"
	"github.com/hexe-lang/hexe/errors"
	"github.com/hexe-lang/hexe/object"
	"github.com/hexe-lang/hexe/op"
	"github.com/hexe-lang/hexe/sema"
	"github.com/rs/zerolog"
)

const (
	// MaxCallFrame is the largest caller window a Call instruction can
	// encode.
	MaxCallFrame = 255

	// MaxRegisters is the number of addressable registers in one window.
	// The last register index is reserved for the return slot.
	MaxRegisters = int(op.RegisterReturn)
)

// Config holds compiler configuration options.
type Config struct {
	// Filename is the source filename, used for error messages.
	Filename string

	// Sink receives every diagnostic as it is reported, in addition to the
	// error returned by Compile.
	Sink errors.Sink

	// Logger receives debug output about the generated code. Nil disables
	// logging.
	Logger *zerolog.Logger
}

// Compiler holds the state of one code generation run.
type Compiler struct {
	tree      *ast.Tree
	info      *sema.Info
	container *bytecode.Container
	diag      *errors.Collector
	sink      errors.Sink
	logger    zerolog.Logger
	filename  string

	functions map[string]*Function
	order     []*Function
	pending   []pendingCall

	// State of the function being generated. current is nil for the global
	// statements.
	current *Function
	frame   *RegisterFrame
	symbols *SymbolTable
	loops   []*loopContext
	buffer  []uint16

	constantsFull bool
	registersFull bool
}

// Compile generates bytecode for a program that passed semantic analysis.
// Pass nil for cfg to use default settings. Generation continues past errors
// so that all of them are reported; if any was reported no container is
// returned.
func Compile(tree *ast.Tree, info *sema.Info, cfg *Config) (*bytecode.Container, error) {
	c := New(tree, info, cfg)
	return c.Compile()
}

// New returns a Compiler for the given program.
func New(tree *ast.Tree, info *sema.Info, cfg *Config) *Compiler {
	if cfg == nil {
		cfg = &Config{}
	}
	c := &Compiler{
		tree:      tree,
		info:      info,
		container: bytecode.NewContainer(),
		diag:      errors.NewCollector(tree.Source),
		sink:      cfg.Sink,
		logger:    zerolog.Nop(),
		filename:  cfg.Filename,
		functions: map[string]*Function{},
	}
	if c.filename == "" {
		c.filename = tree.Filename
	}
	if cfg.Logger != nil {
		c.logger = *cfg.Logger
	}
	return c
}

// Function returns the metadata of a compiled function.
func (c *Compiler) Function(name string) (*Function, bool) {
	f, ok := c.functions[name]
	return f, ok
}

// Compile runs code generation. Function bodies are laid out first, in
// source order, followed by the global statements.
func (c *Compiler) Compile() (*bytecode.Container, error) {
	var statements []ast.NodeID
	if c.tree.Root != ast.NoNode {
		statements = c.tree.Statements(c.tree.Root)
	}
	// Create metadata up front so calls may refer to functions declared
	// later in the source.
	for _, f := range c.info.Functions() {
		params := make([]string, len(f.Params))
		for i, p := range f.Params {
			params[i] = p.Name
		}
		fn := newFunction(f.Name, f.Return, params)
		c.functions[f.Name] = fn
		c.order = append(c.order, fn)
	}
	for _, stmt := range statements {
		if c.tree.Kind(stmt) == ast.FuncNode {
			c.compileFunction(stmt)
		}
	}

	entry := c.container.Len()
	c.current = nil
	c.frame = NewRegisterFrame()
	c.symbols = NewSymbolTable()
	last := ast.NoNode
	for _, stmt := range statements {
		if c.tree.Kind(stmt) != ast.FuncNode {
			c.statement(stmt)
			last = stmt
		}
	}
	// A trailing top-level return already ends in Halt. Analysis rejects
	// top-level returns when Main is defined.
	if last == ast.NoNode || c.tree.Kind(last) != ast.ReturnNode {
		if main, ok := c.functions[sema.MainFunction]; ok {
			c.emitCall(main.Name, c.tree.Root)
		} else {
			c.container.Write(op.Halt)
		}
	}
	c.container.SetEntryPoint(uint64(entry))
	c.container.SetMainFrame(uint16(c.frame.Total()))
	c.resolvePendingCalls()

	c.logger.Debug().
		Int("entry_point", entry).
		Int("main_frame", c.frame.Total()).
		Int("code_size", c.container.Len()).
		Int("constants", c.container.ConstantCount()).
		Msg("generated program")

	if err := c.diag.Err(); err != nil {
		return nil, err
	}
	return c.container, nil
}

func (c *Compiler) errorf(code errors.ErrorCode, id ast.NodeID, format string, args ...any) *errors.CompileError {
	var err *errors.CompileError
	if id == ast.NoNode {
		err = errors.Errorf(code, format, args...)
		err.Filename = c.filename
	} else {
		err = errors.NewCompileError(code, c.tree.Pos(id), format, args...)
		if err.Filename == "" {
			err.Filename = c.filename
		}
	}
	c.diag.Report(errors.LevelError, err)
	if c.sink != nil {
		c.sink.Report(errors.LevelError, err)
	}
	return err
}

func (c *Compiler) compileFunction(id ast.NodeID) {
	v := c.tree.Func(id)
	f, ok := c.functions[v.Name]
	if !ok || f.Address >= 0 {
		c.errorf(errors.E2019, id, "no metadata for function %q", v.Name)
		return
	}
	f.Address = c.container.Len()
	c.current = f
	c.frame = f.Frame
	c.symbols = NewSymbolTable()
	c.loops = nil
	c.buffer = nil
	defer func() { c.current = nil }()

	for i, name := range f.params {
		if _, ok := c.symbols.Insert(name, uint16(i), true, object.INVALID); !ok {
			c.errorf(errors.E2006, v.Params[i], "duplicate parameter %q", name)
		}
	}
	stmts := c.tree.Statements(v.Body)
	c.block(v.Body)
	endsInReturn := len(stmts) > 0 && c.tree.Kind(stmts[len(stmts)-1]) == ast.ReturnNode
	switch {
	case f.Name == sema.MainFunction:
		if !endsInReturn {
			c.container.Write(op.Halt)
		}
	case f.IsVoid():
		if !endsInReturn {
			c.container.Write(op.Return, op.RegisterReturn)
		}
	}
	c.logger.Debug().
		Str("function", f.Name).
		Int("address", f.Address).
		Int("frame_size", f.FrameSize()).
		Msg("generated function")
}

// allocate returns a free register of the current frame.
func (c *Compiler) allocate(id ast.NodeID) uint16 {
	reg := c.frame.Allocate()
	if c.frame.Total() > MaxRegisters && !c.registersFull {
		c.registersFull = true
		c.errorf(errors.E2007, id, "too many registers in use (limit %d)", MaxRegisters)
	}
	return reg
}

// constant adds v to the constant pool and returns its index.
func (c *Compiler) constant(v object.Value, id ast.NodeID) uint16 {
	idx, err := c.container.AddConstant(v)
	if err != nil {
		if !c.constantsFull {
			c.constantsFull = true
			c.errorf(errors.E2008, id, "%s (limit %d)", err, bytecode.MaxConstants)
		}
		return 0
	}
	return idx
}

func (c *Compiler) push(reg uint16) {
	c.buffer = append(c.buffer, reg)
}

func (c *Compiler) pop() uint16 {
	last := len(c.buffer) - 1
	reg := c.buffer[last]
	c.buffer = c.buffer[:last]
	return reg
}

// releaseBuffer frees every register still held in the expression buffer.
func (c *Compiler) releaseBuffer() {
	for _, reg := range c.buffer {
		c.frame.Free(reg)
	}
	c.buffer = c.buffer[:0]
}

// value compiles an expression and returns the register holding its result.
func (c *Compiler) value(id ast.NodeID) uint16 {
	c.expr(id)
	return c.pop()
}

// scratch returns a register that is safe to overwrite: src itself if it is
// a temporary, or a copy if src belongs to a symbol.
func (c *Compiler) scratch(src uint16, id ast.NodeID) uint16 {
	if !c.frame.Locked(src) {
		return src
	}
	reg := c.allocate(id)
	c.container.Write(op.Move, reg, src)
	return reg
}

// hold locks a register for the duration of a construct.
func (c *Compiler) hold(reg uint16) uint16 {
	c.frame.Lock(reg)
	return reg
}

func (c *Compiler) release(regs ...uint16) {
	for _, reg := range regs {
		c.frame.Unlock(reg)
		c.frame.Free(reg)
	}
}

func (c *Compiler) enterScope() {
	c.symbols.Enter()
}

func (c *Compiler) leaveScope() {
	for _, s := range c.symbols.Leave() {
		c.release(s.Register)
	}
}

func (c *Compiler) block(id ast.NodeID) {
	c.enterScope()
	defer c.leaveScope()
	for _, stmt := range c.tree.Statements(id) {
		c.statement(stmt)
	}
}

func (c *Compiler) statement(id ast.NodeID) {
	defer c.releaseBuffer()
	switch c.tree.Kind(id) {
	case ast.DeclNode:
		c.compileDecl(id)
	case ast.AssignNode:
		c.compileAssign(id)
	case ast.IfNode:
		c.compileIf(id)
	case ast.LoopNode:
		c.compileLoop(id)
	case ast.BreakNode:
		c.compileLoopJump(id, true)
	case ast.SkipNode:
		c.compileLoopJump(id, false)
	case ast.ReturnNode:
		c.compileReturn(id)
	case ast.PrintNode:
		c.compilePrint(id)
	case ast.ExprStmtNode:
		operand := c.tree.Operand(id)
		if c.tree.Kind(operand) == ast.CallNode {
			c.compileCall(operand, false)
			return
		}
		c.expr(operand)
	case ast.BlockNode:
		c.block(id)
	default:
		c.errorf(errors.E2019, id, "unexpected %s node in statement position", c.tree.Kind(id))
		c.container.Write(op.Err)
	}
}

func (c *Compiler) compileDecl(id ast.NodeID) {
	v := c.tree.Decl(id)
	reg := c.scratch(c.value(v.Value), id)
	if _, ok := c.symbols.Insert(v.Name, reg, !v.Const, c.info.TypeOf(v.Value)); !ok {
		c.errorf(errors.E2011, id, "%q is already declared", v.Name)
		c.frame.Free(reg)
		return
	}
	c.hold(reg)
}

func (c *Compiler) compileAssign(id ast.NodeID) {
	v := c.tree.Assign(id)
	name := c.tree.Name(v.Target)
	sym, ok := c.symbols.Get(name)
	if !ok {
		err := c.errorf(errors.E2001, v.Target, "undefined variable %q", name)
		err.Suggestions = errors.SuggestSimilar(name, c.symbols.Names())
		return
	}
	if !sym.Mutable {
		c.errorf(errors.E2015, v.Target, "cannot assign to constant %q", name)
		return
	}
	src := c.value(v.Value)
	if !v.IsCompound() {
		c.container.Write(op.Move, sym.Register, src)
	} else if code, ok := arithmeticOps[v.BinaryOperator()]; ok {
		c.container.Write(code, sym.Register, sym.Register, src)
	} else {
		c.errorf(errors.E2017, id, "unknown assignment operator %q", v.Operator)
	}
	c.frame.Free(src)
}

func (c *Compiler) compileIf(id ast.NodeID) {
	v := c.tree.If(id)
	cond := c.value(v.Cond)
	skipThen := c.jumpForward(op.JumpWhenFalse, cond)
	c.frame.Free(cond)
	c.block(v.Then)
	if v.Else == ast.NoNode {
		c.patchHere(skipThen, id)
		return
	}
	skipElse := c.jumpForward(op.Jump)
	c.patchHere(skipThen, id)
	if c.tree.Kind(v.Else) == ast.IfNode {
		c.compileIf(v.Else)
	} else {
		c.block(v.Else)
	}
	c.patchHere(skipElse, id)
}

func (c *Compiler) compileReturn(id ast.NodeID) {
	value := c.tree.Operand(id)
	switch {
	case c.current == nil:
		// A top-level return stores the exit value and stops the program.
		if value != ast.NoNode {
			reg := c.value(value)
			c.container.Write(op.Return, reg)
			c.frame.Free(reg)
		}
		c.container.Write(op.Halt)
	case c.current.Name == sema.MainFunction:
		c.container.Write(op.Halt)
	case value == ast.NoNode:
		c.container.Write(op.Return, op.RegisterReturn)
	default:
		reg := c.value(value)
		c.container.Write(op.Return, reg)
		c.frame.Free(reg)
	}
}

func (c *Compiler) compilePrint(id ast.NodeID) {
	operand := c.tree.Operand(id)
	if n := c.tree.Node(operand); n.Kind == ast.LiteralNode && n.Value.Type() == object.STRING {
		c.container.Write(op.Print, c.constant(n.Value, operand))
		return
	}
	reg := c.value(operand)
	c.container.Write(op.PrintValue, reg)
	c.frame.Free(reg)
}
