// Package vm provides a VirtualMachine that executes Hexe bytecode.
//
// The machine keeps one flat slice of registers shared by every call. Each
// function sees a window of that slice starting at the frame offset; a Call
// moves the window past the caller's registers and a Return moves it back.
package vm

import (
	"context"
	"encoding/binary"
	stderrors "errors"
	"fmt"
	"io"
	"os"
	"sync"
	"sync/atomic"

	"github.com/hexe-lang/hexe/bytecode"
	"github.com/hexe-lang/hexe/errors"
	"github.com/hexe-lang/hexe/object"
	"github.com/hexe-lang/hexe/op"
	"github.com/rs/zerolog"
)

const (
	DefaultMaxFrameDepth = 1024

	// DefaultContextCheckInterval is the number of instructions between
	// deterministic checks of ctx.Done(). Set to 0 to disable.
	DefaultContextCheckInterval = 1000
)

// ErrRunning is returned when Execute is called on a VM that is already
// executing a program.
var ErrRunning = stderrors.New("vm is already running")

// Status is the outcome of an execution.
type Status uint8

const (
	// Ok means the program reached Halt.
	Ok Status = iota

	// CompileError means the program contained an Err marker or an
	// instruction that cannot be decoded.
	CompileError

	// RuntimeError means execution stopped on a fault.
	RuntimeError
)

func (s Status) String() string {
	switch s {
	case Ok:
		return "ok"
	case CompileError:
		return "compile error"
	case RuntimeError:
		return "runtime error"
	default:
		return fmt.Sprintf("status(%d)", uint8(s))
	}
}

type frame struct {
	windowSize int
	returnAddr int
}

// VirtualMachine executes a bytecode.Container. A VirtualMachine may run
// several programs one after another but is not safe for concurrent use.
type VirtualMachine struct {
	ip          int // byte offset of the next instruction
	current     int // byte offset of the executing instruction
	frameOffset int
	registers   []object.Value
	frames      []frame
	ret         object.Value
	code        []byte
	container   *bytecode.Container
	executed    int64
	halt        int32
	running     bool
	runMutex    sync.Mutex
	stopped     chan struct{}

	out                  io.Writer
	logger               zerolog.Logger
	contextCheckInterval int
	instructionLimit     int64
	maxFrameDepth        int

	observer    Observer
	observerCfg ObserverConfig
	sinceSample int
}

// New creates a new Virtual Machine.
func New(options ...Option) *VirtualMachine {
	vm := &VirtualMachine{
		out:                  os.Stdout,
		logger:               zerolog.Nop(),
		contextCheckInterval: DefaultContextCheckInterval,
		maxFrameDepth:        DefaultMaxFrameDepth,
		ret:                  object.None(),
	}
	for _, opt := range options {
		opt(vm)
	}
	return vm
}

func (vm *VirtualMachine) start(ctx context.Context) error {
	vm.runMutex.Lock()
	defer vm.runMutex.Unlock()
	if vm.running {
		return ErrRunning
	}
	vm.running = true
	atomic.StoreInt32(&vm.halt, 0)
	vm.stopped = make(chan struct{})
	// Halt execution when the context is cancelled
	if doneChan := ctx.Done(); doneChan != nil {
		go func(stopped <-chan struct{}) {
			select {
			case <-doneChan:
				atomic.StoreInt32(&vm.halt, 1)
			case <-stopped:
			}
		}(vm.stopped)
	}
	return nil
}

func (vm *VirtualMachine) stop() {
	vm.runMutex.Lock()
	defer vm.runMutex.Unlock()
	vm.running = false
	close(vm.stopped)
}

// Execute runs the program in c from its entry point until it halts or
// faults. The returned error is nil exactly when the status is Ok; faults
// raised by instructions are *errors.RuntimeError values.
func (vm *VirtualMachine) Execute(ctx context.Context, c *bytecode.Container) (status Status, err error) {
	if c == nil {
		return CompileError, fmt.Errorf("no program to execute")
	}
	if err := vm.start(ctx); err != nil {
		return RuntimeError, err
	}
	defer func() {
		if r := recover(); r != nil {
			status, err = RuntimeError, fmt.Errorf("panic: %v", r)
		}
		vm.stop()
	}()

	if err := vm.load(c); err != nil {
		return CompileError, err
	}
	status, err = vm.eval(ctx)
	vm.logger.Debug().
		Stringer("status", status).
		Int64("instructions", vm.executed).
		Int("registers", len(vm.registers)).
		Str("return", vm.ret.String()).
		Msg("execution finished")
	return status, err
}

func (vm *VirtualMachine) load(c *bytecode.Container) error {
	vm.container = c
	vm.code = c.Instructions()
	entry := c.EntryPoint()
	if entry > uint64(len(vm.code)) {
		return errors.RuntimeErrorf(errors.E3003, "entry point %d is outside the %d byte program",
			entry, len(vm.code))
	}
	vm.ip = int(entry)
	vm.current = vm.ip
	vm.frameOffset = 0
	vm.frames = vm.frames[:0]
	vm.registers = make([]object.Value, int(c.MainFrame()))
	vm.ret = object.None()
	vm.executed = 0
	vm.sinceSample = 0
	if vm.observer != nil {
		vm.observerCfg = NormalizeConfig(vm.observer.Config())
	}
	return nil
}

// ReturnValue returns the content of the return slot: the value of the last
// executed Return, or none.
func (vm *VirtualMachine) ReturnValue() object.Value {
	return vm.ret
}

// Register returns register i of the window that was active when execution
// stopped.
func (vm *VirtualMachine) Register(i int) (object.Value, bool) {
	idx := vm.frameOffset + i
	if i < 0 || idx >= len(vm.registers) {
		return object.Value{}, false
	}
	return vm.registers[idx], true
}

// FrameDepth returns the number of active calls.
func (vm *VirtualMachine) FrameDepth() int {
	return len(vm.frames)
}

// Executed returns the number of instructions run by the last Execute.
func (vm *VirtualMachine) Executed() int64 {
	return vm.executed
}

func (vm *VirtualMachine) eval(ctx context.Context) (Status, error) {
	var sinceCheck int
	checkInterval := vm.contextCheckInterval
	doneChan := ctx.Done()

	for {
		if atomic.LoadInt32(&vm.halt) == 1 {
			return RuntimeError, ctx.Err()
		}
		if checkInterval > 0 && doneChan != nil {
			sinceCheck++
			if sinceCheck >= checkInterval {
				sinceCheck = 0
				select {
				case <-doneChan:
					atomic.StoreInt32(&vm.halt, 1)
					return RuntimeError, ctx.Err()
				default:
				}
			}
		}

		vm.current = vm.ip
		if vm.ip == len(vm.code) {
			return Ok, nil
		}
		if vm.ip < 0 || vm.ip > len(vm.code) {
			return RuntimeError, vm.fault(errors.E3003, "instruction pointer %d is out of bounds", vm.ip)
		}
		code := op.Code(vm.code[vm.ip])
		info := op.GetInfo(code)
		if !info.IsValid() {
			return CompileError, vm.fault(errors.E3011, "invalid opcode %d", uint8(code))
		}
		if vm.ip+info.Size() > len(vm.code) {
			return CompileError, vm.fault(errors.E3011, "truncated %s instruction", info.Name)
		}

		vm.executed++
		if vm.instructionLimit > 0 && vm.executed > vm.instructionLimit {
			return RuntimeError, vm.fault(errors.E3012, "instruction limit of %d exceeded", vm.instructionLimit)
		}
		if vm.observer != nil && !vm.observeStep(code, info) {
			return RuntimeError, vm.fault(errors.E3013, "execution halted by observer")
		}

		start := vm.ip
		vm.ip += info.Size()
		operand := func(n int) uint16 {
			return binary.LittleEndian.Uint16(vm.code[start+1+2*n:])
		}

		switch code {
		case op.Halt:
			return Ok, nil

		case op.Err:
			return CompileError, vm.fault(errors.E3007, "program contains a code generation error")

		case op.Return:
			v, err := vm.get(operand(0))
			if err != nil {
				return RuntimeError, vm.annotate(err)
			}
			vm.ret = v
			// A Return outside any call only sets the exit value.
			if len(vm.frames) == 0 {
				break
			}
			last := len(vm.frames) - 1
			f := vm.frames[last]
			vm.frames = vm.frames[:last]
			vm.frameOffset -= f.windowSize
			vm.ip = f.returnAddr
			if vm.observer != nil && vm.observerCfg.ObserveReturns {
				event := ReturnEvent{ReturnAddr: f.returnAddr, Value: v, FrameDepth: len(vm.frames)}
				if !vm.observer.OnReturn(event) {
					return RuntimeError, vm.fault(errors.E3013, "execution halted by observer")
				}
			}

		case op.LoadConstant:
			idx := int(operand(1))
			if idx >= vm.container.ConstantCount() {
				return RuntimeError, vm.fault(errors.E3003, "constant index %d is out of bounds", idx)
			}
			vm.set(operand(0), vm.container.ConstantAt(idx))

		case op.Move:
			v, err := vm.get(operand(1))
			if err != nil {
				return RuntimeError, vm.annotate(err)
			}
			vm.set(operand(0), v.Copy())

		case op.Add, op.Sub, op.Mul, op.Div, op.Mod:
			a, b, err := vm.getPair(operand(1), operand(2))
			if err != nil {
				return RuntimeError, vm.annotate(err)
			}
			opType, _ := code.BinaryOp()
			result, err := object.BinaryOp(opType, a, b)
			if err != nil {
				return RuntimeError, vm.operationFault(err)
			}
			vm.set(operand(0), result)

		case op.CmpGreater, op.CmpGreaterEq, op.CmpLesser, op.CmpLesserEq, op.Equals, op.NotEquals:
			a, b, err := vm.getPair(operand(1), operand(2))
			if err != nil {
				return RuntimeError, vm.annotate(err)
			}
			opType, _ := code.CompareOp()
			result, err := object.Compare(opType, a, b)
			if err != nil {
				return RuntimeError, vm.operationFault(err)
			}
			vm.set(operand(0), result)

		case op.Negate, op.Not:
			v, err := vm.get(operand(1))
			if err != nil {
				return RuntimeError, vm.annotate(err)
			}
			var result object.Value
			if code == op.Negate {
				result, err = object.Negate(v)
			} else {
				result, err = object.Not(v)
			}
			if err != nil {
				return RuntimeError, vm.operationFault(err)
			}
			vm.set(operand(0), result)

		case op.Jump:
			vm.ip += int(int16(operand(0)))

		case op.JumpWhenTrue, op.JumpWhenFalse:
			cond, err := vm.get(operand(0))
			if err != nil {
				return RuntimeError, vm.annotate(err)
			}
			if cond.Type() != object.BOOL {
				return RuntimeError, vm.fault(errors.E3001, "jump condition must be bool, found %s", cond.Type())
			}
			taken := 0
			if cond.Bool() == (code == op.JumpWhenTrue) {
				taken = 1
			}
			vm.ip += int(int16(operand(1))) * taken

		case op.Call:
			windowSize := int(vm.code[start+1])
			addr := int(binary.LittleEndian.Uint32(vm.code[start+2:]))
			if len(vm.frames) >= vm.maxFrameDepth {
				return RuntimeError, vm.fault(errors.E3006, "stack overflow: call depth exceeds %d", vm.maxFrameDepth)
			}
			if addr >= len(vm.code) {
				return RuntimeError, vm.fault(errors.E3003, "call target %d is out of bounds", addr)
			}
			vm.frames = append(vm.frames, frame{windowSize: windowSize, returnAddr: vm.ip})
			vm.frameOffset += windowSize
			vm.ip = addr
			if vm.observer != nil && vm.observerCfg.ObserveCalls {
				event := CallEvent{
					CallSite:   start,
					Address:    addr,
					WindowSize: windowSize,
					FrameDepth: len(vm.frames),
				}
				if !vm.observer.OnCall(event) {
					return RuntimeError, vm.fault(errors.E3013, "execution halted by observer")
				}
			}

		case op.Print:
			idx := int(operand(0))
			if idx >= vm.container.ConstantCount() {
				return RuntimeError, vm.fault(errors.E3003, "constant index %d is out of bounds", idx)
			}
			if _, err := fmt.Fprintln(vm.out, vm.container.ConstantAt(idx).Inspect()); err != nil {
				return RuntimeError, fmt.Errorf("print: %w", err)
			}

		case op.PrintValue:
			v, err := vm.get(operand(0))
			if err != nil {
				return RuntimeError, vm.annotate(err)
			}
			if _, err := fmt.Fprintln(vm.out, v.Inspect()); err != nil {
				return RuntimeError, fmt.Errorf("print: %w", err)
			}

		default:
			return CompileError, vm.fault(errors.E3011, "unhandled opcode %s", info.Name)
		}
	}
}

// get reads a register of the current window, or the return slot.
func (vm *VirtualMachine) get(r uint16) (object.Value, error) {
	if r == op.RegisterReturn {
		return vm.ret, nil
	}
	idx := vm.frameOffset + int(r)
	if idx >= len(vm.registers) {
		return object.Value{}, errors.RuntimeErrorf(errors.E3003, "register r%d is out of bounds", r)
	}
	return vm.registers[idx], nil
}

func (vm *VirtualMachine) getPair(a, b uint16) (object.Value, object.Value, error) {
	left, err := vm.get(a)
	if err != nil {
		return object.Value{}, object.Value{}, err
	}
	right, err := vm.get(b)
	if err != nil {
		return object.Value{}, object.Value{}, err
	}
	return left, right, nil
}

// set writes a register of the current window, growing the register file
// when a callee's window reaches past it.
func (vm *VirtualMachine) set(r uint16, v object.Value) {
	if r == op.RegisterReturn {
		vm.ret = v
		return
	}
	idx := vm.frameOffset + int(r)
	if idx >= len(vm.registers) {
		vm.registers = append(vm.registers, make([]object.Value, idx+1-len(vm.registers))...)
	}
	vm.registers[idx] = v
}

func (vm *VirtualMachine) observeStep(code op.Code, info op.Info) bool {
	switch vm.observerCfg.StepMode {
	case StepNone:
		return true
	case StepSampled:
		vm.sinceSample++
		if vm.sinceSample < vm.observerCfg.SampleInterval {
			return true
		}
		vm.sinceSample = 0
	}
	return vm.observer.OnStep(StepEvent{
		IP:          vm.ip,
		Opcode:      code,
		OpcodeName:  info.Name,
		FrameOffset: vm.frameOffset,
		FrameDepth:  len(vm.frames),
	})
}

// operationFault converts an error from a value operation into a runtime
// error.
func (vm *VirtualMachine) operationFault(err error) error {
	var typeErr *object.TypeError
	switch {
	case stderrors.Is(err, object.ErrDivisionByZero):
		return vm.fault(errors.E3002, "division by zero")
	case stderrors.As(err, &typeErr):
		return vm.fault(errors.E3001, "%s", typeErr.Error())
	default:
		return vm.fault(errors.E3007, "%s", err)
	}
}

func (vm *VirtualMachine) fault(code errors.ErrorCode, format string, args ...any) error {
	return vm.annotate(errors.RuntimeErrorf(code, format, args...))
}

// annotate fills in where a runtime error happened.
func (vm *VirtualMachine) annotate(err error) error {
	var rtErr *errors.RuntimeError
	if !stderrors.As(err, &rtErr) {
		return err
	}
	rtErr.IP = vm.current
	if vm.current >= 0 && vm.current < len(vm.code) {
		rtErr.Opcode = op.Code(vm.code[vm.current]).String()
	}
	rtErr.FrameDepth = len(vm.frames)
	rtErr.Stack = make([]errors.StackFrame, 0, len(vm.frames))
	for i := len(vm.frames) - 1; i >= 0; i-- {
		rtErr.Stack = append(rtErr.Stack, errors.StackFrame{
			Depth:      i + 1,
			WindowSize: vm.frames[i].windowSize,
			ReturnAddr: vm.frames[i].returnAddr,
		})
	}
	return rtErr
}
