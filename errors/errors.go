// Package errors defines the diagnostics produced while compiling and running
// Hexe programs: coded compile errors with source context, runtime faults,
// and the Sink through which the compiler reports them.
package errors

import (
	"fmt"
	"strings"
)

// FormattableError is an interface for errors that can be formatted with
// the enhanced error formatter (with colors, source context, etc).
type FormattableError interface {
	Error() string
	ToFormatted() *FormattedError
}

// RuntimeError describes a fault raised by the virtual machine while
// executing an instruction.
type RuntimeError struct {
	Code       ErrorCode
	Message    string
	IP         int // byte offset of the faulting instruction
	Opcode     string
	FrameDepth int
	Stack      []StackFrame
}

// Error implements the error interface.
func (e *RuntimeError) Error() string {
	var b strings.Builder
	b.WriteString("runtime error: ")
	b.WriteString(e.Message)
	if e.Opcode != "" {
		fmt.Fprintf(&b, " (at %d %s, frame depth %d)", e.IP, e.Opcode, e.FrameDepth)
	}
	return b.String()
}

// ToFormatted converts to the FormattedError type for display.
func (e *RuntimeError) ToFormatted() *FormattedError {
	fe := &FormattedError{
		Code:    e.Code,
		Kind:    "runtime error",
		Message: e.Message,
		Stack:   e.Stack,
	}
	if e.Opcode != "" {
		fe.Note = fmt.Sprintf("while executing %s at offset %d (frame depth %d)",
			e.Opcode, e.IP, e.FrameDepth)
	}
	return fe
}

// FriendlyErrorMessage returns a human-friendly error message.
func (e *RuntimeError) FriendlyErrorMessage() string {
	return NewFormatter(false).Format(e.ToFormatted())
}

// RuntimeErrorf creates a RuntimeError with the given code and message.
// Instruction details are filled in by the VM.
func RuntimeErrorf(code ErrorCode, format string, args ...any) *RuntimeError {
	return &RuntimeError{Code: code, Message: fmt.Sprintf(format, args...)}
}

// LoadError describes a Hexe executable that failed validation. Err is the
// underlying bytecode error and can be tested with errors.Is.
type LoadError struct {
	Code     ErrorCode
	Filename string
	Err      error
}

// Error implements the error interface.
func (e *LoadError) Error() string {
	if e.Filename != "" {
		return fmt.Sprintf("load %s: %v", e.Filename, e.Err)
	}
	return fmt.Sprintf("load: %v", e.Err)
}

// Unwrap returns the underlying error.
func (e *LoadError) Unwrap() error {
	return e.Err
}

// ToFormatted converts to the FormattedError type for display.
func (e *LoadError) ToFormatted() *FormattedError {
	return &FormattedError{
		Code:     e.Code,
		Kind:     "load error",
		Message:  e.Err.Error(),
		Filename: e.Filename,
	}
}
