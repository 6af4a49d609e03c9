// Package hexe compiles Hexe source code to register-based bytecode and runs
// it on the Hexe Virtual Machine.
package hexe

import (
	"context"
	stderrors "errors"

	"github.com/hexe-lang/hexe/bytecode"
	"github.com/hexe-lang/hexe/compiler"
	"github.com/hexe-lang/hexe/errors"
	"github.com/hexe-lang/hexe/parser"
	"github.com/hexe-lang/hexe/sema"
	"github.com/hexe-lang/hexe/vm"
)

// Compile parses, analyzes and compiles source code. Errors from every stage
// are *errors.CompileError values, aggregated when there is more than one;
// use errors.CompileErrors to list them.
func Compile(ctx context.Context, source string, opts ...Option) (*Program, error) {
	o := collectOptions(opts...)
	tree, err := parser.Parse(ctx, source, o.parserOpts()...)
	if err != nil {
		return nil, err
	}
	info, err := sema.Analyze(tree, o.diagnostics())
	if err != nil {
		return nil, err
	}
	container, err := compiler.Compile(tree, info, o.compilerConfig())
	if err != nil {
		return nil, err
	}
	return &Program{
		container: container,
		source:    source,
		filename:  o.filename,
	}, nil
}

// Build compiles source code and returns it encoded as a Hexe executable.
func Build(ctx context.Context, source string, opts ...Option) ([]byte, error) {
	program, err := Compile(ctx, source, opts...)
	if err != nil {
		return nil, err
	}
	return program.Bytes(), nil
}

// Load decodes a Hexe executable produced by Build. Invalid input is
// rejected with an *errors.LoadError.
func Load(data []byte, opts ...Option) (*Program, error) {
	o := collectOptions(opts...)
	container, err := bytecode.Deserialize(data)
	if err != nil {
		return nil, loadError(o.filename, err)
	}
	return &Program{container: container, filename: o.filename}, nil
}

func loadError(filename string, err error) *errors.LoadError {
	code := errors.E4004
	switch {
	case stderrors.Is(err, bytecode.ErrBadMagic):
		code = errors.E4001
	case stderrors.Is(err, bytecode.ErrVersionMismatch):
		code = errors.E4002
	case stderrors.Is(err, bytecode.ErrChecksumMismatch):
		code = errors.E4003
	}
	return &errors.LoadError{Code: code, Filename: filename, Err: err}
}

// Exec executes a compiled program and returns the content of its return
// slot as a native Go value. Each call creates a fresh Virtual Machine, so
// the same Program may be executed concurrently.
func Exec(ctx context.Context, program *Program, opts ...Option) (any, error) {
	o := collectOptions(opts...)
	result, err := vm.Run(ctx, program.container, o.vmOpts()...)
	if err != nil {
		return nil, err
	}
	return result.Interface(), nil
}

// Run compiles and executes source code. It is equivalent to Compile
// followed by Exec.
func Run(ctx context.Context, source string, opts ...Option) (any, error) {
	program, err := Compile(ctx, source, opts...)
	if err != nil {
		return nil, err
	}
	return Exec(ctx, program, opts...)
}
