package hexe

import (
	"io"

	"github.com/hexe-lang/hexe/compiler"
	"github.com/hexe-lang/hexe/errors"
	"github.com/hexe-lang/hexe/parser"
	"github.com/hexe-lang/hexe/vm"
	"github.com/rs/zerolog"
)

// Option configures a Hexe compilation or execution.
type Option func(*options)

type options struct {
	filename         string
	output           io.Writer
	logger           *zerolog.Logger
	observer         vm.Observer
	sink             errors.Sink
	instructionLimit int64
}

func collectOptions(opts ...Option) *options {
	o := &options{}
	for _, opt := range opts {
		if opt != nil {
			opt(o)
		}
	}
	return o
}

// diagnostics returns the sink that compile diagnostics are reported to.
func (o *options) diagnostics() errors.Sink {
	if o.logger == nil {
		return o.sink
	}
	return errors.Tee(o.sink, errors.NewLogSink(*o.logger))
}

func (o *options) parserOpts() []parser.Option {
	var opts []parser.Option
	if o.filename != "" {
		opts = append(opts, parser.WithFilename(o.filename))
	}
	if sink := o.diagnostics(); sink != nil {
		opts = append(opts, parser.WithSink(sink))
	}
	return opts
}

func (o *options) compilerConfig() *compiler.Config {
	return &compiler.Config{
		Filename: o.filename,
		Sink:     o.diagnostics(),
		Logger:   o.logger,
	}
}

func (o *options) vmOpts() []vm.Option {
	var opts []vm.Option
	if o.output != nil {
		opts = append(opts, vm.WithOutput(o.output))
	}
	if o.logger != nil {
		opts = append(opts, vm.WithLogger(*o.logger))
	}
	if o.observer != nil {
		opts = append(opts, vm.WithObserver(o.observer))
	}
	if o.instructionLimit > 0 {
		opts = append(opts, vm.WithInstructionLimit(o.instructionLimit))
	}
	return opts
}

// WithFilename sets the filename of the source code. It is used in error
// messages.
func WithFilename(filename string) Option {
	return func(o *options) {
		o.filename = filename
	}
}

// WithOutput sets the writer that print statements write to. Defaults to
// os.Stdout.
func WithOutput(w io.Writer) Option {
	return func(o *options) {
		o.output = w
	}
}

// WithLogger enables debug logging of compilation and execution. Compile
// diagnostics are logged as they are reported.
func WithLogger(logger zerolog.Logger) Option {
	return func(o *options) {
		o.logger = &logger
	}
}

// WithObserver sets an observer for VM execution events.
func WithObserver(observer vm.Observer) Option {
	return func(o *options) {
		o.observer = observer
	}
}

// WithSink sets a sink that receives every compile diagnostic as it is
// reported.
func WithSink(sink errors.Sink) Option {
	return func(o *options) {
		o.sink = sink
	}
}

// WithInstructionLimit stops execution with an error after the given number
// of instructions.
func WithInstructionLimit(limit int64) Option {
	return func(o *options) {
		o.instructionLimit = limit
	}
}
