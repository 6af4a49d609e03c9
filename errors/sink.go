package errors

import (
	"fmt"
	"strings"

	"github.com/hashicorp/go-multierror"
	"github.com/hexe-lang/hexe/internal/token"
	"github.com/rs/zerolog"
)

// Level is the severity of a diagnostic.
type Level int

const (
	LevelInfo Level = iota
	LevelWarning
	LevelError
)

func (l Level) String() string {
	switch l {
	case LevelInfo:
		return "info"
	case LevelWarning:
		return "warning"
	case LevelError:
		return "error"
	default:
		return fmt.Sprintf("level(%d)", int(l))
	}
}

// Diagnostic is a single message reported during compilation.
type Diagnostic struct {
	Level Level
	Err   *CompileError
}

// Sink receives diagnostics from the parser, the semantic analyzer and the
// code generator. Reporting never aborts the reporting phase.
type Sink interface {
	Report(level Level, err *CompileError)
}

// NewCompileError creates a CompileError located at pos.
func NewCompileError(code ErrorCode, pos token.Position, format string, args ...any) *CompileError {
	return &CompileError{
		Code:     code,
		Message:  fmt.Sprintf(format, args...),
		Filename: pos.File,
		Line:     pos.LineNumber(),
		Column:   pos.ColumnNumber(),
	}
}

// Errorf creates a CompileError that has no source location.
func Errorf(code ErrorCode, format string, args ...any) *CompileError {
	return &CompileError{Code: code, Message: fmt.Sprintf(format, args...)}
}

// WithSourceLine attaches the offending line of source to the error.
func (e *CompileError) WithSourceLine(source string) *CompileError {
	if e.Line <= 0 || source == "" {
		return e
	}
	lines := strings.Split(source, "\n")
	if e.Line <= len(lines) {
		e.SourceLine = strings.TrimRight(lines[e.Line-1], "\r")
	}
	return e
}

// Collector is a Sink that keeps every diagnostic it receives.
type Collector struct {
	diagnostics []Diagnostic
	source      string
}

// NewCollector returns an empty Collector. When source is not empty, the
// offending source line is attached to each collected error.
func NewCollector(source string) *Collector {
	return &Collector{source: source}
}

// Report implements Sink.
func (c *Collector) Report(level Level, err *CompileError) {
	if err == nil {
		return
	}
	c.diagnostics = append(c.diagnostics, Diagnostic{Level: level, Err: err.WithSourceLine(c.source)})
}

// Diagnostics returns everything reported so far, in order.
func (c *Collector) Diagnostics() []Diagnostic {
	return c.diagnostics
}

// HasErrors reports whether an error-level diagnostic was received.
func (c *Collector) HasErrors() bool {
	for _, d := range c.diagnostics {
		if d.Level >= LevelError {
			return true
		}
	}
	return false
}

// Err returns the error-level diagnostics combined into a single error, or
// nil if there were none.
func (c *Collector) Err() error {
	var result *multierror.Error
	for _, d := range c.diagnostics {
		if d.Level >= LevelError {
			result = multierror.Append(result, d.Err)
		}
	}
	if result == nil {
		return nil
	}
	result.ErrorFormat = formatErrorList
	return result.ErrorOrNil()
}

func formatErrorList(errs []error) string {
	if len(errs) == 1 {
		return errs[0].Error()
	}
	msgs := make([]string, len(errs))
	for i, err := range errs {
		msgs[i] = "* " + err.Error()
	}
	return fmt.Sprintf("%d errors occurred:\n%s", len(errs), strings.Join(msgs, "\n"))
}

// LogSink writes diagnostics to a zerolog logger.
type LogSink struct {
	logger zerolog.Logger
}

// NewLogSink returns a Sink that logs through logger.
func NewLogSink(logger zerolog.Logger) *LogSink {
	return &LogSink{logger: logger}
}

// Report implements Sink.
func (s *LogSink) Report(level Level, err *CompileError) {
	var ev *zerolog.Event
	switch level {
	case LevelError:
		ev = s.logger.Error()
	case LevelWarning:
		ev = s.logger.Warn()
	default:
		ev = s.logger.Info()
	}
	ev.Str("code", string(err.Code))
	if err.Line > 0 {
		ev.Str("file", err.Filename).Int("line", err.Line).Int("column", err.Column)
	}
	ev.Msg(err.Message)
}

type tee []Sink

func (t tee) Report(level Level, err *CompileError) {
	for _, s := range t {
		s.Report(level, err)
	}
}

// Tee returns a Sink that forwards each diagnostic to every non-nil sink.
func Tee(sinks ...Sink) Sink {
	var t tee
	for _, s := range sinks {
		if s != nil {
			t = append(t, s)
		}
	}
	return t
}
