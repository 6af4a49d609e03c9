package errors

import (
	"fmt"
	"strings"

	"github.com/hashicorp/go-multierror"
)

// CompileError represents a compilation error with rich context. Parse,
// semantic and code generation errors all use this type.
type CompileError struct {
	Code        ErrorCode
	Message     string
	Filename    string
	Line        int
	Column      int
	EndColumn   int
	SourceLine  string
	Suggestions []Suggestion
	Note        string
}

// Error implements the error interface.
func (e *CompileError) Error() string {
	var b strings.Builder
	b.WriteString("compile error: ")
	b.WriteString(e.Message)
	if e.Filename != "" || e.Line > 0 {
		b.WriteString("\n\nlocation: ")
		if e.Filename != "" {
			b.WriteString(e.Filename)
			b.WriteString(":")
		}
		fmt.Fprintf(&b, "%d:%d", e.Line, e.Column)
		fmt.Fprintf(&b, " (line %d, column %d)", e.Line, e.Column)
	}
	return b.String()
}

// FriendlyErrorMessage returns a human-friendly error message.
func (e *CompileError) FriendlyErrorMessage() string {
	return NewFormatter(false).Format(e.ToFormatted())
}

// ToFormatted converts to the FormattedError type for display.
func (e *CompileError) ToFormatted() *FormattedError {
	fe := &FormattedError{
		Code:      e.Code,
		Kind:      "error",
		Message:   e.Message,
		Filename:  e.Filename,
		Line:      e.Line,
		Column:    e.Column,
		EndColumn: e.EndColumn,
		Note:      e.Note,
	}
	if e.SourceLine != "" {
		fe.SourceLines = []SourceLineEntry{
			{Number: e.Line, Text: e.SourceLine, IsMain: true},
		}
	}
	if len(e.Suggestions) > 0 {
		fe.Hint = FormatSuggestions(e.Suggestions)
	}
	return fe
}

// CompileErrors returns every *CompileError contained in err, which may be a
// single CompileError or a multierror produced by a Collector.
func CompileErrors(err error) []*CompileError {
	if err == nil {
		return nil
	}
	var result []*CompileError
	switch err := err.(type) {
	case *CompileError:
		result = append(result, err)
	case *multierror.Error:
		for _, e := range err.Errors {
			result = append(result, CompileErrors(e)...)
		}
	}
	return result
}

// FriendlyErrorMessage formats err for display. Multiple compile errors are
// numbered and summarized.
func FriendlyErrorMessage(err error, useColor bool) string {
	formatter := NewFormatter(useColor)
	if compileErrs := CompileErrors(err); len(compileErrs) > 0 {
		formatted := make([]*FormattedError, 0, len(compileErrs))
		for _, ce := range compileErrs {
			formatted = append(formatted, ce.ToFormatted())
		}
		return formatter.FormatMultiple(formatted)
	}
	if fe, ok := err.(FormattableError); ok {
		return formatter.Format(fe.ToFormatted())
	}
	return err.Error()
}
