package ssi

import (
	"errors"
	"log/slog"
	"strconv"
	"strings"
)

// Predefined errors (sentinel values).
var (
	ErrGrammar          = NewError("grammar error")
	ErrEndMarker        = NewError("end marker not found")
	ErrExpression       = NewError("expression evaluation failed")
	ErrIncludeConfig    = NewError("include must declare exactly one of file or virtual")
	ErrUnknownDirective = NewError("unknown directive")
	ErrMissingAttr      = NewError("missing required attribute")
	ErrStubUndefined    = NewError("stub not defined in context")
	ErrReadFile         = NewError("failed to read include file")
	ErrFetch            = NewError("failed to fetch virtual include")
	ErrReadInput        = NewError("failed to read input")
)

// Error represents an error with optional structured logging attributes.
// It implements both error and slog.LogValuer interfaces.
type Error struct {
	msg   string
	err   error       // Wrapped error (for errors.Unwrap)
	attrs []slog.Attr // Attributes for structured logging
}

// NewError creates a new Error with a message.
func NewError(msg string) *Error {
	return &Error{msg: msg}
}

// WrapError wraps a standard error into an Error.
func WrapError(err error) *Error {
	ee := &Error{}
	if errors.As(err, &ee) {
		return ee
	}

	return &Error{err: err}
}

// Error implements the error interface.
func (e *Error) Error() string {
	part := make([]string, 0, 2)

	if e.msg != "" {
		part = append(part, e.msg)
	}

	if e.err != nil {
		part = append(part, e.err.Error())
	}

	return strings.Join(part, ": ")
}

// Unwrap implements error unwrapping for errors.Is/As.
func (e *Error) Unwrap() error { return e.err }

// Is matches a derived error against its sentinel: Wrap and With return new
// instances, so identity comparison alone would never match.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)

	return ok && t.msg == e.msg
}

// LogValue implements slog.LogValuer for rich structured logging.
func (e *Error) LogValue() slog.Value {
	attrs := make([]slog.Attr, 0, len(e.attrs)+2)

	if e.msg != "" {
		attrs = append(attrs, slog.String("error", e.msg))
	}

	if e.err != nil {
		attrs = append(attrs, slog.String("cause", e.err.Error()))
	}

	return slog.GroupValue(append(attrs, e.attrs...)...)
}

// Wrap creates a new Error wrapping another error.
func (e *Error) Wrap(err error) *Error {
	return &Error{
		msg:   e.msg,
		err:   err,
		attrs: e.attrs, // Share attrs
	}
}

// With adds attributes to the error for structured logging.
// This creates a new Error instance to maintain immutability.
func (e *Error) With(attrs ...slog.Attr) *Error {
	newAttrs := make([]slog.Attr, len(e.attrs)+len(attrs))
	copy(newAttrs, e.attrs)
	copy(newAttrs[len(e.attrs):], attrs)

	return &Error{
		msg:   e.msg,
		err:   e.err,
		attrs: newAttrs,
	}
}

// ParseError decorates a parse-time failure with its document position.
// When the source is available, Error renders the offending line with a
// caret marker below the failing column.
type ParseError struct {
	Err    error
	Source string
	Line   int // 1-based
	Column int // 1-based
}

// newParseError locates offset within source and wraps err with the
// resulting line and column.
func newParseError(err error, source string, offset int) *ParseError {
	if offset < 0 {
		offset = 0
	}

	if offset > len(source) {
		offset = len(source)
	}

	head := source[:offset]
	line := strings.Count(head, "\n") + 1
	col := offset - strings.LastIndexByte(head, '\n')

	return &ParseError{
		Err:    err,
		Source: source,
		Line:   line,
		Column: col,
	}
}

// Error implements the error interface.
func (e *ParseError) Error() string {
	var buf strings.Builder

	buf.WriteString(e.Err.Error())
	buf.WriteString(" at line ")
	buf.WriteString(strconv.Itoa(e.Line))
	buf.WriteString(", column ")
	buf.WriteString(strconv.Itoa(e.Column))

	lines := strings.Split(e.Source, "\n")
	if e.Line < 1 || e.Line > len(lines) {
		return buf.String()
	}

	buf.WriteString(":\n")

	// Print the line with line number
	buf.WriteString("  ")
	buf.WriteString(strconv.Itoa(e.Line))
	buf.WriteString(" | ")
	buf.WriteString(lines[e.Line-1])
	buf.WriteRune('\n')

	// Print marker pointing to the column
	// +5 accounts for: 2 leading spaces + " | " (3 chars)
	padding := strings.Repeat(" ", len(strconv.Itoa(e.Line))+5)
	if e.Column > 0 {
		padding += strings.Repeat(" ", e.Column-1)
	}

	buf.WriteString(padding + "^")

	return buf.String()
}

// Unwrap implements error unwrapping for errors.Is/As.
func (e *ParseError) Unwrap() error { return e.Err }
