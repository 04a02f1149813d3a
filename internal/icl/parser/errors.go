package parser

import (
	"fmt"

	"github.com/ICL-System/ICL-Runtime/internal/icl/diag"
	"github.com/ICL-System/ICL-Runtime/internal/icl/token"
)

// ErrorKind is a machine-readable parse error classification
// (spec.md §4.2, §7).
type ErrorKind string

const (
	ErrLexError        ErrorKind = "LexError"
	ErrUnexpectedToken ErrorKind = "UnexpectedToken"
	ErrDuplicateSection ErrorKind = "DuplicateSection"
	ErrMissingSection  ErrorKind = "MissingSection"
	ErrMalformedValue  ErrorKind = "MalformedValue"
	ErrMissingField    ErrorKind = "MissingField"
)

// ParseError is one diagnostic raised while parsing. It carries the
// original lexeme verbatim when it refers to a symbol, per spec.md §4.2.
type ParseError struct {
	Kind    ErrorKind
	Span    token.Span
	Message string
	Lexeme  string
}

// Error implements the error interface.
func (e *ParseError) Error() string {
	if e.Lexeme != "" {
		return fmt.Sprintf("%d:%d: %s: %s (%q)", e.Span.Line, e.Span.Column, e.Kind, e.Message, e.Lexeme)
	}
	return fmt.Sprintf("%d:%d: %s: %s", e.Span.Line, e.Span.Column, e.Kind, e.Message)
}

// Diagnostic renders the parse error as a pipeline-wide diag.Diagnostic.
func (e *ParseError) Diagnostic() *diag.Diagnostic {
	return &diag.Diagnostic{
		Phase:    diag.PhaseParse,
		Code:     string(e.Kind),
		Severity: diag.SeverityError,
		Message:  e.Message,
		Span:     diag.FromTokenSpan(e.Span),
	}
}

// ToDiagnostics renders a slice of ParseErrors as a diag.List, in order.
func ToDiagnostics(errs []*ParseError) diag.List {
	out := make(diag.List, len(errs))
	for i, e := range errs {
		out[i] = e.Diagnostic()
	}
	return out
}
