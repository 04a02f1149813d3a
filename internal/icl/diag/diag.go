// Package diag provides the structured diagnostic shape of the pipeline
// (spec.md §4.6). The parser and verifier report through Diagnostic, and
// lexer errors are converted to it; the executor reports through its own
// ExecutionError type.
package diag

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/ICL-System/ICL-Runtime/internal/icl/token"
)

// Phase tags which stage of the pipeline raised a diagnostic.
type Phase string

const (
	PhaseLex         Phase = "lex"
	PhaseParse       Phase = "parse"
	PhaseType        Phase = "type"
	PhaseInvariant   Phase = "invariant"
	PhaseDeterminism Phase = "determinism"
	PhaseCoherence   Phase = "coherence"
	PhaseExecution   Phase = "execution"
)

// Severity distinguishes errors (which invalidate a verification report)
// from warnings (which do not).
type Severity string

const (
	SeverityError   Severity = "error"
	SeverityWarning Severity = "warning"
)

// Span mirrors token.Span in the JSON diagnostic shape; it is a pointer
// field on Diagnostic since not every diagnostic has source position
// (e.g. a resource-accounting failure during execution may not).
type Span struct {
	Line   int `json:"line"`
	Column int `json:"column"`
}

// Diagnostic is the pipeline-wide structured error/warning record
// (spec.md §4.6): `{phase, code, message, span?, path?, hint?}`.
type Diagnostic struct {
	Phase    Phase    `json:"phase"`
	Code     string   `json:"code"`
	Severity Severity `json:"severity"`
	Message  string   `json:"message"`
	Span     *Span    `json:"span,omitempty"`
	Path     string   `json:"path,omitempty"`
	Hint     string   `json:"hint,omitempty"`
}

// FromTokenSpan builds the JSON Span from a token.Span.
func FromTokenSpan(s token.Span) *Span {
	return &Span{Line: s.Line, Column: s.Column}
}

// Error implements the error interface so a single Diagnostic can be
// returned or wrapped anywhere a Go error is expected.
func (d *Diagnostic) Error() string {
	var b strings.Builder
	if d.Span != nil {
		fmt.Fprintf(&b, "%d:%d: ", d.Span.Line, d.Span.Column)
	}
	fmt.Fprintf(&b, "[%s/%s] %s", d.Phase, d.Code, d.Message)
	if d.Path != "" {
		fmt.Fprintf(&b, " (%s)", d.Path)
	}
	if d.Hint != "" {
		fmt.Fprintf(&b, "\n  hint: %s", d.Hint)
	}
	return b.String()
}

// List is an ordered collection of diagnostics, in source order.
type List []*Diagnostic

// Error implements the error interface by rendering every diagnostic.
func (l List) Error() string {
	if len(l) == 0 {
		return "no diagnostics"
	}
	lines := make([]string, len(l))
	for i, d := range l {
		lines[i] = d.Error()
	}
	return strings.Join(lines, "\n")
}

// Errors returns the subset with Severity == SeverityError.
func (l List) Errors() List {
	out := make(List, 0, len(l))
	for _, d := range l {
		if d.Severity == SeverityError {
			out = append(out, d)
		}
	}
	return out
}

// Warnings returns the subset with Severity == SeverityWarning.
func (l List) Warnings() List {
	out := make(List, 0, len(l))
	for _, d := range l {
		if d.Severity == SeverityWarning {
			out = append(out, d)
		}
	}
	return out
}

// HasErrors reports whether the list contains any error-severity entries.
func (l List) HasErrors() bool {
	for _, d := range l {
		if d.Severity == SeverityError {
			return true
		}
	}
	return false
}

// ToJSON renders the list as a JSON array.
func (l List) ToJSON() (string, error) {
	if l == nil {
		l = List{}
	}
	out, err := json.Marshal(l)
	if err != nil {
		return "", err
	}
	return string(out), nil
}
