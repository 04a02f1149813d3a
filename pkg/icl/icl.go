// Package icl exposes the five public ICL entry points described in
// spec.md §6.1 — parse, normalize, verify, execute, and semantic_hash — as
// the single boundary contract for CLI and language-binding callers. Every
// entry point accepts UTF-8 source text and returns either a structured
// result or a structured error; none propagates an unwrapped platform error.
package icl

import (
	"encoding/json"
	"fmt"

	"github.com/ICL-System/ICL-Runtime/internal/icl/ast"
	"github.com/ICL-System/ICL-Runtime/internal/icl/diag"
	"github.com/ICL-System/ICL-Runtime/internal/icl/exec"
	"github.com/ICL-System/ICL-Runtime/internal/icl/lexer"
	"github.com/ICL-System/ICL-Runtime/internal/icl/normalize"
	"github.com/ICL-System/ICL-Runtime/internal/icl/parser"
	"github.com/ICL-System/ICL-Runtime/internal/icl/verify"
)

// ParseError is returned by every entry point when source text fails to
// tokenize or parse; it carries every accumulated diagnostic, not just the
// first (spec.md §4.2).
type ParseError struct {
	Diagnostics diag.List
}

func (e *ParseError) Error() string {
	if len(e.Diagnostics) == 0 {
		return "parse error"
	}
	return e.Diagnostics.Error()
}

// parseSource runs the tokenizer then the parser, returning a single
// diag.List merging lex and parse diagnostics in source order.
func parseSource(source string) (*ast.Contract, diag.List) {
	lx := lexer.New(source)
	tokens, lexErrs := lx.ScanTokens()

	var diags diag.List
	for _, le := range lexErrs {
		diags = append(diags, &diag.Diagnostic{
			Phase: diag.PhaseLex, Code: "LexError", Severity: diag.SeverityError,
			Message: le.Message, Span: diag.FromTokenSpan(le.Span),
		})
	}

	p := parser.New(tokens)
	contract, parseErrs := p.Parse()
	diags = append(diags, parser.ToDiagnostics(parseErrs)...)

	return contract, diags
}

// Parse runs stages 1-2 and returns the AST's JSON encoding, or a
// ParseError carrying every tokenizer/parser diagnostic.
func Parse(source string) (string, error) {
	contract, diags := parseSource(source)
	if diags.HasErrors() {
		return "", &ParseError{Diagnostics: diags}
	}
	out, err := json.Marshal(contractJSON(contract))
	if err != nil {
		return "", fmt.Errorf("encoding parsed contract: %w", err)
	}
	return string(out), nil
}

// Normalize runs stages 1-3 and returns the canonical ICL text for source.
func Normalize(source string) (string, error) {
	contract, diags := parseSource(source)
	if diags.HasErrors() {
		return "", &ParseError{Diagnostics: diags}
	}
	return normalize.Render(contract), nil
}

// SemanticHash runs stages 1-3 and returns the 64-character lowercase hex
// SHA-256 semantic hash of source's canonical form.
func SemanticHash(source string) (string, error) {
	contract, diags := parseSource(source)
	if diags.HasErrors() {
		return "", &ParseError{Diagnostics: diags}
	}
	return normalize.SemanticHash(contract), nil
}

// VerifyResultJSON mirrors spec.md §6.1's verify payload shape:
// `{valid, errors, warnings}`.
type VerifyResultJSON struct {
	Valid    bool       `json:"valid"`
	Errors   diag.List  `json:"errors"`
	Warnings diag.List  `json:"warnings"`
}

// Verify runs stages 1-2 then 4 (the static verifier) and returns a JSON
// report. Verify itself never returns an error for a successfully parsed
// contract — invalidity is reported through the payload, per spec.md §6.1.
func Verify(source string) (string, error) {
	contract, diags := parseSource(source)
	if diags.HasErrors() {
		return "", &ParseError{Diagnostics: diags}
	}
	report := verify.Verify(contract)
	out, err := json.Marshal(VerifyResultJSON{Valid: report.Valid, Errors: report.Errors, Warnings: report.Warnings})
	if err != nil {
		return "", fmt.Errorf("encoding verification report: %w", err)
	}
	return string(out), nil
}

// VerificationError is returned by Execute when the contract fails static
// verification before any request is processed.
type VerificationError struct {
	Errors diag.List
}

func (e *VerificationError) Error() string { return e.Errors.Error() }

// Execute runs stages 1-2, 4, then 5: it parses and verifies source, then
// evaluates requestsJSON (either a single {"operation",...} object or a
// JSON array of them) against the resulting contract, returning the JSON
// execution result.
func Execute(source string, requestsJSON string) (string, error) {
	contract, diags := parseSource(source)
	if diags.HasErrors() {
		return "", &ParseError{Diagnostics: diags}
	}
	report := verify.Verify(contract)
	if !report.Valid {
		return "", &VerificationError{Errors: report.Errors}
	}

	requests, err := decodeRequests(requestsJSON)
	if err != nil {
		return "", fmt.Errorf("decoding execution request: %w", err)
	}

	result := exec.Execute(contract, requests)
	out, err := json.Marshal(result)
	if err != nil {
		return "", fmt.Errorf("encoding execution result: %w", err)
	}
	return string(out), nil
}

func decodeRequests(requestsJSON string) ([]exec.Request, error) {
	trimmed := []byte(requestsJSON)
	var asArray []exec.Request
	if err := json.Unmarshal(trimmed, &asArray); err == nil {
		return asArray, nil
	}
	var single exec.Request
	if err := json.Unmarshal(trimmed, &single); err != nil {
		return nil, err
	}
	return []exec.Request{single}, nil
}
