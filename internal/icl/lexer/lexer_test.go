package lexer

import (
	"testing"

	"github.com/ICL-System/ICL-Runtime/internal/icl/token"
)

func kinds(tokens []token.Token) []token.Kind {
	out := make([]token.Kind, len(tokens))
	for i, t := range tokens {
		out[i] = t.Kind
	}
	return out
}

func TestScanTokensPunctuation(t *testing.T) {
	tokens, errs := New("{ } [ ] : , = < >").ScanTokens()
	if len(errs) != 0 {
		t.Fatalf("unexpected lex errors: %v", errs)
	}
	want := []token.Kind{
		token.LBrace, token.RBrace, token.LBracket, token.RBracket,
		token.Colon, token.Comma, token.Equals, token.Less, token.Greater, token.EOF,
	}
	got := kinds(tokens)
	if len(got) != len(want) {
		t.Fatalf("got %d tokens, want %d: %v", len(got), len(want), got)
	}
	for i, k := range want {
		if got[i] != k {
			t.Errorf("token %d: got %s, want %s", i, got[i], k)
		}
	}
}

func TestScanStringEscapes(t *testing.T) {
	tokens, errs := New(`"a\nb\tc\"d\\e"`).ScanTokens()
	if len(errs) != 0 {
		t.Fatalf("unexpected lex errors: %v", errs)
	}
	if tokens[0].Kind != token.StringLit {
		t.Fatalf("got kind %s, want StringLit", tokens[0].Kind)
	}
	want := "a\nb\tc\"d\\e"
	if tokens[0].Lexeme != want {
		t.Errorf("got lexeme %q, want %q", tokens[0].Lexeme, want)
	}
}

func TestScanUnterminatedString(t *testing.T) {
	_, errs := New(`"unterminated`).ScanTokens()
	if len(errs) != 1 {
		t.Fatalf("got %d errors, want 1: %v", len(errs), errs)
	}
}

func TestScanIntegerAndFloat(t *testing.T) {
	tokens, errs := New("42 -7 3.14 -0.5 1.5e10 2.5e-3").ScanTokens()
	if len(errs) != 0 {
		t.Fatalf("unexpected lex errors: %v", errs)
	}
	wantKinds := []token.Kind{token.IntLit, token.IntLit, token.FloatLit, token.FloatLit, token.FloatLit, token.FloatLit, token.EOF}
	got := kinds(tokens)
	for i, k := range wantKinds {
		if got[i] != k {
			t.Errorf("token %d: got %s, want %s", i, got[i], k)
		}
	}
	if tokens[0].IntValue != 42 {
		t.Errorf("token 0 IntValue = %d, want 42", tokens[0].IntValue)
	}
	if tokens[1].IntValue != -7 {
		t.Errorf("token 1 IntValue = %d, want -7", tokens[1].IntValue)
	}
}

func TestScanTimestamp(t *testing.T) {
	tokens, errs := New("2024-01-15T10:30:00Z").ScanTokens()
	if len(errs) != 0 {
		t.Fatalf("unexpected lex errors: %v", errs)
	}
	if tokens[0].Kind != token.Timestamp {
		t.Fatalf("got kind %s, want Timestamp", tokens[0].Kind)
	}
}

func TestScanTimestampWithFraction(t *testing.T) {
	tokens, errs := New("2024-01-15T10:30:00.123456789Z").ScanTokens()
	if len(errs) != 0 {
		t.Fatalf("unexpected lex errors: %v", errs)
	}
	if tokens[0].Kind != token.Timestamp {
		t.Fatalf("got kind %s, want Timestamp", tokens[0].Kind)
	}
}

func TestScanUUID(t *testing.T) {
	cases := []string{
		"550e8400-e29b-41d4-a716-446655440000",
		"abcdefab-cdef-abcd-efab-cdefabcdefab",
		"ABCDEFAB-CDEF-ABCD-EFAB-CDEFABCDEFAB",
	}
	for _, src := range cases {
		tokens, errs := New(src).ScanTokens()
		if len(errs) != 0 {
			t.Fatalf("%s: unexpected lex errors: %v", src, errs)
		}
		if tokens[0].Kind != token.Uuid {
			t.Errorf("%s: got kind %s, want Uuid", src, tokens[0].Kind)
		}
	}
}

func TestScanUUIDStartingWithHexLetter(t *testing.T) {
	// regression: a UUID whose first character is a hex letter must not be
	// misrouted to scanIdentifier.
	tokens, errs := New("deadbeef-dead-beef-dead-beefdeadbeef").ScanTokens()
	if len(errs) != 0 {
		t.Fatalf("unexpected lex errors: %v", errs)
	}
	if tokens[0].Kind != token.Uuid {
		t.Fatalf("got kind %s, want Uuid", tokens[0].Kind)
	}
}

func TestScanInvalidUUIDReportsError(t *testing.T) {
	_, errs := New("ffffffff-ffff-ffff-ffff-fffffffffffg").ScanTokens()
	if len(errs) == 0 {
		t.Fatalf("expected a lex error for malformed UUID")
	}
}

func TestScanSectionKeywords(t *testing.T) {
	tokens, errs := New("Identity PurposeStatement DataSemantics BehavioralSemantics ExecutionConstraints HumanMachineContract Extensions").ScanTokens()
	if len(errs) != 0 {
		t.Fatalf("unexpected lex errors: %v", errs)
	}
	want := []token.Kind{
		token.SectionIdentity, token.SectionPurposeStatement, token.SectionDataSemantics,
		token.SectionBehavioralSemantics, token.SectionExecutionConstraints,
		token.SectionHumanMachineContract, token.SectionExtensions, token.EOF,
	}
	got := kinds(tokens)
	for i, k := range want {
		if got[i] != k {
			t.Errorf("token %d: got %s, want %s", i, got[i], k)
		}
	}
}

func TestScanBooleans(t *testing.T) {
	tokens, errs := New("true false").ScanTokens()
	if len(errs) != 0 {
		t.Fatalf("unexpected lex errors: %v", errs)
	}
	if !tokens[0].BoolValue || tokens[0].Kind != token.BoolLit {
		t.Errorf("token 0: want BoolLit(true), got %+v", tokens[0])
	}
	if tokens[1].BoolValue || tokens[1].Kind != token.BoolLit {
		t.Errorf("token 1: want BoolLit(false), got %+v", tokens[1])
	}
}

func TestScanLineAndBlockComments(t *testing.T) {
	tokens, errs := New("// a comment\n/* block\ncomment */ 42").ScanTokens()
	if len(errs) != 0 {
		t.Fatalf("unexpected lex errors: %v", errs)
	}
	if len(tokens) != 2 || tokens[0].Kind != token.IntLit {
		t.Fatalf("expected comments dropped, got %v", kinds(tokens))
	}
}

func TestScanUnterminatedBlockComment(t *testing.T) {
	_, errs := New("/* never closes").ScanTokens()
	if len(errs) != 1 {
		t.Fatalf("got %d errors, want 1: %v", len(errs), errs)
	}
}

func TestLineColumnTrackingAcrossCRLF(t *testing.T) {
	tokens, errs := New("42\r\n43").ScanTokens()
	if len(errs) != 0 {
		t.Fatalf("unexpected lex errors: %v", errs)
	}
	if tokens[1].Span.Line != 2 {
		t.Errorf("second token line = %d, want 2", tokens[1].Span.Line)
	}
}
