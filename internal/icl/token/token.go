// Package token defines the lexical token vocabulary for ICL (Intent
// Contract Language) source text: token kinds, source spans, and the
// reserved-word table the tokenizer consults when classifying identifiers.
package token

import "fmt"

// Kind identifies the lexical category of a Token.
type Kind int

const (
	// EOF marks the end of the token stream.
	EOF Kind = iota
	// Error represents a lexical error captured as a token for recovery.
	Error

	// Punctuators
	LBrace   // {
	RBrace   // }
	LBracket // [
	RBracket // ]
	Colon    // :
	Comma    // ,
	Equals   // =
	Less     // <
	Greater  // >

	// Literals
	Identifier // bare word, including reserved section names
	StringLit
	IntLit
	FloatLit
	BoolLit
	Timestamp
	Uuid

	// Reserved section keywords
	SectionIdentity
	SectionPurposeStatement
	SectionDataSemantics
	SectionBehavioralSemantics
	SectionExecutionConstraints
	SectionHumanMachineContract
	SectionExtensions
)

var kindNames = map[Kind]string{
	EOF:                         "EOF",
	Error:                       "ERROR",
	LBrace:                      "LBRACE",
	RBrace:                      "RBRACE",
	LBracket:                    "LBRACKET",
	RBracket:                    "RBRACKET",
	Colon:                       "COLON",
	Comma:                       "COMMA",
	Equals:                      "EQUALS",
	Less:                        "LESS",
	Greater:                     "GREATER",
	Identifier:                  "IDENTIFIER",
	StringLit:                   "STRING",
	IntLit:                      "INT",
	FloatLit:                    "FLOAT",
	BoolLit:                     "BOOL",
	Timestamp:                   "TIMESTAMP",
	Uuid:                        "UUID",
	SectionIdentity:             "SECTION_IDENTITY",
	SectionPurposeStatement:     "SECTION_PURPOSE_STATEMENT",
	SectionDataSemantics:        "SECTION_DATA_SEMANTICS",
	SectionBehavioralSemantics:  "SECTION_BEHAVIORAL_SEMANTICS",
	SectionExecutionConstraints: "SECTION_EXECUTION_CONSTRAINTS",
	SectionHumanMachineContract: "SECTION_HUMAN_MACHINE_CONTRACT",
	SectionExtensions:           "SECTION_EXTENSIONS",
}

// String returns the human-readable name of the kind.
func (k Kind) String() string {
	if name, ok := kindNames[k]; ok {
		return name
	}
	return fmt.Sprintf("UNKNOWN(%d)", int(k))
}

// Keywords maps reserved section names to their token kinds. Classification
// is purely lexical: a section keyword tokenizes as itself regardless of
// where it appears in the source, and the parser alone decides whether its
// position is meaningful.
var Keywords = map[string]Kind{
	"Identity":             SectionIdentity,
	"PurposeStatement":     SectionPurposeStatement,
	"DataSemantics":        SectionDataSemantics,
	"BehavioralSemantics":  SectionBehavioralSemantics,
	"ExecutionConstraints": SectionExecutionConstraints,
	"HumanMachineContract": SectionHumanMachineContract,
	"Extensions":           SectionExtensions,
}

// Span is the byte offset, line, and column of a token in the source text.
// Line and Column are 1-indexed.
type Span struct {
	Offset int
	Line   int
	Column int
}

// Token is a tagged value with a kind, the raw source text, and a span.
// Parsed literal values are carried alongside Lexeme so the parser never
// re-parses text.
type Token struct {
	Kind   Kind
	Lexeme string

	IntValue   int64
	FloatValue float64
	BoolValue  bool

	Span Span
}

// String renders the token for diagnostics and test failure messages.
func (t Token) String() string {
	return fmt.Sprintf("%s %q at %d:%d", t.Kind, t.Lexeme, t.Span.Line, t.Span.Column)
}
