// Package parser implements a recursive-descent parser for ICL (Intent
// Contract Language) source text, turning a token.Token stream into an
// ast.Contract with source spans preserved at every node.
//
// The parser never stops at the first syntax error: on a recoverable
// error it resynchronizes to the next comma at the current brace depth,
// or to the next closing brace of the enclosing block, and continues, so
// a single call surfaces every diagnostic in one pass (spec.md §4.2).
package parser

import (
	"fmt"

	"github.com/ICL-System/ICL-Runtime/internal/icl/ast"
	"github.com/ICL-System/ICL-Runtime/internal/icl/token"
)

// Parser transforms a token stream into an ast.Contract.
type Parser struct {
	tokens  []token.Token
	current int
	errors  []*ParseError
}

// New creates a new Parser for the given token stream.
func New(tokens []token.Token) *Parser {
	return &Parser{tokens: tokens, current: 0, errors: make([]*ParseError, 0)}
}

// Parse parses the token stream and returns the resulting contract along
// with every diagnostic accumulated in source order. A non-empty error
// slice does not necessarily mean the returned contract is nil; callers
// should check len(errs) == 0 before trusting the contract.
func (p *Parser) Parse() (*ast.Contract, []*ParseError) {
	contract := p.parseContract()
	return contract, p.errors
}

func (p *Parser) parseContract() *ast.Contract {
	startSpan := p.peek().Span

	if !p.expectKeyword("Contract") {
		p.synchronizeToTopLevel()
	}
	if !p.match(token.LBrace) {
		p.errorAt(p.peek(), ErrUnexpectedToken, "expected '{' after 'Contract'")
		p.synchronizeToTopLevel()
	}

	contract := &ast.Contract{SourceSpan: startSpan}
	seen := make(map[ast.SectionKind]token.Span)

	for !p.check(token.RBrace) && !p.isAtEnd() {
		kind, ok := p.sectionKindAhead()
		if !ok {
			p.errorAt(p.peek(), ErrUnexpectedToken, fmt.Sprintf("unexpected token %q inside Contract body", p.peek().Lexeme))
			p.advance()
			continue
		}

		if first, dup := seen[kind]; dup {
			_ = first
			tok := p.peek()
			p.parseSection(contract, kind) // still parse it so later diagnostics stay useful
			p.errors = append(p.errors, &ParseError{
				Kind:    ErrDuplicateSection,
				Span:    tok.Span,
				Message: fmt.Sprintf("duplicate section %s", sectionName(kind)),
			})
			continue
		}
		seen[kind] = p.peek().Span
		contract.SourceSectionOrder = append(contract.SourceSectionOrder, kind)
		p.parseSection(contract, kind)
	}

	if !p.match(token.RBrace) {
		p.errorAt(p.peek(), ErrUnexpectedToken, "expected '}' to close Contract body")
	}

	for _, required := range []ast.SectionKind{
		ast.SectionKindIdentity,
		ast.SectionKindPurposeStatement,
		ast.SectionKindDataSemantics,
		ast.SectionKindBehavioralSemantics,
		ast.SectionKindExecutionConstraints,
		ast.SectionKindHumanMachineContract,
	} {
		if _, ok := seen[required]; !ok {
			p.errors = append(p.errors, &ParseError{
				Kind:    ErrMissingSection,
				Span:    contract.SourceSpan,
				Message: fmt.Sprintf("missing required section %s", sectionName(required)),
			})
		}
	}

	return contract
}

func (p *Parser) parseSection(contract *ast.Contract, kind ast.SectionKind) {
	p.advance() // the section keyword
	switch kind {
	case ast.SectionKindIdentity:
		contract.Identity = p.parseIdentity()
	case ast.SectionKindPurposeStatement:
		contract.Purpose = p.parsePurposeStatement()
	case ast.SectionKindDataSemantics:
		contract.Data = p.parseDataSemantics()
	case ast.SectionKindBehavioralSemantics:
		contract.Behavior = p.parseBehavioralSemantics()
	case ast.SectionKindExecutionConstraints:
		contract.Constraints = p.parseExecutionConstraints()
	case ast.SectionKindHumanMachineContract:
		contract.HumanMachine = p.parseHumanMachineContract()
	case ast.SectionKindExtensions:
		contract.Extensions = p.parseExtensions()
	}
	p.match(token.Comma)
}

func (p *Parser) sectionKindAhead() (ast.SectionKind, bool) {
	switch p.peek().Kind {
	case token.SectionIdentity:
		return ast.SectionKindIdentity, true
	case token.SectionPurposeStatement:
		return ast.SectionKindPurposeStatement, true
	case token.SectionDataSemantics:
		return ast.SectionKindDataSemantics, true
	case token.SectionBehavioralSemantics:
		return ast.SectionKindBehavioralSemantics, true
	case token.SectionExecutionConstraints:
		return ast.SectionKindExecutionConstraints, true
	case token.SectionHumanMachineContract:
		return ast.SectionKindHumanMachineContract, true
	case token.SectionExtensions:
		return ast.SectionKindExtensions, true
	default:
		return 0, false
	}
}

func sectionName(kind ast.SectionKind) string {
	switch kind {
	case ast.SectionKindIdentity:
		return "Identity"
	case ast.SectionKindPurposeStatement:
		return "PurposeStatement"
	case ast.SectionKindDataSemantics:
		return "DataSemantics"
	case ast.SectionKindBehavioralSemantics:
		return "BehavioralSemantics"
	case ast.SectionKindExecutionConstraints:
		return "ExecutionConstraints"
	case ast.SectionKindHumanMachineContract:
		return "HumanMachineContract"
	case ast.SectionKindExtensions:
		return "Extensions"
	default:
		return "Unknown"
	}
}

// --- token stream primitives -------------------------------------------------

func (p *Parser) isAtEnd() bool { return p.peek().Kind == token.EOF }

func (p *Parser) peek() token.Token { return p.tokens[p.current] }

func (p *Parser) peekAt(offset int) token.Token {
	idx := p.current + offset
	if idx >= len(p.tokens) {
		return p.tokens[len(p.tokens)-1]
	}
	return p.tokens[idx]
}

func (p *Parser) previous() token.Token { return p.tokens[p.current-1] }

func (p *Parser) advance() token.Token {
	if !p.isAtEnd() {
		p.current++
	}
	return p.previous()
}

func (p *Parser) check(kind token.Kind) bool {
	if p.isAtEnd() {
		return kind == token.EOF
	}
	return p.peek().Kind == kind
}

func (p *Parser) match(kind token.Kind) bool {
	if p.check(kind) {
		p.advance()
		return true
	}
	return false
}

// consume advances past the expected kind, or records a ParseError and
// returns the zero Token with ok=false.
func (p *Parser) consume(kind token.Kind, message string) (token.Token, bool) {
	if p.check(kind) {
		return p.advance(), true
	}
	p.errorAt(p.peek(), ErrUnexpectedToken, message)
	return token.Token{}, false
}

// expectKeyword consumes an Identifier token whose lexeme matches name
// exactly, used for the literal "Contract" wrapper keyword.
func (p *Parser) expectKeyword(name string) bool {
	if p.peek().Kind == token.Identifier && p.peek().Lexeme == name {
		p.advance()
		return true
	}
	p.errorAt(p.peek(), ErrUnexpectedToken, fmt.Sprintf("expected %q", name))
	return false
}

func (p *Parser) errorAt(tok token.Token, kind ErrorKind, message string) {
	p.errors = append(p.errors, &ParseError{Kind: kind, Span: tok.Span, Message: message, Lexeme: tok.Lexeme})
}

// synchronizeToTopLevel skips tokens until a recognizable section keyword
// or the closing brace of the Contract body, used when the prologue itself
// is malformed.
func (p *Parser) synchronizeToTopLevel() {
	for !p.isAtEnd() {
		if _, ok := p.sectionKindAhead(); ok {
			return
		}
		if p.check(token.RBrace) {
			return
		}
		p.advance()
	}
}

// synchronizeField resynchronizes after an error inside a `{ name: value, ... }`
// block: skip to the next Comma at the current (zero) nesting depth relative
// to entry, or to the RBrace that closes the block, whichever comes first.
// depth counts LBrace/LBracket opened since the error point.
func (p *Parser) synchronizeField() {
	depth := 0
	for !p.isAtEnd() {
		switch p.peek().Kind {
		case token.LBrace, token.LBracket:
			depth++
		case token.RBrace, token.RBracket:
			if depth == 0 {
				return
			}
			depth--
		case token.Comma:
			if depth == 0 {
				p.advance()
				return
			}
		}
		p.advance()
	}
}
