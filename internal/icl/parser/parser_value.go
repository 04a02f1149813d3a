package parser

import (
	"fmt"

	"github.com/ICL-System/ICL-Runtime/internal/icl/ast"
	"github.com/ICL-System/ICL-Runtime/internal/icl/token"
)

// parseObjectFields drives the common `{ name: value, ... }` grammar shared
// by every section and nested block (spec.md §4.2): it consumes the
// braces, and for each `name :` pair hands control to onField, which is
// responsible for consuming exactly the value tokens (and resynchronizing
// via synchronizeField on its own malformed input).
func (p *Parser) parseObjectFields(onField func(name string, nameSpan token.Span)) token.Span {
	open := p.peek().Span
	if _, ok := p.consume(token.LBrace, "expected '{'"); !ok {
		return open
	}

	for !p.check(token.RBrace) && !p.isAtEnd() {
		name, nameSpan, ok := p.consumeFieldName()
		if !ok {
			p.synchronizeField()
			continue
		}
		if _, ok := p.consume(token.Colon, "expected ':' after field name"); !ok {
			p.synchronizeField()
			continue
		}
		onField(name, nameSpan)
		if !p.match(token.Comma) && p.previous().Kind != token.Comma {
			break
		}
	}
	p.consume(token.RBrace, "expected '}' to close block")
	return open
}

// consumeFieldName accepts a plain identifier as a field name. Reserved
// section keywords are not valid field names at this level.
func (p *Parser) consumeFieldName() (string, token.Span, bool) {
	tok := p.peek()
	if tok.Kind != token.Identifier {
		p.errorAt(tok, ErrUnexpectedToken, "expected a field name")
		return "", tok.Span, false
	}
	p.advance()
	return tok.Lexeme, tok.Span, true
}

// skipUnknownField consumes and discards the value of a field name this
// parser does not recognize, reporting it as malformed input.
func (p *Parser) skipUnknownField(section, name string, nameSpan token.Span) {
	p.errorAt(token.Token{Kind: token.Identifier, Lexeme: name, Span: nameSpan}, ErrMalformedValue,
		fmt.Sprintf("unknown field %q in %s", name, section))
	p.synchronizeField()
}

func (p *Parser) requireStringLit(context string) (string, token.Span, bool) {
	tok := p.peek()
	if tok.Kind != token.StringLit {
		p.errorAt(tok, ErrMalformedValue, fmt.Sprintf("expected string value for %s", context))
		p.synchronizeField()
		return "", tok.Span, false
	}
	p.advance()
	return tok.Lexeme, tok.Span, true
}

func (p *Parser) requireIntLit(context string) (int64, bool) {
	tok := p.peek()
	if tok.Kind != token.IntLit {
		p.errorAt(tok, ErrMalformedValue, fmt.Sprintf("expected integer value for %s", context))
		p.synchronizeField()
		return 0, false
	}
	p.advance()
	return tok.IntValue, true
}

func (p *Parser) requireFloatLit(context string) (float64, bool) {
	tok := p.peek()
	if tok.Kind != token.FloatLit {
		p.errorAt(tok, ErrMalformedValue, fmt.Sprintf("expected float value for %s", context))
		p.synchronizeField()
		return 0, false
	}
	p.advance()
	return tok.FloatValue, true
}

func (p *Parser) requireTimestampLit(context string) (string, token.Span, bool) {
	tok := p.peek()
	if tok.Kind != token.Timestamp && tok.Kind != token.StringLit {
		p.errorAt(tok, ErrMalformedValue, fmt.Sprintf("expected ISO-8601 timestamp for %s", context))
		p.synchronizeField()
		return "", tok.Span, false
	}
	p.advance()
	return tok.Lexeme, tok.Span, true
}

// parseLiteral parses any single scalar literal (spec.md §3.1 literal kinds).
func (p *Parser) parseLiteral() *ast.Literal {
	tok := p.peek()
	switch tok.Kind {
	case token.StringLit:
		p.advance()
		return &ast.Literal{Kind: ast.LiteralString, StringVal: tok.Lexeme, Loc: tok.Span}
	case token.IntLit:
		p.advance()
		return &ast.Literal{Kind: ast.LiteralInt, IntVal: tok.IntValue, Loc: tok.Span}
	case token.FloatLit:
		p.advance()
		return &ast.Literal{Kind: ast.LiteralFloat, FloatVal: tok.FloatValue, Loc: tok.Span}
	case token.BoolLit:
		p.advance()
		return &ast.Literal{Kind: ast.LiteralBool, BoolVal: tok.BoolValue, Loc: tok.Span}
	case token.Timestamp:
		p.advance()
		return &ast.Literal{Kind: ast.LiteralTimestamp, StringVal: tok.Lexeme, Loc: tok.Span}
	case token.Uuid:
		p.advance()
		return &ast.Literal{Kind: ast.LiteralUuid, StringVal: tok.Lexeme, Loc: tok.Span}
	default:
		p.errorAt(tok, ErrMalformedValue, "expected a literal value")
		p.synchronizeField()
		return nil
	}
}

// parseStringArray parses `[ "a", "b", ... ]` with an optional trailing
// comma.
func (p *Parser) parseStringArray(context string) []string {
	if _, ok := p.consume(token.LBracket, fmt.Sprintf("expected '[' for %s", context)); !ok {
		return nil
	}
	var out []string
	for !p.check(token.RBracket) && !p.isAtEnd() {
		s, _, ok := p.requireStringLit(context + " element")
		if !ok {
			continue
		}
		out = append(out, s)
		if !p.match(token.Comma) {
			break
		}
	}
	p.consume(token.RBracket, fmt.Sprintf("expected ']' to close %s", context))
	return out
}
