// Package lexer provides lexical analysis for ICL (Intent Contract
// Language) source text. It tokenizes contract documents into a stream of
// token.Token values for the parser.
package lexer

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/google/uuid"

	"github.com/ICL-System/ICL-Runtime/internal/icl/token"
)

// LexError is a lexical error with position information, in source order.
type LexError struct {
	Message string
	Span    token.Span
	Lexeme  string
}

// Error implements the error interface.
func (e LexError) Error() string {
	return fmt.Sprintf("lex error at %d:%d: %s (near %q)", e.Span.Line, e.Span.Column, e.Message, e.Lexeme)
}

// Lexer tokenizes ICL source code.
//
// Thread Safety: Lexer instances are NOT thread-safe. Each caller must
// create its own Lexer via New(); tokenization itself is a pure function
// of the input bytes, so concurrent calls with independent Lexer values
// produce identical, order-independent results.
type Lexer struct {
	source string
	start  int
	current int
	line   int
	column int

	tokens []token.Token
	errors []LexError
}

// New creates a new Lexer for the given source text.
func New(source string) *Lexer {
	return &Lexer{
		source:  source,
		start:   0,
		current: 0,
		line:    1,
		column:  1,
		tokens:  make([]token.Token, 0, len(source)/4),
		errors:  make([]LexError, 0),
	}
}

// ScanTokens tokenizes the entire source and returns the token stream plus
// any lexical errors encountered. Tokenization never stops at the first
// error: it resynchronizes at the next recognizable lexeme boundary so
// later stages can still report as much as possible.
func (l *Lexer) ScanTokens() ([]token.Token, []LexError) {
	for !l.isAtEnd() {
		l.start = l.current
		l.scanToken()
	}

	l.tokens = append(l.tokens, token.Token{
		Kind: token.EOF,
		Span: token.Span{Offset: l.current, Line: l.line, Column: l.column},
	})

	return l.tokens, l.errors
}

func (l *Lexer) scanToken() {
	c := l.advance()

	switch {
	case c == '{':
		l.addToken(token.LBrace)
	case c == '}':
		l.addToken(token.RBrace)
	case c == '[':
		l.addToken(token.LBracket)
	case c == ']':
		l.addToken(token.RBracket)
	case c == ':':
		l.addToken(token.Colon)
	case c == ',':
		l.addToken(token.Comma)
	case c == '=':
		l.addToken(token.Equals)
	case c == '<':
		l.addToken(token.Less)
	case c == '>':
		l.addToken(token.Greater)
	case c == '/':
		l.scanSlash()
	case c == '"':
		l.scanString()
	case c == ' ' || c == '\t':
		// whitespace discarded, column already advanced by advance()
	case c == '\r':
		l.scanCarriageReturn()
	case c == '\n':
		l.line++
		l.column = 1
	case isHex(c) && l.matchUUIDAhead():
		l.scanUUID()
	case isDigit(c) || (c == '-' && isDigit(l.peek())):
		l.scanNumberOrDate(c)
	case isAlpha(c):
		l.scanIdentifier()
	default:
		l.addError(fmt.Sprintf("unexpected character %q", c))
	}
}

// scanCarriageReturn treats CR as end-of-line; a following LF (CRLF) is
// consumed as part of the same line break so it is not double-counted.
func (l *Lexer) scanCarriageReturn() {
	if l.peek() == '\n' {
		l.advance()
	}
	l.line++
	l.column = 1
}

func (l *Lexer) scanSlash() {
	switch {
	case l.peek() == '/':
		for !l.isAtEnd() && l.peek() != '\n' {
			l.advance()
		}
	case l.peek() == '*':
		l.advance() // consume '*'
		l.scanBlockComment()
	default:
		l.addError("unexpected character '/': line comments require '//'")
	}
}

func (l *Lexer) scanBlockComment() {
	for !l.isAtEnd() {
		if l.peek() == '*' && l.peekAt(1) == '/' {
			l.advance()
			l.advance()
			return
		}
		if l.peek() == '\n' {
			l.line++
			l.column = 0 // advance() below brings it to 1
		}
		l.advance()
	}
	l.addError("unterminated block comment")
}

func (l *Lexer) scanString() {
	startSpan := token.Span{Offset: l.start, Line: l.line, Column: l.column - 1}
	var value strings.Builder

	for !l.isAtEnd() && l.peek() != '"' {
		c := l.peek()
		if c == '\n' {
			break // strings do not span lines
		}
		if c == '\\' {
			l.advance()
			if l.isAtEnd() {
				break
			}
			esc := l.advance()
			switch esc {
			case 'n':
				value.WriteByte('\n')
			case 't':
				value.WriteByte('\t')
			case 'r':
				value.WriteByte('\r')
			case '\\':
				value.WriteByte('\\')
			case '"':
				value.WriteByte('"')
			default:
				l.errors = append(l.errors, LexError{
					Message: fmt.Sprintf("invalid escape sequence '\\%c'", esc),
					Span:    startSpan,
					Lexeme:  l.source[l.start:l.current],
				})
			}
			continue
		}
		value.WriteByte(l.advance())
	}

	if l.isAtEnd() || l.peek() != '"' {
		l.errors = append(l.errors, LexError{
			Message: "unterminated string literal",
			Span:    startSpan,
			Lexeme:  l.source[l.start:l.current],
		})
		return
	}
	l.advance() // closing quote

	l.tokens = append(l.tokens, token.Token{
		Kind:   token.StringLit,
		Lexeme: value.String(),
		Span:   startSpan,
	})
}

// scanNumberOrDate dispatches among integer, float, ISO-8601 timestamp, and
// UUID literals, all of which begin with a digit (or a leading '-' for
// negative integers/floats).
func (l *Lexer) scanNumberOrDate(first byte) {
	startSpan := token.Span{Offset: l.start, Line: l.line, Column: l.column - 1}
	negative := first == '-'

	for isDigit(l.peek()) {
		l.advance()
	}

	switch {
	case l.peek() == '-' && !negative && l.looksLikeTimestamp():
		l.scanTimestamp(startSpan)
	case l.peek() == '.' && isDigit(l.peekAt(1)):
		l.scanFloat(startSpan)
	default:
		l.finishInt(startSpan)
	}
}

// matchUUIDAhead reports whether the 36 characters starting at l.start form
// the canonical 8-4-4-4-12 hex UUID shape, without consuming input.
func (l *Lexer) matchUUIDAhead() bool {
	s := l.source
	if l.start+36 > len(s) {
		return false
	}
	seg := s[l.start : l.start+36]
	groups := [5]int{8, 4, 4, 4, 12}
	pos := 0
	for gi, g := range groups {
		for i := 0; i < g; i++ {
			if !isHex(seg[pos]) {
				return false
			}
			pos++
		}
		if gi < len(groups)-1 {
			if seg[pos] != '-' {
				return false
			}
			pos++
		}
	}
	return true
}

func (l *Lexer) finishInt(span token.Span) {
	lexeme := l.source[l.start:l.current]
	value, err := strconv.ParseInt(lexeme, 10, 64)
	if err != nil {
		l.errors = append(l.errors, LexError{Message: "invalid integer literal", Span: span, Lexeme: lexeme})
		return
	}
	l.tokens = append(l.tokens, token.Token{Kind: token.IntLit, Lexeme: lexeme, IntValue: value, Span: span})
}

func (l *Lexer) scanFloat(span token.Span) {
	l.advance() // '.'
	for isDigit(l.peek()) {
		l.advance()
	}
	if (l.peek() == 'e' || l.peek() == 'E') && (isDigit(l.peekAt(1)) || ((l.peekAt(1) == '+' || l.peekAt(1) == '-') && isDigit(l.peekAt(2)))) {
		l.advance()
		if l.peek() == '+' || l.peek() == '-' {
			l.advance()
		}
		for isDigit(l.peek()) {
			l.advance()
		}
	}
	lexeme := l.source[l.start:l.current]
	value, err := strconv.ParseFloat(lexeme, 64)
	if err != nil {
		l.errors = append(l.errors, LexError{Message: "invalid float literal", Span: span, Lexeme: lexeme})
		return
	}
	l.tokens = append(l.tokens, token.Token{Kind: token.FloatLit, Lexeme: lexeme, FloatValue: value, Span: span})
}

// looksLikeTimestamp checks for the YYYY-MM-DD shape ahead of the cursor
// without consuming anything.
func (l *Lexer) looksLikeTimestamp() bool {
	return l.matchesDigitRun(1, 2) && l.peekAt(3) == '-' && l.matchesDigitRun(4, 2)
}

func (l *Lexer) matchesDigitRun(offset, count int) bool {
	for i := 0; i < count; i++ {
		if !isDigit(l.peekAt(offset + i)) {
			return false
		}
	}
	return true
}

func (l *Lexer) scanTimestamp(span token.Span) {
	for !l.isAtEnd() && isTimestampChar(l.peek()) {
		l.advance()
	}
	lexeme := l.source[l.start:l.current]
	if _, err := parseISO8601(lexeme); err != nil {
		l.errors = append(l.errors, LexError{Message: "invalid ISO-8601 timestamp: " + err.Error(), Span: span, Lexeme: lexeme})
		return
	}
	l.tokens = append(l.tokens, token.Token{Kind: token.Timestamp, Lexeme: lexeme, Span: span})
}

func (l *Lexer) scanUUID() {
	span := token.Span{Offset: l.start, Line: l.line, Column: l.column - 1}
	for i := 0; i < 35; i++ { // one byte already consumed by scanToken's advance()
		l.advance()
	}
	lexeme := l.source[l.start:l.current]
	if _, err := uuid.Parse(lexeme); err != nil {
		l.errors = append(l.errors, LexError{Message: "invalid UUID literal: " + err.Error(), Span: span, Lexeme: lexeme})
		return
	}
	l.tokens = append(l.tokens, token.Token{Kind: token.Uuid, Lexeme: lexeme, Span: span})
}

func (l *Lexer) scanIdentifier() {
	span := token.Span{Offset: l.start, Line: l.line, Column: l.column - 1}
	for isAlphaNumeric(l.peek()) {
		l.advance()
	}
	lexeme := l.source[l.start:l.current]

	switch lexeme {
	case "true":
		l.tokens = append(l.tokens, token.Token{Kind: token.BoolLit, Lexeme: lexeme, BoolValue: true, Span: span})
		return
	case "false":
		l.tokens = append(l.tokens, token.Token{Kind: token.BoolLit, Lexeme: lexeme, BoolValue: false, Span: span})
		return
	}

	if kind, ok := token.Keywords[lexeme]; ok {
		l.tokens = append(l.tokens, token.Token{Kind: kind, Lexeme: lexeme, Span: span})
		return
	}

	l.tokens = append(l.tokens, token.Token{Kind: token.Identifier, Lexeme: lexeme, Span: span})
}

func (l *Lexer) addToken(kind token.Kind) {
	l.tokens = append(l.tokens, token.Token{
		Kind:   kind,
		Lexeme: l.source[l.start:l.current],
		Span:   token.Span{Offset: l.start, Line: l.line, Column: l.column - (l.current - l.start)},
	})
}

func (l *Lexer) addError(message string) {
	l.errors = append(l.errors, LexError{
		Message: message,
		Span:    token.Span{Offset: l.start, Line: l.line, Column: l.column - (l.current - l.start)},
		Lexeme:  l.source[l.start:l.current],
	})
}

func (l *Lexer) isAtEnd() bool { return l.current >= len(l.source) }

func (l *Lexer) advance() byte {
	c := l.source[l.current]
	l.current++
	l.column++
	return c
}

func (l *Lexer) peek() byte {
	if l.isAtEnd() {
		return 0
	}
	return l.source[l.current]
}

func (l *Lexer) peekAt(offset int) byte {
	idx := l.current + offset
	if idx >= len(l.source) {
		return 0
	}
	return l.source[idx]
}

func isDigit(c byte) bool { return c >= '0' && c <= '9' }

func isHex(c byte) bool {
	return isDigit(c) || (c >= 'a' && c <= 'f') || (c >= 'A' && c <= 'F')
}

func isAlpha(c byte) bool {
	return c == '_' || (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z')
}

func isAlphaNumeric(c byte) bool { return isAlpha(c) || isDigit(c) }

func isTimestampChar(c byte) bool {
	return isDigit(c) || c == '-' || c == ':' || c == 'T' || c == 'Z' || c == '.' || c == '+'
}
