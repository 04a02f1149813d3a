package parser

import (
	"github.com/ICL-System/ICL-Runtime/internal/icl/ast"
	"github.com/ICL-System/ICL-Runtime/internal/icl/token"
)

var primitiveNames = map[string]ast.PrimitiveKind{
	"String":  ast.PrimitiveString,
	"Integer": ast.PrimitiveInteger,
	"Float":   ast.PrimitiveFloat,
	"Boolean": ast.PrimitiveBoolean,
	"Iso8601": ast.PrimitiveIso8601,
	"Uuid":    ast.PrimitiveUuid,
}

// parseTypeExpression parses one TypeExpression (spec.md §3.2, §4.2):
// a bare primitive identifier, Array<T>, Map<K,V>, Enum[a,b,c], or an
// inline object block of typed fields.
func (p *Parser) parseTypeExpression() *ast.TypeExpression {
	tok := p.peek()

	switch {
	case tok.Kind == token.Identifier && tok.Lexeme == "Array":
		return p.parseArrayType()
	case tok.Kind == token.Identifier && tok.Lexeme == "Map":
		return p.parseMapType()
	case tok.Kind == token.Identifier && tok.Lexeme == "Enum":
		return p.parseEnumType()
	case tok.Kind == token.LBrace:
		return p.parseObjectType()
	case tok.Kind == token.Identifier:
		if kind, ok := primitiveNames[tok.Lexeme]; ok {
			p.advance()
			return &ast.TypeExpression{Kind: ast.TypeKindPrimitive, Primitive: kind, Loc: tok.Span}
		}
		p.errorAt(tok, ErrMalformedValue, "unknown type name; expected String, Integer, Float, Boolean, Iso8601, Uuid, Array<T>, Map<K,V>, Enum[...], or an object block")
		p.synchronizeField()
		return nil
	default:
		p.errorAt(tok, ErrMalformedValue, "expected a type expression")
		p.synchronizeField()
		return nil
	}
}

func (p *Parser) parseArrayType() *ast.TypeExpression {
	span := p.peek().Span
	p.advance() // 'Array'
	if _, ok := p.consume(token.Less, "expected '<' after 'Array'"); !ok {
		return nil
	}
	elem := p.parseTypeExpression()
	if _, ok := p.consume(token.Greater, "expected '>' to close Array<T>"); !ok {
		return nil
	}
	if elem == nil {
		return nil
	}
	return &ast.TypeExpression{Kind: ast.TypeKindArray, ElementType: elem, Loc: span}
}

func (p *Parser) parseMapType() *ast.TypeExpression {
	span := p.peek().Span
	p.advance() // 'Map'
	if _, ok := p.consume(token.Less, "expected '<' after 'Map'"); !ok {
		return nil
	}
	key := p.parseTypeExpression()
	if _, ok := p.consume(token.Comma, "expected ',' between Map key and value types"); !ok {
		return nil
	}
	val := p.parseTypeExpression()
	if _, ok := p.consume(token.Greater, "expected '>' to close Map<K,V>"); !ok {
		return nil
	}
	if key == nil || val == nil {
		return nil
	}
	return &ast.TypeExpression{Kind: ast.TypeKindMap, KeyType: key, ValueType: val, Loc: span}
}

func (p *Parser) parseEnumType() *ast.TypeExpression {
	span := p.peek().Span
	p.advance() // 'Enum'
	if _, ok := p.consume(token.LBracket, "expected '[' after 'Enum'"); !ok {
		return nil
	}
	var values []string
	for !p.check(token.RBracket) && !p.isAtEnd() {
		tok := p.peek()
		switch tok.Kind {
		case token.Identifier:
			p.advance()
			values = append(values, tok.Lexeme)
		case token.StringLit:
			p.advance()
			values = append(values, tok.Lexeme)
		default:
			p.errorAt(tok, ErrMalformedValue, "expected an enum variant name")
			p.synchronizeField()
		}
		if !p.match(token.Comma) {
			break
		}
	}
	p.consume(token.RBracket, "expected ']' to close Enum[...]")
	return &ast.TypeExpression{Kind: ast.TypeKindEnum, EnumValues: values, Loc: span}
}

func (p *Parser) parseObjectType() *ast.TypeExpression {
	span := p.peek().Span
	p.advance() // '{'
	var fields []*ast.ObjectField
	for !p.check(token.RBrace) && !p.isAtEnd() {
		name, _, ok := p.consumeFieldName()
		if !ok {
			p.synchronizeField()
			continue
		}
		if _, ok := p.consume(token.Colon, "expected ':' after object field name"); !ok {
			p.synchronizeField()
			continue
		}
		ft := p.parseTypeExpression()
		if ft != nil {
			fields = append(fields, &ast.ObjectField{Name: name, Type: ft})
		}
		if !p.match(token.Comma) {
			break
		}
	}
	p.consume(token.RBrace, "expected '}' to close object type")
	return &ast.TypeExpression{Kind: ast.TypeKindObject, ObjectFields: fields, Loc: span}
}
