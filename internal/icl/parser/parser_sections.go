package parser

import (
	"fmt"

	"github.com/ICL-System/ICL-Runtime/internal/icl/ast"
	"github.com/ICL-System/ICL-Runtime/internal/icl/token"
)

func (p *Parser) parseIdentity() *ast.Identity {
	id := &ast.Identity{}
	id.Loc = p.parseObjectFields(func(name string, nameSpan token.Span) {
		switch name {
		case "stable_id":
			if v, _, ok := p.requireStringLit("Identity.stable_id"); ok {
				id.StableID = v
			}
		case "version":
			if v, ok := p.requireIntLit("Identity.version"); ok {
				id.Version = v
			}
		case "created_timestamp":
			if v, _, ok := p.requireTimestampLit("Identity.created_timestamp"); ok {
				id.CreatedTimestamp = v
			}
		case "owner":
			if v, _, ok := p.requireStringLit("Identity.owner"); ok {
				id.Owner = v
			}
		case "semantic_hash":
			if v, _, ok := p.requireStringLit("Identity.semantic_hash"); ok {
				id.SemanticHash = v
			}
		default:
			p.skipUnknownField("Identity", name, nameSpan)
		}
	})
	return id
}

func (p *Parser) parsePurposeStatement() *ast.PurposeStatement {
	ps := &ast.PurposeStatement{}
	ps.Loc = p.parseObjectFields(func(name string, nameSpan token.Span) {
		switch name {
		case "narrative":
			if v, _, ok := p.requireStringLit("PurposeStatement.narrative"); ok {
				ps.Narrative = v
			}
		case "intent_source":
			if v, _, ok := p.requireStringLit("PurposeStatement.intent_source"); ok {
				ps.IntentSource = v
			}
		case "confidence_level":
			if v, ok := p.requireFloatLit("PurposeStatement.confidence_level"); ok {
				ps.ConfidenceLevel = v
			}
		case "domain":
			if v, _, ok := p.requireStringLit("PurposeStatement.domain"); ok {
				ps.Domain = v
				ps.HasDomain = true
			}
		default:
			p.skipUnknownField("PurposeStatement", name, nameSpan)
		}
	})
	return ps
}

func (p *Parser) parseDataSemantics() *ast.DataSemantics {
	ds := &ast.DataSemantics{}
	ds.Loc = p.parseObjectFields(func(name string, nameSpan token.Span) {
		switch name {
		case "state":
			ds.State = p.parseStateBlock()
		case "invariants":
			ds.Invariants = p.parseStringArray("DataSemantics.invariants")
		default:
			p.skipUnknownField("DataSemantics", name, nameSpan)
		}
	})
	return ds
}

func (p *Parser) parseStateBlock() []*ast.StateField {
	var fields []*ast.StateField
	p.parseObjectFields(func(name string, nameSpan token.Span) {
		field := &ast.StateField{Name: name, Loc: nameSpan}
		field.Type = p.parseTypeExpression()
		if p.match(token.Equals) {
			field.Default = p.parseLiteral()
		}
		fields = append(fields, field)
	})
	return fields
}

func (p *Parser) parseBehavioralSemantics() *ast.BehavioralSemantics {
	bs := &ast.BehavioralSemantics{}
	bs.Loc = p.parseObjectFields(func(name string, nameSpan token.Span) {
		switch name {
		case "operations":
			bs.Operations = p.parseOperationsArray()
		default:
			p.skipUnknownField("BehavioralSemantics", name, nameSpan)
		}
	})
	return bs
}

func (p *Parser) parseOperationsArray() []*ast.Operation {
	if _, ok := p.consume(token.LBracket, "expected '[' for BehavioralSemantics.operations"); !ok {
		return nil
	}
	var ops []*ast.Operation
	for !p.check(token.RBracket) && !p.isAtEnd() {
		if op := p.parseOperation(); op != nil {
			ops = append(ops, op)
		}
		if !p.match(token.Comma) {
			break
		}
	}
	p.consume(token.RBracket, "expected ']' to close BehavioralSemantics.operations")
	return ops
}

func (p *Parser) parseOperation() *ast.Operation {
	op := &ast.Operation{}
	op.Loc = p.parseObjectFields(func(name string, nameSpan token.Span) {
		switch name {
		case "name":
			if v, _, ok := p.requireStringLit("Operation.name"); ok {
				op.Name = v
			}
		case "trigger":
			if v, _, ok := p.requireStringLit("Operation.trigger"); ok {
				op.Trigger = ast.Trigger(v)
			}
		case "precondition":
			if v, _, ok := p.requireStringLit("Operation.precondition"); ok {
				op.Precondition = v
			}
		case "parameters":
			op.Parameters = p.parseParametersBlock()
		case "postcondition":
			if v, _, ok := p.requireStringLit("Operation.postcondition"); ok {
				op.Postcondition = v
			}
		case "side_effects":
			op.SideEffects = p.parseStringArray("Operation.side_effects")
		case "idempotence":
			if v, _, ok := p.requireStringLit("Operation.idempotence"); ok {
				op.Idempotence = ast.Idempotence(v)
			}
		case "computation":
			if v, _, ok := p.requireStringLit("Operation.computation"); ok {
				op.Computation = v
				op.HasComputation = true
			}
		case "schedule":
			if v, _, ok := p.requireStringLit("Operation.schedule"); ok {
				op.Schedule = v
				op.HasSchedule = true
			}
		default:
			p.skipUnknownField("Operation", name, nameSpan)
		}
	})
	return op
}

func (p *Parser) parseParametersBlock() []*ast.Parameter {
	var params []*ast.Parameter
	p.parseObjectFields(func(name string, nameSpan token.Span) {
		pt := p.parseTypeExpression()
		params = append(params, &ast.Parameter{Name: name, Type: pt})
	})
	return params
}

func (p *Parser) parseExecutionConstraints() *ast.ExecutionConstraints {
	ec := &ast.ExecutionConstraints{}
	ec.Loc = p.parseObjectFields(func(name string, nameSpan token.Span) {
		switch name {
		case "trigger_types":
			ec.TriggerTypes = p.parseStringArray("ExecutionConstraints.trigger_types")
		case "resource_limits":
			ec.Limits = p.parseResourceLimits()
		case "external_permissions":
			ec.ExternalPermissions = p.parseStringArray("ExecutionConstraints.external_permissions")
		case "sandbox_mode":
			if v, _, ok := p.requireStringLit("ExecutionConstraints.sandbox_mode"); ok {
				ec.SandboxMode = ast.SandboxMode(v)
			}
		default:
			p.skipUnknownField("ExecutionConstraints", name, nameSpan)
		}
	})
	return ec
}

func (p *Parser) parseResourceLimits() ast.ResourceLimits {
	limits := ast.ResourceLimits{}
	limits.Loc = p.parseObjectFields(func(name string, nameSpan token.Span) {
		switch name {
		case "max_memory_bytes":
			if v, ok := p.requireIntLit("resource_limits.max_memory_bytes"); ok {
				limits.MaxMemoryBytes = v
			}
		case "computation_timeout_ms":
			if v, ok := p.requireIntLit("resource_limits.computation_timeout_ms"); ok {
				limits.ComputationTimeoutMs = v
			}
		case "max_state_size_bytes":
			if v, ok := p.requireIntLit("resource_limits.max_state_size_bytes"); ok {
				limits.MaxStateSizeBytes = v
			}
		default:
			p.skipUnknownField("resource_limits", name, nameSpan)
		}
	})
	return limits
}

// parseExtensions parses the optional Extensions section: a sequence of
// namespaced blocks whose field values are opaque and may nest arbitrarily
// (spec.md §3.2). It never reports unknown-field diagnostics since every
// name is, by construction, namespace-defined rather than core-defined.
func (p *Parser) parseExtensions() *ast.Extensions {
	ext := &ast.Extensions{}
	open := p.peek().Span
	if _, ok := p.consume(token.LBrace, "expected '{' after Extensions"); !ok {
		ext.Loc = open
		return ext
	}
	for !p.check(token.RBrace) && !p.isAtEnd() {
		var name string
		var nameSpan token.Span
		ok := true
		if _, isSection := p.sectionKindAhead(); isSection {
			tok := p.advance()
			name, nameSpan = tok.Lexeme, tok.Span
		} else {
			name, nameSpan, ok = p.consumeFieldName()
		}
		if !ok {
			p.synchronizeField()
			continue
		}
		block := p.parseExtensionBlock(name, nameSpan)
		ext.Blocks = append(ext.Blocks, block)
		if !p.match(token.Comma) {
			break
		}
	}
	p.consume(token.RBrace, "expected '}' to close Extensions")
	ext.Loc = open
	return ext
}

func (p *Parser) parseExtensionBlock(namespace string, nameSpan token.Span) *ast.ExtensionBlock {
	block := &ast.ExtensionBlock{Namespace: namespace, Loc: nameSpan}
	if _, ok := p.consume(token.Colon, "expected ':' after extension namespace"); !ok {
		p.synchronizeField()
		return block
	}
	val := p.parseRawValue()
	if val == nil || val.Kind != ast.RawValueObject {
		p.errorAt(p.previous(), ErrMalformedValue, fmt.Sprintf("extension namespace %q must be an object block", namespace))
		return block
	}
	for _, f := range val.Object {
		block.Fields = append(block.Fields, &ast.ExtensionField{Name: f.Name, Value: f.Value})
	}
	return block
}

// parseRawValue parses any opaque value: a scalar literal, a bracketed
// list of raw values, or a braced object of name/raw-value pairs.
func (p *Parser) parseRawValue() *ast.RawValue {
	tok := p.peek()
	switch tok.Kind {
	case token.LBrace:
		return p.parseRawObject()
	case token.LBracket:
		return p.parseRawList()
	case token.StringLit, token.IntLit, token.FloatLit, token.BoolLit, token.Timestamp, token.Uuid:
		lit := p.parseLiteral()
		if lit == nil {
			return nil
		}
		return &ast.RawValue{Kind: ast.RawValueScalar, Scalar: lit, Loc: lit.Loc}
	default:
		p.errorAt(tok, ErrMalformedValue, "expected an extension value (literal, object, or list)")
		p.synchronizeField()
		return nil
	}
}

func (p *Parser) parseRawObject() *ast.RawValue {
	span := p.peek().Span
	p.advance() // '{'
	var fields []*ast.RawField
	for !p.check(token.RBrace) && !p.isAtEnd() {
		name, _, ok := p.consumeFieldName()
		if !ok {
			p.synchronizeField()
			continue
		}
		if _, ok := p.consume(token.Colon, "expected ':' after field name"); !ok {
			p.synchronizeField()
			continue
		}
		v := p.parseRawValue()
		if v != nil {
			fields = append(fields, &ast.RawField{Name: name, Value: v})
		}
		if !p.match(token.Comma) {
			break
		}
	}
	p.consume(token.RBrace, "expected '}' to close object value")
	return &ast.RawValue{Kind: ast.RawValueObject, Object: fields, Loc: span}
}

func (p *Parser) parseRawList() *ast.RawValue {
	span := p.peek().Span
	p.advance() // '['
	var items []*ast.RawValue
	for !p.check(token.RBracket) && !p.isAtEnd() {
		v := p.parseRawValue()
		if v != nil {
			items = append(items, v)
		}
		if !p.match(token.Comma) {
			break
		}
	}
	p.consume(token.RBracket, "expected ']' to close list value")
	return &ast.RawValue{Kind: ast.RawValueList, List: items, Loc: span}
}

func (p *Parser) parseHumanMachineContract() *ast.HumanMachineContract {
	hc := &ast.HumanMachineContract{}
	hc.Loc = p.parseObjectFields(func(name string, nameSpan token.Span) {
		switch name {
		case "system_commitments":
			hc.SystemCommitments = p.parseStringArray("HumanMachineContract.system_commitments")
		case "system_refusals":
			hc.SystemRefusals = p.parseStringArray("HumanMachineContract.system_refusals")
		case "user_obligations":
			hc.UserObligations = p.parseStringArray("HumanMachineContract.user_obligations")
		case "user_entitlements":
			hc.UserEntitlements = p.parseStringArray("HumanMachineContract.user_entitlements")
		default:
			p.skipUnknownField("HumanMachineContract", name, nameSpan)
		}
	})
	return hc
}
