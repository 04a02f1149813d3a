// Package normalize builds a canonical AST rendering and the SHA-256
// semantic hash derived from it (spec.md §4.3). Canonicalization is a pure
// function of the parsed AST: same AST, same bytes, on every machine.
package normalize

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/ICL-System/ICL-Runtime/internal/icl/ast"
)

const indentUnit = "  "

// Render produces the canonical text form of a contract (spec.md §4.3 rules
// 1-8). The author-declared Identity.semantic_hash value is preserved
// verbatim in this rendering.
func Render(c *ast.Contract) string {
	var b strings.Builder
	renderContract(&b, c, false)
	return b.String()
}

// SemanticHash computes the 64-character lowercase hex SHA-256 digest of the
// contract's canonical text, with Identity.semantic_hash blanked to "" first
// so the hash is never self-referential (spec.md §4.3 final paragraph).
func SemanticHash(c *ast.Contract) string {
	var b strings.Builder
	renderContract(&b, c, true)
	sum := sha256.Sum256([]byte(b.String()))
	return hex.EncodeToString(sum[:])
}

func renderContract(b *strings.Builder, c *ast.Contract, blankHash bool) {
	b.WriteString("Contract {\n")
	for _, kind := range ast.CanonicalSectionOrder {
		switch kind {
		case ast.SectionKindIdentity:
			if c.Identity != nil {
				renderIdentity(b, 1, c.Identity, blankHash)
			}
		case ast.SectionKindPurposeStatement:
			if c.Purpose != nil {
				renderPurposeStatement(b, 1, c.Purpose)
			}
		case ast.SectionKindDataSemantics:
			if c.Data != nil {
				renderDataSemantics(b, 1, c.Data)
			}
		case ast.SectionKindBehavioralSemantics:
			if c.Behavior != nil {
				renderBehavioralSemantics(b, 1, c.Behavior)
			}
		case ast.SectionKindExecutionConstraints:
			if c.Constraints != nil {
				renderExecutionConstraints(b, 1, c.Constraints)
			}
		case ast.SectionKindHumanMachineContract:
			if c.HumanMachine != nil {
				renderHumanMachineContract(b, 1, c.HumanMachine)
			}
		case ast.SectionKindExtensions:
			if c.Extensions != nil && len(c.Extensions.Blocks) > 0 {
				renderExtensions(b, 1, c.Extensions)
			}
		}
	}
	b.WriteString("}\n")
}

func indent(b *strings.Builder, depth int) {
	for i := 0; i < depth; i++ {
		b.WriteString(indentUnit)
	}
}

// field writes one already-rendered value for a field name at depth, with
// the trailing comma and newline rule 5 requires.
func field(b *strings.Builder, depth int, name, renderedValue string) {
	indent(b, depth)
	b.WriteString(name)
	b.WriteString(": ")
	b.WriteString(renderedValue)
	b.WriteString(",\n")
}

func renderIdentity(b *strings.Builder, depth int, id *ast.Identity, blankHash bool) {
	indent(b, depth)
	b.WriteString("Identity {\n")
	hash := id.SemanticHash
	if blankHash {
		hash = ""
	}
	// alphabetical field order (rule 3): created_timestamp, owner,
	// semantic_hash, stable_id, version
	field(b, depth+1, "created_timestamp", quoteTimestamp(id.CreatedTimestamp))
	field(b, depth+1, "owner", quoteString(id.Owner))
	field(b, depth+1, "semantic_hash", quoteString(hash))
	field(b, depth+1, "stable_id", quoteString(id.StableID))
	field(b, depth+1, "version", formatInt(id.Version))
	indent(b, depth)
	b.WriteString("},\n")
}

func renderPurposeStatement(b *strings.Builder, depth int, ps *ast.PurposeStatement) {
	indent(b, depth)
	b.WriteString("PurposeStatement {\n")
	// alphabetical: confidence_level, domain, intent_source, narrative
	field(b, depth+1, "confidence_level", formatFloat(ps.ConfidenceLevel))
	if ps.HasDomain {
		field(b, depth+1, "domain", quoteString(ps.Domain))
	}
	field(b, depth+1, "intent_source", quoteString(ps.IntentSource))
	field(b, depth+1, "narrative", quoteString(ps.Narrative))
	indent(b, depth)
	b.WriteString("},\n")
}

func renderDataSemantics(b *strings.Builder, depth int, ds *ast.DataSemantics) {
	indent(b, depth)
	b.WriteString("DataSemantics {\n")
	// alphabetical: invariants, state
	field(b, depth+1, "invariants", renderStringList(ds.Invariants, false))
	indent(b, depth+1)
	b.WriteString("state: {\n")
	for _, f := range ds.State {
		indent(b, depth+2)
		b.WriteString(f.Name)
		b.WriteString(": ")
		b.WriteString(renderTypeExpression(f.Type))
		if f.Default != nil {
			b.WriteString(" = ")
			b.WriteString(renderLiteral(f.Default))
		}
		b.WriteString(",\n")
	}
	indent(b, depth+1)
	b.WriteString("},\n")
	indent(b, depth)
	b.WriteString("},\n")
}

func renderBehavioralSemantics(b *strings.Builder, depth int, bs *ast.BehavioralSemantics) {
	indent(b, depth)
	b.WriteString("BehavioralSemantics {\n")
	indent(b, depth+1)
	b.WriteString("operations: [\n")
	for _, op := range bs.Operations {
		renderOperation(b, depth+2, op)
	}
	indent(b, depth+1)
	b.WriteString("],\n")
	indent(b, depth)
	b.WriteString("},\n")
}

func renderOperation(b *strings.Builder, depth int, op *ast.Operation) {
	indent(b, depth)
	b.WriteString("{\n")
	// alphabetical: computation, idempotence, name, parameters, postcondition,
	// precondition, schedule, side_effects, trigger
	if op.HasComputation {
		field(b, depth+1, "computation", quoteString(op.Computation))
	}
	field(b, depth+1, "idempotence", quoteString(string(op.Idempotence)))
	field(b, depth+1, "name", quoteString(op.Name))
	indent(b, depth+1)
	b.WriteString("parameters: {\n")
	params := make([]*ast.Parameter, len(op.Parameters))
	copy(params, op.Parameters)
	sort.Slice(params, func(i, j int) bool { return params[i].Name < params[j].Name })
	for _, p := range params {
		indent(b, depth+2)
		b.WriteString(p.Name)
		b.WriteString(": ")
		b.WriteString(renderTypeExpression(p.Type))
		b.WriteString(",\n")
	}
	indent(b, depth+1)
	b.WriteString("},\n")
	field(b, depth+1, "postcondition", quoteString(op.Postcondition))
	field(b, depth+1, "precondition", quoteString(op.Precondition))
	if op.HasSchedule {
		field(b, depth+1, "schedule", quoteString(op.Schedule))
	}
	field(b, depth+1, "side_effects", renderStringList(op.SideEffects, false))
	field(b, depth+1, "trigger", quoteString(string(op.Trigger)))
	indent(b, depth)
	b.WriteString("},\n")
}

func renderExecutionConstraints(b *strings.Builder, depth int, ec *ast.ExecutionConstraints) {
	indent(b, depth)
	b.WriteString("ExecutionConstraints {\n")
	// alphabetical: external_permissions, resource_limits, sandbox_mode, trigger_types
	field(b, depth+1, "external_permissions", renderStringList(ec.ExternalPermissions, true))
	indent(b, depth+1)
	b.WriteString("resource_limits: {\n")
	field(b, depth+2, "computation_timeout_ms", formatInt(ec.Limits.ComputationTimeoutMs))
	field(b, depth+2, "max_memory_bytes", formatInt(ec.Limits.MaxMemoryBytes))
	field(b, depth+2, "max_state_size_bytes", formatInt(ec.Limits.MaxStateSizeBytes))
	indent(b, depth+1)
	b.WriteString("},\n")
	field(b, depth+1, "sandbox_mode", quoteString(string(ec.SandboxMode)))
	field(b, depth+1, "trigger_types", renderStringList(ec.TriggerTypes, true))
	indent(b, depth)
	b.WriteString("},\n")
}

func renderHumanMachineContract(b *strings.Builder, depth int, hc *ast.HumanMachineContract) {
	indent(b, depth)
	b.WriteString("HumanMachineContract {\n")
	// alphabetical: system_commitments, system_refusals, user_entitlements, user_obligations
	field(b, depth+1, "system_commitments", renderStringList(hc.SystemCommitments, false))
	field(b, depth+1, "system_refusals", renderStringList(hc.SystemRefusals, false))
	field(b, depth+1, "user_entitlements", renderStringList(hc.UserEntitlements, false))
	field(b, depth+1, "user_obligations", renderStringList(hc.UserObligations, false))
	indent(b, depth)
	b.WriteString("},\n")
}

func renderExtensions(b *strings.Builder, depth int, ext *ast.Extensions) {
	indent(b, depth)
	b.WriteString("Extensions {\n")
	blocks := make([]*ast.ExtensionBlock, len(ext.Blocks))
	copy(blocks, ext.Blocks)
	sort.Slice(blocks, func(i, j int) bool { return blocks[i].Namespace < blocks[j].Namespace })
	for _, blk := range blocks {
		indent(b, depth+1)
		b.WriteString(blk.Namespace)
		b.WriteString(": {\n")
		fields := make([]*ast.ExtensionField, len(blk.Fields))
		copy(fields, blk.Fields)
		sort.Slice(fields, func(i, j int) bool { return fields[i].Name < fields[j].Name })
		for _, f := range fields {
			indent(b, depth+2)
			b.WriteString(f.Name)
			b.WriteString(": ")
			b.WriteString(renderRawValue(depth+2, f.Value))
			b.WriteString(",\n")
		}
		indent(b, depth+1)
		b.WriteString("},\n")
	}
	indent(b, depth)
	b.WriteString("},\n")
}

func renderRawValue(depth int, v *ast.RawValue) string {
	if v == nil {
		return "null"
	}
	switch v.Kind {
	case ast.RawValueScalar:
		return renderLiteral(v.Scalar)
	case ast.RawValueList:
		if len(v.List) == 0 {
			return "[]"
		}
		var b strings.Builder
		b.WriteString("[\n")
		for _, item := range v.List {
			indent(&b, depth+1)
			b.WriteString(renderRawValue(depth+1, item))
			b.WriteString(",\n")
		}
		indent(&b, depth)
		b.WriteString("]")
		return b.String()
	case ast.RawValueObject:
		fields := make([]*ast.RawField, len(v.Object))
		copy(fields, v.Object)
		sort.Slice(fields, func(i, j int) bool { return fields[i].Name < fields[j].Name })
		var b strings.Builder
		b.WriteString("{\n")
		for _, f := range fields {
			indent(&b, depth+1)
			b.WriteString(f.Name)
			b.WriteString(": ")
			b.WriteString(renderRawValue(depth+1, f.Value))
			b.WriteString(",\n")
		}
		indent(&b, depth)
		b.WriteString("}")
		return b.String()
	default:
		return "null"
	}
}

func renderTypeExpression(t *ast.TypeExpression) string {
	if t == nil {
		return ""
	}
	switch t.Kind {
	case ast.TypeKindPrimitive:
		return string(t.Primitive)
	case ast.TypeKindArray:
		return fmt.Sprintf("Array<%s>", renderTypeExpression(t.ElementType))
	case ast.TypeKindMap:
		return fmt.Sprintf("Map<%s,%s>", renderTypeExpression(t.KeyType), renderTypeExpression(t.ValueType))
	case ast.TypeKindEnum:
		values := make([]string, len(t.EnumValues))
		copy(values, t.EnumValues)
		sort.Strings(values)
		quoted := make([]string, len(values))
		for i, v := range values {
			quoted[i] = quoteString(v)
		}
		return fmt.Sprintf("Enum[%s]", strings.Join(quoted, ","))
	case ast.TypeKindObject:
		fields := make([]*ast.ObjectField, len(t.ObjectFields))
		copy(fields, t.ObjectFields)
		sort.Slice(fields, func(i, j int) bool { return fields[i].Name < fields[j].Name })
		parts := make([]string, len(fields))
		for i, f := range fields {
			parts[i] = fmt.Sprintf("%s: %s", f.Name, renderTypeExpression(f.Type))
		}
		return "{" + strings.Join(parts, ", ") + "}"
	default:
		return ""
	}
}

func renderLiteral(l *ast.Literal) string {
	if l == nil {
		return "null"
	}
	switch l.Kind {
	case ast.LiteralString:
		return quoteString(l.StringVal)
	case ast.LiteralInt:
		return formatInt(l.IntVal)
	case ast.LiteralFloat:
		return formatFloat(l.FloatVal)
	case ast.LiteralBool:
		return strconv.FormatBool(l.BoolVal)
	case ast.LiteralTimestamp:
		return quoteTimestamp(l.StringVal)
	case ast.LiteralUuid:
		return l.StringVal
	default:
		return "null"
	}
}

// renderStringList renders a string list literal `[a, b, c]`; order is
// preserved for semantically-ordered lists and sorted for unordered ones
// (spec.md §4.3 rule 4). Deliberately inline rather than one-item-per-line
// per §4.3 rule 5: every list rendered here is short and scalar, inline
// stays byte-stable and idempotent under re-normalization, and it keeps a
// contract's list fields scannable on one line each.
func renderStringList(items []string, unordered bool) string {
	values := items
	if unordered {
		values = make([]string, len(items))
		copy(values, items)
		sort.Strings(values)
	}
	if len(values) == 0 {
		return "[]"
	}
	quoted := make([]string, len(values))
	for i, v := range values {
		quoted[i] = quoteString(v)
	}
	return "[" + strings.Join(quoted, ", ") + "]"
}

func quoteString(s string) string {
	var b strings.Builder
	b.WriteByte('"')
	for _, r := range s {
		switch r {
		case '"':
			b.WriteString(`\"`)
		case '\\':
			b.WriteString(`\\`)
		case '\n':
			b.WriteString(`\n`)
		case '\r':
			b.WriteString(`\r`)
		case '\t':
			b.WriteString(`\t`)
		default:
			b.WriteRune(r)
		}
	}
	b.WriteByte('"')
	return b.String()
}

func quoteTimestamp(s string) string { return quoteString(s) }

func formatInt(v int64) string { return strconv.FormatInt(v, 10) }

func formatFloat(v float64) string {
	s := strconv.FormatFloat(v, 'g', -1, 64)
	if strings.Contains(s, ".") {
		return s
	}
	// keep a '.' so the text lexes back as a float literal
	if i := strings.IndexByte(s, 'e'); i >= 0 {
		return s[:i] + ".0" + s[i:]
	}
	return s + ".0"
}
