// Package verify statically validates a parsed contract across four fixed
// phases — type checking, invariant verification, determinism checking, and
// coherence verification (spec.md §4.4). All four phases always run; later
// phases are never skipped because an earlier one found errors.
package verify

import (
	"fmt"
	"math"
	"regexp"
	"sort"
	"strings"

	"github.com/ICL-System/ICL-Runtime/internal/icl/ast"
	"github.com/ICL-System/ICL-Runtime/internal/icl/diag"
)

// Report is the verifier's output (spec.md §4.4): valid iff Errors is empty.
type Report struct {
	Valid    bool
	Errors   diag.List
	Warnings diag.List
}

// Diagnostics returns the combined error+warning list in phase order.
func (r *Report) Diagnostics() diag.List {
	out := make(diag.List, 0, len(r.Errors)+len(r.Warnings))
	out = append(out, r.Errors...)
	out = append(out, r.Warnings...)
	return out
}

type checker struct {
	contract *ast.Contract
	diags    diag.List
}

func (c *checker) errorf(phase diag.Phase, code, path, msg string, args ...interface{}) {
	c.diags = append(c.diags, &diag.Diagnostic{
		Phase: phase, Code: code, Severity: diag.SeverityError,
		Message: fmt.Sprintf(msg, args...), Path: path,
	})
}

func (c *checker) warnf(phase diag.Phase, code, path, msg string, args ...interface{}) {
	c.diags = append(c.diags, &diag.Diagnostic{
		Phase: phase, Code: code, Severity: diag.SeverityWarning,
		Message: fmt.Sprintf(msg, args...), Path: path,
	})
}

// Verify runs all four phases against c and returns a complete Report.
func Verify(c *ast.Contract) *Report {
	chk := &checker{contract: c}
	chk.checkTypes()
	chk.checkInvariants()
	chk.checkDeterminism()
	chk.checkCoherence()

	report := &Report{Errors: chk.diags.Errors(), Warnings: chk.diags.Warnings()}
	report.Valid = len(report.Errors) == 0
	return report
}

var identifierPattern = regexp.MustCompile(`[A-Za-z_][A-Za-z0-9_]*`)

func extractIdentifiers(s string) []string {
	return identifierPattern.FindAllString(s, -1)
}

// --- Phase 1: type checking --------------------------------------------------

var literalMatchesPrimitive = map[ast.PrimitiveKind]ast.LiteralKind{
	ast.PrimitiveString:  ast.LiteralString,
	ast.PrimitiveInteger: ast.LiteralInt,
	ast.PrimitiveFloat:   ast.LiteralFloat,
	ast.PrimitiveBoolean: ast.LiteralBool,
	ast.PrimitiveIso8601: ast.LiteralTimestamp,
	ast.PrimitiveUuid:    ast.LiteralUuid,
}

func (c *checker) knownSymbols(extra ...string) map[string]bool {
	known := map[string]bool{"true": true, "false": true, "null": true}
	if c.contract.Data != nil {
		for _, f := range c.contract.Data.State {
			known[f.Name] = true
		}
	}
	for _, e := range extra {
		known[e] = true
	}
	return known
}

func (c *checker) checkPredicateSymbols(phase diag.Phase, path, predicate string, known map[string]bool) {
	for _, ident := range extractIdentifiers(predicate) {
		if !known[ident] {
			c.warnf(phase, "UndefinedSymbol", path, "reference to undefined symbol %q", ident)
		}
	}
}

func (c *checker) checkTypes() {
	if p := c.contract.Purpose; p != nil {
		path := "PurposeStatement.confidence_level"
		cl := p.ConfidenceLevel
		if math.IsNaN(cl) || math.IsInf(cl, 0) {
			c.errorf(diag.PhaseType, "InvalidConfidenceLevel", path, "confidence_level must be a finite value")
		} else if cl < 0 || cl > 1 {
			c.errorf(diag.PhaseType, "InvalidConfidenceLevel", path, "confidence_level %v is outside the required [0,1] range", cl)
		}
	}

	d := c.contract.Data
	if d != nil {
		seenFields := make(map[string]bool)
		for _, f := range d.State {
			path := fmt.Sprintf("DataSemantics.state.%s", f.Name)
			if seenFields[f.Name] {
				c.errorf(diag.PhaseType, "DuplicateStateField", path, "state field name %q is declared more than once", f.Name)
			}
			seenFields[f.Name] = true
			if f.Type == nil || !f.Type.WellFormed() {
				c.errorf(diag.PhaseType, "InvalidType", path, "state field %q has a malformed type", f.Name)
				continue
			}
			c.checkDefaultLiteral(path, f.Type, f.Default)
		}
		for i, inv := range d.Invariants {
			path := fmt.Sprintf("DataSemantics.invariants[%d]", i)
			if strings.TrimSpace(inv) == "" {
				c.errorf(diag.PhaseType, "EmptyPredicate", path, "invariant must not be empty")
				continue
			}
			c.checkPredicateSymbols(diag.PhaseType, path, inv, c.knownSymbols())
		}
	}

	if c.contract.Behavior != nil {
		for _, op := range c.contract.Behavior.Operations {
			c.checkOperationTypes(op)
		}
	}

	if c.contract.Constraints != nil {
		l := c.contract.Constraints.Limits
		path := "ExecutionConstraints.resource_limits"
		if l.MaxMemoryBytes < 0 {
			c.errorf(diag.PhaseType, "NegativeResourceLimit", path+".max_memory_bytes", "max_memory_bytes must be non-negative")
		}
		if l.ComputationTimeoutMs < 0 {
			c.errorf(diag.PhaseType, "NegativeResourceLimit", path+".computation_timeout_ms", "computation_timeout_ms must be non-negative")
		}
		if l.MaxStateSizeBytes < 0 {
			c.errorf(diag.PhaseType, "NegativeResourceLimit", path+".max_state_size_bytes", "max_state_size_bytes must be non-negative")
		}
	}
}

func (c *checker) checkDefaultLiteral(path string, t *ast.TypeExpression, def *ast.Literal) {
	if def == nil {
		return
	}
	switch t.Kind {
	case ast.TypeKindPrimitive:
		want, ok := literalMatchesPrimitive[t.Primitive]
		if !ok || def.Kind != want {
			c.errorf(diag.PhaseType, "TypeMismatch", path, "default value does not match declared primitive %s", t.Primitive)
		}
	case ast.TypeKindEnum:
		if def.Kind != ast.LiteralString {
			c.errorf(diag.PhaseType, "TypeMismatch", path, "default value for an Enum field must be a string variant")
			return
		}
		found := false
		for _, v := range t.EnumValues {
			if v == def.StringVal {
				found = true
				break
			}
		}
		if !found {
			c.errorf(diag.PhaseType, "TypeMismatch", path, "default value %q is not a declared Enum variant", def.StringVal)
		}
	default:
		c.errorf(diag.PhaseType, "TypeMismatch", path, "default values are only supported for Primitive and Enum fields")
	}
}

func (c *checker) checkOperationTypes(op *ast.Operation) {
	path := fmt.Sprintf("BehavioralSemantics.operations[%s]", op.Name)
	paramNames := make([]string, 0, len(op.Parameters))
	for _, p := range op.Parameters {
		paramNames = append(paramNames, p.Name)
		if p.Type == nil || !p.Type.WellFormed() {
			c.errorf(diag.PhaseType, "InvalidType", path+".parameters."+p.Name, "parameter %q has a malformed type", p.Name)
		}
	}
	known := c.knownSymbols(paramNames...)

	if strings.TrimSpace(op.Precondition) == "" {
		c.errorf(diag.PhaseType, "EmptyPredicate", path+".precondition", "precondition must not be empty")
	} else {
		c.checkPredicateSymbols(diag.PhaseType, path+".precondition", op.Precondition, known)
	}
	if strings.TrimSpace(op.Postcondition) == "" {
		c.errorf(diag.PhaseType, "EmptyPredicate", path+".postcondition", "postcondition must not be empty")
	} else {
		c.checkPredicateSymbols(diag.PhaseType, path+".postcondition", op.Postcondition, known)
	}
	if op.HasComputation {
		c.checkPredicateSymbols(diag.PhaseType, path+".computation", op.Computation, known)
	}
}

// --- Phase 2: invariant verification -----------------------------------------

func (c *checker) checkInvariants() {
	d := c.contract.Data
	if d == nil {
		return
	}
	seen := make(map[string]bool)
	for i, inv := range d.Invariants {
		path := fmt.Sprintf("DataSemantics.invariants[%d]", i)
		trimmed := strings.TrimSpace(inv)
		if trimmed == "" {
			continue // already reported in Phase 1
		}
		if seen[trimmed] {
			c.warnf(diag.PhaseInvariant, "DuplicateInvariant", path, "invariant is a syntactic duplicate of an earlier one")
		}
		seen[trimmed] = true

		if field, wantDefault, ok := parseFieldEqualsDefault(trimmed); ok {
			sf := d.FieldByName(field)
			if sf != nil && sf.Default != nil && !defaultSatisfies(sf.Default, wantDefault) {
				c.errorf(diag.PhaseInvariant, "InitialStateViolation", path,
					"declared default for %q trivially falsifies invariant %q", field, trimmed)
			}
		}
	}
}

// parseFieldEqualsDefault recognizes the narrow "<field> == <literal>" shape
// the invariant-vs-default check operates on.
func parseFieldEqualsDefault(expr string) (field, literal string, ok bool) {
	parts := strings.SplitN(expr, "==", 2)
	if len(parts) != 2 {
		return "", "", false
	}
	lhs := strings.TrimSpace(parts[0])
	rhs := strings.TrimSpace(parts[1])
	if lhs == "" || rhs == "" {
		return "", "", false
	}
	if !identifierPattern.MatchString(lhs) || lhs != identifierPattern.FindString(lhs) {
		return "", "", false
	}
	return lhs, rhs, true
}

func defaultSatisfies(def *ast.Literal, literalText string) bool {
	switch def.Kind {
	case ast.LiteralString, ast.LiteralTimestamp, ast.LiteralUuid:
		return strings.Trim(literalText, `"`) == def.StringVal
	case ast.LiteralBool:
		return literalText == "true" && def.BoolVal || literalText == "false" && !def.BoolVal
	case ast.LiteralInt:
		return literalText == fmt.Sprintf("%d", def.IntVal)
	case ast.LiteralFloat:
		return literalText == fmt.Sprintf("%v", def.FloatVal)
	default:
		return true
	}
}

// --- Phase 3: determinism checking -------------------------------------------

var forbiddenWordTokens = []string{
	"random", "current_time", "system_time", "read_file", "write_file",
}

var forbiddenLiteralTokens = []string{"rand()", "uuid()", "now()"}

var forbiddenPrefixes = []string{"http_", "net_"}

func violatesDeterminism(s string) (string, bool) {
	for _, lit := range forbiddenLiteralTokens {
		if strings.Contains(s, lit) {
			return lit, true
		}
	}
	for _, ident := range extractIdentifiers(s) {
		for _, w := range forbiddenWordTokens {
			if ident == w {
				return w, true
			}
		}
		for _, pfx := range forbiddenPrefixes {
			if strings.HasPrefix(ident, pfx) {
				return ident, true
			}
		}
	}
	return "", false
}

var floatEqualityPattern = regexp.MustCompile(`==`)

func (c *checker) checkDeterminism() {
	d := c.contract.Data
	floatFields := map[string]bool{}
	if d != nil {
		for _, f := range d.State {
			if f.Type != nil && f.Type.Kind == ast.TypeKindPrimitive && f.Type.Primitive == ast.PrimitiveFloat {
				floatFields[f.Name] = true
			}
		}
		for i, inv := range d.Invariants {
			path := fmt.Sprintf("DataSemantics.invariants[%d]", i)
			c.checkDeterminismString(path, inv, floatFields)
		}
	}
	if c.contract.Behavior != nil {
		for _, op := range c.contract.Behavior.Operations {
			path := fmt.Sprintf("BehavioralSemantics.operations[%s]", op.Name)
			c.checkDeterminismString(path+".precondition", op.Precondition, floatFields)
			c.checkDeterminismString(path+".postcondition", op.Postcondition, floatFields)
			if op.HasComputation {
				c.checkDeterminismString(path+".computation", op.Computation, floatFields)
			}
			for i, se := range op.SideEffects {
				c.checkDeterminismString(fmt.Sprintf("%s.side_effects[%d]", path, i), se, floatFields)
			}
		}
	}
}

func (c *checker) checkDeterminismString(path, s string, floatFields map[string]bool) {
	if tok, bad := violatesDeterminism(s); bad {
		c.errorf(diag.PhaseDeterminism, "NonDeterministicConstruct", path, "forbidden non-deterministic construct %q", tok)
	}
	if floatEqualityPattern.MatchString(s) {
		for ident := range floatFields {
			if strings.Contains(s, ident) {
				c.warnf(diag.PhaseDeterminism, "FloatEquality", path, "floating-point equality comparison involving %q is unreliable", ident)
			}
		}
	}
}

// --- Phase 4: coherence verification -----------------------------------------

var negationPattern = regexp.MustCompile(`^\s*!\s*(.+?)\s*$`)

func trivialContradiction(pre, post string) bool {
	pre = strings.TrimSpace(pre)
	post = strings.TrimSpace(post)
	if m := negationPattern.FindStringSubmatch(post); m != nil && m[1] == pre {
		return true
	}
	if m := negationPattern.FindStringSubmatch(pre); m != nil && m[1] == post {
		return true
	}
	return false
}

func (c *checker) checkCoherence() {
	b := c.contract.Behavior
	if b != nil {
		seenNames := make(map[string]bool)
		for _, op := range b.Operations {
			path := fmt.Sprintf("BehavioralSemantics.operations[%s]", op.Name)
			if seenNames[op.Name] {
				c.errorf(diag.PhaseCoherence, "DuplicateOperationName", path, "operation name %q is declared more than once", op.Name)
			}
			seenNames[op.Name] = true

			if trivialContradiction(op.Precondition, op.Postcondition) {
				c.errorf(diag.PhaseCoherence, "TrivialContradiction", path, "precondition and postcondition trivially contradict each other")
			}
		}
		c.checkAcyclicDependencies(b)
	}

	if c.contract.Constraints != nil {
		ec := c.contract.Constraints
		path := "ExecutionConstraints"
		if ec.Limits.MaxMemoryBytes <= 0 {
			c.errorf(diag.PhaseCoherence, "InvalidResourceLimit", path+".resource_limits.max_memory_bytes", "max_memory_bytes must be greater than zero")
		}
		if ec.Limits.ComputationTimeoutMs <= 0 {
			c.errorf(diag.PhaseCoherence, "InvalidResourceLimit", path+".resource_limits.computation_timeout_ms", "computation_timeout_ms must be greater than zero")
		}
		if ec.Limits.MaxStateSizeBytes <= 0 {
			c.errorf(diag.PhaseCoherence, "InvalidResourceLimit", path+".resource_limits.max_state_size_bytes", "max_state_size_bytes must be greater than zero")
		}
		switch ec.SandboxMode {
		case ast.SandboxFullIsolation:
			if len(ec.ExternalPermissions) > 0 {
				c.errorf(diag.PhaseCoherence, "SandboxPermissionConflict", path+".sandbox_mode", "full_isolation requires external_permissions to be empty")
			}
		case ast.SandboxNone:
			c.warnf(diag.PhaseCoherence, "UnsandboxedExecution", path+".sandbox_mode", "sandbox_mode \"none\" disables all execution isolation")
		}
	}

	if c.contract.Extensions != nil {
		core := map[string]bool{
			"Identity": true, "PurposeStatement": true, "DataSemantics": true,
			"BehavioralSemantics": true, "ExecutionConstraints": true,
			"HumanMachineContract": true, "Extensions": true,
		}
		seenNamespaces := make(map[string]bool)
		for _, blk := range c.contract.Extensions.Blocks {
			if strings.TrimSpace(blk.Namespace) == "" {
				c.errorf(diag.PhaseCoherence, "EmptyExtensionNamespace", "Extensions",
					"extension namespace must not be empty")
				continue
			}
			if core[blk.Namespace] {
				c.errorf(diag.PhaseCoherence, "ReservedExtensionNamespace", "Extensions."+blk.Namespace,
					"extension namespace %q collides with a core section name", blk.Namespace)
			}
			if seenNamespaces[blk.Namespace] {
				c.errorf(diag.PhaseCoherence, "DuplicateExtensionNamespace", "Extensions."+blk.Namespace,
					"extension namespace %q is declared more than once", blk.Namespace)
			}
			seenNamespaces[blk.Namespace] = true
		}
	}
}

const modifiesPrefix = "modifies:"

// checkAcyclicDependencies builds a dependency graph from side_effects
// entries of the form "modifies:<field>": an edge runs from the operation
// that declares the mutation to every later-checked operation whose
// precondition, postcondition, or computation references that field, and
// the graph must be acyclic (spec.md §4.4 Phase 4).
func (c *checker) checkAcyclicDependencies(b *ast.BehavioralSemantics) {
	mutatesField := make(map[string][]string) // field -> operation names that mutate it
	for _, op := range b.Operations {
		for _, se := range op.SideEffects {
			if strings.HasPrefix(se, modifiesPrefix) {
				field := strings.TrimPrefix(se, modifiesPrefix)
				mutatesField[field] = append(mutatesField[field], op.Name)
			}
		}
	}

	edges := make(map[string]map[string]bool)
	addEdge := func(from, to string) {
		if from == to {
			return
		}
		if edges[from] == nil {
			edges[from] = make(map[string]bool)
		}
		edges[from][to] = true
	}

	for _, op := range b.Operations {
		refs := extractIdentifiers(op.Precondition + " " + op.Postcondition + " " + op.Computation)
		for _, ident := range refs {
			for _, mutator := range mutatesField[ident] {
				addEdge(mutator, op.Name)
			}
		}
	}

	names := make([]string, 0, len(edges))
	for from := range edges {
		names = append(names, from)
	}
	sort.Strings(names)

	const (
		white = 0
		gray  = 1
		black = 2
	)
	color := make(map[string]int)
	var cyclic bool
	var visit func(node string)
	visit = func(node string) {
		if cyclic {
			return
		}
		color[node] = gray
		neighbors := make([]string, 0, len(edges[node]))
		for n := range edges[node] {
			neighbors = append(neighbors, n)
		}
		sort.Strings(neighbors)
		for _, n := range neighbors {
			switch color[n] {
			case gray:
				cyclic = true
				return
			case white:
				visit(n)
			}
		}
		color[node] = black
	}
	for _, n := range names {
		if color[n] == white {
			visit(n)
		}
		if cyclic {
			break
		}
	}
	if cyclic {
		c.errorf(diag.PhaseCoherence, "CyclicDependency", "BehavioralSemantics.operations",
			"operations form a cyclic state-mutation dependency graph")
	}
}
