// Package exec implements the declarative, sandboxed executor (spec.md
// §4.5): it evaluates named operations against a contract's typed state,
// threading state across a sequence of requests within one Execute call and
// recording a provenance trail for every step.
package exec

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/ICL-System/ICL-Runtime/internal/icl/ast"
)

// Request is one operation invocation (spec.md §4.5): `{"operation": name,
// "inputs": {...}}`.
type Request struct {
	Operation string                 `json:"operation"`
	Inputs    map[string]interface{} `json:"inputs"`
}

// ProvenanceEntry records one executed step for audit and replay.
type ProvenanceEntry struct {
	Op              string   `json:"op"`
	Phase           string   `json:"phase"`
	InputsHash      string   `json:"inputs_hash"`
	StateBeforeHash string   `json:"state_before_hash"`
	StateAfterHash  string   `json:"state_after_hash"`
	Diagnostics     []string `json:"diagnostics"`
}

// Result is the aggregate outcome of one Execute call across all of its
// requests (spec.md §4.5 "Result shape").
type Result struct {
	Success     bool                   `json:"success"`
	Outputs     map[string]interface{} `json:"outputs"`
	FinalState  map[string]interface{} `json:"final_state"`
	Provenance  []ProvenanceEntry      `json:"provenance"`
	Error       *string                `json:"error"`
}

// ExecutionError classifies a failed step (spec.md §4.5).
type ExecutionError struct {
	Kind    string // UnknownOperation, PreconditionFailed, PostconditionFailed, InvariantViolation, ResourceExceeded, ArithmeticError
	Message string
}

func (e *ExecutionError) Error() string { return fmt.Sprintf("%s: %s", e.Kind, e.Message) }

// Execute runs requests sequentially against contract c's declared state,
// starting from field defaults and threading mutated state between
// requests. A failure mid-sequence reverts to the pre-request snapshot and
// halts processing of subsequent requests (spec.md §5 "Ordering
// guarantees").
func Execute(c *ast.Contract, requests []Request) *Result {
	state := buildInitialState(c)
	result := &Result{Success: true, Outputs: map[string]interface{}{}, Provenance: []ProvenanceEntry{}}

	for _, req := range requests {
		before := cloneState(state)
		newState, outputs, entries, execErr := executeOne(c, state, req)
		result.Provenance = append(result.Provenance, entries...)
		if execErr != nil {
			state = before
			result.Success = false
			msg := execErr.Error()
			result.Error = &msg
			break
		}
		state = newState
		for k, v := range outputs {
			result.Outputs[k] = v
		}
	}

	result.FinalState = state
	return result
}

func buildInitialState(c *ast.Contract) map[string]interface{} {
	state := make(map[string]interface{})
	if c.Data == nil {
		return state
	}
	for _, f := range c.Data.State {
		if f.Default != nil {
			state[f.Name] = literalToValue(f.Default)
		} else {
			state[f.Name] = nil
		}
	}
	return state
}

func literalToValue(l *ast.Literal) interface{} {
	switch l.Kind {
	case ast.LiteralString, ast.LiteralTimestamp, ast.LiteralUuid:
		return l.StringVal
	case ast.LiteralInt:
		return l.IntVal
	case ast.LiteralFloat:
		return l.FloatVal
	case ast.LiteralBool:
		return l.BoolVal
	default:
		return nil
	}
}

func cloneState(state map[string]interface{}) map[string]interface{} {
	out := make(map[string]interface{}, len(state))
	for k, v := range state {
		out[k] = v
	}
	return out
}

func canonicalHash(v interface{}) string {
	b, err := json.Marshal(v)
	if err != nil {
		b = []byte("null")
	}
	sum := sha256.Sum256(b)
	return hex.EncodeToString(sum[:])
}

const setPrefix = "set:"

func executeOne(c *ast.Contract, state map[string]interface{}, req Request) (map[string]interface{}, map[string]interface{}, []ProvenanceEntry, *ExecutionError) {
	var entries []ProvenanceEntry
	stateBeforeHash := canonicalHash(state)
	inputsHash := canonicalHash(req.Inputs)

	// current tracks the state as of the most recently completed step, so
	// StateAfterHash reflects that step's actual effect rather than the
	// unchanged pre-request snapshot.
	current := state
	record := func(phase string, diags []string) {
		entries = append(entries, ProvenanceEntry{
			Op: req.Operation, Phase: phase, InputsHash: inputsHash,
			StateBeforeHash: stateBeforeHash, StateAfterHash: canonicalHash(current),
			Diagnostics: diags,
		})
	}

	op := c.Behavior.OperationByName(req.Operation)
	if op == nil {
		record("lookup", []string{"unknown operation"})
		return nil, nil, entries, &ExecutionError{Kind: "UnknownOperation", Message: req.Operation}
	}
	record("lookup", nil)

	bindErr := bindParameters(op, req.Inputs)
	if bindErr != "" {
		record("parameter_binding", []string{bindErr})
		return nil, nil, entries, &ExecutionError{Kind: "PreconditionFailed", Message: bindErr}
	}
	record("parameter_binding", nil)

	var totalSteps int

	env := newEnv(c, state, req.Inputs)
	preOK, preNotes, err := evalPredicate(op.Precondition, env)
	totalSteps += env.steps
	if err != nil {
		record("precondition", append(preNotes, err.Error()))
		return nil, nil, entries, &ExecutionError{Kind: "ArithmeticError", Message: err.Error()}
	}
	record("precondition", preNotes)
	if !preOK {
		return nil, nil, entries, &ExecutionError{Kind: "PreconditionFailed", Message: op.Precondition}
	}

	working := cloneState(state)
	current = working // maps are reference types: later mutations to working are visible through current
	outputs := map[string]interface{}{}
	var effectNotes []string
	for _, se := range op.SideEffects {
		if !strings.HasPrefix(se, setPrefix) {
			effectNotes = append(effectNotes, "declared_externality:"+se)
			continue
		}
		assignment := strings.TrimPrefix(se, setPrefix)
		parts := strings.SplitN(assignment, "=", 2)
		if len(parts) != 2 {
			effectNotes = append(effectNotes, "malformed_effect:"+se)
			continue
		}
		field := strings.TrimSpace(parts[0])
		env2 := newEnv(c, working, req.Inputs)
		val, err := eval(parseExpr(parts[1]), env2)
		totalSteps += env2.steps
		if err != nil {
			record("effect_application", append(effectNotes, err.Error()))
			return nil, nil, entries, &ExecutionError{Kind: "ArithmeticError", Message: err.Error()}
		}
		effectNotes = append(effectNotes, env2.notes...)
		working[field] = val
		outputs[field] = val
	}
	record("effect_application", effectNotes)

	if execErr := checkStepBudget(c, totalSteps); execErr != nil {
		record("resource_accounting", []string{execErr.Message})
		return nil, nil, entries, execErr
	}

	env3 := newEnv(c, working, req.Inputs)
	postOK, postNotes, err := evalPredicate(op.Postcondition, env3)
	totalSteps += env3.steps
	if err != nil {
		record("postcondition", append(postNotes, err.Error()))
		return nil, nil, entries, &ExecutionError{Kind: "ArithmeticError", Message: err.Error()}
	}
	record("postcondition", postNotes)
	if !postOK {
		return nil, nil, entries, &ExecutionError{Kind: "PostconditionFailed", Message: op.Postcondition}
	}

	if c.Data != nil {
		for i, inv := range c.Data.Invariants {
			env4 := newEnv(c, working, req.Inputs)
			ok, notes, err := evalPredicate(inv, env4)
			totalSteps += env4.steps
			if err != nil {
				record(fmt.Sprintf("invariant[%d]", i), append(notes, err.Error()))
				return nil, nil, entries, &ExecutionError{Kind: "ArithmeticError", Message: err.Error()}
			}
			record(fmt.Sprintf("invariant[%d]", i), notes)
			if !ok {
				return nil, nil, entries, &ExecutionError{Kind: "InvariantViolation", Message: inv}
			}
		}
	}

	if execErr := checkResourceLimits(c, working); execErr != nil {
		record("resource_accounting", []string{execErr.Message})
		return nil, nil, entries, execErr
	}
	if execErr := checkStepBudget(c, totalSteps); execErr != nil {
		record("resource_accounting", []string{execErr.Message})
		return nil, nil, entries, execErr
	}
	record("resource_accounting", nil)

	return working, outputs, entries, nil
}

// bindParameters validates req.Inputs against op's declared parameters:
// every declared parameter must be present and every input key must be
// declared (spec.md §4.5 step 2).
func bindParameters(op *ast.Operation, inputs map[string]interface{}) string {
	for _, p := range op.Parameters {
		if _, ok := inputs[p.Name]; !ok {
			return fmt.Sprintf("missing parameter %q", p.Name)
		}
	}
	for name := range inputs {
		if op.ParameterByName(name) == nil {
			return fmt.Sprintf("unexpected parameter %q", name)
		}
	}
	return ""
}

func newEnv(c *ast.Contract, state map[string]interface{}, inputs map[string]interface{}) *evalEnv {
	values := make(map[string]interface{}, len(state)+len(inputs))
	for k, v := range state {
		values[k] = v
	}
	for k, v := range inputs {
		values[k] = v
	}
	return &evalEnv{values: values}
}

func evalPredicate(predicate string, env *evalEnv) (bool, []string, error) {
	if strings.TrimSpace(predicate) == "" {
		return true, nil, nil
	}
	node := parseExpr(predicate)
	v, err := eval(node, env)
	if err != nil {
		return false, env.notes, err
	}
	return truthy(v), env.notes, nil
}

// checkResourceLimits estimates peak memory as the serialized byte length
// of state and enforces max_memory_bytes / max_state_size_bytes (spec.md
// §4.5 step 7). computation_timeout_ms is not checked here; checkStepBudget
// enforces it as an evaluator step budget.
func checkResourceLimits(c *ast.Contract, state map[string]interface{}) *ExecutionError {
	if c.Constraints == nil {
		return nil
	}
	limits := c.Constraints.Limits
	encoded, err := json.Marshal(state)
	size := int64(len(encoded))
	if err != nil {
		size = 0
	}
	if limits.MaxMemoryBytes > 0 && size > limits.MaxMemoryBytes {
		return &ExecutionError{Kind: "ResourceExceeded", Message: fmt.Sprintf("state serialization of %d bytes exceeds max_memory_bytes %d", size, limits.MaxMemoryBytes)}
	}
	if limits.MaxStateSizeBytes > 0 && size > limits.MaxStateSizeBytes {
		return &ExecutionError{Kind: "ResourceExceeded", Message: fmt.Sprintf("state serialization of %d bytes exceeds max_state_size_bytes %d", size, limits.MaxStateSizeBytes)}
	}
	return nil
}

// checkStepBudget enforces computation_timeout_ms as an evaluator step
// budget: 1ms of budget affords one evaluator step, since the executor has
// no wall clock to compare against (spec.md §4.5 step 7).
func checkStepBudget(c *ast.Contract, steps int) *ExecutionError {
	if c.Constraints == nil {
		return nil
	}
	limit := c.Constraints.Limits.ComputationTimeoutMs
	if limit > 0 && int64(steps) > limit {
		return &ExecutionError{Kind: "ResourceExceeded", Message: fmt.Sprintf("evaluator step count %d exceeds computation_timeout_ms budget %d", steps, limit)}
	}
	return nil
}
