package icl

import "github.com/ICL-System/ICL-Runtime/internal/icl/ast"

// The types in this file mirror ast.Contract as the "JSON AST" payload
// Parse returns (spec.md §6.1). Field names are snake_case to match every
// other boundary payload in the runtime.

type contractDoc struct {
	Identity     *identityDoc     `json:"identity,omitempty"`
	Purpose      *purposeDoc      `json:"purpose_statement,omitempty"`
	Data         *dataDoc         `json:"data_semantics,omitempty"`
	Behavior     *behaviorDoc     `json:"behavioral_semantics,omitempty"`
	Constraints  *constraintsDoc  `json:"execution_constraints,omitempty"`
	HumanMachine *humanMachineDoc `json:"human_machine_contract,omitempty"`
	Extensions   *extensionsDoc   `json:"extensions,omitempty"`
}

type identityDoc struct {
	StableID         string `json:"stable_id"`
	Version          int64  `json:"version"`
	CreatedTimestamp string `json:"created_timestamp"`
	Owner            string `json:"owner"`
	SemanticHash     string `json:"semantic_hash"`
}

type purposeDoc struct {
	Narrative       string  `json:"narrative"`
	IntentSource    string  `json:"intent_source"`
	ConfidenceLevel float64 `json:"confidence_level"`
	Domain          string  `json:"domain,omitempty"`
}

type stateFieldDoc struct {
	Name    string      `json:"name"`
	Type    interface{} `json:"type"`
	Default interface{} `json:"default,omitempty"`
}

type dataDoc struct {
	State      []stateFieldDoc `json:"state"`
	Invariants []string        `json:"invariants"`
}

type parameterDoc struct {
	Name string      `json:"name"`
	Type interface{} `json:"type"`
}

type operationDoc struct {
	Name          string         `json:"name"`
	Trigger       string         `json:"trigger"`
	Precondition  string         `json:"precondition"`
	Parameters    []parameterDoc `json:"parameters"`
	Postcondition string         `json:"postcondition"`
	SideEffects   []string       `json:"side_effects"`
	Idempotence   string         `json:"idempotence"`
	Computation   string         `json:"computation,omitempty"`
	Schedule      string         `json:"schedule,omitempty"`
}

type behaviorDoc struct {
	Operations []operationDoc `json:"operations"`
}

type resourceLimitsDoc struct {
	MaxMemoryBytes       int64 `json:"max_memory_bytes"`
	ComputationTimeoutMs int64 `json:"computation_timeout_ms"`
	MaxStateSizeBytes    int64 `json:"max_state_size_bytes"`
}

type constraintsDoc struct {
	TriggerTypes        []string          `json:"trigger_types"`
	ResourceLimits       resourceLimitsDoc `json:"resource_limits"`
	ExternalPermissions []string          `json:"external_permissions"`
	SandboxMode         string            `json:"sandbox_mode"`
}

type humanMachineDoc struct {
	SystemCommitments []string `json:"system_commitments"`
	SystemRefusals    []string `json:"system_refusals"`
	UserObligations   []string `json:"user_obligations"`
	UserEntitlements  []string `json:"user_entitlements"`
}

type extensionFieldDoc struct {
	Name  string      `json:"name"`
	Value interface{} `json:"value"`
}

type extensionBlockDoc struct {
	Namespace string              `json:"namespace"`
	Fields    []extensionFieldDoc `json:"fields"`
}

type extensionsDoc struct {
	Blocks []extensionBlockDoc `json:"blocks"`
}

func contractJSON(c *ast.Contract) contractDoc {
	var doc contractDoc
	if c.Identity != nil {
		doc.Identity = &identityDoc{
			StableID: c.Identity.StableID, Version: c.Identity.Version,
			CreatedTimestamp: c.Identity.CreatedTimestamp, Owner: c.Identity.Owner,
			SemanticHash: c.Identity.SemanticHash,
		}
	}
	if c.Purpose != nil {
		doc.Purpose = &purposeDoc{
			Narrative: c.Purpose.Narrative, IntentSource: c.Purpose.IntentSource,
			ConfidenceLevel: c.Purpose.ConfidenceLevel,
		}
		if c.Purpose.HasDomain {
			doc.Purpose.Domain = c.Purpose.Domain
		}
	}
	if c.Data != nil {
		fields := make([]stateFieldDoc, len(c.Data.State))
		for i, f := range c.Data.State {
			fd := stateFieldDoc{Name: f.Name, Type: typeExpressionJSON(f.Type)}
			if f.Default != nil {
				fd.Default = literalJSON(f.Default)
			}
			fields[i] = fd
		}
		doc.Data = &dataDoc{State: fields, Invariants: orEmptyStrings(c.Data.Invariants)}
	}
	if c.Behavior != nil {
		ops := make([]operationDoc, len(c.Behavior.Operations))
		for i, op := range c.Behavior.Operations {
			params := make([]parameterDoc, len(op.Parameters))
			for j, p := range op.Parameters {
				params[j] = parameterDoc{Name: p.Name, Type: typeExpressionJSON(p.Type)}
			}
			od := operationDoc{
				Name: op.Name, Trigger: string(op.Trigger), Precondition: op.Precondition,
				Parameters: params, Postcondition: op.Postcondition,
				SideEffects: orEmptyStrings(op.SideEffects), Idempotence: string(op.Idempotence),
			}
			if op.HasComputation {
				od.Computation = op.Computation
			}
			if op.HasSchedule {
				od.Schedule = op.Schedule
			}
			ops[i] = od
		}
		doc.Behavior = &behaviorDoc{Operations: ops}
	}
	if c.Constraints != nil {
		doc.Constraints = &constraintsDoc{
			TriggerTypes: orEmptyStrings(c.Constraints.TriggerTypes),
			ResourceLimits: resourceLimitsDoc{
				MaxMemoryBytes:       c.Constraints.Limits.MaxMemoryBytes,
				ComputationTimeoutMs: c.Constraints.Limits.ComputationTimeoutMs,
				MaxStateSizeBytes:    c.Constraints.Limits.MaxStateSizeBytes,
			},
			ExternalPermissions: orEmptyStrings(c.Constraints.ExternalPermissions),
			SandboxMode:         string(c.Constraints.SandboxMode),
		}
	}
	if c.HumanMachine != nil {
		doc.HumanMachine = &humanMachineDoc{
			SystemCommitments: orEmptyStrings(c.HumanMachine.SystemCommitments),
			SystemRefusals:    orEmptyStrings(c.HumanMachine.SystemRefusals),
			UserObligations:   orEmptyStrings(c.HumanMachine.UserObligations),
			UserEntitlements:  orEmptyStrings(c.HumanMachine.UserEntitlements),
		}
	}
	if c.Extensions != nil {
		blocks := make([]extensionBlockDoc, len(c.Extensions.Blocks))
		for i, blk := range c.Extensions.Blocks {
			fields := make([]extensionFieldDoc, len(blk.Fields))
			for j, f := range blk.Fields {
				fields[j] = extensionFieldDoc{Name: f.Name, Value: rawValueJSON(f.Value)}
			}
			blocks[i] = extensionBlockDoc{Namespace: blk.Namespace, Fields: fields}
		}
		doc.Extensions = &extensionsDoc{Blocks: blocks}
	}
	return doc
}

func orEmptyStrings(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}

func typeExpressionJSON(t *ast.TypeExpression) interface{} {
	if t == nil {
		return nil
	}
	switch t.Kind {
	case ast.TypeKindPrimitive:
		return map[string]interface{}{"kind": "primitive", "name": string(t.Primitive)}
	case ast.TypeKindEnum:
		return map[string]interface{}{"kind": "enum", "values": orEmptyStrings(t.EnumValues)}
	case ast.TypeKindArray:
		return map[string]interface{}{"kind": "array", "element": typeExpressionJSON(t.ElementType)}
	case ast.TypeKindMap:
		return map[string]interface{}{"kind": "map", "key": typeExpressionJSON(t.KeyType), "value": typeExpressionJSON(t.ValueType)}
	case ast.TypeKindObject:
		fields := make([]map[string]interface{}, len(t.ObjectFields))
		for i, f := range t.ObjectFields {
			fields[i] = map[string]interface{}{"name": f.Name, "type": typeExpressionJSON(f.Type)}
		}
		return map[string]interface{}{"kind": "object", "fields": fields}
	default:
		return nil
	}
}

func literalJSON(l *ast.Literal) interface{} {
	if l == nil {
		return nil
	}
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

func rawValueJSON(v *ast.RawValue) interface{} {
	if v == nil {
		return nil
	}
	switch v.Kind {
	case ast.RawValueScalar:
		return literalJSON(v.Scalar)
	case ast.RawValueList:
		out := make([]interface{}, len(v.List))
		for i, item := range v.List {
			out[i] = rawValueJSON(item)
		}
		return out
	case ast.RawValueObject:
		out := make(map[string]interface{}, len(v.Object))
		for _, f := range v.Object {
			out[f.Name] = rawValueJSON(f.Value)
		}
		return out
	default:
		return nil
	}
}
