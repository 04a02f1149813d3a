package exec

import (
	"testing"

	"github.com/ICL-System/ICL-Runtime/internal/icl/ast"
	"github.com/ICL-System/ICL-Runtime/internal/icl/lexer"
	"github.com/ICL-System/ICL-Runtime/internal/icl/parser"
)

const greetTemplate = `Contract {
  Identity { stable_id: "greeter-001", version: 1, created_timestamp: "2024-01-15T10:30:00Z", owner: "team-runtime", semantic_hash: "" },
  PurposeStatement { narrative: "Greets a caller by name.", intent_source: "hand-authored", confidence_level: 0.95 },
  DataSemantics {
    state: {
      greeting: String = "hello",
      count: Integer = 0,
    },
    invariants: [
      "greeting != \"\"",
      "count >= 0",
    ],
  },
  BehavioralSemantics {
    operations: [
      {
        name: "greet",
        trigger: "manual",
        precondition: "true",
        parameters: { name: String },
        postcondition: "true",
        side_effects: [ "set:greeting=name", "set:count=count + 1" ],
        idempotence: "non_idempotent",
      },
      {
        name: "reset",
        trigger: "manual",
        precondition: "true",
        parameters: {},
        postcondition: "true",
        side_effects: [ "set:count=0" ],
        idempotence: "idempotent",
      },
    ],
  },
  ExecutionConstraints {
    trigger_types: [ "manual" ],
    resource_limits: { max_memory_bytes: 1048576, computation_timeout_ms: 1000, max_state_size_bytes: 65536 },
    external_permissions: [],
    sandbox_mode: "restricted",
  },
  HumanMachineContract { system_commitments: [], system_refusals: [], user_obligations: [], user_entitlements: [] },
}
`

func mustParse(t *testing.T, source string) *ast.Contract {
	t.Helper()
	tokens, lexErrs := lexer.New(source).ScanTokens()
	if len(lexErrs) != 0 {
		t.Fatalf("unexpected lex errors: %v", lexErrs)
	}
	contract, errs := parser.New(tokens).Parse()
	if len(errs) != 0 {
		t.Fatalf("unexpected parse errors: %v", errs)
	}
	return contract
}

func TestExecuteGreetSucceeds(t *testing.T) {
	c := mustParse(t, greetTemplate)
	result := Execute(c, []Request{{Operation: "greet", Inputs: map[string]interface{}{"name": "World"}}})
	if !result.Success {
		t.Fatalf("expected success, got error %v", result.Error)
	}
	if result.FinalState["greeting"] != "World" {
		t.Errorf("greeting = %v, want World", result.FinalState["greeting"])
	}
	if len(result.Provenance) == 0 {
		t.Error("expected at least one provenance entry")
	}
}

func TestExecuteUnknownOperation(t *testing.T) {
	c := mustParse(t, greetTemplate)
	result := Execute(c, []Request{{Operation: "nope", Inputs: map[string]interface{}{}}})
	if result.Success {
		t.Fatal("expected failure for unknown operation")
	}
	if result.Error == nil || *result.Error == "" {
		t.Fatal("expected a non-empty error message")
	}
}

func TestExecuteMissingParameterFails(t *testing.T) {
	c := mustParse(t, greetTemplate)
	result := Execute(c, []Request{{Operation: "greet", Inputs: map[string]interface{}{}}})
	if result.Success {
		t.Fatal("expected PreconditionFailed for missing parameter")
	}
}

func TestExecuteExtraParameterFails(t *testing.T) {
	c := mustParse(t, greetTemplate)
	result := Execute(c, []Request{{Operation: "greet", Inputs: map[string]interface{}{"name": "a", "extra": 1}}})
	if result.Success {
		t.Fatal("expected PreconditionFailed for unexpected parameter")
	}
}

func TestExecuteSequenceThreadsState(t *testing.T) {
	c := mustParse(t, greetTemplate)
	requests := []Request{
		{Operation: "greet", Inputs: map[string]interface{}{"name": "Ada"}},
		{Operation: "greet", Inputs: map[string]interface{}{"name": "Grace"}},
	}
	result := Execute(c, requests)
	if !result.Success {
		t.Fatalf("expected success, got %v", result.Error)
	}
	if result.FinalState["greeting"] != "Grace" {
		t.Errorf("greeting = %v, want Grace", result.FinalState["greeting"])
	}
	if result.FinalState["count"] != int64(2) {
		t.Errorf("count = %v, want 2", result.FinalState["count"])
	}
}

func TestExecuteFailureMidSequenceRevertsAndHalts(t *testing.T) {
	c := mustParse(t, greetTemplate)
	requests := []Request{
		{Operation: "greet", Inputs: map[string]interface{}{"name": "Ada"}},
		{Operation: "nope", Inputs: map[string]interface{}{}},
		{Operation: "greet", Inputs: map[string]interface{}{"name": "Unreached"}},
	}
	result := Execute(c, requests)
	if result.Success {
		t.Fatal("expected failure from the unknown second request")
	}
	if result.FinalState["greeting"] != "Ada" {
		t.Errorf("state should revert to the snapshot before the failing request, got %v", result.FinalState["greeting"])
	}
}

func TestExecuteResourceExceeded(t *testing.T) {
	const tpl = `Contract {
  Identity { stable_id: "x", version: 1, created_timestamp: "2024-01-15T10:30:00Z", owner: "me", semantic_hash: "" },
  PurposeStatement { narrative: "n", intent_source: "s", confidence_level: 1.0 },
  DataSemantics {
    state: { blob: String = "" },
    invariants: [ "true" ],
  },
  BehavioralSemantics {
    operations: [
      { name: "grow", trigger: "manual", precondition: "true", parameters: { text: String }, postcondition: "true", side_effects: [ "set:blob=text" ], idempotence: "idempotent" },
    ],
  },
  ExecutionConstraints {
    trigger_types: [ "manual" ],
    resource_limits: { max_memory_bytes: 16, computation_timeout_ms: 1000, max_state_size_bytes: 16 },
    external_permissions: [],
    sandbox_mode: "restricted",
  },
  HumanMachineContract { system_commitments: [], system_refusals: [], user_obligations: [], user_entitlements: [] },
}
`
	c := mustParse(t, tpl)
	result := Execute(c, []Request{{Operation: "grow", Inputs: map[string]interface{}{"text": "this value is far longer than sixteen bytes"}}})
	if result.Success {
		t.Fatal("expected ResourceExceeded")
	}
	if result.FinalState["blob"] != "" {
		t.Errorf("state should revert on ResourceExceeded, got %v", result.FinalState["blob"])
	}
}

func TestExecuteDivisionByZeroIsArithmeticError(t *testing.T) {
	const tpl = `Contract {
  Identity { stable_id: "x", version: 1, created_timestamp: "2024-01-15T10:30:00Z", owner: "me", semantic_hash: "" },
  PurposeStatement { narrative: "n", intent_source: "s", confidence_level: 1.0 },
  DataSemantics {
    state: { result: Integer = 0 },
    invariants: [ "true" ],
  },
  BehavioralSemantics {
    operations: [
      { name: "divide", trigger: "manual", precondition: "true", parameters: { divisor: Integer }, postcondition: "true", side_effects: [ "set:result=10 / divisor" ], idempotence: "idempotent" },
    ],
  },
  ExecutionConstraints {
    trigger_types: [ "manual" ],
    resource_limits: { max_memory_bytes: 1024, computation_timeout_ms: 1000, max_state_size_bytes: 1024 },
    external_permissions: [],
    sandbox_mode: "restricted",
  },
  HumanMachineContract { system_commitments: [], system_refusals: [], user_obligations: [], user_entitlements: [] },
}
`
	c := mustParse(t, tpl)
	result := Execute(c, []Request{{Operation: "divide", Inputs: map[string]interface{}{"divisor": int64(0)}}})
	if result.Success {
		t.Fatal("expected ArithmeticError for division by zero")
	}
}
