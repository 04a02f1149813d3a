package icl

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// helloWorldContract is the canonical "Hello world test" contract referenced
// by spec.md §8 scenario 1.
const helloWorldContract = `Contract {
  Identity {
    stable_id: "hello-world-001",
    version: 1,
    created_timestamp: "2024-01-15T10:30:00Z",
    owner: "runtime-team",
    semantic_hash: "",
  },
  PurposeStatement {
    narrative: "Greets a caller by name and remembers the last greeting.",
    intent_source: "hand-authored",
    confidence_level: 1.0,
  },
  DataSemantics {
    state: {
      greeting: String = "hello",
    },
    invariants: [
      "greeting != \"\"",
    ],
  },
  BehavioralSemantics {
    operations: [
      {
        name: "greet",
        trigger: "manual",
        precondition: "true",
        parameters: {
          name: String,
        },
        postcondition: "true",
        side_effects: [
          "set:greeting=name",
        ],
        idempotence: "idempotent",
      },
    ],
  },
  ExecutionConstraints {
    trigger_types: [
      "manual",
    ],
    resource_limits: {
      max_memory_bytes: 1048576,
      computation_timeout_ms: 1000,
      max_state_size_bytes: 65536,
    },
    external_permissions: [],
    sandbox_mode: "restricted",
  },
  HumanMachineContract {
    system_commitments: [
      "responds only to declared operations",
    ],
    system_refusals: [
      "no external I/O during execution",
    ],
    user_obligations: [
      "supply a non-empty name",
    ],
    user_entitlements: [
      "a deterministic greeting",
    ],
  },
}
`

// TestScenario1HelloWorldRoundTrip is spec.md §8 end-to-end scenario 1.
func TestScenario1HelloWorldRoundTrip(t *testing.T) {
	verifyJSON, err := Verify(helloWorldContract)
	require.NoError(t, err)

	var report VerifyResultJSON
	require.NoError(t, json.Unmarshal([]byte(verifyJSON), &report))
	assert.True(t, report.Valid)
	assert.Empty(t, report.Errors)
	assert.Empty(t, report.Warnings)

	hash, err := SemanticHash(helloWorldContract)
	require.NoError(t, err)
	assert.Len(t, hash, 64)
	assert.Regexp(t, "^[0-9a-f]{64}$", hash)

	canonical, err := Normalize(helloWorldContract)
	require.NoError(t, err)
	reNormalized, err := Normalize(canonical)
	require.NoError(t, err)
	assert.Equal(t, canonical, reNormalized, "normalize must be idempotent")
}

// TestScenario2ExecuteGreet is spec.md §8 end-to-end scenario 2.
func TestScenario2ExecuteGreet(t *testing.T) {
	resultJSON, err := Execute(helloWorldContract, `{"operation":"greet","inputs":{"name":"World"}}`)
	require.NoError(t, err)

	var decoded map[string]interface{}
	require.NoError(t, json.Unmarshal([]byte(resultJSON), &decoded))
	assert.Equal(t, true, decoded["success"])

	provenance, ok := decoded["provenance"].([]interface{})
	require.True(t, ok)
	assert.GreaterOrEqual(t, len(provenance), 1)

	finalState, ok := decoded["final_state"].(map[string]interface{})
	require.True(t, ok)
	assert.Equal(t, "World", finalState["greeting"])
}

// TestScenario3DuplicateSection is spec.md §8 end-to-end scenario 3.
func TestScenario3DuplicateSection(t *testing.T) {
	doubled := `Contract {
  Identity { stable_id: "a", version: 1, created_timestamp: "2024-01-15T10:30:00Z", owner: "me", semantic_hash: "" },
  Identity { stable_id: "b", version: 1, created_timestamp: "2024-01-15T10:30:00Z", owner: "me", semantic_hash: "" },
  PurposeStatement { narrative: "n", intent_source: "s", confidence_level: 1.0 },
  DataSemantics { state: { x: Integer = 0 }, invariants: [ "x >= 0" ] },
  BehavioralSemantics { operations: [] },
  ExecutionConstraints {
    trigger_types: [ "manual" ],
    resource_limits: { max_memory_bytes: 1024, computation_timeout_ms: 1000, max_state_size_bytes: 1024 },
    external_permissions: [],
    sandbox_mode: "restricted",
  },
  HumanMachineContract { system_commitments: [], system_refusals: [], user_obligations: [], user_entitlements: [] },
}
`
	_, err := Parse(doubled)
	require.Error(t, err)

	var parseErr *ParseError
	require.ErrorAs(t, err, &parseErr)

	found := false
	for _, d := range parseErr.Diagnostics {
		if d.Code == "DuplicateSection" {
			found = true
			assert.Equal(t, 3, d.Span.Line)
		}
	}
	assert.True(t, found, "expected exactly one DuplicateSection diagnostic, got %v", parseErr.Diagnostics)
}

// TestScenario4NonDeterminismForbidden is spec.md §8 end-to-end scenario 4.
func TestScenario4NonDeterminismForbidden(t *testing.T) {
	nonDeterministic := `Contract {
  Identity { stable_id: "a", version: 1, created_timestamp: "2024-01-15T10:30:00Z", owner: "me", semantic_hash: "" },
  PurposeStatement { narrative: "n", intent_source: "s", confidence_level: 1.0 },
  DataSemantics { state: { x: Integer = 0 }, invariants: [ "x >= 0" ] },
  BehavioralSemantics {
    operations: [
      { name: "tick", trigger: "manual", precondition: "true", parameters: {}, postcondition: "true", side_effects: [ "now()" ], idempotence: "idempotent" },
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
	verifyJSON, err := Verify(nonDeterministic)
	require.NoError(t, err)

	var report VerifyResultJSON
	require.NoError(t, json.Unmarshal([]byte(verifyJSON), &report))
	assert.False(t, report.Valid)

	found := false
	for _, d := range report.Errors {
		if d.Phase == "determinism" {
			found = true
		}
	}
	assert.True(t, found, "expected a determinism diagnostic, got %v", report.Errors)
}

// TestScenario5ResourceLimitExceeded is spec.md §8 end-to-end scenario 5.
func TestScenario5ResourceLimitExceeded(t *testing.T) {
	tiny := `Contract {
  Identity { stable_id: "a", version: 1, created_timestamp: "2024-01-15T10:30:00Z", owner: "me", semantic_hash: "" },
  PurposeStatement { narrative: "n", intent_source: "s", confidence_level: 1.0 },
  DataSemantics { state: { blob: String = "" }, invariants: [ "true" ] },
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
	resultJSON, err := Execute(tiny, `{"operation":"grow","inputs":{"text":"this value is far longer than sixteen bytes of state"}}`)
	require.NoError(t, err)

	var decoded map[string]interface{}
	require.NoError(t, json.Unmarshal([]byte(resultJSON), &decoded))
	assert.Equal(t, false, decoded["success"])
	assert.Equal(t, "", decoded["final_state"].(map[string]interface{})["blob"])
}

// TestScenario6UnknownOperation is spec.md §8 end-to-end scenario 6.
func TestScenario6UnknownOperation(t *testing.T) {
	resultJSON, err := Execute(helloWorldContract, `{"operation":"nope"}`)
	require.NoError(t, err)

	var decoded map[string]interface{}
	require.NoError(t, json.Unmarshal([]byte(resultJSON), &decoded))
	assert.Equal(t, false, decoded["success"])
	assert.Contains(t, decoded["error"], "UnknownOperation")
}

func TestSemanticHashStableAcrossNormalization(t *testing.T) {
	canonical, err := Normalize(helloWorldContract)
	require.NoError(t, err)

	h1, err := SemanticHash(helloWorldContract)
	require.NoError(t, err)
	h2, err := SemanticHash(canonical)
	require.NoError(t, err)
	assert.Equal(t, h1, h2)
}

func TestCommentAndWhitespaceInvarianceOfHash(t *testing.T) {
	commented := "// a leading comment\n" + helloWorldContract + "\n\n// trailing\n"
	h1, err := SemanticHash(helloWorldContract)
	require.NoError(t, err)
	h2, err := SemanticHash(commented)
	require.NoError(t, err)
	assert.Equal(t, h1, h2)
}

func TestNoPanicSurfaceOnRandomBytes(t *testing.T) {
	inputs := []string{
		"",
		"\x00\x01\x02",
		"Contract",
		"{{{{{{{{",
		string([]byte{0xff, 0xfe, 0x00, 0x41}),
		"Contract { Identity { } }",
	}
	for _, in := range inputs {
		assert.NotPanics(t, func() {
			_, _ = Parse(in)
			_, _ = Normalize(in)
			_, _ = Verify(in)
			_, _ = SemanticHash(in)
			_, _ = Execute(in, `{"operation":"x"}`)
		})
	}
}

func TestDeterminismAcrossRepeatedInvocations(t *testing.T) {
	var prevHash string
	var prevCanonical string
	for i := 0; i < 100; i++ {
		hash, err := SemanticHash(helloWorldContract)
		require.NoError(t, err)
		canonical, err := Normalize(helloWorldContract)
		require.NoError(t, err)
		if i == 0 {
			prevHash, prevCanonical = hash, canonical
			continue
		}
		assert.Equal(t, prevHash, hash)
		assert.Equal(t, prevCanonical, canonical)
	}
}
