package normalize

import (
	"strings"
	"testing"

	"github.com/ICL-System/ICL-Runtime/internal/icl/lexer"
	"github.com/ICL-System/ICL-Runtime/internal/icl/parser"
)

const unorderedSample = `Contract {
  Identity {
    version: 2,
    stable_id: "z-contract",
    semantic_hash: "deadbeef",
    owner: "team-b",
    created_timestamp: "2024-06-01T00:00:00Z",
  },
  PurposeStatement {
    confidence_level: 0.8,
    narrative: "Tracks a counter.",
    intent_source: "hand-authored",
  },
  DataSemantics {
    invariants: [
      "count >= 0",
    ],
    state: {
      count: Integer = 0,
    },
  },
  BehavioralSemantics {
    operations: [
      {
        trigger: "manual",
        side_effects: ["set:count=count"],
        precondition: "true",
        postcondition: "true",
        parameters: {},
        name: "noop",
        idempotence: "idempotent",
      },
    ],
  },
  ExecutionConstraints {
    sandbox_mode: "none",
    trigger_types: ["beta", "alpha"],
    external_permissions: ["net", "disk"],
    resource_limits: {
      max_state_size_bytes: 10,
      max_memory_bytes: 20,
      computation_timeout_ms: 30,
    },
  },
  HumanMachineContract {
    user_entitlements: [],
    system_refusals: [],
    user_obligations: [],
    system_commitments: [],
  },
}
`

func TestRenderAlphabetizesFields(t *testing.T) {
	tokens, lexErrs := lexer.New(unorderedSample).ScanTokens()
	if len(lexErrs) != 0 {
		t.Fatalf("unexpected lex errors: %v", lexErrs)
	}
	contract, errs := parser.New(tokens).Parse()
	if len(errs) != 0 {
		t.Fatalf("unexpected parse errors: %v", errs)
	}

	rendered := Render(contract)

	idOffset := strings.Index(rendered, "Identity {")
	identityBlock := rendered[idOffset:strings.Index(rendered[idOffset:], "},\n")+idOffset]
	order := []string{"created_timestamp", "owner", "semantic_hash", "stable_id", "version"}
	checkFieldOrder(t, identityBlock, order)
}

func checkFieldOrder(t *testing.T, block string, order []string) {
	t.Helper()
	last := -1
	for _, name := range order {
		idx := strings.Index(block, name+":")
		if idx < 0 {
			t.Fatalf("field %q not found in block:\n%s", name, block)
		}
		if idx < last {
			t.Fatalf("field %q out of order in block:\n%s", name, block)
		}
		last = idx
	}
}

func TestRenderSortsUnorderedLists(t *testing.T) {
	tokens, _ := lexer.New(unorderedSample).ScanTokens()
	contract, errs := parser.New(tokens).Parse()
	if len(errs) != 0 {
		t.Fatalf("unexpected parse errors: %v", errs)
	}
	rendered := Render(contract)

	if !strings.Contains(rendered, `trigger_types: ["alpha", "beta"]`) {
		t.Errorf("trigger_types was not sorted: %s", rendered)
	}
	if !strings.Contains(rendered, `external_permissions: ["disk", "net"]`) {
		t.Errorf("external_permissions was not sorted: %s", rendered)
	}
}

func TestSemanticHashBlanksIdentityHash(t *testing.T) {
	tokens, _ := lexer.New(unorderedSample).ScanTokens()
	contract, errs := parser.New(tokens).Parse()
	if len(errs) != 0 {
		t.Fatalf("unexpected parse errors: %v", errs)
	}
	hash1 := SemanticHash(contract)

	contract.Identity.SemanticHash = "some-other-declared-hash"
	hash2 := SemanticHash(contract)

	if hash1 != hash2 {
		t.Errorf("semantic hash changed when only Identity.semantic_hash changed: %s vs %s", hash1, hash2)
	}
	if len(hash1) != 64 {
		t.Errorf("expected a 64-character hex digest, got %d chars: %q", len(hash1), hash1)
	}
}

func TestSemanticHashChangesWithMeaningfulEdit(t *testing.T) {
	tokens, _ := lexer.New(unorderedSample).ScanTokens()
	contract, errs := parser.New(tokens).Parse()
	if len(errs) != 0 {
		t.Fatalf("unexpected parse errors: %v", errs)
	}
	hash1 := SemanticHash(contract)

	contract.Data.State[0].Name = "counter"
	hash2 := SemanticHash(contract)

	if hash1 == hash2 {
		t.Errorf("expected semantic hash to change after renaming a state field")
	}
}

func TestRenderIsIdempotentOnReparse(t *testing.T) {
	tokens, _ := lexer.New(unorderedSample).ScanTokens()
	contract, errs := parser.New(tokens).Parse()
	if len(errs) != 0 {
		t.Fatalf("unexpected parse errors: %v", errs)
	}
	once := Render(contract)

	tokens2, lexErrs2 := lexer.New(once).ScanTokens()
	if len(lexErrs2) != 0 {
		t.Fatalf("unexpected lex errors on reparse: %v", lexErrs2)
	}
	reparsed, errs2 := parser.New(tokens2).Parse()
	if len(errs2) != 0 {
		t.Fatalf("unexpected parse errors on reparse: %v", errs2)
	}
	twice := Render(reparsed)

	if once != twice {
		t.Errorf("Render is not idempotent:\nfirst:\n%s\nsecond:\n%s", once, twice)
	}
}

func TestRenderExtensionsSortsNamespacesAndFields(t *testing.T) {
	src := `Contract {
  Identity { stable_id: "x", version: 1, created_timestamp: "2024-01-15T10:30:00Z", owner: "me", semantic_hash: "" },
  PurposeStatement { narrative: "n", intent_source: "s", confidence_level: 1.0 },
  DataSemantics { state: {}, invariants: [] },
  BehavioralSemantics { operations: [] },
  ExecutionConstraints {
    trigger_types: [], resource_limits: { max_memory_bytes: 1, computation_timeout_ms: 1, max_state_size_bytes: 1 },
    external_permissions: [], sandbox_mode: "none",
  },
  HumanMachineContract { system_commitments: [], system_refusals: [], user_obligations: [], user_entitlements: [] },
  Extensions {
    zeta: { b: 1, a: 2 },
    alpha: { z: 1 },
  },
}
`
	tokens, _ := lexer.New(src).ScanTokens()
	contract, errs := parser.New(tokens).Parse()
	if len(errs) != 0 {
		t.Fatalf("unexpected parse errors: %v", errs)
	}
	rendered := Render(contract)
	alphaIdx := strings.Index(rendered, "alpha:")
	zetaIdx := strings.Index(rendered, "zeta:")
	if alphaIdx < 0 || zetaIdx < 0 || alphaIdx > zetaIdx {
		t.Fatalf("extension namespaces not sorted alphabetically:\n%s", rendered)
	}
	aIdx := strings.Index(rendered, "a: 2")
	bIdx := strings.Index(rendered, "b: 1")
	if aIdx < 0 || bIdx < 0 || aIdx > bIdx {
		t.Fatalf("extension fields within a block not sorted alphabetically:\n%s", rendered)
	}
}
