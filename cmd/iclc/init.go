package main

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/cobra"
)

const contractTemplate = `Contract {
  Identity {
    stable_id: %q,
    version: 1,
    created_timestamp: %q,
    owner: "unassigned",
    semantic_hash: "",
  },
  PurposeStatement {
    narrative: "Greets the named caller and remembers the last greeting.",
    intent_source: "iclc init",
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

func newInitCmd(newAppFromFlags func() *app, exitCode *int) *cobra.Command {
	return &cobra.Command{
		Use:   "init <name>",
		Short: "Scaffold a minimal valid contract from the built-in hello-world template",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a := newAppFromFlags()
			name := args[0]
			path := name
			if filepath.Ext(path) == "" {
				path += ".icl"
			}
			if _, err := os.Stat(path); err == nil {
				*exitCode = exitInternalError
				return fmt.Errorf("%s already exists", path)
			}

			text := fmt.Sprintf(contractTemplate, uuid.NewString(), time.Now().UTC().Format(time.RFC3339))
			if err := os.WriteFile(path, []byte(text), 0o644); err != nil {
				*exitCode = exitInternalError
				return err
			}
			a.infof("wrote %s", path)
			return nil
		},
	}
}
