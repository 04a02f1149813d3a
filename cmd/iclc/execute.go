package main

import (
	"github.com/spf13/cobra"

	"github.com/ICL-System/ICL-Runtime/internal/icl/ast"
	"github.com/ICL-System/ICL-Runtime/internal/icl/lexer"
	"github.com/ICL-System/ICL-Runtime/internal/icl/normalize"
	"github.com/ICL-System/ICL-Runtime/internal/icl/parser"
	"github.com/ICL-System/ICL-Runtime/pkg/icl"
)

func newExecuteCmd(newAppFromFlags func() *app, exitCode *int) *cobra.Command {
	var inputPath string
	cmd := &cobra.Command{
		Use:   "execute <file>",
		Short: "Verify a contract and evaluate one or more operation requests against it",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a := newAppFromFlags()
			source, err := readSource(args[0])
			if err != nil {
				*exitCode = exitInternalError
				return err
			}
			if inputPath == "" {
				*exitCode = exitInternalError
				return cmd.Usage()
			}
			requestsJSON, err := readSource(inputPath)
			if err != nil {
				*exitCode = exitInternalError
				return err
			}

			if a.cfg.SandboxOverride != "" {
				source = applySandboxOverride(source, a.cfg.SandboxOverride)
			}

			resultJSON, err := icl.Execute(source, requestsJSON)
			if err != nil {
				switch err.(type) {
				case *icl.ParseError, *icl.VerificationError:
					*exitCode = exitValidationFailed
				default:
					*exitCode = exitInternalError
				}
				printParseFailure(a, err)
				return nil
			}

			a.printf("%s\n", resultJSON)
			return nil
		},
	}
	cmd.Flags().StringVar(&inputPath, "input", "", "path to a JSON request object or array (required)")
	return cmd
}

// applySandboxOverride re-renders source with its sandbox_mode replaced by
// override, for local `iclc execute` runs under a stricter or looser
// isolation mode than the contract declares. If source fails to parse,
// it is returned unchanged so icl.Execute reports the original parse error.
func applySandboxOverride(source, override string) string {
	tokens, lexErrs := lexer.New(source).ScanTokens()
	if len(lexErrs) > 0 {
		return source
	}
	contract, parseErrs := parser.New(tokens).Parse()
	if len(parseErrs) > 0 || contract.Constraints == nil {
		return source
	}
	contract.Constraints.SandboxMode = ast.SandboxMode(override)
	return normalize.Render(contract)
}
