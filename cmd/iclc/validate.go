package main

import (
	"encoding/json"

	"github.com/alecthomas/repr"
	"github.com/spf13/cobra"

	"github.com/ICL-System/ICL-Runtime/internal/icl/lexer"
	"github.com/ICL-System/ICL-Runtime/internal/icl/parser"
	"github.com/ICL-System/ICL-Runtime/pkg/icl"
)

func newValidateCmd(newAppFromFlags func() *app, exitCode *int) *cobra.Command {
	var debugAST bool
	cmd := &cobra.Command{
		Use:   "validate <file>",
		Short: "Parse and verify a contract, reporting the first failing stage",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a := newAppFromFlags()
			source, err := readSource(args[0])
			if err != nil {
				*exitCode = exitInternalError
				return err
			}

			if debugAST {
				tokens, lexErrs := lexer.New(source).ScanTokens()
				contract, parseErrs := parser.New(tokens).Parse()
				if len(lexErrs) > 0 || len(parseErrs) > 0 {
					*exitCode = exitValidationFailed
				}
				repr.Println(contract)
			}

			verifyJSON, err := icl.Verify(source)
			if err != nil {
				*exitCode = exitValidationFailed
				printParseFailure(a, err)
				return nil
			}

			var result icl.VerifyResultJSON
			if err := json.Unmarshal([]byte(verifyJSON), &result); err != nil {
				*exitCode = exitInternalError
				return err
			}

			if a.jsonMode {
				a.printf("%s\n", verifyJSON)
			} else {
				printVerifyReport(a, &result)
			}

			if !result.Valid {
				*exitCode = exitValidationFailed
			}
			return nil
		},
	}
	cmd.Flags().BoolVar(&debugAST, "debug", false, "pretty-print the parsed AST before verifying")
	return cmd
}

func printParseFailure(a *app, err error) {
	if a.jsonMode {
		a.printf("%s\n", toErrorJSON(err))
		return
	}
	a.errColor.Fprintln(a.errOut, "parse failed:")
	a.printf("%s\n", err.Error())
}

func toErrorJSON(err error) string {
	b, marshalErr := json.Marshal(map[string]string{"error": err.Error()})
	if marshalErr != nil {
		return `{"error":"` + err.Error() + `"}`
	}
	return string(b)
}
