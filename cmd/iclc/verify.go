package main

import (
	"encoding/json"
	"fmt"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/ICL-System/ICL-Runtime/internal/icl/diag"
	"github.com/ICL-System/ICL-Runtime/pkg/icl"
)

func newVerifyCmd(newAppFromFlags func() *app, exitCode *int) *cobra.Command {
	return &cobra.Command{
		Use:   "verify <file>",
		Short: "Print the static verification report for a contract",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a := newAppFromFlags()
			source, err := readSource(args[0])
			if err != nil {
				*exitCode = exitInternalError
				return err
			}

			out, err := icl.Verify(source)
			if err != nil {
				*exitCode = exitValidationFailed
				printParseFailure(a, err)
				return nil
			}

			if a.jsonMode {
				a.printf("%s\n", out)
				return finishVerify(out, exitCode)
			}

			var result icl.VerifyResultJSON
			if err := json.Unmarshal([]byte(out), &result); err != nil {
				*exitCode = exitInternalError
				return err
			}
			printVerifyReport(a, &result)
			if !result.Valid {
				*exitCode = exitValidationFailed
			}
			return nil
		},
	}
}

func finishVerify(resultJSON string, exitCode *int) error {
	var result icl.VerifyResultJSON
	if err := json.Unmarshal([]byte(resultJSON), &result); err != nil {
		return err
	}
	if !result.Valid {
		*exitCode = exitValidationFailed
	}
	return nil
}

func printVerifyReport(a *app, result *icl.VerifyResultJSON) {
	if result.Valid {
		a.okColor.Fprintln(a.out, "valid")
	} else {
		a.errColor.Fprintln(a.out, "invalid")
	}
	printDiagList(a, "errors", result.Errors, a.errColor)
	printDiagList(a, "warnings", result.Warnings, a.warnColor)
}

func printDiagList(a *app, label string, list diag.List, c *color.Color) {
	if len(list) == 0 {
		return
	}
	fmt.Fprintf(a.out, "%s:\n", label)
	for _, d := range list {
		line := fmt.Sprintf("  [%s/%s] %s", d.Phase, d.Code, d.Message)
		if d.Span != nil {
			line = fmt.Sprintf("  %d:%d [%s/%s] %s", d.Span.Line, d.Span.Column, d.Phase, d.Code, d.Message)
		}
		c.Fprintln(a.out, line)
	}
}
