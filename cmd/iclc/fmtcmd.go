package main

import (
	"os"

	"github.com/spf13/cobra"

	"github.com/ICL-System/ICL-Runtime/pkg/icl"
)

// newFmtCmd is `iclc fmt`, a fixed alias for `normalize --write`
// (SPEC_FULL.md §6.5).
func newFmtCmd(newAppFromFlags func() *app, exitCode *int) *cobra.Command {
	return &cobra.Command{
		Use:   "fmt <file>",
		Short: "Alias for 'normalize --write'",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a := newAppFromFlags()
			source, err := readSource(args[0])
			if err != nil {
				*exitCode = exitInternalError
				return err
			}
			canonical, err := icl.Normalize(source)
			if err != nil {
				*exitCode = exitValidationFailed
				printParseFailure(a, err)
				return nil
			}
			if err := os.WriteFile(args[0], []byte(canonical), 0o644); err != nil {
				*exitCode = exitInternalError
				return err
			}
			a.infof("formatted %s", args[0])
			return nil
		},
	}
}
