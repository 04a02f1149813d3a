package main

import (
	"os"

	"github.com/spf13/cobra"

	"github.com/ICL-System/ICL-Runtime/pkg/icl"
)

func newNormalizeCmd(newAppFromFlags func() *app, exitCode *int) *cobra.Command {
	var write bool
	cmd := &cobra.Command{
		Use:   "normalize <file>",
		Short: "Print (or write back) a contract's canonical text",
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
			if write {
				if err := os.WriteFile(args[0], []byte(canonical), 0o644); err != nil {
					*exitCode = exitInternalError
					return err
				}
				a.infof("wrote canonical form to %s", args[0])
				return nil
			}
			a.printf("%s", canonical)
			return nil
		},
	}
	cmd.Flags().BoolVar(&write, "write", false, "write the canonical form back to <file>")
	return cmd
}
