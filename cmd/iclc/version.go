package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

// version and commit are overridden at build time via -ldflags.
var (
	version = "dev"
	commit  = "none"
)

func newVersionCmd(newAppFromFlags func() *app) *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print build version metadata",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a := newAppFromFlags()
			if a.jsonMode {
				a.printf("{\"version\":%q,\"commit\":%q}\n", version, commit)
				return nil
			}
			fmt.Fprintf(a.out, "iclc %s (%s)\n", version, commit)
			return nil
		},
	}
}
