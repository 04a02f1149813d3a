// Command iclc is the command-line adapter for the ICL runtime. It
// dispatches to pkg/icl's entry points and formats their results; it
// introduces no Core semantics of its own (spec.md §6.4).
package main

import "os"

func main() {
	os.Exit(Execute())
}
