package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/ICL-System/ICL-Runtime/pkg/icl"
)

func newDiffCmd(newAppFromFlags func() *app, exitCode *int) *cobra.Command {
	return &cobra.Command{
		Use:   "diff <a> <b>",
		Short: "Print a unified diff of two contracts' canonical text",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			a := newAppFromFlags()

			srcA, err := readSource(args[0])
			if err != nil {
				*exitCode = exitInternalError
				return err
			}
			srcB, err := readSource(args[1])
			if err != nil {
				*exitCode = exitInternalError
				return err
			}

			canonA, err := icl.Normalize(srcA)
			if err != nil {
				*exitCode = exitValidationFailed
				printParseFailure(a, err)
				return nil
			}
			canonB, err := icl.Normalize(srcB)
			if err != nil {
				*exitCode = exitValidationFailed
				printParseFailure(a, err)
				return nil
			}

			d := unifiedDiff(args[0], args[1], canonA, canonB)
			if d == "" {
				a.okColor.Fprintln(a.out, "contracts are semantically equivalent")
				return nil
			}
			a.printf("%s", d)
			*exitCode = exitValidationFailed
			return nil
		},
	}
}

// unifiedDiff renders a minimal unified diff of two line sequences via a
// classic longest-common-subsequence backtrack. It returns "" when the
// inputs are identical.
func unifiedDiff(nameA, nameB, a, b string) string {
	linesA := strings.Split(a, "\n")
	linesB := strings.Split(b, "\n")
	if a == b {
		return ""
	}

	ops := lcsDiff(linesA, linesB)

	var out strings.Builder
	fmt.Fprintf(&out, "--- %s\n+++ %s\n", nameA, nameB)
	for _, op := range ops {
		switch op.kind {
		case diffEqual:
			fmt.Fprintf(&out, "  %s\n", op.text)
		case diffRemove:
			fmt.Fprintf(&out, "- %s\n", op.text)
		case diffAdd:
			fmt.Fprintf(&out, "+ %s\n", op.text)
		}
	}
	return out.String()
}

type diffOpKind int

const (
	diffEqual diffOpKind = iota
	diffRemove
	diffAdd
)

type diffOp struct {
	kind diffOpKind
	text string
}

// lcsDiff computes a line-level diff via dynamic-programming LCS, sized for
// the small canonical-text documents this tool compares.
func lcsDiff(a, b []string) []diffOp {
	n, m := len(a), len(b)
	lengths := make([][]int, n+1)
	for i := range lengths {
		lengths[i] = make([]int, m+1)
	}
	for i := n - 1; i >= 0; i-- {
		for j := m - 1; j >= 0; j-- {
			if a[i] == b[j] {
				lengths[i][j] = lengths[i+1][j+1] + 1
			} else if lengths[i+1][j] >= lengths[i][j+1] {
				lengths[i][j] = lengths[i+1][j]
			} else {
				lengths[i][j] = lengths[i][j+1]
			}
		}
	}

	var ops []diffOp
	i, j := 0, 0
	for i < n && j < m {
		switch {
		case a[i] == b[j]:
			ops = append(ops, diffOp{kind: diffEqual, text: a[i]})
			i++
			j++
		case lengths[i+1][j] >= lengths[i][j+1]:
			ops = append(ops, diffOp{kind: diffRemove, text: a[i]})
			i++
		default:
			ops = append(ops, diffOp{kind: diffAdd, text: b[j]})
			j++
		}
	}
	for ; i < n; i++ {
		ops = append(ops, diffOp{kind: diffRemove, text: a[i]})
	}
	for ; j < m; j++ {
		ops = append(ops, diffOp{kind: diffAdd, text: b[j]})
	}
	return ops
}
