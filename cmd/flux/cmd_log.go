package main

import (
	"fmt"
	"strings"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/odvcencio/flux/pkg/object"
)

func newLogCmd(g *globalFlags) *cobra.Command {
	var oneline bool

	cmd := &cobra.Command{
		Use:   "log",
		Short: "Show the history of the current branch",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			r, err := g.open(cmd)
			if err != nil {
				return err
			}
			entries, err := r.Log()
			if err != nil {
				return err
			}
			if len(entries) == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), "no commits yet")
				return nil
			}

			yellow := color.New(color.FgYellow).SprintFunc()
			cyan := color.New(color.FgCyan).SprintFunc()
			head := entries[0].Hash

			out := cmd.OutOrStdout()
			for _, e := range entries {
				decoration := buildDecoration(e.Hash, head, r.BranchName())
				if decoration != "" {
					decoration = " " + cyan(decoration)
				}
				if oneline {
					fmt.Fprintf(out, "%s%s %s\n", yellow(e.Hash.Short()), decoration, e.Commit.Summary())
					continue
				}
				fmt.Fprintf(out, "%s%s\n", yellow("commit "+string(e.Hash)), decoration)
				fmt.Fprint(out, e.Body)
				if !strings.HasSuffix(e.Body, "\n") {
					fmt.Fprintln(out)
				}
				fmt.Fprintln(out)
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&oneline, "oneline", false, "compact one-line format")

	return cmd
}

// buildDecoration returns "(HEAD -> branch)" for the branch tip and ""
// otherwise.
func buildDecoration(commitHash, headHash object.Hash, branchName string) string {
	if commitHash != headHash {
		return ""
	}
	return "(HEAD -> " + branchName + ")"
}
