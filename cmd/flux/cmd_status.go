package main

import (
	"fmt"
	"io"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/odvcencio/flux/pkg/repo"
)

func newStatusCmd(g *globalFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show staged, unstaged and untracked changes",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			r, err := g.open(cmd)
			if err != nil {
				return err
			}

			entries, err := r.Status()
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			if b, ok := r.CurrentBranch(); ok && b.Unborn() {
				fmt.Fprintf(out, "on %s (no commits yet)\n", r.BranchName())
			} else {
				fmt.Fprintf(out, "on %s\n", r.BranchName())
			}

			var staged, unstaged, untracked []string
			for _, e := range entries {
				switch e.IndexStatus {
				case repo.StatusNew:
					staged = append(staged, "  + "+e.Path)
				case repo.StatusModified:
					staged = append(staged, "  ~ "+e.Path)
				}
				switch e.WorkStatus {
				case repo.StatusDirty:
					unstaged = append(unstaged, "  ~ "+e.Path)
				case repo.StatusDeleted:
					unstaged = append(unstaged, "  - "+e.Path)
				case repo.StatusUntracked:
					untracked = append(untracked, "  "+e.Path)
				}
			}

			printSection(out, "staged:", staged, color.New(color.FgGreen))
			printSection(out, "unstaged:", unstaged, color.New(color.FgRed))
			printSection(out, "untracked:", untracked, color.New(color.FgRed))

			if len(staged)+len(unstaged)+len(untracked) == 0 {
				fmt.Fprintln(out, "nothing to commit, working tree clean")
			}
			return nil
		},
	}
}

func printSection(out io.Writer, title string, lines []string, c *color.Color) {
	if len(lines) == 0 {
		return
	}
	fmt.Fprintln(out)
	fmt.Fprintln(out, title)
	for _, l := range lines {
		fmt.Fprintln(out, c.Sprint(l))
	}
}
