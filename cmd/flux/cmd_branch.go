package main

import (
	"fmt"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
)

func newBranchCmd(g *globalFlags) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "branch",
		Short: "Show, create, delete or switch branches",
	}

	cmd.AddCommand(newBranchShowCmd(g))
	cmd.AddCommand(newBranchNewCmd(g))
	cmd.AddCommand(newBranchDeleteCmd(g))
	cmd.AddCommand(newBranchSwitchCmd(g))

	return cmd
}

func newBranchShowCmd(g *globalFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "show",
		Short: "Show all branches, marking the current one",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			r, err := g.open(cmd)
			if err != nil {
				return err
			}

			green := color.New(color.FgGreen).SprintFunc()
			out := cmd.OutOrStdout()
			for _, b := range r.Branches {
				if b.IsCurrent {
					fmt.Fprintf(out, "(*) %s\n", green(b.Name))
				} else {
					fmt.Fprintf(out, "    %s\n", b.Name)
				}
			}
			return nil
		},
	}
}

func newBranchNewCmd(g *globalFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "new <branch-name>",
		Short: "Create a branch at the current tip and switch to it",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			r, err := g.open(cmd)
			if err != nil {
				return err
			}
			if err := r.NewBranch(args[0]); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "switched to a new branch '%s'\n", args[0])
			return nil
		},
	}
}

func newBranchDeleteCmd(g *globalFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "delete <branch-name>",
		Short: "Delete a branch other than the current one",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			r, err := g.open(cmd)
			if err != nil {
				return err
			}
			if err := r.DeleteBranch(args[0]); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "deleted branch '%s'\n", args[0])
			return nil
		},
	}
}

func newBranchSwitchCmd(g *globalFlags) *cobra.Command {
	var force bool

	cmd := &cobra.Command{
		Use:   "switch <branch-name>",
		Short: "Switch to another branch",
		Long: "Replaces the working tree with the branch tip. The switch fails when\n" +
			"changes are staged; use --force to discard them.",
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			r, err := g.open(cmd)
			if err != nil {
				return err
			}
			if err := r.SwitchBranch(args[0], force); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "switched to branch '%s'\n", args[0])
			return nil
		},
	}

	cmd.Flags().BoolVarP(&force, "force", "f", false, "switch even if there are staged changes")

	return cmd
}
