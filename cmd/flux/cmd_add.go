package main

import (
	"path/filepath"

	"github.com/spf13/cobra"
)

func newAddCmd(g *globalFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "add <paths...>",
		Short: "Stage files or directories for the next commit",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			r, err := g.open(cmd)
			if err != nil {
				return err
			}
			for _, p := range args {
				if err := r.Add(resolveArg(g, p)); err != nil {
					return err
				}
			}
			return nil
		},
	}
}

func newDeleteCmd(g *globalFlags) *cobra.Command {
	return &cobra.Command{
		Use:     "delete <paths...>",
		Aliases: []string{"rm"},
		Short:   "Remove files or directories from the staging area",
		Args:    cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			r, err := g.open(cmd)
			if err != nil {
				return err
			}
			for _, p := range args {
				if err := r.Delete(resolveArg(g, p)); err != nil {
					return err
				}
			}
			return nil
		},
	}
}

// resolveArg makes a path argument absolute against the -C directory, so
// it names the same file whichever work tree root is discovered.
func resolveArg(g *globalFlags, p string) string {
	if filepath.IsAbs(p) {
		return p
	}
	abs, err := filepath.Abs(filepath.Join(g.dir, p))
	if err != nil {
		return p
	}
	return abs
}
