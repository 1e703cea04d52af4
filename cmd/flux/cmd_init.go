package main

import (
	"fmt"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/odvcencio/flux/pkg/repo"
)

func newInitCmd(g *globalFlags) *cobra.Command {
	var force bool

	cmd := &cobra.Command{
		Use:   "init [path]",
		Short: "Create an empty flux repository",
		Long: "Creates the repository structure in the given directory, or the\n" +
			"current directory when no path is provided.",
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			path := g.dir
			if len(args) > 0 {
				path = args[0]
				if !filepath.IsAbs(path) {
					path = filepath.Join(g.dir, path)
				}
			}

			r, err := repo.Init(path, force, repo.WithLogger(g.logger(cmd.Name())))
			if err != nil {
				return err
			}

			fmt.Fprintf(cmd.OutOrStdout(), "initialized empty flux repository in %s\n", r.StoreDir+string(filepath.Separator))
			return nil
		},
	}

	cmd.Flags().BoolVar(&force, "force", false, "reinitialize an existing repository")

	return cmd
}

func newSetCmd(g *globalFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "set <key> <value>",
		Short: "Set a configuration value (user_name, user_email)",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			r, err := g.open(cmd)
			if err != nil {
				return err
			}
			return r.Set(args[0], args[1])
		},
	}
}
