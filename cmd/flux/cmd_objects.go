package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/odvcencio/flux/pkg/object"
)

func newHashObjectCmd(g *globalFlags) *cobra.Command {
	var write bool

	cmd := &cobra.Command{
		Use:   "hash-object <path>",
		Short: "Compute the object hash of a file or directory",
		Long: "Prints the blob hash of a file or the tree hash of a directory.\n" +
			"Use -w to also write the objects into the object store.",
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			r, err := g.open(cmd)
			if err != nil {
				return err
			}
			h, err := r.HashObject(resolveArg(g, args[0]), write)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), h)
			return nil
		},
	}

	cmd.Flags().BoolVarP(&write, "write", "w", false, "write the object to the object store")

	return cmd
}

func newCatFileCmd(g *globalFlags) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "cat-file <hash>",
		Short: "Display the contents of a repository object",
		Long: "Blobs print their raw text, trees list their entries and commits\n" +
			"print their body.",
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			h, err := object.ParseHash(args[0])
			if err != nil {
				return err
			}
			r, err := g.open(cmd)
			if err != nil {
				return err
			}
			out, err := r.CatFile(h)
			if err != nil {
				return err
			}
			fmt.Fprint(cmd.OutOrStdout(), out)
			return nil
		},
	}

	return cmd
}

func newLsTreeCmd(g *globalFlags) *cobra.Command {
	var nameOnly bool

	cmd := &cobra.Command{
		Use:   "ls-tree <hash>",
		Short: "List the contents of a tree object",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			h, err := object.ParseHash(args[0])
			if err != nil {
				return err
			}
			r, err := g.open(cmd)
			if err != nil {
				return err
			}
			var out string
			if nameOnly {
				out, err = r.LsTreeNames(h)
			} else {
				out, err = r.LsTree(h)
			}
			if err != nil {
				return err
			}
			fmt.Fprint(cmd.OutOrStdout(), out)
			return nil
		},
	}

	cmd.Flags().BoolVar(&nameOnly, "name-only", false, "show only entry names")

	return cmd
}

func newWriteIndexCmd(g *globalFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "write-index",
		Short: "Write the staged entries as a tree and print its hash",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			r, err := g.open(cmd)
			if err != nil {
				return err
			}
			h, err := r.TreeFromIndex()
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), h)
			return nil
		},
	}
}

func newCommitTreeCmd(g *globalFlags) *cobra.Command {
	var message string
	var parent string

	cmd := &cobra.Command{
		Use:   "commit-tree <tree>",
		Short: "Create a commit object from a tree",
		Long:  "Writes a commit for an existing tree without moving any branch.",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if strings.TrimSpace(message) == "" {
				return fmt.Errorf("commit message is required (-m)")
			}
			tree, err := object.ParseHash(args[0])
			if err != nil {
				return err
			}
			var parentHash object.Hash
			if parent != "" {
				if parentHash, err = object.ParseHash(parent); err != nil {
					return fmt.Errorf("parent: %w", err)
				}
			}

			r, err := g.open(cmd)
			if err != nil {
				return err
			}
			h, err := r.CommitTree(tree, message, parentHash)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), h)
			return nil
		},
	}

	cmd.Flags().StringVarP(&message, "message", "m", "", "commit message")
	cmd.Flags().StringVarP(&parent, "parent", "p", "", "parent commit hash")

	return cmd
}
