package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/odvcencio/flux/pkg/repo"
)

func newCommitCmd(g *globalFlags) *cobra.Command {
	var message string
	var sign bool
	var keyPath string

	cmd := &cobra.Command{
		Use:   "commit",
		Short: "Record the staged changes on the current branch",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if strings.TrimSpace(message) == "" {
				return fmt.Errorf("commit message is required (-m)")
			}

			var opts []repo.Option
			if sign || keyPath != "" {
				signer, _, err := newSSHCommitSigner(keyPath)
				if err != nil {
					return err
				}
				opts = append(opts, repo.WithSigner(signer))
			}

			r, err := g.open(cmd, opts...)
			if err != nil {
				return err
			}
			h, err := r.Commit(message)
			if err != nil {
				return err
			}

			fmt.Fprintf(cmd.OutOrStdout(), "[%s %s] %s\n", r.BranchName(), h.Short(), firstLine(message))
			return nil
		},
	}

	cmd.Flags().StringVarP(&message, "message", "m", "", "commit message")
	cmd.Flags().BoolVarP(&sign, "sign", "S", false, "sign the commit with an SSH key")
	cmd.Flags().StringVar(&keyPath, "key", "", "SSH private key used with -S (default: ~/.ssh/id_ed25519, id_ecdsa, id_rsa)")

	return cmd
}

func firstLine(s string) string {
	line, _, _ := strings.Cut(s, "\n")
	return line
}
