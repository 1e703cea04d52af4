package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

func newVerifyCmd(g *globalFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "verify",
		Short: "Verify object integrity, branch history and commit signatures",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			r, err := g.open(cmd)
			if err != nil {
				return err
			}

			report, err := r.Verify()
			if err != nil {
				return err
			}

			fmt.Fprintf(
				cmd.OutOrStdout(),
				"ok: verified %d object(s) (%d blob, %d tree, %d commit), %d reachable commit(s) on %d branch(es), %d signed\n",
				report.Objects.Objects,
				report.Objects.Blobs,
				report.Objects.Trees,
				report.Objects.Commits,
				report.Commits,
				report.Branches,
				report.Signed,
			)
			return nil
		},
	}
}
