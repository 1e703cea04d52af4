package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/odvcencio/flux/internal/logging"
	"github.com/odvcencio/flux/pkg/repo"
)

const version = "flux 0.1.0-dev"

// globalFlags holds the persistent flags shared by every subcommand.
type globalFlags struct {
	dir     string
	verbose bool
	log     *logging.Logger
}

// logger returns the logger for subcommand name, or a no-op logger when the
// command runs outside the root (as in tests).
func (g *globalFlags) logger(name string) *zap.Logger {
	if g.log == nil {
		return zap.NewNop()
	}
	return g.log.Command(name)
}

// open locates the repository containing the -C directory.
func (g *globalFlags) open(cmd *cobra.Command, opts ...repo.Option) (*repo.Repository, error) {
	opts = append([]repo.Option{repo.WithLogger(g.logger(cmd.Name()))}, opts...)
	return repo.Discover(g.dir, opts...)
}

func newRootCmd() *cobra.Command {
	g := &globalFlags{dir: "."}

	root := &cobra.Command{
		Use:           "flux",
		Short:         "A small content-addressed version control system",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			level := "warn"
			if g.verbose {
				level = "debug"
			}
			l, err := logging.NewLogger(level)
			if err != nil {
				return fmt.Errorf("logger: %w", err)
			}
			g.log = l
			return nil
		},
		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			if g.log != nil {
				_ = g.log.Sync()
			}
		},
	}
	root.PersistentFlags().StringVarP(&g.dir, "dir", "C", ".", "run as if flux was started in this directory")
	root.PersistentFlags().BoolVar(&g.verbose, "verbose", false, "enable debug logging on stderr")

	root.AddCommand(newVersionCmd())
	root.AddCommand(newInitCmd(g))
	root.AddCommand(newSetCmd(g))
	root.AddCommand(newHashObjectCmd(g))
	root.AddCommand(newCatFileCmd(g))
	root.AddCommand(newLsTreeCmd(g))
	root.AddCommand(newAddCmd(g))
	root.AddCommand(newDeleteCmd(g))
	root.AddCommand(newWriteIndexCmd(g))
	root.AddCommand(newCommitTreeCmd(g))
	root.AddCommand(newCommitCmd(g))
	root.AddCommand(newLogCmd(g))
	root.AddCommand(newBranchCmd(g))
	root.AddCommand(newStatusCmd(g))
	root.AddCommand(newReflogCmd(g))
	root.AddCommand(newVerifyCmd(g))
	return root
}

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintln(cmd.OutOrStdout(), version)
		},
	}
}
