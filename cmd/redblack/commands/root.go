package commands

import (
	"fmt"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/Sumatoshi-tech/redblack/pkg/version"
)

const (
	rootCmdUse   = "redblack"
	rootCmdShort = "Red-black tree playground with an interactive menu"
	rootCmdLong  = `redblack maintains an integer red-black tree and draws it sideways,
right subtree on top, one node per line with its color (R or B).

Without a subcommand it starts the interactive menu.

Commands:
  shell     Interactive menu (default)
  render    Apply insert=N / delete=N operations and print the tree
  check     Apply operations, print statistics and verify invariants
  version   Show version information`
)

// NewRootCommand builds the redblack command tree.
func NewRootCommand() *cobra.Command {
	opts := &GlobalOptions{}

	rootCmd := &cobra.Command{
		Use:           rootCmdUse,
		Short:         rootCmdShort,
		Long:          rootCmdLong,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRun: func(_ *cobra.Command, _ []string) {
			if opts.NoColor {
				color.NoColor = true //nolint:reassign // intentional override of library global
			}
		},
		RunE: func(cmd *cobra.Command, _ []string) error {
			return RunShell(cmd, opts)
		},
	}

	opts.Register(rootCmd)

	rootCmd.AddCommand(NewShellCommand(opts))
	rootCmd.AddCommand(NewRenderCommand(opts))
	rootCmd.AddCommand(NewCheckCommand(opts))
	rootCmd.AddCommand(newVersionCommand())

	return rootCmd
}

func newVersionCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Show version information",
		Run: func(cmd *cobra.Command, _ []string) {
			fmt.Fprintln(cmd.OutOrStdout(), version.String())
		},
	}
}
