package commands

import (
	"context"
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/Sumatoshi-tech/redblack/pkg/observability"
)

const (
	checkCmdUse   = "check [insert=N|delete=N ...]"
	checkCmdShort = "Apply operations, print tree statistics and verify red-black invariants"

	msgInvariantsHold = "Red-black invariants hold.\n"
	msgViolated       = "Invariants violated: %v\n"
)

// ErrInvariantsViolated is returned by check when the final tree is not a valid red-black tree.
var ErrInvariantsViolated = errors.New("red-black invariants violated")

// NewCheckCommand creates the check subcommand.
func NewCheckCommand(opts *GlobalOptions) *cobra.Command {
	return &cobra.Command{
		Use:   checkCmdUse,
		Short: checkCmdShort,
		RunE: func(cmd *cobra.Command, args []string) error {
			ops, err := parseOps(args)
			if err != nil {
				return err
			}

			return runCheck(cmd, opts, ops)
		},
	}
}

func runCheck(cmd *cobra.Command, opts *GlobalOptions, ops []treeOp) (err error) {
	env, err := loadEnvironment(cmd, opts, observability.ModeCLI)
	if err != nil {
		return err
	}

	defer func() { err = errors.Join(err, env.Close(context.Background())) }()

	ctx := cmd.Context()
	session := env.newSession()

	err = applyOps(ctx, session, env.providers.Logger, ops)
	if err != nil {
		return err
	}

	rep, err := collectReport(ctx, session)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	colors := env.palette()

	if !opts.Quiet {
		err = writeStatsTable(out, rep)
		if err != nil {
			return err
		}
	}

	if rep.violation != nil {
		if !opts.Quiet {
			colors.failure.Fprintf(out, msgViolated, rep.violation)
		}

		return fmt.Errorf("%w: %w", ErrInvariantsViolated, rep.violation)
	}

	if !opts.Quiet {
		colors.success.Fprint(out, msgInvariantsHold)
	}

	return nil
}
