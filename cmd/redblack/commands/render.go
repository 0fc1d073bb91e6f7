package commands

import (
	"context"
	"errors"

	"github.com/spf13/cobra"

	"github.com/Sumatoshi-tech/redblack/pkg/observability"
)

const (
	renderCmdUse      = "render [insert=N|delete=N ...]"
	renderCmdShort    = "Apply operations and print the sideways tree rendering"
	renderOutputFlag  = "output"
	renderOutputShort = "o"
	renderOutputUsage = "write the rendering to this file instead of stdout"
)

// NewRenderCommand creates the render subcommand.
func NewRenderCommand(opts *GlobalOptions) *cobra.Command {
	var outputPath string

	cmd := &cobra.Command{
		Use:   renderCmdUse,
		Short: renderCmdShort,
		RunE: func(cmd *cobra.Command, args []string) error {
			ops, err := parseOps(args)
			if err != nil {
				return err
			}

			return runRender(cmd, opts, ops, outputPath)
		},
	}

	cmd.Flags().StringVarP(&outputPath, renderOutputFlag, renderOutputShort, "", renderOutputUsage)

	return cmd
}

func runRender(cmd *cobra.Command, opts *GlobalOptions, ops []treeOp, outputPath string) (err error) {
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

	if outputPath == "" {
		return session.Render(ctx, cmd.OutOrStdout())
	}

	err = session.Save(ctx, outputPath)
	if err != nil {
		return err
	}

	if !opts.Quiet {
		env.palette().success.Fprintf(cmd.OutOrStdout(), msgSaved, outputPath)
	}

	return nil
}
