package commands

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/Sumatoshi-tech/redblack/internal/rbtree"
	"github.com/Sumatoshi-tech/redblack/pkg/observability"
)

const (
	shellCmdUse   = "shell"
	shellCmdShort = "Run the interactive tree menu"

	menuText = "\nMenu:\n" +
		"1. Insert Node\n" +
		"2. Delete Node\n" +
		"3. Display Tree\n" +
		"4. Save Tree to File\n" +
		"5. Exit\n" +
		"6. Show Statistics\n" +
		"Enter your choice: "

	promptInsert   = "Enter value to insert: "
	promptDelete   = "Enter value to delete: "
	promptFilename = "Enter filename to save: "

	msgVisualization = "\nTree Visualization:\n"
	msgSaved         = "Tree saved to %s\n"
	msgOpenFailed    = "Error: Unable to open file.\n"
	msgExit          = "Exiting Program\n"
	msgInvalidChoice = "Invalid choice. Try again.\n"
	msgInvalidInput  = "Invalid input.\n"
)

// readStatus classifies the next input token.
type readStatus int

const (
	readOK readStatus = iota
	readInvalid
	readEOF
)

// Menu choices.
const (
	choiceInsert = iota + 1
	choiceDelete
	choiceDisplay
	choiceSave
	choiceExit
	choiceStats
)

// NewShellCommand creates the shell subcommand.
func NewShellCommand(opts *GlobalOptions) *cobra.Command {
	return &cobra.Command{
		Use:   shellCmdUse,
		Short: shellCmdShort,
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return RunShell(cmd, opts)
		},
	}
}

// RunShell runs the interactive menu on the command's input and output.
// The root command uses it as its default action.
func RunShell(cmd *cobra.Command, opts *GlobalOptions) error {
	env, err := loadEnvironment(cmd, opts, observability.ModeShell)
	if err != nil {
		return err
	}

	sh := newShell(env.newSession(), cmd.InOrStdin(), cmd.OutOrStdout(), env.palette())

	runErr := sh.Run(cmd.Context())

	return errors.Join(runErr, env.Close(context.Background()))
}

// shell reads whitespace-separated tokens, so a choice and its value may
// share a line.
type shell struct {
	session *Session
	in      *bufio.Scanner
	out     io.Writer
	colors  palette
}

func newShell(session *Session, in io.Reader, out io.Writer, colors palette) *shell {
	scanner := bufio.NewScanner(in)
	scanner.Split(bufio.ScanWords)

	return &shell{session: session, in: scanner, out: out, colors: colors}
}

// Run executes the menu loop until Exit is chosen or input ends.
func (sh *shell) Run(ctx context.Context) error {
	for {
		sh.print(menuText)

		choice, status := sh.readInt()

		switch status {
		case readEOF:
			return sh.in.Err()
		case readInvalid:
			sh.print(msgInvalidInput)

			continue
		case readOK:
		}

		done, err := sh.dispatch(ctx, choice)
		if err != nil || done {
			return err
		}
	}
}

// dispatch runs one menu choice and reports whether the session ended.
func (sh *shell) dispatch(ctx context.Context, choice int) (bool, error) {
	switch choice {
	case choiceInsert:
		return sh.mutate(ctx, promptInsert, sh.session.Insert)
	case choiceDelete:
		return sh.mutate(ctx, promptDelete, sh.session.Delete)
	case choiceDisplay:
		sh.print(msgVisualization)

		return false, sh.session.Render(ctx, sh.out)
	case choiceSave:
		return sh.save(ctx)
	case choiceExit:
		sh.print(msgExit)

		return true, nil
	case choiceStats:
		return false, sh.stats(ctx)
	default:
		sh.colors.warning.Fprint(sh.out, msgInvalidChoice)

		return false, nil
	}
}

func (sh *shell) mutate(
	ctx context.Context, prompt string, apply func(context.Context, int) (bool, error),
) (bool, error) {
	sh.print(prompt)

	value, status := sh.readInt()

	switch status {
	case readEOF:
		return true, sh.in.Err()
	case readInvalid:
		sh.print(msgInvalidInput)

		return false, nil
	case readOK:
	}

	_, err := apply(ctx, value)

	return false, err
}

func (sh *shell) save(ctx context.Context) (bool, error) {
	sh.print(promptFilename)

	name, ok := sh.readToken()
	if !ok {
		return true, sh.in.Err()
	}

	err := sh.session.Save(ctx, name)
	if errors.Is(err, rbtree.ErrInvalidSink) {
		sh.colors.failure.Fprint(sh.out, msgOpenFailed)

		return false, nil
	}

	if err != nil {
		return false, err
	}

	sh.colors.success.Fprintf(sh.out, msgSaved, name)

	return false, nil
}

func (sh *shell) stats(ctx context.Context) error {
	rep, err := collectReport(ctx, sh.session)
	if err != nil {
		return err
	}

	err = writeStatsTable(sh.out, rep)
	if err != nil {
		return err
	}

	if rep.violation != nil {
		sh.colors.warning.Fprintf(sh.out, msgViolated, rep.violation)
	}

	return nil
}

func (sh *shell) print(text string) {
	fmt.Fprint(sh.out, text)
}

func (sh *shell) readToken() (string, bool) {
	if !sh.in.Scan() {
		return "", false
	}

	return sh.in.Text(), true
}

func (sh *shell) readInt() (int, readStatus) {
	token, ok := sh.readToken()
	if !ok {
		return 0, readEOF
	}

	value, err := strconv.Atoi(token)
	if err != nil {
		return 0, readInvalid
	}

	return value, readOK
}
