package commands

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"strings"
)

const (
	opSeparator = "="
	opUsage     = "insert=N | delete=N"
)

// Op parsing errors.
var (
	ErrUnknownOp = errors.New("unknown operation")
	ErrOpKey     = errors.New("operation key is not an integer")
)

// treeOp is one scripted mutation given on the command line.
type treeOp struct {
	name string
	key  int
}

// parseOps parses arguments of the form insert=N and delete=N, in order.
func parseOps(args []string) ([]treeOp, error) {
	ops := make([]treeOp, 0, len(args))

	for _, arg := range args {
		name, rawKey, ok := strings.Cut(arg, opSeparator)
		name = strings.ToLower(strings.TrimSpace(name))

		if !ok || (name != opInsert && name != opDelete) {
			return nil, fmt.Errorf("%w %q (want %s)", ErrUnknownOp, arg, opUsage)
		}

		key, err := strconv.Atoi(strings.TrimSpace(rawKey))
		if err != nil {
			return nil, fmt.Errorf("%w: %q", ErrOpKey, arg)
		}

		ops = append(ops, treeOp{name: name, key: key})
	}

	return ops, nil
}

// applyOps runs ops against the session in order.
func applyOps(ctx context.Context, session *Session, logger *slog.Logger, ops []treeOp) error {
	for _, op := range ops {
		var (
			applied bool
			err     error
		)

		switch op.name {
		case opInsert:
			applied, err = session.Insert(ctx, op.key)
		case opDelete:
			applied, err = session.Delete(ctx, op.key)
		}

		if err != nil {
			return err
		}

		if !applied {
			logger.InfoContext(ctx, "operation had no effect", slog.String("op", op.name), slog.Int("key", op.key))
		}
	}

	return nil
}
