package commands

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/Sumatoshi-tech/redblack/internal/rbtree"
	"github.com/Sumatoshi-tech/redblack/pkg/observability"
)

// Operation names used for spans, metrics and logs.
const (
	opInsert = "insert"
	opDelete = "delete"
	opRender = "render"
	opSave   = "save"
	opStats  = "stats"
	opVerify = "verify"

	attrKey  = "redblack.key"
	attrPath = "redblack.path"
)

type sessionConfig struct {
	treeOptions          []rbtree.Option
	hibernationThreshold int
	tracer               trace.Tracer
	metrics              *observability.TreeMetrics
	logger               *slog.Logger
}

// Session wraps one tree with tracing, metrics and optional arena
// hibernation between operations.
type Session struct {
	tree    *rbtree.Tree
	tracer  trace.Tracer
	metrics *observability.TreeMetrics
	logger  *slog.Logger

	hibernate      bool
	seenRotations  int
	seenColorFlips int
}

func newSession(cfg sessionConfig) *Session {
	tree := rbtree.New(cfg.treeOptions...)
	tree.Allocator().HibernationThreshold = cfg.hibernationThreshold

	return &Session{
		tree:      tree,
		tracer:    cfg.tracer,
		metrics:   cfg.metrics,
		logger:    cfg.logger,
		hibernate: cfg.hibernationThreshold > 0,
	}
}

// Insert adds key to the tree. It reports false for a duplicate.
func (s *Session) Insert(ctx context.Context, key int) (bool, error) {
	return s.mutate(ctx, opInsert, key, s.tree.Insert)
}

// Delete removes key from the tree. It reports false for a missing key.
func (s *Session) Delete(ctx context.Context, key int) (bool, error) {
	return s.mutate(ctx, opDelete, key, s.tree.Delete)
}

// Render writes the sideways rendering of the tree to w.
func (s *Session) Render(ctx context.Context, w io.Writer) error {
	return s.observe(ctx, opRender, nil, func() (string, error) {
		return observability.OutcomeApplied, s.tree.Render(w)
	})
}

// Save writes the rendering to the file at path.
func (s *Session) Save(ctx context.Context, path string) error {
	attrs := []attribute.KeyValue{attribute.String(attrPath, path)}

	return s.observe(ctx, opSave, attrs, func() (string, error) {
		return observability.OutcomeApplied, s.tree.SaveToFile(path)
	})
}

// Stats returns the tree statistics and the compressed arena size. The
// arena is compressed here even when hibernation between operations is off.
func (s *Session) Stats(ctx context.Context) (rbtree.Stats, int, error) {
	var (
		stats      rbtree.Stats
		compressed int
	)

	err := s.observe(ctx, opStats, nil, func() (string, error) {
		stats = s.tree.Stats()

		alloc := s.tree.Allocator()
		threshold := alloc.HibernationThreshold
		alloc.HibernationThreshold = 0

		defer func() { alloc.HibernationThreshold = threshold }()

		hibErr := alloc.Hibernate()
		if hibErr != nil {
			return observability.OutcomeError, hibErr
		}

		compressed = alloc.HibernatedBytes()

		return observability.OutcomeApplied, alloc.Boot()
	})

	return stats, compressed, err
}

// Check computes the black height and the first invariant violation, if any.
// A violation is returned as a result; err reports a failure to check.
func (s *Session) Check(ctx context.Context) (blackHeight int, violation, err error) {
	err = s.observe(ctx, opVerify, nil, func() (string, error) {
		blackHeight, violation = s.tree.BlackHeight()
		if violation != nil {
			return observability.OutcomeViolation, nil
		}

		return observability.OutcomeApplied, nil
	})
	if err != nil {
		return 0, nil, err
	}

	return blackHeight, violation, nil
}

func (s *Session) mutate(ctx context.Context, op string, key int, apply func(int) bool) (bool, error) {
	var applied bool

	attrs := []attribute.KeyValue{attribute.Int(attrKey, key)}

	err := s.observe(ctx, op, attrs, func() (string, error) {
		before := s.tree.Len()
		applied = apply(key)

		if s.metrics != nil {
			s.metrics.AddNodes(ctx, int64(s.tree.Len()-before))
		}

		s.logger.DebugContext(ctx, "tree "+op,
			slog.Int("key", key), slog.Bool("applied", applied), slog.Int("nodes", s.tree.Len()))

		if !applied {
			return observability.OutcomeNoop, nil
		}

		return observability.OutcomeApplied, nil
	})

	return applied, err
}

// observe runs fn inside a span with the arena booted, records the outcome
// and puts the arena back to sleep when hibernation is enabled.
func (s *Session) observe(
	ctx context.Context, op string, attrs []attribute.KeyValue, fn func() (string, error),
) error {
	ctx, span := s.tracer.Start(ctx, "redblack."+op, trace.WithAttributes(attrs...))
	defer span.End()

	start := time.Now()

	outcome, err := s.run(ctx, fn)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		s.record(ctx, op, observability.OutcomeError, time.Since(start))

		return fmt.Errorf("%s: %w", op, err)
	}

	s.record(ctx, op, outcome, time.Since(start))

	return nil
}

func (s *Session) run(ctx context.Context, fn func() (string, error)) (string, error) {
	alloc := s.tree.Allocator()

	bootErr := alloc.Boot()
	if bootErr != nil {
		return observability.OutcomeError, bootErr
	}

	outcome, fnErr := fn()

	s.recordRebalancing(ctx)

	if !s.hibernate {
		return outcome, fnErr
	}

	hibErr := alloc.Hibernate()
	if fnErr != nil {
		return outcome, fnErr
	}

	return outcome, hibErr
}

func (s *Session) recordRebalancing(ctx context.Context) {
	rotations, flips := s.tree.Rebalancing()

	if s.metrics != nil {
		s.metrics.AddRebalancing(ctx, int64(rotations-s.seenRotations), int64(flips-s.seenColorFlips))
	}

	s.seenRotations, s.seenColorFlips = rotations, flips
}

func (s *Session) record(ctx context.Context, op, outcome string, duration time.Duration) {
	if s.metrics != nil {
		s.metrics.RecordOperation(ctx, op, outcome, duration)
	}
}
