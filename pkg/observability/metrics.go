package observability

import (
	"context"
	"fmt"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

const (
	metricOperationsTotal   = "redblack.operations.total"
	metricOperationDuration = "redblack.operation.duration.seconds"
	metricTreeNodes         = "redblack.tree.nodes"
	metricRotationsTotal    = "redblack.rotations.total"
	metricColorFlipsTotal   = "redblack.color_flips.total"

	attrOp      = "op"
	attrOutcome = "outcome"
)

// Operation outcomes.
const (
	OutcomeApplied   = "applied"
	OutcomeNoop      = "noop"
	OutcomeError     = "error"
	OutcomeViolation = "violation"
)

// durationBucketBoundaries covers 1µs to 1s.
var durationBucketBoundaries = []float64{1e-6, 5e-6, 1e-5, 5e-5, 1e-4, 5e-4, 1e-3, 1e-2, 0.1, 1}

// TreeMetrics holds the OTel instruments describing tree activity.
type TreeMetrics struct {
	operationsTotal   metric.Int64Counter
	operationDuration metric.Float64Histogram
	treeNodes         metric.Int64UpDownCounter
	rotationsTotal    metric.Int64Counter
	colorFlipsTotal   metric.Int64Counter
}

// NewTreeMetrics creates tree metric instruments from the given meter.
func NewTreeMetrics(mt metric.Meter) (*TreeMetrics, error) {
	opsTotal, err := mt.Int64Counter(metricOperationsTotal,
		metric.WithDescription("Total number of tree operations"),
		metric.WithUnit("{operation}"),
	)
	if err != nil {
		return nil, fmt.Errorf("create %s: %w", metricOperationsTotal, err)
	}

	opDuration, err := mt.Float64Histogram(metricOperationDuration,
		metric.WithDescription("Tree operation duration in seconds"),
		metric.WithUnit("s"),
		metric.WithExplicitBucketBoundaries(durationBucketBoundaries...),
	)
	if err != nil {
		return nil, fmt.Errorf("create %s: %w", metricOperationDuration, err)
	}

	nodes, err := mt.Int64UpDownCounter(metricTreeNodes,
		metric.WithDescription("Number of keys stored in the tree"),
		metric.WithUnit("{node}"),
	)
	if err != nil {
		return nil, fmt.Errorf("create %s: %w", metricTreeNodes, err)
	}

	rotations, err := mt.Int64Counter(metricRotationsTotal,
		metric.WithDescription("Total number of rotations performed while rebalancing"),
		metric.WithUnit("{rotation}"),
	)
	if err != nil {
		return nil, fmt.Errorf("create %s: %w", metricRotationsTotal, err)
	}

	flips, err := mt.Int64Counter(metricColorFlipsTotal,
		metric.WithDescription("Total number of recolorings during insert fix-up"),
		metric.WithUnit("{flip}"),
	)
	if err != nil {
		return nil, fmt.Errorf("create %s: %w", metricColorFlipsTotal, err)
	}

	return &TreeMetrics{
		operationsTotal:   opsTotal,
		operationDuration: opDuration,
		treeNodes:         nodes,
		rotationsTotal:    rotations,
		colorFlipsTotal:   flips,
	}, nil
}

// RecordOperation records a completed operation with its outcome and duration.
func (tm *TreeMetrics) RecordOperation(ctx context.Context, op, outcome string, duration time.Duration) {
	attrs := metric.WithAttributes(
		attribute.String(attrOp, op),
		attribute.String(attrOutcome, outcome),
	)

	tm.operationsTotal.Add(ctx, 1, attrs)
	tm.operationDuration.Record(ctx, duration.Seconds(), attrs)
}

// AddNodes moves the node gauge by delta.
func (tm *TreeMetrics) AddNodes(ctx context.Context, delta int64) {
	if delta == 0 {
		return
	}

	tm.treeNodes.Add(ctx, delta)
}

// AddRebalancing records rotations and recolorings performed since the last call.
func (tm *TreeMetrics) AddRebalancing(ctx context.Context, rotations, flips int64) {
	if rotations > 0 {
		tm.rotationsTotal.Add(ctx, rotations)
	}

	if flips > 0 {
		tm.colorFlipsTotal.Add(ctx, flips)
	}
}
