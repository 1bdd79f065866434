package tree

import (
	"context"
	"fmt"

	"github.com/samber/lo"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

const (
	TreeStatsName = "xforest/tree"

	RotateCountMetricName = "xforest.tree.rotate"
	DepthMetricName       = "xforest.tree.depth"
)

type treeStats struct {
	attrs       attribute.Set
	leftAttrs   attribute.Set
	rightAttrs  attribute.Set
	rotateCount metric.Int64Counter
	depths      metric.Int64Histogram
}

func (stats *treeStats) IncreaseRotateCount(dir RBDirection) {
	if stats == nil {
		return
	}
	as := stats.leftAttrs
	if dir == Right {
		as = stats.rightAttrs
	}
	stats.rotateCount.Add(context.Background(), 1, metric.WithAttributeSet(as))
}

func (stats *treeStats) RecordDepth(depth int) {
	if stats == nil {
		return
	}
	stats.depths.Record(context.Background(), int64(depth), metric.WithAttributeSet(stats.attrs))
}

func (stats *treeStats) enabled() bool {
	return stats != nil
}

// newTreeStats builds the instruments of one engine. The nil provider
// falls back to the global one.
func newTreeStats(engine string, provider metric.MeterProvider) *treeStats {
	if provider == nil {
		provider = otel.GetMeterProvider()
	}
	meter := provider.Meter(fmt.Sprintf("%s/%s", TreeStatsName, engine))
	engineAttr := attribute.String("xforest.tree.engine", engine)
	return &treeStats{
		attrs: attribute.NewSet(engineAttr),
		leftAttrs: attribute.NewSet(
			engineAttr,
			attribute.String("xforest.tree.rotate.direction", Left.String()),
		),
		rightAttrs: attribute.NewSet(
			engineAttr,
			attribute.String("xforest.tree.rotate.direction", Right.String()),
		),
		rotateCount: lo.Must[metric.Int64Counter](meter.Int64Counter(
			RotateCountMetricName,
			metric.WithDescription("The number of single rotations performed by the tree."),
		)),
		depths: lo.Must[metric.Int64Histogram](meter.Int64Histogram(
			DepthMetricName,
			metric.WithDescription("The depth of the node inserted or spliced out by each successful operation."),
		)),
	}
}
