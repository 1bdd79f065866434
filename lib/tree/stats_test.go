package tree

import (
	"context"
	"math"
	"math/rand/v2"
	"strconv"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/metric/metricdata"
)

func collectTreeStats(t *testing.T, reader *sdkmetric.ManualReader, scope string) (rotations int64, depths metricdata.HistogramDataPoint[int64]) {
	t.Helper()
	var rm metricdata.ResourceMetrics
	require.NoError(t, reader.Collect(context.Background(), &rm))
	for _, sm := range rm.ScopeMetrics {
		if sm.Scope.Name != scope {
			continue
		}
		for _, m := range sm.Metrics {
			switch data := m.Data.(type) {
			case metricdata.Sum[int64]:
				require.Equal(t, RotateCountMetricName, m.Name)
				for _, dp := range data.DataPoints {
					rotations += dp.Value
				}
			case metricdata.Histogram[int64]:
				require.Equal(t, DepthMetricName, m.Name)
				require.Len(t, data.DataPoints, 1)
				depths = data.DataPoints[0]
			}
		}
	}
	return rotations, depths
}

func TestTreeStats(t *testing.T) {
	reader := sdkmetric.NewManualReader()
	provider := sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader))
	defer func() {
		_ = provider.Shutdown(context.Background())
	}()

	avl := NewAVLTree[int, string](WithAVLTreeStats[int, string](provider))
	rb := NewRBTree[int, string](WithRBTreeStats[int, string](provider))
	for _, key := range basicTreeKeys {
		require.NoError(t, avl.Insert(key, strconv.Itoa(key)))
		require.NoError(t, rb.Insert(key, strconv.Itoa(key)))
	}
	// Rejected and no-op operations are not recorded.
	require.Error(t, avl.Insert(23, "23"))
	require.False(t, rb.Delete(999))

	// Leaf depths at insertion:
	// avl [0 1 1 2 3 2 3 2 4 4 4], rb [0 1 1 2 3 2 3 2 4 4 3].
	rotations, depths := collectTreeStats(t, reader, TreeStatsName+"/avl")
	require.Equal(t, int64(6), rotations)
	require.Equal(t, uint64(len(basicTreeKeys)), depths.Count)
	require.Equal(t, int64(26), depths.Sum)
	maxDepth, ok := depths.Max.Value()
	require.True(t, ok)
	require.Equal(t, int64(4), maxDepth)

	rotations, depths = collectTreeStats(t, reader, TreeStatsName+"/rb")
	require.Equal(t, int64(5), rotations)
	require.Equal(t, uint64(len(basicTreeKeys)), depths.Count)
	require.Equal(t, int64(25), depths.Sum)
	minDepth, ok := depths.Min.Value()
	require.True(t, ok)
	require.Equal(t, int64(0), minDepth)

	// Delete 20, the rb root: its succ 22 is a leaf at depth 2.
	// RemoveMin splices 1, a leaf at depth 3.
	require.True(t, rb.Delete(20))
	_, _, err := rb.RemoveMin()
	require.NoError(t, err)
	_, depths = collectTreeStats(t, reader, TreeStatsName+"/rb")
	require.Equal(t, uint64(len(basicTreeKeys)+2), depths.Count)
	require.Equal(t, int64(25+2+3), depths.Sum)
}

func TestTreeStats_DepthBound(t *testing.T) {
	reader := sdkmetric.NewManualReader()
	provider := sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader))
	defer func() {
		_ = provider.Shutdown(context.Background())
	}()

	const n = 4096
	rb := NewRBTree[int, int](WithRBTreeStats[int, int](provider))
	for i := 0; i < n; i++ {
		require.NoError(t, rb.Insert(i, i))
	}
	for i := 0; i < n/2; i++ {
		_, _, err := rb.RemoveMin()
		require.NoError(t, err)
	}
	_, depths := collectTreeStats(t, reader, TreeStatsName+"/rb")
	require.Equal(t, uint64(n+n/2), depths.Count)
	maxDepth, ok := depths.Max.Value()
	require.True(t, ok)
	require.LessOrEqual(t, float64(maxDepth), 2*math.Log2(n+1))
}

// Stats must not change the cost class of the operations. Sampling the
// whole tree on every operation turns the run quadratic.
func TestTreeStats_Overhead(t *testing.T) {
	if testing.Short() {
		t.Skip("timing sensitive")
	}
	const n = 20000
	keys := rand.Perm(n)

	run := func(tree BinaryTree[int, int]) time.Duration {
		start := time.Now()
		for _, key := range keys {
			require.NoError(t, tree.Insert(key, key))
		}
		for _, key := range keys {
			require.True(t, tree.Delete(key))
		}
		return time.Since(start)
	}

	provider := sdkmetric.NewMeterProvider(sdkmetric.WithReader(sdkmetric.NewManualReader()))
	defer func() {
		_ = provider.Shutdown(context.Background())
	}()

	testcases := []struct {
		name      string
		plain     BinaryTree[int, int]
		withStats BinaryTree[int, int]
	}{
		{
			name:      "rb",
			plain:     NewRBTree[int, int](),
			withStats: NewRBTree[int, int](WithRBTreeStats[int, int](provider)),
		},
		{
			name:      "avl",
			plain:     NewAVLTree[int, int](),
			withStats: NewAVLTree[int, int](WithAVLTreeStats[int, int](provider)),
		},
	}
	for _, tc := range testcases {
		t.Run(tc.name, func(tt *testing.T) {
			plain := run(tc.plain)
			withStats := run(tc.withStats)
			require.Less(tt, withStats, 20*plain+200*time.Millisecond,
				"plain %s, with stats %s", plain, withStats)
		})
	}
}

func TestTreeStats_Disabled(t *testing.T) {
	var stats *treeStats
	require.False(t, stats.enabled())
	require.NotPanics(t, func() {
		stats.IncreaseRotateCount(Left)
		stats.RecordDepth(1)
	})
}
