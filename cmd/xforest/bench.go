package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"iter"
	randv2 "math/rand/v2"
	"strings"
	"sync"
	"text/tabwriter"
	"time"

	antsv2 "github.com/panjf2000/ants/v2"
	"github.com/spf13/cobra"
	"go.opentelemetry.io/otel/sdk/metric/metricdata"
	"go.uber.org/automaxprocs/maxprocs"
	"go.uber.org/fx"
	"go.uber.org/fx/fxevent"
	"go.uber.org/multierr"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/benz9527/xforest/lib/kv"
	"github.com/benz9527/xforest/lib/tree"
	"github.com/benz9527/xforest/observability"
	"github.com/benz9527/xforest/xlog"
)

var errEnginesDisagree = errors.New("[xforest] avl and rb trees disagree")

type benchOpKind uint8

const (
	opInsert benchOpKind = iota
	opDelete
)

type benchOp struct {
	kind benchOpKind
	key  uint64
}

// genBenchOps generates the replayable operations of one round. The
// sequence only depends on the seed and the round.
func genBenchOps(cfg *BenchConfig, round int) []benchOp {
	rnd := randv2.New(randv2.NewPCG(cfg.Seed, uint64(round)))
	if cfg.Mixed {
		total := cfg.Keys + cfg.Deletes
		ops := make([]benchOp, 0, total)
		for i := 0; i < total; i++ {
			kind := opInsert
			if rnd.IntN(3) == 0 {
				kind = opDelete
			}
			ops = append(ops, benchOp{kind: kind, key: rnd.Uint64N(cfg.KeyRange)})
		}
		return ops
	}

	ops := make([]benchOp, 0, cfg.Keys+cfg.Deletes)
	seen := make(map[uint64]struct{}, cfg.Keys)
	for len(seen) < cfg.Keys {
		key := rnd.Uint64N(cfg.KeyRange)
		if _, ok := seen[key]; ok {
			continue
		}
		seen[key] = struct{}{}
		ops = append(ops, benchOp{kind: opInsert, key: key})
	}
	deletes := make([]benchOp, len(ops))
	copy(deletes, ops)
	rnd.Shuffle(len(deletes), func(i, j int) {
		deletes[i], deletes[j] = deletes[j], deletes[i]
	})
	for _, op := range deletes[:cfg.Deletes] {
		ops = append(ops, benchOp{kind: opDelete, key: op.key})
	}
	return ops
}

type engineResult struct {
	Len        int64
	Height     int
	Duplicates int
	Misses     int
	Elapsed    time.Duration
}

type roundResult struct {
	Round int
	Ops   int
	AVL   engineResult
	RB    engineResult
}

func replay(bt tree.BinaryTree[uint64, int], ops []benchOp) engineResult {
	res := engineResult{}
	start := time.Now()
	for i, op := range ops {
		switch op.kind {
		case opInsert:
			if err := bt.Insert(op.key, i); errors.Is(err, tree.ErrDuplicateKey) {
				res.Duplicates++
			}
		case opDelete:
			if !bt.Delete(op.key) {
				res.Misses++
			}
		}
	}
	res.Elapsed = time.Since(start)
	res.Len = bt.Len()
	res.Height = bt.Height(bt.Root())
	return res
}

// sameContent checks both trees hold the same pairs in the same order.
func sameContent(avl tree.AVLTree[uint64, int], rb tree.RBTree[uint64, int]) error {
	next, stop := iter.Pull2(rb.InorderTraverse())
	defer stop()
	for k, v := range tree.InorderTraverse[uint64, int](avl, false) {
		rk, rv, ok := next()
		if !ok || rk != k || rv != v {
			return fmt.Errorf("%w at key %d", errEnginesDisagree, k)
		}
	}
	if k, _, ok := next(); ok {
		return fmt.Errorf("%w, rb has extra key %d", errEnginesDisagree, k)
	}
	return nil
}

type benchRunner struct {
	cfg     *BenchConfig
	out     io.Writer
	logger  xlog.XLogger
	metrics *observability.Metrics
	stats   *observability.AppStats
	pool    *antsv2.Pool
	results kv.ThreadSafeStorer[int, *roundResult]
}

func (r *benchRunner) runRound(ctx context.Context, round int) (*roundResult, error) {
	ops := genBenchOps(r.cfg, round)
	provider := r.metrics.Provider()
	avl := tree.NewAVLTree[uint64, int](tree.WithAVLTreeStats[uint64, int](provider))
	rb := tree.NewRBTree[uint64, int](tree.WithRBTreeStats[uint64, int](provider))
	defer func() {
		avl.Release()
		rb.Release()
	}()

	res := &roundResult{
		Round: round,
		Ops:   len(ops),
		AVL:   replay(avl, ops),
		RB:    replay(rb, ops),
	}
	r.logger.DebugContext(ctx, "round replayed",
		zap.Int("ops", res.Ops),
		zap.Duration("avl", res.AVL.Elapsed),
		zap.Duration("rb", res.RB.Elapsed),
	)
	return res, multierr.Combine(
		tree.ValidateAVLTree[uint64, int](avl, false),
		tree.ValidateRBTree[uint64, int](rb, false),
		sameContent(avl, rb),
	)
}

func (r *benchRunner) Run(ctx context.Context) error {
	var (
		wg   sync.WaitGroup
		lock sync.Mutex
		merr error
	)
	appendErr := func(err error) {
		lock.Lock()
		defer lock.Unlock()
		merr = multierr.Append(merr, err)
	}

	r.logger.Info("bench started",
		zap.Int("rounds", r.cfg.Rounds),
		zap.Int("keys", r.cfg.Keys),
		zap.Int("deletes", r.cfg.Deletes),
		zap.Bool("mixed", r.cfg.Mixed),
	)
	for round := 0; round < r.cfg.Rounds; round++ {
		wg.Add(1)
		err := r.pool.Submit(func() {
			defer wg.Done()
			roundCtx := xlog.ContextWithField(ctx, "round", round)
			res, err := r.runRound(roundCtx, round)
			if err != nil {
				r.logger.ErrorContext(roundCtx, err, "round failed")
				appendErr(fmt.Errorf("round %d: %w", round, err))
				return
			}
			r.results.AddOrUpdate(round, res)
		})
		if err != nil {
			wg.Done()
			appendErr(err)
		}
	}
	wg.Wait()
	if merr != nil {
		return merr
	}
	return r.report(ctx)
}

type engineStats struct {
	rotations int64
	depths    metricdata.HistogramDataPoint[int64]
}

func (r *benchRunner) collectEngineStats(ctx context.Context) (map[string]*engineStats, error) {
	rm, err := r.metrics.Collect(ctx)
	if err != nil {
		return nil, err
	}
	res := map[string]*engineStats{
		"avl": {},
		"rb":  {},
	}
	for _, sm := range rm.ScopeMetrics {
		var stats *engineStats
		switch sm.Scope.Name {
		case tree.TreeStatsName + "/avl":
			stats = res["avl"]
		case tree.TreeStatsName + "/rb":
			stats = res["rb"]
		default:
			continue
		}
		for _, m := range sm.Metrics {
			switch data := m.Data.(type) {
			case metricdata.Sum[int64]:
				for _, dp := range data.DataPoints {
					stats.rotations += dp.Value
				}
			case metricdata.Histogram[int64]:
				if len(data.DataPoints) > 0 {
					stats.depths = data.DataPoints[0]
				}
			}
		}
	}
	return res, nil
}

func (r *benchRunner) report(ctx context.Context) error {
	w := tabwriter.NewWriter(r.out, 0, 4, 2, ' ', 0)
	_, _ = fmt.Fprintln(w, "ROUND\tOPS\tLEN\tAVL HEIGHT\tRB HEIGHT\tAVL TIME\tRB TIME\tDUPLICATES\tMISSES")
	for _, res := range r.results.ListValues() {
		_, _ = fmt.Fprintf(w, "%d\t%d\t%d\t%d\t%d\t%s\t%s\t%d\t%d\n",
			res.Round, res.Ops, res.AVL.Len, res.AVL.Height, res.RB.Height,
			res.AVL.Elapsed, res.RB.Elapsed, res.AVL.Duplicates, res.AVL.Misses,
		)
	}
	if err := w.Flush(); err != nil {
		return err
	}

	stats, err := r.collectEngineStats(ctx)
	if err != nil {
		return err
	}
	_, _ = fmt.Fprintln(r.out)
	w = tabwriter.NewWriter(r.out, 0, 4, 2, ' ', 0)
	_, _ = fmt.Fprintln(w, "ENGINE\tROTATIONS\tDEPTH SAMPLES\tMIN DEPTH\tMAX DEPTH\tMEAN DEPTH")
	for _, engine := range []string{"avl", "rb"} {
		s := stats[engine]
		minDepth, _ := s.depths.Min.Value()
		maxDepth, _ := s.depths.Max.Value()
		mean := 0.0
		if s.depths.Count > 0 {
			mean = float64(s.depths.Sum) / float64(s.depths.Count)
		}
		_, _ = fmt.Fprintf(w, "%s\t%d\t%d\t%d\t%d\t%.2f\n",
			engine, s.rotations, s.depths.Count, minDepth, maxDepth, mean,
		)
	}
	if err = w.Flush(); err != nil {
		return err
	}

	if rss, err := r.stats.RSS(); err == nil {
		_, _ = fmt.Fprintf(r.out, "\nRSS: %d bytes\n", rss)
	}
	if r.cfg.Metrics == string(observability.PrometheusExporter) {
		_, _ = fmt.Fprintln(r.out)
		return r.metrics.WritePrometheusText(r.out)
	}
	return nil
}

type benchIO struct {
	out    io.Writer
	logOut io.Writer
}

type xforestBanner struct{}

func (xforestBanner) JSON() string {
	return `{"name":"xforest","desc":"avl and red-black tree bench"}`
}

func (xforestBanner) PlainText() string {
	return "xforest: avl and red-black tree bench"
}

func newBenchLogger(lc fx.Lifecycle, cfg *BenchConfig, bio *benchIO) xlog.XLogger {
	enc := xlog.PlainText
	if cfg.Log.Encoder == "json" {
		enc = xlog.JSON
	}
	lvl := xlog.LogLevelInfo
	switch strings.ToUpper(cfg.Log.Level) {
	case xlog.LogLevelDebug.String():
		lvl = xlog.LogLevelDebug
	case xlog.LogLevelWarn.String():
		lvl = xlog.LogLevelWarn
	case xlog.LogLevelError.String():
		lvl = xlog.LogLevelError
	default:
	}
	logger := xlog.NewXLogger(
		xlog.WithXLoggerWriter(bio.logOut),
		xlog.WithXLoggerEncoder(enc),
		xlog.WithXLoggerLevel(lvl),
		xlog.WithXLoggerContextFieldExtract("round"),
	)
	logger.Banner(xforestBanner{})
	lc.Append(fx.StopHook(func() {
		_ = logger.Sync()
	}))
	return logger
}

func newBenchMetrics(lc fx.Lifecycle, cfg *BenchConfig, bio *benchIO) (*observability.Metrics, error) {
	exporter, err := observability.ParseMetricsExporter(cfg.Metrics)
	if err != nil {
		return nil, err
	}
	metrics, err := observability.NewMetrics(
		observability.WithMetricsExporter(exporter),
		observability.WithStdoutWriter(bio.out),
	)
	if err != nil {
		return nil, err
	}
	lc.Append(fx.StopHook(metrics.Shutdown))
	return metrics, nil
}

func newBenchPool(lc fx.Lifecycle, cfg *BenchConfig, logger xlog.XLogger) (*antsv2.Pool, error) {
	pool, err := antsv2.NewPool(cfg.Workers, antsv2.WithLogger(xlog.NewAntsXLogger(logger)))
	if err != nil {
		return nil, err
	}
	lc.Append(fx.StopHook(pool.Release))
	return pool, nil
}

func newBenchRunner(
	cfg *BenchConfig,
	bio *benchIO,
	logger xlog.XLogger,
	metrics *observability.Metrics,
	pool *antsv2.Pool,
) (*benchRunner, error) {
	stats, err := observability.NewAppStats("bench", metrics.Provider())
	if err != nil {
		return nil, err
	}
	return &benchRunner{
		cfg:     cfg,
		out:     bio.out,
		logger:  logger,
		metrics: metrics,
		stats:   stats,
		pool:    pool,
		results: kv.NewThreadSafeMap[int, *roundResult](func() kv.OrderedMap[int, *roundResult] {
			return kv.NewAVLOrderedMap[int, *roundResult]()
		}),
	}, nil
}

func setMaxProcs(lc fx.Lifecycle, logger xlog.XLogger) error {
	undo, err := maxprocs.Set(maxprocs.Logger(func(format string, args ...any) {
		logger.Logf(zapcore.DebugLevel, format, args...)
	}))
	if err != nil {
		return err
	}
	lc.Append(fx.StopHook(undo))
	return nil
}

func runBench(ctx context.Context, cfg *BenchConfig, bio *benchIO) (err error) {
	var runner *benchRunner
	app := fx.New(
		fx.WithLogger(func(logger xlog.XLogger) fxevent.Logger {
			return xlog.NewFxXLogger(logger)
		}),
		fx.Supply(cfg, bio),
		fx.Provide(
			newBenchLogger,
			newBenchMetrics,
			newBenchPool,
			newBenchRunner,
		),
		fx.Invoke(setMaxProcs),
		fx.Populate(&runner),
	)
	if err = app.Start(ctx); err != nil {
		return err
	}
	defer func() {
		err = multierr.Append(err, app.Stop(context.Background()))
	}()
	return runner.Run(ctx)
}

func newBenchCmd() *cobra.Command {
	var configPath string
	cmd := &cobra.Command{
		Use:   "bench",
		Short: "Replay random insert and delete rounds on both engines",
		Long: `Bench replays the same random insert/delete sequence on an AVL tree and a
red-black tree per round, checks both trees hold the same pairs and keep
their invariants, then reports heights, timings and rotation counts.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := LoadBenchConfig(configPath)
			if err != nil {
				return err
			}
			flags := cmd.Flags()
			if flags.Changed("rounds") {
				cfg.Rounds, _ = flags.GetInt("rounds")
			}
			if flags.Changed("keys") {
				cfg.Keys, _ = flags.GetInt("keys")
			}
			if flags.Changed("deletes") {
				cfg.Deletes, _ = flags.GetInt("deletes")
			}
			if flags.Changed("key-range") {
				cfg.KeyRange, _ = flags.GetUint64("key-range")
			}
			if flags.Changed("mixed") {
				cfg.Mixed, _ = flags.GetBool("mixed")
			}
			if flags.Changed("workers") {
				cfg.Workers, _ = flags.GetInt("workers")
			}
			if flags.Changed("seed") {
				cfg.Seed, _ = flags.GetUint64("seed")
			}
			if flags.Changed("metrics") {
				cfg.Metrics, _ = flags.GetString("metrics")
			}
			if flags.Changed("log-level") {
				cfg.Log.Level, _ = flags.GetString("log-level")
			}
			if err = cfg.Validate(); err != nil {
				return err
			}
			return runBench(cmd.Context(), cfg, &benchIO{
				out:    cmd.OutOrStdout(),
				logOut: cmd.ErrOrStderr(),
			})
		},
	}
	flags := cmd.Flags()
	flags.StringVarP(&configPath, "config", "c", "", "yaml bench config file")
	flags.Int("rounds", defaultBenchConfig.Rounds, "number of rounds")
	flags.Int("keys", defaultBenchConfig.Keys, "number of inserts per round")
	flags.Int("deletes", defaultBenchConfig.Deletes, "number of deletes per round")
	flags.Uint64("key-range", defaultBenchConfig.KeyRange, "keys are drawn from [0, key-range)")
	flags.Bool("mixed", defaultBenchConfig.Mixed, "interleave inserts and deletes of random keys")
	flags.Int("workers", defaultBenchConfig.Workers, "number of rounds running concurrently")
	flags.Uint64("seed", defaultBenchConfig.Seed, "random seed of the operations")
	flags.String("metrics", defaultBenchConfig.Metrics, "metrics exporter: none, stdout or prometheus")
	flags.String("log-level", defaultBenchConfig.Log.Level, "log level: DEBUG, INFO, WARN or ERROR")
	return cmd
}
