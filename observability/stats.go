package observability

import (
	"context"
	"os"
	"runtime"
	"strings"

	"github.com/samber/lo"
	"github.com/shirou/gopsutil/v3/process"
	otelruntime "go.opentelemetry.io/contrib/instrumentation/runtime"
	"go.opentelemetry.io/otel/metric"
)

const (
	AppGoroutinesMetricName = "app.core.goroutines"
	AppProcessesMetricName  = "app.core.processes"
	AppRSSMetricName        = "app.core.rss"
)

type AppStats struct {
	proc       *process.Process
	goroutines metric.Int64ObservableUpDownCounter
	processes  metric.Int64ObservableUpDownCounter
	rss        metric.Int64ObservableGauge
}

// RSS returns the resident set size of the current process in bytes.
func (stats *AppStats) RSS() (uint64, error) {
	info, err := stats.proc.MemoryInfo()
	if err != nil {
		return 0, err
	}
	return info.RSS, nil
}

func appStatsName(name string) string {
	builder := &strings.Builder{}
	builder.WriteString("xforest/app")
	builder.WriteString("/")
	if len(strings.TrimSpace(name)) > 0 {
		builder.WriteString(name)
	} else {
		builder.WriteString("default")
	}
	return builder.String()
}

// NewAppStats registers the process gauges and the go runtime
// instrumentation on the provider.
func NewAppStats(name string, provider metric.MeterProvider) (*AppStats, error) {
	proc, err := process.NewProcess(int32(os.Getpid()))
	if err != nil {
		return nil, err
	}
	meter := provider.Meter(
		appStatsName(name),
		metric.WithInstrumentationVersion(otelruntime.Version()),
	)
	stats := &AppStats{
		proc: proc,
		goroutines: lo.Must[metric.Int64ObservableUpDownCounter](meter.Int64ObservableUpDownCounter(
			AppGoroutinesMetricName,
			metric.WithDescription(`The application goroutines' info.`),
			metric.WithInt64Callback(func(ctx context.Context, ob metric.Int64Observer) error {
				ob.Observe(int64(runtime.NumGoroutine()))
				return nil
			}),
		)),
		processes: lo.Must[metric.Int64ObservableUpDownCounter](meter.Int64ObservableUpDownCounter(
			AppProcessesMetricName,
			metric.WithDescription(`The application processes' info.`),
			metric.WithInt64Callback(func(ctx context.Context, ob metric.Int64Observer) error {
				ob.Observe(int64(runtime.GOMAXPROCS(0)))
				return nil
			}),
		)),
	}
	stats.rss = lo.Must[metric.Int64ObservableGauge](meter.Int64ObservableGauge(
		AppRSSMetricName,
		metric.WithDescription(`The application resident set size.`),
		metric.WithUnit("By"),
		metric.WithInt64Callback(func(ctx context.Context, ob metric.Int64Observer) error {
			rss, err := stats.RSS()
			if err != nil {
				return err
			}
			ob.Observe(int64(rss))
			return nil
		}),
	))
	if err = otelruntime.Start(otelruntime.WithMeterProvider(provider)); err != nil {
		return nil, err
	}
	return stats, nil
}
