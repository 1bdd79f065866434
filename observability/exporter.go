package observability

// https://opentelemetry.io/docs/languages/go/exporters/

import (
	"context"
	"errors"
	"io"
	"os"
	"strings"
	"time"

	promclient "github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/common/expfmt"
	"go.opentelemetry.io/otel/exporters/prometheus"
	"go.opentelemetry.io/otel/exporters/stdout/stdoutmetric"
	"go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/metric/metricdata"
	"go.uber.org/multierr"
)

type MetricsExporter string

const (
	NoneExporter       MetricsExporter = "none"
	StdoutExporter     MetricsExporter = "stdout"
	PrometheusExporter MetricsExporter = "prometheus"
)

var (
	ErrUnknownExporter      = errors.New("[observability] unknown metrics exporter")
	ErrPrometheusNotEnabled = errors.New("[observability] prometheus exporter is not enabled")
)

func ParseMetricsExporter(name string) (MetricsExporter, error) {
	switch exp := MetricsExporter(strings.ToLower(strings.TrimSpace(name))); exp {
	case "":
		return NoneExporter, nil
	case NoneExporter, StdoutExporter, PrometheusExporter:
		return exp, nil
	default:
	}
	return "", ErrUnknownExporter
}

// Metrics is a meter provider which can always be read back in process
// by its manual reader, and optionally exports to the console or to a
// prometheus registry.
type Metrics struct {
	provider *metric.MeterProvider
	reader   *metric.ManualReader
	registry *promclient.Registry
}

func (m *Metrics) Provider() *metric.MeterProvider {
	return m.provider
}

func (m *Metrics) Collect(ctx context.Context) (*metricdata.ResourceMetrics, error) {
	rm := &metricdata.ResourceMetrics{}
	if err := m.reader.Collect(ctx, rm); err != nil {
		return nil, err
	}
	return rm, nil
}

// WritePrometheusText renders the registry in the text exposition format.
func (m *Metrics) WritePrometheusText(w io.Writer) error {
	if m.registry == nil {
		return ErrPrometheusNotEnabled
	}
	families, err := m.registry.Gather()
	if err != nil {
		return err
	}
	var merr error
	for _, mf := range families {
		if _, err := expfmt.MetricFamilyToText(w, mf); err != nil {
			merr = multierr.Append(merr, err)
		}
	}
	return merr
}

func (m *Metrics) Shutdown(ctx context.Context) error {
	return m.provider.Shutdown(ctx)
}

type metricsCfg struct {
	exporter MetricsExporter
	interval time.Duration
	timeout  time.Duration
	writer   io.Writer
}

type MetricsOption func(cfg *metricsCfg)

func WithMetricsExporter(exporter MetricsExporter) MetricsOption {
	return func(cfg *metricsCfg) {
		cfg.exporter = exporter
	}
}

// WithStdoutInterval sets the push interval and timeout of the console exporter.
func WithStdoutInterval(interval, timeout time.Duration) MetricsOption {
	return func(cfg *metricsCfg) {
		cfg.interval = interval
		cfg.timeout = timeout
	}
}

func WithStdoutWriter(w io.Writer) MetricsOption {
	return func(cfg *metricsCfg) {
		cfg.writer = w
	}
}

func NewMetrics(opts ...MetricsOption) (*Metrics, error) {
	cfg := &metricsCfg{
		exporter: NoneExporter,
		interval: 10 * time.Second,
		timeout:  time.Second,
		writer:   os.Stdout,
	}
	for _, o := range opts {
		if o != nil {
			o(cfg)
		}
	}

	m := &Metrics{
		reader: metric.NewManualReader(),
	}
	readers := []metric.Option{metric.WithReader(m.reader)}
	switch cfg.exporter {
	case NoneExporter:
	case StdoutExporter:
		r, err := newConsoleMetricsReader(cfg.interval, cfg.timeout, stdoutmetric.WithWriter(cfg.writer))
		if err != nil {
			return nil, err
		}
		readers = append(readers, metric.WithReader(r))
	case PrometheusExporter:
		m.registry = promclient.NewRegistry()
		r, err := newPrometheusMetricsReader(m.registry)
		if err != nil {
			return nil, err
		}
		readers = append(readers, metric.WithReader(r))
	default:
		return nil, ErrUnknownExporter
	}
	m.provider = metric.NewMeterProvider(readers...)
	return m, nil
}

// Serves for test/dev environment.
func newConsoleMetricsReader(interval, timeout time.Duration, opts ...stdoutmetric.Option) (metric.Reader, error) {
	exporter, err := stdoutmetric.New(opts...)
	if err != nil {
		return nil, err
	}
	return metric.NewPeriodicReader(
		exporter,
		metric.WithInterval(interval),
		metric.WithTimeout(timeout),
	), nil
}

// Serves for the product environment and fetch stats metrics by HTTP.
func newPrometheusMetricsReader(registry *promclient.Registry) (metric.Reader, error) {
	return prometheus.New(
		prometheus.WithRegisterer(registry),
		prometheus.WithoutScopeInfo(),
	)
}
