package metrics

import (
	"context"
	"fmt"
	"strings"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/otlp/otlpmetric/otlpmetricgrpc"
	"go.opentelemetry.io/otel/exporters/otlp/otlpmetric/otlpmetrichttp"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/metric/noop"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

// Config configures the metrics provider.
type Config struct {
	Enabled          bool
	ExporterEndpoint string
	ExporterProtocol string
	ServiceName      string
	Environment      string
}

// Metrics exposes application-level instruments.
type Metrics struct {
	metricFetches     metric.Int64Counter
	tokenRefreshes    metric.Int64Counter
	verificationRuns  metric.Int64Counter
	reportSubmissions metric.Int64Counter
	rateLimitAllowed  metric.Int64Counter
	rateLimitDenied   metric.Int64Counter
}

// NewProvider configures and registers the meter provider.
func NewProvider(lc fx.Lifecycle, cfg Config, log *zap.Logger) (metric.MeterProvider, error) {
	if !cfg.Enabled {
		provider := noop.NewMeterProvider()
		otel.SetMeterProvider(provider)
		return provider, nil
	}

	exporter, err := newExporter(cfg.ExporterProtocol, cfg.ExporterEndpoint)
	if err != nil {
		return nil, err
	}

	reader := sdkmetric.NewPeriodicReader(exporter, sdkmetric.WithInterval(10*time.Second))
	provider := sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader))
	otel.SetMeterProvider(provider)

	if lc != nil {
		lc.Append(fx.Hook{
			OnStop: func(ctx context.Context) error {
				if log != nil {
					log.Info("shutting down meter provider")
				}
				return provider.Shutdown(ctx)
			},
		})
	}

	if log != nil {
		log.Info("metrics initialized",
			zap.String("endpoint", cfg.ExporterEndpoint),
			zap.String("protocol", cfg.ExporterProtocol),
		)
	}

	return provider, nil
}

// New configures the domain metrics instruments.
func New(cfg Config, provider metric.MeterProvider) (*Metrics, error) {
	name := strings.TrimSpace(cfg.ServiceName)
	if name == "" {
		name = "flowback"
	}
	meter := provider.Meter(name)

	metricFetches, err := meter.Int64Counter("flowback_metric_fetches_total")
	if err != nil {
		return nil, err
	}
	tokenRefreshes, err := meter.Int64Counter("flowback_token_refreshes_total")
	if err != nil {
		return nil, err
	}
	verificationRuns, err := meter.Int64Counter("flowback_verification_runs_total")
	if err != nil {
		return nil, err
	}
	reportSubmissions, err := meter.Int64Counter("flowback_report_submissions_total")
	if err != nil {
		return nil, err
	}
	rateLimitAllowed, err := meter.Int64Counter("flowback_rate_limit_allowed_total")
	if err != nil {
		return nil, err
	}
	rateLimitDenied, err := meter.Int64Counter("flowback_rate_limit_denied_total")
	if err != nil {
		return nil, err
	}

	return &Metrics{
		metricFetches:     metricFetches,
		tokenRefreshes:    tokenRefreshes,
		verificationRuns:  verificationRuns,
		reportSubmissions: reportSubmissions,
		rateLimitAllowed:  rateLimitAllowed,
		rateLimitDenied:   rateLimitDenied,
	}, nil
}

// RecordMetricFetch counts a connector fetch per platform and outcome.
func (m *Metrics) RecordMetricFetch(ctx context.Context, platform, outcome string) {
	if m == nil || m.metricFetches == nil {
		return
	}
	m.metricFetches.Add(ctx, 1, metric.WithAttributes(
		attribute.String("platform", platform),
		attribute.String("outcome", outcome),
	))
}

// RecordTokenRefresh counts a credential refresh per platform and outcome.
func (m *Metrics) RecordTokenRefresh(ctx context.Context, platform, outcome string) {
	if m == nil || m.tokenRefreshes == nil {
		return
	}
	m.tokenRefreshes.Add(ctx, 1, metric.WithAttributes(
		attribute.String("platform", platform),
		attribute.String("outcome", outcome),
	))
}

// RecordVerificationRun counts a workflow run per terminal stage.
func (m *Metrics) RecordVerificationRun(ctx context.Context, stage, outcome string) {
	if m == nil || m.verificationRuns == nil {
		return
	}
	m.verificationRuns.Add(ctx, 1, metric.WithAttributes(
		attribute.String("stage", stage),
		attribute.String("outcome", outcome),
	))
}

// RecordReportSubmission counts an on-chain report write attempt.
func (m *Metrics) RecordReportSubmission(ctx context.Context, outcome string) {
	if m == nil || m.reportSubmissions == nil {
		return
	}
	m.reportSubmissions.Add(ctx, 1, metric.WithAttributes(
		attribute.String("outcome", outcome),
	))
}

// RecordRateLimit counts a rate-limit decision for the given route.
func (m *Metrics) RecordRateLimit(ctx context.Context, route string, allowed bool) {
	if m == nil {
		return
	}
	attrs := metric.WithAttributes(attribute.String("route", route))
	if allowed {
		if m.rateLimitAllowed != nil {
			m.rateLimitAllowed.Add(ctx, 1, attrs)
		}
		return
	}
	if m.rateLimitDenied != nil {
		m.rateLimitDenied.Add(ctx, 1, attrs)
	}
}

func newExporter(protocol, endpoint string) (sdkmetric.Exporter, error) {
	endpoint = strings.TrimSpace(endpoint)
	switch strings.ToLower(strings.TrimSpace(protocol)) {
	case "", "grpc":
		return otlpmetricgrpc.New(context.Background(),
			otlpmetricgrpc.WithEndpoint(endpoint),
			otlpmetricgrpc.WithInsecure(),
		)
	case "http", "http/protobuf":
		return otlpmetrichttp.New(context.Background(),
			otlpmetrichttp.WithEndpoint(endpoint),
			otlpmetrichttp.WithInsecure(),
		)
	default:
		return nil, fmt.Errorf("unsupported otlp protocol %q", protocol)
	}
}
