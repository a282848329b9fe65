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
	paymentsPosted   metric.Int64Counter
	priceLocks       metric.Int64Counter
	receiptsRendered metric.Int64Counter
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
		name = "clinicore"
	}
	meter := provider.Meter(name)

	paymentsPosted, err := meter.Int64Counter("clinicore_payments_posted_total")
	if err != nil {
		return nil, err
	}
	priceLocks, err := meter.Int64Counter("clinicore_price_locks_total")
	if err != nil {
		return nil, err
	}
	receiptsRendered, err := meter.Int64Counter("clinicore_receipts_rendered_total")
	if err != nil {
		return nil, err
	}

	return &Metrics{
		paymentsPosted:   paymentsPosted,
		priceLocks:       priceLocks,
		receiptsRendered: receiptsRendered,
	}, nil
}

// RecordPaymentPosted counts one posted payment by channel.
func (m *Metrics) RecordPaymentPosted(ctx context.Context, recordType, channel string) {
	if m == nil || m.paymentsPosted == nil {
		return
	}
	m.paymentsPosted.Add(ctx, 1, metric.WithAttributes(
		attribute.String("record_type", recordType),
		attribute.String("channel", channel),
	))
}

// RecordPriceLock counts one price-lock transition.
func (m *Metrics) RecordPriceLock(ctx context.Context, recordType string) {
	if m == nil || m.priceLocks == nil {
		return
	}
	m.priceLocks.Add(ctx, 1, metric.WithAttributes(
		attribute.String("record_type", recordType),
	))
}

// RecordReceiptRendered counts one rendered receipt document.
func (m *Metrics) RecordReceiptRendered(ctx context.Context, recordType string) {
	if m == nil || m.receiptsRendered == nil {
		return
	}
	m.receiptsRendered.Add(ctx, 1, metric.WithAttributes(
		attribute.String("record_type", recordType),
	))
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
