package telemetry

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/belgrano/backend/internal/infrastructure/config"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/otlp/otlpmetric/otlpmetricgrpc"
	"go.opentelemetry.io/otel/metric"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.uber.org/zap"
)

const metricsExportInterval = 60 * time.Second

// ErrMeterNil is returned when a metrics set is built without a meter
var ErrMeterNil = errors.New("telemetry: meter is nil")

// MeterProvider wraps the OpenTelemetry MeterProvider with lifecycle management.
type MeterProvider struct {
	provider *sdkmetric.MeterProvider
	logger   *zap.Logger
}

// NewMeterProvider creates the OTLP metrics pipeline and installs it globally.
func NewMeterProvider(ctx context.Context, cfg config.TelemetryConfig, logger *zap.Logger) (*MeterProvider, error) {
	mp := &MeterProvider{logger: logger}
	if !cfg.Enabled {
		return mp, nil
	}

	exporterOpts := []otlpmetricgrpc.Option{otlpmetricgrpc.WithEndpoint(cfg.CollectorEndpoint)}
	if cfg.Insecure {
		exporterOpts = append(exporterOpts, otlpmetricgrpc.WithInsecure())
	}
	exporter, err := otlpmetricgrpc.New(ctx, exporterOpts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create OTLP metrics exporter: %w", err)
	}
	res, err := newResource(cfg.ServiceName)
	if err != nil {
		return nil, err
	}

	mp.provider = sdkmetric.NewMeterProvider(
		sdkmetric.WithResource(res),
		sdkmetric.WithReader(sdkmetric.NewPeriodicReader(exporter, sdkmetric.WithInterval(metricsExportInterval))),
	)
	otel.SetMeterProvider(mp.provider)
	logger.Info("OpenTelemetry MeterProvider initialized", zap.String("collector_endpoint", cfg.CollectorEndpoint))
	return mp, nil
}

// Meter returns a named meter from the provider.
func (mp *MeterProvider) Meter(name string, opts ...metric.MeterOption) metric.Meter {
	if mp.provider == nil {
		return otel.GetMeterProvider().Meter(name, opts...)
	}
	return mp.provider.Meter(name, opts...)
}

// Shutdown flushes pending metrics.
func (mp *MeterProvider) Shutdown(ctx context.Context) error {
	if mp.provider == nil {
		return nil
	}
	shutdownCtx, cancel := context.WithTimeout(ctx, shutdownTimeout)
	defer cancel()
	if err := mp.provider.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("failed to shutdown meter provider: %w", err)
	}
	return nil
}

// Metric attribute keys
var (
	AttrPrioridad   = attribute.Key("prioridad")
	AttrTipoCliente = attribute.Key("tipo_cliente")
	AttrRepartidor  = attribute.Key("repartidor")
	AttrEstado      = attribute.Key("estado")
	AttrEventType   = attribute.Key("event_type")
	AttrOutcome     = attribute.Key("outcome")
)

// Outcome values of an outbox delivery attempt
const (
	OutcomeDelivered  = "delivered"
	OutcomeRetry      = "retry"
	OutcomeDeadLetter = "dead_letter"
)

// DeliveryDurationBuckets are bucket boundaries for outbox deliveries (seconds)
var DeliveryDurationBuckets = []float64{0.01, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10}

// BusinessMetrics records order, ticket and outbox activity.
type BusinessMetrics struct {
	ordersPlaced     metric.Int64Counter
	orderAmount      metric.Float64Counter
	ticketsReceived  metric.Int64Counter
	ticketsAssigned  metric.Int64Counter
	estadoChanges    metric.Int64Counter
	outboxDeliveries metric.Int64Counter
	outboxDuration   metric.Float64Histogram
	sseClients       metric.Int64UpDownCounter
}

// NewBusinessMetrics registers the instruments on meter.
func NewBusinessMetrics(meter metric.Meter) (*BusinessMetrics, error) {
	if meter == nil {
		return nil, ErrMeterNil
	}
	var (
		bm  BusinessMetrics
		err error
	)
	if bm.ordersPlaced, err = meter.Int64Counter("belgrano_orders_placed_total",
		metric.WithDescription("Orders confirmed at checkout"), metric.WithUnit("{orders}")); err != nil {
		return nil, err
	}
	if bm.orderAmount, err = meter.Float64Counter("belgrano_order_amount_total",
		metric.WithDescription("Sum of confirmed order totals"), metric.WithUnit("ARS")); err != nil {
		return nil, err
	}
	if bm.ticketsReceived, err = meter.Int64Counter("belgrano_tickets_received_total",
		metric.WithDescription("Tickets created from incoming orders"), metric.WithUnit("{tickets}")); err != nil {
		return nil, err
	}
	if bm.ticketsAssigned, err = meter.Int64Counter("belgrano_tickets_assigned_total",
		metric.WithDescription("Courier assignments"), metric.WithUnit("{tickets}")); err != nil {
		return nil, err
	}
	if bm.estadoChanges, err = meter.Int64Counter("belgrano_ticket_estado_changes_total",
		metric.WithDescription("Ticket estado transitions"), metric.WithUnit("{changes}")); err != nil {
		return nil, err
	}
	if bm.outboxDeliveries, err = meter.Int64Counter("belgrano_outbox_deliveries_total",
		metric.WithDescription("Outbox delivery attempts by outcome"), metric.WithUnit("{attempts}")); err != nil {
		return nil, err
	}
	if bm.outboxDuration, err = meter.Float64Histogram("belgrano_outbox_delivery_duration_seconds",
		metric.WithDescription("Outbox delivery latency"), metric.WithUnit("s"),
		metric.WithExplicitBucketBoundaries(DeliveryDurationBuckets...)); err != nil {
		return nil, err
	}
	if bm.sseClients, err = meter.Int64UpDownCounter("belgrano_sse_clients",
		metric.WithDescription("Connected dashboard clients"), metric.WithUnit("{clients}")); err != nil {
		return nil, err
	}
	return &bm, nil
}

// NoopBusinessMetrics returns metrics bound to a no-op meter, for tests and disabled telemetry
func NoopBusinessMetrics() *BusinessMetrics {
	bm, _ := NewBusinessMetrics(otel.GetMeterProvider().Meter(TracerName))
	return bm
}

// RecordOrderPlaced counts a confirmed order
func (m *BusinessMetrics) RecordOrderPlaced(ctx context.Context, tipoCliente string, total float64) {
	attrs := metric.WithAttributes(AttrTipoCliente.String(tipoCliente))
	m.ordersPlaced.Add(ctx, 1, attrs)
	m.orderAmount.Add(ctx, total, attrs)
}

// RecordTicketReceived counts a new ticket
func (m *BusinessMetrics) RecordTicketReceived(ctx context.Context, prioridad, tipoCliente string) {
	m.ticketsReceived.Add(ctx, 1, metric.WithAttributes(
		AttrPrioridad.String(prioridad),
		AttrTipoCliente.String(tipoCliente),
	))
}

// RecordAssignment counts a courier assignment
func (m *BusinessMetrics) RecordAssignment(ctx context.Context, repartidor string) {
	m.ticketsAssigned.Add(ctx, 1, metric.WithAttributes(AttrRepartidor.String(repartidor)))
}

// RecordEstadoChange counts a lifecycle transition
func (m *BusinessMetrics) RecordEstadoChange(ctx context.Context, estado string) {
	m.estadoChanges.Add(ctx, 1, metric.WithAttributes(AttrEstado.String(estado)))
}

// RecordOutboxDelivery counts one delivery attempt and its latency
func (m *BusinessMetrics) RecordOutboxDelivery(ctx context.Context, eventType, outcome string, d time.Duration) {
	attrs := metric.WithAttributes(AttrEventType.String(eventType), AttrOutcome.String(outcome))
	m.outboxDeliveries.Add(ctx, 1, attrs)
	m.outboxDuration.Record(ctx, d.Seconds(), attrs)
}

// SSEClientConnected adjusts the connected client gauge by delta
func (m *BusinessMetrics) SSEClientConnected(ctx context.Context, delta int64) {
	m.sseClients.Add(ctx, delta)
}
