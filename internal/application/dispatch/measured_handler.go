package dispatch

import (
	"context"
	"errors"
	"time"

	"github.com/belgrano/backend/internal/domain/shared"
	"github.com/belgrano/backend/internal/infrastructure/telemetry"
)

// MeasuredHandler records the outcome and latency of every delivery made by
// the wrapped handler.
type MeasuredHandler struct {
	shared.EventHandler
	metrics *telemetry.BusinessMetrics
}

// Measured wraps h; a nil metrics set disables recording
func Measured(h shared.EventHandler, metrics *telemetry.BusinessMetrics) shared.EventHandler {
	if metrics == nil {
		return h
	}
	return &MeasuredHandler{EventHandler: h, metrics: metrics}
}

// Handle delegates to the wrapped handler
func (m *MeasuredHandler) Handle(ctx context.Context, event shared.DomainEvent) error {
	start := time.Now()
	err := m.EventHandler.Handle(ctx, event)

	outcome := telemetry.OutcomeDelivered
	switch {
	case errors.Is(err, shared.ErrPermanentDelivery):
		outcome = telemetry.OutcomeDeadLetter
	case err != nil:
		outcome = telemetry.OutcomeRetry
	}
	m.metrics.RecordOutboxDelivery(ctx, event.EventType(), outcome, time.Since(start))
	return err
}
