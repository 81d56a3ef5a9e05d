package reminder

import (
	"context"
	"errors"

	"github.com/rezkam/reminders/internal/domain"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"
)

const instrumentationName = "github.com/rezkam/reminders/internal/application/reminder"

// Outcome values recorded on the reminders.mutations counter.
const (
	outcomeOK         = "ok"
	outcomeInvalid    = "invalid"
	outcomeConflict   = "conflict"
	outcomeUnsolvable = "unsolvable"
	outcomeNotFound   = "not_found"
	outcomeError      = "error"
)

// telemetry uses the global otel providers, which are no-ops until
// observability is initialized.
type telemetry struct {
	tracer       trace.Tracer
	mutations    metric.Int64Counter
	saveFailures metric.Int64Counter
}

func newTelemetry() *telemetry {
	meter := otel.Meter(instrumentationName)

	// Instrument creation only fails on invalid names; the returned
	// instrument is still usable as a no-op.
	mutations, _ := meter.Int64Counter("reminders.mutations",
		metric.WithDescription("Reminder mutations by operation and outcome"),
	)
	saveFailures, _ := meter.Int64Counter("reminders.persist_failures",
		metric.WithDescription("Failed writes of the reminder list"),
	)

	return &telemetry{
		tracer:       otel.Tracer(instrumentationName),
		mutations:    mutations,
		saveFailures: saveFailures,
	}
}

func (t *telemetry) start(ctx context.Context, op, id string) (context.Context, trace.Span) {
	ctx, span := t.tracer.Start(ctx, "reminder."+op)
	if id != "" {
		span.SetAttributes(attribute.String("reminder.id", id))
	}
	return ctx, span
}

func (t *telemetry) record(ctx context.Context, span trace.Span, op string, err error) {
	outcome := outcomeOf(err)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, outcome)
	}
	t.mutations.Add(ctx, 1, metric.WithAttributes(
		attribute.String("op", op),
		attribute.String("outcome", outcome),
	))
}

func (t *telemetry) persistFailed(ctx context.Context, op string) {
	t.saveFailures.Add(ctx, 1, metric.WithAttributes(attribute.String("op", op)))
}

func outcomeOf(err error) string {
	switch {
	case err == nil:
		return outcomeOK
	case domain.IsValidation(err):
		return outcomeInvalid
	case errors.Is(err, domain.ErrConflict):
		return outcomeConflict
	case errors.Is(err, domain.ErrUnsolvableSchedule):
		return outcomeUnsolvable
	case errors.Is(err, domain.ErrNotFound):
		return outcomeNotFound
	default:
		return outcomeError
	}
}
