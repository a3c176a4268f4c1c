package parking

import (
	"context"
	"errors"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"
)

type InstrumentedAttendant struct {
	*Attendant
	telemetry *TelemetryProvider

	// Metrics
	entryOperations   metric.Int64Counter
	exitOperations    metric.Int64Counter
	revenue           metric.Int64Counter
	occupancyGauge    metric.Int64UpDownCounter
	operationDuration metric.Float64Histogram
}

func NewInstrumentedAttendant(attendant *Attendant, telemetry *TelemetryProvider) (*InstrumentedAttendant, error) {
	meter := telemetry.Meter()

	entryOperations, err := meter.Int64Counter("parking_entries_total",
		metric.WithDescription("Total number of entry attempts"),
		metric.WithUnit("1"))
	if err != nil {
		return nil, err
	}

	exitOperations, err := meter.Int64Counter("parking_exits_total",
		metric.WithDescription("Total number of exit attempts"),
		metric.WithUnit("1"))
	if err != nil {
		return nil, err
	}

	revenue, err := meter.Int64Counter("parking_revenue_total",
		metric.WithDescription("Total amount charged on exit"),
		metric.WithUnit("{currency}"))
	if err != nil {
		return nil, err
	}

	occupancyGauge, err := meter.Int64UpDownCounter("parking_occupancy",
		metric.WithDescription("Current number of occupied slots"),
		metric.WithUnit("1"))
	if err != nil {
		return nil, err
	}

	operationDuration, err := meter.Float64Histogram("parking_operation_duration_seconds",
		metric.WithDescription("Duration of parking operations"),
		metric.WithUnit("s"))
	if err != nil {
		return nil, err
	}

	ia := &InstrumentedAttendant{
		Attendant:         attendant,
		telemetry:         telemetry,
		entryOperations:   entryOperations,
		exitOperations:    exitOperations,
		revenue:           revenue,
		occupancyGauge:    occupancyGauge,
		operationDuration: operationDuration,
	}

	// Seed the gauge with whatever the store already holds.
	if status, err := attendant.Status(context.Background()); err == nil {
		for _, cs := range status.Categories {
			occupancyGauge.Add(context.Background(), int64(cs.Occupied),
				metric.WithAttributes(attribute.String("category", cs.Category.String())))
		}
	}

	return ia, nil
}

func (ia *InstrumentedAttendant) Enter(ctx context.Context, v *Vehicle) (*SlotRecord, error) {
	attrs := []attribute.KeyValue{}
	if v != nil {
		attrs = append(attrs,
			attribute.String("vehicle.plate", v.Plate()),
			attribute.String("vehicle.category", v.Category().String()),
			attribute.Int("vehicle.engine_displacement", v.EngineDisplacement()),
		)
	}

	ctx, span := ia.telemetry.Tracer().Start(ctx, "parking.enter", trace.WithAttributes(attrs...))
	defer span.End()

	start := time.Now()

	span.AddEvent("evaluating_rules")

	rec, err := ia.Attendant.Enter(ctx, v)

	duration := time.Since(start).Seconds()

	labels := []attribute.KeyValue{
		attribute.String("operation", "enter"),
		attribute.String("category", categoryLabel(v)),
	}

	if err != nil {
		labels = append(labels, attribute.String("status", entryStatus(err)))
		if IsRejection(err) {
			span.AddEvent("entry_rejected", trace.WithAttributes(attribute.String("reason", err.Error())))
		} else {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
		}
	} else {
		labels = append(labels, attribute.String("status", "success"))
		span.SetAttributes(attribute.String("record.id", rec.ID.String()))
		span.AddEvent("slot_allocated")
		ia.occupancyGauge.Add(ctx, 1, metric.WithAttributes(attribute.String("category", categoryLabel(v))))
	}

	ia.entryOperations.Add(ctx, 1, metric.WithAttributes(labels...))
	ia.operationDuration.Record(ctx, duration, metric.WithAttributes(labels...))

	return rec, err
}

func (ia *InstrumentedAttendant) Exit(ctx context.Context, plate string) (*SlotRecord, error) {
	ctx, span := ia.telemetry.Tracer().Start(ctx, "parking.exit",
		trace.WithAttributes(
			attribute.String("vehicle.plate", plate),
		))
	defer span.End()

	start := time.Now()

	span.AddEvent("settling_stay")

	rec, err := ia.Attendant.Exit(ctx, plate)

	duration := time.Since(start).Seconds()

	labels := []attribute.KeyValue{
		attribute.String("operation", "exit"),
	}

	if err != nil {
		status := "failed"
		if errors.Is(err, ErrNotFound) {
			status = "not_found"
			span.AddEvent("vehicle_not_found")
		} else {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
		}
		labels = append(labels, attribute.String("status", status))
	} else {
		category := rec.Vehicle.Category().String()
		labels = append(labels,
			attribute.String("status", "success"),
			attribute.String("category", category),
		)
		span.SetAttributes(
			attribute.String("vehicle.category", category),
			attribute.Int64("amount_charged", *rec.AmountCharged),
		)
		span.AddEvent("slot_released")

		ia.occupancyGauge.Add(ctx, -1, metric.WithAttributes(attribute.String("category", category)))
		ia.revenue.Add(ctx, *rec.AmountCharged, metric.WithAttributes(attribute.String("category", category)))
	}

	ia.exitOperations.Add(ctx, 1, metric.WithAttributes(labels...))
	ia.operationDuration.Record(ctx, duration, metric.WithAttributes(labels...))

	return rec, err
}

func (ia *InstrumentedAttendant) Quote(ctx context.Context, plate string) (*SlotRecord, int64, error) {
	ctx, span := ia.telemetry.Tracer().Start(ctx, "parking.quote",
		trace.WithAttributes(
			attribute.String("vehicle.plate", plate),
		))
	defer span.End()

	start := time.Now()

	rec, amount, err := ia.Attendant.Quote(ctx, plate)

	labels := []attribute.KeyValue{
		attribute.String("operation", "quote"),
	}

	if err != nil {
		status := "failed"
		if errors.Is(err, ErrNotFound) {
			status = "not_found"
			span.AddEvent("vehicle_not_found")
		} else {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
		}
		labels = append(labels, attribute.String("status", status))
	} else {
		span.SetAttributes(attribute.Int64("amount_due", amount))
		labels = append(labels, attribute.String("status", "success"))
	}

	ia.operationDuration.Record(ctx, time.Since(start).Seconds(), metric.WithAttributes(labels...))

	return rec, amount, err
}

func (ia *InstrumentedAttendant) Status(ctx context.Context) (*Status, error) {
	ctx, span := ia.telemetry.Tracer().Start(ctx, "parking.status")
	defer span.End()

	start := time.Now()

	span.AddEvent("retrieving_status")

	status, err := ia.Attendant.Status(ctx)

	labels := []attribute.KeyValue{
		attribute.String("operation", "status"),
	}

	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		labels = append(labels, attribute.String("status", "failed"))
	} else {
		span.SetAttributes(attribute.Int("active_records", len(status.Active)))
		labels = append(labels, attribute.String("status", "success"))
	}

	ia.operationDuration.Record(ctx, time.Since(start).Seconds(), metric.WithAttributes(labels...))

	return status, err
}

func categoryLabel(v *Vehicle) string {
	if v == nil {
		return "unknown"
	}
	return v.Category().String()
}

func entryStatus(err error) string {
	var restriction *RestrictionError
	var capacity *CapacityError
	switch {
	case errors.As(err, &restriction):
		return "restricted"
	case errors.As(err, &capacity):
		return "full"
	case errors.Is(err, ErrAlreadyParked):
		return "already_parked"
	default:
		return "failed"
	}
}
