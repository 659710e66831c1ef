// Package tracing records one OpenTelemetry span per task execution.
package tracing

import (
	"context"
	"fmt"

	"github.com/Swind/go-task-manager/core"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	oteltrace "go.opentelemetry.io/otel/trace"
)

const tracerName = "github.com/Swind/go-task-manager"

// Attribute keys set on every task span.
const (
	AttrTaskID   = attribute.Key("taskmanager.task.id")
	AttrTaskName = attribute.Key("taskmanager.task.name")
	AttrManager  = attribute.Key("taskmanager.manager")
	AttrPanicked = attribute.Key("taskmanager.task.panicked")
)

// Decorator returns a core.TaskDecorator that runs each task body inside a
// span named after the task. A nil tracer uses the global provider.
//
// The span ends when the body returns, so a body abandoned by a forced drain
// is traced until it actually returns.
func Decorator(tracer oteltrace.Tracer) core.TaskDecorator {
	if tracer == nil {
		tracer = otel.Tracer(tracerName)
	}
	return func(info core.TaskInfo, next core.Task) core.Task {
		return func(ctx context.Context) (err error) {
			ctx, span := tracer.Start(ctx, info.Name,
				oteltrace.WithSpanKind(oteltrace.SpanKindInternal),
				oteltrace.WithAttributes(
					AttrTaskID.String(info.ID.String()),
					AttrTaskName.String(info.Name),
					AttrManager.String(info.Manager),
				),
			)
			defer span.End()

			defer func() {
				if rec := recover(); rec != nil {
					span.SetAttributes(AttrPanicked.Bool(true))
					span.RecordError(fmt.Errorf("panic: %v", rec))
					span.SetStatus(codes.Error, "task panicked")
					panic(rec)
				}
			}()

			err = next(ctx)
			if err != nil {
				span.RecordError(err)
				span.SetStatus(codes.Error, err.Error())
				return err
			}
			span.SetStatus(codes.Ok, "")
			return nil
		}
	}
}
