package observability

import (
	"context"
	"fmt"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/exporters/jaeger"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/trace"
)

const tracerName = "churn-workers"

// EnableTracing exports job spans to the Jaeger collector at endpoint,
// e.g. http://jaeger:14268/api/traces.
func (o *Observability) EnableTracing(serviceName, endpoint string) error {
	exp, err := jaeger.New(jaeger.WithCollectorEndpoint(jaeger.WithEndpoint(endpoint)))
	if err != nil {
		return fmt.Errorf("create jaeger exporter: %w", err)
	}

	o.useTracerProvider(sdktrace.NewTracerProvider(
		sdktrace.WithBatcher(exp),
		sdktrace.WithResource(resource.NewSchemaless(attribute.String("service.name", serviceName))),
	))
	return nil
}

func (o *Observability) useTracerProvider(tp *sdktrace.TracerProvider) {
	otel.SetTracerProvider(tp)
	o.tracerProvider = tp
	o.tracer = tp.Tracer(tracerName)
}

// StartJobSpan starts the span covering one job. Without EnableTracing it
// falls back to the global, by default no-op, tracer.
func (o *Observability) StartJobSpan(ctx context.Context, taskType string, jobKey, processInstanceKey int64) (context.Context, trace.Span) {
	tracer := otel.Tracer(tracerName)
	if o != nil && o.tracer != nil {
		tracer = o.tracer
	}
	return tracer.Start(ctx, taskType,
		trace.WithSpanKind(trace.SpanKindConsumer),
		trace.WithAttributes(
			attribute.String("zeebe.task_type", taskType),
			attribute.Int64("zeebe.job_key", jobKey),
			attribute.Int64("zeebe.process_instance_key", processInstanceKey),
		),
	)
}

// EndJobSpan records the job outcome on span and ends it.
func EndJobSpan(span trace.Span, status string) {
	span.SetAttributes(attribute.String("job.status", status))
	if status != "completed" {
		span.SetStatus(codes.Error, status)
	}
	span.End()
}

func (o *Observability) shutdownTracing(ctx context.Context) {
	if o.tracerProvider != nil {
		_ = o.tracerProvider.Shutdown(ctx)
	}
}
