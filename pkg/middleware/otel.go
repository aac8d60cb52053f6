package middleware

import (
	"context"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/kinet-dev/kinet/pkg/server"
)

// Default tracer name for kinet applications.
const defaultTracerName = "kinet"

// OTelConfig configures the OpenTelemetry middleware.
type OTelConfig struct {
	// TracerName is the name of the tracer (default: "kinet").
	TracerName string

	// Filter determines which events to trace.
	// Return true to trace the event, false to skip.
	// If nil, all events are traced.
	Filter func(ctx server.Ctx) bool

	// AttributeExtractor extracts custom attributes from the context.
	// Called for each traced event.
	AttributeExtractor func(ctx server.Ctx) []attribute.KeyValue

	// tracer is the resolved tracer instance.
	tracer trace.Tracer
}

// OTelOption configures the OpenTelemetry middleware.
type OTelOption func(*OTelConfig)

// WithTracerName sets the tracer name.
func WithTracerName(name string) OTelOption {
	return func(c *OTelConfig) {
		c.TracerName = name
	}
}

// WithEventFilter sets a filter function for events.
func WithEventFilter(filter func(ctx server.Ctx) bool) OTelOption {
	return func(c *OTelConfig) {
		c.Filter = filter
	}
}

// WithAttributeExtractor sets a custom attribute extractor.
func WithAttributeExtractor(extractor func(ctx server.Ctx) []attribute.KeyValue) OTelOption {
	return func(c *OTelConfig) {
		c.AttributeExtractor = extractor
	}
}

func defaultOTelConfig() OTelConfig {
	return OTelConfig{
		TracerName: defaultTracerName,
	}
}

// OpenTelemetry creates middleware that traces every event.
//
// The middleware:
//   - Creates a span per event named kinet.<event>, with session ID,
//     event name, and target HID attributes
//   - Threads the span context to the handler, so ctx.StdContext()
//     carries the span for downstream calls
//   - Records errors and sets span status
//   - Records the queued patch count as a span attribute
//
// Example:
//
//	srv.Use(middleware.OpenTelemetry(
//	    middleware.WithTracerName("my-app"),
//	))
//
// The tracer uses the global OpenTelemetry tracer provider. Configure it
// in your main() before starting the server:
//
//	tp := sdktrace.NewTracerProvider(
//	    sdktrace.WithBatcher(exporter),
//	    sdktrace.WithResource(resource.NewWithAttributes(
//	        semconv.SchemaURL,
//	        semconv.ServiceName("my-app"),
//	    )),
//	)
//	otel.SetTracerProvider(tp)
func OpenTelemetry(opts ...OTelOption) server.EventMiddleware {
	config := defaultOTelConfig()
	for _, opt := range opts {
		opt(&config)
	}

	config.tracer = otel.Tracer(config.TracerName)

	return func(ctx server.Ctx, next func(server.Ctx) error) error {
		if config.Filter != nil && !config.Filter(ctx) {
			return next(ctx)
		}

		spanName := "kinet.internal"
		attrs := []attribute.KeyValue{}

		if session := ctx.Session(); session != nil {
			attrs = append(attrs, attribute.String("kinet.session_id", session.ID))
		}

		if event := ctx.Event(); event != nil {
			spanName = "kinet." + event.SourceName()
			attrs = append(attrs,
				attribute.String("kinet.event", event.SourceName()),
				attribute.String("kinet.hid", event.HID),
			)
		}

		if config.AttributeExtractor != nil {
			attrs = append(attrs, config.AttributeExtractor(ctx)...)
		}

		spanCtx, span := config.tracer.Start(
			ctx.StdContext(),
			spanName,
			trace.WithSpanKind(trace.SpanKindServer),
			trace.WithAttributes(attrs...),
			trace.WithTimestamp(time.Now()),
		)
		defer span.End()

		err := next(ctx.WithStdContext(spanCtx))

		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
		} else {
			span.SetStatus(codes.Ok, "")
		}

		span.SetAttributes(attribute.Int("kinet.patch_count", ctx.PatchCount()))

		return err
	}
}

// SpanFromCtx retrieves the current trace span. Inside a handler running
// under the OpenTelemetry middleware this is the event span.
//
// Example:
//
//	func onSave(ctx server.Ctx) error {
//	    span := middleware.SpanFromCtx(ctx)
//	    span.SetAttributes(attribute.Int("my.count", 42))
//	    return nil
//	}
func SpanFromCtx(ctx server.Ctx) trace.Span {
	return trace.SpanFromContext(ctx.StdContext())
}

// TraceContext returns a context carrying the event span for propagation
// to external services.
//
// Example:
//
//	func onFetch(ctx server.Ctx) error {
//	    req, _ := http.NewRequestWithContext(
//	        middleware.TraceContext(ctx), "GET", url, nil)
//	    ...
//	}
func TraceContext(ctx server.Ctx) context.Context {
	return ctx.StdContext()
}
