// Package middleware provides production-grade middleware for kinet
// applications.
//
// This package includes:
//   - OpenTelemetry distributed tracing middleware
//   - Prometheus metrics middleware and server hook recorders
//
// # OpenTelemetry Middleware
//
// The OpenTelemetry middleware traces every event, providing distributed
// tracing across your application. Traces include session ID, event name,
// target HID, and patch counts.
//
//	srv.Use(middleware.OpenTelemetry())
//
// Configure with options:
//
//	middleware.OpenTelemetry(
//	    middleware.WithTracerName("my-app"),
//	    middleware.WithEventFilter(func(ctx server.Ctx) bool {
//	        return ctx.Event() != nil
//	    }),
//	)
//
// # Prometheus Metrics
//
// The Prometheus middleware collects metrics about event processing:
//   - kinet_events_total: Total events processed by name and status
//   - kinet_event_duration_seconds: Event processing duration histogram
//   - kinet_event_errors_total: Event errors by name and type
//
// Session, patch, mount, and animation metrics come from ServerHooks,
// which bridges the runtime's observation points to the same collectors:
//
//	srv := server.New(server.Config{Hooks: middleware.ServerHooks()})
//	srv.Use(middleware.Prometheus())
//
// Then expose metrics on a separate port:
//
//	http.Handle("/metrics", promhttp.Handler())
//	go http.ListenAndServe(":9090", nil)
//
// # Context Propagation
//
// The OpenTelemetry middleware hands the handler a Ctx whose StdContext()
// carries the event span, so database drivers and HTTP clients inherit the
// trace:
//
//	func onQuery(ctx server.Ctx) error {
//	    row := db.QueryRowContext(ctx.StdContext(), "SELECT ...")
//	    ...
//	}
package middleware
