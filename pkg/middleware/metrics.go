package middleware

import (
	"errors"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/kinet-dev/kinet/pkg/server"
)

// MetricsConfig configures the Prometheus metrics middleware.
type MetricsConfig struct {
	// Namespace is the metrics namespace (default: "kinet").
	Namespace string

	// Subsystem is the metrics subsystem (default: "").
	Subsystem string

	// ConstLabels are constant labels added to all metrics.
	ConstLabels prometheus.Labels

	// Buckets are the histogram buckets for event duration.
	// Default: prometheus.DefBuckets
	Buckets []float64

	// Registry is the Prometheus registry to use.
	// Default: prometheus.DefaultRegisterer
	Registry prometheus.Registerer
}

// MetricsOption configures the Prometheus metrics middleware.
type MetricsOption func(*MetricsConfig)

// WithNamespace sets the metrics namespace.
func WithNamespace(namespace string) MetricsOption {
	return func(c *MetricsConfig) {
		c.Namespace = namespace
	}
}

// WithSubsystem sets the metrics subsystem.
func WithSubsystem(subsystem string) MetricsOption {
	return func(c *MetricsConfig) {
		c.Subsystem = subsystem
	}
}

// WithConstLabels sets constant labels for all metrics.
func WithConstLabels(labels prometheus.Labels) MetricsOption {
	return func(c *MetricsConfig) {
		c.ConstLabels = labels
	}
}

// WithBuckets sets the histogram buckets.
func WithBuckets(buckets []float64) MetricsOption {
	return func(c *MetricsConfig) {
		c.Buckets = buckets
	}
}

// WithRegistry sets the Prometheus registry.
func WithRegistry(registry prometheus.Registerer) MetricsOption {
	return func(c *MetricsConfig) {
		c.Registry = registry
	}
}

func defaultMetricsConfig() MetricsConfig {
	return MetricsConfig{
		Namespace: "kinet",
		Buckets:   prometheus.DefBuckets,
		Registry:  prometheus.DefaultRegisterer,
	}
}

// metrics holds the Prometheus collectors.
type metrics struct {
	eventsTotal      *prometheus.CounterVec
	eventDuration    *prometheus.HistogramVec
	eventErrors      *prometheus.CounterVec
	patchesSent      prometheus.Counter
	activeSessions   prometheus.Gauge
	detachedSessions prometheus.Gauge
	reconnectsTotal  prometheus.Counter
	expiredTotal     prometheus.Counter
	endEvents        *prometheus.CounterVec
	lateEndEvents    *prometheus.CounterVec
	mounts           *prometheus.CounterVec
	reflowsTotal     prometheus.Counter
	wsErrors         *prometheus.CounterVec
}

// globalMetrics is the singleton instance, created on the first call to
// Prometheus().
var (
	globalMetrics   *metrics
	globalMetricsMu sync.Mutex
)

func initMetrics(config MetricsConfig) *metrics {
	factory := promauto.With(config.Registry)

	return &metrics{
		eventsTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace:   config.Namespace,
			Subsystem:   config.Subsystem,
			Name:        "events_total",
			Help:        "Total number of events processed",
			ConstLabels: config.ConstLabels,
		}, []string{"event", "status"}),

		eventDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Namespace:   config.Namespace,
			Subsystem:   config.Subsystem,
			Name:        "event_duration_seconds",
			Help:        "Event processing duration in seconds",
			ConstLabels: config.ConstLabels,
			Buckets:     config.Buckets,
		}, []string{"event"}),

		eventErrors: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace:   config.Namespace,
			Subsystem:   config.Subsystem,
			Name:        "event_errors_total",
			Help:        "Total number of event processing errors",
			ConstLabels: config.ConstLabels,
		}, []string{"event", "error_type"}),

		patchesSent: factory.NewCounter(prometheus.CounterOpts{
			Namespace:   config.Namespace,
			Subsystem:   config.Subsystem,
			Name:        "patches_sent_total",
			Help:        "Total number of patches sent to clients",
			ConstLabels: config.ConstLabels,
		}),

		activeSessions: factory.NewGauge(prometheus.GaugeOpts{
			Namespace:   config.Namespace,
			Subsystem:   config.Subsystem,
			Name:        "active_sessions",
			Help:        "Number of live sessions, attached or awaiting resume",
			ConstLabels: config.ConstLabels,
		}),

		detachedSessions: factory.NewGauge(prometheus.GaugeOpts{
			Namespace:   config.Namespace,
			Subsystem:   config.Subsystem,
			Name:        "detached_sessions",
			Help:        "Number of disconnected sessions inside the resume window",
			ConstLabels: config.ConstLabels,
		}),

		reconnectsTotal: factory.NewCounter(prometheus.CounterOpts{
			Namespace:   config.Namespace,
			Subsystem:   config.Subsystem,
			Name:        "reconnects_total",
			Help:        "Total number of successful session resumptions",
			ConstLabels: config.ConstLabels,
		}),

		expiredTotal: factory.NewCounter(prometheus.CounterOpts{
			Namespace:   config.Namespace,
			Subsystem:   config.Subsystem,
			Name:        "sessions_expired_total",
			Help:        "Total number of sessions whose resume window passed",
			ConstLabels: config.ConstLabels,
		}),

		endEvents: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace:   config.Namespace,
			Subsystem:   config.Subsystem,
			Name:        "end_events_total",
			Help:        "Transition and animation end events delivered to streams",
			ConstLabels: config.ConstLabels,
		}, []string{"kind"}),

		lateEndEvents: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace:   config.Namespace,
			Subsystem:   config.Subsystem,
			Name:        "late_end_events_dropped_total",
			Help:        "End events that arrived after their stream completed",
			ConstLabels: config.ConstLabels,
		}, []string{"kind"}),

		mounts: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace:   config.Namespace,
			Subsystem:   config.Subsystem,
			Name:        "component_mounts_total",
			Help:        "Dynamic component mounts by result",
			ConstLabels: config.ConstLabels,
		}, []string{"result"}),

		reflowsTotal: factory.NewCounter(prometheus.CounterOpts{
			Namespace:   config.Namespace,
			Subsystem:   config.Subsystem,
			Name:        "forced_reflows_total",
			Help:        "Total number of forced layout reads",
			ConstLabels: config.ConstLabels,
		}),

		wsErrors: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace:   config.Namespace,
			Subsystem:   config.Subsystem,
			Name:        "websocket_errors_total",
			Help:        "Total WebSocket errors by type",
			ConstLabels: config.ConstLabels,
		}, []string{"type"}),
	}
}

// Prometheus creates middleware that collects Prometheus metrics for every
// event.
//
// Metrics collected by the middleware itself:
//   - kinet_events_total: counter of events by name and status
//   - kinet_event_duration_seconds: histogram of event processing duration
//   - kinet_event_errors_total: counter of event errors by name and type
//
// The remaining collectors fill through ServerHooks and the Record*
// functions:
//   - kinet_patches_sent_total, kinet_active_sessions,
//     kinet_detached_sessions, kinet_reconnects_total,
//     kinet_sessions_expired_total
//   - kinet_end_events_total, kinet_late_end_events_dropped_total
//   - kinet_component_mounts_total, kinet_forced_reflows_total
//   - kinet_websocket_errors_total
//
// Example:
//
//	srv := server.New(server.Config{Hooks: middleware.ServerHooks()})
//	srv.Use(middleware.Prometheus())
//	http.Handle("/metrics", promhttp.Handler())
func Prometheus(opts ...MetricsOption) server.EventMiddleware {
	config := defaultMetricsConfig()
	for _, opt := range opts {
		opt(&config)
	}

	globalMetricsMu.Lock()
	if globalMetrics == nil {
		globalMetrics = initMetrics(config)
	}
	m := globalMetrics
	globalMetricsMu.Unlock()

	return func(ctx server.Ctx, next func(server.Ctx) error) error {
		name := "internal"
		if event := ctx.Event(); event != nil {
			name = event.SourceName()
		}

		start := time.Now()
		err := next(ctx)
		m.eventDuration.WithLabelValues(name).Observe(time.Since(start).Seconds())

		status := "success"
		if err != nil {
			status = "error"
			m.eventErrors.WithLabelValues(name, categorizeError(err)).Inc()
		}
		m.eventsTotal.WithLabelValues(name, status).Inc()

		return err
	}
}

// categorizeError buckets an error for the error_type label, keeping
// cardinality bounded.
func categorizeError(err error) string {
	var handlerErr *server.HandlerError
	switch {
	case errors.As(err, &handlerErr):
		return "handler_panic"
	case errors.Is(err, server.ErrHandlerNotFound):
		return "handler_not_found"
	case errors.Is(err, server.ErrFactoryNotFound):
		return "factory_not_found"
	case errors.Is(err, server.ErrEventQueueFull):
		return "queue_full"
	case errors.Is(err, server.ErrSessionClosed):
		return "session_closed"
	case errors.Is(err, server.ErrSessionExpired):
		return "session_expired"
	default:
		return "internal"
	}
}

// ServerHooks returns a server.Hooks wired to the metric recorders, covering
// the runtime observations middleware cannot see. Pass it in server.Config
// alongside the Prometheus middleware.
func ServerHooks() *server.Hooks {
	return &server.Hooks{
		SessionStarted:  RecordSessionCreate,
		SessionClosed:   RecordSessionDestroy,
		SessionDetached: RecordSessionDetach,
		SessionResumed:  RecordSessionReattach,
		SessionExpired:  RecordSessionExpired,
		PatchesSent:     RecordPatches,
		EndEmission:     RecordEndEvent,
		LateSuppressed:  RecordLateEndEvent,
		Mount:           RecordMount,
		Reflow:          RecordReflow,
	}
}

// RecordPatches records patches written to a client.
func RecordPatches(count int) {
	if globalMetrics != nil {
		globalMetrics.patchesSent.Add(float64(count))
	}
}

// RecordSessionCreate records a new session.
func RecordSessionCreate() {
	if globalMetrics != nil {
		globalMetrics.activeSessions.Inc()
	}
}

// RecordSessionDestroy records a session teardown.
func RecordSessionDestroy() {
	if globalMetrics != nil {
		globalMetrics.activeSessions.Dec()
	}
}

// RecordSessionDetach records a session entering the resume window.
func RecordSessionDetach() {
	if globalMetrics != nil {
		globalMetrics.detachedSessions.Inc()
	}
}

// RecordSessionReattach records a detached session resuming.
func RecordSessionReattach() {
	if globalMetrics != nil {
		globalMetrics.detachedSessions.Dec()
		globalMetrics.reconnectsTotal.Inc()
	}
}

// RecordSessionExpired records a detached session aging out.
func RecordSessionExpired() {
	if globalMetrics != nil {
		globalMetrics.detachedSessions.Dec()
		globalMetrics.expiredTotal.Inc()
	}
}

// RecordEndEvent records a transition or animation end delivered to a
// stream. kind is "transition" or "animation".
func RecordEndEvent(kind string) {
	if globalMetrics != nil {
		globalMetrics.endEvents.WithLabelValues(kind).Inc()
	}
}

// RecordLateEndEvent records an end event dropped by a completed stream.
func RecordLateEndEvent(kind string) {
	if globalMetrics != nil {
		globalMetrics.lateEndEvents.WithLabelValues(kind).Inc()
	}
}

// RecordMount records a dynamic mount attempt. result is "ok" or
// "not_found".
func RecordMount(result string) {
	if globalMetrics != nil {
		globalMetrics.mounts.WithLabelValues(result).Inc()
	}
}

// RecordReflow records a forced layout read.
func RecordReflow() {
	if globalMetrics != nil {
		globalMetrics.reflowsTotal.Inc()
	}
}

// RecordWebSocketError records a WebSocket error by type.
func RecordWebSocketError(errorType string) {
	if globalMetrics != nil {
		globalMetrics.wsErrors.WithLabelValues(errorType).Inc()
	}
}

// Collector exposes the metrics for use in custom registrations, so kinet
// metrics can be collected alongside other application metrics.
type Collector struct {
	eventsTotal      *prometheus.CounterVec
	eventDuration    *prometheus.HistogramVec
	eventErrors      *prometheus.CounterVec
	patchesSent      prometheus.Counter
	activeSessions   prometheus.Gauge
	detachedSessions prometheus.Gauge
	reconnectsTotal  prometheus.Counter
	expiredTotal     prometheus.Counter
	endEvents        *prometheus.CounterVec
	lateEndEvents    *prometheus.CounterVec
	mounts           *prometheus.CounterVec
	reflowsTotal     prometheus.Counter
	wsErrors         *prometheus.CounterVec
}

// GetMetrics returns the global metrics collector.
// Returns nil if the Prometheus middleware has not been initialized.
func GetMetrics() *Collector {
	if globalMetrics == nil {
		return nil
	}
	return &Collector{
		eventsTotal:      globalMetrics.eventsTotal,
		eventDuration:    globalMetrics.eventDuration,
		eventErrors:      globalMetrics.eventErrors,
		patchesSent:      globalMetrics.patchesSent,
		activeSessions:   globalMetrics.activeSessions,
		detachedSessions: globalMetrics.detachedSessions,
		reconnectsTotal:  globalMetrics.reconnectsTotal,
		expiredTotal:     globalMetrics.expiredTotal,
		endEvents:        globalMetrics.endEvents,
		lateEndEvents:    globalMetrics.lateEndEvents,
		mounts:           globalMetrics.mounts,
		reflowsTotal:     globalMetrics.reflowsTotal,
		wsErrors:         globalMetrics.wsErrors,
	}
}
