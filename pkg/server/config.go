package server

import (
	"io"
	"log/slog"
	"net/http"
	"time"
)

// Config controls the server and the sessions it creates.
type Config struct {
	// Logger receives structured logs. Defaults to a discard logger.
	Logger *slog.Logger

	// MaxSessions caps concurrently live sessions (attached or within the
	// resume window). Zero means DefaultMaxSessions.
	MaxSessions int

	// EventQueueSize is the per-session inbound event buffer. Zero means
	// DefaultEventQueueSize.
	EventQueueSize int

	// ResumeWindow is how long a detached session stays resumable before
	// the sweeper closes it. Zero means DefaultResumeWindow.
	ResumeWindow time.Duration

	// ReadTimeout bounds the wait for the next inbound message. It must
	// exceed PingInterval or healthy idle connections drop. Zero means
	// DefaultReadTimeout.
	ReadTimeout time.Duration

	// WriteTimeout bounds a single frame write. Zero means
	// DefaultWriteTimeout.
	WriteTimeout time.Duration

	// PingInterval is the keepalive cadence. Zero means
	// DefaultPingInterval.
	PingInterval time.Duration

	// MaxMessageSize bounds inbound websocket messages. Zero means
	// DefaultMaxMessageSize.
	MaxMessageSize int64

	// CheckOrigin overrides the upgrader's origin policy. Nil allows all
	// origins, matching same-binary serving of page and socket.
	CheckOrigin func(r *http.Request) bool

	// Hooks receives runtime observations. Nil disables them.
	Hooks *Hooks
}

// Defaults applied by New.
const (
	DefaultMaxSessions    = 10000
	DefaultEventQueueSize = 256
	DefaultResumeWindow   = 30 * time.Second
	DefaultReadTimeout    = 60 * time.Second
	DefaultWriteTimeout   = 10 * time.Second
	DefaultPingInterval   = 25 * time.Second
	DefaultMaxMessageSize = 1 << 20
)

// withDefaults returns a copy with zero fields filled in.
func (c Config) withDefaults() Config {
	if c.Logger == nil {
		c.Logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	if c.MaxSessions == 0 {
		c.MaxSessions = DefaultMaxSessions
	}
	if c.EventQueueSize == 0 {
		c.EventQueueSize = DefaultEventQueueSize
	}
	if c.ResumeWindow == 0 {
		c.ResumeWindow = DefaultResumeWindow
	}
	if c.ReadTimeout == 0 {
		c.ReadTimeout = DefaultReadTimeout
	}
	if c.WriteTimeout == 0 {
		c.WriteTimeout = DefaultWriteTimeout
	}
	if c.PingInterval == 0 {
		c.PingInterval = DefaultPingInterval
	}
	if c.MaxMessageSize == 0 {
		c.MaxMessageSize = DefaultMaxMessageSize
	}
	return c
}

// Hooks are optional callbacks the runtime fires at points middleware cannot
// see. All fields and the receiver may be nil; the runtime guards every
// call. The root application wires these to the metrics recorders.
type Hooks struct {
	// SessionStarted fires when a session is created.
	SessionStarted func()

	// SessionClosed fires when a session is torn down.
	SessionClosed func()

	// SessionDetached fires when a session loses its connection and
	// enters the resume window.
	SessionDetached func()

	// SessionResumed fires when a detached session is successfully
	// resumed.
	SessionResumed func()

	// SessionExpired fires when a detached session's resume window
	// passes and the manager closes it.
	SessionExpired func()

	// PatchesSent fires after a patches frame is written, with the patch
	// count.
	PatchesSent func(count int)

	// EndEmission fires for every delivered transition/animation end
	// event, labeled by kind ("transition" or "animation").
	EndEmission func(kind string)

	// LateSuppressed fires when an end event reaches a completed stream
	// and is dropped.
	LateSuppressed func(kind string)

	// Mount fires per AddComponent call with result "ok" or "not_found".
	Mount func(result string)

	// Reflow fires for every forced layout read.
	Reflow func()
}

func (h *Hooks) sessionStarted() {
	if h != nil && h.SessionStarted != nil {
		h.SessionStarted()
	}
}

func (h *Hooks) sessionClosed() {
	if h != nil && h.SessionClosed != nil {
		h.SessionClosed()
	}
}

func (h *Hooks) sessionDetached() {
	if h != nil && h.SessionDetached != nil {
		h.SessionDetached()
	}
}

func (h *Hooks) sessionResumed() {
	if h != nil && h.SessionResumed != nil {
		h.SessionResumed()
	}
}

func (h *Hooks) sessionExpired() {
	if h != nil && h.SessionExpired != nil {
		h.SessionExpired()
	}
}

func (h *Hooks) patchesSent(count int) {
	if h != nil && h.PatchesSent != nil {
		h.PatchesSent(count)
	}
}

func (h *Hooks) endEmission(kind string) {
	if h != nil && h.EndEmission != nil {
		h.EndEmission(kind)
	}
}

func (h *Hooks) lateSuppressed(kind string) {
	if h != nil && h.LateSuppressed != nil {
		h.LateSuppressed(kind)
	}
}

func (h *Hooks) mount(result string) {
	if h != nil && h.Mount != nil {
		h.Mount(result)
	}
}

func (h *Hooks) reflow() {
	if h != nil && h.Reflow != nil {
		h.Reflow()
	}
}
