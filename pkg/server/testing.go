package server

import (
	"sync"
	"time"

	"github.com/kinet-dev/kinet/pkg/protocol"
)

// PatchRecorder captures flushed frames from a test session so assertions
// can inspect what would have gone over the wire.
type PatchRecorder struct {
	mu     sync.Mutex
	frames []RecordedFrame
}

// RecordedFrame is one flushed patches frame.
type RecordedFrame struct {
	Seq     uint64
	Flags   protocol.FrameFlags
	Patches []protocol.Patch
}

func (r *PatchRecorder) record(seq uint64, flags protocol.FrameFlags, patches []protocol.Patch) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.frames = append(r.frames, RecordedFrame{Seq: seq, Flags: flags, Patches: patches})
}

// Frames returns a snapshot of recorded frames in send order.
func (r *PatchRecorder) Frames() []RecordedFrame {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]RecordedFrame, len(r.frames))
	copy(out, r.frames)
	return out
}

// Patches returns every recorded patch flattened in send order.
func (r *PatchRecorder) Patches() []protocol.Patch {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []protocol.Patch
	for _, f := range r.frames {
		out = append(out, f.Patches...)
	}
	return out
}

// ByOp returns the recorded patches with the given op, in send order.
func (r *PatchRecorder) ByOp(op protocol.PatchOp) []protocol.Patch {
	var out []protocol.Patch
	for _, p := range r.Patches() {
		if p.Op == op {
			out = append(out, p)
		}
	}
	return out
}

// Reset discards everything recorded so far.
func (r *PatchRecorder) Reset() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.frames = nil
}

// NewTestSession builds a connectionless session whose flushes land in the
// returned recorder. No goroutines run; drive it with ProcessEvent,
// MountRoot, Mount, and direct method calls. An empty registry is installed
// on the root scope; fetch it with RegistryFrom(sess.Owner()) to register
// factories.
func NewTestSession(middleware ...EventMiddleware) (*Session, *PatchRecorder) {
	cfg := Config{}.withDefaults()
	sess := newSession(cfg, middleware)
	rec := &PatchRecorder{}
	sess.recorder = rec
	sess.owner.SetValue(registryKey, NewRegistry())
	return sess, rec
}

// ProcessEvent handles one event synchronously, exactly as the event loop
// would: middleware, handler, dirty re-renders, flush.
func (s *Session) ProcessEvent(event *Event) {
	if event.Session == nil {
		event.Session = s
	}
	if event.Time.IsZero() {
		event.Time = time.Now()
	}
	s.handleEvent(event)
}
