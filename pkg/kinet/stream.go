package kinet

import (
	"sync"
	"sync/atomic"
)

// EndStream is a multicast stream of CSS completion events. It is created at
// most once per element, stays the same instance for the element's lifetime,
// completes exactly once, and silently drops emissions that arrive after
// completion.
//
// Subscribers are notified in subscription order. Notification snapshots the
// subscriber list first, so a callback may subscribe or cancel without
// affecting the in-flight delivery.
type EndStream struct {
	id uint64

	mu          sync.RWMutex
	subs        []endSubscriber
	completions []completionEntry

	closed  atomic.Bool
	dropped atomic.Uint64
}

type endSubscriber struct {
	id uint64
	fn func(EndEvent)
}

type completionEntry struct {
	id uint64
	fn func()
}

// NewEndStream creates an open stream with no subscribers.
func NewEndStream() *EndStream {
	return &EndStream{id: nextID()}
}

// ID returns the stream's unique identifier.
func (s *EndStream) ID() uint64 {
	return s.id
}

// Subscribe registers fn for every event emitted from now on and returns a
// cancel function. Cancel is idempotent. Subscribing to a completed stream
// is allowed; the subscriber simply never fires.
func (s *EndStream) Subscribe(fn func(EndEvent)) (cancel func()) {
	if fn == nil {
		return func() {}
	}
	sub := endSubscriber{id: nextID(), fn: fn}

	s.mu.Lock()
	s.subs = append(s.subs, sub)
	s.mu.Unlock()

	return func() {
		s.mu.Lock()
		defer s.mu.Unlock()
		for i, existing := range s.subs {
			if existing.id == sub.id {
				last := len(s.subs) - 1
				s.subs[i] = s.subs[last]
				s.subs = s.subs[:last]
				return
			}
		}
	}
}

// OnComplete registers fn to run when the stream completes and returns a
// cancel function. If the stream has already completed, fn runs immediately
// and the returned cancel is a no-op. Late and current subscribers observe
// completion the same way.
func (s *EndStream) OnComplete(fn func()) (cancel func()) {
	if fn == nil {
		return func() {}
	}
	if s.closed.Load() {
		fn()
		return func() {}
	}

	entry := completionEntry{id: nextID(), fn: fn}

	s.mu.Lock()
	s.completions = append(s.completions, entry)
	s.mu.Unlock()

	return func() {
		s.mu.Lock()
		defer s.mu.Unlock()
		for i, existing := range s.completions {
			if existing.id == entry.id {
				last := len(s.completions) - 1
				s.completions[i] = s.completions[last]
				s.completions = s.completions[:last]
				return
			}
		}
	}
}

// Emit delivers ev to every current subscriber. If the stream has completed,
// the event is dropped, the suppression counter is bumped, and Emit reports
// false. Emissions are never deduplicated; every call that reaches an open
// stream is delivered.
func (s *EndStream) Emit(ev EndEvent) bool {
	if s.closed.Load() {
		s.dropped.Add(1)
		return false
	}

	s.mu.RLock()
	subs := make([]endSubscriber, len(s.subs))
	copy(subs, s.subs)
	s.mu.RUnlock()

	for _, sub := range subs {
		sub.fn(ev)
	}
	return true
}

// Complete closes the stream and runs completion callbacks in registration
// order. Complete is idempotent; only the first call runs callbacks, and no
// events are delivered afterward.
func (s *EndStream) Complete() {
	if s.closed.Swap(true) {
		return
	}

	s.mu.Lock()
	completions := s.completions
	s.subs = nil
	s.completions = nil
	s.mu.Unlock()

	for _, entry := range completions {
		entry.fn()
	}
}

// Closed reports whether Complete has run.
func (s *EndStream) Closed() bool {
	return s.closed.Load()
}

// Dropped returns how many emissions arrived after completion and were
// suppressed.
func (s *EndStream) Dropped() uint64 {
	return s.dropped.Load()
}

// SubscriberCount returns the number of active subscribers.
func (s *EndStream) SubscriberCount() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.subs)
}
