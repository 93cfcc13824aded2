// Package events is a minimal synchronous publish/subscribe registry.
// Session state changes are published here so UI observers can attach
// and detach without touching session internals.
package events

import (
	"sync"

	"github.com/rs/zerolog/log"
)

// Event names published by the session manager and signaling channel.
const (
	StreamReceived         = "streamReceived"
	ConnectionStateChanged = "connectionStateChanged"
	CameraDisconnected     = "cameraDisconnected"
	RecordingStateChanged  = "recordingStateChanged"
	QualityChanged         = "qualityChanged"
	TwoWayAudioEnabled     = "twoWayAudioEnabled"
	TwoWayAudioDisabled    = "twoWayAudioDisabled"
	SocketConnected        = "socketConnected"
	SocketDisconnected     = "socketDisconnected"
	CameraMessage          = "cameraMessage"
)

// All lists every event name, in a stable order, for observers that
// want the full feed.
func All() []string {
	return []string{
		StreamReceived,
		ConnectionStateChanged,
		CameraDisconnected,
		RecordingStateChanged,
		QualityChanged,
		TwoWayAudioEnabled,
		TwoWayAudioDisabled,
		SocketConnected,
		SocketDisconnected,
		CameraMessage,
	}
}

// Handler receives the payload published with the event.
type Handler func(payload any)

type subscriber struct {
	id int
	fn Handler
}

// Bus dispatches synchronously, in subscriber-registration order. A
// panicking subscriber is isolated: it is logged and the remaining
// subscribers still run.
type Bus struct {
	mu       sync.RWMutex
	nextID   int
	handlers map[string][]subscriber
}

func NewBus() *Bus {
	return &Bus{handlers: make(map[string][]subscriber)}
}

// Subscription identifies one registered handler so it can be removed.
type Subscription struct {
	bus   *Bus
	event string
	id    int
}

// On registers fn for event. The returned subscription removes it.
func (b *Bus) On(event string, fn Handler) Subscription {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.nextID++
	b.handlers[event] = append(b.handlers[event], subscriber{id: b.nextID, fn: fn})
	return Subscription{bus: b, event: event, id: b.nextID}
}

// Off removes the handler registered under s. Removing twice is a no-op.
func (s Subscription) Off() {
	if s.bus == nil {
		return
	}
	s.bus.mu.Lock()
	defer s.bus.mu.Unlock()
	subs := s.bus.handlers[s.event]
	for i, sub := range subs {
		if sub.id == s.id {
			s.bus.handlers[s.event] = append(subs[:i:i], subs[i+1:]...)
			return
		}
	}
}

// Emit delivers payload to every subscriber of event, in registration
// order. It never propagates subscriber panics to the publisher.
func (b *Bus) Emit(event string, payload any) {
	b.mu.RLock()
	subs := make([]subscriber, len(b.handlers[event]))
	copy(subs, b.handlers[event])
	b.mu.RUnlock()

	for _, sub := range subs {
		b.dispatch(event, sub, payload)
	}
}

func (b *Bus) dispatch(event string, sub subscriber, payload any) {
	defer func() {
		if r := recover(); r != nil {
			log.Error().Str("module", "events").Str("event", event).Any("panic", r).Msg("subscriber panicked")
		}
	}()
	sub.fn(payload)
}
