// Package session owns the set of active camera sessions and runs the
// signaling protocol state machine per camera. Nothing here throws
// across the boundary: local resource failures come back as booleans,
// everything else is observed through the event bus.
package session

import (
	"slices"
	"strings"
	"sync"

	"github.com/pion/webrtc/v4"
	"github.com/rs/zerolog/log"

	"github.com/Neerajupadhayay2004/smart-home-automation/internal/core"
	"github.com/Neerajupadhayay2004/smart-home-automation/internal/domain"
	"github.com/Neerajupadhayay2004/smart-home-automation/internal/events"
	"github.com/Neerajupadhayay2004/smart-home-automation/internal/metrics"
	"github.com/Neerajupadhayay2004/smart-home-automation/internal/signal"
)

// Sender is the outbound half of the signaling channel.
type Sender interface {
	Send(v any)
}

// Manager orchestrates the full session lifecycle per camera.
type Manager struct {
	bus   *events.Bus
	peers core.PeerFactory
	mic   core.AudioSource
	sig   Sender

	mu        sync.Mutex
	sessions  map[domain.CameraID]*cameraSession
	micHolder domain.CameraID
}

func NewManager(bus *events.Bus, peers core.PeerFactory, mic core.AudioSource, sig Sender) *Manager {
	return &Manager{
		bus:      bus,
		peers:    peers,
		mic:      mic,
		sig:      sig,
		sessions: make(map[domain.CameraID]*cameraSession),
	}
}

// ConnectToCamera requests a stream from the camera. The return value
// means "request accepted", not "stream is live": liveness arrives
// later through streamReceived / connectionStateChanged. A camera that
// already has a session in flight is left alone and reports true.
func (m *Manager) ConnectToCamera(id domain.CameraID, quality domain.Quality) bool {
	if id == "" {
		log.Error().Str("module", "session").Msg("connect with empty camera id")
		return false
	}
	if !quality.Valid() {
		quality = domain.QualityMedium
	}

	m.mu.Lock()
	if _, ok := m.sessions[id]; ok {
		m.mu.Unlock()
		log.Debug().Str("module", "session").Str("camera", string(id)).Msg("connect: session already in flight")
		return true
	}
	m.mu.Unlock()

	peer, err := m.peers.NewPeer(id)
	if err != nil {
		log.Error().Err(err).Str("module", "session").Str("camera", string(id)).Msg("peer creation failed")
		metrics.SessionOutcomes.WithLabelValues("rejected").Inc()
		return false
	}

	m.mu.Lock()
	if _, ok := m.sessions[id]; ok {
		// Lost the race to a concurrent connect for the same camera.
		m.mu.Unlock()
		peer.Close()
		return true
	}
	s := &cameraSession{
		id:      id,
		state:   domain.StateRequesting,
		peer:    peer,
		quality: quality,
		ptz:     domain.DefaultPTZ(),
	}
	m.sessions[id] = s
	metrics.ActiveSessions.Set(float64(len(m.sessions)))
	m.mu.Unlock()

	peer.OnICECandidate(func(cand webrtc.ICECandidateInit) {
		m.sig.Send(signal.NewCandidateMessage(id, cand))
	})
	peer.OnConnected(func(stream core.MediaStream) {
		m.handlePeerConnected(id, stream)
	})
	peer.OnClosed(func() {
		m.handlePeerClosed(id)
	})
	peer.OnControlMessage(func(raw []byte) {
		m.handleControlMessage(id, raw)
	})

	m.sig.Send(signal.NewStreamRequest(id, quality))
	log.Info().Str("module", "session").Str("camera", string(id)).Str("quality", string(quality)).Msg("stream requested")
	return true
}

// DisconnectFromCamera tears the session down and tells the server so
// the far end can release its resources. Calling it for an absent
// camera is a no-op and publishes nothing.
func (m *Manager) DisconnectFromCamera(id domain.CameraID) {
	m.mu.Lock()
	s, ok := m.sessions[id]
	if !ok {
		m.mu.Unlock()
		return
	}
	// Removing the entry first guarantees late signaling for this
	// camera finds nothing to revive.
	delete(m.sessions, id)
	metrics.ActiveSessions.Set(float64(len(m.sessions)))
	releaseMic := m.micHolder == id
	if releaseMic {
		m.micHolder = ""
	}
	m.mu.Unlock()

	if releaseMic {
		_ = m.mic.Close()
	}
	s.peer.Close()
	m.sig.Send(signal.NewDisconnectMessage(id))
	metrics.SessionOutcomes.WithLabelValues("disconnected").Inc()
	log.Info().Str("module", "session").Str("camera", string(id)).Msg("disconnected")
	m.emit(events.CameraDisconnected, CameraEvent{CameraID: id})
}

// GetCameraStream returns the current view of one session, or nil.
// Pure read: never blocks on the network, never mutates.
func (m *Manager) GetCameraStream(id domain.CameraID) *Snapshot {
	m.mu.Lock()
	defer m.mu.Unlock()
	if s, ok := m.sessions[id]; ok {
		snap := s.snapshot()
		return &snap
	}
	return nil
}

// GetAllCameraStreams returns a stable-ordered view of every session.
func (m *Manager) GetAllCameraStreams() []Snapshot {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]Snapshot, 0, len(m.sessions))
	for _, s := range m.sessions {
		out = append(out, s.snapshot())
	}
	slices.SortFunc(out, func(a, b Snapshot) int {
		return strings.Compare(string(a.ID), string(b.ID))
	})
	return out
}

// Close releases every session and the capture device. Used at
// shutdown; publishes nothing.
func (m *Manager) Close() {
	m.mu.Lock()
	closing := make([]*cameraSession, 0, len(m.sessions))
	for _, s := range m.sessions {
		closing = append(closing, s)
	}
	m.sessions = make(map[domain.CameraID]*cameraSession)
	metrics.ActiveSessions.Set(0)
	releaseMic := m.micHolder != ""
	m.micHolder = ""
	m.mu.Unlock()

	for _, s := range closing {
		s.peer.Close()
	}
	if releaseMic {
		_ = m.mic.Close()
	}
}

// fail removes the session and reports the failure through the bus.
func (m *Manager) fail(id domain.CameraID, reason string) {
	m.mu.Lock()
	s, ok := m.sessions[id]
	if !ok {
		m.mu.Unlock()
		return
	}
	delete(m.sessions, id)
	metrics.ActiveSessions.Set(float64(len(m.sessions)))
	releaseMic := m.micHolder == id
	if releaseMic {
		m.micHolder = ""
	}
	m.mu.Unlock()

	if releaseMic {
		_ = m.mic.Close()
	}
	s.peer.Close()
	metrics.SessionOutcomes.WithLabelValues("failed").Inc()
	log.Warn().Str("module", "session").Str("camera", string(id)).Str("reason", reason).Msg("session failed")
	m.emit(events.ConnectionStateChanged, StateEvent{CameraID: id, State: domain.StateFailed})
	m.emit(events.CameraDisconnected, CameraEvent{CameraID: id})
}

func (m *Manager) emit(event string, payload any) {
	metrics.EventsPublished.WithLabelValues(event).Inc()
	m.bus.Emit(event, payload)
}
