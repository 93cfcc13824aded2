package session

import (
	"encoding/json"

	"github.com/pion/webrtc/v4"
	"github.com/rs/zerolog/log"

	"github.com/Neerajupadhayay2004/smart-home-automation/internal/core"
	"github.com/Neerajupadhayay2004/smart-home-automation/internal/domain"
	"github.com/Neerajupadhayay2004/smart-home-automation/internal/events"
	"github.com/Neerajupadhayay2004/smart-home-automation/internal/metrics"
	"github.com/Neerajupadhayay2004/smart-home-automation/internal/signal"
)

// Manager implements signal.Handler. Every inbound message lands here;
// messages for cameras without an active session are stray signaling
// and are dropped without error.

func (m *Manager) HandleCameraOffer(id domain.CameraID, offer webrtc.SessionDescription) {
	m.mu.Lock()
	s, ok := m.sessions[id]
	if !ok {
		m.mu.Unlock()
		log.Debug().Str("module", "session").Str("camera", string(id)).Msg("offer for unknown camera, dropped")
		return
	}
	peer := s.peer
	m.mu.Unlock()

	answer, err := peer.ApplyOfferAndCreateAnswer(offer)
	if err != nil {
		log.Error().Err(err).Str("module", "session").Str("camera", string(id)).Msg("apply offer")
		m.fail(id, "apply offer")
		return
	}

	if !m.setNegotiating(id) {
		// Disconnected while we were negotiating; nothing to answer for.
		return
	}
	m.sig.Send(signal.NewAnswerMessage(id, *answer))
}

func (m *Manager) HandleCameraAnswer(id domain.CameraID, answer webrtc.SessionDescription) {
	m.mu.Lock()
	s, ok := m.sessions[id]
	if !ok {
		m.mu.Unlock()
		log.Debug().Str("module", "session").Str("camera", string(id)).Msg("answer for unknown camera, dropped")
		return
	}
	peer := s.peer
	m.mu.Unlock()

	if err := peer.ApplyAnswer(answer); err != nil {
		log.Error().Err(err).Str("module", "session").Str("camera", string(id)).Msg("apply answer")
		m.fail(id, "apply answer")
		return
	}
	m.setNegotiating(id)
}

func (m *Manager) HandleICECandidate(id domain.CameraID, cand webrtc.ICECandidateInit) {
	m.mu.Lock()
	s, ok := m.sessions[id]
	if !ok {
		m.mu.Unlock()
		log.Debug().Str("module", "session").Str("camera", string(id)).Msg("candidate for unknown camera, dropped")
		return
	}
	peer := s.peer
	m.mu.Unlock()

	// Out-of-order and duplicate candidates are tolerated; an apply
	// failure is not a session failure.
	if err := peer.AddICECandidate(cand); err != nil {
		log.Warn().Err(err).Str("module", "session").Str("camera", string(id)).Msg("add ice candidate")
	}
}

func (m *Manager) HandleCameraDisconnected(id domain.CameraID) {
	m.DisconnectFromCamera(id)
}

func (m *Manager) HandleChannelUp() {
	m.emit(events.SocketConnected, nil)
}

// HandleChannelDown fails every session still negotiating: without
// signaling no pending establishment can complete. Connected sessions
// persist; the media path does not need the signaling channel.
func (m *Manager) HandleChannelDown() {
	m.mu.Lock()
	var pending []domain.CameraID
	for id, s := range m.sessions {
		if s.state == domain.StateRequesting || s.state == domain.StateNegotiating {
			pending = append(pending, id)
		}
	}
	m.mu.Unlock()

	for _, id := range pending {
		m.fail(id, "signaling channel lost")
	}
	m.emit(events.SocketDisconnected, nil)
}

// setNegotiating advances the state machine and reports whether the
// session still exists.
func (m *Manager) setNegotiating(id domain.CameraID) bool {
	m.mu.Lock()
	s, ok := m.sessions[id]
	if !ok {
		m.mu.Unlock()
		return false
	}
	changed := s.state != domain.StateNegotiating
	s.state = domain.StateNegotiating
	m.mu.Unlock()

	if changed {
		m.emit(events.ConnectionStateChanged, StateEvent{CameraID: id, State: domain.StateNegotiating})
	}
	return true
}

// handlePeerConnected runs when the transport reports the media path
// is up. From here the media handle and control channel are usable.
func (m *Manager) handlePeerConnected(id domain.CameraID, stream core.MediaStream) {
	m.mu.Lock()
	s, ok := m.sessions[id]
	if !ok {
		m.mu.Unlock()
		return
	}
	s.state = domain.StateConnected
	s.stream = stream
	s.hasAudio = stream != nil && stream.HasAudio()
	snap := s.snapshot()
	m.mu.Unlock()

	log.Info().Str("module", "session").Str("camera", string(id)).Bool("audio", snap.HasAudio).Msg("stream live")
	m.emit(events.StreamReceived, StreamEvent{CameraID: id, Stream: snap})
	m.emit(events.ConnectionStateChanged, StateEvent{CameraID: id, State: domain.StateConnected})
}

// handlePeerClosed runs when the transport itself reports loss. A
// session already removed (explicit disconnect) is left alone.
func (m *Manager) handlePeerClosed(id domain.CameraID) {
	m.mu.Lock()
	s, ok := m.sessions[id]
	if !ok {
		m.mu.Unlock()
		return
	}
	wasConnected := s.state == domain.StateConnected
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

	state := domain.StateFailed
	outcome := "failed"
	if wasConnected {
		state = domain.StateDisconnected
		outcome = "disconnected"
	}
	metrics.SessionOutcomes.WithLabelValues(outcome).Inc()
	log.Warn().Str("module", "session").Str("camera", string(id)).Str("state", state.String()).Msg("transport closed")
	m.emit(events.ConnectionStateChanged, StateEvent{CameraID: id, State: state})
	m.emit(events.CameraDisconnected, CameraEvent{CameraID: id})
}

// handleControlMessage parses inbound control-channel payloads and
// republishes them for observers. Malformed payloads are dropped.
func (m *Manager) handleControlMessage(id domain.CameraID, raw []byte) {
	var data any
	if err := json.Unmarshal(raw, &data); err != nil {
		log.Error().Err(err).Str("module", "session").Str("camera", string(id)).Msg("bad control message")
		return
	}
	m.emit(events.CameraMessage, MessageEvent{CameraID: id, Data: data})
}
