package session

import (
	"github.com/rs/zerolog/log"

	"github.com/Neerajupadhayay2004/smart-home-automation/internal/core"
	"github.com/Neerajupadhayay2004/smart-home-automation/internal/domain"
	"github.com/Neerajupadhayay2004/smart-home-automation/internal/events"
)

// The microphone is one shared device. Exactly one session holds it at
// a time; enabling it for a second camera transfers the capture there,
// detaching the previous holder first so the device never leaks.

// EnableTwoWayAudio acquires the capture device and attaches it to the
// camera's transport. Returns false without an event when no session
// exists for the camera or the device cannot be acquired.
func (m *Manager) EnableTwoWayAudio(id domain.CameraID) bool {
	m.mu.Lock()
	s, ok := m.sessions[id]
	if !ok {
		m.mu.Unlock()
		log.Warn().Str("module", "session").Str("camera", string(id)).Msg("two-way audio: no active session")
		return false
	}
	if m.micHolder == id {
		m.mu.Unlock()
		return true
	}
	prev := m.micHolder
	var prevPeer core.MediaPeer
	if prev != "" {
		if ps, ok := m.sessions[prev]; ok {
			prevPeer = ps.peer
		}
	}
	peer := s.peer
	m.mu.Unlock()

	if prev != "" {
		if prevPeer != nil {
			prevPeer.DetachAudio()
		}
		_ = m.mic.Close()
		m.mu.Lock()
		if m.micHolder == prev {
			m.micHolder = ""
		}
		m.mu.Unlock()
		log.Info().Str("module", "session").Str("from", string(prev)).Str("to", string(id)).Msg("two-way audio transferred")
		m.emit(events.TwoWayAudioDisabled, CameraEvent{CameraID: prev})
	}

	track, err := m.mic.Open()
	if err != nil {
		log.Error().Err(err).Str("module", "session").Str("camera", string(id)).Msg("audio capture unavailable")
		return false
	}
	if err := peer.AttachAudio(track); err != nil {
		_ = m.mic.Close()
		log.Error().Err(err).Str("module", "session").Str("camera", string(id)).Msg("attach audio")
		return false
	}

	m.mu.Lock()
	m.micHolder = id
	m.mu.Unlock()
	m.emit(events.TwoWayAudioEnabled, CameraEvent{CameraID: id})
	return true
}

// DisableTwoWayAudio releases the capture device. A no-op when the
// camera does not hold it.
func (m *Manager) DisableTwoWayAudio(id domain.CameraID) {
	m.mu.Lock()
	if m.micHolder != id {
		m.mu.Unlock()
		return
	}
	m.micHolder = ""
	var peer core.MediaPeer
	if s, ok := m.sessions[id]; ok {
		peer = s.peer
	}
	m.mu.Unlock()

	if peer != nil {
		peer.DetachAudio()
	}
	_ = m.mic.Close()
	m.emit(events.TwoWayAudioDisabled, CameraEvent{CameraID: id})
}
