package session

import (
	"github.com/rs/zerolog/log"

	"github.com/Neerajupadhayay2004/smart-home-automation/internal/control"
	"github.com/Neerajupadhayay2004/smart-home-automation/internal/domain"
	"github.com/Neerajupadhayay2004/smart-home-automation/internal/events"
	"github.com/Neerajupadhayay2004/smart-home-automation/internal/metrics"
)

// Device commands are best-effort, at most once. A command issued
// before the control channel is open (or for an unknown camera) is
// dropped silently; the caller is never errored. Mirrored state and
// its *Changed event update as soon as the command is written, never
// waiting for a remote acknowledgement.

// PanTiltZoom points the camera. Out-of-range values are clamped to
// the supported ranges before sending.
func (m *Manager) PanTiltZoom(id domain.CameraID, pan, tilt, zoom float64) {
	pos := domain.ClampPTZ(pan, tilt, zoom)
	if !m.sendCommand(id, control.TypePTZ, control.PTZ(pos)) {
		return
	}
	m.mu.Lock()
	if s, ok := m.sessions[id]; ok {
		s.ptz = pos
	}
	m.mu.Unlock()
}

func (m *Manager) SetCameraPreset(id domain.CameraID, presetID int) {
	m.sendCommand(id, control.TypePreset, control.Preset(presetID))
}

func (m *Manager) ToggleNightVision(id domain.CameraID, enabled bool) {
	m.sendCommand(id, control.TypeNightVision, control.NightVision(enabled))
}

func (m *Manager) StartRecording(id domain.CameraID) {
	m.setRecording(id, true)
}

func (m *Manager) StopRecording(id domain.CameraID) {
	m.setRecording(id, false)
}

func (m *Manager) setRecording(id domain.CameraID, recording bool) {
	if !m.sendCommand(id, control.TypeRecording, control.Recording(recording)) {
		return
	}
	m.mu.Lock()
	if s, ok := m.sessions[id]; ok {
		s.isRecording = recording
	}
	m.mu.Unlock()
	m.emit(events.RecordingStateChanged, RecordingEvent{CameraID: id, IsRecording: recording})
}

// ChangeStreamQuality renegotiates quality in place; the session stays
// up throughout.
func (m *Manager) ChangeStreamQuality(id domain.CameraID, quality domain.Quality) {
	if !quality.Valid() {
		log.Warn().Str("module", "session").Str("camera", string(id)).Str("quality", string(quality)).Msg("unknown quality, ignored")
		return
	}
	if !m.sendCommand(id, control.TypeQuality, control.Quality(quality)) {
		return
	}
	m.mu.Lock()
	if s, ok := m.sessions[id]; ok {
		s.quality = quality
	}
	m.mu.Unlock()
	m.emit(events.QualityChanged, QualityEvent{CameraID: id, Quality: quality})
}

func (m *Manager) sendCommand(id domain.CameraID, cmdType string, payload []byte) bool {
	m.mu.Lock()
	s, ok := m.sessions[id]
	if !ok {
		m.mu.Unlock()
		log.Debug().Str("module", "session").Str("camera", string(id)).Str("command", cmdType).Msg("command for unknown camera, dropped")
		return false
	}
	peer := s.peer
	m.mu.Unlock()

	if err := peer.SendControl(payload); err != nil {
		metrics.CommandsDropped.WithLabelValues(cmdType).Inc()
		log.Debug().Err(err).Str("module", "session").Str("camera", string(id)).Str("command", cmdType).Msg("command dropped")
		return false
	}
	metrics.CommandsSent.WithLabelValues(cmdType).Inc()
	return true
}
