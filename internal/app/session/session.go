package session

import (
	"fmt"

	"github.com/Neerajupadhayay2004/smart-home-automation/internal/core"
	"github.com/Neerajupadhayay2004/smart-home-automation/internal/domain"
)

// cameraSession is the live state for one viewer-to-camera
// relationship. All fields are guarded by the manager's mutex.
type cameraSession struct {
	id      domain.CameraID
	state   domain.ConnectionState
	peer    core.MediaPeer
	stream  core.MediaStream
	quality domain.Quality

	// Mirrors of the last commanded values, not camera-confirmed state.
	isRecording bool
	ptz         domain.PTZState

	// Derived once from the negotiated tracks.
	hasAudio bool
}

// Snapshot is the read-only view handed to observers and the HTTP API.
// Stream is non-nil exactly while the session is connected.
type Snapshot struct {
	ID          domain.CameraID        `json:"id"`
	Name        string                 `json:"name"`
	State       domain.ConnectionState `json:"state"`
	Quality     domain.Quality         `json:"quality"`
	HasAudio    bool                   `json:"hasAudio"`
	IsRecording bool                   `json:"isRecording"`
	PTZ         domain.PTZState        `json:"ptz"`
	Stream      core.MediaStream       `json:"-"`
}

func (s *cameraSession) snapshot() Snapshot {
	return Snapshot{
		ID:          s.id,
		Name:        fmt.Sprintf("Camera %s", s.id),
		State:       s.state,
		Quality:     s.quality,
		HasAudio:    s.hasAudio,
		IsRecording: s.isRecording,
		PTZ:         s.ptz,
		Stream:      s.stream,
	}
}

// Event payloads published on the bus.

type StreamEvent struct {
	CameraID domain.CameraID `json:"cameraId"`
	Stream   Snapshot        `json:"stream"`
}

type StateEvent struct {
	CameraID domain.CameraID        `json:"cameraId"`
	State    domain.ConnectionState `json:"state"`
}

type CameraEvent struct {
	CameraID domain.CameraID `json:"cameraId"`
}

type RecordingEvent struct {
	CameraID    domain.CameraID `json:"cameraId"`
	IsRecording bool            `json:"isRecording"`
}

type QualityEvent struct {
	CameraID domain.CameraID `json:"cameraId"`
	Quality  domain.Quality  `json:"quality"`
}

type MessageEvent struct {
	CameraID domain.CameraID `json:"cameraId"`
	Data     any             `json:"data"`
}
