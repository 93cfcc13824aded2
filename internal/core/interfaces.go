package core

import (
	"errors"

	"github.com/pion/webrtc/v4"

	"github.com/Neerajupadhayay2004/smart-home-automation/internal/domain"
)

// ErrControlNotReady is returned by SendControl while the control
// channel has not finished opening. Callers drop the command.
var ErrControlNotReady = errors.New("control channel not ready")

// MediaStream is the opaque handle to a live camera feed. It exists
// only while the session is connected.
type MediaStream interface {
	HasAudio() bool
	HasVideo() bool
}

// MediaPeer is one viewer-to-camera transport peer. The session
// manager drives it; the adapter owns the underlying resources and
// must release them on Close.
//
// Callback setters must be invoked before negotiation starts, never
// after; the peer invokes callbacks from its own goroutines.
type MediaPeer interface {
	// ApplyOfferAndCreateAnswer applies the camera's offer and returns
	// the local answer to send back over signaling.
	ApplyOfferAndCreateAnswer(offer webrtc.SessionDescription) (*webrtc.SessionDescription, error)
	// ApplyAnswer applies the camera's answer when this side offered.
	ApplyAnswer(answer webrtc.SessionDescription) error
	// AddICECandidate applies a remote ICE candidate. Order is not
	// significant; duplicates are tolerated.
	AddICECandidate(webrtc.ICECandidateInit) error

	// SendControl writes one encoded command to the control channel.
	SendControl(payload []byte) error
	// ControlReady reports whether the control channel is open.
	ControlReady() bool

	// AttachAudio adds a local capture track for two-way audio.
	AttachAudio(track webrtc.TrackLocal) error
	// DetachAudio removes a previously attached capture track. Safe to
	// call when nothing is attached.
	DetachAudio()

	// Close releases all transport resources. Idempotent.
	Close()

	OnICECandidate(func(webrtc.ICECandidateInit))
	// OnConnected fires once the transport negotiation completes and a
	// media or data path is open.
	OnConnected(func(MediaStream))
	// OnControlMessage fires for each inbound control-channel payload.
	OnControlMessage(func([]byte))
	// OnClosed fires when the transport reports failure or closure.
	OnClosed(func())
}

// PeerFactory creates transport peers. Creation failure is a local
// resource error, reported synchronously to the caller.
type PeerFactory interface {
	NewPeer(id domain.CameraID) (MediaPeer, error)
}

// AudioSource is the shared microphone-capture resource. At most one
// open acquisition exists at a time; Close must release the device.
type AudioSource interface {
	Open() (webrtc.TrackLocal, error)
	Close() error
}
