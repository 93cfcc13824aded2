package signal

import (
	"github.com/pion/webrtc/v4"

	"github.com/Neerajupadhayay2004/smart-home-automation/internal/domain"
)

// Wire message types exchanged with the coordination server.
const (
	TypeRequestStream      = "request-camera-stream"
	TypeCameraOffer        = "camera-offer"
	TypeCameraAnswer       = "camera-answer"
	TypeICECandidate       = "ice-candidate"
	TypeDisconnectCamera   = "disconnect-camera"
	TypeCameraDisconnected = "camera-disconnected"
)

// StreamRequest asks the server to start a camera stream toward us.
type StreamRequest struct {
	Type         string          `json:"type"`
	CameraID     domain.CameraID `json:"cameraId"`
	Quality      domain.Quality  `json:"quality"`
	RequestAudio bool            `json:"requestAudio"`
}

func NewStreamRequest(id domain.CameraID, quality domain.Quality) StreamRequest {
	return StreamRequest{Type: TypeRequestStream, CameraID: id, Quality: quality, RequestAudio: true}
}

// OfferMessage carries a session description offer for one camera.
type OfferMessage struct {
	Type     string                    `json:"type"`
	CameraID domain.CameraID           `json:"cameraId"`
	Offer    webrtc.SessionDescription `json:"offer"`
}

// AnswerMessage carries a session description answer for one camera.
type AnswerMessage struct {
	Type     string                    `json:"type"`
	CameraID domain.CameraID           `json:"cameraId"`
	Answer   webrtc.SessionDescription `json:"answer"`
}

func NewAnswerMessage(id domain.CameraID, answer webrtc.SessionDescription) AnswerMessage {
	return AnswerMessage{Type: TypeCameraAnswer, CameraID: id, Answer: answer}
}

// CandidateMessage carries one trickled ICE candidate, either way.
type CandidateMessage struct {
	Type      string                  `json:"type"`
	CameraID  domain.CameraID         `json:"cameraId"`
	Candidate webrtc.ICECandidateInit `json:"candidate"`
}

func NewCandidateMessage(id domain.CameraID, cand webrtc.ICECandidateInit) CandidateMessage {
	return CandidateMessage{Type: TypeICECandidate, CameraID: id, Candidate: cand}
}

// DisconnectMessage tells the server to release the camera's resources.
type DisconnectMessage struct {
	Type     string          `json:"type"`
	CameraID domain.CameraID `json:"cameraId"`
}

func NewDisconnectMessage(id domain.CameraID) DisconnectMessage {
	return DisconnectMessage{Type: TypeDisconnectCamera, CameraID: id}
}

// Handler receives inbound signaling traffic plus channel lifecycle
// notices. The session manager implements it.
type Handler interface {
	HandleCameraOffer(id domain.CameraID, offer webrtc.SessionDescription)
	HandleCameraAnswer(id domain.CameraID, answer webrtc.SessionDescription)
	HandleICECandidate(id domain.CameraID, cand webrtc.ICECandidateInit)
	HandleCameraDisconnected(id domain.CameraID)
	// HandleChannelUp fires after the persistent connection is (re)established.
	HandleChannelUp()
	// HandleChannelDown fires when the persistent connection drops.
	HandleChannelDown()
}
