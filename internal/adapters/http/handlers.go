package http

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/Neerajupadhayay2004/smart-home-automation/internal/app/monitor"
	"github.com/Neerajupadhayay2004/smart-home-automation/internal/app/session"
	"github.com/Neerajupadhayay2004/smart-home-automation/internal/domain"
)

// CameraService is the slice of the session manager the API drives.
type CameraService interface {
	ConnectToCamera(id domain.CameraID, quality domain.Quality) bool
	DisconnectFromCamera(id domain.CameraID)
	PanTiltZoom(id domain.CameraID, pan, tilt, zoom float64)
	SetCameraPreset(id domain.CameraID, presetID int)
	ToggleNightVision(id domain.CameraID, enabled bool)
	StartRecording(id domain.CameraID)
	StopRecording(id domain.CameraID)
	ChangeStreamQuality(id domain.CameraID, quality domain.Quality)
	EnableTwoWayAudio(id domain.CameraID) bool
	DisableTwoWayAudio(id domain.CameraID)
	GetCameraStream(id domain.CameraID) *session.Snapshot
	GetAllCameraStreams() []session.Snapshot
}

type Handlers struct {
	Service CameraService
	Monitor *monitor.Generator
}

func cameraID(c *gin.Context) domain.CameraID {
	return domain.CameraID(c.Param("id"))
}

func (h *Handlers) ListCameras(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"cameras": h.Service.GetAllCameraStreams()})
}

func (h *Handlers) GetCamera(c *gin.Context) {
	snap := h.Service.GetCameraStream(cameraID(c))
	if snap == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "no session for camera"})
		return
	}
	c.JSON(http.StatusOK, snap)
}

type connectRequest struct {
	Quality domain.Quality `json:"quality"`
}

// Connect accepts or rejects the request; the eventual outcome arrives
// on the events socket.
func (h *Handlers) Connect(c *gin.Context) {
	var req connectRequest
	// Missing body falls back to the default quality.
	_ = c.ShouldBindJSON(&req)
	if req.Quality == "" {
		req.Quality = domain.QualityMedium
	}
	if !h.Service.ConnectToCamera(cameraID(c), req.Quality) {
		c.JSON(http.StatusServiceUnavailable, gin.H{"accepted": false})
		return
	}
	c.JSON(http.StatusAccepted, gin.H{"accepted": true})
}

func (h *Handlers) Disconnect(c *gin.Context) {
	h.Service.DisconnectFromCamera(cameraID(c))
	c.Status(http.StatusNoContent)
}

type ptzRequest struct {
	Pan  float64 `json:"pan"`
	Tilt float64 `json:"tilt"`
	Zoom float64 `json:"zoom"`
}

func (h *Handlers) PanTiltZoom(c *gin.Context) {
	var req ptzRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid ptz payload"})
		return
	}
	h.Service.PanTiltZoom(cameraID(c), req.Pan, req.Tilt, req.Zoom)
	c.Status(http.StatusAccepted)
}

type presetRequest struct {
	PresetID int `json:"presetId"`
}

func (h *Handlers) Preset(c *gin.Context) {
	var req presetRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid preset payload"})
		return
	}
	h.Service.SetCameraPreset(cameraID(c), req.PresetID)
	c.Status(http.StatusAccepted)
}

type nightVisionRequest struct {
	Enabled bool `json:"enabled"`
}

func (h *Handlers) NightVision(c *gin.Context) {
	var req nightVisionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid night vision payload"})
		return
	}
	h.Service.ToggleNightVision(cameraID(c), req.Enabled)
	c.Status(http.StatusAccepted)
}

type recordingRequest struct {
	Action string `json:"action"`
}

func (h *Handlers) Recording(c *gin.Context) {
	var req recordingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid recording payload"})
		return
	}
	switch req.Action {
	case "start":
		h.Service.StartRecording(cameraID(c))
	case "stop":
		h.Service.StopRecording(cameraID(c))
	default:
		c.JSON(http.StatusBadRequest, gin.H{"error": "action must be start or stop"})
		return
	}
	c.Status(http.StatusAccepted)
}

type qualityRequest struct {
	Quality domain.Quality `json:"quality"`
}

func (h *Handlers) Quality(c *gin.Context) {
	var req qualityRequest
	if err := c.ShouldBindJSON(&req); err != nil || !req.Quality.Valid() {
		c.JSON(http.StatusBadRequest, gin.H{"error": "quality must be low, medium or high"})
		return
	}
	h.Service.ChangeStreamQuality(cameraID(c), req.Quality)
	c.Status(http.StatusAccepted)
}

type twoWayAudioRequest struct {
	Enabled bool `json:"enabled"`
}

func (h *Handlers) TwoWayAudio(c *gin.Context) {
	var req twoWayAudioRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid two-way audio payload"})
		return
	}
	if !req.Enabled {
		h.Service.DisableTwoWayAudio(cameraID(c))
		c.JSON(http.StatusOK, gin.H{"enabled": false})
		return
	}
	if !h.Service.EnableTwoWayAudio(cameraID(c)) {
		c.JSON(http.StatusConflict, gin.H{"error": "audio capture unavailable or no active session"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"enabled": true})
}

func (h *Handlers) LiveMonitoring(c *gin.Context) {
	c.JSON(http.StatusOK, h.Monitor.Snapshot())
}
