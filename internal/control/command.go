// Package control encodes device commands for the per-session control
// channel. Commands are fire-and-forget, at most once; there is no
// acknowledgement protocol. Every envelope is stamped with the send
// time in Unix milliseconds.
package control

import (
	"encoding/json"
	"time"

	"github.com/Neerajupadhayay2004/smart-home-automation/internal/domain"
)

// Command types carried in the envelope.
const (
	TypePTZ         = "ptz"
	TypePreset      = "preset"
	TypeNightVision = "nightVision"
	TypeRecording   = "recording"
	TypeQuality     = "quality"
)

// Recording actions.
const (
	ActionStart = "start"
	ActionStop  = "stop"
)

// now is swapped in tests.
var now = time.Now

type ptzCommand struct {
	Type      string  `json:"type"`
	Pan       float64 `json:"pan"`
	Tilt      float64 `json:"tilt"`
	Zoom      float64 `json:"zoom"`
	Timestamp int64   `json:"timestamp"`
}

type presetCommand struct {
	Type      string `json:"type"`
	PresetID  int    `json:"presetId"`
	Timestamp int64  `json:"timestamp"`
}

type nightVisionCommand struct {
	Type      string `json:"type"`
	Enabled   bool   `json:"enabled"`
	Timestamp int64  `json:"timestamp"`
}

type recordingCommand struct {
	Type      string `json:"type"`
	Action    string `json:"action"`
	Timestamp int64  `json:"timestamp"`
}

type qualityCommand struct {
	Type      string         `json:"type"`
	Quality   domain.Quality `json:"quality"`
	Timestamp int64          `json:"timestamp"`
}

func PTZ(pos domain.PTZState) []byte {
	return marshal(ptzCommand{Type: TypePTZ, Pan: pos.Pan, Tilt: pos.Tilt, Zoom: pos.Zoom, Timestamp: stamp()})
}

func Preset(presetID int) []byte {
	return marshal(presetCommand{Type: TypePreset, PresetID: presetID, Timestamp: stamp()})
}

func NightVision(enabled bool) []byte {
	return marshal(nightVisionCommand{Type: TypeNightVision, Enabled: enabled, Timestamp: stamp()})
}

func Recording(start bool) []byte {
	action := ActionStop
	if start {
		action = ActionStart
	}
	return marshal(recordingCommand{Type: TypeRecording, Action: action, Timestamp: stamp()})
}

func Quality(q domain.Quality) []byte {
	return marshal(qualityCommand{Type: TypeQuality, Quality: q, Timestamp: stamp()})
}

func stamp() int64 { return now().UnixMilli() }

func marshal(v any) []byte {
	// Command structs contain only JSON-safe fields.
	b, _ := json.Marshal(v)
	return b
}
