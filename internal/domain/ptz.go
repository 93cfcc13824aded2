package domain

// Positioning limits of the supported PTZ cameras.
const (
	PanMin  = -90.0
	PanMax  = 90.0
	TiltMin = -45.0
	TiltMax = 45.0
	ZoomMin = 1.0
	ZoomMax = 10.0
)

// PTZState mirrors the last commanded pan/tilt/zoom position. It is
// not a camera-confirmed value.
type PTZState struct {
	Pan  float64 `json:"pan"`
	Tilt float64 `json:"tilt"`
	Zoom float64 `json:"zoom"`
}

// DefaultPTZ is the assumed position before any command was sent.
func DefaultPTZ() PTZState {
	return PTZState{Zoom: ZoomMin}
}

// ClampPTZ forces a commanded position into the supported ranges.
func ClampPTZ(pan, tilt, zoom float64) PTZState {
	return PTZState{
		Pan:  clamp(pan, PanMin, PanMax),
		Tilt: clamp(tilt, TiltMin, TiltMax),
		Zoom: clamp(zoom, ZoomMin, ZoomMax),
	}
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
