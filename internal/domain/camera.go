// Package domain contains camera entities without logic, just meta-data.
package domain

import "errors"

type CameraID string

var ErrEmptyCameraID = errors.New("camera id empty")

// Quality is the requested stream quality. Renegotiable without
// tearing down the session.
type Quality string

const (
	QualityLow    Quality = "low"
	QualityMedium Quality = "medium"
	QualityHigh   Quality = "high"
)

// Valid reports whether q is one of the known quality levels.
func (q Quality) Valid() bool {
	switch q {
	case QualityLow, QualityMedium, QualityHigh:
		return true
	}
	return false
}

// ConnectionState tracks one camera session through its lifecycle.
type ConnectionState int

const (
	StateIdle ConnectionState = iota
	StateRequesting
	StateNegotiating
	StateConnected
	StateDisconnected
	StateFailed
)

func (s ConnectionState) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateRequesting:
		return "requesting"
	case StateNegotiating:
		return "negotiating"
	case StateConnected:
		return "connected"
	case StateDisconnected:
		return "disconnected"
	case StateFailed:
		return "failed"
	}
	return "unknown"
}

// Terminal reports whether the session is gone for good. A fresh
// connect always creates a new session, never revives a terminal one.
func (s ConnectionState) Terminal() bool {
	return s == StateDisconnected || s == StateFailed
}

func (s ConnectionState) MarshalJSON() ([]byte, error) {
	return []byte(`"` + s.String() + `"`), nil
}
