// Package metrics exposes Prometheus collectors for the streaming agent.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// ActiveSessions tracks the size of the camera session registry.
	ActiveSessions = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "homecam_active_sessions",
		Help: "Number of camera sessions currently in the registry",
	})

	// SessionOutcomes counts terminal session results.
	SessionOutcomes = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "homecam_session_outcomes_total",
		Help: "Terminal camera session outcomes by result",
	}, []string{"result"})

	// SignalingReconnects counts signaling dial attempts after a drop
	// or failure.
	SignalingReconnects = promauto.NewCounter(prometheus.CounterOpts{
		Name: "homecam_signaling_reconnects_total",
		Help: "Signaling channel reconnect attempts",
	})

	// CommandsSent counts control-channel commands actually written.
	CommandsSent = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "homecam_commands_sent_total",
		Help: "Control channel commands sent by type",
	}, []string{"type"})

	// CommandsDropped counts commands discarded because the control
	// channel was not ready.
	CommandsDropped = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "homecam_commands_dropped_total",
		Help: "Control channel commands dropped before channel ready",
	}, []string{"type"})

	// EventsPublished counts bus events by name.
	EventsPublished = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "homecam_events_published_total",
		Help: "Pub/sub events published by event name",
	}, []string{"event"})
)
